package capability

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

func (r *Registry) execute(ctx context.Context, name string, exec Executor, args Args) (any, error) {
	if args == nil {
		args = Args{}
	}
	if r.timeout <= 0 {
		return safeCall(ctx, exec, args)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type outcome struct {
		result any
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := safeCall(callCtx, exec, args)
		done <- outcome{res, err}
	}()

	select {
	case o := <-done:
		return o.result, o.err
	case <-callCtx.Done():
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s timed out after %s", name, r.timeout)
		}
		return nil, fmt.Errorf("%s: %w", name, callCtx.Err())
	}
}

func safeCall(ctx context.Context, exec Executor, args Args) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return exec(ctx, args)
}

// isNil catches typed nils such as a (*T)(nil) stored in an interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
