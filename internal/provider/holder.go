package provider

import (
	"context"
	"sync"
)

// ClientHolder memoizes one client per credential. A new credential
// replaces the cached client.
type ClientHolder[T any] struct {
	mu     sync.Mutex
	build  func(ctx context.Context, credential string) (T, error)
	key    string
	client T
	ready  bool
}

func NewClientHolder[T any](build func(ctx context.Context, credential string) (T, error)) *ClientHolder[T] {
	return &ClientHolder[T]{build: build}
}

func (h *ClientHolder[T]) Get(ctx context.Context, credential string) (T, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ready && h.key == credential {
		return h.client, nil
	}
	c, err := h.build(ctx, credential)
	if err != nil {
		var zero T
		return zero, err
	}
	h.client, h.key, h.ready = c, credential, true
	return c, nil
}
