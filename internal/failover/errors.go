package failover

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"
)

// ProviderError is a backend failure with an HTTP status.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.StatusCode, e.Message)
}

// IsRateLimited reports whether err means the backend is out of quota:
// an HTTP 429 anywhere in the chain, or a message mentioning "429" or "quota".
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if statusCode(err) == http.StatusTooManyRequests {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(strings.ToLower(msg), "quota")
}

func statusCode(err error) int {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode
	}
	var ge genai.APIError
	if errors.As(err, &ge) {
		return ge.Code
	}
	var gep *genai.APIError
	if errors.As(err, &gep) && gep != nil {
		return gep.Code
	}
	var oe *openai.Error
	if errors.As(err, &oe) {
		return oe.StatusCode
	}
	return 0
}

// BackendError is a primary failure that does not fall back.
type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// DualFailureError means neither backend produced an answer.
type DualFailureError struct {
	Primary     string
	PrimaryErr  error
	Fallback    string
	FallbackErr error
}

func (e *DualFailureError) Error() string {
	return fmt.Sprintf("%s: %v; %s: %v", e.Primary, e.PrimaryErr, e.Fallback, e.FallbackErr)
}

func (e *DualFailureError) Unwrap() []error {
	return []error{e.PrimaryErr, e.FallbackErr}
}

// ErrOffline means no backend has a credential.
var ErrOffline = errors.New("no assistant backend configured")
