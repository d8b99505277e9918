package provider

import (
	"context"
	"errors"

	"github.com/openclaw/openclaw/internal/capability"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

var (
	// ErrNotConfigured means the backend has no credential.
	ErrNotConfigured = errors.New("provider not configured")
	// ErrEmptyResponse means the backend answered without any candidate message.
	ErrEmptyResponse = errors.New("empty response from provider")
)

// Turn is one entry of a conversation. An assistant turn keeps the backend's
// own message in Raw so it can be replayed unchanged on the next request.
type Turn struct {
	Role        Role
	Text        string
	Invocations []capability.Invocation
	Result      *capability.Result
	Raw         any
}

func SystemTurn(text string) Turn { return Turn{Role: RoleSystem, Text: text} }

func UserTurn(text string) Turn { return Turn{Role: RoleUser, Text: text} }

func ToolTurn(res capability.Result) Turn { return Turn{Role: RoleTool, Result: &res} }

// CompletionRequest carries the whole conversation. Whenever Tools is non-empty
// the adapter sends it with automatic tool selection.
type CompletionRequest struct {
	Turns []Turn
	Tools []capability.Capability
}

type CompletionResponse struct {
	Text        string
	Invocations []capability.Invocation
	// Turn is the assistant turn to append before continuing the conversation.
	Turn Turn
}

type Provider interface {
	ID() string
	Configured() bool
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// Credential returns the current API key. It is consulted on every request.
type Credential func() string

func StaticCredential(key string) Credential {
	return func() string { return key }
}
