// Package actor carries the chat user behind a request through the context,
// so code far from the channel layer can log who asked and check what they
// may do.
package actor

import "context"

// Actor identifies a sender on a channel.
type Actor struct {
	ChannelID      string
	ConversationID string
	SenderID       string
	// Owner is set when the message came from the owner's conversation, or
	// from the local operator.
	Owner bool
}

// String renders the actor as channel:sender.
func (a Actor) String() string {
	return a.ChannelID + ":" + a.SenderID
}

type contextKey struct{}

// WithActor returns ctx carrying a. An actor without a sender is not attached.
func WithActor(ctx context.Context, a Actor) context.Context {
	if a.SenderID == "" {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, a)
}

// From returns the actor attached to ctx.
func From(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	a, ok := ctx.Value(contextKey{}).(Actor)
	return a, ok
}

// Field returns the actor as a log field value, or "" when none is attached.
func Field(ctx context.Context) string {
	if a, ok := From(ctx); ok {
		return a.String()
	}
	return ""
}

// IsOwner reports whether ctx carries an owner actor. A context without an
// actor is not the owner.
func IsOwner(ctx context.Context) bool {
	a, ok := From(ctx)
	return ok && a.Owner
}
