package actor

import (
	"context"
	"testing"
)

func TestWithActorRoundTrip(t *testing.T) {
	ctx := WithActor(context.Background(), Actor{ChannelID: "telegram", ConversationID: "-100", SenderID: "42"})
	a, ok := From(ctx)
	if !ok {
		t.Fatal("actor not found")
	}
	if a.String() != "telegram:42" {
		t.Errorf("actor = %q", a)
	}
	if a.ConversationID != "-100" {
		t.Errorf("conversation = %q", a.ConversationID)
	}
	if Field(ctx) != "telegram:42" {
		t.Errorf("field = %q", Field(ctx))
	}
}

func TestWithActorSkipsEmptySender(t *testing.T) {
	ctx := WithActor(context.Background(), Actor{ChannelID: "websocket"})
	if _, ok := From(ctx); ok {
		t.Fatal("empty sender should not be attached")
	}
	if Field(ctx) != "" {
		t.Errorf("field = %q", Field(ctx))
	}
}

func TestIsOwner(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want bool
	}{
		{"no actor", context.Background(), false},
		{"stranger", WithActor(context.Background(), Actor{ChannelID: "telegram", SenderID: "7"}), false},
		{"owner", WithActor(context.Background(), Actor{ChannelID: "telegram", SenderID: "42", Owner: true}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOwner(tt.ctx); got != tt.want {
				t.Errorf("IsOwner = %v, want %v", got, tt.want)
			}
		})
	}
}
