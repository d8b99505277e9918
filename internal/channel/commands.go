package channel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/openclaw/openclaw/internal/actor"
	"github.com/openclaw/openclaw/internal/cycle"
	"github.com/openclaw/openclaw/internal/state"
	"github.com/openclaw/openclaw/internal/state/store"
)

// Assistant answers free-text chat, normally *failover.Router.
type Assistant interface {
	Handle(ctx context.Context, userMessage string) string
}

// Cycle is the monitoring cycle, normally *cycle.Runner.
type Cycle interface {
	Run(ctx context.Context) (*store.Run, error)
	Preview(ctx context.Context) (linkedIn, twitter string, err error)
	LastRun(ctx context.Context) (*store.Run, error)
}

const welcomeText = "Welcome to OpenClaw Agent! 🤖\n\n" +
	"Commands:\n" +
	"/status - Check agent status\n" +
	"/trigger - Run monitoring cycle now\n" +
	"/preview - Preview next post\n" +
	"/pause - Pause auto-posting\n" +
	"/resume - Resume auto-posting\n\n" +
	"Send me any message to chat with my Gemini brain! 🧠"

// Commands implements the bot's slash commands and routes free text to the assistant.
type Commands struct {
	assistant Assistant
	cycle     Cycle
	flags     state.Flags
	owner     string
	now       func() time.Time
}

type CommandsOption func(*Commands)

// WithOwner restricts /trigger, /pause and /resume to one conversation.
func WithOwner(conversationID string) CommandsOption {
	return func(c *Commands) { c.owner = conversationID }
}

func WithCommandsClock(now func() time.Time) CommandsOption {
	return func(c *Commands) { c.now = now }
}

func NewCommands(assistant Assistant, runner Cycle, flags state.Flags, opts ...CommandsOption) *Commands {
	c := &Commands{assistant: assistant, cycle: runner, flags: flags, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Handle answers one inbound message. The sender travels in ctx as an
// actor so capabilities reached through the assistant can check ownership.
func (c *Commands) Handle(ctx context.Context, msg InboundMessage, conv *Conversation) error {
	text := strings.TrimSpace(msg.Content)
	if text == "" {
		return nil
	}
	ctx = actor.WithActor(ctx, c.actorFor(msg))
	if !strings.HasPrefix(text, "/") {
		conv.Typing(ctx)
		return conv.Reply(ctx, c.assistant.Handle(ctx, text))
	}

	cmd := commandName(text)
	switch cmd {
	case "start", "help":
		return conv.Reply(ctx, welcomeText)
	case "status":
		return conv.Reply(ctx, c.status(ctx))
	case "preview":
		return c.preview(ctx, conv)
	case "trigger", "pause", "resume":
		if !c.isOwner(msg) {
			return conv.Reply(ctx, "This command is restricted to the owner.")
		}
	default:
		return nil
	}

	switch cmd {
	case "trigger":
		if err := conv.Reply(ctx, "Triggering monitoring cycle..."); err != nil {
			return err
		}
		// The runner reports its own failures to the owner.
		if _, err := c.cycle.Run(ctx); errors.Is(err, cycle.ErrInProgress) {
			return conv.Reply(ctx, "A monitoring cycle is already running.")
		}
		return conv.Reply(ctx, "Cycle complete.")
	case "pause":
		if err := c.flags.SetPaused(ctx, true); err != nil {
			return conv.Reply(ctx, fmt.Sprintf("Could not pause: %v", err))
		}
		return conv.Reply(ctx, "Auto-posting paused.")
	default:
		if err := c.flags.SetPaused(ctx, false); err != nil {
			return conv.Reply(ctx, fmt.Sprintf("Could not resume: %v", err))
		}
		return conv.Reply(ctx, "Auto-posting resumed.")
	}
}

// isOwner is true for every conversation when no owner is configured.
func (c *Commands) isOwner(msg InboundMessage) bool {
	return c.owner == "" || msg.ConversationID == c.owner
}

func (c *Commands) actorFor(msg InboundMessage) actor.Actor {
	sender := msg.SenderID
	if sender == "" {
		sender = msg.ConversationID
	}
	return actor.Actor{
		ChannelID:      msg.ChannelID,
		ConversationID: msg.ConversationID,
		SenderID:       sender,
		Owner:          c.isOwner(msg),
	}
}

// commandName returns "status" for "/status@OpenClawBot extra args".
func commandName(text string) string {
	name := strings.TrimPrefix(strings.Fields(text)[0], "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}

func (c *Commands) status(ctx context.Context) string {
	mode := "ACTIVE ✅"
	if paused, err := c.flags.Paused(ctx); err != nil {
		mode = fmt.Sprintf("UNKNOWN (%v)", err)
	} else if paused {
		mode = "PAUSED ⏸️"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Agent is running.\nAuto-posting is %s\nLast check: %s",
		mode, c.now().Format("Jan 2, 2006 15:04:05 MST"))

	run, err := c.cycle.LastRun(ctx)
	switch {
	case err != nil:
		fmt.Fprintf(&b, "\nLast cycle: unavailable (%v)", err)
	case run != nil:
		fmt.Fprintf(&b, "\nLast cycle: %s", run.StartedAt.In(c.now().Location()).Format("Jan 2, 2006 15:04 MST"))
		if outcomes := formatOutcomes(run.Outcomes); outcomes != "" {
			fmt.Fprintf(&b, " (%s)", outcomes)
		}
		if run.Error != "" {
			fmt.Fprintf(&b, "\nLast error: %s", run.Error)
		}
	}
	return b.String()
}

func formatOutcomes(outcomes map[string]string) string {
	names := make([]string, 0, len(outcomes))
	for name := range outcomes {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+outcomes[name])
	}
	return strings.Join(parts, ", ")
}

func (c *Commands) preview(ctx context.Context, conv *Conversation) error {
	if err := conv.Reply(ctx, "Generating preview..."); err != nil {
		return err
	}
	linkedIn, twitter, err := c.cycle.Preview(ctx)
	if err != nil {
		return conv.Reply(ctx, fmt.Sprintf("Error generating preview: %v", err))
	}
	if err := conv.Reply(ctx, "LinkedIn Preview:\n\n"+linkedIn); err != nil {
		return err
	}
	return conv.Reply(ctx, "Twitter Preview:\n\n"+twitter)
}
