package channel

import (
	"context"
	"time"

	"github.com/openclaw/openclaw/internal/logging"
)

// NewMessageHandler hands every message to the command set and logs how long
// it took.
func NewMessageHandler(cmds *Commands) MessageHandler {
	return func(ctx context.Context, msg InboundMessage, conv *Conversation) error {
		start := time.Now()
		err := cmds.Handle(ctx, msg, conv)
		logging.For("channel").WithField("actor", msg.ChannelID+":"+msg.SenderID).
			WithField("duration", time.Since(start)).Debug("message handled")
		return err
	}
}
