package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ripple-social/apiserver/internal/mailer"
	"github.com/ripple-social/apiserver/internal/mq"
	"github.com/ripple-social/apiserver/types"
	"github.com/rs/zerolog"
)

// Notifier consumes user events from the broker and sends welcome email.
type Notifier struct {
	broker *mq.MQ
	mailer *mailer.Mailer
	logger zerolog.Logger
}

// New constructs a Notifier with the provided dependencies.
func New(broker *mq.MQ, mail *mailer.Mailer, logger zerolog.Logger) *Notifier {
	return &Notifier{
		broker: broker,
		mailer: mail,
		logger: logger,
	}
}

// Run blocks consuming the user-events channel until ctx ends.
func (n *Notifier) Run(ctx context.Context) error {
	n.logger.Info().Str("channel", types.UserEventsChannel).Msg("notifier started")
	return n.broker.Subscribe(ctx, types.UserEventsChannel, n.handle)
}

func (n *Notifier) handle(ctx context.Context, msg mq.Message) error {
	var event types.UserEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		// Malformed payloads are dropped, not retried.
		n.logger.Error().Err(err).Str("message_id", msg.ID).Msg("decode user event")
		return nil
	}

	if event.Type != types.EventUserRegistered {
		return nil
	}

	subject := "Welcome to Ripple"
	body := fmt.Sprintf("Hi %s,\n\nYour account is ready. Jump in and share your first post.\n", event.Name)
	if err := n.mailer.Send(event.Email, subject, body); err != nil {
		n.logger.Error().Err(err).Str("user_id", event.UserID).Msg("send welcome email")
		return err
	}

	n.logger.Info().Str("user_id", event.UserID).Msg("welcome email sent")
	return nil
}
