package command

import (
	"context"
	"log/slog"

	"github.com/rocketscienceinc/mafia-bot/internal/usecase"
)

type messenger interface {
	Deliver(ctx context.Context, delivery Delivery) error
}

// Announcer turns timer driven registry events into group messages.
type Announcer struct {
	logger    *slog.Logger
	messenger messenger
}

func NewAnnouncer(logger *slog.Logger, messenger messenger) *Announcer {
	return &Announcer{
		logger:    logger.With("component", "announcer"),
		messenger: messenger,
	}
}

func (that *Announcer) Announce(ctx context.Context, conversationID string, event usecase.Event) {
	text := renderEvent(event)
	if text == "" {
		return
	}

	if err := that.messenger.Deliver(ctx, Delivery{Recipient: conversationID, Text: text}); err != nil {
		that.logger.Error("failed to announce", "conversation", conversationID, "error", err)
	}
}
