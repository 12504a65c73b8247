// Package service composes the ledger core with the persistence, messaging,
// and notification backends behind the HTTP API.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/domain"
)

const (
	// EventChannel is the Redis Pub/Sub channel live subscribers listen on.
	EventChannel = "ledger.events"
	// eventStream is the durable Redis stream backing the same events.
	eventStream = "ledger:events"
)

// eventSink fans a ledger event out to the journal, the pub/sub channel, and
// the durable stream. Fan-out failures are logged but never fail the ledger
// operation that produced the event; the operation has already committed.
type eventSink struct {
	journal domain.EventJournal
	bus     domain.EventBus
	logger  *slog.Logger
}

func (s *eventSink) emit(ctx context.Context, typ domain.EventType, detail map[string]any) {
	ev := domain.Event{
		ID:        uuid.New(),
		Type:      typ,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.journal.Append(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "event journal append failed",
			slog.String("type", string(typ)),
			slog.String("error", err.Error()),
		)
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		s.logger.WarnContext(ctx, "event encode failed",
			slog.String("type", string(typ)),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := s.bus.Publish(ctx, EventChannel, payload); err != nil {
		s.logger.WarnContext(ctx, "event publish failed",
			slog.String("type", string(typ)),
			slog.String("error", err.Error()),
		)
	}
	if err := s.bus.StreamAppend(ctx, eventStream, payload); err != nil {
		s.logger.WarnContext(ctx, "event stream append failed",
			slog.String("type", string(typ)),
			slog.String("error", err.Error()),
		)
	}
}
