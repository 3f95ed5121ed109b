package events

import (
	"context"

	"homequote/internal/domain/entities"
	"homequote/internal/usecase/interfaces"

	log "github.com/sirupsen/logrus"
)

// LogPublisher only logs events. Used when no broker is configured.
type LogPublisher struct{}

var _ interfaces.IEventPublisher = LogPublisher{}

func (LogPublisher) Publish(_ context.Context, event entities.LifecycleEvent) error {
	log.WithFields(log.Fields{
		"type":               event.Type,
		"service_request_id": event.ServiceRequestID,
		"quote_id":           event.QuoteID,
		"occurred_at":        event.OccurredAt,
	}).Info("[events][log] lifecycle event")
	return nil
}

func (LogPublisher) Close() error { return nil }
