package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"homequote/internal/domain/entities"
	"homequote/internal/usecase/interfaces"

	log "github.com/sirupsen/logrus"
)

// publishEvent broadcasts a committed transition. The state change is already
// durable at this point, so a publish failure is logged and never returned.
func publishEvent(ctx context.Context, publisher interfaces.IEventPublisher, event entities.LifecycleEvent) {
	if publisher == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log.Warnf("[events][usecase] publish failed type=%s service_request_id=%s quote_id=%s err=%v",
			event.Type, event.ServiceRequestID, event.QuoteID, err)
	}
}

func requireID(id string, invalid error) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", invalid
	}
	return id, nil
}

func isConditionFailed(err error) bool {
	return errors.Is(err, interfaces.ErrConditionFailed)
}

func isQuoteLimitReached(err error) bool {
	return errors.Is(err, interfaces.ErrQuoteLimitReached)
}

// normalizeCategories trims, drops blanks and removes duplicates while keeping order.
func normalizeCategories(categories []string) []string {
	out := make([]string, 0, len(categories))
	seen := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
