package interfaces

import (
	"context"

	"homequote/internal/domain/entities"
)

// IEventPublisher broadcasts committed lifecycle transitions (e.g. to Kafka).
type IEventPublisher interface {
	Publish(ctx context.Context, event entities.LifecycleEvent) error
}
