package ports

import (
	"context"
	"image"
	"iter"

	"github.com/samirrijal/mapexplorer/internal/core/domain"
)

// GenerativeModel streams a structured response for one query.
// The sequence yields chunks in arrival order and stops after the first error.
type GenerativeModel interface {
	StreamCalls(ctx context.Context, req domain.ModelRequest) iter.Seq2[domain.ModelChunk, error]
}

// EventPublisher publishes live map events to a message broker.
type EventPublisher interface {
	PublishMapEvent(ctx context.Context, ev *domain.MapEvent) error
}

// EventSubscriber delivers the raw live map events of one session.
type EventSubscriber interface {
	SubscribeSession(sessionID string, handler func(data []byte)) (unsubscribe func() error, err error)
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// MapRenderer draws the map surface of a view as a static image.
type MapRenderer interface {
	Snapshot(ctx context.Context, view *domain.View) (image.Image, error)
}
