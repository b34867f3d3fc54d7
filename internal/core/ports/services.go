package ports

import "context"

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// EventPublisher broadcasts session state replacements to a message broker so
// attached clients (e.g. the WebSocket relay) can repaint.
type EventPublisher interface {
	PublishPlacesUpdated(ctx context.Context, sessionID string, payload []byte) error
	PublishRouteUpdated(ctx context.Context, sessionID string, payload []byte) error
	PublishBroadcast(ctx context.Context, data []byte) error
}
