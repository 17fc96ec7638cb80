package http

import (
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mapexplorer/internal/adapters/valkey"
	"github.com/samirrijal/mapexplorer/internal/core/ports"
	"github.com/samirrijal/mapexplorer/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Sessions *usecases.SessionService
	Explorer *usecases.ExploreService
	Exports  *usecases.ExportService
	Renderer ports.MapRenderer     // nil when no maps key is configured
	Events   ports.EventSubscriber // nil when NATS is disabled
	NATS     *nats.Conn
	Cache    *valkey.Cache

	// QueryTimeout bounds one model round-trip. Zero means no limit.
	QueryTimeout time.Duration
}
