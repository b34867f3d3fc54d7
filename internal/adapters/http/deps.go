package http

import (
	"github.com/nats-io/nats.go"

	"github.com/dlathrop/geoscout/internal/adapters/valkey"
	"github.com/dlathrop/geoscout/internal/core/usecases"
	"github.com/dlathrop/geoscout/internal/pkg/config"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Locator  *usecases.LocatorService
	Planner  *usecases.PlannerService
	Geocoder *usecases.GeocodeService
	Sessions *usecases.SessionService
	Map      config.MapConfig
	NATS     *nats.Conn
	Cache    *valkey.Cache
}
