package app

import (
	"github.com/tvbox-mirror/feed-mirror/internal/sync/coordinator"
	"github.com/tvbox-mirror/feed-mirror/internal/telemetry"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Coordinator runs one mirror pass over all sources
	Coordinator coordinator.Coordinator

	// Telemetry owns the tracer and meter providers
	Telemetry *telemetry.Telemetry
}
