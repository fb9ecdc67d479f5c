// Package telemetry carries live vehicle positions from a feed to any
// number of stream subscribers.
//
// A Source produces positions; a Hub consumes one Source, remembers the
// latest position of every vehicle, and fans each update out to its
// subscribers without ever blocking on a slow one.
package telemetry

import (
	"context"

	"github.com/transsync/schedule-api/internal/domain"
)

// Source is a feed of vehicle positions.
// The returned channel is closed when ctx is done or the feed ends for good.
type Source interface {
	Subscribe(ctx context.Context) (<-chan domain.Position, error)
}
