package telemetry

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/transsync/schedule-api/internal/domain"
)

// Default origin of the simulated fleet (Bogotá) and how far a vehicle may
// wander from it, in degrees.
const (
	originLat = 4.7110
	originLng = -74.0721
	maxDrift  = 0.05
	stepSize  = 0.001
)

// Simulator is a Source that moves a fixed set of vehicles on a bounded
// random walk. It stands in for a real feed in development.
type Simulator struct {
	vehicles []int64
	interval time.Duration
	rng      *rand.Rand
	now      func() time.Time
}

// NewSimulator returns a Simulator for vehicle ids 1..count that emits one
// position per vehicle every interval. seed makes the walk reproducible.
func NewSimulator(count int, interval time.Duration, seed uint64) *Simulator {
	ids := make([]int64, 0, count)
	for i := 1; i <= count; i++ {
		ids = append(ids, int64(i))
	}
	return &Simulator{
		vehicles: ids,
		interval: interval,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now:      time.Now,
	}
}

// Subscribe starts the walk. Only one subscription should be active at a
// time; the walk state is not shared between them.
func (s *Simulator) Subscribe(ctx context.Context) (<-chan domain.Position, error) {
	out := make(chan domain.Position, len(s.vehicles))
	current := make(map[int64]domain.Position, len(s.vehicles))
	for _, id := range s.vehicles {
		current[id] = domain.Position{
			VehicleID: id,
			Lat:       originLat + (s.rng.Float64()*2-1)*maxDrift,
			Lng:       originLng + (s.rng.Float64()*2-1)*maxDrift,
		}
	}

	go func() {
		defer close(out)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			for _, id := range s.vehicles {
				p := s.step(current[id])
				current[id] = p
				select {
				case out <- p:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// step moves p by at most stepSize on each axis, staying within maxDrift
// of the origin.
func (s *Simulator) step(p domain.Position) domain.Position {
	p.Lat = clamp(p.Lat+(s.rng.Float64()*2-1)*stepSize, originLat-maxDrift, originLat+maxDrift)
	p.Lng = clamp(p.Lng+(s.rng.Float64()*2-1)*stepSize, originLng-maxDrift, originLng+maxDrift)
	p.Speed = 20 + s.rng.Float64()*40
	p.RecordedAt = s.now().UTC()
	return p
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
