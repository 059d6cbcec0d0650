package parking

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"parking-garage/internal/logging"
)

var ErrNoGarage = errors.New("garage not created")

// Desk holds the garage in service and the drivers known to it. Every front
// end that serves one garage must share one Desk, since entry records are
// keyed by driver id alone.
type Desk struct {
	telemetry *TelemetryProvider
	opts      []Option

	mu      sync.RWMutex
	system  *InstrumentedSystem
	drivers *Drivers
}

// NewDesk starts with system in service, or with no garage if system is nil.
// opts apply to every garage opened later.
func NewDesk(telemetry *TelemetryProvider, system *InstrumentedSystem, opts ...Option) *Desk {
	return &Desk{
		telemetry: telemetry,
		opts:      opts,
		system:    system,
		drivers:   NewDrivers(),
	}
}

func (d *Desk) Telemetry() *TelemetryProvider {
	return d.telemetry
}

// Current returns the system in service and its drivers as one pair.
func (d *Desk) Current() (*InstrumentedSystem, *Drivers, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.system == nil {
		return nil, nil, ErrNoGarage
	}
	return d.system, d.drivers, nil
}

// Open replaces the garage in service with a fresh one built from layout.
// Drivers and balances from the old garage are dropped with it. Options
// given here override the desk defaults.
func (d *Desk) Open(ctx context.Context, layout [][]SpotType, hourlyRate float64, opts ...Option) (*InstrumentedSystem, error) {
	garage, err := NewGarageFromLayout(layout)
	if err != nil {
		return nil, err
	}

	all := append(append([]Option{}, d.opts...), opts...)
	system, err := NewInstrumentedSystem(NewSystem(garage, hourlyRate, all...), d.telemetry)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	old := d.system
	d.system = system
	d.drivers = NewDrivers()
	d.mu.Unlock()

	if old != nil {
		old.Retire(ctx)
	}

	logging.Info(ctx, "garage opened",
		slog.Int("floors", len(layout)),
		slog.Int("capacity", garage.Capacity()),
		slog.Float64("hourly_rate", hourlyRate),
		slog.String("billing_mode", string(system.BillingMode())),
	)

	return system, nil
}
