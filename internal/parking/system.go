package parking

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
)

var (
	ErrGarageFull     = errors.New("no compatible spot available")
	ErrAlreadyParked  = errors.New("already parked")
	ErrPlateInUse     = errors.New("license plate is already in the garage")
	ErrNotParked      = errors.New("driver has no active parking session")
	ErrVehicleMissing = errors.New("vehicle not found in garage")
)

type BillingMode string

const (
	// BillingHourOfDay bills on wall-clock hours, wrapping at midnight.
	// Stays of 24 hours or more are undercounted.
	BillingHourOfDay BillingMode = "hour-of-day"
	// BillingElapsed bills the true elapsed duration, rounded up.
	BillingElapsed BillingMode = "elapsed"
)

func ParseBillingMode(s string) (BillingMode, error) {
	switch BillingMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", BillingHourOfDay:
		return BillingHourOfDay, nil
	case BillingElapsed:
		return BillingElapsed, nil
	}
	return "", fmt.Errorf("unknown billing mode %q", s)
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type Option func(*System)

func WithClock(c Clock) Option {
	return func(s *System) { s.clock = c }
}

func WithBillingMode(m BillingMode) Option {
	return func(s *System) { s.billing = m }
}

// System ties occupancy to billing. It is the only writer of entry times.
type System struct {
	garage     *Garage
	hourlyRate float64
	clock      Clock
	billing    BillingMode

	mu      sync.Mutex
	entries map[string]time.Time
}

func NewSystem(garage *Garage, hourlyRate float64, opts ...Option) *System {
	s := &System{
		garage:     garage,
		hourlyRate: hourlyRate,
		clock:      systemClock{},
		billing:    BillingHourOfDay,
		entries:    make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *System) Garage() *Garage {
	return s.garage
}

func (s *System) HourlyRate() float64 {
	return s.hourlyRate
}

func (s *System) BillingMode() BillingMode {
	return s.billing
}

func (s *System) ParkVehicle(d *Driver) bool {
	_, err := s.Park(d)
	return err == nil
}

// Park is ParkVehicle that also reports the allocated location. A driver
// that already holds an entry record is refused, as is a plate already
// occupying a spot. Both checks run under the same lock as the allocation,
// so parks that go through a System never double-book a plate.
func (s *System) Park(d *Driver) (Location, error) {
	now := s.clock.Now()
	plate := d.Vehicle().LicensePlate()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, parked := s.entries[d.ID()]; parked {
		return Location{}, fmt.Errorf("driver %s is %w", d.ID(), ErrAlreadyParked)
	}
	if _, taken := s.garage.Locate(plate); taken {
		return Location{}, fmt.Errorf("%w: %s", ErrPlateInUse, plate)
	}
	loc, ok := s.garage.ParkAt(d.Vehicle())
	if !ok {
		return Location{}, ErrGarageFull
	}
	s.entries[d.ID()] = now
	return loc, nil
}

func (s *System) RemoveVehicle(d *Driver) bool {
	_, ok := s.Remove(d)
	return ok
}

type Charge struct {
	Hours  int
	Amount float64
}

// Remove bills the driver and frees the spot. With no entry record nothing
// is charged or released.
func (s *System) Remove(d *Driver) (Charge, bool) {
	now := s.clock.Now()

	s.mu.Lock()
	entry, ok := s.entries[d.ID()]
	if !ok {
		s.mu.Unlock()
		return Charge{}, false
	}
	delete(s.entries, d.ID())
	s.mu.Unlock()

	hours := s.billableHours(entry, now)
	charge := Charge{Hours: hours, Amount: float64(hours) * s.hourlyRate}
	d.Charge(charge.Amount)

	return charge, s.garage.Release(d.Vehicle())
}

// Quote prices a stay as if the driver left now, without changing state.
func (s *System) Quote(driverID string) (Charge, bool) {
	now := s.clock.Now()
	entry, ok := s.EntryTime(driverID)
	if !ok {
		return Charge{}, false
	}
	hours := s.billableHours(entry, now)
	return Charge{Hours: hours, Amount: float64(hours) * s.hourlyRate}, true
}

func (s *System) EntryTime(driverID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.entries[driverID]
	return t, ok
}

func (s *System) IsParked(driverID string) bool {
	_, ok := s.EntryTime(driverID)
	return ok
}

func (s *System) billableHours(entry, exit time.Time) int {
	if s.billing == BillingElapsed {
		return ElapsedHours(exit.Sub(entry))
	}
	return HourOfDayHours(entry.Hour(), exit.Hour())
}

// HourOfDayHours returns (exit-entry+24) mod 24, with a minimum of one hour.
func HourOfDayHours(entryHour, exitHour int) int {
	hours := ((exitHour-entryHour)%24 + 24) % 24
	if hours == 0 {
		return 1
	}
	return hours
}

// ElapsedHours rounds d up to whole hours, with a minimum of one hour.
func ElapsedHours(d time.Duration) int {
	hours := int(math.Ceil(d.Hours()))
	if hours < 1 {
		return 1
	}
	return hours
}
