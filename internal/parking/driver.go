package parking

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type Driver struct {
	id      string
	vehicle *Vehicle

	mu         sync.Mutex
	paymentDue float64
}

func NewDriver(id string, vehicle *Vehicle) *Driver {
	return &Driver{
		id:      id,
		vehicle: vehicle,
	}
}

func (d *Driver) ID() string {
	return d.id
}

func (d *Driver) Vehicle() *Vehicle {
	return d.vehicle
}

// Charge adds to the balance. It never triggers settlement.
func (d *Driver) Charge(amount float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.paymentDue += amount
}

func (d *Driver) PaymentDue() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.paymentDue
}

// Settle hands the outstanding balance to processor. The balance is cleared
// only if the processor accepts it; a zero balance is a no-op.
func (d *Driver) Settle(ctx context.Context, processor PaymentProcessor) (*Receipt, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.paymentDue == 0 {
		return nil, ErrNothingDue
	}

	receipt, err := processor.ProcessPayment(ctx, d.paymentDue)
	if err != nil {
		return nil, fmt.Errorf("settle driver %s: %w", d.id, err)
	}
	d.paymentDue = 0
	return receipt, nil
}

var ErrDriverConflict = errors.New("driver is registered with a different vehicle")

// Drivers keeps one Driver per id for the lifetime of the process so that
// balances survive across parking sessions.
type Drivers struct {
	mu      sync.Mutex
	drivers map[string]*Driver
}

func NewDrivers() *Drivers {
	return &Drivers{drivers: make(map[string]*Driver)}
}

// Register returns the existing driver for id, or creates one bound to v.
// A second registration with a different plate or size is refused.
func (r *Drivers) Register(id string, v *Vehicle) (*Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.drivers[id]; ok {
		if d.vehicle.LicensePlate() != v.LicensePlate() || d.vehicle.Size() != v.Size() {
			return nil, fmt.Errorf("%w: %s drives %s", ErrDriverConflict, id, d.vehicle.LicensePlate())
		}
		return d, nil
	}
	d := NewDriver(id, v)
	r.drivers[id] = d
	return d, nil
}

func (r *Drivers) Get(id string) (*Driver, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drivers[id]
	return d, ok
}
