package parking

import "sync"

// Floor is an ordered run of spots searched first-fit. The plate index and
// spot occupancy are only ever changed together under mu.
type Floor struct {
	Number int

	mu    sync.Mutex
	spots []*Spot
	index map[string]*Spot
}

func NewFloor(number int, layout []SpotType) *Floor {
	spots := make([]*Spot, len(layout))
	for i, t := range layout {
		spots[i] = NewSpot(i+1, t)
	}

	return &Floor{
		Number: number,
		spots:  spots,
		index:  make(map[string]*Spot),
	}
}

// TryPark places v in the first free spot that fits, in floor order.
func (f *Floor) TryPark(v *Vehicle) bool {
	_, ok := f.park(v)
	return ok
}

func (f *Floor) park(v *Vehicle) (*Spot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, spot := range f.spots {
		if spot.TryOccupy(v) {
			f.index[v.LicensePlate()] = spot
			return spot, true
		}
	}
	return nil, false
}

// TryRelease frees the spot holding v. It returns false when v is not
// parked on this floor.
func (f *Floor) TryRelease(v *Vehicle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	spot, ok := f.index[v.LicensePlate()]
	if !ok {
		return false
	}
	spot.Release()
	delete(f.index, v.LicensePlate())
	return true
}

// Find returns the spot number holding the plate.
func (f *Floor) Find(licensePlate string) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	spot, ok := f.index[licensePlate]
	if !ok {
		return 0, false
	}
	return spot.Number, true
}

// Snapshot copies the spots so callers can read them without holding the lock.
func (f *Floor) Snapshot() []Spot {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Spot, len(f.spots))
	for i, spot := range f.spots {
		out[i] = *spot
	}
	return out
}

func (f *Floor) Capacity() int {
	return len(f.spots)
}

func (f *Floor) Occupied() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.index)
}
