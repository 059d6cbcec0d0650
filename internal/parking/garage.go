package parking

import (
	"errors"
	"fmt"
	"strings"
)

var ErrEmptyLayout = errors.New("garage layout has no spots")

type Location struct {
	Floor int
	Spot  int
}

func (l Location) String() string {
	return fmt.Sprintf("floor %d, spot %d", l.Floor, l.Spot)
}

type FloorStatus struct {
	Number int
	Spots  []Spot
}

// Garage delegates to its floors in order; the first floor with a fitting
// free spot always wins.
type Garage struct {
	floors []*Floor
}

func NewGarage(floors ...*Floor) *Garage {
	return &Garage{floors: floors}
}

// NewGarageFromLayout builds one floor per entry, numbered from 1.
func NewGarageFromLayout(layout [][]SpotType) (*Garage, error) {
	total := 0
	floors := make([]*Floor, len(layout))
	for i, spots := range layout {
		floors[i] = NewFloor(i+1, spots)
		total += len(spots)
	}
	if total == 0 {
		return nil, ErrEmptyLayout
	}
	return NewGarage(floors...), nil
}

func (g *Garage) Park(v *Vehicle) bool {
	_, ok := g.ParkAt(v)
	return ok
}

// ParkAt is Park that also reports where the vehicle went.
func (g *Garage) ParkAt(v *Vehicle) (Location, bool) {
	for _, floor := range g.floors {
		if spot, ok := floor.park(v); ok {
			return Location{Floor: floor.Number, Spot: spot.Number}, true
		}
	}
	return Location{}, false
}

func (g *Garage) Release(v *Vehicle) bool {
	for _, floor := range g.floors {
		if floor.TryRelease(v) {
			return true
		}
	}
	return false
}

func (g *Garage) Locate(licensePlate string) (Location, bool) {
	for _, floor := range g.floors {
		if number, ok := floor.Find(licensePlate); ok {
			return Location{Floor: floor.Number, Spot: number}, true
		}
	}
	return Location{}, false
}

func (g *Garage) Status() []FloorStatus {
	status := make([]FloorStatus, len(g.floors))
	for i, floor := range g.floors {
		status[i] = FloorStatus{
			Number: floor.Number,
			Spots:  floor.Snapshot(),
		}
	}
	return status
}

func (g *Garage) Floors() []*Floor {
	return g.floors
}

func (g *Garage) Capacity() int {
	total := 0
	for _, floor := range g.floors {
		total += floor.Capacity()
	}
	return total
}

func (g *Garage) Occupied() int {
	total := 0
	for _, floor := range g.floors {
		total += floor.Occupied()
	}
	return total
}

// ParseLayout reads floors separated by ';', each a comma-separated list of
// spot types, e.g. "small,large;medium,medium". Empty floors are skipped.
func ParseLayout(s string) ([][]SpotType, error) {
	var layout [][]SpotType
	for i, floor := range strings.Split(s, ";") {
		floor = strings.TrimSpace(floor)
		if floor == "" {
			continue
		}
		var spots []SpotType
		for _, tag := range strings.Split(floor, ",") {
			t, err := ParseSpotType(tag)
			if err != nil {
				return nil, fmt.Errorf("floor %d: %w", i+1, err)
			}
			spots = append(spots, t)
		}
		layout = append(layout, spots)
	}
	if len(layout) == 0 {
		return nil, ErrEmptyLayout
	}
	return layout, nil
}
