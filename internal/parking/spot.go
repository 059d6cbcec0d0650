package parking

import (
	"fmt"
	"strings"
)

type SpotType int

const (
	SpotSmall SpotType = iota + 1
	SpotMedium
	SpotLarge
)

func (t SpotType) String() string {
	switch t {
	case SpotSmall:
		return "small"
	case SpotMedium:
		return "medium"
	case SpotLarge:
		return "large"
	default:
		return fmt.Sprintf("spot(%d)", int(t))
	}
}

func ParseSpotType(s string) (SpotType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "small", "s":
		return SpotSmall, nil
	case "medium", "m":
		return SpotMedium, nil
	case "large", "l":
		return SpotLarge, nil
	}
	return 0, fmt.Errorf("unknown spot type %q", s)
}

// Spot is not safe for concurrent use on its own; the owning Floor
// serializes access.
type Spot struct {
	Number     int
	Type       SpotType
	IsOccupied bool
	Vehicle    *Vehicle
}

func NewSpot(number int, spotType SpotType) *Spot {
	return &Spot{
		Number:     number,
		Type:       spotType,
		IsOccupied: false,
		Vehicle:    nil,
	}
}

// CanFit reports whether the spot is structurally large enough for v,
// ignoring occupancy.
func (s *Spot) CanFit(v *Vehicle) bool {
	switch s.Type {
	case SpotLarge:
		return true
	case SpotMedium:
		return v.Size() == SizeMedium || v.Size() == SizeSmall
	case SpotSmall:
		return v.Size() == SizeSmall
	}
	return false
}

func (s *Spot) TryOccupy(v *Vehicle) bool {
	if s.IsOccupied || !s.CanFit(v) {
		return false
	}
	s.Vehicle = v
	s.IsOccupied = true
	return true
}

func (s *Spot) Release() *Vehicle {
	vehicle := s.Vehicle
	s.Vehicle = nil
	s.IsOccupied = false
	return vehicle
}
