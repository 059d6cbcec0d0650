package parking

import (
	"fmt"
	"strings"
)

type Size int

const (
	SizeSmall Size = iota + 1
	SizeMedium
	SizeLarge
)

// hourlyFees is the per-class quote table.
var hourlyFees = map[Size]float64{
	SizeSmall:  10,
	SizeMedium: 5,
	SizeLarge:  3,
}

func (s Size) String() string {
	switch s {
	case SizeSmall:
		return "small"
	case SizeMedium:
		return "medium"
	case SizeLarge:
		return "large"
	default:
		return fmt.Sprintf("size(%d)", int(s))
	}
}

func ParseSize(s string) (Size, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "small", "s":
		return SizeSmall, nil
	case "medium", "m":
		return SizeMedium, nil
	case "large", "l":
		return SizeLarge, nil
	}
	return 0, fmt.Errorf("unknown vehicle size %q", s)
}

type Vehicle struct {
	size         Size
	licensePlate string
}

func NewVehicle(size Size, licensePlate string) *Vehicle {
	return &Vehicle{
		size:         size,
		licensePlate: licensePlate,
	}
}

func NewSmallCar(licensePlate string) *Vehicle  { return NewVehicle(SizeSmall, licensePlate) }
func NewMediumCar(licensePlate string) *Vehicle { return NewVehicle(SizeMedium, licensePlate) }
func NewLargeCar(licensePlate string) *Vehicle  { return NewVehicle(SizeLarge, licensePlate) }

func (v *Vehicle) Size() Size {
	return v.size
}

func (v *Vehicle) LicensePlate() string {
	return v.licensePlate
}

// FeePerHour quotes the class rate for the given number of hours.
func (v *Vehicle) FeePerHour(hours int) float64 {
	return float64(hours) * hourlyFees[v.size]
}
