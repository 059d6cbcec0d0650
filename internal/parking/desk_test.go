package parking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeskRequiresGarage(t *testing.T) {
	desk := NewDesk(newTestTelemetry(t).TelemetryProvider, nil)

	_, _, err := desk.Current()
	assert.ErrorIs(t, err, ErrNoGarage)
}

func TestDeskOpenReplacesGarageAndGauges(t *testing.T) {
	telemetry := newTestTelemetry(t)
	desk := NewDesk(telemetry.TelemetryProvider, nil, WithClock(newFakeClock(9)))
	ctx := context.Background()

	first, err := desk.Open(ctx, [][]SpotType{{SpotSmall, SpotMedium, SpotLarge}}, 5)
	require.NoError(t, err)

	system, drivers, err := desk.Current()
	require.NoError(t, err)
	assert.Same(t, first, system)

	driver, err := drivers.Register("d1", NewSmallCar("A1"))
	require.NoError(t, err)
	_, err = system.Park(ctx, driver)
	require.NoError(t, err)
	assert.Equal(t, int64(3), telemetry.sum(t, "garage_total_spots"))
	assert.Equal(t, int64(1), telemetry.sum(t, "garage_occupancy"))

	second, err := desk.Open(ctx, [][]SpotType{{SpotLarge}, {SpotLarge}}, 7, WithBillingMode(BillingElapsed))
	require.NoError(t, err)
	assert.Equal(t, BillingElapsed, second.BillingMode())
	assert.Equal(t, int64(2), telemetry.sum(t, "garage_total_spots"))
	assert.Equal(t, int64(0), telemetry.sum(t, "garage_occupancy"))

	// A request still holding the old system must not move the gauges.
	_, err = first.Remove(ctx, driver)
	require.NoError(t, err)
	assert.Equal(t, int64(0), telemetry.sum(t, "garage_occupancy"))

	_, drivers, err = desk.Current()
	require.NoError(t, err)
	_, ok := drivers.Get("d1")
	assert.False(t, ok, "drivers are dropped with the old garage")
}

func TestDeskOpenRejectsEmptyLayout(t *testing.T) {
	desk := NewDesk(newTestTelemetry(t).TelemetryProvider, nil)

	_, err := desk.Open(context.Background(), nil, 5)
	assert.ErrorIs(t, err, ErrEmptyLayout)

	_, _, err = desk.Current()
	assert.ErrorIs(t, err, ErrNoGarage)
}
