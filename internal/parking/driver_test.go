package parking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriverCharge(t *testing.T) {
	driver := NewDriver("d1", NewSmallCar("S1"))
	assert.Equal(t, "d1", driver.ID())
	assert.Equal(t, "S1", driver.Vehicle().LicensePlate())

	driver.Charge(10)
	driver.Charge(5)
	assert.Equal(t, 15.0, driver.PaymentDue())
}

func TestDriverSettle(t *testing.T) {
	ctx := context.Background()
	driver := NewDriver("d1", NewSmallCar("S1"))

	account, err := NewAccountPayment("me@example.com", "secret")
	require.NoError(t, err)

	_, err = driver.Settle(ctx, account)
	assert.ErrorIs(t, err, ErrNothingDue)

	driver.Charge(10)
	driver.Charge(5)
	assert.Equal(t, 15.0, driver.PaymentDue())

	_, err = driver.Settle(ctx, failingProcessor{})
	assert.Error(t, err)
	assert.Equal(t, 15.0, driver.PaymentDue(), "failed settlement keeps the balance")

	receipt, err := driver.Settle(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, 15.0, receipt.Amount)
	assert.Zero(t, driver.PaymentDue())
}

func TestDriversRegister(t *testing.T) {
	drivers := NewDrivers()

	first, err := drivers.Register("d1", NewSmallCar("S1"))
	require.NoError(t, err)

	again, err := drivers.Register("d1", NewSmallCar("S1"))
	require.NoError(t, err)
	assert.Same(t, first, again)

	_, err = drivers.Register("d1", NewSmallCar("OTHER"))
	assert.ErrorIs(t, err, ErrDriverConflict)

	got, ok := drivers.Get("d1")
	require.True(t, ok)
	assert.Same(t, first, got)

	_, ok = drivers.Get("nobody")
	assert.False(t, ok)
}
