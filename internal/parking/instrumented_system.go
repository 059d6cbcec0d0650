package parking

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"parking-garage/internal/logging"
)

type InstrumentedSystem struct {
	*System
	telemetry *TelemetryProvider

	// Metrics
	parkingOperations metric.Int64Counter
	leavingOperations metric.Int64Counter
	paymentOperations metric.Int64Counter
	occupancyGauge    metric.Int64UpDownCounter
	operationDuration metric.Float64Histogram
	revenueTotal      metric.Float64Counter
	totalSpotsGauge   metric.Int64UpDownCounter

	// Set once the system is taken out of service; gauges stop moving.
	retired atomic.Bool
}

func NewInstrumentedSystem(system *System, telemetry *TelemetryProvider) (*InstrumentedSystem, error) {
	meter := telemetry.Meter()

	parkingOperations, err := meter.Int64Counter("parking_operations_total",
		metric.WithDescription("Total number of parking operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	leavingOperations, err := meter.Int64Counter("leaving_operations_total",
		metric.WithDescription("Total number of leaving operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	paymentOperations, err := meter.Int64Counter("payments_total",
		metric.WithDescription("Total number of settlement attempts"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	occupancyGauge, err := meter.Int64UpDownCounter("garage_occupancy",
		metric.WithDescription("Current number of occupied parking spots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("operation_duration_seconds",
		metric.WithDescription("Duration of garage operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	revenueTotal, err := meter.Float64Counter("revenue_total",
		metric.WithDescription("Total amount charged to drivers on exit"))
	if err != nil {
		return nil, err
	}

	totalSpotsGauge, err := meter.Int64UpDownCounter("garage_total_spots",
		metric.WithDescription("Total number of parking spots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	is := &InstrumentedSystem{
		System:            system,
		telemetry:         telemetry,
		parkingOperations: parkingOperations,
		leavingOperations: leavingOperations,
		paymentOperations: paymentOperations,
		occupancyGauge:    occupancyGauge,
		operationDuration: operationDuration,
		revenueTotal:      revenueTotal,
		totalSpotsGauge:   totalSpotsGauge,
	}

	totalSpotsGauge.Add(context.Background(), int64(system.Garage().Capacity()))

	return is, nil
}

func (is *InstrumentedSystem) Park(ctx context.Context, d *Driver) (Location, error) {
	v := d.Vehicle()
	ctx, span := is.telemetry.Tracer().Start(ctx, "garage.park",
		trace.WithAttributes(
			attribute.String("driver.id", d.ID()),
			attribute.String("vehicle.license_plate", v.LicensePlate()),
			attribute.String("vehicle.size", v.Size().String()),
		))
	defer span.End()

	start := time.Now()

	span.AddEvent("finding_available_spot")

	loc, err := is.System.Park(d)

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "park"),
		attribute.String("vehicle_size", v.Size().String()),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", "failed"))
		is.parkingOperations.Add(ctx, 1, metric.WithAttributes(labels...))
		is.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

		logging.Warn(ctx, "park rejected",
			slog.String("driver_id", d.ID()),
			slog.String("license_plate", v.LicensePlate()),
			slog.String("reason", err.Error()),
		)
		return Location{}, err
	}

	labels = append(labels,
		attribute.String("status", "success"),
		attribute.Int("floor", loc.Floor),
	)
	span.SetAttributes(
		attribute.Int("allocated_floor", loc.Floor),
		attribute.Int("allocated_spot", loc.Spot),
	)
	span.AddEvent("spot_allocated", trace.WithAttributes(
		attribute.Int("floor", loc.Floor),
		attribute.Int("spot", loc.Spot),
	))

	is.parkingOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	if !is.retired.Load() {
		is.occupancyGauge.Add(ctx, 1)
	}
	is.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	logging.Info(ctx, "vehicle parked",
		slog.String("driver_id", d.ID()),
		slog.String("license_plate", v.LicensePlate()),
		slog.Int("floor", loc.Floor),
		slog.Int("spot", loc.Spot),
	)

	return loc, nil
}

func (is *InstrumentedSystem) Remove(ctx context.Context, d *Driver) (Charge, error) {
	v := d.Vehicle()
	ctx, span := is.telemetry.Tracer().Start(ctx, "garage.remove",
		trace.WithAttributes(
			attribute.String("driver.id", d.ID()),
			attribute.String("vehicle.license_plate", v.LicensePlate()),
		))
	defer span.End()

	start := time.Now()

	span.AddEvent("billing_and_releasing")

	hadEntry := is.IsParked(d.ID())
	charge, ok := is.System.Remove(d)

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "remove"),
		attribute.String("vehicle_size", v.Size().String()),
	}

	if charge.Hours > 0 {
		span.SetAttributes(
			attribute.Int("billing.hours", charge.Hours),
			attribute.Float64("billing.amount", charge.Amount),
		)
		is.revenueTotal.Add(ctx, charge.Amount, metric.WithAttributes(
			attribute.String("billing_mode", string(is.BillingMode())),
		))
	}

	if !ok {
		err := ErrNotParked
		if hadEntry {
			err = ErrVehicleMissing
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", "failed"))
		is.leavingOperations.Add(ctx, 1, metric.WithAttributes(labels...))
		is.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

		logging.Warn(ctx, "remove failed",
			slog.String("driver_id", d.ID()),
			slog.String("reason", err.Error()),
		)
		return charge, err
	}

	labels = append(labels, attribute.String("status", "success"))
	span.AddEvent("spot_released")
	is.leavingOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	if !is.retired.Load() {
		is.occupancyGauge.Add(ctx, -1)
	}
	is.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	logging.Info(ctx, "vehicle removed",
		slog.String("driver_id", d.ID()),
		slog.String("license_plate", v.LicensePlate()),
		slog.Int("hours", charge.Hours),
		slog.Float64("amount", charge.Amount),
		slog.Float64("payment_due", d.PaymentDue()),
	)

	return charge, nil
}

// Retire takes the system out of the occupancy and capacity gauges, for when
// another garage replaces it. Calling it again is a no-op.
func (is *InstrumentedSystem) Retire(ctx context.Context) {
	if is.retired.Swap(true) {
		return
	}
	is.totalSpotsGauge.Add(ctx, -int64(is.Garage().Capacity()))
	is.occupancyGauge.Add(ctx, -int64(is.Garage().Occupied()))
}

func (is *InstrumentedSystem) Settle(ctx context.Context, d *Driver, processor PaymentProcessor) (*Receipt, error) {
	ctx, span := is.telemetry.Tracer().Start(ctx, "garage.settle",
		trace.WithAttributes(
			attribute.String("driver.id", d.ID()),
			attribute.String("payment.method", string(processor.Method())),
		))
	defer span.End()

	start := time.Now()

	receipt, err := d.Settle(ctx, processor)

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "settle"),
		attribute.String("payment_method", string(processor.Method())),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", "failed"))
	} else {
		span.SetAttributes(
			attribute.String("payment.receipt_id", receipt.ID),
			attribute.Float64("payment.amount", receipt.Amount),
		)
		labels = append(labels, attribute.String("status", "success"))
	}

	is.paymentOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	is.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return receipt, err
}

func (is *InstrumentedSystem) Status(ctx context.Context) []FloorStatus {
	_, span := is.telemetry.Tracer().Start(ctx, "garage.status")
	defer span.End()

	start := time.Now()

	status := is.Garage().Status()

	span.SetAttributes(
		attribute.Int("floors", len(status)),
		attribute.Int("occupied_spots", is.Garage().Occupied()),
		attribute.Int("total_capacity", is.Garage().Capacity()),
	)

	is.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("operation", "status"),
		attribute.String("status", "success"),
	))

	return status
}

func (is *InstrumentedSystem) Locate(ctx context.Context, licensePlate string) (Location, bool) {
	_, span := is.telemetry.Tracer().Start(ctx, "garage.locate",
		trace.WithAttributes(
			attribute.String("license_plate", licensePlate),
		))
	defer span.End()

	start := time.Now()

	loc, ok := is.Garage().Locate(licensePlate)

	labels := []attribute.KeyValue{
		attribute.String("operation", "locate"),
	}
	if ok {
		span.AddEvent("vehicle_found", trace.WithAttributes(
			attribute.Int("floor", loc.Floor),
			attribute.Int("spot", loc.Spot),
		))
		labels = append(labels, attribute.String("status", "found"))
	} else {
		span.AddEvent("vehicle_not_found")
		labels = append(labels, attribute.String("status", "not_found"))
	}

	is.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return loc, ok
}
