package parking

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Shell is the line-oriented front desk. Commands:
//
//	create_garage <hourly_rate> <layout>
//	park <driver_id> <size> <plate>
//	leave <driver_id>
//	status
//	find <plate>
//	due <driver_id>
//	pay <driver_id> card <number> <expiry> <cvv>
//	pay <driver_id> account <account_id> <credential>
type Shell struct {
	desk    *Desk
	scanner *bufio.Scanner
	out     io.Writer
}

// NewShell reads commands from in and serves the garage held by desk.
// Until the desk has one, create_garage must run first.
func NewShell(desk *Desk, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		desk:    desk,
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

func (s *Shell) Run(ctx context.Context) {
	tracer := s.desk.Telemetry().Tracer()
	ctx, span := tracer.Start(ctx, "shell.run")
	defer span.End()

	span.AddEvent("shell_started")

	for s.scanner.Scan() {
		if ctx.Err() != nil {
			break
		}

		input := strings.TrimSpace(s.scanner.Text())
		if input == "" {
			continue
		}

		cmdCtx, cmdSpan := tracer.Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.String("command.input", input)))
		s.processCommand(cmdCtx, input)
		cmdSpan.End()
	}

	span.AddEvent("shell_ended")
}

func (s *Shell) processCommand(ctx context.Context, input string) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return
	}

	command := parts[0]
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("command.name", command))

	if command == "create_garage" {
		s.handleCreateGarage(ctx, parts)
		return
	}

	system, drivers, err := s.desk.Current()
	if err != nil {
		span.AddEvent("garage_not_created")
		s.println("Garage not created")
		return
	}

	switch command {
	case "park":
		s.handlePark(ctx, system, drivers, parts)
	case "leave":
		s.handleLeave(ctx, system, drivers, parts)
	case "status":
		s.handleStatus(ctx, system)
	case "find":
		s.handleFind(ctx, system, parts)
	case "due":
		s.handleDue(drivers, parts)
	case "pay":
		s.handlePay(ctx, system, drivers, parts)
	default:
		span.AddEvent("unknown_command")
		s.printf("Unknown command: %s\n", command)
	}
}

func (s *Shell) handleCreateGarage(ctx context.Context, parts []string) {
	span := trace.SpanFromContext(ctx)

	if len(parts) != 3 {
		s.println("Usage: create_garage <hourly_rate> <layout>")
		return
	}

	rate, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || rate < 0 {
		span.RecordError(fmt.Errorf("invalid hourly rate: %s", parts[1]))
		s.println("Invalid hourly rate")
		return
	}

	layout, err := ParseLayout(parts[2])
	if err != nil {
		span.RecordError(err)
		s.printf("Invalid layout: %s\n", err)
		return
	}

	system, err := s.desk.Open(ctx, layout, rate)
	if err != nil {
		span.RecordError(err)
		s.printf("Error creating garage: %s\n", err)
		return
	}

	span.AddEvent("garage_created")
	s.printf("Created a garage with %d floors and %d spots\n", len(layout), system.Garage().Capacity())
}

func (s *Shell) handlePark(ctx context.Context, system *InstrumentedSystem, drivers *Drivers, parts []string) {
	if len(parts) != 4 {
		s.println("Usage: park <driver_id> <size> <plate>")
		return
	}

	size, err := ParseSize(parts[2])
	if err != nil {
		s.printf("Invalid size: %s\n", parts[2])
		return
	}

	driver, err := drivers.Register(parts[1], NewVehicle(size, parts[3]))
	if err != nil {
		s.printf("Error: %s\n", err)
		return
	}

	loc, err := system.Park(ctx, driver)
	if err != nil {
		s.printf("Sorry, %s\n", err)
		return
	}

	s.printf("Allocated %s\n", loc)
}

func (s *Shell) handleLeave(ctx context.Context, system *InstrumentedSystem, drivers *Drivers, parts []string) {
	if len(parts) != 2 {
		s.println("Usage: leave <driver_id>")
		return
	}

	driver, ok := drivers.Get(parts[1])
	if !ok {
		s.println("Unknown driver")
		return
	}

	charge, err := system.Remove(ctx, driver)
	if err != nil {
		s.printf("Error: %s\n", err)
		return
	}

	s.printf("Charged %d hour(s): %.2f, total due %.2f\n", charge.Hours, charge.Amount, driver.PaymentDue())
}

func (s *Shell) handleStatus(ctx context.Context, system *InstrumentedSystem) {
	floors := system.Status(ctx)

	empty := true
	for _, floor := range floors {
		for _, spot := range floor.Spots {
			if !spot.IsOccupied {
				continue
			}
			if empty {
				s.println("Floor\tSpot\tType\tPlate\tSize")
				empty = false
			}
			s.printf("%d\t%d\t%s\t%s\t%s\n", floor.Number, spot.Number, spot.Type, spot.Vehicle.LicensePlate(), spot.Vehicle.Size())
		}
	}

	if empty {
		s.println("Garage is empty")
	}
}

func (s *Shell) handleFind(ctx context.Context, system *InstrumentedSystem, parts []string) {
	if len(parts) != 2 {
		s.println("Usage: find <plate>")
		return
	}

	loc, ok := system.Locate(ctx, parts[1])
	if !ok {
		s.println("Not found")
		return
	}
	s.println(loc.String())
}

func (s *Shell) handleDue(drivers *Drivers, parts []string) {
	if len(parts) != 2 {
		s.println("Usage: due <driver_id>")
		return
	}

	driver, ok := drivers.Get(parts[1])
	if !ok {
		s.println("Unknown driver")
		return
	}
	s.printf("%.2f\n", driver.PaymentDue())
}

func (s *Shell) handlePay(ctx context.Context, system *InstrumentedSystem, drivers *Drivers, parts []string) {
	if len(parts) < 3 {
		s.println("Usage: pay <driver_id> card <number> <expiry> <cvv> | pay <driver_id> account <id> <credential>")
		return
	}

	driver, ok := drivers.Get(parts[1])
	if !ok {
		s.println("Unknown driver")
		return
	}

	var details PaymentDetails
	method := PaymentMethod(parts[2])
	switch {
	case method == PaymentCard && len(parts) == 6:
		details = PaymentDetails{CardNumber: parts[3], Expiry: parts[4], CVV: parts[5]}
	case method == PaymentAccount && len(parts) == 5:
		details = PaymentDetails{AccountID: parts[3], Credential: parts[4]}
	default:
		s.println("Usage: pay <driver_id> card <number> <expiry> <cvv> | pay <driver_id> account <id> <credential>")
		return
	}

	processor, err := NewPaymentProcessor(method, details)
	if err != nil {
		s.printf("Error: %s\n", err)
		return
	}

	receipt, err := system.Settle(ctx, driver, processor)
	if err != nil {
		s.printf("Error: %s\n", err)
		return
	}

	s.printf("Paid %.2f by %s, receipt %s\n", receipt.Amount, receipt.Method, receipt.ID)
}

func (s *Shell) println(msg string) {
	fmt.Fprintln(s.out, msg)
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
