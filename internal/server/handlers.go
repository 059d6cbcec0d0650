package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"parking-garage/internal/parking"
)

type Handler struct {
	serviceName string
	desk        *parking.Desk
}

// NewHandler serves the garage held by desk. A shell given the same desk
// sees the same garage and drivers.
func NewHandler(serviceName string, desk *parking.Desk) *Handler {
	return &Handler{
		serviceName: serviceName,
		desk:        desk,
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: h.serviceName,
		Meta:    extractMeta(r.Context()),
	})
}

func (h *Handler) CreateGarage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req GarageCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.HourlyRate < 0 {
		WriteError(ctx, w, http.StatusBadRequest, "Hourly rate must not be negative")
		return
	}

	layout := make([][]parking.SpotType, len(req.Floors))
	for i, floor := range req.Floors {
		for _, tag := range floor {
			t, err := parking.ParseSpotType(tag)
			if err != nil {
				WriteError(ctx, w, http.StatusBadRequest, err.Error())
				return
			}
			layout[i] = append(layout[i], t)
		}
	}

	mode, err := parking.ParseBillingMode(req.BillingMode)
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	system, err := h.desk.Open(ctx, layout, req.HourlyRate, parking.WithBillingMode(mode))
	if err != nil {
		if errors.Is(err, parking.ErrEmptyLayout) {
			WriteError(ctx, w, http.StatusBadRequest, err.Error())
			return
		}
		WriteError(ctx, w, http.StatusInternalServerError, "Failed to create garage")
		return
	}

	WriteSuccess(ctx, w, "Garage created successfully", map[string]any{
		"floors":       len(layout),
		"capacity":     system.Garage().Capacity(),
		"hourly_rate":  req.HourlyRate,
		"billing_mode": string(mode),
	})
}

func (h *Handler) ParkVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	system, drivers, err := h.desk.Current()
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Garage not created. Create garage first")
		return
	}

	var req ParkVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.DriverID == "" || req.Plate == "" || req.Size == "" {
		WriteError(ctx, w, http.StatusBadRequest, "driver_id, plate and size are required")
		return
	}

	size, err := parking.ParseSize(req.Size)
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	driver, err := drivers.Register(req.DriverID, parking.NewVehicle(size, req.Plate))
	if err != nil {
		WriteError(ctx, w, http.StatusConflict, err.Error())
		return
	}

	loc, err := system.Park(ctx, driver)
	if err != nil {
		WriteError(ctx, w, http.StatusConflict, err.Error())
		return
	}

	WriteSuccess(ctx, w, "Vehicle parked successfully", LocationResponse{
		DriverID: driver.ID(),
		Plate:    req.Plate,
		Floor:    loc.Floor,
		Spot:     loc.Spot,
	})
}

func (h *Handler) LeaveGarage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	system, drivers, err := h.desk.Current()
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Garage not created. Create garage first")
		return
	}

	var req LeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	driver, ok := drivers.Get(req.DriverID)
	if !ok {
		WriteError(ctx, w, http.StatusNotFound, "Driver not found")
		return
	}

	charge, err := system.Remove(ctx, driver)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, parking.ErrVehicleMissing) {
			status = http.StatusInternalServerError
		}
		WriteError(ctx, w, status, err.Error())
		return
	}

	WriteSuccess(ctx, w, "Vehicle left successfully", LeaveResponse{
		DriverID:   driver.ID(),
		Plate:      driver.Vehicle().LicensePlate(),
		Hours:      charge.Hours,
		Amount:     charge.Amount,
		PaymentDue: driver.PaymentDue(),
	})
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	system, _, err := h.desk.Current()
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Garage not created. Create garage first")
		return
	}

	response := StatusResponse{
		HourlyRate:  system.HourlyRate(),
		BillingMode: string(system.BillingMode()),
	}

	for _, floor := range system.Status(ctx) {
		fs := FloorStatus{Floor: floor.Number, Capacity: len(floor.Spots)}
		for _, spot := range floor.Spots {
			ss := SpotStatus{
				Spot:     spot.Number,
				Type:     spot.Type.String(),
				Occupied: spot.IsOccupied,
			}
			if spot.IsOccupied {
				ss.Plate = spot.Vehicle.LicensePlate()
				ss.Size = spot.Vehicle.Size().String()
				fs.Occupied++
			}
			fs.Spots = append(fs.Spots, ss)
		}
		fs.Available = fs.Capacity - fs.Occupied

		response.Capacity += fs.Capacity
		response.Occupied += fs.Occupied
		response.Floors = append(response.Floors, fs)
	}
	response.Available = response.Capacity - response.Occupied

	WriteSuccess(ctx, w, "Status retrieved successfully", response)
}

func (h *Handler) FindByPlate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	system, _, err := h.desk.Current()
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Garage not created. Create garage first")
		return
	}

	plate := chi.URLParam(r, "plate")
	if plate == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Plate is required")
		return
	}

	loc, ok := system.Locate(ctx, plate)
	if !ok {
		WriteError(ctx, w, http.StatusNotFound, "Vehicle not found")
		return
	}

	WriteSuccess(ctx, w, "Vehicle found", LocationResponse{
		Plate: plate,
		Floor: loc.Floor,
		Spot:  loc.Spot,
	})
}

func (h *Handler) GetDriver(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	system, drivers, err := h.desk.Current()
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Garage not created. Create garage first")
		return
	}

	driver, ok := drivers.Get(chi.URLParam(r, "id"))
	if !ok {
		WriteError(ctx, w, http.StatusNotFound, "Driver not found")
		return
	}

	response := DriverResponse{
		DriverID:   driver.ID(),
		Plate:      driver.Vehicle().LicensePlate(),
		Size:       driver.Vehicle().Size().String(),
		Parked:     system.IsParked(driver.ID()),
		PaymentDue: driver.PaymentDue(),
	}
	if quote, ok := system.Quote(driver.ID()); ok {
		response.QuoteHours = quote.Hours
		response.QuoteDue = quote.Amount
	}

	WriteSuccess(ctx, w, "Driver retrieved successfully", response)
}

func (h *Handler) PayBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	system, drivers, err := h.desk.Current()
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Garage not created. Create garage first")
		return
	}

	driver, ok := drivers.Get(chi.URLParam(r, "id"))
	if !ok {
		WriteError(ctx, w, http.StatusNotFound, "Driver not found")
		return
	}

	var req PayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	processor, err := parking.NewPaymentProcessor(parking.PaymentMethod(req.Method), parking.PaymentDetails{
		CardNumber: req.CardNumber,
		Expiry:     req.Expiry,
		CVV:        req.CVV,
		AccountID:  req.AccountID,
		Credential: req.Credential,
	})
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	receipt, err := system.Settle(ctx, driver, processor)
	if err != nil {
		status := http.StatusPaymentRequired
		if errors.Is(err, parking.ErrNothingDue) {
			status = http.StatusConflict
		}
		WriteError(ctx, w, status, err.Error())
		return
	}

	WriteSuccess(ctx, w, "Payment processed successfully", ReceiptResponse{
		ReceiptID:  receipt.ID,
		Method:     string(receipt.Method),
		Amount:     receipt.Amount,
		PaymentDue: driver.PaymentDue(),
	})
}
