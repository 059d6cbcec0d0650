package server

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type GarageCreateRequest struct {
	Floors      [][]string `json:"floors"`
	HourlyRate  float64    `json:"hourly_rate"`
	BillingMode string     `json:"billing_mode,omitempty"`
}

type ParkVehicleRequest struct {
	DriverID string `json:"driver_id"`
	Plate    string `json:"plate"`
	Size     string `json:"size"`
}

type LeaveRequest struct {
	DriverID string `json:"driver_id"`
}

type PayRequest struct {
	Method     string `json:"method"`
	CardNumber string `json:"card_number,omitempty"`
	Expiry     string `json:"expiry,omitempty"`
	CVV        string `json:"cvv,omitempty"`
	AccountID  string `json:"account_id,omitempty"`
	Credential string `json:"credential,omitempty"`
}

type LocationResponse struct {
	DriverID string `json:"driver_id,omitempty"`
	Plate    string `json:"plate"`
	Floor    int    `json:"floor"`
	Spot     int    `json:"spot"`
}

type LeaveResponse struct {
	DriverID   string  `json:"driver_id"`
	Plate      string  `json:"plate"`
	Hours      int     `json:"hours"`
	Amount     float64 `json:"amount"`
	PaymentDue float64 `json:"payment_due"`
}

type DriverResponse struct {
	DriverID   string  `json:"driver_id"`
	Plate      string  `json:"plate"`
	Size       string  `json:"size"`
	Parked     bool    `json:"parked"`
	PaymentDue float64 `json:"payment_due"`
	QuoteHours int     `json:"quote_hours,omitempty"`
	QuoteDue   float64 `json:"quote_amount,omitempty"`
}

type ReceiptResponse struct {
	ReceiptID  string  `json:"receipt_id"`
	Method     string  `json:"method"`
	Amount     float64 `json:"amount"`
	PaymentDue float64 `json:"payment_due"`
}

type SpotStatus struct {
	Spot     int    `json:"spot"`
	Type     string `json:"type"`
	Occupied bool   `json:"occupied"`
	Plate    string `json:"plate,omitempty"`
	Size     string `json:"size,omitempty"`
}

type FloorStatus struct {
	Floor     int          `json:"floor"`
	Capacity  int          `json:"capacity"`
	Occupied  int          `json:"occupied"`
	Available int          `json:"available"`
	Spots     []SpotStatus `json:"spots"`
}

type StatusResponse struct {
	Capacity    int           `json:"capacity"`
	Occupied    int           `json:"occupied"`
	Available   int           `json:"available"`
	HourlyRate  float64       `json:"hourly_rate"`
	BillingMode string        `json:"billing_mode"`
	Floors      []FloorStatus `json:"floors"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		meta.RequestID = reqID
	}

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Success: false,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}
