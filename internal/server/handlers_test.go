package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"parking-garage/internal/parking"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func newTestDesk(t *testing.T, clock parking.Clock) *parking.Desk {
	t.Helper()

	tp := sdktrace.NewTracerProvider()
	mp := sdkmetric.NewMeterProvider()
	telemetry := parking.NewTelemetryProviderFrom("server-test", tp, mp)
	t.Cleanup(func() {
		_ = telemetry.Shutdown(context.Background())
	})

	return parking.NewDesk(telemetry, nil, parking.WithClock(clock))
}

func newTestRouter(t *testing.T, clock parking.Clock) http.Handler {
	t.Helper()
	return NewRouter(NewHandler("server-test", newTestDesk(t, clock)))
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, Response) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp Response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&resp))
	}
	return w.Code, resp
}

func data(t *testing.T, resp Response, into any) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, into))
}

func TestHealthCheck(t *testing.T) {
	h := newTestRouter(t, &fixedClock{now: time.Now()})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var health HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "server-test", health.Service)
	assert.NotEmpty(t, health.Meta.RequestID)
}

func TestRequiresGarage(t *testing.T) {
	h := newTestRouter(t, &fixedClock{now: time.Now()})

	code, resp := do(t, h, http.MethodGet, "/api/garage/status", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "Garage not created")
}

func TestParkLeavePayFlow(t *testing.T) {
	clock := &fixedClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	h := newTestRouter(t, clock)

	code, resp := do(t, h, http.MethodPost, "/api/garage", `{"floors":[["small","medium","large"]],"hourly_rate":5}`)
	require.Equal(t, http.StatusOK, code, resp.Error)

	code, resp = do(t, h, http.MethodPost, "/api/garage/park", `{"driver_id":"d1","plate":"A1","size":"small"}`)
	require.Equal(t, http.StatusOK, code, resp.Error)
	var loc LocationResponse
	data(t, resp, &loc)
	assert.Equal(t, LocationResponse{DriverID: "d1", Plate: "A1", Floor: 1, Spot: 1}, loc)

	code, resp = do(t, h, http.MethodPost, "/api/garage/park", `{"driver_id":"d2","plate":"B2","size":"medium"}`)
	require.Equal(t, http.StatusOK, code, resp.Error)
	data(t, resp, &loc)
	assert.Equal(t, 2, loc.Spot)

	code, resp = do(t, h, http.MethodGet, "/api/garage/find/B2", "")
	require.Equal(t, http.StatusOK, code)
	data(t, resp, &loc)
	assert.Equal(t, 2, loc.Spot)

	code, _ = do(t, h, http.MethodGet, "/api/garage/find/ZZZ", "")
	assert.Equal(t, http.StatusNotFound, code)

	clock.now = clock.now.Add(2 * time.Hour)

	code, resp = do(t, h, http.MethodGet, "/api/garage/drivers/d1", "")
	require.Equal(t, http.StatusOK, code)
	var driver DriverResponse
	data(t, resp, &driver)
	assert.True(t, driver.Parked)
	assert.Equal(t, 2, driver.QuoteHours)
	assert.Equal(t, 10.0, driver.QuoteDue)

	code, resp = do(t, h, http.MethodPost, "/api/garage/leave", `{"driver_id":"d1"}`)
	require.Equal(t, http.StatusOK, code, resp.Error)
	var leave LeaveResponse
	data(t, resp, &leave)
	assert.Equal(t, LeaveResponse{DriverID: "d1", Plate: "A1", Hours: 2, Amount: 10, PaymentDue: 10}, leave)

	code, resp = do(t, h, http.MethodPost, "/api/garage/leave", `{"driver_id":"d1"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Error, "no active parking session")

	code, resp = do(t, h, http.MethodGet, "/api/garage/status", "")
	require.Equal(t, http.StatusOK, code)
	var status StatusResponse
	data(t, resp, &status)
	assert.Equal(t, 3, status.Capacity)
	assert.Equal(t, 1, status.Occupied)
	assert.Equal(t, 2, status.Available)
	assert.Equal(t, "hour-of-day", status.BillingMode)
	require.Len(t, status.Floors, 1)
	assert.False(t, status.Floors[0].Spots[0].Occupied)
	assert.Equal(t, "B2", status.Floors[0].Spots[1].Plate)

	code, resp = do(t, h, http.MethodPost, "/api/garage/drivers/d1/pay", `{"method":"card","card_number":"4111111111111111","expiry":"12/27","cvv":"123"}`)
	require.Equal(t, http.StatusOK, code, resp.Error)
	var receipt ReceiptResponse
	data(t, resp, &receipt)
	assert.Equal(t, 10.0, receipt.Amount)
	assert.Equal(t, "card", receipt.Method)
	assert.Zero(t, receipt.PaymentDue)

	code, _ = do(t, h, http.MethodPost, "/api/garage/drivers/d1/pay", `{"method":"account","account_id":"a","credential":"b"}`)
	assert.Equal(t, http.StatusConflict, code, "nothing left to pay")
}

func TestParkValidation(t *testing.T) {
	h := newTestRouter(t, &fixedClock{now: time.Now()})

	code, _ := do(t, h, http.MethodPost, "/api/garage", `{"floors":[["small"]],"hourly_rate":5,"billing_mode":"weekly"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, h, http.MethodPost, "/api/garage", `{"floors":[["tiny"]],"hourly_rate":5}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, h, http.MethodPost, "/api/garage", `{"floors":[],"hourly_rate":5}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp := do(t, h, http.MethodPost, "/api/garage", `{"floors":[["small"]],"hourly_rate":5,"billing_mode":"elapsed"}`)
	require.Equal(t, http.StatusOK, code, resp.Error)

	code, _ = do(t, h, http.MethodPost, "/api/garage/park", `{"driver_id":"d1","plate":"A1"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, h, http.MethodPost, "/api/garage/park", `{"driver_id":"d1","plate":"A1","size":"bus"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = do(t, h, http.MethodPost, "/api/garage/park", `{"driver_id":"d1","plate":"L1","size":"large"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, resp.Error, "no compatible spot")

	code, resp = do(t, h, http.MethodPost, "/api/garage/park", `{"driver_id":"d1","plate":"OTHER","size":"small"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, resp.Error, "different vehicle")

	code, _ = do(t, h, http.MethodPost, "/api/garage/leave", `{"driver_id":"nobody"}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, h, http.MethodPost, "/api/garage/drivers/d1/pay", `{"method":"cash"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t, &fixedClock{now: time.Now()})
	do(t, h, http.MethodGet, "/health", "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",route="/health",status="200"}`)
}

func TestParkRejectsPlateAlreadyParked(t *testing.T) {
	h := newTestRouter(t, &fixedClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)})

	code, resp := do(t, h, http.MethodPost, "/api/garage", `{"floors":[["small","small"]],"hourly_rate":5}`)
	require.Equal(t, http.StatusOK, code, resp.Error)

	code, resp = do(t, h, http.MethodPost, "/api/garage/park", `{"driver_id":"d1","plate":"A1","size":"small"}`)
	require.Equal(t, http.StatusOK, code, resp.Error)

	code, resp = do(t, h, http.MethodPost, "/api/garage/park", `{"driver_id":"d2","plate":"A1","size":"small"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, resp.Error, "license plate is already in the garage")

	code, _ = do(t, h, http.MethodPost, "/api/garage/leave", `{"driver_id":"d2"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = do(t, h, http.MethodPost, "/api/garage/leave", `{"driver_id":"d1"}`)
	require.Equal(t, http.StatusOK, code, resp.Error)

	code, resp = do(t, h, http.MethodGet, "/api/garage/status", "")
	require.Equal(t, http.StatusOK, code)
	var status StatusResponse
	data(t, resp, &status)
	assert.Equal(t, 0, status.Occupied)
	for _, spot := range status.Floors[0].Spots {
		assert.False(t, spot.Occupied)
	}
}

func TestShellAndAPIShareGarage(t *testing.T) {
	clock := &fixedClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	desk := newTestDesk(t, clock)
	h := NewRouter(NewHandler("server-test", desk))

	shell := func(script string) string {
		var out bytes.Buffer
		parking.NewShell(desk, strings.NewReader(script), &out).Run(context.Background())
		return out.String()
	}

	assert.Equal(t, "Created a garage with 1 floors and 2 spots\nAllocated floor 1, spot 1\n",
		shell("create_garage 5 small,small\npark d1 small A1\n"))

	code, resp := do(t, h, http.MethodPost, "/api/garage/park", `{"driver_id":"d1","plate":"B2","size":"small"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, resp.Error, "different vehicle")

	code, resp = do(t, h, http.MethodGet, "/api/garage/find/A1", "")
	require.Equal(t, http.StatusOK, code, resp.Error)

	clock.now = clock.now.Add(2 * time.Hour)
	code, resp = do(t, h, http.MethodPost, "/api/garage/leave", `{"driver_id":"d1"}`)
	require.Equal(t, http.StatusOK, code, resp.Error)
	var leave LeaveResponse
	data(t, resp, &leave)
	assert.Equal(t, "A1", leave.Plate)

	assert.Equal(t, "Garage is empty\n10.00\n", shell("status\ndue d1\n"))

	code, resp = do(t, h, http.MethodPost, "/api/garage", `{"floors":[["large"]],"hourly_rate":3}`)
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.Equal(t, "Unknown driver\nAllocated floor 1, spot 1\n", shell("due d1\npark d9 large Z9\n"))
}
