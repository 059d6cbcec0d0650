package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parking-garage/internal/logging"
)

type Server struct {
	httpServer *http.Server
	handler    *Handler
}

func NewServer(port string, handler *Handler) *Server {
	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
	}
}

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(RecoveryMiddleware)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(TracingMiddleware)
	r.Use(CORSMiddleware)

	r.Get("/health", handler.HealthCheck)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/garage", func(r chi.Router) {
		r.Post("/", handler.CreateGarage)
		r.Post("/park", handler.ParkVehicle)
		r.Post("/leave", handler.LeaveGarage)
		r.Get("/status", handler.GetStatus)
		r.Get("/find/{plate}", handler.FindByPlate)
		r.Get("/drivers/{id}", handler.GetDriver)
		r.Post("/drivers/{id}/pay", handler.PayBalance)
	})

	return r
}

func (s *Server) Start() error {
	logging.Info(context.Background(), "starting HTTP server", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info(ctx, "shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return fmt.Sprintf("http://localhost%s", s.httpServer.Addr)
}
