package server

import (
	"net/http"
	"time"

	"github.com/berfenger/vivint2mqtt/internal/core/domain"
	"github.com/berfenger/vivint2mqtt/internal/core/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type healthCheckResponse struct {
	Healthy bool   `json:"healthy"`
	State   string `json:"state"`
}

type verifyMfaRequest struct {
	Code string `json:"code"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.POST("/mfa", s.VerifyMfaHandler)
	e.GET("/metrics", s.MetricsHandler())

	return e
}

// HealthCheckHandler reports the health of the actor tree. The state
// field tells an operator when the bridge is parked waiting for an MFA
// code.
func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, healthCheckResponse{Healthy: false, State: "unreachable"})
	}
	response, ok := res.(domain.ActorHealthResponse)
	if !ok {
		return c.JSON(http.StatusServiceUnavailable, healthCheckResponse{Healthy: false, State: "unreachable"})
	}
	status := http.StatusOK
	if !response.Healthy {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, healthCheckResponse{Healthy: response.Healthy, State: response.State})
}

// VerifyMfaHandler submits the verification code of a pending MFA
// challenge.
func (s *Server) VerifyMfaHandler(c echo.Context) error {
	var req verifyMfaRequest
	if err := c.Bind(&req); err != nil || req.Code == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "code is required"})
	}
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.VerifyMfaRequest{Code: req.Code}, 35*time.Second).Result()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "verification timed out"})
	}
	response, ok := res.(domain.VerifyMfaResponse)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "unexpected response"})
	}
	if response.HasResponseError() {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": response.GetResponseError().Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "verified"})
}

func (s *Server) MetricsHandler() echo.HandlerFunc {
	registry := prometheus.NewRegistry()
	registry.MustRegister(service.MetricsCollectors()...)
	return echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
