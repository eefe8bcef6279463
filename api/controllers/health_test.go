package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

func TestHealthLive(t *testing.T) {
	resp := httptest.NewRecorder()
	HealthLive()(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	requireStatus(t, resp.Code, http.StatusOK)
}

func TestHealthReadyAllHealthy(t *testing.T) {
	resp := httptest.NewRecorder()
	HealthReady(stubPinger{}, stubPinger{}, testLogger())(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	requireStatus(t, resp.Code, http.StatusOK)
}

func TestHealthReadyReportsDatabaseOutage(t *testing.T) {
	resp := httptest.NewRecorder()
	HealthReady(stubPinger{err: errors.New("down")}, stubPinger{}, testLogger())(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	requireStatus(t, resp.Code, http.StatusServiceUnavailable)
}
