package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthApp(probes ...DependencyProbe) *fiber.App {
	app := fiber.New()
	h := NewHealthHandler("helpdesk", "test", probes...)
	app.Get("/health/live", h.Live)
	app.Get("/health/ready", h.Ready)
	return app
}

func TestLiveAlwaysOK(t *testing.T) {
	app := healthApp(DependencyProbe{Name: "postgres", Check: func(context.Context) error {
		return errors.New("down")
	}})

	resp, err := app.Test(httptest.NewRequest("GET", "/health/live", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode, "liveness never consults dependencies")
}

func TestReadyReportsEachDependency(t *testing.T) {
	app := healthApp(
		DependencyProbe{Name: "postgres", Check: func(context.Context) error { return nil }},
		DependencyProbe{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
		DependencyProbe{Name: "media_store", Check: func(context.Context) error { return nil }},
	)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/ready", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	var body struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", body.Error.Code)
	assert.Equal(t, "ok", body.Error.Details["postgres"])
	assert.Equal(t, "connection refused", body.Error.Details["redis"])
	assert.Equal(t, "ok", body.Error.Details["media_store"])
}

func TestReadyAllHealthy(t *testing.T) {
	app := healthApp(
		DependencyProbe{Name: "postgres", Check: func(context.Context) error { return nil }},
		DependencyProbe{Name: "redis", Check: func(context.Context) error { return nil }},
	)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
