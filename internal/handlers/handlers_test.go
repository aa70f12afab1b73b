package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/catalog"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, dto.ErrorResponse) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out dto.ErrorResponse
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}

func TestRespondErrorStatuses(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{services.ErrInvalidToken, fiber.StatusUnauthorized},
		{services.ErrForbidden, fiber.StatusForbidden},
		{services.ErrPostNotFound, fiber.StatusNotFound},
		{fmt.Errorf("load: %w", services.ErrAlbumNotFound), fiber.StatusNotFound},
		{services.ErrAlreadyScratched, fiber.StatusConflict},
		{repository.ErrVersionConflict, fiber.StatusConflict},
		{models.ErrRatingOutOfRange, fiber.StatusBadRequest},
		{services.ErrInvalidBucket, fiber.StatusBadRequest},
		{catalog.ErrCatalogUnavailable, fiber.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			app := newApp()
			app.Get("/", func(c *fiber.Ctx) error { return respondError(c, tc.err) })

			status, body := do(t, app, http.MethodGet, "/", "")
			assert.Equal(t, tc.want, status)
			assert.True(t, body.Error)
			assert.Equal(t, tc.err.Error(), body.Message)
		})
	}
}

func TestRespondErrorRejectedContent(t *testing.T) {
	app := newApp()
	app.Get("/", func(c *fiber.Ctx) error {
		return respondError(c, services.NewModerationService(&repository.Stores{}).Check("call me at 555-123-4567"))
	})

	status, body := do(t, app, http.MethodGet, "/", "")
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, services.ReasonContact, body.Reason)
	assert.NotEmpty(t, body.Message)
}

func TestRespondErrorHidesInternalDetails(t *testing.T) {
	app := newApp()
	app.Get("/", func(c *fiber.Ctx) error {
		return respondError(c, errors.New("connection refused to 10.0.0.3"))
	})

	status, body := do(t, app, http.MethodGet, "/", "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", body.Message)
}

func TestErrorHandler(t *testing.T) {
	app := newApp()
	app.Get("/teapot", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("secret") })

	status, body := do(t, app, http.MethodGet, "/teapot", "")
	assert.Equal(t, fiber.StatusTeapot, status)
	assert.Equal(t, "short and stout", body.Message)

	status, body = do(t, app, http.MethodGet, "/boom", "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", body.Message)

	status, _ = do(t, app, http.MethodGet, "/missing", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestBind(t *testing.T) {
	app := newApp()
	app.Post("/", func(c *fiber.Ctx) error {
		var req dto.LoginRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"email": req.Email})
	})

	status, body := do(t, app, http.MethodPost, "/", "{not json")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid request body", body.Message)

	status, body = do(t, app, http.MethodPost, "/", `{"email":"nope","password":"x"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body.Message, "email")

	status, _ = do(t, app, http.MethodPost, "/", `{"email":"a@b.co","password":"x"}`)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestCurrentUserRequiresToken(t *testing.T) {
	app := newApp()
	app.Get("/", func(c *fiber.Ctx) error {
		if _, err := currentUser(c); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusOK)
	})

	status, body := do(t, app, http.MethodGet, "/", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Unauthorized", body.Message)
}

func TestPageParams(t *testing.T) {
	app := newApp()
	app.Get("/", func(c *fiber.Ctx) error {
		skip, limit := pageParams(c)
		return c.JSON(fiber.Map{"skip": skip, "limit": limit})
	})

	cases := map[string][2]int64{
		"/":                     {0, 20},
		"/?skip=40&limit=10":    {40, 10},
		"/?skip=-5&limit=1000":  {0, 100},
		"/?skip=abc&limit=zero": {0, 20},
	}
	for path, want := range cases {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		var got struct{ Skip, Limit int64 }
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		resp.Body.Close()
		assert.Equal(t, want, [2]int64{got.Skip, got.Limit}, path)
	}
}

func TestPathIDAndTimeRange(t *testing.T) {
	app := newApp()
	app.Get("/users/:id", func(c *fiber.Ctx) error {
		if _, err := pathID(c, "id"); err != nil {
			return err
		}
		if _, _, err := timeRange(c); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusOK)
	})

	status, _ := do(t, app, http.MethodGet, "/users/xyz", "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	id := "65f0c0ffee0000000000abcd"
	status, _ = do(t, app, http.MethodGet, "/users/"+id+"?from=2024-01-01T00:00:00Z", "")
	assert.Equal(t, fiber.StatusOK, status)

	status, body := do(t, app, http.MethodGet, "/users/"+id+"?to=yesterday", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body.Message, "to")
}

type fakeHealth struct{ report database.HealthReport }

func (f fakeHealth) Health(context.Context) database.HealthReport { return f.report }

func TestHealthCheck(t *testing.T) {
	for _, tc := range []struct {
		healthy bool
		status  int
		label   string
	}{
		{true, fiber.StatusOK, "ok"},
		{false, fiber.StatusServiceUnavailable, "degraded"},
	} {
		app := newApp()
		app.Get("/health", NewHealthHandler(fakeHealth{database.HealthReport{Healthy: tc.healthy}}).Check)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode)

		var body dto.HealthResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		assert.Equal(t, tc.label, body.Status)
		assert.NotEmpty(t, body.Timestamp)
	}
}

func TestCheckContentEndpoint(t *testing.T) {
	app := newApp()
	app.Post("/check", NewModerationHandler(services.NewModerationService(&repository.Stores{})).CheckContent)

	req := httptest.NewRequest(http.MethodPost, "/check", strings.NewReader(`{"text":"great record, go buy it"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	var ok map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ok))
	resp.Body.Close()
	assert.Equal(t, true, ok["allowed"])

	req = httptest.NewRequest(http.MethodPost, "/check", strings.NewReader(`{"text":"visit www.spam.example now"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	var rejected map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rejected))
	resp.Body.Close()
	assert.Equal(t, false, rejected["allowed"])
	assert.NotEmpty(t, rejected["reason"])
}
