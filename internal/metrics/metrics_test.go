package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func TestObserveOperation(t *testing.T) {
	c := NewCollector("test")

	c.ObserveOperation("users", "create", 5*time.Millisecond, nil)
	c.ObserveOperation("users", "create", time.Millisecond, errors.New("boom"))
	c.ObserveOperation("users", "find_one", time.Millisecond, mongo.ErrNoDocuments)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.DBOperations.WithLabelValues("create", "users", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.DBOperations.WithLabelValues("create", "users", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.DBOperations.WithLabelValues("find_one", "users", "not_found")))
}

func TestObserveIndex(t *testing.T) {
	c := NewCollector("test")
	c.ObserveIndex("posts", "content_text", nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.DBIndexes.WithLabelValues("posts", "content_text", "ok")))
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	c := NewCollector("test")
	app := fiber.New()
	app.Use(c.Middleware())
	app.Get("/api/users/:id", func(ctx *fiber.Ctx) error { return ctx.SendString("ok") })
	app.Get("/boom", func(ctx *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "no") })

	for _, path := range []string{"/api/users/1", "/api/users/2", "/boom"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/api/users/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/boom", "418")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.HTTPInflight))
}

func TestHandlerExposesRegistry(t *testing.T) {
	c := NewCollector("scratch")
	c.ObserveOperation("albums", "aggregate", time.Millisecond, nil)

	app := fiber.New()
	app.Get("/metrics", adaptor.HTTPHandler(c.Handler()))

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `scratch_db_operations_total{collection="albums",operation="aggregate",status="ok"} 1`))
}
