package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ceylonbank/customer_accounts/internal/logging"
)

func setupIdempotencyApp(t *testing.T, status int) (*fiber.App, *atomic.Int32) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	var calls atomic.Int32
	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/customer", func(c *fiber.Ctx) error {
		n := calls.Add(1)
		return c.Status(status).JSON(fiber.Map{"id": 999 + n})
	})
	return app, &calls
}

func post(t *testing.T, app *fiber.App, key string) (int, string, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/customer", strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body), resp.Header.Get("Idempotent-Replayed")
}

func TestIdempotencyWithoutHeaderPassesThrough(t *testing.T) {
	app, calls := setupIdempotencyApp(t, fiber.StatusCreated)

	post(t, app, "")
	post(t, app, "")
	if calls.Load() != 2 {
		t.Fatalf("expected handler to run twice, ran %d", calls.Load())
	}
}

func TestIdempotencyReturnsCachedResponse(t *testing.T) {
	app, calls := setupIdempotencyApp(t, fiber.StatusCreated)

	status, first, _ := post(t, app, "abc123")
	if status != fiber.StatusCreated {
		t.Fatalf("expected %d got %d", fiber.StatusCreated, status)
	}

	status, second, replayed := post(t, app, "abc123")
	if status != fiber.StatusCreated {
		t.Fatalf("expected cached status %d got %d", fiber.StatusCreated, status)
	}
	if second != first {
		t.Fatalf("expected cached payload %s got %s", first, second)
	}
	if replayed != "true" {
		t.Fatalf("expected replay marker header")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected handler to run once, ran %d", calls.Load())
	}

	post(t, app, "another-key")
	if calls.Load() != 2 {
		t.Fatalf("distinct key should reach the handler")
	}
}

func TestIdempotencyDoesNotStoreServerErrors(t *testing.T) {
	app, calls := setupIdempotencyApp(t, fiber.StatusInternalServerError)

	post(t, app, "retry-me")
	post(t, app, "retry-me")
	if calls.Load() != 2 {
		t.Fatalf("5xx responses must not be replayed, handler ran %d", calls.Load())
	}
}
