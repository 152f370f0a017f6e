package routes

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ceylonbank/customer_accounts/internal/config"
	"github.com/ceylonbank/customer_accounts/internal/customer"
	"github.com/ceylonbank/customer_accounts/internal/logging"
	"github.com/ceylonbank/customer_accounts/internal/metrics"
)

func testConfig() config.Config {
	return config.Config{
		AppName:                "test",
		AppEnv:                 "development",
		SessionSecret:          "test-secret",
		SessionIssuer:          "test",
		SessionTTL:             10 * time.Minute,
		PINHashCost:            4,
		IdempotencyTTL:         time.Minute,
		LoginAttemptsPerMinute: 3,
	}
}

func setupApp(t *testing.T, withCache bool) *fiber.App {
	t.Helper()
	logger := logging.Discard()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger)})

	d := Deps{Cfg: testConfig(), Logger: logger, Metrics: metrics.New(), Repo: customer.NewMemoryRepository()}
	if withCache {
		mr := miniredis.RunT(t)
		d.Cache = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { d.Cache.Close() })
	}
	if err := Setup(app, d); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return app
}

func call(t *testing.T, app *fiber.App, method, path, body string, headers map[string]string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

const newCustomer = `{"nic":"199034567890","name":"Kamala Silva","pin":"2468","dob":"1990-12-10","mobilenum":"0711234567"}`

func TestSetupRequiresStore(t *testing.T) {
	app := fiber.New()
	if err := Setup(app, Deps{Cfg: testConfig(), Logger: logging.Discard()}); err == nil {
		t.Fatalf("expected error without a store")
	}
}

func TestSetupRequiresDatabaseOutsideDev(t *testing.T) {
	cfg := testConfig()
	cfg.AppEnv = "production"
	app := fiber.New()
	if err := Setup(app, Deps{Cfg: cfg, Logger: logging.Discard(), Repo: customer.NewMemoryRepository()}); err == nil {
		t.Fatalf("expected error without a database in production")
	}
}

func TestAccountLifecycle(t *testing.T) {
	app := setupApp(t, false)

	status, body := call(t, app, fiber.MethodPost, "/customer", newCustomer, nil)
	if status != fiber.StatusCreated || body["id"] != float64(1000) {
		t.Fatalf("create: %d %v", status, body)
	}

	status, body = call(t, app, fiber.MethodPost, "/api/v1/customer/login", `{"id":1000,"pin":"2468"}`, nil)
	if status != fiber.StatusOK {
		t.Fatalf("login: %d %v", status, body)
	}
	token, _ := body["token"].(string)

	status, body = call(t, app, fiber.MethodGet, "/api/v1/customer/me", "", map[string]string{fiber.HeaderAuthorization: "Bearer " + token})
	if status != fiber.StatusOK || body["nic"] != "199034567890" {
		t.Fatalf("me: %d %v", status, body)
	}

	status, body = call(t, app, fiber.MethodGet, "/api/v1/customer/me", "", nil)
	if status != fiber.StatusUnauthorized || body["code"] != "unauthorized" {
		t.Fatalf("me without token: %d %v", status, body)
	}

	status, body = call(t, app, fiber.MethodPost, "/customer/change-pin", `{"id":1000,"pin":"2468","newpin":"1357"}`, nil)
	if status != fiber.StatusOK {
		t.Fatalf("change pin: %d %v", status, body)
	}
	if status, _ := call(t, app, fiber.MethodPost, "/customer/login", `{"id":1000,"pin":"1357"}`, nil); status != fiber.StatusOK {
		t.Fatalf("login with new pin: %d", status)
	}
}

func TestLoginRateLimitedWithCache(t *testing.T) {
	app := setupApp(t, true)
	if status, body := call(t, app, fiber.MethodPost, "/customer", newCustomer, nil); status != fiber.StatusCreated {
		t.Fatalf("create: %d %v", status, body)
	}

	for i := 0; i < 3; i++ {
		if status, _ := call(t, app, fiber.MethodPost, "/customer/login", `{"id":1000,"pin":"0000"}`, nil); status != fiber.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, status)
		}
	}
	status, body := call(t, app, fiber.MethodPost, "/customer/login", `{"id":1000,"pin":"2468"}`, nil)
	if status != fiber.StatusTooManyRequests || body["code"] != "too_many_requests" {
		t.Fatalf("expected 429, got %d %v", status, body)
	}
}

func TestCreateReplaysWithIdempotencyKey(t *testing.T) {
	app := setupApp(t, true)
	headers := map[string]string{"Idempotency-Key": "create-1"}

	first, body := call(t, app, fiber.MethodPost, "/customer", newCustomer, headers)
	if first != fiber.StatusCreated {
		t.Fatalf("create: %d %v", first, body)
	}
	second, replay := call(t, app, fiber.MethodPost, "/customer", newCustomer, headers)
	if second != fiber.StatusCreated || replay["id"] != body["id"] {
		t.Fatalf("expected replayed 201, got %d %v", second, replay)
	}

	third, conflict := call(t, app, fiber.MethodPost, "/customer", newCustomer, nil)
	if third != fiber.StatusConflict {
		t.Fatalf("expected 409 without key, got %d %v", third, conflict)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	app := setupApp(t, true)

	status, body := call(t, app, fiber.MethodGet, "/healthz", "", nil)
	if status != fiber.StatusOK {
		t.Fatalf("healthz: %d %v", status, body)
	}

	call(t, app, fiber.MethodPost, "/customer", newCustomer, nil)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), `customer_operations_total{operation="create",outcome="ok"} 1`) {
		t.Fatalf("expected create counter in metrics output:\n%s", raw)
	}
}
