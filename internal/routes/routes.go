package routes

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ceylonbank/customer_accounts/internal/config"
	"github.com/ceylonbank/customer_accounts/internal/credential"
	"github.com/ceylonbank/customer_accounts/internal/customer"
	"github.com/ceylonbank/customer_accounts/internal/metrics"
	"github.com/ceylonbank/customer_accounts/internal/middleware"
	"github.com/ceylonbank/customer_accounts/internal/notification"
	"github.com/ceylonbank/customer_accounts/internal/session"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg     config.Config
	DB      *pgxpool.Pool
	Cache   *redis.Client
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// Repo overrides the Postgres repository; used by tests and local runs without a database.
	Repo customer.Repository
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.DB == nil && d.Repo == nil {
		return fmt.Errorf("a customer store is required")
	}
	if d.DB == nil && !d.Cfg.IsDev() {
		return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
	}

	sessions, err := session.NewIssuer([]byte(d.Cfg.SessionSecret), d.Cfg.SessionIssuer, d.Cfg.SessionTTL)
	if err != nil {
		return err
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	repo := d.Repo
	if repo == nil {
		repo = customer.NewPostgresRepository(d.DB)
	}
	svc := customer.NewService(
		repo,
		credential.NewHasher(d.Cfg.PINHashCost),
		sessions,
		notification.NewLoggerNotifier(d.Logger),
		d.Metrics,
		d.Logger,
	)
	handler := customer.NewHandler(svc)

	var idempotency, rateLimiter fiber.Handler
	if d.Cache != nil {
		idempotency = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
		rateLimiter = middleware.LoginRateLimit(d.Cache, d.Cfg.LoginAttemptsPerMinute, d.Metrics)
	}

	// The unversioned paths match the routes existing clients already call.
	RegisterCustomerRoutes(app, handler, idempotency, rateLimiter)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
	RegisterCustomerRoutes(api, handler, idempotency, rateLimiter)
	RegisterProfileRoute(api, handler, middleware.SessionAuth(sessions))

	return nil
}

// ErrorHandler renders fiber errors as the JSON error body used by the handlers.
// Unexpected errors are reported as a generic 500.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "internal server error"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		} else {
			logger.Error("unhandled error", slog.String("path", c.Path()), slog.Any("error", err))
		}
		return c.Status(code).JSON(fiber.Map{"error": message, "code": statusCode(code)})
	}
}

func statusCode(status int) string {
	return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}
