package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ceylonbank/customer_accounts/internal/metrics"
)

const loginRateLimitPrefix = "rl:login:"

// LoginRateLimit limits login attempts per customer id, or per client IP when
// no id is present, using a fixed one-minute window in Redis.
func LoginRateLimit(cache *redis.Client, maxPerMin int, m *metrics.Metrics) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next() // no-op without Redis
		}
		key := loginRateLimitPrefix + rateLimitSubject(c)
		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			return c.Next() // fail-open on cache errors
		}
		if cnt == 1 {
			cache.Expire(c.UserContext(), key, time.Minute)
		}
		if cnt > int64(maxPerMin) {
			m.IncrementRateLimited()
			return fiber.NewError(http.StatusTooManyRequests, "too many login attempts, try again later")
		}
		return c.Next()
	}
}

func rateLimitSubject(c *fiber.Ctx) string {
	var req struct {
		ID any `json:"id"`
	}
	_ = c.BodyParser(&req)
	switch v := req.ID.(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return "id:" + s
		}
	case float64:
		if v != 0 {
			return "id:" + strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return "ip:" + c.IP()
}
