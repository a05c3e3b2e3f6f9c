package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	KeyPrefix         string
}

// windowHit is the state of one client's fixed window after a request
type windowHit struct {
	count     int64
	remaining time.Duration
}

type fixedWindow struct {
	rdb    *redis.Client
	config RateLimitConfig
}

// hit counts one request for key and starts the window on the first one
func (f fixedWindow) hit(ctx context.Context, key string) (windowHit, error) {
	pipe := f.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return windowHit{}, err
	}

	h := windowHit{count: incr.Val(), remaining: ttl.Val()}
	if h.remaining < 0 {
		if err := f.rdb.PExpire(ctx, key, f.config.Window).Err(); err != nil {
			return windowHit{}, err
		}
		h.remaining = f.config.Window
	}
	return h, nil
}

// RateLimitMiddleware counts requests per client in fixed Redis windows.
// Authenticated requests are keyed by user id, anonymous ones by IP.
// Redis failures let the request through.
func RateLimitMiddleware(redisClient *redis.Client, config RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	window := fixedWindow{rdb: redisClient, config: config}
	limit := int64(config.RequestsPerWindow)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := "ip:" + clientIP(r.RemoteAddr)
			if userID, ok := GetUserID(r.Context()); ok {
				client = "user:" + userID.String()
			}
			key := config.KeyPrefix + ":" + client

			h, err := window.hit(r.Context(), key)
			if err != nil {
				logger.Error("Rate limiter unavailable", zap.Error(err), zap.String("key", key))
				next.ServeHTTP(w, r)
				return
			}

			header := w.Header()
			header.Set("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
			header.Set("X-RateLimit-Remaining", strconv.FormatInt(max(limit-h.count, 0), 10))
			header.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(h.remaining).Unix(), 10))

			if h.count > limit {
				logger.Warn("Rate limit exceeded",
					zap.String("client", client),
					zap.Int64("count", h.count),
				)
				header.Set("Retry-After", strconv.Itoa(int(h.remaining.Round(time.Second)/time.Second)))
				RespondWithError(w, http.StatusTooManyRequests, "too many requests, please try again later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
