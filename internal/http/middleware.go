package http

import (
	"context"
	"errors"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/arunprabus/health-api/internal/handler"
	"github.com/arunprabus/health-api/internal/ratelimit"
	"github.com/arunprabus/health-api/internal/service"
	"github.com/arunprabus/health-api/pkg/logger"
)

const AuthCookieName = handler.AuthCookieName

type rateLimitResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter"`
}

type internalErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// JWTAuthMiddleware resolves the caller from a bearer token or the session cookie.
func JWTAuthMiddleware(auth service.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if token == "" {
				if cookie, err := c.Cookie(AuthCookieName); err == nil {
					token = cookie.Value
				}
			}
			if token == "" {
				return handler.Error(c, nethttp.StatusUnauthorized, "Authentication required")
			}

			principal, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, service.ErrUpstream) {
					logger.Warn("authenticate request", "module", "http", "action", "authenticate", "resource", "token", "result", "failed", "error", err)
					return handler.Error(c, nethttp.StatusBadGateway, service.ErrIdentityUnavailable.Message)
				}
				return handler.Error(c, nethttp.StatusUnauthorized, service.ErrInvalidToken.Message)
			}
			if principal == nil {
				return handler.Error(c, nethttp.StatusUnauthorized, service.ErrInvalidToken.Message)
			}

			handler.SetPrincipal(c, principal)
			return next(c)
		}
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RateLimitMiddleware admits each request against l, keyed by the client IP.
func RateLimitMiddleware(l *ratelimit.Limiter, name string, m *Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d := l.Allow(c.RealIP())
			if d.Allowed {
				c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
				return next(c)
			}

			m.rateLimited(name)
			logger.Warn("rate limit exceeded", "module", "http", "action", "admit", "resource", "limiter", "result", "failed",
				"limiter", name, "ip", c.RealIP(), "retry_at", time.UnixMilli(d.RetryAt).UTC())
			c.Response().Header().Set("Retry-After", strconv.Itoa(d.RetryAfterSeconds))
			return c.JSON(nethttp.StatusTooManyRequests, rateLimitResponse{
				Error:      "Too many requests",
				RetryAfter: d.RetryAfterSeconds,
			})
		}
	}
}

// SweepLimiters returns a task body that drops idle clients from every limiter.
func SweepLimiters(limiters map[string]*ratelimit.Limiter, m *Metrics) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		for name, l := range limiters {
			if err := ctx.Err(); err != nil {
				return err
			}
			removed := l.SweepNow()
			m.ObserveClients(name, l.Len())
			logger.Debug("rate limiter swept", "module", "http", "action", "sweep", "resource", "limiter", "result", "ok", "limiter", name, "removed", removed)
		}
		return nil
	}
}

func RequestLoggerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			status := res.Status
			args := []any{
				"module", "http",
				"action", "request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", status,
				"latency_ms", time.Since(start).Milliseconds(),
				"ip", c.RealIP(),
				"request_id", res.Header().Get(echo.HeaderXRequestID),
			}

			switch {
			case status >= nethttp.StatusInternalServerError:
				logger.Error("http request", args...)
			case status >= nethttp.StatusBadRequest:
				logger.Warn("http request", args...)
			default:
				logger.Info("http request", args...)
			}
			return nil
		}
	}
}

// ErrorHandler renders errors no handler wrote. Production hides internal messages.
func ErrorHandler(production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg, ok := he.Message.(string)
			if !ok {
				msg = nethttp.StatusText(he.Code)
			}
			if writeErr := handler.Error(c, he.Code, msg); writeErr != nil {
				logger.Error("write error response", "module", "http", "action", "respond", "error", writeErr)
			}
			return
		}

		logger.Error("unhandled error", "module", "http", "action", "respond", "path", c.Request().URL.Path, "error", err)
		message := err.Error()
		if production {
			message = "An unexpected error occurred"
		}
		if writeErr := c.JSON(nethttp.StatusInternalServerError, internalErrorResponse{
			Error:   "Internal Server Error",
			Message: message,
		}); writeErr != nil {
			logger.Error("write error response", "module", "http", "action", "respond", "error", writeErr)
		}
	}
}
