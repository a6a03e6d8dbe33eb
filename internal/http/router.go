package http

import (
	nethttp "net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/arunprabus/health-api/internal/handler"
	"github.com/arunprabus/health-api/internal/ratelimit"
	"github.com/arunprabus/health-api/internal/service"
)

const defaultBasePath = "/api"

// Deps is everything the router wires together. Cognito, the limiters and Metrics may be nil.
type Deps struct {
	Auth          *handler.AuthHandler
	Cognito       *handler.CognitoHandler
	Profile       *handler.ProfileHandler
	Upload        *handler.UploadHandler
	Health        *handler.HealthHandler
	Authenticator service.Authenticator

	APILimiter  *ratelimit.Limiter
	AuthLimiter *ratelimit.Limiter
	Metrics     *Metrics

	BasePath    string
	FilesDir    string
	CORSOrigins []string
	BodyLimit   string
	TrustProxy  bool
	Swagger     bool
	Production  bool
}

func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler(d.Production)
	if d.TrustProxy {
		e.IPExtractor = echo.ExtractIPFromXFFHeader()
	} else {
		e.IPExtractor = echo.ExtractIPDirect()
	}

	metrics := d.Metrics
	if metrics == nil {
		metrics = NewMetrics(prometheus.NewRegistry())
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	origins := corsOrigins(d.CORSOrigins)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: !slices.Contains(origins, "*"),
	}))
	e.Use(RequestLoggerMiddleware())
	e.Use(metrics.Middleware(map[string]struct{}{"/metrics": {}}))

	basePath := normalizeBasePath(d.BasePath)
	if d.BodyLimit != "" {
		// The upload handler enforces its own limit and reports it as a validation error.
		uploadPath := basePath + "/upload"
		e.Use(middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
			Limit: d.BodyLimit,
			Skipper: func(c echo.Context) bool {
				return c.Request().Method == nethttp.MethodPost && c.Path() == uploadPath
			},
		}))
	}

	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	if d.Swagger {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	api := e.Group(basePath)
	if d.APILimiter != nil {
		api.Use(RateLimitMiddleware(d.APILimiter, "api", metrics))
	}

	// Routes under /auth share the stricter limiter; /auth/me sits behind it as well.
	authGroup := api.Group("")
	if d.AuthLimiter != nil {
		authGroup.Use(authPathLimiter(basePath+"/auth", RateLimitMiddleware(d.AuthLimiter, "auth", metrics)))
	}

	protected := authGroup.Group("")
	protected.Use(JWTAuthMiddleware(d.Authenticator))

	if d.Auth != nil {
		d.Auth.RegisterPublicRoutes(authGroup)
		d.Auth.RegisterProtectedRoutes(protected)
	}
	if d.Cognito != nil {
		d.Cognito.RegisterRoutes(authGroup)
	}
	if d.Health != nil {
		d.Health.RegisterRoutes(api)
	}
	if d.Profile != nil {
		d.Profile.RegisterRoutes(protected)
	}
	if d.Upload != nil {
		d.Upload.RegisterRoutes(protected)
	}
	registerFiles(protected, d.FilesDir)

	return e
}

// authPathLimiter applies mw only to requests below prefix.
func authPathLimiter(prefix string, mw echo.MiddlewareFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		limited := mw(next)
		return func(c echo.Context) error {
			p := c.Request().URL.Path
			if p == prefix || strings.HasPrefix(p, prefix+"/") {
				return limited(c)
			}
			return next(c)
		}
	}
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func normalizeBasePath(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), "/")
	if p == "" {
		return defaultBasePath
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
