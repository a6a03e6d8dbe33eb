package http

import (
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RateLimited     *prometheus.CounterVec
	TrackedClients  *prometheus.GaugeVec

	gatherer prometheus.Gatherer
}

func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "health_api_requests_total",
				Help: "Total HTTP requests processed",
			},
			[]string{"route", "method", "code"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "health_api_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		RateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "health_api_rate_limited_total",
				Help: "Total requests rejected by a rate limiter",
			},
			[]string{"limiter"},
		),
		TrackedClients: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "health_api_rate_limit_clients",
				Help: "Clients currently tracked by a rate limiter",
			},
			[]string{"limiter"},
		),
		gatherer: reg,
	}

	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.RateLimited, m.TrackedClients)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() nethttp.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware records per-request metrics labelled by the matched route pattern.
func (m *Metrics) Middleware(skip map[string]struct{}) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := skip[c.Request().URL.Path]; ok {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unknown"
			}
			method := c.Request().Method
			code := c.Response().Status
			if code == 0 {
				code = nethttp.StatusOK
			}

			m.RequestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
			m.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
			return nil
		}
	}
}

func (m *Metrics) rateLimited(limiter string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(limiter).Inc()
}

// ObserveClients records how many clients a limiter tracks after a sweep.
func (m *Metrics) ObserveClients(limiter string, n int) {
	if m == nil {
		return
	}
	m.TrackedClients.WithLabelValues(limiter).Set(float64(n))
}
