package echoapi

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metricsMiddleware counts requests and observes their latency, by route.
func metricsMiddleware(reg prometheus.Registerer) echo.MiddlewareFunc {
	factory := promauto.With(reg)
	requests := factory.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Number of HTTP requests handled, by route, method and status code.",
	}, []string{"route", "method", "code"})
	latency := factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latencies, by route and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)
			if err != nil {
				ctx.Error(err) // commit the response so its status is known
			}

			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}
			method := ctx.Request().Method
			requests.WithLabelValues(route, method, strconv.Itoa(ctx.Response().Status)).Inc()
			latency.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// timeoutMiddleware bounds the request context, and so every store call made with it.
func timeoutMiddleware(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if timeout <= 0 {
				return next(ctx)
			}
			rctx, cancel := context.WithTimeout(ctx.Request().Context(), timeout)
			defer cancel()
			ctx.SetRequest(ctx.Request().WithContext(rctx))
			return next(ctx)
		}
	}
}
