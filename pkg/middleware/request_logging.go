package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"stegosuite/pkg/metrics"
)

// RequestLogger returns middleware that logs requests using zerolog
// and updates the request counters.
func RequestLogger(reg *metrics.Registry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, rid)

			// Attach request-scoped logger
			logger := log.With().
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("remote_ip", c.RealIP()).
				Logger()
			c.SetRequest(req.WithContext(logger.WithContext(req.Context())))

			err := next(c)
			if err != nil {
				// let echo write the response so the status below is final
				c.Error(err)
			}

			status := c.Response().Status
			duration := time.Since(start)

			// route template keeps label cardinality bounded
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			labels := metrics.Labels{
				"method": req.Method,
				"route":  route,
				"status": statusClass(status),
			}
			if reg != nil {
				reg.Inc(c.Request().Context(), "http_requests_total", labels, 1)
			}

			if status >= 500 {
				logger.Error().
					Err(err).
					Int("status", status).
					Dur("duration", duration).
					Msg("http request failed")
				if reg != nil {
					reg.Inc(c.Request().Context(), "http_requests_errors_total", labels, 1)
				}
			} else {
				logger.Info().
					Int("status", status).
					Int64("bytes_out", c.Response().Size).
					Dur("duration", duration).
					Msg("http request served")
			}
			return nil
		}
	}
}

func statusClass(code int) string {
	switch {
	case code >= 100 && code < 200:
		return "1xx"
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "0"
	}
}
