package api

import (
	"context"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/vegaprotocol/amounts/common"
	"github.com/vegaprotocol/amounts/log"
	"github.com/vegaprotocol/amounts/metrics"
)

// normalizeEndpoint removes all unique identifiers from the URL in order to
// make it possible to group the Prometheus metrics nicely.
func normalizeEndpoint(url string) string {
	var nels []string

	els := strings.Split(url, "/")
	for _, e := range els {
		// Market and asset IDs are hashes, and amounts are numbers, so cut
		// everything that is too long or looks like a number.
		isTooLong := len(e) >= 32
		isNumber := len(e) > 0 && strings.IndexFunc(e, func(c rune) bool {
			return (c < '0' || c > '9') && c != '.' && c != '-'
		}) == -1
		if isTooLong || isNumber {
			nels = append(nels, "*")
		} else {
			nels = append(nels, e)
		}
	}

	return strings.Join(nels, "/")
}

// MetricsMiddleware is a middleware that measures the start and end of each request,
// as well as other useful request information.
// It should be used as the outermost middleware, so it can
// - set a requestID and make it available to all handlers and
// - observe the final HTTP status code at the end of the request.
func MetricsMiddleware(m metrics.RequestMetrics, logger *log.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Pre-work and initial logging.
			requestID := uuid.New()
			logger.Info("starting request",
				"endpoint", r.URL.Path,
				"request_id", requestID,
			)
			t := time.Now()
			metricName := normalizeEndpoint(r.URL.Path)

			// Serve the request.
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(
				context.WithValue(r.Context(), common.RequestIDContextKey, requestID),
			))

			// Observe results and log/record them.
			httpStatus := ww.Status()
			if httpStatus == 0 {
				// Nothing was written; net/http replies 200.
				httpStatus = http.StatusOK
			}
			latency := time.Since(t)
			logger.Info("ending request",
				"query_path", r.URL.Path,
				"query_params", r.URL.RawQuery,
				"request_id", requestID,
				"latency", latency,
				"latency_bin", binQueryLatency(latency),
				"status_code", httpStatus,
			)

			statusTxt := "failure"
			if httpStatus >= 200 && httpStatus < 400 {
				statusTxt = "success"
			} else if httpStatus >= 400 && httpStatus < 500 {
				// Group all 4xx errors into the "ignored" label; they are
				// client mistakes, not service failures.
				statusTxt = "failure_4xx"
				metricName = "ignored"
			}
			// Prometheus panics on label values that are not valid UTF-8.
			if !utf8.ValidString(metricName) {
				logger.Debug("invalid metric name", "metric_name", metricName)
				metricName = "ignored"
				statusTxt = "non_utf8_path"
			}
			m.RequestCounts(metricName, statusTxt).Inc()
			m.RequestLatencies(metricName).Observe(latency.Seconds())
		})
	}
}

// Bin request durations to make it easier to search
// for slow queries in the logs.
func binQueryLatency(t time.Duration) string {
	switch {
	case t < 100*time.Millisecond:
		return "<100ms"
	case t < 300*time.Millisecond:
		return "100-300ms"
	case t < 500*time.Millisecond:
		return "300-500ms"
	case t < 1000*time.Millisecond:
		return "500-1000ms"
	default:
		return ">1000ms"
	}
}

// NewCorsMiddleware returns a restrictive CORS middleware that allows GET
// requests, the POST used for rewards and the PUTs that register scales. An empty allowedOrigins allows
// every origin.
//
// It answers OPTIONS preflight requests itself, so it has to be the
// outermost handler.
func NewCorsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
		},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	}).Handler
}
