package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Mylifeforrent/react-management-backend/pkg/contextkeys"
	"github.com/Mylifeforrent/react-management-backend/pkg/httputil"
	"github.com/Mylifeforrent/react-management-backend/pkg/observability"
)

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// AccessLog logs one line per request and records request metrics
func AccessLog(log logrus.FieldLogger, metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			elapsed := time.Since(start)
			if metrics != nil {
				metrics.ObserveRequest(r.Method, r.URL.Path, rec.status, elapsed)
			}
			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rec.status,
				"duration":   elapsed.String(),
				"source_ip":  httputil.ClientIP(r),
				"request_id": contextkeys.RequestIDFrom(r.Context()),
			}).Info("request handled")
		})
	}
}
