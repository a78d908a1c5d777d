package logger

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// AccessLog writes one structured line per request.
func AccessLog(log Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				fields := map[string]interface{}{
					"method":     r.Method,
					"path":       r.URL.Path,
					"status":     ww.Status(),
					"bytes":      ww.BytesWritten(),
					"durationMs": time.Since(start).Milliseconds(),
					"requestId":  middleware.GetReqID(r.Context()),
					"remoteAddr": r.RemoteAddr,
				}
				switch {
				case ww.Status() >= 500:
					log.Error("request", fields)
				case ww.Status() >= 400:
					log.Warn("request", fields)
				default:
					log.Info("request", fields)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
