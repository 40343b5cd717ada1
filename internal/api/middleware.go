package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"salessense-go/internal/logger"
)

// CORS creates a CORS middleware with the specified allowed origins.
// Credentials are only allowed for an explicit origin list, never for "*".
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: explicitOrigins(allowedOrigins),
		MaxAge:           300,
	})
	return c.Handler
}

func explicitOrigins(origins []string) bool {
	if len(origins) == 0 {
		return false
	}
	for _, o := range origins {
		if strings.Contains(o, "*") {
			return false
		}
	}
	return true
}

// RequestLogger logs one line per request with status and duration.
func RequestLogger(l *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			entry := l.WithRequest(r).WithField("status", ww.Status()).
				WithField("bytes", ww.BytesWritten()).
				WithField("duration_ms", time.Since(start).Milliseconds())
			switch {
			case ww.Status() >= 500:
				entry.Error("request completed")
			case ww.Status() >= 400:
				entry.Warn("request completed")
			default:
				entry.Info("request completed")
			}
		})
	}
}
