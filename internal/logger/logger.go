package logger

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Service is stamped on every line.
const Service = "salessense-go"

// Logger is the process-wide structured logger. Packages below the API layer
// receive a *logrus.Entry from Component rather than the Logger itself.
type Logger struct {
	*logrus.Entry
}

// New builds the process logger for the given ENVIRONMENT and LOG_LEVEL.
func New(env, level string) *Logger {
	return newWithOutput(env, level, os.Stdout)
}

func newWithOutput(env, level string, out io.Writer) *Logger {
	base := logrus.New()
	base.SetOutput(out)
	base.SetFormatter(formatterFor(env))

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)

	return &Logger{Entry: logrus.NewEntry(base).WithField("service", Service)}
}

// Developers running on a laptop get coloured text; deployed instances ship
// JSON to the log collector.
func formatterFor(env string) logrus.Formatter {
	if env == "" || env == "local" {
		return &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
			ForceColors:     true,
		}
	}
	return &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano}
}

// Component returns an entry for one subsystem: pipeline, processor, llm...
func (l *Logger) Component(name string) *logrus.Entry {
	return l.Entry.WithField("component", name)
}

// WithRequest tags an entry with the caller's request. The id comes from chi's
// RequestID middleware, then the X-Request-ID header, then a fresh uuid.
func (l *Logger) WithRequest(r *http.Request) *logrus.Entry {
	id := middleware.GetReqID(r.Context())
	if id == "" {
		id = r.Header.Get("X-Request-ID")
	}
	if id == "" {
		id = uuid.NewString()
	}

	return l.WithFields(logrus.Fields{
		"req_id":     id,
		"method":     r.Method,
		"path":       r.URL.Path,
		"remote_ip":  r.RemoteAddr,
		"user_agent": r.UserAgent(),
	})
}

// WithError adds the error text, or nothing for a nil error.
func (l *Logger) WithError(err error) *logrus.Entry {
	if err == nil {
		return l.Entry
	}
	return l.Entry.WithField("error", err.Error())
}
