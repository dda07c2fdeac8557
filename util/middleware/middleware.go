package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime"

	m "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/zjx20/gemini-relay/config"
	"github.com/zjx20/gemini-relay/util"
)

const RequestIDHeader = "X-Request-ID"

const redacted = "REDACTED"

func Logger(next http.Handler) http.Handler {
	return NewLogger(log.StandardLogger())(next)
}

// NewLogger logs one line per request to logger, with the "pass" query
// parameter masked.
func NewLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return m.RequestLogger(&redactingFormatter{
		next: &m.DefaultLogFormatter{
			Logger:  logger,
			NoColor: runtime.GOOS == "windows",
		},
	})
}

type redactingFormatter struct {
	next m.LogFormatter
}

func (f *redactingFormatter) NewLogEntry(r *http.Request) m.LogEntry {
	query := r.URL.Query()
	if _, ok := query["pass"]; !ok {
		return f.next.NewLogEntry(r)
	}
	query.Set("pass", redacted)
	masked := r.WithContext(r.Context())
	u := *r.URL
	u.RawQuery = query.Encode()
	masked.URL = &u
	masked.RequestURI = u.RequestURI()
	return f.next.NewLogEntry(masked)
}

func Recover(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				log.Errorln(err)
				if config.GetIsDebug() {
					m.PrintPrettyStack(err)
				}
				util.Error(w, r, http.StatusInternalServerError, fmt.Sprint(err))
			}
		}()
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

// RequestID keeps the caller's X-Request-ID or assigns a fresh one, echoes it
// in the response and stores it where chi's GetReqID finds it.
func RequestID(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), m.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(fn)
}

// Password rejects requests whose "pass" query parameter does not match the
// configured password. Nothing is checked while no password is configured.
func Password(password func() string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			if token := password(); token != "" {
				if r.URL.Query().Get("pass") != token {
					util.Error(w, r, http.StatusForbidden, "bad password")
					return
				}
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}
