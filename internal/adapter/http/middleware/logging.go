package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RequestLogger puts a logger tagged with the chi request ID into the request
// context and writes one access line per request. 5xx responses log at error.
func RequestLogger(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			began := time.Now()
			reqLog := base.With().Str("request_id", chimiddleware.GetReqID(r.Context())).Logger()
			r = r.WithContext(reqLog.WithContext(r.Context()))

			rw := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(rw, r)

			code := rw.Status()
			if code == 0 {
				code = http.StatusOK
			}
			level := zerolog.InfoLevel
			if code >= http.StatusInternalServerError {
				level = zerolog.ErrorLevel
			}
			reqLog.WithLevel(level).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", code).
				Int("bytes", rw.BytesWritten()).
				Dur("took", time.Since(began)).
				Str("remote", r.RemoteAddr).
				Msg("http request")
		})
	}
}
