package middleware

import (
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/nkiryanov/usermanagement/internal/handlers/userctx"
)

const RequestIDHeader = "X-Request-ID"

type logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type logData struct {
	responseStatus int
	responseSize   int
}

type logWriter struct {
	http.ResponseWriter
	data logData
}

func (w *logWriter) Write(p []byte) (int, error) {
	size, err := w.ResponseWriter.Write(p)
	w.data.responseSize += size
	return size, err
}

func (w *logWriter) WriteHeader(statusCode int) {
	w.ResponseWriter.WriteHeader(statusCode)
	w.data.responseStatus = statusCode
}

// LoggerMiddleware logs every request and puts request metadata to the context
// Request id is taken from X-Request-ID header or generated and echoed back to the client
// 4xx responses are logged as warnings, 5xx as errors
func LoggerMiddleware(l logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			req := userctx.Request{
				ID:       r.Header.Get(RequestIDHeader),
				ClientIP: ClientIP(r),
			}
			if req.ID == "" {
				req.ID = ulid.Make().String()
			}
			w.Header().Set(RequestIDHeader, req.ID)

			lw := &logWriter{
				ResponseWriter: w,
				data:           logData{responseStatus: http.StatusOK, responseSize: 0},
			}

			next.ServeHTTP(lw, r.WithContext(userctx.WithRequest(r.Context(), req)))

			log := l.Info
			switch {
			case lw.data.responseStatus >= http.StatusInternalServerError:
				log = l.Error
			case lw.data.responseStatus >= http.StatusBadRequest:
				log = l.Warn
			}

			log(
				"got HTTP request",
				"method", r.Method,
				"uri", r.RequestURI,
				"duration", time.Since(start),
				"status", lw.data.responseStatus,
				"size", lw.data.responseSize,
				"client_ip", req.ClientIP,
				"request_id", req.ID,
			)
		})
	}
}
