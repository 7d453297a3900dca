package middleware

import (
	"bountyBuddy/internal/logger"
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const RequestIdKey contextKey = "request_id"

func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestId := r.Header.Get("X-Request-ID")
		if requestId == "" {
			requestId = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestId)
		trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("http.request_id", requestId))

		ctx := context.WithValue(r.Context(), RequestIdKey, requestId)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIdKey).(string); ok {
		return id
	}
	return ""
}

// statusRecorder запоминает код ответа и объём тела для итоговой записи в лог
type statusRecorder struct {
	http.ResponseWriter
	status      int
	size        int
	wroteHeader bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.wroteHeader {
		return
	}
	sr.status = code
	sr.wroteHeader = true
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.wroteHeader {
		sr.WriteHeader(http.StatusOK)
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.size += n
	return n, err
}

// requestLog заполняется нижними middleware, пока запрос идёт по цепочке
type requestLog struct {
	userId int64
}

const requestLogKey contextKey = "request_log"

func noteUserID(ctx context.Context, userId int64) {
	if rl, ok := ctx.Value(requestLogKey).(*requestLog); ok {
		rl.userId = userId
	}
}

func levelFor(status int) zapcore.Level {
	switch {
	case status >= 500:
		return zap.ErrorLevel
	case status >= 400:
		return zap.WarnLevel
	default:
		return zap.InfoLevel
	}
}

// Logging пишет начало и конец запроса. В итоговой записи есть шаблон маршрута
// chi и id пользователя, если Identity его распознал
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestId := GetRequestID(r.Context())

		logger.HttpRequestInfo(r, "HTTP_IN: Начало запроса", zap.String("request_id", requestId))

		rl := &requestLog{}
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sr, r.WithContext(context.WithValue(r.Context(), requestLogKey, rl)))

		fields := []zap.Field{
			zap.String("request_id", requestId),
			zap.Int("status", sr.status),
			zap.Int("bytes_written", sr.size),
			zap.Duration("ms", time.Since(start)),
		}
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			fields = append(fields, zap.String("route", rctx.RoutePattern()))
		}
		if rl.userId > 0 {
			fields = append(fields, zap.Int64("user_id", rl.userId))
			trace.SpanFromContext(r.Context()).SetAttributes(attribute.Int64("enduser.id", rl.userId))
		}

		logger.Log(levelFor(sr.status), "HTTP_OUT: Завершение запроса", fields...)
	})
}
