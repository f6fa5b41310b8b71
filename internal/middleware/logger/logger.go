package logger

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/issafronov/shortener-front/internal/app/contextkeys"
	"go.uber.org/zap"
)

// RequestIDHeader заголовок с идентификатором запроса; уходит и в бэкенд
const RequestIDHeader = "X-Request-ID"

// Log — глобальный логгер, инициализируемый через функцию Initialize
var Log *zap.Logger = zap.NewNop()

type (
	// responseData содержит данные об HTTP-ответе
	responseData struct {
		status int
		size   int
	}

	// loggingResponseWriter реализует http.ResponseWriter и собирает информацию
	// об ответе: статус-код и размер тела
	loggingResponseWriter struct {
		http.ResponseWriter
		responseData *responseData
	}
)

// Write записывает тело ответа и сохраняет количество записанных байт
func (r *loggingResponseWriter) Write(b []byte) (int, error) {
	if r.responseData.status == 0 {
		r.responseData.status = http.StatusOK
	}
	size, err := r.ResponseWriter.Write(b)
	r.responseData.size += size
	return size, err
}

// WriteHeader записывает HTTP-статус и сохраняет его в responseData
func (r *loggingResponseWriter) WriteHeader(statusCode int) {
	r.ResponseWriter.WriteHeader(statusCode)
	if r.responseData.status == 0 || statusCode >= 200 {
		r.responseData.status = statusCode
	}
}

// Unwrap открывает исходный writer для http.ResponseController:
// через него прокси получает Hijack для websocket и Flush для потоковых ответов
func (r *loggingResponseWriter) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Initialize настраивает глобальный логгер Log в соответствии с уровнем логирования
func Initialize(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()

	cfg.Level = lvl
	zl, err := cfg.Build()
	if err != nil {
		return err
	}

	Log = zl
	return nil
}

// RequestID возвращает идентификатор запроса из контекста
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(contextkeys.RequestIDKey).(string)
	return id
}

// RequestLogger — middleware, логирующий HTTP-запросы и ответы.
// Запросу без X-Request-ID присваивается новый идентификатор.
func RequestLogger(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
			r.Header.Set(RequestIDHeader, requestID)
		}
		r = r.WithContext(context.WithValue(r.Context(), contextkeys.RequestIDKey, requestID))

		responseData := &responseData{}
		lw := loggingResponseWriter{
			ResponseWriter: w,
			responseData:   responseData,
		}
		next.ServeHTTP(&lw, r)

		Log.Debug("got incoming HTTP request",
			zap.String("request_id", requestID),
			zap.String("uri", r.RequestURI),
			zap.String("method", r.Method),
			zap.Int("status", responseData.status),
			zap.Duration("duration", time.Since(start)),
			zap.Int("size", responseData.size),
		)
	}
	return http.HandlerFunc(fn)
}
