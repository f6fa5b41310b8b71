// Package proxy пересылает все входящие запросы процессу бэкенда.
package proxy

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/issafronov/shortener-front/internal/app/backend"
	"github.com/issafronov/shortener-front/internal/app/contextkeys"
	"github.com/issafronov/shortener-front/internal/middleware/logger"
	"go.uber.org/zap"
)

const (
	// ForwardedHeader помечает запросы, прошедшие через прокси
	ForwardedHeader = "X-Shortener-Forwarded"

	// MsgStartFailed тело ответа, если бэкенд не удалось запустить
	MsgStartFailed = "Internal Server Error - Could not start backend"
	// MsgProxyFailed тело ответа, если бэкенд не отвечает
	MsgProxyFailed = "Proxy Error - backend server may not be responding"
)

// Ensurer запускает бэкенд, если он ещё не запущен
type Ensurer interface {
	Ensure(ctx context.Context) (backend.Handle, error)
}

// Gate middleware, который перед пересылкой убеждается, что бэкенд запущен
func Gate(e Ensurer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h, err := e.Ensure(r.Context())
			if err != nil {
				logger.Log.Error("backend is not available",
					zap.String("request_id", logger.RequestID(r.Context())),
					zap.String("uri", r.RequestURI),
					zap.Error(err))
				http.Error(w, MsgStartFailed, http.StatusInternalServerError)
				return
			}
			ctx := context.WithValue(r.Context(), contextkeys.BackendKey, h)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// HandleFromContext возвращает дескриптор бэкенда, сохранённый Gate
func HandleFromContext(ctx context.Context) (backend.Handle, bool) {
	h, ok := ctx.Value(contextkeys.BackendKey).(backend.Handle)
	return h, ok
}

// ParseTarget приводит адрес бэкенда к URL: ":5000" и "localhost:5000"
// превращаются в http://127.0.0.1:5000 и http://localhost:5000
func ParseTarget(addr string) (*url.URL, error) {
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}
	target, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid backend address %q: %w", addr, err)
	}
	if target.Host == "" {
		return nil, fmt.Errorf("invalid backend address %q: missing host", addr)
	}
	return target, nil
}

// NewForwarder создаёт обработчик, пересылающий любой путь и метод на target.
// Заголовок Host заменяется на адрес бэкенда, websocket-запросы тоже
// пересылаются. Повторных попыток при ошибке нет.
func NewForwarder(target *url.URL, transport http.RoundTripper) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.Out.Header.Set(ForwardedHeader, "true")
		},
		Transport: transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			fields := []zap.Field{
				zap.String("request_id", logger.RequestID(r.Context())),
				zap.String("method", r.Method),
				zap.String("uri", r.RequestURI),
				zap.Error(err),
			}
			if h, ok := HandleFromContext(r.Context()); ok {
				fields = append(fields, zap.Int("backend_pid", h.Pid))
			}
			logger.Log.Error("proxy error", fields...)
			http.Error(w, MsgProxyFailed, http.StatusInternalServerError)
		},
	}
}
