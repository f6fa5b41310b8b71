package testutils

import (
	"context"
	"net/http"

	"github.com/issafronov/shortener-front/internal/app/backend"
	"github.com/issafronov/shortener-front/internal/app/contextkeys"
)

// WithTestBackendContext кладёт в контекст запроса дескриптор бэкенда,
// как это делает proxy.Gate.
func WithTestBackendContext(r *http.Request, pid int) *http.Request {
	ctx := context.WithValue(r.Context(), contextkeys.BackendKey, backend.Handle{Pid: pid})
	return r.WithContext(ctx)
}
