package pprof

import (
	"errors"
	"net"
	"net/http"
	_ "net/http/pprof"

	"github.com/issafronov/shortener-front/internal/middleware/logger"
	"github.com/issafronov/shortener-front/internal/middleware/trustedsubnet"
	"go.uber.org/zap"
)

// Start запускает pprof-сервер на addr, доступный только из trusted
// (или с loopback, если trusted == nil). В Addr возвращённого сервера
// записан фактический адрес.
func Start(addr string, trusted *net.IPNet) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{Addr: ln.Addr().String(), Handler: trustedsubnet.TrustedSubnetMiddleware(trusted)(http.DefaultServeMux)}

	logger.Log.Info("starting pprof server", zap.String("addr", srv.Addr))
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("pprof server error", zap.Error(err))
		}
	}()
	return srv, nil
}
