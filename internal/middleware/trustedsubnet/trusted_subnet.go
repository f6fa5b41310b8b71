// Package trustedsubnet ограничивает доступ к служебным обработчикам
// (профилировщику) по адресу клиента.
package trustedsubnet

import (
	"net"
	"net/http"

	"github.com/issafronov/shortener-front/internal/middleware/logger"
	"go.uber.org/zap"
)

// RealIPHeader заголовок с адресом клиента от локального обратного прокси
const RealIPHeader = "X-Real-IP"

// ClientIP определяет адрес клиента. X-Real-IP учитывается только если
// соединение пришло с loopback-адреса.
func ClientIP(r *http.Request) net.IP {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer := net.ParseIP(host)
	if peer == nil {
		return nil
	}
	if realIP := r.Header.Get(RealIPHeader); realIP != "" && peer.IsLoopback() {
		return net.ParseIP(realIP)
	}
	return peer
}

// Allowed сообщает, пускать ли ip. Без подсети разрешён только loopback.
func Allowed(trustedNet *net.IPNet, ip net.IP) bool {
	if ip == nil {
		return false
	}
	if trustedNet == nil {
		return ip.IsLoopback()
	}
	return trustedNet.Contains(ip)
}

// TrustedSubnetMiddleware проверяет маску подсети
func TrustedSubnetMiddleware(trustedNet *net.IPNet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ip := ClientIP(r); !Allowed(trustedNet, ip) {
				logger.Log.Warn("forbidden: client outside trusted subnet",
					zap.String("remote_addr", r.RemoteAddr),
					zap.String("uri", r.RequestURI))
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
