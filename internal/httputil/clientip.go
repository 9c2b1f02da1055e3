package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller address: the first X-Forwarded-For entry, then
// X-Real-IP, then the connection's remote address without its port. An
// IPv4-mapped IPv6 prefix ("::ffff:") is removed.
func ClientIP(r *http.Request) string {
	ip := ""
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip = strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if ip == "" {
		ip = strings.TrimSpace(r.Header.Get("X-Real-IP"))
	}
	if ip == "" {
		return RemoteIP(r)
	}
	return strings.TrimPrefix(ip, "::ffff:")
}

// RemoteIP returns the connection's peer address without its port, ignoring
// any forwarding headers.
func RemoteIP(r *http.Request) string {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return strings.TrimPrefix(ip, "::ffff:")
}
