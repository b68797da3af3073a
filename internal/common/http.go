package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller address without its port. It expects chi's RealIP
// middleware to have already applied X-Forwarded-For / X-Real-IP.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.Trim(addr, "[]")
}
