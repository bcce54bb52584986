package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// ClientKey identifies the caller. Behind a trusted proxy it is the right-most
// X-Forwarded-For hop (the address the proxy appended) or X-Real-IP; otherwise
// the connection address. Left-most hops are client supplied and never used.
func ClientKey(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if ip := lastHop(r.Header.Values("X-Forwarded-For")); ip != "" {
			return ip
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// lastHop returns the last non-empty entry across repeated X-Forwarded-For headers.
func lastHop(values []string) string {
	for i := len(values) - 1; i >= 0; i-- {
		hops := strings.Split(values[i], ",")
		for j := len(hops) - 1; j >= 0; j-- {
			if ip := strings.TrimSpace(hops[j]); ip != "" {
				return ip
			}
		}
	}
	return ""
}
