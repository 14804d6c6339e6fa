package http

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"workcal/internal/core"
)

// trustedProxies may set forwarding headers.
var trustedProxies = []*net.IPNet{
	mustCIDR("127.0.0.0/8"),
	mustCIDR("::1/128"),
	mustCIDR("10.0.0.0/8"),
	mustCIDR("172.16.0.0/12"),
	mustCIDR("192.168.0.0/16"),
}

func mustCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("failed to parse trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

func isTrustedProxy(ip net.IP) bool {
	for _, network := range trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// extractClientIP returns the peer address, or the forwarded client address
// when the peer is a trusted proxy.
func extractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsed := net.ParseIP(directIP)
	if parsed == nil || !isTrustedProxy(parsed) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" && net.ParseIP(xri) != nil {
		return xri
	}
	return directIP
}

// sanitizeInput removes control characters except tab and newlines and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

var fieldMessages = map[error]string{
	core.ErrEmptyClientName: "Enter the client's name",
	core.ErrEmptyPhone:      "Enter a phone number",
	core.ErrInvalidPhone:    "Phone must be 10 to 15 digits, optionally starting with +",
	core.ErrEmptyProcedure:  "Enter the procedure",
	core.ErrInvalidDuration: "Duration must be a whole number of minutes above zero",
	core.ErrInvalidTime:     "Time must be HH:MM, 24-hour",
	core.ErrInvalidAmount:   "Cost must be a positive amount, e.g. 1500 or 1500,50",
	core.ErrInvalidDate:     "Pick a date",
}

// fieldErrorMessages turns validation failures into per-field user messages keyed
// by the JSON field name.
func fieldErrorMessages(fe core.FieldErrors) map[string]string {
	out := make(map[string]string, len(fe))
	for field, err := range fe {
		msg := err.Error()
		for sentinel, text := range fieldMessages {
			if errors.Is(err, sentinel) {
				msg = text
				break
			}
		}
		out[string(field)] = msg
	}
	return out
}
