package security

import (
	"net/http"
	"strconv"
)

// Headers attaches browser security headers to every response.
type Headers struct {
	Enable                bool
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
}

func (h Headers) Middleware(next http.Handler) http.Handler {
	if !h.Enable {
		return next
	}
	hsts := h.hstsValue()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := w.Header()
		out.Set("X-Content-Type-Options", "nosniff")
		out.Set("X-Frame-Options", "DENY")
		out.Set("Referrer-Policy", "no-referrer")
		out.Set("Permissions-Policy", "geolocation=(), microphone=()")
		// HSTS only makes sense on a TLS connection.
		if hsts != "" && r.TLS != nil {
			out.Set("Strict-Transport-Security", hsts)
		}
		next.ServeHTTP(w, r)
	})
}

func (h Headers) hstsValue() string {
	if !h.EnableHSTS {
		return ""
	}
	maxAge := h.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = 31536000
	}
	value := "max-age=" + strconv.Itoa(maxAge)
	if h.HSTSIncludeSubdomains {
		value += "; includeSubDomains"
	}
	return value
}
