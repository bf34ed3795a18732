package middleware

import (
	"net"
	"net/http"

	"pesa-smart-plan/pkg/utils"
)

// ClientInfo records the caller's user agent and address for session rows.
// Run it after chi's RealIP so RemoteAddr is already the client's.
func ClientInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := utils.SetClientInfo(r.Context(), utils.ClientInfo{
			UserAgent: r.UserAgent(),
			IPAddress: clientIP(r),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
