package relay

import (
	"net"
	"net/http"
	"net/url"

	"codeberg.org/afewwords/companion/internal/logger"
)

// accepts non-browser clients (no Origin), the website origin and loopback pages.
// any other page in the browser could otherwise post tokens as the website.
func CheckOrigin(websiteOrigin string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}

		if websiteOrigin != "" && origin == websiteOrigin {
			return true
		}

		if isLoopbackOrigin(origin) {
			return true
		}

		logger.Warn("websocket origin rejected",
			"origin", origin,
			"website_origin", websiteOrigin,
		)

		return false
	}
}

func isLoopbackOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := u.Hostname()
	if host == "localhost" {
		return true
	}

	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
