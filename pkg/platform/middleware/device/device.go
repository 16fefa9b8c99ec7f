// Package device derives a human-readable device label from the User-Agent
// so admin audit lines can say which browser a sign-in came from.
package device

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"storefront/pkg/requestcontext"
)

// Label extracts a display name from a User-Agent string.
// Returns format: "Browser on OS" (e.g., "Chrome on macOS", "Safari on iPhone").
func Label(userAgentString string) string {
	if userAgentString == "" {
		return "Unknown Device"
	}

	ua := useragent.New(userAgentString)

	browser, _ := ua.Browser()
	os := ua.OS()

	if ua.Mobile() {
		platform := ua.Platform()
		if platform != "" {
			return strings.TrimSpace(browser + " on " + platform)
		}
	}

	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}

	return strings.TrimSpace(browser + " on " + os)
}

// Device stores the device label in the request context. It must run after
// the metadata middleware, which extracts the User-Agent.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if userAgent := requestcontext.UserAgent(ctx); userAgent != "" {
			ctx = requestcontext.WithDeviceLabel(ctx, Label(userAgent))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
