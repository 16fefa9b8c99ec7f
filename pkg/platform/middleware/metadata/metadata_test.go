package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/pkg/requestcontext"
)

func TestMiddlewareHandler(t *testing.T) {
	tests := []struct {
		name           string
		headers        map[string]string
		remoteAddr     string
		trustedProxies []string
		expectedIP     string
		expectedUA     string
	}{
		{
			name: "ignores XFF when no proxy is trusted",
			headers: map[string]string{
				"X-Forwarded-For": "203.0.113.1",
				"User-Agent":      "Mozilla/5.0",
			},
			remoteAddr: "192.168.1.1:12345",
			expectedIP: "192.168.1.1",
			expectedUA: "Mozilla/5.0",
		},
		{
			name: "trusts first XFF hop from trusted proxy",
			headers: map[string]string{
				"X-Forwarded-For": "203.0.113.1, 10.0.0.2",
				"User-Agent":      "curl/8.5.0",
			},
			remoteAddr:     "10.0.0.1:12345",
			trustedProxies: []string{"10.0.0.0/8"},
			expectedIP:     "203.0.113.1",
			expectedUA:     "curl/8.5.0",
		},
		{
			name:           "uses X-Real-IP from trusted proxy",
			headers:        map[string]string{"X-Real-IP": "198.51.100.7"},
			remoteAddr:     "10.0.0.1:443",
			trustedProxies: []string{"10.0.0.0/8"},
			expectedIP:     "198.51.100.7",
		},
		{
			name:           "rejects oversized XFF",
			headers:        map[string]string{"X-Forwarded-For": strings.Repeat("1", MaxXFFHeaderLength+1)},
			remoteAddr:     "10.0.0.1:443",
			trustedProxies: []string{"10.0.0.0/8"},
			expectedIP:     "10.0.0.1",
		},
		{
			name:           "rejects garbage XFF",
			headers:        map[string]string{"X-Forwarded-For": "not-an-ip"},
			remoteAddr:     "10.0.0.1:443",
			trustedProxies: []string{"10.0.0.0/8"},
			expectedIP:     "10.0.0.1",
		},
		{
			name:       "strips IPv6 brackets",
			remoteAddr: "[2001:db8::1]:8080",
			expectedIP: "2001:db8::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var capturedCtx context.Context
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				capturedCtx = r.Context()
			})

			prefixes, err := ParseTrustedProxies(tt.trustedProxies)
			require.NoError(t, err)
			handler := NewMiddleware(&Config{TrustedProxies: prefixes}).Handler(next)

			req := httptest.NewRequest(http.MethodGet, "/products", nil)
			req.RemoteAddr = tt.remoteAddr
			for key, value := range tt.headers {
				req.Header.Set(key, value)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.expectedIP, requestcontext.ClientIP(capturedCtx), "IP address mismatch")
			assert.Equal(t, tt.expectedUA, requestcontext.UserAgent(capturedCtx), "User-Agent mismatch")
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	prefixes, err := ParseTrustedProxies([]string{" 10.0.0.0/8 ", "", "192.168.0.0/16"})
	require.NoError(t, err)
	assert.Len(t, prefixes, 2)

	_, err = ParseTrustedProxies([]string{"10.0.0.0"})
	assert.Error(t, err)
}
