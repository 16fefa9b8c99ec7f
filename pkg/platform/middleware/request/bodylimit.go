package request

import (
	"net/http"
)

// BodyLimit caps request bodies at maxBytes. Requests that declare a larger
// Content-Length are rejected with 413 before the handler runs; bodies that
// exceed the limit while streaming fail on read (http.MaxBytesReader).
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeJSONError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body exceeds the size limit")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
