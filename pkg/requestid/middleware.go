package requestid

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

const (
	// Header carries the id on HTTP requests and on Kafka intake messages.
	Header      = "X-Request-ID"
	maxIDLength = 128
)

var validIDRegex = regexp.MustCompile("^[a-zA-Z0-9_-]+$")

// Resolve returns candidate when it is a safe identifier, otherwise a fresh UUID.
func Resolve(candidate string) string {
	if IsValid(candidate) {
		return candidate
	}
	return uuid.NewString()
}

// IsValid reports whether id is safe to propagate.
func IsValid(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	return validIDRegex.MatchString(id)
}

// Middleware resolves the request id from the incoming header, stores it in
// the request context and echoes it in the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := Resolve(r.Header.Get(Header))
		w.Header().Set(Header, requestID)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), requestID)))
	})
}
