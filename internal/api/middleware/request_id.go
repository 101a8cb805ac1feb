package middleware

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/formbricks/gallery/internal/observability"
)

const requestIDHeader = "X-Request-ID"

// validRequestID bounds client-supplied ids to something safe to echo and log.
var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// RequestID runs first in the chain: every request gets an X-Request-ID in its context and
// response header. A well-formed client id is propagated; otherwise a UUIDv7 is generated.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if !validRequestID.MatchString(id) {
			id = uuid.Must(uuid.NewV7()).String()
		}

		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(observability.ContextWithRequestID(r.Context(), id)))
	})
}
