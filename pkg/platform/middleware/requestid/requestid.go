// Package requestid assigns every request an ID for log correlation.
package requestid

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"notamcore/pkg/requestcontext"
)

// Header is echoed back on the response and honoured on the request.
const Header = "X-Request-ID"

const maxInboundLen = 128

// Middleware reuses a caller-supplied X-Request-ID when it is short and
// printable, otherwise generates a UUID.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(Header))
		if id == "" || len(id) > maxInboundLen || strings.ContainsAny(id, "\r\n") {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
