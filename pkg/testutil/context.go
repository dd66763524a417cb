package testutil

import (
	"net/http"
	"time"

	"notamcore/pkg/requestcontext"
)

// WithRequestTime pins the request-scoped clock, as the requesttime
// middleware would.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

// WithRequestID sets the request ID, as the requestid middleware would.
func WithRequestID(req *http.Request, id string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), id))
}
