package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and publishers return
// these (optionally wrapped) so the refresh service can translate them
// into domain errors.
//
// - ErrNotFound: the requested record does not exist
// - ErrInvalidState: stored data could not be decoded into a known value
// - ErrUnavailable: backend (Redis, Postgres, Kafka) temporarily unreachable
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
