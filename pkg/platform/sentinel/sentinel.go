package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: record does not exist in the store
//   - ErrConflict: the transaction lost a race (serialization failure, deadlock)
//     and may succeed if the whole unit of work is retried
//   - ErrInvalidState: a record is in a state the operation cannot accept
//   - ErrUnavailable: the store could not be reached or timed out
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
