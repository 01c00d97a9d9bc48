package services

import "errors"

var (
	ErrCollectionFailed    = errors.New("fee collection failed")
	ErrIdempotencyConflict = errors.New("idempotency key already used for a different collection")
	ErrForbidden           = errors.New("forbidden")
	ErrResultsUnpublished  = errors.New("results are not published")
)

// Actor is the signed-in account performing an operation.
type Actor struct {
	AccountID string
	Email     string
	Phone     string
	Role      string
	IP        string
}

func (a Actor) isParent() bool {
	return a.Role == "parent"
}
