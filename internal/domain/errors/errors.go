package errors

import "errors"

var (
	// ErrNotFound signals the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoActiveProduct signals the catalog holds no sellable product.
	ErrNoActiveProduct = errors.New("no active product")
	// ErrInvalidProduct signals a malformed or rejected product payload.
	ErrInvalidProduct = errors.New("invalid product")
	// ErrDuplicatePurchase signals an active purchase already exists for the
	// (user, product) pair.
	ErrDuplicatePurchase = errors.New("purchase already active")
	// ErrCorrelationTaken is the storage-level race signal: another row
	// already holds this correlation id. Recovered internally by merging.
	ErrCorrelationTaken = errors.New("correlation id already recorded")
	// ErrActiveExists is the storage-level race signal on the partial
	// (user, product) uniqueness constraint. Recovered internally.
	ErrActiveExists = errors.New("active purchase already exists")
	// ErrInvalidTransition signals a status change outside the state machine.
	ErrInvalidTransition = errors.New("invalid status transition")
)
