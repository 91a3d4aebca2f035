package pos

import (
	"errors"
	"fmt"
)

// ErrReadAfterWrite is returned by a transaction read issued after the
// first staged write. The remote store validates its optimistic read set
// before committing, so every document the write phase touches must be
// read first.
var ErrReadAfterWrite = errors.New("transaction read issued after a staged write")

// NotFoundError reports a document missing at transaction read time.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// InsufficientStockError aborts a reconciliation transaction that would
// drive an ingredient's stock negative. It names the ingredient and both
// quantities so the operator message can be specific.
type InsufficientStockError struct {
	Ingredient string
	Required   float64
	Available  float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: required %g, available %g",
		e.Ingredient, e.Required, e.Available)
}

// TransitionError reports an illegal status transition.
type TransitionError struct {
	Resource string
	From     string
	To       string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition %s from %q to %q", e.Resource, e.From, e.To)
}

// ConflictError reports an operation that is no longer applicable to the
// line it targets, e.g. cancelling an already-cancelled item.
type ConflictError struct {
	Resource string
	Reason   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Resource, e.Reason)
}
