package pos

import (
	"context"

	"github.com/google/uuid"
)

// Tx is the multi-document atomic transaction port. Reads execute
// immediately inside the remote store's transaction for isolation; writes
// are staged and committed together when the transaction function returns
// nil. The port enforces a strict two-phase discipline: once a write has
// been staged, every further read fails with ErrReadAfterWrite, because
// the remote store validates its optimistic read set against documents
// gathered before any write.
type Tx interface {
	GetCheck(ctx context.Context, id uuid.UUID) (*Check, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	GetIngredients(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Ingredient, error)

	CreateOrder(order *Order)
	SaveOrder(order *Order)
	SaveCheck(check *Check)
	DeleteCheck(id uuid.UUID)
	SetIngredientStock(id uuid.UUID, stock float64)
}

// TxRunner executes a function inside one atomic transaction. An error
// from fn aborts everything: no staged write becomes observable.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
