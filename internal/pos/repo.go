package pos

import (
	"context"

	"github.com/google/uuid"
)

type CheckRepo interface {
	Create(ctx context.Context, check *Check) error
	Get(ctx context.Context, id uuid.UUID) (*Check, error)
	List(ctx context.Context) ([]*Check, error)
	// FindOpenByTable returns another open check on the same table,
	// excluding the given check, or nil. Used for the dine-in
	// consolidation pre-lookup before a dispatch transaction.
	FindOpenByTable(ctx context.Context, tableID uuid.UUID, exclude uuid.UUID) (*Check, error)
	Save(ctx context.Context, check *Check) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type OrderRepo interface {
	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context) ([]*Order, error)
	ListByStatus(ctx context.Context, status string) ([]*Order, error)
}

type IngredientRepo interface {
	Get(ctx context.Context, id uuid.UUID) (*Ingredient, error)
	List(ctx context.Context) ([]*Ingredient, error)
}

// MenuProvider resolves the consumption recipes for a set of menu items,
// including the links of every extra referenced by the given items.
type MenuProvider interface {
	Recipes(ctx context.Context, items []LineItem) (map[uuid.UUID]Recipe, error)
}

// SettingsProvider supplies the pricing configuration.
type SettingsProvider interface {
	Settings(ctx context.Context) (*Settings, error)
}
