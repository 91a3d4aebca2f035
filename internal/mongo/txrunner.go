package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/comandaclub/comanda/internal/pos"
)

// TxRunner executes reconciliation transactions against MongoDB using
// session transactions. Reads run immediately inside the session so the
// server validates them at commit; writes are staged by the Tx and flushed
// together after the transaction function returns nil. Aborting the
// session rolls everything back, so no partial stock decrement or status
// change is ever observable.
type TxRunner struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewTxRunner(base *BaseRepo) *TxRunner {
	return &TxRunner{
		client: base.GetClient(),
		db:     base.GetDatabase(),
	}
}

func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, tx pos.Tx) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("cannot start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		tx := newSessionTx(r.db)
		if err := fn(sc, tx); err != nil {
			return nil, err
		}
		if err := tx.flush(sc); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

// sessionTx implements pos.Tx over one mongo session. It keeps the
// two-phase discipline honest: the first staged write closes the read
// phase, and any later read fails with pos.ErrReadAfterWrite.
type sessionTx struct {
	checks      *mongo.Collection
	orders      *mongo.Collection
	ingredients *mongo.Collection
	writes      []func(ctx context.Context) error
}

func newSessionTx(db *mongo.Database) *sessionTx {
	return &sessionTx{
		checks:      db.Collection("checks"),
		orders:      db.Collection("orders"),
		ingredients: db.Collection("ingredients"),
	}
}

func (t *sessionTx) GetCheck(ctx context.Context, id uuid.UUID) (*pos.Check, error) {
	if len(t.writes) > 0 {
		return nil, pos.ErrReadAfterWrite
	}
	var c pos.Check
	err := t.checks.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get check: %w", err)
	}
	return &c, nil
}

func (t *sessionTx) GetOrder(ctx context.Context, id uuid.UUID) (*pos.Order, error) {
	if len(t.writes) > 0 {
		return nil, pos.ErrReadAfterWrite
	}
	var o pos.Order
	err := t.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get order: %w", err)
	}
	return &o, nil
}

func (t *sessionTx) GetIngredients(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*pos.Ingredient, error) {
	if len(t.writes) > 0 {
		return nil, pos.ErrReadAfterWrite
	}
	result := make(map[uuid.UUID]*pos.Ingredient, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	cursor, err := t.ingredients.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("cannot find ingredients: %w", err)
	}
	defer cursor.Close(ctx)

	var ingredients []*pos.Ingredient
	if err := cursor.All(ctx, &ingredients); err != nil {
		return nil, fmt.Errorf("cannot decode ingredients: %w", err)
	}
	for _, ing := range ingredients {
		result[ing.ID] = ing
	}
	return result, nil
}

func (t *sessionTx) CreateOrder(order *pos.Order) {
	t.writes = append(t.writes, func(ctx context.Context) error {
		if _, err := t.orders.InsertOne(ctx, order); err != nil {
			return fmt.Errorf("cannot create order: %w", err)
		}
		return nil
	})
}

func (t *sessionTx) SaveOrder(order *pos.Order) {
	t.writes = append(t.writes, func(ctx context.Context) error {
		result, err := t.orders.UpdateOne(ctx, bson.M{"_id": order.ID}, bson.M{"$set": order})
		if err != nil {
			return fmt.Errorf("cannot update order: %w", err)
		}
		if result.MatchedCount == 0 {
			return fmt.Errorf("order not found")
		}
		return nil
	})
}

func (t *sessionTx) SaveCheck(check *pos.Check) {
	t.writes = append(t.writes, func(ctx context.Context) error {
		result, err := t.checks.UpdateOne(ctx, bson.M{"_id": check.ID}, bson.M{"$set": check})
		if err != nil {
			return fmt.Errorf("cannot update check: %w", err)
		}
		if result.MatchedCount == 0 {
			return fmt.Errorf("check not found")
		}
		return nil
	})
}

func (t *sessionTx) DeleteCheck(id uuid.UUID) {
	t.writes = append(t.writes, func(ctx context.Context) error {
		if _, err := t.checks.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
			return fmt.Errorf("cannot delete check: %w", err)
		}
		return nil
	})
}

func (t *sessionTx) SetIngredientStock(id uuid.UUID, stock float64) {
	t.writes = append(t.writes, func(ctx context.Context) error {
		result, err := t.ingredients.UpdateOne(ctx,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{"stock": stock}},
		)
		if err != nil {
			return fmt.Errorf("cannot update ingredient stock: %w", err)
		}
		if result.MatchedCount == 0 {
			return fmt.Errorf("ingredient not found")
		}
		return nil
	})
}

func (t *sessionTx) flush(ctx context.Context) error {
	for _, write := range t.writes {
		if err := write(ctx); err != nil {
			return err
		}
	}
	return nil
}
