package pos

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestApplyTransaction(t *testing.T) {
	ctx := context.Background()
	pizza := uuid.New()

	newFixture := func() (*serviceFixture, uuid.UUID) {
		f := newServiceFixture(nil, &Settings{})
		flour := f.addIngredient("flour", 10)
		f.service.menu = NewMockMenuProvider(map[uuid.UUID]Recipe{
			pizza: {Base: []IngredientLink{{IngredientID: flour, Quantity: 2}}},
		})
		return f, flour
	}

	marshal := func(t *testing.T, qt QueuedTransaction) []byte {
		t.Helper()
		payload, err := json.Marshal(qt)
		if err != nil {
			t.Fatalf("cannot marshal transaction: %v", err)
		}
		return payload
	}

	t.Run("dispatchReplaysWithFullSemantics", func(t *testing.T) {
		f, flour := newFixture()
		check := NewCheck(OrderTypeTakeAway)
		check.Items = []LineItem{{ID: uuid.New(), MenuItemID: pizza, UnitPrice: 5, Quantity: 2, Status: "new"}}
		f.store.checks[check.ID] = check

		payload := marshal(t, QueuedTransaction{Op: TxOpDispatchCheck, CheckID: check.ID.String()})
		if err := f.service.ApplyTransaction(ctx, "checks/"+check.ID.String(), payload); err != nil {
			t.Fatalf("ApplyTransaction() error = %v", err)
		}
		if len(f.store.orders) != 1 {
			t.Error("dispatch replay did not create an order")
		}
		if got := f.store.ingredients[flour].Stock; !almostEqual(got, 6) {
			t.Errorf("flour stock = %g, want 6", got)
		}
	})

	t.Run("cancelReplays", func(t *testing.T) {
		f, flour := newFixture()
		order, lineID := newSentOrder(f, pizza, 1)

		payload := marshal(t, QueuedTransaction{
			Op:      TxOpCancelOrderItem,
			OrderID: order.ID.String(),
			LineID:  lineID.String(),
		})
		if err := f.service.ApplyTransaction(ctx, "orders/"+order.ID.String(), payload); err != nil {
			t.Fatalf("ApplyTransaction() error = %v", err)
		}
		if got := f.store.orders[order.ID].Items[0].Status; got != "cancelled" {
			t.Errorf("order item status = %q, want cancelled", got)
		}
		if got := f.store.ingredients[flour].Stock; !almostEqual(got, 12) {
			t.Errorf("flour stock = %g, want 12", got)
		}
	})

	t.Run("editReplays", func(t *testing.T) {
		f, _ := newFixture()
		order, lineID := newSentOrder(f, pizza, 2)

		payload := marshal(t, QueuedTransaction{
			Op:      TxOpEditOrderItem,
			OrderID: order.ID.String(),
			LineID:  lineID.String(),
			Item:    &LineItem{MenuItemID: pizza, Quantity: 1},
		})
		if err := f.service.ApplyTransaction(ctx, "orders/"+order.ID.String(), payload); err != nil {
			t.Fatalf("ApplyTransaction() error = %v", err)
		}
		saved := f.store.orders[order.ID]
		if len(saved.Items) != 2 {
			t.Fatalf("order has %d items, want 2", len(saved.Items))
		}
		if saved.Items[0].Status != "edited" {
			t.Error("old line was not marked edited")
		}
	})

	t.Run("advanceReplays", func(t *testing.T) {
		f, _ := newFixture()
		order := NewOrder(uuid.New(), OrderTypeDineIn)
		f.store.orders[order.ID] = order

		payload := marshal(t, QueuedTransaction{
			Op:      TxOpAdvanceOrder,
			OrderID: order.ID.String(),
			Status:  "preparing",
		})
		if err := f.service.ApplyTransaction(ctx, "orders/"+order.ID.String(), payload); err != nil {
			t.Fatalf("ApplyTransaction() error = %v", err)
		}
		if got := f.store.orders[order.ID].Status; got != "preparing" {
			t.Errorf("order status = %q, want preparing", got)
		}
	})

	t.Run("editWithoutReplacementFails", func(t *testing.T) {
		f, _ := newFixture()
		payload := marshal(t, QueuedTransaction{
			Op:      TxOpEditOrderItem,
			OrderID: uuid.New().String(),
			LineID:  uuid.New().String(),
		})
		if err := f.service.ApplyTransaction(ctx, "orders/x", payload); err == nil {
			t.Error("ApplyTransaction() accepted an edit without a replacement item")
		}
	})

	t.Run("unknownOpFails", func(t *testing.T) {
		f, _ := newFixture()
		payload := marshal(t, QueuedTransaction{Op: "order.explode"})
		if err := f.service.ApplyTransaction(ctx, "orders/x", payload); err == nil {
			t.Error("ApplyTransaction() accepted an unknown op")
		}
	})

	t.Run("invalidIDFails", func(t *testing.T) {
		f, _ := newFixture()
		payload := marshal(t, QueuedTransaction{Op: TxOpDispatchCheck, CheckID: "not-a-uuid"})
		if err := f.service.ApplyTransaction(ctx, "checks/not-a-uuid", payload); err == nil {
			t.Error("ApplyTransaction() accepted an invalid check id")
		}
	})

	t.Run("malformedPayloadFails", func(t *testing.T) {
		f, _ := newFixture()
		if err := f.service.ApplyTransaction(ctx, "checks/x", []byte("{")); err == nil {
			t.Error("ApplyTransaction() accepted malformed JSON")
		}
	})
}
