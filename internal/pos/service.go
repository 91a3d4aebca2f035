package pos

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/comandaclub/comanda/pkg/event"
	"github.com/comandaclub/comanda/pkg/enums/itemstatus"
	"github.com/comandaclub/comanda/pkg/enums/orderstatus"
	"github.com/google/uuid"
)

// Service runs the inventory reconciliation transactions: kitchen
// dispatch, item cancellation and item edit. Every stock mutation happens
// inside one atomic transaction that reads current values first, so
// concurrent dispatch/cancel/edit operations on the same ingredient never
// lose updates.
type Service struct {
	runner    TxRunner
	checks    CheckRepo
	orders    OrderRepo
	menu      MenuProvider
	settings  SettingsProvider
	publisher events.Publisher
	logger    apt.Logger
}

type ServiceDeps struct {
	Runner    TxRunner
	Checks    CheckRepo
	Orders    OrderRepo
	Menu      MenuProvider
	Settings  SettingsProvider
	Publisher events.Publisher
}

func NewService(deps ServiceDeps, logger apt.Logger) *Service {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Service{
		runner:    deps.Runner,
		checks:    deps.Checks,
		orders:    deps.Orders,
		menu:      deps.Menu,
		settings:  deps.Settings,
		publisher: deps.Publisher,
		logger:    logger,
	}
}

// DispatchResult reports the outcome of a kitchen dispatch.
type DispatchResult struct {
	OrderID    uuid.UUID  `json:"order_id"`
	MergedInto *uuid.UUID `json:"merged_into,omitempty"`
	NoNewItems bool       `json:"no_new_items,omitempty"`
	Quote      PriceQuote `json:"quote"`
}

// DispatchCheck sends a check's new items to the kitchen: inside one
// atomic transaction it validates ingredient stock against the aggregate
// consumption, creates the order, decrements stock and transitions the
// items to sent, merging into another open check on the same table when
// one exists. A check with no new items commits as a no-op.
func (s *Service) DispatchCheck(ctx context.Context, checkID uuid.UUID) (*DispatchResult, error) {
	check, err := s.checks.Get(ctx, checkID)
	if err != nil {
		return nil, err
	}
	if check == nil {
		return nil, &NotFoundError{Resource: "check", ID: checkID.String()}
	}

	recipes, err := s.menu.Recipes(ctx, check.Items)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Settings(ctx)
	if err != nil {
		return nil, err
	}

	// Consolidation lookup happens before the transaction and is
	// re-validated by a fresh read inside it.
	var candidate *Check
	if check.OrderType == OrderTypeDineIn && check.TableID != nil {
		candidate, err = s.checks.FindOpenByTable(ctx, *check.TableID, check.ID)
		if err != nil {
			return nil, err
		}
	}

	result := &DispatchResult{}
	err = s.runner.Run(ctx, func(ctx context.Context, tx Tx) error {
		fresh, err := tx.GetCheck(ctx, checkID)
		if err != nil {
			return err
		}
		if fresh == nil {
			return &NotFoundError{Resource: "check", ID: checkID.String()}
		}

		newItems := fresh.NewItems()
		if len(newItems) == 0 {
			result.NoNewItems = true
			return nil
		}

		var target *Check
		if candidate != nil {
			target, err = tx.GetCheck(ctx, candidate.ID)
			if err != nil {
				return err
			}
		}

		usage := ComputeConsumption(newItems, recipes)
		ids := sortedIngredientIDs(usage)

		stocks, err := tx.GetIngredients(ctx, ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			ing := stocks[id]
			if ing == nil {
				return &NotFoundError{Resource: "ingredient", ID: id.String()}
			}
			if ing.Stock < usage[id] {
				return &InsufficientStockError{
					Ingredient: ing.Name,
					Required:   usage[id],
					Available:  ing.Stock,
				}
			}
		}

		quote := QuoteItems(newItems, settings)

		order := NewOrder(fresh.ID, fresh.OrderType)
		order.TableID = fresh.TableID
		order.Subtotal = quote.Subtotal
		order.Discount = quote.Discount
		order.Tax = quote.Tax
		order.Total = quote.Total
		order.PrepMinutes = PrepMinutes(newItems)
		order.Items = make([]LineItem, len(newItems))
		for i, item := range newItems {
			item.Status = itemstatus.Statuses.Sent.Name
			order.Items[i] = item
		}

		tx.CreateOrder(order)
		for _, id := range ids {
			tx.SetIngredientStock(id, stocks[id].Stock-usage[id])
		}

		if target != nil {
			target.Items = append(target.Items, order.Items...)
			target.BeforeUpdate()
			tx.SaveCheck(target)
			tx.DeleteCheck(fresh.ID)
			mergedInto := target.ID
			result.MergedInto = &mergedInto
		} else {
			for i := range fresh.Items {
				if fresh.Items[i].Status == itemstatus.Statuses.New.Name {
					fresh.Items[i].Status = itemstatus.Statuses.Sent.Name
				}
			}
			fresh.BeforeUpdate()
			tx.SaveCheck(fresh)
		}

		result.OrderID = order.ID
		result.Quote = quote
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.NoNewItems {
		s.publishOrderEvent(ctx, event.OrderEvent{
			EventType: event.EventOrderDispatched,
			OrderID:   result.OrderID.String(),
			CheckID:   checkID.String(),
			Status:    orderstatus.Statuses.Pending.Name,
			Total:     result.Quote.Total,
			OrderType: check.OrderType,
		})
	}
	return result, nil
}

// CancelOrderItem marks one dispatched line cancelled and restores exactly
// the ingredient quantities it had consumed, mirroring the status change
// into the originating check when it still exists.
func (s *Service) CancelOrderItem(ctx context.Context, orderID, lineID uuid.UUID) error {
	pre, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if pre == nil {
		return &NotFoundError{Resource: "order", ID: orderID.String()}
	}
	preItem := pre.Item(lineID)
	if preItem == nil {
		return &NotFoundError{Resource: "order item", ID: lineID.String()}
	}
	recipes, err := s.menu.Recipes(ctx, []LineItem{*preItem})
	if err != nil {
		return err
	}

	err = s.runner.Run(ctx, func(ctx context.Context, tx Tx) error {
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return &NotFoundError{Resource: "order", ID: orderID.String()}
		}
		item := order.Item(lineID)
		if item == nil {
			return &NotFoundError{Resource: "order item", ID: lineID.String()}
		}
		if !itemstatus.CanTransition(item.Status, itemstatus.Statuses.Cancelled.Name) {
			return &ConflictError{Resource: "order item", Reason: "item is " + item.Status}
		}

		usage := ItemConsumption(*item, recipes[item.MenuItemID])
		ids := sortedIngredientIDs(usage)
		stocks, err := tx.GetIngredients(ctx, ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if stocks[id] == nil {
				return &NotFoundError{Resource: "ingredient", ID: id.String()}
			}
		}

		check, err := tx.GetCheck(ctx, order.SourceCheckID)
		if err != nil {
			return err
		}

		item.Status = itemstatus.Statuses.Cancelled.Name
		order.BeforeUpdate()
		tx.SaveOrder(order)
		for _, id := range ids {
			tx.SetIngredientStock(id, stocks[id].Stock+usage[id])
		}
		if check != nil {
			if line := check.Item(lineID); line != nil {
				line.Status = itemstatus.Statuses.Cancelled.Name
				check.BeforeUpdate()
				tx.SaveCheck(check)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publishOrderEvent(ctx, event.OrderEvent{
		EventType:  event.EventOrderItemCancelled,
		OrderID:    orderID.String(),
		LineItemID: lineID.String(),
	})
	return nil
}

// EditOrderItem replaces a dispatched line with a new one, applying the
// signed per-ingredient stock delta between the old and new consumption in
// one atomic step. If any resulting stock would go negative the whole edit
// aborts. The old line is marked edited and the replacement appended, on
// both the order and the originating check.
func (s *Service) EditOrderItem(ctx context.Context, orderID, lineID uuid.UUID, replacement LineItem) (uuid.UUID, error) {
	pre, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return uuid.Nil, err
	}
	if pre == nil {
		return uuid.Nil, &NotFoundError{Resource: "order", ID: orderID.String()}
	}
	preItem := pre.Item(lineID)
	if preItem == nil {
		return uuid.Nil, &NotFoundError{Resource: "order item", ID: lineID.String()}
	}
	recipes, err := s.menu.Recipes(ctx, []LineItem{*preItem, replacement})
	if err != nil {
		return uuid.Nil, err
	}

	if replacement.ID == uuid.Nil {
		replacement.ID = apt.GenerateNewID()
	}
	replacement.Status = itemstatus.Statuses.Sent.Name

	err = s.runner.Run(ctx, func(ctx context.Context, tx Tx) error {
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return &NotFoundError{Resource: "order", ID: orderID.String()}
		}
		item := order.Item(lineID)
		if item == nil {
			return &NotFoundError{Resource: "order item", ID: lineID.String()}
		}
		if !itemstatus.CanTransition(item.Status, itemstatus.Statuses.Edited.Name) {
			return &ConflictError{Resource: "order item", Reason: "item is " + item.Status}
		}

		oldUsage := ItemConsumption(*item, recipes[item.MenuItemID])
		newUsage := ItemConsumption(replacement, recipes[replacement.MenuItemID])
		delta := DiffConsumption(oldUsage, newUsage)
		ids := sortedIngredientIDs(delta)

		stocks, err := tx.GetIngredients(ctx, ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			ing := stocks[id]
			if ing == nil {
				return &NotFoundError{Resource: "ingredient", ID: id.String()}
			}
			if ing.Stock+delta[id] < 0 {
				return &InsufficientStockError{
					Ingredient: ing.Name,
					Required:   -delta[id],
					Available:  ing.Stock,
				}
			}
		}

		check, err := tx.GetCheck(ctx, order.SourceCheckID)
		if err != nil {
			return err
		}

		item.Status = itemstatus.Statuses.Edited.Name
		order.Items = append(order.Items, replacement)
		order.BeforeUpdate()
		tx.SaveOrder(order)
		for _, id := range ids {
			tx.SetIngredientStock(id, stocks[id].Stock+delta[id])
		}
		if check != nil {
			if line := check.Item(lineID); line != nil {
				line.Status = itemstatus.Statuses.Edited.Name
			}
			check.Items = append(check.Items, replacement)
			check.BeforeUpdate()
			tx.SaveCheck(check)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.publishOrderEvent(ctx, event.OrderEvent{
		EventType:  event.EventOrderItemEdited,
		OrderID:    orderID.String(),
		LineItemID: replacement.ID.String(),
	})
	return replacement.ID, nil
}

// AdvanceOrder moves an order forward through its lifecycle. Completing a
// take-away order also deletes its originating check, inside the same
// transaction.
func (s *Service) AdvanceOrder(ctx context.Context, orderID uuid.UUID, to string) error {
	err := s.runner.Run(ctx, func(ctx context.Context, tx Tx) error {
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return &NotFoundError{Resource: "order", ID: orderID.String()}
		}

		// Finalization needs the check read before any write is staged.
		var finalize *Check
		if to == orderstatus.Statuses.Completed.Name && order.OrderType == OrderTypeTakeAway {
			finalize, err = tx.GetCheck(ctx, order.SourceCheckID)
			if err != nil {
				return err
			}
		}

		if err := order.Advance(to); err != nil {
			return err
		}

		tx.SaveOrder(order)
		if finalize != nil {
			tx.DeleteCheck(finalize.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publishOrderEvent(ctx, event.OrderEvent{
		EventType: event.EventOrderStatusChanged,
		OrderID:   orderID.String(),
		Status:    to,
	})
	return nil
}

func (s *Service) publishOrderEvent(ctx context.Context, evt event.OrderEvent) {
	if s.publisher == nil {
		return
	}
	evt.OccurredAt = time.Now()
	body, err := json.Marshal(evt)
	if err != nil {
		s.logger.Errorf("cannot marshal order event: %v", err)
		return
	}
	if err := s.publisher.Publish(ctx, event.OrdersTopic, body); err != nil {
		s.logger.Errorf("cannot publish order event: %v", err)
	}
}

func sortedIngredientIDs(usage Consumption) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(usage))
	for id := range usage {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
