package pos

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Operation names carried by queued transaction mutations. A transaction
// issued while the device is offline is captured as one of these and
// replayed through the same service methods once connectivity returns, so
// queued dispatches get full reconciliation semantics at drain time.
const (
	TxOpDispatchCheck   = "check.dispatch"
	TxOpCancelOrderItem = "order.item.cancel"
	TxOpEditOrderItem   = "order.item.edit"
	TxOpAdvanceOrder    = "order.advance"
)

// QueuedTransaction is the payload of a kind=transaction pending mutation.
type QueuedTransaction struct {
	Op      string    `json:"op"`
	CheckID string    `json:"check_id,omitempty"`
	OrderID string    `json:"order_id,omitempty"`
	LineID  string    `json:"line_id,omitempty"`
	Status  string    `json:"status,omitempty"`
	Item    *LineItem `json:"item,omitempty"`
}

// ApplyTransaction satisfies the offline syncer's transaction port. The
// target path identifies the document the operation is about; the payload
// names the operation and its arguments.
func (s *Service) ApplyTransaction(ctx context.Context, targetPath string, payload []byte) error {
	var qt QueuedTransaction
	if err := json.Unmarshal(payload, &qt); err != nil {
		return fmt.Errorf("cannot decode queued transaction for %s: %w", targetPath, err)
	}

	switch qt.Op {
	case TxOpDispatchCheck:
		checkID, err := uuid.Parse(qt.CheckID)
		if err != nil {
			return fmt.Errorf("invalid check id in queued transaction: %w", err)
		}
		_, err = s.DispatchCheck(ctx, checkID)
		return err

	case TxOpCancelOrderItem:
		orderID, lineID, err := parseOrderLine(qt)
		if err != nil {
			return err
		}
		return s.CancelOrderItem(ctx, orderID, lineID)

	case TxOpEditOrderItem:
		orderID, lineID, err := parseOrderLine(qt)
		if err != nil {
			return err
		}
		if qt.Item == nil {
			return fmt.Errorf("queued edit for %s carries no replacement item", targetPath)
		}
		_, err = s.EditOrderItem(ctx, orderID, lineID, *qt.Item)
		return err

	case TxOpAdvanceOrder:
		orderID, err := uuid.Parse(qt.OrderID)
		if err != nil {
			return fmt.Errorf("invalid order id in queued transaction: %w", err)
		}
		return s.AdvanceOrder(ctx, orderID, qt.Status)

	default:
		return fmt.Errorf("unknown queued transaction op %q", qt.Op)
	}
}

func parseOrderLine(qt QueuedTransaction) (uuid.UUID, uuid.UUID, error) {
	orderID, err := uuid.Parse(qt.OrderID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid order id in queued transaction: %w", err)
	}
	lineID, err := uuid.Parse(qt.LineID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid line id in queued transaction: %w", err)
	}
	return orderID, lineID, nil
}
