package event

import "time"

const (
	OrdersTopic = "pos.orders"
	SyncTopic   = "pos.sync"

	EventOrderDispatched    = "order.dispatched"
	EventOrderItemCancelled = "order.item.cancelled"
	EventOrderItemEdited    = "order.item.edited"
	EventOrderStatusChanged = "order.status.changed"

	EventConnectivityOnline = "connectivity.online"
	EventSyncDrainCompleted = "sync.drain.completed"
)

// OrderEvent is published to NATS whenever an order is created or changes
// state. Consumed by the kitchen display and reporting services.
type OrderEvent struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	OrderID    string    `json:"order_id"`
	CheckID    string    `json:"check_id,omitempty"`
	LineItemID string    `json:"line_item_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	Total      float64   `json:"total,omitempty"`

	// Denormalized data for display purposes
	TableID   string `json:"table_id,omitempty"`
	OrderType string `json:"order_type,omitempty"`
}

// SyncEvent reports connectivity transitions and drain outcomes so the
// surrounding application can prompt the operator and show progress.
type SyncEvent struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Pending    int       `json:"pending,omitempty"`
	Completed  int       `json:"completed,omitempty"`
	Total      int       `json:"total,omitempty"`
	FailedPath string    `json:"failed_path,omitempty"`
}
