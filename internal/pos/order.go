package pos

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/comandaclub/comanda/pkg/enums/orderstatus"
	"github.com/google/uuid"
)

// Order is an immutable-once-created record of dispatched kitchen work.
// Its item snapshot only changes through the cancel/edit transactions,
// which never regress the order's own status.
type Order struct {
	ID        uuid.UUID  `json:"id" bson:"_id"`
	Items     []LineItem `json:"items" bson:"items"`
	Status    string     `json:"status" bson:"status"`
	OrderType string     `json:"order_type" bson:"order_type"`
	TableID   *uuid.UUID `json:"table_id,omitempty" bson:"table_id,omitempty"`

	Subtotal float64 `json:"subtotal" bson:"subtotal"`
	Discount float64 `json:"discount" bson:"discount"`
	Tax      float64 `json:"tax" bson:"tax"`
	Total    float64 `json:"total" bson:"total"`

	PrepMinutes int `json:"prep_minutes" bson:"prep_minutes"`

	// SourceCheckID is a back-reference to the check the order was
	// dispatched from, not an ownership relation: the check may be merged
	// or deleted while the order lives on.
	SourceCheckID uuid.UUID `json:"source_check_id" bson:"source_check_id"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (o *Order) GetID() uuid.UUID {
	return o.ID
}

func (o *Order) ResourceType() string {
	return "order"
}

func NewOrder(sourceCheckID uuid.UUID, orderType string) *Order {
	order := &Order{
		Status:        orderstatus.Statuses.Pending.Name,
		OrderType:     orderType,
		SourceCheckID: sourceCheckID,
	}
	order.BeforeCreate()
	return order
}

func (o *Order) EnsureID() {
	if o.ID == uuid.Nil {
		o.ID = apt.GenerateNewID()
	}
}

func (o *Order) BeforeCreate() {
	o.EnsureID()
	o.CreatedAt = time.Now()
	o.UpdatedAt = time.Now()
}

func (o *Order) BeforeUpdate() {
	o.UpdatedAt = time.Now()
}

// Item returns a pointer into the order's item snapshot, or nil.
func (o *Order) Item(lineID uuid.UUID) *LineItem {
	for i := range o.Items {
		if o.Items[i].ID == lineID {
			return &o.Items[i]
		}
	}
	return nil
}

// Advance moves the order to the next status. Transitions are
// one-directional; archived is terminal.
func (o *Order) Advance(to string) error {
	if !orderstatus.CanAdvance(o.Status, to) {
		return &TransitionError{Resource: "order", From: o.Status, To: to}
	}
	o.Status = to
	o.BeforeUpdate()
	return nil
}
