package pos

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/comandaclub/comanda/pkg/enums/itemstatus"
	"github.com/google/uuid"
)

const (
	OrderTypeDineIn   = "dine-in"
	OrderTypeTakeAway = "take-away"
	OrderTypeDelivery = "delivery"
)

// ExtraRef records an extra added to a line item, denormalized for display
// and pricing.
type ExtraRef struct {
	ExtraID uuid.UUID `json:"extra_id" bson:"extra_id"`
	Name    string    `json:"name" bson:"name"`
	Price   float64   `json:"price" bson:"price"`
}

// LineItem is a single ordered position on a Check. Once dispatched its
// snapshot also lives on the Order; the two copies are kept in step by the
// cancel/edit transactions.
type LineItem struct {
	ID         uuid.UUID   `json:"id" bson:"id"`
	MenuItemID uuid.UUID   `json:"menu_item_id" bson:"menu_item_id"`
	Name       string      `json:"name" bson:"name"`
	UnitPrice  float64     `json:"unit_price" bson:"unit_price"`
	Quantity   int         `json:"quantity" bson:"quantity"`
	Status     string      `json:"status" bson:"status"`
	Added      []ExtraRef  `json:"added,omitempty" bson:"added,omitempty"`
	Removed    []uuid.UUID `json:"removed,omitempty" bson:"removed,omitempty"`
	Notes      string      `json:"notes,omitempty" bson:"notes,omitempty"`

	// PrepMinutes overrides the menu item's preparation time when set.
	PrepMinutes int `json:"prep_minutes,omitempty" bson:"prep_minutes,omitempty"`
}

// HasRemoved reports whether the given ingredient was explicitly removed
// from this line by the customer.
func (li *LineItem) HasRemoved(ingredientID uuid.UUID) bool {
	for _, id := range li.Removed {
		if id == ingredientID {
			return true
		}
	}
	return false
}

// Check is an in-progress, mutable tab of ordered items not yet dispatched
// or finalized.
type Check struct {
	ID            uuid.UUID  `json:"id" bson:"_id"`
	TableID       *uuid.UUID `json:"table_id,omitempty" bson:"table_id,omitempty"`
	CustomerName  string     `json:"customer_name,omitempty" bson:"customer_name,omitempty"`
	OrderType     string     `json:"order_type" bson:"order_type"`
	PriceListID   *uuid.UUID `json:"price_list_id,omitempty" bson:"price_list_id,omitempty"`
	OwnerEmployee string     `json:"owner_employee,omitempty" bson:"owner_employee,omitempty"`
	Items         []LineItem `json:"items" bson:"items"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (c *Check) GetID() uuid.UUID {
	return c.ID
}

func (c *Check) ResourceType() string {
	return "check"
}

func NewCheck(orderType string) *Check {
	check := &Check{
		OrderType: orderType,
		Items:     []LineItem{},
	}
	check.BeforeCreate()
	return check
}

func (c *Check) EnsureID() {
	if c.ID == uuid.Nil {
		c.ID = apt.GenerateNewID()
	}
}

func (c *Check) BeforeCreate() {
	c.EnsureID()
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()
}

func (c *Check) BeforeUpdate() {
	c.UpdatedAt = time.Now()
}

// NewItems returns the line items still awaiting kitchen dispatch.
func (c *Check) NewItems() []LineItem {
	var items []LineItem
	for _, it := range c.Items {
		if it.Status == itemstatus.Statuses.New.Name {
			items = append(items, it)
		}
	}
	return items
}

// Item returns a pointer into the Check's item slice, or nil.
func (c *Check) Item(lineID uuid.UUID) *LineItem {
	for i := range c.Items {
		if c.Items[i].ID == lineID {
			return &c.Items[i]
		}
	}
	return nil
}
