package pos

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// IngredientLink ties a menu item or extra to an ingredient and the
// quantity one unit consumes.
type IngredientLink struct {
	IngredientID uuid.UUID `json:"ingredient_id" bson:"ingredient_id"`
	Quantity     float64   `json:"quantity" bson:"quantity"`
}

// Ingredient is a stocked resource. Stock never goes negative at a
// committed state; any transaction that would drive it below zero aborts.
type Ingredient struct {
	ID          uuid.UUID `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Stock       float64   `json:"stock" bson:"stock"`
	Unit        string    `json:"unit" bson:"unit"`
	CostPerUnit float64   `json:"cost_per_unit" bson:"cost_per_unit"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (i *Ingredient) GetID() uuid.UUID {
	return i.ID
}

func (i *Ingredient) ResourceType() string {
	return "ingredient"
}

func (i *Ingredient) EnsureID() {
	if i.ID == uuid.Nil {
		i.ID = apt.GenerateNewID()
	}
}

func (i *Ingredient) BeforeCreate() {
	i.EnsureID()
	i.CreatedAt = time.Now()
	i.UpdatedAt = time.Now()
}

func (i *Ingredient) BeforeUpdate() {
	i.UpdatedAt = time.Now()
}

// MenuItem is a sellable dish with its recipe.
type MenuItem struct {
	ID              uuid.UUID        `json:"id" bson:"_id"`
	Name            string           `json:"name" bson:"name"`
	Price           float64          `json:"price" bson:"price"`
	PrepMinutes     int              `json:"prep_minutes,omitempty" bson:"prep_minutes,omitempty"`
	IngredientLinks []IngredientLink `json:"ingredient_links,omitempty" bson:"ingredient_links,omitempty"`
}

func (m *MenuItem) GetID() uuid.UUID {
	return m.ID
}

func (m *MenuItem) ResourceType() string {
	return "menu-item"
}

// Extra is an optional add-on with its own price and ingredient consumption.
type Extra struct {
	ID              uuid.UUID        `json:"id" bson:"_id"`
	Name            string           `json:"name" bson:"name"`
	Price           float64          `json:"price" bson:"price"`
	IngredientLinks []IngredientLink `json:"ingredient_links,omitempty" bson:"ingredient_links,omitempty"`
}

func (e *Extra) GetID() uuid.UUID {
	return e.ID
}

func (e *Extra) ResourceType() string {
	return "extra"
}

// Recipe is the resolved ingredient consumption definition for one menu
// item: its own links plus the links of every extra that may be added to
// it. Resolved by the menu provider before a transaction starts so the
// consumption arithmetic stays pure.
type Recipe struct {
	Base   []IngredientLink
	Extras map[uuid.UUID][]IngredientLink
}

// PriceList names a discount percentage applicable to a check.
type PriceList struct {
	ID              uuid.UUID `json:"id" bson:"_id"`
	Name            string    `json:"name" bson:"name"`
	DiscountPercent float64   `json:"discount_percent" bson:"discount_percent"`
}

// Settings carries the pricing configuration the dispatch transaction
// consumes.
type Settings struct {
	TaxRatePercent    float64     `json:"tax_rate_percent" bson:"tax_rate_percent"`
	PriceLists        []PriceList `json:"price_lists,omitempty" bson:"price_lists,omitempty"`
	ActivePriceListID *uuid.UUID  `json:"active_price_list_id,omitempty" bson:"active_price_list_id,omitempty"`
}

// ActivePriceList returns the configured active price list, or nil when
// no discount applies.
func (s *Settings) ActivePriceList() *PriceList {
	if s == nil || s.ActivePriceListID == nil {
		return nil
	}
	for i := range s.PriceLists {
		if s.PriceLists[i].ID == *s.ActivePriceListID {
			return &s.PriceLists[i]
		}
	}
	return nil
}
