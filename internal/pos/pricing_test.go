package pos

import (
	"math"
	"testing"

	"github.com/google/uuid"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestQuoteItems(t *testing.T) {
	happyHour := PriceList{ID: uuid.New(), Name: "happy hour", DiscountPercent: 10}

	tests := []struct {
		name     string
		items    []LineItem
		settings *Settings
		want     PriceQuote
	}{
		{
			name: "subtotalOnly",
			items: []LineItem{
				{UnitPrice: 5, Quantity: 2},
				{UnitPrice: 3, Quantity: 1},
			},
			settings: &Settings{},
			want:     PriceQuote{Subtotal: 13, Total: 13},
		},
		{
			name: "extrasAddToUnitPrice",
			items: []LineItem{
				{UnitPrice: 5, Quantity: 2, Added: []ExtraRef{{Price: 1.5}}},
			},
			settings: &Settings{},
			want:     PriceQuote{Subtotal: 13, Total: 13},
		},
		{
			name: "taxAppliesToDiscountedAmount",
			items: []LineItem{
				{UnitPrice: 10, Quantity: 10},
			},
			settings: &Settings{
				TaxRatePercent:    21,
				PriceLists:        []PriceList{happyHour},
				ActivePriceListID: &happyHour.ID,
			},
			want: PriceQuote{Subtotal: 100, Discount: 10, Tax: 18.9, Total: 108.9},
		},
		{
			name: "inactivePriceListIgnored",
			items: []LineItem{
				{UnitPrice: 10, Quantity: 1},
			},
			settings: &Settings{
				TaxRatePercent: 10,
				PriceLists:     []PriceList{happyHour},
			},
			want: PriceQuote{Subtotal: 10, Tax: 1, Total: 11},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QuoteItems(tt.items, tt.settings)
			if !almostEqual(got.Subtotal, tt.want.Subtotal) ||
				!almostEqual(got.Discount, tt.want.Discount) ||
				!almostEqual(got.Tax, tt.want.Tax) ||
				!almostEqual(got.Total, tt.want.Total) {
				t.Errorf("QuoteItems() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPrepMinutes(t *testing.T) {
	tests := []struct {
		name  string
		items []LineItem
		want  int
	}{
		{
			name:  "defaultsWhenUnset",
			items: []LineItem{{Quantity: 2}},
			want:  2 * DefaultPrepMinutes,
		},
		{
			name: "scalesWithQuantity",
			items: []LineItem{
				{Quantity: 3, PrepMinutes: 10},
				{Quantity: 1, PrepMinutes: 4},
			},
			want: 34,
		},
		{
			name:  "emptyItems",
			items: nil,
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PrepMinutes(tt.items); got != tt.want {
				t.Errorf("PrepMinutes() = %d, want %d", got, tt.want)
			}
		})
	}
}
