package pos

import (
	"testing"

	"github.com/google/uuid"
)

func TestItemConsumption(t *testing.T) {
	flour := uuid.New()
	cheese := uuid.New()
	bacon := uuid.New()
	baconExtra := uuid.New()
	menuItem := uuid.New()

	recipe := Recipe{
		Base: []IngredientLink{
			{IngredientID: flour, Quantity: 2},
			{IngredientID: cheese, Quantity: 1},
		},
		Extras: map[uuid.UUID][]IngredientLink{
			baconExtra: {{IngredientID: bacon, Quantity: 0.5}},
		},
	}

	tests := []struct {
		name string
		item LineItem
		want Consumption
	}{
		{
			name: "baseRecipeScalesWithQuantity",
			item: LineItem{MenuItemID: menuItem, Quantity: 3},
			want: Consumption{flour: 6, cheese: 3},
		},
		{
			name: "removedIngredientNotConsumed",
			item: LineItem{MenuItemID: menuItem, Quantity: 2, Removed: []uuid.UUID{cheese}},
			want: Consumption{flour: 4},
		},
		{
			name: "addedExtraConsumesItsOwnLinks",
			item: LineItem{
				MenuItemID: menuItem,
				Quantity:   2,
				Added:      []ExtraRef{{ExtraID: baconExtra, Name: "bacon"}},
			},
			want: Consumption{flour: 4, cheese: 2, bacon: 1},
		},
		{
			name: "removalNeverReducesExtras",
			item: LineItem{
				MenuItemID: menuItem,
				Quantity:   1,
				Added:      []ExtraRef{{ExtraID: baconExtra, Name: "bacon"}},
				Removed:    []uuid.UUID{bacon, cheese},
			},
			want: Consumption{flour: 2, bacon: 0.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ItemConsumption(tt.item, recipe)
			if len(got) != len(tt.want) {
				t.Fatalf("ItemConsumption() = %v, want %v", got, tt.want)
			}
			for id, qty := range tt.want {
				if got[id] != qty {
					t.Errorf("ItemConsumption()[%s] = %g, want %g", id, got[id], qty)
				}
			}
		})
	}
}

func TestComputeConsumption(t *testing.T) {
	flour := uuid.New()
	tomato := uuid.New()
	pizza := uuid.New()
	salad := uuid.New()

	recipes := map[uuid.UUID]Recipe{
		pizza: {Base: []IngredientLink{{IngredientID: flour, Quantity: 2}, {IngredientID: tomato, Quantity: 1}}},
		salad: {Base: []IngredientLink{{IngredientID: tomato, Quantity: 3}}},
	}

	items := []LineItem{
		{MenuItemID: pizza, Quantity: 2},
		{MenuItemID: salad, Quantity: 1},
		{MenuItemID: uuid.New(), Quantity: 4}, // no recipe, consumes nothing
	}

	got := ComputeConsumption(items, recipes)
	want := Consumption{flour: 4, tomato: 5}

	if len(got) != len(want) {
		t.Fatalf("ComputeConsumption() = %v, want %v", got, want)
	}
	for id, qty := range want {
		if got[id] != qty {
			t.Errorf("ComputeConsumption()[%s] = %g, want %g", id, got[id], qty)
		}
	}
}

func TestDiffConsumption(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	tests := []struct {
		name string
		old  Consumption
		new  Consumption
		want Consumption
	}{
		{
			name: "restoresWhenNewConsumesLess",
			old:  Consumption{a: 4},
			new:  Consumption{a: 1},
			want: Consumption{a: 3},
		},
		{
			name: "consumesWhenNewConsumesMore",
			old:  Consumption{a: 1},
			new:  Consumption{a: 4, b: 2},
			want: Consumption{a: -3, b: -2},
		},
		{
			name: "dropsZeroDeltas",
			old:  Consumption{a: 2, b: 1},
			new:  Consumption{a: 2, c: 1},
			want: Consumption{b: 1, c: -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiffConsumption(tt.old, tt.new)
			if len(got) != len(tt.want) {
				t.Fatalf("DiffConsumption() = %v, want %v", got, tt.want)
			}
			for id, qty := range tt.want {
				if got[id] != qty {
					t.Errorf("DiffConsumption()[%s] = %g, want %g", id, got[id], qty)
				}
			}
		})
	}
}
