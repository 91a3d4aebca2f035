package pos

import "github.com/google/uuid"

// Consumption maps ingredient ids to quantities consumed.
type Consumption map[uuid.UUID]float64

// ItemConsumption computes the ingredient quantities one line item
// consumes: every base recipe link whose ingredient the customer did not
// remove, plus every added extra's own links. Extras are never reduced by
// the removed list. Everything scales with the line quantity.
func ItemConsumption(item LineItem, recipe Recipe) Consumption {
	usage := make(Consumption)
	qty := float64(item.Quantity)

	for _, link := range recipe.Base {
		if item.HasRemoved(link.IngredientID) {
			continue
		}
		usage[link.IngredientID] += link.Quantity * qty
	}

	for _, extra := range item.Added {
		for _, link := range recipe.Extras[extra.ExtraID] {
			usage[link.IngredientID] += link.Quantity * qty
		}
	}

	return usage
}

// ComputeConsumption aggregates ingredient consumption across items.
// Recipes are keyed by menu item id; an item without a recipe consumes
// nothing.
func ComputeConsumption(items []LineItem, recipes map[uuid.UUID]Recipe) Consumption {
	total := make(Consumption)
	for _, item := range items {
		for id, qty := range ItemConsumption(item, recipes[item.MenuItemID]) {
			total[id] += qty
		}
	}
	return total
}

// DiffConsumption returns the signed per-ingredient delta old minus new.
// A positive delta restores stock, a negative delta consumes it.
func DiffConsumption(old, new Consumption) Consumption {
	delta := make(Consumption)
	for id, qty := range old {
		delta[id] += qty
	}
	for id, qty := range new {
		delta[id] -= qty
	}
	for id, qty := range delta {
		if qty == 0 {
			delete(delta, id)
		}
	}
	return delta
}
