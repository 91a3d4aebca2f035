package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/comandaclub/comanda/internal/pos"
)

// MenuRepo resolves consumption recipes from the menu-items and extras
// collections. Satisfies pos.MenuProvider.
type MenuRepo struct {
	menuItems *mongo.Collection
	extras    *mongo.Collection
}

func NewMenuRepo(db *mongo.Database) *MenuRepo {
	return &MenuRepo{
		menuItems: db.Collection("menu_items"),
		extras:    db.Collection("extras"),
	}
}

// Recipes batch-loads the menu item and extra definitions the given items
// reference and assembles per-menu-item recipes.
func (r *MenuRepo) Recipes(ctx context.Context, items []pos.LineItem) (map[uuid.UUID]pos.Recipe, error) {
	menuIDs := make([]uuid.UUID, 0, len(items))
	extraIDs := make([]uuid.UUID, 0)
	seenMenu := make(map[uuid.UUID]bool)
	seenExtra := make(map[uuid.UUID]bool)
	for _, item := range items {
		if !seenMenu[item.MenuItemID] {
			seenMenu[item.MenuItemID] = true
			menuIDs = append(menuIDs, item.MenuItemID)
		}
		for _, extra := range item.Added {
			if !seenExtra[extra.ExtraID] {
				seenExtra[extra.ExtraID] = true
				extraIDs = append(extraIDs, extra.ExtraID)
			}
		}
	}

	menuItems, err := r.findMenuItems(ctx, menuIDs)
	if err != nil {
		return nil, err
	}
	extraLinks, err := r.findExtraLinks(ctx, extraIDs)
	if err != nil {
		return nil, err
	}

	recipes := make(map[uuid.UUID]pos.Recipe, len(menuItems))
	for _, mi := range menuItems {
		recipes[mi.ID] = pos.Recipe{
			Base:   mi.IngredientLinks,
			Extras: extraLinks,
		}
	}
	return recipes, nil
}

func (r *MenuRepo) findMenuItems(ctx context.Context, ids []uuid.UUID) ([]*pos.MenuItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := r.menuItems.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("cannot find menu items: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*pos.MenuItem
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode menu items: %w", err)
	}
	return result, nil
}

func (r *MenuRepo) findExtraLinks(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]pos.IngredientLink, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := r.extras.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("cannot find extras: %w", err)
	}
	defer cursor.Close(ctx)

	var extras []*pos.Extra
	if err := cursor.All(ctx, &extras); err != nil {
		return nil, fmt.Errorf("cannot decode extras: %w", err)
	}

	links := make(map[uuid.UUID][]pos.IngredientLink, len(extras))
	for _, e := range extras {
		links[e.ID] = e.IngredientLinks
	}
	return links, nil
}
