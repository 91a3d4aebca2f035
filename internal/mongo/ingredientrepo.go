package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/comandaclub/comanda/internal/pos"
)

type IngredientRepo struct {
	collection *mongo.Collection
}

func NewIngredientRepo(db *mongo.Database) *IngredientRepo {
	return &IngredientRepo{
		collection: db.Collection("ingredients"),
	}
}

// EnsureIndexes creates the name index used by inventory lookups.
func (r *IngredientRepo) EnsureIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("cannot create name index: %w", err)
	}
	return nil
}

func (r *IngredientRepo) Get(ctx context.Context, id uuid.UUID) (*pos.Ingredient, error) {
	var ing pos.Ingredient
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ing)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get ingredient: %w", err)
	}
	return &ing, nil
}

func (r *IngredientRepo) List(ctx context.Context) ([]*pos.Ingredient, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("cannot list ingredients: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*pos.Ingredient
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode ingredients: %w", err)
	}

	return result, nil
}
