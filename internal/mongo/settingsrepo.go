package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/comandaclub/comanda/internal/pos"
)

// The settings collection holds one document per restaurant; this service
// owns a single one.
const settingsDocID = "pos-settings"

// SettingsRepo satisfies pos.SettingsProvider.
type SettingsRepo struct {
	collection *mongo.Collection
}

func NewSettingsRepo(db *mongo.Database) *SettingsRepo {
	return &SettingsRepo{
		collection: db.Collection("settings"),
	}
}

func (r *SettingsRepo) Settings(ctx context.Context) (*pos.Settings, error) {
	var s pos.Settings
	err := r.collection.FindOne(ctx, bson.M{"_id": settingsDocID}).Decode(&s)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// An unconfigured restaurant prices with no tax and no discount.
			return &pos.Settings{}, nil
		}
		return nil, fmt.Errorf("cannot get settings: %w", err)
	}
	return &s, nil
}
