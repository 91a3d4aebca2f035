package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/comandaclub/comanda/internal/pos"
)

type CheckRepo struct {
	collection *mongo.Collection
}

func NewCheckRepo(db *mongo.Database) *CheckRepo {
	return &CheckRepo{
		collection: db.Collection("checks"),
	}
}

func (r *CheckRepo) Create(ctx context.Context, c *pos.Check) error {
	if c == nil {
		return fmt.Errorf("check is nil")
	}

	if _, err := r.collection.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("cannot create check: %w", err)
	}

	return nil
}

func (r *CheckRepo) Get(ctx context.Context, id uuid.UUID) (*pos.Check, error) {
	var c pos.Check
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get check: %w", err)
	}
	return &c, nil
}

func (r *CheckRepo) List(ctx context.Context) ([]*pos.Check, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("cannot list checks: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*pos.Check
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode checks: %w", err)
	}

	return result, nil
}

func (r *CheckRepo) FindOpenByTable(ctx context.Context, tableID uuid.UUID, exclude uuid.UUID) (*pos.Check, error) {
	var c pos.Check
	filter := bson.M{
		"table_id": tableID,
		"_id":      bson.M{"$ne": exclude},
	}
	err := r.collection.FindOne(ctx, filter).Decode(&c)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot find check by table: %w", err)
	}
	return &c, nil
}

func (r *CheckRepo) Save(ctx context.Context, c *pos.Check) error {
	if c == nil {
		return fmt.Errorf("check is nil")
	}

	filter := bson.M{"_id": c.ID}
	update := bson.M{"$set": c}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("cannot update check: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("check not found")
	}

	return nil
}

func (r *CheckRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("cannot delete check: %w", err)
	}

	if result.DeletedCount == 0 {
		return fmt.Errorf("check not found")
	}

	return nil
}
