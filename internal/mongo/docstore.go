package mongo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// DocStore addresses documents by hierarchical path strings, the contract
// the offline dispatcher and syncer replay mutations against. A collection
// path has an odd number of segments ("checks", "restaurants/r1/checks");
// a document path appends the document id. Intermediate segments namespace
// the collection name.
type DocStore struct {
	db *mongo.Database
}

func NewDocStore(db *mongo.Database) *DocStore {
	return &DocStore{db: db}
}

// Add creates a document under the given collection path and returns the
// server-assigned id.
func (s *DocStore) Add(ctx context.Context, path string, payload []byte) (string, error) {
	segments, err := splitPath(path)
	if err != nil {
		return "", err
	}
	if len(segments)%2 == 0 {
		return "", fmt.Errorf("add targets a collection path, got document path %q", path)
	}

	doc, err := decodePayload(payload)
	if err != nil {
		return "", fmt.Errorf("cannot decode payload for %s: %w", path, err)
	}
	delete(doc, "id")

	id := apt.GenerateNewID()
	doc["_id"] = id

	if _, err := s.collection(segments).InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("cannot create document at %s: %w", path, err)
	}
	return id.String(), nil
}

// Update merges fields into the document at the given path.
func (s *DocStore) Update(ctx context.Context, path string, payload []byte) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}
	if len(segments)%2 != 0 {
		return fmt.Errorf("update targets a document path, got collection path %q", path)
	}

	doc, err := decodePayload(payload)
	if err != nil {
		return fmt.Errorf("cannot decode payload for %s: %w", path, err)
	}
	delete(doc, "_id")
	delete(doc, "id")

	id := segments[len(segments)-1]
	result, err := s.collection(segments[:len(segments)-1]).UpdateOne(ctx,
		bson.M{"_id": docID(id)},
		bson.M{"$set": doc},
	)
	if err != nil {
		return fmt.Errorf("cannot update document at %s: %w", path, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("document at %s not found", path)
	}
	return nil
}

// Delete removes the document at the given path.
func (s *DocStore) Delete(ctx context.Context, path string) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}
	if len(segments)%2 != 0 {
		return fmt.Errorf("delete targets a document path, got collection path %q", path)
	}

	id := segments[len(segments)-1]
	result, err := s.collection(segments[:len(segments)-1]).DeleteOne(ctx, bson.M{"_id": docID(id)})
	if err != nil {
		return fmt.Errorf("cannot delete document at %s: %w", path, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("document at %s not found", path)
	}
	return nil
}

// collection maps an odd-length segment list to a collection, joining
// namespace segments with underscores.
func (s *DocStore) collection(segments []string) *mongo.Collection {
	var parts []string
	for i := 0; i < len(segments); i += 2 {
		parts = append(parts, segments[i])
	}
	return s.db.Collection(strings.Join(parts, "_"))
}

func splitPath(path string) ([]string, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil, fmt.Errorf("empty document path")
	}
	segments := strings.Split(trimmed, "/")
	for _, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("invalid document path %q", path)
		}
	}
	return segments, nil
}

func decodePayload(payload []byte) (map[string]interface{}, error) {
	doc := map[string]interface{}{}
	if len(payload) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, err
	}
	for k, v := range doc {
		doc[k] = normalizeValue(v)
	}
	return doc, nil
}

// normalizeValue rewrites JSON string values that are really uuids or RFC
// 3339 timestamps into their native types, so documents written through
// path-addressed mutations stay readable by the typed repositories.
func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		if id, err := uuid.Parse(val); err == nil {
			return id
		}
		if ts, err := time.Parse(time.RFC3339Nano, val); err == nil {
			return ts
		}
		return val
	case map[string]interface{}:
		for k, inner := range val {
			val[k] = normalizeValue(inner)
		}
		return val
	case []interface{}:
		for i, inner := range val {
			val[i] = normalizeValue(inner)
		}
		return val
	default:
		return v
	}
}

// docID preserves uuid ids so path-addressed writes hit the same
// documents the typed repos create.
func docID(raw string) interface{} {
	if id, err := uuid.Parse(raw); err == nil {
		return id
	}
	return raw
}
