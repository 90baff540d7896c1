package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// VariableStore implements domain.VariableStore as a name/value collection
// keyed by _id. Its only mandatory tenant is the harvest watermark.
type VariableStore struct {
	collection *mongo.Collection
}

func (s *VariableStore) Fetch(ctx context.Context, name, defaultValue string) (string, error) {
	var row struct {
		Value string `bson:"value"`
	}
	err := s.collection.FindOne(ctx, bson.M{"_id": name}).Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return defaultValue, nil
	}
	if err != nil {
		return "", fmt.Errorf("fetch variable %q: %w", name, err)
	}
	return row.Value, nil
}

func (s *VariableStore) Upsert(ctx context.Context, name, value string) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": name},
		bson.M{"$set": bson.M{"value": value}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert variable %q: %w", name, err)
	}
	return nil
}
