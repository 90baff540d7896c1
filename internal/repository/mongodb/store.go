// Package mongodb implements the document and variable stores on top of
// MongoDB. Connection details, database and collection names are confined
// here; index creation happens here as well.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	documentsCollection = "documents"
	variablesCollection = "variables"
)

// Store owns the client connection and hands out the per-collection
// stores. Safe for concurrent use; mongo.Client pools internally.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, dsn, dbname, replicaSet string) (*Store, error) {
	opts := options.Client().ApplyURI(dsn)
	if replicaSet != "" {
		opts.SetReplicaSet(replicaSet)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &Store{client: client, db: client.Database(dbname)}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the verbs and the harvester rely on:
// a unique doc_id and an ascending ingest timestamp.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(documentsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "doc_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "timestamp", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

// Documents returns the document store backed by this connection.
func (s *Store) Documents() *DocumentStore {
	return &DocumentStore{collection: s.db.Collection(documentsCollection)}
}

// Variables returns the variable store backed by this connection.
func (s *Store) Variables() *VariableStore {
	return &VariableStore{collection: s.db.Collection(variablesCollection)}
}
