package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/scieloorg/oaipmh/internal/domain"
)

// DocumentStore implements domain.DocumentStore on a MongoDB collection.
type DocumentStore struct {
	collection *mongo.Collection
}

func (s *DocumentStore) Add(ctx context.Context, rec *domain.Record) error {
	_, err := s.collection.InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("add record %q: %w", rec.DocID, domain.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("add record %q: %w", rec.DocID, err)
	}
	return nil
}

func (s *DocumentStore) Upsert(ctx context.Context, rec *domain.Record) error {
	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"doc_id": rec.DocID},
		rec,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert record %q: %w", rec.DocID, err)
	}
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, docID string) error {
	_, err := s.collection.DeleteOne(ctx, bson.M{"doc_id": docID})
	if err != nil {
		return fmt.Errorf("delete record %q: %w", docID, err)
	}
	return nil
}

func (s *DocumentStore) Fetch(ctx context.Context, docID string) (*domain.Record, error) {
	var rec domain.Record
	err := s.collection.FindOne(ctx, bson.M{"doc_id": docID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("fetch record %q: %w", docID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch record %q: %w", docID, err)
	}
	return &rec, nil
}

// Filter pages records in ascending _id order. Object ids are generated at
// ingest time, so this equals ascending ingest-timestamp order while
// staying stable under concurrent upserts, which plain skip pagination is
// not. A non-empty offset must be the hex id of the previous page's last
// record and is applied as an exclusive lower bound.
func (s *DocumentStore) Filter(ctx context.Context, q domain.Query) ([]*domain.Record, error) {
	filter, err := buildFilter(q)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("filter records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*domain.Record
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

func buildFilter(q domain.Query) (bson.M, error) {
	filter := bson.M{}
	if q.Set != "" {
		filter["sets.set_spec"] = q.Set
	}

	timestamp := bson.M{}
	if q.From != nil {
		timestamp["$gte"] = *q.From
	}
	if q.Until != nil {
		timestamp["$lte"] = *q.Until
	}
	if len(timestamp) > 0 {
		filter["timestamp"] = timestamp
	}

	if q.Offset != "" {
		oid, err := primitive.ObjectIDFromHex(q.Offset)
		if err != nil {
			return nil, fmt.Errorf("invalid offset %q: %w", q.Offset, err)
		}
		filter["_id"] = bson.M{"$gt": oid}
	}
	return filter, nil
}

// Sets aggregates the distinct journal sets across all records, sorted by
// set spec. Records with an empty set spec are skipped.
func (s *DocumentStore) Sets(ctx context.Context) ([]domain.Set, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$unwind", Value: "$sets"}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":      "$sets.set_spec",
			"set_name": bson.M{"$first": "$sets.set_name"},
		}}},
	}

	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate sets: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Spec string `bson:"_id"`
		Name string `bson:"set_name"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode sets: %w", err)
	}

	var sets []domain.Set
	for _, row := range rows {
		if row.Spec == "" {
			continue
		}
		sets = append(sets, domain.Set{SetSpec: row.Spec, SetName: row.Name})
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].SetSpec < sets[j].SetSpec })
	return sets, nil
}

func (s *DocumentStore) EarliestDatestamp(ctx context.Context) (*time.Time, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "timestamp", Value: 1}}).
		SetProjection(bson.M{"timestamp": 1})

	var row struct {
		Timestamp time.Time `bson:"timestamp"`
	}
	err := s.collection.FindOne(ctx, bson.M{}, opts).Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("earliest datestamp: %w", err)
	}
	return &row.Timestamp, nil
}
