package store

import (
	"context"
	"time"

	"github.com/eleven-am/docshift/internal/logger"
	"github.com/eleven-am/docshift/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Index describes one secondary index on a collection.
type Index struct {
	Name   string
	Keys   []string
	Unique bool
}

// Covers reports whether field is part of the index key.
func (i Index) Covers(field string) bool {
	for _, k := range i.Keys {
		if k == field {
			return true
		}
	}
	return false
}

// FieldFilter selects documents by field presence. Present fields must
// exist (a null value counts as present); Absent fields must not.
type FieldFilter struct {
	Present []string
	Absent  []string
}

// BSON renders the filter as a query document.
func (f FieldFilter) BSON() bson.D {
	filter := bson.D{}
	for _, field := range f.Present {
		filter = append(filter, bson.E{Key: field, Value: bson.D{{Key: "$exists", Value: true}}})
	}
	for _, field := range f.Absent {
		filter = append(filter, bson.E{Key: field, Value: bson.D{{Key: "$exists", Value: false}}})
	}
	return filter
}

// UpdateResult reports the outcome of a bulk update.
type UpdateResult struct {
	Matched  int64
	Modified int64
}

type indexSpec struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique bool   `bson:"unique"`
}

// ListIndexes returns every index on collection, including _id_.
func (s *Store) ListIndexes(ctx context.Context, collection string) ([]Index, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	cursor, err := s.Collection(collection).Indexes().List(ctx)
	if err != nil {
		return nil, parseMongoError(err, "list indexes", collection)
	}
	defer cursor.Close(ctx)

	var specs []indexSpec
	if err := cursor.All(ctx, &specs); err != nil {
		return nil, parseMongoError(err, "list indexes", collection)
	}

	indexes := make([]Index, 0, len(specs))
	for _, spec := range specs {
		idx := Index{Name: spec.Name, Unique: spec.Unique}
		for _, key := range spec.Key {
			idx.Keys = append(idx.Keys, key.Key)
		}
		indexes = append(indexes, idx)
	}

	return indexes, nil
}

// DropIndex removes the named index. A missing index or collection yields an
// error matching ErrIndexNotFound.
func (s *Store) DropIndex(ctx context.Context, collection, name string) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if _, err := s.Collection(collection).Indexes().DropOne(ctx, name); err != nil {
		storeErr := parseMongoError(err, "drop index", collection)
		if e, ok := storeErr.(*Error); ok {
			e.Index = name
		}
		return storeErr
	}

	logger.DB().WithFields(map[string]interface{}{
		"collection": collection,
		"index":      name,
	}).Debug("dropped index")
	return nil
}

// CreateUniqueIndex builds an ascending unique index on field and returns
// its name.
func (s *Store) CreateUniqueIndex(ctx context.Context, collection, field string) (string, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	model := mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	name, err := s.Collection(collection).Indexes().CreateOne(ctx, model)
	if err != nil {
		return "", parseMongoError(err, "create index", collection)
	}
	return name, nil
}

// CountFields counts the documents matching filter.
func (s *Store) CountFields(ctx context.Context, collection string, filter FieldFilter) (int64, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	n, err := s.Collection(collection).CountDocuments(ctx, filter.BSON())
	if err != nil {
		return 0, parseMongoError(err, "count", collection)
	}
	return n, nil
}

// RenameField renames from to to on every document matching filter in one
// server-side update. Values are preserved; an existing to field is
// overwritten by the server.
func (s *Store) RenameField(ctx context.Context, collection string, filter FieldFilter, from, to string) (UpdateResult, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	update := bson.D{{Key: "$rename", Value: bson.D{{Key: from, Value: to}}}}

	res, err := s.Collection(collection).UpdateMany(ctx, filter.BSON(), update)
	if err != nil {
		return UpdateResult{}, parseMongoError(err, "rename field", collection)
	}

	return UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

// RecordMigration appends a run to the ledger collection.
func (s *Store) RecordMigration(ctx context.Context, ledger string, record models.MigrationRecord) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if record.FinishedAt.IsZero() {
		record.FinishedAt = time.Now().UTC()
	}

	if _, err := s.Collection(ledger).InsertOne(ctx, record); err != nil {
		return parseMongoError(err, "record migration", ledger)
	}
	return nil
}

// LastMigration returns the most recent ledger entry with the given name.
func (s *Store) LastMigration(ctx context.Context, ledger, name string) (*models.MigrationRecord, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	opts := options.FindOne().SetSort(bson.D{{Key: "finishedAt", Value: -1}})

	var record models.MigrationRecord
	err := s.Collection(ledger).FindOne(ctx, bson.D{{Key: "name", Value: name}}, opts).Decode(&record)
	if err != nil {
		return nil, parseMongoError(err, "last migration", ledger)
	}
	return &record, nil
}
