// Package store is the MongoDB record store behind docshift: users, todos,
// index management, field renames and the migration ledger.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/eleven-am/docshift/internal/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names used by the API.
const (
	UsersCollection = "users"
	TodosCollection = "todos"
)

type Config struct {
	URL              string
	Database         string
	ConnectTimeout   time.Duration
	OperationTimeout time.Duration
}

func NewConfig(url, database string) *Config {
	return &Config{
		URL:              url,
		Database:         database,
		ConnectTimeout:   10 * time.Second,
		OperationTimeout: 5 * time.Minute,
	}
}

// Store is an explicitly owned connection handle. The caller that obtains
// one from Connect is responsible for calling Close.
type Store struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

// Connect dials the server and pings the primary. A Store is only returned
// once the deployment is reachable.
func (cfg *Config) Connect(ctx context.Context) (*Store, error) {
	if cfg.Database == "" {
		return nil, &Error{Op: "connect", Kind: ErrConnectionFailed, Err: fmt.Errorf("no database name configured")}
	}

	opts := options.Client().
		ApplyURI(cfg.URL).
		SetRetryWrites(true).
		SetRetryReads(true)
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
		opts.SetServerSelectionTimeout(cfg.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, &Error{Op: "connect", Kind: ErrConnectionFailed, Err: err}
	}

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, &Error{Op: "ping", Kind: ErrConnectionFailed, Err: err}
	}

	logger.DB().WithField("database", cfg.Database).Info("Connected to MongoDB")

	s := New(client, cfg.Database)
	s.timeout = cfg.OperationTimeout
	return s, nil
}

// New wraps a client the caller already owns.
func New(client *mongo.Client, database string) *Store {
	return &Store{
		client: client,
		db:     client.Database(database),
	}
}

// WithTimeout sets the per-operation deadline applied to every call.
func (s *Store) WithTimeout(d time.Duration) *Store {
	s.timeout = d
	return s
}

// Database returns the database name the store operates on.
func (s *Store) Database() string {
	return s.db.Name()
}

// Collection returns a handle on the named collection.
func (s *Store) Collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// Ping checks the deployment is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.client == nil {
		return &Error{Op: "ping", Kind: ErrConnectionFailed, Err: mongo.ErrClientDisconnected}
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return &Error{Op: "ping", Kind: ErrConnectionFailed, Err: err}
	}
	return nil
}

// Close disconnects the client. It is safe to call more than once.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}

	client := s.client
	s.client = nil

	if err := client.Disconnect(ctx); err != nil {
		if err == mongo.ErrClientDisconnected {
			return nil
		}
		return parseMongoError(err, "disconnect", "")
	}

	logger.DB().Debug("Disconnected from MongoDB")
	return nil
}

func (s *Store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func objectID(id, collection string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, &Error{Op: "parse id", Collection: collection, Kind: ErrInvalidID, Err: err}
	}
	return oid, nil
}
