// Package mongo persists rows as documents with the official v2 driver.
// Every batch is one InsertMany; after the load a unique ascending index on
// the key columns is ensured.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Config holds Mongo repository configuration.
type Config struct {
	URI        string // mongodb:// or mongodb+srv://
	Database   string
	Collection string
	KeyColumns []string // unique index fields
}

// Repository writes to one collection.
type Repository struct {
	client *mongo.Client
	coll   *mongo.Collection
	cfg    Config
}

// NewRepository connects, pings and returns a Repository plus a Close
// function that disconnects.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if !strings.HasPrefix(cfg.URI, "mongodb://") && !strings.HasPrefix(cfg.URI, "mongodb+srv://") {
		return nil, nil, fmt.Errorf("mongo: uri must start with mongodb:// or mongodb+srv://")
	}
	if cfg.Database == "" || cfg.Collection == "" {
		return nil, nil, errors.New("mongo: database and collection are required")
	}
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	closeFn := func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(dctx)
	}
	return &Repository{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		cfg:    cfg,
	}, closeFn, nil
}

// Documents turns rows into ordered documents keyed by columns. Nil values
// are stored as BSON null.
func Documents(columns []string, rows [][]any) ([]bson.D, error) {
	docs := make([]bson.D, 0, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("mongo: row %d has %d values, want %d", i, len(row), len(columns))
		}
		doc := make(bson.D, len(columns))
		for j, c := range columns {
			doc[j] = bson.E{Key: c, Value: row[j]}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// CopyFrom inserts rows as one ordered InsertMany.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	docs, err := Documents(columns, rows)
	if err != nil {
		return 0, err
	}
	res, err := r.coll.InsertMany(ctx, docs)
	if res != nil && err != nil {
		return int64(len(res.InsertedIDs)), fmt.Errorf("insert many: %w", err)
	}
	if err != nil {
		return 0, fmt.Errorf("insert many: %w", err)
	}
	return int64(len(res.InsertedIDs)), nil
}

// IndexModel is the unique ascending index on the key columns.
func IndexModel(keys []string) mongo.IndexModel {
	spec := make(bson.D, len(keys))
	for i, k := range keys {
		spec[i] = bson.E{Key: k, Value: 1}
	}
	return mongo.IndexModel{Keys: spec, Options: options.Index().SetUnique(true)}
}

// Finalize ensures the unique index. It fails if the collection already
// holds duplicate keys.
func (r *Repository) Finalize(ctx context.Context) error {
	if len(r.cfg.KeyColumns) == 0 {
		return nil
	}
	if _, err := r.coll.Indexes().CreateOne(ctx, IndexModel(r.cfg.KeyColumns)); err != nil {
		return fmt.Errorf("create unique index on %s: %w", strings.Join(r.cfg.KeyColumns, ","), err)
	}
	return nil
}

// ParseCommand decodes a relaxed extended JSON database command such as
// {"collMod": "Employees", "validationLevel": "moderate"}.
func ParseCommand(stmt string) (bson.D, error) {
	var cmd bson.D
	if err := bson.UnmarshalExtJSON([]byte(stmt), false, &cmd); err != nil {
		return nil, fmt.Errorf("mongo: parse command: %w", err)
	}
	if len(cmd) == 0 {
		return nil, errors.New("mongo: empty command")
	}
	return cmd, nil
}

// Exec runs stmt as a database command.
func (r *Repository) Exec(ctx context.Context, stmt string) error {
	cmd, err := ParseCommand(stmt)
	if err != nil {
		return err
	}
	if err := r.client.Database(r.cfg.Database).RunCommand(ctx, cmd).Err(); err != nil {
		return fmt.Errorf("mongo: run %s: %w", cmd[0].Key, err)
	}
	return nil
}
