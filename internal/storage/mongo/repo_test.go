package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"hretl/internal/storage"
)

func TestDocuments(t *testing.T) {
	born := time.Date(1990, 6, 12, 0, 0, 0, 0, time.UTC)
	docs, err := Documents(
		[]string{"EmployeeID", "FullName", "Age", "Salary", "BirthDate"},
		[][]any{{"E001", "Alice Smith", 32, 50000.0, born}, {"E002", nil, 34, 100000.0, nil}},
	)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, bson.D{
		{Key: "EmployeeID", Value: "E001"},
		{Key: "FullName", Value: "Alice Smith"},
		{Key: "Age", Value: 32},
		{Key: "Salary", Value: 50000.0},
		{Key: "BirthDate", Value: born},
	}, docs[0])
	assert.Nil(t, docs[1][1].Value)

	_, err = Documents([]string{"a"}, [][]any{{1, 2}})
	assert.Error(t, err)
}

func TestIndexModel(t *testing.T) {
	m := IndexModel([]string{"EmployeeID"})
	assert.Equal(t, bson.D{{Key: "EmployeeID", Value: 1}}, m.Keys)
	assert.NotNil(t, m.Options)
}

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand(`{"create": "Employees"}`)
	require.NoError(t, err)
	assert.Equal(t, "create", cmd[0].Key)
	assert.Equal(t, "Employees", cmd[0].Value)

	_, err = ParseCommand(`{}`)
	assert.Error(t, err)
	_, err = ParseCommand(`CREATE TABLE x`)
	assert.Error(t, err)
}

func TestNewRepository_Validation(t *testing.T) {
	ctx := context.Background()
	_, _, err := NewRepository(ctx, Config{URI: "postgres://db", Database: "d", Collection: "c"})
	assert.ErrorContains(t, err, "mongodb://")

	_, _, err = NewRepository(ctx, Config{URI: "mongodb://db:27017"})
	assert.ErrorContains(t, err, "database and collection")
}

func TestRegistrationUsesHook(t *testing.T) {
	orig := newRepository
	t.Cleanup(func() { newRepository = orig })

	var got Config
	newRepository = func(_ context.Context, cfg Config) (*Repository, func(), error) {
		got = cfg
		return &Repository{cfg: cfg}, nil, nil
	}
	repo, err := storage.New(context.Background(), storage.Config{
		Kind:       "mongo",
		DSN:        "mongodb://db:27017",
		Database:   "EmployeeManagement",
		Table:      "Employees",
		KeyColumns: []string{"EmployeeID"},
	})
	require.NoError(t, err)
	defer repo.Close()

	assert.Equal(t, Config{
		URI:        "mongodb://db:27017",
		Database:   "EmployeeManagement",
		Collection: "Employees",
		KeyColumns: []string{"EmployeeID"},
	}, got)
	_, ok := repo.(storage.Finalizer)
	assert.True(t, ok, "mongo repository must build its index after the load")
}

func TestFinalize_NoKeys(t *testing.T) {
	r := &Repository{}
	assert.NoError(t, r.Finalize(context.Background()))
}
