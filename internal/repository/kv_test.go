package repository

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-discovery-sinema/internal/database"
)

func newTestBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewBadgerStore(db)
}

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb)
}

func newTestSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := database.NewSQLite(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLStore(db, DialectSQLite)
}

func TestKVStores(t *testing.T) {
	backends := map[string]func(t *testing.T) KVStore{
		"memory": func(t *testing.T) KVStore { return NewMemoryStore() },
		"badger": func(t *testing.T) KVStore { return newTestBadgerStore(t) },
		"redis":  func(t *testing.T) KVStore { return newTestRedisStore(t) },
		"sqlite": func(t *testing.T) KVStore { return newTestSQLiteStore(t) },
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			ctx := context.Background()

			_, err := store.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrKeyNotFound)

			require.NoError(t, store.Set(ctx, "k", []byte(`{"a":1}`)))
			got, err := store.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, `{"a":1}`, string(got))

			require.NoError(t, store.Set(ctx, "k", []byte(`{"a":2}`)))
			got, err = store.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, `{"a":2}`, string(got))

			require.NoError(t, store.Delete(ctx, "k"))
			_, err = store.Get(ctx, "k")
			assert.ErrorIs(t, err, ErrKeyNotFound)

			// deleting twice is fine
			require.NoError(t, store.Delete(ctx, "k"))
		})
	}
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	buf := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", buf))
	buf[0] = 'z'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestSQLStore_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewSQLStore(db, DialectPostgres)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, NOW())`)).
		WithArgs("sinema_user", `{"username":"alice"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv_store WHERE key = $1`)).
		WithArgs("sinema_user").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`{"username":"alice"}`))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM kv_store WHERE key = $1`)).
		WithArgs("sinema_user").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv_store WHERE key = $1`)).
		WithArgs("sinema_user").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	require.NoError(t, store.Set(ctx, "sinema_user", []byte(`{"username":"alice"}`)))

	got, err := store.Get(ctx, "sinema_user")
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"alice"}`, string(got))

	require.NoError(t, store.Delete(ctx, "sinema_user"))

	_, err = store.Get(ctx, "sinema_user")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
