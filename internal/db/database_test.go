package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/yigit/studentgrades/internal/config"
	"github.com/yigit/studentgrades/internal/pkg/apperrors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	d, err := New(context.Background(), Options{
		Dialect:      SQLite,
		DSN:          SQLiteDSN(filepath.Join(t.TempDir(), "engine.db")),
		MaxOpenConns: 4,
		Logger:       zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, d.Close()) })

	err = d.RunInTransaction(context.Background(), "test.schema", func(ctx context.Context, q Querier) error {
		_, err := q.ExecContext(ctx, `CREATE TABLE items (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE)`)
		return err
	})
	require.NoError(t, err)
	return d
}

func countItems(t *testing.T, d *Database) int64 {
	t.Helper()
	n, err := Read(context.Background(), d, "test.count", func(ctx context.Context, q Querier) (int64, error) {
		var n int64
		err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n)
		return n, err
	})
	require.NoError(t, err)
	return n
}

func TestRunInTransactionCommitsOnSuccess(t *testing.T) {
	d := newTestDatabase(t)

	err := d.RunInTransaction(context.Background(), "items.insert", func(ctx context.Context, q Querier) error {
		_, err := q.ExecContext(ctx, `INSERT INTO items(name) VALUES (?)`, "a")
		return err
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), countItems(t, d))
}

func TestRunInTransactionRollsBackOnError(t *testing.T) {
	d := newTestDatabase(t)
	boom := errors.New("boom")

	err := d.RunInTransaction(context.Background(), "items.insert", func(ctx context.Context, q Querier) error {
		if _, err := q.ExecContext(ctx, `INSERT INTO items(name) VALUES (?)`, "a"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, err, apperrors.ErrStorageFault)
	require.Zero(t, countItems(t, d))
}

func TestRunInTransactionRollsBackAndRepanics(t *testing.T) {
	d := newTestDatabase(t)

	require.PanicsWithValue(t, "kaboom", func() {
		_ = d.RunInTransaction(context.Background(), "items.insert", func(ctx context.Context, q Querier) error {
			if _, err := q.ExecContext(ctx, `INSERT INTO items(name) VALUES (?)`, "a"); err != nil {
				return err
			}
			panic("kaboom")
		})
	})
	require.Zero(t, countItems(t, d))
	require.Zero(t, d.Stats().InUse)
}

func TestRunInTransactionClassifiesConstraintViolations(t *testing.T) {
	d := newTestDatabase(t)

	insert := func(ctx context.Context, q Querier) error {
		_, err := q.ExecContext(ctx, `INSERT INTO items(name) VALUES (?)`, "dup")
		return err
	}
	require.NoError(t, d.RunInTransaction(context.Background(), "items.insert", insert))

	err := d.RunInTransaction(context.Background(), "items.insert", insert)
	require.ErrorIs(t, err, apperrors.ErrConstraintViolation)

	var se *apperrors.StorageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "items.insert", se.Op)
	require.Equal(t, int64(1), countItems(t, d))
}

func TestRunReadOnlyReleasesConnection(t *testing.T) {
	d := newTestDatabase(t)

	err := d.RunReadOnly(context.Background(), "items.lookup", func(ctx context.Context, q Querier) error {
		var name string
		return q.QueryRowContext(ctx, `SELECT name FROM items WHERE id = ?`, 42).Scan(&name)
	})
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.Zero(t, d.Stats().InUse)
}

func TestInTxReturnsValue(t *testing.T) {
	d := newTestDatabase(t)

	id, err := InTx(context.Background(), d, "items.insert", func(ctx context.Context, q Querier) (int64, error) {
		var id int64
		err := q.QueryRowContext(ctx, `INSERT INTO items(name) VALUES (?) RETURNING id`, "x").Scan(&id)
		return id, err
	})
	require.NoError(t, err)
	require.Positive(t, id)
}

func TestDefaultTimeoutIsApplied(t *testing.T) {
	d := newTestDatabase(t)

	err := d.RunInTransaction(context.Background(), "items.noop", func(ctx context.Context, q Querier) error {
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		require.WithinDuration(t, time.Now().Add(defaultTxTimeout), deadline, 5*time.Second)
		return nil
	})
	require.NoError(t, err)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Driver = "oracle"

	_, err := Open(context.Background(), cfg, zerolog.Nop())
	require.ErrorContains(t, err, "unsupported driver")
}

func TestOpenSQLiteFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "cfg.db")

	d, err := Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer func() { require.NoError(t, d.Close()) }()

	require.Equal(t, SQLite, d.Dialect())
	sqlText, _, err := d.Builder().Select("1").Where("a = ?", 1).ToSql()
	require.NoError(t, err)
	require.Contains(t, sqlText, "a = ?")
}
