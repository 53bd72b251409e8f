// Package db is the storage engine: it owns the connection pool and runs
// every repository operation inside a unit of work that is always released.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/yigit/studentgrades/internal/config"
	"github.com/yigit/studentgrades/internal/pkg/apperrors"
	"github.com/yigit/studentgrades/internal/pkg/dberrors"
)

// Dialect identifies the SQL engine behind a Database
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

const defaultTxTimeout = 30 * time.Second

// Querier is the statement surface shared by *sql.Tx and *sql.Conn. All
// repository code is written against it.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxFunc is a function that executes within a unit of work
type TxFunc func(ctx context.Context, q Querier) error

// Options configures a Database
type Options struct {
	Dialect         Dialect
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// TxTimeout is applied to units of work whose context has no deadline
	TxTimeout time.Duration
	Logger    zerolog.Logger
}

// Database is an explicitly constructed storage handle. It is safe to share
// between repositories; Close releases the pool.
type Database struct {
	sql       *sql.DB
	dialect   Dialect
	builder   squirrel.StatementBuilderType
	txTimeout time.Duration
	logger    zerolog.Logger
}

// Open builds a Database from application configuration
func Open(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*Database, error) {
	opts := Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime(),
		TxTimeout:       cfg.TxTimeout(),
		Logger:          lgr,
	}

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		opts.Dialect = Postgres
		opts.DSN = cfg.GetPostgresConnectionString()
	case config.DriverSQLite:
		opts.Dialect = SQLite
		opts.DSN = SQLiteDSN(cfg.Database.Path)
	default:
		return nil, fmt.Errorf("open database: unsupported driver %q", cfg.Database.Driver)
	}

	return New(ctx, opts)
}

// SQLiteDSN returns the modernc DSN for a database file. The pragmas are
// applied to every pooled connection.
func SQLiteDSN(path string) string {
	return "file:" + path +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_txlock=immediate"
}

// New opens and pings the connection pool described by opts
func New(ctx context.Context, opts Options) (*Database, error) {
	var driverName string
	var placeholders squirrel.PlaceholderFormat
	switch opts.Dialect {
	case Postgres:
		driverName = "pgx"
		placeholders = squirrel.Dollar
	case SQLite:
		driverName = "sqlite"
		placeholders = squirrel.Question
	default:
		return nil, fmt.Errorf("open database: unsupported dialect %q", opts.Dialect)
	}
	if opts.DSN == "" {
		return nil, fmt.Errorf("open database: empty dsn")
	}

	pool, err := sql.Open(driverName, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		pool.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		pool.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		pool.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to establish database connection: %w", err)
	}

	txTimeout := opts.TxTimeout
	if txTimeout <= 0 {
		txTimeout = defaultTxTimeout
	}

	return &Database{
		sql:       pool,
		dialect:   opts.Dialect,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(placeholders),
		txTimeout: txTimeout,
		logger:    opts.Logger.With().Str("component", "db").Str("dialect", string(opts.Dialect)).Logger(),
	}, nil
}

// Close releases the connection pool
func (d *Database) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Ping verifies that the pool can reach the database
func (d *Database) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

// Dialect returns the SQL engine behind the handle
func (d *Database) Dialect() Dialect {
	return d.dialect
}

// Builder returns a squirrel statement builder using the dialect's placeholders
func (d *Database) Builder() squirrel.StatementBuilderType {
	return d.builder
}

// Logger returns the engine's logger
func (d *Database) Logger() zerolog.Logger {
	return d.logger
}

// Stats exposes pool statistics
func (d *Database) Stats() sql.DBStats {
	return d.sql.Stats()
}

func (d *Database) withDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.txTimeout)
}

// RunInTransaction runs fn inside a transaction. fn's error triggers a
// rollback before it is returned; a panic rolls back and is re-raised; a nil
// return commits. Errors come back as *apperrors.StorageError tagged with op.
func (d *Database) RunInTransaction(ctx context.Context, op string, fn TxFunc) error {
	ctx, cancel := d.withDefaultTimeout(ctx)
	defer cancel()

	start := time.Now()
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError(apperrors.ErrStorageFault, op, "failed to begin transaction", err)
	}

	defer func() {
		if r := recover(); r != nil {
			d.rollback(tx, op, fmt.Errorf("panic: %v", r))
			panic(r)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		d.rollback(tx, op, err)
		return dberrors.Classify(op, err)
	}

	if err := tx.Commit(); err != nil {
		return dberrors.Classify(op, fmt.Errorf("commit: %w", err))
	}

	d.logger.Debug().Str("op", op).Dur("elapsed", time.Since(start)).Msg("Transaction committed")
	return nil
}

func (d *Database) rollback(tx *sql.Tx, op string, cause error) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		d.logger.Error().Err(err).AnErr("cause", cause).Str("op", op).Msg("Failed to rollback transaction")
		return
	}
	d.logger.Debug().AnErr("cause", cause).Str("op", op).Msg("Transaction rolled back")
}

// RunReadOnly runs fn on a dedicated pooled connection without a transaction
// boundary. The connection is returned to the pool on every exit path.
func (d *Database) RunReadOnly(ctx context.Context, op string, fn TxFunc) error {
	ctx, cancel := d.withDefaultTimeout(ctx)
	defer cancel()

	conn, err := d.sql.Conn(ctx)
	if err != nil {
		return apperrors.NewStorageError(apperrors.ErrStorageFault, op, "failed to acquire connection", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			d.logger.Warn().Err(err).Str("op", op).Msg("Failed to release connection")
		}
	}()

	if err := fn(ctx, conn); err != nil {
		return dberrors.Classify(op, err)
	}
	return nil
}

// InTx is RunInTransaction for operations that produce a value
func InTx[T any](ctx context.Context, d *Database, op string, fn func(ctx context.Context, q Querier) (T, error)) (T, error) {
	var out T
	err := d.RunInTransaction(ctx, op, func(ctx context.Context, q Querier) error {
		v, err := fn(ctx, q)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Read is RunReadOnly for queries that produce a value
func Read[T any](ctx context.Context, d *Database, op string, fn func(ctx context.Context, q Querier) (T, error)) (T, error) {
	var out T
	err := d.RunReadOnly(ctx, op, func(ctx context.Context, q Querier) error {
		v, err := fn(ctx, q)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
