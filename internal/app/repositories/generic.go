package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"

	"github.com/yigit/studentgrades/internal/db"
	"github.com/yigit/studentgrades/internal/pkg/apperrors"
)

// Repository is the CRUD surface shared by every entity kind. Each call runs
// in its own unit of work.
type Repository[T any, ID ~int64] interface {
	// Save inserts a new entity and assigns its generated identity
	Save(ctx context.Context, entity *T) error
	// Update rewrites an existing entity, NotFound if its identity is unknown
	Update(ctx context.Context, entity *T) error
	// SaveOrUpdate inserts when the identity is zero or unknown, updates otherwise
	SaveOrUpdate(ctx context.Context, entity *T) error
	Delete(ctx context.Context, entity *T) error
	DeleteByID(ctx context.Context, id ID) error
	FindByID(ctx context.Context, id ID) (*T, error)
	FindAll(ctx context.Context) ([]*T, error)
	Count(ctx context.Context) (int64, error)
	ExistsByID(ctx context.Context, id ID) (bool, error)
}

type scanner interface {
	Scan(dest ...any) error
}

// cascadeFunc removes the rows owned by id before the row itself is deleted
type cascadeFunc[ID ~int64] func(ctx context.Context, q db.Querier, b squirrel.StatementBuilderType, id ID) error

// table describes how one entity kind maps onto its table
type table[T any, ID ~int64] struct {
	name string
	// kind is the singular entity name used in messages
	kind string
	// columns are the mutable columns, in the order values returns them
	columns []string
	getID   func(*T) ID
	setID   func(*T, ID)
	values  func(*T) []any
	// scan reads "id" followed by columns
	scan     func(scanner) (*T, error)
	validate func(*T) error
	cascade  cascadeFunc[ID]
}

// selectColumns returns id plus columns, qualified by the table name
func (t *table[T, ID]) selectColumns() []string {
	out := make([]string, 0, len(t.columns)+1)
	out = append(out, t.name+".id")
	for _, c := range t.columns {
		out = append(out, t.name+"."+c)
	}
	return out
}

func (t *table[T, ID]) op(action string) string {
	return t.name + "." + action
}

// crudRepository implements Repository once for every table descriptor
type crudRepository[T any, ID ~int64] struct {
	db     *db.Database
	t      table[T, ID]
	logger zerolog.Logger
}

func newCRUDRepository[T any, ID ~int64](database *db.Database, t table[T, ID]) crudRepository[T, ID] {
	return crudRepository[T, ID]{
		db:     database,
		t:      t,
		logger: database.Logger().With().Str("repository", t.name).Logger(),
	}
}

func (r *crudRepository[T, ID]) builder() squirrel.StatementBuilderType {
	return r.db.Builder()
}

// selectQuery starts a SELECT of the entity's columns from its table
func (r *crudRepository[T, ID]) selectQuery() squirrel.SelectBuilder {
	return r.builder().Select(r.t.selectColumns()...).From(r.t.name)
}

func (r *crudRepository[T, ID]) validate(op string, entity *T) error {
	if entity == nil {
		return apperrors.Validation(op, "%s must not be nil", r.t.kind)
	}
	if r.t.validate == nil {
		return nil
	}
	if err := r.t.validate(entity); err != nil {
		return apperrors.NewStorageError(apperrors.ErrValidationFailed, op, "invalid "+r.t.kind, err)
	}
	return nil
}

// logFailure records failures that are not plain caller mistakes
func (r *crudRepository[T, ID]) logFailure(op string, err error) {
	if err == nil {
		return
	}
	if apperrors.Is(err, apperrors.ErrStorageFault) {
		r.logger.Error().Err(err).Str("op", op).Msg("Repository operation failed")
		return
	}
	r.logger.Debug().Err(err).Str("op", op).Msg("Repository operation rejected")
}

func (r *crudRepository[T, ID]) insert(ctx context.Context, q db.Querier, entity *T) error {
	sqlText, args, err := r.builder().
		Insert(r.t.name).
		Columns(r.t.columns...).
		Values(r.t.values(entity)...).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	var id int64
	if err := q.QueryRowContext(ctx, sqlText, args...).Scan(&id); err != nil {
		return err
	}
	r.t.setID(entity, ID(id))
	return nil
}

func (r *crudRepository[T, ID]) update(ctx context.Context, q db.Querier, op string, entity *T) error {
	id := r.t.getID(entity)
	values := r.t.values(entity)
	set := make(map[string]any, len(r.t.columns))
	for i, c := range r.t.columns {
		set[c] = values[i]
	}

	sqlText, args, err := r.builder().
		Update(r.t.name).
		SetMap(set).
		Where(squirrel.Eq{"id": int64(id)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := q.ExecContext(ctx, sqlText, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.NotFound(op, "%s %d not found", r.t.kind, int64(id))
	}
	return nil
}

func (r *crudRepository[T, ID]) exists(ctx context.Context, q db.Querier, id ID) (bool, error) {
	return existsWhere(ctx, q, r.builder(), r.t.name, squirrel.Eq{"id": int64(id)})
}

func (r *crudRepository[T, ID]) deleteByID(ctx context.Context, q db.Querier, id ID) error {
	if r.t.cascade != nil {
		if err := r.t.cascade(ctx, q, r.builder(), id); err != nil {
			return err
		}
	}
	return execDelete(ctx, q, r.builder().Delete(r.t.name).Where(squirrel.Eq{"id": int64(id)}))
}

// Save inserts a new entity and assigns its generated identity
func (r *crudRepository[T, ID]) Save(ctx context.Context, entity *T) error {
	op := r.t.op("save")
	if err := r.validate(op, entity); err != nil {
		return err
	}
	if id := r.t.getID(entity); id != 0 {
		return apperrors.Validation(op, "%s already has identity %d", r.t.kind, int64(id))
	}

	err := r.db.RunInTransaction(ctx, op, func(ctx context.Context, q db.Querier) error {
		return r.insert(ctx, q, entity)
	})
	if err != nil {
		r.t.setID(entity, 0)
	}
	r.logFailure(op, err)
	return err
}

// Update rewrites every mutable column of an existing entity
func (r *crudRepository[T, ID]) Update(ctx context.Context, entity *T) error {
	op := r.t.op("update")
	if err := r.validate(op, entity); err != nil {
		return err
	}

	err := r.db.RunInTransaction(ctx, op, func(ctx context.Context, q db.Querier) error {
		return r.update(ctx, q, op, entity)
	})
	r.logFailure(op, err)
	return err
}

// SaveOrUpdate merges entity into the store. A zero or unknown identity is
// replaced by a freshly generated one.
func (r *crudRepository[T, ID]) SaveOrUpdate(ctx context.Context, entity *T) error {
	op := r.t.op("save_or_update")
	if err := r.validate(op, entity); err != nil {
		return err
	}

	previous := r.t.getID(entity)
	err := r.db.RunInTransaction(ctx, op, func(ctx context.Context, q db.Querier) error {
		id := r.t.getID(entity)
		if id != 0 {
			found, err := r.exists(ctx, q, id)
			if err != nil {
				return err
			}
			if found {
				return r.update(ctx, q, op, entity)
			}
		}

		return r.insert(ctx, q, entity)
	})
	if err != nil {
		r.t.setID(entity, previous)
	}
	r.logFailure(op, err)
	return err
}

// Delete removes entity and everything it owns. Entities never stored are a no-op.
func (r *crudRepository[T, ID]) Delete(ctx context.Context, entity *T) error {
	if entity == nil {
		return apperrors.Validation(r.t.op("delete"), "%s must not be nil", r.t.kind)
	}
	id := r.t.getID(entity)
	if id == 0 {
		return nil
	}
	return r.DeleteByID(ctx, id)
}

// DeleteByID removes the row and everything it owns; an absent id is a no-op
func (r *crudRepository[T, ID]) DeleteByID(ctx context.Context, id ID) error {
	op := r.t.op("delete")
	err := r.db.RunInTransaction(ctx, op, func(ctx context.Context, q db.Querier) error {
		return r.deleteByID(ctx, q, id)
	})
	r.logFailure(op, err)
	return err
}

// FindByID returns the entity or a NotFound error
func (r *crudRepository[T, ID]) FindByID(ctx context.Context, id ID) (*T, error) {
	op := r.t.op("find_by_id")
	entity, err := db.Read(ctx, r.db, op, func(ctx context.Context, q db.Querier) (*T, error) {
		found, err := r.queryOne(ctx, q, r.selectQuery().Where(squirrel.Eq{r.t.name + ".id": int64(id)}))
		if err != nil {
			return nil, err
		}
		if found == nil {
			return nil, apperrors.NotFound(op, "%s %d not found", r.t.kind, int64(id))
		}
		return found, nil
	})
	r.logFailure(op, err)
	return entity, err
}

// FindAll returns every entity ordered by identity
func (r *crudRepository[T, ID]) FindAll(ctx context.Context) ([]*T, error) {
	return r.list(ctx, r.t.op("find_all"), r.selectQuery().OrderBy(r.t.name+".id"))
}

// Count returns the number of stored entities
func (r *crudRepository[T, ID]) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, r.t.op("count"), r.builder().Select("COUNT(*)").From(r.t.name))
}

// ExistsByID reports whether an entity with id is stored
func (r *crudRepository[T, ID]) ExistsByID(ctx context.Context, id ID) (bool, error) {
	op := r.t.op("exists_by_id")
	ok, err := db.Read(ctx, r.db, op, func(ctx context.Context, q db.Querier) (bool, error) {
		return r.exists(ctx, q, id)
	})
	r.logFailure(op, err)
	return ok, err
}

// queryOne runs sb and scans the first row; nil when there is none
func (r *crudRepository[T, ID]) queryOne(ctx context.Context, q db.Querier, sb squirrel.SelectBuilder) (*T, error) {
	items, err := r.queryList(ctx, q, sb.Limit(1))
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

// queryList runs sb inside an open unit of work and scans every row
func (r *crudRepository[T, ID]) queryList(ctx context.Context, q db.Querier, sb squirrel.SelectBuilder) ([]*T, error) {
	sqlText, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := q.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*T, 0)
	for rows.Next() {
		item, err := r.t.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// list runs sb in a read-only unit of work
func (r *crudRepository[T, ID]) list(ctx context.Context, op string, sb squirrel.SelectBuilder) ([]*T, error) {
	items, err := db.Read(ctx, r.db, op, func(ctx context.Context, q db.Querier) ([]*T, error) {
		return r.queryList(ctx, q, sb)
	})
	r.logFailure(op, err)
	return items, err
}

// one runs sb in a read-only unit of work, NotFound when no row matches
func (r *crudRepository[T, ID]) one(ctx context.Context, op string, sb squirrel.SelectBuilder, format string, args ...any) (*T, error) {
	item, err := db.Read(ctx, r.db, op, func(ctx context.Context, q db.Querier) (*T, error) {
		found, err := r.queryOne(ctx, q, sb)
		if err != nil {
			return nil, err
		}
		if found == nil {
			return nil, apperrors.NotFound(op, format, args...)
		}
		return found, nil
	})
	r.logFailure(op, err)
	return item, err
}

func (r *crudRepository[T, ID]) count(ctx context.Context, op string, sb squirrel.SelectBuilder) (int64, error) {
	n, err := db.Read(ctx, r.db, op, func(ctx context.Context, q db.Querier) (int64, error) {
		return queryInt(ctx, q, sb)
	})
	r.logFailure(op, err)
	return n, err
}

func (r *crudRepository[T, ID]) existsWhere(ctx context.Context, op, from string, where squirrel.Sqlizer) (bool, error) {
	ok, err := db.Read(ctx, r.db, op, func(ctx context.Context, q db.Querier) (bool, error) {
		return existsWhere(ctx, q, r.builder(), from, where)
	})
	r.logFailure(op, err)
	return ok, err
}

// column runs a single-column string query, e.g. a DISTINCT listing
func (r *crudRepository[T, ID]) column(ctx context.Context, op string, sb squirrel.SelectBuilder) ([]string, error) {
	out, err := db.Read(ctx, r.db, op, func(ctx context.Context, q db.Querier) ([]string, error) {
		sqlText, args, err := sb.ToSql()
		if err != nil {
			return nil, fmt.Errorf("build select: %w", err)
		}
		rows, err := q.QueryContext(ctx, sqlText, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		values := make([]string, 0)
		for rows.Next() {
			var v string
			if err := rows.Scan(&v); err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return values, rows.Err()
	})
	r.logFailure(op, err)
	return out, err
}

func queryInt(ctx context.Context, q db.Querier, sb squirrel.SelectBuilder) (int64, error) {
	sqlText, args, err := sb.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build select: %w", err)
	}
	var n int64
	if err := q.QueryRowContext(ctx, sqlText, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func existsWhere(ctx context.Context, q db.Querier, b squirrel.StatementBuilderType, from string, where squirrel.Sqlizer) (bool, error) {
	n, err := queryInt(ctx, q, b.Select("COUNT(*)").From(from).Where(where))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func execDelete(ctx context.Context, q db.Querier, del squirrel.DeleteBuilder) error {
	sqlText, args, err := del.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	_, err = q.ExecContext(ctx, sqlText, args...)
	return err
}
