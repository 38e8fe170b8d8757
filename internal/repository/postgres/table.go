package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

// softDeleteTable implements repository.SoftDeleteStore for one table.
// R is the scan target; it differs from T when a column needs a driver type
// (text[] or jsonb) that the model does not carry.
type softDeleteTable[T any, R any] struct {
	BaseRepository
	name    string
	columns string
	// queryable lists the columns callers may filter and sort on.
	queryable map[string]bool
	toModel   func(*R) *T
	// hydrate loads owned rows for a batch of records. Optional.
	hydrate func(ctx context.Context, q sqlx.QueryerContext, items []*T) error
}

func (t *softDeleteTable[T, R]) load(ctx context.Context, q sqlx.QueryerContext, query string, args ...interface{}) ([]*T, error) {
	var rows []R
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, mapError(err)
	}
	items := make([]*T, 0, len(rows))
	for i := range rows {
		items = append(items, t.toModel(&rows[i]))
	}
	if t.hydrate != nil && len(items) > 0 {
		if err := t.hydrate(ctx, q, items); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (t *softDeleteTable[T, R]) loadOne(ctx context.Context, q sqlx.QueryerContext, query string, args ...interface{}) (*T, error) {
	items, err := t.load(ctx, q, query, args...)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, repository.ErrNotFound
	}
	return items[0], nil
}

func (t *softDeleteTable[T, R]) FindActive(ctx context.Context, id uuid.UUID) (item *T, err error) {
	defer func(start time.Time) { t.observe(t.name+".find_active", start, err) }(time.Now())

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 AND NOT is_deleted`, t.columns, t.name)
	return t.loadOne(ctx, t.db, query, id)
}

// findActiveWhere loads the single active row matching column = value.
func (t *softDeleteTable[T, R]) findActiveWhere(ctx context.Context, column string, value interface{}) (*T, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND NOT is_deleted`, t.columns, t.name, column)
	return t.loadOne(ctx, t.db, query, value)
}

func (t *softDeleteTable[T, R]) FindActivePage(ctx context.Context, criteria repository.Criteria, page model.Pagination) (result *model.Page[T], err error) {
	defer func(start time.Time) { t.observe(t.name+".find_active_page", start, err) }(time.Now())

	page = page.Normalize()

	where := []string{"NOT is_deleted"}
	args := []interface{}{}
	for col, value := range criteria.Filters {
		if !t.queryable[col] {
			return nil, fmt.Errorf("%w: filter %q", repository.ErrInvalidCriteria, col)
		}
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	sortCol := criteria.Sort.Field
	if sortCol == "" {
		sortCol = "created_at"
	}
	if !t.queryable[sortCol] {
		return nil, fmt.Errorf("%w: sort %q", repository.ErrInvalidCriteria, sortCol)
	}
	dir := "ASC"
	if criteria.Sort.Descending() {
		dir = "DESC"
	}

	clause := strings.Join(where, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, t.name, clause)
	if err := t.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, mapError(err)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY %s %s, id %s LIMIT $%d OFFSET $%d`,
		t.columns, t.name, clause, sortCol, dir, dir, len(args)+1, len(args)+2)
	items, err := t.load(ctx, t.db, query, append(args, page.PageSize, page.Offset())...)
	if err != nil {
		return nil, err
	}

	return &model.Page[T]{Items: items, Total: total, Page: page.Page, PageSize: page.PageSize}, nil
}

func (t *softDeleteTable[T, R]) FindAllDeleted(ctx context.Context) (items []*T, err error) {
	defer func(start time.Time) { t.observe(t.name+".find_all_deleted", start, err) }(time.Now())

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE is_deleted ORDER BY deleted_at, id`, t.columns, t.name)
	return t.load(ctx, t.db, query)
}

func (t *softDeleteTable[T, R]) SoftDelete(ctx context.Context, id uuid.UUID, expectedVersion int64) (err error) {
	defer func(start time.Time) { t.observe(t.name+".soft_delete", start, err) }(time.Now())

	query := fmt.Sprintf(`
		UPDATE %s
		SET is_deleted = TRUE, deleted_at = $1, updated_at = $1, updated_by = $2, version = version + 1
		WHERE id = $3 AND version = $4 AND NOT is_deleted
	`, t.name)
	result, err := t.db.ExecContext(ctx, query, now(), model.ActorName(ctx), id, expectedVersion)
	if err != nil {
		return mapError(err)
	}
	return t.checkSwapped(ctx, t.db, result.RowsAffected, id)
}

func (t *softDeleteTable[T, R]) HardDelete(ctx context.Context, id uuid.UUID) (err error) {
	defer func(start time.Time) { t.observe(t.name+".hard_delete", start, err) }(time.Now())

	result, err := t.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, t.name), id)
	if err != nil {
		return mapError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// checkSwapped tells a lost compare-and-swap apart from a missing record.
func (t *softDeleteTable[T, R]) checkSwapped(ctx context.Context, q sqlx.QueryerContext, rowsAffected func() (int64, error), id uuid.UUID) error {
	rows, err := rowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 1 {
		return nil
	}

	var deleted bool
	err = sqlx.GetContext(ctx, q, &deleted, fmt.Sprintf(`SELECT is_deleted FROM %s WHERE id = $1`, t.name), id)
	if err != nil {
		return mapError(err)
	}
	if deleted {
		return repository.ErrNotFound
	}
	return repository.ErrVersionConflict
}

// baseColumns is the select list shared by every table.
const baseColumns = "id, created_at, updated_at, created_by, updated_by, is_deleted, deleted_at, version"

func queryable(cols ...string) map[string]bool {
	m := make(map[string]bool, len(repository.BaseColumns)+len(cols))
	for _, c := range repository.BaseColumns {
		m[c] = true
	}
	for _, c := range cols {
		m[c] = true
	}
	return m
}

func identity[T any](r *T) *T { return r }
