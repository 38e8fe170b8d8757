// Package memory is a process-local implementation of the repository contracts.
// It enforces the same uniqueness and version rules as the Postgres schema and
// backs the service tests and the "memory" database driver.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type recordPtr[T any] interface {
	*T
	model.Record
}

// uniqueIndex mirrors a partial unique index: rows for which key reports
// ok=false do not participate.
type uniqueIndex[T any] struct {
	err error
	key func(*T) (string, bool)
}

type table[T any, P recordPtr[T]] struct {
	mu      sync.RWMutex
	rows    map[uuid.UUID]*T
	clone   func(*T) *T
	columns map[string]func(*T) interface{}
	unique  []uniqueIndex[T]
	now     func() time.Time
}

func newTable[T any, P recordPtr[T]](clone func(*T) *T, columns map[string]func(*T) interface{}, unique ...uniqueIndex[T]) *table[T, P] {
	return &table[T, P]{
		rows:    make(map[uuid.UUID]*T),
		clone:   clone,
		columns: columns,
		unique:  unique,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func meta[T any, P recordPtr[T]](r *T) *model.Base {
	return P(r).Meta()
}

// checkUnique must be called with mu held.
func (t *table[T, P]) checkUnique(candidate *T) error {
	id := meta[T, P](candidate).ID
	for _, idx := range t.unique {
		key, ok := idx.key(candidate)
		if !ok {
			continue
		}
		for otherID, row := range t.rows {
			if otherID == id {
				continue
			}
			if other, ok := idx.key(row); ok && other == key {
				return idx.err
			}
		}
	}
	return nil
}

func (t *table[T, P]) insert(ctx context.Context, rec *T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.insertLocked(ctx, rec)
}

func (t *table[T, P]) insertLocked(ctx context.Context, rec *T) error {
	b := meta[T, P](rec)
	b.Stamp(model.ActorName(ctx), t.now())
	if _, exists := t.rows[b.ID]; exists {
		return fmt.Errorf("%w: id %s", repository.ErrDuplicate, b.ID)
	}
	if err := t.checkUnique(rec); err != nil {
		return err
	}
	t.rows[b.ID] = t.clone(rec)
	return nil
}

func (t *table[T, P]) update(ctx context.Context, rec *T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.updateLocked(ctx, rec)
}

// updateLocked is the compare-and-swap write. On success rec carries the new version.
func (t *table[T, P]) updateLocked(ctx context.Context, rec *T) error {
	b := meta[T, P](rec)
	current, err := t.casTargetLocked(b.ID, b.Version)
	if err != nil {
		return err
	}

	next := t.clone(rec)
	nb := meta[T, P](next)
	nb.Touch(model.ActorName(ctx), t.now())
	nb.Version = b.Version + 1
	cb := meta[T, P](current)
	nb.CreatedAt, nb.CreatedBy = cb.CreatedAt, cb.CreatedBy
	nb.Deleted, nb.DeletedAt = false, nil

	if err := t.checkUnique(next); err != nil {
		return err
	}
	t.rows[b.ID] = next
	*b = *meta[T, P](t.clone(next))
	return nil
}

// casTargetLocked returns the active row for id if it is still at version.
func (t *table[T, P]) casTargetLocked(id uuid.UUID, version int64) (*T, error) {
	row, ok := t.rows[id]
	if !ok || meta[T, P](row).Deleted {
		return nil, repository.ErrNotFound
	}
	if meta[T, P](row).Version != version {
		return nil, repository.ErrVersionConflict
	}
	return row, nil
}

func (t *table[T, P]) FindActive(_ context.Context, id uuid.UUID) (*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	row, ok := t.rows[id]
	if !ok || meta[T, P](row).Deleted {
		return nil, repository.ErrNotFound
	}
	return t.clone(row), nil
}

// findActiveBy returns the first active row matching pred.
func (t *table[T, P]) findActiveBy(pred func(*T) bool) (*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, row := range t.rows {
		if !meta[T, P](row).Deleted && pred(row) {
			return t.clone(row), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (t *table[T, P]) listActive(pred func(*T) bool) []*T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*T, 0)
	for _, row := range t.rows {
		if !meta[T, P](row).Deleted && pred(row) {
			out = append(out, t.clone(row))
		}
	}
	return out
}

func (t *table[T, P]) FindActivePage(_ context.Context, criteria repository.Criteria, page model.Pagination) (*model.Page[T], error) {
	page = page.Normalize()

	for col := range criteria.Filters {
		if _, ok := t.columns[col]; !ok {
			return nil, fmt.Errorf("%w: filter %q", repository.ErrInvalidCriteria, col)
		}
	}
	sortCol := criteria.Sort.Field
	if sortCol == "" {
		sortCol = "created_at"
	}
	sortBy, ok := t.columns[sortCol]
	if !ok {
		return nil, fmt.Errorf("%w: sort %q", repository.ErrInvalidCriteria, sortCol)
	}

	t.mu.RLock()
	matched := make([]*T, 0)
	for _, row := range t.rows {
		if meta[T, P](row).Deleted {
			continue
		}
		if matches(row, criteria.Filters, t.columns) {
			matched = append(matched, t.clone(row))
		}
	}
	t.mu.RUnlock()

	desc := criteria.Sort.Descending()
	sort.SliceStable(matched, func(i, j int) bool {
		c := compare(sortBy(matched[i]), sortBy(matched[j]))
		if c == 0 {
			c = strings.Compare(meta[T, P](matched[i]).ID.String(), meta[T, P](matched[j]).ID.String())
		}
		if desc {
			return c > 0
		}
		return c < 0
	})

	result := &model.Page[T]{Items: []*T{}, Total: len(matched), Page: page.Page, PageSize: page.PageSize}
	if start := page.Offset(); start < len(matched) {
		end := start + page.PageSize
		if end > len(matched) {
			end = len(matched)
		}
		result.Items = matched[start:end]
	}
	return result, nil
}

func (t *table[T, P]) FindAllDeleted(_ context.Context) ([]*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*T, 0)
	for _, row := range t.rows {
		if meta[T, P](row).Deleted {
			out = append(out, t.clone(row))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return meta[T, P](out[i]).DeletedAt.Before(*meta[T, P](out[j]).DeletedAt)
	})
	return out, nil
}

func (t *table[T, P]) SoftDelete(ctx context.Context, id uuid.UUID, expectedVersion int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, err := t.casTargetLocked(id, expectedVersion)
	if err != nil {
		return err
	}
	next := t.clone(current)
	b := meta[T, P](next)
	now := t.now()
	b.Deleted = true
	b.DeletedAt = &now
	b.Touch(model.ActorName(ctx), now)
	b.Version++
	t.rows[id] = next
	return nil
}

func (t *table[T, P]) HardDelete(_ context.Context, id uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(t.rows, id)
	return nil
}

func matches[T any](row *T, filters map[string]interface{}, columns map[string]func(*T) interface{}) bool {
	for col, want := range filters {
		if compare(columns[col](row), want) != 0 {
			return false
		}
	}
	return true
}
