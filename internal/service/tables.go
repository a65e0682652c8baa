package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/and161185/nutrito/internal/errs"
	"github.com/and161185/nutrito/internal/model"
	"github.com/and161185/nutrito/internal/repository"
)

// TableService defines the generic table operations exposed to clients.
type TableService interface {
	// Select returns all rows of a table, optionally ordered.
	Select(ctx context.Context, q model.SelectQuery) ([]model.Row, error)
	// Insert stores a client-keyed row and returns it as persisted.
	Insert(ctx context.Context, table string, row model.Row) (model.Row, error)
	// Update applies a partial update to the rows matching m.
	Update(ctx context.Context, table string, m model.Match, fields model.Fields) (int64, error)
	// Delete removes a row by id.
	Delete(ctx context.Context, table, id string) (int64, error)
	// Upsert writes a batch atomically, updating rows that conflict on onConflict.
	Upsert(ctx context.Context, table string, rows []model.Row, onConflict string) (int, error)
}

type TableServiceImpl struct {
	repo     repository.TableRepository
	maxBatch int
}

// NewTableService constructs TableService with batch limits.
func NewTableService(repo repository.TableRepository, maxBatch int) *TableServiceImpl {
	if maxBatch <= 0 {
		maxBatch = 1000
	}
	return &TableServiceImpl{repo: repo, maxBatch: maxBatch}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errs.ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// Select validates the table and order column.
func (s *TableServiceImpl) Select(ctx context.Context, q model.SelectQuery) ([]model.Row, error) {
	t, err := repository.LookupTable(q.Table)
	if err != nil {
		return nil, err
	}
	if err := t.CheckOrder(q.Order); err != nil {
		return nil, err
	}
	return s.repo.Select(ctx, q)
}

// Insert requires a non-empty string id and known columns.
func (s *TableServiceImpl) Insert(ctx context.Context, table string, row model.Row) (model.Row, error) {
	if err := checkRow(table, row); err != nil {
		return nil, err
	}
	return s.repo.Insert(ctx, table, row)
}

// Update requires a permitted match column, a value, and at least one known field.
func (s *TableServiceImpl) Update(ctx context.Context, table string, m model.Match, fields model.Fields) (int64, error) {
	t, err := repository.LookupTable(table)
	if err != nil {
		return 0, err
	}
	if err := t.CheckMatch(m.Column); err != nil {
		return 0, err
	}
	if strings.TrimSpace(m.Value) == "" {
		return 0, invalid("empty match value")
	}
	if len(fields) == 0 {
		return 0, invalid("no fields to update")
	}
	if _, ok := fields["id"]; ok {
		return 0, invalid("id is immutable")
	}
	if err := t.CheckColumns(keys(fields)); err != nil {
		return 0, err
	}
	return s.repo.Update(ctx, table, m, fields)
}

// Delete requires an id.
func (s *TableServiceImpl) Delete(ctx context.Context, table, id string) (int64, error) {
	if _, err := repository.LookupTable(table); err != nil {
		return 0, err
	}
	if strings.TrimSpace(id) == "" {
		return 0, invalid("empty id")
	}
	return s.repo.Delete(ctx, table, id)
}

// Upsert validates every row; an empty conflict key means "id".
func (s *TableServiceImpl) Upsert(ctx context.Context, table string, rows []model.Row, onConflict string) (int, error) {
	t, err := repository.LookupTable(table)
	if err != nil {
		return 0, err
	}
	if onConflict == "" {
		onConflict = "id"
	}
	if err := t.CheckConflict(onConflict); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if len(rows) > s.maxBatch {
		return 0, invalid("batch too large (%d > %d)", len(rows), s.maxBatch)
	}
	for i, r := range rows {
		if err := checkRow(table, r); err != nil {
			return 0, fmt.Errorf("row[%d]: %w", i, err)
		}
		if v, ok := r[onConflict].(string); !ok || v == "" {
			return 0, invalid("row[%d]: empty %s", i, onConflict)
		}
	}
	return s.repo.Upsert(ctx, table, rows, onConflict)
}

func checkRow(table string, row model.Row) error {
	t, err := repository.LookupTable(table)
	if err != nil {
		return err
	}
	if id, ok := row["id"].(string); !ok || strings.TrimSpace(id) == "" {
		return invalid("row without id")
	}
	return t.CheckColumns(keys(row))
}

func keys[M ~map[string]any](m M) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
