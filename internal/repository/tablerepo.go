package repository

import (
	"context"

	"github.com/and161185/nutrito/internal/model"
)

// TableRepository provides generic row access to the synced tables.
type TableRepository interface {
	// Select returns every row of a table, optionally ordered.
	Select(ctx context.Context, q model.SelectQuery) ([]model.Row, error)

	// Insert stores a row and returns it as persisted (with column defaults applied).
	Insert(ctx context.Context, table string, row model.Row) (model.Row, error)

	// Update applies fields to the rows matching m and returns the affected count.
	Update(ctx context.Context, table string, m model.Match, fields model.Fields) (int64, error)

	// Delete removes a row by id and returns the affected count.
	Delete(ctx context.Context, table, id string) (int64, error)

	// Upsert inserts rows or updates the ones conflicting on onConflict, atomically.
	Upsert(ctx context.Context, table string, rows []model.Row, onConflict string) (int, error)
}
