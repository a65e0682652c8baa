package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/and161185/nutrito/internal/errs"
	"github.com/and161185/nutrito/internal/model"
	"github.com/and161185/nutrito/internal/repository"
	"github.com/jackc/pgx/v5"
)

// TableRepo implements TableRepository using PostgreSQL.
//
// Row values travel as a single jsonb parameter expanded with
// jsonb_populate_record, so Postgres does the per-column type conversion
// (dates, numerics, jsonb) and only the columns present in the row are written.
type TableRepo struct{ db *DB }

// NewTableRepo constructs a table repository.
func NewTableRepo(db *DB) *TableRepo { return &TableRepo{db: db} }

// Select returns all rows of a table as JSON objects.
func (r *TableRepo) Select(ctx context.Context, q model.SelectQuery) ([]model.Row, error) {
	t, err := repository.LookupTable(q.Table)
	if err != nil {
		return nil, err
	}
	if err := t.CheckOrder(q.Order); err != nil {
		return nil, err
	}

	sql := selectSQL(t.Name, q.Order, q.Ascending)
	rows, err := r.db.Pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Row, 0, 16)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var row model.Row
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("decode %s row: %w", t.Name, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Insert stores one row and returns it as persisted.
func (r *TableRepo) Insert(ctx context.Context, table string, row model.Row) (model.Row, error) {
	t, cols, payload, err := prepare(table, row)
	if err != nil {
		return nil, err
	}

	var raw []byte
	if err := r.db.Pool.QueryRow(ctx, insertSQL(t.Name, cols), payload).Scan(&raw); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", t.Name, errs.ErrAlreadyExists)
		}
		return nil, err
	}
	var out model.Row
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s row: %w", t.Name, err)
	}
	return out, nil
}

// Update applies fields to the rows whose match column equals m.Value.
func (r *TableRepo) Update(ctx context.Context, table string, m model.Match, fields model.Fields) (int64, error) {
	t, cols, payload, err := prepare(table, model.Row(fields))
	if err != nil {
		return 0, err
	}
	if err := t.CheckMatch(m.Column); err != nil {
		return 0, err
	}
	key, err := json.Marshal(map[string]string{m.Column: m.Value})
	if err != nil {
		return 0, err
	}

	tag, err := r.db.Pool.Exec(ctx, updateSQL(t.Name, cols, m.Column), payload, string(key))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Delete removes a row by id.
func (r *TableRepo) Delete(ctx context.Context, table, id string) (int64, error) {
	t, err := repository.LookupTable(table)
	if err != nil {
		return 0, err
	}
	tag, err := r.db.Pool.Exec(ctx, deleteSQL(t.Name), id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Upsert writes rows in one transaction; rows conflicting on onConflict are updated.
func (r *TableRepo) Upsert(
	ctx context.Context, table string, rows []model.Row, onConflict string,
) (n int, err error) {
	t, err := repository.LookupTable(table)
	if err != nil {
		return 0, err
	}
	if err := t.CheckConflict(onConflict); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	for i, row := range rows {
		_, cols, payload, perr := prepare(table, row)
		if perr != nil {
			return 0, fmt.Errorf("row[%d]: %w", i, perr)
		}
		if !slices.Contains(cols, onConflict) {
			return 0, fmt.Errorf("row[%d]: %w: missing %q", i, errs.ErrInvalidArgument, onConflict)
		}
		if _, err = tx.Exec(ctx, upsertSQL(t.Name, cols, onConflict), payload); err != nil {
			return 0, fmt.Errorf("row[%d]: %w", i, err)
		}
		n++
	}
	return n, nil
}

// prepare validates a row against the table whitelist and returns its sorted
// column list and jsonb payload.
func prepare(table string, row model.Row) (repository.Table, []string, string, error) {
	t, err := repository.LookupTable(table)
	if err != nil {
		return t, nil, "", err
	}
	if len(row) == 0 {
		return t, nil, "", fmt.Errorf("%w: empty row for %s", errs.ErrInvalidArgument, t.Name)
	}
	cols := make([]string, 0, len(row))
	for c := range row {
		cols = append(cols, c)
	}
	slices.Sort(cols)
	if err := t.CheckColumns(cols); err != nil {
		return t, nil, "", err
	}
	b, err := json.Marshal(row)
	if err != nil {
		return t, nil, "", fmt.Errorf("encode %s row: %w", t.Name, err)
	}
	return t, cols, string(b), nil
}

func selectSQL(table, order string, asc bool) string {
	q := fmt.Sprintf("SELECT to_jsonb(t.*) FROM %s AS t", table)
	if order != "" {
		dir := "DESC"
		if asc {
			dir = "ASC"
		}
		q += fmt.Sprintf(" ORDER BY t.%s %s", order, dir)
	}
	return q
}

func insertSQL(table string, cols []string) string {
	return fmt.Sprintf(
		"INSERT INTO %[1]s AS t (%[2]s) SELECT %[3]s FROM jsonb_populate_record(NULL::%[1]s, $1::jsonb) AS r RETURNING to_jsonb(t.*)",
		table, strings.Join(cols, ", "), prefixed("r.", cols))
}

func updateSQL(table string, cols []string, match string) string {
	set := make([]string, len(cols))
	for i, c := range cols {
		set[i] = c + " = r." + c
	}
	return fmt.Sprintf(
		"UPDATE %[1]s AS t SET %[2]s FROM jsonb_populate_record(NULL::%[1]s, $1::jsonb) AS r, jsonb_populate_record(NULL::%[1]s, $2::jsonb) AS m WHERE t.%[3]s = m.%[3]s",
		table, strings.Join(set, ", "), match)
}

func deleteSQL(table string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE id = $1", table)
}

func upsertSQL(table string, cols []string, conflict string) string {
	set := make([]string, 0, len(cols))
	for _, c := range cols {
		if c != conflict {
			set = append(set, c+" = EXCLUDED."+c)
		}
	}
	action := "DO NOTHING"
	if len(set) > 0 {
		action = "DO UPDATE SET " + strings.Join(set, ", ")
	}
	return fmt.Sprintf(
		"INSERT INTO %[1]s AS t (%[2]s) SELECT %[3]s FROM jsonb_populate_record(NULL::%[1]s, $1::jsonb) AS r ON CONFLICT (%[4]s) %[5]s",
		table, strings.Join(cols, ", "), prefixed("r.", cols), conflict, action)
}

func prefixed(p string, cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = p + c
	}
	return strings.Join(out, ", ")
}
