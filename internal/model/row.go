package model

import (
	"encoding/json"
	"fmt"
)

// Row is a table row in its JSON object form, as exchanged with the remote backend.
type Row map[string]any

// Fields is a partial update: column name to new value.
type Fields map[string]any

// Match selects the rows an update applies to.
type Match struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

// SelectQuery describes a full-table read.
type SelectQuery struct {
	Table     string `json:"table"`
	Order     string `json:"order,omitempty"`
	Ascending bool   `json:"ascending,omitempty"`
}

// ToRow converts an entity into its row form.
func ToRow(v any) (Row, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	var r Row
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode row: %w", err)
	}
	return r, nil
}

// FromRow decodes a row into an entity.
func FromRow[T any](r Row) (T, error) {
	var out T
	b, err := json.Marshal(r)
	if err != nil {
		return out, fmt.Errorf("encode row: %w", err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("decode row: %w", err)
	}
	return out, nil
}

// FromRows decodes a list of rows.
func FromRows[T any](rows []Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		v, err := FromRow[T](r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Normalize returns f with values in plain JSON form (strings, float64,
// bools, nil, []any, map[string]any) and without the id column.
func (f Fields) Normalize() (Fields, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	var out Fields
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	delete(out, "id")
	return out, nil
}

// Merge applies a partial update to an entity and returns the result.
// Unknown keys are ignored by decoding.
func Merge[T any](v T, f Fields) (T, error) {
	r, err := ToRow(v)
	if err != nil {
		return v, err
	}
	for k, val := range f {
		if k == "id" {
			continue
		}
		r[k] = val
	}
	return FromRow[T](r)
}
