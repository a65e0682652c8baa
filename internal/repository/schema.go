package repository

import (
	"fmt"
	"slices"

	"github.com/and161185/nutrito/internal/errs"
	"github.com/and161185/nutrito/internal/model"
)

// Table describes a synced table: which columns clients may touch and how
// rows can be ordered, matched and upserted.
type Table struct {
	Name      string
	Columns   []string // writable columns, id first
	OrderBy   []string // allowed ORDER BY columns
	MatchBy   []string // allowed UPDATE match columns
	Conflicts []string // allowed ON CONFLICT keys
}

var tables = map[string]Table{
	model.TableUnits: {
		Name:      model.TableUnits,
		Columns:   []string{"id", "name", "abbreviation", "created_at"},
		OrderBy:   []string{"name", "created_at"},
		MatchBy:   []string{"id"},
		Conflicts: []string{"id"},
	},
	model.TableFoods: {
		Name:      model.TableFoods,
		Columns:   []string{"id", "name", "default_unit_id", "recipe_id", "created_at"},
		OrderBy:   []string{"name", "created_at"},
		MatchBy:   []string{"id"},
		Conflicts: []string{"id"},
	},
	model.TableExchanges: {
		Name: model.TableExchanges,
		Columns: []string{"id", "food_id", "quantity_left", "left_unit_id", "items",
			"equivalent_food_id", "quantity", "unit_id", "created_at"},
		OrderBy:   []string{"created_at"},
		MatchBy:   []string{"id"},
		Conflicts: []string{"id"},
	},
	model.TableRecipes: {
		Name:      model.TableRecipes,
		Columns:   []string{"id", "title", "category_id", "ingredients", "instructions", "created_at"},
		OrderBy:   []string{"title", "created_at"},
		MatchBy:   []string{"id"},
		Conflicts: []string{"id"},
	},
	model.TableRecipeCategories: {
		Name:      model.TableRecipeCategories,
		Columns:   []string{"id", "name", "color", "created_at"},
		OrderBy:   []string{"name", "created_at"},
		MatchBy:   []string{"id"},
		Conflicts: []string{"id"},
	},
	model.TableDailyMeals: {
		Name:      model.TableDailyMeals,
		Columns:   []string{"id", "date", "meal_type", "created_at"},
		OrderBy:   []string{"date", "created_at"},
		MatchBy:   []string{"id"},
		Conflicts: []string{"id"},
	},
	model.TableMealItems: {
		Name:      model.TableMealItems,
		Columns:   []string{"id", "daily_meal_id", "food_id", "recipe_id", "quantity", "unit_id", "created_at"},
		OrderBy:   []string{"created_at"},
		MatchBy:   []string{"id"},
		Conflicts: []string{"id"},
	},
	model.TableWaterLogs: {
		Name:      model.TableWaterLogs,
		Columns:   []string{"id", "date", "glasses", "target", "created_at"},
		OrderBy:   []string{"date", "created_at"},
		MatchBy:   []string{"id", "date"},
		Conflicts: []string{"id", "date"},
	},
	model.TableWeightLogs: {
		Name:      model.TableWeightLogs,
		Columns:   []string{"id", "date", "weight", "created_at"},
		OrderBy:   []string{"date", "created_at"},
		MatchBy:   []string{"id", "date"},
		Conflicts: []string{"id", "date"},
	},
}

// LookupTable returns the schema of a synced table.
func LookupTable(name string) (Table, error) {
	t, ok := tables[name]
	if !ok {
		return Table{}, fmt.Errorf("%w: unknown table %q", errs.ErrInvalidArgument, name)
	}
	return t, nil
}

// HasColumn reports whether c is a writable column.
func (t Table) HasColumn(c string) bool { return slices.Contains(t.Columns, c) }

// CheckColumns rejects any key that is not a writable column.
func (t Table) CheckColumns(keys []string) error {
	for _, k := range keys {
		if !t.HasColumn(k) {
			return fmt.Errorf("%w: unknown column %q in %s", errs.ErrInvalidArgument, k, t.Name)
		}
	}
	return nil
}

// CheckOrder validates an ORDER BY column; empty means unordered.
func (t Table) CheckOrder(c string) error {
	if c == "" || slices.Contains(t.OrderBy, c) {
		return nil
	}
	return fmt.Errorf("%w: cannot order %s by %q", errs.ErrInvalidArgument, t.Name, c)
}

// CheckMatch validates an UPDATE match column.
func (t Table) CheckMatch(c string) error {
	if slices.Contains(t.MatchBy, c) {
		return nil
	}
	return fmt.Errorf("%w: cannot match %s by %q", errs.ErrInvalidArgument, t.Name, c)
}

// CheckConflict validates an upsert conflict key.
func (t Table) CheckConflict(c string) error {
	if slices.Contains(t.Conflicts, c) {
		return nil
	}
	return fmt.Errorf("%w: cannot upsert %s on %q", errs.ErrInvalidArgument, t.Name, c)
}
