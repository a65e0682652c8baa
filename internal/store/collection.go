package store

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"github.com/and161185/nutrito/internal/model"
	"github.com/and161185/nutrito/internal/syncer"
	"go.uber.org/zap"
)

// collection binds a State slice to its remote table.
type collection[T model.Record] struct {
	table     string
	get       func(*State) *[]T
	normalize func(T) T
}

var (
	unitsC      = collection[model.Unit]{table: model.TableUnits, get: func(s *State) *[]model.Unit { return &s.Units }}
	foodsC      = collection[model.Food]{table: model.TableFoods, get: func(s *State) *[]model.Food { return &s.Foods }}
	exchangesC  = collection[model.Exchange]{table: model.TableExchanges, get: func(s *State) *[]model.Exchange { return &s.Exchanges }, normalize: model.NormalizeExchange}
	recipesC    = collection[model.Recipe]{table: model.TableRecipes, get: func(s *State) *[]model.Recipe { return &s.Recipes }}
	categoriesC = collection[model.RecipeCategory]{table: model.TableRecipeCategories, get: func(s *State) *[]model.RecipeCategory { return &s.RecipeCategories }}
	mealsC      = collection[model.DailyMeal]{table: model.TableDailyMeals, get: func(s *State) *[]model.DailyMeal { return &s.DailyMeals }}
	mealItemsC  = collection[model.MealItem]{table: model.TableMealItems, get: func(s *State) *[]model.MealItem { return &s.MealItems }}
	waterC      = collection[model.WaterLog]{table: model.TableWaterLogs, get: func(s *State) *[]model.WaterLog { return &s.WaterLogs }}
	weightC     = collection[model.WeightLog]{table: model.TableWeightLogs, get: func(s *State) *[]model.WeightLog { return &s.WeightLogs }}
)

func (c collection[T]) index(st *State, id string) int {
	return slices.IndexFunc(*c.get(st), func(v T) bool { return v.RecordID() == id })
}

func (c collection[T]) norm(v T) T {
	if c.normalize != nil {
		return c.normalize(v)
	}
	return v
}

// addRecord appends rec locally and mirrors the insert.
func addRecord[T model.Record](s *Store, c collection[T], rec T) T {
	rec = c.norm(rec)
	s.apply(func(st *State) bool {
		p := c.get(st)
		*p = append(*p, rec)
		return true
	})
	remoteInsert(s, c, rec)
	return rec
}

// updateRecord merges f into the record with id and mirrors the update.
// A missing record is a no-op.
func updateRecord[T model.Record](s *Store, c collection[T], id string, f model.Fields) error {
	f, err := f.Normalize()
	if err != nil {
		return err
	}
	if len(f) == 0 {
		return nil
	}

	var (
		found    bool
		mergeErr error
	)
	s.apply(func(st *State) bool {
		i := c.index(st, id)
		if i < 0 {
			return false
		}
		p := c.get(st)
		v, err := model.Merge((*p)[i], f)
		if err != nil {
			mergeErr = fmt.Errorf("update %s %s: %w", c.table, id, err)
			return false
		}
		(*p)[i] = c.norm(v)
		found = true
		return true
	})
	if mergeErr != nil || !found {
		return mergeErr
	}
	s.remoteUpdate(c.table, model.Match{Column: "id", Value: id}, f)
	return nil
}

// deleteRecord filters out the record with id and mirrors the delete.
func deleteRecord[T model.Record](s *Store, c collection[T], id string) bool {
	var removed bool
	s.apply(func(st *State) bool {
		p := c.get(st)
		n := len(*p)
		*p = slices.DeleteFunc(*p, func(v T) bool { return v.RecordID() == id })
		removed = len(*p) != n
		return removed
	})
	if removed {
		s.remoteDelete(c.table, id)
	}
	return removed
}

func (s *Store) enqueue(j syncer.Job) {
	if s.sync == nil {
		return
	}
	if err := s.sync.Enqueue(j); err != nil {
		s.log.Warn("remote write dropped", zap.String("op", j.Op), zap.String("table", j.Table), zap.Error(err))
	}
}

// remoteInsert mirrors an add; the server row then replaces the optimistic one.
func remoteInsert[T model.Record](s *Store, c collection[T], rec T) {
	if s.sync == nil {
		return
	}
	sent, err := model.ToRow(rec)
	if err != nil {
		s.log.Error("encode row", zap.String("table", c.table), zap.Error(err))
		return
	}
	id := rec.RecordID()
	s.enqueue(syncer.Job{Op: "insert", Table: c.table, ID: id, Run: func(ctx context.Context) error {
		got, err := s.backend.Insert(ctx, c.table, sent)
		if err != nil {
			return err
		}
		return reconcile(s, c, id, sent, got)
	}})
}

func (s *Store) remoteUpdate(table string, m model.Match, f model.Fields) {
	s.enqueue(syncer.Job{Op: "update", Table: table, ID: m.Value, Run: func(ctx context.Context) error {
		_, err := s.backend.Update(ctx, table, m, f)
		return err
	}})
}

func (s *Store) remoteDelete(table, id string) {
	s.enqueue(syncer.Job{Op: "delete", Table: table, ID: id, Run: func(ctx context.Context) error {
		_, err := s.backend.Delete(ctx, table, id)
		return err
	}})
}

// reconcile replaces the optimistic record with the server row, keeping any
// field changed locally since the insert was issued.
func reconcile[T model.Record](s *Store, c collection[T], id string, sent, got model.Row) error {
	var decodeErr error
	s.apply(func(st *State) bool {
		i := c.index(st, id)
		if i < 0 {
			return false
		}
		p := c.get(st)
		cur, err := model.ToRow((*p)[i])
		if err != nil {
			decodeErr = err
			return false
		}

		merged := make(model.Row, len(got))
		for k, v := range got {
			merged[k] = v
		}
		for k, v := range cur {
			if _, ok := got[k]; !ok || !reflect.DeepEqual(v, sent[k]) {
				merged[k] = v
			}
		}

		v, err := model.FromRow[T](merged)
		if err != nil {
			decodeErr = fmt.Errorf("reconcile %s %s: %w", c.table, id, err)
			return false
		}
		v = c.norm(v)
		if reflect.DeepEqual(v, (*p)[i]) {
			return false
		}
		(*p)[i] = v
		return true
	})
	return decodeErr
}
