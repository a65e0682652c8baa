package store

import (
	"context"
	"fmt"

	"github.com/and161185/nutrito/internal/errs"
	"github.com/and161185/nutrito/internal/model"
	"github.com/and161185/nutrito/internal/syncer"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func load[T any](ctx context.Context, g *errgroup.Group, b Backend, q model.SelectQuery, dst **[]T) {
	g.Go(func() error {
		rows, err := b.Select(ctx, q)
		if err != nil {
			return fmt.Errorf("%s: %w", q.Table, err)
		}
		v, err := model.FromRows[T](rows)
		if err != nil {
			return fmt.Errorf("%s: %w", q.Table, err)
		}
		*dst = &v
		return nil
	})
}

func (s *Store) setLoading(v bool) {
	s.apply(func(st *State) bool {
		if st.IsLoading == v {
			return false
		}
		st.IsLoading = v
		return true
	})
}

// InitializeData replaces every collection with the remote tables, loaded
// concurrently. Queued writes are flushed first. On failure the local state
// is kept, the error is logged and published as an event, and returned.
func (s *Store) InitializeData(ctx context.Context) error {
	if s.backend == nil {
		return errs.ErrNotConfigured
	}
	if err := s.Flush(ctx); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	s.setLoading(true)
	defer s.setLoading(false)

	var b Backup
	g, gctx := errgroup.WithContext(ctx)
	load(gctx, g, s.backend, model.SelectQuery{Table: model.TableUnits, Order: "name", Ascending: true}, &b.Units)
	load(gctx, g, s.backend, model.SelectQuery{Table: model.TableFoods, Order: "name", Ascending: true}, &b.Foods)
	load(gctx, g, s.backend, model.SelectQuery{Table: model.TableExchanges}, &b.Exchanges)
	load(gctx, g, s.backend, model.SelectQuery{Table: model.TableRecipes, Order: "title", Ascending: true}, &b.Recipes)
	load(gctx, g, s.backend, model.SelectQuery{Table: model.TableRecipeCategories, Order: "name", Ascending: true}, &b.RecipeCategories)
	load(gctx, g, s.backend, model.SelectQuery{Table: model.TableDailyMeals}, &b.DailyMeals)
	load(gctx, g, s.backend, model.SelectQuery{Table: model.TableMealItems}, &b.MealItems)
	load(gctx, g, s.backend, model.SelectQuery{Table: model.TableWaterLogs, Order: "date"}, &b.WaterLogs)
	load(gctx, g, s.backend, model.SelectQuery{Table: model.TableWeightLogs, Order: "date"}, &b.WeightLogs)

	if err := g.Wait(); err != nil {
		s.log.Error("load remote data", zap.Error(err))
		s.sync.Publish(syncer.Event{Kind: syncer.EventFailed, Op: "load", Err: err, At: s.now()})
		return fmt.Errorf("load remote data: %w", err)
	}

	s.apply(func(st *State) bool {
		b.applyTo(st)
		return true
	})
	s.log.Info("remote data loaded",
		zap.Int("foods", len(*b.Foods)),
		zap.Int("recipes", len(*b.Recipes)),
		zap.Int("meal_items", len(*b.MealItems)),
	)
	return nil
}

func rowsOf[T any](list []T) ([]model.Row, error) {
	rows := make([]model.Row, 0, len(list))
	for _, v := range list {
		r, err := model.ToRow(v)
		if err != nil {
			return nil, err
		}
		rows = append(rows, r)
	}
	return rows, nil
}

type pushStep struct {
	table      string
	onConflict string
	rows       func(State) ([]model.Row, error)
}

// Referenced tables come before the tables referencing them.
var pushOrder = []pushStep{
	{model.TableUnits, "id", func(st State) ([]model.Row, error) { return rowsOf(st.Units) }},
	{model.TableRecipeCategories, "id", func(st State) ([]model.Row, error) { return rowsOf(st.RecipeCategories) }},
	{model.TableFoods, "id", func(st State) ([]model.Row, error) { return rowsOf(st.Foods) }},
	{model.TableExchanges, "id", func(st State) ([]model.Row, error) { return rowsOf(st.Exchanges) }},
	{model.TableRecipes, "id", func(st State) ([]model.Row, error) { return rowsOf(st.Recipes) }},
	{model.TableDailyMeals, "id", func(st State) ([]model.Row, error) { return rowsOf(st.DailyMeals) }},
	{model.TableMealItems, "id", func(st State) ([]model.Row, error) { return rowsOf(st.MealItems) }},
	{model.TableWaterLogs, "date", func(st State) ([]model.Row, error) { return rowsOf(st.WaterLogs) }},
	{model.TableWeightLogs, "date", func(st State) ([]model.Row, error) { return rowsOf(st.WeightLogs) }},
}

// PushLocalData upserts every non-empty local collection to the remote
// backend, stopping at the first failing table.
func (s *Store) PushLocalData(ctx context.Context) error {
	if s.backend == nil {
		return errs.ErrNotConfigured
	}
	if err := s.Flush(ctx); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	snap := s.Snapshot()
	for _, step := range pushOrder {
		rows, err := step.rows(snap)
		if err != nil {
			return fmt.Errorf("%s: %w", step.table, err)
		}
		if len(rows) == 0 {
			continue
		}
		n, err := s.backend.Upsert(ctx, step.table, rows, step.onConflict)
		if err != nil {
			s.log.Error("push table", zap.String("table", step.table), zap.Error(err))
			return fmt.Errorf("%s: %w", step.table, err)
		}
		s.log.Debug("table pushed", zap.String("table", step.table), zap.Int("rows", n))
	}
	return nil
}
