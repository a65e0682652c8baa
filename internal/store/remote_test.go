package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"testing"
	"time"

	"github.com/and161185/nutrito/internal/errs"
	"github.com/and161185/nutrito/internal/model"
	"github.com/and161185/nutrito/internal/syncer"
	"github.com/stretchr/testify/require"
)

type backendCall struct {
	Op         string
	Table      string
	Row        model.Row
	Match      model.Match
	Fields     model.Fields
	ID         string
	Rows       []model.Row
	OnConflict string
	Query      model.SelectQuery
}

type fakeBackend struct {
	mu    sync.Mutex
	calls []backendCall

	rows       map[string][]model.Row
	selectErr  map[string]error
	upsertErr  map[string]error
	insertErr  error
	serverTime string
	block      chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{rows: map[string][]model.Row{}, selectErr: map[string]error{}, upsertErr: map[string]error{}}
}

func (b *fakeBackend) record(c backendCall) {
	b.mu.Lock()
	b.calls = append(b.calls, c)
	b.mu.Unlock()
}

func (b *fakeBackend) Calls() []backendCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]backendCall(nil), b.calls...)
}

func (b *fakeBackend) Select(_ context.Context, q model.SelectQuery) ([]model.Row, error) {
	b.record(backendCall{Op: "select", Table: q.Table, Query: q})
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.selectErr[q.Table]; err != nil {
		return nil, err
	}
	return b.rows[q.Table], nil
}

func (b *fakeBackend) Insert(_ context.Context, table string, row model.Row) (model.Row, error) {
	if b.block != nil {
		<-b.block
	}
	b.record(backendCall{Op: "insert", Table: table, Row: row})
	if b.insertErr != nil {
		return nil, b.insertErr
	}
	out := maps.Clone(row)
	if b.serverTime != "" {
		out["created_at"] = b.serverTime
	}
	return out, nil
}

func (b *fakeBackend) Update(_ context.Context, table string, m model.Match, f model.Fields) (int64, error) {
	b.record(backendCall{Op: "update", Table: table, Match: m, Fields: f})
	return 1, nil
}

func (b *fakeBackend) Delete(_ context.Context, table, id string) (int64, error) {
	b.record(backendCall{Op: "delete", Table: table, ID: id})
	return 1, nil
}

func (b *fakeBackend) Upsert(_ context.Context, table string, rows []model.Row, onConflict string) (int, error) {
	b.record(backendCall{Op: "upsert", Table: table, Rows: rows, OnConflict: onConflict})
	if err := b.upsertErr[table]; err != nil {
		return 0, err
	}
	return len(rows), nil
}

func ops(calls []backendCall) []string {
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.Op+" "+c.Table)
	}
	return out
}

func flush(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Flush(ctx))
}

func waitEvent(t *testing.T, s *Store, match func(syncer.Event) bool) syncer.Event {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-s.Events():
			if match(ev) {
				return ev
			}
		case <-timeout:
			t.Fatal("event not received")
		}
	}
}

func TestRemote_LocalOnly(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, Options{})
	require.ErrorIs(t, s.InitializeData(context.Background()), errs.ErrNotConfigured)
	require.ErrorIs(t, s.PushLocalData(context.Background()), errs.ErrNotConfigured)
}

func TestRemote_MirrorsInIssueOrder(t *testing.T) {
	t.Parallel()

	be := newFakeBackend()
	s := newTestStore(t, Options{Backend: be})
	require.True(t, s.RemoteConfigured())

	f := s.AddFood(model.Food{Name: "Elma"})
	require.NoError(t, s.UpdateFood(f.ID, model.Fields{"name": "Armut"}))
	require.True(t, s.DeleteFood(f.ID))
	require.False(t, s.DeleteFood(f.ID))
	require.False(t, s.DeleteUnit("unit_gram"))
	flush(t, s)

	calls := be.Calls()
	require.Equal(t, []string{"insert foods", "update foods", "delete foods"}, ops(calls))
	require.Equal(t, "Elma", calls[0].Row["name"])
	require.Equal(t, model.Match{Column: "id", Value: f.ID}, calls[1].Match)
	require.Equal(t, model.Fields{"name": "Armut"}, calls[1].Fields)
	require.Equal(t, f.ID, calls[2].ID)
}

func TestRemote_ReconcileTakesServerRow(t *testing.T) {
	t.Parallel()

	be := newFakeBackend()
	be.serverTime = "2024-05-01T09:00:01.5Z"
	s := newTestStore(t, Options{Backend: be})

	s.AddFood(model.Food{Name: "Elma"})
	flush(t, s)

	foods := s.Snapshot().Foods
	require.Len(t, foods, 1)
	require.Equal(t, "2024-05-01T09:00:01.5Z", foods[0].CreatedAt)
	require.Equal(t, "Elma", foods[0].Name)
}

func TestRemote_ReconcileKeepsLaterLocalEdits(t *testing.T) {
	t.Parallel()

	be := newFakeBackend()
	be.serverTime = "2024-05-01T09:00:01Z"
	be.block = make(chan struct{})
	s := newTestStore(t, Options{Backend: be})

	f := s.AddFood(model.Food{Name: "Elma"})
	require.NoError(t, s.UpdateFood(f.ID, model.Fields{"name": "Armut"}))
	close(be.block)
	flush(t, s)

	foods := s.Snapshot().Foods
	require.Equal(t, "Armut", foods[0].Name)
	require.Equal(t, "2024-05-01T09:00:01Z", foods[0].CreatedAt)
}

func TestRemote_HungBackendDoesNotBlockMutations(t *testing.T) {
	t.Parallel()

	be := newFakeBackend()
	be.block = make(chan struct{})
	s := newTestStore(t, Options{Backend: be, SyncTimeout: time.Minute})
	t.Cleanup(func() { close(be.block) })

	done := make(chan int, 1)
	go func() {
		f := s.AddFood(model.Food{Name: "Yulaf"})
		meal := s.GetOrCreateDailyMeal("2024-04-30", model.Breakfast)
		for i := 0; i < 300; i++ {
			s.AddMealItem(model.MealItem{DailyMealID: meal.ID, FoodID: model.Ptr(f.ID), Quantity: 1})
		}
		for i := 0; i < 20; i++ {
			s.AddFood(model.Food{Name: fmt.Sprintf("food %d", i)})
		}
		done <- s.CopyMealsFromDate("2024-04-30", "2024-05-01")
	}()

	select {
	case n := <-done:
		require.Equal(t, 300, n)
	case <-time.After(2 * time.Second):
		t.Fatalf("mutations blocked on a hung backend; local foods=%d", len(s.Snapshot().Foods))
	}
	require.Len(t, s.Snapshot().Foods, 21)
	require.Len(t, s.MealItemsForMeal("2024-05-01", model.Breakfast), 300)
}

func TestRemote_SubscriberMutatesDuringReconcile(t *testing.T) {
	t.Parallel()

	be := newFakeBackend()
	be.serverTime = "2024-05-01T09:00:01Z"
	s := newTestStore(t, Options{Backend: be})

	var once sync.Once
	s.Subscribe(func(st State) {
		if len(st.Foods) == 1 && st.Foods[0].CreatedAt == be.serverTime {
			once.Do(func() { s.AddUnit(model.Unit{Name: "Fincan", Abbreviation: "fnc"}) })
		}
	})

	s.AddFood(model.Food{Name: "Elma"})
	flush(t, s)
	flush(t, s)

	st := s.Snapshot()
	require.Len(t, st.Units, len(model.DefaultUnits())+1)
	require.Equal(t, []string{"insert foods", "insert units"}, ops(be.Calls()))
}

func TestRemote_FailureKeepsLocalAndEmitsEvent(t *testing.T) {
	t.Parallel()

	be := newFakeBackend()
	be.insertErr = errors.New("row level security")
	s := newTestStore(t, Options{Backend: be})

	f := s.AddFood(model.Food{Name: "Elma"})
	ev := waitEvent(t, s, func(ev syncer.Event) bool { return ev.Kind == syncer.EventFailed })
	require.Equal(t, "insert", ev.Op)
	require.Equal(t, model.TableFoods, ev.Table)
	require.Equal(t, f.ID, ev.ID)
	require.ErrorContains(t, ev.Err, "row level security")
	require.Len(t, s.Snapshot().Foods, 1)
}

func TestRemote_Water(t *testing.T) {
	t.Parallel()

	be := newFakeBackend()
	s := newTestStore(t, Options{Backend: be})

	s.AddGlass("2024-05-01")
	s.AddGlass("2024-05-01")
	s.RemoveGlass("2024-05-01")
	require.NoError(t, s.UpdateWaterLog("2024-05-01", model.Fields{"glasses": 4, "target": 10}))
	flush(t, s)

	calls := be.Calls()
	require.Equal(t, []string{"insert water_logs", "update water_logs", "update water_logs", "update water_logs"}, ops(calls))
	require.Equal(t, 1.0, calls[0].Row["glasses"])
	dateMatch := model.Match{Column: "date", Value: "2024-05-01"}
	require.Equal(t, dateMatch, calls[1].Match)
	require.Equal(t, model.Fields{"glasses": 2.0}, calls[1].Fields)
	require.Equal(t, model.Fields{"glasses": 1.0}, calls[2].Fields)
	require.Equal(t, model.Fields{"glasses": 4.0}, calls[3].Fields)

	require.Equal(t, 4, s.GetOrCreateWaterLog("2024-05-01").Glasses)
}

func TestRemote_WeightUpsertByDate(t *testing.T) {
	t.Parallel()

	be := newFakeBackend()
	s := newTestStore(t, Options{Backend: be})

	s.AddWeightLog("2024-05-01", 80)
	s.AddWeightLog("2024-05-01", 79)
	flush(t, s)

	calls := be.Calls()
	require.Equal(t, []string{"insert weight_logs", "update weight_logs"}, ops(calls))
	require.Equal(t, model.Match{Column: "date", Value: "2024-05-01"}, calls[1].Match)
	require.Equal(t, model.Fields{"weight": 79.0}, calls[1].Fields)
	require.Equal(t, 79.0, s.Snapshot().WeightLogs[0].Weight)
}

func TestRemote_CopyMealsOrder(t *testing.T) {
	t.Parallel()

	be := newFakeBackend()
	s := newTestStore(t, Options{Backend: be})

	src := s.GetOrCreateDailyMeal("2024-05-01", model.Breakfast)
	s.AddMealItem(model.MealItem{DailyMealID: src.ID, FoodID: model.Ptr("egg"), Quantity: 2})
	old := s.GetOrCreateDailyMeal("2024-05-02", model.Dinner)
	s.AddMealItem(model.MealItem{DailyMealID: old.ID, FoodID: model.Ptr("cake"), Quantity: 1})
	flush(t, s)
	before := len(be.Calls())

	require.Equal(t, 1, s.CopyMealsFromDate("2024-05-01", "2024-05-02"))
	flush(t, s)

	require.Equal(t, []string{"delete meal_items", "insert daily_meals", "insert meal_items"}, ops(be.Calls()[before:]))
}

func TestInitializeData(t *testing.T) {
	t.Parallel()

	be := newFakeBackend()
	be.rows[model.TableFoods] = []model.Row{{"id": "f1", "name": "Elma", "default_unit_id": nil}}
	be.rows[model.TableExchanges] = []model.Row{{
		"id": "x1", "food_id": "f1", "quantity_left": nil, "left_unit_id": nil, "items": nil,
		"equivalent_food_id": "f2", "quantity": 2.0, "unit_id": "unit_yk",
	}}
	be.rows[model.TableWeightLogs] = []model.Row{{"id": "w1", "date": "2024-05-01T00:00:00+00:00", "weight": 80.5}}

	s := newTestStore(t, Options{Backend: be})
	s.AddRecipe(model.Recipe{Title: "Pilav"})
	flush(t, s)

	var sawLoading bool
	s.Subscribe(func(st State) { sawLoading = sawLoading || st.IsLoading })

	require.NoError(t, s.InitializeData(context.Background()))
	require.True(t, sawLoading)
	require.False(t, s.IsLoading())

	st := s.Snapshot()
	require.Equal(t, model.DefaultUnits(), st.Units)
	require.Len(t, st.Foods, 1)
	require.Empty(t, st.Recipes)
	require.Len(t, st.Exchanges, 1)
	require.Equal(t, 1.0, st.Exchanges[0].QuantityLeft)
	require.Equal(t, "f2", st.Exchanges[0].Items[0].EquivalentFoodID)
	require.Equal(t, "2024-05-01", st.WeightLogs[0].Date)

	queries := map[string]model.SelectQuery{}
	for _, c := range be.Calls() {
		if c.Op == "select" {
			queries[c.Table] = c.Query
		}
	}
	require.Len(t, queries, len(model.Tables))
	require.Equal(t, model.SelectQuery{Table: model.TableFoods, Order: "name", Ascending: true}, queries[model.TableFoods])
	require.Equal(t, model.SelectQuery{Table: model.TableRecipes, Order: "title", Ascending: true}, queries[model.TableRecipes])
	require.Equal(t, model.SelectQuery{Table: model.TableWeightLogs, Order: "date"}, queries[model.TableWeightLogs])
}

func TestInitializeData_FailureKeepsLocal(t *testing.T) {
	t.Parallel()

	be := newFakeBackend()
	be.rows[model.TableFoods] = []model.Row{{"id": "f1", "name": "Elma"}}
	be.selectErr[model.TableRecipes] = errors.New("boom")
	s := newTestStore(t, Options{Backend: be})
	s.AddRecipe(model.Recipe{Title: "Pilav"})

	err := s.InitializeData(context.Background())
	require.ErrorContains(t, err, "recipes: boom")
	require.False(t, s.IsLoading())

	st := s.Snapshot()
	require.Empty(t, st.Foods)
	require.Len(t, st.Recipes, 1)

	ev := waitEvent(t, s, func(ev syncer.Event) bool { return ev.Op == "load" })
	require.Equal(t, syncer.EventFailed, ev.Kind)
}

func TestPushLocalData(t *testing.T) {
	t.Parallel()

	be := newFakeBackend()
	s := newTestStore(t, Options{Backend: be})
	s.AddFood(model.Food{Name: "Elma"})
	s.AddGlass("2024-05-01")
	s.AddWeightLog("2024-05-01", 80)
	flush(t, s)
	before := len(be.Calls())

	require.NoError(t, s.PushLocalData(context.Background()))

	calls := be.Calls()[before:]
	require.Equal(t, []string{"upsert units", "upsert foods", "upsert water_logs", "upsert weight_logs"}, ops(calls))
	require.Len(t, calls[0].Rows, len(model.DefaultUnits()))
	require.Equal(t, "id", calls[1].OnConflict)
	require.Equal(t, "date", calls[2].OnConflict)
	require.Equal(t, "date", calls[3].OnConflict)
}

func TestPushLocalData_StopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	be := newFakeBackend()
	be.upsertErr[model.TableFoods] = fmt.Errorf("permission denied")
	s := newTestStore(t, Options{Backend: be})
	s.AddFood(model.Food{Name: "Elma"})
	s.AddWeightLog("2024-05-01", 80)
	flush(t, s)
	before := len(be.Calls())

	err := s.PushLocalData(context.Background())
	require.EqualError(t, err, "foods: permission denied")
	require.Equal(t, []string{"upsert units", "upsert foods"}, ops(be.Calls()[before:]))
}
