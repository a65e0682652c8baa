// Package store is the client-side state container: every collection, the
// mutations over them, local persistence and the remote mirror.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/and161185/nutrito/internal/dates"
	"github.com/and161185/nutrito/internal/model"
	"github.com/and161185/nutrito/internal/syncer"
	"go.uber.org/zap"
)

// StorageKey names the persisted state in local storage.
const StorageKey = "nutrito-storage"

// Local is on-device key/value storage.
type Local interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Backend is the remote table API mirrored by the store.
type Backend interface {
	Select(ctx context.Context, q model.SelectQuery) ([]model.Row, error)
	Insert(ctx context.Context, table string, row model.Row) (model.Row, error)
	Update(ctx context.Context, table string, m model.Match, fields model.Fields) (int64, error)
	Delete(ctx context.Context, table, id string) (int64, error)
	Upsert(ctx context.Context, table string, rows []model.Row, onConflict string) (int, error)
}

// Options configure a Store. Every field is optional.
type Options struct {
	Local   Local
	Backend Backend
	Logger  *zap.Logger
	Clock   func() time.Time
	Rand    *rand.Rand

	SyncTimeout time.Duration
}

// State is the full store content. Values returned by the store are copies.
type State struct {
	Units            []model.Unit
	Foods            []model.Food
	Exchanges        []model.Exchange
	Recipes          []model.Recipe
	RecipeCategories []model.RecipeCategory
	DailyMeals       []model.DailyMeal
	MealItems        []model.MealItem
	WaterLogs        []model.WaterLog
	WeightLogs       []model.WeightLog
	Settings         model.Settings

	IsLoading   bool
	CurrentDate string
}

func (s State) clone() State {
	c := s
	c.Units = slices.Clone(s.Units)
	c.Foods = slices.Clone(s.Foods)
	c.Exchanges = make([]model.Exchange, len(s.Exchanges))
	for i, e := range s.Exchanges {
		e.Items = slices.Clone(e.Items)
		c.Exchanges[i] = e
	}
	c.Recipes = slices.Clone(s.Recipes)
	c.RecipeCategories = slices.Clone(s.RecipeCategories)
	c.DailyMeals = slices.Clone(s.DailyMeals)
	c.MealItems = slices.Clone(s.MealItems)
	c.WaterLogs = slices.Clone(s.WaterLogs)
	c.WeightLogs = slices.Clone(s.WeightLogs)
	if s.Settings.WeightTarget != nil {
		c.Settings.WeightTarget = model.Ptr(*s.Settings.WeightTarget)
	}
	return c
}

func emptyState(today string) State {
	return State{
		Units:            model.DefaultUnits(),
		Foods:            []model.Food{},
		Exchanges:        []model.Exchange{},
		Recipes:          []model.Recipe{},
		RecipeCategories: []model.RecipeCategory{},
		DailyMeals:       []model.DailyMeal{},
		MealItems:        []model.MealItem{},
		WaterLogs:        []model.WaterLog{},
		WeightLogs:       []model.WeightLog{},
		Settings:         model.DefaultSettings(),
		CurrentDate:      today,
	}
}

// Store holds application state. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	st      State
	version uint64

	local   Local
	backend Backend
	sync    *syncer.Syncer
	log     *zap.Logger
	now     func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand

	subsMu sync.Mutex
	subs   map[int]func(State)
	nextID int

	persistMu sync.Mutex
	persisted uint64
}

// New builds a store and rehydrates it from local storage.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	s := &Store{
		st:      emptyState(dates.FromTime(opts.Clock())),
		local:   opts.Local,
		backend: opts.Backend,
		log:     opts.Logger.Named("store"),
		now:     opts.Clock,
		rnd:     opts.Rand,
		subs:    make(map[int]func(State)),
	}
	if s.backend != nil {
		s.sync = syncer.New(syncer.Options{
			Timeout: opts.SyncTimeout,
			Logger:  opts.Logger,
		})
	}

	if err := s.rehydrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// RemoteConfigured reports whether mutations are mirrored remotely.
func (s *Store) RemoteConfigured() bool {
	return s.backend != nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.clone()
}

// IsLoading reports whether InitializeData is running.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.IsLoading
}

// CurrentDate returns the date being tracked (YYYY-MM-DD).
func (s *Store) CurrentDate() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.CurrentDate
}

// SetCurrentDate changes the tracked date.
func (s *Store) SetCurrentDate(date string) {
	s.apply(func(st *State) bool {
		st.CurrentDate = dates.Normalize(date)
		return true
	})
}

// Subscribe registers fn to receive a snapshot after every change.
// fn runs synchronously on the goroutine that made the change, which is the
// sync worker when a server row is reconciled. fn may read and mutate the
// store but must not call Flush, InitializeData or PushLocalData: those wait
// for the worker and would deadlock it.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subsMu.Unlock()
	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// Events streams remote sync outcomes. It is nil in local-only mode.
func (s *Store) Events() <-chan syncer.Event {
	if s.sync == nil {
		return nil
	}
	return s.sync.Events()
}

// Flush waits for queued remote writes.
func (s *Store) Flush(ctx context.Context) error {
	if s.sync == nil {
		return nil
	}
	return s.sync.Flush(ctx)
}

// Close drains queued remote writes and stops the sync worker.
func (s *Store) Close() {
	if s.sync != nil {
		s.sync.Close()
	}
}

// apply runs fn under the write lock. When fn reports a change, the new
// state is persisted and delivered to subscribers after the lock is released.
func (s *Store) apply(fn func(st *State) bool) {
	s.mu.Lock()
	if !fn(&s.st) {
		s.mu.Unlock()
		return
	}
	s.version++
	v, snap := s.version, s.st.clone()
	s.mu.Unlock()

	s.changed(v, snap)
}

func (s *Store) changed(version uint64, snap State) {
	s.persist(version, snap)

	s.subsMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Store) persist(version uint64, snap State) {
	if s.local == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if version <= s.persisted {
		return
	}

	b, err := json.Marshal(toBackup(snap))
	if err != nil {
		s.log.Error("encode state", zap.Error(err))
		return
	}
	if err := s.local.Set(context.Background(), StorageKey, string(b)); err != nil {
		s.log.Error("persist state", zap.Error(err))
		return
	}
	s.persisted = version
}

func (s *Store) rehydrate(ctx context.Context) error {
	if s.local == nil {
		return nil
	}
	raw, ok, err := s.local.Get(ctx, StorageKey)
	if err != nil {
		return fmt.Errorf("load %s: %w", StorageKey, err)
	}
	if !ok || raw == "" {
		return nil
	}

	var b Backup
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		s.log.Warn("stored state is unreadable, starting empty", zap.Error(err))
		return nil
	}
	s.mu.Lock()
	b.applyTo(&s.st)
	s.mu.Unlock()
	return nil
}

func (s *Store) timestamp() string {
	return model.Timestamp(s.now())
}
