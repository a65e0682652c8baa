package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/and161185/nutrito/internal/dates"
	"github.com/and161185/nutrito/internal/model"
)

// Backup is the export document and the persisted form of the store.
// Absent (nil) fields leave the corresponding collection untouched on import.
type Backup struct {
	Units            *[]model.Unit           `json:"units,omitempty"`
	Foods            *[]model.Food           `json:"foods,omitempty"`
	Exchanges        *[]model.Exchange       `json:"exchanges,omitempty"`
	Recipes          *[]model.Recipe         `json:"recipes,omitempty"`
	RecipeCategories *[]model.RecipeCategory `json:"recipeCategories,omitempty"`
	DailyMeals       *[]model.DailyMeal      `json:"dailyMeals,omitempty"`
	MealItems        *[]model.MealItem       `json:"mealItems,omitempty"`
	WaterLogs        *[]model.WaterLog       `json:"waterLogs,omitempty"`
	WeightLogs       *[]model.WeightLog      `json:"weightLogs,omitempty"`

	WaterTargetDefault *int     `json:"waterTargetDefault,omitempty"`
	WaterGlassVolumeMl *int     `json:"waterGlassVolumeMl,omitempty"`
	WeightTarget       *float64 `json:"weightTarget,omitempty"`
}

// BackupFileName is the export file name for the day of now.
func BackupFileName(now time.Time) string {
	return "nutrito-backup-" + now.UTC().Format(dates.Layout) + ".json"
}

func list[T any](v []T) *[]T {
	if v == nil {
		v = []T{}
	}
	return &v
}

func toBackup(st State) Backup {
	b := Backup{
		Units:              list(st.Units),
		Foods:              list(st.Foods),
		Exchanges:          list(st.Exchanges),
		Recipes:            list(st.Recipes),
		RecipeCategories:   list(st.RecipeCategories),
		DailyMeals:         list(st.DailyMeals),
		MealItems:          list(st.MealItems),
		WaterLogs:          list(st.WaterLogs),
		WeightLogs:         list(st.WeightLogs),
		WaterTargetDefault: model.Ptr(st.Settings.WaterTargetDefault),
		WaterGlassVolumeMl: model.Ptr(st.Settings.WaterGlassVolumeMl),
	}
	if st.Settings.WeightTarget != nil {
		b.WeightTarget = model.Ptr(*st.Settings.WeightTarget)
	}
	return b
}

// applyTo replaces every collection present in b. An empty unit list
// becomes the default units; exchanges are normalized; dates are normalized.
func (b Backup) applyTo(st *State) {
	if b.Units != nil {
		st.Units = slices.Clone(*b.Units)
		if len(st.Units) == 0 {
			st.Units = model.DefaultUnits()
		}
	}
	if b.Foods != nil {
		st.Foods = slices.Clone(*b.Foods)
	}
	if b.Exchanges != nil {
		st.Exchanges = model.NormalizeExchanges(slices.Clone(*b.Exchanges))
	}
	if b.Recipes != nil {
		st.Recipes = slices.Clone(*b.Recipes)
	}
	if b.RecipeCategories != nil {
		st.RecipeCategories = slices.Clone(*b.RecipeCategories)
	}
	if b.DailyMeals != nil {
		st.DailyMeals = slices.Clone(*b.DailyMeals)
		for i := range st.DailyMeals {
			st.DailyMeals[i].Date = dates.Normalize(st.DailyMeals[i].Date)
		}
	}
	if b.MealItems != nil {
		st.MealItems = slices.Clone(*b.MealItems)
	}
	if b.WaterLogs != nil {
		st.WaterLogs = slices.Clone(*b.WaterLogs)
		for i := range st.WaterLogs {
			st.WaterLogs[i].Date = dates.Normalize(st.WaterLogs[i].Date)
		}
	}
	if b.WeightLogs != nil {
		st.WeightLogs = slices.Clone(*b.WeightLogs)
		for i := range st.WeightLogs {
			st.WeightLogs[i].Date = dates.Normalize(st.WeightLogs[i].Date)
		}
	}
	if b.WaterTargetDefault != nil {
		st.Settings.WaterTargetDefault = model.ClampWaterTarget(*b.WaterTargetDefault)
	}
	if b.WaterGlassVolumeMl != nil {
		st.Settings.WaterGlassVolumeMl = model.ClampGlassVolume(*b.WaterGlassVolumeMl)
	}
	if b.WeightTarget != nil {
		st.Settings.WeightTarget = model.Ptr(*b.WeightTarget)
	}
}

// Export returns every persisted collection and the settings.
func (s *Store) Export() Backup {
	return toBackup(s.Snapshot())
}

// WriteBackup writes the export document as indented JSON.
func (s *Store) WriteBackup(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.Export()); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// Import replaces each collection present in b. It is not mirrored remotely.
func (s *Store) Import(b Backup) {
	s.apply(func(st *State) bool {
		b.applyTo(st)
		return true
	})
}

// ReadBackup decodes a backup document and imports it. A malformed
// document leaves the store untouched.
func (s *Store) ReadBackup(r io.Reader) error {
	var b Backup
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	s.Import(b)
	return nil
}

// ClearAll empties every collection, restores the default units and removes
// the persisted state. Settings are kept; the remote backend is not touched.
func (s *Store) ClearAll(ctx context.Context) error {
	s.apply(func(st *State) bool {
		cleared := emptyState(st.CurrentDate)
		cleared.Settings = st.Settings
		cleared.IsLoading = st.IsLoading
		*st = cleared
		return true
	})
	if s.local == nil {
		return nil
	}
	if err := s.local.Remove(ctx, StorageKey); err != nil {
		return fmt.Errorf("clear %s: %w", StorageKey, err)
	}
	return nil
}
