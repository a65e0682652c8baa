package store

import (
	"slices"

	"github.com/and161185/nutrito/internal/dates"
	"github.com/and161185/nutrito/internal/model"
)

// findMeal returns the index of the meal for (date, mealType), or -1.
func findMeal(st *State, date string, mt model.MealType) int {
	return slices.IndexFunc(st.DailyMeals, func(m model.DailyMeal) bool {
		return dates.Normalize(m.Date) == date && m.MealType == mt
	})
}

// GetOrCreateDailyMeal returns the meal for (date, mealType), creating it
// when missing. Lookup and creation are atomic.
func (s *Store) GetOrCreateDailyMeal(date string, mt model.MealType) model.DailyMeal {
	d := dates.Normalize(date)
	var (
		meal    model.DailyMeal
		created bool
	)
	s.apply(func(st *State) bool {
		if i := findMeal(st, d, mt); i >= 0 {
			meal = st.DailyMeals[i]
			return false
		}
		meal = model.DailyMeal{ID: model.NewID(), Date: d, MealType: mt, CreatedAt: s.timestamp()}
		st.DailyMeals = append(st.DailyMeals, meal)
		created = true
		return true
	})
	if created {
		remoteInsert(s, mealsC, meal)
	}
	return meal
}

func emptyToNil(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	return p
}

// AddMealItem creates a meal item. Callers validate the food/recipe reference.
func (s *Store) AddMealItem(item model.MealItem) model.MealItem {
	item.ID, item.CreatedAt = model.NewID(), s.timestamp()
	item.FoodID, item.RecipeID, item.UnitID = emptyToNil(item.FoodID), emptyToNil(item.RecipeID), emptyToNil(item.UnitID)
	return addRecord(s, mealItemsC, item)
}

// UpdateMealItem merges fields into a meal item.
func (s *Store) UpdateMealItem(id string, f model.Fields) error {
	return updateRecord(s, mealItemsC, id, f)
}

// DeleteMealItem removes a meal item.
func (s *Store) DeleteMealItem(id string) bool {
	return deleteRecord(s, mealItemsC, id)
}

// CopyMealsFromDate replaces every meal item of target with copies of the
// items of source, meal type by meal type, and returns the number copied.
// Copying a date onto itself changes nothing and returns the number of
// items the date already has.
func (s *Store) CopyMealsFromDate(source, target string) int {
	src, tgt := dates.Normalize(source), dates.Normalize(target)
	if src == tgt {
		return s.itemsOnDate(src)
	}

	var (
		removed  []string
		newMeals []model.DailyMeal
		newItems []model.MealItem
	)
	s.apply(func(st *State) bool {
		targetMeals := make(map[string]struct{})
		for _, m := range st.DailyMeals {
			if dates.Normalize(m.Date) == tgt {
				targetMeals[m.ID] = struct{}{}
			}
		}
		st.MealItems = slices.DeleteFunc(st.MealItems, func(it model.MealItem) bool {
			if _, ok := targetMeals[it.DailyMealID]; ok {
				removed = append(removed, it.ID)
				return true
			}
			return false
		})

		ts := s.timestamp()
		for _, mt := range model.MealTypes {
			si := findMeal(st, src, mt)
			if si < 0 {
				continue
			}
			srcMealID := st.DailyMeals[si].ID

			var targetMeal model.DailyMeal
			if ti := findMeal(st, tgt, mt); ti >= 0 {
				targetMeal = st.DailyMeals[ti]
			} else {
				targetMeal = model.DailyMeal{ID: model.NewID(), Date: tgt, MealType: mt, CreatedAt: ts}
				st.DailyMeals = append(st.DailyMeals, targetMeal)
				newMeals = append(newMeals, targetMeal)
			}

			for _, it := range st.MealItems {
				if it.DailyMealID != srcMealID {
					continue
				}
				newItems = append(newItems, model.MealItem{
					ID:          model.NewID(),
					DailyMealID: targetMeal.ID,
					FoodID:      emptyToNil(it.FoodID),
					RecipeID:    emptyToNil(it.RecipeID),
					Quantity:    it.Quantity,
					UnitID:      emptyToNil(it.UnitID),
					CreatedAt:   ts,
				})
			}
		}
		st.MealItems = append(st.MealItems, newItems...)
		return len(removed) > 0 || len(newMeals) > 0 || len(newItems) > 0
	})

	for _, id := range removed {
		s.remoteDelete(model.TableMealItems, id)
	}
	for _, m := range newMeals {
		remoteInsert(s, mealsC, m)
	}
	for _, it := range newItems {
		remoteInsert(s, mealItemsC, it)
	}
	return len(newItems)
}

func (s *Store) itemsOnDate(date string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meals := make(map[string]struct{})
	for _, m := range s.st.DailyMeals {
		if dates.Normalize(m.Date) == date {
			meals[m.ID] = struct{}{}
		}
	}
	n := 0
	for _, it := range s.st.MealItems {
		if _, ok := meals[it.DailyMealID]; ok {
			n++
		}
	}
	return n
}
