package store

import (
	"slices"

	"github.com/and161185/nutrito/internal/model"
)

// AddUnit creates a unit.
func (s *Store) AddUnit(u model.Unit) model.Unit {
	u.ID, u.CreatedAt = model.NewID(), s.timestamp()
	return addRecord(s, unitsC, u)
}

// UpdateUnit merges fields into a unit.
func (s *Store) UpdateUnit(id string, f model.Fields) error {
	return updateRecord(s, unitsC, id, f)
}

// DeleteUnit removes a unit. Default units are never removed.
func (s *Store) DeleteUnit(id string) bool {
	if model.IsDefaultUnit(id) {
		return false
	}
	return deleteRecord(s, unitsC, id)
}

// AddFood creates a food.
func (s *Store) AddFood(f model.Food) model.Food {
	f.ID, f.CreatedAt = model.NewID(), s.timestamp()
	return addRecord(s, foodsC, f)
}

// UpdateFood merges fields into a food.
func (s *Store) UpdateFood(id string, f model.Fields) error {
	return updateRecord(s, foodsC, id, f)
}

// DeleteFood removes a food together with the exchanges authored for it.
// Exchanges that only list the food as an equivalent are kept.
func (s *Store) DeleteFood(id string) bool {
	var owned []string
	s.mu.RLock()
	for _, e := range s.st.Exchanges {
		if e.FoodID == id {
			owned = append(owned, e.ID)
		}
	}
	s.mu.RUnlock()

	removed := deleteRecord(s, foodsC, id)
	for _, eid := range owned {
		deleteRecord(s, exchangesC, eid)
	}
	return removed
}

// AddExchange creates an exchange. QuantityLeft defaults to 1 and an empty
// left unit is stored as null.
func (s *Store) AddExchange(e model.Exchange) model.Exchange {
	e.ID, e.CreatedAt = model.NewID(), s.timestamp()
	if e.QuantityLeft == 0 {
		e.QuantityLeft = model.DefaultQuantityLeft
	}
	if e.LeftUnitID != nil && *e.LeftUnitID == "" {
		e.LeftUnitID = nil
	}
	e.Items = slices.Clone(e.Items)
	return addRecord(s, exchangesC, e)
}

// UpdateExchange merges fields into an exchange.
func (s *Store) UpdateExchange(id string, f model.Fields) error {
	return updateRecord(s, exchangesC, id, f)
}

// DeleteExchange removes an exchange.
func (s *Store) DeleteExchange(id string) bool {
	return deleteRecord(s, exchangesC, id)
}

// AddRecipeCategory creates a recipe category.
func (s *Store) AddRecipeCategory(c model.RecipeCategory) model.RecipeCategory {
	c.ID, c.CreatedAt = model.NewID(), s.timestamp()
	return addRecord(s, categoriesC, c)
}

// UpdateRecipeCategory merges fields into a category.
func (s *Store) UpdateRecipeCategory(id string, f model.Fields) error {
	return updateRecord(s, categoriesC, id, f)
}

// DeleteRecipeCategory removes a category. Recipes keep their category_id.
func (s *Store) DeleteRecipeCategory(id string) bool {
	return deleteRecord(s, categoriesC, id)
}

// AddRecipe creates a recipe.
func (s *Store) AddRecipe(r model.Recipe) model.Recipe {
	r.ID, r.CreatedAt = model.NewID(), s.timestamp()
	return addRecord(s, recipesC, r)
}

// UpdateRecipe merges fields into a recipe.
func (s *Store) UpdateRecipe(id string, f model.Fields) error {
	return updateRecord(s, recipesC, id, f)
}

// DeleteRecipe removes a recipe.
func (s *Store) DeleteRecipe(id string) bool {
	return deleteRecord(s, recipesC, id)
}
