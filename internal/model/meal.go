package model

import (
	"errors"
	"fmt"
	"strings"
)

// MealType is one of the four fixed meal slots.
type MealType string

// Meal types in display order.
const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Snack     MealType = "snack"
	Dinner    MealType = "dinner"
)

// MealTypes lists the meal slots in the order they are shown and copied.
var MealTypes = []MealType{Breakfast, Lunch, Snack, Dinner}

// Valid reports whether m is a known meal type.
func (m MealType) Valid() bool {
	switch m {
	case Breakfast, Lunch, Snack, Dinner:
		return true
	}
	return false
}

// ParseMealType parses a meal type name, case-insensitively.
func ParseMealType(s string) (MealType, error) {
	m := MealType(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown meal type %q", s)
	}
	return m, nil
}

// MealItem is a food or recipe portion attached to a DailyMeal.
type MealItem struct {
	ID          string  `json:"id"`
	DailyMealID string  `json:"daily_meal_id"`
	FoodID      *string `json:"food_id"`
	RecipeID    *string `json:"recipe_id"`
	Quantity    float64 `json:"quantity"`
	UnitID      *string `json:"unit_id"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

// ErrMealItemRef is returned by Validate when the item does not reference exactly one of food/recipe.
var ErrMealItemRef = errors.New("meal item must reference exactly one of food or recipe")

// Validate checks the food/recipe exclusivity rule.
func (m MealItem) Validate() error {
	hasFood := m.FoodID != nil && *m.FoodID != ""
	hasRecipe := m.RecipeID != nil && *m.RecipeID != ""
	if hasFood == hasRecipe {
		return ErrMealItemRef
	}
	return nil
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// Deref returns *p or the zero value.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
