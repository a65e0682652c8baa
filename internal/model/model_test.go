package model

import (
	"encoding/json"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
)

func TestNormalizeExchange_Legacy(t *testing.T) {
	e := Exchange{
		ID:               "x1",
		FoodID:           "bread",
		EquivalentFoodID: Ptr("rice"),
		Quantity:         Ptr(2.5),
		UnitID:           Ptr("unit_yk"),
	}

	got := NormalizeExchange(e)
	require.Len(t, got.Items, 1)
	require.Equal(t, ExchangeItem{EquivalentFoodID: "rice", Quantity: 2.5, UnitID: Ptr("unit_yk")}, got.Items[0])
	require.Nil(t, got.EquivalentFoodID)
	require.Nil(t, got.Quantity)
	require.Nil(t, got.UnitID)

	// Legacy and normalized forms resolve to the same equivalence.
	require.Equal(t, e.Equivalents(), got.Equivalents())
}

func TestNormalizeExchange_ItemsWin(t *testing.T) {
	e := Exchange{
		ID:               "x1",
		FoodID:           "bread",
		QuantityLeft:     2,
		Items:            []ExchangeItem{{EquivalentFoodID: "potato", Quantity: 1}},
		EquivalentFoodID: Ptr("rice"),
		Quantity:         Ptr(3.0),
	}
	got := NormalizeExchange(e)
	require.Equal(t, []ExchangeItem{{EquivalentFoodID: "potato", Quantity: 1}}, got.Items)
	require.Nil(t, got.EquivalentFoodID)
	require.Equal(t, 2.0, got.QuantityLeft)
}

func TestExchange_QuantityLeftDefault(t *testing.T) {
	var missing Exchange
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x1","food_id":"bread","items":[]}`), &missing))
	require.Equal(t, DefaultQuantityLeft, missing.QuantityLeft)

	var null Exchange
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x1","quantity_left":null}`), &null))
	require.Equal(t, DefaultQuantityLeft, null.QuantityLeft)

	var zero Exchange
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x1","quantity_left":0,"left_unit_id":"unit_yk"}`), &zero))
	require.Equal(t, 0.0, zero.QuantityLeft)
	require.Equal(t, "unit_yk", *zero.LeftUnitID)

	got, err := FromRow[Exchange](Row{"id": "x2", "food_id": "bread", "quantity_left": 0.0})
	require.NoError(t, err)
	require.Equal(t, 0.0, NormalizeExchange(got).QuantityLeft)

	merged, err := Merge(got, Fields{"food_id": "rice"})
	require.NoError(t, err)
	require.Equal(t, 0.0, merged.QuantityLeft)
	require.Equal(t, "rice", merged.FoodID)
}

func TestNormalizeExchange_NoEquivalents(t *testing.T) {
	got := NormalizeExchange(Exchange{ID: "x", FoodID: "f"})
	require.Empty(t, got.Items)
	require.Empty(t, got.Equivalents())
}

func TestDefaultUnits(t *testing.T) {
	units := DefaultUnits()
	require.Len(t, units, 10)
	for _, u := range units {
		require.True(t, IsDefaultUnit(u.ID), u.ID)
	}
	require.False(t, IsDefaultUnit("unit_custom"))

	units[0].Name = "changed"
	require.Equal(t, "Bardak", DefaultUnits()[0].Name)
}

func TestClampSettings(t *testing.T) {
	require.Equal(t, 50, ClampGlassVolume(10))
	require.Equal(t, 500, ClampGlassVolume(9000))
	require.Equal(t, 250, ClampGlassVolume(250))
	require.Equal(t, DefaultGlassVolumeMl, ClampGlassVolume(0))

	require.Equal(t, 99, ClampWaterTarget(150))
	require.Equal(t, 1, ClampWaterTarget(1))
	require.Equal(t, DefaultWaterTarget, ClampWaterTarget(-3))
}

func TestMealItemValidate(t *testing.T) {
	require.NoError(t, MealItem{FoodID: Ptr("f")}.Validate())
	require.NoError(t, MealItem{RecipeID: Ptr("r")}.Validate())
	require.ErrorIs(t, MealItem{}.Validate(), ErrMealItemRef)
	require.ErrorIs(t, MealItem{FoodID: Ptr("f"), RecipeID: Ptr("r")}.Validate(), ErrMealItemRef)
	require.ErrorIs(t, MealItem{FoodID: Ptr("")}.Validate(), ErrMealItemRef)
}

func TestParseMealType(t *testing.T) {
	m, err := ParseMealType(" Lunch ")
	require.NoError(t, err)
	require.Equal(t, Lunch, m)

	_, err = ParseMealType("brunch")
	require.Error(t, err)
}

func TestMerge(t *testing.T) {
	f := Food{ID: "f1", Name: "Elma", DefaultUnitID: Ptr("unit_adet")}

	got, err := Merge(f, Fields{"name": "Armut", "id": "other", "default_unit_id": nil})
	require.NoError(t, err)
	require.Equal(t, "f1", got.ID)
	require.Equal(t, "Armut", got.Name)
	require.Nil(t, got.DefaultUnitID)
}

func TestFieldsNormalize(t *testing.T) {
	f, err := Fields{
		"glasses": 3,
		"unit_id": Ptr("unit_g"),
		"items":   []ExchangeItem{{EquivalentFoodID: "a", Quantity: 1}},
		"id":      "dropped",
	}.Normalize()
	require.NoError(t, err)
	require.Equal(t, 3.0, f["glasses"])
	require.Equal(t, "unit_g", f["unit_id"])
	require.Equal(t, []any{map[string]any{"equivalent_food_id": "a", "quantity": 1.0, "unit_id": nil}}, f["items"])
	require.NotContains(t, f, "id")
}

func TestRowConversion(t *testing.T) {
	w := WeightLog{ID: "w1", Date: "2024-05-01", Weight: 72.5, CreatedAt: "2024-05-01T08:00:00Z"}
	r, err := ToRow(w)
	require.NoError(t, err)
	require.Equal(t, 72.5, r["weight"])

	// Server rows carry columns the client does not model.
	r["user_id"] = "someone"
	back, err := FromRow[WeightLog](r)
	require.NoError(t, err)
	require.Equal(t, w, back)
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	require.NotEqual(t, a, b)
	id, err := uuid.FromString(a)
	require.NoError(t, err)
	require.Equal(t, byte(7), id.Version())
}
