package dates

import (
	"testing"
	"time"

	"github.com/and161185/nutrito/internal/model"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	require.Equal(t, "2024-05-01", Normalize("2024-05-01T10:00:00.000Z"))
	require.Equal(t, "2024-05-01", Normalize(" 2024-05-01 "))
	require.Equal(t, "", Normalize(""))
}

func TestAddDays(t *testing.T) {
	require.Equal(t, "2024-03-01", AddDays("2024-02-29", 1))
	require.Equal(t, "2023-12-31", AddDays("2024-01-01", -1))
	require.Equal(t, "garbage", AddDays("garbage", 1))
}

func TestDisplay(t *testing.T) {
	// 2024-05-06 is a Monday.
	require.Equal(t, "6 Mayıs Pazartesi", Display("2024-05-06"))
	require.Equal(t, "6 May", Short("2024-05-06"))
	require.Equal(t, "31 Ağu", Short("2025-08-31"))
	require.Equal(t, "bad", Display("bad"))
}

func TestValid(t *testing.T) {
	require.True(t, Valid("2024-02-29"))
	require.False(t, Valid("2023-02-29"))
	require.False(t, Valid("2024-5-1"))
}

func TestFromTime(t *testing.T) {
	ts := time.Date(2024, 12, 31, 23, 59, 0, 0, time.Local)
	require.Equal(t, "2024-12-31", FromTime(ts))
}

func TestMealLabel(t *testing.T) {
	require.Equal(t, "Kahvaltı", MealLabel(model.Breakfast))
	require.Equal(t, "Akşam", MealLabel(model.Dinner))
	require.Equal(t, "brunch", MealLabel("brunch"))
}
