package store

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/and161185/nutrito/internal/dates"
	"github.com/and161185/nutrito/internal/model"
)

func find[T model.Record](list []T, id *string) *T {
	if id == nil || *id == "" {
		return nil
	}
	for i := range list {
		if list[i].RecordID() == *id {
			v := list[i]
			return &v
		}
	}
	return nil
}

// MealItemView is a meal item joined with what it references.
type MealItemView struct {
	model.MealItem
	Food   *model.Food
	Recipe *model.Recipe
	Unit   *model.Unit
}

// MealItemsForMeal lists the items of the meal (date, mealType).
func (s *Store) MealItemsForMeal(date string, mt model.MealType) []MealItemView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := findMeal(&s.st, dates.Normalize(date), mt)
	if i < 0 {
		return []MealItemView{}
	}
	mealID := s.st.DailyMeals[i].ID

	out := []MealItemView{}
	for _, it := range s.st.MealItems {
		if it.DailyMealID != mealID {
			continue
		}
		out = append(out, MealItemView{
			MealItem: it,
			Food:     find(s.st.Foods, it.FoodID),
			Recipe:   find(s.st.Recipes, it.RecipeID),
			Unit:     find(s.st.Units, it.UnitID),
		})
	}
	return out
}

// Side is one side of an exchange, resolved for display.
type Side struct {
	FoodID   string
	Food     *model.Food
	Quantity float64
	Unit     *model.Unit
}

// ExchangeView presents an exchange from the point of view of one food.
// Reverse views are read right to left from the stored exchange.
type ExchangeView struct {
	ID      string
	Reverse bool
	Left    Side
	Right   []Side
}

// ExchangesForFood lists the exchanges authored for foodID, then the
// exchanges of other foods that list foodID as an equivalent.
func (s *Store) ExchangesForFood(foodID string) []ExchangeView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	side := func(id string, qty float64, unitID *string) Side {
		return Side{FoodID: id, Food: find(s.st.Foods, &id), Quantity: qty, Unit: find(s.st.Units, unitID)}
	}

	out := []ExchangeView{}
	for _, e := range s.st.Exchanges {
		if e.FoodID != foodID {
			continue
		}
		v := ExchangeView{ID: e.ID, Left: side(e.FoodID, e.QuantityLeft, e.LeftUnitID)}
		for _, it := range e.Equivalents() {
			v.Right = append(v.Right, side(it.EquivalentFoodID, it.Quantity, it.UnitID))
		}
		out = append(out, v)
	}
	for _, e := range s.st.Exchanges {
		if e.FoodID == foodID {
			continue
		}
		items := e.Equivalents()
		j := slices.IndexFunc(items, func(it model.ExchangeItem) bool { return it.EquivalentFoodID == foodID })
		if j < 0 {
			continue
		}
		qtyLeft := e.QuantityLeft
		if qtyLeft == 0 {
			qtyLeft = 1
		}
		out = append(out, ExchangeView{
			ID:      e.ID,
			Reverse: true,
			Left:    side(foodID, items[j].Quantity, items[j].UnitID),
			Right:   []Side{side(e.FoodID, qtyLeft, e.LeftUnitID)},
		})
	}
	return out
}

// FilterRecipes returns recipes whose title contains query, ignoring case,
// restricted to categoryID when it is not empty.
func (s *Store) FilterRecipes(query, categoryID string) []model.Recipe {
	q := strings.ToLower(strings.TrimSpace(query))
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Recipe{}
	for _, r := range s.st.Recipes {
		if q != "" && !strings.Contains(strings.ToLower(r.Title), q) {
			continue
		}
		if categoryID != "" && model.Deref(r.CategoryID) != categoryID {
			continue
		}
		out = append(out, r)
	}
	return out
}

// RandomRecipe picks one of recipes uniformly. It reports false when the list is empty.
func (s *Store) RandomRecipe(recipes []model.Recipe) (model.Recipe, bool) {
	if len(recipes) == 0 {
		return model.Recipe{}, false
	}
	s.rndMu.Lock()
	i := s.rnd.IntN(len(recipes))
	s.rndMu.Unlock()
	return recipes[i], true
}

// Progress is the advance towards the weight target.
type Progress struct {
	Start     float64
	Latest    float64
	Target    float64
	Done      float64
	Total     float64
	Remaining float64 // latest - target
	Percent   float64
	Losing    bool
	Achieved  bool
}

// ComputeWeightProgress measures progress from the heaviest (when losing)
// or lightest (when gaining) weigh-in towards target. It reports false when
// there are no logs, no positive target, or no distance to cover.
func ComputeWeightProgress(logs []model.WeightLog, target *float64) (Progress, bool) {
	if target == nil || *target <= 0 || len(logs) == 0 {
		return Progress{}, false
	}
	t := *target

	latest := slices.MaxFunc(logs, func(a, b model.WeightLog) int {
		return cmp.Compare(dates.Normalize(a.Date), dates.Normalize(b.Date))
	}).Weight
	losing := latest > t

	start := logs[0].Weight
	for _, l := range logs[1:] {
		if losing {
			start = max(start, l.Weight)
		} else {
			start = min(start, l.Weight)
		}
	}

	total := math.Abs(t - start)
	if total < 0.01 {
		return Progress{}, false
	}
	done := math.Abs(start - latest)
	return Progress{
		Start:     start,
		Latest:    latest,
		Target:    t,
		Done:      done,
		Total:     total,
		Remaining: latest - t,
		Percent:   min(100, max(0, done/total*100)),
		Losing:    losing,
		Achieved:  math.Abs(latest-t) < model.WeightAchievedTolerance,
	}, true
}

// WeightProgress computes progress over every weigh-in and the current target.
func (s *Store) WeightProgress() (Progress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ComputeWeightProgress(s.st.WeightLogs, s.st.Settings.WeightTarget)
}

// WaterStatus is the water intake of one day against the global target.
type WaterStatus struct {
	Date           string
	Glasses        int
	Target         int
	GlassVolumeMl  int
	LitersConsumed float64
	LitersTarget   float64
	Percent        float64
	Complete       bool
}

// WaterStatus reports intake for date. A day without a log counts zero glasses.
func (s *Store) WaterStatus(date string) WaterStatus {
	d := dates.Normalize(date)
	s.mu.RLock()
	defer s.mu.RUnlock()

	ws := WaterStatus{
		Date:          d,
		Target:        model.ClampWaterTarget(s.st.Settings.WaterTargetDefault),
		GlassVolumeMl: model.ClampGlassVolume(s.st.Settings.WaterGlassVolumeMl),
	}
	if i := findWater(&s.st, d); i >= 0 {
		ws.Glasses = s.st.WaterLogs[i].Glasses
	}
	ws.LitersConsumed = float64(ws.Glasses*ws.GlassVolumeMl) / 1000
	ws.LitersTarget = float64(ws.Target*ws.GlassVolumeMl) / 1000
	ws.Percent = min(100, float64(ws.Glasses)/float64(ws.Target)*100)
	ws.Complete = ws.Glasses >= ws.Target
	return ws
}

// WeightStats summarizes the weigh-ins of a period.
type WeightStats struct {
	Count int
	First float64
	Last  float64
	Min   float64
	Max   float64
	Diff  float64 // last - first
}

// WeightStats summarizes weigh-ins dated on or after since; an empty since
// covers every log. It reports false with fewer than two weigh-ins.
func (s *Store) WeightStats(since string) (WeightStats, bool) {
	cutoff := ""
	if since != "" {
		cutoff = dates.Normalize(since)
	}

	var logs []model.WeightLog
	for _, l := range s.SortedWeightLogs() {
		if dates.Normalize(l.Date) >= cutoff {
			logs = append(logs, l)
		}
	}
	if len(logs) < 2 {
		return WeightStats{}, false
	}
	slices.Reverse(logs)

	st := WeightStats{Count: len(logs), First: logs[0].Weight, Last: logs[len(logs)-1].Weight, Min: logs[0].Weight, Max: logs[0].Weight}
	for _, l := range logs[1:] {
		st.Min = min(st.Min, l.Weight)
		st.Max = max(st.Max, l.Weight)
	}
	st.Diff = st.Last - st.First
	return st, true
}

// SortedWeightLogs returns every weigh-in, newest first.
func (s *Store) SortedWeightLogs() []model.WeightLog {
	logs := s.Snapshot().WeightLogs
	slices.SortStableFunc(logs, func(a, b model.WeightLog) int {
		return cmp.Compare(dates.Normalize(b.Date), dates.Normalize(a.Date))
	})
	return logs
}
