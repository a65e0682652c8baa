package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/and161185/nutrito/internal/dates"
	"github.com/and161185/nutrito/internal/model"
	"github.com/and161185/nutrito/internal/store"
)

// date validates an optional -date value; empty means the current date.
func (a *app) date(v string) (string, error) {
	if v == "" {
		return a.store.CurrentDate(), nil
	}
	d := dates.Normalize(v)
	if !dates.Valid(d) {
		return "", fmt.Errorf("bad date %q, want YYYY-MM-DD", v)
	}
	return d, nil
}

// --- meals ---

func (a *app) cmdMeal(args []string) error {
	action, rest := split(args)
	switch action {
	case "add":
		return a.mealAdd(rest)
	case "rm":
		id, err := a.idArg("meal rm", rest)
		if err != nil {
			return err
		}
		if !a.store.DeleteMealItem(id) {
			return fmt.Errorf("meal item %q not found", id)
		}
		fmt.Fprintln(a.out, "removed")
	case "ls":
		fs := a.flags("meal ls")
		day := fs.String("date", "", "date (YYYY-MM-DD)")
		if err := parse(fs, rest); err != nil {
			return err
		}
		d, err := a.date(*day)
		if err != nil {
			return err
		}
		return a.mealList(d)
	case "copy":
		fs := a.flags("meal copy")
		from := fs.String("from", "", "source date")
		to := fs.String("to", "", "target date (default current date)")
		if err := parse(fs, rest); err != nil {
			return err
		}
		if *from == "" {
			return a.usage("meal copy: need -from")
		}
		src, err := a.date(*from)
		if err != nil {
			return err
		}
		tgt, err := a.date(*to)
		if err != nil {
			return err
		}
		n := a.store.CopyMealsFromDate(src, tgt)
		fmt.Fprintf(a.out, "copied %d items from %s to %s\n", n, dates.Display(src), dates.Display(tgt))
	default:
		return a.usage("meal: add, rm, ls or copy")
	}
	return nil
}

func (a *app) mealAdd(args []string) error {
	fs := a.flags("meal add")
	day := fs.String("date", "", "date (YYYY-MM-DD)")
	typ := fs.String("type", "", "breakfast, lunch, snack or dinner")
	foodRef := fs.String("food", "", "food")
	recipeRef := fs.String("recipe", "", "recipe")
	q := fs.Float64("qty", 1, "quantity")
	unitRef := fs.String("unit", "", "unit")
	if err := parse(fs, args); err != nil {
		return err
	}
	mt, err := model.ParseMealType(*typ)
	if err != nil {
		return a.usage("meal add: %v", err)
	}
	d, err := a.date(*day)
	if err != nil {
		return err
	}
	if *q <= 0 {
		return errors.New("quantity must be positive")
	}

	item := model.MealItem{Quantity: *q}
	if *foodRef != "" {
		f, err := a.food(*foodRef)
		if err != nil {
			return err
		}
		item.FoodID = model.Ptr(f.ID)
		item.UnitID = f.DefaultUnitID
	}
	if *recipeRef != "" {
		r, err := a.recipe(*recipeRef)
		if err != nil {
			return err
		}
		item.RecipeID = model.Ptr(r.ID)
	}
	if err := item.Validate(); err != nil {
		return a.usage("meal add: %v", err)
	}
	if *unitRef != "" {
		if item.UnitID, err = a.unit(*unitRef); err != nil {
			return err
		}
	}

	meal := a.store.GetOrCreateDailyMeal(d, mt)
	item.DailyMealID = meal.ID
	item = a.store.AddMealItem(item)
	fmt.Fprintln(a.out, item.ID)
	return nil
}

func (a *app) itemLabel(v store.MealItemView) string {
	name := "?"
	switch {
	case v.Food != nil:
		name = v.Food.Name
	case v.Recipe != nil:
		name = v.Recipe.Title
	}
	s := qty(v.Quantity)
	if v.Unit != nil {
		s += " " + v.Unit.Abbreviation
	}
	return s + " " + name
}

func (a *app) mealList(d string) error {
	fmt.Fprintln(a.out, dates.Display(d))
	w := a.table()
	for _, mt := range model.MealTypes {
		items := a.store.MealItemsForMeal(d, mt)
		fmt.Fprintf(w, "%s\t\t\n", dates.MealLabel(mt))
		if len(items) == 0 {
			fmt.Fprintln(w, "\t-\t")
		}
		for _, it := range items {
			fmt.Fprintf(w, "\t%s\t%s\n", a.itemLabel(it), it.ID)
		}
	}
	return w.Flush()
}

// --- water ---

func (a *app) cmdWater(args []string) error {
	action, rest := split(args)
	fs := a.flags("water " + action)
	day := fs.String("date", "", "date (YYYY-MM-DD)")
	if err := parse(fs, rest); err != nil {
		return err
	}
	d, err := a.date(*day)
	if err != nil {
		return err
	}
	switch action {
	case "add":
		a.store.AddGlass(d)
	case "rm":
		a.store.RemoveGlass(d)
	case "status":
	default:
		return a.usage("water: add, rm or status")
	}

	ws := a.store.WaterStatus(d)
	fmt.Fprintf(a.out, "%s: %d/%d glasses, %.2f/%.2f L (%.0f%%)",
		dates.Display(d), ws.Glasses, ws.Target, ws.LitersConsumed, ws.LitersTarget, ws.Percent)
	if ws.Complete {
		fmt.Fprint(a.out, " - goal reached")
	}
	fmt.Fprintln(a.out)
	return nil
}

// --- weight ---

func (a *app) cmdWeight(args []string) error {
	action, rest := split(args)
	switch action {
	case "log":
		fs := a.flags("weight log")
		day := fs.String("date", "", "date (YYYY-MM-DD)")
		kg := fs.Float64("kg", 0, "weight in kg")
		if err := parse(fs, rest); err != nil {
			return err
		}
		if *kg <= 0 {
			return a.usage("weight log: need a positive -kg")
		}
		d, err := a.date(*day)
		if err != nil {
			return err
		}
		l := a.store.AddWeightLog(d, *kg)
		fmt.Fprintf(a.out, "%s: %s kg\n", dates.Display(l.Date), qty(l.Weight))
	case "rm":
		id, err := a.idArg("weight rm", rest)
		if err != nil {
			return err
		}
		if !a.store.DeleteWeightLog(id) {
			return fmt.Errorf("weight log %q not found", id)
		}
		fmt.Fprintln(a.out, "removed")
	case "ls":
		w := a.table()
		fmt.Fprintln(w, "ID\tDATE\tKG")
		for _, l := range a.store.SortedWeightLogs() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", l.ID, l.Date, qty(l.Weight))
		}
		return w.Flush()
	case "progress":
		fs := a.flags("weight progress")
		days := fs.Int("days", 30, "period for stats, 0 for all")
		if err := parse(fs, rest); err != nil {
			return err
		}
		return a.weightProgress(*days)
	default:
		return a.usage("weight: log, rm, ls or progress")
	}
	return nil
}

func (a *app) weightProgress(days int) error {
	since := ""
	if days > 0 {
		since = dates.AddDays(dates.FromTime(a.now()), -days)
	}
	if st, ok := a.store.WeightStats(since); ok {
		fmt.Fprintf(a.out, "%d weigh-ins: %s -> %s kg (%+.1f), min %s, max %s\n",
			st.Count, qty(st.First), qty(st.Last), st.Diff, qty(st.Min), qty(st.Max))
	} else {
		fmt.Fprintln(a.out, "not enough weigh-ins for stats")
	}

	target := a.store.Settings().WeightTarget
	if target == nil {
		fmt.Fprintln(a.out, "no weight target set")
		return nil
	}
	p, ok := a.store.WeightProgress()
	if !ok {
		fmt.Fprintf(a.out, "target %s kg\n", qty(*target))
		return nil
	}
	switch {
	case p.Achieved:
		fmt.Fprintf(a.out, "target %s kg reached\n", qty(p.Target))
	case p.Losing:
		fmt.Fprintf(a.out, "target %s kg: %.1f kg to lose (%.0f%%)\n", qty(p.Target), p.Remaining, p.Percent)
	default:
		fmt.Fprintf(a.out, "target %s kg: %.1f kg to gain (%.0f%%)\n", qty(p.Target), -p.Remaining, p.Percent)
	}
	return nil
}

// --- settings ---

func (a *app) cmdSettings(args []string) error {
	fs := a.flags("settings")
	target := fs.Int("water-target", 0, "daily glasses (1-99)")
	glass := fs.Int("glass-ml", 0, "glass volume in ml (50-500)")
	weight := fs.Float64("weight-target", 0, "weight target in kg")
	clearWeight := fs.Bool("clear-weight-target", false, "remove the weight target")
	if err := parse(fs, args); err != nil {
		return err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["water-target"] {
		a.store.SetWaterTargetDefault(*target)
	}
	if set["glass-ml"] {
		a.store.SetWaterGlassVolumeMl(*glass)
	}
	switch {
	case *clearWeight:
		a.store.SetWeightTarget(nil)
	case set["weight-target"]:
		if *weight <= 0 {
			return errors.New("weight target must be positive")
		}
		a.store.SetWeightTarget(weight)
	}

	s := a.store.Settings()
	fmt.Fprintf(a.out, "water target:  %d glasses\n", s.WaterTargetDefault)
	fmt.Fprintf(a.out, "glass volume:  %d ml\n", s.WaterGlassVolumeMl)
	if s.WeightTarget != nil {
		fmt.Fprintf(a.out, "weight target: %s kg\n", qty(*s.WeightTarget))
	} else {
		fmt.Fprintln(a.out, "weight target: -")
	}
	return nil
}

// --- backup ---

func (a *app) cmdExport(args []string) error {
	fs := a.flags("export")
	out := fs.String("o", "", "output file, - for stdout (default nutrito-backup-DATE.json)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *out == "-" {
		return a.store.WriteBackup(a.out)
	}
	name := *out
	if name == "" {
		name = store.BackupFileName(a.now())
	}
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := a.store.WriteBackup(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	fmt.Fprintln(a.out, "exported to", name)
	return nil
}

func (a *app) cmdImport(args []string) error {
	if len(args) != 1 {
		return a.usage("import: need a file or -")
	}
	var r io.Reader = a.in
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}
		defer f.Close()
		r = f
	}
	if err := a.store.ReadBackup(r); err != nil {
		return fmt.Errorf("import: invalid backup file: %w", err)
	}
	st := a.store.Snapshot()
	fmt.Fprintf(a.out, "imported %d foods, %d recipes, %d meal items\n", len(st.Foods), len(st.Recipes), len(st.MealItems))
	return nil
}

func (a *app) cmdClear(args []string) error {
	fs := a.flags("clear")
	yes := fs.Bool("yes", false, "confirm deleting all local data")
	if err := parse(fs, args); err != nil {
		return err
	}
	if !*yes {
		return a.usage("clear: deletes every local record; pass -yes to confirm")
	}
	if err := a.store.ClearAll(a.ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "local data cleared")
	return nil
}
