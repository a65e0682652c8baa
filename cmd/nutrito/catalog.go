package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/and161185/nutrito/internal/model"
	"github.com/and161185/nutrito/internal/store"
)

// listFlag collects a repeatable string flag.
type listFlag []string

func (l *listFlag) String() string     { return strings.Join(*l, ",") }
func (l *listFlag) Set(v string) error { *l = append(*l, v); return nil }

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
}

func split(args []string) (string, []string) {
	if len(args) == 0 {
		return "", nil
	}
	return args[0], args[1:]
}

func (a *app) idArg(name string, args []string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", a.usage("%s: need exactly one id", name)
	}
	return args[0], nil
}

// --- lookups: by id, then by name (case-insensitive) ---

func (a *app) food(ref string) (model.Food, error) {
	foods := a.store.Snapshot().Foods
	for _, f := range foods {
		if f.ID == ref {
			return f, nil
		}
	}
	for _, f := range foods {
		if strings.EqualFold(f.Name, ref) {
			return f, nil
		}
	}
	return model.Food{}, fmt.Errorf("food %q not found", ref)
}

func (a *app) recipe(ref string) (model.Recipe, error) {
	recipes := a.store.Snapshot().Recipes
	for _, r := range recipes {
		if r.ID == ref {
			return r, nil
		}
	}
	for _, r := range recipes {
		if strings.EqualFold(r.Title, ref) {
			return r, nil
		}
	}
	return model.Recipe{}, fmt.Errorf("recipe %q not found", ref)
}

// unit resolves an optional unit reference; empty means none.
func (a *app) unit(ref string) (*string, error) {
	if ref == "" {
		return nil, nil
	}
	for _, u := range a.store.Snapshot().Units {
		if u.ID == ref || strings.EqualFold(u.Name, ref) || strings.EqualFold(u.Abbreviation, ref) {
			return model.Ptr(u.ID), nil
		}
	}
	return nil, fmt.Errorf("unit %q not found", ref)
}

func (a *app) category(ref string) (*string, error) {
	if ref == "" {
		return nil, nil
	}
	for _, c := range a.store.Snapshot().RecipeCategories {
		if c.ID == ref || strings.EqualFold(c.Name, ref) {
			return model.Ptr(c.ID), nil
		}
	}
	return nil, fmt.Errorf("category %q not found", ref)
}

func (a *app) unitLabel(id *string) string {
	if id == nil {
		return ""
	}
	for _, u := range a.store.Snapshot().Units {
		if u.ID == *id {
			return u.Abbreviation
		}
	}
	return *id
}

func qty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// --- unit ---

func (a *app) cmdUnit(args []string) error {
	action, rest := split(args)
	switch action {
	case "add":
		fs := a.flags("unit add")
		name := fs.String("name", "", "unit name")
		abbr := fs.String("abbr", "", "abbreviation")
		if err := parse(fs, rest); err != nil {
			return err
		}
		if *name == "" {
			return a.usage("unit add: need -name")
		}
		u := a.store.AddUnit(model.Unit{Name: *name, Abbreviation: *abbr})
		fmt.Fprintln(a.out, u.ID)
	case "rm":
		id, err := a.idArg("unit rm", rest)
		if err != nil {
			return err
		}
		if model.IsDefaultUnit(id) {
			return fmt.Errorf("unit %s is built in and cannot be removed", id)
		}
		if !a.store.DeleteUnit(id) {
			return fmt.Errorf("unit %q not found", id)
		}
		fmt.Fprintln(a.out, "removed")
	case "ls":
		w := a.table()
		fmt.Fprintln(w, "ID\tNAME\tABBR")
		for _, u := range a.store.Snapshot().Units {
			fmt.Fprintf(w, "%s\t%s\t%s\n", u.ID, u.Name, u.Abbreviation)
		}
		return w.Flush()
	default:
		return a.usage("unit: add, rm or ls")
	}
	return nil
}

// --- food ---

func (a *app) cmdFood(args []string) error {
	action, rest := split(args)
	switch action {
	case "add":
		fs := a.flags("food add")
		name := fs.String("name", "", "food name")
		unitRef := fs.String("unit", "", "default unit")
		if err := parse(fs, rest); err != nil {
			return err
		}
		if strings.TrimSpace(*name) == "" {
			return a.usage("food add: need -name")
		}
		unitID, err := a.unit(*unitRef)
		if err != nil {
			return err
		}
		f := a.store.AddFood(model.Food{Name: strings.TrimSpace(*name), DefaultUnitID: unitID})
		fmt.Fprintln(a.out, f.ID)
	case "rm":
		id, err := a.idArg("food rm", rest)
		if err != nil {
			return err
		}
		if !a.store.DeleteFood(id) {
			return fmt.Errorf("food %q not found", id)
		}
		fmt.Fprintln(a.out, "removed")
	case "ls":
		fs := a.flags("food ls")
		q := fs.String("q", "", "name filter")
		if err := parse(fs, rest); err != nil {
			return err
		}
		needle := strings.ToLower(*q)
		w := a.table()
		fmt.Fprintln(w, "ID\tNAME\tUNIT")
		for _, f := range a.store.Snapshot().Foods {
			if needle != "" && !strings.Contains(strings.ToLower(f.Name), needle) {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", f.ID, f.Name, a.unitLabel(f.DefaultUnitID))
		}
		return w.Flush()
	default:
		return a.usage("food: add, rm or ls")
	}
	return nil
}

// --- exchange ---

// exchangeItem parses food:qty[:unit].
func (a *app) exchangeItem(raw string) (model.ExchangeItem, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return model.ExchangeItem{}, fmt.Errorf("item %q: want food:qty[:unit]", raw)
	}
	f, err := a.food(parts[0])
	if err != nil {
		return model.ExchangeItem{}, err
	}
	q, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || q <= 0 {
		return model.ExchangeItem{}, fmt.Errorf("item %q: bad quantity", raw)
	}
	it := model.ExchangeItem{EquivalentFoodID: f.ID, Quantity: q}
	if len(parts) == 3 {
		if it.UnitID, err = a.unit(parts[2]); err != nil {
			return model.ExchangeItem{}, err
		}
	}
	return it, nil
}

func (a *app) sideLabel(name string, q float64, unitID *string) string {
	s := qty(q)
	if u := a.unitLabel(unitID); u != "" {
		s += " " + u
	}
	return s + " " + name
}

func (a *app) cmdExchange(args []string) error {
	action, rest := split(args)
	switch action {
	case "add":
		fs := a.flags("exchange add")
		foodRef := fs.String("food", "", "left-hand food")
		left := fs.Float64("qty", 1, "left-hand quantity")
		unitRef := fs.String("unit", "", "left-hand unit")
		var items listFlag
		fs.Var(&items, "item", "equivalent as food:qty[:unit] (repeatable)")
		if err := parse(fs, rest); err != nil {
			return err
		}
		if *foodRef == "" || len(items) == 0 {
			return a.usage("exchange add: need -food and at least one -item")
		}
		f, err := a.food(*foodRef)
		if err != nil {
			return err
		}
		unitID, err := a.unit(*unitRef)
		if err != nil {
			return err
		}
		e := model.Exchange{FoodID: f.ID, QuantityLeft: *left, LeftUnitID: unitID}
		for _, raw := range items {
			it, err := a.exchangeItem(raw)
			if err != nil {
				return err
			}
			e.Items = append(e.Items, it)
		}
		e = a.store.AddExchange(e)
		fmt.Fprintln(a.out, e.ID)
	case "rm":
		id, err := a.idArg("exchange rm", rest)
		if err != nil {
			return err
		}
		if !a.store.DeleteExchange(id) {
			return fmt.Errorf("exchange %q not found", id)
		}
		fmt.Fprintln(a.out, "removed")
	case "ls":
		fs := a.flags("exchange ls")
		foodRef := fs.String("food", "", "show exchanges involving this food")
		if err := parse(fs, rest); err != nil {
			return err
		}
		if *foodRef != "" {
			return a.listExchangesFor(*foodRef)
		}
		return a.listExchanges()
	default:
		return a.usage("exchange: add, rm or ls")
	}
	return nil
}

func (a *app) listExchanges() error {
	st := a.store.Snapshot()
	names := make(map[string]string, len(st.Foods))
	for _, f := range st.Foods {
		names[f.ID] = f.Name
	}
	w := a.table()
	fmt.Fprintln(w, "ID\tEXCHANGE")
	for _, e := range st.Exchanges {
		rhs := make([]string, 0, len(e.Items))
		for _, it := range e.Equivalents() {
			rhs = append(rhs, a.sideLabel(names[it.EquivalentFoodID], it.Quantity, it.UnitID))
		}
		fmt.Fprintf(w, "%s\t%s = %s\n", e.ID, a.sideLabel(names[e.FoodID], e.QuantityLeft, e.LeftUnitID), strings.Join(rhs, " + "))
	}
	return w.Flush()
}

func (a *app) listExchangesFor(ref string) error {
	f, err := a.food(ref)
	if err != nil {
		return err
	}
	views := a.store.ExchangesForFood(f.ID)
	if len(views) == 0 {
		fmt.Fprintf(a.out, "no exchanges for %s\n", f.Name)
		return nil
	}
	label := func(s store.Side) string {
		name := s.FoodID
		if s.Food != nil {
			name = s.Food.Name
		}
		var unitID *string
		if s.Unit != nil {
			unitID = &s.Unit.ID
		}
		return a.sideLabel(name, s.Quantity, unitID)
	}
	w := a.table()
	for _, v := range views {
		rhs := make([]string, 0, len(v.Right))
		for _, r := range v.Right {
			rhs = append(rhs, label(r))
		}
		dir := ""
		if v.Reverse {
			dir = "(reverse)"
		}
		fmt.Fprintf(w, "%s\t%s = %s\t%s\n", v.ID, label(v.Left), strings.Join(rhs, " + "), dir)
	}
	return w.Flush()
}

// --- recipe categories ---

func (a *app) cmdCategory(args []string) error {
	action, rest := split(args)
	switch action {
	case "add":
		fs := a.flags("category add")
		name := fs.String("name", "", "category name")
		color := fs.String("color", "#10b981", "display color")
		if err := parse(fs, rest); err != nil {
			return err
		}
		if *name == "" {
			return a.usage("category add: need -name")
		}
		c := a.store.AddRecipeCategory(model.RecipeCategory{Name: *name, Color: *color})
		fmt.Fprintln(a.out, c.ID)
	case "rm":
		id, err := a.idArg("category rm", rest)
		if err != nil {
			return err
		}
		if !a.store.DeleteRecipeCategory(id) {
			return fmt.Errorf("category %q not found", id)
		}
		fmt.Fprintln(a.out, "removed")
	case "ls":
		w := a.table()
		fmt.Fprintln(w, "ID\tNAME\tCOLOR")
		for _, c := range a.store.Snapshot().RecipeCategories {
			fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Name, c.Color)
		}
		return w.Flush()
	default:
		return a.usage("category: add, rm or ls")
	}
	return nil
}

// --- recipes ---

func (a *app) recipeFilter(name string, args []string) ([]model.Recipe, error) {
	fs := a.flags(name)
	q := fs.String("q", "", "title filter")
	cat := fs.String("category", "", "category")
	if err := parse(fs, args); err != nil {
		return nil, err
	}
	catID, err := a.category(*cat)
	if err != nil {
		return nil, err
	}
	return a.store.FilterRecipes(*q, model.Deref(catID)), nil
}

func (a *app) cmdRecipe(args []string) error {
	action, rest := split(args)
	switch action {
	case "add":
		fs := a.flags("recipe add")
		title := fs.String("title", "", "recipe title")
		cat := fs.String("category", "", "category")
		ingredients := fs.String("ingredients", "", "ingredients text")
		instructions := fs.String("instructions", "", "instructions text")
		if err := parse(fs, rest); err != nil {
			return err
		}
		if strings.TrimSpace(*title) == "" {
			return a.usage("recipe add: need -title")
		}
		catID, err := a.category(*cat)
		if err != nil {
			return err
		}
		r := a.store.AddRecipe(model.Recipe{Title: strings.TrimSpace(*title), CategoryID: catID, Ingredients: *ingredients, Instructions: *instructions})
		fmt.Fprintln(a.out, r.ID)
	case "rm":
		id, err := a.idArg("recipe rm", rest)
		if err != nil {
			return err
		}
		if !a.store.DeleteRecipe(id) {
			return fmt.Errorf("recipe %q not found", id)
		}
		fmt.Fprintln(a.out, "removed")
	case "ls":
		list, err := a.recipeFilter("recipe ls", rest)
		if err != nil {
			return err
		}
		w := a.table()
		fmt.Fprintln(w, "ID\tTITLE")
		for _, r := range list {
			fmt.Fprintf(w, "%s\t%s\n", r.ID, r.Title)
		}
		return w.Flush()
	case "random":
		list, err := a.recipeFilter("recipe random", rest)
		if err != nil {
			return err
		}
		r, ok := a.store.RandomRecipe(list)
		if !ok {
			return errors.New("no recipes match")
		}
		fmt.Fprintf(a.out, "%s\n\n%s\n\n%s\n", r.Title, r.Ingredients, r.Instructions)
	default:
		return a.usage("recipe: add, rm, ls or random")
	}
	return nil
}
