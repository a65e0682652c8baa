// Package model defines domain entities used by the store, services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Remote table names.
const (
	TableUnits            = "units"
	TableFoods            = "foods"
	TableExchanges        = "food_exchanges"
	TableRecipes          = "recipes"
	TableRecipeCategories = "recipe_categories"
	TableDailyMeals       = "daily_meals"
	TableMealItems        = "meal_items"
	TableWaterLogs        = "water_logs"
	TableWeightLogs       = "weight_logs"
)

// Tables lists every synced table in push order.
var Tables = []string{
	TableUnits,
	TableFoods,
	TableExchanges,
	TableRecipes,
	TableRecipeCategories,
	TableDailyMeals,
	TableMealItems,
	TableWaterLogs,
	TableWeightLogs,
}

// Record is implemented by every entity keyed by a client-generated id.
type Record interface {
	RecordID() string
}

// NewID returns a fresh time-ordered identifier.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Timestamp formats t the way created_at is stored.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Unit is a measurement unit (cup, tablespoon, gram...).
type Unit struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// Food is a plain food or a recipe proxy when RecipeID is set.
type Food struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	DefaultUnitID *string `json:"default_unit_id"`
	RecipeID      *string `json:"recipe_id,omitempty"`
	CreatedAt     string  `json:"created_at,omitempty"`
}

// Recipe is a free-text recipe.
type Recipe struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	CategoryID   *string `json:"category_id"`
	Ingredients  string  `json:"ingredients"`
	Instructions string  `json:"instructions"`
	CreatedAt    string  `json:"created_at,omitempty"`
}

// RecipeCategory groups recipes; Color is a display hint.
type RecipeCategory struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	CreatedAt string `json:"created_at,omitempty"`
}

// DailyMeal is one meal slot of one day.
type DailyMeal struct {
	ID        string   `json:"id"`
	Date      string   `json:"date"`
	MealType  MealType `json:"meal_type"`
	CreatedAt string   `json:"created_at,omitempty"`
}

// WaterLog counts glasses drunk on a date.
type WaterLog struct {
	ID      string `json:"id"`
	Date    string `json:"date"`
	Glasses int    `json:"glasses"`
	// Target is a per-day target written by older clients.
	//
	// Deprecated: read-only; the global water target setting is authoritative.
	Target    *int   `json:"target,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// WeightLog is a single weigh-in; at most one per date.
type WeightLog struct {
	ID        string  `json:"id"`
	Date      string  `json:"date"`
	Weight    float64 `json:"weight"`
	CreatedAt string  `json:"created_at,omitempty"`
}

// Settings are global, not per date.
type Settings struct {
	WaterTargetDefault int      `json:"waterTargetDefault"`
	WaterGlassVolumeMl int      `json:"waterGlassVolumeMl"`
	WeightTarget       *float64 `json:"weightTarget,omitempty"`
}

// Settings defaults and bounds.
const (
	DefaultWaterTarget      = 8
	MinWaterTarget          = 1
	MaxWaterTarget          = 99
	DefaultGlassVolumeMl    = 200
	MinGlassVolumeMl        = 50
	MaxGlassVolumeMl        = 500
	WeightAchievedTolerance = 0.2
)

// DefaultSettings returns settings of a fresh install.
func DefaultSettings() Settings {
	return Settings{WaterTargetDefault: DefaultWaterTarget, WaterGlassVolumeMl: DefaultGlassVolumeMl}
}

// ClampWaterTarget maps n into [1,99]; non-positive values mean the default.
func ClampWaterTarget(n int) int {
	if n <= 0 {
		return DefaultWaterTarget
	}
	return min(max(n, MinWaterTarget), MaxWaterTarget)
}

// ClampGlassVolume maps n into [50,500]; non-positive values mean the default.
func ClampGlassVolume(n int) int {
	if n <= 0 {
		return DefaultGlassVolumeMl
	}
	return min(max(n, MinGlassVolumeMl), MaxGlassVolumeMl)
}

func (u Unit) RecordID() string           { return u.ID }
func (f Food) RecordID() string           { return f.ID }
func (r Recipe) RecordID() string         { return r.ID }
func (c RecipeCategory) RecordID() string { return c.ID }
func (e Exchange) RecordID() string       { return e.ID }
func (m DailyMeal) RecordID() string      { return m.ID }
func (m MealItem) RecordID() string       { return m.ID }
func (w WaterLog) RecordID() string       { return w.ID }
func (w WeightLog) RecordID() string      { return w.ID }

// User represents an account stored on the server. Passwords are never stored in plaintext.
type User struct {
	ID        uuid.UUID // PK
	Email     string    // unique, lower-case
	PwdHash   []byte    // Argon2id(password, Salt)
	Salt      []byte    // per-user salt
	CreatedAt time.Time
}

// AuthUser is the client-visible part of a user.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an authenticated session handed to clients.
type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        AuthUser  `json:"user"`
}

// Expired reports whether the access token is past its expiry.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// AuthEvent names an auth state transition.
type AuthEvent string

// Auth events delivered to OnAuthStateChange listeners.
const (
	AuthSignedIn  AuthEvent = "SIGNED_IN"
	AuthSignedOut AuthEvent = "SIGNED_OUT"
)
