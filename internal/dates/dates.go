// Package dates normalizes calendar dates and formats them for display in Turkish.
package dates

import (
	"fmt"
	"strings"
	"time"

	"github.com/and161185/nutrito/internal/model"
)

// Layout is the storage format of every date field.
const Layout = "2006-01-02"

var monthsLong = [...]string{
	"Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran",
	"Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık",
}

var monthsShort = [...]string{
	"Oca", "Şub", "Mar", "Nis", "May", "Haz",
	"Tem", "Ağu", "Eyl", "Eki", "Kas", "Ara",
}

var weekdays = [...]string{
	"Pazar", "Pazartesi", "Salı", "Çarşamba", "Perşembe", "Cuma", "Cumartesi",
}

var mealLabels = map[model.MealType]string{
	model.Breakfast: "Kahvaltı",
	model.Lunch:     "Öğle",
	model.Snack:     "Ara Öğün",
	model.Dinner:    "Akşam",
}

// FromTime returns the local calendar date of t.
func FromTime(t time.Time) string { return t.Format(Layout) }

// Today returns the current local date.
func Today() string { return FromTime(time.Now()) }

// Normalize cuts timestamps down to their date part ("2024-05-01T10:00:00Z" -> "2024-05-01").
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > len(Layout) {
		s = s[:len(Layout)]
	}
	return s
}

// Parse parses a (possibly timestamped) date.
func Parse(s string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, Normalize(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// Valid reports whether s is a YYYY-MM-DD date.
func Valid(s string) bool {
	_, err := time.Parse(Layout, s)
	return err == nil
}

// AddDays shifts a date by n days. Invalid input is returned unchanged.
func AddDays(s string, n int) string {
	t, err := Parse(s)
	if err != nil {
		return s
	}
	return FromTime(t.AddDate(0, 0, n))
}

// Display renders a date like "5 Mayıs Pazartesi".
func Display(s string) string {
	t, err := Parse(s)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%d %s %s", t.Day(), monthsLong[t.Month()-1], weekdays[t.Weekday()])
}

// Short renders a date like "5 May".
func Short(s string) string {
	t, err := Parse(s)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%d %s", t.Day(), monthsShort[t.Month()-1])
}

// MealLabel returns the Turkish label of a meal type.
func MealLabel(m model.MealType) string {
	if l, ok := mealLabels[m]; ok {
		return l
	}
	return string(m)
}
