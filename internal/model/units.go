package model

// defaultUnits is the built-in unit table seeded on first run and after wipes.
var defaultUnits = []Unit{
	{ID: "unit_bardak", Name: "Bardak", Abbreviation: "brd"},
	{ID: "unit_yk", Name: "Yemek Kaşığı", Abbreviation: "yk"},
	{ID: "unit_tk", Name: "Tatlı Kaşığı", Abbreviation: "tk"},
	{ID: "unit_ck", Name: "Çay Kaşığı", Abbreviation: "çk"},
	{ID: "unit_kase", Name: "Kase", Abbreviation: "kase"},
	{ID: "unit_adet", Name: "Adet", Abbreviation: "adet"},
	{ID: "unit_avuc", Name: "Avuç", Abbreviation: "avuç"},
	{ID: "unit_gram", Name: "Gram", Abbreviation: "g"},
	{ID: "unit_dilim", Name: "Dilim", Abbreviation: "dilim"},
	{ID: "unit_porsiyon", Name: "Porsiyon", Abbreviation: "prs"},
}

// DefaultUnits returns a fresh copy of the built-in units.
func DefaultUnits() []Unit {
	out := make([]Unit, len(defaultUnits))
	copy(out, defaultUnits)
	return out
}

// IsDefaultUnit reports whether id belongs to the protected built-in set.
func IsDefaultUnit(id string) bool {
	for _, u := range defaultUnits {
		if u.ID == id {
			return true
		}
	}
	return false
}
