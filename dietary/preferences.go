package dietary

// SpicePreference is what a customer tolerates; ANY means no constraint
type SpicePreference string

const (
	PreferMild   SpicePreference = "MILD"
	PreferMedium SpicePreference = "MEDIUM"
	PreferSpicy  SpicePreference = "SPICY"
	PreferAny    SpicePreference = "ANY"
)

func (p SpicePreference) Valid() bool {
	switch p {
	case PreferMild, PreferMedium, PreferSpicy, PreferAny:
		return true
	}
	return false
}

// Preferences is the dietary part of a user profile
type Preferences struct {
	IsVegetarian    bool            `json:"is_vegetarian" gorm:"not null;default:false"`
	IsJain          bool            `json:"is_jain" gorm:"not null;default:false"`
	IsVegan         bool            `json:"is_vegan" gorm:"not null;default:false"`
	AvoidsAlcohol   bool            `json:"avoids_alcohol" gorm:"not null;default:false"`
	SpicePreference SpicePreference `json:"spice_preference" gorm:"size:10;not null;default:'ANY'"`
}

// Filter turns preferences into catalog constraints. Only restrictions are
// applied: a non-vegetarian customer is not limited to non-vegetarian food.
func (p Preferences) Filter() Filter {
	yes, no := true, false
	var f Filter
	if p.IsVegetarian || p.IsJain || p.IsVegan {
		f.Vegetarian = &yes
	}
	if p.IsJain {
		f.Jain = &yes
	}
	if p.IsVegan {
		f.Vegan = &yes
	}
	if p.AvoidsAlcohol {
		f.ContainsAlcohol = &no
	}
	return f
}

// ToleratesSpice reports whether an item's spice level is within the preference.
// Items without a declared level always pass.
func (p Preferences) ToleratesSpice(level SpiceLevel) bool {
	if level == "" || p.SpicePreference == PreferAny || p.SpicePreference == "" {
		return true
	}
	rank := map[SpiceLevel]int{SpiceNone: 0, SpiceMild: 1, SpiceMedium: 2, SpiceSpicy: 3, SpiceExtraSpicy: 4}
	limit := map[SpicePreference]int{PreferMild: 1, PreferMedium: 2, PreferSpicy: 4}
	return rank[level] <= limit[p.SpicePreference]
}
