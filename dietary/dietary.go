// Package dietary describes the dietary and allergen flags shared by menu
// items, mystery bags and user preferences, and the tri-state filters over them.
package dietary

import (
	"strconv"
	"strings"
)

type SpiceLevel string

const (
	SpiceNone       SpiceLevel = "NONE"
	SpiceMild       SpiceLevel = "MILD"
	SpiceMedium     SpiceLevel = "MEDIUM"
	SpiceSpicy      SpiceLevel = "SPICY"
	SpiceExtraSpicy SpiceLevel = "EXTRA_SPICY"
)

var spiceLevels = map[SpiceLevel]bool{
	SpiceNone: true, SpiceMild: true, SpiceMedium: true, SpiceSpicy: true, SpiceExtraSpicy: true,
}

// ParseSpiceLevel accepts any case; empty input means "not specified"
func ParseSpiceLevel(s string) (SpiceLevel, bool) {
	if s == "" {
		return "", true
	}
	lvl := SpiceLevel(strings.ToUpper(strings.TrimSpace(s)))
	return lvl, spiceLevels[lvl]
}

// Descriptor is embedded into gorm models, so column names stay flat
// (is_vegetarian, contains_nuts, ...).
type Descriptor struct {
	IsVegetarian    bool       `json:"is_vegetarian" gorm:"not null"`
	IsJain          bool       `json:"is_jain" gorm:"not null"`
	IsVegan         bool       `json:"is_vegan" gorm:"not null"`
	IsHalal         bool       `json:"is_halal" gorm:"not null"`
	ContainsDairy   bool       `json:"contains_dairy" gorm:"not null"`
	ContainsEggs    bool       `json:"contains_eggs" gorm:"not null"`
	ContainsNuts    bool       `json:"contains_nuts" gorm:"not null"`
	ContainsGluten  bool       `json:"contains_gluten" gorm:"not null"`
	ContainsAlcohol bool       `json:"contains_alcohol" gorm:"not null"`
	SpiceLevel      SpiceLevel `json:"spice_level" gorm:"size:20"`
}

// DefaultDescriptor is what a new catalog entry starts from when the
// request leaves a flag out.
func DefaultDescriptor() Descriptor {
	return Descriptor{IsVegetarian: true, ContainsDairy: true, ContainsGluten: true, SpiceLevel: SpiceMedium}
}

// Summary is the read-only projection clients filter on
type Summary struct {
	Vegetarian      bool       `json:"vegetarian"`
	Jain            bool       `json:"jain"`
	Vegan           bool       `json:"vegan"`
	Halal           bool       `json:"halal"`
	ContainsDairy   bool       `json:"contains_dairy"`
	ContainsEggs    bool       `json:"contains_eggs"`
	ContainsNuts    bool       `json:"contains_nuts"`
	ContainsGluten  bool       `json:"contains_gluten"`
	ContainsAlcohol bool       `json:"contains_alcohol"`
	SpiceLevel      SpiceLevel `json:"spice_level"`
}

func (d Descriptor) Summary() Summary {
	return Summary{
		Vegetarian:      d.IsVegetarian,
		Jain:            d.IsJain,
		Vegan:           d.IsVegan,
		Halal:           d.IsHalal,
		ContainsDairy:   d.ContainsDairy,
		ContainsEggs:    d.ContainsEggs,
		ContainsNuts:    d.ContainsNuts,
		ContainsGluten:  d.ContainsGluten,
		ContainsAlcohol: d.ContainsAlcohol,
		SpiceLevel:      d.SpiceLevel,
	}
}

// Filter holds one optional constraint per flag. A nil field leaves that
// dimension unconstrained; a set field must match the flag exactly.
type Filter struct {
	Vegetarian      *bool
	Jain            *bool
	Vegan           *bool
	Halal           *bool
	ContainsDairy   *bool
	ContainsEggs    *bool
	ContainsNuts    *bool
	ContainsGluten  *bool
	ContainsAlcohol *bool
	SpiceLevel      SpiceLevel
}

func (f Filter) Matches(d Descriptor) bool {
	checks := []struct {
		want *bool
		have bool
	}{
		{f.Vegetarian, d.IsVegetarian},
		{f.Jain, d.IsJain},
		{f.Vegan, d.IsVegan},
		{f.Halal, d.IsHalal},
		{f.ContainsDairy, d.ContainsDairy},
		{f.ContainsEggs, d.ContainsEggs},
		{f.ContainsNuts, d.ContainsNuts},
		{f.ContainsGluten, d.ContainsGluten},
		{f.ContainsAlcohol, d.ContainsAlcohol},
	}
	for _, c := range checks {
		if c.want != nil && *c.want != c.have {
			return false
		}
	}
	return f.SpiceLevel == "" || f.SpiceLevel == d.SpiceLevel
}

// IsEmpty reports whether no dimension is constrained
func (f Filter) IsEmpty() bool {
	return f == Filter{}
}

// FilterFromQuery reads the flag parameters (is_vegetarian=true, contains_nuts=false, ...)
// via get, typically gin's c.Query. Unparseable booleans are reported by name.
func FilterFromQuery(get func(string) string) (Filter, []string) {
	var f Filter
	var bad []string
	fields := []struct {
		name string
		dst  **bool
	}{
		{"is_vegetarian", &f.Vegetarian},
		{"is_jain", &f.Jain},
		{"is_vegan", &f.Vegan},
		{"is_halal", &f.Halal},
		{"contains_dairy", &f.ContainsDairy},
		{"contains_eggs", &f.ContainsEggs},
		{"contains_nuts", &f.ContainsNuts},
		{"contains_gluten", &f.ContainsGluten},
		{"contains_alcohol", &f.ContainsAlcohol},
	}
	for _, fld := range fields {
		v, ok, err := ParseTriState(get(fld.name))
		if err != nil {
			bad = append(bad, fld.name)
			continue
		}
		if ok {
			*fld.dst = &v
		}
	}
	if lvl, ok := ParseSpiceLevel(get("spice_level")); ok {
		f.SpiceLevel = lvl
	} else {
		bad = append(bad, "spice_level")
	}
	return f, bad
}

// ParseTriState parses an optional boolean query value.
// ok is false when the parameter was absent.
func ParseTriState(raw string) (value bool, ok bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, err
	}
	return v, true, nil
}
