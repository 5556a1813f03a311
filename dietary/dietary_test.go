package dietary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func boolp(b bool) *bool { return &b }

func TestFilter_EmptyMatchesEverything(t *testing.T) {
	f := Filter{}
	assert.True(t, f.IsEmpty())
	assert.True(t, f.Matches(Descriptor{}))
	assert.True(t, f.Matches(Descriptor{IsVegetarian: true, ContainsNuts: true, SpiceLevel: SpiceSpicy}))
}

func TestFilter_ExactMatchOnSetFlags(t *testing.T) {
	veg := Descriptor{IsVegetarian: true, ContainsDairy: true}
	nonVeg := Descriptor{IsVegetarian: false}

	f := Filter{Vegetarian: boolp(true)}
	assert.True(t, f.Matches(veg))
	assert.False(t, f.Matches(nonVeg))

	// false is a real constraint, not "unset"
	f = Filter{Vegetarian: boolp(false)}
	assert.False(t, f.Matches(veg))
	assert.True(t, f.Matches(nonVeg))

	f = Filter{Vegetarian: boolp(true), ContainsDairy: boolp(false)}
	assert.False(t, f.Matches(veg))
}

func TestFilter_SpiceLevel(t *testing.T) {
	f := Filter{SpiceLevel: SpiceMild}
	assert.True(t, f.Matches(Descriptor{SpiceLevel: SpiceMild}))
	assert.False(t, f.Matches(Descriptor{SpiceLevel: SpiceSpicy}))
}

func TestFilterFromQuery(t *testing.T) {
	q := map[string]string{"is_jain": "true", "contains_nuts": "0", "spice_level": "medium"}
	f, bad := FilterFromQuery(func(k string) string { return q[k] })
	assert.Empty(t, bad)
	assert.Equal(t, true, *f.Jain)
	assert.Equal(t, false, *f.ContainsNuts)
	assert.Nil(t, f.Vegetarian)
	assert.Equal(t, SpiceMedium, f.SpiceLevel)

	q = map[string]string{"is_vegan": "maybe", "spice_level": "volcanic"}
	_, bad = FilterFromQuery(func(k string) string { return q[k] })
	assert.ElementsMatch(t, []string{"is_vegan", "spice_level"}, bad)
}

func TestSummary_DoesNotMutate(t *testing.T) {
	d := Descriptor{IsVegetarian: true, IsJain: true, ContainsGluten: true, SpiceLevel: SpiceNone}
	s := d.Summary()
	assert.True(t, s.Vegetarian)
	assert.True(t, s.Jain)
	assert.True(t, s.ContainsGluten)
	assert.Equal(t, SpiceNone, s.SpiceLevel)
	assert.Equal(t, Descriptor{IsVegetarian: true, IsJain: true, ContainsGluten: true, SpiceLevel: SpiceNone}, d)
}

func TestPreferences_Filter(t *testing.T) {
	f := Preferences{IsJain: true, AvoidsAlcohol: true}.Filter()
	assert.True(t, f.Matches(Descriptor{IsVegetarian: true, IsJain: true}))
	assert.False(t, f.Matches(Descriptor{IsVegetarian: true}))
	assert.False(t, f.Matches(Descriptor{IsVegetarian: true, IsJain: true, ContainsAlcohol: true}))

	assert.True(t, Preferences{}.Filter().IsEmpty())
}

func TestPreferences_ToleratesSpice(t *testing.T) {
	mild := Preferences{SpicePreference: PreferMild}
	assert.True(t, mild.ToleratesSpice(SpiceNone))
	assert.True(t, mild.ToleratesSpice(SpiceMild))
	assert.False(t, mild.ToleratesSpice(SpiceMedium))
	assert.True(t, mild.ToleratesSpice(""))
	assert.True(t, Preferences{SpicePreference: PreferAny}.ToleratesSpice(SpiceExtraSpicy))
	assert.True(t, Preferences{SpicePreference: PreferSpicy}.ToleratesSpice(SpiceExtraSpicy))
}
