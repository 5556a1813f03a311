// Package search filters, ranks and pages restaurants for the public listing
// and the nearby lookup.
package search

import (
	"sort"
	"strconv"
	"strings"

	"mealpedeal-api/apperrors"
	"mealpedeal-api/dietary"
	"mealpedeal-api/geo"
	"mealpedeal-api/models"

	"gorm.io/gorm"
)

const (
	DefaultListLimit   = 100
	MaxListLimit       = 100
	DefaultNearbyLimit = 20
	MaxNearbyLimit     = 50
	DefaultRadiusKm    = 5.0
	MaxRadiusKm        = 100.0
)

type SortBy string

const (
	SortDistance SortBy = "distance"
	SortRating   SortBy = "rating"
	SortImpact   SortBy = "impact"
)

// Filter is ANDed; nil/empty fields are unconstrained
type Filter struct {
	VegetarianOnly    *bool
	JainFood          *bool
	VeganOptions      *bool
	HalalCertified    *bool
	MysteryBagEnabled *bool
	VerifiedOnly      *bool
	City              string
	State             string
	Pincode           string
	CuisineType       string
	Name              string
}

func (f Filter) Matches(r models.Restaurant) bool {
	if !r.IsActive {
		return false
	}
	flags := []struct {
		want *bool
		have bool
	}{
		{f.VegetarianOnly, r.IsPureVegetarian()},
		{f.JainFood, r.ServesJain},
		{f.VeganOptions, r.ServesVegan},
		{f.HalalCertified, r.HalalCertified},
		{f.MysteryBagEnabled, r.MysteryBagEnabled},
		{f.VerifiedOnly, r.IsVerified},
	}
	for _, fl := range flags {
		if fl.want != nil && *fl.want != fl.have {
			return false
		}
	}
	if f.City != "" && !strings.EqualFold(f.City, r.City) {
		return false
	}
	if f.State != "" && !strings.EqualFold(f.State, r.State) {
		return false
	}
	if f.Pincode != "" && f.Pincode != r.Pincode {
		return false
	}
	if f.Name != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(f.Name)) {
		return false
	}
	if f.CuisineType != "" {
		found := false
		for _, c := range r.CuisineTypes {
			if strings.EqualFold(c, f.CuisineType) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Scope pushes the column-backed part of the filter into SQL. Matches must
// still run on the rows since cuisine types live in a JSON column.
func (f Filter) Scope(db *gorm.DB) *gorm.DB {
	db = db.Where("is_active = ?", true)
	if f.VegetarianOnly != nil {
		if *f.VegetarianOnly {
			db = db.Where("serves_vegetarian = ? AND serves_non_vegetarian = ?", true, false)
		} else {
			db = db.Where("NOT (serves_vegetarian = ? AND serves_non_vegetarian = ?)", true, false)
		}
	}
	cols := []struct {
		col string
		val *bool
	}{
		{"serves_jain", f.JainFood},
		{"serves_vegan", f.VeganOptions},
		{"halal_certified", f.HalalCertified},
		{"mystery_bag_enabled", f.MysteryBagEnabled},
		{"is_verified", f.VerifiedOnly},
	}
	for _, c := range cols {
		if c.val != nil {
			db = db.Where(c.col+" = ?", *c.val)
		}
	}
	if f.City != "" {
		db = db.Where("LOWER(city) = ?", strings.ToLower(f.City))
	}
	if f.State != "" {
		db = db.Where("LOWER(state) = ?", strings.ToLower(f.State))
	}
	if f.Pincode != "" {
		db = db.Where("pincode = ?", f.Pincode)
	}
	if f.Name != "" {
		db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(f.Name)+"%")
	}
	return db
}

// BoxScope restricts rows to the bounding box around a point
func BoxScope(box geo.Box) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("latitude IS NOT NULL AND longitude IS NOT NULL").
			Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat).
			Where("longitude BETWEEN ? AND ?", box.MinLng, box.MaxLng)
	}
}

// FilterFromQuery reads the listing parameters via get (gin's c.Query)
func FilterFromQuery(get func(string) string) (Filter, error) {
	f := Filter{
		City:        strings.TrimSpace(get("city")),
		State:       strings.TrimSpace(get("state")),
		Pincode:     strings.TrimSpace(get("pincode")),
		CuisineType: strings.TrimSpace(get("cuisine_type")),
		Name:        strings.TrimSpace(get("name")),
	}
	bad := map[string]string{}
	params := []struct {
		name string
		dst  **bool
	}{
		{"vegetarian_only", &f.VegetarianOnly},
		{"jain_food", &f.JainFood},
		{"vegan_options", &f.VeganOptions},
		{"halal_certified", &f.HalalCertified},
		{"mystery_bag_enabled", &f.MysteryBagEnabled},
		{"verified_only", &f.VerifiedOnly},
	}
	for _, p := range params {
		v, ok, err := dietary.ParseTriState(get(p.name))
		if err != nil {
			bad[p.name] = "Must be true or false"
			continue
		}
		if ok {
			*p.dst = &v
		}
	}
	if len(bad) > 0 {
		return f, apperrors.Validation(bad)
	}
	return f, nil
}

// Page is an offset/limit window
type Page struct {
	Offset int
	Limit  int
}

// ParsePage validates offset >= 0 and 1 <= limit <= maxLimit. Out-of-range
// values are rejected, not clamped.
func ParsePage(rawOffset, rawLimit string, defLimit, maxLimit int) (Page, error) {
	p := Page{Limit: defLimit}
	bad := map[string]string{}
	if rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil || n < 1 || n > maxLimit {
			bad["limit"] = "Limit must be between 1 and " + strconv.Itoa(maxLimit)
		} else {
			p.Limit = n
		}
	}
	if rawOffset != "" {
		n, err := strconv.Atoi(rawOffset)
		if err != nil || n < 0 {
			bad["offset"] = "Offset must be zero or positive"
		} else {
			p.Offset = n
		}
	}
	if len(bad) > 0 {
		return p, apperrors.Validation(bad)
	}
	return p, nil
}

func ParseRadius(raw string) (float64, error) {
	if raw == "" {
		return DefaultRadiusKm, nil
	}
	r, err := strconv.ParseFloat(raw, 64)
	if err != nil || r <= 0 || r > MaxRadiusKm {
		return 0, apperrors.Invalid("radius_km", "Radius must be greater than 0 and at most 100 km")
	}
	return r, nil
}

func ParseSort(orderByRating, orderByImpact string) (SortBy, error) {
	rating, _, err := dietary.ParseTriState(orderByRating)
	if err != nil {
		return "", apperrors.Invalid("order_by_rating", "Must be true or false")
	}
	imp, _, err := dietary.ParseTriState(orderByImpact)
	if err != nil {
		return "", apperrors.Invalid("order_by_environmental_impact", "Must be true or false")
	}
	switch {
	case rating:
		return SortRating, nil
	case imp:
		return SortImpact, nil
	}
	return SortDistance, nil
}

// Result pairs a restaurant with its distance from the search origin.
// DistanceKm is nil for plain listings.
type Result struct {
	Restaurant models.Restaurant
	DistanceKm *float64
}

func rating(r models.Restaurant) float64 {
	if r.Rating == nil {
		return 0
	}
	return *r.Rating
}

// Sort orders results in place; ties fall back to id for a stable order
func Sort(results []Result, by SortBy) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		switch by {
		case SortRating:
			if rating(a.Restaurant) != rating(b.Restaurant) {
				return rating(a.Restaurant) > rating(b.Restaurant)
			}
		case SortImpact:
			if a.Restaurant.TotalFoodWasteSavedKg != b.Restaurant.TotalFoodWasteSavedKg {
				return a.Restaurant.TotalFoodWasteSavedKg > b.Restaurant.TotalFoodWasteSavedKg
			}
		default:
			if a.DistanceKm != nil && b.DistanceKm != nil && *a.DistanceKm != *b.DistanceKm {
				return *a.DistanceKm < *b.DistanceKm
			}
		}
		return a.Restaurant.ID < b.Restaurant.ID
	})
}

func Paginate(results []Result, p Page) []Result {
	if p.Offset >= len(results) {
		return []Result{}
	}
	end := p.Offset + p.Limit
	if end > len(results) {
		end = len(results)
	}
	return results[p.Offset:end]
}

// List filters, sorts and pages restaurants without a location constraint
func List(restaurants []models.Restaurant, f Filter, by SortBy, p Page) []Result {
	out := make([]Result, 0, len(restaurants))
	for _, r := range restaurants {
		if f.Matches(r) {
			out = append(out, Result{Restaurant: r})
		}
	}
	Sort(out, by)
	return Paginate(out, p)
}

// Nearby keeps restaurants within radiusKm (inclusive) of the origin that also
// match f. Restaurants without coordinates are skipped.
func Nearby(restaurants []models.Restaurant, lat, lng, radiusKm float64, f Filter, by SortBy, p Page) []Result {
	out := make([]Result, 0, len(restaurants))
	for _, r := range restaurants {
		if !r.HasLocation() || !f.Matches(r) {
			continue
		}
		d := geo.DistanceKm(lat, lng, *r.Latitude, *r.Longitude)
		if d > radiusKm {
			continue
		}
		out = append(out, Result{Restaurant: r, DistanceKm: &d})
	}
	Sort(out, by)
	return Paginate(out, p)
}
