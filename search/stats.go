package search

import (
	"sort"
	"strings"

	"mealpedeal-api/apperrors"
	"mealpedeal-api/models"

	"gorm.io/gorm"
)

type Metric string

const (
	MetricBagsSold       Metric = "mystery_bags_sold"
	MetricFoodWasteSaved Metric = "food_waste_saved"
	MetricRating         Metric = "rating"
)

var metricColumns = map[Metric]string{
	MetricBagsSold:       "total_mystery_bags_sold DESC",
	MetricFoodWasteSaved: "total_food_waste_saved_kg DESC",
	MetricRating:         "rating DESC",
}

// TopPerformers ranks active restaurants by metric, optionally within a city
func TopPerformers(db *gorm.DB, metric Metric, city string, limit int) ([]models.Restaurant, error) {
	order, ok := metricColumns[metric]
	if !ok {
		return nil, apperrors.Invalid("metric", "Metric must be one of mystery_bags_sold, food_waste_saved, rating")
	}
	if limit < 1 || limit > MaxNearbyLimit {
		return nil, apperrors.Invalid("limit", "Limit must be between 1 and 50")
	}
	q := db.Where("is_active = ?", true)
	if metric == MetricRating {
		q = q.Where("rating IS NOT NULL")
	}
	if city != "" {
		q = q.Where("LOWER(city) = ?", strings.ToLower(city))
	}
	var out []models.Restaurant
	if err := q.Order(order).Order("id").Limit(limit).Find(&out).Error; err != nil {
		return nil, apperrors.Internal("Failed to load restaurants", err)
	}
	return out, nil
}

type CuisineCount struct {
	Cuisine string `json:"cuisine"`
	Count   int    `json:"count"`
}

// CuisineDistribution counts restaurants per cuisine, most common first
func CuisineDistribution(restaurants []models.Restaurant) []CuisineCount {
	counts := map[string]int{}
	for _, r := range restaurants {
		if !r.IsActive {
			continue
		}
		seen := map[string]bool{}
		for _, c := range r.CuisineTypes {
			c = strings.ToLower(strings.TrimSpace(c))
			if c == "" || seen[c] {
				continue
			}
			seen[c] = true
			counts[c]++
		}
	}
	out := make([]CuisineCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, CuisineCount{Cuisine: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Cuisine < out[j].Cuisine
	})
	return out
}
