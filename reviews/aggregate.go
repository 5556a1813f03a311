package reviews

import (
	"math"
	"time"

	"mealpedeal-api/apperrors"
)

const (
	MinRating    = 1
	MaxRating    = 5
	RecentWindow = 30 * 24 * time.Hour
)

// AverageCategoryRating averages only the sub-ratings that are present.
// ok is false when none are.
func AverageCategoryRating(ratings []*int) (avg float64, ok bool) {
	sum, n := 0, 0
	for _, r := range ratings {
		if r == nil {
			continue
		}
		sum += *r
		n++
	}
	if n == 0 {
		return 0, false
	}
	return float64(sum) / float64(n), true
}

// HelpfulnessScore is the share of helpful votes as a percentage, 0 with no votes
func HelpfulnessScore(helpful, unhelpful int) float64 {
	total := helpful + unhelpful
	if total == 0 {
		return 0
	}
	return float64(helpful) / float64(total) * 100
}

// IsRecent reports createdAt within the last 30 days (strictly after the cutoff)
func IsRecent(createdAt, now time.Time) bool {
	return createdAt.After(now.Add(-RecentWindow))
}

// ValidateRatings checks the mandatory overall rating and every present sub-rating.
// names must line up with subRatings.
func ValidateRatings(overall int, names []string, subRatings []*int) error {
	fields := map[string]string{}
	if overall < MinRating || overall > MaxRating {
		fields["overall_rating"] = "overall_rating must be between 1 and 5"
	}
	for i, r := range subRatings {
		if r != nil && (*r < MinRating || *r > MaxRating) {
			fields[names[i]] = names[i] + " must be between 1 and 5"
		}
	}
	if len(fields) > 0 {
		return apperrors.Validation(fields)
	}
	return nil
}

// RoundTo2 rounds rollup averages for storage
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
