package services

import (
	"errors"
	"time"

	"mealpedeal-api/apperrors"
	"mealpedeal-api/models"
	"mealpedeal-api/reviews"

	"gorm.io/gorm"
)

// verifiedSale loads the sale a review is written against and checks ownership
func verifiedSale(tx *gorm.DB, saleID, customerID uint) (*models.BagSale, error) {
	var sale models.BagSale
	if err := tx.First(&sale, saleID).Error; err != nil {
		return nil, lookupErr(err, "Purchase")
	}
	if sale.CustomerID != customerID {
		return nil, apperrors.Forbidden("This purchase does not belong to you")
	}
	return &sale, nil
}

type rollup struct {
	Count int64
	Avg   *float64
}

func refreshRestaurantRating(tx *gorm.DB, restaurantID uint) error {
	var agg rollup
	if err := tx.Model(&models.RestaurantReview{}).
		Select("COUNT(*) AS count, AVG(overall_rating) AS avg").
		Where("restaurant_id = ? AND is_approved = ?", restaurantID, true).
		Scan(&agg).Error; err != nil {
		return apperrors.Internal("Failed to aggregate reviews", err)
	}
	var rating *float64
	if agg.Count > 0 && agg.Avg != nil {
		v := reviews.RoundTo2(*agg.Avg)
		rating = &v
	}
	return writeErr(tx.Model(&models.Restaurant{}).Where("id = ?", restaurantID).
		Updates(map[string]any{"rating": rating, "reviews_count": agg.Count}).Error, "restaurant rating")
}

func refreshBagRating(tx *gorm.DB, bagID uint) error {
	var agg rollup
	if err := tx.Model(&models.MysteryBagReview{}).
		Select("COUNT(*) AS count, AVG(overall_rating) AS avg").
		Where("mystery_bag_id = ? AND is_approved = ?", bagID, true).
		Scan(&agg).Error; err != nil {
		return apperrors.Internal("Failed to aggregate reviews", err)
	}
	var rating *float64
	if agg.Count > 0 && agg.Avg != nil {
		v := reviews.RoundTo2(*agg.Avg)
		rating = &v
	}
	return writeErr(tx.Model(&models.MysteryBag{}).Where("id = ?", bagID).
		Updates(map[string]any{"average_rating": rating, "total_reviews": agg.Count}).Error, "bag rating")
}

// CreateRestaurantReview stores a review for the restaurant a purchase was made
// at and refreshes the restaurant's rating in the same transaction.
func CreateRestaurantReview(db *gorm.DB, customerID uint, review *models.RestaurantReview) error {
	if err := reviews.ValidateRatings(review.OverallRating, models.RestaurantSubRatingNames, review.SubRatings()); err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		sale, err := verifiedSale(tx, review.SaleID, customerID)
		if err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.RestaurantReview{}).Where("sale_id = ?", sale.ID).Count(&n).Error; err != nil {
			return apperrors.Internal("Failed to check existing review", err)
		}
		if n > 0 {
			return apperrors.ErrAlreadyReviewed
		}

		review.ID = 0
		review.RestaurantID = sale.RestaurantID
		review.CustomerID = customerID
		review.IsVerifiedPurchase = true
		review.ReviewModeration = models.ReviewModeration{IsApproved: true}
		review.CreatedAt, review.UpdatedAt = time.Time{}, time.Time{}
		if review.OrderRef == "" {
			review.OrderRef = sale.OrderRef
		}
		if err := tx.Create(review).Error; err != nil {
			return apperrors.Internal("Failed to create review", err)
		}
		return refreshRestaurantRating(tx, sale.RestaurantID)
	})
}

// CreateBagReview is the mystery-bag counterpart of CreateRestaurantReview
func CreateBagReview(db *gorm.DB, customerID uint, review *models.MysteryBagReview) error {
	if err := reviews.ValidateRatings(review.OverallRating, models.BagSubRatingNames, review.SubRatings()); err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		sale, err := verifiedSale(tx, review.SaleID, customerID)
		if err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.MysteryBagReview{}).Where("sale_id = ?", sale.ID).Count(&n).Error; err != nil {
			return apperrors.Internal("Failed to check existing review", err)
		}
		if n > 0 {
			return apperrors.ErrAlreadyReviewed
		}

		review.ID = 0
		review.MysteryBagID = sale.MysteryBagID
		review.RestaurantID = sale.RestaurantID
		review.CustomerID = customerID
		review.IsVerifiedPurchase = true
		review.ReviewModeration = models.ReviewModeration{IsApproved: true}
		review.CreatedAt, review.UpdatedAt = time.Time{}, time.Time{}
		if err := tx.Create(review).Error; err != nil {
			return apperrors.Internal("Failed to create review", err)
		}
		return refreshBagRating(tx, sale.MysteryBagID)
	})
}

// reviewRef is the part of either review type that votes, flags and moderation need
type reviewRef struct {
	ID           uint
	CustomerID   uint
	RestaurantID uint
	MysteryBagID uint
}

func reviewModel(t models.ReviewType) (any, error) {
	switch t {
	case models.ReviewTypeRestaurant:
		return &models.RestaurantReview{}, nil
	case models.ReviewTypeMysteryBag:
		return &models.MysteryBagReview{}, nil
	}
	return nil, apperrors.Invalid("review_type", "Review type must be restaurant or mystery_bag")
}

func loadReviewRef(tx *gorm.DB, t models.ReviewType, id uint) (*reviewRef, error) {
	model, err := reviewModel(t)
	if err != nil {
		return nil, err
	}
	var ref reviewRef
	cols := []string{"id", "customer_id", "restaurant_id"}
	if t == models.ReviewTypeMysteryBag {
		cols = append(cols, "mystery_bag_id")
	}
	res := tx.Model(model).Select(cols).Where("id = ?", id).Limit(1).Scan(&ref)
	if res.Error != nil {
		return nil, apperrors.Internal("Failed to load review", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFound("Review")
	}
	return &ref, nil
}

func refreshRollup(tx *gorm.DB, t models.ReviewType, ref *reviewRef) error {
	if t == models.ReviewTypeRestaurant {
		return refreshRestaurantRating(tx, ref.RestaurantID)
	}
	return refreshBagRating(tx, ref.MysteryBagID)
}

type VoteResult struct {
	HelpfulVotes     int     `json:"helpful_votes"`
	UnhelpfulVotes   int     `json:"unhelpful_votes"`
	HelpfulnessScore float64 `json:"helpfulness_score"`
}

// VoteHelpful records one customer's vote on a review. Voting again with the
// same value is a no-op; switching moves the vote between the two counters.
func VoteHelpful(db *gorm.DB, t models.ReviewType, reviewID, customerID uint, helpful bool) (*VoteResult, error) {
	var result VoteResult
	err := db.Transaction(func(tx *gorm.DB) error {
		ref, err := loadReviewRef(tx, t, reviewID)
		if err != nil {
			return err
		}
		if ref.CustomerID == customerID {
			return apperrors.Forbidden("You cannot vote on your own review")
		}
		model, _ := reviewModel(t)

		column := func(h bool) string {
			if h {
				return "helpful_votes"
			}
			return "unhelpful_votes"
		}

		var vote models.ReviewVote
		err = tx.Where("review_type = ? AND review_id = ? AND customer_id = ?", t, reviewID, customerID).First(&vote).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote = models.ReviewVote{ReviewType: t, ReviewID: reviewID, CustomerID: customerID, IsHelpful: helpful}
			if err := tx.Create(&vote).Error; err != nil {
				return apperrors.Internal("Failed to record vote", err)
			}
			if err := tx.Model(model).Where("id = ?", reviewID).
				Update(column(helpful), gorm.Expr(column(helpful)+" + 1")).Error; err != nil {
				return apperrors.Internal("Failed to update vote count", err)
			}
		case err != nil:
			return apperrors.Internal("Failed to load vote", err)
		case vote.IsHelpful != helpful:
			if err := tx.Model(&vote).Update("is_helpful", helpful).Error; err != nil {
				return apperrors.Internal("Failed to update vote", err)
			}
			if err := tx.Model(model).Where("id = ?", reviewID).Updates(map[string]any{
				column(helpful):  gorm.Expr(column(helpful) + " + 1"),
				column(!helpful): gorm.Expr(column(!helpful) + " - 1"),
			}).Error; err != nil {
				return apperrors.Internal("Failed to update vote count", err)
			}
		}

		if err := tx.Model(model).Select("helpful_votes", "unhelpful_votes").Where("id = ?", reviewID).
			Scan(&result).Error; err != nil {
			return apperrors.Internal("Failed to load vote count", err)
		}
		result.HelpfulnessScore = reviews.HelpfulnessScore(result.HelpfulVotes, result.UnhelpfulVotes)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// FlagReview lets a customer report a review; the review is marked flagged
// until a moderator looks at it.
func FlagReview(db *gorm.DB, t models.ReviewType, reviewID, flaggerID uint, reason models.FlagReason, description string) (*models.ReviewFlag, error) {
	var flag models.ReviewFlag
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := loadReviewRef(tx, t, reviewID); err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.ReviewFlag{}).
			Where("review_type = ? AND review_id = ? AND flagger_id = ?", t, reviewID, flaggerID).
			Count(&n).Error; err != nil {
			return apperrors.Internal("Failed to check flags", err)
		}
		if n > 0 {
			return apperrors.Conflict("ALREADY_FLAGGED", "You have already flagged this review")
		}
		flag = models.ReviewFlag{ReviewType: t, ReviewID: reviewID, FlaggerID: flaggerID, Reason: reason, Description: description}
		if err := tx.Create(&flag).Error; err != nil {
			return apperrors.Internal("Failed to flag review", err)
		}
		model, _ := reviewModel(t)
		return writeErr(tx.Model(model).Where("id = ?", reviewID).
			Updates(map[string]any{"is_flagged": true, "flag_reason": string(reason)}).Error, "review")
	})
	if err != nil {
		return nil, err
	}
	return &flag, nil
}

type ModerationAction string

const (
	ActionApprove ModerationAction = "approve"
	ActionHide    ModerationAction = "hide"
	ActionFlag    ModerationAction = "flag"
	ActionUnflag  ModerationAction = "unflag"
)

// Moderate applies a moderator decision, closes open flags on the review and
// refreshes the subject's rating since hidden reviews don't count.
func Moderate(db *gorm.DB, t models.ReviewType, reviewID uint, action ModerationAction, notes string, now time.Time) error {
	updates := map[string]any{"moderated_at": now}
	switch action {
	case ActionApprove:
		updates["is_approved"] = true
		updates["is_flagged"] = false
		updates["flag_reason"] = ""
	case ActionHide:
		updates["is_approved"] = false
	case ActionFlag:
		updates["is_flagged"] = true
		updates["flag_reason"] = notes
	case ActionUnflag:
		updates["is_flagged"] = false
		updates["flag_reason"] = ""
	default:
		return apperrors.Invalid("action", "Action must be one of approve, hide, flag, unflag")
	}
	return db.Transaction(func(tx *gorm.DB) error {
		ref, err := loadReviewRef(tx, t, reviewID)
		if err != nil {
			return err
		}
		model, _ := reviewModel(t)
		if err := tx.Model(model).Where("id = ?", reviewID).Updates(updates).Error; err != nil {
			return apperrors.Internal("Failed to moderate review", err)
		}
		if err := tx.Model(&models.ReviewFlag{}).
			Where("review_type = ? AND review_id = ? AND is_reviewed = ?", t, reviewID, false).
			Updates(map[string]any{
				"is_reviewed":      true,
				"moderator_action": string(action),
				"moderator_notes":  notes,
				"reviewed_at":      now,
			}).Error; err != nil {
			return apperrors.Internal("Failed to close flags", err)
		}
		return refreshRollup(tx, t, ref)
	})
}

// RespondToReview stores the managing restaurant's public reply
func RespondToReview(db *gorm.DB, t models.ReviewType, reviewID, managerID uint, response string, now time.Time) error {
	return db.Transaction(func(tx *gorm.DB) error {
		ref, err := loadReviewRef(tx, t, reviewID)
		if err != nil {
			return err
		}
		if _, err := ManagedRestaurant(tx, ref.RestaurantID, managerID); err != nil {
			return err
		}
		model, _ := reviewModel(t)
		return writeErr(tx.Model(model).Where("id = ?", reviewID).Updates(map[string]any{
			"restaurant_response":     response,
			"restaurant_responded_at": now,
		}).Error, "review")
	})
}

type ReviewSummary struct {
	TotalReviews     int                `json:"total_reviews"`
	AverageRating    *float64           `json:"average_rating"`
	Distribution     map[int]int        `json:"rating_distribution"`
	RecentReviews    int                `json:"recent_reviews_count"`
	CategoryAverages map[string]float64 `json:"category_averages"`
}

func summarize(overall []int, created []time.Time, names []string, subs [][]*int, now time.Time) ReviewSummary {
	s := ReviewSummary{
		TotalReviews:     len(overall),
		Distribution:     map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		CategoryAverages: map[string]float64{},
	}
	sum := 0
	for i, r := range overall {
		sum += r
		s.Distribution[r]++
		if reviews.IsRecent(created[i], now) {
			s.RecentReviews++
		}
	}
	if len(overall) > 0 {
		avg := reviews.RoundTo2(float64(sum) / float64(len(overall)))
		s.AverageRating = &avg
	}
	for j, name := range names {
		column := make([]*int, 0, len(subs))
		for _, row := range subs {
			column = append(column, row[j])
		}
		if avg, ok := reviews.AverageCategoryRating(column); ok {
			s.CategoryAverages[name] = reviews.RoundTo2(avg)
		}
	}
	return s
}

// RestaurantReviewSummary aggregates approved reviews of a restaurant
func RestaurantReviewSummary(db *gorm.DB, restaurantID uint, now time.Time) (*ReviewSummary, error) {
	var rows []models.RestaurantReview
	if err := db.Where("restaurant_id = ? AND is_approved = ?", restaurantID, true).Find(&rows).Error; err != nil {
		return nil, apperrors.Internal("Failed to load reviews", err)
	}
	overall := make([]int, len(rows))
	created := make([]time.Time, len(rows))
	subs := make([][]*int, len(rows))
	for i, r := range rows {
		overall[i], created[i], subs[i] = r.OverallRating, r.CreatedAt, r.SubRatings()
	}
	s := summarize(overall, created, models.RestaurantSubRatingNames, subs, now)
	return &s, nil
}

// BagReviewSummary aggregates approved reviews of a mystery bag
func BagReviewSummary(db *gorm.DB, bagID uint, now time.Time) (*ReviewSummary, error) {
	var rows []models.MysteryBagReview
	if err := db.Where("mystery_bag_id = ? AND is_approved = ?", bagID, true).Find(&rows).Error; err != nil {
		return nil, apperrors.Internal("Failed to load reviews", err)
	}
	overall := make([]int, len(rows))
	created := make([]time.Time, len(rows))
	subs := make([][]*int, len(rows))
	for i, r := range rows {
		overall[i], created[i], subs[i] = r.OverallRating, r.CreatedAt, r.SubRatings()
	}
	s := summarize(overall, created, models.BagSubRatingNames, subs, now)
	return &s, nil
}
