package models

import (
	"time"

	"gorm.io/datatypes"
)

type ReviewType string

const (
	ReviewTypeRestaurant ReviewType = "restaurant"
	ReviewTypeMysteryBag ReviewType = "mystery_bag"
)

func (t ReviewType) Valid() bool {
	return t == ReviewTypeRestaurant || t == ReviewTypeMysteryBag
}

// Moderation and restaurant response are the only fields that change after a review is written
type ReviewModeration struct {
	HelpfulVotes          int        `json:"helpful_votes" gorm:"not null"`
	UnhelpfulVotes        int        `json:"unhelpful_votes" gorm:"not null"`
	IsFlagged             bool       `json:"is_flagged" gorm:"not null"`
	FlagReason            string     `json:"flag_reason,omitempty"`
	IsApproved            bool       `json:"is_approved" gorm:"not null;index"`
	ModeratedAt           *time.Time `json:"moderated_at"`
	RestaurantResponse    string     `json:"restaurant_response,omitempty"`
	RestaurantRespondedAt *time.Time `json:"restaurant_response_date,omitempty"`
}

type RestaurantReview struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	RestaurantID uint   `json:"restaurant_id" gorm:"not null;index"`
	CustomerID   uint   `json:"customer_id" gorm:"not null;index"`
	SaleID       uint   `json:"sale_id" gorm:"not null;uniqueIndex"`
	OrderRef     string `json:"order_ref,omitempty" gorm:"size:64"`

	OverallRating int    `json:"overall_rating" gorm:"not null"`
	ReviewTitle   string `json:"review_title" gorm:"size:200"`
	ReviewText    string `json:"review_text"`

	FoodQualityRating        *int `json:"food_quality_rating"`
	ValueForMoneyRating      *int `json:"value_for_money_rating"`
	ServiceRating            *int `json:"service_rating"`
	HygieneRating            *int `json:"hygiene_rating"`
	PickupExperienceRating   *int `json:"pickup_experience_rating"`
	AuthenticityRating       *int `json:"authenticity_rating"`
	SpiceLevelAccuracyRating *int `json:"spice_level_accuracy_rating"`

	WasFoodFresh       *bool  `json:"was_food_fresh"`
	WasPackagingGood   *bool  `json:"was_packaging_good"`
	WasPickupSmooth    *bool  `json:"was_pickup_smooth"`
	WouldRecommend     *bool  `json:"would_recommend"`
	ExperienceType     string `json:"experience_type" gorm:"size:20"`
	MealCategory       string `json:"meal_category" gorm:"size:20"`
	Language           string `json:"language" gorm:"size:5"`
	IsVerifiedPurchase bool   `json:"is_verified_purchase" gorm:"not null"`

	PhotoURLs datatypes.JSONSlice[string] `json:"photo_urls"`

	ReviewModeration

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

var RestaurantSubRatingNames = []string{
	"food_quality_rating", "value_for_money_rating", "service_rating", "hygiene_rating",
	"pickup_experience_rating", "authenticity_rating", "spice_level_accuracy_rating",
}

// SubRatings lines up with RestaurantSubRatingNames
func (r RestaurantReview) SubRatings() []*int {
	return []*int{
		r.FoodQualityRating, r.ValueForMoneyRating, r.ServiceRating, r.HygieneRating,
		r.PickupExperienceRating, r.AuthenticityRating, r.SpiceLevelAccuracyRating,
	}
}

type MysteryBagReview struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	MysteryBagID uint `json:"mystery_bag_id" gorm:"not null;index"`
	RestaurantID uint `json:"restaurant_id" gorm:"not null;index"`
	CustomerID   uint `json:"customer_id" gorm:"not null;index"`
	SaleID       uint `json:"sale_id" gorm:"not null;uniqueIndex"`

	OverallRating int    `json:"overall_rating" gorm:"not null"`
	ReviewText    string `json:"review_text"`

	ValueRating       int `json:"value_rating" gorm:"not null"`
	FoodQualityRating int `json:"food_quality_rating" gorm:"not null"`
	QuantityRating    int `json:"quantity_rating" gorm:"not null"`
	VarietyRating     int `json:"variety_rating" gorm:"not null"`
	SurpriseRating    int `json:"surprise_rating" gorm:"not null"`
	FreshnessRating   int `json:"freshness_rating" gorm:"not null"`

	PackagingRating            *int `json:"packaging_rating"`
	PickupExperienceRating     *int `json:"pickup_experience_rating"`
	CulturalAuthenticityRating *int `json:"cultural_authenticity_rating"`
	EnvironmentalImpactRating  *int `json:"environmental_impact_rating"`

	ItemsReceived          datatypes.JSONSlice[string] `json:"items_received"`
	ExpectedVsActual       string                      `json:"expected_vs_actual" gorm:"size:20"`
	WouldBuyAgain          *bool                       `json:"would_buy_again"`
	WouldRecommend         *bool                       `json:"would_recommend"`
	DietaryRequirementsMet *bool                       `json:"dietary_requirements_met"`
	SpiceLevelAppropriate  *bool                       `json:"spice_level_appropriate"`
	Language               string                      `json:"language" gorm:"size:5"`
	IsVerifiedPurchase     bool                        `json:"is_verified_purchase" gorm:"not null"`

	ReviewModeration

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

var BagSubRatingNames = []string{
	"value_rating", "food_quality_rating", "quantity_rating", "variety_rating",
	"surprise_rating", "freshness_rating",
	"packaging_rating", "pickup_experience_rating", "cultural_authenticity_rating", "environmental_impact_rating",
}

// SubRatings lines up with BagSubRatingNames; the first six are always present
func (r MysteryBagReview) SubRatings() []*int {
	return []*int{
		&r.ValueRating, &r.FoodQualityRating, &r.QuantityRating, &r.VarietyRating,
		&r.SurpriseRating, &r.FreshnessRating,
		r.PackagingRating, r.PickupExperienceRating, r.CulturalAuthenticityRating, r.EnvironmentalImpactRating,
	}
}

// ReviewVote is one customer's helpful/unhelpful vote on a review
type ReviewVote struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	ReviewType ReviewType `json:"review_type" gorm:"size:20;not null;uniqueIndex:idx_review_vote"`
	ReviewID   uint       `json:"review_id" gorm:"not null;uniqueIndex:idx_review_vote"`
	CustomerID uint       `json:"customer_id" gorm:"not null;uniqueIndex:idx_review_vote"`
	IsHelpful  bool       `json:"is_helpful" gorm:"not null"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type FlagReason string

const (
	FlagInappropriate FlagReason = "inappropriate"
	FlagSpam          FlagReason = "spam"
	FlagFake          FlagReason = "fake"
	FlagOffensive     FlagReason = "offensive"
	FlagIrrelevant    FlagReason = "irrelevant"
	FlagOther         FlagReason = "other"
)

type ReviewFlag struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	ReviewType      ReviewType `json:"review_type" gorm:"size:20;not null;uniqueIndex:idx_review_flag"`
	ReviewID        uint       `json:"review_id" gorm:"not null;uniqueIndex:idx_review_flag"`
	FlaggerID       uint       `json:"flagger_id" gorm:"not null;uniqueIndex:idx_review_flag"`
	Reason          FlagReason `json:"flag_reason" gorm:"size:20;not null"`
	Description     string     `json:"flag_description"`
	IsReviewed      bool       `json:"is_reviewed" gorm:"not null;index"`
	ModeratorAction string     `json:"moderator_action,omitempty" gorm:"size:50"`
	ModeratorNotes  string     `json:"moderator_notes,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at"`
	CreatedAt       time.Time  `json:"created_at"`
}
