package models

import (
	"time"

	"mealpedeal-api/dietary"
	"mealpedeal-api/money"

	"gorm.io/datatypes"
)

// BagStatus is derived from the bag's flags, stock and pickup window; it is never stored on the bag itself
type BagStatus string

const (
	BagActive      BagStatus = "ACTIVE"
	BagUpcoming    BagStatus = "UPCOMING"
	BagSoldOut     BagStatus = "SOLD_OUT"
	BagExpired     BagStatus = "EXPIRED"
	BagDeactivated BagStatus = "DEACTIVATED"
)

type MysteryBag struct {
	ID                 uint        `json:"id" gorm:"primaryKey"`
	RestaurantID       uint        `json:"restaurant_id" gorm:"not null;index"`
	Restaurant         *Restaurant `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	TemplateID         *uint       `json:"template_id" gorm:"index"`
	Title              string      `json:"title" gorm:"size:254;not null"`
	Description        string      `json:"description"`
	ImageURL           string      `json:"image_url"`
	OriginalValue      int64       `json:"original_value" gorm:"not null"` // paise
	SellingPrice       int64       `json:"selling_price" gorm:"not null"`  // paise
	DiscountPercentage int         `json:"discount_percentage" gorm:"not null"`
	TotalQuantity      int         `json:"total_quantity" gorm:"not null"`
	AvailableQuantity  int         `json:"available_quantity" gorm:"not null"`
	PickupStartTime    time.Time   `json:"pickup_start_time" gorm:"not null;index"`
	PickupEndTime      time.Time   `json:"pickup_end_time" gorm:"not null;index"`

	dietary.Descriptor

	MealCategory           string                      `json:"meal_category" gorm:"size:20"`
	CuisineType            string                      `json:"cuisine_type" gorm:"size:50"`
	FoodType               string                      `json:"food_type" gorm:"size:20"`
	Allergens              datatypes.JSONSlice[string] `json:"allergens"`
	IngredientsExcluded    datatypes.JSONSlice[string] `json:"ingredients_excluded"`
	PreparationTimeMinutes int                         `json:"preparation_time_minutes" gorm:"not null"`
	PickupInstructions     string                      `json:"pickup_instructions"`
	EstimatedWeightGrams   *int                        `json:"estimated_weight_grams"`
	SurpriseFactor         string                      `json:"surprise_factor" gorm:"size:20"`
	ValueProposition       string                      `json:"value_proposition"`

	IsActive   bool `json:"is_active" gorm:"not null;index"`
	IsFeatured bool `json:"is_featured" gorm:"not null"`

	EstimatedFoodWasteSavedGrams *int     `json:"estimated_food_waste_saved_grams"`
	AverageRating                *float64 `json:"average_rating"`
	TotalReviews                 int      `json:"total_reviews" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RefreshDiscount recomputes the stored discount from the two prices
func (b *MysteryBag) RefreshDiscount() {
	b.DiscountPercentage = money.DiscountPercentage(b.OriginalValue, b.SellingPrice)
}

func (b MysteryBag) SavingsPaise() int64 {
	return money.Savings(b.OriginalValue, b.SellingPrice)
}

// MysteryBagTemplate lets a restaurant re-issue a recurring bag in one call
type MysteryBagTemplate struct {
	ID                         uint   `json:"id" gorm:"primaryKey"`
	RestaurantID               uint   `json:"restaurant_id" gorm:"not null;index"`
	Name                       string `json:"name" gorm:"size:254;not null"`
	Title                      string `json:"title" gorm:"size:254;not null"`
	Description                string `json:"description"`
	OriginalValue              int64  `json:"original_value" gorm:"not null"`
	SellingPrice               int64  `json:"selling_price" gorm:"not null"`
	DefaultQuantity            int    `json:"default_quantity" gorm:"not null"`
	DefaultPickupDurationHours int    `json:"default_pickup_duration_hours" gorm:"not null"`

	dietary.Descriptor

	MealCategory string `json:"meal_category" gorm:"size:20"`
	CuisineType  string `json:"cuisine_type" gorm:"size:50"`
	FoodType     string `json:"food_type" gorm:"size:20"`

	EstimatedFoodWasteSavedGrams *int `json:"estimated_food_waste_saved_grams"`

	IsActive   bool       `json:"is_active" gorm:"not null"`
	TimesUsed  int        `json:"times_used" gorm:"not null"`
	LastUsedAt *time.Time `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// BagStatusChange provides a full audit trail of activations and deactivations
type BagStatusChange struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	MysteryBagID uint      `json:"mystery_bag_id" gorm:"not null;index"`
	FromStatus   BagStatus `json:"from_status" gorm:"size:20"`
	ToStatus     BagStatus `json:"to_status" gorm:"size:20;not null"`
	ChangedByID  uint      `json:"changed_by_id" gorm:"not null"`
	Actor        string    `json:"actor" gorm:"size:20;not null"`
	Note         string    `json:"note"`
	CreatedAt    time.Time `json:"created_at"`
}
