package models

import (
	"time"

	"mealpedeal-api/dietary"
	"mealpedeal-api/impact"
	"mealpedeal-api/money"

	"gorm.io/datatypes"
)

type Restaurant struct {
	ID           uint     `json:"id" gorm:"primaryKey"`
	ManagerID    uint     `json:"manager_id" gorm:"not null;index"`
	Manager      User     `json:"-" gorm:"foreignKey:ManagerID"`
	Name         string   `json:"name" gorm:"size:254;not null"`
	ImageURL     string   `json:"image_url"`
	Description  string   `json:"description"`
	Address      string   `json:"address"`
	Phone        string   `json:"phone" gorm:"size:20"`
	Email        string   `json:"email"`
	Rating       *float64 `json:"rating"`
	ReviewsCount int      `json:"reviews_count" gorm:"not null"`
	IsActive     bool     `json:"is_active" gorm:"not null;index"`

	Latitude  *float64 `json:"latitude" gorm:"index:idx_restaurant_location"`
	Longitude *float64 `json:"longitude" gorm:"index:idx_restaurant_location"`
	City      string   `json:"city" gorm:"size:100;index"`
	State     string   `json:"state" gorm:"size:100"`
	Pincode   string   `json:"pincode" gorm:"size:6"`
	Country   string   `json:"country" gorm:"size:100"`

	// Compliance
	GSTNumber          string `json:"gst_number" gorm:"size:15"`
	FSSAILicense       string `json:"fssai_license" gorm:"size:14"`
	PANNumber          string `json:"pan_number" gorm:"size:10"`
	TradeLicenseNumber string `json:"trade_license_number" gorm:"size:50"`

	MysteryBagEnabled  bool   `json:"mystery_bag_enabled" gorm:"not null"`
	PickupCounterInfo  string `json:"pickup_counter_info"`
	PickupInstructions string `json:"pickup_instructions"`
	AveragePickupTime  *int   `json:"average_pickup_time"`
	ContactPhone       string `json:"contact_phone" gorm:"size:20"`

	CuisineTypes        datatypes.JSONSlice[string] `json:"cuisine_types"`
	ServesVegetarian    bool                        `json:"serves_vegetarian" gorm:"not null"`
	ServesNonVegetarian bool                        `json:"serves_non_vegetarian" gorm:"not null"`
	ServesJain          bool                        `json:"serves_jain" gorm:"not null"`
	ServesVegan         bool                        `json:"serves_vegan" gorm:"not null"`
	HalalCertified      bool                        `json:"halal_certified" gorm:"not null"`
	ServesAlcohol       bool                        `json:"serves_alcohol" gorm:"not null"`

	// Impact counters, bumped by bag purchases
	TotalMysteryBagsSold      int     `json:"total_mystery_bags_sold" gorm:"not null"`
	TotalFoodWasteSavedKg     float64 `json:"total_food_waste_saved_kg" gorm:"not null"`
	AverageDiscountPercentage *int    `json:"average_discount_percentage"`

	IsVerified           bool       `json:"is_verified" gorm:"not null"`
	VerificationDate     *time.Time `json:"verification_date"`
	PartnershipStartDate time.Time  `json:"partnership_start_date"`

	WhatsappNotifications  bool `json:"whatsapp_notifications" gorm:"not null"`
	SMSNotifications       bool `json:"sms_notifications" gorm:"not null"`
	EmailNotifications     bool `json:"email_notifications" gorm:"not null"`
	MinimumPreparationTime int  `json:"minimum_preparation_time" gorm:"not null"`

	PromotionalMessage      string                      `json:"promotional_message"`
	FeaturedUntil           *time.Time                  `json:"featured_until"`
	SustainabilityPractices datatypes.JSONSlice[string] `json:"sustainability_practices"`
	OrganicCertified        bool                        `json:"organic_certified" gorm:"not null"`
	LocalSourcing           bool                        `json:"local_sourcing" gorm:"not null"`

	MenuItems []MenuItem `json:"menu_items,omitempty" gorm:"foreignKey:RestaurantID"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsPureVegetarian is true for kitchens that serve no meat at all
func (r Restaurant) IsPureVegetarian() bool {
	return r.ServesVegetarian && !r.ServesNonVegetarian
}

type ComplianceStatus struct {
	GSTRegistered  bool `json:"gst_registered"`
	FSSAILicensed  bool `json:"fssai_licensed"`
	PANRegistered  bool `json:"pan_registered"`
	TradeLicensed  bool `json:"trade_licensed"`
	FullyCompliant bool `json:"fully_compliant"`
}

func (r Restaurant) ComplianceStatus() ComplianceStatus {
	s := ComplianceStatus{
		GSTRegistered: r.GSTNumber != "",
		FSSAILicensed: r.FSSAILicense != "",
		PANRegistered: r.PANNumber != "",
		TradeLicensed: r.TradeLicenseNumber != "",
	}
	s.FullyCompliant = s.GSTRegistered && s.FSSAILicensed && s.PANRegistered && s.TradeLicensed
	return s
}

type DietaryOptions struct {
	Vegetarian     bool `json:"vegetarian"`
	NonVegetarian  bool `json:"non_vegetarian"`
	Jain           bool `json:"jain"`
	Vegan          bool `json:"vegan"`
	Halal          bool `json:"halal"`
	PureVegetarian bool `json:"pure_vegetarian"`
}

func (r Restaurant) DietaryOptions() DietaryOptions {
	return DietaryOptions{
		Vegetarian:     r.ServesVegetarian,
		NonVegetarian:  r.ServesNonVegetarian,
		Jain:           r.ServesJain,
		Vegan:          r.ServesVegan,
		Halal:          r.HalalCertified,
		PureVegetarian: r.IsPureVegetarian(),
	}
}

func (r Restaurant) EnvironmentalImpact() impact.Projection {
	return impact.Project(r.TotalMysteryBagsSold, r.TotalFoodWasteSavedKg)
}

func (r Restaurant) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil
}

type MenuItem struct {
	ID           uint     `json:"id" gorm:"primaryKey"`
	RestaurantID uint     `json:"restaurant_id" gorm:"not null;index"`
	Name         string   `json:"name" gorm:"size:254;not null"`
	Description  string   `json:"description"`
	Price        int64    `json:"price" gorm:"not null"` // paise
	ImageURL     string   `json:"image_url"`
	Rating       *float64 `json:"rating"`
	ReviewsCount int      `json:"reviews_count" gorm:"not null"`

	dietary.Descriptor

	CuisineType            string                      `json:"cuisine_type" gorm:"size:50"`
	MealCategory           string                      `json:"meal_category" gorm:"size:20;index"`
	FoodType               string                      `json:"food_type" gorm:"size:20"`
	Allergens              datatypes.JSONSlice[string] `json:"allergens"`
	IngredientsExcluded    datatypes.JSONSlice[string] `json:"ingredients_excluded"`
	MainIngredients        datatypes.JSONSlice[string] `json:"main_ingredients"`
	PreparationTimeMinutes *int                        `json:"preparation_time_minutes"`
	ServingSize            string                      `json:"serving_size" gorm:"size:50"`
	CaloriesPerServing     *int                        `json:"calories_per_serving"`

	IsAvailable      bool   `json:"is_available" gorm:"not null"`
	IsSignatureDish  bool   `json:"is_signature_dish" gorm:"not null"`
	IsSeasonal       bool   `json:"is_seasonal" gorm:"not null"`
	OriginalPrice    *int64 `json:"original_price"`
	IsOnOffer        bool   `json:"is_on_offer" gorm:"not null"`
	OfferDescription string `json:"offer_description"`

	IsHealthyOption bool `json:"is_healthy_option" gorm:"not null"`
	IsLowCalorie    bool `json:"is_low_calorie" gorm:"not null"`
	IsHighProtein   bool `json:"is_high_protein" gorm:"not null"`
	IsOrganic       bool `json:"is_organic" gorm:"not null"`

	RegionOfOrigin       string `json:"region_of_origin" gorm:"size:100"`
	CulturalSignificance string `json:"cultural_significance"`

	CanBeInMysteryBag  bool   `json:"can_be_in_mystery_bag" gorm:"not null"`
	MysteryBagCategory string `json:"mystery_bag_category" gorm:"size:50"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DiscountPercentage is zero unless the item is on offer with a recorded original price
func (m MenuItem) DiscountPercentage() int {
	if !m.IsOnOffer || m.OriginalPrice == nil {
		return 0
	}
	return money.DiscountPercentage(*m.OriginalPrice, m.Price)
}

func (m MenuItem) NutritionalHighlights() []string {
	var out []string
	if m.IsHealthyOption {
		out = append(out, "Healthy Option")
	}
	if m.IsLowCalorie {
		out = append(out, "Low Calorie")
	}
	if m.IsHighProtein {
		out = append(out, "High Protein")
	}
	if m.IsOrganic {
		out = append(out, "Organic")
	}
	return out
}
