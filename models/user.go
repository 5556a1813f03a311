package models

import (
	"time"

	"mealpedeal-api/dietary"

	"gorm.io/datatypes"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleCustomer          UserRole = "customer"
	RoleCourier           UserRole = "courier"
	RoleRestaurantManager UserRole = "restaurant_manager"
	RoleModerator         UserRole = "moderator"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleCustomer, RoleCourier, RoleRestaurantManager, RoleModerator:
		return true
	}
	return false
}

type User struct {
	ID                 uint       `json:"id" gorm:"primaryKey"`
	Email              string     `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash       string     `json:"-" gorm:"not null"`
	Role               UserRole   `json:"role" gorm:"size:20;not null"`
	IsActive           bool       `json:"is_active" gorm:"not null"`
	IsEmailVerified    bool       `json:"is_email_verified" gorm:"not null"`
	IsPhoneVerified    bool       `json:"is_phone_verified" gorm:"not null"`
	PreferredLanguage  string     `json:"preferred_language" gorm:"size:5;not null"`
	AcceptsWhatsapp    bool       `json:"accepts_whatsapp_notifications" gorm:"not null"`
	AcceptsSMS         bool       `json:"accepts_sms_notifications" gorm:"not null"`
	AcceptsPromotional bool       `json:"accepts_promotional_messages" gorm:"not null"`
	LastLogin          *time.Time `json:"last_login"`
	LastKnownLatitude  *float64   `json:"last_known_latitude"`
	LastKnownLongitude *float64   `json:"last_known_longitude"`
	LastKnownCity      string     `json:"last_known_city" gorm:"size:100"`
	LastKnownState     string     `json:"last_known_state" gorm:"size:100"`
	CreatedAt          time.Time  `json:"date_joined"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// UserProfile shares its primary key with User (one-to-one)
type UserProfile struct {
	UserID    uint       `json:"user_id" gorm:"primaryKey;autoIncrement:false"`
	FirstName string     `json:"first_name" gorm:"size:254;not null"`
	LastName  string     `json:"last_name" gorm:"size:254;not null"`
	ImageURL  string     `json:"image_url"`
	Phone     string     `json:"phone" gorm:"size:20"`
	BirthDate *time.Time `json:"birth_date"`

	dietary.Preferences

	PreferredCuisines datatypes.JSONSlice[string] `json:"preferred_cuisines"`
	DefaultAddress    string                      `json:"default_address"`
	Pincode           string                      `json:"pincode" gorm:"size:6"`

	// Cumulative impact counters
	TotalMealsSaved       int     `json:"total_meals_saved" gorm:"not null"`
	TotalMoneySavedPaise  int64   `json:"total_money_saved_paise" gorm:"not null"`
	TotalFoodWasteSavedKg float64 `json:"total_food_waste_saved_kg" gorm:"not null"`

	ReferralCode string `json:"referral_code" gorm:"size:10;uniqueIndex;not null"`
	ReferredByID *uint  `json:"referred_by_id" gorm:"index"`

	FavoriteRestaurants datatypes.JSONSlice[uint] `json:"favorite_restaurants"`
	LastOrderDate       *time.Time                `json:"last_order_date"`
	CreatedAt           time.Time                 `json:"created_at"`
	UpdatedAt           time.Time                 `json:"updated_at"`
}

func (p UserProfile) FullName() string {
	return p.FirstName + " " + p.LastName
}

// NotificationPreferences holds per-channel opt-ins
type NotificationPreferences struct {
	UserID uint `json:"user_id" gorm:"primaryKey;autoIncrement:false"`

	WhatsappOrderUpdates         bool `json:"whatsapp_order_updates"`
	WhatsappPickupReminders      bool `json:"whatsapp_pickup_reminders"`
	WhatsappDailyDeals           bool `json:"whatsapp_daily_deals"`
	WhatsappEnvironmentalUpdates bool `json:"whatsapp_environmental_updates"`

	SMSOrderUpdates        bool `json:"sms_order_updates"`
	SMSPickupReminders     bool `json:"sms_pickup_reminders"`
	SMSEmergencyNotices    bool `json:"sms_emergency_notifications"`
	EmailWeeklySummary     bool `json:"email_weekly_summary"`
	EmailMonthlyImpact     bool `json:"email_monthly_impact_report"`
	EmailNewRestaurants    bool `json:"email_new_restaurant_alerts"`
	PushNearbyDeals        bool `json:"push_nearby_deals"`
	PushFavoriteOffers     bool `json:"push_favorite_restaurant_offers"`
	PushPickupReminders    bool `json:"push_pickup_time_reminders"`
	PromotionalOffers      bool `json:"promotional_offers"`
	SeasonalCampaigns      bool `json:"seasonal_campaigns"`
	ReferralProgramUpdates bool `json:"referral_program_updates"`

	QuietHoursStart string `json:"quiet_hours_start" gorm:"size:5"`
	QuietHoursEnd   string `json:"quiet_hours_end" gorm:"size:5"`
}

// DefaultNotificationPreferences mirrors what a new account opts into
func DefaultNotificationPreferences(userID uint) NotificationPreferences {
	return NotificationPreferences{
		UserID:                  userID,
		WhatsappOrderUpdates:    true,
		WhatsappPickupReminders: true,
		WhatsappDailyDeals:      true,
		SMSOrderUpdates:         true,
		SMSPickupReminders:      true,
		SMSEmergencyNotices:     true,
		EmailWeeklySummary:      true,
		EmailMonthlyImpact:      true,
		PushNearbyDeals:         true,
		PushFavoriteOffers:      true,
		PushPickupReminders:     true,
		PromotionalOffers:       true,
		ReferralProgramUpdates:  true,
		QuietHoursStart:         "22:00",
		QuietHoursEnd:           "08:00",
	}
}
