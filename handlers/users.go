package handlers

import (
	"net/http"
	"time"

	"mealpedeal-api/apperrors"
	"mealpedeal-api/config"
	"mealpedeal-api/dietary"
	"mealpedeal-api/middleware"
	"mealpedeal-api/models"
	"mealpedeal-api/money"
	"mealpedeal-api/services"
	"mealpedeal-api/statemachine"
	"mealpedeal-api/validation"

	"github.com/gin-gonic/gin"
)

func loadProfile(c *gin.Context) (*models.UserProfile, bool) {
	var profile models.UserProfile
	if err := config.DB.First(&profile, "user_id = ?", middleware.GetUserID(c)).Error; err != nil {
		respondError(c, apperrors.NotFound("User profile"))
		return nil, false
	}
	return &profile, true
}

// ── Profile ──────────────────────────────────────────────────────────────────

type UpdateProfileRequest struct {
	FirstName         *string  `json:"first_name" binding:"omitempty,min=1,max=254"`
	LastName          *string  `json:"last_name" binding:"omitempty,max=254"`
	ImageURL          *string  `json:"image_url" binding:"omitempty,url"`
	BirthDate         *string  `json:"birth_date" binding:"omitempty,datetime=2006-01-02"`
	DefaultAddress    *string  `json:"default_address"`
	Pincode           *string  `json:"pincode" binding:"omitempty,pincode"`
	PreferredCuisines []string `json:"preferred_cuisines" binding:"omitempty,dive,cuisine"`
	PreferredLanguage *string  `json:"preferred_language" binding:"omitempty,len=2"`
}

func UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, ok := loadProfile(c)
	if !ok {
		return
	}

	update := map[string]any{}
	if req.FirstName != nil {
		update["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		update["last_name"] = *req.LastName
	}
	if req.ImageURL != nil {
		update["image_url"] = *req.ImageURL
	}
	if req.BirthDate != nil {
		d, _ := time.Parse(time.DateOnly, *req.BirthDate)
		update["birth_date"] = d
	}
	if req.DefaultAddress != nil {
		update["default_address"] = *req.DefaultAddress
	}
	if req.Pincode != nil {
		update["pincode"] = *req.Pincode
	}
	if req.PreferredCuisines != nil {
		profile.PreferredCuisines = req.PreferredCuisines
		update["preferred_cuisines"] = profile.PreferredCuisines
	}
	if len(update) > 0 {
		if err := config.DB.Model(profile).Updates(update).Error; err != nil {
			respondError(c, apperrors.Internal("Failed to update profile", err))
			return
		}
	}
	if req.PreferredLanguage != nil {
		config.DB.Model(&models.User{}).Where("id = ?", profile.UserID).Update("preferred_language", *req.PreferredLanguage)
	}
	config.DB.First(profile, "user_id = ?", profile.UserID)
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "profile": profile})
}

type DietaryPreferencesRequest struct {
	IsVegetarian    *bool   `json:"is_vegetarian"`
	IsJain          *bool   `json:"is_jain"`
	IsVegan         *bool   `json:"is_vegan"`
	AvoidsAlcohol   *bool   `json:"avoids_alcohol"`
	SpicePreference *string `json:"spice_preference" binding:"omitempty,oneof=MILD MEDIUM SPICY ANY"`
}

func UpdateDietaryPreferences(c *gin.Context) {
	var req DietaryPreferencesRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, ok := loadProfile(c)
	if !ok {
		return
	}
	p := profile.Preferences
	p.IsVegetarian = boolOr(req.IsVegetarian, p.IsVegetarian)
	p.IsJain = boolOr(req.IsJain, p.IsJain)
	p.IsVegan = boolOr(req.IsVegan, p.IsVegan)
	p.AvoidsAlcohol = boolOr(req.AvoidsAlcohol, p.AvoidsAlcohol)
	if req.SpicePreference != nil {
		p.SpicePreference = dietary.SpicePreference(*req.SpicePreference)
	}
	// jain and vegan diets are vegetarian too
	if p.IsJain || p.IsVegan {
		p.IsVegetarian = true
	}
	if err := config.DB.Model(profile).Updates(map[string]any{
		"is_vegetarian":    p.IsVegetarian,
		"is_jain":          p.IsJain,
		"is_vegan":         p.IsVegan,
		"avoids_alcohol":   p.AvoidsAlcohol,
		"spice_preference": p.SpicePreference,
	}).Error; err != nil {
		respondError(c, apperrors.Internal("Failed to update preferences", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Dietary preferences updated", "preferences": p})
}

type UpdateLocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	City      string   `json:"city" binding:"max=100"`
	State     string   `json:"state" binding:"max=100"`
}

// UpdateLocation stores the last known position used for nearby suggestions
func UpdateLocation(c *gin.Context) {
	var req UpdateLocationRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := validation.Coordinates(*req.Latitude, *req.Longitude); err != nil {
		respondError(c, err)
		return
	}
	if err := config.DB.Model(&models.User{}).Where("id = ?", middleware.GetUserID(c)).Updates(map[string]any{
		"last_known_latitude":  *req.Latitude,
		"last_known_longitude": *req.Longitude,
		"last_known_city":      req.City,
		"last_known_state":     req.State,
	}).Error; err != nil {
		respondError(c, apperrors.Internal("Failed to update location", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Location updated"})
}

// ── Notification preferences ─────────────────────────────────────────────────

func GetNotificationPreferences(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var prefs models.NotificationPreferences
	if err := config.DB.First(&prefs, "user_id = ?", userID).Error; err != nil {
		prefs = models.DefaultNotificationPreferences(userID)
	}
	c.JSON(http.StatusOK, gin.H{"preferences": prefs})
}

// UpdateNotificationPreferences accepts a partial object; unknown keys are ignored
func UpdateNotificationPreferences(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req map[string]any
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, validation.FromBindError(err))
		return
	}

	var prefs models.NotificationPreferences
	if err := config.DB.First(&prefs, "user_id = ?", userID).Error; err != nil {
		prefs = models.DefaultNotificationPreferences(userID)
		if err := config.DB.Create(&prefs).Error; err != nil {
			respondError(c, apperrors.Internal("Failed to create preferences", err))
			return
		}
	}

	toggles := map[string]string{
		"whatsapp_order_updates":          "whatsapp_order_updates",
		"whatsapp_pickup_reminders":       "whatsapp_pickup_reminders",
		"whatsapp_daily_deals":            "whatsapp_daily_deals",
		"whatsapp_environmental_updates":  "whatsapp_environmental_updates",
		"sms_order_updates":               "sms_order_updates",
		"sms_pickup_reminders":            "sms_pickup_reminders",
		"sms_emergency_notifications":     "sms_emergency_notices",
		"email_weekly_summary":            "email_weekly_summary",
		"email_monthly_impact_report":     "email_monthly_impact",
		"email_new_restaurant_alerts":     "email_new_restaurants",
		"push_nearby_deals":               "push_nearby_deals",
		"push_favorite_restaurant_offers": "push_favorite_offers",
		"push_pickup_time_reminders":      "push_pickup_reminders",
		"promotional_offers":              "promotional_offers",
		"seasonal_campaigns":              "seasonal_campaigns",
		"referral_program_updates":        "referral_program_updates",
	}
	update := map[string]any{}
	bad := map[string]string{}
	for key, value := range req {
		if col, ok := toggles[key]; ok {
			b, isBool := value.(bool)
			if !isBool {
				bad[key] = "Must be true or false"
				continue
			}
			update[col] = b
			continue
		}
		if key == "quiet_hours_start" || key == "quiet_hours_end" {
			s, isString := value.(string)
			if !isString {
				bad[key] = "Must be a time in HH:MM format"
				continue
			}
			if _, err := time.Parse("15:04", s); err != nil {
				bad[key] = "Must be a time in HH:MM format"
				continue
			}
			update[key] = s
		}
	}
	if len(bad) > 0 {
		respondError(c, apperrors.Validation(bad))
		return
	}
	if len(update) > 0 {
		if err := config.DB.Model(&prefs).Updates(update).Error; err != nil {
			respondError(c, apperrors.Internal("Failed to update preferences", err))
			return
		}
	}
	config.DB.First(&prefs, "user_id = ?", userID)
	c.JSON(http.StatusOK, gin.H{"message": "Notification preferences updated", "preferences": prefs})
}

// ── Favourites & impact ──────────────────────────────────────────────────────

func ToggleFavorite(c *gin.Context) {
	restaurantID, ok := paramID(c, "id")
	if !ok {
		return
	}
	favorite, err := services.ToggleFavorite(config.DB, middleware.GetUserID(c), restaurantID)
	if err != nil {
		respondError(c, err)
		return
	}
	msg := "Restaurant removed from favourites"
	if favorite {
		msg = "Restaurant added to favourites"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "is_favorite": favorite})
}

func GetFavorites(c *gin.Context) {
	profile, ok := loadProfile(c)
	if !ok {
		return
	}
	restaurants := []models.Restaurant{}
	if len(profile.FavoriteRestaurants) > 0 {
		config.DB.Where("id IN ? AND is_active = ?", []uint(profile.FavoriteRestaurants), true).Order("name").Find(&restaurants)
	}
	views := make([]restaurantView, 0, len(restaurants))
	for _, r := range restaurants {
		views = append(views, viewRestaurant(r, nil))
	}
	c.JSON(http.StatusOK, gin.H{"restaurants": views, "count": len(views)})
}

func GetMyImpact(c *gin.Context) {
	profile, ok := loadProfile(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"environmental_impact": services.ProfileImpact(*profile),
		"last_order_date":      profile.LastOrderDate,
	})
}

// ── Referrals ────────────────────────────────────────────────────────────────

type ApplyReferralRequest struct {
	ReferralCode string `json:"referral_code" binding:"required,len=8,alphanum"`
}

func ApplyReferral(c *gin.Context) {
	var req ApplyReferralRequest
	if !bindJSON(c, &req) {
		return
	}
	userID := middleware.GetUserID(c)
	result, err := services.ApplyReferral(config.DB, userID, req.ReferralCode)
	if err != nil {
		respondError(c, err)
		return
	}
	notifyUser(c.Request.Context(), result.ReferrerID, "Referral bonus",
		"Someone joined with your referral code. "+money.FormatINR(result.BonusPaise)+" has been added to your savings.")
	c.JSON(http.StatusOK, gin.H{
		"message":     "Referral applied",
		"bonus_paise": result.BonusPaise,
		"bonus_inr":   result.BonusINR,
	})
}

func GetReferralStats(c *gin.Context) {
	stats, err := services.GetReferralStats(config.DB, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RecommendedBags lists bags available right now that fit the customer's
// dietary preferences and spice tolerance.
func RecommendedBags(c *gin.Context) {
	profile, ok := loadProfile(c)
	if !ok {
		return
	}
	now := deps.Now()
	var bags []models.MysteryBag
	if err := config.DB.Preload("Restaurant").
		Where("is_active = ? AND available_quantity > ?", true, 0).
		Order("pickup_end_time").Find(&bags).Error; err != nil {
		respondError(c, apperrors.Internal("Failed to load mystery bags", err))
		return
	}

	filter := profile.Preferences.Filter()
	out := make([]models.MysteryBag, 0, len(bags))
	for _, b := range bags {
		if !statemachine.IsAvailable(b, now) || !filter.Matches(b.Descriptor) || !profile.ToleratesSpice(b.SpiceLevel) {
			continue
		}
		if b.Restaurant != nil && !b.Restaurant.IsActive {
			continue
		}
		out = append(out, b)
		if len(out) == 20 {
			break
		}
	}
	c.JSON(http.StatusOK, gin.H{"mystery_bags": viewBags(out, now), "count": len(out)})
}
