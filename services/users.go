package services

import (
	"strings"
	"time"

	"mealpedeal-api/apperrors"
	"mealpedeal-api/dietary"
	"mealpedeal-api/impact"
	"mealpedeal-api/models"
	"mealpedeal-api/money"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RegisterUser creates the account, its profile with a fresh referral code and
// default notification preferences. A non-empty referralCode is applied in the
// same transaction, so a bad code leaves no account behind.
func RegisterUser(db *gorm.DB, user *models.User, profile *models.UserProfile, referralCode string) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&n).Error; err != nil {
			return apperrors.Internal("Failed to check email", err)
		}
		if n > 0 {
			return apperrors.Conflict("EMAIL_TAKEN", "Email already registered")
		}
		if err := tx.Create(user).Error; err != nil {
			return apperrors.Internal("Failed to create user", err)
		}

		code, err := GenerateReferralCode(tx)
		if err != nil {
			return err
		}
		profile.UserID = user.ID
		profile.ReferralCode = code
		if profile.SpicePreference == "" {
			profile.SpicePreference = dietary.PreferAny
		}
		if err := tx.Create(profile).Error; err != nil {
			return apperrors.Internal("Failed to create profile", err)
		}
		prefs := models.DefaultNotificationPreferences(user.ID)
		if err := tx.Create(&prefs).Error; err != nil {
			return apperrors.Internal("Failed to create notification preferences", err)
		}

		if strings.TrimSpace(referralCode) != "" {
			if _, err := ApplyReferral(tx, user.ID, referralCode); err != nil {
				return err
			}
			if err := tx.First(profile, "user_id = ?", user.ID).Error; err != nil {
				return lookupErr(err, "User profile")
			}
		}
		return nil
	})
}

type UserImpact struct {
	impact.Projection
	MoneySavedPaise int64           `json:"money_saved_paise"`
	MoneySavedINR   decimal.Decimal `json:"money_saved_inr"`
}

func ProfileImpact(p models.UserProfile) UserImpact {
	return UserImpact{
		Projection:      impact.Project(p.TotalMealsSaved, p.TotalFoodWasteSavedKg),
		MoneySavedPaise: p.TotalMoneySavedPaise,
		MoneySavedINR:   money.ToMajorUnits(p.TotalMoneySavedPaise),
	}
}

// ToggleFavorite adds or removes a restaurant from the profile's favourites and
// reports whether it is a favourite afterwards.
func ToggleFavorite(db *gorm.DB, userID, restaurantID uint) (bool, error) {
	var favorite bool
	err := db.Transaction(func(tx *gorm.DB) error {
		var r models.Restaurant
		if err := tx.Select("id").First(&r, restaurantID).Error; err != nil {
			return lookupErr(err, "Restaurant")
		}
		var p models.UserProfile
		if err := tx.First(&p, "user_id = ?", userID).Error; err != nil {
			return lookupErr(err, "User profile")
		}
		next := make([]uint, 0, len(p.FavoriteRestaurants)+1)
		for _, id := range p.FavoriteRestaurants {
			if id != restaurantID {
				next = append(next, id)
			}
		}
		favorite = len(next) == len(p.FavoriteRestaurants)
		if favorite {
			next = append(next, restaurantID)
		}
		p.FavoriteRestaurants = next
		return writeErr(tx.Model(&p).Update("favorite_restaurants", p.FavoriteRestaurants).Error, "favourites")
	})
	return favorite, err
}

func TouchLastLogin(db *gorm.DB, userID uint, now time.Time) {
	db.Model(&models.User{}).Where("id = ?", userID).Update("last_login", now)
}
