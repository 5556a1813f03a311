package services

import (
	"strings"
	"testing"
	"time"

	"mealpedeal-api/config"
	"mealpedeal-api/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var now = time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := config.OpenDB("sqlite", "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func newUser(t *testing.T, db *gorm.DB, email string, role models.UserRole) (*models.User, *models.UserProfile) {
	t.Helper()
	u := &models.User{Email: email, PasswordHash: "x", Role: role, IsActive: true, PreferredLanguage: "en"}
	p := &models.UserProfile{FirstName: "Test", LastName: strings.Split(email, "@")[0]}
	require.NoError(t, RegisterUser(db, u, p, ""))
	return u, p
}

func newRestaurant(t *testing.T, db *gorm.DB, managerID uint) *models.Restaurant {
	t.Helper()
	r := &models.Restaurant{
		ManagerID: managerID, Name: "Annapurna", IsActive: true, City: "Pune",
		ServesVegetarian: true, MysteryBagEnabled: true,
	}
	require.NoError(t, db.Create(r).Error)
	return r
}

func newBag(t *testing.T, db *gorm.DB, restaurantID uint, qty int) *models.MysteryBag {
	t.Helper()
	b := &models.MysteryBag{
		RestaurantID: restaurantID, Title: "Dinner bag",
		OriginalValue: 30000, SellingPrice: 10000,
		TotalQuantity: qty, AvailableQuantity: qty,
		PickupStartTime: now.Add(-time.Hour), PickupEndTime: now.Add(time.Hour),
		IsActive: true, EstimatedFoodWasteSavedGrams: ptr(500),
	}
	b.RefreshDiscount()
	require.NoError(t, db.Create(b).Error)
	return b
}

func profileOf(t *testing.T, db *gorm.DB, userID uint) models.UserProfile {
	t.Helper()
	var p models.UserProfile
	require.NoError(t, db.First(&p, "user_id = ?", userID).Error)
	return p
}
