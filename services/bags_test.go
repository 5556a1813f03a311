package services

import (
	"testing"
	"time"

	"mealpedeal-api/apperrors"
	"mealpedeal-api/models"
	"mealpedeal-api/statemachine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateBagChecksOwnershipAndInvariants(t *testing.T) {
	db := newTestDB(t)
	manager, _ := newUser(t, db, "m@example.com", models.RoleRestaurantManager)
	other, _ := newUser(t, db, "o@example.com", models.RoleRestaurantManager)
	r := newRestaurant(t, db, manager.ID)

	bag := &models.MysteryBag{
		RestaurantID: r.ID, Title: "Lunch bag", OriginalValue: 25000, SellingPrice: 9900,
		TotalQuantity: 4, AvailableQuantity: 4, IsActive: true,
		PickupStartTime: now, PickupEndTime: now.Add(time.Hour),
	}
	assert.Equal(t, 403, apperrors.HTTPStatus(CreateBag(db, other.ID, bag)))

	require.NoError(t, CreateBag(db, manager.ID, bag))
	assert.Equal(t, 60, bag.DiscountPercentage)

	bad := *bag
	bad.ID = 0
	bad.SellingPrice = 30000
	assert.Equal(t, 400, apperrors.HTTPStatus(CreateBag(db, manager.ID, &bad)))

	updated, err := UpdateBag(db, manager.ID, bag.ID, func(b *models.MysteryBag) { b.SellingPrice = 12500 })
	require.NoError(t, err)
	assert.Equal(t, 50, updated.DiscountPercentage)

	_, err = UpdateBag(db, manager.ID, bag.ID, func(b *models.MysteryBag) { b.AvailableQuantity = 10 })
	assert.Equal(t, 400, apperrors.HTTPStatus(err))
}

func TestUpdateBagKeepsConcurrentSale(t *testing.T) {
	db := newTestDB(t)
	manager, _ := newUser(t, db, "m@example.com", models.RoleRestaurantManager)
	r := newRestaurant(t, db, manager.ID)
	bag := newBag(t, db, r.ID, 5)

	// a sale commits after UpdateBag has read the bag but before it writes
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:sale_in_between", func(tx *gorm.DB) {
		if tx.Statement.Table == "mystery_bags" {
			tx.Session(&gorm.Session{NewDB: true}).
				Exec("UPDATE mystery_bags SET available_quantity = available_quantity - 1 WHERE id = ?", bag.ID)
		}
	}))
	updated, err := UpdateBag(db, manager.ID, bag.ID, func(b *models.MysteryBag) { b.Title = "Late dinner bag" })
	require.NoError(t, db.Callback().Update().Remove("test:sale_in_between"))
	require.NoError(t, err)

	assert.Equal(t, "Late dinner bag", updated.Title)
	assert.Equal(t, 4, updated.AvailableQuantity)

	var got models.MysteryBag
	require.NoError(t, db.First(&got, bag.ID).Error)
	assert.Equal(t, 4, got.AvailableQuantity)

	restocked, err := UpdateBag(db, manager.ID, bag.ID, func(b *models.MysteryBag) { b.AvailableQuantity = 2 })
	require.NoError(t, err)
	assert.Equal(t, 2, restocked.AvailableQuantity)
}

func TestSetBagActiveRecordsHistory(t *testing.T) {
	db := newTestDB(t)
	manager, _ := newUser(t, db, "m@example.com", models.RoleRestaurantManager)
	mod, _ := newUser(t, db, "mod@example.com", models.RoleModerator)
	stranger, _ := newUser(t, db, "s@example.com", models.RoleRestaurantManager)
	r := newRestaurant(t, db, manager.ID)
	bag := newBag(t, db, r.ID, 2)

	_, err := SetBagActive(db, bag.ID, stranger.ID, statemachine.ActorManager, false, "", now)
	assert.Equal(t, 403, apperrors.HTTPStatus(err))

	got, err := SetBagActive(db, bag.ID, mod.ID, statemachine.ActorModerator, false, "reported", now)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	_, err = SetBagActive(db, bag.ID, manager.ID, statemachine.ActorManager, false, "", now)
	assert.Equal(t, 409, apperrors.HTTPStatus(err))

	_, err = SetBagActive(db, bag.ID, manager.ID, statemachine.ActorManager, true, "", now)
	require.NoError(t, err)

	var history []models.BagStatusChange
	require.NoError(t, db.Where("mystery_bag_id = ?", bag.ID).Order("id").Find(&history).Error)
	require.Len(t, history, 2)
	assert.Equal(t, models.BagActive, history[0].FromStatus)
	assert.Equal(t, models.BagDeactivated, history[0].ToStatus)
	assert.Equal(t, "reported", history[0].Note)
	assert.Equal(t, models.BagActive, history[1].ToStatus)
}

func TestCreateBagFromTemplate(t *testing.T) {
	db := newTestDB(t)
	manager, _ := newUser(t, db, "m@example.com", models.RoleRestaurantManager)
	r := newRestaurant(t, db, manager.ID)

	tpl := &models.MysteryBagTemplate{
		RestaurantID: r.ID, Name: "Evening thali", OriginalValue: 40000, SellingPrice: 15000,
		DefaultQuantity: 6, DefaultPickupDurationHours: 3,
	}
	require.NoError(t, CreateTemplate(db, manager.ID, tpl))
	assert.Equal(t, "Evening thali", tpl.Title)

	start := now.Add(2 * time.Hour)
	bag, err := CreateBagFromTemplate(db, manager.ID, tpl.ID, start, 0, now)
	require.NoError(t, err)
	assert.Equal(t, 6, bag.AvailableQuantity)
	assert.True(t, bag.PickupEndTime.Equal(start.Add(3*time.Hour)))
	assert.Equal(t, 62, bag.DiscountPercentage)
	require.NotNil(t, bag.TemplateID)

	_, err = CreateBagFromTemplate(db, manager.ID, tpl.ID, start, 2, now)
	require.NoError(t, err)

	var reloaded models.MysteryBagTemplate
	require.NoError(t, db.First(&reloaded, tpl.ID).Error)
	assert.Equal(t, 2, reloaded.TimesUsed)
	assert.NotNil(t, reloaded.LastUsedAt)
}
