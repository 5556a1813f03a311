package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"mealpedeal-api/apperrors"
	"mealpedeal-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPurchaseBagUpdatesEveryCounter(t *testing.T) {
	db := newTestDB(t)
	manager, _ := newUser(t, db, "m@example.com", models.RoleRestaurantManager)
	customer, _ := newUser(t, db, "c@example.com", models.RoleCustomer)
	r := newRestaurant(t, db, manager.ID)
	bag := newBag(t, db, r.ID, 5)

	sale, err := PurchaseBag(db, PurchaseInput{BagID: bag.ID, CustomerID: customer.ID, Quantity: 2, OrderRef: "ord-1"}, now)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), sale.TotalPrice)
	assert.Equal(t, int64(40000), sale.SavingsPaise)
	assert.InDelta(t, 1.0, sale.FoodWasteSavedKg, 1e-9)

	var got models.MysteryBag
	require.NoError(t, db.First(&got, bag.ID).Error)
	assert.Equal(t, 3, got.AvailableQuantity)

	var rest models.Restaurant
	require.NoError(t, db.First(&rest, r.ID).Error)
	assert.Equal(t, 2, rest.TotalMysteryBagsSold)
	assert.InDelta(t, 1.0, rest.TotalFoodWasteSavedKg, 1e-9)

	p := profileOf(t, db, customer.ID)
	assert.Equal(t, 2, p.TotalMealsSaved)
	assert.Equal(t, int64(40000), p.TotalMoneySavedPaise)
	assert.InDelta(t, 1.0, p.TotalFoodWasteSavedKg, 1e-9)
	assert.NotNil(t, p.LastOrderDate)
}

func TestPurchaseBagRejections(t *testing.T) {
	db := newTestDB(t)
	manager, _ := newUser(t, db, "m@example.com", models.RoleRestaurantManager)
	customer, _ := newUser(t, db, "c@example.com", models.RoleCustomer)
	r := newRestaurant(t, db, manager.ID)
	bag := newBag(t, db, r.ID, 1)

	_, err := PurchaseBag(db, PurchaseInput{BagID: bag.ID, CustomerID: customer.ID, Quantity: 2}, now)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientInventory)

	_, err = PurchaseBag(db, PurchaseInput{BagID: bag.ID, CustomerID: customer.ID, Quantity: 1}, bag.PickupEndTime.Add(time.Second))
	assert.ErrorIs(t, err, apperrors.ErrBagExpired)

	_, err = PurchaseBag(db, PurchaseInput{BagID: bag.ID, CustomerID: customer.ID, Quantity: 0}, now)
	assert.Equal(t, 400, apperrors.HTTPStatus(err))

	_, err = PurchaseBag(db, PurchaseInput{BagID: 999, CustomerID: customer.ID, Quantity: 1}, now)
	assert.Equal(t, 404, apperrors.HTTPStatus(err))

	require.NoError(t, db.Model(bag).Update("is_active", false).Error)
	_, err = PurchaseBag(db, PurchaseInput{BagID: bag.ID, CustomerID: customer.ID, Quantity: 1}, now)
	assert.ErrorIs(t, err, apperrors.ErrBagNotActive)

	var sales int64
	db.Model(&models.BagSale{}).Count(&sales)
	assert.Zero(t, sales)
}

func TestPurchaseBagRollsBackOnLateFailure(t *testing.T) {
	db := newTestDB(t)
	manager, _ := newUser(t, db, "m@example.com", models.RoleRestaurantManager)
	customer, _ := newUser(t, db, "c@example.com", models.RoleCustomer)
	r := newRestaurant(t, db, manager.ID)
	bag := newBag(t, db, r.ID, 3)

	// fail the last write of the transaction: the customer profile update
	require.NoError(t, db.Callback().Update().After("gorm:update").Register("test:fail_profile", func(tx *gorm.DB) {
		if tx.Statement.Table == "user_profiles" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	_, err := PurchaseBag(db, PurchaseInput{BagID: bag.ID, CustomerID: customer.ID, Quantity: 1}, now)
	require.Error(t, err)

	require.NoError(t, db.Callback().Update().Remove("test:fail_profile"))

	var got models.MysteryBag
	require.NoError(t, db.First(&got, bag.ID).Error)
	assert.Equal(t, 3, got.AvailableQuantity)

	var rest models.Restaurant
	require.NoError(t, db.First(&rest, r.ID).Error)
	assert.Zero(t, rest.TotalMysteryBagsSold)

	var sales int64
	db.Model(&models.BagSale{}).Count(&sales)
	assert.Zero(t, sales)
}

func TestPurchaseBagNeverOversells(t *testing.T) {
	db := newTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	manager, _ := newUser(t, db, "m@example.com", models.RoleRestaurantManager)
	customer, _ := newUser(t, db, "c@example.com", models.RoleCustomer)
	r := newRestaurant(t, db, manager.ID)
	bag := newBag(t, db, r.ID, 3)

	var wg sync.WaitGroup
	var mu sync.Mutex
	sold, rejected := 0, 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := PurchaseBag(db, PurchaseInput{BagID: bag.ID, CustomerID: customer.ID, Quantity: 1}, now)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				sold++
			} else if errors.Is(err, apperrors.ErrInsufficientInventory) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, sold)
	assert.Equal(t, 5, rejected)
	var got models.MysteryBag
	require.NoError(t, db.First(&got, bag.ID).Error)
	assert.Zero(t, got.AvailableQuantity)
}
