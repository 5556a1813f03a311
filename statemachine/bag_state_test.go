package statemachine

import (
	"errors"
	"testing"
	"time"

	"mealpedeal-api/apperrors"
	"mealpedeal-api/models"

	"github.com/stretchr/testify/assert"
)

var (
	start = time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	end   = start.Add(2 * time.Hour)
)

func bag() models.MysteryBag {
	return models.MysteryBag{IsActive: true, AvailableQuantity: 3, TotalQuantity: 3, PickupStartTime: start, PickupEndTime: end}
}

func TestIsAvailableWindowIsInclusive(t *testing.T) {
	b := bag()
	assert.True(t, IsAvailable(b, start))
	assert.True(t, IsAvailable(b, end))
	assert.False(t, IsAvailable(b, start.Add(-time.Second)))
	assert.False(t, IsAvailable(b, end.Add(time.Second)))

	b.AvailableQuantity = 0
	assert.False(t, IsAvailable(b, start))

	b = bag()
	b.IsActive = false
	assert.False(t, IsAvailable(b, start))
}

func TestStatus(t *testing.T) {
	b := bag()
	assert.Equal(t, models.BagUpcoming, Status(b, start.Add(-time.Minute)))
	assert.Equal(t, models.BagActive, Status(b, start.Add(time.Minute)))
	assert.Equal(t, models.BagExpired, Status(b, end.Add(time.Minute)))

	b.AvailableQuantity = 0
	assert.Equal(t, models.BagSoldOut, Status(b, start))
	assert.Equal(t, models.BagExpired, Status(b, end.Add(time.Minute)))

	b.IsActive = false
	assert.Equal(t, models.BagDeactivated, Status(b, start))
}

func TestCanPurchase(t *testing.T) {
	b := bag()
	assert.NoError(t, CanPurchase(b, 3, start.Add(-time.Hour)))
	assert.ErrorIs(t, CanPurchase(b, 4, start), apperrors.ErrInsufficientInventory)
	assert.ErrorIs(t, CanPurchase(b, 1, end.Add(time.Second)), apperrors.ErrBagExpired)

	var appErr *apperrors.Error
	assert.True(t, errors.As(CanPurchase(b, 0, start), &appErr))
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)

	b.IsActive = false
	assert.ErrorIs(t, CanPurchase(b, 1, start), apperrors.ErrBagNotActive)
}

func TestCanSetActive(t *testing.T) {
	b := bag()
	assert.NoError(t, CanSetActive(b, false, ActorManager, start))
	assert.NoError(t, CanSetActive(b, false, ActorModerator, start))
	assert.Error(t, CanSetActive(b, false, "customer", start))
	assert.Error(t, CanSetActive(b, true, ActorManager, start))

	b.IsActive = false
	assert.NoError(t, CanSetActive(b, true, ActorManager, start))
	assert.Error(t, CanSetActive(b, true, ActorManager, end.Add(time.Minute)))
}
