package validation

import (
	"errors"
	"testing"
	"time"

	"mealpedeal-api/apperrors"
	"mealpedeal-api/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormats(t *testing.T) {
	assert.True(t, IsGSTIN("27AAPFU0939F1ZV"))
	assert.False(t, IsGSTIN("27aapfu0939f1zv"))
	assert.True(t, IsFSSAI("12345678901234"))
	assert.False(t, IsFSSAI("1234567890123"))
	assert.True(t, IsPAN("ABCDE1234F"))
	assert.True(t, IsPincode("560001"))
	assert.False(t, IsPincode("56001"))
	assert.True(t, IsPhone("+919876543210"))
	assert.False(t, IsPhone("9876543210"))
}

type complianceBody struct {
	GSTNumber string `json:"gst_number" binding:"omitempty,gstin"`
	Pincode   string `json:"pincode" binding:"required,pincode"`
}

func TestRegisteredTagsAndBindErrors(t *testing.T) {
	Register()
	err := binding.Validator.ValidateStruct(&complianceBody{GSTNumber: "bad", Pincode: "12"})
	require.Error(t, err)

	out := FromBindError(err)
	var appErr *apperrors.Error
	require.True(t, errors.As(out, &appErr))
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)
	assert.Equal(t, "Invalid GST number format", appErr.Fields["gst_number"])
	assert.Equal(t, "Pincode must be 6 digits", appErr.Fields["pincode"])

	assert.NoError(t, binding.Validator.ValidateStruct(&complianceBody{Pincode: "400001"}))
}

func TestMenuItemOfferPrice(t *testing.T) {
	orig := int64(500)
	item := models.MenuItem{Name: "Thali", Price: 600, IsOnOffer: true, OriginalPrice: &orig}
	assert.Error(t, MenuItem(item))

	item.Price = 400
	assert.NoError(t, MenuItem(item))

	item.OriginalPrice = nil
	assert.Error(t, MenuItem(item))

	item.IsOnOffer = false
	assert.NoError(t, MenuItem(item))
}

func TestMysteryBagInvariants(t *testing.T) {
	start := time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC)
	ok := models.MysteryBag{
		Title: "Evening bag", OriginalValue: 30000, SellingPrice: 12000,
		TotalQuantity: 5, AvailableQuantity: 5,
		PickupStartTime: start, PickupEndTime: start.Add(2 * time.Hour),
	}
	assert.NoError(t, MysteryBag(ok))

	cases := map[string]func(b *models.MysteryBag){
		"selling_price":      func(b *models.MysteryBag) { b.SellingPrice = 40000 },
		"available_quantity": func(b *models.MysteryBag) { b.AvailableQuantity = 6 },
		"pickup_end_time":    func(b *models.MysteryBag) { b.PickupEndTime = b.PickupStartTime },
		"total_quantity":     func(b *models.MysteryBag) { b.TotalQuantity = 0; b.AvailableQuantity = 0 },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			b := ok
			mutate(&b)
			var appErr *apperrors.Error
			require.True(t, errors.As(MysteryBag(b), &appErr))
			assert.Contains(t, appErr.Fields, field)
		})
	}
}

func TestCoordinates(t *testing.T) {
	assert.NoError(t, Coordinates(12.97, 77.59))
	assert.Error(t, Coordinates(91, 0))
	assert.Error(t, Coordinates(0, -181))
}
