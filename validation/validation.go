// Package validation registers the marketplace's field formats on gin's
// validator engine and holds the cross-field rules binding tags can't express.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"mealpedeal-api/apperrors"
	"mealpedeal-api/dietary"
	"mealpedeal-api/geo"
	"mealpedeal-api/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	gstinRe   = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z]{1}[1-9A-Z]{1}Z[0-9A-Z]{1}$`)
	fssaiRe   = regexp.MustCompile(`^\d{14}$`)
	panRe     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]{1}$`)
	pincodeRe = regexp.MustCompile(`^\d{6}$`)
	phoneRe   = regexp.MustCompile(`^\+91[0-9]{10}$`)
)

var Cuisines = map[string]bool{
	"north_indian": true, "south_indian": true, "gujarati": true, "punjabi": true,
	"bengali": true, "maharashtrian": true, "rajasthani": true, "chinese": true,
	"continental": true, "italian": true, "street_food": true, "desserts": true,
	"beverages": true, "bakery": true, "biryani": true, "mughlai": true,
	"kerala": true, "hyderabadi": true, "fast_food": true, "healthy": true,
}

var MealCategories = map[string]bool{
	"breakfast": true, "lunch": true, "dinner": true, "snacks": true, "desserts": true, "beverages": true,
}

func IsGSTIN(s string) bool   { return gstinRe.MatchString(s) }
func IsFSSAI(s string) bool   { return fssaiRe.MatchString(s) }
func IsPAN(s string) bool     { return panRe.MatchString(s) }
func IsPincode(s string) bool { return pincodeRe.MatchString(s) }
func IsPhone(s string) bool   { return phoneRe.MatchString(s) }

var registerOnce sync.Once

// Register installs the custom tags on gin's default validator. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		formats := map[string]func(string) bool{
			"gstin":   IsGSTIN,
			"fssai":   IsFSSAI,
			"pan":     IsPAN,
			"pincode": IsPincode,
			"inphone": IsPhone,
			"cuisine": func(s string) bool { return Cuisines[s] },
			"meal":    func(s string) bool { return MealCategories[s] },
			"spice": func(s string) bool {
				_, ok := dietary.ParseSpiceLevel(s)
				return ok
			},
		}
		for tag, fn := range formats {
			check := fn
			_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				return check(fl.Field().String())
			})
		}
	})
}

var messages = map[string]string{
	"required": "This field is required",
	"email":    "Enter a valid email address",
	"min":      "Value is too small or too short",
	"max":      "Value is too large or too long",
	"gte":      "Value is too small",
	"lte":      "Value is too large",
	"oneof":    "Value is not one of the allowed options",
	"gstin":    "Invalid GST number format",
	"fssai":    "FSSAI license must be 14 digits",
	"pan":      "Invalid PAN number format",
	"pincode":  "Pincode must be 6 digits",
	"inphone":  "Phone number must be in format +91XXXXXXXXXX",
	"cuisine":  "Unknown cuisine type",
	"meal":     "Unknown meal category",
	"spice":    "Unknown spice level",
}

// FromBindError converts a ShouldBind* failure into a ValidationFailed error
// keyed by JSON field name.
func FromBindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Invalid("body", "Malformed request body: "+err.Error())
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if name == "" {
			name = strings.ToLower(fe.StructField())
		}
		msg, ok := messages[fe.Tag()]
		if !ok {
			msg = "Failed on '" + fe.Tag() + "' rule"
		}
		fields[name] = msg
	}
	return apperrors.Validation(fields)
}

func Coordinates(lat, lng float64) error {
	fields := map[string]string{}
	if lat < -90 || lat > 90 {
		fields["latitude"] = "Latitude must be between -90 and 90"
	}
	if lng < -180 || lng > 180 {
		fields["longitude"] = "Longitude must be between -180 and 180"
	}
	if len(fields) > 0 {
		return apperrors.Validation(fields)
	}
	if !geo.ValidCoordinates(lat, lng) {
		return apperrors.Invalid("location", "Invalid coordinates")
	}
	return nil
}

func MenuItem(m models.MenuItem) error {
	fields := map[string]string{}
	if strings.TrimSpace(m.Name) == "" {
		fields["name"] = "This field is required"
	}
	if m.Price < 0 {
		fields["price"] = "Price cannot be negative"
	}
	if m.IsOnOffer {
		if m.OriginalPrice == nil {
			fields["original_price"] = "Original price is required when the item is on offer"
		} else if *m.OriginalPrice < m.Price {
			fields["original_price"] = "Original price must be greater than or equal to the offer price"
		}
	}
	if m.SpiceLevel != "" {
		if _, ok := dietary.ParseSpiceLevel(string(m.SpiceLevel)); !ok {
			fields["spice_level"] = "Unknown spice level"
		}
	}
	if len(fields) > 0 {
		return apperrors.Validation(fields)
	}
	return nil
}

func MysteryBag(b models.MysteryBag) error {
	fields := map[string]string{}
	if strings.TrimSpace(b.Title) == "" {
		fields["title"] = "This field is required"
	}
	if b.OriginalValue <= 0 {
		fields["original_value"] = "Original value must be positive"
	}
	if b.SellingPrice < 0 {
		fields["selling_price"] = "Selling price cannot be negative"
	} else if b.SellingPrice > b.OriginalValue {
		fields["selling_price"] = "Selling price cannot exceed original value"
	}
	if b.TotalQuantity < 1 {
		fields["total_quantity"] = "Total quantity must be at least 1"
	}
	if b.AvailableQuantity < 0 || b.AvailableQuantity > b.TotalQuantity {
		fields["available_quantity"] = "Available quantity must be between 0 and total quantity"
	}
	if !b.PickupStartTime.Before(b.PickupEndTime) {
		fields["pickup_end_time"] = "Pickup end time must be after pickup start time"
	}
	if len(fields) > 0 {
		return apperrors.Validation(fields)
	}
	return nil
}

func Template(t models.MysteryBagTemplate) error {
	fields := map[string]string{}
	if strings.TrimSpace(t.Name) == "" {
		fields["name"] = "This field is required"
	}
	if t.OriginalValue <= 0 {
		fields["original_value"] = "Original value must be positive"
	}
	if t.SellingPrice < 0 || t.SellingPrice > t.OriginalValue {
		fields["selling_price"] = "Selling price must be between 0 and original value"
	}
	if t.DefaultQuantity < 1 {
		fields["default_quantity"] = "Default quantity must be at least 1"
	}
	if t.DefaultPickupDurationHours < 1 || t.DefaultPickupDurationHours > 24 {
		fields["default_pickup_duration_hours"] = "Pickup duration must be between 1 and 24 hours"
	}
	if len(fields) > 0 {
		return apperrors.Validation(fields)
	}
	return nil
}
