package services

import (
	"time"

	"mealpedeal-api/apperrors"
	"mealpedeal-api/models"
	"mealpedeal-api/statemachine"
	"mealpedeal-api/validation"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ManagedRestaurant loads a restaurant and checks that managerID runs it
func ManagedRestaurant(db *gorm.DB, restaurantID, managerID uint) (*models.Restaurant, error) {
	var r models.Restaurant
	if err := db.First(&r, restaurantID).Error; err != nil {
		return nil, lookupErr(err, "Restaurant")
	}
	if r.ManagerID != managerID {
		return nil, apperrors.Forbidden("You do not manage this restaurant")
	}
	return &r, nil
}

// CreateBag validates a new bag and stores it with its discount filled in
func CreateBag(db *gorm.DB, managerID uint, bag *models.MysteryBag) error {
	if _, err := ManagedRestaurant(db, bag.RestaurantID, managerID); err != nil {
		return err
	}
	if err := validation.MysteryBag(*bag); err != nil {
		return err
	}
	bag.RefreshDiscount()
	if err := db.Create(bag).Error; err != nil {
		return apperrors.Internal("Failed to create mystery bag", err)
	}
	return nil
}

// UpdateBag applies changes through mutate and re-checks every invariant before saving
func UpdateBag(db *gorm.DB, managerID, bagID uint, mutate func(b *models.MysteryBag)) (*models.MysteryBag, error) {
	var bag models.MysteryBag
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&bag, bagID).Error; err != nil {
			return lookupErr(err, "Mystery bag")
		}
		if _, err := ManagedRestaurant(tx, bag.RestaurantID, managerID); err != nil {
			return err
		}
		restaurantID, stock := bag.RestaurantID, bag.AvailableQuantity
		mutate(&bag)
		bag.ID, bag.RestaurantID = bagID, restaurantID
		if err := validation.MysteryBag(bag); err != nil {
			return err
		}
		bag.RefreshDiscount()
		omit := []string{"Restaurant"}
		// stock belongs to purchases unless the manager restocks explicitly
		if bag.AvailableQuantity == stock {
			omit = append(omit, "available_quantity")
		}
		if err := tx.Omit(omit...).Save(&bag).Error; err != nil {
			return writeErr(err, "mystery bag")
		}
		if err := tx.First(&bag, bagID).Error; err != nil {
			return lookupErr(err, "Mystery bag")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &bag, nil
}

// SetBagActive flips is_active after checking the actor may do so, and
// appends the change to the bag's audit trail.
func SetBagActive(db *gorm.DB, bagID, actorID uint, actor string, activate bool, note string, now time.Time) (*models.MysteryBag, error) {
	var bag models.MysteryBag
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&bag, bagID).Error; err != nil {
			return lookupErr(err, "Mystery bag")
		}
		if actor == statemachine.ActorManager {
			if _, err := ManagedRestaurant(tx, bag.RestaurantID, actorID); err != nil {
				return err
			}
		}
		if err := statemachine.CanSetActive(bag, activate, actor, now); err != nil {
			return err
		}

		from := statemachine.Status(bag, now)
		if err := tx.Model(&bag).Update("is_active", activate).Error; err != nil {
			return apperrors.Internal("Failed to update mystery bag", err)
		}
		bag.IsActive = activate

		change := models.BagStatusChange{
			MysteryBagID: bag.ID,
			FromStatus:   from,
			ToStatus:     statemachine.Status(bag, now),
			ChangedByID:  actorID,
			Actor:        actor,
			Note:         note,
		}
		return writeErr(tx.Create(&change).Error, "status history")
	})
	if err != nil {
		return nil, err
	}
	return &bag, nil
}

func CreateTemplate(db *gorm.DB, managerID uint, t *models.MysteryBagTemplate) error {
	if _, err := ManagedRestaurant(db, t.RestaurantID, managerID); err != nil {
		return err
	}
	if err := validation.Template(*t); err != nil {
		return err
	}
	if t.Title == "" {
		t.Title = t.Name
	}
	t.IsActive = true
	if err := db.Create(t).Error; err != nil {
		return apperrors.Internal("Failed to create template", err)
	}
	return nil
}

// CreateBagFromTemplate issues a bag whose pickup window opens at start and
// lasts the template's default duration. quantity <= 0 uses the template default.
func CreateBagFromTemplate(db *gorm.DB, managerID, templateID uint, start time.Time, quantity int, now time.Time) (*models.MysteryBag, error) {
	var bag models.MysteryBag
	err := db.Transaction(func(tx *gorm.DB) error {
		var t models.MysteryBagTemplate
		if err := tx.First(&t, templateID).Error; err != nil {
			return lookupErr(err, "Template")
		}
		if _, err := ManagedRestaurant(tx, t.RestaurantID, managerID); err != nil {
			return err
		}
		if !t.IsActive {
			return apperrors.Conflict("TEMPLATE_INACTIVE", "Template is not active")
		}
		if quantity <= 0 {
			quantity = t.DefaultQuantity
		}
		tid := t.ID
		bag = models.MysteryBag{
			RestaurantID:                 t.RestaurantID,
			TemplateID:                   &tid,
			Title:                        t.Title,
			Description:                  t.Description,
			OriginalValue:                t.OriginalValue,
			SellingPrice:                 t.SellingPrice,
			TotalQuantity:                quantity,
			AvailableQuantity:            quantity,
			PickupStartTime:              start,
			PickupEndTime:                start.Add(time.Duration(t.DefaultPickupDurationHours) * time.Hour),
			Descriptor:                   t.Descriptor,
			MealCategory:                 t.MealCategory,
			CuisineType:                  t.CuisineType,
			FoodType:                     t.FoodType,
			EstimatedFoodWasteSavedGrams: t.EstimatedFoodWasteSavedGrams,
			IsActive:                     true,
		}
		if err := validation.MysteryBag(bag); err != nil {
			return err
		}
		bag.RefreshDiscount()
		if err := tx.Create(&bag).Error; err != nil {
			return apperrors.Internal("Failed to create mystery bag", err)
		}
		return writeErr(tx.Model(&t).Updates(map[string]any{
			"times_used":   gorm.Expr("times_used + 1"),
			"last_used_at": now,
		}).Error, "template")
	})
	if err != nil {
		return nil, err
	}
	return &bag, nil
}
