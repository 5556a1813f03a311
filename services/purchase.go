package services

import (
	"time"

	"mealpedeal-api/apperrors"
	"mealpedeal-api/impact"
	"mealpedeal-api/logger"
	"mealpedeal-api/models"
	"mealpedeal-api/statemachine"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PurchaseInput struct {
	BagID      uint
	CustomerID uint
	Quantity   int
	OrderRef   string
}

// PurchaseBag sells Quantity units of a bag. Stock is taken with a
// conditional decrement so concurrent buyers can never drive it below zero;
// the sale row and every impact counter are written in the same transaction.
func PurchaseBag(db *gorm.DB, in PurchaseInput, now time.Time) (*models.BagSale, error) {
	if in.Quantity < 1 {
		return nil, apperrors.Invalid("quantity", "Quantity must be at least 1")
	}

	var sale models.BagSale
	err := db.Transaction(func(tx *gorm.DB) error {
		var bag models.MysteryBag
		if err := tx.First(&bag, in.BagID).Error; err != nil {
			return lookupErr(err, "Mystery bag")
		}
		if err := statemachine.CanPurchase(bag, in.Quantity, now); err != nil {
			return err
		}

		res := tx.Model(&models.MysteryBag{}).
			Where("id = ? AND is_active = ? AND available_quantity >= ?", bag.ID, true, in.Quantity).
			Update("available_quantity", gorm.Expr("available_quantity - ?", in.Quantity))
		if res.Error != nil {
			return apperrors.Internal("Failed to reserve mystery bag", res.Error)
		}
		if res.RowsAffected == 0 {
			// lost a race: re-read to report the precise reason
			if err := tx.First(&bag, in.BagID).Error; err != nil {
				return lookupErr(err, "Mystery bag")
			}
			if err := statemachine.CanPurchase(bag, in.Quantity, now); err != nil {
				return err
			}
			return apperrors.ErrInsufficientInventory
		}

		var wasteKg float64
		if bag.EstimatedFoodWasteSavedGrams != nil {
			wasteKg = impact.GramsToKg(*bag.EstimatedFoodWasteSavedGrams * in.Quantity)
		}
		savings := bag.SavingsPaise() * int64(in.Quantity)

		sale = models.BagSale{
			MysteryBagID:     bag.ID,
			RestaurantID:     bag.RestaurantID,
			CustomerID:       in.CustomerID,
			Quantity:         in.Quantity,
			UnitPrice:        bag.SellingPrice,
			TotalPrice:       bag.SellingPrice * int64(in.Quantity),
			SavingsPaise:     savings,
			FoodWasteSavedKg: wasteKg,
			OrderRef:         in.OrderRef,
			PurchasedAt:      now,
		}
		if err := tx.Create(&sale).Error; err != nil {
			return apperrors.Internal("Failed to record sale", err)
		}

		res = tx.Model(&models.Restaurant{}).Where("id = ?", bag.RestaurantID).Updates(map[string]any{
			"total_mystery_bags_sold":   gorm.Expr("total_mystery_bags_sold + ?", in.Quantity),
			"total_food_waste_saved_kg": gorm.Expr("total_food_waste_saved_kg + ?", wasteKg),
		})
		if res.Error != nil {
			return apperrors.Internal("Failed to update restaurant impact", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("Restaurant")
		}

		res = tx.Model(&models.UserProfile{}).Where("user_id = ?", in.CustomerID).Updates(map[string]any{
			"total_meals_saved":         gorm.Expr("total_meals_saved + ?", in.Quantity),
			"total_money_saved_paise":   gorm.Expr("total_money_saved_paise + ?", savings),
			"total_food_waste_saved_kg": gorm.Expr("total_food_waste_saved_kg + ?", wasteKg),
			"last_order_date":           now,
		})
		if res.Error != nil {
			return apperrors.Internal("Failed to update customer impact", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("Customer profile")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("mystery bag sold",
		zap.Uint("bag_id", sale.MysteryBagID),
		zap.Uint("customer_id", sale.CustomerID),
		zap.Int("quantity", sale.Quantity),
	)
	return &sale, nil
}
