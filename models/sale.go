package models

import "time"

// BagSale records one completed purchase of a mystery bag.
// Order and payment processing live elsewhere; OrderRef is their opaque id.
type BagSale struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	MysteryBagID     uint       `json:"mystery_bag_id" gorm:"not null;index"`
	MysteryBag       MysteryBag `json:"-" gorm:"foreignKey:MysteryBagID"`
	RestaurantID     uint       `json:"restaurant_id" gorm:"not null;index"`
	CustomerID       uint       `json:"customer_id" gorm:"not null;index"`
	Quantity         int        `json:"quantity" gorm:"not null"`
	UnitPrice        int64      `json:"unit_price" gorm:"not null"`
	TotalPrice       int64      `json:"total_price" gorm:"not null"`
	SavingsPaise     int64      `json:"savings_paise" gorm:"not null"`
	FoodWasteSavedKg float64    `json:"food_waste_saved_kg" gorm:"not null"`
	OrderRef         string     `json:"order_ref" gorm:"size:64"`
	PurchasedAt      time.Time  `json:"purchased_at" gorm:"not null"`
	CreatedAt        time.Time  `json:"created_at"`
}
