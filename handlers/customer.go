package handlers

import (
	"fmt"
	"net/http"

	"mealpedeal-api/apperrors"
	"mealpedeal-api/config"
	"mealpedeal-api/impact"
	"mealpedeal-api/middleware"
	"mealpedeal-api/models"
	"mealpedeal-api/money"
	"mealpedeal-api/search"
	"mealpedeal-api/services"

	"github.com/gin-gonic/gin"
)

// ── Purchases ────────────────────────────────────────────────────────────────

type PurchaseRequest struct {
	Quantity int    `json:"quantity" binding:"required,gte=1,lte=20"`
	OrderRef string `json:"order_ref" binding:"max=64"`
}

// PurchaseBag reserves bags for the customer and sends a receipt
func PurchaseBag(c *gin.Context) {
	var req PurchaseRequest
	if !bindJSON(c, &req) {
		return
	}
	bagID, ok := paramID(c, "bagId")
	if !ok {
		return
	}
	customerID := middleware.GetUserID(c)

	sale, err := services.PurchaseBag(config.DB, services.PurchaseInput{
		BagID:      bagID,
		CustomerID: customerID,
		Quantity:   req.Quantity,
		OrderRef:   req.OrderRef,
	}, deps.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	notifyUser(c.Request.Context(), customerID, "Your MealPeDeal order",
		fmt.Sprintf("You reserved %d mystery bag(s) for %s and saved %s.",
			sale.Quantity, money.FormatINR(sale.TotalPrice), money.FormatINR(sale.SavingsPaise)))

	c.JSON(http.StatusCreated, gin.H{
		"message":       "Mystery bag reserved",
		"sale":          sale,
		"total_inr":     money.ToMajorUnits(sale.TotalPrice),
		"savings_inr":   money.ToMajorUnits(sale.SavingsPaise),
		"co2_saved_kg":  impact.CO2Saved(sale.FoodWasteSavedKg),
		"food_saved_kg": sale.FoodWasteSavedKg,
	})
}

// GetMyPurchases lists the customer's purchases, newest first
func GetMyPurchases(c *gin.Context) {
	page, err := search.ParsePage(c.Query("offset"), c.Query("limit"), search.DefaultNearbyLimit, search.MaxListLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	var sales []models.BagSale
	config.DB.Where("customer_id = ?", middleware.GetUserID(c)).
		Order("purchased_at DESC, id DESC").Offset(page.Offset).Limit(page.Limit).Find(&sales)
	c.JSON(http.StatusOK, gin.H{"purchases": sales, "count": len(sales)})
}

// ── Reviews ──────────────────────────────────────────────────────────────────

// CreateRestaurantReview reviews the restaurant behind one of the caller's purchases
func CreateRestaurantReview(c *gin.Context) {
	var review models.RestaurantReview
	if !bindJSON(c, &review) {
		return
	}
	if review.SaleID == 0 {
		respondError(c, apperrors.Invalid("sale_id", "This field is required"))
		return
	}
	if err := services.CreateRestaurantReview(config.DB, middleware.GetUserID(c), &review); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Review submitted", "review": review})
}

// CreateBagReview reviews a purchased mystery bag
func CreateBagReview(c *gin.Context) {
	var review models.MysteryBagReview
	if !bindJSON(c, &review) {
		return
	}
	if review.SaleID == 0 {
		respondError(c, apperrors.Invalid("sale_id", "This field is required"))
		return
	}
	if err := services.CreateBagReview(config.DB, middleware.GetUserID(c), &review); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Review submitted", "review": review})
}

type VoteRequest struct {
	Helpful *bool `json:"helpful" binding:"required"`
}

func VoteReview(c *gin.Context) {
	var req VoteRequest
	if !bindJSON(c, &req) {
		return
	}
	reviewType, reviewID, ok := reviewParams(c)
	if !ok {
		return
	}
	result, err := services.VoteHelpful(config.DB, reviewType, reviewID, middleware.GetUserID(c), *req.Helpful)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Vote recorded", "votes": result})
}

type FlagRequest struct {
	Reason      models.FlagReason `json:"reason" binding:"required,oneof=inappropriate spam fake offensive irrelevant other"`
	Description string            `json:"description" binding:"max=1000"`
}

func FlagReview(c *gin.Context) {
	var req FlagRequest
	if !bindJSON(c, &req) {
		return
	}
	reviewType, reviewID, ok := reviewParams(c)
	if !ok {
		return
	}
	flag, err := services.FlagReview(config.DB, reviewType, reviewID, middleware.GetUserID(c), req.Reason, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Review flagged for moderation", "flag": flag})
}
