package handlers

import (
	"net/http"

	"mealpedeal-api/apperrors"
	"mealpedeal-api/config"
	"mealpedeal-api/dietary"
	"mealpedeal-api/impact"
	"mealpedeal-api/middleware"
	"mealpedeal-api/models"
	"mealpedeal-api/money"
	"mealpedeal-api/services"

	"github.com/gin-gonic/gin"
)

// AdminSalesSummary aggregates purchases platform-wide, optionally per restaurant
func AdminSalesSummary(c *gin.Context) {
	query := config.DB.Model(&models.BagSale{})
	if restaurantID := c.Query("restaurant_id"); restaurantID != "" {
		query = query.Where("restaurant_id = ?", restaurantID)
	}
	var agg struct {
		Sales        int64
		Bags         int64
		RevenuePaise int64
		SavingsPaise int64
		WasteKg      float64
	}
	if err := query.Select(
		"COUNT(*) AS sales, COALESCE(SUM(quantity),0) AS bags, COALESCE(SUM(total_price),0) AS revenue_paise, " +
			"COALESCE(SUM(savings_paise),0) AS savings_paise, COALESCE(SUM(food_waste_saved_kg),0) AS waste_kg",
	).Scan(&agg).Error; err != nil {
		respondError(c, apperrors.Internal("Failed to aggregate sales", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_sales":          agg.Sales,
		"total_bags_sold":      agg.Bags,
		"total_revenue_inr":    money.ToMajorUnits(agg.RevenuePaise),
		"customer_savings_inr": money.ToMajorUnits(agg.SavingsPaise),
		"environmental_impact": impact.Project(int(agg.Bags), agg.WasteKg),
	})
}

// ── Users ────────────────────────────────────────────────────────────────────

// AdminGetAllUsers returns users, filtered by ?role= and ?is_active=
func AdminGetAllUsers(c *gin.Context) {
	var users []models.User
	query := config.DB
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	active, given, err := dietary.ParseTriState(c.Query("is_active"))
	if err != nil {
		respondError(c, apperrors.Invalid("is_active", "Must be true or false"))
		return
	}
	if given {
		query = query.Where("is_active = ?", active)
	}
	query.Order("id").Find(&users)
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

type CreateModeratorRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required,max=254"`
	LastName  string `json:"last_name" binding:"max=254"`
	Phone     string `json:"phone" binding:"omitempty,inphone"`
}

// AdminCreateModerator is the only way to obtain the moderator role
func AdminCreateModerator(c *gin.Context) {
	var req CreateModeratorRequest
	if !bindJSON(c, &req) {
		return
	}
	user, profile, ok := createAccount(c, RegisterRequest{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	}, models.RoleModerator)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Moderator created", "user": userSummary(*user), "profile": profile})
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func AdminSetUserActive(c *gin.Context) {
	var req SetActiveRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if userID == middleware.GetUserID(c) && !*req.IsActive {
		respondError(c, apperrors.Conflict("SELF_DEACTIVATION", "You cannot deactivate your own account"))
		return
	}
	res := config.DB.Model(&models.User{}).Where("id = ?", userID).Update("is_active", *req.IsActive)
	if res.Error != nil {
		respondError(c, apperrors.Internal("Failed to update user", res.Error))
		return
	}
	if res.RowsAffected == 0 {
		respondError(c, apperrors.NotFound("User"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User updated", "user_id": userID, "is_active": *req.IsActive})
}

// ── Restaurants ──────────────────────────────────────────────────────────────

// AdminGetAllRestaurants returns every restaurant, inactive and unverified included
func AdminGetAllRestaurants(c *gin.Context) {
	query := config.DB
	verified, given, err := dietary.ParseTriState(c.Query("is_verified"))
	if err != nil {
		respondError(c, apperrors.Invalid("is_verified", "Must be true or false"))
		return
	}
	if given {
		query = query.Where("is_verified = ?", verified)
	}
	var restaurants []models.Restaurant
	query.Order("id").Find(&restaurants)
	views := make([]restaurantView, 0, len(restaurants))
	for _, r := range restaurants {
		views = append(views, viewRestaurant(r, nil))
	}
	c.JSON(http.StatusOK, gin.H{"count": len(views), "restaurants": views})
}

func adminRestaurant(c *gin.Context) (*models.Restaurant, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	var r models.Restaurant
	if err := config.DB.First(&r, id).Error; err != nil {
		respondError(c, apperrors.NotFound("Restaurant"))
		return nil, false
	}
	return &r, true
}

// AdminSetRestaurantVerified stamps or clears verification_date with the flag
func AdminSetRestaurantVerified(verified bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, ok := adminRestaurant(c)
		if !ok {
			return
		}
		update := map[string]any{"is_verified": verified, "verification_date": nil}
		msg := "Restaurant verification removed"
		if verified {
			update["verification_date"] = deps.Now()
			msg = "Restaurant verified"
		}
		if err := config.DB.Model(r).Updates(update).Error; err != nil {
			respondError(c, apperrors.Internal("Failed to update restaurant", err))
			return
		}
		if verified {
			notifyUser(c.Request.Context(), r.ManagerID, "Restaurant verified", r.Name+" is now verified on MealPeDeal.")
		}
		config.DB.First(r, r.ID)
		c.JSON(http.StatusOK, gin.H{"message": msg, "restaurant": viewRestaurant(*r, nil)})
	}
}

func AdminSetRestaurantActive(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, ok := adminRestaurant(c)
		if !ok {
			return
		}
		if err := config.DB.Model(r).Update("is_active", active).Error; err != nil {
			respondError(c, apperrors.Internal("Failed to update restaurant", err))
			return
		}
		msg := "Restaurant deactivated"
		if active {
			msg = "Restaurant activated"
		}
		c.JSON(http.StatusOK, gin.H{"message": msg, "restaurant_id": r.ID, "is_active": active})
	}
}

// ── Review moderation ────────────────────────────────────────────────────────

// AdminListFlags returns review flags, open ones only unless ?all=true
func AdminListFlags(c *gin.Context) {
	all, _, err := dietary.ParseTriState(c.Query("all"))
	if err != nil {
		respondError(c, apperrors.Invalid("all", "Must be true or false"))
		return
	}
	query := config.DB
	if !all {
		query = query.Where("is_reviewed = ?", false)
	}
	if t := c.Query("review_type"); t != "" {
		query = query.Where("review_type = ?", t)
	}
	var flags []models.ReviewFlag
	query.Order("created_at, id").Find(&flags)
	c.JSON(http.StatusOK, gin.H{"count": len(flags), "flags": flags})
}

type ModerateRequest struct {
	Action services.ModerationAction `json:"action" binding:"required,oneof=approve hide flag unflag"`
	Notes  string                    `json:"notes" binding:"max=1000"`
}

func AdminModerateReview(c *gin.Context) {
	var req ModerateRequest
	if !bindJSON(c, &req) {
		return
	}
	reviewType, reviewID, ok := reviewParams(c)
	if !ok {
		return
	}
	if err := services.Moderate(config.DB, reviewType, reviewID, req.Action, req.Notes, deps.Now()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review moderated", "action": req.Action})
}
