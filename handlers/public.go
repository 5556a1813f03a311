package handlers

import (
	"net/http"
	"strconv"

	"mealpedeal-api/apperrors"
	"mealpedeal-api/config"
	"mealpedeal-api/dietary"
	"mealpedeal-api/geo"
	"mealpedeal-api/models"
	"mealpedeal-api/search"
	"mealpedeal-api/services"
	"mealpedeal-api/statemachine"
	"mealpedeal-api/validation"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func resultViews(results []search.Result) []restaurantView {
	views := make([]restaurantView, 0, len(results))
	for _, r := range results {
		views = append(views, viewRestaurant(r.Restaurant, r.DistanceKm))
	}
	return views
}

// activeRestaurant loads an active restaurant by :id
func activeRestaurant(c *gin.Context, preload ...string) (*models.Restaurant, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	q := config.DB
	for _, p := range preload {
		q = q.Preload(p)
	}
	var r models.Restaurant
	if err := q.Where("is_active = ?", true).First(&r, id).Error; err != nil {
		respondError(c, apperrors.NotFound("Restaurant"))
		return nil, false
	}
	return &r, true
}

// ── Restaurants ──────────────────────────────────────────────────────────────

// ListRestaurants returns active restaurants matching the query filters
func ListRestaurants(c *gin.Context) {
	f, err := search.FilterFromQuery(c.Query)
	if err != nil {
		respondError(c, err)
		return
	}
	page, err := search.ParsePage(c.Query("offset"), c.Query("limit"), search.DefaultListLimit, search.MaxListLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	by, err := search.ParseSort(c.Query("order_by_rating"), c.Query("order_by_environmental_impact"))
	if err != nil {
		respondError(c, err)
		return
	}

	var restaurants []models.Restaurant
	if err := config.DB.Scopes(f.Scope).Find(&restaurants).Error; err != nil {
		respondError(c, apperrors.Internal("Failed to load restaurants", err))
		return
	}
	results := search.List(restaurants, f, by, page)
	c.JSON(http.StatusOK, gin.H{
		"count":       len(results),
		"offset":      page.Offset,
		"limit":       page.Limit,
		"restaurants": resultViews(results),
	})
}

// NearbyRestaurants finds active restaurants within radius_km of a point,
// nearest first unless another order is requested.
func NearbyRestaurants(c *gin.Context) {
	fields := map[string]string{}
	lat, errLat := strconv.ParseFloat(c.Query("latitude"), 64)
	if errLat != nil {
		fields["latitude"] = "Latitude is required and must be a number"
	}
	lng, errLng := strconv.ParseFloat(c.Query("longitude"), 64)
	if errLng != nil {
		fields["longitude"] = "Longitude is required and must be a number"
	}
	if len(fields) > 0 {
		respondError(c, apperrors.Validation(fields))
		return
	}
	if err := validation.Coordinates(lat, lng); err != nil {
		respondError(c, err)
		return
	}
	radius, err := search.ParseRadius(c.Query("radius_km"))
	if err != nil {
		respondError(c, err)
		return
	}
	f, err := search.FilterFromQuery(c.Query)
	if err != nil {
		respondError(c, err)
		return
	}
	page, err := search.ParsePage(c.Query("offset"), c.Query("limit"), search.DefaultNearbyLimit, search.MaxNearbyLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	by, err := search.ParseSort(c.Query("order_by_rating"), c.Query("order_by_environmental_impact"))
	if err != nil {
		respondError(c, err)
		return
	}

	var candidates []models.Restaurant
	box := geo.BoundingBox(lat, lng, radius)
	if err := config.DB.Scopes(f.Scope, search.BoxScope(box)).Find(&candidates).Error; err != nil {
		respondError(c, apperrors.Internal("Failed to load restaurants", err))
		return
	}
	results := search.Nearby(candidates, lat, lng, radius, f, by, page)
	c.JSON(http.StatusOK, gin.H{
		"count":       len(results),
		"radius_km":   radius,
		"restaurants": resultViews(results),
	})
}

// GetRestaurant returns a single active restaurant with its available menu
func GetRestaurant(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var restaurant models.Restaurant
	err := config.DB.Preload("MenuItems", func(db *gorm.DB) *gorm.DB {
		return db.Where("is_available = ?", true).Order("name")
	}).Where("is_active = ?", true).First(&restaurant, id).Error
	if err != nil {
		respondError(c, apperrors.NotFound("Restaurant"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": viewRestaurant(restaurant, nil)})
}

func GetRestaurantImpact(c *gin.Context) {
	r, ok := activeRestaurant(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"restaurant_id":               r.ID,
		"total_mystery_bags_sold":     r.TotalMysteryBagsSold,
		"average_discount_percentage": r.AverageDiscountPercentage,
		"environmental_impact":        r.EnvironmentalImpact(),
	})
}

func GetRestaurantCompliance(c *gin.Context) {
	r, ok := activeRestaurant(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"restaurant_id":     r.ID,
		"is_verified":       r.IsVerified,
		"verification_date": r.VerificationDate,
		"compliance_status": r.ComplianceStatus(),
	})
}

func GetRestaurantDietaryOptions(c *gin.Context) {
	r, ok := activeRestaurant(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"restaurant_id":   r.ID,
		"dietary_options": r.DietaryOptions(),
		"cuisine_types":   r.CuisineTypes,
		"serves_alcohol":  r.ServesAlcohol,
	})
}

// TopPerformers ranks restaurants by ?metric= within an optional city
func TopPerformers(c *gin.Context) {
	metric := search.Metric(c.DefaultQuery("metric", string(search.MetricBagsSold)))
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, apperrors.Invalid("limit", "Limit must be a number"))
			return
		}
		limit = n
	}
	restaurants, err := search.TopPerformers(config.DB, metric, c.Query("city"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]restaurantView, 0, len(restaurants))
	for _, r := range restaurants {
		views = append(views, viewRestaurant(r, nil))
	}
	c.JSON(http.StatusOK, gin.H{"metric": metric, "restaurants": views, "count": len(views)})
}

func CuisineDistribution(c *gin.Context) {
	var restaurants []models.Restaurant
	q := config.DB.Select("id", "cuisine_types", "is_active").Where("is_active = ?", true)
	if city := c.Query("city"); city != "" {
		q = q.Where("LOWER(city) = LOWER(?)", city)
	}
	if err := q.Find(&restaurants).Error; err != nil {
		respondError(c, apperrors.Internal("Failed to load restaurants", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_restaurants": len(restaurants),
		"cuisines":          search.CuisineDistribution(restaurants),
	})
}

// ── Menu ─────────────────────────────────────────────────────────────────────

// GetMenu returns the menu for a restaurant, filtered by dietary flags,
// ?category= and ?available_only= (default true)
func GetMenu(c *gin.Context) {
	r, ok := activeRestaurant(c)
	if !ok {
		return
	}
	f, bad := dietary.FilterFromQuery(c.Query)
	if len(bad) > 0 {
		fields := map[string]string{}
		for _, name := range bad {
			fields[name] = "Invalid filter value"
		}
		respondError(c, apperrors.Validation(fields))
		return
	}
	availableOnly, given, err := dietary.ParseTriState(c.Query("available_only"))
	if err != nil {
		respondError(c, apperrors.Invalid("available_only", "Must be true or false"))
		return
	}

	query := config.DB.Where("restaurant_id = ?", r.ID)
	if !given || availableOnly {
		query = query.Where("is_available = ?", true)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("meal_category = ?", category)
	}
	var items []models.MenuItem
	query.Order("name").Find(&items)

	menu := make([]menuItemView, 0, len(items))
	for _, item := range items {
		if f.Matches(item.Descriptor) {
			menu = append(menu, viewMenuItem(item))
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"restaurant": r.Name,
		"count":      len(menu),
		"menu":       menu,
	})
}

// ── Mystery Bags ─────────────────────────────────────────────────────────────

// ListMysteryBags lists bags of active restaurants. available_only defaults
// to true and keeps only bags purchasable right now.
func ListMysteryBags(c *gin.Context) {
	f, bad := dietary.FilterFromQuery(c.Query)
	if len(bad) > 0 {
		fields := map[string]string{}
		for _, name := range bad {
			fields[name] = "Invalid filter value"
		}
		respondError(c, apperrors.Validation(fields))
		return
	}
	availableOnly, given, err := dietary.ParseTriState(c.Query("available_only"))
	if err != nil {
		respondError(c, apperrors.Invalid("available_only", "Must be true or false"))
		return
	}
	page, err := search.ParsePage(c.Query("offset"), c.Query("limit"), search.DefaultNearbyLimit, search.MaxListLimit)
	if err != nil {
		respondError(c, err)
		return
	}

	query := config.DB.Preload("Restaurant").Select("mystery_bags.*").
		Joins("JOIN restaurants ON restaurants.id = mystery_bags.restaurant_id AND restaurants.is_active = ?", true)
	if rid := c.Query("restaurant_id"); rid != "" {
		id, err := strconv.ParseUint(rid, 10, 64)
		if err != nil {
			respondError(c, apperrors.Invalid("restaurant_id", "Must be a positive integer"))
			return
		}
		query = query.Where("mystery_bags.restaurant_id = ?", id)
	}
	if city := c.Query("city"); city != "" {
		query = query.Where("LOWER(restaurants.city) = LOWER(?)", city)
	}
	var bags []models.MysteryBag
	if err := query.Order("mystery_bags.pickup_end_time, mystery_bags.id").Find(&bags).Error; err != nil {
		respondError(c, apperrors.Internal("Failed to load mystery bags", err))
		return
	}

	now := deps.Now()
	matched := make([]models.MysteryBag, 0, len(bags))
	for _, b := range bags {
		if (!given || availableOnly) && !statemachine.IsAvailable(b, now) {
			continue
		}
		if f.Matches(b.Descriptor) {
			matched = append(matched, b)
		}
	}
	total := len(matched)
	if page.Offset >= total {
		matched = matched[:0]
	} else {
		end := min(page.Offset+page.Limit, total)
		matched = matched[page.Offset:end]
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "count": len(matched), "mystery_bags": viewBags(matched, now)})
}

func GetMysteryBag(c *gin.Context) {
	id, ok := paramID(c, "bagId")
	if !ok {
		return
	}
	var bag models.MysteryBag
	if err := config.DB.Preload("Restaurant").First(&bag, id).Error; err != nil {
		respondError(c, apperrors.NotFound("Mystery bag"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"mystery_bag": viewBag(bag, deps.Now())})
}

// GetBagLifecycleInfo documents the derived statuses and who may flip activation
func GetBagLifecycleInfo(c *gin.Context) {
	transitions := make([]gin.H, 0)
	for _, t := range statemachine.GetAllTransitions() {
		action := "deactivate"
		if t.Activate {
			action = "activate"
		}
		transitions = append(transitions, gin.H{"action": action, "actor": t.Actor})
	}
	c.JSON(http.StatusOK, gin.H{
		"statuses": []models.BagStatus{
			models.BagUpcoming, models.BagActive, models.BagSoldOut, models.BagExpired, models.BagDeactivated,
		},
		"precedence":  "DEACTIVATED > EXPIRED > SOLD_OUT > UPCOMING > ACTIVE",
		"transitions": transitions,
		"description": "Mystery bag status is derived from is_active, stock and the pickup window",
	})
}

// ── Reviews ──────────────────────────────────────────────────────────────────

func GetRestaurantReviews(c *gin.Context) {
	r, ok := activeRestaurant(c)
	if !ok {
		return
	}
	page, err := search.ParsePage(c.Query("offset"), c.Query("limit"), search.DefaultNearbyLimit, search.MaxNearbyLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	var reviews []models.RestaurantReview
	config.DB.Where("restaurant_id = ? AND is_approved = ?", r.ID, true).
		Order("created_at DESC, id DESC").Offset(page.Offset).Limit(page.Limit).Find(&reviews)
	c.JSON(http.StatusOK, gin.H{"reviews": reviews, "count": len(reviews)})
}

func GetRestaurantReviewSummary(c *gin.Context) {
	r, ok := activeRestaurant(c)
	if !ok {
		return
	}
	summary, err := services.RestaurantReviewSummary(config.DB, r.ID, deps.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func GetBagReviews(c *gin.Context) {
	id, ok := paramID(c, "bagId")
	if !ok {
		return
	}
	page, err := search.ParsePage(c.Query("offset"), c.Query("limit"), search.DefaultNearbyLimit, search.MaxNearbyLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	var reviews []models.MysteryBagReview
	config.DB.Where("mystery_bag_id = ? AND is_approved = ?", id, true).
		Order("created_at DESC, id DESC").Offset(page.Offset).Limit(page.Limit).Find(&reviews)
	c.JSON(http.StatusOK, gin.H{"reviews": reviews, "count": len(reviews)})
}

func GetBagReviewSummary(c *gin.Context) {
	id, ok := paramID(c, "bagId")
	if !ok {
		return
	}
	summary, err := services.BagReviewSummary(config.DB, id, deps.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
