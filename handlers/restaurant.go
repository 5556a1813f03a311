package handlers

import (
	"net/http"
	"strings"
	"time"

	"mealpedeal-api/apperrors"
	"mealpedeal-api/config"
	"mealpedeal-api/dietary"
	"mealpedeal-api/middleware"
	"mealpedeal-api/models"
	"mealpedeal-api/services"
	"mealpedeal-api/validation"

	"github.com/gin-gonic/gin"
)

// ownRestaurant loads the :id restaurant and checks the caller manages it
func ownRestaurant(c *gin.Context) (*models.Restaurant, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	r, err := services.ManagedRestaurant(config.DB, id, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return r, true
}

func saveRestaurantFields(c *gin.Context, r *models.Restaurant, update map[string]any, msg string) {
	if len(update) > 0 {
		if err := config.DB.Model(r).Updates(update).Error; err != nil {
			respondError(c, apperrors.Internal("Failed to update restaurant", err))
			return
		}
	}
	config.DB.First(r, r.ID)
	c.JSON(http.StatusOK, gin.H{"message": msg, "restaurant": viewRestaurant(*r, nil)})
}

// ── Restaurant Management ────────────────────────────────────────────────────

type CreateRestaurantRequest struct {
	Name                string   `json:"name" binding:"required,max=254"`
	Description         string   `json:"description"`
	ImageURL            string   `json:"image_url" binding:"omitempty,url"`
	Address             string   `json:"address" binding:"required"`
	Phone               string   `json:"phone" binding:"omitempty,inphone"`
	Email               string   `json:"email" binding:"omitempty,email"`
	City                string   `json:"city" binding:"max=100"`
	State               string   `json:"state" binding:"max=100"`
	Pincode             string   `json:"pincode" binding:"omitempty,pincode"`
	Country             string   `json:"country" binding:"max=100"`
	CuisineTypes        []string `json:"cuisine_types" binding:"omitempty,dive,cuisine"`
	ServesVegetarian    *bool    `json:"serves_vegetarian"`
	ServesNonVegetarian *bool    `json:"serves_non_vegetarian"`
	ServesJain          *bool    `json:"serves_jain"`
	ServesVegan         *bool    `json:"serves_vegan"`
	HalalCertified      *bool    `json:"halal_certified"`
	ServesAlcohol       *bool    `json:"serves_alcohol"`
}

// CreateRestaurant registers a restaurant run by the calling manager
func CreateRestaurant(c *gin.Context) {
	var req CreateRestaurantRequest
	if !bindJSON(c, &req) {
		return
	}
	country := req.Country
	if country == "" {
		country = "India"
	}
	restaurant := models.Restaurant{
		ManagerID:              middleware.GetUserID(c),
		Name:                   strings.TrimSpace(req.Name),
		Description:            req.Description,
		ImageURL:               req.ImageURL,
		Address:                req.Address,
		Phone:                  req.Phone,
		Email:                  req.Email,
		City:                   req.City,
		State:                  req.State,
		Pincode:                req.Pincode,
		Country:                country,
		CuisineTypes:           req.CuisineTypes,
		ServesVegetarian:       boolOr(req.ServesVegetarian, true),
		ServesNonVegetarian:    boolOr(req.ServesNonVegetarian, true),
		ServesJain:             boolOr(req.ServesJain, false),
		ServesVegan:            boolOr(req.ServesVegan, false),
		HalalCertified:         boolOr(req.HalalCertified, false),
		ServesAlcohol:          boolOr(req.ServesAlcohol, false),
		IsActive:               true,
		MysteryBagEnabled:      true,
		WhatsappNotifications:  true,
		SMSNotifications:       true,
		EmailNotifications:     true,
		MinimumPreparationTime: 15,
		PartnershipStartDate:   deps.Now(),
	}
	if err := config.DB.Create(&restaurant).Error; err != nil {
		respondError(c, apperrors.Internal("Failed to create restaurant", err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Restaurant created", "restaurant": viewRestaurant(restaurant, nil)})
}

// GetMyRestaurants lists every restaurant the caller manages, inactive ones included
func GetMyRestaurants(c *gin.Context) {
	var restaurants []models.Restaurant
	config.DB.Where("manager_id = ?", middleware.GetUserID(c)).Order("id").Find(&restaurants)
	views := make([]restaurantView, 0, len(restaurants))
	for _, r := range restaurants {
		views = append(views, viewRestaurant(r, nil))
	}
	c.JSON(http.StatusOK, gin.H{"restaurants": views, "count": len(views)})
}

type UpdateRestaurantRequest struct {
	Name                    *string  `json:"name" binding:"omitempty,min=1,max=254"`
	Description             *string  `json:"description"`
	ImageURL                *string  `json:"image_url" binding:"omitempty,url"`
	Address                 *string  `json:"address"`
	Phone                   *string  `json:"phone" binding:"omitempty,inphone"`
	Email                   *string  `json:"email" binding:"omitempty,email"`
	CuisineTypes            []string `json:"cuisine_types" binding:"omitempty,dive,cuisine"`
	ServesVegetarian        *bool    `json:"serves_vegetarian"`
	ServesNonVegetarian     *bool    `json:"serves_non_vegetarian"`
	ServesJain              *bool    `json:"serves_jain"`
	ServesVegan             *bool    `json:"serves_vegan"`
	HalalCertified          *bool    `json:"halal_certified"`
	ServesAlcohol           *bool    `json:"serves_alcohol"`
	WhatsappNotifications   *bool    `json:"whatsapp_notifications"`
	SMSNotifications        *bool    `json:"sms_notifications"`
	EmailNotifications      *bool    `json:"email_notifications"`
	MinimumPreparationTime  *int     `json:"minimum_preparation_time" binding:"omitempty,gte=5,lte=240"`
	PromotionalMessage      *string  `json:"promotional_message"`
	OrganicCertified        *bool    `json:"organic_certified"`
	LocalSourcing           *bool    `json:"local_sourcing"`
	SustainabilityPractices []string `json:"sustainability_practices"`
}

// UpdateRestaurant applies a partial update to the profile fields
func UpdateRestaurant(c *gin.Context) {
	var req UpdateRestaurantRequest
	if !bindJSON(c, &req) {
		return
	}
	restaurant, ok := ownRestaurant(c)
	if !ok {
		return
	}

	update := map[string]any{}
	strs := map[string]*string{
		"name":                req.Name,
		"description":         req.Description,
		"image_url":           req.ImageURL,
		"address":             req.Address,
		"phone":               req.Phone,
		"email":               req.Email,
		"promotional_message": req.PromotionalMessage,
	}
	for col, v := range strs {
		if v != nil {
			update[col] = *v
		}
	}
	flags := map[string]*bool{
		"serves_vegetarian":      req.ServesVegetarian,
		"serves_non_vegetarian":  req.ServesNonVegetarian,
		"serves_jain":            req.ServesJain,
		"serves_vegan":           req.ServesVegan,
		"halal_certified":        req.HalalCertified,
		"serves_alcohol":         req.ServesAlcohol,
		"whatsapp_notifications": req.WhatsappNotifications,
		"sms_notifications":      req.SMSNotifications,
		"email_notifications":    req.EmailNotifications,
		"organic_certified":      req.OrganicCertified,
		"local_sourcing":         req.LocalSourcing,
	}
	for col, v := range flags {
		if v != nil {
			update[col] = *v
		}
	}
	if req.MinimumPreparationTime != nil {
		update["minimum_preparation_time"] = *req.MinimumPreparationTime
	}
	if req.CuisineTypes != nil {
		restaurant.CuisineTypes = req.CuisineTypes
		update["cuisine_types"] = restaurant.CuisineTypes
	}
	if req.SustainabilityPractices != nil {
		restaurant.SustainabilityPractices = req.SustainabilityPractices
		update["sustainability_practices"] = restaurant.SustainabilityPractices
	}
	saveRestaurantFields(c, restaurant, update, "Restaurant updated")
}

type ComplianceRequest struct {
	GSTNumber          *string `json:"gst_number" binding:"omitempty,gstin"`
	FSSAILicense       *string `json:"fssai_license" binding:"omitempty,fssai"`
	PANNumber          *string `json:"pan_number" binding:"omitempty,pan"`
	TradeLicenseNumber *string `json:"trade_license_number" binding:"omitempty,max=50"`
}

func UpdateCompliance(c *gin.Context) {
	var req ComplianceRequest
	if !bindJSON(c, &req) {
		return
	}
	restaurant, ok := ownRestaurant(c)
	if !ok {
		return
	}
	update := map[string]any{}
	if req.GSTNumber != nil {
		update["gst_number"] = strings.ToUpper(*req.GSTNumber)
	}
	if req.FSSAILicense != nil {
		update["fssai_license"] = *req.FSSAILicense
	}
	if req.PANNumber != nil {
		update["pan_number"] = strings.ToUpper(*req.PANNumber)
	}
	if req.TradeLicenseNumber != nil {
		update["trade_license_number"] = *req.TradeLicenseNumber
	}
	saveRestaurantFields(c, restaurant, update, "Compliance details updated")
}

type RestaurantLocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Address   string   `json:"address"`
	City      string   `json:"city" binding:"required,max=100"`
	State     string   `json:"state" binding:"required,max=100"`
	Pincode   string   `json:"pincode" binding:"required,pincode"`
}

func UpdateRestaurantLocation(c *gin.Context) {
	var req RestaurantLocationRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := validation.Coordinates(*req.Latitude, *req.Longitude); err != nil {
		respondError(c, err)
		return
	}
	restaurant, ok := ownRestaurant(c)
	if !ok {
		return
	}
	update := map[string]any{
		"latitude":  *req.Latitude,
		"longitude": *req.Longitude,
		"city":      req.City,
		"state":     req.State,
		"pincode":   req.Pincode,
	}
	if req.Address != "" {
		update["address"] = req.Address
	}
	saveRestaurantFields(c, restaurant, update, "Location updated")
}

type MysteryBagConfigRequest struct {
	MysteryBagEnabled  *bool   `json:"mystery_bag_enabled"`
	PickupCounterInfo  *string `json:"pickup_counter_info"`
	PickupInstructions *string `json:"pickup_instructions"`
	AveragePickupTime  *int    `json:"average_pickup_time" binding:"omitempty,gte=1,lte=120"`
	ContactPhone       *string `json:"contact_phone" binding:"omitempty,inphone"`
}

func UpdateMysteryBagConfig(c *gin.Context) {
	var req MysteryBagConfigRequest
	if !bindJSON(c, &req) {
		return
	}
	restaurant, ok := ownRestaurant(c)
	if !ok {
		return
	}
	update := map[string]any{}
	if req.MysteryBagEnabled != nil {
		update["mystery_bag_enabled"] = *req.MysteryBagEnabled
	}
	if req.PickupCounterInfo != nil {
		update["pickup_counter_info"] = *req.PickupCounterInfo
	}
	if req.PickupInstructions != nil {
		update["pickup_instructions"] = *req.PickupInstructions
	}
	if req.AveragePickupTime != nil {
		update["average_pickup_time"] = *req.AveragePickupTime
	}
	if req.ContactPhone != nil {
		update["contact_phone"] = *req.ContactPhone
	}
	saveRestaurantFields(c, restaurant, update, "Mystery bag settings updated")
}

// SetRestaurantActive is a soft delete; restaurants are never removed
func SetRestaurantActive(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurant, ok := ownRestaurant(c)
		if !ok {
			return
		}
		msg := "Restaurant deactivated"
		if active {
			msg = "Restaurant activated"
		}
		saveRestaurantFields(c, restaurant, map[string]any{"is_active": active}, msg)
	}
}

// ── Menu Management ──────────────────────────────────────────────────────────

type MenuItemRequest struct {
	Name                   string   `json:"name" binding:"required,max=254"`
	Description            string   `json:"description"`
	Price                  *int64   `json:"price" binding:"required,gte=0"`
	ImageURL               string   `json:"image_url" binding:"omitempty,url"`
	IsVegetarian           *bool    `json:"is_vegetarian"`
	IsJain                 *bool    `json:"is_jain"`
	IsVegan                *bool    `json:"is_vegan"`
	IsHalal                *bool    `json:"is_halal"`
	ContainsDairy          *bool    `json:"contains_dairy"`
	ContainsEggs           *bool    `json:"contains_eggs"`
	ContainsNuts           *bool    `json:"contains_nuts"`
	ContainsGluten         *bool    `json:"contains_gluten"`
	ContainsAlcohol        *bool    `json:"contains_alcohol"`
	SpiceLevel             string   `json:"spice_level" binding:"omitempty,spice"`
	CuisineType            string   `json:"cuisine_type" binding:"omitempty,cuisine"`
	MealCategory           string   `json:"meal_category" binding:"omitempty,meal"`
	FoodType               string   `json:"food_type" binding:"max=20"`
	Allergens              []string `json:"allergens"`
	MainIngredients        []string `json:"main_ingredients"`
	PreparationTimeMinutes *int     `json:"preparation_time_minutes" binding:"omitempty,gte=0"`
	ServingSize            string   `json:"serving_size" binding:"max=50"`
	CaloriesPerServing     *int     `json:"calories_per_serving" binding:"omitempty,gte=0"`
	IsAvailable            *bool    `json:"is_available"`
	IsSignatureDish        *bool    `json:"is_signature_dish"`
	IsSeasonal             *bool    `json:"is_seasonal"`
	OriginalPrice          *int64   `json:"original_price" binding:"omitempty,gte=0"`
	IsOnOffer              *bool    `json:"is_on_offer"`
	OfferDescription       string   `json:"offer_description"`
	IsHealthyOption        *bool    `json:"is_healthy_option"`
	IsLowCalorie           *bool    `json:"is_low_calorie"`
	IsHighProtein          *bool    `json:"is_high_protein"`
	IsOrganic              *bool    `json:"is_organic"`
	RegionOfOrigin         string   `json:"region_of_origin" binding:"max=100"`
	CanBeInMysteryBag      *bool    `json:"can_be_in_mystery_bag"`
	MysteryBagCategory     string   `json:"mystery_bag_category" binding:"max=50"`
}

// descriptor overlays the request flags onto base
func descriptor(base dietary.Descriptor, veg, jain, vegan, halal, dairy, eggs, nuts, gluten, alcohol *bool, spice string) dietary.Descriptor {
	d := base
	d.IsVegetarian = boolOr(veg, d.IsVegetarian)
	d.IsJain = boolOr(jain, d.IsJain)
	d.IsVegan = boolOr(vegan, d.IsVegan)
	d.IsHalal = boolOr(halal, d.IsHalal)
	d.ContainsDairy = boolOr(dairy, d.ContainsDairy)
	d.ContainsEggs = boolOr(eggs, d.ContainsEggs)
	d.ContainsNuts = boolOr(nuts, d.ContainsNuts)
	d.ContainsGluten = boolOr(gluten, d.ContainsGluten)
	d.ContainsAlcohol = boolOr(alcohol, d.ContainsAlcohol)
	if lvl, ok := dietary.ParseSpiceLevel(spice); ok && lvl != "" {
		d.SpiceLevel = lvl
	}
	return d
}

// apply copies the request onto item; absent flags keep item's current values
func (req MenuItemRequest) apply(item *models.MenuItem) {
	item.Name = strings.TrimSpace(req.Name)
	item.Description = req.Description
	item.Price = *req.Price
	item.ImageURL = req.ImageURL
	item.Descriptor = descriptor(item.Descriptor, req.IsVegetarian, req.IsJain, req.IsVegan, req.IsHalal,
		req.ContainsDairy, req.ContainsEggs, req.ContainsNuts, req.ContainsGluten, req.ContainsAlcohol, req.SpiceLevel)
	item.CuisineType = req.CuisineType
	item.MealCategory = req.MealCategory
	item.FoodType = req.FoodType
	item.Allergens = req.Allergens
	item.MainIngredients = req.MainIngredients
	item.PreparationTimeMinutes = req.PreparationTimeMinutes
	item.ServingSize = req.ServingSize
	item.CaloriesPerServing = req.CaloriesPerServing
	item.IsAvailable = boolOr(req.IsAvailable, item.IsAvailable)
	item.IsSignatureDish = boolOr(req.IsSignatureDish, item.IsSignatureDish)
	item.IsSeasonal = boolOr(req.IsSeasonal, item.IsSeasonal)
	item.OriginalPrice = req.OriginalPrice
	item.IsOnOffer = boolOr(req.IsOnOffer, item.IsOnOffer)
	item.OfferDescription = req.OfferDescription
	item.IsHealthyOption = boolOr(req.IsHealthyOption, item.IsHealthyOption)
	item.IsLowCalorie = boolOr(req.IsLowCalorie, item.IsLowCalorie)
	item.IsHighProtein = boolOr(req.IsHighProtein, item.IsHighProtein)
	item.IsOrganic = boolOr(req.IsOrganic, item.IsOrganic)
	item.RegionOfOrigin = req.RegionOfOrigin
	item.CanBeInMysteryBag = boolOr(req.CanBeInMysteryBag, item.CanBeInMysteryBag)
	item.MysteryBagCategory = req.MysteryBagCategory
}

// AddMenuItem adds a new item to one of the caller's restaurants
func AddMenuItem(c *gin.Context) {
	var req MenuItemRequest
	if !bindJSON(c, &req) {
		return
	}
	restaurant, ok := ownRestaurant(c)
	if !ok {
		return
	}

	item := models.MenuItem{
		RestaurantID:      restaurant.ID,
		Descriptor:        dietary.DefaultDescriptor(),
		IsAvailable:       true,
		CanBeInMysteryBag: true,
	}
	req.apply(&item)
	if err := validation.MenuItem(item); err != nil {
		respondError(c, err)
		return
	}
	if err := config.DB.Create(&item).Error; err != nil {
		respondError(c, apperrors.Internal("Failed to add menu item", err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Menu item added", "item": viewMenuItem(item)})
}

func loadOwnMenuItem(c *gin.Context) (*models.MenuItem, bool) {
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return nil, false
	}
	var item models.MenuItem
	if err := config.DB.First(&item, itemID).Error; err != nil {
		respondError(c, apperrors.NotFound("Menu item"))
		return nil, false
	}
	if _, err := services.ManagedRestaurant(config.DB, item.RestaurantID, middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return nil, false
	}
	return &item, true
}

// UpdateMenuItem replaces a menu item's details
func UpdateMenuItem(c *gin.Context) {
	var req MenuItemRequest
	if !bindJSON(c, &req) {
		return
	}
	item, ok := loadOwnMenuItem(c)
	if !ok {
		return
	}
	req.apply(item)
	if err := validation.MenuItem(*item); err != nil {
		respondError(c, err)
		return
	}
	if err := config.DB.Save(item).Error; err != nil {
		respondError(c, apperrors.Internal("Failed to update menu item", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item updated", "item": viewMenuItem(*item)})
}

// DeleteMenuItem marks the item unavailable; order history may still point at it
func DeleteMenuItem(c *gin.Context) {
	item, ok := loadOwnMenuItem(c)
	if !ok {
		return
	}
	if err := config.DB.Model(item).Update("is_available", false).Error; err != nil {
		respondError(c, apperrors.Internal("Failed to remove menu item", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item removed"})
}

// ── Mystery Bags ─────────────────────────────────────────────────────────────

type MysteryBagRequest struct {
	Title                        string    `json:"title" binding:"required,max=254"`
	Description                  string    `json:"description"`
	ImageURL                     string    `json:"image_url" binding:"omitempty,url"`
	OriginalValue                int64     `json:"original_value" binding:"required,gt=0"`
	SellingPrice                 *int64    `json:"selling_price" binding:"required,gte=0"`
	TotalQuantity                int       `json:"total_quantity" binding:"required,gte=1"`
	AvailableQuantity            *int      `json:"available_quantity" binding:"omitempty,gte=0"`
	PickupStartTime              time.Time `json:"pickup_start_time" binding:"required"`
	PickupEndTime                time.Time `json:"pickup_end_time" binding:"required"`
	IsVegetarian                 *bool     `json:"is_vegetarian"`
	IsJain                       *bool     `json:"is_jain"`
	IsVegan                      *bool     `json:"is_vegan"`
	IsHalal                      *bool     `json:"is_halal"`
	ContainsDairy                *bool     `json:"contains_dairy"`
	ContainsEggs                 *bool     `json:"contains_eggs"`
	ContainsNuts                 *bool     `json:"contains_nuts"`
	ContainsGluten               *bool     `json:"contains_gluten"`
	ContainsAlcohol              *bool     `json:"contains_alcohol"`
	SpiceLevel                   string    `json:"spice_level" binding:"omitempty,spice"`
	MealCategory                 string    `json:"meal_category" binding:"omitempty,meal"`
	CuisineType                  string    `json:"cuisine_type" binding:"omitempty,cuisine"`
	FoodType                     string    `json:"food_type" binding:"max=20"`
	Allergens                    []string  `json:"allergens"`
	PreparationTimeMinutes       *int      `json:"preparation_time_minutes" binding:"omitempty,gte=0"`
	PickupInstructions           string    `json:"pickup_instructions"`
	EstimatedWeightGrams         *int      `json:"estimated_weight_grams" binding:"omitempty,gt=0"`
	SurpriseFactor               string    `json:"surprise_factor" binding:"omitempty,oneof=LOW MEDIUM HIGH"`
	ValueProposition             string    `json:"value_proposition"`
	IsFeatured                   *bool     `json:"is_featured"`
	EstimatedFoodWasteSavedGrams *int      `json:"estimated_food_waste_saved_grams" binding:"omitempty,gte=0"`
}

func (req MysteryBagRequest) apply(b *models.MysteryBag) {
	b.Title = strings.TrimSpace(req.Title)
	b.Description = req.Description
	b.ImageURL = req.ImageURL
	b.OriginalValue = req.OriginalValue
	b.SellingPrice = *req.SellingPrice
	b.TotalQuantity = req.TotalQuantity
	if req.AvailableQuantity != nil {
		b.AvailableQuantity = *req.AvailableQuantity
	} else if b.ID == 0 {
		b.AvailableQuantity = req.TotalQuantity
	}
	b.PickupStartTime = req.PickupStartTime
	b.PickupEndTime = req.PickupEndTime
	b.Descriptor = descriptor(b.Descriptor, req.IsVegetarian, req.IsJain, req.IsVegan, req.IsHalal,
		req.ContainsDairy, req.ContainsEggs, req.ContainsNuts, req.ContainsGluten, req.ContainsAlcohol, req.SpiceLevel)
	b.MealCategory = req.MealCategory
	b.CuisineType = req.CuisineType
	b.FoodType = req.FoodType
	b.Allergens = req.Allergens
	if req.PreparationTimeMinutes != nil {
		b.PreparationTimeMinutes = *req.PreparationTimeMinutes
	}
	b.PickupInstructions = req.PickupInstructions
	b.EstimatedWeightGrams = req.EstimatedWeightGrams
	b.SurpriseFactor = req.SurpriseFactor
	b.ValueProposition = req.ValueProposition
	b.IsFeatured = boolOr(req.IsFeatured, b.IsFeatured)
	b.EstimatedFoodWasteSavedGrams = req.EstimatedFoodWasteSavedGrams
}

// CreateMysteryBag lists a new bag for one of the caller's restaurants
func CreateMysteryBag(c *gin.Context) {
	var req MysteryBagRequest
	if !bindJSON(c, &req) {
		return
	}
	restaurantID, ok := paramID(c, "id")
	if !ok {
		return
	}
	bag := models.MysteryBag{
		RestaurantID:           restaurantID,
		Descriptor:             dietary.DefaultDescriptor(),
		PreparationTimeMinutes: 30,
		IsActive:               true,
	}
	req.apply(&bag)
	if err := services.CreateBag(config.DB, middleware.GetUserID(c), &bag); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Mystery bag created", "mystery_bag": viewBag(bag, deps.Now())})
}

// GetRestaurantBags lists all of a managed restaurant's bags whatever their status
func GetRestaurantBags(c *gin.Context) {
	restaurant, ok := ownRestaurant(c)
	if !ok {
		return
	}
	var bags []models.MysteryBag
	config.DB.Where("restaurant_id = ?", restaurant.ID).Order("pickup_start_time DESC").Find(&bags)
	c.JSON(http.StatusOK, gin.H{"mystery_bags": viewBags(bags, deps.Now()), "count": len(bags)})
}

func UpdateMysteryBag(c *gin.Context) {
	var req MysteryBagRequest
	if !bindJSON(c, &req) {
		return
	}
	bagID, ok := paramID(c, "bagId")
	if !ok {
		return
	}
	bag, err := services.UpdateBag(config.DB, middleware.GetUserID(c), bagID, req.apply)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Mystery bag updated", "mystery_bag": viewBag(*bag, deps.Now())})
}

type BagStatusRequest struct {
	Note string `json:"note" binding:"max=500"`
}

// SetBagActive returns a handler that activates or deactivates a bag on
// behalf of actor (manager or moderator).
func SetBagActive(actor string, activate bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BagStatusRequest
		if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
			return
		}
		bagID, ok := paramID(c, "bagId")
		if !ok {
			return
		}
		now := deps.Now()
		bag, err := services.SetBagActive(config.DB, bagID, middleware.GetUserID(c), actor, activate, req.Note, now)
		if err != nil {
			respondError(c, err)
			return
		}
		msg := "Mystery bag deactivated"
		if activate {
			msg = "Mystery bag activated"
		}
		c.JSON(http.StatusOK, gin.H{"message": msg, "mystery_bag": viewBag(*bag, now)})
	}
}

// GetBagHistory returns the activation audit trail of a managed bag
func GetBagHistory(c *gin.Context) {
	bagID, ok := paramID(c, "bagId")
	if !ok {
		return
	}
	var bag models.MysteryBag
	if err := config.DB.First(&bag, bagID).Error; err != nil {
		respondError(c, apperrors.NotFound("Mystery bag"))
		return
	}
	if middleware.GetRole(c) != models.RoleModerator {
		if _, err := services.ManagedRestaurant(config.DB, bag.RestaurantID, middleware.GetUserID(c)); err != nil {
			respondError(c, err)
			return
		}
	}
	var history []models.BagStatusChange
	config.DB.Where("mystery_bag_id = ?", bagID).Order("created_at, id").Find(&history)
	c.JSON(http.StatusOK, gin.H{"mystery_bag_id": bagID, "history": history, "count": len(history)})
}

// ── Templates ────────────────────────────────────────────────────────────────

type TemplateRequest struct {
	Name                         string `json:"name" binding:"required,max=254"`
	Title                        string `json:"title" binding:"max=254"`
	Description                  string `json:"description"`
	OriginalValue                int64  `json:"original_value" binding:"required,gt=0"`
	SellingPrice                 *int64 `json:"selling_price" binding:"required,gte=0"`
	DefaultQuantity              int    `json:"default_quantity" binding:"required,gte=1"`
	DefaultPickupDurationHours   int    `json:"default_pickup_duration_hours" binding:"required,gte=1,lte=24"`
	IsVegetarian                 *bool  `json:"is_vegetarian"`
	IsJain                       *bool  `json:"is_jain"`
	IsVegan                      *bool  `json:"is_vegan"`
	IsHalal                      *bool  `json:"is_halal"`
	ContainsDairy                *bool  `json:"contains_dairy"`
	ContainsEggs                 *bool  `json:"contains_eggs"`
	ContainsNuts                 *bool  `json:"contains_nuts"`
	ContainsGluten               *bool  `json:"contains_gluten"`
	ContainsAlcohol              *bool  `json:"contains_alcohol"`
	SpiceLevel                   string `json:"spice_level" binding:"omitempty,spice"`
	MealCategory                 string `json:"meal_category" binding:"omitempty,meal"`
	CuisineType                  string `json:"cuisine_type" binding:"omitempty,cuisine"`
	FoodType                     string `json:"food_type" binding:"max=20"`
	EstimatedFoodWasteSavedGrams *int   `json:"estimated_food_waste_saved_grams" binding:"omitempty,gte=0"`
}

func CreateTemplate(c *gin.Context) {
	var req TemplateRequest
	if !bindJSON(c, &req) {
		return
	}
	restaurantID, ok := paramID(c, "id")
	if !ok {
		return
	}
	t := models.MysteryBagTemplate{
		RestaurantID:               restaurantID,
		Name:                       strings.TrimSpace(req.Name),
		Title:                      strings.TrimSpace(req.Title),
		Description:                req.Description,
		OriginalValue:              req.OriginalValue,
		SellingPrice:               *req.SellingPrice,
		DefaultQuantity:            req.DefaultQuantity,
		DefaultPickupDurationHours: req.DefaultPickupDurationHours,
		Descriptor: descriptor(dietary.DefaultDescriptor(), req.IsVegetarian, req.IsJain, req.IsVegan, req.IsHalal,
			req.ContainsDairy, req.ContainsEggs, req.ContainsNuts, req.ContainsGluten, req.ContainsAlcohol, req.SpiceLevel),
		MealCategory:                 req.MealCategory,
		CuisineType:                  req.CuisineType,
		FoodType:                     req.FoodType,
		EstimatedFoodWasteSavedGrams: req.EstimatedFoodWasteSavedGrams,
	}
	if err := services.CreateTemplate(config.DB, middleware.GetUserID(c), &t); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Template created", "template": t})
}

func GetTemplates(c *gin.Context) {
	restaurant, ok := ownRestaurant(c)
	if !ok {
		return
	}
	var templates []models.MysteryBagTemplate
	config.DB.Where("restaurant_id = ?", restaurant.ID).Order("name").Find(&templates)
	c.JSON(http.StatusOK, gin.H{"templates": templates, "count": len(templates)})
}

type BagFromTemplateRequest struct {
	PickupStartTime time.Time `json:"pickup_start_time" binding:"required"`
	Quantity        int       `json:"quantity" binding:"omitempty,gte=1"`
}

// CreateBagFromTemplate issues a bag from a saved template
func CreateBagFromTemplate(c *gin.Context) {
	var req BagFromTemplateRequest
	if !bindJSON(c, &req) {
		return
	}
	templateID, ok := paramID(c, "templateId")
	if !ok {
		return
	}
	now := deps.Now()
	bag, err := services.CreateBagFromTemplate(config.DB, middleware.GetUserID(c), templateID, req.PickupStartTime, req.Quantity, now)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Mystery bag created from template", "mystery_bag": viewBag(*bag, now)})
}

// ── Reviews ──────────────────────────────────────────────────────────────────

type ReviewResponseRequest struct {
	Response string `json:"response" binding:"required,max=2000"`
}

// RespondToReview posts the restaurant's public reply under a review
func RespondToReview(c *gin.Context) {
	var req ReviewResponseRequest
	if !bindJSON(c, &req) {
		return
	}
	reviewType, reviewID, ok := reviewParams(c)
	if !ok {
		return
	}
	if err := services.RespondToReview(config.DB, reviewType, reviewID, middleware.GetUserID(c), req.Response, deps.Now()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Response posted"})
}

// reviewParams reads :type and :reviewId
func reviewParams(c *gin.Context) (models.ReviewType, uint, bool) {
	t := models.ReviewType(c.Param("type"))
	if !t.Valid() {
		respondError(c, apperrors.Invalid("type", "Review type must be restaurant or mystery_bag"))
		return "", 0, false
	}
	id, ok := paramID(c, "reviewId")
	return t, id, ok
}
