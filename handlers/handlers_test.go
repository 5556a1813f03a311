package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"mealpedeal-api/config"
	"mealpedeal-api/handlers"
	"mealpedeal-api/middleware"
	"mealpedeal-api/models"
	"mealpedeal-api/notify"
	"mealpedeal-api/otpstore"
	"mealpedeal-api/routes"
	"mealpedeal-api/services"
	"mealpedeal-api/validation"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Register()
}

type recorder struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (r *recorder) Send(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recorder) last() notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return notify.Message{}
	}
	return r.msgs[len(r.msgs)-1]
}

type env struct {
	t      *testing.T
	router *gin.Engine
	sent   *recorder
}

func setup(t *testing.T) *env {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := config.OpenDB("sqlite", "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	config.DB = db

	sent := &recorder{}
	handlers.Configure(handlers.Dependencies{
		Notifier: sent,
		OTP:      &services.OTP{Store: otpstore.NewMemoryStore(time.Minute), Notifier: sent, TTL: 5 * time.Minute},
		Now:      func() time.Time { return now },
	})

	r := gin.New()
	routes.SetupRoutes(r)
	return &env{t: t, router: r, sent: sent}
}

type response struct {
	Code int
	Body map[string]any
}

func (e *env) do(method, path, token string, body any) response {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	out := response{Code: w.Code, Body: map[string]any{}}
	_ = json.Unmarshal(w.Body.Bytes(), &out.Body)
	return out
}

func (e *env) register(email string, role models.UserRole, extra map[string]any) (string, map[string]any) {
	e.t.Helper()
	body := map[string]any{
		"email": email, "password": "s3cret-pass", "role": role, "first_name": "Asha",
	}
	for k, v := range extra {
		body[k] = v
	}
	res := e.do(http.MethodPost, "/api/auth/register", "", body)
	require.Equal(e.t, http.StatusCreated, res.Code, res.Body)
	return res.Body["token"].(string), res.Body
}

func (e *env) moderatorToken() string {
	e.t.Helper()
	u := &models.User{Email: "mod@mealpedeal.in", PasswordHash: "x", Role: models.RoleModerator, IsActive: true, PreferredLanguage: "en"}
	require.NoError(e.t, services.RegisterUser(config.DB, u, &models.UserProfile{FirstName: "Mod"}, ""))
	token, err := middleware.GenerateToken(u)
	require.NoError(e.t, err)
	return token
}

func id(v any) string {
	return fmt.Sprintf("%.0f", v.(float64))
}

func obj(v any) map[string]any {
	return v.(map[string]any)
}

// restaurantWithBag creates a manager, a restaurant and a bag of qty units on sale now
func (e *env) restaurantWithBag(qty int) (managerToken, restaurantID, bagID string) {
	e.t.Helper()
	managerToken, _ = e.register("manager@annapurna.in", models.RoleRestaurantManager, nil)
	res := e.do(http.MethodPost, "/api/manager/restaurants", managerToken, map[string]any{
		"name": "Annapurna", "address": "FC Road", "city": "Pune", "cuisine_types": []string{"maharashtrian"},
		"serves_non_vegetarian": false,
	})
	require.Equal(e.t, http.StatusCreated, res.Code, res.Body)
	restaurantID = id(obj(res.Body["restaurant"])["id"])

	res = e.do(http.MethodPost, "/api/manager/restaurants/"+restaurantID+"/mystery-bags", managerToken, map[string]any{
		"title":                            "Dinner surprise",
		"original_value":                   30000,
		"selling_price":                    10000,
		"total_quantity":                   qty,
		"pickup_start_time":                now.Add(-time.Hour).Format(time.RFC3339),
		"pickup_end_time":                  now.Add(2 * time.Hour).Format(time.RFC3339),
		"estimated_food_waste_saved_grams": 500,
	})
	require.Equal(e.t, http.StatusCreated, res.Code, res.Body)
	bag := obj(res.Body["mystery_bag"])
	assert.Equal(e.t, float64(66), bag["discount_percentage"])
	assert.Equal(e.t, "ACTIVE", bag["status"])
	return managerToken, restaurantID, id(bag["id"])
}

func TestRegisterLoginAndProfile(t *testing.T) {
	e := setup(t)
	token, body := e.register("Asha@Example.com", models.RoleCustomer, map[string]any{"phone": "+919876543210"})
	assert.Equal(t, "asha@example.com", obj(body["user"])["email"])
	assert.Len(t, obj(body["profile"])["referral_code"], 8)

	res := e.do(http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "customer", obj(res.Body["user"])["role"])

	res = e.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "asha@example.com", "password": "s3cret-pass"})
	assert.Equal(t, http.StatusOK, res.Code)
	res = e.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "asha@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = e.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "asha@example.com", "password": "s3cret-pass", "role": "customer", "first_name": "Asha",
	})
	assert.Equal(t, http.StatusConflict, res.Code)
	assert.Equal(t, "EMAIL_TAKEN", res.Body["code"])
}

func TestRegisterRejectsBadInput(t *testing.T) {
	e := setup(t)
	res := e.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "a@example.com", "password": "s3cret-pass", "role": "moderator", "first_name": "A", "phone": "98765",
	})
	require.Equal(t, http.StatusBadRequest, res.Code)
	fields := obj(res.Body["fields"])
	assert.Contains(t, fields, "role")
	assert.Contains(t, fields, "phone")
}

func TestPurchaseDecrementsStockAndNotifies(t *testing.T) {
	e := setup(t)
	managerToken, _, bagID := e.restaurantWithBag(3)
	customerToken, _ := e.register("ravi@example.com", models.RoleCustomer, nil)

	res := e.do(http.MethodPost, "/api/customer/mystery-bags/"+bagID+"/purchase", customerToken, map[string]any{"quantity": 2})
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	sale := obj(res.Body["sale"])
	assert.Equal(t, float64(20000), sale["total_price"])
	assert.Equal(t, float64(40000), sale["savings_paise"])
	assert.Equal(t, "ravi@example.com", e.sent.last().Recipient)

	res = e.do(http.MethodGet, "/api/mystery-bags/"+bagID, "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, float64(1), obj(res.Body["mystery_bag"])["available_quantity"])

	res = e.do(http.MethodPost, "/api/customer/mystery-bags/"+bagID+"/purchase", customerToken, map[string]any{"quantity": 2})
	assert.Equal(t, http.StatusConflict, res.Code)
	assert.Equal(t, "INSUFFICIENT_INVENTORY", res.Body["code"])

	res = e.do(http.MethodPost, "/api/customer/mystery-bags/"+bagID+"/purchase", managerToken, map[string]any{"quantity": 1})
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = e.do(http.MethodGet, "/api/profile/environmental-impact", customerToken, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, float64(2), obj(res.Body["environmental_impact"])["total_meals_saved"])
}

func TestDeactivatedBagCannotBePurchased(t *testing.T) {
	e := setup(t)
	managerToken, _, bagID := e.restaurantWithBag(3)
	customerToken, _ := e.register("ravi@example.com", models.RoleCustomer, nil)

	res := e.do(http.MethodPut, "/api/manager/mystery-bags/"+bagID+"/deactivate", managerToken, map[string]any{"note": "kitchen closed"})
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	assert.Equal(t, "DEACTIVATED", obj(res.Body["mystery_bag"])["status"])

	res = e.do(http.MethodPost, "/api/customer/mystery-bags/"+bagID+"/purchase", customerToken, map[string]any{"quantity": 1})
	assert.Equal(t, http.StatusConflict, res.Code)
	assert.Equal(t, "BAG_NOT_ACTIVE", res.Body["code"])

	res = e.do(http.MethodGet, "/api/manager/mystery-bags/"+bagID+"/history", managerToken, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, float64(1), res.Body["count"])

	res = e.do(http.MethodGet, "/api/mystery-bags", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, float64(0), res.Body["count"])
}

func TestNearbyRestaurants(t *testing.T) {
	e := setup(t)
	managerToken, _ := e.register("manager@example.com", models.RoleRestaurantManager, nil)
	place := func(name string, lat, lng float64) {
		res := e.do(http.MethodPost, "/api/manager/restaurants", managerToken, map[string]any{"name": name, "address": "somewhere"})
		require.Equal(t, http.StatusCreated, res.Code, res.Body)
		rid := id(obj(res.Body["restaurant"])["id"])
		res = e.do(http.MethodPut, "/api/manager/restaurants/"+rid+"/location", managerToken, map[string]any{
			"latitude": lat, "longitude": lng, "city": "Somewhere", "state": "Maharashtra", "pincode": "411004",
		})
		require.Equal(t, http.StatusOK, res.Code, res.Body)
	}
	place("Pune Kitchen", 18.5204, 73.8567)
	place("Mumbai Kitchen", 19.0760, 72.8777)

	res := e.do(http.MethodGet, "/api/restaurants/nearby?latitude=18.52&longitude=73.85&radius_km=10", "", nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	list := res.Body["restaurants"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "Pune Kitchen", obj(list[0])["name"])
	assert.Less(t, obj(list[0])["distance_km"].(float64), 1.0)

	res = e.do(http.MethodGet, "/api/restaurants/nearby?latitude=18.52&longitude=73.85&radius_km=100", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.Body["restaurants"].([]any), 1, "Mumbai is about 120 km away")

	res = e.do(http.MethodGet, "/api/restaurants/nearby?latitude=19.0&longitude=73.4&radius_km=100", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.Body["restaurants"].([]any), 2)

	res = e.do(http.MethodGet, "/api/restaurants/nearby?latitude=18.52&longitude=73.85&radius_km=200", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = e.do(http.MethodGet, "/api/restaurants/nearby?longitude=73.85", "", nil)
	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, obj(res.Body["fields"]), "latitude")

	res = e.do(http.MethodGet, "/api/restaurants/nearby?latitude=18.52&longitude=73.85&limit=500", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

var otpPattern = regexp.MustCompile(`\d{6}`)

func TestPhoneVerification(t *testing.T) {
	e := setup(t)
	token, _ := e.register("ravi@example.com", models.RoleCustomer, nil)
	phone := "+919812345678"

	res := e.do(http.MethodPost, "/api/auth/send-otp", token, map[string]any{"phone": phone})
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	msg := e.sent.last()
	assert.Equal(t, phone, msg.Recipient)
	assert.Equal(t, notify.ChannelSMS, msg.Channel)
	code := otpPattern.FindString(msg.Body)
	require.NotEmpty(t, code)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	res = e.do(http.MethodPost, "/api/auth/verify-otp", token, map[string]any{"phone": phone, "otp": wrong})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "INVALID_OTP", res.Body["code"])

	res = e.do(http.MethodPost, "/api/auth/verify-otp", token, map[string]any{"phone": phone, "otp": code})
	require.Equal(t, http.StatusOK, res.Code, res.Body)

	res = e.do(http.MethodGet, "/api/profile", token, nil)
	assert.Equal(t, true, obj(res.Body["user"])["is_phone_verified"])
	assert.Equal(t, phone, obj(res.Body["profile"])["phone"])

	res = e.do(http.MethodPost, "/api/auth/verify-otp", token, map[string]any{"phone": phone, "otp": code})
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestReferralAtRegistration(t *testing.T) {
	e := setup(t)
	referrerToken, body := e.register("first@example.com", models.RoleCustomer, nil)
	code := obj(body["profile"])["referral_code"].(string)

	_, body = e.register("second@example.com", models.RoleCustomer, map[string]any{"referral_code": strings.ToLower(code)})
	assert.Equal(t, float64(services.ReferralBonusPaise), obj(body["profile"])["total_money_saved_paise"])

	res := e.do(http.MethodGet, "/api/referrals/stats", referrerToken, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, float64(1), res.Body["total_referrals"])

	res = e.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "third@example.com", "password": "s3cret-pass", "role": "customer", "first_name": "T",
		"referral_code": "ZZZZZZZZ",
	})
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "INVALID_CODE", res.Body["code"])

	res = e.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "third@example.com", "password": "s3cret-pass"})
	assert.Equal(t, http.StatusUnauthorized, res.Code, "failed registration must not leave an account behind")
}

func TestBagReviewFlow(t *testing.T) {
	e := setup(t)
	managerToken, restaurantID, bagID := e.restaurantWithBag(2)
	customerToken, _ := e.register("ravi@example.com", models.RoleCustomer, nil)
	otherToken, _ := e.register("meera@example.com", models.RoleCustomer, nil)

	res := e.do(http.MethodPost, "/api/customer/mystery-bags/"+bagID+"/purchase", customerToken, map[string]any{"quantity": 1})
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	saleID := obj(res.Body["sale"])["id"]

	review := map[string]any{
		"sale_id": saleID, "overall_rating": 4, "review_text": "Great value",
		"value_rating": 5, "food_quality_rating": 4, "quantity_rating": 4,
		"variety_rating": 3, "surprise_rating": 4, "freshness_rating": 4,
	}
	res = e.do(http.MethodPost, "/api/customer/mystery-bag-reviews", otherToken, review)
	assert.Equal(t, http.StatusForbidden, res.Code, "only the buyer may review")

	res = e.do(http.MethodPost, "/api/customer/mystery-bag-reviews", customerToken, review)
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	reviewID := id(obj(res.Body["review"])["id"])

	res = e.do(http.MethodPost, "/api/customer/mystery-bag-reviews", customerToken, review)
	assert.Equal(t, http.StatusConflict, res.Code)
	assert.Equal(t, "ALREADY_REVIEWED", res.Body["code"])

	res = e.do(http.MethodGet, "/api/mystery-bags/"+bagID+"/reviews/summary", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, float64(1), res.Body["total_reviews"])
	assert.Equal(t, 4.0, res.Body["average_rating"])

	res = e.do(http.MethodPost, "/api/customer/reviews/mystery_bag/"+reviewID+"/vote", otherToken, map[string]any{"helpful": true})
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	assert.Equal(t, float64(1), obj(res.Body["votes"])["helpful_votes"])

	res = e.do(http.MethodPost, "/api/customer/reviews/mystery_bag/"+reviewID+"/vote", customerToken, map[string]any{"helpful": true})
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = e.do(http.MethodPost, "/api/manager/reviews/mystery_bag/"+reviewID+"/response", managerToken, map[string]any{"response": "Thank you!"})
	assert.Equal(t, http.StatusOK, res.Code, res.Body)

	res = e.do(http.MethodPost, "/api/customer/reviews/mystery_bag/"+reviewID+"/flag", otherToken, map[string]any{"reason": "spam"})
	require.Equal(t, http.StatusCreated, res.Code, res.Body)

	modToken := e.moderatorToken()
	res = e.do(http.MethodGet, "/api/admin/review-flags", modToken, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, float64(1), res.Body["count"])

	res = e.do(http.MethodPut, "/api/admin/reviews/mystery_bag/"+reviewID+"/moderate", modToken, map[string]any{"action": "hide"})
	require.Equal(t, http.StatusOK, res.Code, res.Body)

	res = e.do(http.MethodGet, "/api/mystery-bags/"+bagID+"/reviews/summary", "", nil)
	assert.Equal(t, float64(0), res.Body["total_reviews"])

	res = e.do(http.MethodGet, "/api/restaurants/"+restaurantID+"/reviews", "", nil)
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestModeratorVerifiesRestaurant(t *testing.T) {
	e := setup(t)
	customerToken, _ := e.register("ravi@example.com", models.RoleCustomer, nil)
	_, restaurantID, _ := e.restaurantWithBag(1)

	res := e.do(http.MethodGet, "/api/admin/users", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)

	modToken := e.moderatorToken()
	res = e.do(http.MethodPut, "/api/admin/restaurants/"+restaurantID+"/verify", modToken, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	assert.Equal(t, true, obj(res.Body["restaurant"])["is_verified"])

	res = e.do(http.MethodGet, "/api/restaurants?verified_only=true&vegetarian_only=true", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, float64(1), res.Body["count"])

	res = e.do(http.MethodGet, "/api/restaurants?verified_only=maybe", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = e.do(http.MethodPut, "/api/admin/restaurants/"+restaurantID+"/deactivate", modToken, nil)
	require.Equal(t, http.StatusOK, res.Code)
	res = e.do(http.MethodGet, "/api/restaurants/"+restaurantID, "", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestDeactivatedAccountLosesAccess(t *testing.T) {
	e := setup(t)
	token, body := e.register("ravi@example.com", models.RoleCustomer, nil)
	userID := id(obj(body["user"])["id"])
	require.Equal(t, http.StatusOK, e.do(http.MethodGet, "/api/profile", token, nil).Code)

	modToken := e.moderatorToken()
	res := e.do(http.MethodPut, "/api/admin/users/"+userID+"/active", modToken, map[string]any{"is_active": false})
	require.Equal(t, http.StatusOK, res.Code, res.Body)

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, "/api/profile", token, nil).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, "/api/customer/purchases", token, nil).Code)

	res = e.do(http.MethodPut, "/api/admin/users/"+userID+"/active", modToken, map[string]any{"is_active": true})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/api/profile", token, nil).Code)
}

func TestMenuFilters(t *testing.T) {
	e := setup(t)
	managerToken, restaurantID, _ := e.restaurantWithBag(1)
	add := func(item map[string]any) {
		res := e.do(http.MethodPost, "/api/manager/restaurants/"+restaurantID+"/menu", managerToken, item)
		require.Equal(t, http.StatusCreated, res.Code, res.Body)
	}
	add(map[string]any{"name": "Misal Pav", "price": 12000, "meal_category": "breakfast", "spice_level": "spicy"})
	add(map[string]any{"name": "Shrikhand", "price": 9000, "original_price": 12000, "is_on_offer": true, "meal_category": "desserts", "contains_nuts": true})

	res := e.do(http.MethodPost, "/api/manager/restaurants/"+restaurantID+"/menu", managerToken, map[string]any{
		"name": "Bad offer", "price": 9000, "original_price": 5000, "is_on_offer": true,
	})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = e.do(http.MethodGet, "/api/restaurants/"+restaurantID+"/menu?contains_nuts=false", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	menu := res.Body["menu"].([]any)
	require.Len(t, menu, 1)
	assert.Equal(t, "Misal Pav", obj(menu[0])["name"])
	assert.Equal(t, "SPICY", obj(menu[0])["spice_level"])

	res = e.do(http.MethodGet, "/api/restaurants/"+restaurantID+"/menu?category=desserts", "", nil)
	menu = res.Body["menu"].([]any)
	require.Len(t, menu, 1)
	assert.Equal(t, float64(25), obj(menu[0])["discount_percentage"])
	assert.Equal(t, "90", obj(menu[0])["price_inr"])
}
