package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"mealpedeal-api/apperrors"
	"mealpedeal-api/config"
	"mealpedeal-api/dietary"
	"mealpedeal-api/impact"
	"mealpedeal-api/logger"
	"mealpedeal-api/middleware"
	"mealpedeal-api/models"
	"mealpedeal-api/money"
	"mealpedeal-api/notify"
	"mealpedeal-api/services"
	"mealpedeal-api/statemachine"
	"mealpedeal-api/validation"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Dependencies are the collaborators handlers use besides config.DB
type Dependencies struct {
	Notifier notify.Notifier
	OTP      *services.OTP
	Now      func() time.Time
}

var deps = Dependencies{Notifier: notify.LogNotifier{}, Now: time.Now}

// Configure installs handler dependencies; nil fields keep their defaults
func Configure(d Dependencies) {
	if d.Notifier == nil {
		d.Notifier = notify.LogNotifier{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	deps = d
}

// respondError renders any error with the status its kind maps to
func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		appErr = apperrors.Internal("Internal server error", err)
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	body := gin.H{"error": appErr.Message, "code": appErr.Code}
	if len(appErr.Fields) > 0 {
		body["fields"] = appErr.Fields
	}
	c.AbortWithStatusJSON(status, body)
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, validation.FromBindError(err))
		return false
	}
	return true
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, apperrors.Invalid(name, "Must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// notifyUser sends to the user's verified phone when there is one, email otherwise
func notifyUser(ctx context.Context, userID uint, subject, body string) {
	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		return
	}
	msg := notify.Message{Channel: notify.ChannelEmail, Recipient: user.Email, Subject: subject, Body: body}
	var profile models.UserProfile
	if user.IsPhoneVerified && config.DB.First(&profile, "user_id = ?", userID).Error == nil && profile.Phone != "" {
		msg.Recipient = profile.Phone
		msg.Channel = notify.ChannelSMS
		if user.AcceptsWhatsapp {
			msg.Channel = notify.ChannelWhatsapp
		}
	}
	_ = deps.Notifier.Send(ctx, msg)
}

// ── Response views ───────────────────────────────────────────────────────────

type restaurantView struct {
	models.Restaurant
	ComplianceStatus    models.ComplianceStatus `json:"compliance_status"`
	DietaryOptions      models.DietaryOptions   `json:"dietary_options_summary"`
	EnvironmentalImpact impact.Projection       `json:"environmental_impact"`
	DistanceKm          *float64                `json:"distance_km,omitempty"`
}

func viewRestaurant(r models.Restaurant, distanceKm *float64) restaurantView {
	return restaurantView{
		Restaurant:          r,
		ComplianceStatus:    r.ComplianceStatus(),
		DietaryOptions:      r.DietaryOptions(),
		EnvironmentalImpact: r.EnvironmentalImpact(),
		DistanceKm:          distanceKm,
	}
}

type menuItemView struct {
	models.MenuItem
	PriceINR              decimal.Decimal `json:"price_inr"`
	DiscountPercentage    int             `json:"discount_percentage"`
	DietarySummary        dietary.Summary `json:"dietary_summary"`
	NutritionalHighlights []string        `json:"nutritional_highlights"`
}

func viewMenuItem(m models.MenuItem) menuItemView {
	highlights := m.NutritionalHighlights()
	if highlights == nil {
		highlights = []string{}
	}
	return menuItemView{
		MenuItem:              m,
		PriceINR:              money.ToMajorUnits(m.Price),
		DiscountPercentage:    m.DiscountPercentage(),
		DietarySummary:        m.Summary(),
		NutritionalHighlights: highlights,
	}
}

type bagView struct {
	models.MysteryBag
	Status           models.BagStatus `json:"status"`
	IsAvailable      bool             `json:"is_available"`
	SavingsPaise     int64            `json:"savings_paise"`
	OriginalValueINR decimal.Decimal  `json:"original_value_inr"`
	SellingPriceINR  decimal.Decimal  `json:"selling_price_inr"`
	DietarySummary   dietary.Summary  `json:"dietary_summary"`
}

func viewBag(b models.MysteryBag, now time.Time) bagView {
	return bagView{
		MysteryBag:       b,
		Status:           statemachine.Status(b, now),
		IsAvailable:      statemachine.IsAvailable(b, now),
		SavingsPaise:     b.SavingsPaise(),
		OriginalValueINR: money.ToMajorUnits(b.OriginalValue),
		SellingPriceINR:  money.ToMajorUnits(b.SellingPrice),
		DietarySummary:   b.Summary(),
	}
}

func viewBags(bags []models.MysteryBag, now time.Time) []bagView {
	out := make([]bagView, 0, len(bags))
	for _, b := range bags {
		out = append(out, viewBag(b, now))
	}
	return out
}
