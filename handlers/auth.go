package handlers

import (
	"net/http"
	"strings"

	"mealpedeal-api/apperrors"
	"mealpedeal-api/config"
	"mealpedeal-api/middleware"
	"mealpedeal-api/models"
	"mealpedeal-api/services"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Email             string          `json:"email" binding:"required,email"`
	Password          string          `json:"password" binding:"required,min=8"`
	Role              models.UserRole `json:"role" binding:"required,oneof=customer courier restaurant_manager"`
	FirstName         string          `json:"first_name" binding:"required,max=254"`
	LastName          string          `json:"last_name" binding:"max=254"`
	Phone             string          `json:"phone" binding:"omitempty,inphone"`
	PreferredLanguage string          `json:"preferred_language" binding:"omitempty,len=2"`
	ReferralCode      string          `json:"referral_code" binding:"omitempty,len=8,alphanum"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func userSummary(u models.User) gin.H {
	return gin.H{
		"id":                u.ID,
		"email":             u.Email,
		"role":              u.Role,
		"is_phone_verified": u.IsPhoneVerified,
	}
}

func createAccount(c *gin.Context, req RegisterRequest, role models.UserRole) (*models.User, *models.UserProfile, bool) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, apperrors.Internal("Failed to hash password", err))
		return nil, nil, false
	}
	lang := req.PreferredLanguage
	if lang == "" {
		lang = "en"
	}
	user := &models.User{
		Email:              req.Email,
		PasswordHash:       string(hash),
		Role:               role,
		IsActive:           true,
		PreferredLanguage:  lang,
		AcceptsWhatsapp:    true,
		AcceptsSMS:         true,
		AcceptsPromotional: true,
	}
	profile := &models.UserProfile{FirstName: req.FirstName, LastName: req.LastName, Phone: req.Phone}
	if err := services.RegisterUser(config.DB, user, profile, req.ReferralCode); err != nil {
		respondError(c, err)
		return nil, nil, false
	}
	return user, profile, true
}

// Register creates a new account. Moderators are created by other moderators.
func Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	user, profile, ok := createAccount(c, req, req.Role)
	if !ok {
		return
	}

	token, err := middleware.GenerateToken(user)
	if err != nil {
		respondError(c, apperrors.Internal("Failed to generate token", err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created successfully",
		"token":   token,
		"user":    userSummary(*user),
		"profile": profile,
	})
}

// Login authenticates a user and returns a JWT
func Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	var user models.User
	if err := config.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		respondError(c, apperrors.Unauthenticated("Invalid email or password"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respondError(c, apperrors.Unauthenticated("Invalid email or password"))
		return
	}
	if !user.IsActive {
		respondError(c, apperrors.Forbidden("Account is deactivated"))
		return
	}

	token, err := middleware.GenerateToken(&user)
	if err != nil {
		respondError(c, apperrors.Internal("Failed to generate token", err))
		return
	}
	services.TouchLastLogin(config.DB, user.ID, deps.Now())

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    userSummary(user),
	})
}

// GetProfile returns the authenticated user's account, profile and impact
func GetProfile(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		respondError(c, apperrors.NotFound("User"))
		return
	}
	var profile models.UserProfile
	if err := config.DB.First(&profile, "user_id = ?", userID).Error; err != nil {
		respondError(c, apperrors.NotFound("User profile"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":                 user,
		"profile":              profile,
		"environmental_impact": services.ProfileImpact(profile),
	})
}

// ── Phone verification ───────────────────────────────────────────────────────

type SendOTPRequest struct {
	Phone string `json:"phone" binding:"required,inphone"`
}

type VerifyOTPRequest struct {
	Phone string `json:"phone" binding:"required,inphone"`
	OTP   string `json:"otp" binding:"required,len=6,numeric"`
}

func SendOTP(c *gin.Context) {
	var req SendOTPRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := deps.OTP.Send(c.Request.Context(), req.Phone); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":            "OTP sent",
		"expires_in_seconds": int(deps.OTP.TTL.Seconds()),
	})
}

func VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := deps.OTP.Verify(c.Request.Context(), config.DB, middleware.GetUserID(c), req.Phone, req.OTP); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Phone number verified", "phone": req.Phone})
}
