package services

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"mealpedeal-api/apperrors"
	"mealpedeal-api/logger"
	"mealpedeal-api/models"
	"mealpedeal-api/money"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReferralBonusPaise is credited to both sides of a referral (₹50)
const ReferralBonusPaise int64 = 5000

const (
	referralCodeLength   = 8
	referralCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCodeAttempts      = 10
)

func randomCode() (string, error) {
	buf := make([]byte, referralCodeLength)
	alphabetSize := big.NewInt(int64(len(referralCodeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		buf[i] = referralCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// GenerateReferralCode returns a code no profile uses yet
func GenerateReferralCode(db *gorm.DB) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := randomCode()
		if err != nil {
			return "", apperrors.Internal("Failed to generate referral code", err)
		}
		var n int64
		if err := db.Model(&models.UserProfile{}).Where("referral_code = ?", code).Count(&n).Error; err != nil {
			return "", apperrors.Internal("Failed to check referral code", err)
		}
		if n == 0 {
			return code, nil
		}
	}
	return "", apperrors.Internal("Failed to generate a unique referral code", nil)
}

type ReferralResult struct {
	ReferrerID uint            `json:"referrer_id"`
	BonusPaise int64           `json:"bonus_paise"`
	BonusINR   decimal.Decimal `json:"bonus_inr"`
}

// ApplyReferral links userID to the owner of code and credits both profiles.
// The link is written only while referred_by_id is still empty, so two
// concurrent applications cannot both succeed.
func ApplyReferral(db *gorm.DB, userID uint, code string) (*ReferralResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, apperrors.Invalid("referral_code", "This field is required")
	}

	var result ReferralResult
	err := db.Transaction(func(tx *gorm.DB) error {
		var me models.UserProfile
		if err := tx.First(&me, "user_id = ?", userID).Error; err != nil {
			return lookupErr(err, "User profile")
		}
		if me.ReferredByID != nil {
			return apperrors.ErrAlreadyReferred
		}

		var referrer models.UserProfile
		if err := tx.First(&referrer, "referral_code = ?", code).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrInvalidReferralCode
			}
			return apperrors.Internal("Failed to look up referral code", err)
		}
		if referrer.UserID == userID {
			return apperrors.ErrSelfReferral
		}
		if err := checkReferralCycle(tx, referrer, userID); err != nil {
			return err
		}

		res := tx.Model(&models.UserProfile{}).
			Where("user_id = ? AND referred_by_id IS NULL", userID).
			Updates(map[string]any{
				"referred_by_id":          referrer.UserID,
				"total_money_saved_paise": gorm.Expr("total_money_saved_paise + ?", ReferralBonusPaise),
			})
		if res.Error != nil {
			return apperrors.Internal("Failed to apply referral", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrAlreadyReferred
		}

		res = tx.Model(&models.UserProfile{}).
			Where("user_id = ?", referrer.UserID).
			Update("total_money_saved_paise", gorm.Expr("total_money_saved_paise + ?", ReferralBonusPaise))
		if res.Error != nil {
			return apperrors.Internal("Failed to credit referrer", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("Referrer profile")
		}

		result = ReferralResult{
			ReferrerID: referrer.UserID,
			BonusPaise: ReferralBonusPaise,
			BonusINR:   money.ToMajorUnits(ReferralBonusPaise),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("referral applied", zap.Uint("user_id", userID), zap.Uint("referrer_id", result.ReferrerID))
	return &result, nil
}

// checkReferralCycle walks up from the referrer; reaching userID means the
// new link would close a loop.
func checkReferralCycle(tx *gorm.DB, referrer models.UserProfile, userID uint) error {
	seen := map[uint]bool{referrer.UserID: true}
	next := referrer.ReferredByID
	for next != nil {
		if *next == userID {
			return apperrors.ErrReferralCycle
		}
		if seen[*next] {
			return nil
		}
		seen[*next] = true
		var p models.UserProfile
		if err := tx.Select("user_id", "referred_by_id").First(&p, "user_id = ?", *next).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return apperrors.Internal("Failed to check referral chain", err)
		}
		next = p.ReferredByID
	}
	return nil
}

type ReferredUser struct {
	UserID   uint      `json:"user_id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}

type ReferralStats struct {
	ReferralCode    string          `json:"referral_code"`
	TotalReferrals  int64           `json:"total_referrals"`
	TotalBonusPaise int64           `json:"total_bonus_earned_paise"`
	TotalBonusINR   decimal.Decimal `json:"total_bonus_earned_inr"`
	RecentReferrals []ReferredUser  `json:"recent_referrals"`
}

func GetReferralStats(db *gorm.DB, userID uint) (*ReferralStats, error) {
	var me models.UserProfile
	if err := db.First(&me, "user_id = ?", userID).Error; err != nil {
		return nil, lookupErr(err, "User profile")
	}
	stats := ReferralStats{ReferralCode: me.ReferralCode, RecentReferrals: []ReferredUser{}}
	if err := db.Model(&models.UserProfile{}).Where("referred_by_id = ?", userID).Count(&stats.TotalReferrals).Error; err != nil {
		return nil, apperrors.Internal("Failed to count referrals", err)
	}
	var recent []models.UserProfile
	if err := db.Where("referred_by_id = ?", userID).Order("created_at DESC").Limit(10).Find(&recent).Error; err != nil {
		return nil, apperrors.Internal("Failed to load referrals", err)
	}
	for _, p := range recent {
		stats.RecentReferrals = append(stats.RecentReferrals, ReferredUser{UserID: p.UserID, Name: p.FullName(), JoinedAt: p.CreatedAt})
	}
	stats.TotalBonusPaise = stats.TotalReferrals * ReferralBonusPaise
	stats.TotalBonusINR = money.ToMajorUnits(stats.TotalBonusPaise)
	return &stats, nil
}
