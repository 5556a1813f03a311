package services

import (
	"context"
	"crypto/subtle"
	"time"

	"mealpedeal-api/apperrors"
	"mealpedeal-api/models"
	"mealpedeal-api/notify"
	"mealpedeal-api/otpstore"

	"gorm.io/gorm"
)

// OTP issues and checks phone verification codes
type OTP struct {
	Store    otpstore.Store
	Notifier notify.Notifier
	TTL      time.Duration
}

func (o *OTP) Send(ctx context.Context, phone string) error {
	code, err := otpstore.Generate()
	if err != nil {
		return apperrors.Internal("Failed to generate OTP", err)
	}
	if err := o.Store.Set(ctx, otpstore.Key(phone), code, o.TTL); err != nil {
		return apperrors.Internal("Failed to store OTP", err)
	}
	return o.Notifier.Send(ctx, notify.Message{
		Channel:   notify.ChannelSMS,
		Recipient: phone,
		Body:      "Your MealPeDeal verification code is " + code + ". It expires in " + o.TTL.String() + ".",
	})
}

// Verify checks code against the pending OTP for phone. On success the phone
// is stored on the profile, the user is marked verified and the OTP is consumed.
func (o *OTP) Verify(ctx context.Context, db *gorm.DB, userID uint, phone, code string) error {
	want, ok, err := o.Store.Get(ctx, otpstore.Key(phone))
	if err != nil {
		return apperrors.Internal("Failed to read OTP", err)
	}
	if !ok || subtle.ConstantTimeCompare([]byte(want), []byte(code)) != 1 {
		return apperrors.ErrInvalidOTP
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", userID).Update("is_phone_verified", true)
		if res.Error != nil {
			return apperrors.Internal("Failed to verify phone", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("User")
		}
		return writeErr(tx.Model(&models.UserProfile{}).Where("user_id = ?", userID).
			Update("phone", phone).Error, "profile")
	})
	if err != nil {
		return err
	}
	if err := o.Store.Delete(ctx, otpstore.Key(phone)); err != nil {
		return apperrors.Internal("Failed to clear OTP", err)
	}
	return nil
}
