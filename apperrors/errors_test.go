package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrappedSentinelStillMatches(t *testing.T) {
	err := fmt.Errorf("apply: %w", ErrAlreadyReferred.Wrap(errors.New("row locked")))

	assert.ErrorIs(t, err, ErrAlreadyReferred)
	assert.NotErrorIs(t, err, ErrSelfReferral)
	assert.Equal(t, http.StatusConflict, HTTPStatus(err))
	assert.Contains(t, err.Error(), "row locked")
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("Restaurant")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrInvalidOTP))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(Forbidden("no")))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(Unauthenticated("no")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestValidationMessage(t *testing.T) {
	single := Invalid("latitude", "latitude must be between -90 and 90")
	assert.Equal(t, "latitude must be between -90 and 90", single.Message)

	multi := Validation(map[string]string{"pincode": "bad", "gstin": "bad"})
	assert.Equal(t, "Validation failed for gstin, pincode", multi.Message)
	assert.Len(t, multi.Fields, 2)
}
