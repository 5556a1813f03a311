package otpstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)

	require.NoError(t, s.Set(ctx, Key("+919876543210"), "123456", time.Minute))
	v, ok, err := s.Get(ctx, "phone_otp_+919876543210")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "123456", v)

	require.NoError(t, s.Delete(ctx, Key("+919876543210")))
	_, ok, _ = s.Get(ctx, Key("+919876543210"))
	assert.False(t, ok)
}

func TestMemoryStoreExpires(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)
	require.NoError(t, s.Set(ctx, "k", "v", 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)
	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreRejectsNonPositiveTTL(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)
	assert.Error(t, s.Set(ctx, "k", "123456", 0))
	assert.Error(t, s.Set(ctx, "k", "123456", -time.Second))
	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGenerate(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := Generate()
		require.NoError(t, err)
		assert.Regexp(t, `^\d{6}$`, code)
	}
}
