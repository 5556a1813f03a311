// Package otpstore keeps short-lived one-time passwords keyed by phone number.
package otpstore

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/patrickmn/go-cache"
)

// Store is a TTL key-value store. Implementations must be safe for concurrent use.
type Store interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
}

// Key is the storage key for a phone number's pending OTP
func Key(phone string) string {
	return "phone_otp_" + phone
}

// MemoryStore is an in-process Store; entries vanish on restart
type MemoryStore struct {
	c *cache.Cache
}

func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{c: cache.New(cache.NoExpiration, cleanupInterval)}
}

// Set refuses non-positive ttls; go-cache would keep such entries forever.
func (m *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("otpstore: ttl must be positive, got %s", ttl)
	}
	m.c.Set(key, value, ttl)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	return s, ok, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

// Generate returns a uniformly random 6-digit code
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
