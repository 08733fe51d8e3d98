package auth

import (
	"sync"
	"time"

	"github.com/fivetwenty-io/easemob/internal/constants"
)

// Token is an application (client credential) access token.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
	Application string    `json:"application,omitempty"`
}

// Valid reports whether the token is usable now with the default renewal margin.
func (t *Token) Valid() bool {
	return t.ValidAt(time.Now(), constants.TokenRenewalMargin)
}

// ValidAt reports whether the token is usable at now, treating it as expired
// margin before ExpiresAt. A zero ExpiresAt never expires.
func (t *Token) ValidAt(now time.Time, margin time.Duration) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}

	if t.ExpiresAt.IsZero() {
		return true
	}

	return now.Before(t.ExpiresAt.Add(-margin))
}

// TokenStore holds the current token for concurrent readers.
type TokenStore struct {
	mu    sync.RWMutex
	token *Token
}

// NewTokenStore creates an empty store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns a copy of the stored token, or nil.
func (s *TokenStore) Get() *Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == nil {
		return nil
	}

	copied := *s.token

	return &copied
}

// Set replaces the stored token.
func (s *TokenStore) Set(token *Token) {
	var copied *Token

	if token != nil {
		value := *token
		copied = &value
	}

	s.mu.Lock()
	s.token = copied
	s.mu.Unlock()
}

// Clear removes the stored token.
func (s *TokenStore) Clear() {
	s.Set(nil)
}
