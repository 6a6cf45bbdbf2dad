package credentials

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	keystoreService = "optiondash-desktop"
	keystoreUser    = "api-token"
)

// ErrNoToken is returned when no API token is stored in the keychain
var ErrNoToken = errors.New("no API token stored")

// TokenStore keeps the dashboard API token in the system keychain
type TokenStore struct {
	service string
	user    string
}

// NewTokenStore returns a store bound to the application's keychain entry
func NewTokenStore() *TokenStore {
	return &TokenStore{service: keystoreService, user: keystoreUser}
}

// Load returns the stored token, or ErrNoToken when none is saved
func (s *TokenStore) Load() (string, error) {
	token, err := keyring.Get(s.service, s.user)
	if errors.Is(err, keyring.ErrNotFound) || (err == nil && token == "") {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token from keychain: %w", err)
	}
	return token, nil
}

// Save stores the token, replacing any previous one
func (s *TokenStore) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token cannot be empty")
	}
	if err := keyring.Set(s.service, s.user, token); err != nil {
		return fmt.Errorf("failed to store token in keychain: %w", err)
	}
	return nil
}

// Delete removes the stored token. Deleting a missing token is not an error.
func (s *TokenStore) Delete() error {
	if err := keyring.Delete(s.service, s.user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete token from keychain: %w", err)
	}
	return nil
}

// Resolve prefers an explicitly configured token and falls back to the keychain
func (s *TokenStore) Resolve(configured string) (string, bool) {
	if configured = strings.TrimSpace(configured); configured != "" {
		return configured, true
	}
	token, err := s.Load()
	if err != nil {
		return "", false
	}
	return token, true
}
