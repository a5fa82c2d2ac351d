package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/storage"
)

// StorageKey is the key the admin token is persisted under. Nothing else
// reads or writes it.
const StorageKey = "auth.token"

// ErrNoToken is returned when no admin is logged in.
var ErrNoToken = errors.New("not logged in")

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
}

type storedToken struct {
	Token    string    `json:"token"`
	Email    string    `json:"email"`
	IssuedAt time.Time `json:"issuedAt"`
}

// TokenStore is the accessor for the admin bearer token of one session.
type TokenStore struct {
	storage storage.Storage
	now     func() time.Time
}

func NewTokenStore(st storage.Storage) *TokenStore {
	return &TokenStore{storage: st, now: time.Now}
}

// Token returns the stored token, or "" when none is set.
func (s *TokenStore) Token(ctx context.Context) (string, error) {
	t, err := s.load(ctx)
	if errors.Is(err, ErrNoToken) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return t.Token, nil
}

// Email returns who the stored token belongs to.
func (s *TokenStore) Email(ctx context.Context) (string, error) {
	t, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	return t.Email, nil
}

// LoggedIn reports whether a token is present.
func (s *TokenStore) LoggedIn(ctx context.Context) bool {
	token, err := s.Token(ctx)
	return err == nil && token != ""
}

func (s *TokenStore) Set(ctx context.Context, email, token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("token required")
	}
	raw, err := json.Marshal(storedToken{Token: token, Email: email, IssuedAt: s.now().UTC()})
	if err != nil {
		return err
	}
	return s.storage.Put(ctx, StorageKey, raw)
}

func (s *TokenStore) Clear(ctx context.Context) error {
	return s.storage.Delete(ctx, StorageKey)
}

// Login authenticates against a and stores the issued token.
func (s *TokenStore) Login(ctx context.Context, a Authenticator, email, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return errors.New("email and password required")
	}
	token, err := a.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return s.Set(ctx, email, token)
}

func (s *TokenStore) load(ctx context.Context) (storedToken, error) {
	raw, err := s.storage.Get(ctx, StorageKey)
	if errors.Is(err, domain.ErrNotFound) {
		return storedToken{}, ErrNoToken
	}
	if err != nil {
		return storedToken{}, err
	}
	var t storedToken
	if err := json.Unmarshal(raw, &t); err != nil || t.Token == "" {
		// Unreadable token data is treated as logged out.
		_ = s.storage.Delete(ctx, StorageKey)
		return storedToken{}, ErrNoToken
	}
	return t, nil
}
