// Package nonce issues and checks anti-forgery tokens for admin forms.
//
// A token is an HS256 JWT bound to one action and one user. Verify checks the
// binding and expiry only; Consume additionally records the token id in a
// Store so a second submission of the same form is rejected.
package nonce

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

var (
	ErrInvalid = errors.New("invalid form token")
	ErrExpired = errors.New("form token expired")
	ErrUsed    = errors.New("form token already used")
)

// DefaultTTL matches the lifetime of a rendered admin page.
const DefaultTTL = 24 * time.Hour

// Audience is the aud claim carried by every form token.
const Audience = "form"

// DeriveKey returns a form-token key derived from the session secret, for
// deployments that configure only one secret.
func DeriveKey(sessionSecret []byte) ([]byte, error) {
	r := hkdf.New(sha256.New, sessionSecret, []byte("support-widget-form-token"), []byte(Audience))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive form token key: %w", err)
	}
	return key, nil
}

type claims struct {
	Action string `json:"act"`
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Store remembers consumed token ids until they would have expired anyway.
type Store interface {
	// MarkUsed returns true the first time id is seen.
	MarkUsed(ctx context.Context, id string, ttl time.Duration) (bool, error)
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	store  Store
	now    func() time.Time
}

func NewManager(secret []byte, ttl time.Duration, store Store) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if store == nil {
		store = NewMemoryStore()
	}
	return &Manager{secret: secret, ttl: ttl, store: store, now: time.Now}
}

// Create mints a token for action on behalf of userID.
func (m *Manager) Create(action, userID string) (string, error) {
	now := m.now()
	c := &claims{
		Action: action,
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign form token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, expiry and the action/user binding.
func (m *Manager) Verify(token, action, userID string) error {
	_, err := m.parse(token, action, userID)
	return err
}

// Consume verifies the token and marks it used. A token can be consumed once.
func (m *Manager) Consume(ctx context.Context, token, action, userID string) error {
	c, err := m.parse(token, action, userID)
	if err != nil {
		return err
	}

	ttl := c.ExpiresAt.Time.Sub(m.now())
	if ttl <= 0 {
		return ErrExpired
	}

	first, err := m.store.MarkUsed(ctx, c.ID, ttl)
	if err != nil {
		return fmt.Errorf("record form token: %w", err)
	}
	if !first {
		return ErrUsed
	}
	return nil
}

func (m *Manager) parse(token, action, userID string) (*claims, error) {
	if token == "" {
		return nil, ErrInvalid
	}

	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithAudience(Audience))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.ID == "" {
		return nil, ErrInvalid
	}
	if c.Action != action || c.UserID != userID {
		return nil, ErrInvalid
	}
	return c, nil
}
