package nonce

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	goredis "github.com/redis/go-redis/v9"
)

const action = "gs_contact-support"

func TestCreateVerifyConsume(t *testing.T) {
	m := NewManager([]byte("k"), time.Hour, nil)
	token, err := m.Create(action, "7")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := m.Verify(token, action, "7"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := m.Consume(context.Background(), token, action, "7"); err != nil {
		t.Fatalf("consume: %v", err)
	}
	// Verification stays possible after consumption; reuse does not.
	if err := m.Verify(token, action, "7"); err != nil {
		t.Fatalf("verify after consume: %v", err)
	}
	if err := m.Consume(context.Background(), token, action, "7"); !errors.Is(err, ErrUsed) {
		t.Fatalf("expected ErrUsed, got %v", err)
	}
}

func TestVerifyRejectsMismatch(t *testing.T) {
	m := NewManager([]byte("k"), time.Hour, nil)
	token, _ := m.Create(action, "7")

	cases := map[string]func() error{
		"other user":   func() error { return m.Verify(token, action, "8") },
		"other action": func() error { return m.Verify(token, "delete-site", "7") },
		"empty":        func() error { return m.Verify("", action, "7") },
		"tampered":     func() error { return m.Verify(token+"x", action, "7") },
		"other secret": func() error { return NewManager([]byte("other"), time.Hour, nil).Verify(token, action, "7") },
	}
	for name, fn := range cases {
		if err := fn(); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: expected ErrInvalid, got %v", name, err)
		}
	}
}

func TestVerifyRequiresFormAudience(t *testing.T) {
	secret := []byte("k")
	c := &claims{
		Action: action,
		UserID: "7",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti",
			Audience:  jwt.ClaimStrings{"session"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := NewManager(secret, time.Hour, nil).Verify(token, action, "7"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestDeriveKey(t *testing.T) {
	session := []byte("session-secret")
	key, err := DeriveKey(session)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if len(key) != 32 || string(key) == string(session) {
		t.Fatalf("unexpected derived key %x", key)
	}
	again, _ := DeriveKey(session)
	if string(again) != string(key) {
		t.Fatal("derivation must be deterministic")
	}

	token, _ := NewManager(key, time.Hour, nil).Create(action, "7")
	if err := NewManager(session, time.Hour, nil).Verify(token, action, "7"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("session secret must not verify a token signed with the derived key, got %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	m := NewManager([]byte("k"), time.Minute, nil)
	base := time.Now()
	m.now = func() time.Time { return base }
	token, _ := m.Create(action, "7")

	m.now = func() time.Time { return base.Add(2 * time.Minute) }
	if err := m.Verify(token, action, "7"); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestConcurrentConsumeSucceedsOnce(t *testing.T) {
	m := NewManager([]byte("k"), time.Hour, NewMemoryStore())
	token, _ := m.Create(action, "7")

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.Consume(context.Background(), token, action, "7") == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one successful consume, got %d", wins)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore()
	base := time.Now()
	s.now = func() time.Time { return base }

	if first, _ := s.MarkUsed(context.Background(), "a", time.Minute); !first {
		t.Fatal("expected first use")
	}
	if first, _ := s.MarkUsed(context.Background(), "a", time.Minute); first {
		t.Fatal("expected repeat to be rejected")
	}

	s.now = func() time.Time { return base.Add(time.Minute) }
	if first, _ := s.MarkUsed(context.Background(), "a", time.Minute); !first {
		t.Fatal("expected expired id to be forgotten")
	}
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	m := NewManager([]byte("k"), time.Hour, NewRedisStore(client, ""))
	token, _ := m.Create(action, "7")

	if err := m.Consume(context.Background(), token, action, "7"); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if err := m.Consume(context.Background(), token, action, "7"); !errors.Is(err, ErrUsed) {
		t.Fatalf("expected ErrUsed, got %v", err)
	}

	keys := mr.Keys()
	if len(keys) != 1 {
		t.Fatalf("expected one consumed key, got %v", keys)
	}
	if ttl := mr.TTL(keys[0]); ttl <= 0 || ttl > time.Hour {
		t.Fatalf("expected ttl bounded by token lifetime, got %s", ttl)
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	m := NewManager([]byte("k"), time.Hour, NewRedisStore(client, "p:"))
	token, _ := m.Create(action, "7")
	err := m.Consume(context.Background(), token, action, "7")
	if err == nil || errors.Is(err, ErrUsed) {
		t.Fatalf("expected store error, got %v", err)
	}
}
