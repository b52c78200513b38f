package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultSessionTTL is how long a login token stays valid.
const DefaultSessionTTL = 24 * time.Hour

// Session is an issued login token.
type Session struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Sessions stores login tokens.
type Sessions interface {
	Create(ctx context.Context, username string) (*Session, error)
	// Lookup returns the session for token. Expired tokens are removed and
	// reported as not found.
	Lookup(ctx context.Context, token string) (*Session, bool, error)
	Revoke(ctx context.Context, token string) error
}

// NewToken returns 32 random bytes, hex encoded.
func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// MemorySessions keeps sessions in process memory.
type MemorySessions struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]Session
}

// NewMemorySessions returns an in-memory session store.
func NewMemorySessions(ttl time.Duration) *MemorySessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemorySessions{ttl: ttl, now: time.Now, sessions: make(map[string]Session)}
}

func (m *MemorySessions) Create(ctx context.Context, username string) (*Session, error) {
	token, err := NewToken()
	if err != nil {
		return nil, err
	}
	s := Session{Token: token, Username: username, ExpiresAt: m.now().Add(m.ttl)}
	m.mu.Lock()
	m.sessions[token] = s
	m.mu.Unlock()
	return &s, nil
}

func (m *MemorySessions) Lookup(ctx context.Context, token string) (*Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(s.ExpiresAt) {
		delete(m.sessions, token)
		return nil, false, nil
	}
	return &s, true, nil
}

func (m *MemorySessions) Revoke(ctx context.Context, token string) error {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
	return nil
}

// RedisSessions keeps sessions in Redis with a TTL, so tokens survive a
// server restart and are shared between replicas.
type RedisSessions struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSessions builds a Redis-backed session store.
func NewRedisSessions(client *redis.Client, ttl time.Duration) *RedisSessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisSessions{client: client, prefix: "folio:session:", ttl: ttl}
}

func (r *RedisSessions) Create(ctx context.Context, username string) (*Session, error) {
	token, err := NewToken()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.client.Set(ctx, r.prefix+token, username, r.ttl).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return &Session{Token: token, Username: username, ExpiresAt: time.Now().Add(r.ttl)}, nil
}

func (r *RedisSessions) Lookup(ctx context.Context, token string) (*Session, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	key := r.prefix + token
	username, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load session: %w", err)
	}
	ttl, err := r.client.PTTL(ctx, key).Result()
	if err != nil {
		return nil, false, fmt.Errorf("load session ttl: %w", err)
	}
	return &Session{Token: token, Username: username, ExpiresAt: time.Now().Add(ttl)}, true, nil
}

func (r *RedisSessions) Revoke(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.client.Del(ctx, r.prefix+token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
