package triage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("triage session not found or expired")

// Session carries the symptom text and candidate list between the
// symptom submission and the severity rating. Single use.
type Session struct {
	Symptoms   string   `json:"symptoms"`
	Candidates []string `json:"candidates"`
}

type SessionStore interface {
	Put(ctx context.Context, s Session) (string, error)
	// Take returns the session for a token and consumes it; a second
	// Take with the same token fails.
	Take(ctx context.Context, token string) (*Session, error)
}

// =========== In-memory store ===========

type memoryEntry struct {
	session Session
	expires time.Time
}

type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Put(_ context.Context, sess Session) (string, error) {
	token := uuid.New().String()
	s.mu.Lock()
	defer s.mu.Unlock()
	for t, e := range s.sessions {
		if s.now().After(e.expires) {
			delete(s.sessions, t)
		}
	}
	s.sessions[token] = memoryEntry{session: sess, expires: s.now().Add(s.ttl)}
	return token, nil
}

func (s *MemorySessionStore) Take(_ context.Context, token string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	delete(s.sessions, token)
	if s.now().After(e.expires) {
		return nil, ErrSessionNotFound
	}
	return &e.session, nil
}

// =========== Redis store ===========

const sessionKeyPrefix = "triage:session:"

// RedisSessionStore keeps sessions in Redis so the two-step flow
// survives across instances. GETDEL gives the single-use property.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) Put(ctx context.Context, sess Session) (string, error) {
	payload, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}
	token := uuid.New().String()
	if err := s.client.Set(ctx, sessionKeyPrefix+token, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

func (s *RedisSessionStore) Take(ctx context.Context, token string) (*Session, error) {
	payload, err := s.client.GetDel(ctx, sessionKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal([]byte(payload), &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}
