package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Message levels, rendered by clients as flash banners
const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelWarning = "warning"
)

// Message is a one-shot notice shown on the visitor's next page view
type Message struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// Session is the per-visitor state kept between requests.
type Session struct {
	ID       string      `json:"-"`
	Cart     domain.Cart `json:"cart"`
	Messages []Message   `json:"messages,omitempty"`
}

// New returns an empty session for id
func New(id string) *Session {
	return &Session{ID: id, Cart: domain.NewCart()}
}

// AddMessage queues a flash message
func (s *Session) AddMessage(level, text string) {
	s.Messages = append(s.Messages, Message{Level: level, Text: text})
}

// PopMessages returns the queued messages and clears them.
func (s *Session) PopMessages() []Message {
	messages := s.Messages
	s.Messages = nil
	if messages == nil {
		return []Message{}
	}
	return messages
}

// Store persists sessions by id
type Store interface {
	// Load never fails for an unknown id; it returns an empty session instead.
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
}

var ErrInvalidSessionID = errors.New("invalid session id")

// NewID generates a fresh opaque session id
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like one NewID produced
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	if !ValidID(id) {
		return nil, ErrInvalidSessionID
	}

	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return New(id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	s := New(id)
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("unmarshal session failed: %w", err)
	}
	if s.Cart == nil {
		s.Cart = domain.NewCart()
	}

	return s, nil
}

// Save writes the session and refreshes its expiry.
func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	if !ValidID(s.ID) {
		return ErrInvalidSessionID
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}

	if err := r.client.Set(ctx, sessionKey(s.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}
