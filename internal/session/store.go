package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/otcheredev/hms-web/internal/cache"
	"github.com/otcheredev/hms-web/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrNoSession is returned when no usable session is stored under an id
var ErrNoSession = errors.New("no session")

// Store persists sessions across requests and process restarts.
// Only the Controller writes to it.
type Store interface {
	Load(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, id string, s *models.Session, ttl time.Duration) error
	Clear(ctx context.Context, id string) error
}

// CacheStore keeps sessions as JSON in a cache backend
type CacheStore struct {
	cache cache.Cache
}

// NewCacheStore creates a session store on top of a cache
func NewCacheStore(c cache.Cache) *CacheStore {
	return &CacheStore{cache: c}
}

// NewID generates an opaque session id for the browser cookie
func NewID() string {
	return uuid.NewString()
}

func storageKey(id string) string {
	return cache.Key("session", id)
}

// Load returns the session stored under id. A value that cannot be decoded
// into a valid session is discarded and reported as ErrNoSession.
func (s *CacheStore) Load(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		return nil, ErrNoSession
	}

	raw, err := s.cache.Get(ctx, storageKey(id))
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err == nil {
		err = sess.Validate()
	}
	if err != nil {
		log.Debug().Err(err).Msg("Discarding unreadable session")
		if delErr := s.cache.Delete(ctx, storageKey(id)); delErr != nil {
			log.Warn().Err(delErr).Msg("Failed to delete unreadable session")
		}
		return nil, ErrNoSession
	}

	return &sess, nil
}

// Save stores the session under id
func (s *CacheStore) Save(ctx context.Context, id string, sess *models.Session, ttl time.Duration) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.cache.Set(ctx, storageKey(id), raw, ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear removes the session stored under id
func (s *CacheStore) Clear(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.cache.Delete(ctx, storageKey(id)); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
