// Package presence tracks the volatile availability status reported
// by professional devices.
package presence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"tender-engine/internal/models"
)

const (
	keyPrefix  = "presence:"
	defaultTTL = 10 * time.Minute
)

// Store keeps per-professional presence in Redis. Entries expire so a
// silent device decays to offline on its own.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client, ttl: defaultTTL}
}

// Set records the current status, refreshing the expiry.
func (s *Store) Set(ctx context.Context, professionalID string, status models.ProfessionalStatus) error {
	return s.client.Set(ctx, keyPrefix+professionalID, string(status), s.ttl).Err()
}

// Get returns the current status. Missing or expired entries read as
// offline.
func (s *Store) Get(ctx context.Context, professionalID string) (models.ProfessionalStatus, error) {
	val, err := s.client.Get(ctx, keyPrefix+professionalID).Result()
	if errors.Is(err, redis.Nil) {
		return models.StatusOffline, nil
	}
	if err != nil {
		return models.StatusOffline, err
	}
	return models.ProfessionalStatus(val), nil
}

// Statuses resolves many professionals in one round trip. The result
// has an entry for every requested id, defaulting to offline.
func (s *Store) Statuses(ctx context.Context, professionalIDs []string) (map[string]models.ProfessionalStatus, error) {
	statuses := make(map[string]models.ProfessionalStatus, len(professionalIDs))
	if len(professionalIDs) == 0 {
		return statuses, nil
	}

	keys := make([]string, len(professionalIDs))
	for i, id := range professionalIDs {
		keys[i] = keyPrefix + id
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	for i, id := range professionalIDs {
		statuses[id] = models.StatusOffline
		if raw, ok := values[i].(string); ok && raw != "" {
			statuses[id] = models.ProfessionalStatus(raw)
		}
	}
	return statuses, nil
}
