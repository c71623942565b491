// Package ratings serves professional review aggregates for match
// scoring and bid snapshots.
package ratings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	commonerrors "tender-engine/internal/common/errors"
	"tender-engine/internal/common/logger"
	"tender-engine/internal/models"
)

// Source resolves a professional's review aggregate. A nil aggregate
// with a nil error means the professional has no reviews yet.
type Source interface {
	AggregateRating(ctx context.Context, professionalID string) (*models.RatingAggregate, error)
}

const (
	cacheKeyPrefix = "rating:"
	defaultTTL     = 5 * time.Minute
)

// CachedSource reads aggregates from the rating_statistics table with
// a Redis read-through cache in front. Cache failures are degraded to
// direct reads, never surfaced.
type CachedSource struct {
	db     *sql.DB
	cache  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedSource(db *sql.DB, cache *redis.Client, log logger.Logger) *CachedSource {
	return &CachedSource{
		db:     db,
		cache:  cache,
		ttl:    defaultTTL,
		logger: log.WithFields(map[string]interface{}{"component": "ratings"}),
	}
}

func (s *CachedSource) AggregateRating(ctx context.Context, professionalID string) (*models.RatingAggregate, error) {
	key := cacheKeyPrefix + professionalID

	if cached, err := s.cache.Get(ctx, key).Result(); err == nil {
		var agg models.RatingAggregate
		if err := json.Unmarshal([]byte(cached), &agg); err == nil {
			return &agg, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.logger.Warn("rating cache read failed", map[string]interface{}{
			"professionalId": professionalID,
			"error":          err.Error(),
		})
	}

	agg, err := s.queryAggregate(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	if agg == nil {
		return nil, nil
	}

	if payload, err := json.Marshal(agg); err == nil {
		if err := s.cache.Set(ctx, key, payload, s.ttl).Err(); err != nil {
			s.logger.Warn("rating cache write failed", map[string]interface{}{
				"professionalId": professionalID,
				"error":          err.Error(),
			})
		}
	}

	return agg, nil
}

func (s *CachedSource) queryAggregate(ctx context.Context, professionalID string) (*models.RatingAggregate, error) {
	var agg models.RatingAggregate
	err := s.db.QueryRowContext(ctx,
		`SELECT avg_score, total_ratings FROM rating_statistics WHERE user_id = $1`,
		professionalID,
	).Scan(&agg.Average, &agg.Total)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, commonerrors.NewUpstream(commonerrors.CodeRatingSourceFailure, "postgres", err)
	}
	return &agg, nil
}
