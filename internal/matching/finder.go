package matching

import (
	"context"
	"sort"

	"tender-engine/internal/common/logger"
	"tender-engine/internal/common/metrics"
	"tender-engine/internal/directory"
	"tender-engine/internal/geo"
	"tender-engine/internal/models"
)

// Criteria is the candidate search input derived from a tender.
type Criteria struct {
	Category            string
	GPSCoordinates      string
	RadiusKm            float64
	MinRating           float64
	RequireAvailability bool
}

// Policy carries the deployment-level matching knobs.
type Policy struct {
	IncludeUnrated bool
	MaxCandidates  int
}

// StatusProvider resolves current presence for a set of
// professionals.
type StatusProvider interface {
	Statuses(ctx context.Context, professionalIDs []string) (map[string]models.ProfessionalStatus, error)
}

// RatingSource resolves review aggregates. Nil aggregate means no
// reviews.
type RatingSource interface {
	AggregateRating(ctx context.Context, professionalID string) (*models.RatingAggregate, error)
}

// Finder searches, filters, scores, and ranks professionals for a
// tender.
type Finder struct {
	directory directory.Directory
	presence  StatusProvider
	ratings   RatingSource
	policy    Policy
	logger    logger.Logger
}

func NewFinder(dir directory.Directory, presence StatusProvider, ratings RatingSource, policy Policy, log logger.Logger) *Finder {
	if policy.MaxCandidates <= 0 {
		policy.MaxCandidates = 50
	}
	return &Finder{
		directory: dir,
		presence:  presence,
		ratings:   ratings,
		policy:    policy,
		logger:    log.WithFields(map[string]interface{}{"component": "finder"}),
	}
}

// FindCandidates returns the qualified professionals for the
// criteria, ordered by score descending then distance ascending,
// capped at the configured maximum. A tender without usable
// coordinates matches nobody; that is a data condition, not an error.
func (f *Finder) FindCandidates(ctx context.Context, criteria Criteria) ([]models.MatchCandidate, error) {
	origin, err := geo.Parse(criteria.GPSCoordinates)
	if err != nil {
		f.logger.Warn("tender has no usable coordinates, skipping match", map[string]interface{}{
			"category": criteria.Category,
		})
		return nil, nil
	}

	bounds := geo.BoundsAround(origin, criteria.RadiusKm)
	query := directory.Query{
		Category: criteria.Category,
		Bounds:   &bounds,
	}
	if criteria.RequireAvailability {
		query.Statuses = []models.ProfessionalStatus{models.StatusAvailable, models.StatusOnline}
	}

	professionals, err := f.directory.FindProfessionals(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(professionals) == 0 {
		metrics.CandidatesFound.Observe(0)
		return nil, nil
	}

	ids := make([]string, len(professionals))
	for i, p := range professionals {
		ids[i] = p.ID
	}
	statuses, err := f.presence.Statuses(ctx, ids)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.MatchCandidate, 0, len(professionals))
	for _, pro := range professionals {
		coords, err := geo.Parse(pro.GPSCoordinates)
		if err != nil {
			continue
		}
		distanceKm := geo.DistanceKm(origin, coords)
		if distanceKm > criteria.RadiusKm {
			continue
		}

		// A live presence signal overrides the indexed status, which
		// can lag behind the device. Absence of a signal proves
		// nothing, so offline does not override.
		if status, ok := statuses[pro.ID]; ok && status != models.StatusOffline {
			pro.Status = status
		}
		if criteria.RequireAvailability && !pro.Status.Reachable() {
			continue
		}

		rating, err := f.ratings.AggregateRating(ctx, pro.ID)
		if err != nil {
			return nil, err
		}
		if rating == nil {
			if !f.policy.IncludeUnrated {
				continue
			}
		} else if rating.Average < criteria.MinRating {
			continue
		}

		candidates = append(candidates, models.MatchCandidate{
			Professional: pro,
			DistanceKm:   distanceKm,
			Rating:       rating,
			Score:        Score(distanceKm, criteria.RadiusKm, rating),
			Reasons:      Reasons(pro.Category, distanceKm, rating, pro.Status),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].DistanceKm < candidates[j].DistanceKm
	})

	if len(candidates) > f.policy.MaxCandidates {
		candidates = candidates[:f.policy.MaxCandidates]
	}

	metrics.CandidatesFound.Observe(float64(len(candidates)))
	f.logger.Info("candidate search completed", map[string]interface{}{
		"category":   criteria.Category,
		"candidates": len(candidates),
	})
	return candidates, nil
}
