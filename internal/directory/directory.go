// Package directory looks up professional profiles for candidate
// search and notification delivery.
package directory

import (
	"context"

	"tender-engine/internal/geo"
	"tender-engine/internal/models"
)

// Query narrows a professional search. Category is required; Statuses
// restricts to the given presence states when non-empty; Bounds
// prefilters by location rectangle when non-nil.
type Query struct {
	Category string
	Statuses []models.ProfessionalStatus
	Bounds   *geo.BoundingBox
	Size     int
}

// Directory is the professional profile lookup used by the candidate
// finder and the dispatcher.
type Directory interface {
	FindProfessionals(ctx context.Context, q Query) ([]models.Professional, error)
	GetProfile(ctx context.Context, professionalID string) (*models.Professional, error)
}
