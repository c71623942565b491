// Package matching computes match scores and finds qualified
// professionals for a tender.
package matching

import (
	"fmt"
	"math"
	"strconv"

	"tender-engine/internal/models"
	"tender-engine/pkg/categories"
)

// Score weights. Proximity dominates, then reputation, then review
// volume.
const (
	distanceWeight = 50.0
	ratingWeight   = 30.0
	volumeWeight   = 20.0
)

// Score computes the 0-100 match score for a professional at
// distanceKm from the tender within a search radius of radiusKm.
// rating is nil for professionals with no reviews; they earn nothing
// from the rating component. The review volume component saturates at
// ten reviews.
func Score(distanceKm, radiusKm float64, rating *models.RatingAggregate) int {
	var proximity float64
	if radiusKm > 0 {
		proximity = 1 - distanceKm/radiusKm
	}
	if proximity < 0 {
		proximity = 0
	}
	if proximity > 1 {
		proximity = 1
	}
	total := proximity * distanceWeight

	if rating != nil {
		total += rating.Average / 100 * ratingWeight
		total += math.Min(float64(rating.Total)/10, 1) * volumeWeight
	}

	return int(math.Round(total))
}

// Reasons renders the French display reasons for a match, in fixed
// order. Zero distance omits the distance line, matching how the
// marketplace has always displayed same-spot matches.
func Reasons(category string, distanceKm float64, rating *models.RatingAggregate, status models.ProfessionalStatus) []string {
	reasons := []string{"Catégorie: " + categories.Label(category)}

	if distanceKm > 0 {
		rounded := math.Round(distanceKm*100) / 100
		reasons = append(reasons, "Distance: "+strconv.FormatFloat(rounded, 'f', -1, 64)+" km")
	}

	if rating != nil {
		reasons = append(reasons, fmt.Sprintf("Note: %.1f/100", rating.Average))
		if rating.Total > 0 {
			reasons = append(reasons, fmt.Sprintf("%d évaluation(s)", rating.Total))
		}
	}

	if status.Reachable() {
		reasons = append(reasons, "Disponible")
	}

	return reasons
}
