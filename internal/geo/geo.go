// Package geo implements coordinate parsing and great-circle distance
// math used by the candidate finder and bid snapshots.
package geo

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"tender-engine/internal/common/errors"
)

// EarthRadiusMeters is the mean Earth radius used by the haversine
// formula.
const EarthRadiusMeters = 6371000.0

// Coordinates is a WGS84 latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Parse reads a "lat,lon" decimal-degree string. Whitespace around
// either component is tolerated. Out-of-range or malformed input
// yields an INVALID_COORDINATES validation error.
func Parse(raw string) (Coordinates, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return Coordinates{}, errors.NewInvalidCoordinates("expected 'lat,lon', got: " + raw)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinates{}, errors.NewInvalidCoordinates("latitude is not a number: " + parts[0])
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinates{}, errors.NewInvalidCoordinates("longitude is not a number: " + parts[1])
	}

	if lat < -90 || lat > 90 {
		return Coordinates{}, errors.NewInvalidCoordinates("latitude out of range: " + parts[0])
	}
	if lon < -180 || lon > 180 {
		return Coordinates{}, errors.NewInvalidCoordinates("longitude out of range: " + parts[1])
	}

	return Coordinates{Latitude: lat, Longitude: lon}, nil
}

// String renders the pair back to "lat,lon" with the shortest decimal
// representation, so Parse(c.String()) round-trips exactly.
func (c Coordinates) String() string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

// DistanceMeters computes the haversine great-circle distance.
func DistanceMeters(a, b Coordinates) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// DistanceKm computes the haversine distance in kilometers.
func DistanceKm(a, b Coordinates) float64 {
	return DistanceMeters(a, b) / 1000
}

// BoundingBox is a latitude/longitude rectangle used to prefilter
// directory queries before the exact distance check.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// BoundsAround returns the box enclosing the circle of radiusKm around
// center. Latitude bounds shift by the angular radius; longitude
// bounds widen by asin(sin(d)/cos(lat)) to stay correct away from the
// equator. Bounds are clamped to valid coordinate ranges, so near the
// poles or the antimeridian the box degenerates to the full span
// rather than wrapping.
func BoundsAround(center Coordinates, radiusKm float64) BoundingBox {
	angular := radiusKm * 1000 / EarthRadiusMeters
	lat := center.Latitude * math.Pi / 180

	dLat := angular * 180 / math.Pi

	var dLon float64
	sinRatio := math.Sin(angular) / math.Cos(lat)
	if math.Abs(sinRatio) >= 1 {
		dLon = 360
	} else {
		dLon = math.Asin(sinRatio) * 180 / math.Pi
	}

	return BoundingBox{
		MinLat: math.Max(center.Latitude-dLat, -90),
		MaxLat: math.Min(center.Latitude+dLat, 90),
		MinLon: math.Max(center.Longitude-dLon, -180),
		MaxLon: math.Min(center.Longitude+dLon, 180),
	}
}

// Contains reports whether p falls inside the box.
func (b BoundingBox) Contains(p Coordinates) bool {
	return p.Latitude >= b.MinLat && p.Latitude <= b.MaxLat &&
		p.Longitude >= b.MinLon && p.Longitude <= b.MaxLon
}

// SortByDistance orders items by ascending distance from origin. The
// coords accessor returns each item's raw coordinate string; items
// with unparseable coordinates sort last. The sort is stable, so ties
// keep their input order.
func SortByDistance[T any](items []T, origin Coordinates, coords func(T) string) {
	distances := make([]float64, len(items))
	for i, item := range items {
		c, err := Parse(coords(item))
		if err != nil {
			distances[i] = math.Inf(1)
			continue
		}
		distances[i] = DistanceMeters(origin, c)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return distances[i] < distances[j]
	})
}

// FilterByDistance keeps items within radiusKm of origin. Items with
// unparseable coordinates are dropped.
func FilterByDistance[T any](items []T, origin Coordinates, radiusKm float64, coords func(T) string) []T {
	kept := make([]T, 0, len(items))
	for _, item := range items {
		c, err := Parse(coords(item))
		if err != nil {
			continue
		}
		if DistanceKm(origin, c) <= radiusKm {
			kept = append(kept, item)
		}
	}
	return kept
}
