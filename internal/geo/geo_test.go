package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tender-engine/internal/common/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Coordinates
		wantErr bool
	}{
		{
			name:  "antananarivo",
			input: "-18.8792,47.5079",
			want:  Coordinates{Latitude: -18.8792, Longitude: 47.5079},
		},
		{
			name:  "whitespace tolerated",
			input: " -18.8792 , 47.5079 ",
			want:  Coordinates{Latitude: -18.8792, Longitude: 47.5079},
		},
		{
			name:  "integer degrees",
			input: "0,0",
			want:  Coordinates{},
		},
		{
			name:    "missing longitude",
			input:   "-18.8792",
			wantErr: true,
		},
		{
			name:    "too many components",
			input:   "1,2,3",
			wantErr: true,
		},
		{
			name:    "latitude not a number",
			input:   "abc,47.5",
			wantErr: true,
		},
		{
			name:    "latitude out of range",
			input:   "91,0",
			wantErr: true,
		},
		{
			name:    "longitude out of range",
			input:   "0,-181",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsValidation(err))
				assert.Equal(t, errors.CodeInvalidCoordinates, errors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	coords := []Coordinates{
		{Latitude: -18.8792, Longitude: 47.5079},
		{Latitude: 0, Longitude: 0},
		{Latitude: 89.999999, Longitude: -179.999999},
		{Latitude: -0.5, Longitude: 0.25},
	}
	for _, c := range coords {
		parsed, err := Parse(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
}

func TestDistanceMeters(t *testing.T) {
	tana := Coordinates{Latitude: -18.8792, Longitude: 47.5079}

	t.Run("zero distance to itself", func(t *testing.T) {
		assert.Equal(t, 0.0, DistanceMeters(tana, tana))
	})

	t.Run("symmetric", func(t *testing.T) {
		other := Coordinates{Latitude: -18.95, Longitude: 47.52}
		assert.InDelta(t, DistanceMeters(tana, other), DistanceMeters(other, tana), 1e-9)
	})

	t.Run("one degree of latitude is about 111km", func(t *testing.T) {
		a := Coordinates{Latitude: 0, Longitude: 0}
		b := Coordinates{Latitude: 1, Longitude: 0}
		assert.InDelta(t, 111195, DistanceMeters(a, b), 10)
	})

	t.Run("km variant divides by 1000", func(t *testing.T) {
		other := Coordinates{Latitude: -19.0, Longitude: 47.6}
		assert.InDelta(t, DistanceMeters(tana, other)/1000, DistanceKm(tana, other), 1e-9)
	})
}

func TestBoundsAround(t *testing.T) {
	t.Run("contains the center and nearby points", func(t *testing.T) {
		center := Coordinates{Latitude: -18.8792, Longitude: 47.5079}
		box := BoundsAround(center, 15)
		assert.True(t, box.Contains(center))

		near := Coordinates{Latitude: -18.9, Longitude: 47.55}
		require.Less(t, DistanceKm(center, near), 15.0)
		assert.True(t, box.Contains(near))
	})

	t.Run("excludes points clearly outside the radius", func(t *testing.T) {
		center := Coordinates{Latitude: -18.8792, Longitude: 47.5079}
		box := BoundsAround(center, 15)
		far := Coordinates{Latitude: -19.5, Longitude: 47.5079}
		assert.False(t, box.Contains(far))
	})

	t.Run("longitude span widens away from the equator", func(t *testing.T) {
		atEquator := BoundsAround(Coordinates{Latitude: 0, Longitude: 0}, 15)
		atSixty := BoundsAround(Coordinates{Latitude: 60, Longitude: 0}, 15)
		equatorSpan := atEquator.MaxLon - atEquator.MinLon
		sixtySpan := atSixty.MaxLon - atSixty.MinLon
		assert.Greater(t, sixtySpan, equatorSpan)
	})

	t.Run("clamps at the pole", func(t *testing.T) {
		box := BoundsAround(Coordinates{Latitude: 89.99, Longitude: 0}, 50)
		assert.LessOrEqual(t, box.MaxLat, 90.0)
		assert.Equal(t, -180.0, box.MinLon)
		assert.Equal(t, 180.0, box.MaxLon)
	})
}

type place struct {
	name string
	gps  string
}

func TestSortByDistance(t *testing.T) {
	origin := Coordinates{Latitude: 0, Longitude: 0}
	items := []place{
		{name: "far", gps: "2,0"},
		{name: "broken", gps: "not-gps"},
		{name: "near", gps: "0.1,0"},
		{name: "mid", gps: "1,0"},
	}

	SortByDistance(items, origin, func(p place) string { return p.gps })

	got := make([]string, len(items))
	for i, p := range items {
		got[i] = p.name
	}
	assert.Equal(t, []string{"near", "mid", "far", "broken"}, got)
}

func TestFilterByDistance(t *testing.T) {
	origin := Coordinates{Latitude: 0, Longitude: 0}
	items := []place{
		{name: "inside", gps: "0.05,0"},
		{name: "outside", gps: "3,0"},
		{name: "broken", gps: ""},
	}

	kept := FilterByDistance(items, origin, 20, func(p place) string { return p.gps })

	require.Len(t, kept, 1)
	assert.Equal(t, "inside", kept[0].name)
}

func TestFilterBoundaryInclusive(t *testing.T) {
	origin := Coordinates{Latitude: 0, Longitude: 0}
	onEdge := place{name: "edge", gps: "0.05,0"}
	d := DistanceKm(origin, Coordinates{Latitude: 0.05, Longitude: 0})

	kept := FilterByDistance([]place{onEdge}, origin, d, func(p place) string { return p.gps })
	assert.Len(t, kept, 1)

	kept = FilterByDistance([]place{onEdge}, origin, math.Nextafter(d, 0), func(p place) string { return p.gps })
	assert.Len(t, kept, 0)
}
