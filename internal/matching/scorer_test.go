package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tender-engine/internal/models"
)

func rating(avg float64, total int) *models.RatingAggregate {
	return &models.RatingAggregate{Average: avg, Total: total}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name       string
		distanceKm float64
		radiusKm   float64
		rating     *models.RatingAggregate
		want       int
	}{
		{
			name:       "perfect match",
			distanceKm: 0,
			radiusKm:   15,
			rating:     rating(100, 10),
			want:       100,
		},
		{
			name:       "halfway with good rating",
			distanceKm: 7.5,
			radiusKm:   15,
			rating:     rating(80, 10),
			want:       69,
		},
		{
			name:       "unrated earns only proximity",
			distanceKm: 0,
			radiusKm:   15,
			rating:     nil,
			want:       50,
		},
		{
			name:       "at the radius edge",
			distanceKm: 15,
			radiusKm:   15,
			rating:     nil,
			want:       0,
		},
		{
			name:       "beyond radius clamps to zero proximity",
			distanceKm: 30,
			radiusKm:   15,
			rating:     rating(100, 20),
			want:       50,
		},
		{
			name:       "volume saturates at ten reviews",
			distanceKm: 0,
			radiusKm:   15,
			rating:     rating(0, 100),
			want:       70,
		},
		{
			name:       "few reviews earn partial volume",
			distanceKm: 0,
			radiusKm:   15,
			rating:     rating(0, 5),
			want:       60,
		},
		{
			name:       "zero radius earns no proximity",
			distanceKm: 0,
			radiusKm:   0,
			rating:     nil,
			want:       0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.distanceKm, tt.radiusKm, tt.rating))
		})
	}
}

func TestScoreMonotonicity(t *testing.T) {
	t.Run("closer never scores lower", func(t *testing.T) {
		r := rating(75, 4)
		for d := 0.0; d < 15; d += 0.5 {
			near := Score(d, 15, r)
			far := Score(d+0.5, 15, r)
			assert.GreaterOrEqual(t, near, far, "distance %.1f", d)
		}
	})

	t.Run("higher average never scores lower", func(t *testing.T) {
		for avg := 0.0; avg < 100; avg += 10 {
			lo := Score(5, 15, rating(avg, 5))
			hi := Score(5, 15, rating(avg+10, 5))
			assert.GreaterOrEqual(t, hi, lo, "avg %.0f", avg)
		}
	})

	t.Run("more reviews never score lower", func(t *testing.T) {
		for n := 0; n < 15; n++ {
			lo := Score(5, 15, rating(70, n))
			hi := Score(5, 15, rating(70, n+1))
			assert.GreaterOrEqual(t, hi, lo, "total %d", n)
		}
	})

	t.Run("bounded by 0 and 100", func(t *testing.T) {
		assert.Equal(t, 100, Score(0, 15, rating(100, 1000)))
		assert.Equal(t, 0, Score(1000, 15, nil))
	})
}

func TestReasons(t *testing.T) {
	t.Run("full set in fixed order", func(t *testing.T) {
		got := Reasons("plombier", 7.5, rating(80, 3), models.StatusAvailable)
		assert.Equal(t, []string{
			"Catégorie: Plombier",
			"Distance: 7.5 km",
			"Note: 80.0/100",
			"3 évaluation(s)",
			"Disponible",
		}, got)
	})

	t.Run("zero distance omits the distance line", func(t *testing.T) {
		got := Reasons("plombier", 0, nil, models.StatusOffline)
		assert.Equal(t, []string{"Catégorie: Plombier"}, got)
	})

	t.Run("distance rounded to two decimals", func(t *testing.T) {
		got := Reasons("coiffeur", 3.14159, nil, models.StatusBusy)
		assert.Contains(t, got, "Distance: 3.14 km")
	})

	t.Run("online counts as disponible", func(t *testing.T) {
		got := Reasons("coiffeur", 1, nil, models.StatusOnline)
		assert.Contains(t, got, "Disponible")
	})

	t.Run("unknown category falls back to the code", func(t *testing.T) {
		got := Reasons("mystery-trade", 0, nil, models.StatusOffline)
		assert.Equal(t, []string{"Catégorie: mystery-trade"}, got)
	})
}
