package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCreateTender(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		valid      bool
		wantFields []string
	}{
		{
			name: "valid full payload",
			payload: `{
				"title": "Réparation fuite d'eau",
				"description": "Fuite sous l'évier de la cuisine, intervention rapide souhaitée",
				"category": "plombier",
				"urgency": "today",
				"location": "Lot II M 45 Bis, Ankadifotsy",
				"city": "Antananarivo",
				"gpsCoordinates": "-18.8792,47.5079",
				"photos": ["https://cdn.example.com/fuite.jpg"],
				"maxBudget": 150000,
				"preferredSchedule": "matinée",
				"specialConstraints": "chien dans la cour"
			}`,
			valid: true,
		},
		{
			name:       "missing required fields",
			payload:    `{"title": "abc"}`,
			valid:      false,
			wantFields: []string{"description", "category", "urgency", "location"},
		},
		{
			name: "missing location",
			payload: `{
				"title": "Test title",
				"description": "Long enough description",
				"category": "plombier",
				"urgency": "flexible"
			}`,
			valid:      false,
			wantFields: []string{"location"},
		},
		{
			name: "bad urgency enum",
			payload: `{
				"title": "Test title",
				"description": "Long enough description",
				"category": "plombier",
				"urgency": "tomorrow",
				"location": "Ankadifotsy"
			}`,
			valid:      false,
			wantFields: []string{"urgency"},
		},
		{
			name: "negative budget",
			payload: `{
				"title": "Test title",
				"description": "Long enough description",
				"category": "plombier",
				"urgency": "flexible",
				"location": "Ankadifotsy",
				"maxBudget": -5
			}`,
			valid:      false,
			wantFields: []string{"maxBudget"},
		},
		{
			name: "unknown field rejected",
			payload: `{
				"title": "Test title",
				"description": "Long enough description",
				"category": "plombier",
				"urgency": "flexible",
				"location": "Ankadifotsy",
				"surprise": true
			}`,
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ValidateCreateTender([]byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.Valid)
			for _, field := range tt.wantFields {
				assert.Contains(t, result.Details(), field)
			}
		})
	}
}

func TestValidateCreateBid(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		result, err := ValidateCreateBid([]byte(`{
			"price": 80000,
			"estimatedDuration": "2 jours",
			"guaranteePeriod": "6 mois",
			"availability": "dès demain matin",
			"description": "Disponible demain",
			"photos": ["https://cdn.example.com/chantier.jpg"],
			"hasGuarantee": true,
			"canStartToday": false
		}`))
		require.NoError(t, err)
		assert.True(t, result.Valid)
	})

	t.Run("negative price", func(t *testing.T) {
		result, err := ValidateCreateBid([]byte(`{"price": -1, "estimatedDuration": "1 jour"}`))
		require.NoError(t, err)
		assert.False(t, result.Valid)
	})

	t.Run("missing price", func(t *testing.T) {
		result, err := ValidateCreateBid([]byte(`{"estimatedDuration": "1 jour"}`))
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Contains(t, result.Details(), "price")
	})

	t.Run("missing estimated duration", func(t *testing.T) {
		result, err := ValidateCreateBid([]byte(`{"price": 80000}`))
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Contains(t, result.Details(), "estimatedDuration")
	})

	t.Run("non-boolean flag rejected", func(t *testing.T) {
		result, err := ValidateCreateBid([]byte(`{"price": 80000, "estimatedDuration": "1 jour", "hasGuarantee": "oui"}`))
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Contains(t, result.Details(), "hasGuarantee")
	})
}
