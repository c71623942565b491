package models

// ProfessionalStatus is the volatile presence state reported by the
// professional's device.
type ProfessionalStatus string

const (
	StatusAvailable ProfessionalStatus = "available"
	StatusOnline    ProfessionalStatus = "online"
	StatusBusy      ProfessionalStatus = "busy"
	StatusOffline   ProfessionalStatus = "offline"
)

// Reachable reports whether the professional can receive a push
// notification right now.
func (s ProfessionalStatus) Reachable() bool {
	return s == StatusAvailable || s == StatusOnline
}

// Professional is a service provider profile from the directory.
type Professional struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Category       string             `json:"category"`
	Status         ProfessionalStatus `json:"status"`
	GPSCoordinates string             `json:"gpsCoordinates,omitempty"`
	City           string             `json:"city,omitempty"`
	District       string             `json:"district,omitempty"`
	Phone          string             `json:"phone,omitempty"`
	Email          string             `json:"email,omitempty"`
	DeviceARN      string             `json:"deviceArn,omitempty"`
}

// RatingAggregate is a professional's review summary on the 0-100
// scale.
type RatingAggregate struct {
	Average float64 `json:"average"`
	Total   int     `json:"total"`
}

// MatchCandidate is a professional qualified for a tender, scored and
// annotated for dispatch.
type MatchCandidate struct {
	Professional Professional
	DistanceKm   float64
	Rating       *RatingAggregate
	Score        int
	Reasons      []string
}

// Actor identifies the authenticated caller of a service operation.
type Actor struct {
	ID             string
	IsAdmin        bool
	IsProfessional bool
}
