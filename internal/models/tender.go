package models

import "time"

// TenderStatus is the tender lifecycle state.
type TenderStatus string

const (
	TenderOpen       TenderStatus = "open"
	TenderInProgress TenderStatus = "in-progress"
	TenderCompleted  TenderStatus = "completed"
	TenderCancelled  TenderStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s TenderStatus) Terminal() bool {
	return s == TenderCompleted || s == TenderCancelled
}

// Urgency drives the tender expiry window and how strictly candidate
// availability is enforced.
type Urgency string

const (
	UrgencyToday    Urgency = "today"
	UrgencyThisWeek Urgency = "this-week"
	UrgencyFlexible Urgency = "flexible"
)

// ExpiryFrom returns the passive expiry deadline for a tender created
// at the given time. Flexible tenders never expire.
func (u Urgency) ExpiryFrom(createdAt time.Time) *time.Time {
	var expiry time.Time
	switch u {
	case UrgencyToday:
		expiry = createdAt.Add(24 * time.Hour)
	case UrgencyThisWeek:
		expiry = createdAt.Add(7 * 24 * time.Hour)
	default:
		return nil
	}
	return &expiry
}

// Tender is a client's published service request. Location is the
// client's free-text address or zone; coordinates are optional and
// only they enable proximity matching.
type Tender struct {
	ID                 string       `json:"id"`
	ClientID           string       `json:"clientId"`
	Title              string       `json:"title"`
	Description        string       `json:"description"`
	Category           string       `json:"category"`
	Urgency            Urgency      `json:"urgency"`
	Status             TenderStatus `json:"status"`
	Location           string       `json:"location"`
	City               string       `json:"city,omitempty"`
	District           string       `json:"district,omitempty"`
	GPSCoordinates     string       `json:"gpsCoordinates,omitempty"`
	Photos             []string     `json:"photos,omitempty"`
	MaxBudget          *int64       `json:"maxBudget,omitempty"`
	PreferredSchedule  string       `json:"preferredSchedule,omitempty"`
	SpecialConstraints string       `json:"specialConstraints,omitempty"`
	SelectedBidID      *string      `json:"selectedBidId,omitempty"`
	SelectedAt         *time.Time   `json:"selectedAt,omitempty"`
	ExpiresAt          *time.Time   `json:"expiresAt,omitempty"`
	CreatedAt          time.Time    `json:"createdAt"`
	UpdatedAt          time.Time    `json:"updatedAt"`
}

// CreateTenderRequest is the payload for publishing a tender.
type CreateTenderRequest struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Category           string   `json:"category"`
	Urgency            Urgency  `json:"urgency"`
	Location           string   `json:"location"`
	City               string   `json:"city,omitempty"`
	District           string   `json:"district,omitempty"`
	GPSCoordinates     string   `json:"gpsCoordinates,omitempty"`
	Photos             []string `json:"photos,omitempty"`
	MaxBudget          *int64   `json:"maxBudget,omitempty"`
	PreferredSchedule  string   `json:"preferredSchedule,omitempty"`
	SpecialConstraints string   `json:"specialConstraints,omitempty"`
}

// TenderFilters narrows tender listings. Zero values mean "no filter"
// except Status, which callers default to open.
type TenderFilters struct {
	Category string
	Status   TenderStatus
	Urgency  Urgency
	City     string
	District string
	ClientID string
	Page     int
	Limit    int
}

// TenderDetails is a tender joined with presentation extras.
type TenderDetails struct {
	Tender
	ClientName string `json:"clientName,omitempty"`
	BidsCount  int    `json:"bidsCount"`
}
