package models

import "time"

// BidStatus is the bid lifecycle state.
type BidStatus string

const (
	BidPending   BidStatus = "pending"
	BidSelected  BidStatus = "selected"
	BidRejected  BidStatus = "rejected"
	BidWithdrawn BidStatus = "withdrawn"
)

// Bid is a professional's offer on a tender. Rating and distance are
// snapshots taken at submission time and never updated afterwards.
type Bid struct {
	ID                   string    `json:"id"`
	TenderID             string    `json:"tenderId"`
	ProfessionalID       string    `json:"professionalId"`
	Price                int64     `json:"price"`
	EstimatedDuration    string    `json:"estimatedDuration"`
	GuaranteePeriod      string    `json:"guaranteePeriod,omitempty"`
	Availability         string    `json:"availability,omitempty"`
	Description          string    `json:"description,omitempty"`
	Photos               []string  `json:"photos,omitempty"`
	HasGuarantee         bool      `json:"hasGuarantee"`
	CanStartToday        bool      `json:"canStartToday"`
	Status               BidStatus `json:"status"`
	ProfessionalRating   *float64  `json:"professionalRating,omitempty"`
	ProfessionalDistance *float64  `json:"professionalDistance,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// CreateBidRequest is the payload for submitting a bid.
type CreateBidRequest struct {
	Price             int64    `json:"price"`
	EstimatedDuration string   `json:"estimatedDuration"`
	GuaranteePeriod   string   `json:"guaranteePeriod,omitempty"`
	Availability      string   `json:"availability,omitempty"`
	Description       string   `json:"description,omitempty"`
	Photos            []string `json:"photos,omitempty"`
	HasGuarantee      bool     `json:"hasGuarantee,omitempty"`
	CanStartToday     bool     `json:"canStartToday,omitempty"`
}

// BidSortBy names a bid listing sort key.
type BidSortBy string

const (
	SortByPrice    BidSortBy = "price"
	SortByRating   BidSortBy = "rating"
	SortByDistance BidSortBy = "distance"
	SortByDuration BidSortBy = "duration"
)

// SortDirection orients a sort relative to the key's natural order.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)
