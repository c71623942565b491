package models

import "time"

// NotificationChannel is the delivery medium for a match notification.
type NotificationChannel string

const (
	ChannelPush  NotificationChannel = "push"
	ChannelSMS   NotificationChannel = "sms"
	ChannelEmail NotificationChannel = "email"
)

// NotificationStatus tracks delivery progress. Sent is the initial
// state; delivered and read come from transport receipts, failed from
// a send error.
type NotificationStatus string

const (
	NotificationSent      NotificationStatus = "sent"
	NotificationDelivered NotificationStatus = "delivered"
	NotificationRead      NotificationStatus = "read"
	NotificationFailed    NotificationStatus = "failed"
)

// Notification is the persisted record of one match alert sent to a
// professional about a tender.
type Notification struct {
	ID             string              `json:"id"`
	TenderID       string              `json:"tenderId"`
	ProfessionalID string              `json:"professionalId"`
	Channel        NotificationChannel `json:"channel"`
	Status         NotificationStatus  `json:"status"`
	MatchingScore  int                 `json:"matchingScore"`
	MatchReasons   []string            `json:"matchReasons,omitempty"`
	SentAt         time.Time           `json:"sentAt"`
	DeliveredAt    *time.Time          `json:"deliveredAt,omitempty"`
	ReadAt         *time.Time          `json:"readAt,omitempty"`
}

// NotificationWithTender joins a notification with a summary of its
// tender for professional-facing listings.
type NotificationWithTender struct {
	Notification
	TenderTitle    string       `json:"tenderTitle"`
	TenderCategory string       `json:"tenderCategory"`
	TenderStatus   TenderStatus `json:"tenderStatus"`
	TenderCity     string       `json:"tenderCity,omitempty"`
}

// DispatchResult summarizes one notification attempt within a
// dispatch run.
type DispatchResult struct {
	ProfessionalID string
	Channel        NotificationChannel
	Score          int
	Reasons        []string
	Err            error
}
