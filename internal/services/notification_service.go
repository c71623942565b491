package services

import (
	"context"

	commonerrors "tender-engine/internal/common/errors"
	"tender-engine/internal/common/logger"
	"tender-engine/internal/models"
)

// NotificationReader pages a professional's alert history and records
// delivery receipts.
type NotificationReader interface {
	ListByProfessional(ctx context.Context, professionalID string, page, limit int) ([]models.NotificationWithTender, error)
	MarkDelivered(ctx context.Context, notificationID string) error
	MarkRead(ctx context.Context, notificationID string) error
}

type NotificationService struct {
	notifications NotificationReader
	logger        logger.Logger
}

func NewNotificationService(notifications NotificationReader, log logger.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		logger:        log.WithFields(map[string]interface{}{"component": "notification-service"}),
	}
}

// ListNotifications returns the caller's own alerts, newest first.
// Professionals only; clients have no alert feed.
func (s *NotificationService) ListNotifications(ctx context.Context, actor models.Actor, page, limit int) ([]models.NotificationWithTender, error) {
	if !actor.IsProfessional {
		return nil, commonerrors.NewProfessionalOnly(actor.ID)
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if page <= 0 {
		page = 1
	}
	return s.notifications.ListByProfessional(ctx, actor.ID, page, limit)
}

// RecordDelivery applies a transport delivery receipt.
func (s *NotificationService) RecordDelivery(ctx context.Context, notificationID string) error {
	if err := s.notifications.MarkDelivered(ctx, notificationID); err != nil {
		return err
	}
	s.logger.Debug("notification delivered", map[string]interface{}{"notificationId": notificationID})
	return nil
}

// MarkRead records that the professional opened the notification.
// Professionals only, same as the feed itself.
func (s *NotificationService) MarkRead(ctx context.Context, actor models.Actor, notificationID string) error {
	if !actor.IsProfessional {
		return commonerrors.NewProfessionalOnly(actor.ID)
	}
	return s.notifications.MarkRead(ctx, notificationID)
}
