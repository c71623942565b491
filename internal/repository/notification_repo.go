package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	commonerrors "tender-engine/internal/common/errors"
	"tender-engine/internal/models"
)

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tender_notifications
			(id, tender_id, professional_id, channel, status, matching_score, match_reasons, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.TenderID, n.ProfessionalID, n.Channel, n.Status,
		n.MatchingScore, pq.Array(n.MatchReasons), n.SentAt,
	)
	if err != nil {
		return commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
	}
	return nil
}

func (r *NotificationRepository) MarkFailed(ctx context.Context, notificationID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tender_notifications SET status = 'failed' WHERE id = $1`,
		notificationID,
	)
	if err != nil {
		return commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
	}
	return nil
}

// MarkDelivered records a transport delivery receipt. A read
// notification stays read; receipts can arrive out of order.
func (r *NotificationRepository) MarkDelivered(ctx context.Context, notificationID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tender_notifications SET status = 'delivered', delivered_at = NOW()
		WHERE id = $1 AND status = 'sent'`,
		notificationID,
	)
	if err != nil {
		return commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
	}
	return nil
}

// MarkRead records that the professional opened the notification.
func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tender_notifications SET status = 'read', read_at = NOW()
		WHERE id = $1 AND status IN ('sent', 'delivered')`,
		notificationID,
	)
	if err != nil {
		return commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
	}
	return nil
}

// ListByProfessional pages a professional's alerts, newest first,
// each joined with a summary of its tender.
func (r *NotificationRepository) ListByProfessional(ctx context.Context, professionalID string, page, limit int) ([]models.NotificationWithTender, error) {
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT n.id, n.tender_id, n.professional_id, n.channel, n.status,
		       n.matching_score, n.match_reasons, n.sent_at, n.delivered_at, n.read_at,
		       t.title, t.category, t.status, t.city
		FROM tender_notifications n
		JOIN tenders t ON t.id = n.tender_id
		WHERE n.professional_id = $1
		ORDER BY n.sent_at DESC
		LIMIT $2 OFFSET $3`,
		professionalID, limit, offset,
	)
	if err != nil {
		return nil, commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
	}
	defer rows.Close()

	var notifications []models.NotificationWithTender
	for rows.Next() {
		var n models.NotificationWithTender
		var reasons pq.StringArray
		var city sql.NullString
		if err := rows.Scan(
			&n.ID, &n.TenderID, &n.ProfessionalID, &n.Channel, &n.Status,
			&n.MatchingScore, &reasons, &n.SentAt, &n.DeliveredAt, &n.ReadAt,
			&n.TenderTitle, &n.TenderCategory, &n.TenderStatus, &city,
		); err != nil {
			return nil, commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
		}
		n.MatchReasons = reasons
		n.TenderCity = city.String
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
	}
	return notifications, nil
}
