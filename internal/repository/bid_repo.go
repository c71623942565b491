package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	commonerrors "tender-engine/internal/common/errors"
	"tender-engine/internal/models"
)

const bidColumns = `id, tender_id, professional_id, price, estimated_duration,
	guarantee_period, availability, description, photos, has_guarantee, can_start_today,
	status, professional_rating, professional_distance, created_at, updated_at`

// uniqueViolation is the PostgreSQL error code raised by the partial
// unique index on (tender_id, professional_id).
const uniqueViolation = "23505"

type BidRepository struct {
	db *sql.DB
}

func NewBidRepository(db *sql.DB) *BidRepository {
	return &BidRepository{db: db}
}

// Create inserts the bid. Two concurrent submissions by the same
// professional race on the partial unique index; the loser gets a
// DUPLICATE_BID conflict.
func (r *BidRepository) Create(ctx context.Context, b *models.Bid) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tender_bids (`+bidColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		b.ID, b.TenderID, b.ProfessionalID, b.Price, b.EstimatedDuration,
		nullable(b.GuaranteePeriod), nullable(b.Availability), nullable(b.Description),
		pq.Array(b.Photos), b.HasGuarantee, b.CanStartToday, b.Status,
		b.ProfessionalRating, b.ProfessionalDistance, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return commonerrors.NewDuplicateBid(b.TenderID, b.ProfessionalID)
		}
		return commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
	}
	return nil
}

func (r *BidRepository) GetByID(ctx context.Context, id string) (*models.Bid, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bidColumns+` FROM tender_bids WHERE id = $1`, id)
	b, err := scanBid(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, commonerrors.NewBidNotFound(id)
	}
	if err != nil {
		return nil, commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
	}
	return b, nil
}

// ListByTender returns all non-withdrawn bids on a tender, oldest
// first. Presentation sorting happens in the service.
func (r *BidRepository) ListByTender(ctx context.Context, tenderID string) ([]models.Bid, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+bidColumns+` FROM tender_bids
		WHERE tender_id = $1 AND status <> 'withdrawn'
		ORDER BY created_at ASC`,
		tenderID,
	)
	if err != nil {
		return nil, commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
	}
	defer rows.Close()

	var bids []models.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
		}
		bids = append(bids, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
	}
	return bids, nil
}

// Withdraw moves a pending bid to withdrawn, reporting whether a row
// changed.
func (r *BidRepository) Withdraw(ctx context.Context, bidID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tender_bids SET status = 'withdrawn', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`,
		bidID,
	)
	if err != nil {
		return false, commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
	}
	return affected > 0, nil
}

// SelectWinner resolves a tender in one transaction: the tender row
// is locked first, so a concurrent second selection blocks and then
// observes the non-open status. The chosen bid moves to selected and
// every other pending bid is rejected atomically.
func (r *BidRepository) SelectWinner(ctx context.Context, tenderID, bidID, actorID string, isAdmin bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
	}
	defer tx.Rollback()

	var clientID string
	var tenderStatus models.TenderStatus
	err = tx.QueryRowContext(ctx,
		`SELECT client_id, status FROM tenders WHERE id = $1 FOR UPDATE`,
		tenderID,
	).Scan(&clientID, &tenderStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return commonerrors.NewTenderNotFound(tenderID)
	}
	if err != nil {
		return commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
	}

	if !isAdmin && clientID != actorID {
		return commonerrors.NewNotTenderOwner(tenderID, actorID)
	}
	if tenderStatus != models.TenderOpen {
		return commonerrors.NewTenderNotOpen(tenderID, string(tenderStatus))
	}

	var bidTenderID string
	var bidStatus models.BidStatus
	err = tx.QueryRowContext(ctx,
		`SELECT tender_id, status FROM tender_bids WHERE id = $1 FOR UPDATE`,
		bidID,
	).Scan(&bidTenderID, &bidStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return commonerrors.NewBidNotFound(bidID)
	}
	if err != nil {
		return commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
	}

	if bidTenderID != tenderID {
		return commonerrors.NewBidWrongTender(bidID, tenderID)
	}
	if bidStatus != models.BidPending {
		return commonerrors.NewBidNotPending(bidID, string(bidStatus))
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE tenders SET status = 'in-progress', selected_bid_id = $1, selected_at = NOW(), updated_at = NOW()
		WHERE id = $2`,
		bidID, tenderID,
	); err != nil {
		return commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE tender_bids SET status = 'selected', updated_at = NOW() WHERE id = $1`,
		bidID,
	); err != nil {
		return commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE tender_bids SET status = 'rejected', updated_at = NOW()
		WHERE tender_id = $1 AND id <> $2 AND status = 'pending'`,
		tenderID, bidID,
	); err != nil {
		return commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
	}

	if err := tx.Commit(); err != nil {
		return commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
	}
	return nil
}

func scanBid(row rowScanner) (*models.Bid, error) {
	var b models.Bid
	var guarantee, availability, description sql.NullString
	var photos pq.StringArray

	err := row.Scan(
		&b.ID, &b.TenderID, &b.ProfessionalID, &b.Price, &b.EstimatedDuration,
		&guarantee, &availability, &description, &photos, &b.HasGuarantee, &b.CanStartToday,
		&b.Status, &b.ProfessionalRating, &b.ProfessionalDistance, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.GuaranteePeriod = guarantee.String
	b.Availability = availability.String
	b.Description = description.String
	b.Photos = photos
	return &b, nil
}
