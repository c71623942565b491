// Package repository implements PostgreSQL persistence for tenders,
// bids, and notifications.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	commonerrors "tender-engine/internal/common/errors"
	"tender-engine/internal/models"
)

const tenderColumns = `id, client_id, title, description, category, urgency, status,
	location, city, district, gps_coordinates, photos, max_budget,
	preferred_schedule, special_constraints,
	selected_bid_id, selected_at, expires_at, created_at, updated_at`

type TenderRepository struct {
	db *sql.DB
}

func NewTenderRepository(db *sql.DB) *TenderRepository {
	return &TenderRepository{db: db}
}

func (r *TenderRepository) Create(ctx context.Context, t *models.Tender) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tenders (`+tenderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		t.ID, t.ClientID, t.Title, t.Description, t.Category, t.Urgency, t.Status,
		t.Location, nullable(t.City), nullable(t.District), nullable(t.GPSCoordinates),
		pq.Array(t.Photos), t.MaxBudget,
		nullable(t.PreferredSchedule), nullable(t.SpecialConstraints),
		t.SelectedBidID, t.SelectedAt, t.ExpiresAt, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
	}
	return nil
}

func (r *TenderRepository) GetByID(ctx context.Context, id string) (*models.Tender, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tenderColumns+` FROM tenders WHERE id = $1`, id)
	t, err := scanTender(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, commonerrors.NewTenderNotFound(id)
	}
	if err != nil {
		return nil, commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
	}
	return t, nil
}

// List returns tenders matching the filters, newest first.
func (r *TenderRepository) List(ctx context.Context, f models.TenderFilters) ([]models.Tender, error) {
	conditions := []string{}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Status != "" {
		conditions = append(conditions, "status = "+arg(f.Status))
	}
	if f.Category != "" {
		conditions = append(conditions, "category = "+arg(f.Category))
	}
	if f.Urgency != "" {
		conditions = append(conditions, "urgency = "+arg(f.Urgency))
	}
	if f.City != "" {
		conditions = append(conditions, "city = "+arg(f.City))
	}
	if f.District != "" {
		conditions = append(conditions, "district = "+arg(f.District))
	}
	if f.ClientID != "" {
		conditions = append(conditions, "client_id = "+arg(f.ClientID))
	}

	query := `SELECT ` + tenderColumns + ` FROM tenders`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	query += " LIMIT " + arg(limit)
	if f.Page > 1 {
		query += " OFFSET " + arg((f.Page-1)*limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
	}
	defer rows.Close()

	var tenders []models.Tender
	for rows.Next() {
		t, err := scanTender(rows)
		if err != nil {
			return nil, commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
		}
		tenders = append(tenders, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
	}
	return tenders, nil
}

// CountBids counts non-withdrawn bids on a tender.
func (r *TenderRepository) CountBids(ctx context.Context, tenderID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tender_bids WHERE tender_id = $1 AND status <> 'withdrawn'`,
		tenderID,
	).Scan(&count)
	if err != nil {
		return 0, commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
	}
	return count, nil
}

// GetClientName resolves the display name of a tender's owner.
func (r *TenderRepository) GetClientName(ctx context.Context, clientID string) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT name FROM users WHERE id = $1`, clientID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", commonerrors.NewProfileNotFound(clientID)
	}
	if err != nil {
		return "", commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "postgres", err)
	}
	return name, nil
}

// UpdateStatusIf transitions the tender status only from one of the
// allowed states, reporting whether a row actually changed. The
// conditional WHERE makes concurrent transitions race-safe without a
// lock.
func (r *TenderRepository) UpdateStatusIf(ctx context.Context, id string, from []models.TenderStatus, to models.TenderStatus) (bool, error) {
	states := make([]string, len(from))
	for i, s := range from {
		states[i] = string(s)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE tenders SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = ANY($3)`,
		to, id, pq.Array(states),
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

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTender(row rowScanner) (*models.Tender, error) {
	var t models.Tender
	var city, district, gps, schedule, constraints sql.NullString
	var photos pq.StringArray

	err := row.Scan(
		&t.ID, &t.ClientID, &t.Title, &t.Description, &t.Category, &t.Urgency, &t.Status,
		&t.Location, &city, &district, &gps, &photos, &t.MaxBudget,
		&schedule, &constraints,
		&t.SelectedBidID, &t.SelectedAt, &t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.City = city.String
	t.District = district.String
	t.GPSCoordinates = gps.String
	t.Photos = photos
	t.PreferredSchedule = schedule.String
	t.SpecialConstraints = constraints.String
	return &t, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
