package services

import (
	"context"
	"encoding/json"
	"math"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	commonerrors "tender-engine/internal/common/errors"
	"tender-engine/internal/common/logger"
	"tender-engine/internal/common/metrics"
	"tender-engine/internal/common/validation"
	"tender-engine/internal/directory"
	"tender-engine/internal/geo"
	"tender-engine/internal/matching"
	"tender-engine/internal/models"
)

// BidStore is the persistence surface the bid service needs.
type BidStore interface {
	Create(ctx context.Context, b *models.Bid) error
	GetByID(ctx context.Context, id string) (*models.Bid, error)
	ListByTender(ctx context.Context, tenderID string) ([]models.Bid, error)
	Withdraw(ctx context.Context, bidID string) (bool, error)
	SelectWinner(ctx context.Context, tenderID, bidID, actorID string, isAdmin bool) error
}

// TenderReader is the read-only tender access the bid service needs.
type TenderReader interface {
	GetByID(ctx context.Context, id string) (*models.Tender, error)
}

type BidService struct {
	bids      BidStore
	tenders   TenderReader
	ratings   matching.RatingSource
	directory directory.Directory
	logger    logger.Logger
}

func NewBidService(bids BidStore, tenders TenderReader, ratings matching.RatingSource, dir directory.Directory, log logger.Logger) *BidService {
	return &BidService{
		bids:      bids,
		tenders:   tenders,
		ratings:   ratings,
		directory: dir,
		logger:    log.WithFields(map[string]interface{}{"component": "bid-service"}),
	}
}

// SubmitBid places a professional's offer on an open tender. The
// rating and distance snapshots are best effort: a flaky rating
// source or a missing profile never blocks a bid. Duplicate
// submissions resolve at the storage constraint, so two concurrent
// requests cannot both win.
func (s *BidService) SubmitBid(ctx context.Context, actor models.Actor, tenderID string, payload []byte) (*models.Bid, error) {
	if !actor.IsProfessional {
		return nil, commonerrors.NewProfessionalOnly(actor.ID)
	}

	result, err := validation.ValidateCreateBid(payload)
	if err != nil {
		return nil, commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "validation", err)
	}
	if !result.Valid {
		return nil, commonerrors.NewValidation(result.Details())
	}

	var req models.CreateBidRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, commonerrors.NewValidation("payload is not valid JSON")
	}

	tender, err := s.tenders.GetByID(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	if tender.Status != models.TenderOpen {
		return nil, commonerrors.NewTenderNotOpen(tenderID, string(tender.Status))
	}
	if tender.ExpiresAt != nil && time.Now().UTC().After(*tender.ExpiresAt) {
		return nil, commonerrors.NewTenderNotOpen(tenderID, "expired")
	}

	now := time.Now().UTC()
	bid := &models.Bid{
		ID:                   uuid.New().String(),
		TenderID:             tenderID,
		ProfessionalID:       actor.ID,
		Price:                req.Price,
		EstimatedDuration:    req.EstimatedDuration,
		GuaranteePeriod:      req.GuaranteePeriod,
		Availability:         req.Availability,
		Description:          req.Description,
		Photos:               req.Photos,
		HasGuarantee:         req.HasGuarantee,
		CanStartToday:        req.CanStartToday,
		Status:               models.BidPending,
		ProfessionalRating:   s.ratingSnapshot(ctx, actor.ID),
		ProfessionalDistance: s.distanceSnapshot(ctx, tender, actor.ID),
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.bids.Create(ctx, bid); err != nil {
		if commonerrors.IsConflict(err) {
			metrics.BidConflicts.Inc()
		}
		return nil, err
	}

	metrics.BidsSubmitted.WithLabelValues(tender.Category).Inc()
	s.logger.Info("bid submitted", map[string]interface{}{
		"bidId":          bid.ID,
		"tenderId":       tenderID,
		"professionalId": actor.ID,
	})
	return bid, nil
}

func (s *BidService) ratingSnapshot(ctx context.Context, professionalID string) *float64 {
	agg, err := s.ratings.AggregateRating(ctx, professionalID)
	if err != nil {
		s.logger.Warn("rating snapshot unavailable", map[string]interface{}{
			"professionalId": professionalID,
			"error":          err.Error(),
		})
		return nil
	}
	if agg == nil {
		return nil
	}
	avg := agg.Average
	return &avg
}

func (s *BidService) distanceSnapshot(ctx context.Context, tender *models.Tender, professionalID string) *float64 {
	tenderCoords, err := geo.Parse(tender.GPSCoordinates)
	if err != nil {
		return nil
	}

	profile, err := s.directory.GetProfile(ctx, professionalID)
	if err != nil {
		s.logger.Warn("distance snapshot unavailable", map[string]interface{}{
			"professionalId": professionalID,
			"error":          err.Error(),
		})
		return nil
	}

	proCoords, err := geo.Parse(profile.GPSCoordinates)
	if err != nil {
		return nil
	}

	km := geo.DistanceKm(tenderCoords, proCoords)
	return &km
}

// ListBids returns a tender's active bids in the requested order.
func (s *BidService) ListBids(ctx context.Context, tenderID string, sortBy models.BidSortBy, direction models.SortDirection) ([]models.Bid, error) {
	if _, err := s.tenders.GetByID(ctx, tenderID); err != nil {
		return nil, err
	}

	bids, err := s.bids.ListByTender(ctx, tenderID)
	if err != nil {
		return nil, err
	}

	SortBids(bids, sortBy, direction)
	return bids, nil
}

// GetBid returns a single bid by ID.
func (s *BidService) GetBid(ctx context.Context, bidID string) (*models.Bid, error) {
	return s.bids.GetByID(ctx, bidID)
}

// SelectBid picks the winning bid and resolves all the others in one
// atomic step.
func (s *BidService) SelectBid(ctx context.Context, actor models.Actor, tenderID, bidID string) (*models.Bid, error) {
	if err := s.bids.SelectWinner(ctx, tenderID, bidID, actor.ID, actor.IsAdmin); err != nil {
		return nil, err
	}

	metrics.BidsSelected.Inc()
	s.logger.Info("bid selected", map[string]interface{}{
		"tenderId": tenderID,
		"bidId":    bidID,
		"actorId":  actor.ID,
	})
	return s.bids.GetByID(ctx, bidID)
}

// WithdrawBid retracts a professional's own pending bid.
func (s *BidService) WithdrawBid(ctx context.Context, actor models.Actor, bidID string) error {
	bid, err := s.bids.GetByID(ctx, bidID)
	if err != nil {
		return err
	}
	if bid.ProfessionalID != actor.ID {
		return commonerrors.NewNotBidOwner(bidID, actor.ID)
	}
	if bid.Status != models.BidPending {
		return commonerrors.NewBidNotPending(bidID, string(bid.Status))
	}

	changed, err := s.bids.Withdraw(ctx, bidID)
	if err != nil {
		return err
	}
	if !changed {
		current, err := s.bids.GetByID(ctx, bidID)
		if err != nil {
			return err
		}
		return commonerrors.NewBidNotPending(bidID, string(current.Status))
	}

	s.logger.Info("bid withdrawn", map[string]interface{}{
		"bidId":          bidID,
		"professionalId": actor.ID,
	})
	return nil
}

// durationSentinel pushes digit-less estimates to the end of the
// natural order.
const durationSentinel = math.MaxInt32

var durationNumber = regexp.MustCompile(`\d+`)

// SortBids orders bids in place. Each key has a natural order (price,
// distance, and duration ascending; rating descending, best first)
// and the desc direction inverts the natural order. The sort is
// stable, so equal keys keep submission order.
func SortBids(bids []models.Bid, sortBy models.BidSortBy, direction models.SortDirection) {
	factor := 1
	if direction == models.SortDesc {
		factor = -1
	}

	sort.SliceStable(bids, func(i, j int) bool {
		var cmp int
		switch sortBy {
		case models.SortByRating:
			cmp = compareFloat(ratingOrZero(bids[j]), ratingOrZero(bids[i]))
		case models.SortByDistance:
			cmp = compareFloat(distanceOrInf(bids[i]), distanceOrInf(bids[j]))
		case models.SortByDuration:
			cmp = compareDuration(bids[i].EstimatedDuration, bids[j].EstimatedDuration)
		default:
			cmp = compareFloat(float64(bids[i].Price), float64(bids[j].Price))
		}
		return factor*cmp < 0
	})
}

func ratingOrZero(b models.Bid) float64 {
	if b.ProfessionalRating == nil {
		return 0
	}
	return *b.ProfessionalRating
}

func distanceOrInf(b models.Bid) float64 {
	if b.ProfessionalDistance == nil {
		return math.Inf(1)
	}
	return *b.ProfessionalDistance
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareDuration(a, b string) int {
	return leadingNumber(a) - leadingNumber(b)
}

func leadingNumber(s string) int {
	match := durationNumber.FindString(s)
	if match == "" {
		return durationSentinel
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return durationSentinel
	}
	return n
}
