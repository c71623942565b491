// Package services implements the tender and bid lifecycle
// operations on top of the storage and matching layers.
package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	commonerrors "tender-engine/internal/common/errors"
	"tender-engine/internal/common/logger"
	"tender-engine/internal/common/metrics"
	"tender-engine/internal/common/validation"
	"tender-engine/internal/geo"
	"tender-engine/internal/matching"
	"tender-engine/internal/models"
	"tender-engine/pkg/categories"
)

const maxListLimit = 100

// TenderStore is the persistence surface the tender service needs.
type TenderStore interface {
	Create(ctx context.Context, t *models.Tender) error
	GetByID(ctx context.Context, id string) (*models.Tender, error)
	List(ctx context.Context, f models.TenderFilters) ([]models.Tender, error)
	CountBids(ctx context.Context, tenderID string) (int, error)
	GetClientName(ctx context.Context, clientID string) (string, error)
	UpdateStatusIf(ctx context.Context, id string, from []models.TenderStatus, to models.TenderStatus) (bool, error)
}

// CandidateFinder searches professionals for a tender.
type CandidateFinder interface {
	FindCandidates(ctx context.Context, criteria matching.Criteria) ([]models.MatchCandidate, error)
}

// MatchDispatcher fans notifications out to candidates.
type MatchDispatcher interface {
	Dispatch(ctx context.Context, tender models.Tender, candidates []models.MatchCandidate) []models.DispatchResult
}

// MatchingDefaults are the criteria applied to every new tender.
type MatchingDefaults struct {
	RadiusKm  float64
	MinRating float64
}

type TenderService struct {
	store      TenderStore
	finder     CandidateFinder
	dispatcher MatchDispatcher
	defaults   MatchingDefaults
	logger     logger.Logger
}

func NewTenderService(store TenderStore, finder CandidateFinder, dispatcher MatchDispatcher, defaults MatchingDefaults, log logger.Logger) *TenderService {
	if defaults.RadiusKm <= 0 {
		defaults.RadiusKm = 15
	}
	if defaults.MinRating <= 0 {
		defaults.MinRating = 60
	}
	return &TenderService{
		store:      store,
		finder:     finder,
		dispatcher: dispatcher,
		defaults:   defaults,
		logger:     log.WithFields(map[string]interface{}{"component": "tender-service"}),
	}
}

// CreateTender validates and publishes a tender, then kicks off
// candidate matching in the background. Matching failures never fail
// the creation; the tender is live either way.
func (s *TenderService) CreateTender(ctx context.Context, actor models.Actor, payload []byte) (*models.Tender, error) {
	result, err := validation.ValidateCreateTender(payload)
	if err != nil {
		return nil, commonerrors.NewUpstream(commonerrors.CodeStorageFailure, "validation", err)
	}
	if !result.Valid {
		return nil, commonerrors.NewValidation(result.Details())
	}

	var req models.CreateTenderRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, commonerrors.NewValidation("payload is not valid JSON")
	}

	if !categories.IsValid(req.Category) {
		return nil, commonerrors.NewValidation("category: unknown category code " + req.Category)
	}
	if req.GPSCoordinates != "" {
		if _, err := geo.Parse(req.GPSCoordinates); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	tender := &models.Tender{
		ID:                 uuid.New().String(),
		ClientID:           actor.ID,
		Title:              req.Title,
		Description:        req.Description,
		Category:           req.Category,
		Urgency:            req.Urgency,
		Status:             models.TenderOpen,
		Location:           req.Location,
		City:               req.City,
		District:           req.District,
		GPSCoordinates:     req.GPSCoordinates,
		Photos:             req.Photos,
		MaxBudget:          req.MaxBudget,
		PreferredSchedule:  req.PreferredSchedule,
		SpecialConstraints: req.SpecialConstraints,
		ExpiresAt:          req.Urgency.ExpiryFrom(now),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.store.Create(ctx, tender); err != nil {
		return nil, err
	}

	metrics.TendersCreated.WithLabelValues(tender.Category, string(tender.Urgency)).Inc()
	s.logger.Info("tender created", map[string]interface{}{
		"tenderId": tender.ID,
		"category": tender.Category,
		"urgency":  string(tender.Urgency),
	})

	// Fire and forget: the caller's request must not wait on the
	// search or the sends, and their context dies with the request.
	go s.dispatchMatching(*tender)

	return tender, nil
}

func (s *TenderService) dispatchMatching(tender models.Tender) {
	ctx := context.Background()

	criteria := matching.Criteria{
		Category:            tender.Category,
		GPSCoordinates:      tender.GPSCoordinates,
		RadiusKm:            s.defaults.RadiusKm,
		MinRating:           s.defaults.MinRating,
		RequireAvailability: tender.Urgency == models.UrgencyToday,
	}

	candidates, err := s.finder.FindCandidates(ctx, criteria)
	if err != nil {
		s.logger.Error("candidate search failed", map[string]interface{}{
			"tenderId": tender.ID,
			"error":    err.Error(),
		})
		return
	}
	if len(candidates) == 0 {
		s.logger.Info("no candidates for tender", map[string]interface{}{
			"tenderId": tender.ID,
		})
		return
	}

	s.dispatcher.Dispatch(ctx, tender, candidates)
}

// GetTender returns a tender with its presentation extras. A missing
// client profile degrades to an empty name rather than failing the
// read.
func (s *TenderService) GetTender(ctx context.Context, tenderID string) (*models.TenderDetails, error) {
	tender, err := s.store.GetByID(ctx, tenderID)
	if err != nil {
		return nil, err
	}

	details := &models.TenderDetails{Tender: *tender}

	if name, err := s.store.GetClientName(ctx, tender.ClientID); err == nil {
		details.ClientName = name
	} else {
		s.logger.Warn("client name lookup failed", map[string]interface{}{
			"tenderId": tenderID,
			"clientId": tender.ClientID,
			"error":    err.Error(),
		})
	}

	count, err := s.store.CountBids(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	details.BidsCount = count

	return details, nil
}

// ListTenders pages tenders matching the filters. Listings default to
// open tenders; limits are capped to keep pages bounded.
func (s *TenderService) ListTenders(ctx context.Context, f models.TenderFilters) ([]models.Tender, error) {
	if f.Status == "" {
		f.Status = models.TenderOpen
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	return s.store.List(ctx, f)
}

// CancelTender cancels an open or in-progress tender. Only the owning
// client or an administrator may cancel; terminal tenders stay as
// they are. Bids are left untouched so the history remains readable.
func (s *TenderService) CancelTender(ctx context.Context, actor models.Actor, tenderID string) (*models.Tender, error) {
	tender, err := s.store.GetByID(ctx, tenderID)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin && tender.ClientID != actor.ID {
		return nil, commonerrors.NewNotTenderOwner(tenderID, actor.ID)
	}
	if tender.Status.Terminal() {
		return nil, commonerrors.NewTenderTerminal(tenderID, string(tender.Status))
	}

	changed, err := s.store.UpdateStatusIf(ctx, tenderID,
		[]models.TenderStatus{models.TenderOpen, models.TenderInProgress},
		models.TenderCancelled,
	)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Lost a race to another transition; report the state we
		// actually find.
		current, err := s.store.GetByID(ctx, tenderID)
		if err != nil {
			return nil, err
		}
		return nil, commonerrors.NewTenderTerminal(tenderID, string(current.Status))
	}

	s.logger.Info("tender cancelled", map[string]interface{}{
		"tenderId": tenderID,
		"actorId":  actor.ID,
	})

	return s.store.GetByID(ctx, tenderID)
}
