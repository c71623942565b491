package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"tender-engine/internal/common/logger"
	"tender-engine/internal/common/metrics"
	"tender-engine/internal/common/observability"
	"tender-engine/internal/models"
)

// NotificationStore persists dispatch outcomes.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	MarkFailed(ctx context.Context, notificationID string) error
}

// Dispatcher fans match alerts out to candidates. One run is bounded
// by a worker pool and a timeout; individual failures never abort the
// run.
type Dispatcher struct {
	store     NotificationStore
	transport Transport
	workers   int
	timeout   time.Duration
	obs       *observability.Observability
	logger    logger.Logger
}

func NewDispatcher(store NotificationStore, transport Transport, workers int, timeout time.Duration, obs *observability.Observability, log logger.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 8
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{
		store:     store,
		transport: transport,
		workers:   workers,
		timeout:   timeout,
		obs:       obs,
		logger:    log.WithFields(map[string]interface{}{"component": "dispatcher"}),
	}
}

// Dispatch notifies each candidate once, in the order given. The
// notification row is written before the send so the professional's
// feed never references an alert that was not at least attempted; a
// failed send flips the row to failed with no synchronous retry.
func (d *Dispatcher) Dispatch(ctx context.Context, tender models.Tender, candidates []models.MatchCandidate) []models.DispatchResult {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	results := make([]models.DispatchResult, len(candidates))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < d.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = d.notifyOne(ctx, tender, candidates[i])
			}
		}()
	}

	seen := make(map[string]bool, len(candidates))
	for i, c := range candidates {
		if seen[c.Professional.ID] {
			results[i] = models.DispatchResult{
				ProfessionalID: c.Professional.ID,
				Score:          c.Score,
				Reasons:        c.Reasons,
			}
			continue
		}
		seen[c.Professional.ID] = true
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	elapsed := time.Since(start)
	metrics.DispatchDuration.Observe(elapsed.Seconds())
	if d.obs != nil {
		d.obs.RecordDispatchDuration(ctx, elapsed, outcomeOf(results))
	}

	d.logger.Info("dispatch run completed", map[string]interface{}{
		"tenderId":   tender.ID,
		"candidates": len(candidates),
		"durationMs": elapsed.Milliseconds(),
	})
	return results
}

func (d *Dispatcher) notifyOne(ctx context.Context, tender models.Tender, c models.MatchCandidate) models.DispatchResult {
	channel := ChannelFor(c.Professional.Status)
	result := models.DispatchResult{
		ProfessionalID: c.Professional.ID,
		Channel:        channel,
		Score:          c.Score,
		Reasons:        c.Reasons,
	}

	notification := &models.Notification{
		ID:             uuid.New().String(),
		TenderID:       tender.ID,
		ProfessionalID: c.Professional.ID,
		Channel:        channel,
		Status:         models.NotificationSent,
		MatchingScore:  c.Score,
		MatchReasons:   c.Reasons,
		SentAt:         time.Now().UTC(),
	}

	if err := d.store.Create(ctx, notification); err != nil {
		d.logger.Error("notification persist failed, send skipped", map[string]interface{}{
			"tenderId":       tender.ID,
			"professionalId": c.Professional.ID,
			"error":          err.Error(),
		})
		result.Err = err
		d.record(ctx, channel, "persist_failed")
		return result
	}

	payload := Payload{
		Channel:        channel,
		TenderID:       tender.ID,
		TenderTitle:    tender.Title,
		TenderCategory: tender.Category,
		TenderCity:     tender.City,
		ProfessionalID: c.Professional.ID,
		RecipientName:  c.Professional.Name,
		Phone:          c.Professional.Phone,
		Email:          c.Professional.Email,
		DeviceARN:      c.Professional.DeviceARN,
		Score:          c.Score,
	}

	if err := d.transport.Send(ctx, payload); err != nil {
		d.logger.Warn("notification send failed", map[string]interface{}{
			"tenderId":       tender.ID,
			"professionalId": c.Professional.ID,
			"channel":        string(channel),
			"error":          err.Error(),
		})
		if markErr := d.store.MarkFailed(ctx, notification.ID); markErr != nil {
			d.logger.Error("failed to mark notification failed", map[string]interface{}{
				"notificationId": notification.ID,
				"error":          markErr.Error(),
			})
		}
		result.Err = err
		d.record(ctx, channel, "failed")
		return result
	}

	d.record(ctx, channel, "sent")
	return result
}

func (d *Dispatcher) record(ctx context.Context, channel models.NotificationChannel, status string) {
	metrics.NotificationsSent.WithLabelValues(string(channel), status).Inc()
	if d.obs != nil {
		d.obs.RecordCandidateNotified(ctx, string(channel), status)
	}
}

func outcomeOf(results []models.DispatchResult) string {
	for _, r := range results {
		if r.Err != nil {
			return "partial"
		}
	}
	return "ok"
}
