package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tender-engine/internal/common/logger"
	"tender-engine/internal/models"
)

type mockStore struct {
	mu         sync.Mutex
	created    []*models.Notification
	failedIDs  []string
	createFunc func(n *models.Notification) error
}

func (m *mockStore) Create(ctx context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createFunc != nil {
		if err := m.createFunc(n); err != nil {
			return err
		}
	}
	m.created = append(m.created, n)
	return nil
}

func (m *mockStore) MarkFailed(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failedIDs = append(m.failedIDs, id)
	return nil
}

type mockTransport struct {
	mu       sync.Mutex
	sent     []Payload
	sendFunc func(p Payload) error
}

func (m *mockTransport) Send(ctx context.Context, p Payload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendFunc != nil {
		if err := m.sendFunc(p); err != nil {
			return err
		}
	}
	m.sent = append(m.sent, p)
	return nil
}

func testTender() models.Tender {
	return models.Tender{
		ID:       "tender-1",
		Title:    "Réparation fuite d'eau",
		Category: "plombier",
		City:     "Antananarivo",
	}
}

func candidate(id string, status models.ProfessionalStatus, score int) models.MatchCandidate {
	return models.MatchCandidate{
		Professional: models.Professional{
			ID:        id,
			Name:      "Pro " + id,
			Category:  "plombier",
			Status:    status,
			Phone:     "+2613400000" + id,
			DeviceARN: "arn:device/" + id,
		},
		Score:   score,
		Reasons: []string{"Catégorie: Plombier"},
	}
}

func newDispatcher(store *mockStore, transport *mockTransport, t *testing.T) *Dispatcher {
	return NewDispatcher(store, transport, 4, 5*time.Second, nil, logger.NewTestLogger(t))
}

func TestDispatchSendsToEveryCandidate(t *testing.T) {
	store := &mockStore{}
	transport := &mockTransport{}
	d := newDispatcher(store, transport, t)

	candidates := []models.MatchCandidate{
		candidate("1", models.StatusAvailable, 90),
		candidate("2", models.StatusOffline, 70),
		candidate("3", models.StatusOnline, 60),
	}

	results := d.Dispatch(context.Background(), testTender(), candidates)

	require.Len(t, results, 3)
	for _, r := range results {
		assert.NoError(t, r.Err)
	}
	assert.Len(t, store.created, 3)
	assert.Len(t, transport.sent, 3)
	assert.Empty(t, store.failedIDs)
}

func TestDispatchChannelFollowsPresence(t *testing.T) {
	store := &mockStore{}
	transport := &mockTransport{}
	d := newDispatcher(store, transport, t)

	results := d.Dispatch(context.Background(), testTender(), []models.MatchCandidate{
		candidate("live", models.StatusAvailable, 80),
		candidate("away", models.StatusBusy, 75),
	})

	byID := map[string]models.DispatchResult{}
	for _, r := range results {
		byID[r.ProfessionalID] = r
	}
	assert.Equal(t, models.ChannelPush, byID["live"].Channel)
	assert.Equal(t, models.ChannelSMS, byID["away"].Channel)
}

func TestDispatchPersistFailureSkipsSend(t *testing.T) {
	store := &mockStore{
		createFunc: func(n *models.Notification) error {
			if n.ProfessionalID == "bad" {
				return assert.AnError
			}
			return nil
		},
	}
	transport := &mockTransport{}
	d := newDispatcher(store, transport, t)

	results := d.Dispatch(context.Background(), testTender(), []models.MatchCandidate{
		candidate("bad", models.StatusAvailable, 90),
		candidate("good", models.StatusAvailable, 80),
	})

	byID := map[string]models.DispatchResult{}
	for _, r := range results {
		byID[r.ProfessionalID] = r
	}
	assert.Error(t, byID["bad"].Err)
	assert.NoError(t, byID["good"].Err)

	require.Len(t, transport.sent, 1)
	assert.Equal(t, "good", transport.sent[0].ProfessionalID)
	assert.Empty(t, store.failedIDs, "persist failure leaves no row to mark")
}

func TestDispatchSendFailureMarksRowFailed(t *testing.T) {
	store := &mockStore{}
	transport := &mockTransport{
		sendFunc: func(p Payload) error {
			if p.ProfessionalID == "unlucky" {
				return assert.AnError
			}
			return nil
		},
	}
	d := newDispatcher(store, transport, t)

	results := d.Dispatch(context.Background(), testTender(), []models.MatchCandidate{
		candidate("unlucky", models.StatusAvailable, 90),
		candidate("fine", models.StatusAvailable, 80),
	})

	byID := map[string]models.DispatchResult{}
	for _, r := range results {
		byID[r.ProfessionalID] = r
	}
	assert.Error(t, byID["unlucky"].Err)
	assert.NoError(t, byID["fine"].Err)

	require.Len(t, store.failedIDs, 1)
	var unluckyRow *models.Notification
	for _, n := range store.created {
		if n.ProfessionalID == "unlucky" {
			unluckyRow = n
		}
	}
	require.NotNil(t, unluckyRow)
	assert.Equal(t, unluckyRow.ID, store.failedIDs[0])
}

func TestDispatchDeduplicatesCandidates(t *testing.T) {
	store := &mockStore{}
	transport := &mockTransport{}
	d := newDispatcher(store, transport, t)

	results := d.Dispatch(context.Background(), testTender(), []models.MatchCandidate{
		candidate("1", models.StatusAvailable, 90),
		candidate("1", models.StatusAvailable, 90),
	})

	require.Len(t, results, 2)
	assert.Len(t, store.created, 1)
	assert.Len(t, transport.sent, 1)
}

func TestDispatchEmptyCandidates(t *testing.T) {
	store := &mockStore{}
	transport := &mockTransport{}
	d := newDispatcher(store, transport, t)

	results := d.Dispatch(context.Background(), testTender(), nil)
	assert.Empty(t, results)
	assert.Empty(t, store.created)
}

func TestDispatchRecordsScoreAndReasons(t *testing.T) {
	store := &mockStore{}
	transport := &mockTransport{}
	d := newDispatcher(store, transport, t)

	c := candidate("1", models.StatusAvailable, 87)
	c.Reasons = []string{"Catégorie: Plombier", "Distance: 2.4 km", "Disponible"}

	results := d.Dispatch(context.Background(), testTender(), []models.MatchCandidate{c})

	require.Len(t, store.created, 1)
	n := store.created[0]
	assert.Equal(t, 87, n.MatchingScore)
	assert.Equal(t, c.Reasons, n.MatchReasons)
	assert.Equal(t, models.NotificationSent, n.Status)
	assert.Equal(t, "tender-1", n.TenderID)

	require.Len(t, results, 1)
	assert.Equal(t, 87, results[0].Score)
	assert.Equal(t, c.Reasons, results[0].Reasons)
}

func TestDispatchResultsCarryReasons(t *testing.T) {
	store := &mockStore{}
	transport := &mockTransport{}
	d := newDispatcher(store, transport, t)

	results := d.Dispatch(context.Background(), testTender(), []models.MatchCandidate{
		candidate("1", models.StatusAvailable, 90),
		candidate("1", models.StatusAvailable, 90),
	})

	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, []string{"Catégorie: Plombier"}, r.Reasons,
			"every per-candidate result reports its matching reasons, duplicates included")
	}
}

func TestChannelFor(t *testing.T) {
	assert.Equal(t, models.ChannelPush, ChannelFor(models.StatusAvailable))
	assert.Equal(t, models.ChannelPush, ChannelFor(models.StatusOnline))
	assert.Equal(t, models.ChannelSMS, ChannelFor(models.StatusBusy))
	assert.Equal(t, models.ChannelSMS, ChannelFor(models.StatusOffline))
}
