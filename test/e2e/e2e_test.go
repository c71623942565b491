// Package e2e exercises the full tender lifecycle against live
// PostgreSQL, Redis, and Elasticsearch instances. The suite only runs
// when E2E_TESTS=true; everything else in the repo tests against
// fakes.
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tender-engine/internal/common/config"
	"tender-engine/internal/common/database"
	"tender-engine/internal/common/logger"
	"tender-engine/internal/directory"
	"tender-engine/internal/matching"
	"tender-engine/internal/models"
	"tender-engine/internal/notify"
	"tender-engine/internal/presence"
	"tender-engine/internal/ratings"
	"tender-engine/internal/repository"
	"tender-engine/internal/services"
)

var (
	cfg      *config.Config
	pg       *database.PostgresClient
	redisCli *database.RedisClient
	esCli    *database.ElasticsearchClient
)

func TestMain(m *testing.M) {
	if os.Getenv("E2E_TESTS") != "true" {
		fmt.Println("skipping e2e suite, set E2E_TESTS=true to run")
		os.Exit(0)
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	if pg, err = database.NewPostgres(cfg.Database.Postgres); err != nil {
		fmt.Fprintf(os.Stderr, "postgres: %v\n", err)
		os.Exit(1)
	}
	if err = database.RunMigrations(cfg.Database.Postgres); err != nil {
		fmt.Fprintf(os.Stderr, "migrations: %v\n", err)
		os.Exit(1)
	}
	if redisCli, err = database.NewRedis(cfg.Database.Redis); err != nil {
		fmt.Fprintf(os.Stderr, "redis: %v\n", err)
		os.Exit(1)
	}
	if esCli, err = database.NewElasticsearch(cfg.Database.Elasticsearch); err != nil {
		fmt.Fprintf(os.Stderr, "elasticsearch: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	pg.Close()
	redisCli.Close()
	os.Exit(code)
}

// recordingTransport stands in for SNS/SES so the suite never sends
// real traffic.
type recordingTransport struct {
	mu       sync.Mutex
	payloads []notify.Payload
}

func (r *recordingTransport) Send(ctx context.Context, p notify.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, p)
	return nil
}

func (r *recordingTransport) sent() []notify.Payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Payload(nil), r.payloads...)
}

type engine struct {
	tenders       *services.TenderService
	bids          *services.BidService
	notifications *services.NotificationService
	transport     *recordingTransport
}

func newEngine(t *testing.T) *engine {
	t.Helper()
	log := logger.NewTestLogger(t)

	tenderRepo := repository.NewTenderRepository(pg.DB)
	bidRepo := repository.NewBidRepository(pg.DB)
	notificationRepo := repository.NewNotificationRepository(pg.DB)

	dir := directory.NewESDirectory(esCli.GetClient(), cfg.Matching.DirectoryIndex, log)
	presenceStore := presence.NewStore(redisCli.GetClient())
	ratingSource := ratings.NewCachedSource(pg.DB, redisCli.GetClient(), log)

	finder := matching.NewFinder(dir, presenceStore, ratingSource, matching.Policy{
		IncludeUnrated: cfg.Matching.IncludeUnrated,
		MaxCandidates:  cfg.Matching.MaxCandidates,
	}, log)

	transport := &recordingTransport{}
	dispatcher := notify.NewDispatcher(notificationRepo, transport, cfg.Dispatch.Workers, cfg.Dispatch.Timeout, nil, log)

	return &engine{
		tenders: services.NewTenderService(tenderRepo, finder, dispatcher, services.MatchingDefaults{
			RadiusKm:  cfg.Matching.RadiusKm,
			MinRating: cfg.Matching.MinRating,
		}, log),
		bids:          services.NewBidService(bidRepo, tenderRepo, ratingSource, dir, log),
		notifications: services.NewNotificationService(notificationRepo, log),
		transport:     transport,
	}
}

func seedClient(t *testing.T, name string) string {
	t.Helper()
	id := uuid.New().String()
	_, err := pg.DB.Exec(`INSERT INTO users (id, name) VALUES ($1, $2)`, id, name)
	require.NoError(t, err)
	return id
}

// seedProfessional indexes a professional in the directory, marks them
// available, and gives them a rating.
func seedProfessional(t *testing.T, category, gps string) string {
	t.Helper()
	ctx := context.Background()
	id := uuid.New().String()

	doc := map[string]interface{}{
		"name":            "Pro " + id[:8],
		"category":        category,
		"status":          "available",
		"gps_coordinates": gps,
		"phone":           "+261340000000",
		"email":           "pro@example.com",
		"device_arn":      "arn:aws:sns:eu-west-1:000000000000:endpoint/test/" + id,
	}
	body, err := json.Marshal(doc)
	require.NoError(t, err)

	res, err := esapi.IndexRequest{
		Index:      cfg.Matching.DirectoryIndex,
		DocumentID: id,
		Body:       strings.NewReader(string(body)),
		Refresh:    "true",
	}.Do(ctx, esCli.GetClient())
	require.NoError(t, err)
	defer res.Body.Close()
	require.False(t, res.IsError(), "indexing professional: %s", res.String())

	_, err = pg.DB.Exec(
		`INSERT INTO rating_statistics (user_id, avg_score, total_ratings) VALUES ($1, 82, 12)`,
		id,
	)
	require.NoError(t, err)

	store := presence.NewStore(redisCli.GetClient())
	require.NoError(t, store.Set(ctx, id, models.StatusAvailable))

	return id
}

func createTender(t *testing.T, eng *engine, clientID, category, gps string) *models.Tender {
	t.Helper()
	payload := fmt.Sprintf(`{
		"title": "Fuite sous l'évier",
		"description": "Réparation urgente d'une fuite d'eau dans la cuisine",
		"category": %q,
		"urgency": "this-week",
		"location": "Lot II M 45 Bis, Ankadifotsy",
		"city": "Antananarivo",
		"gpsCoordinates": %q
	}`, category, gps)

	tender, err := eng.tenders.CreateTender(context.Background(), models.Actor{ID: clientID}, []byte(payload))
	require.NoError(t, err)
	return tender
}

func TestTenderMatchingFlow(t *testing.T) {
	eng := newEngine(t)
	clientID := seedClient(t, "Jean Rakoto")
	proID := seedProfessional(t, "plombier", "-18.8800,47.5085")

	tender := createTender(t, eng, clientID, "plombier", "-18.8792,47.5079")
	assert.Equal(t, models.TenderOpen, tender.Status)
	require.NotNil(t, tender.ExpiresAt)

	// Matching runs in the background; wait for the notification row.
	require.Eventually(t, func() bool {
		var count int
		err := pg.DB.QueryRow(
			`SELECT COUNT(*) FROM tender_notifications WHERE tender_id = $1 AND professional_id = $2`,
			tender.ID, proID,
		).Scan(&count)
		return err == nil && count == 1
	}, 15*time.Second, 200*time.Millisecond, "expected a notification for the seeded professional")

	var gotPush bool
	for _, p := range eng.transport.sent() {
		if p.TenderID == tender.ID && p.ProfessionalID == proID {
			gotPush = p.Channel == models.ChannelPush
		}
	}
	assert.True(t, gotPush, "available professional should be reached over push")

	feed, err := eng.notifications.ListNotifications(
		context.Background(),
		models.Actor{ID: proID, IsProfessional: true},
		1, 20,
	)
	require.NoError(t, err)
	require.NotEmpty(t, feed)
	assert.Equal(t, tender.ID, feed[0].TenderID)
	assert.Greater(t, feed[0].MatchingScore, 0)
	assert.NotEmpty(t, feed[0].MatchReasons)
}

func TestBidLifecycleFlow(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)
	clientID := seedClient(t, "Marie Rasoa")
	firstPro := seedProfessional(t, "electricien", "-18.9000,47.5200")
	secondPro := seedProfessional(t, "electricien", "-18.9100,47.5300")

	tender := createTender(t, eng, clientID, "electricien", "-18.9050,47.5250")

	first, err := eng.bids.SubmitBid(ctx, models.Actor{ID: firstPro, IsProfessional: true}, tender.ID,
		[]byte(`{"price": 90000, "description": "Disponible demain", "estimatedDuration": "1 jour", "canStartToday": true}`))
	require.NoError(t, err)

	second, err := eng.bids.SubmitBid(ctx, models.Actor{ID: secondPro, IsProfessional: true}, tender.ID,
		[]byte(`{"price": 75000, "estimatedDuration": "2 jours"}`))
	require.NoError(t, err)

	// The seeded professionals carry ratings and coordinates, so both
	// snapshots should land.
	require.NotNil(t, first.ProfessionalRating)
	require.NotNil(t, first.ProfessionalDistance)

	_, err = eng.bids.SubmitBid(ctx, models.Actor{ID: firstPro, IsProfessional: true}, tender.ID,
		[]byte(`{"price": 60000, "estimatedDuration": "1 jour"}`))
	require.Error(t, err, "second active bid by the same professional must be rejected")

	listed, err := eng.bids.ListBids(ctx, tender.ID, models.SortByPrice, models.SortAsc)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, second.ID, listed[0].ID, "cheapest bid first")

	selected, err := eng.bids.SelectBid(ctx, models.Actor{ID: clientID}, tender.ID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BidSelected, selected.Status)

	details, err := eng.tenders.GetTender(ctx, tender.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TenderInProgress, details.Status)
	require.NotNil(t, details.SelectedBidID)
	assert.Equal(t, second.ID, *details.SelectedBidID)
	assert.Equal(t, "Marie Rasoa", details.ClientName)

	loser, err := eng.bids.GetBid(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BidRejected, loser.Status)

	// Selecting again must observe the tender is no longer open.
	_, err = eng.bids.SelectBid(ctx, models.Actor{ID: clientID}, tender.ID, first.ID)
	require.Error(t, err)
}

func TestCancelTenderFlow(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)
	clientID := seedClient(t, "Paul Andry")

	tender := createTender(t, eng, clientID, "menuiserie", "-18.8700,47.5100")

	_, err := eng.tenders.CancelTender(ctx, models.Actor{ID: uuid.New().String()}, tender.ID)
	require.Error(t, err, "a stranger cannot cancel")

	cancelled, err := eng.tenders.CancelTender(ctx, models.Actor{ID: clientID}, tender.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TenderCancelled, cancelled.Status)

	_, err = eng.tenders.CancelTender(ctx, models.Actor{ID: clientID}, tender.ID)
	require.Error(t, err, "terminal tenders stay terminal")
}
