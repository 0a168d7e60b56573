package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	postgresContainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"channel-insight-service/internal/domain"
	"channel-insight-service/internal/infra/postgres/migrations"
)

// setupTestDB starts a PostgreSQL container, runs the migrations and
// returns a connected repository. Requires Docker; skip with go test -short.
func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgresContainer.Run(ctx,
		"postgres:16-alpine",
		postgresContainer.WithDatabase("testdb"),
		postgresContainer.WithUsername("testuser"),
		postgresContainer.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start PostgreSQL container (is Docker running?)")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := NewConnection(ctx, Config{
		DSN:          connStr,
		MaxOpenConns: 5,
		MaxIdleConns: 1,
		MaxLifetime:  time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, migrations.Run(db))
	require.NoError(t, HealthCheck(ctx, db))

	return NewRepository(db), db
}

func rawVideo(id string, day int, views int64) domain.VideoMetric {
	return domain.VideoMetric{
		ID:              id,
		Title:           "Video " + id,
		Tags:            []string{"go", "db"},
		PublishedAt:     time.Date(2026, 4, day, 9, 30, 0, 0, time.UTC),
		DurationSeconds: 420,
		Views:           views,
		Likes:           views / 10,
		Comments:        views / 100,
	}
}

func TestChannels_UpsertGetList(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	ch := domain.NewTrackedChannel("UCalpha", "Alpha", false)
	require.NoError(t, repo.UpsertChannel(ctx, ch))
	createdAt := ch.CreatedAt
	assert.False(t, createdAt.IsZero())

	time.Sleep(10 * time.Millisecond)
	ch.Title = "Alpha Renamed"
	ch.Subscribers = 999
	require.NoError(t, repo.UpsertChannel(ctx, ch))
	assert.Equal(t, createdAt.Unix(), ch.CreatedAt.Unix(), "created_at must survive an update")

	got, err := repo.GetChannel(ctx, "UCalpha")
	require.NoError(t, err)
	assert.Equal(t, "Alpha Renamed", got.Title)
	assert.Equal(t, int64(999), got.Subscribers)
	assert.Nil(t, got.LastRefreshedAt)

	require.NoError(t, repo.UpsertChannel(ctx, domain.NewTrackedChannel("UCbeta", "Beta", true)))
	list, err := repo.ListChannels(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "UCalpha", list[0].ID)
	assert.True(t, list[1].Competitor)
}

func TestChannels_NotFound(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.GetChannel(ctx, "UCnobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = repo.MarkRefreshed(ctx, "UCnobody", time.Now())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChannels_MarkRefreshed(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertChannel(ctx, domain.NewTrackedChannel("UCalpha", "Alpha", false)))
	at := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkRefreshed(ctx, "UCalpha", at))

	got, err := repo.GetChannel(ctx, "UCalpha")
	require.NoError(t, err)
	require.NotNil(t, got.LastRefreshedAt)
	assert.True(t, at.Equal(*got.LastRefreshedAt))
}

func TestVideos_SaveAndList(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, repo.UpsertChannel(ctx, domain.NewTrackedChannel("UCalpha", "Alpha", false)))

	scored := rawVideo("v2", 5, 2000)
	scored.AlgorithmScore = 88
	scored.Tier = domain.TierViral
	require.NoError(t, repo.SaveVideos(ctx, "UCalpha", []domain.VideoMetric{scored, rawVideo("v1", 1, 1000)}))

	videos, err := repo.ListVideos(ctx, "UCalpha")
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "v1", videos[0].ID, "ordered by publish time")
	assert.Equal(t, []string{"go", "db"}, videos[0].Tags)
	assert.Equal(t, int64(420), videos[0].DurationSeconds)
	assert.Equal(t, domain.Tier(""), videos[1].Tier, "derived fields are not persisted")
	assert.Zero(t, videos[1].AlgorithmScore)

	// Re-saving updates counts in place.
	updated := rawVideo("v1", 1, 5000)
	require.NoError(t, repo.SaveVideos(ctx, "UCalpha", []domain.VideoMetric{updated}))

	var count int64
	require.NoError(t, db.Model(&VideoModel{}).Where("channel_id = ?", "UCalpha").Count(&count).Error)
	assert.Equal(t, int64(2), count)

	videos, err = repo.ListVideos(ctx, "UCalpha")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), videos[0].Views)

	require.NoError(t, repo.SaveVideos(ctx, "UCalpha", nil))
}

func TestReports_SaveAndLatest(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.LatestReport(ctx, "UCalpha", domain.ReportKindChannel)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	first := &domain.StoredReport{ChannelID: "UCalpha", Kind: domain.ReportKindChannel, Payload: []byte(`{"n":1}`)}
	require.NoError(t, repo.SaveReport(ctx, first))
	assert.NotEmpty(t, first.ID)

	time.Sleep(10 * time.Millisecond)
	second := &domain.StoredReport{ChannelID: "UCalpha", Kind: domain.ReportKindChannel, Payload: []byte(`{"n":2}`)}
	require.NoError(t, repo.SaveReport(ctx, second))
	require.NoError(t, repo.SaveReport(ctx, &domain.StoredReport{
		ChannelID: "UCalpha", Kind: domain.ReportKindComparison, Payload: []byte(`{"n":3}`),
	}))

	latest, err := repo.LatestReport(ctx, "UCalpha", domain.ReportKindChannel)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.JSONEq(t, `{"n":2}`, string(latest.Payload))
}

func TestNarratives_SaveAndList(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	for i, topic := range []string{"first", "second", "third"} {
		n := &domain.Narrative{ChannelID: "UCalpha", Topic: topic, Model: "gemini-test", Content: "draft"}
		require.NoError(t, repo.SaveNarrative(ctx, n))
		assert.NotEmpty(t, n.ID, "narrative %d", i)
		time.Sleep(5 * time.Millisecond)
	}

	got, err := repo.ListNarratives(ctx, "UCalpha", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "third", got[0].Topic)

	all, err := repo.ListNarratives(ctx, "UCalpha", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestVideos_LongFeedText(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, repo.UpsertChannel(ctx, domain.NewTrackedChannel("UCalpha", strings.Repeat("T", 400), false)))

	long := rawVideo(strings.Repeat("v", 120), 1, 100)
	long.Title = strings.Repeat("title ", 200)
	require.NoError(t, repo.SaveVideos(ctx, "UCalpha", []domain.VideoMetric{long}))

	videos, err := repo.ListVideos(ctx, "UCalpha")
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, long.ID, videos[0].ID)
	assert.Equal(t, long.Title, videos[0].Title)
}

func TestMigrations_Rollback(t *testing.T) {
	_, db := setupTestDB(t)

	require.NoError(t, migrations.Rollback(db))
	assert.True(t, db.Migrator().HasTable("narratives"), "only the column widening is undone")

	require.NoError(t, migrations.Rollback(db))
	assert.False(t, db.Migrator().HasTable("narratives"))
	assert.True(t, db.Migrator().HasTable("channels"))
}
