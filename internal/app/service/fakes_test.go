package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"channel-insight-service/internal/domain"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

// fakeProvider serves canned feeds and counts fetches per channel.
type fakeProvider struct {
	mu     sync.Mutex
	feeds  map[string]*domain.ChannelFeed
	errs   map[string]error
	calls  map[string]int
	health error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		feeds: map[string]*domain.ChannelFeed{},
		errs:  map[string]error{},
		calls: map[string]int{},
	}
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) FetchChannel(_ context.Context, id string) (*domain.ChannelFeed, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[id]++
	if err, ok := p.errs[id]; ok {
		return nil, err
	}
	feed, ok := p.feeds[id]
	if !ok {
		return nil, fmt.Errorf("fake: channel %s: %w", id, domain.ErrNotFound)
	}
	return feed, nil
}

func (p *fakeProvider) HealthCheck(context.Context) error { return p.health }

func (p *fakeProvider) callCount(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[id]
}

// feed builds n weekly uploads with views growing by scale.
func feed(id string, n, scale int) *domain.ChannelFeed {
	records := make([]domain.RawRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, domain.RawRecord{
			"id":           fmt.Sprintf("%s-v%02d", id, i),
			"title":        fmt.Sprintf("Video %d", i),
			"published_at": testNow.AddDate(0, 0, -7*(n-i)).Format(time.RFC3339),
			"duration":     "PT10M",
			"views":        scale * (i + 1),
			"likes":        scale * (i + 1) / 25,
			"comments":     scale * (i + 1) / 200,
		})
	}
	return &domain.ChannelFeed{
		Channel: domain.ChannelInfo{ID: id, Title: "Channel " + id, Subscribers: int64(scale * 10)},
		Records: records,
	}
}

// memStore implements the channel, video and report repositories in memory.
type memStore struct {
	mu         sync.Mutex
	channels   map[string]*domain.TrackedChannel
	videos     map[string][]domain.VideoMetric
	reports    []*domain.StoredReport
	narratives []*domain.Narrative
	nextID     int
	saveErr    error
}

func newMemStore() *memStore {
	return &memStore{
		channels: map[string]*domain.TrackedChannel{},
		videos:   map[string][]domain.VideoMetric{},
	}
}

func (m *memStore) UpsertChannel(_ context.Context, ch *domain.TrackedChannel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *ch
	m.channels[ch.ID] = &c
	return nil
}

func (m *memStore) GetChannel(_ context.Context, id string) (*domain.TrackedChannel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *ch
	return &c, nil
}

func (m *memStore) ListChannels(context.Context) ([]*domain.TrackedChannel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.TrackedChannel, 0, len(m.channels))
	for _, ch := range m.channels {
		c := *ch
		out = append(out, &c)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (m *memStore) MarkRefreshed(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[id]
	if !ok {
		return domain.ErrNotFound
	}
	ch.LastRefreshedAt = &at
	return nil
}

func (m *memStore) SaveVideos(_ context.Context, channelID string, videos []domain.VideoMetric) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if _, ok := m.channels[channelID]; !ok {
		return fmt.Errorf("channel %s must exist before its videos", channelID)
	}
	m.videos[channelID] = append([]domain.VideoMetric(nil), videos...)
	return nil
}

func (m *memStore) ListVideos(_ context.Context, channelID string) ([]domain.VideoMetric, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.VideoMetric(nil), m.videos[channelID]...), nil
}

func (m *memStore) SaveReport(_ context.Context, r *domain.StoredReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = fmt.Sprintf("r%d", m.nextID)
	m.reports = append(m.reports, r)
	return nil
}

func (m *memStore) LatestReport(_ context.Context, channelID string, kind domain.ReportKind) (*domain.StoredReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.reports) - 1; i >= 0; i-- {
		if r := m.reports[i]; r.ChannelID == channelID && r.Kind == kind {
			return r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memStore) SaveNarrative(_ context.Context, n *domain.Narrative) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	n.ID = fmt.Sprintf("n%d", m.nextID)
	m.narratives = append(m.narratives, n)
	return nil
}

func (m *memStore) ListNarratives(_ context.Context, channelID string, limit int) ([]*domain.Narrative, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Narrative
	for i := len(m.narratives) - 1; i >= 0 && len(out) < limit; i-- {
		if m.narratives[i].ChannelID == channelID {
			out = append(out, m.narratives[i])
		}
	}
	return out, nil
}

func (m *memStore) reportCount(kind domain.ReportKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.reports {
		if r.Kind == kind {
			n++
		}
	}
	return n
}

// memCache is a domain.Cache without expiry.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key], nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = map[string][]byte{}
	return nil
}

// stubRenderer echoes what it was asked to render.
type stubRenderer struct{}

func (stubRenderer) RenderAnalysis(a *domain.ChannelAnalysis, format domain.ReportFormat) ([]byte, error) {
	if format != domain.FormatJSON && format != domain.FormatMarkdown && format != domain.FormatHTML {
		return nil, domain.ErrInvalidFormat
	}
	return []byte(fmt.Sprintf("%s analysis %s", format, a.ChannelID)), nil
}

func (stubRenderer) RenderComparison(r *domain.ComparisonReport, format domain.ReportFormat) ([]byte, error) {
	return []byte(fmt.Sprintf("%s comparison %s vs %s", format, r.SelfChannelID, r.CompetitorChannelID)), nil
}

// fakeGenerator records the last request.
type fakeGenerator struct {
	last domain.NarrativeRequest
	err  error
}

func (g *fakeGenerator) Model() string { return "fake-model" }

func (g *fakeGenerator) Generate(_ context.Context, req domain.NarrativeRequest) (domain.Draft, error) {
	g.last = req
	if g.err != nil {
		return domain.Draft{}, g.err
	}
	return domain.Draft{Content: "# Draft for " + req.Analysis.ChannelID, Model: "fake-fallback"}, nil
}

type fixture struct {
	provider *fakeProvider
	store    *memStore
	cache    *memCache
	analysis *AnalysisService
	channels *ChannelService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	engine, err := domain.NewEngine(domain.DefaultPolicy(), domain.WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)

	f := &fixture{
		provider: newFakeProvider(),
		store:    newMemStore(),
		cache:    newMemCache(),
	}
	f.analysis = NewAnalysisService(AnalysisDeps{
		Provider: f.provider,
		Engine:   engine,
		Channels: f.store,
		Videos:   f.store,
		Reports:  f.store,
		Renderer: stubRenderer{},
		Cache:    f.cache,
	}, time.Minute, 4, zap.NewNop())
	f.channels = NewChannelService(f.provider, f.store, f.store, f.analysis, 2, zap.NewNop())
	return f
}
