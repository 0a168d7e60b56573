package httpserver

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"channel-insight-service/internal/app/service"
	"channel-insight-service/internal/domain"
	"channel-insight-service/internal/transport/httpserver/middleware"
	"channel-insight-service/internal/validator"
)

type routerChannels struct{}

func (routerChannels) Track(_ context.Context, id, title string, competitor bool) (*domain.TrackedChannel, error) {
	return domain.NewTrackedChannel(id, title, competitor), nil
}

func (routerChannels) List(context.Context) ([]*domain.TrackedChannel, error) {
	return []*domain.TrackedChannel{
		domain.NewTrackedChannel("UCa", "Alpha <Studio>", false),
		domain.NewTrackedChannel("UCb", "", true),
	}, nil
}

func (routerChannels) Get(_ context.Context, id string) (*domain.TrackedChannel, error) {
	return domain.NewTrackedChannel(id, "", false), nil
}

func (routerChannels) Videos(context.Context, string) ([]domain.VideoMetric, error) { return nil, nil }

func (routerChannels) RefreshAll(context.Context) ([]service.RefreshResult, error) { return nil, nil }

func (routerChannels) ProviderName() string { return "feed" }

func (routerChannels) ProviderHealth(context.Context) error { return nil }

type routerAnalysis struct{}

func (routerAnalysis) Analyze(_ context.Context, id string) (*domain.ChannelAnalysis, error) {
	return &domain.ChannelAnalysis{ChannelID: id, Snapshot: &domain.ChannelSnapshot{}}, nil
}

func (routerAnalysis) Latest(_ context.Context, id string) (*domain.ChannelAnalysis, error) {
	if id == "UCb" {
		return nil, domain.ErrNotFound
	}
	return &domain.ChannelAnalysis{ChannelID: id, Snapshot: &domain.ChannelSnapshot{MeanViews: 1234}}, nil
}

func (routerAnalysis) Compare(context.Context, string, []string) (*service.ComparisonResult, error) {
	return &service.ComparisonResult{}, nil
}

func (routerAnalysis) Report(context.Context, string, domain.ReportFormat) ([]byte, error) {
	return []byte("{}"), nil
}

func (routerAnalysis) ComparisonReport(context.Context, string, string, domain.ReportFormat) ([]byte, error) {
	return []byte("{}"), nil
}

func (routerAnalysis) ClearCache(context.Context) error { return nil }

type routerNarratives struct{}

func (routerNarratives) Enabled() bool { return false }

func (routerNarratives) Generate(context.Context, string, string, string) (*domain.Narrative, error) {
	return nil, domain.ErrNarrativeOff
}

func (routerNarratives) List(context.Context, string, int) ([]*domain.Narrative, error) {
	return nil, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(
		ServerConfig{BodyLimit: 1 << 20, TemplateDir: "../../../web/templates"},
		Services{Channels: routerChannels{}, Analysis: routerAnalysis{}, Narratives: routerNarratives{}},
		[]middleware.ReadinessCheck{func(context.Context) error { return nil }},
		validator.New(),
		zap.NewNop(),
	)
}

func TestServer_Routes(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{"GET", "/livez", 200},
		{"GET", "/readyz", 200},
		{"GET", "/api/v1/channels", 200},
		{"GET", "/api/v1/channels/UCa", 200},
		{"GET", "/api/v1/channels/UCa/analysis", 200},
		{"GET", "/api/v1/channels/UCa/report?format=json", 200},
		{"GET", "/api/v1/channels/UCa/compare/UCb", 200},
		{"POST", "/api/v1/channels/UCa/narratives", 503},
		{"GET", "/api/v1/admin/provider", 200},
		{"DELETE", "/api/v1/admin/cache", 204},
		{"GET", "/api/v1/unknown", 404},
		{"GET", "/", 302},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp, err := srv.App.Test(httptest.NewRequest(tt.method, tt.path, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestServer_Dashboard(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.App.Test(httptest.NewRequest("GET", "/dashboard", nil), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	html := string(body)
	assert.Contains(t, html, "Channel Insight Dashboard")
	assert.Contains(t, html, "Alpha &lt;Studio&gt;")
	assert.Contains(t, html, "1234")
	assert.Contains(t, html, "not analyzed yet")
}

func TestServer_Metrics(t *testing.T) {
	srv := newTestServer(t)

	_, err := srv.App.Test(httptest.NewRequest("GET", "/api/v1/channels", nil), -1)
	require.NoError(t, err)

	resp, err := srv.App.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "api_requests_total")
}
