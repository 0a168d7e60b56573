package domain

import (
	"context"
	"time"
)

// MetricsProvider fetches raw video rows for a channel from a video platform.
// Implementations: internal/infra/youtube/, internal/infra/provider/feed/
type MetricsProvider interface {
	// Name returns the unique identifier for this provider.
	Name() string

	// FetchChannel returns channel metadata and its raw per-video records.
	// Failures wrap ErrNotFound, ErrRateLimited or ErrUnavailable. A failed
	// fetch returns no records at all.
	FetchChannel(ctx context.Context, channelID string) (*ChannelFeed, error)

	// HealthCheck verifies the provider is accessible.
	HealthCheck(ctx context.Context) error
}

// ChannelRepository persists tracked channels.
// Implementations: internal/infra/postgres/repository.go
type ChannelRepository interface {
	// UpsertChannel creates or updates a channel by ID.
	UpsertChannel(ctx context.Context, ch *TrackedChannel) error

	// GetChannel returns ErrNotFound for unknown IDs.
	GetChannel(ctx context.Context, id string) (*TrackedChannel, error)

	// ListChannels returns all tracked channels ordered by creation time.
	ListChannels(ctx context.Context) ([]*TrackedChannel, error)

	// MarkRefreshed records a successful fetch.
	MarkRefreshed(ctx context.Context, id string, at time.Time) error
}

// VideoRepository persists raw video rows. Derived fields are never stored.
type VideoRepository interface {
	// SaveVideos upserts raw rows for a channel.
	SaveVideos(ctx context.Context, channelID string, videos []VideoMetric) error

	// ListVideos returns stored raw rows ordered by publish time.
	ListVideos(ctx context.Context, channelID string) ([]VideoMetric, error)
}

// ReportKind distinguishes stored report payloads.
type ReportKind string

const (
	ReportKindChannel    ReportKind = "channel"
	ReportKindComparison ReportKind = "comparison"
)

// StoredReport is a serialized analysis kept for history.
type StoredReport struct {
	ID        string     `json:"id"`
	ChannelID string     `json:"channel_id"`
	Kind      ReportKind `json:"kind"`
	Payload   []byte     `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
}

// Narrative is generated free text about a channel.
type Narrative struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channel_id"`
	Topic     string    `json:"topic"`
	Model     string    `json:"model"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ReportRepository persists analysis payloads and narratives.
type ReportRepository interface {
	SaveReport(ctx context.Context, r *StoredReport) error

	// LatestReport returns ErrNotFound if nothing is stored.
	LatestReport(ctx context.Context, channelID string, kind ReportKind) (*StoredReport, error)

	SaveNarrative(ctx context.Context, n *Narrative) error
	ListNarratives(ctx context.Context, channelID string, limit int) ([]*Narrative, error)
}

// Cache defines the interface for caching operations.
// Implementations: internal/infra/redis/cache.go
type Cache interface {
	// Get retrieves a value by key. Returns nil if not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error

	// Clear removes all cached values.
	Clear(ctx context.Context) error
}

// NarrativeRequest is the input to a NarrativeGenerator.
type NarrativeRequest struct {
	ChannelTitle string
	Topic        string
	Analysis     *ChannelAnalysis
	Comparison   *ComparisonReport
}

// Draft is generated text and the model that produced it.
type Draft struct {
	Content string
	Model   string
}

// NarrativeGenerator drafts free text from analysis results.
// Implementations: internal/infra/gemini/
type NarrativeGenerator interface {
	// Model returns the preferred model name.
	Model() string

	// Generate may fall back to other models; Draft.Model names the one used.
	Generate(ctx context.Context, req NarrativeRequest) (Draft, error)
}

// ReportFormat is an export format for rendered reports.
type ReportFormat string

const (
	FormatJSON     ReportFormat = "json"
	FormatMarkdown ReportFormat = "markdown"
	FormatHTML     ReportFormat = "html"
)

// ReportRenderer turns analysis results into a document. It only reads fields.
// Implementations: internal/infra/report/
type ReportRenderer interface {
	RenderAnalysis(a *ChannelAnalysis, format ReportFormat) ([]byte, error)
	RenderComparison(r *ComparisonReport, format ReportFormat) ([]byte, error)
}
