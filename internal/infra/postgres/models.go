package postgres

import (
	"time"

	"github.com/lib/pq"

	"channel-insight-service/internal/domain"
)

// ChannelModel is the GORM model for the channels table.
type ChannelModel struct {
	ID              string `gorm:"type:varchar(64);primaryKey"`
	Title           string `gorm:"type:text;not null;default:''"`
	Subscribers     int64  `gorm:"default:0"`
	Competitor      bool   `gorm:"not null;default:false"`
	LastRefreshedAt *time.Time
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for ChannelModel.
func (ChannelModel) TableName() string {
	return "channels"
}

// ToDomain converts ChannelModel to domain.TrackedChannel.
func (m *ChannelModel) ToDomain() *domain.TrackedChannel {
	return &domain.TrackedChannel{
		ID:              m.ID,
		Title:           m.Title,
		Subscribers:     m.Subscribers,
		Competitor:      m.Competitor,
		LastRefreshedAt: m.LastRefreshedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func channelFromDomain(c *domain.TrackedChannel) *ChannelModel {
	return &ChannelModel{
		ID:              c.ID,
		Title:           c.Title,
		Subscribers:     c.Subscribers,
		Competitor:      c.Competitor,
		LastRefreshedAt: c.LastRefreshedAt,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// VideoModel is one raw video row. Scores and tiers are never stored; they
// depend on the rest of the channel and are recomputed per analysis.
type VideoModel struct {
	ChannelID       string         `gorm:"type:varchar(64);primaryKey"`
	VideoID         string         `gorm:"type:text;primaryKey"`
	Title           string         `gorm:"type:text;not null;default:''"`
	Tags            pq.StringArray `gorm:"type:text[]"`
	PublishedAt     time.Time      `gorm:"not null"`
	DurationSeconds int64          `gorm:"default:0"`
	Views           int64          `gorm:"default:0"`
	Likes           int64          `gorm:"default:0"`
	Comments        int64          `gorm:"default:0"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime"`
}

// TableName returns the table name for VideoModel.
func (VideoModel) TableName() string {
	return "video_metrics"
}

// ToDomain converts VideoModel to a raw domain.VideoMetric.
func (m *VideoModel) ToDomain() domain.VideoMetric {
	return domain.VideoMetric{
		ID:              m.VideoID,
		Title:           m.Title,
		Tags:            []string(m.Tags),
		PublishedAt:     m.PublishedAt.UTC(),
		DurationSeconds: m.DurationSeconds,
		Views:           m.Views,
		Likes:           m.Likes,
		Comments:        m.Comments,
	}
}

func videoFromDomain(channelID string, v domain.VideoMetric, now time.Time) *VideoModel {
	return &VideoModel{
		ChannelID:       channelID,
		VideoID:         v.ID,
		Title:           v.Title,
		Tags:            pq.StringArray(v.Tags),
		PublishedAt:     v.PublishedAt.UTC(),
		DurationSeconds: v.DurationSeconds,
		Views:           v.Views,
		Likes:           v.Likes,
		Comments:        v.Comments,
		UpdatedAt:       now,
	}
}

// ReportModel is a serialized analysis result.
type ReportModel struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	ChannelID string    `gorm:"type:varchar(64);not null"`
	Kind      string    `gorm:"type:varchar(20);not null"`
	Payload   []byte    `gorm:"type:jsonb;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for ReportModel.
func (ReportModel) TableName() string {
	return "analysis_reports"
}

// ToDomain converts ReportModel to domain.StoredReport.
func (m *ReportModel) ToDomain() *domain.StoredReport {
	return &domain.StoredReport{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Kind:      domain.ReportKind(m.Kind),
		Payload:   m.Payload,
		CreatedAt: m.CreatedAt,
	}
}

// NarrativeModel is a generated narrative.
type NarrativeModel struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	ChannelID string    `gorm:"type:varchar(64);not null"`
	Topic     string    `gorm:"type:varchar(300);not null;default:''"`
	Model     string    `gorm:"type:varchar(100);not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for NarrativeModel.
func (NarrativeModel) TableName() string {
	return "narratives"
}

// ToDomain converts NarrativeModel to domain.Narrative.
func (m *NarrativeModel) ToDomain() *domain.Narrative {
	return &domain.Narrative{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Topic:     m.Topic,
		Model:     m.Model,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}
