package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"channel-insight-service/internal/domain"
)

const batchSize = 100

// Repository implements domain.ChannelRepository, domain.VideoRepository and
// domain.ReportRepository on PostgreSQL.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UpsertChannel creates or updates a channel by ID. CreatedAt is preserved
// on update.
func (r *Repository) UpsertChannel(ctx context.Context, ch *domain.TrackedChannel) error {
	model := channelFromDomain(ch)
	model.UpdatedAt = time.Now().UTC()

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "subscribers", "competitor", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		return fmt.Errorf("upserting channel %s: %w", ch.ID, err)
	}

	stored, err := r.GetChannel(ctx, ch.ID)
	if err != nil {
		return err
	}
	*ch = *stored

	return nil
}

// GetChannel returns domain.ErrNotFound for unknown IDs.
func (r *Repository) GetChannel(ctx context.Context, id string) (*domain.TrackedChannel, error) {
	var model ChannelModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("channel %s: %w", id, domain.ErrNotFound)
		}

		return nil, fmt.Errorf("getting channel %s: %w", id, err)
	}

	return model.ToDomain(), nil
}

// ListChannels returns all tracked channels, oldest first.
func (r *Repository) ListChannels(ctx context.Context) ([]*domain.TrackedChannel, error) {
	var models []ChannelModel
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("listing channels: %w", err)
	}

	channels := make([]*domain.TrackedChannel, len(models))
	for i := range models {
		channels[i] = models[i].ToDomain()
	}

	return channels, nil
}

// MarkRefreshed records a successful fetch.
func (r *Repository) MarkRefreshed(ctx context.Context, id string, at time.Time) error {
	at = at.UTC()
	res := r.db.WithContext(ctx).
		Model(&ChannelModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"last_refreshed_at": at, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("marking channel %s refreshed: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("channel %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// SaveVideos upserts raw rows for a channel. Derived fields on the input
// are ignored.
func (r *Repository) SaveVideos(ctx context.Context, channelID string, videos []domain.VideoMetric) error {
	if len(videos) == 0 {
		return nil
	}

	now := time.Now().UTC()
	models := make([]*VideoModel, len(videos))
	for i, v := range videos {
		models[i] = videoFromDomain(channelID, v, now)
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "channel_id"}, {Name: "video_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "tags", "published_at", "duration_seconds",
			"views", "likes", "comments", "updated_at",
		}),
	}).CreateInBatches(models, batchSize).Error
	if err != nil {
		return fmt.Errorf("saving videos for %s: %w", channelID, err)
	}

	return nil
}

// ListVideos returns stored raw rows ordered by publish time.
func (r *Repository) ListVideos(ctx context.Context, channelID string) ([]domain.VideoMetric, error) {
	var models []VideoModel
	err := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("published_at ASC, video_id ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("listing videos for %s: %w", channelID, err)
	}

	videos := make([]domain.VideoMetric, len(models))
	for i := range models {
		videos[i] = models[i].ToDomain()
	}

	return videos, nil
}

// SaveReport stores a serialized report, assigning an ID if missing.
func (r *Repository) SaveReport(ctx context.Context, rep *domain.StoredReport) error {
	if rep.ID == "" {
		rep.ID = uuid.NewString()
	}
	model := &ReportModel{
		ID:        rep.ID,
		ChannelID: rep.ChannelID,
		Kind:      string(rep.Kind),
		Payload:   rep.Payload,
		CreatedAt: rep.CreatedAt,
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("saving %s report for %s: %w", rep.Kind, rep.ChannelID, err)
	}
	rep.CreatedAt = model.CreatedAt

	return nil
}

// LatestReport returns the newest report of a kind, or domain.ErrNotFound.
func (r *Repository) LatestReport(ctx context.Context, channelID string, kind domain.ReportKind) (*domain.StoredReport, error) {
	var model ReportModel
	err := r.db.WithContext(ctx).
		Where("channel_id = ? AND kind = ?", channelID, string(kind)).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s report for %s: %w", kind, channelID, domain.ErrNotFound)
		}

		return nil, fmt.Errorf("getting latest %s report for %s: %w", kind, channelID, err)
	}

	return model.ToDomain(), nil
}

// SaveNarrative stores a generated narrative, assigning an ID if missing.
func (r *Repository) SaveNarrative(ctx context.Context, n *domain.Narrative) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	model := &NarrativeModel{
		ID:        n.ID,
		ChannelID: n.ChannelID,
		Topic:     n.Topic,
		Model:     n.Model,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("saving narrative for %s: %w", n.ChannelID, err)
	}
	n.CreatedAt = model.CreatedAt

	return nil
}

// ListNarratives returns the newest narratives first. A limit <= 0 returns all.
func (r *Repository) ListNarratives(ctx context.Context, channelID string, limit int) ([]*domain.Narrative, error) {
	query := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []NarrativeModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("listing narratives for %s: %w", channelID, err)
	}

	narratives := make([]*domain.Narrative, len(models))
	for i := range models {
		narratives[i] = models[i].ToDomain()
	}

	return narratives, nil
}
