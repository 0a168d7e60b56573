package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"channel-insight-service/internal/domain"
)

const (
	defaultNarrativeLimit = 20
	maxNarrativeLimit     = 100
)

// NarrativeService drafts blog-style narratives from channel analyses.
type NarrativeService struct {
	analysis  *AnalysisService
	channels  domain.ChannelRepository
	reports   domain.ReportRepository
	generator domain.NarrativeGenerator
	logger    *zap.Logger
	now       func() time.Time
}

// NewNarrativeService creates a new NarrativeService. A nil generator
// disables generation; listing still works.
func NewNarrativeService(
	analysis *AnalysisService,
	channels domain.ChannelRepository,
	reports domain.ReportRepository,
	generator domain.NarrativeGenerator,
	logger *zap.Logger,
) *NarrativeService {
	return &NarrativeService{
		analysis:  analysis,
		channels:  channels,
		reports:   reports,
		generator: generator,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Enabled reports whether a generator is configured.
func (s *NarrativeService) Enabled() bool {
	return s.generator != nil
}

// Generate analyzes the channel, optionally compares it with one competitor,
// drafts a narrative and stores it.
func (s *NarrativeService) Generate(ctx context.Context, channelID, topic, competitorID string) (*domain.Narrative, error) {
	if s.generator == nil {
		return nil, domain.ErrNarrativeOff
	}

	req := domain.NarrativeRequest{Topic: strings.TrimSpace(topic)}

	if competitorID != "" {
		result, err := s.analysis.Compare(ctx, channelID, []string{competitorID})
		if err != nil {
			return nil, err
		}
		req.Analysis = result.Self
		req.Comparison = result.Reports[0]
	} else {
		a, err := s.analysis.Analyze(ctx, channelID)
		if err != nil {
			return nil, err
		}
		req.Analysis = a
	}

	if ch, err := s.channels.GetChannel(ctx, channelID); err == nil {
		req.ChannelTitle = ch.Title
	} else if !errors.Is(err, domain.ErrNotFound) {
		s.logger.Warn("channel lookup for narrative failed", zap.String("channel_id", channelID), zap.Error(err))
	}

	draft, err := s.generator.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generating narrative for %s: %w", channelID, err)
	}

	n := &domain.Narrative{
		ChannelID: channelID,
		Topic:     req.Topic,
		Model:     draft.Model,
		Content:   draft.Content,
		CreatedAt: s.now(),
	}
	if err := s.reports.SaveNarrative(ctx, n); err != nil {
		return nil, fmt.Errorf("saving narrative for %s: %w", channelID, err)
	}

	s.logger.Info("narrative saved",
		zap.String("channel_id", channelID),
		zap.String("narrative_id", n.ID),
		zap.String("model", n.Model),
	)
	return n, nil
}

// List returns the newest narratives for a channel. limit <= 0 uses the
// default; larger values are capped.
func (s *NarrativeService) List(ctx context.Context, channelID string, limit int) ([]*domain.Narrative, error) {
	switch {
	case limit <= 0:
		limit = defaultNarrativeLimit
	case limit > maxNarrativeLimit:
		limit = maxNarrativeLimit
	}
	return s.reports.ListNarratives(ctx, channelID, limit)
}
