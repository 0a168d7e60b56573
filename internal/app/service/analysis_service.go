package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"channel-insight-service/internal/domain"
	"channel-insight-service/internal/metrics"
)

// MaxCompetitors bounds one comparison request.
const MaxCompetitors = 5

const (
	kindChannel    = "channel"
	kindComparison = "comparison"
)

// AnalysisService runs the analytics engine on freshly fetched channel data.
type AnalysisService struct {
	ingestor
	engine      *domain.Engine
	reports     domain.ReportRepository
	renderer    domain.ReportRenderer
	cache       domain.Cache
	cacheTTL    time.Duration
	concurrency int
}

// AnalysisDeps groups AnalysisService collaborators. Cache may be nil.
type AnalysisDeps struct {
	Provider domain.MetricsProvider
	Engine   *domain.Engine
	Channels domain.ChannelRepository
	Videos   domain.VideoRepository
	Reports  domain.ReportRepository
	Renderer domain.ReportRenderer
	Cache    domain.Cache
}

// NewAnalysisService creates a new AnalysisService.
func NewAnalysisService(deps AnalysisDeps, cacheTTL time.Duration, concurrency int, logger *zap.Logger) *AnalysisService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &AnalysisService{
		ingestor: ingestor{
			provider: deps.Provider,
			channels: deps.Channels,
			videos:   deps.Videos,
			logger:   logger,
			now:      func() time.Time { return time.Now().UTC() },
		},
		engine:      deps.Engine,
		reports:     deps.Reports,
		renderer:    deps.Renderer,
		cache:       deps.Cache,
		cacheTTL:    cacheTTL,
		concurrency: concurrency,
	}
}

// ComparisonResult is self compared against each competitor, plus self's
// rank among all of them.
type ComparisonResult struct {
	SelfChannelID string                     `json:"self_channel_id"`
	Reports       []*domain.ComparisonReport `json:"reports"`
	Rankings      []domain.Ranking           `json:"rankings"`

	Self *domain.ChannelAnalysis `json:"-"`
}

// Analyze returns the analysis of one channel, from cache when fresh.
func (s *AnalysisService) Analyze(ctx context.Context, channelID string) (*domain.ChannelAnalysis, error) {
	start := time.Now()

	if a := s.cached(ctx, channelID); a != nil {
		metrics.RecordAnalysis(kindChannel, metrics.OutcomeCached, time.Since(start))
		return a, nil
	}

	a, err := s.analyzeFresh(ctx, channelID)
	if err != nil {
		metrics.RecordAnalysis(kindChannel, outcomeOf(err), time.Since(start))
		return nil, err
	}
	metrics.RecordAnalysis(kindChannel, metrics.OutcomeOK, time.Since(start))

	s.store(ctx, channelID, domain.ReportKindChannel, a)
	s.cacheAnalysis(ctx, channelID, a)
	return a, nil
}

func (s *AnalysisService) analyzeFresh(ctx context.Context, channelID string) (*domain.ChannelAnalysis, error) {
	in, err := s.ingest(ctx, channelID)
	if err != nil {
		return nil, err
	}

	a, err := s.engine.AnalyzeMetrics(channelID, in.Metrics, in.Diagnostics)
	if err != nil {
		return nil, fmt.Errorf("analyzing channel %s: %w", channelID, err)
	}
	metrics.RecordDiagnostics(a.Diagnostics)

	s.logger.Info("channel analyzed",
		zap.String("channel_id", channelID),
		zap.Int("videos", a.Snapshot.VideoCount()),
		zap.Int("skipped", a.Diagnostics.Skipped),
		zap.Int("excluded", a.Diagnostics.Excluded),
		zap.String("strategy", string(a.Strategy)),
	)
	return a, nil
}

// Compare analyzes self and every competitor concurrently, then compares
// self against each. Any failed analysis fails the whole comparison.
func (s *AnalysisService) Compare(ctx context.Context, selfID string, competitorIDs []string) (*ComparisonResult, error) {
	start := time.Now()

	competitorIDs = uniqueExcept(competitorIDs, selfID)
	if len(competitorIDs) == 0 {
		return nil, &domain.ValidationError{Op: "compare", Reason: "at least one competitor distinct from the channel is required"}
	}
	if len(competitorIDs) > MaxCompetitors {
		return nil, &domain.ValidationError{Op: "compare", Reason: fmt.Sprintf("at most %d competitors are allowed", MaxCompetitors)}
	}

	ids := append([]string{selfID}, competitorIDs...)
	analyses := make([]*domain.ChannelAnalysis, len(ids))

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError().WithMaxGoroutines(s.concurrency)
	for i, id := range ids {
		p.Go(func(ctx context.Context) error {
			a, err := s.Analyze(ctx, id)
			if err != nil {
				return err
			}
			analyses[i] = a
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		metrics.RecordAnalysis(kindComparison, outcomeOf(err), time.Since(start))
		return nil, err
	}

	self, competitors := analyses[0], analyses[1:]
	result := &ComparisonResult{SelfChannelID: selfID, Self: self}
	for _, c := range competitors {
		report, err := s.engine.Compare(self, c)
		if err != nil {
			metrics.RecordAnalysis(kindComparison, outcomeOf(err), time.Since(start))
			return nil, fmt.Errorf("comparing %s with %s: %w", selfID, c.ChannelID, err)
		}
		result.Reports = append(result.Reports, report)
		s.store(ctx, selfID, domain.ReportKindComparison, report)
	}

	rankings, err := s.engine.Rank(self, competitors)
	if err != nil {
		metrics.RecordAnalysis(kindComparison, outcomeOf(err), time.Since(start))
		return nil, fmt.Errorf("ranking %s: %w", selfID, err)
	}
	result.Rankings = rankings

	metrics.RecordAnalysis(kindComparison, metrics.OutcomeOK, time.Since(start))
	s.logger.Info("comparison completed",
		zap.String("channel_id", selfID),
		zap.Strings("competitors", competitorIDs),
	)
	return result, nil
}

// Report renders the analysis of one channel.
func (s *AnalysisService) Report(ctx context.Context, channelID string, format domain.ReportFormat) ([]byte, error) {
	a, err := s.Analyze(ctx, channelID)
	if err != nil {
		return nil, err
	}
	return s.renderer.RenderAnalysis(a, format)
}

// ComparisonReport renders self against a single competitor.
func (s *AnalysisService) ComparisonReport(ctx context.Context, selfID, competitorID string, format domain.ReportFormat) ([]byte, error) {
	result, err := s.Compare(ctx, selfID, []string{competitorID})
	if err != nil {
		return nil, err
	}
	return s.renderer.RenderComparison(result.Reports[0], format)
}

// Latest returns the most recently stored analysis without fetching.
func (s *AnalysisService) Latest(ctx context.Context, channelID string) (*domain.ChannelAnalysis, error) {
	stored, err := s.reports.LatestReport(ctx, channelID, domain.ReportKindChannel)
	if err != nil {
		return nil, err
	}
	var a domain.ChannelAnalysis
	if err := json.Unmarshal(stored.Payload, &a); err != nil {
		return nil, fmt.Errorf("decoding stored report %s: %w", stored.ID, err)
	}
	return &a, nil
}

// InvalidateChannel drops cached results that include channelID.
func (s *AnalysisService) InvalidateChannel(ctx context.Context, channelID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, analysisKey(channelID)); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("channel_id", channelID), zap.Error(err))
	}
}

// ClearCache drops every cached analysis.
func (s *AnalysisService) ClearCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Clear(ctx)
}

func (s *AnalysisService) cached(ctx context.Context, channelID string) *domain.ChannelAnalysis {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, analysisKey(channelID))
	if err != nil || data == nil {
		return nil
	}
	var a domain.ChannelAnalysis
	if err := json.Unmarshal(data, &a); err != nil {
		s.logger.Warn("discarding unreadable cache entry", zap.String("channel_id", channelID), zap.Error(err))
		return nil
	}
	return &a
}

func (s *AnalysisService) cacheAnalysis(ctx context.Context, channelID string, a *domain.ChannelAnalysis) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(a)
	if err != nil {
		s.logger.Warn("encoding analysis for cache failed", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, analysisKey(channelID), data, s.cacheTTL); err != nil {
		s.logger.Warn("caching analysis failed", zap.String("channel_id", channelID), zap.Error(err))
	}
}

// store keeps a report for history. Failures are logged; the result is
// still returned to the caller.
func (s *AnalysisService) store(ctx context.Context, channelID string, kind domain.ReportKind, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encoding report failed", zap.String("channel_id", channelID), zap.Error(err))
		return
	}
	rep := &domain.StoredReport{
		ChannelID: channelID,
		Kind:      kind,
		Payload:   payload,
		CreatedAt: s.now(),
	}
	if err := s.reports.SaveReport(ctx, rep); err != nil {
		s.logger.Error("saving report failed",
			zap.String("channel_id", channelID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}

func analysisKey(channelID string) string {
	return "analysis:" + channelID
}

func outcomeOf(err error) string {
	if domain.IsValidationError(err) {
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeError
}

// uniqueExcept trims ids, drops blanks, duplicates and self, keeping order.
func uniqueExcept(ids []string, self string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || id == self || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}
