// Package config provides application configuration management using Viper.
// Configuration is loaded from YAML files and environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"channel-insight-service/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Refresh   RefreshConfig   `mapstructure:"refresh"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Cache     CacheConfig     `mapstructure:"cache"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string        `mapstructure:"name"`
	Env         string        `mapstructure:"env"` // development, staging, production
	Port        int           `mapstructure:"port"`
	Debug       bool          `mapstructure:"debug"`
	TemplateDir string        `mapstructure:"template_dir"`
	Timeout     time.Duration `mapstructure:"request_timeout"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Name         string        `mapstructure:"name"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	SSLMode      string        `mapstructure:"ssl_mode"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	MaxLifetime  time.Duration `mapstructure:"max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// ProviderConfig selects and configures the metrics provider.
type ProviderConfig struct {
	Kind    string        `mapstructure:"kind"` // youtube, feed, atom
	YouTube YouTubeConfig `mapstructure:"youtube"`
	Feed    FeedConfig    `mapstructure:"feed"`
	Atom    FeedConfig    `mapstructure:"atom"`
}

// YouTubeConfig holds YouTube Data API settings.
type YouTubeConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	Endpoint   string        `mapstructure:"endpoint"` // override for tests and proxies
	MaxVideos  int           `mapstructure:"max_videos"`
	DailyQuota int           `mapstructure:"daily_quota"`
	Timeout    time.Duration `mapstructure:"timeout"`
	CB         CBConfig      `mapstructure:"circuit_breaker"`
}

// FeedConfig holds settings for an HTTP feed provider (JSON feed or Atom).
type FeedConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retry   RetryConfig   `mapstructure:"retry"`
	CB      CBConfig      `mapstructure:"circuit_breaker"`
}

// RetryConfig holds retry settings.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	WaitTime    time.Duration `mapstructure:"wait_time"`
	MaxWaitTime time.Duration `mapstructure:"max_wait_time"`
}

// CBConfig holds circuit breaker settings.
type CBConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
}

// GeminiConfig holds narrative generation settings.
type GeminiConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	APIKey          string        `mapstructure:"api_key"`
	Model           string        `mapstructure:"model"`
	FallbackModels  []string      `mapstructure:"fallback_models"`
	Temperature     float32       `mapstructure:"temperature"`
	MaxOutputTokens int32         `mapstructure:"max_output_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// RefreshConfig holds background refresh worker settings.
type RefreshConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Interval    time.Duration `mapstructure:"interval"`
	OnStartup   bool          `mapstructure:"on_startup"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Concurrency int           `mapstructure:"concurrency"`
}

// AnalyticsConfig mirrors domain.Policy so every engine constant can be
// tuned from the config file or APP_ANALYTICS_* env vars.
type AnalyticsConfig struct {
	WindowDays int `mapstructure:"window_days"`

	Scoring struct {
		ViewWeight        float64 `mapstructure:"view_weight"`
		EngagementWeight  float64 `mapstructure:"engagement_weight"`
		RecencyWeight     float64 `mapstructure:"recency_weight"`
		ViewCapMultiplier float64 `mapstructure:"view_cap_multiplier"`
		EngagementCeiling float64 `mapstructure:"engagement_ceiling"`
		RecencyWindowDays float64 `mapstructure:"recency_window_days"`
	} `mapstructure:"scoring"`

	Classification struct {
		ViralPercentile   float64 `mapstructure:"viral_percentile"`
		HitPercentile     float64 `mapstructure:"hit_percentile"`
		AveragePercentile float64 `mapstructure:"average_percentile"`
		MinSampleSize     int     `mapstructure:"min_sample_size"`
		FallbackViral     float64 `mapstructure:"fallback_viral"`
		FallbackHit       float64 `mapstructure:"fallback_hit"`
		FallbackAverage   float64 `mapstructure:"fallback_average"`
	} `mapstructure:"classification"`

	Pattern struct {
		TopN             int     `mapstructure:"top_n"`
		ShortMaxSeconds  int64   `mapstructure:"short_max_seconds"`
		MediumMaxSeconds int64   `mapstructure:"medium_max_seconds"`
		TitleShortRunes  int     `mapstructure:"title_short_runes"`
		TitleLongRunes   int     `mapstructure:"title_long_runes"`
		TrendMinVideos   int     `mapstructure:"trend_min_videos"`
		TrendBandPercent float64 `mapstructure:"trend_band_percent"`
		Timezone         string  `mapstructure:"timezone"`
	} `mapstructure:"pattern"`

	Comparison struct {
		EvenBand          float64 `mapstructure:"even_band"`
		ViralDrivenRate   float64 `mapstructure:"viral_driven_rate"`
		FandomEngagement  float64 `mapstructure:"fandom_engagement"`
		TrafficDailyViews float64 `mapstructure:"traffic_daily_views"`
	} `mapstructure:"comparison"`

	Recommendation struct {
		MaxRecommendations int     `mapstructure:"max_recommendations"`
		StrongConfidence   float64 `mapstructure:"strong_confidence"`
	} `mapstructure:"recommendation"`
}

// Policy converts the analytics section into a validated domain.Policy.
func (c AnalyticsConfig) Policy() (domain.Policy, error) {
	loc := time.UTC
	if tz := c.Pattern.Timezone; tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return domain.Policy{}, fmt.Errorf("loading analytics timezone %q: %w", tz, err)
		}
		loc = l
	}

	p := domain.Policy{
		WindowDays: c.WindowDays,
		Scoring: domain.ScoringPolicy{
			ViewWeight:        c.Scoring.ViewWeight,
			EngagementWeight:  c.Scoring.EngagementWeight,
			RecencyWeight:     c.Scoring.RecencyWeight,
			ViewCapMultiplier: c.Scoring.ViewCapMultiplier,
			EngagementCeiling: c.Scoring.EngagementCeiling,
			RecencyWindowDays: c.Scoring.RecencyWindowDays,
		},
		Classification: domain.ClassificationPolicy{
			ViralPercentile:   c.Classification.ViralPercentile,
			HitPercentile:     c.Classification.HitPercentile,
			AveragePercentile: c.Classification.AveragePercentile,
			MinSampleSize:     c.Classification.MinSampleSize,
			FallbackViral:     c.Classification.FallbackViral,
			FallbackHit:       c.Classification.FallbackHit,
			FallbackAverage:   c.Classification.FallbackAverage,
		},
		Pattern: domain.PatternPolicy{
			TopN:             c.Pattern.TopN,
			ShortMaxSeconds:  c.Pattern.ShortMaxSeconds,
			MediumMaxSeconds: c.Pattern.MediumMaxSeconds,
			TitleShortRunes:  c.Pattern.TitleShortRunes,
			TitleLongRunes:   c.Pattern.TitleLongRunes,
			TrendMinVideos:   c.Pattern.TrendMinVideos,
			TrendBandPercent: c.Pattern.TrendBandPercent,
			Location:         loc,
		},
		Comparison: domain.ComparisonPolicy{
			EvenBand:          c.Comparison.EvenBand,
			ViralDrivenRate:   c.Comparison.ViralDrivenRate,
			FandomEngagement:  c.Comparison.FandomEngagement,
			TrafficDailyViews: c.Comparison.TrafficDailyViews,
		},
		Recommendation: domain.RecommendationPolicy{
			MaxRecommendations: c.Recommendation.MaxRecommendations,
			StrongConfidence:   c.Recommendation.StrongConfidence,
		},
	}
	if err := p.Validate(); err != nil {
		return domain.Policy{}, fmt.Errorf("invalid analytics config: %w", err)
	}
	return p, nil
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, file path
}

// SentryConfig holds Sentry error tracking settings.
type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// RedisConfig holds Redis connection settings for caching and locking.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CacheConfig holds caching settings.
type CacheConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	AnalysisTTL time.Duration `mapstructure:"analysis_ttl"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
}

// Load reads configuration from file and environment variables.
// Priority: env vars > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No file: defaults + env vars
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "channel-insight-service")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.debug", true)
	v.SetDefault("app.template_dir", "./web/templates")
	v.SetDefault("app.request_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "channel_insight")
	v.SetDefault("database.user", "app")
	v.SetDefault("database.password", "secret")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_lifetime", "5m")

	// Provider defaults
	v.SetDefault("provider.kind", "feed")
	v.SetDefault("provider.youtube.api_key", "")
	v.SetDefault("provider.youtube.endpoint", "")
	v.SetDefault("provider.youtube.max_videos", 50)
	v.SetDefault("provider.youtube.daily_quota", 10000)
	v.SetDefault("provider.youtube.timeout", "15s")
	v.SetDefault("provider.youtube.circuit_breaker.max_requests", 3)
	v.SetDefault("provider.youtube.circuit_breaker.interval", "60s")
	v.SetDefault("provider.youtube.circuit_breaker.timeout", "30s")
	v.SetDefault("provider.youtube.circuit_breaker.failure_ratio", 0.5)

	v.SetDefault("provider.feed.base_url", "http://localhost:8081")
	v.SetDefault("provider.feed.timeout", "10s")
	v.SetDefault("provider.feed.retry.max_attempts", 3)
	v.SetDefault("provider.feed.retry.wait_time", "1s")
	v.SetDefault("provider.feed.retry.max_wait_time", "5s")
	v.SetDefault("provider.feed.circuit_breaker.max_requests", 3)
	v.SetDefault("provider.feed.circuit_breaker.interval", "60s")
	v.SetDefault("provider.feed.circuit_breaker.timeout", "30s")
	v.SetDefault("provider.feed.circuit_breaker.failure_ratio", 0.5)

	v.SetDefault("provider.atom.base_url", "https://www.youtube.com")
	v.SetDefault("provider.atom.timeout", "10s")
	v.SetDefault("provider.atom.retry.max_attempts", 2)
	v.SetDefault("provider.atom.retry.wait_time", "1s")
	v.SetDefault("provider.atom.retry.max_wait_time", "5s")
	v.SetDefault("provider.atom.circuit_breaker.max_requests", 3)
	v.SetDefault("provider.atom.circuit_breaker.interval", "60s")
	v.SetDefault("provider.atom.circuit_breaker.timeout", "30s")
	v.SetDefault("provider.atom.circuit_breaker.failure_ratio", 0.5)

	// Gemini defaults
	v.SetDefault("gemini.enabled", false)
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.fallback_models", []string{"gemini-2.0-flash", "gemini-2.5-flash-lite"})
	v.SetDefault("gemini.temperature", 0.7)
	v.SetDefault("gemini.max_output_tokens", 2048)
	v.SetDefault("gemini.timeout", "60s")

	// Refresh defaults
	v.SetDefault("refresh.enabled", true)
	v.SetDefault("refresh.interval", "1h")
	v.SetDefault("refresh.on_startup", false)
	v.SetDefault("refresh.timeout", "5m")
	v.SetDefault("refresh.concurrency", 4)

	// Analytics defaults
	def := domain.DefaultPolicy()
	v.SetDefault("analytics.window_days", def.WindowDays)
	v.SetDefault("analytics.scoring.view_weight", def.Scoring.ViewWeight)
	v.SetDefault("analytics.scoring.engagement_weight", def.Scoring.EngagementWeight)
	v.SetDefault("analytics.scoring.recency_weight", def.Scoring.RecencyWeight)
	v.SetDefault("analytics.scoring.view_cap_multiplier", def.Scoring.ViewCapMultiplier)
	v.SetDefault("analytics.scoring.engagement_ceiling", def.Scoring.EngagementCeiling)
	v.SetDefault("analytics.scoring.recency_window_days", def.Scoring.RecencyWindowDays)
	v.SetDefault("analytics.classification.viral_percentile", def.Classification.ViralPercentile)
	v.SetDefault("analytics.classification.hit_percentile", def.Classification.HitPercentile)
	v.SetDefault("analytics.classification.average_percentile", def.Classification.AveragePercentile)
	v.SetDefault("analytics.classification.min_sample_size", def.Classification.MinSampleSize)
	v.SetDefault("analytics.classification.fallback_viral", def.Classification.FallbackViral)
	v.SetDefault("analytics.classification.fallback_hit", def.Classification.FallbackHit)
	v.SetDefault("analytics.classification.fallback_average", def.Classification.FallbackAverage)
	v.SetDefault("analytics.pattern.top_n", def.Pattern.TopN)
	v.SetDefault("analytics.pattern.short_max_seconds", def.Pattern.ShortMaxSeconds)
	v.SetDefault("analytics.pattern.medium_max_seconds", def.Pattern.MediumMaxSeconds)
	v.SetDefault("analytics.pattern.title_short_runes", def.Pattern.TitleShortRunes)
	v.SetDefault("analytics.pattern.title_long_runes", def.Pattern.TitleLongRunes)
	v.SetDefault("analytics.pattern.trend_min_videos", def.Pattern.TrendMinVideos)
	v.SetDefault("analytics.pattern.trend_band_percent", def.Pattern.TrendBandPercent)
	v.SetDefault("analytics.pattern.timezone", "UTC")
	v.SetDefault("analytics.comparison.even_band", def.Comparison.EvenBand)
	v.SetDefault("analytics.comparison.viral_driven_rate", def.Comparison.ViralDrivenRate)
	v.SetDefault("analytics.comparison.fandom_engagement", def.Comparison.FandomEngagement)
	v.SetDefault("analytics.comparison.traffic_daily_views", def.Comparison.TrafficDailyViews)
	v.SetDefault("analytics.recommendation.max_recommendations", def.Recommendation.MaxRecommendations)
	v.SetDefault("analytics.recommendation.strong_confidence", def.Recommendation.StrongConfidence)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stdout")

	// Sentry defaults
	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.sample_rate", 1.0)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.analysis_ttl", "15m")
	v.SetDefault("cache.key_prefix", "channel-insight")
}
