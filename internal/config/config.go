package config

import (
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/pricewatch-cli/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Sources  SourcesConfig  `yaml:"sources" mapstructure:"sources"`
	Scoring  ScoringConfig  `yaml:"scoring" mapstructure:"scoring"`
	Selector SelectorConfig `yaml:"selector" mapstructure:"selector"`
	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
	Report   ReportConfig   `yaml:"report" mapstructure:"report"`
	Run      RunConfig      `yaml:"run" mapstructure:"run"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`

	VendorDictionaryPath string `yaml:"vendor_dictionary_path" mapstructure:"vendor_dictionary_path"`
	KeywordsPath         string `yaml:"keywords_path" mapstructure:"keywords_path"`
}

// SourcesConfig groups the per-source fetch settings.
type SourcesConfig struct {
	Forum   ForumConfig     `yaml:"forum" mapstructure:"forum"`
	Search  SearchConfig    `yaml:"search" mapstructure:"search"`
	Retry   RetrySettings   `yaml:"retry" mapstructure:"retry"`
	Circuit CircuitSettings `yaml:"circuit" mapstructure:"circuit"`
}

// RetrySettings tunes the shared fetch retry policy.
type RetrySettings struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMS int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMS     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// CircuitSettings tunes the per-source circuit breaker.
type CircuitSettings struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSec  int `yaml:"reset_timeout_sec" mapstructure:"reset_timeout_sec"`
}

// ForumConfig configures the forum fetcher.
type ForumConfig struct {
	SubChannels         []string `yaml:"sub_channels" mapstructure:"sub_channels"`
	Listings            []string `yaml:"listings" mapstructure:"listings"`
	RatePerSec          float64  `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	MinUpvotes          int      `yaml:"min_upvotes" mapstructure:"min_upvotes"`
	MinComments         int      `yaml:"min_comments" mapstructure:"min_comments"`
	WindowHours         int      `yaml:"window_hours" mapstructure:"window_hours"`
	FallbackWindowHours int      `yaml:"fallback_window_hours" mapstructure:"fallback_window_hours"`
	FallbackThreshold   int      `yaml:"fallback_threshold" mapstructure:"fallback_threshold"`
	ClientID            string   `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret        string   `yaml:"client_secret" mapstructure:"client_secret"`
	UserAgent           string   `yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig configures the web-search fetcher.
type SearchConfig struct {
	Queries         []string `yaml:"queries" mapstructure:"queries"`
	ResultsPerQuery int      `yaml:"results_per_query" mapstructure:"results_per_query"`
	DateRestriction string   `yaml:"date_restriction" mapstructure:"date_restriction"`
	RatePerSec      float64  `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	VendorQueries   bool     `yaml:"vendor_queries" mapstructure:"vendor_queries"`
	APIKey          string   `yaml:"api_key" mapstructure:"api_key"`
	EngineID        string   `yaml:"engine_id" mapstructure:"engine_id"`
}

// ScoringConfig centralises every numeric constant of the scoring engine.
type ScoringConfig struct {
	PricingWeight       float64 `yaml:"pricing_weight" mapstructure:"pricing_weight"`
	PricingCap          float64 `yaml:"pricing_cap" mapstructure:"pricing_cap"`
	UrgencyHighWeight   float64 `yaml:"urgency_high_weight" mapstructure:"urgency_high_weight"`
	UrgencyHighCap      float64 `yaml:"urgency_high_cap" mapstructure:"urgency_high_cap"`
	UrgencyMediumWeight float64 `yaml:"urgency_medium_weight" mapstructure:"urgency_medium_weight"`
	UrgencyMediumCap    float64 `yaml:"urgency_medium_cap" mapstructure:"urgency_medium_cap"`
	ContextWeight       float64 `yaml:"context_weight" mapstructure:"context_weight"`
	ContextCap          float64 `yaml:"context_cap" mapstructure:"context_cap"`

	VendorWeight   float64 `yaml:"vendor_weight" mapstructure:"vendor_weight"`
	VendorCap      float64 `yaml:"vendor_cap" mapstructure:"vendor_cap"`
	Tier1Bonus     float64 `yaml:"tier1_bonus" mapstructure:"tier1_bonus"`
	RecencyDay     float64 `yaml:"recency_day" mapstructure:"recency_day"`
	RecencyWeek    float64 `yaml:"recency_week" mapstructure:"recency_week"`
	MSPMultiplier  float64 `yaml:"msp_multiplier" mapstructure:"msp_multiplier"`
	MediumTotalMin float64 `yaml:"medium_total_min" mapstructure:"medium_total_min"`

	CloudSecurityBoost       float64 `yaml:"cloud_security_boost" mapstructure:"cloud_security_boost"`
	CloudSecurityVendorBoost float64 `yaml:"cloud_security_vendor_boost" mapstructure:"cloud_security_vendor_boost"`
	MABoost                  float64 `yaml:"ma_boost" mapstructure:"ma_boost"`
	MAConsolidatorBoost      float64 `yaml:"ma_consolidator_boost" mapstructure:"ma_consolidator_boost"`
	MALicenseAuditBoost      float64 `yaml:"ma_license_audit_boost" mapstructure:"ma_license_audit_boost"`
	MACap                    float64 `yaml:"ma_cap" mapstructure:"ma_cap"`
	PartnershipBoost         float64 `yaml:"partnership_boost" mapstructure:"partnership_boost"`
	PartnerTierChangeBoost   float64 `yaml:"partner_tier_change_boost" mapstructure:"partner_tier_change_boost"`
	RelationshipChangeBoost  float64 `yaml:"relationship_change_boost" mapstructure:"relationship_change_boost"`
	PartnershipCap           float64 `yaml:"partnership_cap" mapstructure:"partnership_cap"`

	RevenueWeights model.RevenueWeights `yaml:"revenue_weights" mapstructure:"revenue_weights"`
}

// SelectorConfig configures the bucketed top-K selector.
type SelectorConfig struct {
	K         int           `yaml:"k" mapstructure:"k"`
	BucketPct BucketPercent `yaml:"bucket_pct" mapstructure:"bucket_pct"`

	EngagementUpvotes  int     `yaml:"engagement_upvotes" mapstructure:"engagement_upvotes"`
	EngagementComments int     `yaml:"engagement_comments" mapstructure:"engagement_comments"`
	EngagementTotalMin float64 `yaml:"engagement_total_min" mapstructure:"engagement_total_min"`
	RelevanceTotalMin  float64 `yaml:"relevance_total_min" mapstructure:"relevance_total_min"`
}

// BucketPercent holds the selector bucket capacities as fractions of K.
type BucketPercent struct {
	Critical   float64 `yaml:"critical" mapstructure:"critical"`
	Engagement float64 `yaml:"engagement" mapstructure:"engagement"`
	Relevance  float64 `yaml:"relevance" mapstructure:"relevance"`
}

// LLMConfig configures the synthesis model call.
type LLMConfig struct {
	Model       string  `yaml:"model" mapstructure:"model"`
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	TimeoutSec  int     `yaml:"timeout_sec" mapstructure:"timeout_sec"`
	APIKey      string  `yaml:"api_key" mapstructure:"api_key"`
}

// ReportConfig configures report assembly and artifact output.
type ReportConfig struct {
	ExcerptMaxChars int    `yaml:"excerpt_max_chars" mapstructure:"excerpt_max_chars"`
	OutputDir       string `yaml:"output_dir" mapstructure:"output_dir"`
	TopVendors      int    `yaml:"top_vendors" mapstructure:"top_vendors"`
}

// RunConfig holds whole-run limits.
type RunConfig struct {
	GlobalTimeoutSec int `yaml:"global_timeout_sec" mapstructure:"global_timeout_sec"`
	SourceTimeoutSec int `yaml:"source_timeout_sec" mapstructure:"source_timeout_sec"`
}

// CacheConfig configures the HTTP fetch cache.
type CacheConfig struct {
	Enabled  bool `yaml:"enabled" mapstructure:"enabled"`
	TTLHours int  `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	Driver      string     `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string     `yaml:"database_url" mapstructure:"database_url"`
	Path        string     `yaml:"path" mapstructure:"path"`
	Pool        PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// PoolConfig holds optional Postgres pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the report server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. Unknown keys in the
// config file are an error rather than silently ignored.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PRICEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.ErrorUnused = true
	}); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sources.forum.sub_channels", []string{
		"sysadmin", "msp", "cybersecurity", "ITManagers",
		"procurement", "enterprise", "cloudcomputing", "aws", "azure",
	})
	v.SetDefault("sources.forum.listings", []string{"new", "hot", "top", "rising"})
	v.SetDefault("sources.forum.rate_per_sec", 0.5)
	v.SetDefault("sources.forum.min_upvotes", 3)
	v.SetDefault("sources.forum.min_comments", 3)
	v.SetDefault("sources.forum.window_hours", 24)
	v.SetDefault("sources.forum.fallback_window_hours", 168)
	v.SetDefault("sources.forum.fallback_threshold", 20)
	v.SetDefault("sources.forum.user_agent", "pricewatch/1.0")

	v.SetDefault("sources.search.queries", []string{
		"enterprise software pricing increase {year}",
		"cybersecurity vendor price changes",
		"IT distributor margin compression",
		"cloud pricing updates AWS Azure",
		"hardware vendor surcharge",
	})
	v.SetDefault("sources.search.results_per_query", 10)
	v.SetDefault("sources.search.date_restriction", "d7")
	v.SetDefault("sources.search.rate_per_sec", 1.0)
	v.SetDefault("sources.search.vendor_queries", true)

	v.SetDefault("sources.retry.max_attempts", 4)
	v.SetDefault("sources.retry.initial_backoff_ms", 500)
	v.SetDefault("sources.retry.max_backoff_ms", 30000)
	v.SetDefault("sources.retry.multiplier", 2.0)
	v.SetDefault("sources.retry.jitter_fraction", 0.25)
	v.SetDefault("sources.circuit.failure_threshold", 5)
	v.SetDefault("sources.circuit.reset_timeout_sec", 30)

	v.SetDefault("scoring.pricing_weight", 1.0)
	v.SetDefault("scoring.pricing_cap", 5.0)
	v.SetDefault("scoring.urgency_high_weight", 2.0)
	v.SetDefault("scoring.urgency_high_cap", 6.0)
	v.SetDefault("scoring.urgency_medium_weight", 1.0)
	v.SetDefault("scoring.urgency_medium_cap", 3.0)
	v.SetDefault("scoring.context_weight", 0.5)
	v.SetDefault("scoring.context_cap", 2.0)
	v.SetDefault("scoring.vendor_weight", 1.5)
	v.SetDefault("scoring.vendor_cap", 6.0)
	v.SetDefault("scoring.tier1_bonus", 1.0)
	v.SetDefault("scoring.recency_day", 1.5)
	v.SetDefault("scoring.recency_week", 0.5)
	v.SetDefault("scoring.msp_multiplier", 1.5)
	v.SetDefault("scoring.medium_total_min", 7.0)
	v.SetDefault("scoring.cloud_security_boost", 3.0)
	v.SetDefault("scoring.cloud_security_vendor_boost", 1.0)
	v.SetDefault("scoring.ma_boost", 3.0)
	v.SetDefault("scoring.ma_consolidator_boost", 2.0)
	v.SetDefault("scoring.ma_license_audit_boost", 1.5)
	v.SetDefault("scoring.ma_cap", 6.5)
	v.SetDefault("scoring.partnership_boost", 2.0)
	v.SetDefault("scoring.partner_tier_change_boost", 4.0)
	v.SetDefault("scoring.relationship_change_boost", 3.0)
	v.SetDefault("scoring.partnership_cap", 8.0)
	v.SetDefault("scoring.revenue_weights.immediate", 0.30)
	v.SetDefault("scoring.revenue_weights.margin", 0.25)
	v.SetDefault("scoring.revenue_weights.competitive", 0.20)
	v.SetDefault("scoring.revenue_weights.strategic", 0.15)
	v.SetDefault("scoring.revenue_weights.urgency", 0.10)

	v.SetDefault("selector.k", 200)
	v.SetDefault("selector.bucket_pct.critical", 0.4)
	v.SetDefault("selector.bucket_pct.engagement", 0.2)
	v.SetDefault("selector.bucket_pct.relevance", 0.3)
	v.SetDefault("selector.engagement_upvotes", 50)
	v.SetDefault("selector.engagement_comments", 20)
	v.SetDefault("selector.engagement_total_min", 4.0)
	v.SetDefault("selector.relevance_total_min", 7.0)

	v.SetDefault("llm.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("llm.max_tokens", 2000)
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.timeout_sec", 90)

	v.SetDefault("report.excerpt_max_chars", 500)
	v.SetDefault("report.output_dir", "output")
	v.SetDefault("report.top_vendors", 20)

	v.SetDefault("run.global_timeout_sec", 600)
	v.SetDefault("run.source_timeout_sec", 120)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl_hours", 6)

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "pricewatch.db")

	v.SetDefault("server.port", 8080)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
