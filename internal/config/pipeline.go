package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"review-scout/internal/extract"
	pkgconfig "review-scout/internal/pkg/config"
	"review-scout/internal/scroll"
)

// PipelineConfig carries every tuning knob of the collection pipeline.
// The thresholds default to the empirically tuned production values; they
// are configuration, not constants, because nobody can re-derive them.
type PipelineConfig struct {
	// SentimentOverride is the keyword-polarity score at which text
	// overrides the star bucket. Default 2.
	SentimentOverride int `yaml:"sentiment_override"`

	// SimilarityFloor and SimilarityBand drive listing selection: keep
	// scores >= max(floor, best-band). Defaults 0.6 and 0.15.
	SimilarityFloor float64 `yaml:"similarity_floor"`
	SimilarityBand  float64 `yaml:"similarity_band"`

	// MaxResponseDeltaDays is the sanity ceiling on review-to-response
	// latency. Default 3650.
	MaxResponseDeltaDays int `yaml:"max_response_delta_days"`

	// FeedSettle and ReviewSettle bound the two settle loops.
	FeedSettle   SettleConfig `yaml:"feed_settle"`
	ReviewSettle SettleConfig `yaml:"review_settle"`

	// NavigationsPerMinute paces navigations against the content source.
	// Default 20.
	NavigationsPerMinute int `yaml:"navigations_per_minute"`

	// Profile describes the site being collected from.
	Profile SiteProfile `yaml:"profile"`
}

// Duration wraps time.Duration so YAML can carry values like "90s" or "2m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// SettleConfig bounds one settle loop. Zero values fall back to the scroll
// package defaults.
type SettleConfig struct {
	StabilityThreshold int      `yaml:"stability_threshold"`
	MaxIterations      int      `yaml:"max_iterations"`
	MaxElapsed         Duration `yaml:"max_elapsed"`
	Interval           Duration `yaml:"interval"`
}

// Scroll converts the settle bounds into a loop config for the named view.
func (s SettleConfig) Scroll(name string) scroll.Config {
	cfg := scroll.DefaultConfig(name)
	if s.StabilityThreshold > 0 {
		cfg.StabilityThreshold = s.StabilityThreshold
	}
	if s.MaxIterations > 0 {
		cfg.MaxIterations = s.MaxIterations
	}
	if s.MaxElapsed > 0 {
		cfg.MaxElapsed = time.Duration(s.MaxElapsed)
	}
	if s.Interval > 0 {
		cfg.Interval = time.Duration(s.Interval)
	}
	return cfg
}

// SiteProfile describes how one content source lays out its pages: where
// the search feed lives, how listing links and review nodes are found, and
// the per-field extraction tiers. The zero profile is unusable; start from
// DefaultProfile and override per deployment.
type SiteProfile struct {
	Name string `yaml:"name"`

	// SearchURL is a printf template taking the query text and the city,
	// both already URL-escaped.
	SearchURL string `yaml:"search_url"`

	// FeedItemSelector matches listing links inside the settled feed.
	FeedItemSelector string `yaml:"feed_item_selector"`

	// ReviewNodeSelector matches review/response nodes on a listing page.
	ReviewNodeSelector string `yaml:"review_node_selector"`

	// ExpandSelector matches "read more" style controls clicked on every
	// settle pass so extraction sees full text.
	ExpandSelector string `yaml:"expand_selector"`

	ListingFields map[string]extract.FieldSpec `yaml:"listing_fields"`
	ReviewFields  map[string]extract.FieldSpec `yaml:"review_fields"`
	NoiseLabels   []string                     `yaml:"noise_labels"`
}

// Default returns the pipeline config with production defaults and the
// stock site profile.
func Default() *PipelineConfig {
	return &PipelineConfig{
		SentimentOverride:    2,
		SimilarityFloor:      0.6,
		SimilarityBand:       0.15,
		MaxResponseDeltaDays: 3650,
		FeedSettle:           SettleConfig{StabilityThreshold: 5},
		ReviewSettle:         SettleConfig{StabilityThreshold: 5},
		NavigationsPerMinute: 20,
		Profile:              DefaultProfile(),
	}
}

// DefaultProfile is the stock site profile: schema.org microdata plus the
// class names the supported sources carry.
func DefaultProfile() SiteProfile {
	return SiteProfile{
		Name:               "default",
		SearchURL:          "https://example.com/search?text=%s&city=%s",
		FeedItemSelector:   "a[href*='/org/'], .search-item a.title, .org-list a.org-link",
		ReviewNodeSelector: ".review, [itemprop=review], .comment-item",
		ExpandSelector:     ".review-text-expand, .read-more, a.expand",
		ListingFields:      extract.DefaultListingFields(),
		ReviewFields:       extract.DefaultReviewFields(),
		NoiseLabels:        extract.DefaultNoiseLabels(),
	}
}

// Load builds the pipeline config: defaults, then the YAML file when a path
// is given, then environment overrides. Environment overrides fail open to
// the prior value with a warning, matching how the rest of our services
// load config.
func Load(path string) (*PipelineConfig, []string, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("read pipeline config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, nil, fmt.Errorf("parse pipeline config: %w", err)
		}
	}

	warnings := cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, warnings, err
	}
	return cfg, warnings, nil
}

func (c *PipelineConfig) applyEnv() []string {
	var warnings []string

	override := pkgconfig.LoadEnvInt("SCOUT_SENTIMENT_OVERRIDE", c.SentimentOverride, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 10)
	})
	c.SentimentOverride = override.Value.(int)
	warnings = append(warnings, override.Warnings...)

	stability := pkgconfig.LoadEnvInt("SCOUT_SETTLE_STABILITY", 0, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 50)
	})
	if v := stability.Value.(int); v > 0 {
		c.FeedSettle.StabilityThreshold = v
		c.ReviewSettle.StabilityThreshold = v
	}
	warnings = append(warnings, stability.Warnings...)

	delta := pkgconfig.LoadEnvInt("SCOUT_MAX_RESPONSE_DELTA_DAYS", c.MaxResponseDeltaDays, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 36500)
	})
	c.MaxResponseDeltaDays = delta.Value.(int)
	warnings = append(warnings, delta.Warnings...)

	pace := pkgconfig.LoadEnvInt("SCOUT_NAVIGATIONS_PER_MINUTE", c.NavigationsPerMinute, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 600)
	})
	c.NavigationsPerMinute = pace.Value.(int)
	warnings = append(warnings, pace.Warnings...)

	return warnings
}

// Validate rejects configs no pipeline run could honor.
func (c *PipelineConfig) Validate() error {
	if c.SimilarityFloor < 0 || c.SimilarityFloor > 1 {
		return fmt.Errorf("similarity_floor %v outside [0,1]", c.SimilarityFloor)
	}
	if c.SimilarityBand < 0 || c.SimilarityBand > 1 {
		return fmt.Errorf("similarity_band %v outside [0,1]", c.SimilarityBand)
	}
	if c.MaxResponseDeltaDays <= 0 {
		return fmt.Errorf("max_response_delta_days must be positive, got %d", c.MaxResponseDeltaDays)
	}
	if c.Profile.SearchURL == "" {
		return fmt.Errorf("profile %q has no search_url", c.Profile.Name)
	}
	if c.Profile.FeedItemSelector == "" {
		return fmt.Errorf("profile %q has no feed_item_selector", c.Profile.Name)
	}
	if c.Profile.ReviewNodeSelector == "" {
		return fmt.Errorf("profile %q has no review_node_selector", c.Profile.Name)
	}
	return nil
}
