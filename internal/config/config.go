package config

import (
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. The learning defaults follow what worked
// for focused crawls in practice; the fetch defaults are conservative
// politeness settings. All are overridable via CLI flags.
const (
	// DefaultEps is the probability of following a random pending request
	// instead of the best-scoring one. Without exploration the crawler
	// can lock onto an early local optimum and never correct it.
	DefaultEps = 0.2

	// DefaultGamma is the reward discount factor. Low values keep the
	// crawler focused on immediate reward rather than long link chains.
	DefaultGamma = 0.4

	// DefaultBalancingTemperature is the softmax temperature for domain
	// selection. 1.0 gives mild randomness; higher values approach
	// uniform selection across domains.
	DefaultBalancingTemperature = 1.0

	// DefaultLearningRate is the SGD step size for value updates.
	DefaultLearningRate = 0.1

	// DefaultReplaySampleSize is how many stored experiences are replayed
	// per recorded experience.
	DefaultReplaySampleSize = 300

	// DefaultStepsBeforeSwitch is how many steps pass between syncs of
	// online weights into target weights.
	DefaultStepsBeforeSwitch = 100

	// DefaultCheckpointInterval checkpoints the model every 1000 steps.
	// Frequent enough to lose little work on a crash, rare enough that
	// the synchronous write never dominates crawl time.
	DefaultCheckpointInterval = 1000

	// DefaultRefreshEvery refreshes frontier priorities on every model
	// change. Raise it to trade ordering freshness for less re-scoring
	// work on very large frontiers.
	DefaultRefreshEvery = 1

	// DefaultMaxPages bounds the total pages fetched in one run.
	DefaultMaxPages = 1000

	// DefaultTimeout is the per-request fetch timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultCrawlDelay is the politeness delay between fetches.
	DefaultCrawlDelay = 1 * time.Second

	// DefaultMaxBodySize limits response bodies to 5MB. Enough for any
	// HTML page while preventing memory exhaustion from large downloads.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultUserAgent identifies qcrawl in HTTP requests.
	DefaultUserAgent = "qcrawl/1.0 (+https://github.com/nao1215/qcrawl)"

	// DefaultInitialSeedScore is the optimistic score assigned to seed
	// requests. Seeds carry no state-action vector, so they get a fixed
	// high score that keeps them ahead of unproven derived requests.
	DefaultInitialSeedScore = 5.0

	// AppName is the application name used for XDG directory paths.
	AppName = "qcrawl"
)

// Config holds all configuration options for a crawl run.
// A single flat struct populated from CLI flags and the optional .qcrawl
// file, passed through the application via dependency injection.
type Config struct {
	// Seeds are the starting URLs. At least one is required.
	Seeds []string

	// Eps is the epsilon-greedy exploration probability in [0, 1].
	Eps float64

	// Gamma is the reward discount factor in [0, 1).
	Gamma float64

	// BalancingTemperature is the softmax temperature for cross-domain
	// slot selection. Zero selects the best slot deterministically.
	BalancingTemperature float64

	// LearningRate is the SGD step size for value-function updates.
	LearningRate float64

	// DoubleLearning enables double Q-learning (online weights select,
	// target weights evaluate).
	DoubleLearning bool

	// ReplaySampleSize is how many experiences are replayed per step.
	ReplaySampleSize int

	// StepsBeforeSwitch is the online-to-target weight sync interval.
	StepsBeforeSwitch int

	// Baseline disables learning entirely: all scores are zero and the
	// frontier degrades to FIFO with domain balancing. Used as the
	// comparison policy for evaluating the learned ordering.
	Baseline bool

	// RefreshEvery refreshes frontier priorities every N model changes.
	// 1 means every change.
	RefreshEvery int

	// CheckpointInterval is the step interval between checkpoints.
	CheckpointInterval int

	// CheckpointDir is where checkpoints are written. Empty disables
	// checkpointing entirely.
	CheckpointDir string

	// TrackGraph enables crawl-graph recording and its persistence with
	// each checkpoint.
	TrackGraph bool

	// StayInDomain restricts derived requests to the domain the link was
	// found on. Cross-domain links are still used as features of the
	// page that carried them.
	StayInDomain bool

	// UseURLFeatures includes URL path/query tokens in link vectors.
	UseURLFeatures bool

	// UsePageFeatures appends page-content features to each outgoing
	// link's vector.
	UsePageFeatures bool

	// UseSameDomainFeature includes the same-domain indicator column.
	UseSameDomainFeature bool

	// MaxPages bounds the total pages fetched in one run.
	MaxPages int

	// Timeout is the per-request fetch timeout.
	Timeout time.Duration

	// CrawlDelay is the politeness delay between fetches.
	CrawlDelay time.Duration

	// MaxBodySize limits the size of response bodies to read.
	MaxBodySize int64

	// UserAgent is the User-Agent header for fetches.
	UserAgent string

	// Verbose enables debug-level log output.
	Verbose bool

	// ConfigFilePath is the path to the .qcrawl file. Empty triggers the
	// default search (current directory, then home directory).
	ConfigFilePath string

	// Goal selects and parameterizes the crawl goal strategy.
	Goal GoalConfig
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Eps:                  DefaultEps,
		Gamma:                DefaultGamma,
		BalancingTemperature: DefaultBalancingTemperature,
		LearningRate:         DefaultLearningRate,
		DoubleLearning:       true,
		ReplaySampleSize:     DefaultReplaySampleSize,
		StepsBeforeSwitch:    DefaultStepsBeforeSwitch,
		RefreshEvery:         DefaultRefreshEvery,
		CheckpointInterval:   DefaultCheckpointInterval,
		StayInDomain:         true,
		UseSameDomainFeature: true,
		MaxPages:             DefaultMaxPages,
		Timeout:              DefaultTimeout,
		CrawlDelay:           DefaultCrawlDelay,
		MaxBodySize:          DefaultMaxBodySize,
		UserAgent:            DefaultUserAgent,
		Goal:                 GoalConfig{Type: GoalTypeKeyword},
	}
}

// XDGDataDir returns the default data directory for checkpoint storage.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks the configuration for invalid combinations.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeeds
	}
	if c.Eps < 0 || c.Eps > 1 {
		return ErrInvalidEps
	}
	if c.Gamma < 0 || c.Gamma >= 1 {
		return ErrInvalidGamma
	}
	if c.BalancingTemperature < 0 {
		return ErrInvalidTemperature
	}
	if c.LearningRate <= 0 {
		return ErrInvalidLearningRate
	}
	if c.ReplaySampleSize <= 0 {
		return ErrInvalidReplaySampleSize
	}
	if c.StepsBeforeSwitch <= 0 {
		return ErrInvalidStepsBeforeSwitch
	}
	if c.CheckpointInterval <= 0 {
		return ErrInvalidCheckpointInterval
	}
	if c.RefreshEvery <= 0 {
		return ErrInvalidRefreshEvery
	}
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if err := c.Goal.validate(); err != nil {
		return err
	}
	return nil
}

// Manifest is the serializable hyperparameter set written next to every
// checkpoint, so a checkpoint directory is always self-describing.
type Manifest struct {
	Eps                  float64 `json:"eps"`
	Gamma                float64 `json:"gamma"`
	BalancingTemperature float64 `json:"balancing_temperature"`
	LearningRate         float64 `json:"learning_rate"`
	DoubleLearning       bool    `json:"double"`
	ReplaySampleSize     int     `json:"replay_sample_size"`
	StepsBeforeSwitch    int     `json:"steps_before_switch"`
	Baseline             bool    `json:"baseline"`
	RefreshEvery         int     `json:"refresh_every"`
	StayInDomain         bool    `json:"stay_in_domain"`
	UseURLFeatures       bool    `json:"use_urls"`
	UsePageFeatures      bool    `json:"use_pages"`
	UseSameDomainFeature bool    `json:"use_same_domain"`
	GoalType             string  `json:"goal_type"`
}

// ManifestJSON serializes the active hyperparameters as indented JSON.
func (c *Config) ManifestJSON() ([]byte, error) {
	m := Manifest{
		Eps:                  c.Eps,
		Gamma:                c.Gamma,
		BalancingTemperature: c.BalancingTemperature,
		LearningRate:         c.LearningRate,
		DoubleLearning:       c.DoubleLearning,
		ReplaySampleSize:     c.ReplaySampleSize,
		StepsBeforeSwitch:    c.StepsBeforeSwitch,
		Baseline:             c.Baseline,
		RefreshEvery:         c.RefreshEvery,
		StayInDomain:         c.StayInDomain,
		UseURLFeatures:       c.UseURLFeatures,
		UsePageFeatures:      c.UsePageFeatures,
		UseSameDomainFeature: c.UseSameDomainFeature,
		GoalType:             c.Goal.Type,
	}
	return json.MarshalIndent(m, "", "    ")
}
