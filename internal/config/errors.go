package config

import "errors"

// Configuration validation errors returned by Config.Validate().
// Sentinel errors let callers use errors.Is() for programmatic handling
// while keeping human-readable messages.
var (
	// ErrNoSeeds is returned when no seed URL is available from flags or
	// the configuration file. A crawl with no seeds has nothing to do.
	ErrNoSeeds = errors.New("no seeds specified: provide seed URLs or use a .qcrawl file")

	// ErrInvalidEps is returned when the exploration rate is outside [0, 1].
	ErrInvalidEps = errors.New("invalid eps: must be in [0, 1]")

	// ErrInvalidGamma is returned when the discount factor is outside [0, 1).
	// A gamma of 1 or more makes value estimates diverge on cyclic link graphs.
	ErrInvalidGamma = errors.New("invalid gamma: must be in [0, 1)")

	// ErrInvalidTemperature is returned when the balancing temperature is
	// negative. Zero selects the best domain deterministically.
	ErrInvalidTemperature = errors.New("invalid balancing temperature: must be non-negative")

	// ErrInvalidLearningRate is returned when the learning rate is not positive.
	ErrInvalidLearningRate = errors.New("invalid learning rate: must be positive")

	// ErrInvalidReplaySampleSize is returned when the replay sample size is
	// not positive.
	ErrInvalidReplaySampleSize = errors.New("invalid replay sample size: must be positive")

	// ErrInvalidStepsBeforeSwitch is returned when the target-sync interval
	// is not positive.
	ErrInvalidStepsBeforeSwitch = errors.New("invalid steps before switch: must be positive")

	// ErrInvalidCheckpointInterval is returned when the checkpoint interval
	// is not positive.
	ErrInvalidCheckpointInterval = errors.New("invalid checkpoint interval: must be positive")

	// ErrInvalidRefreshEvery is returned when the refresh modulus is not
	// positive. Use 1 to refresh on every model change.
	ErrInvalidRefreshEvery = errors.New("invalid refresh-every: must be positive")

	// ErrInvalidMaxPages is returned when the page budget is not positive.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidCrawlDelay is returned when the politeness delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrUnknownGoal is returned when the configuration names a goal
	// strategy that does not exist.
	ErrUnknownGoal = errors.New("unknown goal type: must be \"keyword\" or \"target-page\"")
)
