package qlearn

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/nao1215/qcrawl/internal/sparse"
)

// Default hyperparameters. These match the values that worked well for
// focused crawls in practice; all of them are overridable via options.
const (
	// DefaultGamma is the discount factor. Low values keep the crawler
	// focused on immediate reward rather than long link chains.
	DefaultGamma = 0.4

	// DefaultLearningRate is the SGD step size for weight updates.
	DefaultLearningRate = 0.1

	// DefaultStepsBeforeSwitch is how many steps pass between syncs of
	// the online weights into the target weights.
	DefaultStepsBeforeSwitch = 100

	// DefaultReplaySampleSize is how many stored experiences are replayed
	// on each recorded experience.
	DefaultReplaySampleSize = 300

	// DefaultReplayCapacity bounds the replay buffer; the oldest
	// experiences are evicted first.
	DefaultReplayCapacity = 10000
)

// Experience is one learning transition: the vector of the action that
// led to the current page, the vectors of the onward actions available
// from it (nil for terminal transitions), and the observed reward.
type Experience struct {
	Prior  sparse.Vector
	Next   *sparse.Matrix
	Reward float64
}

// UpdateResult is the structured outcome of AddExperience. The controller
// reacts to this return value; the learner never calls back into it.
type UpdateResult struct {
	// StepAdvanced reports that the step counter moved.
	StepAdvanced bool

	// RefreshRecommended reports that model parameters changed in a way
	// that makes previously assigned frontier priorities stale.
	RefreshRecommended bool
}

// Learner is a sparse linear Q-function over state-action vectors.
// It is not safe for concurrent use; the controller owns it exclusively.
type Learner struct {
	dim    int
	online []float64
	target []float64

	gamma             float64
	learningRate      float64
	double            bool
	stepsBeforeSwitch int
	replaySampleSize  int

	replay *replayBuffer
	step   int

	// baseline disables learning entirely: Predict returns zeros and
	// AddExperience only advances the step counter. Used as the
	// non-learning comparison policy.
	baseline bool

	rng *rand.Rand
}

// Option configures a Learner.
type Option func(*Learner)

// WithGamma sets the discount factor, 0 <= gamma < 1.
func WithGamma(gamma float64) Option {
	return func(l *Learner) { l.gamma = gamma }
}

// WithLearningRate sets the SGD step size.
func WithLearningRate(lr float64) Option {
	return func(l *Learner) { l.learningRate = lr }
}

// WithDoubleLearning toggles double Q-learning.
func WithDoubleLearning(enabled bool) Option {
	return func(l *Learner) { l.double = enabled }
}

// WithStepsBeforeSwitch sets the online-to-target sync interval in steps.
func WithStepsBeforeSwitch(steps int) Option {
	return func(l *Learner) { l.stepsBeforeSwitch = steps }
}

// WithReplaySampleSize sets how many experiences are replayed per step.
func WithReplaySampleSize(n int) Option {
	return func(l *Learner) { l.replaySampleSize = n }
}

// WithReplayCapacity bounds the replay buffer.
func WithReplayCapacity(n int) Option {
	return func(l *Learner) { l.replay = newReplayBuffer(n) }
}

// WithBaseline switches the learner into non-learning baseline mode.
func WithBaseline(enabled bool) Option {
	return func(l *Learner) { l.baseline = enabled }
}

// WithSeed fixes the replay-sampling RNG for reproducible runs and tests.
func WithSeed(seed uint64) Option {
	return func(l *Learner) { l.rng = rand.New(rand.NewPCG(seed, seed)) }
}

// New creates a Learner for state-action vectors of the given dimension.
func New(dim int, opts ...Option) *Learner {
	l := &Learner{
		dim:               dim,
		online:            make([]float64, dim),
		target:            make([]float64, dim),
		gamma:             DefaultGamma,
		learningRate:      DefaultLearningRate,
		double:            true,
		stepsBeforeSwitch: DefaultStepsBeforeSwitch,
		replaySampleSize:  DefaultReplaySampleSize,
		replay:            newReplayBuffer(DefaultReplayCapacity),
		rng:               rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dim returns the expected state-action vector dimension.
func (l *Learner) Dim() int { return l.dim }

// Step returns the monotone step counter: one step per recorded experience.
func (l *Learner) Step() int { return l.step }

// Baseline reports whether the learner runs in non-learning baseline mode.
func (l *Learner) Baseline() bool { return l.baseline }

// Predict scores a batch of state-action vectors in one call.
// By default the target weights are used; pass online=true for the
// online weights (diagnostics and double-learning internals).
// A dimension mismatch is an error: scoring malformed vectors would
// silently corrupt the crawl ordering.
func (l *Learner) Predict(m *sparse.Matrix, online bool) ([]float64, error) {
	if m == nil || m.Rows() == 0 {
		return nil, nil
	}
	if m.Dim() != l.dim {
		return nil, fmt.Errorf("qlearn: matrix dimension %d does not match model dimension %d", m.Dim(), l.dim)
	}

	scores := make([]float64, m.Rows())
	if l.baseline {
		return scores, nil
	}

	weights := l.target
	if online {
		weights = l.online
	}
	for i := 0; i < m.Rows(); i++ {
		scores[i] = m.Row(i).Dot(weights)
	}
	return scores, nil
}

// AddExperience records one transition, advances the step counter, and
// trains the online weights from a replay sample. A nil next matrix marks
// a terminal transition (dead end, no onward actions).
//
// The caller decides whether to act on RefreshRecommended; the learner
// recommends a refresh after every parameter change.
func (l *Learner) AddExperience(prior sparse.Vector, next *sparse.Matrix, reward float64) (UpdateResult, error) {
	if prior.Dim != l.dim {
		return UpdateResult{}, fmt.Errorf("qlearn: prior vector dimension %d does not match model dimension %d", prior.Dim, l.dim)
	}
	if next != nil && next.Rows() > 0 && next.Dim() != l.dim {
		return UpdateResult{}, fmt.Errorf("qlearn: next matrix dimension %d does not match model dimension %d", next.Dim(), l.dim)
	}

	l.step++

	if l.baseline {
		return UpdateResult{StepAdvanced: true}, nil
	}

	l.replay.add(Experience{Prior: prior, Next: next, Reward: reward})

	for _, exp := range l.replay.sample(l.replaySampleSize, l.rng) {
		l.train(exp)
	}

	if l.stepsBeforeSwitch > 0 && l.step%l.stepsBeforeSwitch == 0 {
		copy(l.target, l.online)
	}

	return UpdateResult{StepAdvanced: true, RefreshRecommended: true}, nil
}

// train applies one TD(0) gradient step for a single experience.
func (l *Learner) train(exp Experience) {
	target := exp.Reward + l.gamma*l.nextValue(exp.Next)
	predicted := exp.Prior.Dot(l.online)
	exp.Prior.AddScaledTo(l.online, l.learningRate*(target-predicted))
}

// nextValue estimates the value of the best onward action.
// Terminal transitions (nil or empty matrix) are worth zero.
func (l *Learner) nextValue(next *sparse.Matrix) float64 {
	if next == nil || next.Rows() == 0 {
		return 0
	}

	if l.double {
		// Online weights pick the action, target weights evaluate it.
		best, bestScore := 0, math.Inf(-1)
		for i := 0; i < next.Rows(); i++ {
			if s := next.Row(i).Dot(l.online); s > bestScore {
				best, bestScore = i, s
			}
		}
		return next.Row(best).Dot(l.target)
	}

	max := math.Inf(-1)
	for i := 0; i < next.Rows(); i++ {
		if s := next.Row(i).Dot(l.target); s > max {
			max = s
		}
	}
	return max
}

// CoefNorm returns the L2 norm of a weight set, for logging.
func (l *Learner) CoefNorm(online bool) float64 {
	weights := l.target
	if online {
		weights = l.online
	}
	var sum float64
	for _, w := range weights {
		sum += w * w
	}
	return math.Sqrt(sum)
}
