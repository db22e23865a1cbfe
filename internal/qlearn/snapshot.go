package qlearn

import "fmt"

// Snapshot is a serializable copy of everything needed to resume learning
// and reproduce predictions. Weights are stored sparsely: only columns a
// gradient step has touched are non-zero, which keeps snapshots small even
// for large hashed feature spaces.
//
// The replay buffer is deliberately not persisted. It only smooths
// training and refills quickly; dragging megabytes of page-derived vectors
// into every checkpoint is not worth it.
type Snapshot struct {
	// Dim is the state-action vector dimension the weights were trained on.
	Dim int `json:"dim"`

	// Step is the step counter at snapshot time.
	Step int `json:"step"`

	// Hyperparameters active when the snapshot was taken.
	Gamma             float64 `json:"gamma"`
	LearningRate      float64 `json:"learning_rate"`
	Double            bool    `json:"double"`
	StepsBeforeSwitch int     `json:"steps_before_switch"`
	ReplaySampleSize  int     `json:"replay_sample_size"`
	Baseline          bool    `json:"baseline"`

	// Sparse encodings of the online and target weight vectors.
	OnlineIndices []int     `json:"online_indices"`
	OnlineValues  []float64 `json:"online_values"`
	TargetIndices []int     `json:"target_indices"`
	TargetValues  []float64 `json:"target_values"`
}

// Snapshot captures the learner's current state.
func (l *Learner) Snapshot() *Snapshot {
	s := &Snapshot{
		Dim:               l.dim,
		Step:              l.step,
		Gamma:             l.gamma,
		LearningRate:      l.learningRate,
		Double:            l.double,
		StepsBeforeSwitch: l.stepsBeforeSwitch,
		ReplaySampleSize:  l.replaySampleSize,
		Baseline:          l.baseline,
	}
	s.OnlineIndices, s.OnlineValues = packWeights(l.online)
	s.TargetIndices, s.TargetValues = packWeights(l.target)
	return s
}

// FromSnapshot reconstructs a Learner from a snapshot. The replay buffer
// starts empty; options may override replay capacity and RNG seed but the
// learned weights and hyperparameters come from the snapshot.
func FromSnapshot(s *Snapshot, opts ...Option) (*Learner, error) {
	if s.Dim <= 0 {
		return nil, fmt.Errorf("qlearn: snapshot has invalid dimension %d", s.Dim)
	}

	l := New(s.Dim, opts...)
	l.gamma = s.Gamma
	l.learningRate = s.LearningRate
	l.double = s.Double
	l.stepsBeforeSwitch = s.StepsBeforeSwitch
	l.replaySampleSize = s.ReplaySampleSize
	l.baseline = s.Baseline
	l.step = s.Step

	if err := unpackWeights(l.online, s.OnlineIndices, s.OnlineValues); err != nil {
		return nil, fmt.Errorf("qlearn: restore online weights: %w", err)
	}
	if err := unpackWeights(l.target, s.TargetIndices, s.TargetValues); err != nil {
		return nil, fmt.Errorf("qlearn: restore target weights: %w", err)
	}
	return l, nil
}

// packWeights extracts the non-zero entries of a dense weight vector.
func packWeights(weights []float64) ([]int, []float64) {
	var indices []int
	var values []float64
	for i, w := range weights {
		if w != 0 {
			indices = append(indices, i)
			values = append(values, w)
		}
	}
	return indices, values
}

// unpackWeights writes sparse entries into a zeroed dense vector.
func unpackWeights(dst []float64, indices []int, values []float64) error {
	if len(indices) != len(values) {
		return fmt.Errorf("index/value length mismatch: %d vs %d", len(indices), len(values))
	}
	for i, idx := range indices {
		if idx < 0 || idx >= len(dst) {
			return fmt.Errorf("weight index %d out of range [0, %d)", idx, len(dst))
		}
		dst[idx] = values[i]
	}
	return nil
}
