// Package qlearn implements the value function that orders the crawl
// frontier: a sparse linear Q-learner trained online from the crawl's own
// outcomes.
//
// The model keeps two weight sets. The online weights are updated on every
// recorded experience; the target weights are synced from the online
// weights every StepsBeforeSwitch steps and are the default for scoring.
// With double learning enabled, the online weights select the best next
// action and the target weights evaluate it, which damps the
// overestimation bias of plain Q-learning.
//
// Training samples uniformly from an experience-replay buffer rather than
// learning only from the newest transition, so one surprising page does
// not whipsaw the policy.
//
// Prediction is always batched: one call scores a whole matrix of
// state-action vectors. Callers must never loop over single-row calls.
package qlearn
