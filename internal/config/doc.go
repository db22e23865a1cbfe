// Package config holds the configuration surface for qcrawl.
//
// The Config struct carries every knob the crawl controller and its
// collaborators accept: learning hyperparameters (epsilon, gamma, replay
// size, target-sync interval), frontier policy (balancing temperature,
// stay-in-domain), feature-group toggles, checkpointing, and fetch
// politeness. It is populated from CLI flags and an optional .qcrawl
// YAML file, then passed through the application by dependency injection
// rather than global state.
//
// The active hyperparameter set can be serialized as a manifest; the
// checkpoint scheduler rewrites that manifest on every checkpoint and at
// startup so a checkpoint directory is always self-describing.
package config
