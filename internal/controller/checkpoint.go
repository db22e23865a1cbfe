package controller

import (
	"context"
	"os"
	"path/filepath"

	"github.com/nao1215/qcrawl/internal/database"
	"github.com/nao1215/qcrawl/internal/feature"
)

// ManifestFileName is the hyperparameter manifest written next to the
// checkpoint database.
const ManifestFileName = "params.json"

// WriteManifest rewrites the hyperparameter manifest in the checkpoint
// directory. It is called once at startup and again with every
// checkpoint, so the directory always describes the run that wrote it.
// A disabled checkpoint directory makes this a no-op.
func (c *Controller) WriteManifest() error {
	if c.cfg.CheckpointDir == "" {
		return nil
	}
	data, err := c.cfg.ManifestJSON()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.cfg.CheckpointDir, 0750); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.cfg.CheckpointDir, ManifestFileName), data, 0600)
}

// maybeCheckpoint persists the learned state when the step counter hits
// the checkpoint interval. Step zero never checkpoints; with no store
// attached this is a no-op. Persistence failures are logged and the
// crawl continues: losing a checkpoint is better than losing the run.
func (c *Controller) maybeCheckpoint(ctx context.Context) {
	step := c.learner.Step()
	if c.db == nil || step == 0 || step%c.cfg.CheckpointInterval != 0 {
		return
	}

	manifest, err := c.cfg.ManifestJSON()
	if err != nil {
		c.logger.Error("failed to serialize manifest, skipping checkpoint", "step", step, "error", err)
		return
	}

	var pageParams feature.Params
	if c.pageVec != nil {
		pageParams = c.pageVec.Params()
	}

	rec := &database.CheckpointRecord{
		Step:        step,
		RunID:       c.runID,
		QState:      c.learner.Snapshot(),
		LinkParams:  c.linkVec.Params(),
		PageParams:  pageParams,
		Hyperparams: manifest,
	}
	if err := c.db.SaveCheckpoint(ctx, rec); err != nil {
		c.logger.Error("failed to save checkpoint", "step", step, "error", err)
		return
	}

	if err := c.WriteManifest(); err != nil {
		c.logger.Error("failed to rewrite manifest", "step", step, "error", err)
	}

	if c.crawlGraph != nil {
		if err := c.db.SaveGraph(ctx, step, c.crawlGraph.Nodes(), c.crawlGraph.Edges()); err != nil {
			c.logger.Error("failed to save crawl graph", "step", step, "error", err)
		}
	}

	c.logger.Info("checkpoint saved", "step", step, "run_id", c.runID)
}

// SaveSummary persists the final run summary when a store is attached.
func (c *Controller) SaveSummary(ctx context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.SaveSummary(ctx, c.Summary())
}
