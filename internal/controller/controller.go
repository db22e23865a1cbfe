package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/qcrawl/internal/config"
	"github.com/nao1215/qcrawl/internal/crawler"
	"github.com/nao1215/qcrawl/internal/database"
	"github.com/nao1215/qcrawl/internal/feature"
	"github.com/nao1215/qcrawl/internal/frontier"
	"github.com/nao1215/qcrawl/internal/goal"
	"github.com/nao1215/qcrawl/internal/graph"
	"github.com/nao1215/qcrawl/internal/model"
	"github.com/nao1215/qcrawl/internal/qlearn"
	"github.com/nao1215/qcrawl/internal/sparse"
)

// maxTopPages bounds the per-run list of highest-reward pages kept for
// the final summary.
const maxTopPages = 10

// Controller drives one crawl run. It is not safe for concurrent use;
// the engine calls it from a single goroutine.
type Controller struct {
	cfg     *config.Config
	learner *qlearn.Learner
	queue   *frontier.BalancedQueue
	goal    goal.Goal
	linkVec *feature.LinkVectorizer
	pageVec *feature.PageVectorizer

	// crawlGraph is nil unless graph tracking is enabled.
	crawlGraph *graph.Graph

	// db is nil when checkpointing is disabled.
	db *database.CheckpointDB

	logger *slog.Logger
	runID  string

	// seen holds normalized URLs already enqueued or fetched, so each URL
	// enters the frontier at most once per run.
	seen map[string]bool

	startedAt    time.Time
	totalReward  float64
	processed    int
	modelChanges int
	topPages     []model.PageOutcome

	snapshot *qlearn.Snapshot
	seed     *uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithCheckpointDB attaches a checkpoint store. Without one the
// controller never persists anything.
func WithCheckpointDB(db *database.CheckpointDB) Option {
	return func(c *Controller) { c.db = db }
}

// WithSnapshot resumes the value function from a stored snapshot instead
// of starting from zero weights.
func WithSnapshot(s *qlearn.Snapshot) Option {
	return func(c *Controller) { c.snapshot = s }
}

// WithSeed fixes every internal RNG for reproducible runs and tests.
func WithSeed(seed uint64) Option {
	return func(c *Controller) { c.seed = &seed }
}

// New creates a Controller for the given configuration and goal.
func New(cfg *config.Config, g goal.Goal, opts ...Option) (*Controller, error) {
	c := &Controller{
		cfg:       cfg,
		goal:      g,
		logger:    slog.Default(),
		runID:     uuid.NewString(),
		seen:      make(map[string]bool),
		startedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.linkVec = feature.NewLinkVectorizer(
		feature.WithURLFeatures(cfg.UseURLFeatures),
		feature.WithSameDomainFeature(cfg.UseSameDomainFeature),
	)
	if cfg.UsePageFeatures {
		c.pageVec = feature.NewPageVectorizer(0)
	}

	learnerOpts := []qlearn.Option{
		qlearn.WithGamma(cfg.Gamma),
		qlearn.WithLearningRate(cfg.LearningRate),
		qlearn.WithDoubleLearning(cfg.DoubleLearning),
		qlearn.WithStepsBeforeSwitch(cfg.StepsBeforeSwitch),
		qlearn.WithReplaySampleSize(cfg.ReplaySampleSize),
		qlearn.WithBaseline(cfg.Baseline),
	}
	if c.seed != nil {
		learnerOpts = append(learnerOpts, qlearn.WithSeed(*c.seed))
	}

	if c.snapshot != nil {
		if c.snapshot.Dim != c.stateDim() {
			return nil, fmt.Errorf("controller: snapshot dimension %d does not match feature dimension %d", c.snapshot.Dim, c.stateDim())
		}
		learner, err := qlearn.FromSnapshot(c.snapshot, learnerOpts...)
		if err != nil {
			return nil, fmt.Errorf("controller: restore value function: %w", err)
		}
		c.learner = learner
	} else {
		c.learner = qlearn.New(c.stateDim(), learnerOpts...)
	}

	queueOpts := []frontier.BalancedOption{
		frontier.WithEps(cfg.Eps),
		frontier.WithTemperature(cfg.BalancingTemperature),
	}
	if c.seed != nil {
		queueOpts = append(queueOpts, frontier.WithSelectionSeed(*c.seed))
	}
	c.queue = frontier.NewBalancedQueue(queueOpts...)

	if cfg.TrackGraph {
		c.crawlGraph = graph.New()
	}

	return c, nil
}

// stateDim returns the dimension of state-action vectors: link features
// plus page features when enabled.
func (c *Controller) stateDim() int {
	dim := c.linkVec.Dim()
	if c.pageVec != nil {
		dim += c.pageVec.Dim()
	}
	return dim
}

// RunID returns this run's identifier.
func (c *Controller) RunID() string { return c.runID }

// Step returns the value-function step counter.
func (c *Controller) Step() int { return c.learner.Step() }

// EnqueueSeeds pushes the seed URLs into the frontier with the fixed
// optimistic initial priority. Duplicate and unparsable seeds are skipped.
func (c *Controller) EnqueueSeeds(urls []string) int {
	priority := frontier.ScoreToPriority(config.DefaultInitialSeedScore)
	accepted := 0
	for _, raw := range urls {
		domain := model.DomainOf(raw)
		if domain == "" {
			c.logger.Warn("skipping unparsable seed", "url", raw)
			continue
		}
		key := crawler.NormalizeURL(raw)
		if c.seen[key] {
			continue
		}
		c.seen[key] = true

		req := &model.PendingRequest{URL: raw, Domain: domain, Priority: priority}
		if c.queue.Push(req) {
			accepted++
			if c.crawlGraph != nil {
				c.crawlGraph.EnsureNode(key, domain)
			}
		}
	}
	return accepted
}

// NextRequest pops the next pending request from the frontier, or nil
// when every open slot is empty.
func (c *Controller) NextRequest() *model.PendingRequest {
	return c.queue.Pop()
}

// FrontierEmpty reports whether every open slot is empty.
func (c *Controller) FrontierEmpty() bool { return c.queue.Empty() }

// Process handles one fetched response: it records the learning
// transition, commits the goal observation, closes every slot whose
// domain the goal reports achieved, derives new pending requests from
// the page's links, refreshes stale priorities, and checkpoints on
// schedule. Seed responses record no transition and accrue no reward;
// they only feed the frontier.
func (c *Controller) Process(ctx context.Context, resp *model.Response, links []model.Link) error {
	var linkMatrix *sparse.Matrix
	if resp.TextAvailable && len(links) > 0 {
		m, err := c.vectorizeLinks(resp, links)
		if err != nil {
			return err
		}
		linkMatrix = m
	}

	isSeed := resp.IsSeed()
	reward := 0.0
	if resp.TextAvailable && !isSeed {
		reward = c.goal.Reward(resp)
	}

	result, err := c.recordExperience(resp, linkMatrix, reward)
	if err != nil {
		return err
	}

	if resp.TextAvailable && !isSeed {
		c.goal.ResponseObserved(resp)
		c.totalReward += reward
		c.recordTopPage(resp, reward)
	}
	c.processed++
	c.recordFetchInGraph(resp, reward)

	// A goal may satisfy domains other than the response's, so every
	// open slot is asked.
	for _, slot := range c.queue.ActiveSlots() {
		if !c.goal.IsAchieved(slot) {
			continue
		}
		c.logger.Info("goal achieved for domain, closing slot", "domain", slot)
		c.queue.CloseSlot(slot)
	}

	if resp.TextAvailable {
		if err := c.deriveRequests(resp, links, linkMatrix); err != nil {
			return err
		}
	}

	if result.RefreshRecommended {
		c.modelChanges++
		if c.modelChanges%c.cfg.RefreshEvery == 0 {
			if err := c.refreshPriorities(); err != nil {
				return err
			}
		}
	}

	c.maybeCheckpoint(ctx)
	return nil
}

// recordExperience adds the learning transition for a response, with
// next holding the state-action matrix of the page's links (nil for a
// terminal dead end). Seeds record nothing: there is no prior action
// to credit.
func (c *Controller) recordExperience(resp *model.Response, next *sparse.Matrix, reward float64) (qlearn.UpdateResult, error) {
	if resp.IsSeed() {
		return qlearn.UpdateResult{}, nil
	}

	result, err := c.learner.AddExperience(*resp.Request.LinkVector, next, reward)
	if err != nil {
		return qlearn.UpdateResult{}, fmt.Errorf("controller: record experience for %s: %w", resp.URL, err)
	}
	return result, nil
}

// vectorizeLinks builds the state-action matrix for a page's links,
// appending page-content features when enabled.
func (c *Controller) vectorizeLinks(resp *model.Response, links []model.Link) (*sparse.Matrix, error) {
	if c.pageVec == nil {
		return c.linkVec.Transform(links)
	}

	pageVec, err := c.pageVec.Transform(resp.Text)
	if err != nil {
		return nil, err
	}

	m := sparse.NewMatrix(c.stateDim())
	for _, link := range links {
		vec, err := c.linkVec.Vectorize(link)
		if err != nil {
			return nil, err
		}
		if err := m.AppendRow(vec.Concat(pageVec)); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// deriveRequests turns a page's links into scored pending requests,
// reusing rows of the already-built state-action matrix m. Links
// already seen this run, and cross-domain links under the
// stay-in-domain policy, are skipped; every link still contributed to
// the learning transition regardless.
func (c *Controller) deriveRequests(resp *model.Response, links []model.Link, m *sparse.Matrix) error {
	fromID := int64(0)
	if c.crawlGraph != nil {
		fromID = c.crawlGraph.EnsureNode(crawler.NormalizeURL(resp.URL), resp.Domain)
	}

	kept := make([]int, 0, len(links))
	for i, link := range links {
		if c.crawlGraph != nil {
			toID := c.crawlGraph.EnsureNode(crawler.NormalizeURL(link.URL), link.Domain)
			c.crawlGraph.AddEdge(fromID, toID)
		}
		if c.cfg.StayInDomain && !link.SameDomain {
			continue
		}
		key := crawler.NormalizeURL(link.URL)
		if c.seen[key] {
			continue
		}
		c.seen[key] = true
		kept = append(kept, i)
	}
	if len(kept) == 0 {
		return nil
	}

	sub := m.Select(kept)
	scores, err := c.learner.Predict(sub, false)
	if err != nil {
		return fmt.Errorf("controller: score derived requests: %w", err)
	}

	depth := resp.Request.Depth + 1
	for j, i := range kept {
		vec := sub.Row(j)
		c.queue.Push(&model.PendingRequest{
			URL:        links[i].URL,
			Domain:     links[i].Domain,
			Priority:   frontier.ScoreToPriority(scores[j]),
			Depth:      depth,
			LinkVector: &vec,
		})
	}
	return nil
}

// refreshPriorities re-scores every derived request in every open slot
// against the current value function. Seed requests keep their fixed
// priority; they carry no vector to re-score.
func (c *Controller) refreshPriorities() error {
	for _, slot := range c.queue.ActiveSlots() {
		q := c.queue.Queue(slot)
		if q == nil {
			continue
		}
		err := q.UpdateAllPriorities(func(requests []*model.PendingRequest) ([]int, error) {
			priorities := make([]int, len(requests))
			scorable := make([]sparse.Vector, 0, len(requests))
			scorableIdx := make([]int, 0, len(requests))
			for i, req := range requests {
				if req.IsSeed() {
					priorities[i] = req.Priority
					continue
				}
				scorable = append(scorable, *req.LinkVector)
				scorableIdx = append(scorableIdx, i)
			}
			if len(scorable) == 0 {
				return priorities, nil
			}

			m, err := sparse.Stack(scorable)
			if err != nil {
				return nil, err
			}
			scores, err := c.learner.Predict(m, false)
			if err != nil {
				return nil, err
			}
			for j, i := range scorableIdx {
				priorities[i] = frontier.ScoreToPriority(scores[j])
			}
			return priorities, nil
		})
		if err != nil {
			return fmt.Errorf("controller: refresh slot %s: %w", slot, err)
		}
	}
	return nil
}

// recordTopPage keeps the highest-reward pages of the run, best first.
func (c *Controller) recordTopPage(resp *model.Response, reward float64) {
	if reward <= 0 {
		return
	}
	c.topPages = append(c.topPages, model.PageOutcome{
		URL:    resp.URL,
		Domain: resp.Domain,
		Reward: reward,
		Step:   c.learner.Step(),
	})
	sort.SliceStable(c.topPages, func(i, j int) bool {
		return c.topPages[i].Reward > c.topPages[j].Reward
	})
	if len(c.topPages) > maxTopPages {
		c.topPages = c.topPages[:maxTopPages]
	}
}

// recordFetchInGraph marks the response's node fetched with its outcome.
func (c *Controller) recordFetchInGraph(resp *model.Response, reward float64) {
	if c.crawlGraph == nil {
		return
	}
	id := c.crawlGraph.EnsureNode(crawler.NormalizeURL(resp.URL), resp.Domain)
	c.crawlGraph.RecordFetch(id, reward, c.learner.Step())
}

// LogStats emits a progress line plus the goal's own counters.
func (c *Controller) LogStats() {
	stats := c.queue.Stats()
	c.logger.Info("crawl progress",
		"step", c.learner.Step(),
		"total_reward", c.totalReward,
		"enqueued", stats.Enqueued,
		"dequeued", stats.Dequeued,
		"dropped", stats.Dropped,
		"domains_open", len(c.queue.ActiveSlots()),
		"domains_closed", len(c.queue.ClosedSlots()),
		"coef_norm", c.learner.CoefNorm(false),
	)
	c.goal.DebugPrint(c.logger)
}

// Summary builds the final accounting of the run.
func (c *Controller) Summary() *model.CrawlSummary {
	stats := c.queue.Stats()
	return &model.CrawlSummary{
		RunID:         c.runID,
		StartedAt:     c.startedAt,
		FinishedAt:    time.Now(),
		Steps:         c.learner.Step(),
		TotalReward:   c.totalReward,
		DomainsOpen:   len(c.queue.ActiveSlots()),
		DomainsClosed: len(c.queue.ClosedSlots()),
		Enqueued:      stats.Enqueued,
		Processed:     stats.Dequeued,
		Dropped:       stats.Dropped,
		TopPages:      c.topPages,
	}
}
