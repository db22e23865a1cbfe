package goal

import (
	"log/slog"

	"github.com/nao1215/qcrawl/internal/model"
)

// Goal scores fetched pages and tracks per-domain completion.
// Implementations are not safe for concurrent use; the controller owns
// its goal exclusively.
type Goal interface {
	// Reward returns the scalar reward for a fetched page.
	// It must not mutate goal state: the controller may score a page
	// without committing the observation.
	Reward(resp *model.Response) float64

	// ResponseObserved commits per-domain bookkeeping for a page whose
	// reward has been consumed. Called exactly once per rewarded page.
	ResponseObserved(resp *model.Response)

	// IsAchieved reports whether the domain's objective is satisfied.
	// Once true for a domain it must stay true: the controller closes
	// the domain's slot irreversibly on the first true answer.
	IsAchieved(domain string) bool

	// DebugPrint logs the goal's internal progress counters.
	DebugPrint(logger *slog.Logger)
}
