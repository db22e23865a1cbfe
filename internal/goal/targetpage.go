package goal

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"

	"github.com/nao1215/qcrawl/internal/model"
)

// TargetPageGoal rewards pages whose URL path matches a target regexp,
// for crawls hunting one specific kind of page (a contact form, a product
// listing, a feed). The reward is 1 on a match, 0 otherwise, and a domain
// is achieved as soon as it has produced one matching page.
type TargetPageGoal struct {
	pattern *regexp.Regexp

	// found marks domains that produced a matching page.
	found map[string]bool
}

// NewTargetPageGoal compiles pattern into a case-insensitive regexp
// matched against URL paths.
func NewTargetPageGoal(pattern string) (*TargetPageGoal, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("goal: compile target pattern %q: %w", pattern, err)
	}
	return &TargetPageGoal{
		pattern: re,
		found:   make(map[string]bool),
	}, nil
}

// Reward returns 1 when the response URL path matches the target pattern.
func (g *TargetPageGoal) Reward(resp *model.Response) float64 {
	if !resp.TextAvailable {
		return 0
	}
	u, err := url.Parse(resp.URL)
	if err != nil {
		return 0
	}
	if g.pattern.MatchString(u.Path) {
		return 1
	}
	return 0
}

// ResponseObserved marks the domain found when the page matched.
func (g *TargetPageGoal) ResponseObserved(resp *model.Response) {
	if g.Reward(resp) > 0 {
		g.found[resp.Domain] = true
	}
}

// IsAchieved reports whether the domain already produced a target page.
func (g *TargetPageGoal) IsAchieved(domain string) bool {
	return g.found[domain]
}

// DebugPrint logs which domains found their target.
func (g *TargetPageGoal) DebugPrint(logger *slog.Logger) {
	logger.Debug("target page goal progress", "pattern", g.pattern.String(), "domains_found", len(g.found))
}
