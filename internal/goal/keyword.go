package goal

import (
	"log/slog"
	"strings"

	"github.com/nao1215/qcrawl/internal/model"
)

// DefaultMaxRewardingPages is how many rewarding pages satisfy a domain
// under KeywordGoal before its slot is closed.
const DefaultMaxRewardingPages = 100

// KeywordGoal rewards pages whose text contains configured keywords.
// The reward for a page is the number of distinct keywords present, so a
// page matching two of three keywords earns 2.0. A domain is achieved
// once it has produced maxRewardingPages pages with a positive reward.
type KeywordGoal struct {
	keywords          []string
	maxRewardingPages int

	// rewardingPages counts positive-reward pages per domain.
	rewardingPages map[string]int
}

// KeywordOption configures a KeywordGoal.
type KeywordOption func(*KeywordGoal)

// WithMaxRewardingPages sets how many rewarding pages satisfy a domain.
func WithMaxRewardingPages(n int) KeywordOption {
	return func(g *KeywordGoal) { g.maxRewardingPages = n }
}

// NewKeywordGoal creates a KeywordGoal for the given keywords.
// Keywords are matched case-insensitively as substrings of the page text.
func NewKeywordGoal(keywords []string, opts ...KeywordOption) *KeywordGoal {
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.TrimSpace(strings.ToLower(kw)); kw != "" {
			lowered = append(lowered, kw)
		}
	}

	g := &KeywordGoal{
		keywords:          lowered,
		maxRewardingPages: DefaultMaxRewardingPages,
		rewardingPages:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Reward returns the number of distinct keywords found in the page text.
func (g *KeywordGoal) Reward(resp *model.Response) float64 {
	if !resp.TextAvailable {
		return 0
	}
	text := strings.ToLower(resp.Text)
	var hits float64
	for _, kw := range g.keywords {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	return hits
}

// ResponseObserved counts the page toward its domain when it rewarded.
func (g *KeywordGoal) ResponseObserved(resp *model.Response) {
	if g.Reward(resp) > 0 {
		g.rewardingPages[resp.Domain]++
	}
}

// IsAchieved reports whether the domain produced enough rewarding pages.
func (g *KeywordGoal) IsAchieved(domain string) bool {
	return g.rewardingPages[domain] >= g.maxRewardingPages
}

// DebugPrint logs per-domain progress.
func (g *KeywordGoal) DebugPrint(logger *slog.Logger) {
	for domain, n := range g.rewardingPages {
		logger.Debug("keyword goal progress",
			"domain", domain,
			"rewarding_pages", n,
			"needed", g.maxRewardingPages,
		)
	}
}
