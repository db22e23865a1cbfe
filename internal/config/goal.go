package config

import (
	"github.com/nao1215/qcrawl/internal/goal"
)

// Goal strategy names accepted in configuration.
const (
	// GoalTypeKeyword rewards pages containing configured keywords.
	GoalTypeKeyword = "keyword"

	// GoalTypeTargetPage rewards pages whose URL path matches a pattern.
	GoalTypeTargetPage = "target-page"
)

// GoalConfig selects and parameterizes a goal strategy.
type GoalConfig struct {
	// Type names the strategy: "keyword" or "target-page".
	Type string `yaml:"type"`

	// Keywords for the keyword strategy.
	Keywords []string `yaml:"keywords,omitempty"`

	// MaxRewardingPages is how many rewarding pages satisfy a domain
	// under the keyword strategy. 0 uses the strategy default.
	MaxRewardingPages int `yaml:"max_rewarding_pages,omitempty"`

	// Pattern for the target-page strategy.
	Pattern string `yaml:"pattern,omitempty"`
}

// validate checks the goal type.
func (g *GoalConfig) validate() error {
	switch g.Type {
	case GoalTypeKeyword, GoalTypeTargetPage:
		return nil
	default:
		return ErrUnknownGoal
	}
}

// Build constructs the configured goal strategy.
func (g *GoalConfig) Build() (goal.Goal, error) {
	switch g.Type {
	case GoalTypeKeyword:
		opts := []goal.KeywordOption{}
		if g.MaxRewardingPages > 0 {
			opts = append(opts, goal.WithMaxRewardingPages(g.MaxRewardingPages))
		}
		return goal.NewKeywordGoal(g.Keywords, opts...), nil
	case GoalTypeTargetPage:
		return goal.NewTargetPageGoal(g.Pattern)
	default:
		return nil, ErrUnknownGoal
	}
}
