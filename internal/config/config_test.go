package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// validConfig returns a config that passes validation.
func validConfig() *Config {
	c := NewConfig()
	c.Seeds = []string{"http://example.com/"}
	c.Goal = GoalConfig{Type: GoalTypeKeyword, Keywords: []string{"jazz"}}
	return c
}

// TestValidate tests configuration validation.
func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("defaults with seeds are valid", func(t *testing.T) {
		t.Parallel()

		if err := validConfig().Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "no seeds", mutate: func(c *Config) { c.Seeds = nil }, wantErr: ErrNoSeeds},
		{name: "eps above one", mutate: func(c *Config) { c.Eps = 1.5 }, wantErr: ErrInvalidEps},
		{name: "negative eps", mutate: func(c *Config) { c.Eps = -0.1 }, wantErr: ErrInvalidEps},
		{name: "gamma of one", mutate: func(c *Config) { c.Gamma = 1.0 }, wantErr: ErrInvalidGamma},
		{name: "negative temperature", mutate: func(c *Config) { c.BalancingTemperature = -1 }, wantErr: ErrInvalidTemperature},
		{name: "zero learning rate", mutate: func(c *Config) { c.LearningRate = 0 }, wantErr: ErrInvalidLearningRate},
		{name: "zero replay sample", mutate: func(c *Config) { c.ReplaySampleSize = 0 }, wantErr: ErrInvalidReplaySampleSize},
		{name: "zero switch interval", mutate: func(c *Config) { c.StepsBeforeSwitch = 0 }, wantErr: ErrInvalidStepsBeforeSwitch},
		{name: "zero checkpoint interval", mutate: func(c *Config) { c.CheckpointInterval = 0 }, wantErr: ErrInvalidCheckpointInterval},
		{name: "zero refresh every", mutate: func(c *Config) { c.RefreshEvery = 0 }, wantErr: ErrInvalidRefreshEvery},
		{name: "zero max pages", mutate: func(c *Config) { c.MaxPages = 0 }, wantErr: ErrInvalidMaxPages},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }, wantErr: ErrInvalidTimeout},
		{name: "negative crawl delay", mutate: func(c *Config) { c.CrawlDelay = -1 }, wantErr: ErrInvalidCrawlDelay},
		{name: "unknown goal", mutate: func(c *Config) { c.Goal.Type = "alchemy" }, wantErr: ErrUnknownGoal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := validConfig()
			tt.mutate(c)
			if err := c.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestManifestJSON tests hyperparameter manifest serialization.
func TestManifestJSON(t *testing.T) {
	t.Parallel()

	c := validConfig()
	c.Eps = 0.3
	c.Baseline = true

	data, err := c.ManifestJSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("manifest is not valid JSON: %v", err)
	}
	if m.Eps != 0.3 {
		t.Errorf("Eps = %f, want 0.3", m.Eps)
	}
	if !m.Baseline {
		t.Error("Baseline should be true")
	}
	if m.GoalType != GoalTypeKeyword {
		t.Errorf("GoalType = %s, want %s", m.GoalType, GoalTypeKeyword)
	}
}

// TestGoalBuild tests goal strategy construction.
func TestGoalBuild(t *testing.T) {
	t.Parallel()

	t.Run("keyword goal", func(t *testing.T) {
		t.Parallel()

		g := GoalConfig{Type: GoalTypeKeyword, Keywords: []string{"jazz"}, MaxRewardingPages: 3}
		built, err := g.Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if built == nil {
			t.Fatal("goal should not be nil")
		}
	})

	t.Run("target page goal", func(t *testing.T) {
		t.Parallel()

		g := GoalConfig{Type: GoalTypeTargetPage, Pattern: "/contact"}
		built, err := g.Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if built == nil {
			t.Fatal("goal should not be nil")
		}
	})

	t.Run("unknown goal type", func(t *testing.T) {
		t.Parallel()

		g := GoalConfig{Type: "alchemy"}
		if _, err := g.Build(); !errors.Is(err, ErrUnknownGoal) {
			t.Errorf("err = %v, want %v", err, ErrUnknownGoal)
		}
	})
}

// TestLoadConfigFile tests YAML file loading.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads seeds and goal", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `
seeds:
  - http://example.com/
  - http://other.com/
goal:
  type: keyword
  keywords:
    - jazz
    - vinyl
  max_rewarding_pages: 5
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cf.Seeds) != 2 {
			t.Errorf("len(Seeds) = %d, want 2", len(cf.Seeds))
		}
		if cf.Goal.Type != GoalTypeKeyword || len(cf.Goal.Keywords) != 2 || cf.Goal.MaxRewardingPages != 5 {
			t.Errorf("Goal = %+v", cf.Goal)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("err = %v, want %v", err, ErrConfigNotFound)
		}
	})

	t.Run("invalid yaml is an error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("seeds: [unclosed"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for invalid yaml")
		}
	})
}

// TestApplyFile tests merging file settings into a config.
func TestApplyFile(t *testing.T) {
	t.Parallel()

	t.Run("file seeds fill empty config", func(t *testing.T) {
		t.Parallel()

		c := NewConfig()
		c.ApplyFile(&File{
			Seeds: []string{"http://example.com/"},
			Goal:  GoalConfig{Type: GoalTypeTargetPage, Pattern: "/contact"},
		})
		if len(c.Seeds) != 1 {
			t.Errorf("len(Seeds) = %d, want 1", len(c.Seeds))
		}
		if c.Goal.Type != GoalTypeTargetPage {
			t.Errorf("Goal.Type = %s, want %s", c.Goal.Type, GoalTypeTargetPage)
		}
	})

	t.Run("flag seeds win over file seeds", func(t *testing.T) {
		t.Parallel()

		c := NewConfig()
		c.Seeds = []string{"http://flag.com/"}
		c.ApplyFile(&File{Seeds: []string{"http://file.com/"}})
		if len(c.Seeds) != 1 || c.Seeds[0] != "http://flag.com/" {
			t.Errorf("Seeds = %v, want flag seeds only", c.Seeds)
		}
	})

	t.Run("nil file is a no-op", func(t *testing.T) {
		t.Parallel()

		c := validConfig()
		c.ApplyFile(nil)
		if err := c.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
