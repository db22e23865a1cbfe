package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".qcrawl"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the on-disk YAML configuration: seed URLs and the goal
// definition. Everything else is controlled by CLI flags.
type File struct {
	// Seeds are the starting URLs for the crawl.
	Seeds []string `yaml:"seeds"`

	// Goal selects and parameterizes the goal strategy.
	Goal GoalConfig `yaml:"goal"`
}

// LoadConfigFile loads a .qcrawl YAML file.
// If the file does not exist, it returns ErrConfigNotFound; callers
// decide whether that is fatal based on whether the path was explicit.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file:
// an explicit path is used directly; otherwise .qcrawl is looked up in
// the current directory and then the user's home directory.
// Returns an empty string when nothing is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}

// ApplyFile merges file-provided settings into the config.
// Flag-provided seeds win over file seeds; the file goal always applies
// when present because there is no goal flag surface.
func (c *Config) ApplyFile(cf *File) {
	if cf == nil {
		return
	}
	if len(c.Seeds) == 0 {
		c.Seeds = append(c.Seeds, cf.Seeds...)
	}
	if cf.Goal.Type != "" {
		c.Goal = cf.Goal
	}
}
