// Package config loads and validates the YAML run configuration of a batch
// of attacks: which networks (one per seed) to attack, with which policies,
// and where to write the outputs.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-percolation/pkg/attack"
	"github.com/dd0wney/cluso-percolation/pkg/logging"
)

// Defaults applied to unset fields.
const (
	DefaultOutputDir = "out"
	DefaultWorkers   = 1
	DefaultLogLevel  = "info"
)

// Config is the run configuration.
type Config struct {
	// InputPattern locates the edge list of each seed. A pattern holding a
	// fmt verb is formatted with the seed, e.g. networks/ER_%05d.txt.
	InputPattern string `yaml:"input_pattern" validate:"required"`
	OutputDir    string `yaml:"output_dir"`

	Seeds   SeedRange      `yaml:"seeds"`
	Attacks []AttackConfig `yaml:"attacks" validate:"required,min=1,dive"`

	Overwrite            bool `yaml:"overwrite"`
	RecordCentrality     bool `yaml:"record_centrality"`
	NormalizeBetweenness bool `yaml:"normalize_betweenness"`
	Compress             bool `yaml:"compress"`

	Workers           int `yaml:"workers" validate:"gte=0,lte=1024"`
	CentralityWorkers int `yaml:"centrality_workers" validate:"gte=0,lte=1024"`

	LogLevel    string `yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	MetricsAddr string `yaml:"metrics_addr" validate:"omitempty,hostname_port"`
}

// SeedRange is the half-open seed interval [Min, Max).
type SeedRange struct {
	Min int `yaml:"min" validate:"gte=0"`
	Max int `yaml:"max" validate:"gtfield=Min"`
}

// Len returns the number of seeds in the range.
func (r SeedRange) Len() int {
	return max(r.Max-r.Min, 0)
}

// AttackConfig selects one removal policy.
type AttackConfig struct {
	Centrality  string `yaml:"centrality" validate:"required,oneof=betweenness degree random btw deg ran"`
	FollowGiant bool   `yaml:"follow_giant"`
	// Update defaults to static; random attacks with update draw anew at
	// every step instead of following one shuffle.
	Update bool `yaml:"update"`
}

// Policy converts the entry to an attack policy.
func (a AttackConfig) Policy() (attack.Policy, error) {
	c, err := attack.ParseCentrality(a.Centrality)
	if err != nil {
		return attack.Policy{}, err
	}
	return attack.Policy{Centrality: c, FollowGiant: a.FollowGiant, Update: a.Update}, nil
}

// Default returns a configuration with every optional field set.
func Default() *Config {
	return &Config{
		OutputDir:         DefaultOutputDir,
		Seeds:             SeedRange{Min: 0, Max: 1},
		Workers:           DefaultWorkers,
		CentralityWorkers: DefaultWorkers,
		LogLevel:          DefaultLogLevel,
	}
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// An empty document decodes to the defaults
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ApplyDefaults fills zero values left by the file or by flag overrides.
func (c *Config) ApplyDefaults() {
	c.OutputDir = DefaultOr(c.OutputDir, DefaultOutputDir)
	c.LogLevel = DefaultOr(c.LogLevel, DefaultLogLevel)
	c.Workers = DefaultOrInt(c.Workers, DefaultWorkers)
	c.CentralityWorkers = DefaultOrInt(c.CentralityWorkers, DefaultWorkers)
}

// Validate checks struct constraints and the cross-field rules.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config cannot be nil", ErrInvalidConfig)
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, formatValidationError(err))
	}

	chk := &checker{}
	chk.When(c.Seeds.Len() > 1, func(chk *checker) {
		chk.Custom("input_pattern", func() error {
			if !strings.Contains(c.InputPattern, "%") {
				return fmt.Errorf("needs a seed verb such as %%05d for %d seeds", c.Seeds.Len())
			}
			return nil
		})
	})
	chk.Custom("log_level", func() error {
		_, err := logging.ParseLevel(c.LogLevel)
		return err
	})
	seen := make(map[string]int, len(c.Attacks))
	for i, a := range c.Attacks {
		chk.Custom(fmt.Sprintf("attacks[%d]", i), func() error {
			p, err := a.Policy()
			if err != nil {
				return err
			}
			if j, dup := seen[p.String()]; dup {
				return fmt.Errorf("duplicates attacks[%d]", j)
			}
			seen[p.String()] = i
			return nil
		})
	}
	chk.Custom("attacks", func() error {
		return prefixCollision(c.Attacks)
	})

	if err := chk.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// prefixCollision rejects attack lists whose output directories would clash:
// static and updating random attacks share a prefix.
func prefixCollision(attacks []AttackConfig) error {
	byPrefix := make(map[string]string)
	for _, a := range attacks {
		p, err := a.Policy()
		if err != nil {
			continue
		}
		if other, ok := byPrefix[p.Prefix()]; ok && other != p.String() {
			return fmt.Errorf("%s and %s both write to %s", other, p.String(), p.Prefix())
		}
		byPrefix[p.Prefix()] = p.String()
	}
	return nil
}

// Job is one attack on one network.
type Job struct {
	Seed      int
	Network   string
	InputPath string
	Policy    attack.Policy
}

// InputPath returns the edge list path of a seed.
func (c *Config) InputPath(seed int) string {
	if strings.Contains(c.InputPattern, "%") {
		return fmt.Sprintf(c.InputPattern, seed)
	}
	return c.InputPattern
}

// NetworkName derives the network name from an input path: its base name
// without extension.
func NetworkName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Jobs expands seeds × attacks, seed-major. The configuration must be valid.
func (c *Config) Jobs() ([]Job, error) {
	jobs := make([]Job, 0, c.Seeds.Len()*len(c.Attacks))
	for seed := c.Seeds.Min; seed < c.Seeds.Max; seed++ {
		path := c.InputPath(seed)
		for _, a := range c.Attacks {
			p, err := a.Policy()
			if err != nil {
				return nil, err
			}
			jobs = append(jobs, Job{
				Seed:      seed,
				Network:   NetworkName(path),
				InputPath: path,
				Policy:    p,
			})
		}
	}
	return jobs, nil
}
