// Package config loads pipeline settings from a YAML or HJSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hjson/hjson-go/v4"
	"gopkg.in/yaml.v2"
)

// Defaults applied by Load when the file leaves a field unset.
var (
	DefaultRegions   = []string{"26", "46", "61", "21"}
	DefaultBatchSize = 50
)

// Config drives a pipeline run.
type Config struct {
	// Regions is the allow-list of two-digit region codes; files from
	// other regions are skipped during cataloguing.
	Regions []string `yaml:"regions" json:"regions"`
	// BatchSize bounds concurrent extractions.
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// MicroDir holds single-file micro statements.
	MicroDir string `yaml:"micro_dir" json:"micro_dir"`
	// Form1Dir and Form2Dir hold the balance-sheet and
	// income-statement halves of paired filings.
	Form1Dir string `yaml:"form1_dir" json:"form1_dir"`
	Form2Dir string `yaml:"form2_dir" json:"form2_dir"`

	// MinDate (YYYY-MM-DD) drops filings dated on or before it.
	MinDate string `yaml:"min_date" json:"min_date"`
	// Output is where the JSON artifact of a run is written.
	Output string `yaml:"output" json:"output"`
}

// Load reads the file, decoding by extension: .yaml/.yml or .hjson.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := &Config{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parsing yaml config %s: %w", path, err)
		}
	case ".hjson":
		// hjson decodes into loosely typed maps; round-trip through
		// JSON to land on the struct.
		var loose interface{}
		if err := hjson.Unmarshal(raw, &loose); err != nil {
			return nil, fmt.Errorf("parsing hjson config %s: %w", path, err)
		}
		buf, err := json.Marshal(loose)
		if err != nil {
			return nil, fmt.Errorf("normalizing hjson config %s: %w", path, err)
		}
		if err := json.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("decoding hjson config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("config %s: unsupported extension %q", path, ext)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.Regions) == 0 {
		c.Regions = append([]string(nil), DefaultRegions...)
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
}

func (c *Config) validate() error {
	if c.MicroDir == "" && (c.Form1Dir == "" || c.Form2Dir == "") {
		return fmt.Errorf("either micro_dir or both form1_dir and form2_dir must be set")
	}
	for _, r := range c.Regions {
		if len(r) != 2 {
			return fmt.Errorf("region code %q must be two digits", r)
		}
	}
	return nil
}
