package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Dialect selects how transaction-search filters are encoded on the wire.
// LCD providers diverge: some accept the generic `query` expression, others
// only the structured `events` parameters.
const (
	DialectQuery  = "query"
	DialectEvents = "events"
)

// Chain describes one chain to index.
type Chain struct {
	Name          string `yaml:"name"`
	ID            uint64 `yaml:"id"`
	API           string `yaml:"api"`
	QueryDialect  string `yaml:"query_dialect"`
	ValoperPrefix string `yaml:"valoper_prefix"`
	GenesisURL    string `yaml:"genesis_url"`
	GenesisPath   string `yaml:"genesis_path"`
}

// Config is the full chains file.
type Config struct {
	CycleInterval time.Duration `yaml:"cycle_interval"`
	Chains        []Chain       `yaml:"chains"`
}

// Load reads and validates the chains file at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.CycleInterval <= 0 {
		cfg.CycleInterval = 60 * time.Second
	}

	if len(cfg.Chains) == 0 {
		return nil, fmt.Errorf("config %s: no chains configured", path)
	}

	seen := map[uint64]string{}
	for i := range cfg.Chains {
		c := &cfg.Chains[i]
		if err := c.validate(); err != nil {
			return nil, fmt.Errorf("config %s: chain %q: %w", path, c.Name, err)
		}
		if prev, ok := seen[c.ID]; ok {
			return nil, fmt.Errorf("config %s: chain id %d used by both %q and %q", path, c.ID, prev, c.Name)
		}
		seen[c.ID] = c.Name
	}

	return &cfg, nil
}

func (c *Chain) validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.ID == 0 {
		return fmt.Errorf("id is required")
	}
	if c.API == "" {
		return fmt.Errorf("api is required")
	}
	switch c.QueryDialect {
	case "":
		c.QueryDialect = DialectQuery
	case DialectQuery, DialectEvents:
	default:
		return fmt.Errorf("unknown query_dialect %q", c.QueryDialect)
	}
	if c.ValoperPrefix == "" {
		return fmt.Errorf("valoper_prefix is required")
	}
	return nil
}
