package app

import (
	"errors"

	"github.com/specialistvlad/contractvm/internal/contract"
)

// Config holds everything needed to run one invocation. Empty override fields
// leave the value from the config file (or its default) in place.
type Config struct {
	ConfigPath string // .hcl, .yaml or .yml

	Module      string
	Op          contract.Op
	Args        []string
	ArchivePath string // explicit archive for Module, bypassing ArchiveDir

	LibDir     string
	ArchiveDir string
	LogFormat  string
	LogLevel   string
}

// NewConfig validates cfg and fills its defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Module == "" {
		return nil, errors.New("module is a required configuration field and cannot be empty")
	}
	if cfg.Op == "" {
		cfg.Op = contract.OpMain
	}
	if _, err := contract.ParseOp(string(cfg.Op)); err != nil {
		return nil, err
	}
	return &cfg, nil
}
