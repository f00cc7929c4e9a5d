package config

import (
	"fmt"
	"strings"
)

// State backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Model is the host configuration.
type Model struct {
	// LibDir holds the common library archives preloaded at startup.
	LibDir string `hcl:"lib_dir,optional" yaml:"lib_dir"`
	// ArchiveDir is where `<module><ext>` archives are looked up on first use.
	ArchiveDir       string `hcl:"archive_dir,optional" yaml:"archive_dir"`
	ArchiveExtension string `hcl:"archive_extension,optional" yaml:"archive_extension"`
	// ScanConcurrency bounds parallel common archive scans. Unset means 4; a
	// negative value lifts the bound.
	ScanConcurrency int `hcl:"scan_concurrency,optional" yaml:"scan_concurrency"`

	Log   *Log   `hcl:"log,block" yaml:"log"`
	State *State `hcl:"state,block" yaml:"state"`
	Wasm  *Wasm  `hcl:"wasm,block" yaml:"wasm"`
	Chain *Chain `hcl:"chain,block" yaml:"chain"`
}

// Log configures the process logger.
type Log struct {
	Level  string `hcl:"level,optional" yaml:"level"`
	Format string `hcl:"format,optional" yaml:"format"`
}

// State selects the backend of StateDB and LocalDB.
type State struct {
	Backend   string `hcl:"backend,optional" yaml:"backend"`
	RedisURL  string `hcl:"redis_url,optional" yaml:"redis_url"`
	Namespace string `hcl:"namespace,optional" yaml:"namespace"`
}

// Wasm tunes the WebAssembly runtime.
type Wasm struct {
	MemoryLimitPages uint32 `hcl:"memory_limit_pages,optional" yaml:"memory_limit_pages"`
}

// Chain seeds the in-memory chain and account services.
type Chain struct {
	Height   uint64           `hcl:"height,optional" yaml:"height"`
	From     string           `hcl:"from,optional" yaml:"from"`
	Accounts map[string]int64 `hcl:"accounts,optional" yaml:"accounts"`
}

// Default returns the configuration used when no file is given.
func Default() *Model {
	m := &Model{}
	m.applyDefaults()
	return m
}

func (m *Model) applyDefaults() {
	if m.LibDir == "" {
		m.LibDir = "lib"
	}
	if m.ArchiveDir == "" {
		m.ArchiveDir = "."
	}
	if m.ArchiveExtension == "" {
		m.ArchiveExtension = ".car"
	}
	if m.ScanConcurrency == 0 {
		m.ScanConcurrency = 4
	}
	if m.Log == nil {
		m.Log = &Log{}
	}
	if m.Log.Level == "" {
		m.Log.Level = "info"
	}
	if m.Log.Format == "" {
		m.Log.Format = "text"
	}
	if m.State == nil {
		m.State = &State{}
	}
	if m.State.Backend == "" {
		m.State.Backend = BackendMemory
	}
	if m.State.Namespace == "" {
		m.State.Namespace = "contractvm"
	}
	if m.Wasm == nil {
		m.Wasm = &Wasm{}
	}
	if m.Chain == nil {
		m.Chain = &Chain{}
	}
	if m.Chain.From == "" {
		m.Chain.From = "local"
	}
}

// Validate reports the first invalid setting.
func (m *Model) Validate() error {
	switch strings.ToLower(m.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", m.Log.Level)
	}
	switch strings.ToLower(m.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q: must be 'text' or 'json'", m.Log.Format)
	}
	switch m.State.Backend {
	case BackendMemory:
	case BackendRedis:
		if m.State.RedisURL == "" {
			return fmt.Errorf("state backend %q requires redis_url", BackendRedis)
		}
	default:
		return fmt.Errorf("unknown state backend %q: must be '%s' or '%s'", m.State.Backend, BackendMemory, BackendRedis)
	}
	return nil
}
