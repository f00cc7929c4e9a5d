package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/specialistvlad/contractvm/internal/ctxlog"
	"gopkg.in/yaml.v3"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads the file at path into a Model. Defaults are not applied.
	Load(ctx context.Context, path string) (*Model, error)
}

// HCLLoader reads `.hcl` files.
type HCLLoader struct{}

// Load implements Loader.
func (HCLLoader) Load(ctx context.Context, path string) (*Model, error) {
	var m Model
	if err := hclsimple.DecodeFile(path, nil, &m); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &m, nil
}

// YAMLLoader reads `.yaml` and `.yml` files. Unknown keys are rejected.
type YAMLLoader struct{}

// Load implements Loader.
func (YAMLLoader) Load(ctx context.Context, path string) (*Model, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var m Model
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &m, nil
}

// LoaderFor picks a loader by file extension.
func LoaderFor(path string) (Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return HCLLoader{}, nil
	case ".yaml", ".yml":
		return YAMLLoader{}, nil
	default:
		return nil, fmt.Errorf("unsupported config file %s: expected .hcl, .yaml or .yml", path)
	}
}

// Load reads path with the matching loader, applies defaults and validates
// the result. An empty path yields Default.
func Load(ctx context.Context, path string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	if path == "" {
		logger.Debug("No config file given, using defaults.")
		return Default(), nil
	}

	loader, err := LoaderFor(path)
	if err != nil {
		return nil, err
	}
	m, err := loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	logger.Debug("Config loaded.", "path", path)
	return m, nil
}
