package cli

import (
	"bytes"
	"testing"

	"github.com/specialistvlad/contractvm/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ModuleAndArgs(t *testing.T) {
	cfg, exit, err := Parse([]string{"-op", "tx", "-archive", "build/Guess.car", "Guess", "bet", "7"}, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, "Guess", cfg.Module)
	assert.Equal(t, contract.OpTx, cfg.Op)
	assert.Equal(t, []string{"bet", "7"}, cfg.Args)
	assert.Equal(t, "build/Guess.car", cfg.ArchivePath)
}

func TestParse_Defaults(t *testing.T) {
	cfg, _, err := Parse([]string{"Greeter"}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, contract.OpMain, cfg.Op)
	assert.Empty(t, cfg.Args)
	assert.Empty(t, cfg.ConfigPath)
	assert.Empty(t, cfg.LogLevel, "empty overrides keep the config file values")
}

func TestParse_Overrides(t *testing.T) {
	cfg, _, err := Parse([]string{
		"-config", "contractvm.hcl",
		"-lib", "/srv/lib",
		"-archive-dir", "/srv/modules",
		"-log-level", "DEBUG",
		"-log-format", "json",
		"-op", "Query",
		"Store", "k",
	}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, "contractvm.hcl", cfg.ConfigPath)
	assert.Equal(t, "/srv/lib", cfg.LibDir)
	assert.Equal(t, "/srv/modules", cfg.ArchiveDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, contract.OpQuery, cfg.Op)
}

func TestParse_ShouldExit(t *testing.T) {
	for _, args := range [][]string{{"-h"}, {}} {
		out := &bytes.Buffer{}
		cfg, exit, err := Parse(args, out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown flag", []string{"-workers", "3", "Greeter"}, "flag provided but not defined"},
		{"unknown op", []string{"-op", "deploy", "Greeter"}, "unknown operation"},
		{"bad format", []string{"-log-format", "xml", "Greeter"}, "invalid log-format"},
		{"bad level", []string{"-log-level", "loud", "Greeter"}, "invalid log-level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(tt.args, &bytes.Buffer{})
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tt.want)
		})
	}
}
