package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/specialistvlad/contractvm/internal/contract"
	"github.com/specialistvlad/contractvm/internal/testutil"
	"github.com/specialistvlad/contractvm/modules/chaininfo"
	"github.com/specialistvlad/contractvm/modules/greeter"
	"github.com/specialistvlad/contractvm/modules/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupApp creates an app over a temp archive directory. Logs are kept at
// debug level and dumped when CONTRACTVM_TEST_LOGS=true.
func setupApp(t *testing.T, cfg Config) (*App, *bytes.Buffer, *testutil.SafeBuffer) {
	t.Helper()
	if cfg.Module == "" {
		cfg.Module = "Greeter"
	}
	if cfg.ArchiveDir == "" {
		cfg.ArchiveDir = t.TempDir()
	}
	if cfg.LibDir == "" {
		cfg.LibDir = filepath.Join(cfg.ArchiveDir, "lib")
	}
	cfg.LogLevel = "debug"

	out := &bytes.Buffer{}
	logs := &testutil.SafeBuffer{}
	a, err := NewApp(context.Background(), out, logs, &cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = a.Close(context.Background())
		if os.Getenv("CONTRACTVM_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return a, out, logs
}

func link(name, key string) testutil.Entry {
	return testutil.Entry{Name: name, Data: testutil.Link(key)}
}

func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig(Config{Module: "Greeter"})
	require.NoError(t, err)
	assert.Equal(t, contract.OpMain, cfg.Op)

	_, err = NewConfig(Config{})
	assert.ErrorContains(t, err, "module is a required")

	_, err = NewConfig(Config{Module: "Greeter", Op: "deploy"})
	assert.ErrorContains(t, err, "unknown operation")
}

func TestRun_TxThenQuery(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteArchive(t, dir, "Greeter.car", link("pkg/Greeter.link", greeter.Key))

	a, out, logs := setupApp(t, Config{ArchiveDir: dir})
	ctx := context.Background()
	require.NoError(t, a.Start(ctx))

	require.NoError(t, a.Run(ctx, &Config{Module: "Greeter", Op: contract.OpTx, Args: []string{"hello"}}))
	require.NoError(t, a.Run(ctx, &Config{Module: "Greeter", Op: contract.OpQuery}))

	assert.Equal(t, "hello\n", out.String())
	assert.Contains(t, logs.String(), "Transaction finished.")
	assert.Contains(t, logs.String(), "elapsed=")
}

func TestRun_Main(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteArchive(t, dir, "Greeter.car", link("pkg/Greeter.link", greeter.Key))

	a, _, logs := setupApp(t, Config{ArchiveDir: dir})
	require.NoError(t, a.Run(context.Background(), &Config{Module: "Greeter", Op: contract.OpMain, Args: []string{"world"}}))
	assert.Contains(t, logs.String(), "name=world")
	assert.Contains(t, logs.String(), "Execution finished.")
}

func TestRun_ExplicitArchivePath(t *testing.T) {
	elsewhere := t.TempDir()
	path := testutil.WriteArchive(t, elsewhere, "Store.car", link("kv/Store.link", kvstore.Key))

	a, out, _ := setupApp(t, Config{})
	ctx := context.Background()

	require.NoError(t, a.Run(ctx, &Config{Module: "Store", Op: contract.OpTx, Args: []string{"k", "v"}, ArchivePath: path}))
	require.NoError(t, a.Run(ctx, &Config{Module: "Store", Op: contract.OpQuery, Args: []string{"k"}}))
	assert.Equal(t, "v\n", out.String())

	err := a.Run(ctx, &Config{Module: "Other", Op: contract.OpTx, ArchivePath: filepath.Join(elsewhere, "Other.car")})
	assert.ErrorIs(t, err, contract.ErrModuleNotFound)
	assert.ErrorIs(t, err, contract.ErrArtifactIO)
}

func TestRun_MissingModule(t *testing.T) {
	a, _, _ := setupApp(t, Config{})

	err := a.Run(context.Background(), &Config{Module: "Missing", Op: contract.OpTx})
	require.ErrorIs(t, err, contract.ErrArtifactIO)
	assert.False(t, a.Registry().IsLoaded("Missing"))
}

func TestStart_LoadsCommonLibrary(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "lib")
	testutil.WriteArchive(t, lib, "util.car", link("shared/Codec.link", kvstore.Key))
	testutil.WriteArchive(t, lib, "broken.car", testutil.Entry{Name: "README", Data: []byte("no units")})
	require.NoError(t, os.WriteFile(filepath.Join(lib, "corrupt.car"), []byte("not a zip"), 0600))

	a, _, logs := setupApp(t, Config{ArchiveDir: dir, LibDir: lib})
	require.NoError(t, a.Start(context.Background()))

	assert.Equal(t, 1, a.Registry().Stats().CommonUnits)
	assert.Contains(t, logs.String(), "Skipping common archive.")
}

func TestNewApp_CoreModulesProvideHostUnits(t *testing.T) {
	a, _, _ := setupApp(t, Config{})

	h, ok := a.catalog.Lookup(context.Background(), chaininfo.Name)
	require.True(t, ok)
	_, ok = h.Operation(contract.OpQuery)
	assert.True(t, ok)
}

func TestStart_MissingLibraryDirectory(t *testing.T) {
	a, _, _ := setupApp(t, Config{})
	require.NoError(t, a.Start(context.Background()))
	assert.Zero(t, a.Registry().Stats().CommonUnits)
}

func TestNewApp_ConfigFile(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()
	testutil.WriteArchive(t, dir, "Greeter.zip", link("pkg/Greeter.link", greeter.Key))

	cfgPath := filepath.Join(dir, "contractvm.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(strings.Join([]string{
		"archive_dir: " + dir,
		"archive_extension: zip",
		"state:",
		"  backend: redis",
		"  redis_url: redis://" + mr.Addr(),
		"  namespace: test",
	}, "\n")), 0600))

	out := &bytes.Buffer{}
	a, err := NewApp(context.Background(), out, &testutil.SafeBuffer{}, &Config{ConfigPath: cfgPath, Module: "Greeter"})
	require.NoError(t, err)
	defer a.Close(context.Background())

	require.NoError(t, a.Run(context.Background(), &Config{Module: "Greeter", Op: contract.OpTx, Args: []string{"from redis"}}))

	v, err := mr.Get("test:local:" + greeter.GreetingKey)
	require.NoError(t, err)
	assert.Equal(t, "from redis", v)
}

func TestNewApp_Errors(t *testing.T) {
	dir := t.TempDir()
	badLevel := filepath.Join(dir, "bad.hcl")
	require.NoError(t, os.WriteFile(badLevel, []byte("log {\n  level = \"loud\"\n}\n"), 0600))
	unreachable := filepath.Join(dir, "redis.yaml")
	require.NoError(t, os.WriteFile(unreachable, []byte("state:\n  backend: redis\n  redis_url: 127.0.0.1:1\n"), 0600))

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"invalid file", Config{ConfigPath: badLevel}, "invalid log level"},
		{"unknown format", Config{ConfigPath: filepath.Join(dir, "c.ini")}, "unsupported config file"},
		{"bad override", Config{LogFormat: "xml"}, "invalid log format"},
		{"redis unreachable", Config{ConfigPath: unreachable}, "failed to connect state backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Module = "Greeter"
			_, err := NewApp(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, &tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	newLogger("warn", "json", buf).Info("hidden")
	newLogger("warn", "json", buf).Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	newLogger("nonsense", "text", buf).Info("fallback")
	assert.Contains(t, buf.String(), "msg=fallback")
}
