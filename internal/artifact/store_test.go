package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/contractvm/internal/contract"
	"github.com/specialistvlad/contractvm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan_UnitsInArchiveOrder(t *testing.T) {
	dir := t.TempDir()
	wasm := testutil.WasmModule()
	path := testutil.WriteArchive(t, dir, "Guess.car",
		testutil.Entry{Name: "META-INF/MANIFEST.MF", Data: []byte("ignored")},
		testutil.Entry{Name: "dapp/guess/Record.wasm", Data: wasm},
		testutil.Entry{Name: "dapp/guess/", Data: nil},
		testutil.Entry{Name: "dapp/guess/Guess.link", Data: testutil.Link("guess")},
		testutil.Entry{Name: "README.md", Data: []byte("ignored")},
	)

	archive, err := NewStore().Scan(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "Guess", archive.Module)
	assert.Equal(t, path, archive.Path)
	assert.Nil(t, archive.Manifest)
	require.Len(t, archive.Units, 2)
	assert.Equal(t, contract.Unit{Name: "dapp.guess.Record", Kind: contract.KindWasm, Code: wasm}, archive.Units[0])
	assert.Equal(t, "dapp.guess.Guess", archive.Units[1].Name)
	assert.Equal(t, contract.KindLink, archive.Units[1].Kind)
}

func TestScan_ParsesManifest(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteArchive(t, dir, "Greeter.car",
		testutil.Entry{Name: "module.hcl", Data: []byte(`module "Greeter" { entry = "pkg.Hello" }`)},
		testutil.Entry{Name: "pkg/Hello.link", Data: testutil.Link("greeter")},
	)

	archive, err := NewStore().Scan(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, archive.Manifest)
	assert.Equal(t, "pkg.Hello", archive.Manifest.Entry)
}

func TestScan_Failures(t *testing.T) {
	dir := t.TempDir()

	corrupt := filepath.Join(dir, "Corrupt.car")
	require.NoError(t, os.WriteFile(corrupt, []byte("this is not a zip file"), 0644))

	badManifest := testutil.WriteArchive(t, dir, "Bad.car",
		testutil.Entry{Name: "module.hcl", Data: []byte(`module "Bad" {`)},
		testutil.Entry{Name: "pkg/Bad.link", Data: testutil.Link("bad")},
	)

	foreignManifest := testutil.WriteArchive(t, dir, "Store.car",
		testutil.Entry{Name: "module.hcl", Data: []byte(`module "Other" { entry = "kv.Store" }`)},
		testutil.Entry{Name: "kv/Store.link", Data: testutil.Link("kvstore")},
	)

	testCases := map[string]string{
		"missing":          filepath.Join(dir, "Missing.car"),
		"corrupt":          corrupt,
		"bad manifest":     badManifest,
		"foreign manifest": foreignManifest,
	}
	for name, path := range testCases {
		t.Run(name, func(t *testing.T) {
			archive, err := NewStore().Scan(context.Background(), path)
			require.ErrorIs(t, err, contract.ErrArtifactIO)
			assert.Nil(t, archive)
		})
	}
}

func TestScan_HonoursContext(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteArchive(t, dir, "Slow.car", testutil.Entry{Name: "a/Slow.link", Data: testutil.Link("slow")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStore().Scan(ctx, path)
	require.ErrorIs(t, err, contract.ErrArtifactIO)
	require.ErrorIs(t, err, context.Canceled)
}

func TestScan_CustomExtensions(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteArchive(t, dir, "Native.jar",
		testutil.Entry{Name: "cn/chain33/Native.so", Data: []byte{0x7f, 'E', 'L', 'F'}},
	)

	store := NewStore(WithExtension("jar"), WithUnitKind(".so", contract.Kind("native")))
	assert.Equal(t, ".jar", store.Extension())

	archive, err := store.Scan(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Native", archive.Module)
	require.Len(t, archive.Units, 1)
	assert.Equal(t, "cn.chain33.Native", archive.Units[0].Name)
	assert.Equal(t, contract.Kind("native"), archive.Units[0].Kind)
}

func TestScanDirectory(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteArchive(t, dir, "b.car")
	testutil.WriteArchive(t, dir, "a.car")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0644))

	paths, err := NewStore().ScanDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.car"), filepath.Join(dir, "b.car")}, paths)

	_, err = NewStore().ScanDirectory(context.Background(), filepath.Join(dir, "missing"))
	require.ErrorIs(t, err, contract.ErrArtifactIO)
}

func TestQualifiedName(t *testing.T) {
	assert.Equal(t, "dapp.guess.Guess", QualifiedName("dapp/guess/Guess.wasm", ".wasm"))
	assert.Equal(t, "Top", QualifiedName("/Top.link", ".link"))
}
