package artifact

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/contractvm/internal/contract"
	"github.com/specialistvlad/contractvm/internal/ctxlog"
	"github.com/specialistvlad/contractvm/internal/fsutil"
	"github.com/specialistvlad/contractvm/internal/manifest"
)

// DefaultExtension is the file extension of a packaged contract.
const DefaultExtension = ".car"

// DefaultUnitKinds maps unit entry extensions to the kind of unit they hold.
var DefaultUnitKinds = map[string]contract.Kind{
	".wasm": contract.KindWasm,
	".link": contract.KindLink,
}

// Archive is the fully materialized content of one packaged contract.
type Archive struct {
	Path     string
	Module   string
	Units    []contract.Unit
	Manifest *manifest.Manifest
}

// Store scans archives from the local filesystem.
type Store struct {
	extension string
	unitKinds map[string]contract.Kind
}

// Option configures a Store.
type Option func(*Store)

// WithExtension overrides the archive file extension.
func WithExtension(ext string) Option {
	return func(s *Store) {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		s.extension = ext
	}
}

// WithUnitKind registers an additional unit entry extension.
func WithUnitKind(ext string, kind contract.Kind) Option {
	return func(s *Store) {
		s.unitKinds[ext] = kind
	}
}

// NewStore creates a Store with the default archive extension and unit kinds.
func NewStore(opts ...Option) *Store {
	s := &Store{
		extension: DefaultExtension,
		unitKinds: make(map[string]contract.Kind, len(DefaultUnitKinds)),
	}
	for ext, kind := range DefaultUnitKinds {
		s.unitKinds[ext] = kind
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.extension == "" {
		s.extension = DefaultExtension
	}
	return s
}

// Extension returns the archive file extension, including the leading dot.
func (s *Store) Extension() string {
	return s.extension
}

// ModuleName derives the module name from an archive path.
func (s *Store) ModuleName(archivePath string) string {
	return strings.TrimSuffix(filepath.Base(archivePath), s.extension)
}

// Scan opens the archive at archivePath and returns every compiled unit it
// holds, in archive order. Any failure is reported as contract.ErrArtifactIO
// and no partial result is returned.
func (s *Store) Scan(ctx context.Context, archivePath string) (*Archive, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Scanning archive.", "path", archivePath)

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", contract.ErrArtifactIO, archivePath, err)
	}
	defer zr.Close()

	archive := &Archive{
		Path:   archivePath,
		Module: s.ModuleName(archivePath),
	}

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: scan %s: %w", contract.ErrArtifactIO, archivePath, err)
		}
		if f.FileInfo().IsDir() {
			continue
		}

		entryName := strings.ReplaceAll(f.Name, `\`, "/")
		if entryName == manifest.FileName {
			src, err := readEntry(f)
			if err != nil {
				return nil, fmt.Errorf("%w: read %s in %s: %w", contract.ErrArtifactIO, f.Name, archivePath, err)
			}
			m, err := manifest.Parse(src, archivePath+"!"+manifest.FileName)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", contract.ErrArtifactIO, err)
			}
			if m.Module != archive.Module {
				return nil, fmt.Errorf("%w: %s declares module %q but the archive provides %q", contract.ErrArtifactIO, manifest.FileName, m.Module, archive.Module)
			}
			archive.Manifest = m
			continue
		}

		ext := path.Ext(entryName)
		kind, ok := s.unitKinds[ext]
		if !ok {
			continue
		}

		code, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s in %s: %w", contract.ErrArtifactIO, f.Name, archivePath, err)
		}
		archive.Units = append(archive.Units, contract.Unit{
			Name: QualifiedName(entryName, ext),
			Kind: kind,
			Code: code,
		})
	}

	logger.Debug("Archive scanned.", "path", archivePath, "module", archive.Module, "units", len(archive.Units), "manifest", archive.Manifest != nil)
	return archive, nil
}

// ScanDirectory lists the archives directly inside dir, sorted by name.
func (s *Store) ScanDirectory(ctx context.Context, dir string) ([]string, error) {
	files, err := fsutil.ListFilesByExtension(dir, s.extension)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %w", contract.ErrArtifactIO, dir, err)
	}
	ctxlog.FromContext(ctx).Debug("Archives found.", "dir", dir, "count", len(files))
	return files, nil
}

// QualifiedName turns an archive entry path into a unit name:
// "dapp/guess/Guess.wasm" becomes "dapp.guess.Guess".
func QualifiedName(entryName, ext string) string {
	name := strings.TrimSuffix(entryName, ext)
	name = strings.TrimPrefix(name, "/")
	return strings.ReplaceAll(name, "/", ".")
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
