// Package exporter writes built geodata to L2J region files.
package exporter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/geobuild/pkg/formats"
	"github.com/Faultbox/geobuild/pkg/geodata"
)

// ErrOutputDirMissing is returned when the output root does not exist.
var ErrOutputDirMissing = errors.New("geodata output directory does not exist")

// L2JExtension is the region file extension.
const L2JExtension = ".l2j"

// Option configures an Exporter.
type Option func(*Exporter)

// WithCompression writes zstd compressed .l2j.zst files.
func WithCompression() Option {
	return func(e *Exporter) { e.compress = true }
}

// WithLogger sets the exporter logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Exporter) { e.log = log }
}

// WithGrid overrides the region grid.
func WithGrid(grid geodata.Grid) Option {
	return func(e *Exporter) { e.grid = grid }
}

// Exporter serializes geodata into files under a root directory. It keeps
// one export buffer across calls and is not safe for concurrent use.
type Exporter struct {
	root     string
	compress bool
	grid     geodata.Grid
	log      *zap.Logger

	buffer     *geodata.ExportBuffer
	serializer *formats.L2JSerializer
}

// New creates an exporter writing to root, which must be an existing
// directory.
func New(root string, opts ...Option) (*Exporter, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrOutputDirMissing, root)
	}

	e := &Exporter{
		root: root,
		grid: geodata.DefaultGrid(),
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.buffer = geodata.NewExportBuffer(e.grid)
	e.serializer = formats.NewL2JSerializer(e.grid)
	return e, nil
}

// Path returns the file an export of name is written to.
func (e *Exporter) Path(name string) string {
	path := filepath.Join(e.root, name+L2JExtension)
	if e.compress {
		path += formats.ZstdExtension
	}
	return path
}

// Export writes g as <root>/<name>.l2j and returns the path. The region is
// written to a temporary file first, so a failed export leaves any existing
// file untouched.
func (e *Exporter) Export(name string, g *geodata.Geodata) (path string, err error) {
	path = e.Path(name)

	tmp, err := os.CreateTemp(e.root, name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	err = multierr.Combine(
		tmp.Chmod(0o644),
		e.write(tmp, name, g),
	)
	err = multierr.Append(err, tmp.Close())
	if err != nil {
		return "", err
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("renaming %s: %w", tmp.Name(), err)
	}

	e.log.Info("geodata exported", zap.String("path", path), zap.Int("cells", len(g.Cells)))
	return path, nil
}

func (e *Exporter) write(f *os.File, name string, g *geodata.Geodata) (err error) {
	var w io.Writer = f
	if e.compress {
		var enc *zstd.Encoder
		enc, err = zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("creating zstd writer: %w", err)
		}
		defer multierr.AppendInvoke(&err, multierr.Close(enc))
		w = enc
	}

	if err := e.serializer.SerializeInto(e.buffer, g, w); err != nil {
		return fmt.Errorf("serializing %s: %w", name, err)
	}
	return nil
}
