package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/geobuild/internal/exporter"
	"github.com/Faultbox/geobuild/pkg/formats"
	"github.com/Faultbox/geobuild/pkg/geodata"
	"github.com/Faultbox/geobuild/pkg/math"
)

var (
	testGrid   = geodata.Grid{BlocksX: 1, BlocksY: 1, BlockCellsX: 8, BlockCellsY: 8, MaxLayers: 8}
	testBounds = math.Box{
		Min: math.Vec3{X: 0, Y: 0, Z: -64},
		Max: math.Vec3{X: 128, Y: 128, Z: 64},
	}
)

func flatMap(name string, z float32) *geodata.Map {
	m := geodata.NewMap(name, testBounds)
	m.AddTriangles([]math.Vec3{
		{X: 0, Y: 0, Z: z}, {X: 128, Y: 0, Z: z},
		{X: 128, Y: 128, Z: z}, {X: 0, Y: 128, Z: z},
	}, []int32{0, 1, 2, 0, 2, 3})
	return m
}

func exporterFactory(dir string) ExporterFactory {
	return func() (*exporter.Exporter, error) {
		return exporter.New(dir, exporter.WithGrid(testGrid))
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	core, logs := observer.New(zapcore.InfoLevel)

	var jobs []Job
	for i := 0; i < 5; i++ {
		name := fmt.Sprintf("map_%d", i)
		jobs = append(jobs, Job{Name: name, Map: flatMap(name, float32(i*8))})
	}

	r := NewRunner(geodata.DefaultSettings(), 3, exporterFactory(dir), zap.New(core))
	results, err := r.Run(context.Background(), jobs)
	require.NoError(t, err)
	require.Len(t, results, len(jobs))

	for i, res := range results {
		assert.Equal(t, jobs[i].Name, res.Name, "results keep job order")
		assert.NoError(t, res.Err)
		assert.Equal(t, filepath.Join(dir, res.Name+".l2j"), res.Path)
		assert.Equal(t, 64, res.Stats.Cells)

		region, err := formats.LoadL2JRegionFile(res.Path, testGrid)
		require.NoError(t, err)
		assert.Equal(t, geodata.BlockSimple, region.BlockType(0, 0))
	}
	assert.Equal(t, len(jobs), logs.FilterMessage("map done").Len())
}

func TestRun_NoExport(t *testing.T) {
	r := NewRunner(geodata.DefaultSettings(), 1, nil, nil)
	results, err := r.Run(context.Background(), []Job{{Name: "flat", Map: flatMap("flat", 0)}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Path)
	assert.Equal(t, 64, results[0].Stats.Cells)
}

func TestRun_CollectsErrors(t *testing.T) {
	dir := t.TempDir()
	jobs := []Job{
		{Name: "ok", Map: flatMap("ok", 0)},
		{Name: "empty", Map: geodata.NewMap("empty", testBounds)},
		{Name: "also_empty", Map: geodata.NewMap("also_empty", testBounds)},
	}

	r := NewRunner(geodata.DefaultSettings(), 2, exporterFactory(dir), nil)
	results, err := r.Run(context.Background(), jobs)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.ErrorIs(t, err, geodata.ErrEmptyMesh)

	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, geodata.ErrEmptyMesh)
	assert.ErrorIs(t, results[2].Err, geodata.ErrEmptyMesh)

	_, statErr := os.Stat(filepath.Join(dir, "empty.l2j"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "failed builds write nothing")
}

func TestRun_ExporterSetupFails(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	r := NewRunner(geodata.DefaultSettings(), 1, exporterFactory(missing), nil)

	results, err := r.Run(context.Background(), []Job{{Name: "flat", Map: flatMap("flat", 0)}})
	assert.ErrorIs(t, err, exporter.ErrOutputDirMissing)
	assert.ErrorIs(t, results[0].Err, exporter.ErrOutputDirMissing)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(geodata.DefaultSettings(), 1, nil, nil)
	results, err := r.Run(ctx, []Job{{Name: "a", Map: flatMap("a", 0)}, {Name: "b", Map: flatMap("b", 0)}})
	require.Error(t, err)

	assert.Len(t, multierr.Errors(err), 2)
	for _, res := range results {
		assert.ErrorIs(t, res.Err, context.Canceled)
	}
	assert.Equal(t, "b", results[1].Name)
}

func TestRun_InvalidSettings(t *testing.T) {
	s := geodata.DefaultSettings()
	s.CellSize = 0

	_, err := NewRunner(s, 1, nil, nil).Run(context.Background(), nil)
	assert.ErrorIs(t, err, geodata.ErrInvalidSettings)
}
