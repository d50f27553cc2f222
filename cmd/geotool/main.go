// geotool builds L2J geodata from collision meshes and inspects the result.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/Faultbox/geobuild/internal/config"
	"github.com/Faultbox/geobuild/internal/exporter"
	"github.com/Faultbox/geobuild/internal/logger"
	"github.com/Faultbox/geobuild/internal/pipeline"
	"github.com/Faultbox/geobuild/internal/world"
	"github.com/Faultbox/geobuild/pkg/formats"
	"github.com/Faultbox/geobuild/pkg/geodata"
	"github.com/Faultbox/geobuild/pkg/math"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "build", "b":
		cmdBuild(args)
	case "info":
		cmdInfo(args)
	case "path":
		cmdPath(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`geotool - L2J geodata builder

Usage:
  geotool <command> [options]

Commands:
  build [options] <mesh.obj>...           Build one region per mesh
  info [options] <file.l2j>               Show region information
  path [options] <file.l2j> x y z x y z   Find a path between two cells

Options:
  -config <file>   Config file (default ./geobuild.yaml)
  -out <dir>       Output directory (created if missing)
  -compress        Write .l2j.zst files
  -workers <n>     Maps built in parallel
  -debug           Enable debug logging
  -yup             Meshes are Y-up (build only)
  -name <name>     Region name for a single mesh (build only)

Examples:
  geotool build -out ./geodata 25_22.obj 25_23.obj
  geotool info ./geodata/25_22.l2j
  geotool path ./geodata/25_22.l2j 10 10 0 200 180 0`)
}

// setup parses args, loads the config and initializes logging.
func setup(fs *flag.FlagSet, args []string) (*config.Config, *config.Flags) {
	flags := config.RegisterFlags(fs)
	fs.Parse(args)

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg, flags
}

func cmdBuild(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	yUp := fs.Bool("yup", false, "Meshes are Y-up")
	name := fs.String("name", "", "Region name (single mesh only, default: file name)")
	cfg, flags := setup(fs, args)
	defer logger.Sync()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: geotool build [options] <mesh.obj>...")
		os.Exit(1)
	}

	if *name != "" && fs.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "-name needs a single mesh")
		os.Exit(1)
	}

	var jobs []pipeline.Job
	for _, path := range fs.Args() {
		job, err := loadJob(path, *name, cfg, *yUp)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		jobs = append(jobs, job)
	}

	var factory pipeline.ExporterFactory
	if cfg.Export.Enabled {
		// Only a directory named on the command line is created; a
		// configured one must already exist.
		if flags.OutputDir != "" {
			if err := os.MkdirAll(flags.OutputDir, 0755); err != nil {
				fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
				os.Exit(1)
			}
		}
		opts := []exporter.Option{
			exporter.WithGrid(cfg.Grid),
			exporter.WithLogger(logger.Named("exporter")),
		}
		if cfg.Export.Compress {
			opts = append(opts, exporter.WithCompression())
		}
		factory = func() (*exporter.Exporter, error) {
			return exporter.New(cfg.Export.OutputDir, opts...)
		}
		if _, err := factory(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := pipeline.NewRunner(cfg.Build, cfg.Export.Workers, factory, logger.Named("pipeline"))
	results, err := runner.Run(ctx, jobs)

	for _, res := range results {
		if res.Err != nil {
			fmt.Printf("FAIL  %s: %v\n", res.Name, res.Err)
			continue
		}
		size := ""
		if info, statErr := os.Stat(res.Path); statErr == nil {
			size = humanize.Bytes(uint64(info.Size()))
		}
		fmt.Printf("OK    %-12s %s cells, %d black holes, %s %s (%s)\n",
			res.Name, humanize.Comma(int64(res.Stats.Cells)), res.Stats.BlackHoles,
			res.Path, size, res.Duration.Round(time.Millisecond))
	}

	if err != nil {
		logger.Error("build finished with errors", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

// loadJob reads a mesh and places it so its minimum corner is the origin
// of the region grid.
func loadJob(path, name string, cfg *config.Config, yUp bool) (pipeline.Job, error) {
	mesh, err := formats.ParseOBJFile(path)
	if err != nil {
		return pipeline.Job{}, err
	}

	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	entity := geodata.Entity{Mesh: mesh, Model: math.Identity()}
	if yUp {
		entity.Model = math.SwapYZ()
	}

	placed := geodata.NewMap(name, math.Box{})
	if err := placed.Add(entity); err != nil {
		return pipeline.Job{}, fmt.Errorf("%s: %w", path, err)
	}

	bounds := geodata.RegionBounds(placed.Bounds(), cfg.Grid, cfg.Build.CellSize)
	m := geodata.NewMap(name, bounds)
	m.AddTriangles(placed.Vertices(), placed.Indices())

	logger.Debug("mesh loaded",
		zap.String("path", path),
		zap.Int("triangles", m.TriangleCount()),
		zap.Any("bounds", bounds))
	return pipeline.Job{Name: name, Map: m}, nil
}

func loadRegion(path string, grid geodata.Grid) (*formats.L2JRegion, int) {
	data, err := formats.ReadL2JFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	region, err := formats.LoadL2JRegion(data, grid)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return region, len(data)
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	cfg, _ := setup(fs, args)
	defer logger.Sync()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: geotool info [options] <file.l2j>")
		os.Exit(1)
	}

	region, size := loadRegion(fs.Arg(0), cfg.Grid)
	grid := region.Grid()

	blocks := make(map[geodata.BlockType]int)
	for bx := 0; bx < grid.BlocksX; bx++ {
		for by := 0; by < grid.BlocksY; by++ {
			blocks[region.BlockType(bx, by)]++
		}
	}

	var cells, maxLayers int
	for x := 0; x < grid.CellsX(); x++ {
		for y := 0; y < grid.CellsY(); y++ {
			n := len(region.Layers(x, y))
			cells += n
			maxLayers = max(maxLayers, n)
		}
	}

	fmt.Printf("Region:  %s\n", fs.Arg(0))
	fmt.Printf("Size:    %s\n", humanize.Bytes(uint64(size)))
	fmt.Printf("Grid:    %dx%d blocks of %dx%d cells\n",
		grid.BlocksX, grid.BlocksY, grid.BlockCellsX, grid.BlockCellsY)
	fmt.Printf("Cells:   %s\n", humanize.Comma(int64(cells)))
	fmt.Printf("Layers:  %d max\n", maxLayers)
	fmt.Println()
	fmt.Println("Blocks by type:")
	for _, t := range []geodata.BlockType{geodata.BlockSimple, geodata.BlockComplex, geodata.BlockMultilayer} {
		fmt.Printf("  %-10s %s\n", t, humanize.Comma(int64(blocks[t])))
	}
}

func cmdPath(args []string) {
	fs := flag.NewFlagSet("path", flag.ExitOnError)
	cfg, _ := setup(fs, args)
	defer logger.Sync()

	if fs.NArg() < 7 {
		fmt.Fprintln(os.Stderr, "Usage: geotool path [options] <file.l2j> x1 y1 z1 x2 y2 z2")
		os.Exit(1)
	}

	var coords [6]int
	for i := range coords {
		v, err := strconv.Atoi(fs.Arg(i + 1))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid coordinate %q: %v\n", fs.Arg(i+1), err)
			os.Exit(1)
		}
		coords[i] = v
	}

	region, _ := loadRegion(fs.Arg(0), cfg.Grid)
	pf := world.NewPathFinder(region)

	start := world.Point{X: coords[0], Y: coords[1], Z: coords[2]}
	goal := world.Point{X: coords[3], Y: coords[4], Z: coords[5]}
	path := pf.FindPath(start, goal)
	if path == nil {
		fmt.Fprintln(os.Stderr, "No path found")
		os.Exit(1)
	}

	for _, p := range path {
		fmt.Printf("%d %d %d\n", p.X, p.Y, p.Z)
	}
	fmt.Fprintf(os.Stderr, "\n(%d cells)\n", len(path))
}
