// normaltool computes, checks and serves smooth per-vertex normals for triangle meshes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/vertexnormals/internal/config"
	"github.com/Faultbox/vertexnormals/internal/logger"
	"github.com/Faultbox/vertexnormals/internal/meshgen"
	"github.com/Faultbox/vertexnormals/internal/reference"
	"github.com/Faultbox/vertexnormals/internal/server"
	"github.com/Faultbox/vertexnormals/pkg/meshio"
	"github.com/Faultbox/vertexnormals/pkg/normals"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]

	switch command {
	case "compute", "c":
		err = cmdCompute(args)
	case "verify":
		err = cmdVerify(cfg, args)
	case "bench":
		err = cmdBench(cfg, args)
	case "gen":
		err = cmdGen(cfg, args)
	case "info":
		err = cmdInfo(args)
	case "serve":
		err = cmdServe(cfg, args)
	case "remote":
		err = cmdRemote(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Sync()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`normaltool - smooth vertex normals for triangle meshes

Usage:
  normaltool [-config file] [-debug] [-log-file file] <command> [options]

Commands:
  compute <in> <out>              Compute normals and write the mesh
  verify <in> [-tol t]            Compare against the double precision reference
  bench <in> | -gen kind [-n N]   Time the kernel against the reference
  gen <kind> <out>                Write a procedural mesh (plane, terrain, sphere, degenerate)
  info <in>                       Show mesh statistics
  serve [-addr host:port]         Serve computations over websocket at /ws
  remote <url> <in> <out>         Compute normals on a running server

Formats are chosen by extension: .vnm, .stl, .json

Examples:
  normaltool gen -n 256 terrain terrain.vnm
  normaltool compute terrain.vnm terrain.json
  normaltool bench -gen sphere -n 500
  normaltool remote ws://127.0.0.1:8087/ws model.stl model.vnm`)
}

func cmdCompute(args []string) error {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: normaltool compute <in> <out>")
		os.Exit(1)
	}

	m, err := meshio.Load(args[0])
	if err != nil {
		return err
	}

	start := time.Now()
	if err := m.ComputeNormals(); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	logger.Info("computed normals",
		zap.String("mesh", args[0]),
		zap.Int("vertices", m.VertexCount()),
		zap.Int("facets", m.FacetCount()),
		zap.Duration("took", time.Since(start)))

	return meshio.Save(args[1], m)
}

func cmdVerify(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	tol := fs.Float64("tol", float64(cfg.Compare.Tolerance), "Max absolute difference per component")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: normaltool verify [-tol t] <in>")
		os.Exit(1)
	}

	m, err := meshio.Load(fs.Arg(0))
	if err != nil {
		return err
	}

	report, err := reference.Check(m, float32(*tol))
	if err != nil {
		return fmt.Errorf("%s: %w", fs.Arg(0), err)
	}
	fmt.Printf("Mesh:     %s\n", fs.Arg(0))
	fmt.Printf("Vertices: %d\n", m.VertexCount())
	fmt.Printf("Result:   %s\n", report)
	if !report.OK() {
		return fmt.Errorf("%d of %d values differ by more than %g", report.Failed, report.Total, *tol)
	}
	return nil
}

func cmdBench(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	attempts := fs.Int("attempts", cfg.Bench.Attempts, "Timed calls per implementation")
	kind := fs.String("gen", "", "Benchmark a generated mesh of this kind instead of a file")
	res := fs.Int("n", cfg.Generate.Resolution, "Resolution for -gen")
	fs.Parse(args)

	var (
		m    *normals.Mesh
		name string
		err  error
	)
	switch {
	case *kind != "":
		m, err = meshgen.Generate(*kind, genParams(cfg, *res))
		name = *kind
	case fs.NArg() > 0:
		m, err = meshio.Load(fs.Arg(0))
		name = fs.Arg(0)
	default:
		fmt.Fprintln(os.Stderr, "Usage: normaltool bench [-attempts N] <in> | -gen kind [-n N]")
		os.Exit(1)
	}
	if err != nil {
		return err
	}

	logger.Debug("benchmarking", zap.String("mesh", name), zap.Int("attempts", *attempts))
	result, err := reference.Bench(m, *attempts, cfg.Bench.Warmup)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	fmt.Printf("Mesh:      %s (%d vertices, %d facets)\n", name, m.VertexCount(), m.FacetCount())
	fmt.Printf("Attempts:  %d\n", result.Attempts)
	fmt.Printf("Kernel:    %v (%v per call)\n", result.Kernel, result.PerCall())
	fmt.Printf("Reference: %v\n", result.Reference)
	fmt.Printf("Speed-up:  %.2fx\n", result.SpeedUp())
	return nil
}

func cmdGen(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("gen", flag.ExitOnError)
	res := fs.Int("n", cfg.Generate.Resolution, "Grid cells per side or sphere rings")
	withNormals := fs.Bool("normals", false, "Compute normals before writing")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: normaltool gen [-n N] [-normals] <kind> <out>")
		os.Exit(1)
	}

	m, err := meshgen.Generate(fs.Arg(0), genParams(cfg, *res))
	if err != nil {
		return err
	}
	if *withNormals {
		if err := m.ComputeNormals(); err != nil {
			return err
		}
	}
	logger.Info("generated mesh",
		zap.String("kind", fs.Arg(0)),
		zap.Int("vertices", m.VertexCount()),
		zap.Int("facets", m.FacetCount()))

	return meshio.Save(fs.Arg(1), m)
}

func genParams(cfg *config.Config, resolution int) meshgen.Params {
	return meshgen.Params{
		Resolution: resolution,
		Size:       cfg.Generate.Size,
		Amplitude:  cfg.Generate.Amplitude,
		Seed:       cfg.Generate.Seed,
	}
}

func cmdInfo(args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: normaltool info <in>")
		os.Exit(1)
	}

	m, err := meshio.Load(args[0])
	if err != nil {
		return err
	}

	min, max := m.Bounds()
	fmt.Printf("Mesh:     %s\n", args[0])
	fmt.Printf("Vertices: %d\n", m.VertexCount())
	fmt.Printf("Facets:   %d\n", m.FacetCount())
	fmt.Printf("Normals:  %t\n", m.HasNormals())
	fmt.Printf("Bounds:   (%g, %g, %g) - (%g, %g, %g)\n", min.X, min.Y, min.Z, max.X, max.Y, max.Z)

	if err := normals.Validate(m.Positions, m.Indices, make([]float32, len(m.Positions))); err != nil {
		fmt.Printf("Invalid:  %v\n", err)
	}
	return nil
}

func cmdServe(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", cfg.Server.Addr, "Listen address")
	fs.Parse(args)

	srvCfg := cfg.Server
	srvCfg.Addr = *addr

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := server.New(srvCfg, logger.Log)
	if err := s.ListenAndServe(ctx); err != nil {
		return err
	}

	stats := s.Stats()
	logger.Info("server stopped",
		zap.Uint64("requests", stats.Requests),
		zap.Uint64("failures", stats.Failures),
		zap.Uint64("facets", stats.Facets))
	return nil
}

func cmdRemote(args []string) error {
	fs := flag.NewFlagSet("remote", flag.ExitOnError)
	timeout := fs.Duration("timeout", 30*time.Second, "Per request timeout")
	fs.Parse(args)

	if fs.NArg() < 3 {
		fmt.Fprintln(os.Stderr, "Usage: normaltool remote [-timeout d] <url> <in> <out>")
		os.Exit(1)
	}

	m, err := meshio.Load(fs.Arg(1))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	c, err := server.Dial(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	defer c.Close()
	c.Timeout = *timeout

	out, err := c.Compute(m)
	if err != nil {
		return err
	}
	return meshio.Save(fs.Arg(2), out)
}
