package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/chazu/kerf/pkg/engine"
	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/kernel/bsp"
	"github.com/chazu/kerf/pkg/kernel/sdfx"
	"github.com/chazu/kerf/pkg/shapes"
	"github.com/chazu/kerf/pkg/tessellate"
	"github.com/segmentio/encoding/json"
)

// The kerf version number. Set at build.
var version = "v0.1.0"

// This will effectively disable obfuscation of the config struct. Without it,
// the keys would get obfuscated causing the cli package to generate garbled
// command-line options.
var _ = reflect.TypeOf(config{})

type config struct {
	Script      string        `cli:"" env:"KERF_SCRIPT"       help:"The design script to evaluate."`
	Output      string        `cli:"" env:"KERF_OUTPUT"       help:"Output directory for stl, output file for json (- for stdout)."`
	Format      string        `cli:"" env:"KERF_FORMAT"       help:"Output format (stl|json)."`
	Kernel      string        `cli:"" env:"KERF_KERNEL"       help:"Geometry kernel (bsp|sdf)."`
	Segments    int           `cli:"" env:"KERF_SEGMENTS"     help:"Default cylinder side count (bsp kernel)."`
	Cells       int           `cli:"" env:"KERF_CELLS"        help:"Marching cubes resolution (sdf kernel)."`
	EvalTimeout time.Duration `cli:"" env:"KERF_EVAL_TIMEOUT" help:"Maximum script evaluation time."`
	LogLevel    string        `cli:"" env:"KERF_LOG_LEVEL"    help:"Log level (debug|info|warning|error)."`
	LogIndent   bool          `cli:"" env:"KERF_LOG_INDENT"   help:"Indent logs."`
	Version     bool          `cli:"" env:"-"                 help:"Show version."`
	Help        bool          `cli:"" env:"-"                 help:"Show help."`
}

const (
	formatSTL  = "stl"
	formatJSON = "json"

	kernelBSP = "bsp"
	kernelSDF = "sdf"
)

func main() {
	conf := config{
		Output:      ".",
		Format:      formatSTL,
		Kernel:      kernelBSP,
		Segments:    bsp.DefaultSegments,
		Cells:       sdfx.DefaultCells,
		EvalTimeout: engine.DefaultTimeout,
		LogLevel:    logs.InfoLevel.String(),
	}

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Evaluates a kerf design script and writes one mesh per part.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	logs.WithTag("version", version).
		WithTag("script", conf.Script).
		WithTag("format", conf.Format).
		WithTag("kernel", conf.Kernel).
		WithTag("output", conf.Output).
		Info("starting kerf")

	if err := run(ctx, conf, os.Stdout); err != nil {
		logs.Fatal(err)
	}
}

func validateConfig(conf config) error {
	if conf.Script == "" {
		return errors.New("a script is required")
	}

	switch conf.Format {
	case formatSTL, formatJSON:
	default:
		return errors.New("unknown output format").WithTag("format", conf.Format)
	}

	if conf.Format == formatSTL && conf.Output == "-" {
		return errors.New("stl output needs a directory")
	}

	switch conf.Kernel {
	case kernelBSP, kernelSDF:
	default:
		return errors.New("unknown kernel").WithTag("kernel", conf.Kernel)
	}

	if conf.Segments < shapes.MinSegments {
		return errors.Newf("segments must be at least %d", shapes.MinSegments).
			WithTag("segments", conf.Segments)
	}

	if conf.EvalTimeout <= 0 {
		return errors.New("eval timeout must be positive").
			WithTag("eval_timeout", conf.EvalTimeout)
	}
	return nil
}

// run evaluates the script, tessellates every part and writes the meshes.
// stdout receives json output when the output path is "-".
func run(ctx context.Context, conf config, stdout io.Writer) error {
	src, err := os.ReadFile(conf.Script)
	if err != nil {
		return errors.New("reading script failed").
			WithTag("script", conf.Script).
			Wrap(err)
	}

	eng := engine.NewEngine(engine.WithTimeout(conf.EvalTimeout))
	g, evalErrs, err := eng.EvaluateContext(ctx, string(src))
	if err != nil {
		return errors.New("evaluating script failed").
			WithTag("script", conf.Script).
			Wrap(err)
	}
	if len(evalErrs) != 0 {
		for _, e := range evalErrs {
			logs.WithTag("script", conf.Script).
				WithTag("line", e.Line).
				Error(e)
		}
		return errors.Newf("script has %d errors", len(evalErrs)).
			WithTag("script", conf.Script)
	}

	logs.WithTag("run_id", g.RunID).
		WithTag("nodes", g.NodeCount()).
		WithTag("roots", len(g.Roots)).
		Debug("script evaluated")

	meshes, err := tessellate.Tessellate(ctx, g, newKernel(conf))
	if err != nil {
		return errors.New("tessellating design failed").
			WithTag("script", conf.Script).
			WithTag("run_id", g.RunID).
			Wrap(err)
	}
	if len(meshes) == 0 {
		logs.Warn(errors.New("design has no parts").WithTag("script", conf.Script))
		return nil
	}

	switch conf.Format {
	case formatJSON:
		return writeJSON(conf.Output, meshes, stdout)
	default:
		return writeSTL(conf.Output, meshes)
	}
}

func newKernel(conf config) kernel.Kernel {
	if conf.Kernel == kernelSDF {
		return sdfx.New(sdfx.WithCells(conf.Cells))
	}
	return bsp.New(bsp.WithSegments(conf.Segments))
}

func writeJSON(path string, meshes []*kernel.Mesh, stdout io.Writer) error {
	b, err := json.Marshal(meshes)
	if err != nil {
		return errors.New("encoding meshes failed").Wrap(err)
	}

	if path == "-" {
		_, err = stdout.Write(b)
		return err
	}

	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.New("writing meshes failed").
			WithTag("path", path).
			Wrap(err)
	}
	logs.WithTag("path", path).
		WithTag("parts", len(meshes)).
		Info("meshes written")
	return nil
}

func writeSTL(dir string, meshes []*kernel.Mesh) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.New("creating output directory failed").
			WithTag("dir", dir).
			Wrap(err)
	}

	for _, m := range meshes {
		path := filepath.Join(dir, stlName(m.PartName))
		if err := bsp.SaveMeshSTL(path, m); err != nil {
			return errors.New("writing part failed").
				WithTag("part", m.PartName).
				Wrap(err)
		}
		logs.WithTag("part", m.PartName).
			WithTag("path", path).
			WithTag("triangles", m.TriangleCount()).
			Info("part written")
	}
	return nil
}

// stlName turns a part name such as "shelf/1" into a file name.
func stlName(part string) string {
	r := strings.NewReplacer("/", "-", "\\", "-", " ", "_")
	return r.Replace(part) + ".stl"
}
