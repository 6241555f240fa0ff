// Command pointinfo prints the schema and the first points of a point cloud
// file or of the output of a pipeline.
//
//	pointinfo -n 5 input.ptf
//	pointinfo -pipeline pipeline.json -metadata
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/hupe1980/pointflow"
	"github.com/hupe1980/pointflow/codec"
	"github.com/hupe1980/pointflow/pointview"
	"github.com/hupe1980/pointflow/resource"
)

type config struct {
	pipeline  string
	input     string
	points    int
	schema    bool
	metadata  bool
	stream    bool
	version   bool
	memLimit  int64
	verbosity string
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("pointinfo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.pipeline, "pipeline", "", "Path to a pipeline description (JSON)")
	fs.IntVar(&cfg.points, "n", 10, "Number of points to print per view")
	fs.BoolVar(&cfg.schema, "schema", false, "Print the output schema")
	fs.BoolVar(&cfg.metadata, "metadata", false, "Print the stage metadata")
	fs.BoolVar(&cfg.stream, "stream", false, "Execute in bounded chunks when the pipeline allows it")
	fs.BoolVar(&cfg.version, "version", false, "Print version and build information")
	fs.Int64Var(&cfg.memLimit, "mem-limit", 0, "Memory limit for point data in bytes (0 = unlimited)")
	fs.StringVar(&cfg.verbosity, "log-level", "", "Log level (debug, info, warn, error); empty disables logging")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() > 0 {
		cfg.input = fs.Arg(0)
	}
	if !cfg.version && (cfg.pipeline == "") == (cfg.input == "") {
		return cfg, errors.New("exactly one of -pipeline or an input file is required")
	}
	return cfg, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if cfg.version {
		fmt.Fprint(stdout, pointflow.DebugInformation())
		return nil
	}

	opts := []pointflow.Option{
		pointflow.WithResourceConfig(resource.Config{MemoryLimitBytes: cfg.memLimit}),
	}
	if cfg.verbosity != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(cfg.verbosity)); err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		opts = append(opts, pointflow.WithLogger(pointflow.NewLogger(
			slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))))
	}

	m := pointflow.NewManager(opts...)
	defer m.Close()

	if cfg.pipeline != "" {
		err = m.LoadFromFile(cfg.pipeline)
	} else {
		var text []byte
		text, err = codec.Default.Marshal([]string{cfg.input})
		if err == nil {
			err = m.LoadFromText(string(text))
		}
	}
	if err != nil {
		return err
	}

	if cfg.stream {
		err = m.ExecuteStreamed()
	} else {
		_, err = m.Execute()
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "points: %d\n", m.PointCount())

	if cfg.schema {
		s, err := m.Schema()
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, s)
	}
	if cfg.metadata {
		md, err := m.Metadata()
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, md)
	}

	views, err := m.Views()
	if err != nil {
		return err
	}
	for v := range views.All() {
		printView(stdout, v, cfg.points)
	}
	return nil
}

func printView(w io.Writer, v *pointview.View, n int) {
	fmt.Fprintf(w, "view %d: %d points\n", v.ID(), v.Len())
	if srs := v.SRS(); !srs.IsEmpty() {
		fmt.Fprintf(w, "srs: %s\n", srs)
	}
	ids := v.Layout().IDs()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.Name()
	}
	fmt.Fprintln(w, strings.Join(names, "\t"))

	row := make([]string, len(ids))
	for idx := range min(n, v.Len()) {
		for i, id := range ids {
			val, err := v.Value(id, idx)
			if err != nil {
				row[i] = "?"
				continue
			}
			row[i] = val.String()
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "pointinfo:", err)
		os.Exit(1)
	}
}
