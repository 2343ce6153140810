// Command flowrun executes a flowgraph description with the built-in
// block set.
//
// Usage:
//
//	flowrun [flags] graph-file
//
// The graph file is YAML (or JSON with a .json extension) in the
// format of the graph package's Description type.
//
// Examples:
//
//	flowrun mygraph.yaml
//	flowrun -chunk 256 mygraph.yaml
//	flowrun -metrics :9090 mygraph.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cwbudde/algo-flow/flow/blocks"
	"github.com/cwbudde/algo-flow/flow/graph"
	"github.com/cwbudde/algo-flow/flow/sched"
)

func main() {
	chunk := flag.Int("chunk", 1024, "preferred output items per work invocation")
	maxPasses := flag.Int("max-passes", 0, "bound on scheduler passes, 0 for unbounded")
	metricsAddr := flag.String("metrics", "", "serve prometheus metrics on this address (e.g. :9090)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: flowrun [flags] graph-file\n\n")
		fmt.Fprintf(os.Stderr, "Executes a YAML or JSON flowgraph description.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  flowrun mygraph.yaml\n")
		fmt.Fprintf(os.Stderr, "  flowrun -chunk 256 -metrics :9090 mygraph.yaml\n")
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	if err := run(path, *chunk, *maxPasses, *metricsAddr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(path string, chunk, maxPasses int, metricsAddr string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var desc *graph.Description
	if strings.EqualFold(filepath.Ext(path), ".json") {
		desc, err = graph.ParseJSON(data)
	} else {
		desc, err = graph.ParseYAML(data)
	}
	if err != nil {
		return err
	}

	reg := graph.NewRegistry()
	blocks.RegisterBuiltins(reg)

	g, err := desc.Build(reg)
	if err != nil {
		return err
	}

	opts := []sched.Option{sched.WithChunk(chunk), sched.WithMaxPasses(maxPasses)}

	promReg := prometheus.NewRegistry()
	if metricsAddr != "" {
		opts = append(opts, sched.WithRegisterer(promReg))
		go serveMetrics(metricsAddr, promReg)
	}

	s, err := sched.New(g, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := s.Run(ctx); err != nil {
		return err
	}

	printSummary(g)
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
	}
}

func printSummary(g *graph.Graph) {
	for _, name := range g.Order() {
		switch w := g.Node(name).(type) {
		case *blocks.VectorSink:
			data := w.Data()
			fmt.Printf("%s: %d items", name, len(data))
			if n := len(data); n > 0 {
				if n > 8 {
					data = data[:8]
				}
				fmt.Printf(", head %v", data)
			}
			fmt.Println()
			for _, tg := range w.Tags() {
				fmt.Printf("%s: tag @%d %s = %s\n", name, tg.Offset, tg.Key, tg.Value)
			}
		case *blocks.MsgDebug:
			for _, m := range w.Drain() {
				fmt.Printf("%s: msg %s = %s\n", name, m.Key, m.Value)
			}
		}
	}
}
