// Command graphdump compiles a representative render graph and prints
// its dependency structure in Graphviz DOT format, plus a resource
// memory summary. Useful for eyeballing scheduling changes:
//
//	go run ./cmd/graphdump | dot -Tpng -o graph.png
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gogpu/rendergraph"
	"github.com/gogpu/rendergraph/device"
	"github.com/gogpu/rendergraph/pool"
)

func main() {
	var (
		width   = flag.Int("width", 1920, "viewport width")
		height  = flag.Int("height", 1080, "viewport height")
		summary = flag.Bool("summary", false, "print the resource summary instead of DOT")
	)
	flag.Parse()

	graph := rendergraph.New(rendergraph.Config{})
	defer graph.Dispose()
	graph.SetSize(*width, *height)

	// A deferred pipeline with a bloom chain and temporal accumulation.
	graph.AddResource(pool.ResourceConfig{
		ID: "gbuffer", Kind: pool.KindMRT, Attachments: 3, Depth: true,
	})
	graph.AddResource(pool.ResourceConfig{ID: "hdr", Format: device.FormatRGBA16F})
	graph.AddResource(pool.ResourceConfig{
		ID: "bloom", Format: device.FormatRGBA16F, Size: pool.FractionSize(0.25),
	})
	graph.AddResource(pool.ResourceConfig{ID: "history", Format: device.FormatRGBA16F})
	// The presentation target matches the host surface; headless here,
	// so the null provider's fallback applies.
	graph.AddResource(pool.ResourceConfig{
		ID: "final", Format: device.SurfaceFormat(device.NullProvider{}),
	})

	passes := []rendergraph.PassConfig{
		{ID: "geometry", Writes: bind(rendergraph.Write, "gbuffer")},
		{ID: "lighting", Reads: bind(rendergraph.Read, "gbuffer"), Writes: bind(rendergraph.Write, "hdr")},
		{ID: "bloom", Reads: bind(rendergraph.Read, "hdr"), Writes: bind(rendergraph.Write, "bloom")},
		{
			ID:     "taa",
			Reads:  []rendergraph.Binding{rendergraph.Read("hdr"), rendergraph.ReadWrite("history")},
			Writes: bind(rendergraph.ReadWrite, "history"),
		},
		{
			ID:     "composite",
			Reads:  []rendergraph.Binding{rendergraph.Read("history"), rendergraph.Read("bloom")},
			Writes: bind(rendergraph.Write, "final"),
		},
	}
	for _, p := range passes {
		if err := graph.AddPass(rendergraph.NewPass(p)); err != nil {
			log.Fatalf("Adding pass %s: %v", p.ID, err)
		}
	}

	if err := graph.Compile(); err != nil {
		log.Fatalf("Compile failed: %v", err)
	}

	if *summary {
		printSummary(graph, *width, *height)
		return
	}
	fmt.Print(graph.DebugDump())
}

// bind wraps a single resource in a one-element binding slice.
func bind(f func(string) rendergraph.Binding, resource string) []rendergraph.Binding {
	return []rendergraph.Binding{f(resource)}
}

func printSummary(graph *rendergraph.Graph, width, height int) {
	compiled := graph.Compiled()
	fmt.Fprintf(os.Stdout, "Viewport %dx%d, %d passes\n", width, height, len(compiled.Order))
	fmt.Fprintln(os.Stdout, "Execution order:")
	for i, node := range compiled.Order {
		marker := ""
		for _, b := range node.Writes {
			if compiled.PingPong[b.Resource] {
				marker = "  (double-buffered output)"
			}
		}
		fmt.Fprintf(os.Stdout, "  %2d. %s%s\n", i+1, node.ID, marker)
	}
	for _, w := range compiled.Warnings {
		fmt.Fprintf(os.Stdout, "warning: %s\n", w.Message)
	}
	fmt.Fprintln(os.Stdout, graph.Pool().Stats())
}
