package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cwbudde/algo-flow/flow/block"
	"github.com/cwbudde/algo-flow/flow/stream"
)

var (
	// ErrCycle is returned when the sample connections contain a cycle.
	ErrCycle = errors.New("graph: cycle in sample connections")

	errUnknownNode = errors.New("graph: unknown node")
	errWired       = errors.New("graph: already wired")
)

// Connection is one sample edge: an output port feeding an input port
// through a stream created at wire time.
type Connection struct {
	Src     string
	SrcPort int
	Dst     string
	DstPort int

	str *stream.Stream
}

// Stream returns the stream backing this connection, nil before Wire.
func (c *Connection) Stream() *stream.Stream { return c.str }

// MsgConnection is one message edge: dst subscribes to src's group.
type MsgConnection struct {
	Src   string
	Group int
	Dst   string
}

// Graph holds blocks and their sample and message edges. Build it fully,
// then call Wire once before scheduling.
type Graph struct {
	nodes    map[string]block.Worker
	names    []string // insertion order, for deterministic traversal
	conns    []*Connection
	msgConns []MsgConnection

	inEdge  map[string][]*Connection // keyed by dst, indexed lookup via DstPort
	outEdge map[string][]*Connection

	order []string
	wired bool
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:   make(map[string]block.Worker),
		inEdge:  make(map[string][]*Connection),
		outEdge: make(map[string][]*Connection),
	}
}

// Add registers a block under a graph-unique name.
func (g *Graph) Add(name string, w block.Worker) error {
	if g.wired {
		return errWired
	}
	if name == "" {
		return errors.New("graph: empty node name")
	}
	if w == nil {
		return errors.New("graph: nil worker")
	}
	if _, exists := g.nodes[name]; exists {
		return fmt.Errorf("graph: duplicate node %q", name)
	}
	g.nodes[name] = w
	g.names = append(g.names, name)
	return nil
}

// Node returns the block registered under name, or nil.
func (g *Graph) Node(name string) block.Worker { return g.nodes[name] }

// Nodes returns the node names in insertion order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

// Connect adds a sample edge from src's output port to dst's input
// port. Ports must exist, item sizes must match, and each port carries
// at most one edge (streams are single-writer single-reader).
func (g *Graph) Connect(src string, srcPort int, dst string, dstPort int) error {
	if g.wired {
		return errWired
	}
	sw, ok := g.nodes[src]
	if !ok {
		return fmt.Errorf("%w: %q", errUnknownNode, src)
	}
	dw, ok := g.nodes[dst]
	if !ok {
		return fmt.Errorf("%w: %q", errUnknownNode, dst)
	}

	outsig := sw.Self().OutputSignature()
	insig := dw.Self().InputSignature()
	if srcPort < 0 || srcPort >= outsig.Ports() {
		return fmt.Errorf("graph: %q has no output port %d", src, srcPort)
	}
	if dstPort < 0 || dstPort >= insig.Ports() {
		return fmt.Errorf("graph: %q has no input port %d", dst, dstPort)
	}
	if outsig.ItemSize(srcPort) != insig.ItemSize(dstPort) {
		return fmt.Errorf("graph: item size mismatch %q:%d (%d bytes) -> %q:%d (%d bytes)",
			src, srcPort, outsig.ItemSize(srcPort), dst, dstPort, insig.ItemSize(dstPort))
	}
	for _, c := range g.outEdge[src] {
		if c.SrcPort == srcPort {
			return fmt.Errorf("graph: output %q:%d already connected", src, srcPort)
		}
	}
	for _, c := range g.inEdge[dst] {
		if c.DstPort == dstPort {
			return fmt.Errorf("graph: input %q:%d already connected", dst, dstPort)
		}
	}

	c := &Connection{Src: src, SrcPort: srcPort, Dst: dst, DstPort: dstPort}
	g.conns = append(g.conns, c)
	g.outEdge[src] = append(g.outEdge[src], c)
	g.inEdge[dst] = append(g.inEdge[dst], c)
	return nil
}

// MsgConnect subscribes dst to the messages src posts on group.
func (g *Graph) MsgConnect(src string, group int, dst string) error {
	sw, ok := g.nodes[src]
	if !ok {
		return fmt.Errorf("%w: %q", errUnknownNode, src)
	}
	dw, ok := g.nodes[dst]
	if !ok {
		return fmt.Errorf("%w: %q", errUnknownNode, dst)
	}
	if err := sw.Self().SubscribeMsgs(group, dw.Self()); err != nil {
		return fmt.Errorf("graph: %q -> %q: %w", src, dst, err)
	}
	g.msgConns = append(g.msgConns, MsgConnection{Src: src, Group: group, Dst: dst})
	return nil
}

// Connections returns the sample edges.
func (g *Graph) Connections() []*Connection { return g.conns }

// Wire creates one stream per sample edge (history sized from the
// reading block), attaches tag stores to both endpoints, and computes
// the topological order. It must be called exactly once, after the
// topology is complete.
func (g *Graph) Wire() error {
	if g.wired {
		return errWired
	}

	order, err := g.topoOrder()
	if err != nil {
		return err
	}

	for _, c := range g.conns {
		sw := g.nodes[c.Src]
		dw := g.nodes[c.Dst]
		itemSize := sw.Self().OutputSignature().ItemSize(c.SrcPort)

		st, err := stream.NewStream(itemSize, dw.Self().History())
		if err != nil {
			return fmt.Errorf("graph: stream %q:%d -> %q:%d: %w",
				c.Src, c.SrcPort, c.Dst, c.DstPort, err)
		}
		c.str = st

		if err := sw.Self().AttachOutputTags(c.SrcPort, st.Tags()); err != nil {
			return err
		}
		if err := dw.Self().AttachInputTags(c.DstPort, st.Tags()); err != nil {
			return err
		}
	}

	g.order = order
	g.wired = true
	return nil
}

// Order returns the topological execution order. Empty before Wire.
func (g *Graph) Order() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// InputStreams returns dst-port-indexed streams feeding the named
// block; entries for unconnected ports are nil. Valid after Wire.
func (g *Graph) InputStreams(name string) []*stream.Stream {
	w := g.nodes[name]
	if w == nil {
		return nil
	}
	out := make([]*stream.Stream, w.Self().Inputs())
	for _, c := range g.inEdge[name] {
		out[c.DstPort] = c.str
	}
	return out
}

// OutputStreams returns src-port-indexed streams fed by the named
// block; entries for unconnected ports are nil. Valid after Wire.
func (g *Graph) OutputStreams(name string) []*stream.Stream {
	w := g.nodes[name]
	if w == nil {
		return nil
	}
	out := make([]*stream.Stream, w.Self().Outputs())
	for _, c := range g.outEdge[name] {
		out[c.SrcPort] = c.str
	}
	return out
}

// topoOrder runs Kahn's algorithm over the sample edges. Ready nodes
// are taken in lexical order so the result is deterministic.
func (g *Graph) topoOrder() ([]string, error) {
	indeg := make(map[string]int, len(g.nodes))
	for name := range g.nodes {
		indeg[name] = 0
	}
	for _, c := range g.conns {
		indeg[c.Dst]++
	}

	ready := make([]string, 0, len(g.nodes))
	for name, d := range indeg {
		if d == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)

		next := make([]string, 0)
		for _, c := range g.outEdge[name] {
			indeg[c.Dst]--
			if indeg[c.Dst] == 0 {
				next = append(next, c.Dst)
			}
		}
		sort.Strings(next)
		ready = mergeSorted(ready, next)
	}

	if len(order) != len(g.nodes) {
		return nil, ErrCycle
	}
	return order, nil
}

func mergeSorted(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] <= b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
