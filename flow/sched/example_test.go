package sched_test

import (
	"context"
	"fmt"

	"github.com/cwbudde/algo-flow/flow/blocks"
	"github.com/cwbudde/algo-flow/flow/graph"
	"github.com/cwbudde/algo-flow/flow/sched"
)

func Example() {
	desc := []byte(`
nodes:
  - name: src
    type: vector-source
    params:
      data: [1, 2, 3, 4]
  - name: amp
    type: gain
    params:
      gain: 10
  - name: snk
    type: vector-sink
connections:
  - src: src
    dst: amp
  - src: amp
    dst: snk
`)

	reg := graph.NewRegistry()
	blocks.RegisterBuiltins(reg)

	d, err := graph.ParseYAML(desc)
	if err != nil {
		panic(err)
	}
	g, err := d.Build(reg)
	if err != nil {
		panic(err)
	}

	s, err := sched.New(g)
	if err != nil {
		panic(err)
	}
	if err := s.Run(context.Background()); err != nil {
		panic(err)
	}

	snk := g.Node("snk").(*blocks.VectorSink)
	fmt.Println(snk.Data())
	// Output:
	// [10 20 30 40]
}
