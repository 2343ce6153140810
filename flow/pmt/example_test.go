package pmt_test

import (
	"fmt"

	"github.com/cwbudde/algo-flow/flow/pmt"
)

func ExampleCons() {
	v := pmt.Cons(pmt.Symbol("freq"), pmt.Real(1e6))
	fmt.Println(v)
	// Output:
	// (freq . 1e+06)
}

func ExampleVector() {
	v := pmt.Vector(pmt.Int(1), pmt.Bool(true), pmt.String("id"))
	fmt.Println(v)
	// Output:
	// #(1 #t "id")
}
