package block

import "fmt"

// Signature describes one side of a block's sample interface: the port
// count and the per-port item size in bytes. Signatures are fixed for a
// block's lifetime.
type Signature struct {
	itemSizes []int
}

// Sig returns a signature with nports ports of identical itemSize.
func Sig(nports, itemSize int) Signature {
	sizes := make([]int, nports)
	for i := range sizes {
		sizes[i] = itemSize
	}
	return Signature{itemSizes: sizes}
}

// SigSizes returns a signature with one port per given item size.
func SigSizes(itemSizes ...int) Signature {
	sizes := make([]int, len(itemSizes))
	copy(sizes, itemSizes)
	return Signature{itemSizes: sizes}
}

// SigNone returns an empty signature (no ports).
func SigNone() Signature { return Signature{} }

// Ports returns the number of ports.
func (s Signature) Ports() int { return len(s.itemSizes) }

// ItemSize returns the item size in bytes for the given port.
func (s Signature) ItemSize(port int) int { return s.itemSizes[port] }

func (s Signature) validate(side string) error {
	for i, sz := range s.itemSizes {
		if sz <= 0 {
			return fmt.Errorf("%w: %s port %d item size must be > 0: %d",
				ErrContract, side, i, sz)
		}
	}
	return nil
}
