// Package merkle implements the Roughtime batch Merkle tree: leaf/node
// hashing with domain-separation bytes, full-tree construction, per-leaf
// path construction and path verification. It generalizes the two-level
// SHA-512 walk the teacher hard-codes for its 64-byte, natural-order,
// single-response case (see roughtime.hashLeaf/hashNode in the retrieval
// pack) to arbitrary hash sizes and tree orders, and to batches of any
// size.
package merkle

import (
	"crypto/subtle"
	"errors"

	"github.com/Sturdy-Statistics/roughtime-protocol/internal/wire"
)

// Order controls which side of a combine the "current" node is placed on.
type Order int

const (
	// Natural places the current node on the left when it is combined
	// with a sibling to its right (bit == 0 means left).
	Natural Order = iota
	// Mirrored swaps the role Natural assigns to each bit.
	Mirrored
)

// Options configures hash size and combining order. Version 0 uses
// {64, Natural}; every later version uses {32, Natural}.
type Options struct {
	HashSize int
	Order    Order
}

var ErrEmpty = errors.New("merkle: leaves must be non-empty")

const (
	leafPrefix byte = 0x00
	nodePrefix byte = 0x01
)

// hashLeaf hashes one leaf's data per spec.md §4.7.
func hashLeaf(opts Options, data []byte) []byte {
	p := leafPrefix
	return wire.HashPrefixed(opts.HashSize, &p, data)
}

// hashNode combines two already-hashed siblings.
func hashNode(opts Options, l, r []byte) []byte {
	p := nodePrefix
	return wire.HashPrefixed(opts.HashSize, &p, l, r)
}

// combine orders (current, sibling) according to opts.Order and the
// index bit, then hashes them into their parent.
func combine(opts Options, current, sibling []byte, bit uint) []byte {
	left, right := current, sibling
	if (bit == 0) == (opts.Order == Mirrored) {
		left, right = sibling, current
	}
	return hashNode(opts, left, right)
}

// ComputeRoot hashes every leaf and folds the tree bottom-up into a
// single root hash. Lone nodes at an odd level are combined with
// themselves.
func ComputeRoot(leaves [][]byte, opts Options) ([]byte, error) {
	if len(leaves) == 0 {
		return nil, ErrEmpty
	}
	level := make([][]byte, len(leaves))
	for i, l := range leaves {
		level[i] = hashLeaf(opts, l)
	}
	for len(level) > 1 {
		level = nextLevel(opts, level)
	}
	return level[0], nil
}

// nextLevel folds one level of hashes into its parent level.
func nextLevel(opts Options, level [][]byte) [][]byte {
	next := make([][]byte, (len(level)+1)/2)
	for i := range next {
		l := level[2*i]
		if 2*i+1 < len(level) {
			next[i] = combine(opts, l, level[2*i+1], 0)
		} else {
			// Lone node: combine with itself.
			next[i] = combine(opts, l, l, 0)
		}
	}
	return next
}

// BuildPath builds the Merkle inclusion proof for leaves[index]: the
// concatenation of sibling hashes from the leaf up to the root, one
// hash-size chunk per level.
func BuildPath(leaves [][]byte, index int, opts Options) ([]byte, error) {
	if len(leaves) == 0 {
		return nil, ErrEmpty
	}
	if index < 0 || index >= len(leaves) {
		return nil, errors.New("merkle: index out of range")
	}
	level := make([][]byte, len(leaves))
	for i, l := range leaves {
		level[i] = hashLeaf(opts, l)
	}
	var path []byte
	idx := index
	for len(level) > 1 {
		var sibling []byte
		if idx^1 < len(level) {
			sibling = level[idx^1]
		} else {
			sibling = level[idx] // lone node: sibling is itself
		}
		path = append(path, sibling...)
		level = nextLevel(opts, level)
		idx >>= 1
	}
	return path, nil
}

// Proof is the tuple reconstructed and checked by ReconstructRoot and
// ValidProof.
type Proof struct {
	Root     []byte
	LeafData []byte
	Index    int
	Path     []byte
}

// ReconstructRoot recomputes a root from a leaf's data, its index and an
// inclusion path, per spec.md §4.7.
func ReconstructRoot(leafData []byte, index int, path []byte, opts Options) ([]byte, error) {
	if len(path)%opts.HashSize != 0 {
		return nil, errors.New("merkle: path length not a multiple of hash size")
	}
	n := len(path) / opts.HashSize
	cur := hashLeaf(opts, leafData)
	idx := index
	for i := 0; i < n; i++ {
		sibling := path[i*opts.HashSize : (i+1)*opts.HashSize]
		bit := uint(idx & 1)
		cur = combine(opts, cur, sibling, bit)
		idx >>= 1
	}
	if idx != 0 {
		return nil, errors.New("merkle: index not fully consumed by path")
	}
	return cur, nil
}

// ValidProof reconstructs the root from p and compares it to p.Root in
// constant time.
func ValidProof(p Proof, opts Options) (ok bool, reconstructed []byte, err error) {
	reconstructed, err = ReconstructRoot(p.LeafData, p.Index, p.Path, opts)
	if err != nil {
		return false, nil, err
	}
	ok = subtle.ConstantTimeCompare(reconstructed, p.Root) == 1
	return ok, reconstructed, nil
}

// Tree is the result of BuildAll: the root and every leaf's inclusion
// path, built in a single bottom-up pass. It is the hot-path batch
// builder; ComputeRoot plus per-leaf BuildPath must be semantically
// identical but is not required to be as fast.
type Tree struct {
	Root  []byte
	Paths [][]byte
}

// BuildAll computes every level of the tree once, then descends the
// stored levels to assemble each leaf's path, instead of recomputing the
// tree once per leaf.
func BuildAll(leaves [][]byte, opts Options) (Tree, error) {
	if len(leaves) == 0 {
		return Tree{}, ErrEmpty
	}
	levels := [][][]byte{make([][]byte, len(leaves))}
	for i, l := range leaves {
		levels[0][i] = hashLeaf(opts, l)
	}
	for len(levels[len(levels)-1]) > 1 {
		levels = append(levels, nextLevel(opts, levels[len(levels)-1]))
	}
	root := levels[len(levels)-1][0]

	paths := make([][]byte, len(leaves))
	for leaf := range leaves {
		idx := leaf
		var path []byte
		for lvl := 0; lvl < len(levels)-1; lvl++ {
			level := levels[lvl]
			var sibling []byte
			if idx^1 < len(level) {
				sibling = level[idx^1]
			} else {
				sibling = level[idx]
			}
			path = append(path, sibling...)
			idx >>= 1
		}
		paths[leaf] = path
	}
	return Tree{Root: root, Paths: paths}, nil
}
