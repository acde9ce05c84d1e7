package merkle

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func leaves(n int) [][]byte {
	ls := make([][]byte, n)
	for i := range ls {
		ls[i] = []byte{byte(i), byte(i >> 8)}
	}
	return ls
}

func TestBuildPathMatchesComputeRoot(t *testing.T) {
	opts := Options{HashSize: 32, Order: Natural}
	for _, n := range []int{1, 2, 3, 4, 5, 7, 8, 9, 16, 17, 128} {
		ls := leaves(n)
		root, err := ComputeRoot(ls, opts)
		require.NoError(t, err)
		for i := range ls {
			path, err := BuildPath(ls, i, opts)
			require.NoError(t, err)
			got, err := ReconstructRoot(ls[i], i, path, opts)
			require.NoError(t, err)
			require.Truef(t, bytes.Equal(got, root), "n=%d i=%d: reconstructed root mismatch", n, i)
		}
	}
}

func TestBuildAllMatchesComputeRootAndBuildPath(t *testing.T) {
	opts := Options{HashSize: 32, Order: Natural}
	for _, n := range []int{1, 2, 3, 4, 8, 13, 128} {
		ls := leaves(n)
		root, err := ComputeRoot(ls, opts)
		require.NoError(t, err)
		tree, err := BuildAll(ls, opts)
		require.NoError(t, err)
		require.True(t, bytes.Equal(tree.Root, root))
		for i := range ls {
			wantPath, err := BuildPath(ls, i, opts)
			require.NoError(t, err)
			require.Truef(t, bytes.Equal(tree.Paths[i], wantPath), "n=%d i=%d", n, i)
		}
	}
}

func TestValidProofRejectsWrongIndex(t *testing.T) {
	opts := Options{HashSize: 32, Order: Natural}
	ls := leaves(8)
	tree, err := BuildAll(ls, opts)
	require.NoError(t, err)

	ok, _, err := ValidProof(Proof{Root: tree.Root, LeafData: ls[3], Index: 3, Path: tree.Paths[3]}, opts)
	require.NoError(t, err)
	require.True(t, ok)

	ok, _, err = ValidProof(Proof{Root: tree.Root, LeafData: ls[3], Index: 3 ^ 1, Path: tree.Paths[3]}, opts)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMirroredOrderDiffersFromNatural(t *testing.T) {
	ls := leaves(4)
	natural, err := ComputeRoot(ls, Options{HashSize: 32, Order: Natural})
	require.NoError(t, err)
	mirrored, err := ComputeRoot(ls, Options{HashSize: 32, Order: Mirrored})
	require.NoError(t, err)
	require.False(t, bytes.Equal(natural, mirrored))
}

func TestComputeRootEmptyFails(t *testing.T) {
	_, err := ComputeRoot(nil, Options{HashSize: 32})
	require.ErrorIs(t, err, ErrEmpty)
}

func TestHashSize64MatchesVersion0Shape(t *testing.T) {
	// Version 0 uses a 64-byte SHA-512 leaf/node hash with no truncation,
	// the exact shape the teacher's hashLeaf/hashNode hard-code.
	opts := Options{HashSize: 64, Order: Natural}
	ls := leaves(2)
	root, err := ComputeRoot(ls, opts)
	require.NoError(t, err)
	require.Len(t, root, 64)
}
