package pathfinding

import (
	"errors"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, h *NodeHeap) []int {
	t.Helper()
	out := make([]int, 0, h.Len())
	for h.Len() > 0 {
		n, err := h.ExtractMin()
		require.NoError(t, err)
		out = append(out, n)
	}
	return out
}

func TestNodeHeapExtractsInKeyOrder(t *testing.T) {
	cases := []struct {
		name string
		n    int
		seed int64
	}{
		{"single", 1, 1},
		{"two", 2, 2},
		{"odd_count", 31, 3},
		{"even_count", 64, 4},
		{"large_with_duplicates", 500, 5},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := rand.New(rand.NewSource(c.seed))
			keys := make([]float64, c.n)
			for i := range keys {
				keys[i] = float64(r.Intn(c.n/2 + 1))
			}
			h := NewNodeHeap(c.n, keys)
			for _, i := range r.Perm(c.n) {
				require.NoError(t, h.Insert(i))
			}
			require.Equal(t, c.n, h.Len())

			order := drain(t, h)
			require.Len(t, order, c.n)
			for i := 1; i < len(order); i++ {
				assert.LessOrEqual(t, keys[order[i-1]], keys[order[i]], "position %d", i)
			}
		})
	}
}

func TestNodeHeapInterleavedOperations(t *testing.T) {
	const n = 300
	r := rand.New(rand.NewSource(42))
	keys := make([]float64, n)
	for i := range keys {
		keys[i] = r.Float64() * 100
	}
	h := NewNodeHeap(n, keys)

	var reference []float64
	next := 0
	for next < n || h.Len() > 0 {
		if next < n && (h.Len() == 0 || r.Intn(3) > 0) {
			require.NoError(t, h.Insert(next))
			reference = append(reference, keys[next])
			next++
			continue
		}
		got, err := h.ExtractMin()
		require.NoError(t, err)
		sort.Float64s(reference)
		assert.Equal(t, reference[0], keys[got])
		reference = reference[1:]
	}
	assert.Empty(t, reference)
}

func TestNodeHeapDecreaseKey(t *testing.T) {
	keys := []float64{5, 6, 7, 8, 9}
	h := NewNodeHeap(len(keys), keys)
	for i := range keys {
		require.NoError(t, h.Insert(i))
	}

	keys[4] = 1
	require.NoError(t, h.DecreaseKey(4))
	keys[3] = 5.5
	require.NoError(t, h.DecreaseKey(3))

	assert.Equal(t, []int{4, 0, 3, 1, 2}, drain(t, h))
}

func TestNodeHeapDecreaseKeyUnchangedIsNoop(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	keys := make([]float64, 40)
	for i := range keys {
		keys[i] = float64(r.Intn(1000))
	}
	build := func() *NodeHeap {
		h := NewNodeHeap(len(keys), keys)
		for i := range keys {
			require.NoError(t, h.Insert(i))
		}
		return h
	}

	plain := build()
	touched := build()
	for i := range keys {
		require.NoError(t, touched.DecreaseKey(i))
	}

	assert.Equal(t, drain(t, plain), drain(t, touched))
}

func TestNodeHeapTiePrefersLeftChild(t *testing.T) {
	// root 0, children 1 and 2 share a key, 3 hangs under 1
	keys := []float64{0, 2, 2, 5}
	h := NewNodeHeap(len(keys), keys)
	for i := range keys {
		require.NoError(t, h.Insert(i))
	}

	first, err := h.ExtractMin()
	require.NoError(t, err)
	assert.Equal(t, 0, first)

	second, err := h.ExtractMin()
	require.NoError(t, err)
	assert.Equal(t, 1, second, "left child wins a tie")
}

func TestNodeHeapErrors(t *testing.T) {
	keys := []float64{1, 2, 3}

	t.Run("capacity", func(t *testing.T) {
		h := NewNodeHeap(2, keys)
		require.NoError(t, h.Insert(0))
		require.NoError(t, h.Insert(1))
		err := h.Insert(2)
		assert.True(t, errors.Is(err, ErrHeapFull), "got %v", err)
		assert.Equal(t, 2, h.Len())
		assert.False(t, h.Contains(2))
	})

	t.Run("underflow", func(t *testing.T) {
		h := NewNodeHeap(3, keys)
		_, err := h.ExtractMin()
		assert.True(t, errors.Is(err, ErrHeapEmpty))

		require.NoError(t, h.Insert(1))
		_, err = h.ExtractMin()
		require.NoError(t, err)
		_, err = h.ExtractMin()
		assert.True(t, errors.Is(err, ErrHeapEmpty))
	})

	t.Run("decrease_not_queued", func(t *testing.T) {
		h := NewNodeHeap(3, keys)
		assert.True(t, errors.Is(h.DecreaseKey(1), ErrNotQueued))

		require.NoError(t, h.Insert(1))
		_, err := h.ExtractMin()
		require.NoError(t, err)
		assert.True(t, errors.Is(h.DecreaseKey(1), ErrNotQueued))
	})

	t.Run("out_of_range", func(t *testing.T) {
		h := NewNodeHeap(3, keys)
		assert.True(t, errors.Is(h.Insert(3), ErrNodeOutOfRange))
		assert.True(t, errors.Is(h.Insert(-1), ErrNodeOutOfRange))
	})
}
