package pathfinding

import "fmt"

// NodeHeap is a fixed-capacity binary min-heap of node indices ordered by
// keys[index]. The keys slice is shared with the caller, which lowers a key
// and then calls DecreaseKey to restore order.
type NodeHeap struct {
	items []int
	count int
	keys  []float64
	slot  []int // node index -> position in items, -1 when not queued
}

func NewNodeHeap(capacity int, keys []float64) *NodeHeap {
	if capacity < 0 {
		capacity = 0
	}
	slot := make([]int, len(keys))
	for i := range slot {
		slot[i] = -1
	}
	return &NodeHeap{
		items: make([]int, capacity),
		keys:  keys,
		slot:  slot,
	}
}

func (h *NodeHeap) Len() int { return h.count }
func (h *NodeHeap) Cap() int { return len(h.items) }

// Contains reports whether node is currently queued.
func (h *NodeHeap) Contains(node int) bool {
	return node >= 0 && node < len(h.slot) && h.slot[node] >= 0
}

// Insert adds node to the heap.
func (h *NodeHeap) Insert(node int) error {
	if h.count >= len(h.items) {
		return fmt.Errorf("pathfinding: insert node %d (cap %d): %w", node, len(h.items), ErrHeapFull)
	}
	if node < 0 || node >= len(h.slot) {
		return fmt.Errorf("pathfinding: insert node %d: %w", node, ErrNodeOutOfRange)
	}
	h.items[h.count] = node
	h.slot[node] = h.count
	h.count++
	h.up(h.count - 1)
	return nil
}

// DecreaseKey restores heap order after the key of an already queued node
// was lowered.
func (h *NodeHeap) DecreaseKey(node int) error {
	if !h.Contains(node) {
		return fmt.Errorf("pathfinding: decrease key of node %d: %w", node, ErrNotQueued)
	}
	h.up(h.slot[node])
	return nil
}

// ExtractMin removes and returns the node with the smallest key.
func (h *NodeHeap) ExtractMin() (int, error) {
	if h.count == 0 {
		return 0, ErrHeapEmpty
	}
	top := h.items[0]
	h.slot[top] = -1
	h.count--
	if h.count > 0 {
		last := h.items[h.count]
		h.items[0] = last
		h.slot[last] = 0
		h.down(0)
	}
	return top, nil
}

func (h *NodeHeap) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !(h.keys[h.items[parent]] > h.keys[h.items[i]]) {
			return
		}
		h.swap(i, parent)
		i = parent
	}
}

func (h *NodeHeap) down(i int) {
	for {
		left := 2*i + 1
		right := left + 1
		smallest := i
		if left < h.count && h.keys[h.items[left]] < h.keys[h.items[smallest]] {
			smallest = left
		}
		// strict comparison keeps the left child on a tie
		if right < h.count && h.keys[h.items[right]] < h.keys[h.items[smallest]] {
			smallest = right
		}
		if smallest == i {
			return
		}
		h.swap(i, smallest)
		i = smallest
	}
}

func (h *NodeHeap) swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.slot[h.items[i]] = i
	h.slot[h.items[j]] = j
}
