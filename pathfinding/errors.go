package pathfinding

import "errors"

var (
	ErrInvalidGrid     = errors.New("invalid grid options")
	ErrNodeOutOfRange  = errors.New("node index out of range")
	ErrStateMismatch   = errors.New("search state does not match grid")
	ErrBudgetExhausted = errors.New("search budget exhausted before reaching goal")

	// Heap errors indicate an undersized queue or a bookkeeping bug.
	ErrHeapFull  = errors.New("node heap is full")
	ErrHeapEmpty = errors.New("node heap is empty")
	ErrNotQueued = errors.New("node is not queued")
)
