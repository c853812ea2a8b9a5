package safety

import (
	"errors"
	"sync/atomic"
)

var (
	ErrMaxDepth = errors.New("maximum recursive depth reached")
	ErrMaxNodes = errors.New("maximum number of schema nodes reached")
)

// RecursionGuard bounds a recursive schema walk: how deep it may nest and how
// many nodes it may visit in total. A maxNodes of 0 or less disables the
// node limit.
type RecursionGuard struct {
	maxDepth  int
	maxNodes  int32
	nodeCount atomic.Int32
}

func NewRecursionGuard(maxDepth int, maxNodes int32) *RecursionGuard {
	return &RecursionGuard{
		maxDepth: maxDepth,
		maxNodes: maxNodes,
	}
}

// Check is called once per visited node with its nesting depth.
func (rg *RecursionGuard) Check(depth int) error {
	if depth > rg.maxDepth {
		return ErrMaxDepth
	}
	if n := rg.nodeCount.Add(1); rg.maxNodes > 0 && n > rg.maxNodes {
		return ErrMaxNodes
	}
	return nil
}

// Visited returns how many nodes were checked since the last Reset.
func (rg *RecursionGuard) Visited() int32 {
	return rg.nodeCount.Load()
}

func (rg *RecursionGuard) Reset() {
	rg.nodeCount.Store(0)
}
