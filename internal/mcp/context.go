package mcp

import (
	"context"
	"time"

	"github.com/jivemcp/jive/internal/store"
)

// CallContext carries the per-call deadline, cancellation handle, and
// storage facade into a handler (spec.md §4.10 step 3).
type CallContext struct {
	context.Context
	Storage *store.Facade
}

// defaultDeadline is the default tool-call deadline (spec.md §5).
const defaultDeadline = 30 * time.Second

// newCallContext derives a CallContext with the default deadline from parent.
func newCallContext(parent context.Context, storage *store.Facade) (*CallContext, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, defaultDeadline)
	return &CallContext{Context: ctx, Storage: storage}, cancel
}

// NewCallContext builds a CallContext directly over parent with no
// deadline, for callers that invoke tool handlers outside the
// dispatcher (e.g. a one-shot CLI command).
func NewCallContext(parent context.Context, storage *store.Facade) *CallContext {
	return &CallContext{Context: parent, Storage: storage}
}
