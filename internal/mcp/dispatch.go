package mcp

import (
	"context"
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/sync/semaphore"

	"github.com/jivemcp/jive/internal/jiveerr"
	"github.com/jivemcp/jive/internal/shaper"
	"github.com/jivemcp/jive/internal/store"
)

// defaultInFlightCap and defaultQueueCap implement the dispatcher
// backpressure policy of spec.md §5: cap in-flight calls per client,
// queue a bounded excess, then fail.
const (
	defaultInFlightCap = 64
	defaultQueueCap     = 256
)

// Dispatcher routes (tool_name, arguments) pairs to registered
// handlers, validating, enveloping, and shaping the result (spec.md
// §4.10).
type Dispatcher struct {
	registry *Registry
	storage  *store.Facade
	schemas  map[string]*jsonschema.Schema

	inFlight *semaphore.Weighted
	queued   *semaphore.Weighted

	warnDeprecations bool
	responseBudget   int
}

// NewDispatcher compiles every registered tool's schema up front and
// wires the bounded in-flight/queue semaphores. responseBudget
// overrides the shaper's default byte budget (spec.md §4.11); pass 0
// to keep shaper.DefaultMaxSize.
func NewDispatcher(registry *Registry, storage *store.Facade, warnDeprecations bool, responseBudget int) (*Dispatcher, error) {
	schemas := make(map[string]*jsonschema.Schema)
	for _, def := range registry.List() {
		if len(def.InputSchema) == 0 {
			continue
		}
		schema, err := CompileSchema(def.Name, def.InputSchema)
		if err != nil {
			return nil, err
		}
		schemas[def.Name] = schema
	}
	return &Dispatcher{
		registry:         registry,
		storage:          storage,
		schemas:          schemas,
		inFlight:         semaphore.NewWeighted(defaultInFlightCap),
		queued:           semaphore.NewWeighted(defaultInFlightCap + defaultQueueCap),
		warnDeprecations: warnDeprecations,
		responseBudget:   responseBudget,
	}, nil
}

// Dispatch resolves toolName (rewriting a legacy alias first),
// validates args, invokes the handler under a per-call deadline, and
// returns the shaped response envelope bytes (spec.md §4.10 steps 1-5).
func (d *Dispatcher) Dispatch(ctx context.Context, toolName string, args map[string]any) []byte {
	resolvedName := toolName
	deprecation := ""
	if mapping, isAlias := d.registry.GetAlias(toolName); isAlias {
		resolvedName = mapping.ConsolidatedName
		args = mapping.Rewrite(args)
		if d.warnDeprecations {
			deprecation = "tool " + toolName + " is deprecated; use " + resolvedName
		}
	}

	def, ok := d.registry.Get(resolvedName)
	if !ok {
		return d.shape(errorEnvelope(jiveerr.New(jiveerr.CodeToolNotFound, "unknown tool: "+toolName)))
	}

	if !d.queued.TryAcquire(1) {
		return d.shape(errorEnvelope(jiveerr.New(jiveerr.CodeTooManyRequests, "dispatcher queue is full")))
	}
	defer d.queued.Release(1)

	if err := d.inFlight.Acquire(ctx, 1); err != nil {
		return d.shape(errorEnvelope(jiveerr.New(jiveerr.CodeCancelled, "call cancelled while waiting for an in-flight slot")))
	}
	defer d.inFlight.Release(1)

	if schema, hasSchema := d.schemas[resolvedName]; hasSchema {
		if err := ValidateArgs(schema, args); err != nil {
			return d.shape(errorEnvelope(err))
		}
	}

	callCtx, cancel := newCallContext(ctx, d.storage)
	defer cancel()

	result, err := def.Handler(callCtx, args)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return d.shape(errorEnvelope(jiveerr.New(jiveerr.CodeTimeout, "tool call exceeded its deadline")))
		}
		if callCtx.Err() == context.Canceled {
			return d.shape(errorEnvelope(jiveerr.New(jiveerr.CodeCancelled, "tool call was cancelled")))
		}
		return d.shape(errorEnvelope(err))
	}

	return d.shape(successEnvelope(result, deprecation))
}

// shape serializes env through the response shaper (spec.md §4.11),
// falling back to a minimal hand-built error envelope if even
// marshaling the shaper's own failure path fails.
func (d *Dispatcher) shape(env *Envelope) []byte {
	shaped, err := shaper.Shape(env, shaper.Options{MaxSize: d.responseBudget})
	if err != nil {
		raw, _ := json.Marshal(errorEnvelope(jiveerr.Wrap(jiveerr.CodeInternal, "failed to serialize response", err)))
		return raw
	}
	return shaped
}
