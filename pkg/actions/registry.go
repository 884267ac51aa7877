// Package actions holds the registry that resolves action names to
// dispatch.Action implementations and executes them.
package actions

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/wehubfusion/Daedalus/pkg/collection"
	"github.com/wehubfusion/Daedalus/pkg/dispatch"
	sdkerrors "github.com/wehubfusion/Daedalus/pkg/errors"
	"github.com/wehubfusion/Daedalus/pkg/iteration"
	"github.com/wehubfusion/Daedalus/pkg/term"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Registry manages actions by lower-cased name
type Registry struct {
	mu      sync.RWMutex
	actions map[string]dispatch.Action
	logger  *zap.Logger
	tracer  trace.Tracer
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger sets the logger used for execution logs
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTracer overrides the tracer used for execution spans
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Registry) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

// NewRegistry creates an empty registry
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		actions: make(map[string]dispatch.Action),
		logger:  zap.NewNop(),
		tracer:  otel.Tracer("daedalus/actions"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register registers an action under its own name
func (r *Registry) Register(action dispatch.Action) {
	r.RegisterWithName(action.Name(), action)
}

// RegisterWithName registers an action under an alias. A later registration replaces an earlier one.
func (r *Registry) RegisterWithName(name string, action dispatch.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[normalize(name)] = action
}

// Get returns the action registered under name
func (r *Registry) Get(name string) (dispatch.Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actions[normalize(name)]
	return a, ok
}

// Has checks if an action exists for name
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Names returns all registered names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Execute runs the named action with args. The returned outputs are whatever
// the action produced, including the partial outputs of a failed run.
func (r *Registry) Execute(ctx context.Context, name string, strategy iteration.Strategy, args []term.Term) ([]term.Term, error) {
	action, ok := r.Get(name)
	if !ok {
		return nil, sdkerrors.NewNotFoundError(name, "action is not registered", "ACTION_NOT_FOUND")
	}

	ctx, span := r.tracer.Start(ctx, "actions.Execute",
		trace.WithAttributes(
			attribute.String("action.name", action.Name()),
			attribute.String("action.strategy", string(strategy)),
			attribute.Int("action.arguments", len(args)),
		))
	defer span.End()

	if minArgs := action.MinimalArgumentNumber(); len(args) < minArgs {
		err := sdkerrors.NewArityError(action.Name(), minArgs, len(args))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Warn("Rejected action invocation",
			zap.String("action", action.Name()),
			zap.Int("arguments", len(args)),
			zap.Int("minimum", minArgs))
		return nil, err
	}

	out := collection.New[term.Term](strategy)
	start := time.Now()
	err := action.Execute(ctx, strategy, args, out)
	outputs := out.All()

	span.SetAttributes(
		attribute.Int("action.outputs", len(outputs)),
		attribute.Int64("action.duration_ms", time.Since(start).Milliseconds()))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("Action failed",
			zap.String("action", action.Name()),
			zap.String("strategy", string(strategy)),
			zap.Int("partial_outputs", len(outputs)),
			zap.Error(err))
		return outputs, err
	}

	span.SetStatus(codes.Ok, "")
	r.logger.Debug("Action executed",
		zap.String("action", action.Name()),
		zap.String("strategy", string(strategy)),
		zap.Int("outputs", len(outputs)))
	return outputs, nil
}
