package script

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/wehubfusion/Daedalus/pkg/actions"
	sdkerrors "github.com/wehubfusion/Daedalus/pkg/errors"
	"github.com/wehubfusion/Daedalus/pkg/iteration"
	"github.com/wehubfusion/Daedalus/pkg/message"
	"github.com/wehubfusion/Daedalus/pkg/term"
	"go.uber.org/zap"
)

// Bindings maps binding names to the outputs they were bound to
type Bindings map[string]term.Term

// Names returns the binding names in sorted order
func (b Bindings) Names() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Runner executes scripts against an action registry
type Runner struct {
	registry *actions.Registry
	codec    *message.Codec
	logger   *zap.Logger
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithLogger sets the runner logger
func WithLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithHandles lets scripts refer to stored handles as {$handle: id}
func WithHandles(store message.HandleStore) RunnerOption {
	return func(r *Runner) {
		r.codec = message.NewCodec(store)
	}
}

// NewRunner creates a runner for registry
func NewRunner(registry *actions.Registry, opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: registry,
		codec:    message.NewCodec(nil),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the steps in order and returns the bindings. On failure the
// bindings made so far are returned with the error.
func (r *Runner) Run(ctx context.Context, s *Script) (Bindings, error) {
	bindings := Bindings{}
	defaultStrategy := iteration.ParseStrategy(s.Strategy)

	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return bindings, fmt.Errorf("script %s cancelled before step %d: %w", s.Name, i, err)
		}

		strategy := defaultStrategy
		if step.Parallel != nil {
			strategy = iteration.Parallel(*step.Parallel)
		}

		args, err := r.arguments(step.Args, bindings)
		if err != nil {
			return bindings, stepError(s.Name, i, step, err)
		}

		start := time.Now()
		outputs, execErr := r.registry.Execute(ctx, step.Action, strategy, args)
		r.logger.Debug("Script step executed",
			zap.String("script", s.Name),
			zap.Int("step", i),
			zap.String("action", step.Action),
			zap.String("strategy", string(strategy)),
			zap.Int("outputs", len(outputs)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(execErr))

		if err := checkOutcome(step, execErr); err != nil {
			return bindings, stepError(s.Name, i, step, err)
		}
		if step.Expect != nil && len(outputs) != *step.Expect {
			return bindings, stepError(s.Name, i, step, sdkerrors.NewBadRequestError(step.Action,
				fmt.Sprintf("expected %d output(s), got %d", *step.Expect, len(outputs)), "EXPECTATION_FAILED", nil))
		}
		if err := bind(bindings, step.Bind, outputs); err != nil {
			return bindings, stepError(s.Name, i, step, err)
		}
	}

	r.logger.Info("Script completed",
		zap.String("script", s.Name),
		zap.Int("steps", len(s.Steps)),
		zap.Int("bindings", len(bindings)))
	return bindings, nil
}

func checkOutcome(step Step, execErr error) error {
	if step.ExpectError == "" {
		return execErr
	}
	if execErr == nil {
		return sdkerrors.NewBadRequestError(step.Action,
			fmt.Sprintf("expected %s error, action succeeded", step.ExpectError), "EXPECTATION_FAILED", nil)
	}
	if got := sdkerrors.TypeOf(execErr).String(); got != step.ExpectError {
		return sdkerrors.NewBadRequestError(step.Action,
			fmt.Sprintf("expected %s error, got %s", step.ExpectError, got), "EXPECTATION_FAILED", execErr)
	}
	return nil
}

func bind(bindings Bindings, names []string, outputs []term.Term) error {
	if len(names) > len(outputs) {
		return sdkerrors.NewBadRequestError("", fmt.Sprintf("cannot bind %d name(s) to %d output(s)", len(names), len(outputs)), "BIND_MISMATCH", nil)
	}
	for i, name := range names {
		if name == "_" {
			continue
		}
		bindings[name] = outputs[i]
	}
	return nil
}

func (r *Runner) arguments(raw []any, bindings Bindings) ([]term.Term, error) {
	args := make([]term.Term, len(raw))
	for i, v := range raw {
		t, err := r.argument(v, bindings)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		args[i] = t
	}
	return args, nil
}

func (r *Runner) argument(v any, bindings Bindings) (term.Term, error) {
	switch x := v.(type) {
	case string:
		switch {
		case strings.HasPrefix(x, "$$"):
			return term.Of(x[1:]), nil
		case strings.HasPrefix(x, "$"):
			t, ok := bindings[x[1:]]
			if !ok {
				return term.Term{}, sdkerrors.NewBadRequestError(x, "unbound variable", "UNBOUND_VARIABLE", nil)
			}
			return t, nil
		}
		return term.Of(x), nil
	case []any:
		items := make([]term.Term, len(x))
		for i, it := range x {
			t, err := r.argument(it, bindings)
			if err != nil {
				return term.Term{}, err
			}
			items[i] = t
		}
		return term.List(items...), nil
	case int:
		return term.Of(float64(x)), nil
	case int64:
		return term.Of(float64(x)), nil
	case uint64:
		return term.Of(float64(x)), nil
	default:
		return r.codec.FromValue(v)
	}
}

func stepError(script string, i int, step Step, err error) error {
	return fmt.Errorf("script %s: step %d (%s): %w", script, i, step.Action, err)
}
