// Package dispatch implements the two argument-partitioning strategies every
// graph action is built on.
//
// Multiple-Dispatch keeps the first argument as the pivot, flattens the rest
// and calls the operation once per tumbling window of a fixed size. A trailing
// remainder shorter than the window is ignored.
//
// Single-Dispatch keeps the first skip top-level arguments as the pivot and
// calls the operation once per remaining top-level argument, unflattened.
//
// Both run synchronously in input order and stop at the first error; whatever
// the operation appended to the sink before the failure stays there. The
// strategy value is handed through to the operation so it can pick result
// containers; dispatch itself never goes concurrent and takes no locks.
package dispatch

import (
	"context"

	"github.com/wehubfusion/Daedalus/pkg/collection"
	sdkerrors "github.com/wehubfusion/Daedalus/pkg/errors"
	"github.com/wehubfusion/Daedalus/pkg/iteration"
	"github.com/wehubfusion/Daedalus/pkg/term"
)

// Sink is the ordered output of one action execution
type Sink = collection.List[term.Term]

// Action is a named operation with an arity contract
type Action interface {
	// Name is the registry name of the action
	Name() string

	// MinimalArgumentNumber is the fewest top-level arguments Execute accepts
	MinimalArgumentNumber() int

	// Execute runs the action and appends its outputs to out
	Execute(ctx context.Context, strategy iteration.Strategy, args []term.Term, out Sink) error
}

// MultipleFunc handles one window of a Multiple-Dispatch action
type MultipleFunc func(ctx context.Context, strategy iteration.Strategy, pivot term.Term, window []term.Term, out Sink) error

// SingleFunc handles one unit of a Single-Dispatch action
type SingleFunc func(ctx context.Context, strategy iteration.Strategy, pivot []term.Term, unit term.Term, out Sink) error

// ApplyMultiple partitions args as described for Multiple-Dispatch and calls fn per window
func ApplyMultiple(ctx context.Context, strategy iteration.Strategy, args []term.Term, out Sink, window int, fn MultipleFunc) error {
	if len(args) < 1 {
		return sdkerrors.NewArityError("", 1, len(args))
	}
	if window <= 0 {
		return sdkerrors.NewInvalidSizeError("", "window", window)
	}

	pivot := args[0]
	for w := range iteration.Window(term.Flatten(args[1:]), window) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, strategy, pivot, w, out); err != nil {
			return err
		}
	}
	return nil
}

// ApplySingle partitions args as described for Single-Dispatch and calls fn per unit
func ApplySingle(ctx context.Context, strategy iteration.Strategy, args []term.Term, out Sink, skip int, fn SingleFunc) error {
	if skip < 0 {
		return sdkerrors.NewInvalidSizeError("", "skip", skip)
	}
	if len(args) < skip {
		return sdkerrors.NewArityError("", skip, len(args))
	}

	pivot := args[:skip:skip]
	for _, unit := range iteration.Skip(args, skip) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, strategy, pivot, unit, out); err != nil {
			return err
		}
	}
	return nil
}

// Multiple is a Multiple-Dispatch action: a window size and a per-window function
type Multiple struct {
	ActionName string
	Window     int
	Apply      MultipleFunc
}

// NewMultiple creates a Multiple-Dispatch action
func NewMultiple(name string, window int, fn MultipleFunc) *Multiple {
	return &Multiple{ActionName: name, Window: window, Apply: fn}
}

func (m *Multiple) Name() string { return m.ActionName }

func (m *Multiple) MinimalArgumentNumber() int { return 1 }

func (m *Multiple) Execute(ctx context.Context, strategy iteration.Strategy, args []term.Term, out Sink) error {
	return sdkerrors.WithAction(ApplyMultiple(ctx, strategy, args, out, m.Window, m.Apply), m.ActionName)
}

// Single is a Single-Dispatch action: a pivot size and a per-unit function
type Single struct {
	ActionName string
	Skip       int
	Apply      SingleFunc
}

// NewSingle creates a Single-Dispatch action
func NewSingle(name string, skip int, fn SingleFunc) *Single {
	return &Single{ActionName: name, Skip: skip, Apply: fn}
}

func (s *Single) Name() string { return s.ActionName }

func (s *Single) MinimalArgumentNumber() int { return s.Skip }

func (s *Single) Execute(ctx context.Context, strategy iteration.Strategy, args []term.Term, out Sink) error {
	return sdkerrors.WithAction(ApplySingle(ctx, strategy, args, out, s.Skip, s.Apply), s.ActionName)
}

// FuncAction adapts a plain function that consumes the whole argument list
type FuncAction struct {
	ActionName string
	MinArgs    int
	Fn         func(ctx context.Context, strategy iteration.Strategy, args []term.Term, out Sink) error
}

func (f *FuncAction) Name() string { return f.ActionName }

func (f *FuncAction) MinimalArgumentNumber() int { return f.MinArgs }

func (f *FuncAction) Execute(ctx context.Context, strategy iteration.Strategy, args []term.Term, out Sink) error {
	if len(args) < f.MinArgs {
		return sdkerrors.NewArityError(f.ActionName, f.MinArgs, len(args))
	}
	return sdkerrors.WithAction(f.Fn(ctx, strategy, args, out), f.ActionName)
}
