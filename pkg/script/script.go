// Package script runs sequences of actions described in YAML.
//
//	name: neighbours
//	steps:
//	  - action: graph/create
//	    args: [directedsparse]
//	    bind: [g]
//	  - action: graph/addedgemultiple
//	    args: [$g, [e1, a, b], [e2, c, b]]
//	  - action: graph/neighborsmultiple
//	    parallel: true
//	    args: [$g, b]
//	    bind: [nb]
//	    expect: 1
//
// A string argument starting with "$" refers to an earlier binding; "$$" escapes
// a literal dollar sign. YAML sequences become list terms and integers become
// float64 so scripts see the same values as JSON requests.
package script

import (
	"fmt"
	"os"
	"strings"

	sdkerrors "github.com/wehubfusion/Daedalus/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Script is a named list of steps
type Script struct {
	Name string `yaml:"name,omitempty"`

	// Strategy applies to steps that do not set parallel: sequential (default) or parallel
	Strategy string `yaml:"strategy,omitempty"`

	Steps []Step `yaml:"steps"`
}

// Step invokes one action
type Step struct {
	Action   string `yaml:"action"`
	Parallel *bool  `yaml:"parallel,omitempty"`
	Args     []any  `yaml:"args,omitempty"`

	// Bind names the outputs positionally. "_" skips an output.
	Bind []string `yaml:"bind,omitempty"`

	// Expect is the number of outputs the step must produce
	Expect *int `yaml:"expect,omitempty"`

	// ExpectError is the error type the step must fail with, e.g. ARITY.
	// Partial outputs of an expected failure are still bound.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Load reads and parses a script file
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses script content. The name is used only for error messages.
func Parse(data []byte, name string) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, sdkerrors.NewBadRequestError(name, "invalid script", "INVALID_SCRIPT", err)
	}
	if err := s.validate(name); err != nil {
		return nil, err
	}
	if s.Name == "" {
		s.Name = name
	}
	return &s, nil
}

func (s *Script) validate(name string) error {
	if len(s.Steps) == 0 {
		return sdkerrors.NewBadRequestError(name, "no steps defined", "INVALID_SCRIPT", nil)
	}

	for i, step := range s.Steps {
		if strings.TrimSpace(step.Action) == "" {
			return sdkerrors.NewBadRequestError(name, fmt.Sprintf("steps[%d]: action is required", i), "INVALID_SCRIPT", nil)
		}
		for _, b := range step.Bind {
			if b == "" || strings.HasPrefix(b, "$") {
				return sdkerrors.NewBadRequestError(name, fmt.Sprintf("steps[%d] (%s): invalid binding name %q", i, step.Action, b), "INVALID_SCRIPT", nil)
			}
		}
		if step.Expect != nil && *step.Expect < 0 {
			return sdkerrors.NewBadRequestError(name, fmt.Sprintf("steps[%d] (%s): expect must not be negative", i, step.Action), "INVALID_SCRIPT", nil)
		}
		step.ExpectError = strings.ToUpper(strings.TrimSpace(step.ExpectError))
		s.Steps[i].ExpectError = step.ExpectError
		if step.ExpectError != "" && sdkerrors.ParseErrorType(step.ExpectError).String() != step.ExpectError {
			return sdkerrors.NewBadRequestError(name, fmt.Sprintf("steps[%d] (%s): unknown error type %q", i, step.Action, step.ExpectError), "INVALID_SCRIPT", nil)
		}
	}
	return nil
}
