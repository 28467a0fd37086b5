// Package cel compiles and runs CEL expressions over workbench data. The
// data is bound to the variable "_".
package cel

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"

	"github.com/oakwood-commons/pathbench/pkg/value"
)

// Evaluator compiles and evaluates CEL expressions. Compiled programs are
// cached by expression text.
type Evaluator struct {
	env *cel.Env

	mu       sync.Mutex
	programs map[string]cel.Program
}

// NewEvaluator creates a new CEL evaluator with standard library functions.
func NewEvaluator() (*Evaluator, error) {
	env, err := newStandardCELEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env, programs: map[string]cel.Program{}}, nil
}

// newStandardCELEnv creates a standard CEL environment with common extensions.
func newStandardCELEnv(opts ...cel.EnvOption) (*cel.Env, error) {
	allOpts := make([]cel.EnvOption, 0, 6+len(opts))
	allOpts = append(allOpts,
		cel.Variable("_", cel.DynType),
		cel.CrossTypeNumericComparisons(true),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	)
	allOpts = append(allOpts, opts...)
	return cel.NewEnv(allOpts...)
}

// Compile parses and checks expr, returning a cached program when one exists.
func (e *Evaluator) Compile(expr string) (cel.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if prg, ok := e.programs[expr]; ok {
		return prg, nil
	}
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	e.programs[expr] = prg
	return prg, nil
}

// Evaluate evaluates a CEL expression against data.
// Example: "_.items[0]" or "_.items.filter(x, x.available == true)"
func (e *Evaluator) Evaluate(expr string, data any) (any, error) {
	prg, err := e.Compile(expr)
	if err != nil {
		return nil, err
	}
	result, _, err := prg.Eval(map[string]any{"_": value.ToPlain(data)})
	if err != nil {
		return nil, fmt.Errorf("eval error: %w", err)
	}
	return ToGo(result), nil
}

// Match evaluates a boolean expression against data.
func (e *Evaluator) Match(expr string, data any) (bool, error) {
	out, err := e.Evaluate(expr, data)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expression %q returned %T, want bool", expr, out)
	}
	return b, nil
}

// Filter keeps the items for which expr is true, each bound to "_".
func (e *Evaluator) Filter(expr string, items []any) ([]any, error) {
	out := make([]any, 0, len(items))
	for i, item := range items {
		ok, err := e.Match(expr, item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if ok {
			out = append(out, item)
		}
	}
	return out, nil
}

// ToGo converts CEL types to Go native types recursively. Integers become
// float64 to match the workbench number model.
func ToGo(val ref.Val) any {
	if val == nil {
		return nil
	}

	switch v := val.(type) {
	case types.Bool:
		return bool(v)
	case types.Int:
		return float64(v)
	case types.Uint:
		return float64(v)
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case types.Bytes:
		return []byte(v)
	case types.Null:
		return nil
	}

	if valuer, ok := val.(interface{ Value() any }); ok {
		return fromNative(valuer.Value())
	}
	return val
}

func fromNative(inner any) any {
	switch t := inner.(type) {
	case ref.Val:
		return ToGo(t)
	case []ref.Val:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = ToGo(elem)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = fromNative(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = fromNative(v)
		}
		return value.Normalize(out)
	case map[ref.Val]ref.Val:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[fmt.Sprintf("%v", ToGo(k))] = ToGo(v)
		}
		return value.Normalize(out)
	}
	return value.Normalize(inner)
}
