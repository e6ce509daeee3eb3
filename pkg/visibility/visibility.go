// Package visibility turns declarative hide rules into model predicates.
package visibility

import (
	"strings"

	"github.com/goliatone/go-forms/pkg/model"
)

// Evaluator decides whether a rule holds for the given context.
type Evaluator interface {
	Eval(rule string, ctx Context) (bool, error)
}

// Context provides inputs to an Evaluator. Values is the form store while
// Extras lets callers inject arbitrary context such as user roles or
// feature flags.
type Context struct {
	Values model.Store
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(rule string, ctx Context) (bool, error) {
	return fn(rule, ctx)
}

// Predicate adapts a hide rule into a model.Predicate: the field is hidden
// while the rule holds. A blank rule or nil evaluator yields nil (always
// visible). Evaluation errors are treated as "not hidden".
func Predicate(evaluator Evaluator, rule string, extras ...map[string]any) model.Predicate {
	rule = strings.TrimSpace(rule)
	if evaluator == nil || rule == "" {
		return nil
	}
	merged := mergeExtras(extras)
	return func(store model.Store) bool {
		hidden, err := evaluator.Eval(rule, Context{Values: store, Extras: merged})
		if err != nil {
			return false
		}
		return hidden
	}
}

func mergeExtras(extras []map[string]any) map[string]any {
	if len(extras) == 0 {
		return nil
	}
	out := make(map[string]any)
	for _, set := range extras {
		for key, value := range set {
			out[key] = value
		}
	}
	return out
}
