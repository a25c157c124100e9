package usecase

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
)

// CollectionFilter narrows the purge to collections for which a CEL
// expression over the string variable `collection` evaluates to true.
// The zero value and a nil filter match everything.
type CollectionFilter struct {
	expression string
	program    cel.Program
}

// NewCollectionFilter compiles expression. An empty expression matches all
// collections.
func NewCollectionFilter(expression string) (*CollectionFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return &CollectionFilter{}, nil
	}

	env, err := cel.NewEnv(cel.Variable("collection", cel.StringType))
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compilation error: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("collection filter must evaluate to bool, got %s", ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return &CollectionFilter{expression: expression, program: program}, nil
}

// Expression returns the source expression, empty when matching everything.
func (f *CollectionFilter) Expression() string {
	if f == nil {
		return ""
	}
	return f.expression
}

// Match reports whether collection passes the filter.
func (f *CollectionFilter) Match(collection string) (bool, error) {
	if f == nil || f.program == nil {
		return true, nil
	}
	out, _, err := f.program.Eval(map[string]interface{}{"collection": collection})
	if err != nil {
		return false, fmt.Errorf("evaluating collection filter for %q: %w", collection, err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("collection filter returned %T, not bool", out.Value())
	}
	return matched, nil
}

// Apply returns the collections that pass the filter, keeping their order.
func (f *CollectionFilter) Apply(collections []string) ([]string, error) {
	if f == nil || f.program == nil {
		return collections, nil
	}
	kept := make([]string, 0, len(collections))
	for _, c := range collections {
		ok, err := f.Match(c)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, c)
		}
	}
	return kept, nil
}
