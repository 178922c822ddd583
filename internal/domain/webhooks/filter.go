package webhooks

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"storesync/internal/core/apperror"
)

// SyncFilter evaluates per-store CEL expressions deciding whether a delivery
// should be processed. Compiled programs are cached per expression since
// stores rarely change their filter.
type SyncFilter struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewSyncFilter builds the evaluation environment. Expressions see two string
// variables: topic (canonical topic) and platform.
func NewSyncFilter() (*SyncFilter, error) {
	env, err := cel.NewEnv(
		cel.Variable("topic", cel.StringType),
		cel.Variable("platform", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}
	return &SyncFilter{
		env:      env,
		programs: make(map[string]cel.Program),
	}, nil
}

// Allows evaluates the expression for a delivery. An empty expression allows
// everything. A broken expression fails closed with a validation error so the
// misconfiguration surfaces instead of silently syncing.
func (f *SyncFilter) Allows(expression string, topic Topic, platform string) (bool, error) {
	if expression == "" {
		return true, nil
	}

	prg, err := f.program(expression)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(map[string]any{
		"topic":    string(topic),
		"platform": platform,
	})
	if err != nil {
		return false, apperror.NewValidationField("sync_filter", fmt.Sprintf("evaluation failed: %v", err))
	}

	allowed, ok := out.Value().(bool)
	if !ok {
		return false, apperror.NewValidationField("sync_filter", "expression must evaluate to a boolean")
	}
	return allowed, nil
}

func (f *SyncFilter) program(expression string) (cel.Program, error) {
	f.mu.RLock()
	prg, ok := f.programs[expression]
	f.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, issues := f.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, apperror.NewValidationField("sync_filter", fmt.Sprintf("invalid expression: %v", issues.Err()))
	}
	prg, err := f.env.Program(ast)
	if err != nil {
		return nil, apperror.NewValidationField("sync_filter", fmt.Sprintf("invalid expression: %v", err))
	}

	f.mu.Lock()
	f.programs[expression] = prg
	f.mu.Unlock()
	return prg, nil
}
