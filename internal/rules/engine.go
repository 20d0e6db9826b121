package rules

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/solatis/factkeeper/internal/types"
)

// Rule outcome labels shared by metrics and logs.
const (
	outcomePassed = "passed"
	outcomeFailed = "failed"
	outcomeError  = "error"
)

// Engine executes rule sets against fact values.
// It holds no per-run state, so concurrent Run calls are safe. There is no
// cancellation: once started, a run completes or returns a run-level error.
type Engine struct {
	logger  *zap.Logger
	metrics *engineMetrics
}

// NewEngine creates an engine. A nil logger disables logging; a nil
// registerer disables metrics.
func NewEngine(logger *zap.Logger, registerer prometheus.Registerer) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics, err := newEngineMetrics(registerer)
	if err != nil {
		return nil, fmt.Errorf("failed to register engine metrics: %w", err)
	}
	return &Engine{
		logger:  logger.Named("engine"),
		metrics: metrics,
	}, nil
}

// Run evaluates every enabled rule, in rule-set order, against the effective
// fact environment built from facts and values.
//
// Priority is carried through to the results but never reorders them.
// Per-rule failures (unknown fact, bad path, malformed tree) mark that rule
// failed with a diagnostic and the run continues. Only a failure to build the
// fact registry aborts the run.
func (e *Engine) Run(rules []types.Rule, facts []types.FactDefinition, values map[string]any) (*types.EngineRunResult, error) {
	start := time.Now()

	registry, err := NewRegistry(facts)
	if err != nil {
		e.metrics.recordRun("failure", 0, time.Since(start))
		return nil, fmt.Errorf("failed to build fact registry: %w", err)
	}
	env := registry.Environment(values)

	result := &types.EngineRunResult{
		Events:  make([]types.RuleEvent, 0),
		Results: make([]types.RuleResult, 0, len(rules)),
	}

	for i := range rules {
		rule := &rules[i]
		if !rule.Enabled {
			continue
		}

		ruleResult := e.runRule(rule, registry, env)
		result.Results = append(result.Results, ruleResult)
		if ruleResult.Success {
			result.Events = append(result.Events, tagEvent(rule))
		}
	}

	end := time.Now()
	elapsed := end.Sub(start)
	result.Timestamp = end
	result.ExecutionTime = float64(elapsed.Nanoseconds()) / float64(time.Millisecond)

	e.metrics.recordRun("success", len(result.Events), elapsed)
	e.logger.Debug("engine run completed",
		zap.Int("rules", len(result.Results)),
		zap.Int("passed", result.SuccessCount()),
		zap.Int("events", len(result.Events)),
		zap.Duration("elapsed", elapsed),
	)

	return result, nil
}

// runRule compiles and evaluates one rule. Compile errors and panics are
// recorded on the result instead of propagating.
func (e *Engine) runRule(rule *types.Rule, registry *Registry, env map[string]any) (res types.RuleResult) {
	res = types.RuleResult{
		RuleID:     rule.ID,
		RuleName:   rule.Name,
		Priority:   rule.Priority,
		Conditions: make([]types.ConditionEvaluation, 0),
	}

	defer func() {
		if r := recover(); r != nil {
			res.Success = false
			res.Error = fmt.Sprintf("rule evaluation panicked: %v", r)
			e.metrics.recordRule(outcomeError)
			e.logger.Error("rule evaluation panicked",
				zap.String("rule_id", string(rule.ID)),
				zap.String("rule_name", rule.Name),
				zap.Any("panic", r),
			)
		}
	}()

	compiled, err := Compile(rule, registry)
	if err != nil {
		res.Error = err.Error()
		e.metrics.recordRule(outcomeError)
		e.logger.Warn("rule failed to compile",
			zap.String("rule_id", string(rule.ID)),
			zap.String("rule_name", rule.Name),
			zap.Error(err),
		)
		return res
	}

	res.Success, res.Conditions = Evaluate(compiled, env)
	if res.Success {
		e.metrics.recordRule(outcomePassed)
	} else {
		e.metrics.recordRule(outcomeFailed)
	}
	return res
}

// tagEvent copies the rule's event and stamps it with the originating rule.
// The rule's own params map is never mutated.
func tagEvent(rule *types.Rule) types.RuleEvent {
	params := make(map[string]any, len(rule.Event.Params)+2)
	for k, v := range rule.Event.Params {
		params[k] = v
	}
	params["ruleId"] = string(rule.ID)
	params["ruleName"] = rule.Name
	return types.RuleEvent{Type: rule.Event.Type, Params: params}
}
