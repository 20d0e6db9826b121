package rules

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/solatis/factkeeper/internal/types"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(zaptest.NewLogger(t), nil)
	require.NoError(t, err)
	return engine
}

func seniorDiscount() types.Rule {
	r := ruleWith("Senior discount", group(types.GroupAll,
		leaf("age", types.OpGreaterThanInclusive, 65),
	))
	r.Event = types.RuleEvent{Type: "discount", Params: map[string]any{"percent": 10.0}}
	return r
}

func TestEngine_SeniorDiscount(t *testing.T) {
	engine := newTestEngine(t)
	rule := seniorDiscount()

	result, err := engine.Run([]types.Rule{rule}, testFacts(), map[string]any{"age": 70})
	require.NoError(t, err)

	require.Len(t, result.Results, 1)
	assert.True(t, result.Results[0].Success)
	assert.Equal(t, rule.ID, result.Results[0].RuleID)
	assert.Equal(t, "Senior discount", result.Results[0].RuleName)
	assert.Empty(t, result.Results[0].Error)

	require.Len(t, result.Events, 1)
	assert.Equal(t, "discount", result.Events[0].Type)
	assert.Equal(t, map[string]any{
		"percent":  10.0,
		"ruleId":   string(rule.ID),
		"ruleName": "Senior discount",
	}, result.Events[0].Params)

	assert.GreaterOrEqual(t, result.ExecutionTime, 0.0)
	assert.False(t, result.Timestamp.IsZero())
	assert.Equal(t, 1, result.SuccessCount())
	assert.Equal(t, 0, result.FailureCount())
}

func TestEngine_FailingRuleEmitsNothing(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.Run([]types.Rule{seniorDiscount()}, testFacts(), map[string]any{"age": 40})
	require.NoError(t, err)

	require.Len(t, result.Results, 1)
	assert.False(t, result.Results[0].Success)
	require.Len(t, result.Results[0].Conditions, 1)
	assert.Equal(t, 40.0, result.Results[0].Conditions[0].FactValue)
	assert.NotNil(t, result.Events)
	assert.Empty(t, result.Events)
}

func TestEngine_NonFiniteFactFails(t *testing.T) {
	engine := newTestEngine(t)

	for _, age := range []any{"NaN", "inf"} {
		result, err := engine.Run([]types.Rule{seniorDiscount()}, testFacts(), map[string]any{"age": age})
		require.NoError(t, err)

		require.Len(t, result.Results, 1)
		assert.False(t, result.Results[0].Success, "age=%v", age)
		assert.Empty(t, result.Events, "age=%v", age)
	}
}

func TestEngine_EventParamsNotMutated(t *testing.T) {
	engine := newTestEngine(t)
	rule := seniorDiscount()

	_, err := engine.Run([]types.Rule{rule}, testFacts(), map[string]any{"age": 90})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"percent": 10.0}, rule.Event.Params)
}

func TestEngine_NilEventParams(t *testing.T) {
	engine := newTestEngine(t)
	rule := ruleWith("always", group(types.GroupAll))

	result, err := engine.Run([]types.Rule{rule}, nil, nil)
	require.NoError(t, err)
	require.Len(t, result.Events, 1)
	assert.Equal(t, "always", result.Events[0].Params["ruleName"])
}

func TestEngine_DisabledRulesSkipped(t *testing.T) {
	engine := newTestEngine(t)
	disabled := ruleWith("disabled", group(types.GroupAll))
	disabled.Enabled = false
	enabled := ruleWith("enabled", group(types.GroupAll))

	result, err := engine.Run([]types.Rule{disabled, enabled}, testFacts(), nil)
	require.NoError(t, err)

	require.Len(t, result.Results, 1)
	assert.Equal(t, enabled.ID, result.Results[0].RuleID)
	require.Len(t, result.Events, 1)
}

func TestEngine_ResultsFollowRuleSetOrder(t *testing.T) {
	engine := newTestEngine(t)
	low := ruleWith("low", group(types.GroupAll))
	low.Priority = 1
	high := ruleWith("high", group(types.GroupAll))
	high.Priority = 100
	mid := ruleWith("mid", group(types.GroupAll))
	mid.Priority = 50

	result, err := engine.Run([]types.Rule{low, high, mid}, testFacts(), nil)
	require.NoError(t, err)

	require.Len(t, result.Results, 3)
	assert.Equal(t, []string{"low", "high", "mid"}, []string{
		result.Results[0].RuleName, result.Results[1].RuleName, result.Results[2].RuleName,
	})
	assert.Equal(t, 100, result.Results[1].Priority)
	assert.Equal(t, "low", result.Events[0].Params["ruleName"])
}

func TestEngine_BrokenRuleDoesNotAbortRun(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	engine, err := NewEngine(zap.New(core), nil)
	require.NoError(t, err)

	broken := ruleWith("broken", group(types.GroupAll, leaf("ghost", types.OpEqual, 1)))
	missing := ruleWith("missing", nil)
	good := seniorDiscount()

	result, err := engine.Run([]types.Rule{broken, missing, good}, testFacts(), map[string]any{"age": 80})
	require.NoError(t, err)

	require.Len(t, result.Results, 3)
	assert.False(t, result.Results[0].Success)
	assert.Contains(t, result.Results[0].Error, "ghost")
	assert.Empty(t, result.Results[0].Conditions)
	assert.False(t, result.Results[1].Success)
	assert.NotEmpty(t, result.Results[1].Error)
	assert.True(t, result.Results[2].Success)
	require.Len(t, result.Events, 1)
	assert.Equal(t, 2, result.FailureCount())

	assert.Equal(t, 2, logs.FilterMessage("rule failed to compile").Len())
}

func TestEngine_DuplicateFactNamesFailRun(t *testing.T) {
	engine := newTestEngine(t)
	facts := append(testFacts(), types.FactDefinition{Name: "Age", Type: types.FactNumber})

	result, err := engine.Run([]types.Rule{seniorDiscount()}, facts, nil)
	require.ErrorIs(t, err, types.ErrDuplicateFactName)
	assert.Nil(t, result)
}

func TestEngine_EmptyRuleSet(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.Run(nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Results)
	assert.Empty(t, result.Events)
}

func TestEngine_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	engine, err := NewEngine(zap.NewNop(), reg)
	require.NoError(t, err)

	broken := ruleWith("broken", group(types.GroupAll, leaf("ghost", types.OpEqual, 1)))
	rules := []types.Rule{seniorDiscount(), broken}

	_, err = engine.Run(rules, testFacts(), map[string]any{"age": 70})
	require.NoError(t, err)
	_, err = engine.Run(rules, testFacts(), map[string]any{"age": 30})
	require.NoError(t, err)

	m := engine.metrics
	assert.Equal(t, 2.0, testutil.ToFloat64(m.runs.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ruleOutcomes.WithLabelValues(outcomePassed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ruleOutcomes.WithLabelValues(outcomeFailed)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ruleOutcomes.WithLabelValues(outcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsEmitted))

	// Registering a second engine on the same registry collides.
	_, err = NewEngine(zap.NewNop(), reg)
	assert.Error(t, err)
}

func TestEngine_ConcurrentRuns(t *testing.T) {
	engine := newTestEngine(t)
	rules := []types.Rule{seniorDiscount()}
	facts := testFacts()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(age int) {
			defer wg.Done()
			result, err := engine.Run(rules, facts, map[string]any{"age": age})
			if assert.NoError(t, err) {
				assert.Equal(t, age >= 65, result.Results[0].Success)
			}
		}(i * 10)
	}
	wg.Wait()
}
