package types

import "time"

// ConditionEvaluation is a best-effort trace of one evaluated leaf.
// FactValue is nil when the fact's path could not be resolved.
type ConditionEvaluation struct {
	ConditionID NodeID   `json:"conditionId"`
	Fact        string   `json:"fact"`
	Operator    Operator `json:"operator"`
	Value       any      `json:"value"`
	FactValue   any      `json:"factValue"`
	Result      bool     `json:"result"`
}

// RuleResult is the outcome of one enabled rule in a run.
// Error carries the diagnostic when evaluation failed; Success is then false.
type RuleResult struct {
	RuleID     RuleID                `json:"ruleId"`
	RuleName   string                `json:"ruleName"`
	Priority   int                   `json:"priority"`
	Success    bool                  `json:"success"`
	Conditions []ConditionEvaluation `json:"conditions"`
	Error      string                `json:"error,omitempty"`
}

// EngineRunResult is the report of one engine run.
// Results follow rule-set order; Events follow the order of passing rules.
type EngineRunResult struct {
	Events        []RuleEvent  `json:"events"`
	Results       []RuleResult `json:"results"`
	Timestamp     time.Time    `json:"timestamp"`
	ExecutionTime float64      `json:"executionTime"` // milliseconds
}

// SuccessCount returns how many rules passed.
func (r *EngineRunResult) SuccessCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Success {
			n++
		}
	}
	return n
}

// FailureCount returns how many rules failed or errored.
func (r *EngineRunResult) FailureCount() int {
	return len(r.Results) - r.SuccessCount()
}
