package harness

// CheckResult is the outcome of a single check.
type CheckResult struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Pass  bool   `json:"pass"`
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// RunID identifies this run in logs and reports.
	RunID string `json:"run_id"`

	// Scenario is the scenario name.
	Scenario string `json:"scenario"`

	// Skipped is set when the collection was not available. No checks ran.
	Skipped    bool   `json:"skipped"`
	SkipReason string `json:"skip_reason,omitempty"`

	// Pass is true when every check passed. A skipped run does not pass.
	Pass bool `json:"pass"`

	// Checks holds one entry per scenario check, in scenario order.
	Checks []CheckResult `json:"checks"`
}

// NewResult creates a new passing result.
// Used as the starting point for a run.
func NewResult(runID, scenario string) *Result {
	return &Result{
		RunID:    runID,
		Scenario: scenario,
		Pass:     true,
		Checks:   []CheckResult{},
	}
}

// AddCheck records a check outcome. A non-nil err marks the check and
// the result as failed.
func (r *Result) AddCheck(name, checkType string, err error) {
	c := CheckResult{Name: name, Type: checkType, Pass: err == nil}
	if err != nil {
		c.Error = err.Error()
		r.Pass = false
	}
	r.Checks = append(r.Checks, c)
}

// Skip marks the result as skipped.
func (r *Result) Skip(reason string) {
	r.Skipped = true
	r.SkipReason = reason
	r.Pass = false
}

// Failed returns the checks that did not pass.
func (r *Result) Failed() []CheckResult {
	var failed []CheckResult
	for _, c := range r.Checks {
		if !c.Pass {
			failed = append(failed, c)
		}
	}
	return failed
}
