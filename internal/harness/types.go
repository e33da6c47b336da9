package harness

import "fmt"

// TraceEvent records one engine operation in scenario order.
// Flow names (not generated IDs) key the events so traces read well in
// golden files; IDs are deterministic anyway under the sequence generator.
type TraceEvent struct {
	Seq      int64  `json:"seq"`
	Event    string `json:"event"`
	Flow     string `json:"flow,omitempty"`
	Adapter  string `json:"adapter,omitempty"`
	Status   string `json:"status,omitempty"`
	Order    int64  `json:"order,omitempty"`
	Receipts int    `json:"receipts,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every action and expectation held.
	Pass bool `json:"pass"`

	// Trace contains one event per engine operation, in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors describes every failed action or expectation.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result with an empty trace.
func NewResult() *Result {
	return &Result{Pass: true, Trace: []TraceEvent{}, Errors: []string{}}
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// addEvent appends a trace event with the next sequence number.
func (r *Result) addEvent(ev TraceEvent) {
	ev.Seq = int64(len(r.Trace) + 1)
	r.Trace = append(r.Trace, ev)
}
