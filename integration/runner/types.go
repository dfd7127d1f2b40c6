package runner

import (
	"time"

	"github.com/jwebster45206/iwc-bridge/pkg/iwc"
)

// TestSuite defines a scripted IWC exchange against a live bridge.
// It is either a regular suite with Steps, or a sequence of other Cases.
type TestSuite struct {
	Name  string     `json:"name"`
	Steps []TestStep `json:"steps,omitempty"`
	Cases []string   `json:"cases,omitempty"`
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep sends one request and checks the reply it gets back
type TestStep struct {
	Name         string         `json:"name,omitempty"`
	Action       iwc.Action     `json:"action"`
	Data         map[string]any `json:"data,omitempty"`
	Expectations Expectations   `json:"expect"`
}

// Expectations defines what to check on a reply
type Expectations struct {
	// Action is the exact reply action; AnyOf allows several.
	Action iwc.Action   `json:"action,omitempty"`
	AnyOf  []iwc.Action `json:"any_of,omitempty"`

	// DataEquals compares string values of data fields
	DataEquals map[string]string `json:"data_equals,omitempty"`
	// DataHas requires the fields to be present
	DataHas []string `json:"data_has,omitempty"`
	// EmptyData requires the reply to carry no data
	EmptyData bool `json:"empty_data,omitempty"`
	// NoReply expects the bridge to drop the request
	NoReply bool `json:"no_reply,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	StepName string
	Success  bool
	Error    error
	Duration time.Duration
	Reply    *iwc.Envelope
}

// TestJob represents a test suite loaded from a case file
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
}
