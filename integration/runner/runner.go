package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jwebster45206/iwc-bridge/pkg/iwc"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration suites against a running bridge
type Runner struct {
	BaseURL           string
	Origin            string
	Timeout           time.Duration
	Logger            func(format string, args ...any)
	ErrorHandlingMode ErrorHandlingMode
}

// NewRunner creates a new test runner
func NewRunner(baseURL, origin string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Origin:            origin,
		Timeout:           30 * time.Second,
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

func (r *Runner) socketURL() string {
	u := r.BaseURL
	if rest, ok := strings.CutPrefix(u, "https://"); ok {
		u = "wss://" + rest
	} else if rest, ok := strings.CutPrefix(u, "http://"); ok {
		u = "ws://" + rest
	}
	return u + "/v1/iwc/ws"
}

// RunSuite opens one game socket and executes the suite's steps in order
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	header := http.Header{}
	header.Set("Origin", r.Origin)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, r.socketURL(), header)
	if err != nil {
		result.Error = fmt.Errorf("failed to open game socket: %w", err)
		return result, result.Error
	}
	defer func() { _ = conn.Close() }()

	var failures int
	for i, step := range suite.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step %d (%s)", i+1, step.Action)
		}
		r.logf("  → %s", name)

		stepResult := r.runStep(conn, step)
		stepResult.StepName = name
		result.Results = append(result.Results, stepResult)

		if !stepResult.Success {
			failures++
			r.logf("    ✗ %v", stepResult.Error)
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
		}
	}

	result.Duration = time.Since(start)
	if failures > 0 {
		result.Error = fmt.Errorf("%d of %d steps failed", failures, len(suite.Steps))
	}
	return result, nil
}

func (r *Runner) runStep(conn *websocket.Conn, step TestStep) TestResult {
	start := time.Now()
	res := TestResult{}

	if err := conn.WriteJSON(iwc.NewEnvelope(step.Action, step.Data)); err != nil {
		res.Error = fmt.Errorf("failed to send request: %w", err)
		return res
	}

	wait := r.Timeout
	if step.Expectations.NoReply {
		wait = 500 * time.Millisecond
	}
	if err := conn.SetReadDeadline(time.Now().Add(wait)); err != nil {
		res.Error = err
		return res
	}

	var reply iwc.Envelope
	err := conn.ReadJSON(&reply)
	res.Duration = time.Since(start)

	var netErr net.Error
	timedOut := errors.As(err, &netErr) && netErr.Timeout()

	if step.Expectations.NoReply {
		if err == nil {
			res.Error = fmt.Errorf("expected no reply, got %s", reply.Action)
			res.Reply = &reply
			return res
		}
		if !timedOut {
			res.Error = fmt.Errorf("socket failed while waiting: %w", err)
			return res
		}
		res.Success = true
		return res
	}

	if err != nil {
		res.Error = fmt.Errorf("no reply: %w", err)
		return res
	}
	res.Reply = &reply

	if err := CheckReply(step.Expectations, reply); err != nil {
		res.Error = err
		return res
	}
	res.Success = true
	return res
}

// CheckReply validates a reply against the step expectations
func CheckReply(expect Expectations, reply iwc.Envelope) error {
	var problems []string

	if reply.Channel != iwc.ChannelIdentifier {
		problems = append(problems, fmt.Sprintf("channel %q", reply.Channel))
	}
	if expect.Action != "" && reply.Action != expect.Action {
		problems = append(problems, fmt.Sprintf("expected action %s, got %s", expect.Action, reply.Action))
	}
	if len(expect.AnyOf) > 0 && !slices.Contains(expect.AnyOf, reply.Action) {
		problems = append(problems, fmt.Sprintf("expected one of %v, got %s", expect.AnyOf, reply.Action))
	}
	for key, want := range expect.DataEquals {
		if got := fmt.Sprint(reply.Data[key]); got != want {
			problems = append(problems, fmt.Sprintf("data.%s: expected %q, got %q", key, want, got))
		}
	}
	for _, key := range expect.DataHas {
		if _, ok := reply.Data[key]; !ok {
			problems = append(problems, fmt.Sprintf("data.%s missing", key))
		}
	}
	if expect.EmptyData && len(reply.Data) > 0 {
		problems = append(problems, fmt.Sprintf("expected empty data, got %v", reply.Data))
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func (r *Runner) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger(format, args...)
	}
}
