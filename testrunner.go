package willowfx

import (
	"encoding/json"
	"fmt"

	"github.com/phanxgames/willowfx/input"
)

// testStep represents a single action in a test script.
type testStep struct {
	Action  string `json:"action"`
	Label   string `json:"label,omitempty"`
	Code    int    `json:"code,omitempty"`
	Pressed bool   `json:"pressed,omitempty"`
	X       int    `json:"x,omitempty"`
	Y       int    `json:"y,omitempty"`
	Frames  int    `json:"frames,omitempty"`
}

// testScript is the top-level JSON structure for a test script.
type testScript struct {
	Steps []testStep `json:"steps"`
}

var knownActions = map[string]bool{
	"key":      true,
	"tap":      true,
	"click":    true,
	"wait":     true,
	"snapshot": true,
}

// TestRunner sequences injected input and snapshots across render ticks for
// automated testing. Attach it with SetTestRunner.
type TestRunner struct {
	steps     []testStep
	cursor    int
	waitCount int
	done      bool
}

// LoadTestScript parses a JSON test script:
//
//	{"steps": [
//	  {"action": "click", "x": 40, "y": 30},
//	  {"action": "key", "code": 65, "pressed": true},
//	  {"action": "tap", "code": 66},
//	  {"action": "wait", "frames": 10},
//	  {"action": "snapshot", "label": "after-input"}
//	]}
func LoadTestScript(jsonData []byte) (*TestRunner, error) {
	var script testScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse test script: no steps")
	}
	for i, st := range script.Steps {
		if !knownActions[st.Action] {
			return nil, fmt.Errorf("parse test script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &TestRunner{steps: script.Steps}, nil
}

// SetTestRunner attaches a TestRunner. Its step runs at the start of every
// Update, before input.
func (b *Bridge) SetTestRunner(runner *TestRunner) {
	b.testRunner = runner
}

// Done reports whether all steps in the test script have been executed.
func (r *TestRunner) Done() bool {
	return r.done
}

// step advances the runner by one tick.
func (r *TestRunner) step(b *Bridge) {
	if r.done {
		return
	}
	// Wait for pending injections to drain before advancing.
	if len(b.injectQueue) > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "snapshot":
		b.Snapshot(st.Label)
	case "click":
		b.InjectClick(st.X, st.Y)
	case "key":
		b.InjectKey(input.Key(st.Code), st.Pressed)
	case "tap":
		b.InjectTap(input.Key(st.Code))
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this tick counts as one
		}
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && len(b.injectQueue) == 0 {
		r.done = true
	}
}
