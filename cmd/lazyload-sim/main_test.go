package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	diff "github.com/hexops/gotextdiff"
	"github.com/google/uuid"
	"github.com/hexops/gotextdiff/myers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runScenario(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func textDiff(expected, actual string) string {
	return fmt.Sprint(diff.ToUnified(`expected`, `actual`, expected, myers.ComputeEdits(``, expected, actual)))
}

func TestRun_scenarios(t *testing.T) {
	for _, tc := range []struct {
		file   string
		code   int
		stdout string
	}{
		{
			file:   `visible.toml`,
			stdout: "activated at 1500ms by trigger[0] (visible)\nstate: Loaded\nvalue: \"comments.js\"\n",
		},
		{
			file:   `click_before_delay.toml`,
			stdout: "activated at 500ms by trigger[1] (click)\nstate: Loaded\nvalue: \"chart.js\"\n",
		},
		{
			file:   `cancel.toml`,
			stdout: "not activated\nstate: Cancelled\n",
		},
		{
			file:   `idle_fallback.toml`,
			stdout: "activated at 2000ms by trigger[0] (idle)\nstate: Failed\nerror: network unreachable\n",
		},
		{
			file:   `manual_after_cancel.toml`,
			stdout: "activated at 30ms by manual trigger\nstate: Loaded\nvalue: \"panel.js\"\n",
		},
		{
			file:   `wrong_expectation.toml`,
			code:   exitFailed,
			stdout: "activated at 100ms by trigger[0] (delay)\nstate: Loaded\nvalue: \"x\"\n",
		},
	} {
		t.Run(tc.file, func(t *testing.T) {
			code, stdout, stderr := runScenario(t, `-scenario`, filepath.Join(`testdata`, tc.file))
			assert.Equal(t, tc.code, code, stderr)
			if stdout != tc.stdout {
				t.Errorf("unexpected output:\n%s", textDiff(tc.stdout, stdout))
			}
			if tc.code == exitFailed {
				assert.Contains(t, stderr, `expectation failed: expected load at 50ms, activated at 100ms`)
			}
		})
	}
}

func TestRun_json(t *testing.T) {
	code, stdout, stderr := runScenario(t, `-json`, `-scenario`, filepath.Join(`testdata`, `click_before_delay.toml`))
	require.Equal(t, exitOK, code, stderr)
	var r report
	require.NoError(t, json.Unmarshal([]byte(stdout), &r))
	_, err := uuid.Parse(r.RunID)
	assert.NoError(t, err)
	require.NotNil(t, r.ActivatedAtMS)
	assert.Equal(t, int64(500), *r.ActivatedAtMS)
	require.NotNil(t, r.TriggerIndex)
	assert.Equal(t, 1, *r.TriggerIndex)
	assert.Equal(t, `click`, r.Trigger)
	assert.Equal(t, `Loaded`, r.State)
	assert.Equal(t, `chart.js`, r.Value)
	assert.Empty(t, r.Failures)
}

func TestRun_verboseLogs(t *testing.T) {
	code, _, stderr := runScenario(t, `-v`, `-scenario`, filepath.Join(`testdata`, `click_before_delay.toml`))
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stderr, `lazyload: trigger armed`)
	assert.Contains(t, stderr, `lazyload: trigger fired`)
	assert.Contains(t, stderr, `"run":"`)
}

func TestRun_usage(t *testing.T) {
	code, _, _ := runScenario(t)
	assert.Equal(t, exitUsage, code)

	code, _, _ = runScenario(t, `-unknown`)
	assert.Equal(t, exitUsage, code)

	code, _, stderr := runScenario(t, `-scenario`, filepath.Join(`testdata`, `does-not-exist.toml`))
	assert.Equal(t, exitUsage, code)
	assert.NotEmpty(t, stderr)

	code, _, stderr = runScenario(t, `-scenario`, filepath.Join(`testdata`, `invalid.toml`))
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, `unknown target "missing"`)
}

func TestParseScenario(t *testing.T) {
	sc, err := parseScenario([]byte(`
[[trigger]]
on = "idle"

[[action]]
at_ms = 20
do = "trigger"

[[action]]
at_ms = 10
do = "scroll"

[[action]]
at_ms = 10
do = "cancel"
`))
	require.NoError(t, err)
	assert.Equal(t, viewportSpec{Width: defaultViewportWidth, Height: defaultViewportHeight}, sc.Viewport)
	var order []string
	for _, action := range sc.Actions {
		order = append(order, action.Do)
	}
	assert.Equal(t, []string{`scroll`, `cancel`, `trigger`}, order)

	_, err = parseScenario([]byte(`colour = "red"`))
	assert.ErrorIs(t, err, errScenario)

	_, err = parseScenario([]byte(`[viewport]`))
	assert.ErrorIs(t, err, errScenario)

	_, err = parseScenario([]byte("[[trigger]]\non = \"idle\"\n[[action]]\nat_ms = -1\ndo = \"cancel\""))
	assert.ErrorIs(t, err, errScenario)

	_, err = parseScenario([]byte("[[trigger]]\non = \"idle\"\n[[action]]\nat_ms = 9223372036854\ndo = \"cancel\""))
	assert.ErrorIs(t, err, errScenario)

	_, err = parseScenario([]byte("until_ms = 9223372036854\n[[trigger]]\non = \"idle\""))
	assert.ErrorIs(t, err, errScenario)

	_, err = parseScenario([]byte("until_ms = -5\n[[trigger]]\non = \"idle\""))
	assert.ErrorIs(t, err, errScenario)
}

func TestPerform_unknownAction(t *testing.T) {
	code, _, stderr := runScenario(t, `-scenario`, writeScenario(t, `
[[trigger]]
on = "idle"

[[action]]
do = "hover"
`))
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, `unknown action "hover"`)
}

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), `scenario.toml`)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
