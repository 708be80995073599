package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/farmsync"
	"github.com/ethereum-optimism/infra/farmsync/exitcodes"
	"github.com/ethereum-optimism/infra/farmsync/testutil"
)

// runApp runs the CLI in-process and returns stdout and the exit code
func runApp(t *testing.T, args ...string) (string, int) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.RunContext(context.Background(), append([]string{"farmsync"}, args...))
	return out.String(), farmsync.ExitCode(err)
}

// writeFarmConfig points the provider at the fake farm and sets its credentials
func writeFarmConfig(t *testing.T, farm *testutil.FakeFarm) string {
	t.Helper()
	cfg := farm.Config()
	path := filepath.Join(t.TempDir(), "provider.toml")
	content := "name = \"BrowserStack\"\n" +
		"status_url = \"" + cfg.StatusURL + "\"\n" +
		"job_url = \"" + cfg.JobURL + "\"\n" +
		"[credentials]\n" +
		"username = \"" + testutil.FakeUsername + "\"\n" +
		"key = \"" + testutil.FakeKey + "\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReportCommand(t *testing.T) {
	farm := testutil.NewFakeFarm(t)
	farm.SetVideo("https://x/v.mp4")
	dir := t.TempDir()
	metricsFile := filepath.Join(dir, "farmsync.prom")

	out, code := runApp(t,
		"--config", writeFarmConfig(t, farm),
		"--metrics.textfile", metricsFile,
		"report",
		"--session-id", "abc123",
		"--phase", "teardown",
		"--passed",
		"--test-name", "test_login",
		"--html-report", filepath.Join(dir, "html"),
		"--allure-dir", filepath.Join(dir, "allure"),
		"--summary-file", filepath.Join(dir, "summary.log"),
	)
	require.Equal(t, exitcodes.Success, code, out)
	assert.Contains(t, out, "BrowserStack Job: https://automate.example.com/builds/b1/sessions/s1")
	assert.Contains(t, out, "BrowserStack Video: https://x/v.mp4")
	assert.Equal(t, []string{"completed"}, farm.Puts())

	assert.FileExists(t, filepath.Join(dir, "html", "farmsync-abc123", "extras.html"))
	assert.FileExists(t, filepath.Join(dir, "summary.log"))
	assert.FileExists(t, metricsFile)
	entries, err := os.ReadDir(filepath.Join(dir, "allure"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestReportCommandWarnings(t *testing.T) {
	farm := testutil.NewFakeFarm(t)
	farm.Set(func(f *testutil.FakeFarm) { f.StatusPutCode = 500 })
	config := writeFarmConfig(t, farm)

	out, code := runApp(t, "--config", config, "report", "--session-id", "abc123", "--failed")
	assert.Equal(t, exitcodes.Success, code)
	assert.Contains(t, out, "WARNING: Failed to update BrowserStack job status")

	_, code = runApp(t, "--config", config, "report", "--session-id", "abc123", "--failed", "--fail-on-warning")
	assert.Equal(t, exitcodes.Warnings, code)
}

func TestReportCommandOtherDriver(t *testing.T) {
	farm := testutil.NewFakeFarm(t)
	out, code := runApp(t, "--config", writeFarmConfig(t, farm), "report", "--session-id", "abc123", "--driver", "Firefox")
	assert.Equal(t, exitcodes.Success, code)
	assert.Empty(t, out)
	assert.Empty(t, farm.Requests())
}

func TestReportCommandRuntimeErrors(t *testing.T) {
	_, code := runApp(t, "report")
	assert.Equal(t, exitcodes.RuntimeErr, code, "missing session id")

	_, code = runApp(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "report", "--session-id", "abc123")
	assert.Equal(t, exitcodes.RuntimeErr, code, "missing provider config")
}

func TestReportCommandMissingCredentials(t *testing.T) {
	farm := testutil.NewFakeFarm(t)
	cfg := farm.Config()
	path := filepath.Join(t.TempDir(), "provider.yaml")
	content := "status_url: " + cfg.StatusURL + "\njob_url: " + cfg.JobURL + "\n" +
		"username_keys: [FARMSYNC_TEST_UNSET_USER]\naccess_key_keys: [FARMSYNC_TEST_UNSET_KEY]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, code := runApp(t, "--config", path, "report", "--session-id", "abc123", "--passed")
	assert.Equal(t, exitcodes.RuntimeErr, code)
	assert.Empty(t, farm.Requests())
}

func TestCapabilitiesCommand(t *testing.T) {
	farm := testutil.NewFakeFarm(t)
	capsFile := filepath.Join(t.TempDir(), "caps.yaml")
	require.NoError(t, os.WriteFile(capsFile, []byte("browserName: chrome\nos: Windows\n"), 0644))

	out, code := runApp(t,
		"--config", writeFarmConfig(t, farm),
		"capabilities",
		"--test-name", "test_login",
		"--capabilities-file", capsFile,
		"--capability", "os=OS X",
		"--capability", "browserstack.debug=true",
	)
	require.Equal(t, exitcodes.Success, code)

	var req map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &req))
	assert.Equal(t, "https://hub.browserstack.com/wd/hub", req["command_executor"])
	assert.Equal(t, map[string]any{
		"browserName":        "chrome",
		"os":                 "OS X",
		"browserstack.debug": true,
		"name":               "test_login",
		"browserstack.user":  testutil.FakeUsername,
		"browserstack.key":   testutil.FakeKey,
	}, req["desired_capabilities"])
}

func TestCapabilitiesCommandBadPair(t *testing.T) {
	farm := testutil.NewFakeFarm(t)
	_, code := runApp(t, "--config", writeFarmConfig(t, farm), "capabilities", "--test-name", "t", "--capability", "oops")
	assert.Equal(t, exitcodes.RuntimeErr, code)
}
