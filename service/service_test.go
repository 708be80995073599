package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/farmsync"
	"github.com/ethereum-optimism/infra/farmsync/provider"
	"github.com/ethereum-optimism/infra/farmsync/testutil"
)

func newTestService(t *testing.T, p *provider.Provider) *httptest.Server {
	t.Helper()
	return newTestServiceWithConfig(t, p, Config{AllowedOrigins: []string{"https://reports.example.com"}})
}

func newTestServiceWithConfig(t *testing.T, p *provider.Provider, cfg Config) *httptest.Server {
	t.Helper()
	hook, err := farmsync.NewHook(farmsync.HookConfig{
		Provider: p,
		Log:      log.NewLogger(log.DiscardHandler()),
	})
	require.NoError(t, err)
	svc := New(hook, cfg, log.NewLogger(log.DiscardHandler()))
	srv := httptest.NewServer(svc.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func TestReport(t *testing.T) {
	farm := testutil.NewFakeFarm(t)
	farm.SetVideo("https://x/v.mp4")
	srv := newTestService(t, farm.Provider())

	res := post(t, srv.URL+"/v1/report", ReportRequest{
		TestName:  "test_login",
		Driver:    "BrowserStack",
		SessionID: "abc123",
		Phase:     "teardown",
		Passed:    true,
	})
	require.Equal(t, http.StatusOK, res.StatusCode)

	var resp ReportResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&resp))
	assert.False(t, resp.Skipped)
	require.NotNil(t, resp.Outcome)
	assert.True(t, resp.Outcome.StatusWritten)
	assert.Equal(t, []string{
		"BrowserStack Job: https://automate.example.com/builds/b1/sessions/s1",
		"BrowserStack Video: https://x/v.mp4",
	}, resp.Summary)
	assert.Len(t, resp.Extras, 2)
	assert.Equal(t, []string{"completed"}, farm.Puts())
}

func TestReportOtherDriver(t *testing.T) {
	farm := testutil.NewFakeFarm(t)
	srv := newTestService(t, farm.Provider())

	res := post(t, srv.URL+"/v1/report", ReportRequest{Driver: "Chrome", SessionID: "abc123"})
	require.Equal(t, http.StatusOK, res.StatusCode)

	var resp ReportResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&resp))
	assert.True(t, resp.Skipped)
	assert.Nil(t, resp.Outcome)
	assert.Empty(t, farm.Requests())
}

func TestReportBadRequests(t *testing.T) {
	farm := testutil.NewFakeFarm(t)
	srv := newTestService(t, farm.Provider())

	res := post(t, srv.URL+"/v1/report", map[string]any{"driver": "BrowserStack"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = post(t, srv.URL+"/v1/report", map[string]any{"session_id": "x", "unknown": 1})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res2, err := http.Get(srv.URL + "/v1/report")
	require.NoError(t, err)
	defer res2.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, res2.StatusCode)
}

func TestReportMissingCredentials(t *testing.T) {
	farm := testutil.NewFakeFarm(t)
	srv := newTestService(t, provider.New(farm.Config(), provider.MapSource{}))

	res := post(t, srv.URL+"/v1/report", ReportRequest{Driver: "BrowserStack", SessionID: "abc123"})
	require.Equal(t, http.StatusInternalServerError, res.StatusCode)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "BrowserStack username must be set")
	assert.Empty(t, farm.Requests())
}

func TestCapabilities(t *testing.T) {
	farm := testutil.NewFakeFarm(t)
	srv := newTestService(t, farm.Provider())

	res := post(t, srv.URL+"/v1/capabilities", map[string]any{
		"test_name":    "test_login",
		"capabilities": json.RawMessage(`{"browserName": "chrome", "name": "custom"}`),
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"command_executor": "https://hub.browserstack.com/wd/hub",
		"desired_capabilities": {
			"browserName": "chrome",
			"name": "custom",
			"browserstack.user": "fake-user",
			"browserstack.key": "fake-key"
		}
	}`, string(body))
}

func TestHealthzAndMetrics(t *testing.T) {
	farm := testutil.NewFakeFarm(t)
	srv := newTestService(t, farm.Provider())

	res, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	assert.Equal(t, "OK", string(body))

	res2, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer res2.Body.Close()
	assert.Equal(t, http.StatusOK, res2.StatusCode)
}

func TestCORS(t *testing.T) {
	farm := testutil.NewFakeFarm(t)
	srv := newTestService(t, farm.Provider())

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/v1/report", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://reports.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, "https://reports.example.com", res.Header.Get("Access-Control-Allow-Origin"))
}

func preflight(t *testing.T, url, origin string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodOptions, url, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func TestCORSDefaultRefusesForeignOrigin(t *testing.T) {
	farm := testutil.NewFakeFarm(t)
	srv := newTestServiceWithConfig(t, farm.Provider(), Config{})

	for _, path := range []string{"/v1/capabilities", "/v1/report"} {
		res := preflight(t, srv.URL+path, "https://evil.example")
		assert.Empty(t, res.Header.Get("Access-Control-Allow-Origin"), path)
	}

	raw, err := json.Marshal(CapabilitiesRequest{TestName: "x"})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/capabilities", bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://evil.example")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Empty(t, res.Header.Get("Access-Control-Allow-Origin"))
}

func TestCORSConfiguredRefusesOtherOrigins(t *testing.T) {
	farm := testutil.NewFakeFarm(t)
	srv := newTestService(t, farm.Provider())

	res := preflight(t, srv.URL+"/v1/capabilities", "https://evil.example")
	assert.Empty(t, res.Header.Get("Access-Control-Allow-Origin"))
}

func TestCORSHealthzOpen(t *testing.T) {
	farm := testutil.NewFakeFarm(t)
	srv := newTestServiceWithConfig(t, farm.Provider(), Config{})

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://evil.example")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestStartStop(t *testing.T) {
	farm := testutil.NewFakeFarm(t)
	hook, err := farmsync.NewHook(farmsync.HookConfig{Provider: farm.Provider()})
	require.NoError(t, err)
	svc := New(hook, Config{Addr: "127.0.0.1:0"}, log.NewLogger(log.DiscardHandler()))

	require.NoError(t, svc.Start(context.Background()))
	res, err := http.Get("http://" + svc.Addr() + "/healthz")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	require.NoError(t, svc.Stop(context.Background()))
	assert.True(t, svc.Stopped())
}
