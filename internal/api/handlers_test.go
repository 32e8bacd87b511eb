package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wlresearch/domainsig/internal/config"
	"github.com/wlresearch/domainsig/internal/httpprober"
	"github.com/wlresearch/domainsig/internal/scanner"
)

const testAPIKey = "test-api-key"

// stubRunner yields one canned result per requested domain, recording the
// config it was built with.
type stubRunner struct {
	gotCfg     config.ScanConfig
	gotDomains []string
	signature  func(domain string) string
}

func (s *stubRunner) Scan(ctx context.Context, domains []string) <-chan *scanner.Result {
	s.gotDomains = domains
	ch := make(chan *scanner.Result, len(domains))
	for _, d := range domains {
		sig := "sig-common"
		if s.signature != nil {
			sig = s.signature(d)
		}
		ch <- &scanner.Result{
			Domain:    d,
			HTTP:      httpprober.Fingerprint{OK: true, Status: 200},
			Signature: sig,
		}
	}
	close(ch)
	return ch
}

func testServer(t *testing.T, runner *stubRunner) *httptest.Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Server.APIKey = testAPIKey

	handler := &APIHandler{
		Config: cfg,
		NewScanner: func(scanCfg config.ScanConfig) ScanRunner {
			runner.gotCfg = scanCfg
			return runner
		},
	}
	srv := httptest.NewServer(NewRouter(cfg, handler))
	t.Cleanup(srv.Close)
	return srv
}

func authedRequest(t *testing.T, method, url string, body []byte) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestPingHandlerOpen(t *testing.T) {
	srv := testServer(t, &stubRunner{})

	resp, err := http.Get(srv.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "pong", body["message"])
}

func TestScanRequiresAPIKey(t *testing.T) {
	srv := testServer(t, &stubRunner{})

	body := []byte(`{"domains": ["example.com"]}`)
	resp, err := http.Post(srv.URL+"/api/v1/scan", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := authedRequest(t, http.MethodPost, srv.URL+"/api/v1/scan", body)
	req.Header.Set("Authorization", "Bearer wrong-key")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}

func TestScanHandler(t *testing.T) {
	runner := &stubRunner{signature: func(d string) string {
		if d == "odd-one.example.net" {
			return "sig-other"
		}
		return "sig-common"
	}}
	srv := testServer(t, runner)

	body := []byte(`{"domains": ["Example.COM", "https://b.example.org:8443/x", "odd-one.example.net", "  # comment"]}`)
	resp, err := http.DefaultClient.Do(authedRequest(t, http.MethodPost, srv.URL+"/api/v1/scan", body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, []string{"example.com", "b.example.org", "odd-one.example.net"}, runner.gotDomains,
		"submitted lines are normalized and comments dropped")

	var scanResp ScanResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&scanResp))
	require.Len(t, scanResp.Results, 3)
	require.Len(t, scanResp.Groups, 2)
	assert.Equal(t, "sig-common", scanResp.Groups[0].Signature)
	assert.Equal(t, 2, scanResp.Groups[0].Count)
	assert.Equal(t, []string{"example.com", "b.example.org"}, scanResp.Groups[0].Domains)
}

func TestScanHandlerWebSocketOverride(t *testing.T) {
	runner := &stubRunner{}
	srv := testServer(t, runner)

	body := []byte(`{"domains": ["example.com"], "websocket": true, "wsPaths": ["/chat"]}`)
	resp, err := http.DefaultClient.Do(authedRequest(t, http.MethodPost, srv.URL+"/api/v1/scan", body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.True(t, runner.gotCfg.WSEnabled)
	assert.Equal(t, []string{"/chat"}, runner.gotCfg.WSPaths)
}

func TestScanHandlerRejectsBadInput(t *testing.T) {
	srv := testServer(t, &stubRunner{})

	resp, err := http.DefaultClient.Do(authedRequest(t, http.MethodPost, srv.URL+"/api/v1/scan", []byte(`{not json`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp2, err := http.DefaultClient.Do(authedRequest(t, http.MethodPost, srv.URL+"/api/v1/scan",
		[]byte(`{"domains": ["", "# comment", "https://"]}`)))
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&body))
	assert.Equal(t, "No valid domains in request", body["error"])
}

func TestGetScanConfigHandler(t *testing.T) {
	srv := testServer(t, &stubRunner{})

	resp, err := http.DefaultClient.Do(authedRequest(t, http.MethodGet, srv.URL+"/api/v1/config/scan", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cfg config.ScanConfigJSON
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cfg))
	assert.Equal(t, config.DefaultConcurrency, cfg.Concurrency)
	assert.Equal(t, 2.5, cfg.DNSTimeoutSeconds)
	assert.Equal(t, config.DefaultUserAgent, cfg.UserAgent)
}
