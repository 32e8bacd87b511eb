package wsprober

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/net/websocket"
)

func echoServer(t *testing.T) (host string) {
	t.Helper()
	srv := httptest.NewTLSServer(websocket.Handler(func(ws *websocket.Conn) {
		io.Copy(ws, ws)
	}))
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "https://")
}

func TestProbeAllHandshake(t *testing.T) {
	host := echoServer(t)

	p := New(5 * time.Second)
	probes := p.ProbeAll(host, []string{"/"})
	require.Len(t, probes, 1)

	probe := probes[0]
	assert.True(t, probe.OK, "handshake failed: %s", probe.Error)
	assert.Equal(t, "wss://"+host+"/", probe.URL)
	assert.Empty(t, probe.Error)
	assert.Positive(t, probe.Ms)
}

func TestProbeAllEveryPathAttempted(t *testing.T) {
	host := echoServer(t)

	p := New(5 * time.Second)
	probes := p.ProbeAll(host, DefaultPaths)
	require.Len(t, probes, len(DefaultPaths))
	for i, probe := range probes {
		assert.Equal(t, "wss://"+host+DefaultPaths[i], probe.URL)
	}
}

func TestProbeAllNormalizesPaths(t *testing.T) {
	p := &Prober{timeout: time.Second, dial: func(cfg *websocket.Config) (*websocket.Conn, error) {
		return nil, errors.New("not dialed")
	}}
	probes := p.ProbeAll("example.com", []string{"ws", "/chat"})
	require.Len(t, probes, 2)
	assert.Equal(t, "wss://example.com/ws", probes[0].URL)
	assert.Equal(t, "wss://example.com/chat", probes[1].URL)
}

func TestProbeAllFailureRecorded(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no upgrade here", http.StatusBadRequest)
	}))
	defer srv.Close()
	host := strings.TrimPrefix(srv.URL, "https://")

	p := New(5 * time.Second)
	probes := p.ProbeAll(host, []string{"/", "/ws"})
	require.Len(t, probes, 2, "one failed path must not stop the rest")
	for _, probe := range probes {
		assert.False(t, probe.OK)
		assert.NotEmpty(t, probe.Error)
		assert.Positive(t, probe.Ms, "elapsed time is recorded even on failure")
	}
}

// A server that finishes TLS but never answers the upgrade request must not
// hold the probe past its timeout.
func TestProbeAllStalledUpgradeTimesOut(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(10 * time.Second):
		}
	}))
	defer srv.Close()
	host := strings.TrimPrefix(srv.URL, "https://")

	p := New(300 * time.Millisecond)
	start := time.Now()
	probes := p.ProbeAll(host, []string{"/"})
	elapsed := time.Since(start)

	require.Len(t, probes, 1)
	assert.False(t, probes[0].OK)
	assert.NotEmpty(t, probes[0].Error)
	assert.Less(t, elapsed, 2*time.Second, "probe must end once the deadline passes, not when the server responds")
}

func TestProbeOneDialError(t *testing.T) {
	p := &Prober{timeout: time.Second, dial: func(cfg *websocket.Config) (*websocket.Conn, error) {
		return nil, errors.New("connection refused")
	}}
	probe := p.probeOne("wss://example.com/ws", "example.com")

	assert.False(t, probe.OK)
	assert.Equal(t, "connection refused", probe.Error)
}

func TestProbeOneBadURL(t *testing.T) {
	p := New(time.Second)
	probe := p.probeOne("wss://exa mple.com/", "exa mple.com")

	assert.False(t, probe.OK)
	assert.NotEmpty(t, probe.Error)
}
