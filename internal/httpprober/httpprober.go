// File: internal/httpprober/httpprober.go
package httpprober

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Most servers flush their full header block only once some body bytes are
// consumed; draining this much is enough in practice.
const bodyDrainBytes = 256

// Prober issues a single HTTPS GET per domain and extracts the curated header
// fingerprint. One Prober is shared by all concurrent domain scans; the
// underlying client pools connections and is safe for concurrent use.
type Prober struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

// New builds a Prober around a single pooled client. Certificate verification
// is disabled; the probe collects fingerprint signals, it does not establish
// trust.
func New(timeout time.Duration, userAgent string) *Prober {
	transport := &http.Transport{
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: true},
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: timeout,
	}
	return &Prober{
		client:    &http.Client{Transport: transport, Timeout: timeout},
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// Fingerprint GETs https://{domain}/ following redirects and captures the
// fixed header set. Any transport or protocol failure is recorded on the
// returned value, never surfaced as an error.
func (p *Prober) Fingerprint(ctx context.Context, domain string) Fingerprint {
	var fp Fingerprint

	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, "https://"+domain+"/", nil)
	if err != nil {
		fp.Error = err.Error()
		return fp
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		fp.Error = err.Error()
		return fp
	}
	defer resp.Body.Close()

	fp.OK = true
	fp.Status = resp.StatusCode
	fp.FinalURL = resp.Request.URL.String()
	fp.FinalHost = strings.ToLower(resp.Request.URL.Hostname())
	fp.ContentType = resp.Header.Get("content-type")

	fp.Server = resp.Header.Get("server")
	fp.Via = resp.Header.Get("via")
	fp.Cache = resp.Header.Get("cache-control")
	fp.CFRay = resp.Header.Get("cf-ray")
	fp.CFCacheStatus = resp.Header.Get("cf-cache-status")
	fp.XCache = resp.Header.Get("x-cache")
	fp.XServedBy = resp.Header.Get("x-served-by")
	fp.XAmzCfPop = resp.Header.Get("x-amz-cf-pop")
	fp.XAmzCfID = resp.Header.Get("x-amz-cf-id")
	fp.XVercelID = resp.Header.Get("x-vercel-id")
	fp.XNfRequestID = resp.Header.Get("x-nf-request-id")

	// Drain a little body so lazily streaming servers deliver headers fully.
	// Read failures here do not affect the fingerprint.
	io.CopyN(io.Discard, resp.Body, bodyDrainBytes)

	return fp
}
