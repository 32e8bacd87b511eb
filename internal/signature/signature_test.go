package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wlresearch/domainsig/internal/httpprober"
	"github.com/wlresearch/domainsig/internal/tlsprober"
)

func sampleHTTP() httpprober.Fingerprint {
	return httpprober.Fingerprint{
		OK:          true,
		Status:      200,
		FinalHost:   "www.example.com",
		ContentType: "text/html",
		Server:      "cloudflare",
		Via:         "1.1 varnish",
		Cache:       "max-age=600",
		XCache:      "HIT",
		XServedBy:   "cache-ams1",
	}
}

func sampleTLS() tlsprober.Fingerprint {
	return tlsprober.Fingerprint{OK: true, IssuerCN: "WE1", ALPN: "h2"}
}

func TestComputeDeterministic(t *testing.T) {
	chain := []string{"a.cdn.example.net", "edge.cdn.example.net"}
	first := Compute(chain, sampleHTTP(), sampleTLS())
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Compute(chain, sampleHTTP(), sampleTLS()))
	}
	assert.Len(t, first, 16)
}

func TestComputeFieldSensitivity(t *testing.T) {
	chain := []string{"edge.cdn.example.net"}
	base := Compute(chain, sampleHTTP(), sampleTLS())

	modified := sampleHTTP()
	modified.Server = "nginx"
	assert.NotEqual(t, base, Compute(chain, modified, sampleTLS()))

	otherTLS := sampleTLS()
	otherTLS.IssuerCN = "R11"
	assert.NotEqual(t, base, Compute(chain, sampleHTTP(), otherTLS))

	otherChain := []string{"other.cdn.example.net"}
	assert.NotEqual(t, base, Compute(otherChain, sampleHTTP(), sampleTLS()))
}

func TestComputeCaseInsensitive(t *testing.T) {
	chain := []string{"Edge.CDN.Example.NET"}
	upper := sampleHTTP()
	upper.Server = "CloudFlare"
	upper.ContentType = "TEXT/HTML"
	lower := sampleHTTP()
	lower.Server = "cloudflare"
	lower.ContentType = "text/html"
	assert.Equal(t,
		Compute([]string{"edge.cdn.example.net"}, lower, sampleTLS()),
		Compute(chain, upper, sampleTLS()))
}

// Only the terminal chain element contributes; intermediate hops never do.
func TestComputeUsesTerminalCNAMEOnly(t *testing.T) {
	long := []string{"hop1.example.net", "hop2.example.net", "edge.cdn.example.net"}
	short := []string{"edge.cdn.example.net"}
	assert.Equal(t, Compute(short, sampleHTTP(), sampleTLS()), Compute(long, sampleHTTP(), sampleTLS()))
}

func TestComputeFailedProbesContributeZeroValues(t *testing.T) {
	failedTLS := tlsprober.Fingerprint{Error: "connection refused"}
	got := Compute(nil, sampleHTTP(), failedTLS)
	want := Compute(nil, sampleHTTP(), tlsprober.Fingerprint{})
	assert.Equal(t, want, got, "TLS error text must not influence the digest")

	failedHTTP := httpprober.Fingerprint{Error: "timeout"}
	assert.Equal(t,
		Compute(nil, httpprober.Fingerprint{}, sampleTLS()),
		Compute(nil, failedHTTP, sampleTLS()))
}

func TestComputeEmptyEverything(t *testing.T) {
	got := Compute(nil, httpprober.Fingerprint{}, tlsprober.Fingerprint{})
	assert.Len(t, got, 16)
	assert.Equal(t, got, Compute([]string{}, httpprober.Fingerprint{}, tlsprober.Fingerprint{}))
}
