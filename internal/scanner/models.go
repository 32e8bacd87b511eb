package scanner

import (
	"github.com/wlresearch/domainsig/internal/httpprober"
	"github.com/wlresearch/domainsig/internal/tlsprober"
	"github.com/wlresearch/domainsig/internal/wsprober"
)

// Result is the complete scan outcome for one domain. It is created at the
// start of a domain's scan, mutated only by that domain's own probe calls,
// and immutable once the signature is computed.
type Result struct {
	Domain     string                 `json:"domain"`
	CNAMEChain []string               `json:"cname_chain"`
	HTTP       httpprober.Fingerprint `json:"http"`
	TLS        tlsprober.Fingerprint  `json:"tls"`
	WebSockets []wsprober.Probe       `json:"websockets"`
	Signature  string                 `json:"signature"`
	Errors     []string               `json:"errors"`
}
