// File: internal/signature/signature.go

// Package signature derives the clustering key for a scanned domain: a short
// deterministic digest over a fixed subset of DNS/HTTP/TLS signals. Two
// domains with identical values across the field set always share a digest.
package signature

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/wlresearch/domainsig/internal/httpprober"
	"github.com/wlresearch/domainsig/internal/tlsprober"
)

// digestLen is a compromise: long enough that realistic field combinations do
// not collide, short enough to read in a report.
const digestLen = 16

// Compute hashes the fixed, ordered field list. Only the terminal CNAME
// target contributes from the chain; WebSocket results and timing never do.
// Fields owned by a failed probe contribute their zero values.
func Compute(cnameChain []string, http httpprober.Fingerprint, tls tlsprober.Fingerprint) string {
	terminal := ""
	if len(cnameChain) > 0 {
		terminal = strings.ToLower(cnameChain[len(cnameChain)-1])
	}
	status := ""
	if http.OK {
		status = strconv.Itoa(http.Status)
	}

	parts := []string{
		"cname=" + terminal,
		"final_host=" + http.FinalHost,
		"status=" + status,
		"content_type=" + strings.ToLower(http.ContentType),
		"server=" + strings.ToLower(http.Server),
		"via=" + strings.ToLower(http.Via),
		"cache_control=" + strings.ToLower(http.Cache),
		"x_cache=" + strings.ToLower(http.XCache),
		"x_served_by=" + strings.ToLower(http.XServedBy),
		"issuer=" + strings.ToLower(tls.IssuerCN),
		"alpn=" + strings.ToLower(tls.ALPN),
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])[:digestLen]
}
