// File: internal/fronting/fronting.go

// Package fronting checks whether SNI-based domain fronting is feasible
// between two domains sharing CDN infrastructure: it dials an IP both domains
// resolve to while presenting the fronted domain's SNI, then classifies the
// certificate the edge hands back.
package fronting

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"strings"
	"time"
)

// Result describes one fronting feasibility test.
type Result struct {
	FrontDomain  string        `json:"front_domain"`
	TargetDomain string        `json:"target_domain"`
	Possible     bool          `json:"possible"`
	Reason       string        `json:"reason"`
	SharedIPs    []string      `json:"shared_ips"`
	CertSubject  string        `json:"cert_subject"`
	Error        string        `json:"error"`
	Elapsed      time.Duration `json:"-"`
}

// Check resolves both domains, intersects their addresses, and on a shared IP
// performs a verification-disabled TLS handshake with frontDomain as SNI.
func Check(ctx context.Context, frontDomain, targetDomain string, timeout time.Duration) Result {
	start := time.Now()
	res := Result{FrontDomain: frontDomain, TargetDomain: targetDomain}
	defer func() { res.Elapsed = time.Since(start) }()

	frontIPs, err := net.DefaultResolver.LookupIPAddr(ctx, frontDomain)
	if err != nil {
		res.Error = fmt.Sprintf("failed to resolve front domain: %v", err)
		return res
	}
	targetIPs, err := net.DefaultResolver.LookupIPAddr(ctx, targetDomain)
	if err != nil {
		res.Error = fmt.Sprintf("failed to resolve target domain: %v", err)
		return res
	}

	frontSet := make(map[string]struct{}, len(frontIPs))
	for _, ip := range frontIPs {
		frontSet[ip.IP.String()] = struct{}{}
	}
	for _, ip := range targetIPs {
		if _, ok := frontSet[ip.IP.String()]; ok {
			res.SharedIPs = append(res.SharedIPs, ip.IP.String())
		}
	}
	if len(res.SharedIPs) == 0 {
		res.Reason = "no shared IP addresses between domains"
		return res
	}

	conn, err := tls.DialWithDialer(
		&net.Dialer{Timeout: timeout},
		"tcp",
		net.JoinHostPort(res.SharedIPs[0], "443"),
		&tls.Config{ServerName: frontDomain, InsecureSkipVerify: true},
	)
	if err != nil {
		res.Reason = fmt.Sprintf("TLS connection failed: %v", err)
		return res
	}
	defer conn.Close()

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		res.Reason = "no certificate received"
		return res
	}
	res.CertSubject = certs[0].Subject.CommonName
	res.Possible, res.Reason = classifyCert(certs[0], frontDomain, targetDomain)
	return res
}

// classifyCert decides feasibility from which domain the returned certificate
// covers. A cert for the front domain means the edge did not route on SNI.
func classifyCert(cert *x509.Certificate, frontDomain, targetDomain string) (bool, string) {
	names := append([]string{cert.Subject.CommonName}, cert.DNSNames...)
	frontMatch := false
	targetMatch := false
	for _, name := range names {
		if matchesDomain(name, frontDomain) {
			frontMatch = true
		}
		if matchesDomain(name, targetDomain) {
			targetMatch = true
		}
	}
	switch {
	case frontMatch && !targetMatch:
		return true, "SNI fronting appears to work - received certificate for front domain"
	case targetMatch:
		return false, "server correctly routes to target domain based on SNI"
	default:
		return false, "certificate doesn't match either domain"
	}
}

// matchesDomain reports whether a certificate name covers domain, including
// wildcard names and parent-domain suffixes.
func matchesDomain(certName, domain string) bool {
	certName = strings.ToLower(strings.TrimSpace(certName))
	domain = strings.ToLower(domain)
	if certName == "" {
		return false
	}
	if certName == domain {
		return true
	}
	if rest, ok := strings.CutPrefix(certName, "*."); ok {
		if domain == rest || strings.HasSuffix(domain, "."+rest) {
			return true
		}
	}
	return strings.HasSuffix(certName, "."+domain)
}
