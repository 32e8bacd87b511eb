// File: internal/tlsprober/tlsprober.go
package tlsprober

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"time"
)

// Fingerprint holds the TLS handshake and certificate metadata for one domain.
type Fingerprint struct {
	OK        bool     `json:"ok"`
	ALPN      string   `json:"alpn"`
	SNI       string   `json:"sni"`
	PeerIP    string   `json:"peer_ip"`
	SubjectCN string   `json:"subject_cn"`
	IssuerCN  string   `json:"issuer_cn"`
	SAN       []string `json:"san"`
	NotBefore string   `json:"not_before"`
	NotAfter  string   `json:"not_after"`
	Error     string   `json:"error"`
}

// Prober performs its own raw TLS handshake per domain, independent of the
// HTTP prober's connection pool. Connections are never reused.
type Prober struct {
	timeout  time.Duration
	port     int
	lookupIP func(ctx context.Context, host string) ([]net.IPAddr, error)
}

func New(timeout time.Duration) *Prober {
	return &Prober{
		timeout:  timeout,
		port:     443,
		lookupIP: net.DefaultResolver.LookupIPAddr,
	}
}

// Fingerprint resolves the domain, dials the first address on port 443 and
// performs a client handshake with verification and hostname checking
// disabled. ALPN offers h2 then http/1.1. All failures are recorded on the
// returned value.
func (p *Prober) Fingerprint(ctx context.Context, domain string) Fingerprint {
	fp := Fingerprint{SNI: domain, SAN: []string{}}

	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	addrs, err := p.lookupIP(probeCtx, domain)
	if err != nil {
		fp.Error = err.Error()
		return fp
	}
	if len(addrs) == 0 {
		fp.Error = "address lookup returned no results"
		return fp
	}
	fp.PeerIP = addrs[0].IP.String()

	dialer := &net.Dialer{Timeout: p.timeout}
	rawConn, err := dialer.DialContext(probeCtx, "tcp", net.JoinHostPort(fp.PeerIP, strconv.Itoa(p.port)))
	if err != nil {
		fp.Error = err.Error()
		return fp
	}

	conn := tls.Client(rawConn, &tls.Config{
		ServerName:         domain,
		InsecureSkipVerify: true, // metadata collection, not trust establishment
		NextProtos:         []string{"h2", "http/1.1"},
	})
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(p.timeout))

	if err := conn.HandshakeContext(probeCtx); err != nil {
		fp.Error = err.Error()
		return fp
	}

	state := conn.ConnectionState()
	fp.OK = true
	fp.ALPN = state.NegotiatedProtocol

	if len(state.PeerCertificates) > 0 {
		cert := state.PeerCertificates[0]
		fp.SubjectCN = cert.Subject.CommonName
		fp.IssuerCN = cert.Issuer.CommonName
		if len(cert.DNSNames) > 0 {
			fp.SAN = append(fp.SAN, cert.DNSNames...)
		}
		fp.NotBefore = cert.NotBefore.UTC().Format(time.RFC3339)
		fp.NotAfter = cert.NotAfter.UTC().Format(time.RFC3339)
	}
	return fp
}
