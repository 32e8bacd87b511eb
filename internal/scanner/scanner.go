// File: internal/scanner/scanner.go

// Package scanner runs the full probe sequence for many domains under a
// concurrency bound and yields results as they complete.
package scanner

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/wlresearch/domainsig/internal/config"
	"github.com/wlresearch/domainsig/internal/dnsprober"
	"github.com/wlresearch/domainsig/internal/httpprober"
	"github.com/wlresearch/domainsig/internal/signature"
	"github.com/wlresearch/domainsig/internal/tlsprober"
	"github.com/wlresearch/domainsig/internal/wsprober"
)

// Prober interfaces let tests substitute the network-facing pieces.
type (
	DNSProber interface {
		Chain(ctx context.Context, domain string) []string
	}
	HTTPProber interface {
		Fingerprint(ctx context.Context, domain string) httpprober.Fingerprint
	}
	TLSProber interface {
		Fingerprint(ctx context.Context, domain string) tlsprober.Fingerprint
	}
	WSProber interface {
		ProbeAll(domain string, paths []string) []wsprober.Probe
	}
)

// Scanner fans out one scan task per domain, bounded by a weighted semaphore.
// Each domain's probes run sequentially (DNS, HTTP, TLS, optional WebSocket);
// domains run concurrently with respect to one another.
type Scanner struct {
	cfg     config.ScanConfig
	dns     DNSProber
	http    HTTPProber
	tls     TLSProber
	ws      WSProber
	limiter *rate.Limiter
}

// New wires the real probers from cfg. The HTTP prober's pooled client and
// the WebSocket prober are shared by every domain task; the TLS prober opens
// a dedicated connection per probe.
func New(cfg config.ScanConfig) *Scanner {
	s := &Scanner{
		cfg:  cfg,
		dns:  dnsprober.New(cfg.Resolvers, cfg.UseSystemResolvers, cfg.DNSTimeout),
		http: httpprober.New(cfg.HTTPTimeout, cfg.UserAgent),
		tls:  tlsprober.New(cfg.TLSTimeout),
		ws:   wsprober.New(cfg.WSTimeout),
	}
	if cfg.RateLimitDPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitDPS), cfg.RateLimitBurst)
	}
	return s
}

// Scan launches the bounded fan-out over domains and returns a channel of
// completed results, in completion order. The channel closes once every
// domain has finished. A probe failure is never fatal to its domain: partial
// results are still complete Results with a computed signature.
func (s *Scanner) Scan(ctx context.Context, domains []string) <-chan *Result {
	out := make(chan *Result)
	concurrency := s.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = config.DefaultConcurrency
	}
	sem := semaphore.NewWeighted(int64(concurrency))

	go func() {
		defer close(out)
		var wg sync.WaitGroup
		for _, domain := range domains {
			if err := sem.Acquire(ctx, 1); err != nil {
				break
			}
			wg.Add(1)
			go func(d string) {
				defer wg.Done()
				res := s.scanDomain(ctx, d)
				// The slot frees as soon as the scan finishes; a slow
				// consumer must not stall the next domain's start.
				sem.Release(1)
				out <- res
			}(domain)
		}
		wg.Wait()
	}()
	return out
}

// scanDomain runs the per-domain probe sequence and computes the signature.
func (s *Scanner) scanDomain(ctx context.Context, domain string) *Result {
	res := &Result{Domain: domain, CNAMEChain: []string{}, WebSockets: []wsprober.Probe{}, Errors: []string{}}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			res.Errors = append(res.Errors, "rate: "+err.Error())
			res.Signature = signature.Compute(res.CNAMEChain, res.HTTP, res.TLS)
			return res
		}
	}

	if chain := s.dns.Chain(ctx, domain); chain != nil {
		res.CNAMEChain = chain
	}

	res.HTTP = s.http.Fingerprint(ctx, domain)
	if !res.HTTP.OK && res.HTTP.Error != "" {
		res.Errors = append(res.Errors, "http: "+res.HTTP.Error)
	}

	res.TLS = s.tls.Fingerprint(ctx, domain)
	if !res.TLS.OK && res.TLS.Error != "" {
		res.Errors = append(res.Errors, "tls: "+res.TLS.Error)
	}

	if s.cfg.WSEnabled {
		paths := s.cfg.WSPaths
		if len(paths) == 0 {
			paths = wsprober.DefaultPaths
		}
		res.WebSockets = s.ws.ProbeAll(domain, paths)
	}

	res.Signature = signature.Compute(res.CNAMEChain, res.HTTP, res.TLS)
	return res
}
