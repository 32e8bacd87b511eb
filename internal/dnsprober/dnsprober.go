// File: internal/dnsprober/dnsprober.go
package dnsprober

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// maxChainHops is the hard stop on CNAME chain length, independent of the
// visited-set cycle guard.
const maxChainHops = 10

var errNoCNAME = errors.New("no CNAME record")

// exchangeFunc sends one DNS message to one resolver address.
type exchangeFunc func(ctx context.Context, m *dns.Msg, addr string) (*dns.Msg, error)

// Resolver walks CNAME chains. Resolution failures of any kind terminate the
// chain at the point reached; they are not scan errors.
type Resolver struct {
	servers  []string
	exchange exchangeFunc
}

// New builds a Resolver over the given resolver addresses (host:port). When
// useSystem is set, resolvers from /etc/resolv.conf are appended. With no
// usable resolvers at all, the well-known public ones are used.
func New(resolvers []string, useSystem bool, timeout time.Duration) *Resolver {
	servers := append([]string(nil), resolvers...)
	if useSystem {
		sysConfig, err := dns.ClientConfigFromFile("/etc/resolv.conf")
		if err != nil {
			log.Printf("DNSProber: Warning - Could not load system resolvers: %v", err)
		} else {
			for _, serverIP := range sysConfig.Servers {
				servers = append(servers, net.JoinHostPort(serverIP, sysConfig.Port))
			}
		}
	}
	if len(servers) == 0 {
		servers = []string{"1.1.1.1:53", "8.8.8.8:53"}
	}

	client := &dns.Client{Timeout: timeout}
	return &Resolver{
		servers: servers,
		exchange: func(ctx context.Context, m *dns.Msg, addr string) (*dns.Msg, error) {
			resp, _, err := client.ExchangeContext(ctx, m, addr)
			return resp, err
		},
	}
}

// Chain resolves the CNAME chain for domain, in order, origin excluded and
// trailing dots stripped. It stops at the first name without a CNAME record,
// at any resolution error, on a cycle, or after maxChainHops hops.
func (r *Resolver) Chain(ctx context.Context, domain string) []string {
	var chain []string
	cur := strings.TrimSuffix(domain, ".")
	seen := make(map[string]struct{})

	for hop := 0; hop < maxChainHops; hop++ {
		if _, ok := seen[cur]; ok {
			break
		}
		seen[cur] = struct{}{}

		target, err := r.lookupCNAME(ctx, cur)
		if err != nil {
			// Chain ends here. NXDOMAIN, no record, timeout and transport
			// failures are all terminal in the same way.
			break
		}
		target = strings.TrimSuffix(target, ".")
		chain = append(chain, target)
		cur = target
	}
	return chain
}

// lookupCNAME queries each configured resolver in order until one answers.
func (r *Resolver) lookupCNAME(ctx context.Context, name string) (string, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), dns.TypeCNAME)
	m.RecursionDesired = true

	var lastErr error
	for _, server := range r.servers {
		resp, err := r.exchange(ctx, m, server)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.Rcode != dns.RcodeSuccess {
			return "", fmt.Errorf("query for %s returned rcode %s", name, dns.RcodeToString[resp.Rcode])
		}
		for _, rr := range resp.Answer {
			if cname, ok := rr.(*dns.CNAME); ok {
				return cname.Target, nil
			}
		}
		return "", errNoCNAME
	}
	if lastErr == nil {
		lastErr = errors.New("no DNS resolvers available")
	}
	return "", lastErr
}
