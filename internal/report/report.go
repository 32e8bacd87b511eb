// File: internal/report/report.go

// Package report groups completed scan results by signature and renders the
// console, JSONL and summary outputs.
package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/wlresearch/domainsig/internal/scanner"
)

// Group pairs a signature digest with the results sharing it, in the order
// they completed.
type Group struct {
	Signature string
	Results   []*scanner.Result
}

// GroupBySignature rebuilds the signature groups from the full result set,
// ordered by member count descending. Groups of equal size keep the order
// their signatures were first encountered in.
func GroupBySignature(results []*scanner.Result) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, r := range results {
		i, ok := index[r.Signature]
		if !ok {
			i = len(groups)
			index[r.Signature] = i
			groups = append(groups, Group{Signature: r.Signature})
		}
		groups[i].Results = append(groups[i].Results, r)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return len(groups[i].Results) > len(groups[j].Results)
	})
	return groups
}

// PrintResult writes the per-domain console report.
func PrintResult(w io.Writer, res *scanner.Result) {
	fmt.Fprintf(w, "\nDomain: %s\n", res.Domain)
	if len(res.CNAMEChain) > 0 {
		fmt.Fprintf(w, "  CNAME: %s\n", strings.Join(res.CNAMEChain, " -> "))
	}
	if res.HTTP.OK {
		fmt.Fprintf(w, "  HTTP: %d  final=%s\n", res.HTTP.Status, res.HTTP.FinalURL)
		if res.HTTP.Server != "" {
			fmt.Fprintf(w, "    server: %s\n", res.HTTP.Server)
		}
		if res.HTTP.Via != "" {
			fmt.Fprintf(w, "    via: %s\n", res.HTTP.Via)
		}
		if res.HTTP.XCache != "" {
			fmt.Fprintf(w, "    x-cache: %s\n", res.HTTP.XCache)
		}
		if res.HTTP.XServedBy != "" {
			fmt.Fprintf(w, "    x-served-by: %s\n", res.HTTP.XServedBy)
		}
	} else {
		fmt.Fprintf(w, "  HTTP: error=%s\n", res.HTTP.Error)
	}

	if res.TLS.OK {
		fmt.Fprintf(w, "  TLS: alpn=%s issuer=%s subject=%s\n", res.TLS.ALPN, res.TLS.IssuerCN, res.TLS.SubjectCN)
	} else {
		fmt.Fprintf(w, "  TLS: error=%s\n", res.TLS.Error)
	}

	if len(res.WebSockets) > 0 {
		wsOK := false
		for _, p := range res.WebSockets {
			if p.OK {
				wsOK = true
				break
			}
		}
		if wsOK {
			fmt.Fprintln(w, "  WS: ok")
		} else {
			fmt.Fprintln(w, "  WS: no")
		}
		for _, p := range res.WebSockets {
			if p.OK {
				fmt.Fprintf(w, "    ok  %s (%.1fms) proto=%s\n", p.URL, p.Ms, p.Subprotocol)
			} else {
				fmt.Fprintf(w, "    no  %s (%.1fms) err=%s\n", p.URL, p.Ms, p.Error)
			}
		}
	}

	fmt.Fprintf(w, "  Signature: %s\n", res.Signature)
	if len(res.Errors) > 0 {
		fmt.Fprintf(w, "  Errors: %s\n", strings.Join(res.Errors, ", "))
	}
}

// PrintGroups writes the ranked signature listing, at most top groups, with
// up to showDomains member previews each.
func PrintGroups(w io.Writer, groups []Group, top, showDomains int) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 80))
	fmt.Fprintln(w, "GROUPED SIGNATURES (top)")
	fmt.Fprintln(w, strings.Repeat("=", 80))
	for i, g := range groups {
		if i >= top {
			break
		}
		fmt.Fprintf(w, "%s  n=%d\n", g.Signature, len(g.Results))
		for j, r := range g.Results {
			if j >= showDomains {
				break
			}
			fmt.Fprintf(w, "  - %s\n", r.Domain)
		}
	}
}

// WriteJSONL writes one JSON object per completed domain.
func WriteJSONL(path string, results []*scanner.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create JSONL file '%s': %w", path, err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	enc := json.NewEncoder(writer)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to write JSONL record for %s: %w", r.Domain, err)
		}
	}
	return writer.Flush()
}

type hostCount struct {
	host  string
	count int
}

// topFinalHosts returns the most frequent final resolved hosts of a group,
// highest count first, at most n entries.
func topFinalHosts(g Group, n int) []hostCount {
	counts := make(map[string]int)
	for _, r := range g.Results {
		if r.HTTP.FinalHost != "" {
			counts[r.HTTP.FinalHost]++
		}
	}
	out := make([]hostCount, 0, len(counts))
	for host, c := range counts {
		out = append(out, hostCount{host, c})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].count > out[j].count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// WriteSummary writes the grouped text summary: per signature, its member
// count, the most frequent final hosts, and every member domain.
func WriteSummary(path string, groups []Group) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary file '%s': %w", path, err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, g := range groups {
		fmt.Fprintf(writer, "# %s (%d domains)\n", g.Signature, len(g.Results))
		if hosts := topFinalHosts(g, 5); len(hosts) > 0 {
			parts := make([]string, 0, len(hosts))
			for _, hc := range hosts {
				parts = append(parts, fmt.Sprintf("%s(%d)", hc.host, hc.count))
			}
			fmt.Fprintf(writer, "final_host: %s\n", strings.Join(parts, ", "))
		}
		fmt.Fprintln(writer)
		for _, r := range g.Results {
			fmt.Fprintf(writer, "- %s\n", r.Domain)
		}
		fmt.Fprintln(writer)
	}
	return writer.Flush()
}
