// File: internal/analysis/analysis.go

// Package analysis computes offline statistics over a domain list, useful for
// eyeballing a whitelist before spending network time scanning it.
package analysis

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Stats summarizes structural patterns of a domain list.
type Stats struct {
	TotalDomains  int
	TLDs          map[string]int
	Subdomains    map[string]int
	AverageLength float64
}

// Analyze tallies TLD and subdomain-label frequency over domains.
func Analyze(domains []string) Stats {
	stats := Stats{
		TLDs:       make(map[string]int),
		Subdomains: make(map[string]int),
	}
	totalLength := 0
	for _, domain := range domains {
		stats.TotalDomains++
		totalLength += len(domain)

		parts := strings.Split(domain, ".")
		if len(parts) > 1 {
			stats.TLDs[parts[len(parts)-1]]++
		}
		if len(parts) > 2 {
			stats.Subdomains[strings.Join(parts[:len(parts)-2], ".")]++
		}
	}
	if stats.TotalDomains > 0 {
		stats.AverageLength = float64(totalLength) / float64(stats.TotalDomains)
	}
	return stats
}

type labelCount struct {
	label string
	count int
}

func sortedCounts(m map[string]int) []labelCount {
	out := make([]labelCount, 0, len(m))
	for label, count := range m {
		out = append(out, labelCount{label, count})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].count > out[j].count })
	return out
}

// Print renders the analysis report.
func Print(w io.Writer, stats Stats) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 80))
	fmt.Fprintln(w, "DOMAIN ANALYSIS")
	fmt.Fprintln(w, strings.Repeat("=", 80))

	fmt.Fprintf(w, "\nTotal domains: %d\n", stats.TotalDomains)
	fmt.Fprintf(w, "Average domain length: %.2f characters\n", stats.AverageLength)

	fmt.Fprintln(w, "\nTop TLDs:")
	for i, item := range sortedCounts(stats.TLDs) {
		if i >= 10 {
			break
		}
		fmt.Fprintf(w, "  %s: %d domains\n", item.label, item.count)
	}

	shared := 0
	for _, item := range sortedCounts(stats.TLDs) {
		if item.count > 1 {
			shared++
			if shared == 1 {
				fmt.Fprintln(w, "\nCommon patterns:")
			}
			fmt.Fprintf(w, "  %s (TLD): %d domains\n", item.label, item.count)
		}
	}
}
