// File: internal/input/input.go
package input

import (
	"bufio"
	"net/url"
	"os"
	"strings"
)

// NormalizeLine turns one raw line from a domain list into a normalized
// lowercase hostname. It returns "" for blank lines, comments, and lines
// that yield no hostname; callers drop those.
func NormalizeLine(line string) string {
	s := strings.TrimSpace(line)
	if s == "" || strings.HasPrefix(s, "#") {
		return ""
	}
	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return ""
		}
		host := u.Hostname()
		if host == "" {
			return ""
		}
		return strings.ToLower(strings.Trim(host, "."))
	}
	if idx := strings.IndexByte(s, '/'); idx >= 0 {
		s = s[:idx]
	}
	// Strip a :port suffix, but leave bracketless IPv6-looking strings alone.
	if strings.Count(s, ":") == 1 {
		s = s[:strings.IndexByte(s, ':')]
	}
	return strings.ToLower(strings.Trim(s, "."))
}

// ReadDomainsFile reads a domain list file (one domain per line, '#' comments
// and blank lines ignored) and returns the normalized domains in file order.
func ReadDomainsFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var domains []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if d := NormalizeLine(scanner.Text()); d != "" {
			domains = append(domains, d)
		}
	}
	return domains, scanner.Err()
}
