// File: cmd/domainsig/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wlresearch/domainsig/internal/analysis"
	"github.com/wlresearch/domainsig/internal/api"
	"github.com/wlresearch/domainsig/internal/config"
	"github.com/wlresearch/domainsig/internal/fronting"
	"github.com/wlresearch/domainsig/internal/input"
	"github.com/wlresearch/domainsig/internal/report"
	"github.com/wlresearch/domainsig/internal/scanner"
)

func main() {
	cmd := &cli.Command{
		Name:  "domainsig",
		Usage: "fingerprint domains for shared CDN/hosting infrastructure",
		Commands: []*cli.Command{
			{
				Name:      "scan",
				Aliases:   []string{"s"},
				Usage:     "scan domains from a file and cluster them by signature",
				ArgsUsage: "<domains.txt>",
				Action:    scanAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Usage: "JSON config file"},
					&cli.IntFlag{Name: "concurrency", Value: config.DefaultConcurrency, Usage: "max simultaneous domain scans"},
					&cli.FloatFlag{Name: "dns-timeout", Value: 2.5, Usage: "DNS timeout in seconds"},
					&cli.FloatFlag{Name: "http-timeout", Value: 8.0, Usage: "HTTP timeout in seconds"},
					&cli.FloatFlag{Name: "tls-timeout", Value: 5.0, Usage: "TLS timeout in seconds"},
					&cli.FloatFlag{Name: "ws-timeout", Value: 6.0, Usage: "WebSocket timeout in seconds"},
					&cli.BoolFlag{Name: "ws", Usage: "enable WebSocket probes (wss)"},
					&cli.StringSliceFlag{Name: "ws-paths", Usage: "override WS paths (default: /, /ws, /websocket, /socket.io/?EIO=4&transport=websocket)"},
					&cli.FloatFlag{Name: "rate", Value: config.DefaultRateLimitDPS, Usage: "domain scans per second, 0 = unlimited"},
					&cli.StringFlag{Name: "jsonl", Usage: "write per-domain results as JSONL"},
					&cli.StringFlag{Name: "summary", Usage: "write grouped summary text file"},
					&cli.IntFlag{Name: "top", Value: config.DefaultTopGroups, Usage: "top N signatures to print"},
					&cli.IntFlag{Name: "show-domains", Usage: "print first N domains per signature"},
					&cli.BoolFlag{Name: "quiet", Usage: "do not print per-domain results"},
					&cli.IntFlag{Name: "progress", Usage: "print a progress line every N results"},
					&cli.StringFlag{Name: "user-agent", Value: config.DefaultUserAgent, Usage: "HTTP User-Agent"},
				},
			},
			{
				Name:   "serve",
				Usage:  "expose the scanner over an HTTP API",
				Action: serveAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Usage: "JSON config file"},
				},
			},
			{
				Name:      "fronting",
				Aliases:   []string{"f"},
				Usage:     "check if domain fronting is possible between two domains",
				ArgsUsage: "<front-domain> <target-domain>",
				Action:    frontingAction,
				Flags: []cli.Flag{
					&cli.FloatFlag{Name: "timeout", Value: 10.0, Usage: "TLS timeout in seconds"},
				},
			},
			{
				Name:      "analyze",
				Aliases:   []string{"a"},
				Usage:     "analyze domain patterns and statistics",
				ArgsUsage: "<domains.txt>",
				Action:    analyzeAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// buildScanConfig merges the config file with the scan command's flags; a
// flag set on the command line wins over the file value.
func buildScanConfig(cmd *cli.Command) (config.ScanConfig, error) {
	appCfg, err := config.Load(cmd.String("config"))
	if err != nil {
		log.Printf("Main: Notice during config load: %v. Proceeding with defaults for unparsed fields.", err)
	}
	cfg := appCfg.Scan

	if cmd.IsSet("concurrency") {
		cfg.Concurrency = int(cmd.Int("concurrency"))
	}
	if cmd.IsSet("dns-timeout") {
		cfg.DNSTimeout = time.Duration(cmd.Float("dns-timeout") * float64(time.Second))
	}
	if cmd.IsSet("http-timeout") {
		cfg.HTTPTimeout = time.Duration(cmd.Float("http-timeout") * float64(time.Second))
	}
	if cmd.IsSet("tls-timeout") {
		cfg.TLSTimeout = time.Duration(cmd.Float("tls-timeout") * float64(time.Second))
	}
	if cmd.IsSet("ws-timeout") {
		cfg.WSTimeout = time.Duration(cmd.Float("ws-timeout") * float64(time.Second))
	}
	if cmd.Bool("ws") {
		cfg.WSEnabled = true
	}
	if paths := cmd.StringSlice("ws-paths"); len(paths) > 0 {
		cfg.WSPaths = paths
	}
	if cmd.IsSet("rate") {
		cfg.RateLimitDPS = cmd.Float("rate")
	}
	if cmd.IsSet("user-agent") {
		cfg.UserAgent = cmd.String("user-agent")
	}
	return cfg, nil
}

func scanAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 1 {
		return fmt.Errorf("usage: scan <domains.txt> [flags]")
	}

	domains, err := input.ReadDomainsFile(cmd.Args().First())
	if err != nil {
		return fmt.Errorf("error reading domains file: %w", err)
	}
	if len(domains) == 0 {
		return cli.Exit("No domains found.", 2)
	}

	cfg, err := buildScanConfig(cmd)
	if err != nil {
		return err
	}

	quiet := cmd.Bool("quiet")
	progress := int(cmd.Int("progress"))

	log.Printf("Scanner: scanning %d domains (concurrency=%d, websocket=%v)", len(domains), cfg.Concurrency, cfg.WSEnabled)

	var results []*scanner.Result
	completed := 0
	for res := range scanner.New(cfg).Scan(ctx, domains) {
		results = append(results, res)
		completed++
		if !quiet {
			report.PrintResult(os.Stdout, res)
		}
		if progress > 0 && completed%progress == 0 {
			fmt.Printf("\n-- progress: %d/%d --\n", completed, len(domains))
		}
	}

	groups := report.GroupBySignature(results)
	report.PrintGroups(os.Stdout, groups, int(cmd.Int("top")), int(cmd.Int("show-domains")))

	if path := cmd.String("jsonl"); path != "" {
		if err := report.WriteJSONL(path, results); err != nil {
			return fmt.Errorf("writing JSONL: %w", err)
		}
		fmt.Printf("\nWrote JSONL: %s\n", path)
	}
	if path := cmd.String("summary"); path != "" {
		if err := report.WriteSummary(path, groups); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
		fmt.Printf("Wrote summary: %s\n", path)
	}
	return nil
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	appCfg, err := config.Load(cmd.String("config"))
	if err != nil {
		log.Printf("Main: Notice during config load: %v. Proceeding with defaults for unparsed fields.", err)
	}

	if key := os.Getenv("DOMAINSIG_API_KEY"); key != "" {
		appCfg.Server.APIKey = key
		log.Printf("API Key: Using value from DOMAINSIG_API_KEY environment variable (length: %d).", len(key))
	}
	if appCfg.Server.APIKey == "" {
		appCfg.Server.APIKey = config.DefaultSystemAPIKeyPlaceholder
	}
	if appCfg.Server.APIKey == config.DefaultSystemAPIKeyPlaceholder {
		log.Println("WARNING: API Key is the default placeholder. Set 'server.apiKey' in the config file or DOMAINSIG_API_KEY for real deployments.")
	}
	if port := os.Getenv("DOMAINSIG_PORT"); port != "" {
		appCfg.Server.Port = port
	}
	if appCfg.Server.Port == "" {
		appCfg.Server.Port = "8080"
	}

	router := api.NewRouter(appCfg, nil)
	httpServer := &http.Server{
		Handler:      router,
		Addr:         ":" + appCfg.Server.Port,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute, // scans are synchronous; give them room
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Starting domainsig API server on http://localhost:%s", appCfg.Server.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server ListenAndServe failed: %w", err)
	}
	return nil
}

func frontingAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 2 {
		return fmt.Errorf("usage: fronting <front-domain> <target-domain>")
	}
	front := input.NormalizeLine(cmd.Args().Get(0))
	target := input.NormalizeLine(cmd.Args().Get(1))
	if front == "" || target == "" {
		return fmt.Errorf("both arguments must be domains")
	}

	fmt.Printf("Testing domain fronting: %s -> %s\n", front, target)
	timeout := time.Duration(cmd.Float("timeout") * float64(time.Second))
	res := fronting.Check(ctx, front, target, timeout)

	if res.Error != "" {
		fmt.Printf("Error: %s\n", res.Error)
		return nil
	}
	fmt.Printf("Shared IPs: %v\n", res.SharedIPs)
	fmt.Printf("Domain Fronting Possible: %t\n", res.Possible)
	fmt.Printf("Reason: %s\n", res.Reason)
	if res.CertSubject != "" {
		fmt.Printf("Certificate Subject: %s\n", res.CertSubject)
	}
	fmt.Printf("Test Duration: %v\n", res.Elapsed)
	return nil
}

func analyzeAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 1 {
		return fmt.Errorf("usage: analyze <domains.txt>")
	}
	domains, err := input.ReadDomainsFile(cmd.Args().First())
	if err != nil {
		return fmt.Errorf("error reading domains file: %w", err)
	}
	fmt.Printf("Analyzing %d domains...\n", len(domains))
	analysis.Print(os.Stdout, analysis.Analyze(domains))
	return nil
}
