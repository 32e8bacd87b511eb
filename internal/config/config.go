// File: internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"
)

const (
	DefaultConcurrency    = 50
	DefaultTopGroups      = 25
	DefaultUserAgent      = "domainsig/0.1"
	DefaultRateLimitDPS   = 0 // domain scans per second; 0 disables the limiter
	DefaultRateLimitBurst = 1

	DefaultSystemAPIKeyPlaceholder = "SET_A_REAL_KEY_IN_CONFIG_OR_ENV_7c1f4b2a9d1e"
)

// ScanConfig is the runtime configuration for one scan run.
type ScanConfig struct {
	Concurrency        int
	DNSTimeout         time.Duration
	HTTPTimeout        time.Duration
	TLSTimeout         time.Duration
	WSTimeout          time.Duration
	Resolvers          []string
	UseSystemResolvers bool
	WSEnabled          bool
	WSPaths            []string
	UserAgent          string
	RateLimitDPS       float64
	RateLimitBurst     int
}

type ServerConfig struct {
	Port   string `json:"port"`
	APIKey string `json:"apiKey"`
}

type AppConfig struct {
	Server ServerConfig
	Scan   ScanConfig
}

// ScanConfigJSON is the file-facing shape of ScanConfig; timeouts are given
// in seconds so config files stay readable.
type ScanConfigJSON struct {
	Concurrency        int      `json:"concurrency"`
	DNSTimeoutSeconds  float64  `json:"dnsTimeoutSeconds"`
	HTTPTimeoutSeconds float64  `json:"httpTimeoutSeconds"`
	TLSTimeoutSeconds  float64  `json:"tlsTimeoutSeconds"`
	WSTimeoutSeconds   float64  `json:"wsTimeoutSeconds"`
	Resolvers          []string `json:"resolvers,omitempty"`
	UseSystemResolvers bool     `json:"useSystemResolvers"`
	WSEnabled          bool     `json:"wsEnabled"`
	WSPaths            []string `json:"wsPaths,omitempty"`
	UserAgent          string   `json:"userAgent"`
	RateLimitDPS       float64  `json:"rateLimitDps,omitempty"`
	RateLimitBurst     int      `json:"rateLimitBurst,omitempty"`
}

type AppConfigJSON struct {
	Server ServerConfig   `json:"server"`
	Scan   ScanConfigJSON `json:"scan"`
}

func DefaultAppConfigJSON() AppConfigJSON {
	return AppConfigJSON{
		Server: ServerConfig{Port: "8080", APIKey: DefaultSystemAPIKeyPlaceholder},
		Scan: ScanConfigJSON{
			Concurrency:        DefaultConcurrency,
			DNSTimeoutSeconds:  2.5,
			HTTPTimeoutSeconds: 8.0,
			TLSTimeoutSeconds:  5.0,
			WSTimeoutSeconds:   6.0,
			UseSystemResolvers: true,
			UserAgent:          DefaultUserAgent,
			RateLimitDPS:       DefaultRateLimitDPS,
			RateLimitBurst:     DefaultRateLimitBurst,
		},
	}
}

func DefaultConfig() *AppConfig {
	return convertJSON(DefaultAppConfigJSON())
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func convertJSON(jsonCfg AppConfigJSON) *AppConfig {
	cfg := &AppConfig{
		Server: jsonCfg.Server,
		Scan: ScanConfig{
			Concurrency:        jsonCfg.Scan.Concurrency,
			DNSTimeout:         secondsToDuration(jsonCfg.Scan.DNSTimeoutSeconds),
			HTTPTimeout:        secondsToDuration(jsonCfg.Scan.HTTPTimeoutSeconds),
			TLSTimeout:         secondsToDuration(jsonCfg.Scan.TLSTimeoutSeconds),
			WSTimeout:          secondsToDuration(jsonCfg.Scan.WSTimeoutSeconds),
			Resolvers:          jsonCfg.Scan.Resolvers,
			UseSystemResolvers: jsonCfg.Scan.UseSystemResolvers,
			WSEnabled:          jsonCfg.Scan.WSEnabled,
			WSPaths:            jsonCfg.Scan.WSPaths,
			UserAgent:          jsonCfg.Scan.UserAgent,
			RateLimitDPS:       jsonCfg.Scan.RateLimitDPS,
			RateLimitBurst:     jsonCfg.Scan.RateLimitBurst,
		},
	}
	if cfg.Scan.Concurrency <= 0 {
		cfg.Scan.Concurrency = DefaultConcurrency
	}
	if cfg.Scan.UserAgent == "" {
		cfg.Scan.UserAgent = DefaultUserAgent
	}
	if cfg.Scan.RateLimitBurst <= 0 {
		cfg.Scan.RateLimitBurst = DefaultRateLimitBurst
	}
	return cfg
}

// Load reads an app config from path. A missing file is not an error: the
// defaults are returned unchanged. A malformed file keeps whatever fields
// parsed and reports the unmarshal error alongside the usable config.
func Load(path string) (*AppConfig, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	jsonCfg := DefaultAppConfigJSON()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Config: file '%s' not found, using defaults.", path)
			return convertJSON(jsonCfg), nil
		}
		return convertJSON(jsonCfg), fmt.Errorf("failed to read config '%s': %w", path, err)
	}
	if err := json.Unmarshal(data, &jsonCfg); err != nil {
		return convertJSON(jsonCfg), fmt.Errorf("error unmarshalling config '%s': %w", path, err)
	}
	return convertJSON(jsonCfg), nil
}

// Save writes the config in its file-facing shape.
func Save(jsonCfg AppConfigJSON, path string) error {
	if path == "" {
		return fmt.Errorf("cannot save config, file path is empty")
	}
	data, err := json.MarshalIndent(jsonCfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to '%s': %w", path, err)
	}
	return nil
}
