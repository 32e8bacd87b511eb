// File: internal/api/handlers.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/wlresearch/domainsig/internal/config"
	"github.com/wlresearch/domainsig/internal/input"
	"github.com/wlresearch/domainsig/internal/report"
	"github.com/wlresearch/domainsig/internal/scanner"
)

// ScanRunner abstracts the scanner so handler tests can substitute it.
type ScanRunner interface {
	Scan(ctx context.Context, domains []string) <-chan *scanner.Result
}

// APIHandler carries the dependencies shared by all endpoint handlers.
type APIHandler struct {
	Config     *config.AppConfig
	NewScanner func(cfg config.ScanConfig) ScanRunner
}

func NewAPIHandler(cfg *config.AppConfig) *APIHandler {
	return &APIHandler{
		Config: cfg,
		NewScanner: func(scanCfg config.ScanConfig) ScanRunner {
			return scanner.New(scanCfg)
		},
	}
}

// respondWithError sends a JSON error response.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON sends a JSON response with the given status code and payload.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Printf("API Error: Failed to marshal JSON response: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "{\"error\": \"Failed to marshal JSON response: %v\"}", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// PingHandler responds to ping requests to check server health.
func (h *APIHandler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "pong", "timestamp": time.Now().Format(time.RFC3339)})
}

// ScanRequest is the body of POST /api/v1/scan.
type ScanRequest struct {
	Domains   []string `json:"domains"`
	WebSocket bool     `json:"websocket"`
	WSPaths   []string `json:"wsPaths,omitempty"`
}

// GroupSummary is the aggregated view of one signature group.
type GroupSummary struct {
	Signature string   `json:"signature"`
	Count     int      `json:"count"`
	Domains   []string `json:"domains"`
}

// ScanResponse is the synchronous response of POST /api/v1/scan.
type ScanResponse struct {
	Results []*scanner.Result `json:"results"`
	Groups  []GroupSummary    `json:"groups"`
}

// ScanHandler normalizes the submitted domains, runs a full scan and returns
// the per-domain results with their signature groups.
func (h *APIHandler) ScanHandler(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	var domains []string
	for _, line := range req.Domains {
		if d := input.NormalizeLine(line); d != "" {
			domains = append(domains, d)
		}
	}
	if len(domains) == 0 {
		respondWithError(w, http.StatusBadRequest, "No valid domains in request")
		return
	}

	scanCfg := h.Config.Scan
	scanCfg.WSEnabled = req.WebSocket
	if len(req.WSPaths) > 0 {
		scanCfg.WSPaths = req.WSPaths
	}

	log.Printf("API: Scanning %d domains (websocket=%v)", len(domains), req.WebSocket)
	var results []*scanner.Result
	for res := range h.NewScanner(scanCfg).Scan(r.Context(), domains) {
		results = append(results, res)
	}

	groups := report.GroupBySignature(results)
	resp := ScanResponse{Results: results, Groups: make([]GroupSummary, 0, len(groups))}
	for _, g := range groups {
		gs := GroupSummary{Signature: g.Signature, Count: len(g.Results)}
		for _, res := range g.Results {
			gs.Domains = append(gs.Domains, res.Domain)
		}
		resp.Groups = append(resp.Groups, gs)
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// GetScanConfigHandler returns the effective scan configuration.
func (h *APIHandler) GetScanConfigHandler(w http.ResponseWriter, r *http.Request) {
	cfg := h.Config.Scan
	respondWithJSON(w, http.StatusOK, config.ScanConfigJSON{
		Concurrency:        cfg.Concurrency,
		DNSTimeoutSeconds:  cfg.DNSTimeout.Seconds(),
		HTTPTimeoutSeconds: cfg.HTTPTimeout.Seconds(),
		TLSTimeoutSeconds:  cfg.TLSTimeout.Seconds(),
		WSTimeoutSeconds:   cfg.WSTimeout.Seconds(),
		Resolvers:          cfg.Resolvers,
		UseSystemResolvers: cfg.UseSystemResolvers,
		WSEnabled:          cfg.WSEnabled,
		WSPaths:            cfg.WSPaths,
		UserAgent:          cfg.UserAgent,
		RateLimitDPS:       cfg.RateLimitDPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	})
}
