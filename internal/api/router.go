// File: internal/api/router.go
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wlresearch/domainsig/internal/config"
)

// NewRouter builds the HTTP API: an open health endpoint plus the versioned
// scan API behind API-key auth.
func NewRouter(cfg *config.AppConfig, apiHandler *APIHandler) *mux.Router {
	router := mux.NewRouter()
	if apiHandler == nil {
		apiHandler = NewAPIHandler(cfg)
	}

	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware)

	router.HandleFunc("/ping", apiHandler.PingHandler).Methods(http.MethodGet, http.MethodOptions)

	apiV1 := router.PathPrefix("/api/v1").Subrouter()
	apiV1.Use(APIKeyAuthMiddleware(cfg.Server.APIKey))

	apiV1.HandleFunc("/scan", apiHandler.ScanHandler).Methods(http.MethodPost, http.MethodOptions)
	apiV1.HandleFunc("/config/scan", apiHandler.GetScanConfigHandler).Methods(http.MethodGet, http.MethodOptions)

	return router
}
