package httpprober

// Fingerprint holds the curated HTTP response signals for one domain.
// Exactly one of (OK with Status) or (Error) is meaningful; on failure every
// other field stays at its zero value. Missing headers map to "", never absent.
type Fingerprint struct {
	OK            bool   `json:"ok"`
	Status        int    `json:"status"`
	FinalURL      string `json:"final_url"`
	FinalHost     string `json:"final_host"`
	ContentType   string `json:"content_type"`
	Server        string `json:"server"`
	Via           string `json:"via"`
	Cache         string `json:"cache"`
	CFRay         string `json:"cf_ray"`
	CFCacheStatus string `json:"cf_cache_status"`
	XCache        string `json:"x_cache"`
	XServedBy     string `json:"x_served_by"`
	XAmzCfPop     string `json:"x_amz_cf_pop"`
	XAmzCfID      string `json:"x_amz_cf_id"`
	XVercelID     string `json:"x_vercel_id"`
	XNfRequestID  string `json:"x_nf_request_id"`
	Error         string `json:"error"`
}
