package handlers

import (
	"net/http"
	"runtime"
	"strconv"
	"time"
)

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Service   string            `json:"service"`
	Uptime    string            `json:"uptime,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

const serviceName = "onnxscope-api"

var startTime = time.Now()

// HealthHandler reports liveness together with the session store occupancy
// and the upload limit the server was started with.
func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   serviceName,
		Uptime:    time.Since(startTime).Round(time.Second).String(),
		Details: map[string]string{
			"go_version":    runtime.Version(),
			"sessions":      strconv.Itoa(a.Store.Len()),
			"session_limit": strconv.Itoa(a.Store.Limit()),
			"max_upload_mb": strconv.FormatInt(a.MaxUploadBytes>>20, 10),
		},
	})
}
