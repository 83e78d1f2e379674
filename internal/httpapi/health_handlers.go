package httpapi

import (
	"net/http"
	"time"
)

// handleHealth reports readiness of each backing dependency. The response
// is 200 only when every probe answers "ok".
func (handler *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	probes := map[string]string{}
	if handler.health != nil {
		probes = handler.health(ctx)
	}

	status := http.StatusOK
	overall := "ok"
	for _, state := range probes {
		if state != "ok" {
			status = http.StatusServiceUnavailable
			overall = "degraded"
			break
		}
	}

	type response struct {
		Status    string            `json:"status"`
		Checks    map[string]string `json:"checks"`
		Timestamp time.Time         `json:"timestamp"`
	}
	handler.jsonResponse(ctx, w, status, response{
		Status:    overall,
		Checks:    probes,
		Timestamp: time.Now().UTC(),
	})
}
