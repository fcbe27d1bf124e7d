package metrics

import (
	"encoding/json"
	"net/http"
)

// Handler returns an http.Handler serving the current snapshot as JSON
// for GET /metrics style endpoints.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m.GetSnapshot())
	})
}
