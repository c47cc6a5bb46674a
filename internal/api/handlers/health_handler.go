package handlers

import "net/http"

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	StreamClients int    `json:"stream_clients"`
}

// Health handles GET /health. streams may be nil when progress streaming is
// disabled.
func Health(streams *SSEHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "ok"}
		if streams != nil {
			resp.StreamClients = streams.GetClientCount()
		}
		respondWithJSON(w, http.StatusOK, resp)
	}
}
