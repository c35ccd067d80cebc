package api

import (
	"net/http"
)

// handleIndex handles the API root endpoint.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	response := Response{
		Data: nil,
		Links: map[string]string{
			"self":     "/",
			"stations": "/stations",
			"hourly":   "/hourly",
			"rankings": "/rankings",
			"metrics":  "/metrics",
		},
	}

	s.sendResponse(w, response)
}
