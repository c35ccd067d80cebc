package api

import (
	"net/http"
	"strconv"

	"ubike-availability/internal/models"
)

// handleRankings handles the tier ranking endpoint. The top query
// parameter limits the result; omitted or non-positive means all.
func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	top := 0
	if raw := r.URL.Query().Get("top"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.sendErrorResponse(w, http.StatusBadRequest, "top must be an integer")
			return
		}
		top = parsed
	}

	results := s.classifier.TopN(top)

	resources := make([]Resource, len(results))
	for i, result := range results {
		resources[i] = s.tierToResource(result, i+1)
	}

	response := Response{
		Data: resources,
		Links: map[string]string{
			"self": "/rankings",
		},
		Meta: map[string]any{
			"count": len(resources),
		},
	}

	s.sendResponse(w, response)
}

// tierToResource converts a TierResult to a JSON:API resource.
func (s *Server) tierToResource(result models.TierResult, rank int) Resource {
	return Resource{
		Type: "tier-result",
		ID:   result.StationID,
		Attributes: map[string]any{
			"rank":                    rank,
			"tier":                    string(result.Tier),
			"effective_see_bike_rate": result.EffectiveSeeBikeRate,
			"observed_hours":          result.ObservedHours,
			"display":                 s.formatter.Tier(result),
		},
		Links: map[string]string{
			"station": "/stations/" + result.StationID,
		},
	}
}
