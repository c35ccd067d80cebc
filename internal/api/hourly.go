package api

import (
	"net/http"
	"strconv"

	"ubike-availability/internal/filter"
	"ubike-availability/internal/models"
)

// handleHourly handles the hourly reconciled view endpoint. The hour
// query parameter selects the hour of day; when omitted, the configured
// default hour is used. filter[id] restricts the stations.
func (s *Server) handleHourly(w http.ResponseWriter, r *http.Request) {
	hour := s.defaultHour
	if raw := r.URL.Query().Get("hour"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 || parsed > 23 {
			s.sendErrorResponse(w, http.StatusBadRequest, "hour must be an integer in [0,23]")
			return
		}
		hour = parsed
	}

	options := filter.NewOptions(r.URL.Query())
	views, err := s.reconciler.HistoricalView(hour, options.GetFilter("id")...)
	if err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	resources := make([]Resource, len(views))
	for i, view := range views {
		resources[i] = s.viewToResource(view)
	}

	response := Response{
		Data: resources,
		Links: map[string]string{
			"self": "/hourly",
		},
		Meta: map[string]any{
			"hour":   hour,
			"window": s.formatter.HourWindow(hour),
			"count":  len(resources),
		},
	}

	s.sendResponse(w, response)
}

// viewToResource converts a ReconciledView to a JSON:API resource.
func (s *Server) viewToResource(view models.ReconciledView) Resource {
	attrs := map[string]any{
		"station_name":     view.Station.Name,
		"district":         view.Station.District,
		"hour":             view.Hour,
		"avg_rent_count":   view.Historical.AvgRentCount,
		"avg_return_count": view.Historical.AvgReturnCount,
		"avg_rent_ratio":   view.Historical.AvgRentRatio,
		"avg_return_ratio": view.Historical.AvgReturnRatio,
		"display":          s.formatter.View(view),
	}
	if view.LiveState != models.LiveNotRequested {
		attrs["live_state"] = string(view.LiveState)
		attrs["live_ratio"] = view.LiveRatio
	}
	if view.Live != nil {
		attrs["rentable_count"] = view.Live.RentableCount
		attrs["returnable_count"] = view.Live.ReturnableCount
		attrs["total_docks"] = view.Live.TotalDocks
		attrs["observed_at"] = view.Live.ObservedAt
	}

	return Resource{
		Type:       "reconciled-view",
		ID:         view.Station.ID,
		Attributes: attrs,
		Links: map[string]string{
			"station": "/stations/" + view.Station.ID,
		},
	}
}
