package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"ubike-availability/internal/filter"
	"ubike-availability/internal/models"
)

// handleStations handles the stations collection endpoint. Stations
// with unparseable coordinates are included unless spatial=true.
func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	options := filter.NewOptions(r.URL.Query())

	stations := s.registry.All()

	if options.HasFilter("id") {
		stations = filter.Filter(stations, func(st models.Station) bool {
			return options.MatchesFilter("id", st.ID)
		})
	}

	if options.HasFilter("district") {
		stations = filter.Filter(stations, func(st models.Station) bool {
			return options.MatchesFilter("district", st.District)
		})
	}

	if r.URL.Query().Get("spatial") == "true" {
		stations = filter.Filter(stations, func(st models.Station) bool {
			return st.HasCoords
		})
	}

	resources := make([]Resource, len(stations))
	for i, st := range stations {
		resources[i] = stationToResource(st)
	}

	response := Response{
		Data: resources,
		Links: map[string]string{
			"self": "/stations",
		},
		Meta: map[string]any{
			"count": len(resources),
		},
	}

	s.sendResponse(w, response)
}

// handleStation handles the station detail endpoint.
func (s *Server) handleStation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	station, err := s.registry.ByID(id)
	if err != nil {
		s.sendErrorResponse(w, http.StatusNotFound, "Station not found")
		return
	}

	response := Response{
		Data: stationToResource(station),
		Links: map[string]string{
			"self": "/stations/" + id,
		},
	}

	s.sendResponse(w, response)
}

// stationToResource converts a Station to a JSON:API resource.
func stationToResource(st models.Station) Resource {
	attrs := map[string]any{
		"name":     st.Name,
		"district": st.District,
		"address":  st.Address,
		"active":   st.Active,
	}
	if st.HasCoords {
		attrs["latitude"] = st.Latitude
		attrs["longitude"] = st.Longitude
	}
	if st.NameEN != "" {
		attrs["name_en"] = st.NameEN
	}
	if st.DistrictEN != "" {
		attrs["district_en"] = st.DistrictEN
	}

	return Resource{
		Type:       "station",
		ID:         st.ID,
		Attributes: attrs,
		Links: map[string]string{
			"self": "/stations/" + st.ID,
			"live": "/stations/" + st.ID + "/live",
		},
	}
}
