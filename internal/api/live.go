package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"ubike-availability/internal/reconcile"
)

// handleLive handles the live comparison endpoint. A degraded live feed
// still returns the historical view, flagged in meta; a registry or
// historical join miss reports which side was missing.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	view, err := s.reconciler.LiveComparison(r.Context(), id, time.Now())
	if err != nil {
		var joinMiss *reconcile.JoinMissError
		if errors.As(err, &joinMiss) {
			s.sendErrorResponse(w, http.StatusNotFound,
				fmt.Sprintf("station %s has no record on the %s side", joinMiss.StationID, joinMiss.Side))
			return
		}
		s.sendErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	meta := map[string]any{
		"degraded": view.Degraded(),
	}
	if !view.FetchedAt.IsZero() {
		meta["fetched_at"] = view.FetchedAt
	}
	if view.Degraded() {
		meta["notice"] = s.formatter.View(view).Notice
	}

	response := Response{
		Data: s.viewToResource(view),
		Links: map[string]string{
			"self": "/stations/" + id + "/live",
		},
		Meta: meta,
	}

	s.sendResponse(w, response)
}
