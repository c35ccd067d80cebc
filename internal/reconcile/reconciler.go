// Package reconcile joins station metadata, historical hourly averages
// and the live feed snapshot into per-station views.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ubike-availability/internal/feed"
	"ubike-availability/internal/history"
	"ubike-availability/internal/logger"
	"ubike-availability/internal/metrics"
	"ubike-availability/internal/models"
	"ubike-availability/internal/registry"
)

// Side identifies which dataset lacked a station during a join.
type Side string

const (
	SideRegistry   Side = "registry"
	SideHistorical Side = "historical"
	SideLiveFeed   Side = "live feed"
)

// JoinMissError reports that one side of a reconciliation had no record
// for the station, so the caller can render a precise degraded message.
type JoinMissError struct {
	StationID string
	Hour      int
	Side      Side
}

func (e *JoinMissError) Error() string {
	if e.Side == SideHistorical {
		return fmt.Sprintf("station %s missing from %s data at hour %d", e.StationID, e.Side, e.Hour)
	}
	return fmt.Sprintf("station %s missing from %s", e.StationID, e.Side)
}

// LiveFetcher is the live feed dependency. *feed.Adapter satisfies it.
type LiveFetcher interface {
	Fetch(ctx context.Context) (feed.Result, error)
}

// Reconciler builds reconciled views over the loaded datasets and a
// fresh live fetch per query. It holds no per-query state; concurrent
// queries each get their own snapshot.
type Reconciler struct {
	registry *registry.Registry
	history  *history.Store
	fetcher  LiveFetcher
	loc      *time.Location
	log      logger.Logger
	metrics  *metrics.Metrics
}

// New creates a Reconciler. loc is the fixed target time zone both the
// feed and the historical averages are anchored to.
func New(reg *registry.Registry, hist *history.Store, fetcher LiveFetcher, loc *time.Location, log logger.Logger, m *metrics.Metrics) *Reconciler {
	if loc == nil {
		loc = time.UTC
	}
	return &Reconciler{
		registry: reg,
		history:  hist,
		fetcher:  fetcher,
		loc:      loc,
		log:      log,
		metrics:  m,
	}
}

// HistoricalView returns one view per station present in both the
// registry and the historical store at the given hour, ordered by
// station name. stationIDs optionally restricts the result; empty means
// all. A station absent from the historical side at that hour is
// excluded, not an error: the two datasets evolve independently and a
// join miss is expected steady state.
func (r *Reconciler) HistoricalView(hour int, stationIDs ...string) ([]models.ReconciledView, error) {
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("hour %d out of range [0,23]", hour)
	}

	var want map[string]bool
	if len(stationIDs) > 0 {
		want = make(map[string]bool, len(stationIDs))
		for _, id := range stationIDs {
			want[id] = true
		}
	}

	var views []models.ReconciledView
	for _, station := range r.registry.All() {
		if want != nil && !want[station.ID] {
			continue
		}
		stat, err := r.history.Get(station.ID, hour)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				continue
			}
			return nil, err
		}
		views = append(views, models.ReconciledView{
			Station:    station,
			Hour:       hour,
			Historical: stat,
		})
	}
	return views, nil
}

// LiveComparison joins one station's historical average for the hour
// derived from now in the target zone with a fresh live snapshot.
//
// now is converted into the target zone before the hour is taken; a
// caller holding a zoneless wall-clock reading must construct the
// time.Time in the target zone itself, as conversion from a wrong zone
// silently shifts the hour.
//
// A registry or historical miss returns *JoinMissError naming the side.
// A feed failure, or a station absent from a healthy snapshot, degrades
// the view (historical data only, LiveState flagged) instead of failing:
// the historical side remains renderable.
func (r *Reconciler) LiveComparison(ctx context.Context, stationID string, now time.Time) (models.ReconciledView, error) {
	station, err := r.registry.ByID(stationID)
	if err != nil {
		return models.ReconciledView{}, &JoinMissError{StationID: stationID, Side: SideRegistry}
	}

	hour := now.In(r.loc).Hour()
	stat, err := r.history.Get(stationID, hour)
	if err != nil {
		return models.ReconciledView{}, &JoinMissError{StationID: stationID, Hour: hour, Side: SideHistorical}
	}

	view := models.ReconciledView{
		Station:    station,
		Hour:       hour,
		Historical: stat,
	}

	result, err := r.fetcher.Fetch(ctx)
	if err != nil {
		r.log.Warnf("live comparison for station %s degraded: %v", stationID, err)
		r.metrics.DegradedResponses.Inc()
		view.LiveState = models.LiveUnavailable
		return view, nil
	}
	view.FetchedAt = result.FetchedAt

	snapshot, ok := result.Snapshots[stationID]
	if !ok {
		r.metrics.DegradedResponses.Inc()
		view.LiveState = models.LiveMissing
		return view, nil
	}

	view.Live = &snapshot
	view.LiveState = models.LiveOK
	view.LiveRatio = snapshot.RentableRatio()
	return view, nil
}
