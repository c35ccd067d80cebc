// Package feed fetches the live availability snapshot from the external
// bike-share feed. A fetch returns a full replacement snapshot as of a
// single timestamp; it is idempotent and safe to retry by the caller.
package feed

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ubike-availability/internal/logger"
	"ubike-availability/internal/metrics"
	"ubike-availability/internal/models"

	"context"
)

// updateTimeLayout is the wall-clock format the feed reports, anchored
// to the adapter's location.
const updateTimeLayout = "2006-01-02 15:04:05"

// FeedUnavailableError reports a transport failure or a malformed
// payload. Callers surface it as a degraded-mode result, never a crash.
type FeedUnavailableError struct {
	URL string
	Err error
}

func (e *FeedUnavailableError) Error() string {
	return fmt.Sprintf("live feed %s unavailable: %v", e.URL, e.Err)
}

func (e *FeedUnavailableError) Unwrap() error { return e.Err }

// Result is one full snapshot of the feed. SkippedIDs lists stations
// whose rows could not be coerced and were dropped.
type Result struct {
	Snapshots  map[string]models.LiveSnapshot
	FetchedAt  time.Time
	SkippedIDs []string
}

// Adapter fetches and normalizes the live feed.
type Adapter struct {
	url     string
	client  *http.Client
	loc     *time.Location
	log     logger.Logger
	metrics *metrics.Metrics
}

// New creates an Adapter with a bounded fetch timeout. No retries are
// built in; retry policy, if any, belongs to the caller.
func New(url string, timeout time.Duration, loc *time.Location, log logger.Logger, m *metrics.Metrics) *Adapter {
	if loc == nil {
		loc = time.UTC
	}
	return &Adapter{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		loc:     loc,
		log:     log,
		metrics: m,
	}
}

// feedRow is the loosely-typed wire representation. Ids and counts may
// arrive as JSON numbers or strings; coercion failure marks the field
// unparseable instead of failing the decode.
type feedRow struct {
	StationID  looseString `json:"station_id"`
	RentBikes  looseInt    `json:"available_rent_bikes"`
	ReturnRoom looseInt    `json:"available_return_bikes"`
	Total      looseInt    `json:"total"`
	UpdateTime looseString `json:"updateTime"`
}

// Fetch downloads and normalizes the full current-moment snapshot.
// A single bad row never aborts the fetch; it is skipped and collected.
func (a *Adapter) Fetch(ctx context.Context) (Result, error) {
	a.metrics.FeedFetches.Inc()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		a.metrics.FeedFailures.Inc()
		return Result{}, &FeedUnavailableError{URL: a.url, Err: err}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		a.metrics.FeedFailures.Inc()
		return Result{}, &FeedUnavailableError{URL: a.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.metrics.FeedFailures.Inc()
		return Result{}, &FeedUnavailableError{URL: a.url, Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		a.metrics.FeedFailures.Inc()
		return Result{}, &FeedUnavailableError{URL: a.url, Err: err}
	}

	var rawRows []json.RawMessage
	if err := json.Unmarshal(body, &rawRows); err != nil {
		a.metrics.FeedFailures.Inc()
		return Result{}, &FeedUnavailableError{URL: a.url, Err: fmt.Errorf("malformed payload: %w", err)}
	}

	fetchedAt := time.Now().In(a.loc)
	result := Result{
		Snapshots: make(map[string]models.LiveSnapshot, len(rawRows)),
		FetchedAt: fetchedAt,
	}

	for _, raw := range rawRows {
		var row feedRow
		if err := json.Unmarshal(raw, &row); err != nil || !row.StationID.Valid || row.StationID.Value == "" {
			// Row without a usable id cannot be reported by id.
			a.metrics.FeedRowsSkipped.Inc()
			continue
		}
		id := row.StationID.Value

		if !row.RentBikes.Valid || !row.ReturnRoom.Valid || !row.Total.Valid ||
			row.RentBikes.Value < 0 || row.ReturnRoom.Value < 0 || row.Total.Value < 0 {
			a.metrics.FeedRowsSkipped.Inc()
			result.SkippedIDs = append(result.SkippedIDs, id)
			continue
		}

		observedAt := fetchedAt
		if row.UpdateTime.Valid {
			if ts, err := time.ParseInLocation(updateTimeLayout, row.UpdateTime.Value, a.loc); err == nil {
				observedAt = ts
			}
		}

		result.Snapshots[id] = models.LiveSnapshot{
			StationID:       id,
			ObservedAt:      observedAt,
			RentableCount:   row.RentBikes.Value,
			ReturnableCount: row.ReturnRoom.Value,
			TotalDocks:      row.Total.Value,
		}
	}

	if len(result.SkippedIDs) > 0 {
		a.log.Warnf("live feed: skipped %d unparseable rows", len(result.SkippedIDs))
	}
	a.log.Debugf("live feed: %d snapshots fetched", len(result.Snapshots))

	return result, nil
}
