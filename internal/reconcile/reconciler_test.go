package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ubike-availability/internal/feed"
	"ubike-availability/internal/history"
	"ubike-availability/internal/logger"
	"ubike-availability/internal/metrics"
	"ubike-availability/internal/models"
	"ubike-availability/internal/registry"
)

// stubFetcher stands in for the live feed adapter.
type stubFetcher struct {
	result feed.Result
	err    error
}

func (s stubFetcher) Fetch(context.Context) (feed.Result, error) {
	return s.result, s.err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	rows := `0,500,Test A,大安區,25.026,121.543,Addr A,Daan,Test A,1
1,501,Test B,大安區,25.025,121.544,Addr B,Daan,Test B,1
2,600,Registry Only,中正區,25.03,121.51,Addr C,Zhongzheng,Registry Only,1
`
	r, err := registry.Load(writeFile(t, "stations.csv", rows))
	require.NoError(t, err)
	return r
}

func testHistory(t *testing.T) *history.Store {
	t.Helper()
	content := `station_id,hour,avg_rent_count,avg_return_count,avg_rent_ratio,avg_return_ratio
500,8,12.5,3.2,0.85,0.15
501,8,5.0,5.0,0.50,0.50
501,9,4.0,6.0,0.40,0.60
700,8,1.0,1.0,0.10,0.90
`
	s, err := history.Load(writeFile(t, "stats.csv", content))
	require.NoError(t, err)
	return s
}

func newReconciler(t *testing.T, fetcher LiveFetcher) *Reconciler {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Taipei")
	require.NoError(t, err)
	return New(testRegistry(t), testHistory(t), fetcher, loc, logger.NopLogger{}, metrics.New())
}

func taipei(t *testing.T, hour int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Taipei")
	require.NoError(t, err)
	return time.Date(2024, 12, 25, hour, 30, 0, 0, loc)
}

func TestHistoricalView(t *testing.T) {
	r := newReconciler(t, stubFetcher{})

	views, err := r.HistoricalView(8)
	require.NoError(t, err)

	// Only registry ∩ history: station 600 (registry only) and 700
	// (history only) are excluded, each station appears exactly once.
	require.Len(t, views, 2)
	seen := map[string]int{}
	for _, v := range views {
		seen[v.Station.ID]++
	}
	assert.Equal(t, map[string]int{"500": 1, "501": 1}, seen)

	// Ordered by station name.
	assert.Equal(t, "500", views[0].Station.ID)
	assert.InDelta(t, 0.85, views[0].Historical.AvgRentRatio, 1e-9)
	assert.Equal(t, models.LiveNotRequested, views[0].LiveState)
}

func TestHistoricalViewFilter(t *testing.T) {
	r := newReconciler(t, stubFetcher{})

	views, err := r.HistoricalView(8, "501")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "501", views[0].Station.ID)
}

func TestHistoricalViewJoinMissExcluded(t *testing.T) {
	r := newReconciler(t, stubFetcher{})

	// Station 500 has no hour 9 record; only 501 qualifies.
	views, err := r.HistoricalView(9)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "501", views[0].Station.ID)
}

func TestHistoricalViewInvalidHour(t *testing.T) {
	r := newReconciler(t, stubFetcher{})

	_, err := r.HistoricalView(24)
	assert.Error(t, err)
	_, err = r.HistoricalView(-1)
	assert.Error(t, err)
}

func TestLiveComparison(t *testing.T) {
	now := taipei(t, 8)
	snap := models.LiveSnapshot{
		StationID:       "500",
		ObservedAt:      now,
		RentableCount:   7,
		ReturnableCount: 3,
		TotalDocks:      10,
	}
	r := newReconciler(t, stubFetcher{result: feed.Result{
		Snapshots: map[string]models.LiveSnapshot{"500": snap},
		FetchedAt: now,
	}})

	view, err := r.LiveComparison(context.Background(), "500", now)
	require.NoError(t, err)
	assert.Equal(t, models.LiveOK, view.LiveState)
	assert.False(t, view.Degraded())
	require.NotNil(t, view.Live)
	assert.Equal(t, 7, view.Live.RentableCount)
	require.True(t, view.LiveRatio.Valid)
	assert.InDelta(t, 0.7, view.LiveRatio.Value, 1e-9)
	assert.InDelta(t, 0.85, view.Historical.AvgRentRatio, 1e-9)
}

func TestLiveComparisonDegradedOnFeedFailure(t *testing.T) {
	r := newReconciler(t, stubFetcher{err: &feed.FeedUnavailableError{URL: "http://feed", Err: context.DeadlineExceeded}})

	// The feed timing out degrades the view; no error reaches the caller.
	view, err := r.LiveComparison(context.Background(), "500", taipei(t, 8))
	require.NoError(t, err)
	assert.Equal(t, models.LiveUnavailable, view.LiveState)
	assert.True(t, view.Degraded())
	assert.Nil(t, view.Live)
	assert.InDelta(t, 0.85, view.Historical.AvgRentRatio, 1e-9)
}

func TestLiveComparisonStationAbsentFromFeed(t *testing.T) {
	r := newReconciler(t, stubFetcher{result: feed.Result{
		Snapshots: map[string]models.LiveSnapshot{},
		FetchedAt: taipei(t, 8),
	}})

	view, err := r.LiveComparison(context.Background(), "500", taipei(t, 8))
	require.NoError(t, err)
	assert.Equal(t, models.LiveMissing, view.LiveState)
	assert.True(t, view.Degraded())
}

func TestLiveComparisonJoinMissSides(t *testing.T) {
	r := newReconciler(t, stubFetcher{})

	_, err := r.LiveComparison(context.Background(), "999", taipei(t, 8))
	var joinMiss *JoinMissError
	require.ErrorAs(t, err, &joinMiss)
	assert.Equal(t, SideRegistry, joinMiss.Side)

	// Station 600 is in the registry but has no historical data.
	_, err = r.LiveComparison(context.Background(), "600", taipei(t, 8))
	require.ErrorAs(t, err, &joinMiss)
	assert.Equal(t, SideHistorical, joinMiss.Side)
	assert.Equal(t, 8, joinMiss.Hour)
}

func TestLiveComparisonHourFromTargetZone(t *testing.T) {
	now := taipei(t, 8)
	r := newReconciler(t, stubFetcher{result: feed.Result{
		Snapshots: map[string]models.LiveSnapshot{},
		FetchedAt: now,
	}})

	// 08:30 Taipei expressed as 00:30 UTC must still resolve to hour 8.
	view, err := r.LiveComparison(context.Background(), "500", now.UTC())
	require.NoError(t, err)
	assert.Equal(t, 8, view.Hour)
}
