package alerts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ambioctl/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store, err := api.NewTokenStore(api.TokenStoreConfig{FileMode: false})
	require.NoError(t, err)
	require.NoError(t, store.SetTokens("access-1", "refresh-1"))

	return NewClient(api.NewClient(server.URL, store))
}

func TestList_EncodesFilters(t *testing.T) {
	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/alerts", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"data":[{"id":"a1","status":"active"}],"total":42}`))
	})
	client := newTestClient(t, mux)

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	page, err := client.List(context.Background(), Filters{
		CompanyID:     "c1",
		SensorID:      "s1",
		Status:        StatusActive,
		ViolationType: ViolationTemperatureMax,
		StartDate:     start,
		EndDate:       end,
		Limit:         25,
		Offset:        50,
	})
	require.NoError(t, err)
	assert.Equal(t, 42, page.Total)
	require.Len(t, page.Alerts, 1)
	assert.Equal(t, "a1", page.Alerts[0].ID)

	query := "?" + gotQuery
	assert.Contains(t, query, "companyId=c1")
	assert.Contains(t, query, "sensorId=s1")
	assert.Contains(t, query, "status=active")
	assert.Contains(t, query, "violationType=temperature_max")
	assert.Contains(t, query, "limit=25")
	assert.Contains(t, query, "offset=50")
	assert.Contains(t, query, "startDate=")
	assert.Contains(t, query, "endDate=")
}

func TestList_NoFiltersSendsBarePath(t *testing.T) {
	var gotURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/alerts", func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		w.Write([]byte(`{"data":[],"total":0}`))
	})
	client := newTestClient(t, mux)

	_, err := client.List(context.Background(), Filters{})
	require.NoError(t, err)
	assert.Equal(t, "/api/alerts", gotURL)
}

func TestGet_MissingAlertIsNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/alerts/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	client := newTestClient(t, mux)

	_, err := client.Get(context.Background(), "nope")
	assert.True(t, api.IsNotFound(err))
}

func TestNotifications_SortedByAttempt(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/alerts/a1/notifications", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"alertId":"a1","attemptNumber":3,"status":"failed"},
			{"alertId":"a1","attemptNumber":1,"status":"sent"},
			{"alertId":"a1","attemptNumber":2,"status":"sent"}
		]}`))
	})
	client := newTestClient(t, mux)

	notifications, err := client.Notifications(context.Background(), "a1")
	require.NoError(t, err)
	require.Len(t, notifications, 3)
	assert.Equal(t, 1, notifications[0].AttemptNumber)
	assert.Equal(t, 2, notifications[1].AttemptNumber)
	assert.Equal(t, 3, notifications[2].AttemptNumber)
}

func TestStatistics_Aggregation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/alerts/statistics", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"status":"active","count":"3"},
			{"status":"resolved","count":"2"},
			{"status":"exhausted","count":"1"},
			{"status":"bogus","count":"9"}
		]}`))
	})
	client := newTestClient(t, mux)

	stats, err := client.Statistics(context.Background(), StatisticsFilters{})
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.Active)
	assert.Equal(t, int64(2), stats.Resolved)
	assert.Equal(t, int64(1), stats.Exhausted)
	// Unknown statuses land in the total but in no named bucket.
	assert.Equal(t, int64(15), stats.Total)
}

func TestStatistics_ToleratesBadCounts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/alerts/statistics", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"status":"active","count":"abc"},
			{"status":"resolved"},
			{"status":"exhausted","count":4}
		]}`))
	})
	client := newTestClient(t, mux)

	stats, err := client.Statistics(context.Background(), StatisticsFilters{})
	require.NoError(t, err)

	assert.Equal(t, int64(0), stats.Active, "non-numeric count is zero, never NaN")
	assert.Equal(t, int64(0), stats.Resolved, "missing count is zero")
	assert.Equal(t, int64(4), stats.Exhausted)
	assert.Equal(t, int64(4), stats.Total)
}

func TestCountValue(t *testing.T) {
	assert.Equal(t, int64(3), countValue(float64(3)))
	assert.Equal(t, int64(3), countValue("3"))
	assert.Equal(t, int64(3), countValue("3.7"))
	assert.Equal(t, int64(0), countValue("abc"))
	assert.Equal(t, int64(0), countValue(nil))
	assert.Equal(t, int64(0), countValue(map[string]any{}))
}

func TestStatisticsString(t *testing.T) {
	s := Statistics{Active: 3, Resolved: 2, Exhausted: 1, Total: 6}
	assert.Equal(t, "3 active / 2 resolved / 1 exhausted (6 total)", s.String())
}
