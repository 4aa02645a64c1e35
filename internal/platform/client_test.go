package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

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

func TestListSensors_UnassignedFilter(t *testing.T) {
	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sensors", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"data":[{"id":"s1","serial":"AMB-001","name":"Cold room"}],"total":1}`))
	})
	client := newTestClient(t, mux)

	page, err := client.ListSensors(context.Background(), SensorFilters{Unassigned: true, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Sensors, 1)
	assert.Equal(t, "AMB-001", page.Sensors[0].Serial)
	assert.Contains(t, gotQuery, "unassigned=true")
	assert.Contains(t, gotQuery, "limit=10")
}

func TestAssignSensor(t *testing.T) {
	var gotBody map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sensors/s1/assign", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"id":"s1","serial":"AMB-001","companyId":"c9"}`))
	})
	client := newTestClient(t, mux)

	sensor, err := client.AssignSensor(context.Background(), "s1", "c9")
	require.NoError(t, err)
	assert.Equal(t, "c9", sensor.CompanyID)
	assert.Equal(t, map[string]string{"companyId": "c9"}, gotBody)
}

func TestSetSensorThresholds_NilLimitsOmitted(t *testing.T) {
	var gotBody map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sensors/s1/thresholds", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"temperatureMax":8.5}`))
	})
	client := newTestClient(t, mux)

	max := 8.5
	updated, err := client.SetSensorThresholds(context.Background(), "s1", Thresholds{TemperatureMax: &max})
	require.NoError(t, err)
	require.NotNil(t, updated.TemperatureMax)
	assert.Equal(t, 8.5, *updated.TemperatureMax)

	assert.Contains(t, gotBody, "temperatureMax")
	assert.NotContains(t, gotBody, "temperatureMin", "nil limits must not be sent")
	assert.NotContains(t, gotBody, "humidityMin")
}

func TestListUsers_CompanyScoped(t *testing.T) {
	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"data":[{"id":"u1","email":"ops@acme.io","role":"admin","userType":"company","companyId":"c1","active":true}],"total":1}`))
	})
	client := newTestClient(t, mux)

	page, err := client.ListUsers(context.Background(), UserFilters{CompanyID: "c1"})
	require.NoError(t, err)
	require.Len(t, page.Users, 1)
	assert.True(t, page.Users[0].Active)
	assert.Contains(t, gotQuery, "companyId=c1")
}

func TestGetCompany_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/companies/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"company not found"}`))
	})
	client := newTestClient(t, mux)

	_, err := client.GetCompany(context.Background(), "nope")
	assert.True(t, api.IsNotFound(err))
}

func TestSensorReadings_RangeQuery(t *testing.T) {
	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sensors/s1/readings", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"data":[{"sensorId":"s1","temperature":4.2,"humidity":61.0}],"total":1}`))
	})
	client := newTestClient(t, mux)

	page, err := client.SensorReadings(context.Background(), "s1", ReadingFilters{Limit: 100})
	require.NoError(t, err)
	require.Len(t, page.Readings, 1)
	assert.Equal(t, 4.2, page.Readings[0].Temperature)
	assert.Contains(t, gotQuery, "limit=100")
}
