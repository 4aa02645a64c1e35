package console

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ambioctl/internal/alerts"
	"ambioctl/internal/api"
	"ambioctl/internal/cli"
	"ambioctl/internal/platform"
	"ambioctl/internal/session"
)

func newTestConsole(t *testing.T, handler http.Handler) (*Console, *bytes.Buffer) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tokens, err := api.NewTokenStore(api.TokenStoreConfig{StorageDir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, tokens.SetTokens("access-token", "refresh-token"))

	client := api.NewClient(server.URL, tokens)
	sess := session.NewController(client, tokens)
	t.Cleanup(sess.Close)

	console := New(sess, alerts.NewClient(client), platform.NewClient(client), t.TempDir())
	out := &bytes.Buffer{}
	console.out = out
	return console, out
}

func TestExecute_UnknownCommand(t *testing.T) {
	console, _ := newTestConsole(t, http.NewServeMux())

	err := console.execute(context.Background(), "frobnicate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frobnicate")
}

func TestExecute_ExitAndQuit(t *testing.T) {
	console, _ := newTestConsole(t, http.NewServeMux())

	assert.ErrorIs(t, console.execute(context.Background(), "exit"), errExit)
	assert.ErrorIs(t, console.execute(context.Background(), "quit"), errExit)
}

func TestExecute_FormatSwitch(t *testing.T) {
	console, _ := newTestConsole(t, http.NewServeMux())

	require.NoError(t, console.execute(context.Background(), "format json"))
	assert.Equal(t, cli.OutputFormatJSON, console.format)

	assert.Error(t, console.execute(context.Background(), "format xml"))
	assert.Error(t, console.execute(context.Background(), "format"))
}

func TestExecute_AlertsWithStatusFilter(t *testing.T) {
	mux := http.NewServeMux()
	var gotStatus string
	mux.HandleFunc("/api/alerts", func(w http.ResponseWriter, r *http.Request) {
		gotStatus = r.URL.Query().Get("status")
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{
				"id":     "a-1",
				"sensor": map[string]any{"id": "s-1", "serial": "AMB-001", "name": "Cold Room"},
				"status": "active",
			}},
			"total": 1,
		})
	})

	console, out := newTestConsole(t, mux)
	require.NoError(t, console.execute(context.Background(), "alerts active"))

	assert.Equal(t, "active", gotStatus)
	assert.Contains(t, out.String(), "Cold Room")
	assert.Contains(t, out.String(), "1 of 1 alerts")
}

func TestExecute_StatsRendersTable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/alerts/statistics", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"status": "active", "count": 4},
				{"status": "resolved", "count": "2"},
			},
		})
	})

	console, out := newTestConsole(t, mux)
	require.NoError(t, console.execute(context.Background(), "stats"))
	assert.Contains(t, out.String(), "4")
	assert.Contains(t, out.String(), "6")
}

func TestExecute_SensorsUnassigned(t *testing.T) {
	mux := http.NewServeMux()
	var unassigned string
	mux.HandleFunc("/api/sensors", func(w http.ResponseWriter, r *http.Request) {
		unassigned = r.URL.Query().Get("unassigned")
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}, "total": 0})
	})

	console, _ := newTestConsole(t, mux)
	require.NoError(t, console.execute(context.Background(), "sensors unassigned"))
	assert.Equal(t, "true", unassigned)
}

func TestExecute_WhoamiWithoutSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	console, _ := newTestConsole(t, mux)
	err := console.execute(context.Background(), "whoami")

	var authRequired *cli.AuthRequiredError
	assert.ErrorAs(t, err, &authRequired)
}
