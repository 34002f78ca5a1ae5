package apiclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusmate/internal/apiclient"
)

func TestLoginAndAuthenticatedCalls(t *testing.T) {
	var gotAuth string
	var gotStats map[string]int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method + " " + r.URL.Path {
		case "POST /auth/login":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["password"] != "password123" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":{"code":"unauthorized","message":"invalid email or password"}}`))
				return
			}
			_, _ = w.Write([]byte(`{"message":"Login successful","token":"tok","user":{"id":"u1","name":"Ada","email":"ada@example.com"}}`))
		case "PUT /api/stats/me":
			gotAuth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&gotStats)
			_, _ = w.Write([]byte(`{"totalFocusTime":25,"completedSessions":1,"tasksCompleted":0,"currentStreak":1}`))
		case "GET /api/teams/t1":
			_, _ = w.Write([]byte(`{"id":"t1","name":"Crew","members":[{"userId":"u1","name":"Ada","role":"owner"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":"not_found","message":"not found"}}`))
		}
	}))
	defer server.Close()

	ctx := context.Background()

	_, err := apiclient.New(server.URL, "").Login(ctx, "ada@example.com", "nope")
	require.Error(t, err)
	assert.True(t, apiclient.IsUnauthorized(err))
	assert.Equal(t, "invalid email or password", err.Error())

	res, err := apiclient.New(server.URL+"/", "").Login(ctx, "ada@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "tok", res.Token)
	assert.Equal(t, "Ada", res.User.Name)

	client := apiclient.New(server.URL, res.Token)
	stats, err := client.RecordSession(ctx, 25, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, map[string]int{"focusTime": 25, "tasksCompleted": 0}, gotStats)

	team, err := client.GetTeam(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, team.Members, 1)
	assert.Equal(t, "owner", team.Members[0].Role)

	_, err = client.GetTeam(ctx, "missing")
	var apiErr *apiclient.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "not_found", apiErr.Code)
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := apiclient.New(server.URL, "tok")
	client.SetTimeout(50 * time.Millisecond)

	_, err := client.GetStats(context.Background())
	require.Error(t, err)
	assert.False(t, apiclient.IsUnauthorized(err))
}
