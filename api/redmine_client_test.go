package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redminetojira/config"
)

const testAPIKey = "secret-key"

// pagedHandler はoffset/limitに従って items を返す一覧APIのハンドラです
func pagedHandler(t *testing.T, key string, items []map[string]any, offsets *[]int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testAPIKey, r.Header.Get("X-Redmine-API-Key"))

		offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
		if !assert.NoError(t, err) {
			return
		}
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if !assert.NoError(t, err) {
			return
		}
		if offsets != nil {
			*offsets = append(*offsets, offset)
		}

		end := min(offset+limit, len(items))
		page := []map[string]any{}
		if offset < len(items) {
			page = items[offset:end]
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			key:           page,
			"total_count": len(items),
			"offset":      offset,
			"limit":       limit,
		})
	}
}

func newTestClient(t *testing.T, handler http.Handler, mutate ...func(*config.Config)) *RedmineClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Defaults()
	cfg.RedmineURL = srv.URL
	cfg.RedmineAPIKey = testAPIKey
	for _, m := range mutate {
		m(cfg)
	}
	return NewRedmineClient(cfg)
}

func projectItems(n int) []map[string]any {
	items := make([]map[string]any, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, map[string]any{
			"id":         i,
			"identifier": "project-" + strconv.Itoa(i),
			"name":       "Project " + strconv.Itoa(i),
		})
	}
	return items
}

func TestGetProjects_AccumulatesAllPages(t *testing.T) {
	var offsets []int
	mux := http.NewServeMux()
	mux.HandleFunc("/projects.json", pagedHandler(t, "projects", projectItems(60), &offsets))
	client := newTestClient(t, mux)

	projects, err := client.GetProjects(context.Background())
	require.NoError(t, err)

	require.Len(t, projects, 60)
	assert.Equal(t, []int{0, 25, 50}, offsets)
	for i, p := range projects {
		assert.Equal(t, i+1, p.ID, "pages must be concatenated in offset order")
	}
}

func TestGetProjects_ExactMultipleOfPageSize(t *testing.T) {
	var offsets []int
	mux := http.NewServeMux()
	mux.HandleFunc("/projects.json", pagedHandler(t, "projects", projectItems(50), &offsets))
	client := newTestClient(t, mux)

	projects, err := client.GetProjects(context.Background())
	require.NoError(t, err)

	assert.Len(t, projects, 50)
	assert.Equal(t, []int{0, 25}, offsets)
}

func TestGetProjects_CustomPageSize(t *testing.T) {
	var offsets []int
	mux := http.NewServeMux()
	mux.HandleFunc("/projects.json", pagedHandler(t, "projects", projectItems(7), &offsets))
	client := newTestClient(t, mux, func(c *config.Config) { c.PageSize = 3 })

	projects, err := client.GetProjects(context.Background())
	require.NoError(t, err)

	assert.Len(t, projects, 7)
	assert.Equal(t, []int{0, 3, 6}, offsets)
}

func TestGetProjects_ServerCapsLimit(t *testing.T) {
	var offsets []int
	paged := pagedHandler(t, "projects", projectItems(250), &offsets)

	mux := http.NewServeMux()
	mux.HandleFunc("/projects.json", func(w http.ResponseWriter, r *http.Request) {
		// Redmineは1ページ100件までしか返さない
		q := r.URL.Query()
		if limit, _ := strconv.Atoi(q.Get("limit")); limit > 100 {
			q.Set("limit", "100")
			r.URL.RawQuery = q.Encode()
		}
		paged(w, r)
	})
	client := newTestClient(t, mux, func(c *config.Config) { c.PageSize = 200 })

	projects, err := client.GetProjects(context.Background())
	require.NoError(t, err)

	require.Len(t, projects, 250)
	assert.Equal(t, []int{0, 100, 200}, offsets)
	for i, p := range projects {
		assert.Equal(t, i+1, p.ID)
	}
}

func TestGetProjects_EmptyCollection(t *testing.T) {
	var offsets []int
	mux := http.NewServeMux()
	mux.HandleFunc("/projects.json", pagedHandler(t, "projects", nil, &offsets))
	client := newTestClient(t, mux)

	projects, err := client.GetProjects(context.Background())
	require.NoError(t, err)

	assert.NotNil(t, projects)
	assert.Empty(t, projects)
	assert.Equal(t, []int{0}, offsets)
}

func TestGetIssues_StatusFilter(t *testing.T) {
	tests := []struct {
		name            string
		onlyActiveTasks bool
		wantStatus      string
		wantPresent     bool
	}{
		{name: "all statuses", onlyActiveTasks: false, wantStatus: "*", wantPresent: true},
		{name: "open only", onlyActiveTasks: true, wantPresent: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/projects/my-proj/issues.json", func(w http.ResponseWriter, r *http.Request) {
				values, present := r.URL.Query()["status_id"]
				assert.Equal(t, tt.wantPresent, present)
				if tt.wantPresent {
					assert.Equal(t, []string{tt.wantStatus}, values)
				}
				_, _ = w.Write([]byte(`{"issues":[{"id":7,"subject":"s","status":{"id":1,"name":"New"},"author":{"id":2,"name":"A"},"estimated_hours":null}],"total_count":1}`))
			})
			client := newTestClient(t, mux, func(c *config.Config) { c.OnlyActiveTasks = tt.onlyActiveTasks })

			issues, err := client.GetIssues(context.Background(), "my-proj")
			require.NoError(t, err)
			require.Len(t, issues, 1)
			assert.Equal(t, 7, issues[0].ID)
			assert.Equal(t, "New", issues[0].Status.Name)
			assert.Nil(t, issues[0].EstimatedHours)
			assert.Nil(t, issues[0].AssignedTo)
		})
	}
}

func TestGetUsers_SendsStatus(t *testing.T) {
	tests := []struct {
		status UserStatus
		want   string
	}{
		{UserStatusAny, ""},
		{UserStatusActive, "1"},
		{UserStatusLocked, "3"},
	}

	for _, tt := range tests {
		t.Run("status="+tt.want, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/users.json", func(w http.ResponseWriter, r *http.Request) {
				values, present := r.URL.Query()["status"]
				assert.True(t, present)
				assert.Equal(t, []string{tt.want}, values)
				_, _ = w.Write([]byte(`{"users":[{"id":1,"login":"jdoe","firstname":"John","lastname":"Doe","mail":"j@example.com"}],"total_count":1}`))
			})
			client := newTestClient(t, mux)

			users, err := client.GetUsers(context.Background(), tt.status)
			require.NoError(t, err)
			require.Len(t, users, 1)
			assert.Equal(t, "jdoe", users[0].Login)
			assert.Equal(t, "Doe", users[0].LastName)
		})
	}
}

func TestGetIssueJournals(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/issues/42.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "journals", r.URL.Query().Get("include"))
		_, _ = w.Write([]byte(`{"issue":{"id":42,"journals":[
			{"id":1,"user":{"id":5,"name":"Bob"},"notes":"hello","created_on":"2024-01-02T03:04:05Z"},
			{"id":2,"user":{"id":5,"name":"Bob"},"notes":null,"created_on":"2024-01-03T03:04:05Z"}
		]}}`))
	})
	client := newTestClient(t, mux)

	journals, err := client.GetIssueJournals(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, journals, 2)
	require.NotNil(t, journals[0].Notes)
	assert.Equal(t, "hello", *journals[0].Notes)
	assert.Equal(t, 5, journals[0].User.ID)
	assert.Nil(t, journals[1].Notes)
}

func TestGetTimeEntries(t *testing.T) {
	var offsets []int
	entries := []map[string]any{
		{"id": 1, "user": map[string]any{"id": 3}, "hours": 1.5, "comments": "coding", "spent_on": "2024-02-01"},
		{"id": 2, "user": map[string]any{"id": 4}, "hours": 0.25, "spent_on": "2024-02-02"},
	}
	paged := pagedHandler(t, "time_entries", entries, &offsets)

	mux := http.NewServeMux()
	mux.HandleFunc("/projects/my-proj/time_entries.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "42", r.URL.Query().Get("issue_id"))
		paged(w, r)
	})
	client := newTestClient(t, mux, func(c *config.Config) { c.PageSize = 1 })

	got, err := client.GetTimeEntries(context.Background(), "my-proj", 42)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []int{0, 1}, offsets)
	assert.InDelta(t, 1.5, got[0].Hours, 1e-9)
	require.NotNil(t, got[0].Comments)
	assert.Equal(t, "coding", *got[0].Comments)
	assert.Nil(t, got[1].Comments)
}

func TestErrorResponse_AbortsFetch(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/projects.json", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("offset") == "25" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		pagedHandler(t, "projects", projectItems(60), nil)(w, r)
	})
	client := newTestClient(t, mux)

	projects, err := client.GetProjects(context.Background())
	require.Error(t, err)
	assert.Nil(t, projects)
	assert.Equal(t, 2, calls)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "/projects.json", apiErr.Path)
	assert.Contains(t, apiErr.Body, "boom")
}

func TestErrorClassification(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/issues/1.json", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/users/current.json", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	client := newTestClient(t, mux)

	_, err := client.GetIssueJournals(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsUnauthorized(err))

	_, err = client.CheckAuth(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := config.Defaults()
	cfg.RedmineURL = url
	cfg.RedmineAPIKey = testAPIKey
	client := NewRedmineClient(cfg)

	_, err := client.GetProjects(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Zero(t, apiErr.StatusCode)
	assert.Error(t, apiErr.Unwrap())
}

func TestCheckAuth(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/current.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testAPIKey, r.Header.Get("X-Redmine-API-Key"))
		_, _ = w.Write([]byte(`{"user":{"id":1,"login":"admin"}}`))
	})
	client := newTestClient(t, mux)

	login, err := client.CheckAuth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "admin", login)
}
