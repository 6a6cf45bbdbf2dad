package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optiondash-desktop/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", "secret-token", 5*time.Second), &calls
}

func TestListTasks(t *testing.T) {
	t.Run("Should send filter, auth and request id and decode tasks", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/tasks", r.URL.Path)
			assert.Equal(t, "20", r.URL.Query().Get("limit"))
			assert.Equal(t, "40", r.URL.Query().Get("skip"))
			assert.Equal(t, "rep-9", r.URL.Query().Get("result_ref"))
			assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
			assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"items":[
				{"id":"a","task_type":"ai_report","status":"success","result_ref":"rep-9","created_at":"2026-10-01T10:00:00Z"},
				{"id":"b","task_type":"ai_report","status":"PENDING","created_at":"2026-10-01T10:05:00Z"}
			],"total":2}`)
		})

		tasks, err := client.ListTasks(context.Background(), models.TaskFilter{Limit: 20, Skip: 40, ResultRef: "rep-9"})
		require.NoError(t, err)
		require.Len(t, tasks, 2)

		assert.Equal(t, models.StatusSuccess, tasks[0].Status)
		require.NotNil(t, tasks[0].ResultRef)
		assert.Equal(t, "rep-9", *tasks[0].ResultRef)
		assert.Equal(t, models.StatusPending, tasks[1].Status)
		assert.Nil(t, tasks[1].ResultRef)
	})

	t.Run("Should skip rows with an unknown status or a misplaced result ref", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"items":[
				{"id":"a","task_type":"ai_report","status":"RETRYING"},
				{"id":"b","task_type":"ai_report","status":"FAILURE","result_ref":"report-b"},
				{"id":"c","task_type":"ai_report","status":"processing"}
			],"total":3}`)
		})

		tasks, err := client.ListTasks(context.Background(), models.TaskFilter{})
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "c", tasks[0].ID)
		assert.Equal(t, models.StatusProcessing, tasks[0].Status)
	})

	t.Run("Should still reject a malformed single task", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"id":"a","task_type":"ai_report","status":"RETRYING"}`)
		})

		_, err := client.GetTask(context.Background(), "a")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, models.ErrTaskNotFound)
	})

	t.Run("Should retry server errors and report them as transient", func(t *testing.T) {
		client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.ListTasks(context.Background(), models.TaskFilter{})
		require.Error(t, err)
		assert.True(t, IsTransient(err))
		assert.Equal(t, int32(3), atomic.LoadInt32(calls), "1 attempt + 2 retries")
	})

	t.Run("Should give up when the context deadline passes", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		})

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := client.ListTasks(ctx, models.TaskFilter{})
		require.Error(t, err)
		assert.True(t, IsTransient(err))
	})
}

func TestGetTask(t *testing.T) {
	t.Run("Should map 404 to ErrTaskNotFound", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"detail":"Task not found"}`)
		})

		_, err := client.GetTask(context.Background(), "gone")
		assert.True(t, errors.Is(err, models.ErrTaskNotFound))
	})

	t.Run("Should cache terminal tasks only", func(t *testing.T) {
		client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/tasks/done":
				fmt.Fprint(w, `{"id":"done","task_type":"ai_report","status":"FAILURE"}`)
			default:
				fmt.Fprint(w, `{"id":"run","task_type":"ai_report","status":"PROCESSING"}`)
			}
		})

		for i := 0; i < 3; i++ {
			task, err := client.GetTask(context.Background(), "done")
			require.NoError(t, err)
			assert.Equal(t, models.StatusFailure, task.Status)
		}
		assert.Equal(t, int32(1), atomic.LoadInt32(calls))

		for i := 0; i < 2; i++ {
			_, err := client.GetTask(context.Background(), "run")
			require.NoError(t, err)
		}
		assert.Equal(t, int32(3), atomic.LoadInt32(calls))
	})
}

func TestDeleteTask(t *testing.T) {
	t.Run("Should send a single DELETE", func(t *testing.T) {
		client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/api/tasks/a", r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		})

		require.NoError(t, client.DeleteTask(context.Background(), "a"))
		assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	})

	t.Run("Should not retry a failed delete and should carry server detail", func(t *testing.T) {
		client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"detail":"Report is still being written"}`)
		})

		err := client.DeleteTask(context.Background(), "a")
		require.Error(t, err)
		assert.Equal(t, "Report is still being written", Detail(err))
		assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	})
}

func TestGetProfile(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/me", r.URL.Path)
		fmt.Fprint(w, `{"username":"trader","plan":"pro","reports_used":3,"reports_quota":10}`)
	})

	profile, err := client.GetProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "trader", profile.Username)
	assert.Equal(t, 7, profile.ReportsRemaining())
}

func TestLRUCache(t *testing.T) {
	cache := newLRUCache(2)
	cache.Put("a", models.Task{ID: "a"})
	cache.Put("b", models.Task{ID: "b"})
	cache.Get("a")
	cache.Put("c", models.Task{ID: "c"})

	_, hasB := cache.Get("b")
	_, hasA := cache.Get("a")
	assert.False(t, hasB, "least recently used entry should be evicted")
	assert.True(t, hasA)
	assert.Equal(t, 2, cache.Len())

	cache.Remove("a")
	assert.Equal(t, 1, cache.Len())
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.True(t, IsTransient(&StatusError{Code: 500}))
	assert.True(t, IsTransient(&StatusError{Code: 429}))
	assert.False(t, IsTransient(&StatusError{Code: 403}))
	assert.True(t, IsTransient(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)))
}
