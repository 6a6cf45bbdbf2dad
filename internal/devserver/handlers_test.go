package devserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optiondash-desktop/internal/api"
	"optiondash-desktop/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(token string) (*gin.Engine, *JobStore, *manualClock) {
	store, clock := newTestStore()
	return SetupRoutes(NewHandlers(store), token), store, clock
}

func perform(router http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandlers(t *testing.T) {
	t.Run("Should create and list tasks", func(t *testing.T) {
		router, _, _ := newTestRouter("")

		w := perform(router, http.MethodPost, "/api/tasks", `{"task_type":"ai_report"}`, nil)
		require.Equal(t, http.StatusCreated, w.Code)
		var created models.Task
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.Equal(t, models.StatusPending, created.Status)

		w = perform(router, http.MethodGet, "/api/tasks?limit=10", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var list TaskListResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		assert.Equal(t, 1, list.Total)
		require.Len(t, list.Items, 1)
		assert.Equal(t, created.ID, list.Items[0].ID)
	})

	t.Run("Should default task type", func(t *testing.T) {
		router, _, _ := newTestRouter("")

		w := perform(router, http.MethodPost, "/api/tasks", `{}`, nil)
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"task_type":"ai_report"`)
	})

	t.Run("Should reject bad paging", func(t *testing.T) {
		router, _, _ := newTestRouter("")

		w := perform(router, http.MethodGet, "/api/tasks?limit=-1", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "detail")
	})

	t.Run("Should return 404 with detail for unknown task", func(t *testing.T) {
		router, _, _ := newTestRouter("")

		w := perform(router, http.MethodGet, "/api/tasks/missing", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"detail":"Task not found"}`, w.Body.String())

		w = perform(router, http.MethodDelete, "/api/tasks/missing", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Should delete with 204", func(t *testing.T) {
		router, store, _ := newTestRouter("")
		created := store.Create(models.TaskTypeAIReport, false)

		w := perform(router, http.MethodDelete, "/api/tasks/"+created.ID, "", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		_, err := store.Get(created.ID)
		assert.ErrorIs(t, err, models.ErrTaskNotFound)
	})

	t.Run("Should require bearer token when configured", func(t *testing.T) {
		router, _, _ := newTestRouter("secret")

		w := perform(router, http.MethodGet, "/api/users/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = perform(router, http.MethodGet, "/api/users/me", "", http.Header{"Authorization": {"Bearer secret"}})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"username":"dev"`)

		w = perform(router, http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestClientAgainstDevServer(t *testing.T) {
	router, store, clock := newTestRouter("secret")
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	client := api.NewClient(server.URL, "secret", 5*time.Second)
	ctx := context.Background()

	created := store.Create(models.TaskTypeAIReport, false)

	tasks, err := client.ListTasks(ctx, models.TaskFilter{Limit: 50})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.StatusPending, tasks[0].Status)

	clock.Advance(time.Hour)

	task, err := client.GetTask(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, task.Status)

	profile, err := client.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.ReportsUsed)

	require.NoError(t, client.DeleteTask(ctx, created.ID))

	err = client.DeleteTask(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, "Task not found", api.Detail(err))

	_, err = client.GetTask(ctx, created.ID)
	assert.ErrorIs(t, err, models.ErrTaskNotFound)
}
