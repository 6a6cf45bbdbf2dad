package devserver

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"optiondash-desktop/internal/models"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	store *JobStore
}

// NewHandlers creates a new handlers instance
func NewHandlers(store *JobStore) *Handlers {
	return &Handlers{store: store}
}

// CreateTaskRequest is the body of POST /api/tasks
type CreateTaskRequest struct {
	TaskType string `json:"task_type"`
	Fail     bool   `json:"fail"` // finish in FAILURE instead of SUCCESS
}

// TaskListResponse is the body of GET /api/tasks
type TaskListResponse struct {
	Items []models.Task `json:"items"`
	Total int           `json:"total"`
}

// ListTasksHandler handles GET /api/tasks
func (h *Handlers) ListTasksHandler(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "limit must be a non-negative integer"})
		return
	}
	skip, err := queryInt(c, "skip")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "skip must be a non-negative integer"})
		return
	}

	tasks, total := h.store.List(models.TaskFilter{
		Limit:     limit,
		Skip:      skip,
		ResultRef: c.Query("result_ref"),
	})
	c.JSON(http.StatusOK, TaskListResponse{Items: tasks, Total: total})
}

// GetTaskHandler handles GET /api/tasks/:id
func (h *Handlers) GetTaskHandler(c *gin.Context) {
	task, err := h.store.Get(c.Param("id"))
	if errors.Is(err, models.ErrTaskNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Task not found"})
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeleteTaskHandler handles DELETE /api/tasks/:id
func (h *Handlers) DeleteTaskHandler(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.Delete(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Task not found"})
		return
	}
	log.Printf("[devserver] Deleted task %s", id)
	c.Status(http.StatusNoContent)
}

// CreateTaskHandler handles POST /api/tasks
func (h *Handlers) CreateTaskHandler(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if strings.TrimSpace(req.TaskType) == "" {
		req.TaskType = models.TaskTypeAIReport
	}

	task := h.store.Create(req.TaskType, req.Fail)
	log.Printf("[devserver] Created %s task %s", task.TaskType, task.ID)
	c.JSON(http.StatusCreated, task)
}

// GetProfileHandler handles GET /api/users/me
func (h *Handlers) GetProfileHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Profile())
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid integer")
	}
	return n, nil
}
