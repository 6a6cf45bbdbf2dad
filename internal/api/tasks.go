package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"optiondash-desktop/internal/models"
)

// taskPayload is the wire form of a task; decoded into models.Task only after validation
type taskPayload struct {
	ID        string    `json:"id"`
	TaskType  string    `json:"task_type"`
	Status    string    `json:"status"`
	ResultRef *string   `json:"result_ref"`
	CreatedAt time.Time `json:"created_at"`
}

type taskListPayload struct {
	Items []taskPayload `json:"items"`
	Total int           `json:"total"`
}

func (p taskPayload) toTask() (models.Task, error) {
	status, err := models.ParseTaskStatus(p.Status)
	if err != nil {
		return models.Task{}, fmt.Errorf("task %s: %w", p.ID, err)
	}
	task := models.Task{
		ID:        p.ID,
		TaskType:  p.TaskType,
		Status:    status,
		ResultRef: p.ResultRef,
		CreatedAt: p.CreatedAt,
	}
	if err := task.Validate(); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// ListTasks fetches one page of the caller's tasks, newest first
func (c *Client) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	params := map[string]string{}
	if filter.Limit > 0 {
		params["limit"] = strconv.Itoa(filter.Limit)
	}
	if filter.Skip > 0 {
		params["skip"] = strconv.Itoa(filter.Skip)
	}
	if filter.ResultRef != "" {
		params["result_ref"] = filter.ResultRef
	}

	resp, err := c.request(c.query).
		SetContext(ctx).
		SetQueryParams(params).
		Get(c.buildURL("api/tasks"))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("failed to fetch tasks: %w", newStatusError(resp))
	}

	var result taskListPayload
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse task list: %w", err)
	}

	// A malformed row is dropped rather than failing the whole page
	tasks := make([]models.Task, 0, len(result.Items))
	for _, item := range result.Items {
		task, err := item.toTask()
		if err != nil {
			log.Printf("[api] WARNING: Skipping invalid task in list: %v", err)
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// GetTask fetches a single task. Terminal tasks never change, so they are
// served from the detail cache after the first fetch.
func (c *Client) GetTask(ctx context.Context, id string) (*models.Task, error) {
	if task, ok := c.details.Get(id); ok {
		return &task, nil
	}

	resp, err := c.request(c.query).
		SetContext(ctx).
		SetPathParam("id", id).
		Get(c.buildURL("api/tasks/{id}"))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch task %s: %w", id, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		c.details.Remove(id)
		return nil, fmt.Errorf("task %s: %w", id, models.ErrTaskNotFound)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("failed to fetch task %s: %w", id, newStatusError(resp))
	}

	var payload taskPayload
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse task %s: %w", id, err)
	}
	task, err := payload.toTask()
	if err != nil {
		return nil, fmt.Errorf("failed to parse task %s: %w", id, err)
	}

	if task.Status.Terminal() {
		c.details.Put(id, task)
	}
	return &task, nil
}

// DeleteTask removes a task on the server. It is sent exactly once.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	resp, err := c.request(c.mutate).
		SetContext(ctx).
		SetPathParam("id", id).
		Delete(c.buildURL("api/tasks/{id}"))
	if err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("failed to delete task %s: %w", id, newStatusError(resp))
	}

	c.details.Remove(id)
	return nil
}
