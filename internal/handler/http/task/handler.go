package task

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rusithink-backend/internal/domain"
	"rusithink-backend/internal/middleware"
	"rusithink-backend/internal/service/task"
	"rusithink-backend/pkg/response"
)

// Handler handles task HTTP requests
type Handler struct {
	taskService *task.Service
}

// NewHandler creates a new task handler
func NewHandler(taskService *task.Service) *Handler {
	return &Handler{taskService: taskService}
}

// UpdateStatusRequest carries a status transition
type UpdateStatusRequest struct {
	Status domain.TaskStatus `json:"status" binding:"required,oneof=pending completed overdue"`
}

// CreateTask creates a task
// POST /api/tasks
func (h *Handler) CreateTask(c *gin.Context) {
	var req domain.TaskCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	identity, _ := middleware.IdentityFromContext(c)

	created, err := h.taskService.CreateTask(c.Request.Context(), identity, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, created)
}

// ListTasks lists the caller's tasks
// GET /api/tasks
func (h *Handler) ListTasks(c *gin.Context) {
	identity, _ := middleware.IdentityFromContext(c)

	tasks, err := h.taskService.ListTasks(c.Request.Context(), identity)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, tasks)
}

// GetTask retrieves one task
// GET /api/tasks/:task_id
func (h *Handler) GetTask(c *gin.Context) {
	identity, _ := middleware.IdentityFromContext(c)

	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		response.ValidationError(c, "Invalid task ID")
		return
	}

	found, err := h.taskService.GetTask(c.Request.Context(), identity, taskID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, found)
}

// UpdateTask applies a partial update
// PUT /api/tasks/:task_id
func (h *Handler) UpdateTask(c *gin.Context) {
	var req domain.TaskUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	identity, _ := middleware.IdentityFromContext(c)

	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		response.ValidationError(c, "Invalid task ID")
		return
	}

	updated, err := h.taskService.UpdateTask(c.Request.Context(), identity, taskID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, updated)
}

// UpdateStatus transitions a task's lifecycle state
// PATCH /api/tasks/:task_id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	identity, _ := middleware.IdentityFromContext(c)

	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		response.ValidationError(c, "Invalid task ID")
		return
	}

	updated, err := h.taskService.UpdateStatus(c.Request.Context(), identity, taskID, req.Status)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, updated)
}

// DeleteTask removes a task
// DELETE /api/tasks/:task_id
func (h *Handler) DeleteTask(c *gin.Context) {
	identity, _ := middleware.IdentityFromContext(c)

	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		response.ValidationError(c, "Invalid task ID")
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), identity, taskID); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// Stats returns the caller's dashboard overview
// GET /api/tasks/stats/overview
func (h *Handler) Stats(c *gin.Context) {
	identity, _ := middleware.IdentityFromContext(c)

	stats, err := h.taskService.Stats(c.Request.Context(), identity)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}
