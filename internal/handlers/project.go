package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lumosoft/agencyhub/internal/middleware"
	"github.com/lumosoft/agencyhub/internal/services"
	"github.com/lumosoft/agencyhub/pkg/response"
	"gorm.io/gorm"
)

// ProjectHandler manages client engagements and their task boards.
// Clients see only their own projects; admins see everything.
type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{
		projectService: services.NewProjectService(db),
	}
}

// scopeClientID returns 0 for admins (unrestricted) and the caller's
// own ID otherwise.
func scopeClientID(c *gin.Context) uint {
	if middleware.IsAdmin(c) {
		return 0
	}
	return middleware.GetUserID(c)
}

func (h *ProjectHandler) List(c *gin.Context) {
	var req services.ProjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.projectService.List(scopeClientID(c), &req)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, resp)
}

func (h *ProjectHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	project, err := h.projectService.GetByID(uint(id), scopeClientID(c))
	if err != nil {
		response.NotFound(c, "project not found")
		return
	}

	response.Success(c, project)
}

func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Create(middleware.GetUserID(c), &req)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Created(c, project)
}

func (h *ProjectHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req services.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	// Only admins move projects through the pipeline.
	if req.Status != nil && !middleware.IsAdmin(c) {
		response.Forbidden(c, "only admins can change project status")
		return
	}

	project, err := h.projectService.Update(uint(id), scopeClientID(c), &req)
	if err != nil {
		response.NotFound(c, "project not found")
		return
	}

	response.Success(c, project)
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	if err := h.projectService.Delete(uint(id), scopeClientID(c)); err != nil {
		response.NotFound(c, err.Error())
		return
	}

	response.Success(c, gin.H{"message": "project deleted successfully"})
}

// ListTasks returns a project's tasks in board order.
// GET /api/projects/:id/tasks
func (h *ProjectHandler) ListTasks(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	// Ownership check first; the task table has no client column.
	if _, err := h.projectService.GetByID(uint(id), scopeClientID(c)); err != nil {
		response.NotFound(c, "project not found")
		return
	}

	tasks, err := h.projectService.ListTasks(uint(id))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, tasks)
}

// CreateTask adds a manual task to a project.
// POST /api/projects/:id/tasks
func (h *ProjectHandler) CreateTask(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	if _, err := h.projectService.GetByID(uint(id), scopeClientID(c)); err != nil {
		response.NotFound(c, "project not found")
		return
	}

	var req services.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.projectService.CreateTask(uint(id), &req)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Created(c, task)
}

// UpdateTask applies a partial update to a task.
// PUT /api/projects/:id/tasks/:taskId
func (h *ProjectHandler) UpdateTask(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}
	taskID, err := strconv.ParseUint(c.Param("taskId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid task id")
		return
	}

	if _, err := h.projectService.GetByID(uint(id), scopeClientID(c)); err != nil {
		response.NotFound(c, "project not found")
		return
	}

	var req services.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.projectService.UpdateTask(uint(id), uint(taskID), &req)
	if err != nil {
		response.NotFound(c, "task not found")
		return
	}

	response.Success(c, task)
}

// DeleteTask removes a task.
// DELETE /api/projects/:id/tasks/:taskId
func (h *ProjectHandler) DeleteTask(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}
	taskID, err := strconv.ParseUint(c.Param("taskId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid task id")
		return
	}

	if _, err := h.projectService.GetByID(uint(id), scopeClientID(c)); err != nil {
		response.NotFound(c, "project not found")
		return
	}

	if err := h.projectService.DeleteTask(uint(id), uint(taskID)); err != nil {
		response.NotFound(c, err.Error())
		return
	}

	response.Success(c, gin.H{"message": "task deleted successfully"})
}
