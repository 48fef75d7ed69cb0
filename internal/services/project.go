package services

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/lumosoft/agencyhub/internal/models"
	"gorm.io/gorm"
)

// ProjectService manages client engagements and their task lists.
type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

type ProjectListRequest struct {
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	Status   string `form:"status"`
}

type ProjectListResponse struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Items    []models.Project `json:"items"`
}

type CreateProjectRequest struct {
	ServiceName     string            `json:"service_name" binding:"required"`
	Description     string            `json:"description"`
	QuestionAnswers map[string]string `json:"question_answers"`
}

type UpdateProjectRequest struct {
	ServiceName *string            `json:"service_name"`
	Description *string            `json:"description"`
	Status      *string            `json:"status"`
	Answers     *map[string]string `json:"question_answers"`
}

// List returns paginated projects. A zero clientID lists all projects
// (admin view); otherwise only the client's own.
func (s *ProjectService) List(clientID uint, req *ProjectListRequest) (*ProjectListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 10
	}

	var projects []models.Project
	var total int64

	query := s.db.Model(&models.Project{})
	if clientID > 0 {
		query = query.Where("client_id = ?", clientID)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}

	return &ProjectListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    projects,
	}, nil
}

// GetByID returns a project, restricted to its owner unless clientID is zero.
func (s *ProjectService) GetByID(id, clientID uint) (*models.Project, error) {
	var project models.Project
	query := s.db.Where("id = ?", id)
	if clientID > 0 {
		query = query.Where("client_id = ?", clientID)
	}
	if err := query.First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// Create opens a new engagement in the inquiry state.
func (s *ProjectService) Create(clientID uint, req *CreateProjectRequest) (*models.Project, error) {
	answers := ""
	if len(req.QuestionAnswers) > 0 {
		if b, err := json.Marshal(req.QuestionAnswers); err == nil {
			answers = string(b)
		}
	}

	project := models.Project{
		PublicID:        uuid.NewString(),
		ClientID:        clientID,
		ServiceName:     req.ServiceName,
		Description:     req.Description,
		QuestionAnswers: answers,
		Status:          models.ProjectStatusInquiry,
	}

	if err := s.db.Create(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// Update applies a partial update.
func (s *ProjectService) Update(id, clientID uint, req *UpdateProjectRequest) (*models.Project, error) {
	project, err := s.GetByID(id, clientID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.ServiceName != nil {
		updates["service_name"] = *req.ServiceName
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Answers != nil {
		if b, err := json.Marshal(*req.Answers); err == nil {
			updates["question_answers"] = string(b)
		}
	}

	if err := s.db.Model(project).Updates(updates).Error; err != nil {
		return nil, err
	}

	s.db.First(project, id)
	return project, nil
}

// Delete soft-deletes a project.
func (s *ProjectService) Delete(id, clientID uint) error {
	query := s.db.Where("id = ?", id)
	if clientID > 0 {
		query = query.Where("client_id = ?", clientID)
	}
	result := query.Delete(&models.Project{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("project not found")
	}
	return nil
}

// SavePRD stores a generated requirements document on the project.
func (s *ProjectService) SavePRD(id uint, prd string) error {
	return s.db.Model(&models.Project{}).Where("id = ?", id).Update("prd", prd).Error
}

// ReplaceGeneratedTasks swaps out a project's AI-sourced tasks for a
// freshly generated list. Manually created tasks are untouched.
func (s *ProjectService) ReplaceGeneratedTasks(projectID uint, generated []GeneratedTask) ([]models.Task, error) {
	var saved []models.Task

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ? AND source = ?", projectID, "ai").Delete(&models.Task{}).Error; err != nil {
			return err
		}

		for i, gt := range generated {
			task := models.Task{
				ProjectID:      projectID,
				Title:          gt.Title,
				Description:    gt.Description,
				Priority:       normalizePriority(gt.Priority),
				EstimatedHours: gt.EstimatedHours,
				Status:         "todo",
				SortOrder:      i,
				Source:         "ai",
			}
			if err := tx.Create(&task).Error; err != nil {
				return err
			}
			saved = append(saved, task)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// ListTasks returns a project's tasks in board order.
func (s *ProjectService) ListTasks(projectID uint) ([]models.Task, error) {
	var tasks []models.Task
	if err := s.db.Where("project_id = ?", projectID).Order("sort_order ASC, id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

type CreateTaskRequest struct {
	Title          string  `json:"title" binding:"required"`
	Description    string  `json:"description"`
	Priority       string  `json:"priority"`
	EstimatedHours float64 `json:"estimated_hours"`
}

// CreateTask adds a manual task to a project.
func (s *ProjectService) CreateTask(projectID uint, req *CreateTaskRequest) (*models.Task, error) {
	task := models.Task{
		ProjectID:      projectID,
		Title:          req.Title,
		Description:    req.Description,
		Priority:       normalizePriority(req.Priority),
		EstimatedHours: req.EstimatedHours,
		Status:         "todo",
		Source:         "manual",
	}
	if err := s.db.Create(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

type UpdateTaskRequest struct {
	Title          *string  `json:"title"`
	Description    *string  `json:"description"`
	Priority       *string  `json:"priority"`
	Status         *string  `json:"status"`
	EstimatedHours *float64 `json:"estimated_hours"`
	SortOrder      *int     `json:"sort_order"`
}

// UpdateTask applies a partial update to a task. The task must belong
// to the given project; a task id from another project is not found.
func (s *ProjectService) UpdateTask(projectID, taskID uint, req *UpdateTaskRequest) (*models.Task, error) {
	var task models.Task
	if err := s.db.Where("project_id = ?", projectID).First(&task, taskID).Error; err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Priority != nil {
		updates["priority"] = normalizePriority(*req.Priority)
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.EstimatedHours != nil {
		updates["estimated_hours"] = *req.EstimatedHours
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}

	if err := s.db.Model(&task).Updates(updates).Error; err != nil {
		return nil, err
	}

	s.db.First(&task, taskID)
	return &task, nil
}

// DeleteTask removes a task from the given project.
func (s *ProjectService) DeleteTask(projectID, taskID uint) error {
	result := s.db.Where("project_id = ?", projectID).Delete(&models.Task{}, taskID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("task not found")
	}
	return nil
}

func normalizePriority(p string) string {
	switch p {
	case "high", "medium", "low":
		return p
	default:
		return "medium"
	}
}
