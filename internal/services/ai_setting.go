package services

import (
	"errors"
	"fmt"

	"github.com/lumosoft/agencyhub/internal/models"
	"gorm.io/gorm"
)

// AISettingService manages administrator-configured provider credentials.
type AISettingService struct {
	db *gorm.DB
}

func NewAISettingService(db *gorm.DB) *AISettingService {
	return &AISettingService{db: db}
}

type CreateAISettingRequest struct {
	Provider              string `json:"provider" binding:"required"`
	APIKey                string `json:"api_key" binding:"required"`
	BaseURL               string `json:"base_url"`
	Model                 string `json:"model"`
	MaxGenerationsPerUser *int   `json:"max_generations_per_user"`
	IsActive              bool   `json:"is_active"`
}

type UpdateAISettingRequest struct {
	APIKey                string  `json:"api_key"`
	BaseURL               *string `json:"base_url"`
	Model                 *string `json:"model"`
	MaxGenerationsPerUser *int    `json:"max_generations_per_user"`
	IsActive              *bool   `json:"is_active"`
}

// List returns all provider settings with masked keys.
func (s *AISettingService) List() ([]models.AISetting, error) {
	var settings []models.AISetting
	if err := s.db.Order("is_active DESC, provider ASC").Find(&settings).Error; err != nil {
		return nil, err
	}
	for i := range settings {
		settings[i].APIKeyMask = settings[i].MaskAPIKey()
	}
	return settings, nil
}

// GetByID returns a setting by ID with a masked key.
func (s *AISettingService) GetByID(id uint) (*models.AISetting, error) {
	var setting models.AISetting
	if err := s.db.First(&setting, id).Error; err != nil {
		return nil, err
	}
	setting.APIKeyMask = setting.MaskAPIKey()
	return &setting, nil
}

// GetActive returns the single active setting, or nil when none exists.
func (s *AISettingService) GetActive() (*models.AISetting, error) {
	var setting models.AISetting
	if err := s.db.Where("is_active = ?", true).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

// Create creates a provider setting. Activating it deactivates every
// other setting so the single-active invariant holds.
func (s *AISettingService) Create(req *CreateAISettingRequest) (*models.AISetting, error) {
	if !SupportedProvider(req.Provider) {
		return nil, fmt.Errorf("unsupported provider: %s", req.Provider)
	}

	setting := models.AISetting{
		Provider:              req.Provider,
		APIKey:                req.APIKey,
		BaseURL:               req.BaseURL,
		Model:                 req.Model,
		MaxGenerationsPerUser: req.MaxGenerationsPerUser,
		IsActive:              req.IsActive,
	}

	if req.IsActive {
		if err := s.deactivateOthers(0); err != nil {
			return nil, err
		}
	}

	if err := s.db.Create(&setting).Error; err != nil {
		return nil, err
	}

	setting.APIKeyMask = setting.MaskAPIKey()
	return &setting, nil
}

// Update applies a partial update to a setting.
func (s *AISettingService) Update(id uint, req *UpdateAISettingRequest) (*models.AISetting, error) {
	var setting models.AISetting
	if err := s.db.First(&setting, id).Error; err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if req.APIKey != "" {
		updates["api_key"] = req.APIKey
	}
	if req.BaseURL != nil {
		updates["base_url"] = *req.BaseURL
	}
	if req.Model != nil {
		updates["model"] = *req.Model
	}
	if req.MaxGenerationsPerUser != nil {
		updates["max_generations_per_user"] = *req.MaxGenerationsPerUser
	}
	if req.IsActive != nil {
		if *req.IsActive {
			if err := s.deactivateOthers(id); err != nil {
				return nil, err
			}
		}
		updates["is_active"] = *req.IsActive
	}

	if err := s.db.Model(&setting).Updates(updates).Error; err != nil {
		return nil, err
	}

	s.db.First(&setting, id)
	setting.APIKeyMask = setting.MaskAPIKey()
	return &setting, nil
}

// Activate makes the given setting the active one.
func (s *AISettingService) Activate(id uint) (*models.AISetting, error) {
	active := true
	return s.Update(id, &UpdateAISettingRequest{IsActive: &active})
}

// Delete removes a provider setting.
func (s *AISettingService) Delete(id uint) error {
	result := s.db.Delete(&models.AISetting{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("ai setting not found")
	}
	return nil
}

func (s *AISettingService) deactivateOthers(exceptID uint) error {
	query := s.db.Model(&models.AISetting{}).Where("is_active = ?", true)
	if exceptID > 0 {
		query = query.Where("id != ?", exceptID)
	}
	return query.Update("is_active", false).Error
}
