package services

import (
	"testing"

	"github.com/lumosoft/agencyhub/internal/models"
)

func TestAISettingCreate_RejectsUnknownProvider(t *testing.T) {
	db := openTestDB(t)
	svc := NewAISettingService(db)

	_, err := svc.Create(&CreateAISettingRequest{
		Provider: "cohere",
		APIKey:   "key",
	})
	if err == nil {
		t.Error("unknown provider should be rejected")
	}
}

func TestAISettingCreate_MasksKey(t *testing.T) {
	db := openTestDB(t)
	svc := NewAISettingService(db)

	setting, err := svc.Create(&CreateAISettingRequest{
		Provider: "openai",
		APIKey:   "sk-proj-0123456789abcdef",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if setting.APIKeyMask != "sk-p****cdef" {
		t.Errorf("APIKeyMask = %q", setting.APIKeyMask)
	}
}

func TestAISetting_SingleActiveInvariant(t *testing.T) {
	db := openTestDB(t)
	svc := NewAISettingService(db)

	first, err := svc.Create(&CreateAISettingRequest{Provider: "openai", APIKey: "key-one", IsActive: true})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	second, err := svc.Create(&CreateAISettingRequest{Provider: "anthropic", APIKey: "key-two", IsActive: true})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	var activeCount int64
	db.Model(&models.AISetting{}).Where("is_active = ?", true).Count(&activeCount)
	if activeCount != 1 {
		t.Fatalf("active count = %d, expected 1", activeCount)
	}

	active, err := svc.GetActive()
	if err != nil {
		t.Fatalf("GetActive() error = %v", err)
	}
	if active.ID != second.ID {
		t.Errorf("active = %d, expected the most recently activated %d", active.ID, second.ID)
	}

	// Switching back via Activate must flip both rows.
	if _, err := svc.Activate(first.ID); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	active, _ = svc.GetActive()
	if active.ID != first.ID {
		t.Errorf("active = %d after Activate, expected %d", active.ID, first.ID)
	}
	db.Model(&models.AISetting{}).Where("is_active = ?", true).Count(&activeCount)
	if activeCount != 1 {
		t.Errorf("active count = %d after Activate, expected 1", activeCount)
	}
}

func TestAISettingGetActive_NilWhenNone(t *testing.T) {
	db := openTestDB(t)
	svc := NewAISettingService(db)

	active, err := svc.GetActive()
	if err != nil {
		t.Fatalf("GetActive() error = %v", err)
	}
	if active != nil {
		t.Errorf("expected nil active setting, got %+v", active)
	}
}

func TestAISettingUpdate_EmptyKeyKeepsExisting(t *testing.T) {
	db := openTestDB(t)
	svc := NewAISettingService(db)

	setting, _ := svc.Create(&CreateAISettingRequest{Provider: "openai", APIKey: "original-key-12345"})

	model := "gpt-4o-mini"
	updated, err := svc.Update(setting.ID, &UpdateAISettingRequest{Model: &model})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q", updated.Model)
	}
	if updated.APIKey != "original-key-12345" {
		t.Error("an empty api_key in the update must not clear the stored key")
	}
}
