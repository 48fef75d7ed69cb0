package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lumosoft/agencyhub/internal/middleware"
	"github.com/lumosoft/agencyhub/internal/models"
	"github.com/lumosoft/agencyhub/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Project{}, &models.Task{},
		&models.AISetting{}, &models.AIUsageLog{}, &models.SystemConfig{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// stubGenerator returns a canned reply or error without network calls.
type stubGenerator struct {
	out *services.GenerationOutput
	err error
}

func (g *stubGenerator) GeneratePRD(context.Context, *models.AISetting, services.PRDInput) (*services.GenerationOutput, error) {
	return g.out, g.err
}
func (g *stubGenerator) GenerateTasks(context.Context, *models.AISetting, string) (*services.GenerationOutput, error) {
	return g.out, g.err
}
func (g *stubGenerator) SuggestDescriptions(context.Context, *models.AISetting, string) (*services.GenerationOutput, error) {
	return g.out, g.err
}
func (g *stubGenerator) EnhanceDescription(context.Context, *models.AISetting, string) (*services.GenerationOutput, error) {
	return g.out, g.err
}

func newGenerateRouter(db *gorm.DB, g Generator, userID uint, role string) *gin.Engine {
	h := NewGenerateHandlerWithGenerator(db, g)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextRole, role)
	})
	r.POST("/api/ai/generate", h.Generate)
	r.GET("/api/ai/generate", h.UsageStatus)
	return r
}

func postGenerate(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/ai/generate", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func activateTestSetting(t *testing.T, db *gorm.DB) {
	t.Helper()
	err := db.Create(&models.AISetting{
		Provider: "openai",
		APIKey:   "sk-test",
		Model:    "gpt-4o",
		IsActive: true,
	}).Error
	if err != nil {
		t.Fatalf("failed to create setting: %v", err)
	}
}

func TestGenerate_InvalidType(t *testing.T) {
	db := openTestDB(t)
	activateTestSetting(t, db)
	r := newGenerateRouter(db, &stubGenerator{}, 1, "client")

	w := postGenerate(r, `{"type": "poem"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400", w.Code)
	}

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["code"] != "INVALID_TYPE" {
		t.Errorf("code = %v, expected INVALID_TYPE", resp["code"])
	}
}

func TestGenerate_NotConfigured(t *testing.T) {
	db := openTestDB(t)
	r := newGenerateRouter(db, &stubGenerator{}, 1, "client")

	w := postGenerate(r, `{"type": "prd", "data": {"service_name": "Web", "description": "A site"}}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, expected 503", w.Code)
	}

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["code"] != "NOT_CONFIGURED" {
		t.Errorf("code = %v, expected NOT_CONFIGURED", resp["code"])
	}
}

func TestGenerate_LimitReached(t *testing.T) {
	db := openTestDB(t)
	activateTestSetting(t, db)
	for i := 0; i < models.DefaultGenerationLimit; i++ {
		db.Create(&models.AIUsageLog{UserID: 1, GenerationType: "prd", Status: models.UsageStatusSuccess})
	}

	r := newGenerateRouter(db, &stubGenerator{out: &services.GenerationOutput{Text: "doc"}}, 1, "client")

	w := postGenerate(r, `{"type": "prd", "data": {"service_name": "Web", "description": "A site"}}`)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, expected 429", w.Code)
	}

	var resp struct {
		Code  string `json:"code"`
		Usage struct {
			Used      int `json:"used"`
			Remaining int `json:"remaining"`
		} `json:"usage"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != "LIMIT_REACHED" {
		t.Errorf("code = %q, expected LIMIT_REACHED", resp.Code)
	}
	if resp.Usage.Used != 3 || resp.Usage.Remaining != 0 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

func TestGenerate_Success(t *testing.T) {
	db := openTestDB(t)
	activateTestSetting(t, db)

	stub := &stubGenerator{out: &services.GenerationOutput{
		Text:             "## Overview\nA PRD.",
		PromptTokens:     100,
		CompletionTokens: 250,
	}}
	r := newGenerateRouter(db, stub, 1, "client")

	w := postGenerate(r, `{"type": "prd", "data": {"service_name": "Web", "description": "A site"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200, body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool   `json:"success"`
		Result  string `json:"result"`
		IsAdmin bool   `json:"is_admin"`
		Usage   struct {
			Used      int `json:"used"`
			Limit     int `json:"limit"`
			Remaining int `json:"remaining"`
		} `json:"usage"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Success {
		t.Error("success should be true")
	}
	if resp.Result != "## Overview\nA PRD." {
		t.Errorf("result = %q", resp.Result)
	}
	if resp.Usage.Used != 1 || resp.Usage.Remaining != 2 {
		t.Errorf("usage should reflect this call: %+v", resp.Usage)
	}

	// The attempt must be audited with token counts.
	var row models.AIUsageLog
	if err := db.Where("status = ?", models.UsageStatusSuccess).First(&row).Error; err != nil {
		t.Fatalf("expected a success usage row: %v", err)
	}
	if row.TotalTokens != 350 {
		t.Errorf("TotalTokens = %d, expected 350", row.TotalTokens)
	}
}

func TestGenerate_TasksResultIsArray(t *testing.T) {
	db := openTestDB(t)
	activateTestSetting(t, db)

	stub := &stubGenerator{out: &services.GenerationOutput{
		Tasks: []services.GeneratedTask{{Title: "Setup", Priority: "high", EstimatedHours: 2}},
	}}
	r := newGenerateRouter(db, stub, 1, "client")

	w := postGenerate(r, `{"type": "tasks", "data": {"prd": "## Overview"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Result []services.GeneratedTask `json:"result"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Result) != 1 || resp.Result[0].Title != "Setup" {
		t.Errorf("result = %+v", resp.Result)
	}
}

func TestGenerate_UpstreamFailure(t *testing.T) {
	db := openTestDB(t)
	activateTestSetting(t, db)

	stub := &stubGenerator{err: errors.New("openai API error: 502")}
	r := newGenerateRouter(db, stub, 1, "client")

	w := postGenerate(r, `{"type": "prd", "data": {"service_name": "Web", "description": "A site"}}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, expected 500", w.Code)
	}

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["code"] != "GENERATION_FAILED" {
		t.Errorf("code = %v, expected GENERATION_FAILED", resp["code"])
	}

	// Failures never consume quota but are still audited.
	var count int64
	db.Model(&models.AIUsageLog{}).Where("status = ?", models.UsageStatusError).Count(&count)
	if count != 1 {
		t.Errorf("error rows = %d, expected 1", count)
	}
}

func TestGenerate_MissingInput(t *testing.T) {
	db := openTestDB(t)
	activateTestSetting(t, db)

	stub := &stubGenerator{err: services.ErrMissingInput}
	r := newGenerateRouter(db, stub, 1, "client")

	w := postGenerate(r, `{"type": "prd", "data": {}}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400", w.Code)
	}
}

func TestGenerate_AdminPastLimit(t *testing.T) {
	db := openTestDB(t)
	activateTestSetting(t, db)
	for i := 0; i < 10; i++ {
		db.Create(&models.AIUsageLog{UserID: 1, GenerationType: "prd", Status: models.UsageStatusSuccess})
	}

	stub := &stubGenerator{out: &services.GenerationOutput{Text: "doc"}}
	r := newGenerateRouter(db, stub, 1, "admin")

	w := postGenerate(r, `{"type": "prd", "data": {"service_name": "Web", "description": "A site"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200 for admin", w.Code)
	}

	var resp struct {
		IsAdmin bool `json:"is_admin"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.IsAdmin {
		t.Error("is_admin should be true")
	}
}

func TestGenerate_PersistsPRDOnProject(t *testing.T) {
	db := openTestDB(t)
	activateTestSetting(t, db)

	project := models.Project{PublicID: "pub-1", ClientID: 1, ServiceName: "Web", Status: models.ProjectStatusInquiry}
	db.Create(&project)

	stub := &stubGenerator{out: &services.GenerationOutput{Text: "generated PRD"}}
	r := newGenerateRouter(db, stub, 1, "client")

	body, _ := json.Marshal(gin.H{
		"type":       "prd",
		"project_id": project.ID,
		"data":       gin.H{"service_name": "Web", "description": "A site"},
	})
	w := postGenerate(r, string(body))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}

	var saved models.Project
	db.First(&saved, project.ID)
	if saved.PRD != "generated PRD" {
		t.Errorf("PRD = %q, expected the generated document", saved.PRD)
	}
}

func TestGenerate_ForeignProjectRejected(t *testing.T) {
	db := openTestDB(t)
	activateTestSetting(t, db)

	victim := models.Project{PublicID: "pub-victim", ClientID: 1, ServiceName: "Web", Status: models.ProjectStatusInquiry, PRD: "original PRD"}
	db.Create(&victim)

	stub := &stubGenerator{out: &services.GenerationOutput{Text: "overwritten PRD"}}
	r := newGenerateRouter(db, stub, 2, "client")

	body, _ := json.Marshal(gin.H{
		"type":       "prd",
		"project_id": victim.ID,
		"data":       gin.H{"service_name": "Web", "description": "A site"},
	})
	w := postGenerate(r, string(body))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, expected 404 for another client's project", w.Code)
	}

	var saved models.Project
	db.First(&saved, victim.ID)
	if saved.PRD != "original PRD" {
		t.Errorf("PRD = %q, the victim project must be untouched", saved.PRD)
	}

	// The rejected attempt must not consume quota or reach the provider.
	var count int64
	db.Model(&models.AIUsageLog{}).Count(&count)
	if count != 0 {
		t.Errorf("usage rows = %d, expected 0", count)
	}
}

func TestGenerate_AdminMayTargetAnyProject(t *testing.T) {
	db := openTestDB(t)
	activateTestSetting(t, db)

	project := models.Project{PublicID: "pub-2", ClientID: 1, ServiceName: "Web", Status: models.ProjectStatusInquiry}
	db.Create(&project)

	stub := &stubGenerator{out: &services.GenerationOutput{Text: "admin PRD"}}
	r := newGenerateRouter(db, stub, 99, "admin")

	body, _ := json.Marshal(gin.H{
		"type":       "prd",
		"project_id": project.ID,
		"data":       gin.H{"service_name": "Web", "description": "A site"},
	})
	w := postGenerate(r, string(body))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200 for admin", w.Code)
	}

	var saved models.Project
	db.First(&saved, project.ID)
	if saved.PRD != "admin PRD" {
		t.Errorf("PRD = %q", saved.PRD)
	}
}

func TestGenerate_MissingInputCarriesCode(t *testing.T) {
	db := openTestDB(t)
	activateTestSetting(t, db)

	stub := &stubGenerator{err: services.ErrMissingInput}
	r := newGenerateRouter(db, stub, 1, "client")

	w := postGenerate(r, `{"type": "prd", "data": {}}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400", w.Code)
	}

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["code"] != "INVALID_TYPE" {
		t.Errorf("code = %v, expected INVALID_TYPE", resp["code"])
	}
}

func TestUsageStatus(t *testing.T) {
	db := openTestDB(t)
	activateTestSetting(t, db)
	db.Create(&models.AIUsageLog{UserID: 1, GenerationType: "prd", Status: models.UsageStatusSuccess})

	r := newGenerateRouter(db, &stubGenerator{}, 1, "client")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/ai/generate", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", w.Code)
	}

	var resp struct {
		Configured bool `json:"configured"`
		Usage      struct {
			Used int `json:"used"`
		} `json:"usage"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Configured {
		t.Error("configured should be true")
	}
	if resp.Usage.Used != 1 {
		t.Errorf("used = %d, expected 1", resp.Usage.Used)
	}
}
