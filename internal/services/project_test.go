package services

import (
	"testing"

	"github.com/lumosoft/agencyhub/internal/models"
)

func createTestProject(t *testing.T, svc *ProjectService, clientID uint) *models.Project {
	t.Helper()
	project, err := svc.Create(clientID, &CreateProjectRequest{
		ServiceName: "Website Redesign",
		Description: "A storefront site",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return project
}

func TestProjectCreate_Defaults(t *testing.T) {
	db := openTestDB(t)
	svc := NewProjectService(db)

	project := createTestProject(t, svc, 1)
	if project.Status != models.ProjectStatusInquiry {
		t.Errorf("Status = %q, expected inquiry", project.Status)
	}
	if len(project.PublicID) != 36 {
		t.Errorf("PublicID should be a UUID, got %q", project.PublicID)
	}
}

func TestProjectList_ClientScoping(t *testing.T) {
	db := openTestDB(t)
	svc := NewProjectService(db)

	createTestProject(t, svc, 1)
	createTestProject(t, svc, 2)

	mine, err := svc.List(1, &ProjectListRequest{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if mine.Total != 1 {
		t.Errorf("client should see 1 project, got %d", mine.Total)
	}

	all, err := svc.List(0, &ProjectListRequest{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if all.Total != 2 {
		t.Errorf("admin should see 2 projects, got %d", all.Total)
	}
}

func TestProjectGetByID_OtherClientDenied(t *testing.T) {
	db := openTestDB(t)
	svc := NewProjectService(db)

	project := createTestProject(t, svc, 1)

	if _, err := svc.GetByID(project.ID, 2); err == nil {
		t.Error("another client must not read this project")
	}
	if _, err := svc.GetByID(project.ID, 0); err != nil {
		t.Errorf("admin scope should read it: %v", err)
	}
}

func TestSavePRD(t *testing.T) {
	db := openTestDB(t)
	svc := NewProjectService(db)

	project := createTestProject(t, svc, 1)
	if err := svc.SavePRD(project.ID, "## Overview"); err != nil {
		t.Fatalf("SavePRD() error = %v", err)
	}

	saved, _ := svc.GetByID(project.ID, 0)
	if saved.PRD != "## Overview" {
		t.Errorf("PRD = %q", saved.PRD)
	}
}

func TestReplaceGeneratedTasks_KeepsManualTasks(t *testing.T) {
	db := openTestDB(t)
	svc := NewProjectService(db)

	project := createTestProject(t, svc, 1)

	if _, err := svc.CreateTask(project.ID, &CreateTaskRequest{Title: "Kickoff call"}); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if _, err := svc.ReplaceGeneratedTasks(project.ID, []GeneratedTask{
		{Title: "Old AI task", Priority: "low", EstimatedHours: 1},
	}); err != nil {
		t.Fatalf("ReplaceGeneratedTasks() error = %v", err)
	}

	// A second generation replaces only the AI-sourced tasks.
	saved, err := svc.ReplaceGeneratedTasks(project.ID, []GeneratedTask{
		{Title: "New task A", Priority: "high", EstimatedHours: 4},
		{Title: "New task B", Priority: "bogus", EstimatedHours: 2},
	})
	if err != nil {
		t.Fatalf("ReplaceGeneratedTasks() error = %v", err)
	}
	if len(saved) != 2 {
		t.Fatalf("saved %d tasks, expected 2", len(saved))
	}
	if saved[0].SortOrder != 0 || saved[1].SortOrder != 1 {
		t.Error("tasks should keep generation order")
	}
	if saved[1].Priority != "medium" {
		t.Errorf("unknown priority should normalize to medium, got %q", saved[1].Priority)
	}

	tasks, _ := svc.ListTasks(project.ID)
	if len(tasks) != 3 {
		t.Fatalf("expected manual task plus 2 generated, got %d", len(tasks))
	}

	var manualSurvived bool
	for _, task := range tasks {
		if task.Source == "manual" && task.Title == "Kickoff call" {
			manualSurvived = true
		}
		if task.Title == "Old AI task" {
			t.Error("previous AI tasks should have been replaced")
		}
	}
	if !manualSurvived {
		t.Error("manual tasks must survive regeneration")
	}
}

func TestUpdateTask_PartialUpdate(t *testing.T) {
	db := openTestDB(t)
	svc := NewProjectService(db)

	project := createTestProject(t, svc, 1)
	task, _ := svc.CreateTask(project.ID, &CreateTaskRequest{Title: "Design", Priority: "high"})

	status := "done"
	updated, err := svc.UpdateTask(project.ID, task.ID, &UpdateTaskRequest{Status: &status})
	if err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if updated.Status != "done" {
		t.Errorf("Status = %q", updated.Status)
	}
	if updated.Title != "Design" || updated.Priority != "high" {
		t.Error("untouched fields must be preserved")
	}
}

func TestTaskMutation_BoundToProject(t *testing.T) {
	db := openTestDB(t)
	svc := NewProjectService(db)

	victim := createTestProject(t, svc, 1)
	victimTask, _ := svc.CreateTask(victim.ID, &CreateTaskRequest{Title: "Deploy"})

	attacker := createTestProject(t, svc, 2)

	// Pairing a foreign task id with a project the caller owns must not
	// reach the task.
	status := "done"
	if _, err := svc.UpdateTask(attacker.ID, victimTask.ID, &UpdateTaskRequest{Status: &status}); err == nil {
		t.Error("updating a task through another project should fail")
	}
	if err := svc.DeleteTask(attacker.ID, victimTask.ID); err == nil {
		t.Error("deleting a task through another project should fail")
	}

	tasks, _ := svc.ListTasks(victim.ID)
	if len(tasks) != 1 || tasks[0].Status != "todo" {
		t.Errorf("victim task should be untouched, got %+v", tasks)
	}
}
