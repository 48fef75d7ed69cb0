package services

import (
	"fmt"
	"sort"
	"strings"
)

// Prompt builders for the four generation operations. Plain string
// templating; the wording mirrors what the portal UI expects back
// (markdown for PRDs, a bare JSON array for task lists).

// BuildPRDPrompt renders the requirements-document prompt. Onboarding
// answer keys use snake_case internally; they are rendered with spaces
// so the model reads them as natural language.
func BuildPRDPrompt(serviceName, description string, questionAnswers map[string]string) string {
	var b strings.Builder

	b.WriteString("You are a senior technical project manager at a software agency. ")
	b.WriteString("Draft a Project Requirements Document (PRD) in markdown for the following client project.\n\n")
	fmt.Fprintf(&b, "Service: %s\n", serviceName)
	fmt.Fprintf(&b, "Client description: %s\n", description)

	if len(questionAnswers) > 0 {
		b.WriteString("\nOnboarding answers:\n")
		keys := make([]string, 0, len(questionAnswers))
		for k := range questionAnswers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", strings.ReplaceAll(k, "_", " "), questionAnswers[k])
		}
	}

	b.WriteString(`
The PRD must contain these sections:
## Overview
## Goals
## Scope
## Functional Requirements
## Out of Scope
## Milestones

Write in clear, client-friendly language. Do not invent budget figures.`)

	return b.String()
}

// BuildTasksPrompt renders the task-breakdown prompt. The model is asked
// for a raw JSON array so the reply can be parsed directly.
func BuildTasksPrompt(prd string) string {
	var b strings.Builder

	b.WriteString("You are a senior technical project manager. Break the following PRD down into development tasks.\n\n")
	b.WriteString("Respond with ONLY a JSON array, no prose, where each element has this shape:\n")
	b.WriteString(`{"title": "...", "description": "...", "priority": "high|medium|low", "estimated_hours": 8}`)
	b.WriteString("\n\nPRD:\n")
	b.WriteString(prd)

	return b.String()
}

// BuildSuggestPrompt asks for three candidate project descriptions.
func BuildSuggestPrompt(serviceName string) string {
	return fmt.Sprintf(
		"Suggest three short, concrete project descriptions a client might write when requesting a %q project from a software agency. "+
			"Return them as a numbered list, one sentence each.", serviceName)
}

// BuildEnhancePrompt asks the model to polish a client-written description.
func BuildEnhancePrompt(description string) string {
	return fmt.Sprintf(
		"Rewrite the following project description so it is clear, specific and complete enough for an agency to scope. "+
			"Keep the client's intent, do not add features they did not ask for. Return only the rewritten description.\n\n%s",
		description)
}
