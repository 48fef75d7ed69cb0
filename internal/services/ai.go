package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/lumosoft/agencyhub/internal/models"
	"github.com/lumosoft/agencyhub/pkg/logger"
	"github.com/ollama/ollama/api"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
	"gorm.io/gorm"
)

// Sentinel errors the generation endpoint maps to response codes.
var (
	// ErrMissingInput marks input-validation failures detected before
	// any network call.
	ErrMissingInput = errors.New("missing required input")
	// ErrMalformedResponse marks replies whose text does not contain
	// the expected JSON structure.
	ErrMalformedResponse = errors.New("invalid response format")
)

// providerInfo is the static capability entry for one provider:
// which SDK family handles it plus default endpoint and model.
type providerInfo struct {
	Family       string // openai, azure, anthropic, gemini, ollama
	BaseURL      string
	DefaultModel string
}

// providerDefaults maps provider name to its capabilities. Providers in
// the "openai" family speak the chat-completions wire format and differ
// only in base URL.
var providerDefaults = map[string]providerInfo{
	"openai":    {Family: "openai", BaseURL: "https://api.openai.com/v1", DefaultModel: "gpt-4o"},
	"azure":     {Family: "azure", DefaultModel: "gpt-4o"},
	"anthropic": {Family: "anthropic", DefaultModel: "claude-sonnet-4-20250514"},
	"google":    {Family: "gemini", DefaultModel: "gemini-2.0-flash"},
	"deepseek":  {Family: "openai", BaseURL: "https://api.deepseek.com/v1", DefaultModel: "deepseek-chat"},
	"groq":      {Family: "openai", BaseURL: "https://api.groq.com/openai/v1", DefaultModel: "llama-3.3-70b-versatile"},
	"mistral":   {Family: "openai", BaseURL: "https://api.mistral.ai/v1", DefaultModel: "mistral-large-latest"},
	"ollama":    {Family: "ollama", BaseURL: "http://localhost:11434", DefaultModel: "llama3"},
}

// SupportedProvider reports whether the provider name is dispatchable.
func SupportedProvider(name string) bool {
	_, ok := providerDefaults[name]
	return ok
}

// AIService translates logical generation operations into upstream
// provider calls and normalizes the replies. It carries no retry or
// backoff logic; the caller owns any retry decision.
type AIService struct {
	db *gorm.DB
}

func NewAIService(db *gorm.DB) *AIService {
	return &AIService{db: db}
}

// GeneratedTask is one element of a parsed task-breakdown reply.
type GeneratedTask struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Priority       string  `json:"priority"`
	EstimatedHours float64 `json:"estimated_hours"`
}

// GenerationOutput is the normalized result of one generation call.
// Tasks is populated only for the task-breakdown operation. Token
// counts are zero when the provider does not report them.
type GenerationOutput struct {
	Text             string          `json:"text,omitempty"`
	Tasks            []GeneratedTask `json:"tasks,omitempty"`
	PromptTokens     int             `json:"-"`
	CompletionTokens int             `json:"-"`
}

// PRDInput carries the fields of a requirements-document request.
type PRDInput struct {
	ServiceName     string
	Description     string
	QuestionAnswers map[string]string
}

// GeneratePRD drafts a markdown requirements document.
func (s *AIService) GeneratePRD(ctx context.Context, setting *models.AISetting, in PRDInput) (*GenerationOutput, error) {
	if strings.TrimSpace(in.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrMissingInput)
	}
	if strings.TrimSpace(in.ServiceName) == "" {
		return nil, fmt.Errorf("%w: service name is required", ErrMissingInput)
	}

	return s.complete(ctx, setting, BuildPRDPrompt(in.ServiceName, in.Description, in.QuestionAnswers))
}

// GenerateTasks breaks a PRD down into a task list. The reply text is
// expected to contain a JSON array, optionally fenced in code-block
// markers; anything else is a format error.
func (s *AIService) GenerateTasks(ctx context.Context, setting *models.AISetting, prd string) (*GenerationOutput, error) {
	if strings.TrimSpace(prd) == "" {
		return nil, fmt.Errorf("%w: prd is required", ErrMissingInput)
	}

	out, err := s.complete(ctx, setting, BuildTasksPrompt(prd))
	if err != nil {
		return nil, err
	}

	tasks, err := extractTaskArray(out.Text)
	if err != nil {
		return nil, err
	}

	out.Text = ""
	out.Tasks = tasks
	return out, nil
}

// SuggestDescriptions proposes candidate project descriptions.
func (s *AIService) SuggestDescriptions(ctx context.Context, setting *models.AISetting, serviceName string) (*GenerationOutput, error) {
	if strings.TrimSpace(serviceName) == "" {
		return nil, fmt.Errorf("%w: service name is required", ErrMissingInput)
	}

	return s.complete(ctx, setting, BuildSuggestPrompt(serviceName))
}

// EnhanceDescription polishes a client-written description.
func (s *AIService) EnhanceDescription(ctx context.Context, setting *models.AISetting, description string) (*GenerationOutput, error) {
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrMissingInput)
	}

	return s.complete(ctx, setting, BuildEnhancePrompt(description))
}

// complete dispatches one prompt to the provider named in the setting.
// All calls are issued directly: this server is the same-origin relay
// the browser-based predecessor had to proxy through.
func (s *AIService) complete(ctx context.Context, setting *models.AISetting, prompt string) (*GenerationOutput, error) {
	info, ok := providerDefaults[setting.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported provider: %s", setting.Provider)
	}

	logger.Infof("[AI] provider=%s model=%s prompt_chars=%d", setting.Provider, s.modelFor(setting, info), len(prompt))

	switch info.Family {
	case "anthropic":
		return s.callAnthropic(ctx, setting, info, prompt)
	case "gemini":
		return s.callGemini(ctx, setting, info, prompt)
	case "ollama":
		return s.callOllama(ctx, setting, info, prompt)
	case "azure":
		return s.callAzure(ctx, setting, prompt)
	default:
		// openai and OpenAI-compatible services
		return s.callOpenAI(ctx, setting, info, prompt)
	}
}

func (s *AIService) modelFor(setting *models.AISetting, info providerInfo) string {
	if setting.Model != "" {
		return setting.Model
	}
	return info.DefaultModel
}

func (s *AIService) baseURLFor(setting *models.AISetting, info providerInfo) string {
	if setting.BaseURL != "" {
		return setting.BaseURL
	}
	return info.BaseURL
}

// callOpenAI handles OpenAI and OpenAI-compatible APIs (deepseek, groq, mistral, custom endpoints)
func (s *AIService) callOpenAI(ctx context.Context, setting *models.AISetting, info providerInfo, prompt string) (*GenerationOutput, error) {
	clientConfig := openai.DefaultConfig(setting.APIKey)
	if baseURL := s.baseURLFor(setting, info); baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.modelFor(setting, info),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		logger.Infof("[AI] %s API error: %v", setting.Provider, err)
		return nil, fmt.Errorf("%s API error: %w", setting.Provider, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from %s", setting.Provider)
	}

	return &GenerationOutput{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// callAzure handles Azure OpenAI API using special configuration
func (s *AIService) callAzure(ctx context.Context, setting *models.AISetting, prompt string) (*GenerationOutput, error) {
	// Azure requires BaseURL format: https://{resource-name}.openai.azure.com
	// Model field is used as deployment name
	clientConfig := openai.DefaultAzureConfig(setting.APIKey, setting.BaseURL)
	client := openai.NewClientWithConfig(clientConfig)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: setting.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		logger.Infof("[AI] Azure OpenAI API error: %v", err)
		return nil, fmt.Errorf("Azure OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from Azure OpenAI")
	}

	return &GenerationOutput{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// callAnthropic handles Anthropic Claude API using the native SDK
func (s *AIService) callAnthropic(ctx context.Context, setting *models.AISetting, info providerInfo, prompt string) (*GenerationOutput, error) {
	client := anthropic.NewClient(
		option.WithAPIKey(setting.APIKey),
	)

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.modelFor(setting, info)),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		logger.Infof("[AI] Anthropic API error: %v", err)
		return nil, fmt.Errorf("Anthropic API error: %w", err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	return &GenerationOutput{
		Text:             content.String(),
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
	}, nil
}

// callGemini handles Google Gemini API using the native SDK
func (s *AIService) callGemini(ctx context.Context, setting *models.AISetting, info providerInfo, prompt string) (*GenerationOutput, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: setting.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("Gemini client error: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, s.modelFor(setting, info), genai.Text(prompt), nil)
	if err != nil {
		logger.Infof("[AI] Gemini API error: %v", err)
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}

	out := &GenerationOutput{Text: resp.Text()}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

// callOllama handles self-hosted Ollama using the native SDK
func (s *AIService) callOllama(ctx context.Context, setting *models.AISetting, info providerInfo, prompt string) (*GenerationOutput, error) {
	u, err := url.Parse(s.baseURLFor(setting, info))
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama base URL: %w", err)
	}
	client := api.NewClient(u, http.DefaultClient)

	var content strings.Builder
	var promptTokens, completionTokens int
	err = client.Chat(ctx, &api.ChatRequest{
		Model: s.modelFor(setting, info),
		Messages: []api.Message{
			{Role: "user", Content: prompt},
		},
	}, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		if resp.Done {
			promptTokens = resp.Metrics.PromptEvalCount
			completionTokens = resp.Metrics.EvalCount
		}
		return nil
	})
	if err != nil {
		logger.Infof("[AI] Ollama API error: %v", err)
		return nil, fmt.Errorf("Ollama API error: %w", err)
	}

	return &GenerationOutput{
		Text:             content.String(),
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
	}, nil
}

// extractTaskArray pulls the task list out of a model reply. The text
// may fence the array in ``` markers; the first '[' .. last ']' span is
// parsed, and an absent, malformed or empty array is a format error
// rather than a silent empty slice.
func extractTaskArray(text string) ([]GeneratedTask, error) {
	cleaned := stripCodeFences(text)

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("%w: no JSON array found in response", ErrMalformedResponse)
	}

	var tasks []GeneratedTask
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("%w: empty task array", ErrMalformedResponse)
	}

	return tasks, nil
}

// stripCodeFences removes markdown code-block markers (``` or ```json)
// while keeping the fenced content.
func stripCodeFences(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
