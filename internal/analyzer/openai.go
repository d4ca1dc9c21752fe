package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"doc-analyzer/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const DefaultOpenAIModel = "gpt-4o"

// OpenAIConfig configures an OpenAIAnalyzer. BaseURL is optional and lets the
// analyzer talk to any OpenAI compatible endpoint.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Options []option.RequestOption
}

type OpenAIAnalyzer struct {
	client  openai.Client
	model   string
	timeout time.Duration
	logger  domain.Logger
}

func NewOpenAIAnalyzer(cfg OpenAIConfig, logger domain.Logger) (*OpenAIAnalyzer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", domain.ErrAnalyzerNotEnabled)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, cfg.Options...)

	return &OpenAIAnalyzer{
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

// Analyze implements domain.Analyzer.
func (a *OpenAIAnalyzer) Analyze(ctx context.Context, text string) (*domain.AnalysisResult, error) {
	raw, err := a.complete(ctx, analysisPrompt, text)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze document: %w", err)
	}
	result, err := parseAnalysis(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze document: %w", err)
	}
	return result, nil
}

// ExtractKeyPoints implements domain.Analyzer.
func (a *OpenAIAnalyzer) ExtractKeyPoints(ctx context.Context, text string) ([]string, error) {
	raw, err := a.complete(ctx, keyPointsPrompt, text)
	if err != nil {
		return nil, fmt.Errorf("failed to extract key points: %w", err)
	}
	points, err := parseKeyPoints(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to extract key points: %w", err)
	}
	return points, nil
}

func (a *OpenAIAnalyzer) complete(ctx context.Context, system, text string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	started := time.Now()
	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(text),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", domain.ErrEmptyAnalysis
	}

	a.logger.Debug("OpenAI completion finished",
		"model", a.model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", domain.ErrEmptyAnalysis
	}
	return content, nil
}
