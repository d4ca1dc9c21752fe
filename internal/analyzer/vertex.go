package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"doc-analyzer/internal/domain"

	"cloud.google.com/go/vertexai/genai"
)

const DefaultVertexModel = "gemini-2.0-flash-001"

// VertexAnalyzer runs the same prompts against a Gemini model on Vertex AI.
type VertexAnalyzer struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  domain.Logger
}

func NewVertexAnalyzer(ctx context.Context, projectID, location, model string, timeout time.Duration, logger domain.Logger) (*VertexAnalyzer, error) {
	if projectID == "" {
		return nil, fmt.Errorf("%w: VERTEX_PROJECT_ID is not set", domain.ErrAnalyzerNotEnabled)
	}
	if model == "" {
		model = DefaultVertexModel
	}

	client, err := genai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex ai client: %w", err)
	}

	return &VertexAnalyzer{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

func (a *VertexAnalyzer) Analyze(ctx context.Context, text string) (*domain.AnalysisResult, error) {
	raw, err := a.generate(ctx, analysisPrompt, text)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze document: %w", err)
	}
	result, err := parseAnalysis(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze document: %w", err)
	}
	return result, nil
}

func (a *VertexAnalyzer) ExtractKeyPoints(ctx context.Context, text string) ([]string, error) {
	raw, err := a.generate(ctx, keyPointsPrompt, text)
	if err != nil {
		return nil, fmt.Errorf("failed to extract key points: %w", err)
	}
	points, err := parseKeyPoints(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to extract key points: %w", err)
	}
	return points, nil
}

// Close releases the underlying gRPC connection.
func (a *VertexAnalyzer) Close() error {
	return a.client.Close()
}

func (a *VertexAnalyzer) generate(ctx context.Context, system, text string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	model := a.client.GenerativeModel(a.model)
	model.SetTemperature(0.2)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(text))
	if err != nil {
		return "", fmt.Errorf("gemini call failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", domain.ErrEmptyAnalysis
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	if resp.UsageMetadata != nil {
		a.logger.Debug("Gemini generation finished",
			"model", a.model,
			"prompt_tokens", resp.UsageMetadata.PromptTokenCount,
			"candidate_tokens", resp.UsageMetadata.CandidatesTokenCount,
		)
	}
	return sb.String(), nil
}
