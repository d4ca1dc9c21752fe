package domain

import (
	"context"
	"encoding/json"
	"time"
)

// AnalysisResult is what the language model reports about a document.
type AnalysisResult struct {
	Summary           string   `json:"summary"`
	KeyInsights       []string `json:"key_insights"`
	MainTopics        []string `json:"main_topics"`
	ImportantEntities []string `json:"important_entities"`

	// Raw is the model's JSON answer as received.
	Raw json.RawMessage `json:"-"`
}

// Analyzer sends document text to a language model.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*AnalysisResult, error)
	ExtractKeyPoints(ctx context.Context, text string) ([]string, error)
}

// AnalysisCache stores analysis results keyed by a content digest.
type AnalysisCache interface {
	Get(ctx context.Context, digest string) (*AnalysisResult, error)
	Set(ctx context.Context, digest string, result *AnalysisResult, ttl time.Duration) error
}
