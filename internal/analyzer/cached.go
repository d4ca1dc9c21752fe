package analyzer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"doc-analyzer/internal/domain"
)

// Cached serves repeated analyses of identical text from an AnalysisCache.
// Cache failures are logged and never fail the call.
type Cached struct {
	next   domain.Analyzer
	cache  domain.AnalysisCache
	ttl    time.Duration
	logger domain.Logger
}

func NewCached(next domain.Analyzer, cache domain.AnalysisCache, ttl time.Duration, logger domain.Logger) *Cached {
	return &Cached{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (c *Cached) Analyze(ctx context.Context, text string) (*domain.AnalysisResult, error) {
	key := Digest(text)

	cached, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		c.logger.Debug("Analysis cache hit", "digest", key)
		return cached, nil
	case !errors.Is(err, domain.ErrCacheMiss):
		c.logger.Warn("Analysis cache read failed", "digest", key, "error", err)
	}

	result, err := c.next.Analyze(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, result, c.ttl); err != nil {
		c.logger.Warn("Analysis cache write failed", "digest", key, "error", err)
	}
	return result, nil
}

func (c *Cached) ExtractKeyPoints(ctx context.Context, text string) ([]string, error) {
	return c.next.ExtractKeyPoints(ctx, text)
}

// Digest is the cache key for text.
func Digest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Disabled is used when no model provider is configured.
type Disabled struct{}

func (Disabled) Analyze(context.Context, string) (*domain.AnalysisResult, error) {
	return nil, domain.ErrAnalyzerNotEnabled
}

func (Disabled) ExtractKeyPoints(context.Context, string) ([]string, error) {
	return nil, domain.ErrAnalyzerNotEnabled
}
