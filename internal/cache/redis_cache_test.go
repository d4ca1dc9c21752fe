package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"doc-analyzer/internal/domain"

	"github.com/alicebob/miniredis/v2"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	c, err := NewRedisCache(context.Background(), "redis://"+mr.Addr()+"/0", "test:")
	if err != nil {
		t.Fatalf("NewRedisCache failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	in := &domain.AnalysisResult{
		Summary:     "A report",
		KeyInsights: []string{"one", "two"},
		MainTopics:  []string{"finance"},
		Raw:         json.RawMessage(`{"summary":"A report"}`),
	}
	if err := c.Set(ctx, "abc", in, time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if !mr.Exists("test:abc") {
		t.Error("expected key with prefix")
	}
	if ttl := mr.TTL("test:abc"); ttl != time.Hour {
		t.Errorf("TTL = %v, want 1h", ttl)
	}

	out, err := c.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if out.Summary != in.Summary || len(out.KeyInsights) != 2 || out.MainTopics[0] != "finance" {
		t.Errorf("unexpected result %+v", out)
	}
	if string(out.Raw) != `{"summary":"A report"}` {
		t.Errorf("Raw = %s", out.Raw)
	}
}

func TestRedisCache_Miss(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}

	if err := mr.Set("test:garbage", "not json"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "garbage"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss for unreadable entry, got %v", err)
	}
}

func TestRedisCache_Expiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", &domain.AnalysisResult{Summary: "s"}, time.Minute); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := c.Get(ctx, "k"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("expected expired entry to miss, got %v", err)
	}
}

func TestNewRedisCache_Errors(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "://bad", ""); err == nil {
		t.Error("expected parse error")
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	addr := mr.Addr()
	mr.Close()
	if _, err := NewRedisCache(context.Background(), "redis://"+addr, ""); err == nil {
		t.Error("expected ping error for closed server")
	}
}
