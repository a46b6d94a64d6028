package observability

import (
	"context"
	"testing"
)

type countingCache struct {
	NoopCacheHooks
	hits map[string]int
}

func (c *countingCache) OnCacheHit(_ context.Context, keyType string) { c.hits[keyType]++ }

func TestSetAndReset(t *testing.T) {
	t.Cleanup(Reset)

	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Fatalf("default cache hooks = %T", Cache())
	}

	h := &countingCache{hits: map[string]int{}}
	SetCacheHooks(h)
	Cache().OnCacheHit(context.Background(), "placement")
	Cache().OnCacheMiss(context.Background(), "placement")
	if h.hits["placement"] != 1 {
		t.Errorf("hits = %v", h.hits)
	}

	SetCacheHooks(nil)
	if Cache() != CacheHooks(h) {
		t.Error("nil hooks should be ignored")
	}

	Reset()
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Errorf("after Reset cache hooks = %T", Cache())
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Errorf("after Reset pipeline hooks = %T", Pipeline())
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Errorf("after Reset http hooks = %T", HTTP())
	}
}
