package cache

import (
	"sync"
	"testing"

	"github.com/fyeah-lang/fyeah/internal/compiler/errors"
	"github.com/fyeah-lang/fyeah/internal/compiler/parser"
)

func TestTemplateCache_GetOrParse(t *testing.T) {
	for _, size := range []int{0, 16} {
		cache := New(size)

		first, err := cache.GetOrParse("hello {name}!")
		if err != nil {
			t.Fatalf("size %d: GetOrParse() returned error: %v", size, err)
		}
		second, err := cache.GetOrParse("hello {name}!")
		if err != nil {
			t.Fatalf("size %d: GetOrParse() returned error: %v", size, err)
		}

		if first != second {
			t.Errorf("size %d: expected the same template for equal sources", size)
		}
		if cache.Len() != 1 {
			t.Errorf("size %d: expected 1 entry, got %d", size, cache.Len())
		}

		stats := cache.Stats()
		if stats.Hits != 1 || stats.Misses != 1 {
			t.Errorf("size %d: expected 1 hit and 1 miss, got %+v", size, stats)
		}
		if stats.HitRate() != 50.0 {
			t.Errorf("size %d: expected 50%% hit rate, got %f", size, stats.HitRate())
		}
	}
}

func TestTemplateCache_Fetch(t *testing.T) {
	cache := New(0)

	_, cached, err := cache.Fetch("{x}")
	if err != nil || cached {
		t.Fatalf("expected a miss, got cached=%v err=%v", cached, err)
	}
	_, cached, err = cache.Fetch("{x}")
	if err != nil || !cached {
		t.Fatalf("expected a hit, got cached=%v err=%v", cached, err)
	}
}

func TestTemplateCache_ErrorsNotCached(t *testing.T) {
	cache := New(0)

	for i := 0; i < 2; i++ {
		_, err := cache.GetOrParse("{")
		if !errors.Is(err, errors.KindSyntax) {
			t.Fatalf("expected SyntaxError, got %v", err)
		}
	}

	if cache.Len() != 0 {
		t.Errorf("expected failed parses to not be cached, got %d entries", cache.Len())
	}
	if cache.Stats().Misses != 2 {
		t.Errorf("expected 2 misses, got %d", cache.Stats().Misses)
	}
}

func TestTemplateCache_LRUEviction(t *testing.T) {
	cache := New(2)

	for _, source := range []string{"{a}", "{b}", "{c}"} {
		if _, err := cache.GetOrParse(source); err != nil {
			t.Fatalf("GetOrParse(%q) returned error: %v", source, err)
		}
	}

	if cache.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", cache.Len())
	}
	if _, ok := cache.Get("{a}"); ok {
		t.Error("expected least recently used entry to be evicted")
	}
	if _, ok := cache.Get("{c}"); !ok {
		t.Error("expected newest entry to be present")
	}
	if cache.Stats().Evictions != 1 {
		t.Errorf("expected 1 eviction, got %d", cache.Stats().Evictions)
	}
}

func TestTemplateCache_RemoveAndPurge(t *testing.T) {
	for _, size := range []int{0, 8} {
		cache := New(size)
		for _, source := range []string{"{a}", "{b}", "{c}"} {
			if _, err := cache.GetOrParse(source); err != nil {
				t.Fatalf("GetOrParse(%q) returned error: %v", source, err)
			}
		}

		if !cache.Remove("{a}") {
			t.Errorf("size %d: expected Remove to report a present entry", size)
		}
		if cache.Remove("{a}") {
			t.Errorf("size %d: expected second Remove to report a missing entry", size)
		}
		if cache.Len() != 2 {
			t.Errorf("size %d: expected 2 entries after Remove, got %d", size, cache.Len())
		}

		cache.Purge()
		if cache.Len() != 0 {
			t.Errorf("size %d: expected empty cache after Purge, got %d", size, cache.Len())
		}
	}
}

func TestTemplateCache_ParseOptions(t *testing.T) {
	source := "{" + "((((((" + "1" + "))))))" + "}"

	if _, err := New(0).GetOrParse(source); err != nil {
		t.Fatalf("unexpected error with default options: %v", err)
	}

	cache := New(0).WithParseOptions(parser.Options{MaxDepth: 3})
	if _, err := cache.GetOrParse(source); !errors.Is(err, errors.KindSyntax) {
		t.Errorf("expected nesting error, got %v", err)
	}
}

func TestTemplateCache_ConcurrentAccess(t *testing.T) {
	for _, size := range []int{0, 4} {
		cache := New(size)
		sources := []string{"{a}", "{b}", "{a + b}", "x {y!r}"}

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				if _, err := cache.GetOrParse(sources[idx%len(sources)]); err != nil {
					t.Errorf("GetOrParse() returned error: %v", err)
				}
			}(i)
		}
		wg.Wait()

		if cache.Len() != len(sources) {
			t.Errorf("size %d: expected %d entries, got %d", size, len(sources), cache.Len())
		}
		stats := cache.Stats()
		if stats.Hits+stats.Misses != 20 {
			t.Errorf("size %d: expected 20 lookups, got %+v", size, stats)
		}
	}
}
