package vision

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("doc-a"))
	b := Fingerprint([]byte("doc-b"))

	if a == b {
		t.Error("different documents should not share a fingerprint")
	}
	if a != Fingerprint([]byte("doc-a")) {
		t.Error("fingerprint must be deterministic")
	}
	if len(a) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(a))
	}
}

func TestCache_Memoizes(t *testing.T) {
	cache := NewCache()
	var calls atomic.Int64

	fn := func() (*Result, error) {
		calls.Add(1)
		return &Result{PagesTotal: 3}, nil
	}

	first, err := cache.Do("key", fn)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	second, err := cache.Do("key", fn)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}

	if calls.Load() != 1 {
		t.Errorf("fn called %d times, want 1", calls.Load())
	}
	if first != second {
		t.Error("expected the same cached result pointer")
	}
}

func TestCache_ConcurrentSingleFlight(t *testing.T) {
	cache := NewCache()
	var calls atomic.Int64
	start := make(chan struct{})

	fn := func() (*Result, error) {
		calls.Add(1)
		<-start
		return &Result{}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Do("same-key", fn); err != nil {
				t.Error(err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("fn called %d times for one key, want 1", calls.Load())
	}
}

func TestCache_ErrorsNotCached(t *testing.T) {
	cache := NewCache()
	var calls atomic.Int64

	failing := func() (*Result, error) {
		calls.Add(1)
		return nil, errors.New("model unavailable")
	}

	if _, err := cache.Do("key", failing); err == nil {
		t.Fatal("expected error")
	}

	res, err := cache.Do("key", func() (*Result, error) {
		calls.Add(1)
		return &Result{PagesTotal: 1}, nil
	})
	if err != nil {
		t.Fatalf("Do failed after earlier error: %v", err)
	}
	if res.PagesTotal != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
	if calls.Load() != 2 {
		t.Errorf("fn called %d times, want 2", calls.Load())
	}
}

func TestCache_DistinctKeys(t *testing.T) {
	cache := NewCache()
	var calls atomic.Int64

	fn := func() (*Result, error) {
		calls.Add(1)
		return &Result{}, nil
	}

	cache.Do("a", fn)
	cache.Do("b", fn)

	if calls.Load() != 2 {
		t.Errorf("fn called %d times for two keys, want 2", calls.Load())
	}
}
