package tilekit

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func payload(n int, b byte) []byte {
	return bytes.Repeat([]byte{b}, n)
}

func TestMemoryCacheGetPut(t *testing.T) {
	c := NewMemoryCache(1024)
	if _, err := c.Get("a"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Get on empty cache: err = %v, want ErrCacheMiss", err)
	}
	if err := c.Put("a", payload(10, 'a')); err != nil {
		t.Fatal(err)
	}
	got, err := c.Get("a")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload(10, 'a')) {
		t.Error("Get returned different bytes")
	}
	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 || st.Entries != 1 || st.Bytes != 10 {
		t.Errorf("stats = %v", st)
	}
}

func TestMemoryCacheDefaultCapacity(t *testing.T) {
	if c := NewMemoryCache(0); c.Capacity() != DefaultCacheCapacity {
		t.Errorf("Capacity = %d, want %d", c.Capacity(), DefaultCacheCapacity)
	}
}

func TestMemoryCacheStaysWithinCapacity(t *testing.T) {
	c := NewMemoryCache(100)
	for i := 0; i < 50; i++ {
		if err := c.Put(fmt.Sprintf("k%d", i), payload(7+i%13, 'x')); err != nil {
			t.Fatal(err)
		}
		if c.Size() > c.Capacity() {
			t.Fatalf("after put %d: size %d > capacity %d", i, c.Size(), c.Capacity())
		}
	}
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewMemoryCache(30)
	_ = c.Put("a", payload(10, 'a'))
	_ = c.Put("b", payload(10, 'b'))
	_ = c.Put("c", payload(10, 'c'))

	// Touch a so b becomes the oldest.
	if _, err := c.Get("a"); err != nil {
		t.Fatal(err)
	}
	_ = c.Put("d", payload(10, 'd'))

	if _, ok := c.Peek("b"); ok {
		t.Error("b should have been evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := c.Peek(k); !ok {
			t.Errorf("%s should still be cached", k)
		}
	}
	if ev := c.Stats().Evictions; ev != 1 {
		t.Errorf("Evictions = %d, want 1", ev)
	}
}

func TestMemoryCacheLargeEntryEvictsSeveral(t *testing.T) {
	c := NewMemoryCache(30)
	_ = c.Put("a", payload(10, 'a'))
	_ = c.Put("b", payload(10, 'b'))
	_ = c.Put("c", payload(10, 'c'))
	_ = c.Put("big", payload(25, 'z'))

	if c.Len() != 1 || c.Size() != 25 {
		t.Errorf("Len = %d, Size = %d, want 1 entry of 25 bytes", c.Len(), c.Size())
	}
}

func TestMemoryCacheRejectsOversized(t *testing.T) {
	c := NewMemoryCache(16)
	_ = c.Put("a", payload(8, 'a'))
	err := c.Put("huge", payload(17, 'h'))
	if !errors.Is(err, ErrEntryTooLarge) {
		t.Fatalf("err = %v, want ErrEntryTooLarge", err)
	}
	if _, ok := c.Peek("a"); !ok {
		t.Error("rejected put should leave existing entries alone")
	}
	if _, ok := c.Peek("huge"); ok {
		t.Error("oversized entry should not be cached")
	}
}

func TestMemoryCacheReplaceResizes(t *testing.T) {
	c := NewMemoryCache(100)
	_ = c.Put("a", payload(40, 'a'))
	_ = c.Put("a", payload(10, 'b'))
	if c.Size() != 10 || c.Len() != 1 {
		t.Errorf("Size = %d, Len = %d", c.Size(), c.Len())
	}
	got, _ := c.Get("a")
	if got[0] != 'b' {
		t.Error("replace should store the new bytes")
	}
}

func TestMemoryCacheLastAccess(t *testing.T) {
	now := time.Unix(1000, 0)
	c := newMemoryCache(100, func() time.Time { return now })
	_ = c.Put("a", payload(1, 'a'))
	now = now.Add(time.Minute)
	_, _ = c.Get("a")
	at, ok := c.LastAccess("a")
	if !ok || !at.Equal(time.Unix(1060, 0)) {
		t.Errorf("LastAccess = %v, %v", at, ok)
	}
	if _, ok := c.LastAccess("missing"); ok {
		t.Error("LastAccess of missing key should report false")
	}
}

func TestMemoryCacheRemoveClear(t *testing.T) {
	c := NewMemoryCache(100)
	_ = c.Put("a", payload(5, 'a'))
	_ = c.Put("b", payload(5, 'b'))
	if !c.Remove("a") {
		t.Error("Remove(a) = false")
	}
	if c.Remove("a") {
		t.Error("second Remove(a) = true")
	}
	if c.Size() != 5 {
		t.Errorf("Size = %d, want 5", c.Size())
	}
	c.Clear()
	if c.Len() != 0 || c.Size() != 0 {
		t.Errorf("after Clear: Len = %d, Size = %d", c.Len(), c.Size())
	}
}

func TestMemoryCacheSetCapacityShrinks(t *testing.T) {
	c := NewMemoryCache(100)
	for i := 0; i < 10; i++ {
		_ = c.Put(fmt.Sprintf("k%d", i), payload(10, 'x'))
	}
	c.SetCapacity(35)
	if c.Size() > 35 || c.Len() != 3 {
		t.Errorf("Size = %d, Len = %d after shrinking", c.Size(), c.Len())
	}
	// Most recently added survive.
	for _, k := range []string{"k7", "k8", "k9"} {
		if _, ok := c.Peek(k); !ok {
			t.Errorf("%s should survive", k)
		}
	}
}

func TestMemoryCacheConcurrent(t *testing.T) {
	c := NewMemoryCache(4096)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*31+i)%64)
				_ = c.Put(key, payload(64, byte(g)))
				_, _ = c.Get(key)
			}
		}(g)
	}
	wg.Wait()
	if c.Size() > c.Capacity() {
		t.Errorf("Size %d > Capacity %d", c.Size(), c.Capacity())
	}
}

// failingCache is a tier that is always unavailable.
type failingCache struct{ err error }

func (f failingCache) Get(string) ([]byte, error) { return nil, f.err }
func (f failingCache) Put(string, []byte) error   { return f.err }

func TestTieredCachePromotesBackHits(t *testing.T) {
	front := NewMemoryCache(100)
	back := NewMemoryCache(100)
	_ = back.Put("a", payload(5, 'a'))
	tc := &TieredCache{Front: front, Back: back}

	got, err := tc.Get("a")
	if err != nil || len(got) != 5 {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if _, ok := front.Peek("a"); !ok {
		t.Error("back-tier hit should be promoted to the front")
	}
}

func TestTieredCacheMiss(t *testing.T) {
	tc := &TieredCache{Front: NewMemoryCache(100), Back: NewMemoryCache(100)}
	if _, err := tc.Get("nope"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("err = %v, want ErrCacheMiss", err)
	}
}

func TestTieredCachePutWritesBoth(t *testing.T) {
	front := NewMemoryCache(100)
	back := NewMemoryCache(100)
	tc := &TieredCache{Front: front, Back: back}
	if err := tc.Put("a", payload(5, 'a')); err != nil {
		t.Fatal(err)
	}
	if front.Len() != 1 || back.Len() != 1 {
		t.Errorf("front %d, back %d entries", front.Len(), back.Len())
	}
}

func TestTieredCacheOversizedForFrontOnly(t *testing.T) {
	front := NewMemoryCache(4)
	back := NewMemoryCache(100)
	tc := &TieredCache{Front: front, Back: back}
	if err := tc.Put("a", payload(10, 'a')); err != nil {
		t.Errorf("Put = %v, want nil when the back tier accepted it", err)
	}
	if _, err := tc.Get("a"); err != nil {
		t.Errorf("Get = %v", err)
	}
}

func TestTieredCacheFrontFailureFallsThrough(t *testing.T) {
	broken := errors.New("disk gone")
	back := NewMemoryCache(100)
	_ = back.Put("a", payload(3, 'a'))
	tc := &TieredCache{Front: failingCache{err: broken}, Back: back}

	got, err := tc.Get("a")
	if err != nil || len(got) != 3 {
		t.Errorf("Get = %v, %v", got, err)
	}
	if err := tc.Put("b", payload(1, 'b')); !errors.Is(err, broken) {
		t.Errorf("Put err = %v, want tier error", err)
	}
}
