package cache

import (
	"testing"
	"time"
)

func TestCacheRoundTrip(t *testing.T) {
	c, err := New(t.TempDir(), 24, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	data := []byte(`{"aggregate":0.5}`)
	if err := c.Set("/repos/demo", "abc123", data); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok := c.Get("/repos/demo", "abc123")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(got) != string(data) {
		t.Fatalf("got %q, want %q", got, data)
	}
}

func TestCacheHeadMismatch(t *testing.T) {
	c, err := New(t.TempDir(), 24, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := c.Set("/repos/demo", "abc123", []byte("x")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, ok := c.Get("/repos/demo", "def456"); ok {
		t.Fatal("expected miss for different HEAD")
	}
}

func TestCacheMiss(t *testing.T) {
	c, err := New(t.TempDir(), 24, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, ok := c.Get("/repos/unknown", "abc"); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestCacheExpiry(t *testing.T) {
	c, err := New(t.TempDir(), 1, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.ttl = -time.Second

	if err := c.Set("/repos/demo", "abc", []byte("x")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, ok := c.Get("/repos/demo", "abc"); ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestCacheDisabled(t *testing.T) {
	c, err := New("", 24, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := c.Set("/repos/demo", "abc", []byte("x")); err != nil {
		t.Fatalf("Set on disabled cache: %v", err)
	}
	if _, ok := c.Get("/repos/demo", "abc"); ok {
		t.Fatal("disabled cache must never hit")
	}
}

func TestCacheInvalidate(t *testing.T) {
	c, err := New(t.TempDir(), 24, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := c.Set("/repos/demo", "abc", []byte("x")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Invalidate("/repos/demo"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok := c.Get("/repos/demo", "abc"); ok {
		t.Fatal("expected miss after invalidate")
	}
}

func TestHashBytes(t *testing.T) {
	a := HashBytes([]byte("hello"))
	b := HashBytes([]byte("hello"))
	if a != b {
		t.Fatal("hash must be deterministic")
	}
	if a == HashBytes([]byte("world")) {
		t.Fatal("distinct inputs must not collide")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}
