package provider

import (
	"context"
	"testing"
)

func TestNewUnknownProvider(t *testing.T) {
	if _, _, err := New(context.Background(), Config{Name: "mystery"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewKnownProviders(t *testing.T) {
	for _, name := range []string{"", "openai", "groq", "claude", "anthropic"} {
		c, closeFn, err := New(context.Background(), Config{Name: name, APIKey: "test"})
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", name, err)
		}
		if c == nil || closeFn == nil {
			t.Fatalf("%q: expected completer and close func", name)
		}
		if err := closeFn(); err != nil {
			t.Errorf("%q: close failed: %v", name, err)
		}
	}
}
