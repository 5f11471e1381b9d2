package tiktoken

import (
	"strings"
	"testing"
)

func newTokenizer(t *testing.T) *Tokenizer {
	t.Helper()
	tok, err := NewTiktokenTokenizer("gpt-4o-mini")
	if err != nil {
		t.Skipf("encoding unavailable: %v", err)
	}
	return tok
}

func TestCountTokens(t *testing.T) {
	tok := newTokenizer(t)
	text := "month_name,total_sales_amount\nJanuary,150000\n"
	if n := tok.CountTokens(text); n != len(tok.Encode(text)) || n == 0 {
		t.Errorf("unexpected token count %d", n)
	}
}

func TestTruncate(t *testing.T) {
	tok := newTokenizer(t)
	text := strings.Repeat("Kochi sales rose sharply. ", 200)

	out, cut := tok.Truncate(text, 20)
	if !cut {
		t.Fatal("expected truncation")
	}
	if tok.CountTokens(out) > 22 {
		t.Errorf("truncated text still has %d tokens", tok.CountTokens(out))
	}

	same, cut := tok.Truncate("short", 20)
	if cut || same != "short" {
		t.Error("short text should be untouched")
	}
}
