package chunk

import (
	"strings"
	"testing"
)

func TestSplitRoundTrip(t *testing.T) {
	texts := []string{
		"a",
		"abcdef",
		"<div>Hello</div><p>world</p>",
		strings.Repeat("x", 1000) + strings.Repeat("y", 337),
	}
	for _, text := range texts {
		for _, n := range []int{1, 2, 3, 7, 50} {
			got := Split(text, n)
			if len(got) != n {
				t.Fatalf("Split(len=%d, %d) returned %d chunks", len(text), n, len(got))
			}
			if strings.Join(got, "") != text {
				t.Fatalf("Split(len=%d, %d) lost content on concatenation", len(text), n)
			}
		}
	}
}

func TestSplitTrailingChunksMayBeEmpty(t *testing.T) {
	got := Split("abc", 5)
	if len(got) != 5 {
		t.Fatalf("expected 5 chunks, got %d", len(got))
	}
	// ceil(3/5) = 1 char per chunk: "a","b","c","","".
	if got[0] != "a" || got[2] != "c" || got[3] != "" || got[4] != "" {
		t.Fatalf("unexpected slicing: %q", got)
	}
}

func TestSplitBoundariesIgnoreSyntax(t *testing.T) {
	// A boundary landing mid-tag is expected behavior, not a defect.
	got := Split("<div>Hi</div>", 2)
	if got[0] != "<div>Hi" || got[1] != "</div>" {
		t.Fatalf("expected character-based slicing, got %q", got)
	}
}

func TestCount(t *testing.T) {
	cases := []struct {
		tokens, budget, want int
	}{
		{0, 400000, 1},
		{399999, 400000, 1},
		{400000, 400000, 1},
		{400001, 400000, 2},
		{1200001, 400000, 4},
		{100, 0, 1},
	}
	for _, c := range cases {
		if got := Count(c.tokens, c.budget); got != c.want {
			t.Fatalf("Count(%d, %d) = %d, want %d", c.tokens, c.budget, got, c.want)
		}
	}
}
