package classify

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/reskindev/reskin/internal/modification"
)

func TestParseStrictGrammar(t *testing.T) {
	cases := []struct {
		in          string
		decision    bool
		explanation string
	}{
		{"true - background color should change", true, "background color should change"},
		{"false - no red elements present", false, "no red elements present"},
		{"TRUE-  uppercase and tight hyphen", true, "uppercase and tight hyphen"},
		{"False   -   spaced out", false, "spaced out"},
		{"true -\nexplanation on\nthe next lines", true, "explanation on the next lines"},
	}
	for _, c := range cases {
		got := Parse(c.in)
		if got.Decision != c.decision || got.Explanation != c.explanation {
			t.Fatalf("Parse(%q) = %+v, want {%v %q}", c.in, got, c.decision, c.explanation)
		}
	}
}

func TestParseFallbacks(t *testing.T) {
	// No grammar match, but the word true appears: decision true, whole
	// response becomes the explanation.
	got := Parse("I believe this is true because the div is styled inline.")
	if !got.Decision {
		t.Fatalf("substring fallback should detect true: %+v", got)
	}
	if got.Explanation == "" {
		t.Fatal("fallback must keep the raw response as explanation")
	}

	got = Parse("Definitely false, nothing matches here.")
	if got.Decision {
		t.Fatalf("substring fallback should detect false: %+v", got)
	}

	// Neither word present: default false, raw text preserved.
	got = Parse("The section only contains navigation markup.")
	if got.Decision {
		t.Fatal("default verdict must be false")
	}
	if got.Explanation != "The section only contains navigation markup." {
		t.Fatalf("default explanation lost: %q", got.Explanation)
	}
}

func TestParseCollapsesWhitespace(t *testing.T) {
	got := Parse("  true\r\n-\r\n  it   matches \n\n the request  ")
	if !got.Decision || got.Explanation != "it matches the request" {
		t.Fatalf("whitespace runs should collapse to single spaces: %+v", got)
	}
}

type stubClient struct {
	content string
	err     error
	prompts []string
}

func (s *stubClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if len(req.Messages) > 0 {
		s.prompts = append(s.prompts, req.Messages[0].Content)
	}
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
		{Message: openai.ChatCompletionMessage{Content: s.content}},
	}}, nil
}

func TestClassifyUsesCategoryDisplayName(t *testing.T) {
	stub := &stubClient{content: "true - heading is blue"}
	c := &Classifier{Client: stub, Model: "test-model"}
	v, err := c.Classify(context.Background(), modification.CategoryInlineCSS, "h1 { color: blue; }", "make headings red")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !v.Decision || v.Explanation != "heading is blue" {
		t.Fatalf("verdict: %+v", v)
	}
	if len(stub.prompts) != 1 {
		t.Fatalf("expected one model call, got %d", len(stub.prompts))
	}
	prompt := stub.prompts[0]
	for _, want := range []string{"Inline CSS", "h1 { color: blue; }", "make headings red", "true - [detailed explanation]"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}

func TestClassifyTransportError(t *testing.T) {
	c := &Classifier{Client: &stubClient{err: errors.New("boom")}, Model: "test-model"}
	if _, err := c.Classify(context.Background(), modification.CategoryHTML, "<div/>", "x"); err == nil {
		t.Fatal("transport failure should surface as an error")
	}
}
