package synth

import (
	"context"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/reskindev/reskin/internal/modification"
)

func TestParseResponseStripsFences(t *testing.T) {
	cases := []string{
		`{"modifiedCode":"background-color:red;","selector":"div"}`,
		"```json\n{\"modifiedCode\":\"background-color:red;\",\"selector\":\"div\"}\n```",
		"```\n{\"modifiedCode\":\"background-color:red;\",\"selector\":\"div\"}\n```",
		"  ```json\n{\"modifiedCode\":\"background-color:red;\",\"selector\":\"div\"}\n```  ",
	}
	for _, raw := range cases {
		p := ParseResponse(raw)
		if p.ModifiedCode != "background-color:red;" || p.Selector != "div" {
			t.Fatalf("ParseResponse(%q) = %+v", raw, p)
		}
		if !p.Complete() {
			t.Fatalf("patch should be complete: %+v", p)
		}
	}
}

func TestParseResponseMalformedDegradesToRaw(t *testing.T) {
	raw := "Sorry, I cannot produce JSON for that."
	p := ParseResponse(raw)
	if p.Complete() {
		t.Fatal("malformed response must not produce an applicable patch")
	}
	if p.Raw != raw {
		t.Fatalf("raw text should be preserved, got %q", p.Raw)
	}
}

func TestParseResponseMissingKeyIsIncomplete(t *testing.T) {
	p := ParseResponse(`{"modifiedCode":"color:red;"}`)
	if p.Complete() {
		t.Fatal("patch without a selector must be incomplete")
	}
}

type stubClient struct {
	content string
	prompts []string
}

func (s *stubClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.prompts = append(s.prompts, req.Messages[0].Content)
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
		{Message: openai.ChatCompletionMessage{Content: s.content}},
	}}, nil
}

func TestSynthesizePromptCarriesExplanation(t *testing.T) {
	stub := &stubClient{content: "```json\n{\"modifiedCode\":\"background-color:red;\",\"selector\":\"div\"}\n```"}
	s := &Synthesizer{Client: stub, Model: "test-model"}
	p, err := s.Synthesize(context.Background(), modification.CategoryHTML, "<div>Hi</div>", "make background red", "background color should change")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if p.ModifiedCode != "background-color:red;" || p.Selector != "div" {
		t.Fatalf("patch: %+v", p)
	}
	prompt := stub.prompts[0]
	for _, want := range []string{"HTML", "<div>Hi</div>", "make background red", "background color should change", `"modifiedCode"`, `"selector"`} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}
