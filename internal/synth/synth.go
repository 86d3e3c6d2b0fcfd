// Package synth asks the model for the minimal code change and target
// selector once a chunk has been classified as needing modification.
package synth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/rs/zerolog/log"

	"github.com/reskindev/reskin/internal/llm"
	"github.com/reskindev/reskin/internal/modification"
)

// Patch is the synthesized minimal diff. When the model's JSON contract was
// not met, ModifiedCode and Selector are empty and Raw carries the unparsed
// response text; callers must treat such a patch as "do not apply".
type Patch struct {
	ModifiedCode string `json:"modifiedCode"`
	Selector     string `json:"selector"`
	Raw          string `json:"-"`
}

// Complete reports whether the patch carries both halves of the change.
func (p Patch) Complete() bool {
	return strings.TrimSpace(p.ModifiedCode) != "" && strings.TrimSpace(p.Selector) != ""
}

// Synthesizer produces patches for chunks the classifier flagged.
type Synthesizer struct {
	Client llm.Client
	Model  string
}

// Synthesize requests the minimal diff for one chunk. Transport failures
// surface as errors; a malformed response degrades to a Raw-only patch.
func (s *Synthesizer) Synthesize(ctx context.Context, category modification.Category, codeSnippet, userCommand, explanation string) (Patch, error) {
	if s.Client == nil || strings.TrimSpace(s.Model) == "" {
		return Patch{}, errors.New("synthesizer not configured")
	}
	prompt := buildPrompt(category, codeSnippet, userCommand, explanation)
	resp, err := s.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.1,
		N:           1,
	})
	if err != nil {
		return Patch{}, fmt.Errorf("synthesize call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Patch{}, errors.New("synthesize: no choices")
	}
	p := ParseResponse(resp.Choices[0].Message.Content)
	log.Debug().
		Str("stage", "synth").
		Str("category", string(category)).
		Bool("complete", p.Complete()).
		Msg("patch synthesized")
	return p, nil
}

var openFenceRe = regexp.MustCompile("^```[a-zA-Z]*\\s*")
var closeFenceRe = regexp.MustCompile("```$")

// ParseResponse strips code-fence markup and decodes the two-key JSON
// object. Any decode failure yields a Raw-only patch instead of an error.
func ParseResponse(raw string) Patch {
	text := strings.TrimSpace(raw)
	text = openFenceRe.ReplaceAllString(text, "")
	text = closeFenceRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	var p Patch
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return Patch{Raw: text}
	}
	return p
}

func buildPrompt(category modification.Category, codeSnippet, userCommand, explanation string) string {
	var sb strings.Builder
	sb.WriteString("You are an AI that takes a snippet of webpage code and an explanation of the required modifications, and outputs only the minimal diff needed to reflect the changes as per the user's request. Do not output the entire code snippet - output only the exact portion that needs to be changed.\n\n")
	sb.WriteString("Content Type: ")
	sb.WriteString(category.DisplayName())
	sb.WriteString("\nOriginal Code Snippet (relevant portion only):\n")
	sb.WriteString(codeSnippet)
	sb.WriteString("\n\nUser Modification Request:\n\"")
	sb.WriteString(userCommand)
	sb.WriteString("\"\n\nModification Explanation:\n")
	sb.WriteString(explanation)
	sb.WriteString("\n\nProvide the result in valid JSON format with:\n")
	sb.WriteString("- \"modifiedCode\": containing only the exact modification that should be applied.\n")
	sb.WriteString("- \"selector\": the exact class, tag, or ID that needs to be modified.\n\n")
	sb.WriteString("Ensure that the \"selector\" field is extracted directly from the relevant HTML structure.\n\n")
	sb.WriteString("Response format:\n```json\n{\n  \"modifiedCode\": \"Your modified code here...\",\n  \"selector\": \"Your selector here...\"\n}\n```")
	return sb.String()
}
