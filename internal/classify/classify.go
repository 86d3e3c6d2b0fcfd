// Package classify asks the model whether one chunk of page content needs
// modification and parses the strict "<true|false> - <explanation>" answer
// grammar out of the free-form response.
package classify

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/rs/zerolog/log"

	"github.com/reskindev/reskin/internal/llm"
	"github.com/reskindev/reskin/internal/modification"
)

// Verdict is the parsed decision for one chunk. Explanation is never empty
// for a non-empty model response.
type Verdict struct {
	Decision    bool
	Explanation string
}

// Classifier decides per category chunk whether a change is necessary.
type Classifier struct {
	Client llm.Client
	Model  string
}

// Classify sends the decision prompt for one chunk and parses the answer.
// An error is returned only for transport-level failures; malformed model
// output always degrades to a Verdict.
func (c *Classifier) Classify(ctx context.Context, category modification.Category, content, userCommand string) (Verdict, error) {
	if c.Client == nil || strings.TrimSpace(c.Model) == "" {
		return Verdict{}, errors.New("classifier not configured")
	}
	prompt := buildPrompt(category, content, userCommand)
	resp, err := c.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.1,
		N:           1,
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("classify call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Verdict{}, errors.New("classify: no choices")
	}
	v := Parse(resp.Choices[0].Message.Content)
	log.Debug().
		Str("stage", "classify").
		Str("category", string(category)).
		Bool("decision", v.Decision).
		Msg("chunk classified")
	return v, nil
}

var answerRe = regexp.MustCompile(`(?i)^(true|false)\s*-\s*(.*)$`)
var spaceRe = regexp.MustCompile(`\s+`)

// Parse extracts a Verdict from raw model output with three tiers of
// tolerance: the strict grammar first, then a bare true/false substring with
// the whole response as explanation, then a default false verdict. It never
// fails for any input.
func Parse(raw string) Verdict {
	text := strings.TrimSpace(spaceRe.ReplaceAllString(raw, " "))
	if m := answerRe.FindStringSubmatch(text); m != nil {
		return Verdict{
			Decision:    strings.EqualFold(m[1], "true"),
			Explanation: strings.TrimSpace(m[2]),
		}
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "true") {
		return Verdict{Decision: true, Explanation: text}
	}
	return Verdict{Decision: false, Explanation: text}
}

func buildPrompt(category modification.Category, content, userCommand string) string {
	var sb strings.Builder
	sb.WriteString("You are an AI that analyzes whether a specific section of a webpage requires modification based on a user's instruction. Compare the content provided below with the user's request and decide if a change is necessary.\n\n")
	sb.WriteString("Content Type: ")
	sb.WriteString(category.DisplayName())
	sb.WriteString("\nWebpage Section Content:\n")
	sb.WriteString(content)
	sb.WriteString("\n\nUser Modification Request:\n\"")
	sb.WriteString(userCommand)
	sb.WriteString("\"\n\n")
	sb.WriteString("Analyze the content carefully and consider:\n")
	sb.WriteString("- Whether the content contains elements, attributes, or styles that relate to the user's request.\n")
	sb.WriteString("- If the user request logically applies to this section.\n")
	sb.WriteString("- Any indicators within the content that support or contradict the need for a change.\n\n")
	sb.WriteString("Important: Respond in the exact format:\n")
	sb.WriteString("- \"true - [detailed explanation]\" if the section requires modification. (Include which parts of the content match the user request and why.)\n")
	sb.WriteString("- \"false - [detailed explanation]\" if no modification is required. (Explain clearly why the section does not apply.)\n\n")
	sb.WriteString("Your response must include both the true/false decision and a detailed explanation.")
	return sb.String()
}
