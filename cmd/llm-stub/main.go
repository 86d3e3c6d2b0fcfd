// Command llm-stub is a tiny OpenAI-compatible server for exercising the
// modification pipeline without a real model. It answers decision prompts in
// the strict "true|false - explanation" grammar and diff prompts with fenced
// JSON.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func main() {
	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		prompt := ""
		if len(req.Messages) > 0 {
			prompt = req.Messages[len(req.Messages)-1].Content
		}

		var content string
		switch {
		case strings.Contains(prompt, "requires modification based on a user's instruction"):
			content = classifyAnswer(prompt)
		case strings.Contains(prompt, "outputs only the minimal diff"):
			content = "```json\n{\n  \"modifiedCode\": \"color: red !important;\",\n  \"selector\": \"" + selectorFor(prompt) + "\"\n}\n```"
		default:
			http.Error(w, "unexpected prompt", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	})

	log.Printf("llm-stub listening on %s (model=%s)", addr, model)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}

// classifyAnswer says true when any word of the user request appears in the
// section content, which is enough to route real pages through both pipeline
// branches.
func classifyAnswer(prompt string) string {
	section := between(prompt, "Webpage Section Content:\n", "\n\nUser Modification Request:")
	request := between(prompt, "User Modification Request:\n\"", "\"")
	lower := strings.ToLower(section)
	for _, word := range strings.Fields(strings.ToLower(request)) {
		if len(word) < 4 {
			continue
		}
		if strings.Contains(lower, word) {
			return "true - the section mentions \"" + word + "\", which the request targets"
		}
	}
	return "false - the section contains nothing related to the request"
}

func selectorFor(prompt string) string {
	snippet := between(prompt, "Original Code Snippet (relevant portion only):\n", "\n\nUser Modification Request:")
	for _, tag := range []string{"h1", "p", "div", "span", "a"} {
		if strings.Contains(snippet, "<"+tag) {
			return tag
		}
	}
	return "body"
}

func between(s, from, to string) string {
	i := strings.Index(s, from)
	if i < 0 {
		return ""
	}
	s = s[i+len(from):]
	j := strings.Index(s, to)
	if j < 0 {
		return s
	}
	return s[:j]
}
