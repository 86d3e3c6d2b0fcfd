package llm

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/reskindev/reskin/internal/cache"
)

// CachingClient wraps a Client with a disk cache of assistant replies. The
// same model and messages always produce the same key, so repeated runs of
// one command against an unchanged page never reach the backend twice.
type CachingClient struct {
	Inner Client
	Cache *cache.ResponseCache
}

func (c *CachingClient) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	key := cache.KeyFrom(request.Model, promptDigestInput(request))

	if b, ok, err := c.Cache.Get(ctx, key); err == nil && ok {
		log.Debug().Str("key", key[:12]).Msg("model response served from cache")
		return openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{
					Role:    openai.ChatMessageRoleAssistant,
					Content: string(b),
				},
			}},
		}, nil
	}

	resp, err := c.Inner.CreateChatCompletion(ctx, request)
	if err != nil {
		return resp, err
	}
	if len(resp.Choices) > 0 {
		if err := c.Cache.Save(ctx, key, []byte(resp.Choices[0].Message.Content)); err != nil {
			log.Warn().Err(err).Msg("cache model response")
		}
	}
	return resp, nil
}

// promptDigestInput flattens the conversation into the string the cache key
// is derived from.
func promptDigestInput(request openai.ChatCompletionRequest) string {
	var sb strings.Builder
	for _, m := range request.Messages {
		sb.WriteString(m.Role)
		sb.WriteString(":\n")
		sb.WriteString(m.Content)
		sb.WriteString("\n---\n")
	}
	return sb.String()
}
