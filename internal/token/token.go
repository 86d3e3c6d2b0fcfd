// Package token wraps an external text-measurement encoding behind a small
// gateway. Token counting is advisory: it only steers the chunking decision,
// so any measurement failure degrades to zero rather than surfacing an error.
package token

import (
	"context"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog/log"
)

// Counter reports the token count of a string. Implementations must return
// 0 for empty input and 0 on any measurement failure, never an error.
type Counter interface {
	Count(ctx context.Context, text string) int
}

// DefaultEncoding is the BPE encoding used when none is configured.
const DefaultEncoding = "cl100k_base"

// TiktokenCounter measures text with a tiktoken BPE encoding. The encoding
// is resolved lazily on first use so that construction never fails.
type TiktokenCounter struct {
	// Encoding names the tiktoken encoding. Empty means DefaultEncoding.
	Encoding string

	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewCounter returns a TiktokenCounter for the default encoding.
func NewCounter() *TiktokenCounter {
	return &TiktokenCounter{}
}

// Count implements Counter. Empty input yields 0 without touching the
// encoder; an encoder that failed to load yields 0 for everything.
func (c *TiktokenCounter) Count(_ context.Context, text string) int {
	if text == "" {
		return 0
	}
	c.once.Do(func() {
		name := c.Encoding
		if name == "" {
			name = DefaultEncoding
		}
		enc, err := tiktoken.GetEncoding(name)
		if err != nil {
			log.Warn().Err(err).Str("encoding", name).Msg("token encoding unavailable, counts degrade to 0")
			return
		}
		c.enc = enc
	})
	if c.enc == nil {
		return 0
	}
	return len(c.enc.Encode(text, nil, nil))
}
