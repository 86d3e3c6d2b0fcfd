// Package router decides, per content category, whether the payload fits
// the token budget in one piece or must be split, then fans classification
// and conditional patch synthesis across the chunks in order.
package router

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/reskindev/reskin/internal/chunk"
	"github.com/reskindev/reskin/internal/classify"
	"github.com/reskindev/reskin/internal/modification"
	"github.com/reskindev/reskin/internal/synth"
	"github.com/reskindev/reskin/internal/token"
)

// TokenBudget is the fixed per-chunk token limit.
const TokenBudget = 400_000

// Router runs the per-category decision pipeline. Chunks are processed
// strictly in sequence so result order always reflects content position.
type Router struct {
	Counter     token.Counter
	Classifier  *classify.Classifier
	Synthesizer *synth.Synthesizer
	// Budget overrides TokenBudget when positive; tests use small budgets.
	Budget int
}

func (r *Router) budget() int {
	if r.Budget > 0 {
		return r.Budget
	}
	return TokenBudget
}

// Route evaluates one category's content. Any failure inside the routine is
// absorbed here: the category degrades to an empty entry and siblings are
// unaffected.
func (r *Router) Route(ctx context.Context, category modification.Category, content, userCommand string) modification.Entry {
	entry, err := r.route(ctx, category, content, userCommand)
	if err != nil {
		log.Error().Err(err).Str("category", string(category)).Msg("category routing failed, returning empty entry")
		return modification.Entry{}
	}
	return entry
}

func (r *Router) route(ctx context.Context, category modification.Category, content, userCommand string) (modification.Entry, error) {
	count := r.Counter.Count(ctx, content)
	budget := r.budget()

	if count <= budget {
		res, err := r.evaluate(ctx, category, content, userCommand, 0)
		if err != nil {
			return modification.Entry{}, err
		}
		return modification.Entry{Single: &res}, nil
	}

	numChunks := chunk.Count(count, budget)
	log.Info().
		Str("category", string(category)).
		Int("tokens", count).
		Int("chunks", numChunks).
		Msg("content exceeds token budget, splitting")

	chunks := chunk.Split(content, numChunks)
	results := make([]modification.Result, 0, len(chunks))
	for i, c := range chunks {
		res, err := r.evaluate(ctx, category, c, userCommand, i+1)
		if err != nil {
			return modification.Entry{}, fmt.Errorf("chunk %d: %w", i+1, err)
		}
		results = append(results, res)
	}
	return modification.Entry{Chunks: results}, nil
}

// evaluate classifies one piece of content and, when flagged, synthesizes
// the patch. chunkIndex is 1-based, zero for unchunked content.
func (r *Router) evaluate(ctx context.Context, category modification.Category, content, userCommand string, chunkIndex int) (modification.Result, error) {
	verdict, err := r.Classifier.Classify(ctx, category, content, userCommand)
	if err != nil {
		return modification.Result{}, err
	}

	res := modification.Result{
		Chunk:       chunkIndex,
		Decision:    modification.Decision(verdict.Decision),
		Explanation: verdict.Explanation,
	}
	if !verdict.Decision {
		return res, nil
	}

	patch, err := r.Synthesizer.Synthesize(ctx, category, content, userCommand, verdict.Explanation)
	if err != nil {
		return modification.Result{}, err
	}
	if !patch.Complete() {
		// Malformed synthesis: null both halves rather than apply a
		// dangling selector.
		log.Warn().Str("category", string(category)).Int("chunk", chunkIndex).Msg("synthesis output malformed, dropping patch")
		return res, nil
	}
	res.SetPatch(patch.ModifiedCode, patch.Selector)
	return res, nil
}
