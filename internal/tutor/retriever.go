package tutor

import (
	"context"
	"log/slog"
	"strings"

	"github.com/vedikagupta0/ncert-ai-tutor/internal/index"
)

// Searcher is the retrieval operation the pipeline needs. *index.Store
// satisfies this.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]index.Passage, error)
}

// Retriever flattens top-k similarity hits into a single context
// string for the prompt composer.
type Retriever struct {
	searcher Searcher
	k        int
	logger   *slog.Logger
}

// NewRetriever creates a Retriever that fetches the top k passages per
// query.
func NewRetriever(searcher Searcher, k int, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{searcher: searcher, k: k, logger: logger}
}

// Context returns the retrieved passages joined by a blank line, in the
// order the index returned them. No deduplication, truncation, or
// re-ranking happens here.
//
// A failed or empty lookup yields the empty string. That is a valid
// state, not an error: the composer's insufficient-context rule turns
// it into a graceful answer, so a retrieval outage degrades the answer
// instead of aborting the turn.
func (r *Retriever) Context(ctx context.Context, query string) string {
	passages, err := r.searcher.Search(ctx, query, r.k)
	if err != nil {
		r.logger.Warn("retrieval unavailable, continuing with empty context", "error", err)
		return ""
	}
	if len(passages) == 0 {
		return ""
	}

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	return strings.Join(texts, "\n\n")
}
