// Package index adapts the pre-built curriculum passage index.
//
// The index is a pgvector table populated ahead of time by an external
// ingestion job; this package only reads it. A Store embeds the query
// with the configured embedder and runs a nearest-neighbor lookup.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

// searchTimeout bounds a single embed-plus-lookup round trip so a slow
// index cannot block a turn indefinitely.
const searchTimeout = 10 * time.Second

const (
	searchSQL = `SELECT content, 1 - (embedding <=> $1::vector) AS similarity
FROM passages
ORDER BY embedding <=> $1::vector
LIMIT $2`

	countSQL = `SELECT COUNT(*) FROM passages`
)

// Passage is one retrieved curriculum excerpt. Rank is the position in
// the similarity ordering, starting at 0. Passage sets are ephemeral;
// they are never persisted beyond the turn that produced them.
type Passage struct {
	Text       string
	Rank       int
	Similarity float64
}

// Querier defines the database operations Store needs. Interfaces are
// defined by the consumer; *pgxpool.Pool satisfies this.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store performs similarity search over the passage index.
//
// Store is read-only and safe for concurrent use; it is created once at
// startup and reused across all turns.
type Store struct {
	querier  Querier
	embedder ai.Embedder
	logger   *slog.Logger
}

// New creates a Store. logger may be nil (defaults to slog.Default()).
func New(querier Querier, embedder ai.Embedder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{querier: querier, embedder: embedder, logger: logger}
}

// Search returns the top-k passages by similarity, ordered best first.
// Tie-breaking and the similarity metric belong to the index itself.
func (s *Store) Search(ctx context.Context, query string, k int) ([]Passage, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	queryCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	embeddingResp, err := s.embedder.Embed(queryCtx, &ai.EmbedRequest{
		Input: []*ai.Document{
			{Content: []*ai.Part{ai.NewTextPart(query)}},
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("embedding generation timeout: %w", err)
		}
		return nil, fmt.Errorf("generating query embedding: %w", err)
	}
	if len(embeddingResp.Embeddings) == 0 || len(embeddingResp.Embeddings[0].Embedding) == 0 {
		return nil, errors.New("empty embedding returned for query")
	}

	vec := pgvector.NewVector(embeddingResp.Embeddings[0].Embedding)

	rows, err := s.querier.Query(queryCtx, searchSQL, vec.String(), k)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("search query timeout: %w", err)
		}
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()

	var passages []Passage
	for rows.Next() {
		var p Passage
		if err := rows.Scan(&p.Text, &p.Similarity); err != nil {
			return nil, fmt.Errorf("scanning passage: %w", err)
		}
		p.Rank = len(passages)
		passages = append(passages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading passages: %w", err)
	}

	s.logger.Debug("searched passage index", "k", k, "hits", len(passages))
	return passages, nil
}

// Count returns the number of indexed passages. Used by the readiness
// probe to verify the index is reachable and non-empty.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.querier.QueryRow(ctx, countSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting passages: %w", err)
	}
	return count, nil
}
