package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// IntegrationEnv gates container-backed tests. Set TUTOR_INTEGRATION=1
// to run them; they need a local Docker daemon.
const IntegrationEnv = "TUTOR_INTEGRATION"

// SkipUnlessIntegration skips t unless integration tests are enabled.
func SkipUnlessIntegration(t *testing.T) {
	t.Helper()
	if testing.Short() || os.Getenv(IntegrationEnv) == "" {
		t.Skipf("set %s=1 to run container-backed tests", IntegrationEnv)
	}
}

// PassageDB wraps a pgvector-enabled Postgres container with a pool and
// an empty passages table matching the production index schema.
type PassageDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// passagesSchema mirrors the pre-built index this system reads in
// production. dim is the embedding dimensionality under test.
const passagesSchema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE passages (
    id BIGSERIAL PRIMARY KEY,
    content TEXT NOT NULL,
    embedding vector(%d) NOT NULL
);`

// StartPassageDB creates a Postgres container with the pgvector
// extension and an empty passages table of the given dimensionality.
// Cleanup is registered on t.
func StartPassageDB(t *testing.T, dim int) *PassageDB {
	t.Helper()

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"pgvector/pgvector:pg16",
		postgres.WithDatabase("tutor_test"),
		postgres.WithUsername("tutor_test"),
		postgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}
	t.Cleanup(func() {
		_ = pgContainer.Terminate(context.Background())
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("creating connection pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("pinging database: %v", err)
	}

	if _, err := pool.Exec(ctx, fmt.Sprintf(passagesSchema, dim)); err != nil {
		t.Fatalf("creating passages table: %v", err)
	}

	return &PassageDB{Container: pgContainer, Pool: pool, ConnStr: connStr}
}

// InsertPassage adds one pre-embedded passage to the test index.
func (db *PassageDB) InsertPassage(t *testing.T, content string, embedding []float32) {
	t.Helper()
	_, err := db.Pool.Exec(context.Background(),
		`INSERT INTO passages (content, embedding) VALUES ($1, $2::vector)`,
		content, vectorLiteral(embedding))
	if err != nil {
		t.Fatalf("inserting passage: %v", err)
	}
}

// vectorLiteral renders a float32 slice as a pgvector text literal.
func vectorLiteral(vec []float32) string {
	s := "["
	for i, v := range vec {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%g", v)
	}
	return s + "]"
}
