package tutor

import (
	"context"
	"testing"

	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedikagupta0/ncert-ai-tutor/internal/conversation"
	"github.com/vedikagupta0/ncert-ai-tutor/internal/history"
	"github.com/vedikagupta0/ncert-ai-tutor/internal/index"
	"github.com/vedikagupta0/ncert-ai-tutor/internal/log"
	"github.com/vedikagupta0/ncert-ai-tutor/internal/testutil"
)

// TestTwoTurnLesson drives the full pipeline with the real rewriter,
// retriever, generator, and titler over a scripted model: a grounded
// first answer, then a follow-up MCQ request that leans on history.
func TestTwoTurnLesson(t *testing.T) {
	g := genkit.Init(context.Background())

	mock := testutil.NewMockModel("I could not find that in your textbook.")
	mock.AddResponse("follow-up question: what is photosynthesis",
		"What is photosynthesis?")
	mock.AddResponse("follow-up question: give me an mcq on it",
		"Give me an MCQ on photosynthesis")
	mock.AddResponse("student's question: what is photosynthesis",
		"Photosynthesis converts light energy into chemical energy inside the chloroplast.")
	mock.AddResponse("student's question: give me an mcq on it",
		"Which organelle carries out photosynthesis? A) Mitochondria B) Chloroplast C) Nucleus D) Ribosome. Answer: B.")
	mock.AddResponse("very short title", "Photosynthesis basics")
	modelName := mock.Register(g)

	searcher := &stubSearcher{passages: []index.Passage{
		{Text: "Photosynthesis takes place in the chloroplast.", Rank: 0, Similarity: 0.95},
		{Text: "Light reactions split water molecules.", Rank: 1, Similarity: 0.88},
	}}

	reg := conversation.NewRegistry(log.NewNop())
	tut, err := New(Config{
		Registry:  reg,
		Rewriter:  NewRewriter(g, modelName, log.NewNop()),
		Retriever: NewRetriever(searcher, 4, log.NewNop()),
		Generator: NewGenerator(g, modelName, 0, log.NewNop()),
		Titler:    NewTitler(g, modelName, log.NewNop()),
		Logger:    log.NewNop(),
	})
	require.NoError(t, err)

	conv := reg.Active()
	require.Zero(t, conv.History.Len())

	answer, err := tut.Answer(context.Background(), conv.ID, "What is photosynthesis?")
	require.NoError(t, err)
	assert.Contains(t, answer, "chloroplast")
	assert.Equal(t, 2, conv.History.Len())
	assert.Equal(t, "Photosynthesis basics", conv.Title())

	answer, err = tut.Answer(context.Background(), conv.ID, "Give me an MCQ on it")
	require.NoError(t, err)
	assert.Contains(t, answer, "B) Chloroplast")

	turns := conv.History.Turns()
	require.Len(t, turns, 4)
	assert.Equal(t, history.RoleUser, turns[2].Role)
	assert.Equal(t, "Give me an MCQ on it", turns[2].Text)
	assert.Equal(t, history.RoleAssistant, turns[3].Role)

	// The second retrieval searched on the rewritten, self-contained
	// query, not the bare follow-up.
	assert.Equal(t, "Give me an MCQ on photosynthesis", searcher.gotQuery)
}
