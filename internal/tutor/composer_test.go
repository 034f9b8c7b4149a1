package tutor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeContainsAllSections(t *testing.T) {
	prompt := Compose(
		"USER: What is osmosis?\nASSISTANT: Movement of water across a membrane.",
		"Osmosis is the movement of solvent molecules.",
		"Explain that more",
	)

	assert.Contains(t, prompt, "Conversation history:\nUSER: What is osmosis?")
	assert.Contains(t, prompt, "Context:\nOsmosis is the movement of solvent molecules.")
	assert.Contains(t, prompt, "Student's question: Explain that more")
}

func TestComposeRulePriorityOrder(t *testing.T) {
	prompt := Compose("", "", "anything")

	grounding := strings.Index(prompt, "only on the information in the context")
	refusal := strings.Index(prompt, "does not contain enough information")
	greeting := strings.Index(prompt, "greeting or casual conversation")
	elaboration := strings.Index(prompt, "practice questions such as MCQs")
	references := strings.Index(prompt, "resolve unclear references")

	require.NotEqual(t, -1, grounding)
	require.NotEqual(t, -1, refusal)
	require.NotEqual(t, -1, greeting)
	require.NotEqual(t, -1, elaboration)
	require.NotEqual(t, -1, references)

	assert.Less(t, grounding, refusal)
	assert.Less(t, refusal, greeting)
	assert.Less(t, greeting, elaboration)
	assert.Less(t, elaboration, references)
}

func TestComposeEmptyContextGreeting(t *testing.T) {
	prompt := Compose("", "", "Hello")

	// A greeting with no history and no context must still reach the
	// model verbatim, with the greeting exception carved out of the
	// refusal rule rather than overridden by it.
	assert.Contains(t, prompt, "Student's question: Hello")
	assert.Contains(t, prompt, "Exception to rule 2")
	assert.Contains(t, prompt, "reply naturally instead of refusing")
}

func TestComposeIsDeterministic(t *testing.T) {
	a := Compose("h", "c", "q")
	b := Compose("h", "c", "q")
	assert.Equal(t, a, b)
}

func TestComposePreservesPercentSigns(t *testing.T) {
	prompt := Compose("USER: previous", "Water is about 70% of the cell.", "What % of a cell is water?")
	assert.Contains(t, prompt, "70% of the cell")
	assert.Contains(t, prompt, "What % of a cell is water?")
}
