package tutor

import "strings"

// answerRules is the instruction block sent ahead of every answer
// prompt. The rules are ordered by priority and the model is told to
// apply them in that order; changing the wording or the order changes
// observable answer behavior, so treat edits as behavior changes.
const answerRules = `You are a helpful tutor for NCERT students of classes 6 to 12. Answer the student's question by applying these rules in priority order:
1. Base your answer only on the information in the context below.
2. If the context does not contain enough information to answer, say so clearly instead of making something up.
3. Exception to rule 2: if the student's message is a greeting or casual conversation rather than a subject question, reply naturally instead of refusing.
4. Exception to rule 1: if the student asks for illustrative examples, real-world applications, or practice questions such as MCQs, you may draw on general reasoning when the context and the conversation history are not enough.
5. Use the conversation history to resolve unclear references in the question before deciding the context is insufficient.
Keep your answer concise.`

// Compose renders the final answer prompt from the history window, the
// retrieved context, and the student's question. Pure string assembly,
// no I/O. Empty history and empty context are valid inputs; the rule
// block handles both.
func Compose(historyText, contextText, question string) string {
	var sb strings.Builder
	sb.WriteString(answerRules)
	sb.WriteString("\n\nConversation history:\n")
	sb.WriteString(historyText)
	sb.WriteString("\n\nContext:\n")
	sb.WriteString(contextText)
	sb.WriteString("\n\nStudent's question: ")
	sb.WriteString(question)
	return sb.String()
}
