package qa

import (
	"fmt"
	"strings"
)

// NoContextAnswer is returned when no excerpt clears the score threshold.
const NoContextAnswer = "No relevant documents found or context is insufficient to answer your question."

const promptTemplate = `You are an AI assistant that answers questions based on provided document excerpts.
Your task is to analyze the context and provide a clear and accurate answer to the user's question.

Context:
%s

Question: %s
Answer concisely and clearly based on the context above. If additional calculations or interpretations are needed, provide them explicitly.`

// BuildPrompt formats at most limit excerpts into the answering prompt.
func BuildPrompt(question string, excerpts []Excerpt, limit int) string {
	if limit > 0 && len(excerpts) > limit {
		excerpts = excerpts[:limit]
	}
	parts := make([]string, len(excerpts))
	for i, e := range excerpts {
		parts[i] = fmt.Sprintf("Excerpt %d:\n%s", i+1, strings.TrimSpace(e.Content))
	}
	return fmt.Sprintf(promptTemplate, strings.Join(parts, "\n"), question)
}
