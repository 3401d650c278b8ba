package rag

import (
	"fmt"
	"strings"
)

const synthesisSystemPrompt = `You answer questions using only the context provided by the user message.
If the context does not contain the answer, say so briefly. Do not mention the context itself.`

const contextSeparator = "\n\n---\n\n"

// buildSynthesisPrompt renders one tree-summarize step over texts.
func buildSynthesisPrompt(query string, texts []string) string {
	var b strings.Builder
	b.WriteString("Context information from multiple sources is below.\n")
	b.WriteString("---------------------\n")
	b.WriteString(strings.Join(texts, contextSeparator))
	b.WriteString("\n---------------------\n")
	b.WriteString("Given the information from multiple sources and not prior knowledge, answer the query.\n")
	fmt.Fprintf(&b, "Query: %s\n", query)
	b.WriteString("Answer: ")
	return b.String()
}
