package agent

import (
	"context"
	"fmt"
	"strings"

	"ai-research-be/internal/apperr"
	"ai-research-be/pkg/llm"
)

// NoContentSentinel is passed to the model instead of an empty document so the
// summary states the absence explicitly rather than hallucinating.
const NoContentSentinel = "No content."

// Agent wraps the LLM behind the three research operations the pipeline needs.
type Agent struct {
	provider llm.LLMProvider
}

func NewAgent(provider llm.LLMProvider) *Agent {
	return &Agent{provider: provider}
}

const decomposePrompt = `Decompose the following research question into a short list of focused sub-questions, one per line. Answer with the sub-questions only, no preamble.

Question: %s`

// Decompose splits a query into subtasks. A useless model answer degrades to
// the whole query as a single subtask, never to zero subtasks.
func (a *Agent) Decompose(ctx context.Context, query string) ([]string, error) {
	raw, err := a.provider.Generate(ctx, fmt.Sprintf(decomposePrompt, query), llm.WithTemperature(0.2))
	if err != nil {
		return nil, apperr.Upstream("decompose failed", err)
	}

	subtasks := parseSubtasks(raw)
	if len(subtasks) == 0 {
		subtasks = []string{strings.TrimSpace(query)}
	}
	return subtasks, nil
}

// parseSubtasks accepts newline or semicolon separated lists and strips
// common bullet and numbering prefixes.
func parseSubtasks(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == ';'
	})

	seen := make(map[string]bool)
	var out []string
	for _, f := range fields {
		s := strings.TrimSpace(f)
		s = strings.TrimLeft(s, "-*• \t")
		if i := strings.IndexAny(s, ".):"); i > 0 && i <= 3 && isNumeric(s[:i]) {
			s = strings.TrimSpace(s[i+1:])
		}
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

const summarizePrompt = `You are summarizing source material for the research sub-question below. Write a dense factual summary of the content. If the content says "%s", state that no material was found.

Sub-question: %s

Content:
%s`

func (a *Agent) Summarize(ctx context.Context, subtask, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		content = NoContentSentinel
	}
	summary, err := a.provider.Generate(ctx,
		fmt.Sprintf(summarizePrompt, NoContentSentinel, subtask, content),
		llm.WithTemperature(0.3))
	if err != nil {
		return "", apperr.Upstream("summarize failed", err)
	}
	return strings.TrimSpace(summary), nil
}

const finalizePrompt = `Answer the research question using only the summaries below. Cite which sub-question each claim comes from. Be direct and complete.

Question: %s

Sub-questions:
%s
Summaries:
%s`

// Finalize produces the final answer from the confirmed sub-questions and
// their summaries, streaming chunks through onChunk when the provider
// supports it.
func (a *Agent) Finalize(ctx context.Context, query string, subtasks, summaries []string, onChunk llm.ChunkHandler) (string, error) {
	var names strings.Builder
	for i, name := range subtasks {
		fmt.Fprintf(&names, "%d. %s\n", i+1, name)
	}
	var sb strings.Builder
	for i, s := range summaries {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, s)
	}

	prompt := fmt.Sprintf(finalizePrompt, query, names.String(), sb.String())
	answer, err := a.provider.ChatStream(ctx,
		[]llm.Message{{Role: "user", Content: prompt}},
		onChunk,
		llm.WithTemperature(0.4))
	if err != nil {
		return "", apperr.Upstream("finalize failed", err)
	}
	return strings.TrimSpace(answer), nil
}
