package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-research-be/internal/apperr"
	"ai-research-be/pkg/llm"
)

func TestParseSubtasks(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "newline separated",
			raw:  "What is X?\nHow does Y work?",
			want: []string{"What is X?", "How does Y work?"},
		},
		{
			name: "semicolon separated",
			raw:  "first; second; third",
			want: []string{"first", "second", "third"},
		},
		{
			name: "bulleted list",
			raw:  "- alpha\n* beta\n• gamma",
			want: []string{"alpha", "beta", "gamma"},
		},
		{
			name: "numbered list",
			raw:  "1. alpha\n2) beta\n10: gamma",
			want: []string{"alpha", "beta", "gamma"},
		},
		{
			name: "duplicates removed",
			raw:  "alpha\nalpha\nbeta",
			want: []string{"alpha", "beta"},
		},
		{
			name: "blank lines skipped",
			raw:  "alpha\n\n\nbeta\n",
			want: []string{"alpha", "beta"},
		},
		{
			name: "empty input",
			raw:  "   \n  ",
			want: nil,
		},
		{
			name: "question with inner punctuation survives",
			raw:  "What does 2.5 mean in context?",
			want: []string{"What does 2.5 mean in context?"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseSubtasks(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("parseSubtasks(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("subtask %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

type scriptedProvider struct {
	response string
	err      error
	prompt   string
}

func (p *scriptedProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return p.response, p.err
}

func (p *scriptedProvider) ChatStream(ctx context.Context, history []llm.Message, onChunk llm.ChunkHandler, options ...llm.Option) (string, error) {
	p.prompt = history[len(history)-1].Content
	if p.err != nil {
		return "", p.err
	}
	onChunk(p.response)
	return p.response, nil
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	p.prompt = prompt
	return p.response, p.err
}

func TestDecomposeFallsBackToWholeQuery(t *testing.T) {
	a := NewAgent(&scriptedProvider{response: "   \n  "})
	subtasks, err := a.Decompose(context.Background(), "  the whole question  ")
	if err != nil {
		t.Fatal(err)
	}
	if len(subtasks) != 1 || subtasks[0] != "the whole question" {
		t.Errorf("Decompose fallback = %v, want the trimmed query", subtasks)
	}
}

func TestDecomposeUpstreamError(t *testing.T) {
	a := NewAgent(&scriptedProvider{err: errors.New("model down")})
	_, err := a.Decompose(context.Background(), "q")
	if err == nil {
		t.Fatal("expected error")
	}
	if apperr.KindOf(err) != apperr.KindUpstream {
		t.Errorf("kind = %v, want upstream", apperr.KindOf(err))
	}
}

func TestSummarizeEmptyContentUsesSentinel(t *testing.T) {
	p := &scriptedProvider{response: "nothing was found"}
	a := NewAgent(p)

	if _, err := a.Summarize(context.Background(), "sub", "   "); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(p.prompt, NoContentSentinel) {
		t.Errorf("prompt should carry the sentinel, got %q", p.prompt)
	}
}

func TestFinalizeStreamsChunks(t *testing.T) {
	a := NewAgent(&scriptedProvider{response: "the answer"})

	var chunks []string
	answer, err := a.Finalize(context.Background(), "q", []string{"sub a", "sub b"}, []string{"s1", "s2"}, func(chunk string) {
		chunks = append(chunks, chunk)
	})
	if err != nil {
		t.Fatal(err)
	}
	if answer != "the answer" {
		t.Errorf("answer = %q", answer)
	}
	if len(chunks) != 1 || chunks[0] != "the answer" {
		t.Errorf("chunks = %v", chunks)
	}
}

func TestFinalizePromptCarriesSubtasks(t *testing.T) {
	p := &scriptedProvider{response: "done"}
	a := NewAgent(p)

	_, err := a.Finalize(context.Background(), "the question",
		[]string{"what is X", "why Y matters"},
		[]string{"summary one", "summary two"},
		func(string) {})
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"the question", "what is X", "why Y matters", "summary one", "summary two"} {
		if !strings.Contains(p.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
