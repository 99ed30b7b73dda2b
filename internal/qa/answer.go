package qa

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/ziadkadry99/docqa/internal/llm"
)

// ErrEmptyQuestion is returned for blank questions.
var ErrEmptyQuestion = errors.New("question is empty")

// Answer is the result of asking a question.
type Answer struct {
	Question      string    `json:"question"`
	Text          string    `json:"answer"`
	HTML          string    `json:"answer_html"`
	Model         string    `json:"model"`
	Choice        string    `json:"choice"`
	Excerpts      []Excerpt `json:"excerpts"`
	InputTokens   int       `json:"input_tokens"`
	OutputTokens  int       `json:"output_tokens"`
	EstimatedCost float64   `json:"estimated_cost_usd"`
	AskedAt       time.Time `json:"asked_at"`
}

// Recorder persists answered questions.
type Recorder interface {
	Record(ctx context.Context, a *Answer) error
}

// Options holds the generation settings applied to every question.
type Options struct {
	MaxExcerpts int
	MaxTokens   int
	Temperature float64
}

// Answerer retrieves context and calls the selected LLM.
type Answerer struct {
	retriever *Retriever
	models    *llm.Registry
	opts      Options
	recorder  Recorder
	log       *slog.Logger
}

// NewAnswerer creates an Answerer. recorder may be nil.
func NewAnswerer(retriever *Retriever, models *llm.Registry, opts Options, recorder Recorder, logger *slog.Logger) *Answerer {
	if opts.MaxExcerpts <= 0 {
		opts.MaxExcerpts = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Answerer{
		retriever: retriever,
		models:    models,
		opts:      opts,
		recorder:  recorder,
		log:       logger,
	}
}

// Retriever exposes the underlying retriever for search-only callers.
func (a *Answerer) Retriever() *Retriever { return a.retriever }

// Answer answers question using the model choice ("openai", "grok", ...).
// An empty choice uses the registry's default.
func (a *Answerer) Answer(ctx context.Context, question, choice string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	provider, model, err := a.models.Resolve(choice)
	if err != nil {
		return nil, err
	}

	excerpts, err := a.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}

	ans := &Answer{
		Question: question,
		Model:    model,
		Choice:   provider.Name(),
		AskedAt:  time.Now().UTC(),
	}

	if len(excerpts) == 0 {
		a.log.Info("no relevant excerpts", "question_len", len(question))
		ans.Text = NoContextAnswer
		ans.Excerpts = []Excerpt{}
	} else {
		if len(excerpts) > a.opts.MaxExcerpts {
			excerpts = excerpts[:a.opts.MaxExcerpts]
		}
		ans.Excerpts = excerpts

		prompt := BuildPrompt(question, excerpts, a.opts.MaxExcerpts)
		resp, err := provider.Complete(ctx, llm.CompletionRequest{
			Model:       model,
			Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
			MaxTokens:   a.opts.MaxTokens,
			Temperature: a.opts.Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("asking %s: %w", provider.Name(), err)
		}

		ans.Text = strings.TrimSpace(resp.Content)
		if resp.Model != "" {
			ans.Model = resp.Model
		}
		ans.InputTokens = resp.InputTokens
		ans.OutputTokens = resp.OutputTokens
		if ans.InputTokens == 0 {
			ans.InputTokens = llm.EstimateTokens(prompt)
		}
		ans.EstimatedCost = llm.EstimateCost(model, ans.InputTokens, ans.OutputTokens)
		a.log.Info("question answered",
			"model", ans.Model,
			"excerpts", len(excerpts),
			"input_tokens", ans.InputTokens,
			"output_tokens", ans.OutputTokens,
		)
	}

	ans.HTML = RenderHTML(ans.Text)

	if a.recorder != nil {
		if err := a.recorder.Record(ctx, ans); err != nil {
			a.log.Warn("recording question failed", "error", err)
		}
	}
	return ans, nil
}

// RenderHTML converts a Markdown answer to HTML. Rendering errors fall
// back to the raw text.
func RenderHTML(text string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(text), &buf); err != nil {
		return text
	}
	return buf.String()
}
