// Package summarizer condenses report descriptions with a hosted language model.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"google.golang.org/genai"
)

const (
	Instruction = "You are a summarizer. I just want to have the summary in a 3-4 sentences. Please summarize the following text: "

	// FallbackSummary is stored when the model cannot be reached.
	FallbackSummary = "An error occurred while summarizing."
)

var (
	ErrEmptySummary  = errors.New("model returned an empty summary")
	ErrNotConfigured = errors.New("summarizer is not configured")
)

var fallbacks = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "scamspotter",
	Subsystem: "summarizer",
	Name:      "fallbacks_total",
	Help:      "Summaries replaced by the fallback text",
})

// Generator is a text-in, text-out model call.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

type GeneratorFunc func(ctx context.Context, model, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, model, prompt string) (string, error) {
	return f(ctx, model, prompt)
}

// Gemini calls the Gemini API.
type Gemini struct {
	client *genai.Client
}

func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client}, nil
}

func (g *Gemini) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}

// Summarizer asks the model for a 3-4 sentence summary.
type Summarizer struct {
	gen   Generator
	model string
}

func New(gen Generator, model string) *Summarizer {
	return &Summarizer{gen: gen, model: model}
}

// Summarize never leaves the caller without text: on failure it returns
// FallbackSummary together with the cause.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	if s == nil || s.gen == nil {
		fallbacks.Inc()
		return FallbackSummary, ErrNotConfigured
	}

	summary, err := s.gen.Generate(ctx, s.model, Instruction+text)
	if err != nil {
		fallbacks.Inc()
		return FallbackSummary, err
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		fallbacks.Inc()
		return FallbackSummary, ErrEmptySummary
	}
	return summary, nil
}
