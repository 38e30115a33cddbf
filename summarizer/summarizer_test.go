package summarizer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizer_Summarize(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		var gotModel, gotPrompt string
		s := New(GeneratorFunc(func(ctx context.Context, model, prompt string) (string, error) {
			gotModel, gotPrompt = model, prompt
			return "  A short summary.\n", nil
		}), "gemini-2.0-flash")

		summary, err := s.Summarize(ctx, "Long description")
		assert.NoError(t, err)
		assert.Equal(t, "A short summary.", summary)
		assert.Equal(t, "gemini-2.0-flash", gotModel)
		assert.Equal(t, Instruction+"Long description", gotPrompt)
	})

	t.Run("ModelFailure", func(t *testing.T) {
		boom := errors.New("quota exceeded")
		s := New(GeneratorFunc(func(ctx context.Context, model, prompt string) (string, error) {
			return "", boom
		}), "gemini-2.0-flash")

		summary, err := s.Summarize(ctx, "Long description")
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, FallbackSummary, summary)
	})

	t.Run("EmptyResponse", func(t *testing.T) {
		s := New(GeneratorFunc(func(ctx context.Context, model, prompt string) (string, error) {
			return " ", nil
		}), "gemini-2.0-flash")

		summary, err := s.Summarize(ctx, "Long description")
		assert.ErrorIs(t, err, ErrEmptySummary)
		assert.Equal(t, FallbackSummary, summary)
	})

	t.Run("NotConfigured", func(t *testing.T) {
		var s *Summarizer
		summary, err := s.Summarize(ctx, "Long description")
		assert.ErrorIs(t, err, ErrNotConfigured)
		assert.Equal(t, FallbackSummary, summary)
	})
}
