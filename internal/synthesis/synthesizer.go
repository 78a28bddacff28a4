package synthesis

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/curiobot/curio/internal/curio"
)

// Synthesizer drives the completion endpoint and parses replies into
// classifications.
type Synthesizer struct {
	completer Completer
	system    string
	logger    *zap.Logger
}

var _ curio.Synthesizer = (*Synthesizer)(nil)

// New builds a Synthesizer around a Completer.
func New(completer Completer, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		completer: completer,
		system:    systemPrompt(),
		logger:    logger,
	}
}

// AnalyzeContent classifies an extracted envelope. rawText is the chat
// message the URL arrived in, included for context.
func (s *Synthesizer) AnalyzeContent(ctx context.Context, env curio.ContentEnvelope, rawText string) (curio.Classification, error) {
	c, err := s.analyze(ctx, contentPrompt(env, rawText))
	if err != nil {
		return curio.Classification{}, err
	}
	// Extracted facts beat model guesses for fields we observed directly.
	if env.Title != "" {
		c.Title = env.Title
	}
	if c.Duration == "" {
		c.Duration = env.Meta["duration"]
	}
	if c.ContentType == "" {
		c.ContentType = string(env.Category)
	}
	return c, nil
}

// AnalyzeURL is the degraded path used when every extraction attempt failed:
// the model classifies from the URL and chat message alone.
func (s *Synthesizer) AnalyzeURL(ctx context.Context, url, rawText string) (curio.Classification, error) {
	s.logger.Info("synthesizing from url only", zap.String("url", url))
	return s.analyze(ctx, urlPrompt(url, rawText))
}

func (s *Synthesizer) analyze(ctx context.Context, user string) (curio.Classification, error) {
	reply, err := s.completer.Complete(ctx, s.system, user)
	if err != nil {
		return curio.Classification{}, fmt.Errorf("chat completion: %w", err)
	}
	c, err := parseClassification(reply)
	if err != nil {
		s.logger.Warn("unusable completion", zap.Error(err))
		return curio.Classification{}, err
	}
	return c, nil
}
