package advice

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/agrisense/agri-api/internal/metrics"
	"github.com/agrisense/agri-api/internal/prompt"
)

// Service builds prompts and forwards them to a Completer.
type Service struct {
	c      Completer
	logger *zap.Logger
}

func NewService(c Completer, logger *zap.Logger) *Service {
	return &Service{c: c, logger: logger}
}

// DiseaseInfo asks for a markdown report on a predicted label.
func (s *Service) DiseaseInfo(ctx context.Context, label, language, followup string) (string, error) {
	return s.complete(ctx, "disease_info", prompt.DiseasePrompt(label, language, followup))
}

// Ask forwards a free-form agricultural question.
func (s *Service) Ask(ctx context.Context, query, language string) (string, error) {
	return s.complete(ctx, "chat", prompt.ChatPrompt(query, language))
}

func (s *Service) complete(ctx context.Context, kind, p string) (string, error) {
	start := time.Now()
	text, err := s.c.Complete(ctx, p)
	outcome := OutcomeOf(err)
	metrics.AdviceDurationSeconds.WithLabelValues(string(outcome)).Observe(time.Since(start).Seconds())

	if err != nil {
		s.logger.Warn("advice request failed",
			zap.String("kind", kind),
			zap.String("outcome", string(outcome)),
			zap.Error(err))
		return "", err
	}

	s.logger.Debug("advice request completed",
		zap.String("kind", kind),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("chars", len(text)))
	return text, nil
}
