// Package noop provides an event publisher for deployments without a
// message broker. Events are dropped after a debug log line.
package noop

import (
	"context"
	"log/slog"

	"github.com/finsight-cl/finsight/internal/core/domain"
)

type Publisher struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{logger: logger}
}

func (p *Publisher) PublishJobFinished(_ context.Context, event domain.JobEvent) error {
	p.logger.Debug("job event dropped, no broker configured",
		"job_id", event.JobID,
		"status", string(event.Status),
	)
	return nil
}

func (p *Publisher) Close() {}
