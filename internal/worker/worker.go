// Package worker implements the submission processing loop.
package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/curiobot/curio/internal/curio"
	"github.com/curiobot/curio/internal/pipeline"
)

// Runner is satisfied by pipeline.Processor.
type Runner interface {
	Process(ctx context.Context, sub curio.Submission, source string) error
}

// Worker consumes queue items and runs each through the pipeline.
// Processing is sequential: one item is in flight at a time.
type Worker struct {
	queue  curio.Queue
	runner Runner
	logger *zap.Logger
}

// New constructs a Worker.
func New(queue curio.Queue, runner Runner, logger *zap.Logger) *Worker {
	return &Worker{
		queue:  queue,
		runner: runner,
		logger: logger,
	}
}

// Run blocks, consuming queue items until the context finishes.
func (w *Worker) Run(ctx context.Context) {
	for {
		item, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("queue dequeue failed", zap.Error(err))
			continue
		}
		w.logger.Debug("dequeued submission",
			zap.String("message_id", item.Submission.MessageID),
			zap.String("url", item.Submission.URL),
		)
		// Failures are recorded on the row by the pipeline; one bad URL
		// never stops the loop.
		if err := w.runner.Process(ctx, item.Submission, pipeline.SourceLive); err != nil {
			w.logger.Warn("submission failed",
				zap.String("message_id", item.Submission.MessageID),
				zap.String("url", item.Submission.URL),
				zap.Error(err),
			)
		}
	}
}
