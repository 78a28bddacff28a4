// Package pubsub bridges a Google Cloud Pub/Sub subscription onto the
// in-process submission queue.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/curiobot/curio/internal/curio"
)

// Subscriber receives Submission JSON messages and enqueues them for the
// worker. Messages that do not decode are acked and dropped: redelivery
// cannot fix a malformed payload.
type Subscriber struct {
	client *pubsub.Client
	sub    *pubsub.Subscription
	queue  curio.Queue
	logger *zap.Logger
}

// NewSubscriber creates a Pub/Sub client and binds the named subscription.
// It authenticates using Application Default Credentials.
func NewSubscriber(ctx context.Context, projectID, subscriptionID string, queue curio.Queue, logger *zap.Logger) (*Subscriber, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	sub := client.Subscription(subscriptionID)
	ok, err := sub.Exists(ctx)
	if err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("close pubsub client after existence check failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("check subscription %q: %w", subscriptionID, err)
	}
	if !ok {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("close pubsub client after existence check failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("pubsub subscription %q does not exist in project %q", subscriptionID, projectID)
	}
	// One message at a time: the pipeline is sequential by design.
	sub.ReceiveSettings.MaxOutstandingMessages = 1
	return &Subscriber{
		client: client,
		sub:    sub,
		queue:  queue,
		logger: logger,
	}, nil
}

// Run blocks receiving messages until the context finishes.
func (s *Subscriber) Run(ctx context.Context) error {
	err := s.sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		var sub curio.Submission
		if err := json.Unmarshal(msg.Data, &sub); err != nil {
			s.logger.Warn("dropping malformed submission message",
				zap.String("message_id", msg.ID), zap.Error(err))
			msg.Ack()
			return
		}
		if sub.URL == "" {
			s.logger.Warn("dropping submission without url", zap.String("message_id", msg.ID))
			msg.Ack()
			return
		}
		if err := s.queue.Enqueue(ctx, curio.QueueItem{Submission: sub}); err != nil {
			msg.Nack()
			return
		}
		msg.Ack()
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("receive: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Subscriber) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
