package queue

import (
	"context"
	"errors"
	"time"

	apperrors "saveit/internal/errors"
	"saveit/internal/logger"
	"saveit/internal/notifier"
)

// Publisher is the publishing half of Client.
type Publisher interface {
	PublishSMS(ctx context.Context, msg *SMSMessage) error
}

// Notifier queues messages instead of sending them directly. The returned
// id is the queued message id.
type Notifier struct {
	publisher Publisher
}

var _ notifier.Notifier = (*Notifier)(nil)

// NewNotifier creates a Notifier publishing through p.
func NewNotifier(p Publisher) *Notifier {
	return &Notifier{publisher: p}
}

// Send implements notifier.Notifier.
func (n *Notifier) Send(ctx context.Context, to, body string) (string, error) {
	msg := NewSMSMessage(to, body, "")
	msg.UserID = notifier.UserIDFrom(ctx)
	if err := n.publisher.PublishSMS(ctx, msg); err != nil {
		return "", apperrors.Wrap(apperrors.ErrSMSDelivery, err)
	}
	return msg.ID, nil
}

// Deliver returns a consumer handler that sends each message through n.
func Deliver(n notifier.Notifier) func(context.Context, *SMSMessage) error {
	return func(ctx context.Context, msg *SMSMessage) error {
		_, err := n.Send(ctx, msg.To, msg.Body)
		return err
	}
}

// Consumer is the consuming half of Client.
type Consumer interface {
	ConsumeSMS(ctx context.Context, handler func(context.Context, *SMSMessage) error) error
}

// RunConsumer keeps c consuming until ctx is done, backing off between
// failed attempts.
func RunConsumer(ctx context.Context, c Consumer, handler func(context.Context, *SMSMessage) error) error {
	return runWithBackoff(ctx, c, handler, exponentialBackoff)
}

func runWithBackoff(ctx context.Context, c Consumer, handler func(context.Context, *SMSMessage) error, backoff func(int) time.Duration) error {
	for attempt := 0; ; attempt++ {
		err := c.ConsumeSMS(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && !isConnectionError(err) && !errors.Is(err, errChannelClosed) {
			return err
		}

		wait := backoff(attempt)
		logger.Get().Warnw("Consumer stopped, retrying",
			"error", err,
			"attempt", attempt+1,
			"backoff", wait,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
