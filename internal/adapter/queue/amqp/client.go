package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iho/txsummary/internal/domain"
)

const publishTimeout = 5 * time.Second

// Handler processes one import job. Returning an error wrapped with Permanent drops the
// delivery; any other error requeues it once.
type Handler func(ctx context.Context, job *domain.ImportJob) error

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Client publishes and consumes import jobs on a durable queue.
type Client struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	queue    string
	prefetch int
}

// Dial connects to the broker, retrying with exponential backoff until maxWait elapses,
// and declares the import queue.
func Dial(ctx context.Context, url, queue string, prefetch int, maxWait time.Duration) (*Client, error) {
	if _, err := amqp091.ParseURI(url); err != nil {
		return nil, fmt.Errorf("invalid AMQP url: %w", err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = maxWait

	var conn *amqp091.Connection
	err := backoff.RetryNotify(func() error {
		var dialErr error
		conn, dialErr = amqp091.Dial(url)
		return dialErr
	}, backoff.WithContext(policy, ctx), func(err error, wait time.Duration) {
		zerolog.Ctx(ctx).Warn().Err(err).Dur("retry_in", wait).Msg("AMQP broker not reachable")
	})
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{conn: conn, channel: channel, queue: queue, prefetch: prefetch}
	if err := client.setup(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func (c *Client) setup() error {
	if _, err := c.channel.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if c.prefetch > 0 {
		if err := c.channel.Qos(c.prefetch, 0, false); err != nil {
			return fmt.Errorf("set prefetch: %w", err)
		}
	}
	return nil
}

// EnqueueImport implements usecase.JobQueue.
func (c *Client) EnqueueImport(ctx context.Context, job *domain.ImportJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(ctx, "", c.queue, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    job.ID,
		Timestamp:    job.SubmittedAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish job: %w", err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("job_id", job.ID).
		Str("account_id", job.AccountID).
		Str("queue", c.queue).
		Msg("import job queued")
	return nil
}

// Consume runs handler for each delivery until ctx is done or the channel closes.
func (c *Client) Consume(ctx context.Context, handler Handler) error {
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	logger := zerolog.Ctx(ctx)
	logger.Info().Str("queue", c.queue).Msg("consuming import jobs")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			handleDelivery(ctx, d, handler)
		}
	}
}

// handleDelivery acks on success. Malformed bodies and permanent failures are dropped;
// other failures are requeued unless the delivery was already redelivered once.
func handleDelivery(ctx context.Context, d amqp091.Delivery, handler Handler) {
	logger := zerolog.Ctx(ctx)

	var job domain.ImportJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		logger.Error().Err(err).Str("message_id", d.MessageId).Msg("dropping malformed import job")
		_ = d.Nack(false, false)
		return
	}

	jobLogger := logger.With().Str("job_id", job.ID).Str("account_id", job.AccountID).Logger()
	err := handler(jobLogger.WithContext(ctx), &job)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case IsPermanent(err):
		jobLogger.Error().Err(err).Msg("import job rejected")
		_ = d.Nack(false, false)
	case d.Redelivered:
		jobLogger.Error().Err(err).Msg("import job failed after redelivery, dropping")
		_ = d.Nack(false, false)
	default:
		jobLogger.Warn().Err(err).Msg("import job failed, requeueing")
		_ = d.Nack(false, true)
	}
}

// Close closes the channel and the connection.
func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
