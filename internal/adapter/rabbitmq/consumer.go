package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YelzhanWeb/orderboard/internal/adapter/logger"
	"github.com/YelzhanWeb/orderboard/internal/interfaces"
)

type consumer struct {
	conn           Connection
	prefetch       int
	reconnectDelay time.Duration
	logger         logger.Logger
}

func NewConsumer(conn Connection, prefetch int, logger logger.Logger) interfaces.SnapshotConsumer {
	return &consumer{conn: conn, prefetch: prefetch, reconnectDelay: 5 * time.Second, logger: logger}
}

// ConsumeSnapshots binds a private queue to the snapshot exchange and feeds every
// delivery to handler until ctx is done, reconnecting when the channel drops.
func (c *consumer) ConsumeSnapshots(ctx context.Context, handler interfaces.SnapshotHandler) error {
	for {
		err := c.consumeSnapshots(ctx, handler)

		// Если контекст отменен - выходим
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err == nil {
			return nil
		}

		c.logger.Error("consumer_disconnected", "Snapshot consumer disconnected, reconnecting", "", map[string]interface{}{
			"retry_in": c.reconnectDelay.String(),
		}, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconnectDelay):
			// Продолжаем попытки переподключения
		}
	}
}

func (c *consumer) consumeSnapshots(ctx context.Context, handler interfaces.SnapshotHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	// Отслеживаем закрытие канала и соединения
	closeChan := ch.NotifyClose()
	connClose := c.conn.NotifyClose()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	// Declare exchange
	if err := ch.ExchangeDeclare(SnapshotExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	// Declare temporary exclusive queue
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	// Bind queue
	if err := ch.QueueBind(q.Name, "", SnapshotExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", false, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info("consumer_started", "Consuming order snapshots", "", map[string]interface{}{"queue": q.Name})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case err := <-connClose:
			if err != nil {
				return fmt.Errorf("connection closed: %w", err)
			}
			return fmt.Errorf("connection closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}

			if err := handler(ctx, msg.Body); err != nil {
				// Битые сообщения не возвращаем в очередь
				requeue := !errors.Is(err, interfaces.ErrMalformedMessage)
				if nackErr := msg.Nack(false, requeue); nackErr != nil {
					return fmt.Errorf("failed to nack: %w", nackErr)
				}
				continue
			}
			if err := msg.Ack(false); err != nil {
				return fmt.Errorf("failed to ack: %w", err)
			}
		}
	}
}
