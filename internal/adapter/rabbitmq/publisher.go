package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/YelzhanWeb/orderboard/internal/interfaces"
)

type publisher struct {
	conn Connection
}

func NewPublisher(conn Connection) interfaces.SnapshotPublisher {
	return &publisher{conn: conn}
}

func (p *publisher) PublishSnapshot(ctx context.Context, msg interfaces.SnapshotMessage) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	// Declare exchange
	if err := ch.ExchangeDeclare(SnapshotExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = ch.PublishWithContext(ctx, SnapshotExchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   msg.Order.ID + ":" + strconv.FormatInt(msg.Revision, 10),
		Timestamp:   msg.PublishedAt,
		Type:        msg.Cause,
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}
