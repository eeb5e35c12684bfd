package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"inventory-audit/internal/domain"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	log "github.com/sirupsen/logrus"
)

const deliveryTimeout = 10 * time.Second

// AuditPublisher mirrors persisted audit events to a Kafka topic. Messages are
// keyed by entity so the history of one entity stays on one partition.
type AuditPublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewAuditPublisher(bootstrapServers, topic string) (*AuditPublisher, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  bootstrapServers,
		"enable.idempotence": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.WithField("topic", topic).Info("Audit Kafka producer created")

	return &AuditPublisher{producer: p, topic: topic}, nil
}

// Publish produces every event of the batch, then waits for all deliveries
// under one deadline: ctx's, or deliveryTimeout when ctx has none.
func (p *AuditPublisher) Publish(ctx context.Context, events []domain.AuditEvent) error {
	if len(events) == 0 {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deliveryTimeout)
		defer cancel()
	}

	deliveryChan := make(chan kafka.Event, len(events))
	var errs []error
	pending := 0

	for _, event := range events {
		msg, err := newMessage(p.topic, event)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := p.producer.Produce(msg, deliveryChan); err != nil {
			errs = append(errs, fmt.Errorf("failed to produce audit event %s: %w", event.ID, err))
			continue
		}
		pending++
	}

	for ; pending > 0; pending-- {
		select {
		case e := <-deliveryChan:
			if err := deliveryError(e); err != nil {
				errs = append(errs, err)
			}
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("%d audit events not confirmed: %w", pending, ctx.Err()))
			return errors.Join(errs...)
		}
	}
	return errors.Join(errs...)
}

func newMessage(topic string, event domain.AuditEvent) (*kafka.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit event %s: %w", event.ID, err)
	}
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            MessageKey(event),
		Value:          payload,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(event.Action)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}, nil
}

func deliveryError(e kafka.Event) error {
	msg, ok := e.(*kafka.Message)
	if !ok {
		return fmt.Errorf("unexpected event type: %T", e)
	}
	if msg.TopicPartition.Error != nil {
		return fmt.Errorf("delivery failed: %w", msg.TopicPartition.Error)
	}
	return nil
}

func (p *AuditPublisher) Close() {
	log.Info("Closing audit Kafka producer...")
	p.producer.Flush(15 * 1000)
	p.producer.Close()
}

// MessageKey is "<entity_kind>:<entity_id>", with an empty id part for events
// stored without an entity id.
func MessageKey(event domain.AuditEvent) []byte {
	key := string(event.EntityKind) + ":"
	if event.EntityID != nil {
		key += strconv.FormatInt(*event.EntityID, 10)
	}
	return []byte(key)
}
