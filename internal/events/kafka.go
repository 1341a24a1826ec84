// Package events connects the accounting service to Kafka: source documents
// come in on topics and posted journal entries go out.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/simonvc/bistroledger/internal/ledger"
	"github.com/simonvc/bistroledger/internal/logger"
)

var ErrMalformed = errors.New("malformed event")

type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

// PublishEntryPosted keys messages by entry id so updates to one entry stay ordered.
func (p *Publisher) PublishEntryPosted(ctx context.Context, evt ledger.EntryPosted) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.EntryID),
		Value: data,
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Bridge is the part of the accounting service the consumer feeds.
type Bridge interface {
	PostSale(ctx context.Context, evt ledger.SaleEvent) (*ledger.JournalEntry, error)
	PostPurchase(ctx context.Context, evt ledger.PurchaseEvent) (*ledger.JournalEntry, error)
	PostExpense(ctx context.Context, evt ledger.ExpenseApprovedEvent) (*ledger.JournalEntry, error)
}

type Topics struct {
	Sales     string
	Purchases string
	Expenses  string
}

func (t Topics) list() []string {
	var out []string
	for _, s := range []string{t.Sales, t.Purchases, t.Expenses} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

type Consumer struct {
	reader *kafka.Reader
	bridge Bridge
	topics Topics
}

func NewConsumer(brokers []string, groupID string, topics Topics, bridge Bridge) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     brokers,
			GroupID:     groupID,
			GroupTopics: topics.list(),
			MinBytes:    1,
			MaxBytes:    10e6,
		}),
		bridge: bridge,
		topics: topics,
	}
}

// Run consumes until ctx is cancelled. A message is committed once it is
// posted, found to be a duplicate or rejected as invalid. Any other failure
// stops the consumer without committing, so the message is read again on
// restart.
func (c *Consumer) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info("consuming source documents", "topics", c.topics.list())
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		err = c.Dispatch(ctx, msg.Topic, msg.Value)
		if err != nil && !Permanent(err) {
			log.Error("source document not posted", "topic", msg.Topic, "offset", msg.Offset, "error", err)
			return err
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit offset: %w", err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// Dispatch decodes one message and posts it through the bridge. Duplicates
// are logged and swallowed.
func (c *Consumer) Dispatch(ctx context.Context, topic string, value []byte) error {
	var (
		e   *ledger.JournalEntry
		err error
	)
	switch topic {
	case c.topics.Sales:
		var evt ledger.SaleEvent
		if err := decode(value, &evt); err != nil {
			return err
		}
		e, err = c.bridge.PostSale(ctx, evt)
	case c.topics.Purchases:
		var evt ledger.PurchaseEvent
		if err := decode(value, &evt); err != nil {
			return err
		}
		e, err = c.bridge.PostPurchase(ctx, evt)
	case c.topics.Expenses:
		var evt ledger.ExpenseApprovedEvent
		if err := decode(value, &evt); err != nil {
			return err
		}
		e, err = c.bridge.PostExpense(ctx, evt)
	default:
		return fmt.Errorf("%w: unknown topic %q", ErrMalformed, topic)
	}

	log := logger.FromContext(ctx)
	var dup *ledger.DuplicateSourceEventError
	switch {
	case errors.As(err, &dup):
		log.Info("source document already posted", "topic", topic, "reference", dup.ReferenceID, "entry_id", dup.EntryID)
		return nil
	case err != nil:
		if Permanent(err) {
			log.Warn("source document rejected", "topic", topic, "error", err)
		}
		return err
	}
	log.Debug("source document posted", "topic", topic, "entry_id", e.ID)
	return nil
}

// Permanent reports whether retrying the message could never succeed. A
// missing designated account is a configuration fault, so the message stays
// uncommitted until the chart is fixed.
func Permanent(err error) bool {
	return errors.Is(err, ErrMalformed) || ledger.IsClientError(err)
}

func decode(value []byte, v any) error {
	if err := json.Unmarshal(value, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
