package kafka

import (
	"context"
	"time"
)

// ProducerMessage is an outbound record.
type ProducerMessage struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// Message is an inbound record handed to a MessageHandler.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// MessageHandler processes one record. A returned error triggers retries.
type MessageHandler func(ctx context.Context, msg *Message) error

// MessagePublisher is the producer surface used outside this package.
type MessagePublisher interface {
	Publish(ctx context.Context, msg *ProducerMessage) error
	PublishBatch(ctx context.Context, msgs []*ProducerMessage) (*BatchPublishResult, error)
}

type BatchItemError struct {
	Index int
	Topic string
	Error error
}

type BatchPublishResult struct {
	Succeeded int
	Failed    int
	Errors    []BatchItemError
}

//Personal.AI order the ending
