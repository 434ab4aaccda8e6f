package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/MedRemind/pkg/errors"
)

type mockKafkaWriter struct {
	writeFunc func(ctx context.Context, msgs ...kafka.Message) error
	written   []kafka.Message
	closed    int
}

func (m *mockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if m.writeFunc != nil {
		return m.writeFunc(ctx, msgs...)
	}
	m.written = append(m.written, msgs...)
	return nil
}

func (m *mockKafkaWriter) Close() error {
	m.closed++
	return nil
}

func newTestProducer(w WriterInterface) *Producer {
	return newProducerWithWriter(w, ProducerConfig{Brokers: []string{"localhost:9092"}, MaxMessageBytes: 64}, logging.NewNopLogger())
}

func TestValidateProducerConfig(t *testing.T) {
	assert.NoError(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}, MaxRetries: -1}))
}

func TestNewProducer_BuildsWriter(t *testing.T) {
	p, err := NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}, RequiredAcks: -1}, nil)
	require.NoError(t, err)
	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
	assert.Equal(t, 4, w.MaxAttempts)
	assert.NoError(t, p.Close())
}

func TestPublish_Success(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)

	err := p.Publish(context.Background(), &ProducerMessage{
		Topic:   TopicReminderDue,
		Key:     []byte("u1"),
		Value:   []byte(`{"a":1}`),
		Headers: map[string]string{"event_type": EventReminderDue},
	})

	require.NoError(t, err)
	require.Len(t, w.written, 1)
	assert.Equal(t, TopicReminderDue, w.written[0].Topic)
	assert.Equal(t, []byte("u1"), w.written[0].Key)
	assert.False(t, w.written[0].Time.IsZero())
	require.Len(t, w.written[0].Headers, 1)
	assert.Equal(t, int64(1), p.Metrics().MessagesSent.Load())
}

func TestPublish_Validation(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{})
	ctx := context.Background()

	assert.True(t, pkgerrors.IsCode(p.Publish(ctx, &ProducerMessage{Value: []byte("x")}), pkgerrors.ErrCodeValidation))
	assert.True(t, pkgerrors.IsCode(p.Publish(ctx, &ProducerMessage{Topic: "t"}), pkgerrors.ErrCodeValidation))
	assert.True(t, pkgerrors.IsCode(p.Publish(ctx, &ProducerMessage{Topic: "t", Value: make([]byte, 65)}), pkgerrors.ErrCodeValidation))
}

func TestPublish_WriterError(t *testing.T) {
	w := &mockKafkaWriter{writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
		return errors.New("broker down")
	}}
	p := newTestProducer(w)

	err := p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("x")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeExternalService))
	assert.Equal(t, int64(1), p.Metrics().MessagesFailed.Load())
}

func TestPublish_AfterClose(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	assert.Equal(t, ErrProducerClosed, p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("x")}))
	assert.Equal(t, 1, w.closed)
}

func TestPublishBatch_PartialFailure(t *testing.T) {
	w := &mockKafkaWriter{writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
		return kafka.WriteErrors{nil, errors.New("leader not available"), nil}
	}}
	p := newTestProducer(w)

	msgs := []*ProducerMessage{
		{Topic: "t", Value: []byte("1")},
		{Topic: "t", Value: []byte("2")},
		{Topic: "t", Value: []byte("3")},
	}
	res, err := p.PublishBatch(context.Background(), msgs)

	require.NoError(t, err)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 1, res.Errors[0].Index)
}

func TestPublishBatch_TotalFailure(t *testing.T) {
	w := &mockKafkaWriter{writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
		return errors.New("timeout")
	}}
	p := newTestProducer(w)

	res, err := p.PublishBatch(context.Background(), []*ProducerMessage{{Topic: "t", Value: []byte("1")}, {Topic: "t", Value: []byte("2")}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, -1, res.Errors[0].Index)
}

func TestPublishBatch_Empty(t *testing.T) {
	res, err := newTestProducer(&mockKafkaWriter{}).PublishBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, res.Succeeded)
}

//Personal.AI order the ending
