package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/turtacn/MedRemind/pkg/errors"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

func TestEventEnvelope_ToMessageAndBack(t *testing.T) {
	due := medication.DueReminder{PrescriptionID: "rx-1", UserID: "u1", MedicationName: "Lipitor", Time: "08:00"}
	env, err := NewEventEnvelope(EventReminderDue, "medremind-worker", due)
	require.NoError(t, err)
	env.TraceID = "trace-1"
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, "v1", env.SchemaVersion)

	pm, err := env.ToMessage(TopicReminderDue, "u1")
	require.NoError(t, err)
	assert.Equal(t, TopicReminderDue, pm.Topic)
	assert.Equal(t, []byte("u1"), pm.Key)
	assert.Equal(t, EventReminderDue, pm.Headers["event_type"])
	assert.Equal(t, "trace-1", pm.Headers["trace_id"])

	back, err := MessageToEventEnvelope(&Message{Value: pm.Value})
	require.NoError(t, err)
	assert.Equal(t, env.EventID, back.EventID)

	var decoded medication.DueReminder
	require.NoError(t, back.DecodePayload(&decoded))
	assert.Equal(t, due, decoded)
}

func TestEventEnvelope_NoKey(t *testing.T) {
	env, err := NewEventEnvelope(EventPrescriptionScheduled, "api", PrescriptionScheduledPayload{PrescriptionID: "rx", ScheduledAt: time.Now()})
	require.NoError(t, err)
	pm, err := env.ToMessage(TopicPrescriptionScheduled, "")
	require.NoError(t, err)
	assert.Nil(t, pm.Key)
	_, hasTrace := pm.Headers["trace_id"]
	assert.False(t, hasTrace)
}

func TestMessageToEventEnvelope_Errors(t *testing.T) {
	_, err := MessageToEventEnvelope(&Message{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))

	_, err = MessageToEventEnvelope(&Message{Value: []byte("{")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))

	_, err = MessageToEventEnvelope(&Message{Value: []byte(`{"event_id":"x"}`)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))
}

func TestDecodePayload_Empty(t *testing.T) {
	env := &EventEnvelope{Payload: []byte("null")}
	var v map[string]string
	assert.Error(t, env.DecodePayload(&v))
}

//Personal.AI order the ending
