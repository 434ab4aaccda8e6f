package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/MedRemind/pkg/errors"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, r medication.DueReminder) error {
	return m.Called(ctx, r).Error(0)
}

func TestReminderPublisher_PublishDue(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("PublishBatch", mock.Anything, mock.MatchedBy(func(msgs []*ProducerMessage) bool {
		if len(msgs) != 2 {
			return false
		}
		var env EventEnvelope
		if err := json.Unmarshal(msgs[1].Value, &env); err != nil {
			return false
		}
		return msgs[0].Topic == TopicReminderDue && string(msgs[1].Key) == "u2" && env.EventType == EventReminderDue
	})).Return(&BatchPublishResult{Succeeded: 2}, nil).Once()

	p := NewReminderPublisher(pub, "worker", nil)
	err := p.PublishDue(context.Background(), []medication.DueReminder{
		{UserID: "u1", MedicationName: "Lipitor", Time: "08:00"},
		{UserID: "u2", MedicationName: "Legacy", Time: "08:00"},
	})

	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestReminderPublisher_PublishDue_Empty(t *testing.T) {
	pub := new(mockPublisher)
	assert.NoError(t, NewReminderPublisher(pub, "", nil).PublishDue(context.Background(), nil))
	pub.AssertNotCalled(t, "PublishBatch", mock.Anything, mock.Anything)
}

func TestReminderPublisher_PublishDue_PartialFailure(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("PublishBatch", mock.Anything, mock.Anything).Return(&BatchPublishResult{Succeeded: 1, Failed: 1}, nil)

	err := NewReminderPublisher(pub, "", nil).PublishDue(context.Background(), []medication.DueReminder{{UserID: "a"}, {UserID: "b"}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeExternalService))
}

func TestReminderPublisher_PublishScheduled(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(m *ProducerMessage) bool {
		var env EventEnvelope
		if err := json.Unmarshal(m.Value, &env); err != nil {
			return false
		}
		var payload PrescriptionScheduledPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return false
		}
		return m.Topic == TopicPrescriptionScheduled &&
			string(m.Key) == "rx-9" &&
			env.TraceID == "req-7" &&
			payload.MedicationCount == 1 &&
			payload.Status == medication.StatusScheduled
	})).Return(nil).Once()

	rx := &medication.Prescription{
		ID:                  "rx-9",
		UserID:              "u1",
		Source:              medication.SourceVoice,
		Status:              medication.StatusScheduled,
		MedicationSchedules: []medication.MedicationSchedule{{Name: "Lipitor"}},
		UpdatedAt:           time.Now(),
	}
	ctx := logging.ContextWithRequestID(context.Background(), "req-7")
	require.NoError(t, NewReminderPublisher(pub, "api", nil).PublishScheduled(ctx, rx))
	pub.AssertExpectations(t)
}

func TestDueReminderHandler(t *testing.T) {
	due := medication.DueReminder{PrescriptionID: "rx-1", UserID: "u1", MedicationName: "Lipitor", Dosage: "10 mg", Time: "08:00"}
	env, err := NewEventEnvelope(EventReminderDue, "worker", due)
	require.NoError(t, err)
	pm, err := env.ToMessage(TopicReminderDue, "u1")
	require.NoError(t, err)

	n := new(mockNotifier)
	n.On("Notify", mock.Anything, mock.MatchedBy(func(r medication.DueReminder) bool {
		return r.MedicationName == "Lipitor" && r.Time == "08:00"
	})).Return(nil).Once()

	h := NewDueReminderHandler(n, nil)
	require.NoError(t, h(context.Background(), &Message{Topic: TopicReminderDue, Value: pm.Value}))
	n.AssertExpectations(t)
}

func TestDueReminderHandler_MalformedIsDropped(t *testing.T) {
	n := new(mockNotifier)
	h := NewDueReminderHandler(n, nil)

	assert.NoError(t, h(context.Background(), &Message{Value: []byte("garbage")}))
	n.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestDueReminderHandler_NotifierErrorPropagates(t *testing.T) {
	env, _ := NewEventEnvelope(EventReminderDue, "worker", medication.DueReminder{UserID: "u1"})
	pm, _ := env.ToMessage(TopicReminderDue, "u1")

	n := new(mockNotifier)
	n.On("Notify", mock.Anything, mock.Anything).Return(errors.New("push gateway down"))

	err := NewDueReminderHandler(n, nil)(context.Background(), &Message{Value: pm.Value})
	assert.EqualError(t, err, "push gateway down")
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, NewLogNotifier(nil).Notify(context.Background(), medication.DueReminder{MedicationName: "X"}))
}

//Personal.AI order the ending
