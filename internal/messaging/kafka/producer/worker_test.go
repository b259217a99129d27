package producer_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"go-leave/internal/messaging/kafka"
	"go-leave/internal/messaging/kafka/producer"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeOutboxRepo struct {
	pending []kafka.OutboxEvent
	listErr error
	sent    []string
	failed  map[string]string
}

func (f *fakeOutboxRepo) WithTx(*sql.Tx) kafka.OutboxRepository { return f }

func (f *fakeOutboxRepo) Create(context.Context, kafka.OutboxEvent) error { return nil }

func (f *fakeOutboxRepo) ListPending(context.Context, int) ([]kafka.OutboxEvent, error) {
	return f.pending, f.listErr
}

func (f *fakeOutboxRepo) MarkSent(_ context.Context, id string) error {
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeOutboxRepo) MarkFailed(_ context.Context, id, reason string) error {
	if f.failed == nil {
		f.failed = map[string]string{}
	}
	f.failed[id] = reason
	return nil
}

type fakeWriter struct {
	msgs   []kafkago.Message
	failOn string
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	for _, m := range msgs {
		if string(m.Key) == w.failOn {
			return errors.New("broker unavailable")
		}
		w.msgs = append(w.msgs, m)
	}
	return nil
}

func header(m kafkago.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestProcessPendingEvents(t *testing.T) {
	repo := &fakeOutboxRepo{pending: []kafka.OutboxEvent{
		{ID: "evt-1", RequestID: "req-1", AggregateType: "leave_application", AggregateID: "app-1", EventType: "leave_application_submitted", Topic: "hr.leave.application.v1", Payload: []byte(`{"days":3}`)},
		{ID: "evt-2", AggregateType: "leave_application", AggregateID: "app-2", EventType: "leave_application_submitted", Topic: "hr.leave.application.v1", Payload: []byte(`{"days":1}`)},
	}}
	writer := &fakeWriter{failOn: "app-2"}

	sent, err := producer.ProcessPendingEvents(context.Background(), repo, writer, zap.NewNop())

	assert.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"evt-1"}, repo.sent)
	assert.Contains(t, repo.failed["evt-2"], "broker unavailable")

	if assert.Len(t, writer.msgs, 1) {
		msg := writer.msgs[0]
		assert.Equal(t, "hr.leave.application.v1", msg.Topic)
		assert.Equal(t, "app-1", string(msg.Key))
		assert.Equal(t, "leave_application_submitted", header(msg, "event_type"))
		assert.Equal(t, "req-1", header(msg, "request_id"))
		assert.Equal(t, "evt-1", header(msg, "event_id"))
	}
}

func TestProcessPendingEvents_ListError(t *testing.T) {
	repo := &fakeOutboxRepo{listErr: errors.New("db down")}

	sent, err := producer.ProcessPendingEvents(context.Background(), repo, &fakeWriter{}, zap.NewNop())

	assert.Error(t, err)
	assert.Zero(t, sent)
}
