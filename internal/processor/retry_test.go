package processor

import (
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/models"
	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/rabbitmq"
)

func TestBackoffDelaySchedule(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 1, want: time.Second},
		{attempt: 2, want: time.Second},
		{attempt: 3, want: 2 * time.Second},
		{attempt: 4, want: 4 * time.Second},
		{attempt: 5, want: 8 * time.Second},
		{attempt: 20, want: maxRetryDelay},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, backoffDelay(tc.attempt), "attempt %d", tc.attempt)
	}
}

func TestAttemptFromHeaders(t *testing.T) {
	assert.Equal(t, 3, attemptFromHeaders(amqp.Table{rabbitmq.AttemptHeader: int32(3)}))
	assert.Equal(t, 5, attemptFromHeaders(amqp.Table{rabbitmq.AttemptHeader: int64(5)}))
	assert.Equal(t, 2, attemptFromHeaders(amqp.Table{rabbitmq.AttemptHeader: 2}))
	assert.Equal(t, 1, attemptFromHeaders(amqp.Table{}))
	assert.Equal(t, 1, attemptFromHeaders(nil))
	assert.Equal(t, 1, attemptFromHeaders(amqp.Table{rabbitmq.AttemptHeader: "2"}))
}

type ackRecorder struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (a *ackRecorder) Ack(_ uint64, _ bool) error {
	a.acked = true
	return nil
}

func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func (a *ackRecorder) Reject(_ uint64, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func delivery(t *testing.T, ack *ackRecorder, sub *models.EventSubmission, attempt int) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(sub)
	require.NoError(t, err)
	return amqp.Delivery{
		Acknowledger: ack,
		Body:         body,
		Headers:      amqp.Table{rabbitmq.AttemptHeader: int32(attempt)},
	}
}

func TestHandleDeliverySchedulesRetryWithBackoff(t *testing.T) {
	publisher := &fakePublisher{}
	router := &fakeRouter{failures: 10}
	p := newTestProcessor(newFakeEventStore(), newFakeShipmentStore(), newFakeLocker(), router, publisher)

	ack := &ackRecorder{}
	p.handleDelivery(delivery(t, ack, submission("e1"), 1))

	assert.True(t, ack.acked)
	require.Len(t, publisher.messages, 1)

	msg := publisher.messages[0]
	assert.Equal(t, "events.retry", msg.queue)
	assert.Equal(t, "1000", msg.expiration)
	assert.Equal(t, int32(2), msg.headers[rabbitmq.AttemptHeader])
}

func TestHandleDeliveryDeadLettersAfterMaxAttempts(t *testing.T) {
	publisher := &fakePublisher{}
	router := &fakeRouter{failures: 10}
	p := newTestProcessor(newFakeEventStore(), newFakeShipmentStore(), newFakeLocker(), router, publisher)

	ack := &ackRecorder{}
	p.handleDelivery(delivery(t, ack, submission("e1"), 4))

	assert.True(t, ack.acked)
	require.Len(t, publisher.messages, 1)
	assert.Equal(t, "events.dead", publisher.messages[0].queue)
	assert.Empty(t, publisher.messages[0].expiration)
}

func TestHandleDeliveryAcksOnSuccess(t *testing.T) {
	publisher := &fakePublisher{}
	p := newTestProcessor(newFakeEventStore(), newFakeShipmentStore(), newFakeLocker(), &fakeRouter{}, publisher)

	ack := &ackRecorder{}
	p.handleDelivery(delivery(t, ack, submission("e1"), 1))

	assert.True(t, ack.acked)
	assert.Empty(t, publisher.messages)
}

func TestHandleDeliveryRejectsMalformedBody(t *testing.T) {
	p := newTestProcessor(newFakeEventStore(), newFakeShipmentStore(), newFakeLocker(), &fakeRouter{}, &fakePublisher{})

	ack := &ackRecorder{}
	p.handleDelivery(amqp.Delivery{
		Acknowledger: ack,
		Body:         []byte("{not json"),
	})

	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued, "a malformed body can never become valid")
}
