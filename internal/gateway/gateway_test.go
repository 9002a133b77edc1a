package gateway

import (
	"encoding/json"
	"fmt"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/models"
	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/rabbitmq"
)

type recordingPublisher struct {
	queue   string
	body    []byte
	headers amqp.Table
	err     error
}

func (p *recordingPublisher) Publish(queue string, body []byte, headers amqp.Table, expiration string) error {
	if p.err != nil {
		return p.err
	}
	p.queue = queue
	p.body = body
	p.headers = headers
	return nil
}

func TestEnqueuePublishesWithDeduplicationHeader(t *testing.T) {
	publisher := &recordingPublisher{}
	g := New(publisher, "events.process", zap.NewNop())

	sub := &models.EventSubmission{
		EventID:           "evt_2026_0001",
		MerchantID:        "merchant_789xyz",
		ShippingCompanyID: "company_idxyz",
		ShipmentID:        "shp_xyz123",
		Type:              "SHIPMENT_CREATED",
		OccurredAt:        "2026-02-25T14:30:00Z",
		Payload:           map[string]interface{}{"origin": "Cairo"},
	}
	require.NoError(t, g.Enqueue(sub))

	assert.Equal(t, "events.process", publisher.queue)
	assert.Equal(t, "evt_2026_0001", publisher.headers[rabbitmq.DeduplicationHeader])
	assert.Equal(t, int32(1), publisher.headers[rabbitmq.AttemptHeader])

	var decoded models.EventSubmission
	require.NoError(t, json.Unmarshal(publisher.body, &decoded))
	assert.Equal(t, sub.EventID, decoded.EventID)
	assert.Equal(t, sub.ShipmentID, decoded.ShipmentID)
}

func TestEnqueuePropagatesPublishFailure(t *testing.T) {
	publisher := &recordingPublisher{err: fmt.Errorf("channel closed")}
	g := New(publisher, "events.process", zap.NewNop())

	err := g.Enqueue(&models.EventSubmission{EventID: "evt_2026_0001"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evt_2026_0001")
}
