package processor

import (
	"fmt"

	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/models"
	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/routing"
)

// buildRoutingRequest projects the submission into the routing
// dependency's contract. Dispatch is an exhaustive switch over the
// event type so adding a new type is a visible decision here, not a
// silent fall-through.
func (p *Processor) buildRoutingRequest(sub *models.EventSubmission) (*routing.Request, error) {
	eventType, err := models.ParseEventType(sub.Type)
	if err != nil {
		return nil, err
	}

	request := &routing.Request{
		EventID:           sub.EventID,
		ShipmentID:        sub.ShipmentID,
		MerchantID:        sub.MerchantID,
		ShippingCompanyID: sub.ShippingCompanyID,
		EventType:         string(eventType),
	}

	switch eventType {
	case models.ShipmentCreated:
		applyCargoFields(request, sub.Payload)
	case models.ShipmentPickedUp:
		applyCargoFields(request, sub.Payload)
	case models.ShipmentInTransit:
		applyCargoFields(request, sub.Payload)
	case models.ShipmentDelivered:
		applyCargoFields(request, sub.Payload)
	case models.ShipmentCancelled:
		// Cancellations route on identifiers alone
	default:
		return nil, fmt.Errorf("no routing handler for event type %s", eventType)
	}

	return request, nil
}

// applyCargoFields copies the optional cargo attributes out of the
// opaque payload when present with the expected JSON types.
func applyCargoFields(request *routing.Request, payload map[string]interface{}) {
	if v, ok := payload["origin"].(string); ok {
		request.Origin = v
	}
	if v, ok := payload["destination"].(string); ok {
		request.Destination = v
	}
	if v, ok := payload["weight"].(float64); ok {
		request.Weight = &v
	}
}
