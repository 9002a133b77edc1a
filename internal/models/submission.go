package models

import (
	"fmt"
	"time"
)

// EventSubmission is the inbound event payload as received on the
// ingestion endpoint. It is also the queue job payload: the gateway
// publishes it verbatim so a processing attempt has everything it needs
// without a database round trip.
type EventSubmission struct {
	EventID           string                 `json:"eventId"`
	MerchantID        string                 `json:"merchantId"`
	ShippingCompanyID string                 `json:"shippingCompanyId"`
	ShipmentID        string                 `json:"shipmentId"`
	Type              string                 `json:"type"`
	OccurredAt        string                 `json:"occurredAt"`
	Payload           map[string]interface{} `json:"payload"`
	Signature         string                 `json:"signature"`
}

// Validate checks the submission for schema problems and reports all of
// them at once, mirroring how config.Load collects missing variables.
func (s *EventSubmission) Validate() error {
	var problems []string

	require := func(field, value string) {
		if value == "" {
			problems = append(problems, field+" is required")
		}
	}

	require("eventId", s.EventID)
	require("merchantId", s.MerchantID)
	require("shippingCompanyId", s.ShippingCompanyID)
	require("shipmentId", s.ShipmentID)
	require("type", s.Type)
	require("occurredAt", s.OccurredAt)

	if s.Type != "" {
		if _, err := ParseEventType(s.Type); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if s.OccurredAt != "" {
		if _, err := time.Parse(time.RFC3339, s.OccurredAt); err != nil {
			problems = append(problems, "occurredAt must be an ISO-8601 timestamp")
		}
	}
	if s.Payload == nil {
		problems = append(problems, "payload is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid event submission: %v", problems)
	}
	return nil
}

// ToEvent maps a submission to a fresh PENDING event row.
func (s *EventSubmission) ToEvent() *Event {
	return &Event{
		EventID:           s.EventID,
		ShipmentID:        s.ShipmentID,
		MerchantID:        s.MerchantID,
		ShippingCompanyID: s.ShippingCompanyID,
		Type:              EventType(s.Type),
		Payload:           s.Payload,
		Status:            EventStatusPending,
	}
}
