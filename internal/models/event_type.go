package models

import (
	"fmt"
	"strings"
)

// EventType represents the kind of shipment lifecycle event
type EventType string

const (
	ShipmentCreated   EventType = "SHIPMENT_CREATED"
	ShipmentPickedUp  EventType = "SHIPMENT_PICKED_UP"
	ShipmentInTransit EventType = "SHIPMENT_IN_TRANSIT"
	ShipmentDelivered EventType = "SHIPMENT_DELIVERED"
	ShipmentCancelled EventType = "SHIPMENT_CANCELLED"
)

// ParseEventType parses a string into an EventType
// Returns an error if the event type is unknown
func ParseEventType(name string) (EventType, error) {
	name = strings.ToUpper(strings.TrimSpace(name))

	validTypes := []EventType{
		ShipmentCreated,
		ShipmentPickedUp,
		ShipmentInTransit,
		ShipmentDelivered,
		ShipmentCancelled,
	}

	for _, eventType := range validTypes {
		if string(eventType) == name {
			return eventType, nil
		}
	}

	return "", fmt.Errorf("unknown event type: %s", name)
}
