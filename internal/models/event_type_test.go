package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventType(t *testing.T) {
	cases := []struct {
		input string
		want  EventType
	}{
		{input: "SHIPMENT_CREATED", want: ShipmentCreated},
		{input: "shipment_picked_up", want: ShipmentPickedUp},
		{input: "  SHIPMENT_IN_TRANSIT  ", want: ShipmentInTransit},
		{input: "Shipment_Delivered", want: ShipmentDelivered},
		{input: "SHIPMENT_CANCELLED", want: ShipmentCancelled},
	}
	for _, tc := range cases {
		got, err := ParseEventType(tc.input)
		require.NoError(t, err, "input %q", tc.input)
		assert.Equal(t, tc.want, got)
	}
}

func TestParseEventTypeRejectsUnknown(t *testing.T) {
	_, err := ParseEventType("SHIPMENT_TELEPORTED")
	assert.Error(t, err)

	_, err = ParseEventType("")
	assert.Error(t, err)
}
