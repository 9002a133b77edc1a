package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EventStatus is the durable processing status of an event.
// PROCESSED is terminal: a processed event is never routed again.
// FAILED is only terminal once the retry budget is exhausted; an
// intermediate FAILED write followed by a retry is expected.
type EventStatus string

const (
	EventStatusPending   EventStatus = "PENDING"
	EventStatusProcessed EventStatus = "PROCESSED"
	EventStatusFailed    EventStatus = "FAILED"
)

type Event struct {
	ID                uuid.UUID         `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	EventID           string            `gorm:"uniqueIndex;not null" json:"event_id"`
	ShipmentID        string            `gorm:"index;not null" json:"shipment_id"`
	MerchantID        string            `gorm:"not null" json:"merchant_id"`
	ShippingCompanyID string            `gorm:"not null" json:"shipping_company_id"`
	Type              EventType         `gorm:"not null" json:"type"`
	Payload           datatypes.JSONMap `gorm:"type:jsonb" json:"payload"`
	Status            EventStatus       `gorm:"not null;default:'PENDING';index" json:"status"`
	RouteID           *string           `json:"route_id"`
	LastError         *string           `json:"last_error"`
	AttemptCount      int               `gorm:"not null;default:0" json:"attempt_count"`
	CreatedAt         time.Time         `gorm:"not null;default:now()" json:"created_at"`
	ProcessedAt       *time.Time        `json:"processed_at"`
}

func (Event) TableName() string {
	return "events"
}
