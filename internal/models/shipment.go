package models

import (
	"time"

	"github.com/google/uuid"
)

// ShipmentStatus gates routing: only ACTIVE shipments are routed.
// Shipments are owned by an external shipment-management system; this
// service only ever creates ACTIVE stubs for first-seen shipment IDs.
type ShipmentStatus string

const (
	ShipmentStatusActive    ShipmentStatus = "ACTIVE"
	ShipmentStatusCancelled ShipmentStatus = "CANCELLED"
	ShipmentStatusOnHold    ShipmentStatus = "ON_HOLD"
	ShipmentStatusClosed    ShipmentStatus = "CLOSED"
)

type Shipment struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ShipmentID string         `gorm:"uniqueIndex;not null" json:"shipment_id"`
	MerchantID string         `gorm:"not null" json:"merchant_id"`
	Status     ShipmentStatus `gorm:"not null;default:'ACTIVE'" json:"status"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Shipment) TableName() string {
	return "shipments"
}
