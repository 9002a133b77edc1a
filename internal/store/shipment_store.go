package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/models"
)

// ShipmentStore is the durable record of shipment state used as the
// routing gate. Exactly one row exists per shipment_id.
type ShipmentStore struct {
	db *gorm.DB
}

func NewShipmentStore(db *gorm.DB) *ShipmentStore {
	return &ShipmentStore{db: db}
}

// FindByShipmentID returns the shipment or nil when no row exists.
func (s *ShipmentStore) FindByShipmentID(shipmentID string) (*models.Shipment, error) {
	var shipment models.Shipment
	err := s.db.Where("shipment_id = ?", shipmentID).First(&shipment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find shipment %s: %w", shipmentID, err)
	}
	return &shipment, nil
}

// Save upserts the shipment by shipment_id.
func (s *ShipmentStore) Save(shipment *models.Shipment) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shipment_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"merchant_id", "status", "updated_at"}),
	}).Create(shipment).Error
	if err != nil {
		return fmt.Errorf("failed to save shipment %s: %w", shipment.ShipmentID, err)
	}
	return nil
}

// EnsureActive returns the shipment, lazily creating an ACTIVE stub the
// first time an event references an unknown shipment id. Concurrent
// first-seen races resolve through the unique index: the losing insert
// is a no-op and the winner's row is read back.
func (s *ShipmentStore) EnsureActive(shipmentID, merchantID string) (*models.Shipment, error) {
	shipment, err := s.FindByShipmentID(shipmentID)
	if err != nil {
		return nil, err
	}
	if shipment != nil {
		return shipment, nil
	}

	stub := &models.Shipment{
		ShipmentID: shipmentID,
		MerchantID: merchantID,
		Status:     models.ShipmentStatusActive,
	}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shipment_id"}},
		DoNothing: true,
	}).Create(stub).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create shipment stub %s: %w", shipmentID, err)
	}

	shipment, err = s.FindByShipmentID(shipmentID)
	if err != nil {
		return nil, err
	}
	if shipment == nil {
		return nil, fmt.Errorf("shipment %s missing after stub creation", shipmentID)
	}
	return shipment, nil
}
