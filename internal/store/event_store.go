package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/models"
)

// EventStore is the durable record of each event's processing status.
// All writes are single-row and atomic; upserts key on event_id so a
// retried attempt never creates a second row.
type EventStore struct {
	db *gorm.DB
}

func NewEventStore(db *gorm.DB) *EventStore {
	return &EventStore{db: db}
}

// Save inserts the event as PENDING if no row with its event_id exists
// yet. A conflicting insert (redelivery, concurrent attempt) keeps the
// existing row untouched.
func (s *EventStore) Save(event *models.Event) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(event).Error

	if err != nil {
		return fmt.Errorf("failed to save event %s: %w", event.EventID, err)
	}
	return nil
}

// FindByEventID returns the event or nil when no row exists.
func (s *EventStore) FindByEventID(eventID string) (*models.Event, error) {
	var event models.Event
	err := s.db.Where("event_id = ?", eventID).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find event %s: %w", eventID, err)
	}
	return &event, nil
}

// UpdateStatus sets the event status by event_id.
func (s *EventStore) UpdateStatus(eventID string, status models.EventStatus) error {
	err := s.db.Model(&models.Event{}).
		Where("event_id = ?", eventID).
		Update("status", status).Error
	if err != nil {
		return fmt.Errorf("failed to update status of event %s: %w", eventID, err)
	}
	return nil
}

// MarkProcessed records the terminal success state with the route id
// returned by the routing dependency.
func (s *EventStore) MarkProcessed(eventID, routeID string) error {
	now := time.Now().UTC()
	err := s.db.Model(&models.Event{}).
		Where("event_id = ?", eventID).
		Updates(map[string]interface{}{
			"status":       models.EventStatusProcessed,
			"route_id":     routeID,
			"processed_at": now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark event %s processed: %w", eventID, err)
	}
	return nil
}

// MarkFailed records a failure with its reason. Not necessarily
// terminal: a later retry may transition the event again.
func (s *EventStore) MarkFailed(eventID, reason string) error {
	err := s.db.Model(&models.Event{}).
		Where("event_id = ?", eventID).
		Updates(map[string]interface{}{
			"status":     models.EventStatusFailed,
			"last_error": reason,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark event %s failed: %w", eventID, err)
	}
	return nil
}

// IncrementAttempts bumps the stored attempt counter for observability.
func (s *EventStore) IncrementAttempts(eventID string) error {
	err := s.db.Model(&models.Event{}).
		Where("event_id = ?", eventID).
		Update("attempt_count", gorm.Expr("attempt_count + 1")).Error
	if err != nil {
		return fmt.Errorf("failed to increment attempts of event %s: %w", eventID, err)
	}
	return nil
}
