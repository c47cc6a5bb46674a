package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// DispatchEventType represents the type of dispatch progress event
type DispatchEventType string

const (
	DispatchEventStarted   DispatchEventType = "dispatch_started"
	DispatchEventRecipient DispatchEventType = "recipient_done"
	DispatchEventFinished  DispatchEventType = "dispatch_finished"
)

// DispatchEvent is a progress update published while a cycle dispatches
type DispatchEvent struct {
	ID        string            `json:"id"`
	CycleID   string            `json:"cycle_id"`
	EventType DispatchEventType `json:"event_type"`
	Timestamp time.Time         `json:"timestamp"`
	Outcome   *RecipientOutcome `json:"outcome,omitempty"`
	Total     int               `json:"total"`
}

// NewDispatchEvent creates a new dispatch event
func NewDispatchEvent(cycleID string, eventType DispatchEventType, outcome *RecipientOutcome, total int) *DispatchEvent {
	return &DispatchEvent{
		ID:        generateEventID(),
		CycleID:   cycleID,
		EventType: eventType,
		Timestamp: time.Now(),
		Outcome:   outcome,
		Total:     total,
	}
}

func generateEventID() string {
	return time.Now().Format("20060102150405") + "-" + randomString(8)
}

func randomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		return time.Now().Format("150405.000")
	}
	return hex.EncodeToString(bytes)[:length]
}
