package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// Entities that produce change messages.
const (
	EntityEvent       = "event"
	EntityParticipant = "participant"
	EntitySupplier    = "supplier"
	EntityPayment     = "payment"
)

// Actions carried by change messages.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ChangeMessage announces a committed mutation. It carries identifiers only;
// consumers read current state from the database when they need it.
type ChangeMessage struct {
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

var ErrMalformedMessage = errors.New("malformed change message")

// NewChangeMessage stamps a message with the current time.
func NewChangeMessage(entity, action, id string) *ChangeMessage {
	return &ChangeMessage{
		Entity:    entity,
		Action:    action,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

// ParticipantID is the message id of a participant row.
func ParticipantID(eventID, supplierID string) string {
	return eventID + "/" + supplierID
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes a message and rejects ones missing a field.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, errors.Join(ErrMalformedMessage, err)
	}
	if msg.Entity == "" || msg.Action == "" || msg.ID == "" || msg.Timestamp.IsZero() {
		return nil, ErrMalformedMessage
	}
	return &msg, nil
}
