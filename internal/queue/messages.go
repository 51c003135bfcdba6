// Package queue carries SMS reminders through RabbitMQ so the cron request
// returns before every message has been delivered.
package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SMSMessage is one queued text message.
type SMSMessage struct {
	ID        string    `json:"id"`
	To        string    `json:"to"`
	Body      string    `json:"body"`
	UserID    string    `json:"user_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSMSMessage creates a message with a fresh id.
func NewSMSMessage(to, body, userID string) *SMSMessage {
	return &SMSMessage{
		ID:        uuid.NewString(),
		To:        to,
		Body:      body,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SMSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SMSMessageFromJSON decodes a message.
func SMSMessageFromJSON(data []byte) (*SMSMessage, error) {
	var msg SMSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
