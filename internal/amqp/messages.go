package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"yeargrid/internal/core"
)

// ResultMessage carries the computed rows of one accepted submission.
type ResultMessage struct {
	ID        string             `json:"id"`
	SessionID string             `json:"session_id"`
	State     string             `json:"state"`
	Year      int                `json:"year"`
	Rows      []core.YearSummary `json:"rows"`
	Timestamp time.Time          `json:"timestamp"`
}

// NewResultMessage builds a message for a computed grid.
func NewResultMessage(sessionID, stateKey string, g core.Grid, now time.Time) *ResultMessage {
	return &ResultMessage{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		State:     stateKey,
		Year:      g.Year,
		Rows:      g.Summaries(),
		Timestamp: now.UTC(),
	}
}

// Validate rejects messages a consumer cannot act on.
func (m *ResultMessage) Validate() error {
	if m.ID == "" {
		return errors.New("missing message id")
	}
	if len(m.Rows) == 0 {
		return fmt.Errorf("message %s has no rows", m.ID)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *ResultMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ResultMessageFromJSON decodes and validates a message
func ResultMessageFromJSON(data []byte) (*ResultMessage, error) {
	var msg ResultMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
