package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Reasons carried by ProfileUpdatedMessage.
const (
	ReasonProfileSaved   = "profile_saved"
	ReasonBenefitChanged = "benefit_changed"
	ReasonRefresh        = "refresh"
)

// ProfileUpdatedMessage tells the worker that a user's dashboard snapshot is
// stale. It carries only the user id; the worker reloads everything else.
type ProfileUpdatedMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

func NewProfileUpdatedMessage(userID, reason string) *ProfileUpdatedMessage {
	return &ProfileUpdatedMessage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ProfileUpdatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ProfileUpdatedMessageFromJSON decodes a message and rejects one without a
// user id.
func ProfileUpdatedMessageFromJSON(data []byte) (*ProfileUpdatedMessage, error) {
	var msg ProfileUpdatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" {
		return nil, errors.New("message without user_id")
	}
	return &msg, nil
}
