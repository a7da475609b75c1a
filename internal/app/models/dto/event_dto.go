package dto

import (
	"encoding/json"
	"time"
)

// EventType names a push notification
type EventType string

const (
	// EventNewActivity carries an ActivityResponse
	EventNewActivity EventType = "new_activity"
	// EventPhotoLikesUpdated carries only the photo id
	EventPhotoLikesUpdated EventType = "photo_likes_updated"
)

// Event is the envelope pushed to subscribers
type Event struct {
	Type      EventType       `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	EmittedAt time.Time       `json:"emittedAt"`
}

// PhotoLikesUpdatedPayload is deliberately data-free: receivers re-read.
type PhotoLikesUpdatedPayload struct {
	PhotoID string `json:"photoId"`
}

// NewEvent marshals payload into an event envelope
func NewEvent(t EventType, payload interface{}, at time.Time) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: t, Payload: raw, EmittedAt: at}, nil
}
