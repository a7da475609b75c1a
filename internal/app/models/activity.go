package models

import "time"

// ActivityType enumerates the recorded user-visible events
type ActivityType string

const (
	ActivityPhotoUpload  ActivityType = "PHOTO_UPLOAD"
	ActivityCommentAdded ActivityType = "COMMENT_ADDED"
	ActivityUserRegister ActivityType = "USER_REGISTER"
	ActivityUserLogin    ActivityType = "USER_LOGIN"
	ActivityUserLogout   ActivityType = "USER_LOGOUT"
)

// Valid reports whether t is a known activity type
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityPhotoUpload, ActivityCommentAdded, ActivityUserRegister, ActivityUserLogin, ActivityUserLogout:
		return true
	}
	return false
}

// Activity is an append-only log record. Display fields are copied at
// creation time and never refreshed.
type Activity struct {
	ID             string       `json:"id" db:"id"` // ULID, sorts in insertion order
	Type           ActivityType `json:"type" db:"type"`
	ActorID        string       `json:"actorId" db:"actor_id"`
	ActorFirstName string       `json:"actorFirstName" db:"actor_first_name"`
	ActorLastName  string       `json:"actorLastName" db:"actor_last_name"`
	PhotoID        string       `json:"photoId,omitempty" db:"photo_id"`
	PhotoOwnerID   string       `json:"photoOwnerId,omitempty" db:"photo_owner_id"`
	ContentRef     string       `json:"contentRef,omitempty" db:"content_ref"`
	FileName       string       `json:"fileName,omitempty" db:"file_name"`
	CreatedAt      time.Time    `json:"createdAt" db:"created_at"`
}
