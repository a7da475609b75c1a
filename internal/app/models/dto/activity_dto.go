package dto

import (
	"time"

	"github.com/yigit/photoshare/internal/app/models"
)

// ActivityResponse is the denormalized activity sent over HTTP and in
// new_activity events.
type ActivityResponse struct {
	ID           string              `json:"id"`
	Type         models.ActivityType `json:"type"`
	CreatedAt    time.Time           `json:"createdAt"`
	PhotoID      string              `json:"photoId,omitempty"`
	FileName     string              `json:"fileName,omitempty"`
	PhotoOwnerID string              `json:"photoOwnerId,omitempty"`
	ThumbnailURL string              `json:"thumbnailUrl,omitempty"`
	User         UserRef             `json:"user"`
}

// NewActivityResponse builds the wire form of an activity. urlFor resolves
// a content reference; it may be nil.
func NewActivityResponse(a *models.Activity, urlFor func(string) string) ActivityResponse {
	resp := ActivityResponse{
		ID:           a.ID,
		Type:         a.Type,
		CreatedAt:    a.CreatedAt,
		PhotoID:      a.PhotoID,
		FileName:     a.FileName,
		PhotoOwnerID: a.PhotoOwnerID,
		User: UserRef{
			ID:        a.ActorID,
			FirstName: a.ActorFirstName,
			LastName:  a.ActorLastName,
		},
	}
	if a.ContentRef != "" && urlFor != nil {
		resp.ThumbnailURL = urlFor(a.ContentRef)
	}
	return resp
}
