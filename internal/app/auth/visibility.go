// Package auth holds the read-side authorization rules: who may see a photo
// and which viewer a request is acting for.
package auth

import (
	"github.com/yigit/photoshare/internal/app/models"
)

// CanView reports whether viewerID may read photo and its comments. The owner
// always can; anyone can when the scope is public; otherwise the viewer must
// be in the allowed set. An empty viewerID only sees public photos.
func CanView(viewerID string, photo *models.Photo) bool {
	if photo == nil {
		return false
	}
	if viewerID != "" && photo.OwnerID == viewerID {
		return true
	}
	if photo.Visibility.IsPublic() {
		return true
	}
	return viewerID != "" && photo.Visibility.Allows(viewerID)
}

// FilterVisible returns the photos viewerID may see, preserving order.
func FilterVisible(viewerID string, photos []*models.Photo) []*models.Photo {
	visible := make([]*models.Photo, 0, len(photos))
	for _, p := range photos {
		if CanView(viewerID, p) {
			visible = append(visible, p)
		}
	}
	return visible
}

// IsOwner reports whether requesterID owns photo
func IsOwner(requesterID string, photo *models.Photo) bool {
	return requesterID != "" && photo != nil && photo.OwnerID == requesterID
}

// IsAuthor reports whether requesterID wrote comment
func IsAuthor(requesterID string, comment *models.Comment) bool {
	return requesterID != "" && comment != nil && comment.AuthorID == requesterID
}
