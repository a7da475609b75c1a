package dto

import "time"

// PhotoResponse is a photo as seen by a particular viewer
type PhotoResponse struct {
	ID            string            `json:"id"`
	OwnerID       string            `json:"ownerId"`
	FileName      string            `json:"fileName"`
	URL           string            `json:"url"`
	CreatedAt     time.Time         `json:"createdAt"`
	SharedWith    []string          `json:"sharedWith,omitempty"`
	LikeCount     int               `json:"likeCount"`
	LikedByViewer bool              `json:"likedByViewer"`
	Likes         []UserRef         `json:"likes"`
	Comments      []CommentResponse `json:"comments"`
}

// CommentResponse is a comment with its author resolved. PhotoOwnerID and
// PhotoURL are only filled when listing comments by author.
type CommentResponse struct {
	ID           string    `json:"id"`
	PhotoID      string    `json:"photoId"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"createdAt"`
	Author       UserRef   `json:"author"`
	PhotoOwnerID string    `json:"photoOwnerId,omitempty"`
	PhotoURL     string    `json:"photoUrl,omitempty"`
}

// AddCommentRequest is the body of POST /photos/:id/comments
type AddCommentRequest struct {
	Text string `json:"text" binding:"required,max=4000"`
}

// LikeResponse is the authoritative like state after a toggle
type LikeResponse struct {
	PhotoID   string `json:"photoId"`
	LikeCount int    `json:"likeCount"`
	Liked     bool   `json:"liked"`
}
