package dto

import "github.com/yigit/photoshare/internal/app/models"

// UserRef is the minimal author/actor display data
type UserRef struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID          string `json:"id"`
	LoginName   string `json:"loginName"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	Occupation  string `json:"occupation,omitempty"`
}

// UserSummaryResponse is one row of the user list
type UserSummaryResponse struct {
	UserResponse
	LastActivity *ActivityResponse `json:"lastActivity,omitempty"`
}

// UserStatsResponse holds the per-user statistics visible to the viewer
type UserStatsResponse struct {
	UserID             string         `json:"userId"`
	PhotoCount         int            `json:"photoCount"`
	MostRecentPhoto    *PhotoResponse `json:"mostRecentPhoto,omitempty"`
	MostCommentedPhoto *PhotoResponse `json:"mostCommentedPhoto,omitempty"`
}

// NewUserRef builds a UserRef from a user
func NewUserRef(u *models.User) UserRef {
	return UserRef{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
}

// NewUserResponse builds a UserResponse from a user
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		LoginName:   u.LoginName,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Location:    u.Location,
		Description: u.Description,
		Occupation:  u.Occupation,
	}
}
