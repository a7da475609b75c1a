package client

// Shape names a kind of cached read
type Shape string

const (
	ShapeUsers          Shape = "users"
	ShapeUser           Shape = "user"
	ShapePhotosOfUser   Shape = "photosOfUser"
	ShapePhoto          Shape = "photo"
	ShapeUserStats      Shape = "userStats"
	ShapeCommentsByUser Shape = "commentsByUser"
	ShapeActivities     Shape = "activities"
)

// Key identifies one cache entry
type Key struct {
	Shape Shape
	Param string
}

func (k Key) String() string {
	if k.Param == "" {
		return string(k.Shape)
	}
	return string(k.Shape) + "/" + k.Param
}

// UsersKey is the user list with last activities
func UsersKey() Key { return Key{Shape: ShapeUsers} }

// UserKey is one user's profile
func UserKey(userID string) Key { return Key{Shape: ShapeUser, Param: userID} }

// PhotosOfUserKey is the photos a user owns
func PhotosOfUserKey(userID string) Key { return Key{Shape: ShapePhotosOfUser, Param: userID} }

// PhotoKey is a single photo
func PhotoKey(photoID string) Key { return Key{Shape: ShapePhoto, Param: photoID} }

// UserStatsKey is a user's photo statistics
func UserStatsKey(userID string) Key { return Key{Shape: ShapeUserStats, Param: userID} }

// CommentsByUserKey is the comments a user wrote
func CommentsByUserKey(userID string) Key { return Key{Shape: ShapeCommentsByUser, Param: userID} }

// ActivitiesKey is the recent activity feed
func ActivitiesKey() Key { return Key{Shape: ShapeActivities} }
