package client

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/yigit/photoshare/internal/app/models/dto"
)

// apiMock implements API with overridable functions and call counters
type apiMock struct {
	ListUsersFunc          func(ctx context.Context) ([]dto.UserSummaryResponse, error)
	GetUserFunc            func(ctx context.Context, userID string) (*dto.UserResponse, error)
	ListPhotosOfUserFunc   func(ctx context.Context, userID string) ([]dto.PhotoResponse, error)
	GetPhotoFunc           func(ctx context.Context, photoID string) (*dto.PhotoResponse, error)
	GetUserStatsFunc       func(ctx context.Context, userID string) (*dto.UserStatsResponse, error)
	ListCommentsByUserFunc func(ctx context.Context, userID string) ([]dto.CommentResponse, error)
	RecentActivitiesFunc   func(ctx context.Context, limit int) ([]dto.ActivityResponse, error)
	ToggleLikeFunc         func(ctx context.Context, photoID string) (*dto.LikeResponse, error)

	mu    sync.Mutex
	calls map[string]int

	inFlightLikes    atomic.Int32
	maxInFlightLikes atomic.Int32
}

func (m *apiMock) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

func (m *apiMock) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *apiMock) ListUsers(ctx context.Context) ([]dto.UserSummaryResponse, error) {
	m.record("ListUsers")
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc(ctx)
	}
	return nil, nil
}

func (m *apiMock) GetUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	m.record("GetUser")
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, userID)
	}
	return &dto.UserResponse{ID: userID}, nil
}

func (m *apiMock) ListPhotosOfUser(ctx context.Context, userID string) ([]dto.PhotoResponse, error) {
	m.record("ListPhotosOfUser")
	if m.ListPhotosOfUserFunc != nil {
		return m.ListPhotosOfUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *apiMock) GetPhoto(ctx context.Context, photoID string) (*dto.PhotoResponse, error) {
	m.record("GetPhoto")
	if m.GetPhotoFunc != nil {
		return m.GetPhotoFunc(ctx, photoID)
	}
	return &dto.PhotoResponse{ID: photoID}, nil
}

func (m *apiMock) GetUserStats(ctx context.Context, userID string) (*dto.UserStatsResponse, error) {
	m.record("GetUserStats")
	if m.GetUserStatsFunc != nil {
		return m.GetUserStatsFunc(ctx, userID)
	}
	return &dto.UserStatsResponse{UserID: userID}, nil
}

func (m *apiMock) ListCommentsByUser(ctx context.Context, userID string) ([]dto.CommentResponse, error) {
	m.record("ListCommentsByUser")
	if m.ListCommentsByUserFunc != nil {
		return m.ListCommentsByUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *apiMock) RecentActivities(ctx context.Context, limit int) ([]dto.ActivityResponse, error) {
	m.record("RecentActivities")
	if m.RecentActivitiesFunc != nil {
		return m.RecentActivitiesFunc(ctx, limit)
	}
	return nil, nil
}

func (m *apiMock) ToggleLike(ctx context.Context, photoID string) (*dto.LikeResponse, error) {
	m.record("ToggleLike")
	n := m.inFlightLikes.Add(1)
	defer m.inFlightLikes.Add(-1)
	for {
		cur := m.maxInFlightLikes.Load()
		if n <= cur || m.maxInFlightLikes.CompareAndSwap(cur, n) {
			break
		}
	}
	if m.ToggleLikeFunc != nil {
		return m.ToggleLikeFunc(ctx, photoID)
	}
	return &dto.LikeResponse{PhotoID: photoID}, nil
}

var viewer = dto.UserRef{ID: "u-viewer", FirstName: "Vera", LastName: "Viewer"}

func photo(id string, likes int, liked bool) dto.PhotoResponse {
	p := dto.PhotoResponse{ID: id, OwnerID: "u-owner", FileName: id + ".jpg", LikeCount: likes, Likes: []dto.UserRef{}}
	for i := 0; i < likes; i++ {
		p.Likes = append(p.Likes, dto.UserRef{ID: "u-other-" + string(rune('a'+i))})
	}
	if liked && likes > 0 {
		p.Likes[len(p.Likes)-1] = viewer
		p.LikedByViewer = true
	}
	return p
}
