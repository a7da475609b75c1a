package memstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/photoshare/internal/app/models"
	"github.com/yigit/photoshare/internal/pkg/apperrors"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, s *Store, id string) *models.User {
	t.Helper()
	u := &models.User{ID: id, LoginName: "login-" + id, FirstName: "F" + id, LastName: "L" + id, CreatedAt: base}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func seedPhoto(t *testing.T, s *Store, id, owner string, at time.Time, viewers ...string) *models.Photo {
	t.Helper()
	p := &models.Photo{
		ID: id, OwnerID: owner, ContentRef: "ref-" + id, FileName: id + ".jpg",
		CreatedAt: at, Visibility: models.RestrictedScope(viewers...),
	}
	require.NoError(t, s.CreatePhoto(context.Background(), p))
	return p
}

func addComment(t *testing.T, s *Store, id, photo, author string) {
	t.Helper()
	require.NoError(t, s.AddComment(context.Background(), &models.Comment{
		ID: id, PhotoID: photo, AuthorID: author, Text: "text " + id, CreatedAt: base,
	}))
}

func TestCreateUser_DuplicateLoginName(t *testing.T) {
	s := New()
	seedUser(t, s, "a")

	err := s.CreateUser(context.Background(), &models.User{ID: "b", LoginName: "login-a"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.ErrorIs(t, err, apperrors.ErrLoginNameTaken)
}

func TestGetUser_NotFound(t *testing.T) {
	s := New()

	_, err := s.GetUserByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = s.GetUserByLoginName(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestToggleLike_DoubleToggleRestoresMembership(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "a")
	seedUser(t, s, "b")
	seedPhoto(t, s, "p", "a", base)

	_, err := s.ToggleLike(ctx, "p", "b")
	require.NoError(t, err)
	before, err := s.GetPhoto(ctx, "p")
	require.NoError(t, err)

	res, err := s.ToggleLike(ctx, "p", "a")
	require.NoError(t, err)
	assert.Equal(t, models.LikeResult{Liked: true, LikeCount: 2}, res)

	res, err = s.ToggleLike(ctx, "p", "a")
	require.NoError(t, err)
	assert.Equal(t, models.LikeResult{Liked: false, LikeCount: 1}, res)

	after, err := s.GetPhoto(ctx, "p")
	require.NoError(t, err)
	assert.ElementsMatch(t, before.Likes, after.Likes)
}

func TestToggleLike_PhotoMissing(t *testing.T) {
	_, err := New().ToggleLike(context.Background(), "nope", "a")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestToggleLike_ConcurrentDistinctUsersAllRecorded(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "owner")
	seedPhoto(t, s, "p", "owner", base)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.ToggleLike(ctx, "p", fmt.Sprintf("u%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	p, err := s.GetPhoto(ctx, "p")
	require.NoError(t, err)
	assert.Len(t, p.Likes, n)
}

func TestAddComment(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "a")
	seedPhoto(t, s, "p", "a", base)

	addComment(t, s, "c1", "p", "a")
	addComment(t, s, "c2", "p", "a")

	p, err := s.GetPhoto(ctx, "p")
	require.NoError(t, err)
	require.Len(t, p.Comments, 2)
	assert.Equal(t, "c1", p.Comments[0].ID)
	assert.Equal(t, "c2", p.Comments[1].ID)

	err = s.AddComment(ctx, &models.Comment{ID: "c3", PhotoID: "gone", AuthorID: "a", Text: "x"})
	assert.ErrorIs(t, err, apperrors.ErrPhotoNotFound)
}

func TestDeleteComment(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "a")
	seedUser(t, s, "b")
	seedPhoto(t, s, "p", "a", base)
	addComment(t, s, "c1", "p", "b")

	assert.ErrorIs(t, s.DeleteComment(ctx, "c1", "p", "a"), apperrors.ErrForbidden)
	assert.ErrorIs(t, s.DeleteComment(ctx, "c1", "other", "b"), apperrors.ErrPhotoNotFound)
	assert.ErrorIs(t, s.DeleteComment(ctx, "cX", "p", "b"), apperrors.ErrCommentNotFound)
	require.NoError(t, s.DeleteComment(ctx, "c1", "p", "b"))

	p, err := s.GetPhoto(ctx, "p")
	require.NoError(t, err)
	assert.Empty(t, p.Comments)
}

func TestDeletePhoto_RemovesCommentsEverywhere(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "a")
	seedUser(t, s, "b")
	seedPhoto(t, s, "p", "a", base)
	addComment(t, s, "c1", "p", "b")

	_, err := s.DeletePhoto(ctx, "p", "b")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	ref, err := s.DeletePhoto(ctx, "p", "a")
	require.NoError(t, err)
	assert.Equal(t, "ref-p", ref)

	_, err = s.GetPhoto(ctx, "p")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	commented, err := s.ListPhotosCommentedBy(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, commented, "no orphan comment may surface")

	_, err = s.DeletePhoto(ctx, "p", "a")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteUser_Cascade(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "a")
	seedUser(t, s, "b")
	seedPhoto(t, s, "pa1", "a", base)
	seedPhoto(t, s, "pa2", "a", base.Add(time.Minute))
	seedPhoto(t, s, "pb", "b", base, "a")

	addComment(t, s, "c1", "pb", "a")
	addComment(t, s, "c2", "pb", "b")
	addComment(t, s, "c3", "pa1", "b")
	_, err := s.ToggleLike(ctx, "pb", "a")
	require.NoError(t, err)
	_, err = s.ToggleLike(ctx, "pb", "b")
	require.NoError(t, err)
	require.NoError(t, s.CreateSession(ctx, &models.Session{ID: "s1", UserID: "a", ExpiresAt: base.Add(time.Hour)}))

	refs, err := s.DeleteUser(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"ref-pa1", "ref-pa2"}, refs)

	_, err = s.GetUserByID(ctx, "a")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	owned, err := s.ListPhotosByOwner(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, owned)

	pb, err := s.GetPhoto(ctx, "pb")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, pb.Likes)
	require.Len(t, pb.Comments, 1)
	assert.Equal(t, "c2", pb.Comments[0].ID)
	assert.Equal(t, []string{"a"}, pb.Visibility.AllowedViewers, "restricted photo must stay restricted")

	byB, err := s.ListPhotosCommentedBy(ctx, "b")
	require.NoError(t, err)
	require.Len(t, byB, 1, "comment on a deleted photo must be gone")
	assert.Equal(t, "pb", byB[0].ID)

	sess, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, sess.Revoked)

	_, err = s.DeleteUser(ctx, "a")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRecentActivities_NewestFirstWithInsertionTieBreak(t *testing.T) {
	ctx := context.Background()
	s := New()

	for i := 0; i < 7; i++ {
		require.NoError(t, s.AppendActivity(ctx, &models.Activity{
			ID: fmt.Sprintf("a%d", i), Type: models.ActivityPhotoUpload,
			ActorID: fmt.Sprintf("u%d", i), CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	// same timestamp as a6, inserted later
	require.NoError(t, s.AppendActivity(ctx, &models.Activity{ID: "tie", ActorID: "u0", CreatedAt: base.Add(6 * time.Second)}))

	got, err := s.RecentActivities(ctx, 5)
	require.NoError(t, err)

	ids := make([]string, 0, len(got))
	for _, a := range got {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"tie", "a6", "a5", "a4", "a3"}, ids)

	latest, err := s.LatestActivityByUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tie", latest["u0"].ID)
	assert.Equal(t, "a3", latest["u3"].ID)
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "a")
	seedPhoto(t, s, "p", "a", base)

	p, err := s.GetPhoto(ctx, "p")
	require.NoError(t, err)
	p.Likes = append(p.Likes, "intruder")

	again, err := s.GetPhoto(ctx, "p")
	require.NoError(t, err)
	assert.Empty(t, again.Likes)
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "a")

	require.NoError(t, s.CreateSession(ctx, &models.Session{ID: "s1", UserID: "a", ExpiresAt: base.Add(time.Hour)}))
	require.NoError(t, s.CreateSession(ctx, &models.Session{ID: "s2", UserID: "a", ExpiresAt: base.Add(time.Hour)}))

	require.NoError(t, s.RevokeSession(ctx, "s1"))
	assert.ErrorIs(t, s.RevokeSession(ctx, "zz"), apperrors.ErrUnauthorized)

	s2, err := s.GetSession(ctx, "s2")
	require.NoError(t, err)
	assert.False(t, s2.Revoked)

	require.NoError(t, s.RevokeUserSessions(ctx, "a"))
	s2, err = s.GetSession(ctx, "s2")
	require.NoError(t, err)
	assert.True(t, s2.Revoked)
}
