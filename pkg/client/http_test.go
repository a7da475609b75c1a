package client_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/photoshare/internal/app/models"
	"github.com/yigit/photoshare/internal/app/models/dto"
	"github.com/yigit/photoshare/internal/bootstrap"
	"github.com/yigit/photoshare/internal/pkg/apperrors"
	"github.com/yigit/photoshare/pkg/client"
)

type server struct {
	*httptest.Server
	deps *bootstrap.Dependencies
}

func newServer(t *testing.T) *server {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("SERVER_STORAGE_PATH", t.TempDir())
	t.Setenv("SERVER_MODE", "production")
	t.Setenv("LOG_LEVEL", "error")

	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	deps, err := bootstrap.BuildDependencies(ctx, cfg, lgr)
	require.NoError(t, err)
	go deps.Hub.Run(ctx)

	srv := httptest.NewServer(bootstrap.SetupRouter(cfg, deps, lgr))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		deps.Close()
	})
	return &server{Server: srv, deps: deps}
}

func loggedIn(t *testing.T, srv *server, login string) (*client.HTTPClient, dto.UserRef) {
	t.Helper()
	ctx := context.Background()
	c := client.NewHTTPClient(srv.URL)
	_, err := c.Register(ctx, dto.RegisterRequest{LoginName: login, Password: "secret1", FirstName: strings.ToUpper(login[:1]), LastName: "Test"})
	require.NoError(t, err)
	auth, err := c.Login(ctx, login, "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, c.Token())
	return c, dto.UserRef{ID: auth.User.ID, FirstName: auth.User.FirstName, LastName: auth.User.LastName}
}

func TestHTTPClient_RoundTrip(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	alice, aliceRef := loggedIn(t, srv, "alice")
	bob, bobRef := loggedIn(t, srv, "bob")

	p, err := alice.UploadPhoto(ctx, "cat.jpg", strings.NewReader("meow"), []string{bobRef.ID})
	require.NoError(t, err)
	assert.Equal(t, aliceRef.ID, p.OwnerID)

	seen, err := bob.GetPhoto(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "cat.jpg", seen.FileName)

	_, err = client.NewHTTPClient(srv.URL).GetPhoto(ctx, p.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	like, err := bob.ToggleLike(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, like.Liked)
	assert.Equal(t, 1, like.LikeCount)

	comment, err := bob.AddComment(ctx, p.ID, "  nice  ")
	require.NoError(t, err)
	assert.Equal(t, "nice", comment.Text)

	comments, err := bob.ListCommentsByUser(ctx, bobRef.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, aliceRef.ID, comments[0].PhotoOwnerID)

	stats, err := bob.GetUserStats(ctx, aliceRef.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.PhotoCount)

	err = alice.DeleteComment(ctx, p.ID, comment.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	require.NoError(t, bob.DeleteComment(ctx, p.ID, comment.ID))

	activities, err := alice.RecentActivities(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, activities, 2)

	require.NoError(t, alice.DeletePhoto(ctx, p.ID))
	require.NoError(t, alice.Logout(ctx))
	_, err = alice.UploadPhoto(ctx, "dog.jpg", strings.NewReader("woof"), nil)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

// next waits for the first event accepted by match, skipping others
func next(t *testing.T, events <-chan dto.Event, match func(dto.Event) bool) dto.Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if match(ev) {
				return ev
			}
		case <-timeout:
			t.Fatal("expected event not received")
			return dto.Event{}
		}
	}
}

func TestSubscriber_FeedsCache(t *testing.T) {
	srv := newServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alice, _ := loggedIn(t, srv, "alice")
	bob, bobRef := loggedIn(t, srv, "bob")

	sub := client.NewSubscriber(bob.EventsURL(), bob.Token(), zerolog.Nop())
	events, err := sub.Events(ctx)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return srv.deps.Hub.ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	cache := client.NewCache(bob, bobRef, client.WithDebounceWindow(200*time.Millisecond))
	defer cache.Close()
	feed, err := cache.Activities(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, feed)

	// Tee events so the test can observe what the cache consumes.
	observed := make(chan dto.Event, 16)
	forward := make(chan dto.Event, 16)
	go func() {
		defer close(forward)
		for ev := range events {
			observed <- ev
			forward <- ev
		}
	}()
	go cache.Consume(ctx, forward)

	p, err := alice.UploadPhoto(ctx, "cat.jpg", strings.NewReader("meow"), nil)
	require.NoError(t, err)

	next(t, observed, func(ev dto.Event) bool {
		var a dto.ActivityResponse
		return ev.Type == dto.EventNewActivity &&
			json.Unmarshal(ev.Payload, &a) == nil &&
			a.Type == models.ActivityPhotoUpload && a.PhotoID == p.ID
	})

	require.Eventually(t, func() bool {
		e, ok := cache.Peek(client.ActivitiesKey())
		if !ok {
			return false
		}
		feed := e.Value.([]dto.ActivityResponse)
		return len(feed) > 0 && feed[0].PhotoID == p.ID
	}, 2*time.Second, 5*time.Millisecond)

	photo, err := cache.Photo(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, photo.LikedByViewer)

	require.NoError(t, <-cache.ToggleLike(ctx, p.ID))
	photo, err = cache.Photo(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, photo.LikedByViewer)
	assert.Equal(t, 1, photo.LikeCount)

	next(t, observed, func(ev dto.Event) bool { return ev.Type == dto.EventPhotoLikesUpdated })
	// The like event is data-free: the photo goes stale and the next read
	// re-fetches it.
	require.Eventually(t, func() bool {
		e, ok := cache.Peek(client.PhotoKey(p.ID))
		return ok && e.Stale
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, client.LikeReconciling, cache.LikeState(p.ID))

	photo, err = cache.Photo(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, photo.LikeCount)
	assert.Equal(t, client.LikeIdle, cache.LikeState(p.ID))
}
