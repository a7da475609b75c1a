package client

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/photoshare/internal/app/models"
	"github.com/yigit/photoshare/internal/app/models/dto"
)

func activity(id string, typ models.ActivityType, actor string) dto.ActivityResponse {
	return dto.ActivityResponse{
		ID:        id,
		Type:      typ,
		CreatedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		User:      dto.UserRef{ID: actor},
	}
}

func event(t *testing.T, typ dto.EventType, payload interface{}) dto.Event {
	t.Helper()
	ev, err := dto.NewEvent(typ, payload, time.Now())
	require.NoError(t, err)
	return ev
}

func TestReconcile_NewActivityPrependsAndTruncates(t *testing.T) {
	feed := []dto.ActivityResponse{
		activity("a3", models.ActivityUserLogin, "u1"),
		activity("a2", models.ActivityUserLogin, "u2"),
		activity("a1", models.ActivityUserRegister, "u1"),
	}
	state := State{ActivitiesKey(): {Value: feed}}
	before := append([]dto.ActivityResponse(nil), feed...)

	next, refetch, err := Reconcile(state, event(t, dto.EventNewActivity, activity("a4", models.ActivityPhotoUpload, "u2")), 3)
	require.NoError(t, err)
	assert.Empty(t, refetch)

	got := next[ActivitiesKey()].Value.([]dto.ActivityResponse)
	ids := make([]string, len(got))
	for i, a := range got {
		ids[i] = a.ID
	}
	assert.Equal(t, []string{"a4", "a3", "a2"}, ids)

	// The input state is untouched.
	if diff := cmp.Diff(before, state[ActivitiesKey()].Value); diff != "" {
		t.Errorf("input feed mutated (-want +got):\n%s", diff)
	}
}

func TestReconcile_NewActivityIgnoresDuplicate(t *testing.T) {
	feed := []dto.ActivityResponse{activity("a1", models.ActivityUserLogin, "u1")}
	state := State{ActivitiesKey(): {Value: feed}}

	next, _, err := Reconcile(state, event(t, dto.EventNewActivity, feed[0]), 5)
	require.NoError(t, err)
	assert.Len(t, next[ActivitiesKey()].Value, 1)
}

func TestReconcile_NewActivityReplacesLastActivity(t *testing.T) {
	old := activity("a1", models.ActivityUserLogin, "u1")
	users := []dto.UserSummaryResponse{
		{UserResponse: dto.UserResponse{ID: "u1"}, LastActivity: &old},
		{UserResponse: dto.UserResponse{ID: "u2"}},
	}
	state := State{UsersKey(): {Value: users}}

	upload := activity("a2", models.ActivityPhotoUpload, "u1")
	upload.PhotoID = "p1"
	next, refetch, err := Reconcile(state, event(t, dto.EventNewActivity, upload), 5)
	require.NoError(t, err)
	assert.Empty(t, refetch)

	got := next[UsersKey()].Value.([]dto.UserSummaryResponse)
	require.NotNil(t, got[0].LastActivity)
	assert.Equal(t, "a2", got[0].LastActivity.ID)
	assert.Equal(t, "p1", got[0].LastActivity.PhotoID)
	assert.Nil(t, got[1].LastActivity)
	assert.Equal(t, "a1", users[0].LastActivity.ID)
}

func TestReconcile_RegisterOfUnknownUserRefetchesList(t *testing.T) {
	state := State{UsersKey(): {Value: []dto.UserSummaryResponse{{UserResponse: dto.UserResponse{ID: "u1"}}}}}

	_, refetch, err := Reconcile(state, event(t, dto.EventNewActivity, activity("a9", models.ActivityUserRegister, "u-new")), 5)
	require.NoError(t, err)
	assert.Equal(t, []Key{UsersKey()}, refetch)
}

func TestReconcile_LikesUpdatedListsEntriesHoldingPhoto(t *testing.T) {
	p1 := photo("p1", 1, false)
	p2 := photo("p2", 0, false)
	state := State{
		PhotoKey("p1"):             {Value: &p1},
		PhotosOfUserKey("u-owner"): {Value: []dto.PhotoResponse{p2, p1}},
		UserStatsKey("u-owner"):    {Value: &dto.UserStatsResponse{MostCommentedPhoto: &p1}},
		PhotoKey("p2"):             {Value: &p2},
		UsersKey():                 {Value: []dto.UserSummaryResponse{}},
	}

	next, refetch, err := Reconcile(state, event(t, dto.EventPhotoLikesUpdated, dto.PhotoLikesUpdatedPayload{PhotoID: "p1"}), 5)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Key{PhotoKey("p1"), PhotosOfUserKey("u-owner"), UserStatsKey("u-owner")}, refetch)
	for k, e := range next {
		assert.False(t, e.Stale, k.String())
	}
}

func TestReconcile_LikesUpdatedForUncachedPhoto(t *testing.T) {
	p2 := photo("p2", 0, false)
	state := State{PhotoKey("p2"): {Value: &p2}}

	_, refetch, err := Reconcile(state, event(t, dto.EventPhotoLikesUpdated, dto.PhotoLikesUpdatedPayload{PhotoID: "p1"}), 5)
	require.NoError(t, err)
	assert.Empty(t, refetch)
}

func TestReconcile_MalformedPayload(t *testing.T) {
	state := State{}
	_, _, err := Reconcile(state, dto.Event{Type: dto.EventNewActivity, Payload: []byte(`"nope"`)}, 5)
	assert.Error(t, err)

	next, refetch, err := Reconcile(state, dto.Event{Type: "something_else"}, 5)
	require.NoError(t, err)
	assert.Empty(t, refetch)
	assert.Empty(t, next)
}

func TestSetLike(t *testing.T) {
	p := photo("p1", 2, false)

	liked := setLike(p, viewer, true, -1)
	assert.True(t, liked.LikedByViewer)
	assert.Equal(t, 3, liked.LikeCount)
	assert.Contains(t, liked.Likes, viewer)
	assert.Len(t, p.Likes, 2, "original untouched")

	unliked := setLike(liked, viewer, false, -1)
	if diff := cmp.Diff(p, unliked); diff != "" {
		t.Errorf("toggle twice (-want +got):\n%s", diff)
	}

	authoritative := setLike(p, viewer, true, 7)
	assert.Equal(t, 7, authoritative.LikeCount)
}
