package services

import (
	"context"
	"crypto/rand"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	authz "github.com/yigit/photoshare/internal/app/auth"
	"github.com/yigit/photoshare/internal/app/models"
	"github.com/yigit/photoshare/internal/app/models/dto"
	"github.com/yigit/photoshare/internal/pkg/apperrors"
	"github.com/yigit/photoshare/internal/pkg/auth"
	"github.com/yigit/photoshare/internal/pkg/validation"
)

// publishTimeout bounds how long a mutation waits on a congested hub
const publishTimeout = 2 * time.Second

// Broadcaster fans events out to connected subscribers
type Broadcaster interface {
	Publish(ctx context.Context, event dto.Event) error
}

// RegisterInput carries the fields of a new account
type RegisterInput struct {
	LoginName   string
	Password    string
	FirstName   string
	LastName    string
	Location    string
	Description string
	Occupation  string
}

// LoginResult is a freshly issued session
type LoginResult struct {
	Token   string
	Session *models.Session
	User    *models.User
}

// MutationGateway is the single entry point for writes. Every intent runs
// authorization, validation and the store operation; the activity record and
// the broadcast that follow are best effort and never fail the intent.
type MutationGateway struct {
	resources   *ResourceStore
	sessions    *SessionManager
	broadcaster Broadcaster
	logger      zerolog.Logger
	now         func() time.Time

	idMu    sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewMutationGateway creates a new MutationGateway
func NewMutationGateway(resources *ResourceStore, sessions *SessionManager, broadcaster Broadcaster, logger zerolog.Logger) *MutationGateway {
	return &MutationGateway{
		resources:   resources,
		sessions:    sessions,
		broadcaster: broadcaster,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		entropy:     ulid.Monotonic(rand.Reader, 0),
	}
}

func requireViewer(ctx context.Context) (authz.Viewer, error) {
	v, ok := authz.ViewerFromContext(ctx)
	if !ok {
		return authz.Viewer{}, apperrors.NewUnauthorizedError("authentication required")
	}
	return v, nil
}

// Register creates an account
func (g *MutationGateway) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.LoginName = strings.TrimSpace(in.LoginName)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	switch {
	case !validation.LoginName(in.LoginName):
		return nil, apperrors.NewInvalidInputError("login name must be %d-%d letters or digits",
			validation.LoginNameMinLength, validation.LoginNameMaxLength)
	case !validation.Password(in.Password):
		return nil, apperrors.NewInvalidInputError("password must be %d-%d characters",
			validation.PasswordMinLength, validation.PasswordMaxLength)
	case !validation.Name(in.FirstName) || !validation.Name(in.LastName):
		return nil, apperrors.NewInvalidInputError("first and last name are required")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperrors.Internal("hash password", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		LoginName:    in.LoginName,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Location:     strings.TrimSpace(in.Location),
		Description:  strings.TrimSpace(in.Description),
		Occupation:   strings.TrimSpace(in.Occupation),
		CreatedAt:    g.now(),
	}
	if err := g.resources.Documents().CreateUser(ctx, user); err != nil {
		return nil, err
	}

	g.logger.Info().Str("userID", user.ID).Str("loginName", user.LoginName).Msg("User registered")
	g.record(ctx, models.ActivityUserRegister, user, nil)
	return user, nil
}

// Login checks credentials and opens a session
func (g *MutationGateway) Login(ctx context.Context, loginName, password string) (*LoginResult, error) {
	if strings.TrimSpace(loginName) == "" || password == "" {
		return nil, apperrors.NewInvalidInputError("login name and password are required")
	}

	user, err := g.resources.Documents().GetUserByLoginName(ctx, strings.TrimSpace(loginName))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, session, err := g.sessions.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	g.record(ctx, models.ActivityUserLogin, user, nil)
	return &LoginResult{Token: token, Session: session, User: user}, nil
}

// Logout revokes the viewer's session
func (g *MutationGateway) Logout(ctx context.Context) error {
	viewer, err := requireViewer(ctx)
	if err != nil {
		return err
	}
	if err := g.sessions.Revoke(ctx, viewer.SessionID); err != nil {
		return err
	}

	g.recordFor(ctx, models.ActivityUserLogout, viewer.UserID, nil)
	return nil
}

// UploadPhoto stores a new photo owned by the viewer. sharedWith restricts
// visibility; empty means public.
func (g *MutationGateway) UploadPhoto(ctx context.Context, content io.Reader, filename string, sharedWith []string) (*models.Photo, error) {
	viewer, err := requireViewer(ctx)
	if err != nil {
		return nil, err
	}

	scope := models.RestrictedScope(sharedWith...)
	for _, id := range scope.AllowedViewers {
		if _, err := g.resources.Documents().GetUserByID(ctx, id); err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.NewInvalidInputError("cannot share with unknown user %s", id)
			}
			return nil, err
		}
	}

	photo, err := g.resources.CreatePhoto(ctx, viewer.UserID, content, filename, scope)
	if err != nil {
		return nil, err
	}

	g.recordFor(ctx, models.ActivityPhotoUpload, viewer.UserID, photo)
	return photo, nil
}

// ToggleLike flips the viewer's like on a photo they can see. Subscribers
// are told which photo changed, not how.
func (g *MutationGateway) ToggleLike(ctx context.Context, photoID string) (models.LikeResult, error) {
	viewer, err := requireViewer(ctx)
	if err != nil {
		return models.LikeResult{}, err
	}
	if _, err := g.visiblePhoto(ctx, photoID, viewer.UserID); err != nil {
		return models.LikeResult{}, err
	}

	result, err := g.resources.ToggleLike(ctx, photoID, viewer.UserID)
	if err != nil {
		return models.LikeResult{}, err
	}

	g.publish(ctx, dto.EventPhotoLikesUpdated, dto.PhotoLikesUpdatedPayload{PhotoID: photoID})
	return result, nil
}

// AddComment comments on a photo the viewer can see
func (g *MutationGateway) AddComment(ctx context.Context, photoID, text string) (*models.Comment, error) {
	viewer, err := requireViewer(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.ErrEmptyComment
	}
	photo, err := g.visiblePhoto(ctx, photoID, viewer.UserID)
	if err != nil {
		return nil, err
	}

	comment, err := g.resources.AddComment(ctx, photoID, viewer.UserID, text)
	if err != nil {
		return nil, err
	}

	g.recordFor(ctx, models.ActivityCommentAdded, viewer.UserID, photo)
	return comment, nil
}

// DeleteComment removes one of the viewer's comments
func (g *MutationGateway) DeleteComment(ctx context.Context, commentID, photoID string) error {
	viewer, err := requireViewer(ctx)
	if err != nil {
		return err
	}
	return g.resources.DeleteComment(ctx, commentID, photoID, viewer.UserID)
}

// DeletePhoto removes one of the viewer's photos
func (g *MutationGateway) DeletePhoto(ctx context.Context, photoID string) error {
	viewer, err := requireViewer(ctx)
	if err != nil {
		return err
	}
	return g.resources.DeletePhoto(ctx, photoID, viewer.UserID)
}

// DeleteAccount deletes the viewer and everything they own. Their sessions,
// the current one included, are revoked by the cascade.
func (g *MutationGateway) DeleteAccount(ctx context.Context) error {
	viewer, err := requireViewer(ctx)
	if err != nil {
		return err
	}
	return g.resources.DeleteUser(ctx, viewer.UserID, viewer.UserID)
}

// visiblePhoto loads a photo, hiding the ones the viewer may not see
func (g *MutationGateway) visiblePhoto(ctx context.Context, photoID, viewerID string) (*models.Photo, error) {
	photo, err := g.resources.Documents().GetPhoto(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if !authz.CanView(viewerID, photo) {
		return nil, apperrors.ErrPhotoNotFound
	}
	return photo, nil
}

func (g *MutationGateway) newActivityID(t time.Time) string {
	g.idMu.Lock()
	defer g.idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), g.entropy).String()
}

// recordFor looks up the actor before recording
func (g *MutationGateway) recordFor(ctx context.Context, typ models.ActivityType, actorID string, photo *models.Photo) {
	actor, err := g.resources.Documents().GetUserByID(ctx, actorID)
	if err != nil {
		g.logger.Error().Err(err).Str("type", string(typ)).Str("actorID", actorID).Msg("Failed to load activity actor")
		return
	}
	g.record(ctx, typ, actor, photo)
}

// record appends an activity and announces it. Failures are logged only.
func (g *MutationGateway) record(ctx context.Context, typ models.ActivityType, actor *models.User, photo *models.Photo) {
	ctx = context.WithoutCancel(ctx)

	now := g.now()
	activity := &models.Activity{
		ID:             g.newActivityID(now),
		Type:           typ,
		ActorID:        actor.ID,
		ActorFirstName: actor.FirstName,
		ActorLastName:  actor.LastName,
		CreatedAt:      now,
	}
	if photo != nil {
		activity.PhotoID = photo.ID
		activity.PhotoOwnerID = photo.OwnerID
		activity.ContentRef = photo.ContentRef
		activity.FileName = photo.FileName
	}

	if err := g.resources.Documents().AppendActivity(ctx, activity); err != nil {
		g.logger.Error().Err(err).Str("type", string(typ)).Str("actorID", actor.ID).Msg("Failed to record activity")
		return
	}

	g.publish(ctx, dto.EventNewActivity, dto.NewActivityResponse(activity, g.resources.URL))
}

func (g *MutationGateway) publish(ctx context.Context, typ dto.EventType, payload interface{}) {
	if g.broadcaster == nil {
		return
	}
	event, err := dto.NewEvent(typ, payload, g.now())
	if err != nil {
		g.logger.Error().Err(err).Str("type", string(typ)).Msg("Failed to encode event")
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := g.broadcaster.Publish(ctx, event); err != nil {
		g.logger.Warn().Err(err).Str("type", string(typ)).Msg("Failed to broadcast event")
	}
}
