package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	authz "github.com/yigit/photoshare/internal/app/auth"
	"github.com/yigit/photoshare/internal/app/models"
	"github.com/yigit/photoshare/internal/app/models/dto"
	"github.com/yigit/photoshare/internal/app/repositories/memstore"
	"github.com/yigit/photoshare/internal/pkg/auth"
	"github.com/yigit/photoshare/internal/pkg/filestorage"
)

// broadcasterMock records published events
type broadcasterMock struct {
	PublishFunc func(ctx context.Context, event dto.Event) error

	mu     sync.Mutex
	events []dto.Event
}

func (m *broadcasterMock) Publish(ctx context.Context, event dto.Event) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, event)
	}
	return nil
}

func (m *broadcasterMock) Events() []dto.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]dto.Event(nil), m.events...)
}

// storeMock overrides selected memstore methods
type storeMock struct {
	*memstore.Store
	AppendActivityFunc func(ctx context.Context, a *models.Activity) error
	CreatePhotoFunc    func(ctx context.Context, p *models.Photo) error
}

func (m *storeMock) AppendActivity(ctx context.Context, a *models.Activity) error {
	if m.AppendActivityFunc != nil {
		return m.AppendActivityFunc(ctx, a)
	}
	return m.Store.AppendActivity(ctx, a)
}

func (m *storeMock) CreatePhoto(ctx context.Context, p *models.Photo) error {
	if m.CreatePhotoFunc != nil {
		return m.CreatePhotoFunc(ctx, p)
	}
	return m.Store.CreatePhoto(ctx, p)
}

type fixture struct {
	store       *storeMock
	content     *filestorage.MemoryStorage
	broadcaster *broadcasterMock
	resources   *ResourceStore
	sessions    *SessionManager
	gateway     *MutationGateway
	queries     *QueryService
	clock       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:       &storeMock{Store: memstore.New()},
		content:     filestorage.NewMemoryStorage(),
		broadcaster: &broadcasterMock{},
		clock:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	log := zerolog.Nop()
	jwt := auth.NewJWTService(auth.JWTConfig{SecretKey: "test-secret", SessionExp: time.Hour, TokenIssuer: "test"})

	// Every call advances the clock so creation order is strict.
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		f.clock = f.clock.Add(time.Second)
		return f.clock
	}

	f.resources = NewResourceStore(f.store, f.content, log)
	f.resources.now = now
	f.sessions = NewSessionManager(f.store, jwt, log)
	f.gateway = NewMutationGateway(f.resources, f.sessions, f.broadcaster, log)
	f.gateway.now = now
	f.queries = NewQueryService(f.store, f.resources.URL, DefaultActivityLimit, log)
	return f
}

// register creates a user and returns a context acting as them
func (f *fixture) register(t *testing.T, login string) (*models.User, context.Context) {
	t.Helper()
	u, err := f.gateway.Register(context.Background(), RegisterInput{
		LoginName: login,
		Password:  "secret1",
		FirstName: login,
		LastName:  "Tester",
	})
	require.NoError(t, err)

	_, session, err := f.sessions.Issue(context.Background(), u.ID)
	require.NoError(t, err)
	return u, authz.WithViewer(context.Background(), authz.Viewer{UserID: u.ID, SessionID: session.ID})
}

func withViewer(v authz.Viewer) context.Context {
	return authz.WithViewer(context.Background(), v)
}
