package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authz "github.com/yigit/photoshare/internal/app/auth"
	"github.com/yigit/photoshare/internal/app/models"
	"github.com/yigit/photoshare/internal/app/models/dto"
	"github.com/yigit/photoshare/internal/app/repositories"
	"github.com/yigit/photoshare/internal/app/repositories/memstore"
	"github.com/yigit/photoshare/internal/app/services"
	"github.com/yigit/photoshare/internal/pkg/filestorage"
)

// flakyDirectory fails user listings, which every photo read depends on
type flakyDirectory struct {
	repositories.Store
}

func (flakyDirectory) ListUsers(ctx context.Context) ([]*models.User, error) {
	return nil, errors.New("connection reset")
}

func TestPhotoController_UploadSucceedsWhenReadBackFails(t *testing.T) {
	store := flakyDirectory{Store: memstore.New()}
	require.NoError(t, store.CreateUser(context.Background(), &models.User{ID: "u1", LoginName: "ada", FirstName: "Ada"}))

	log := zerolog.Nop()
	resources := services.NewResourceStore(store, filestorage.NewMemoryStorage(), log)
	gateway := services.NewMutationGateway(resources, nil, nil, log)
	queries := services.NewQueryService(store, resources.URL, services.DefaultActivityLimit, log)
	controller := NewPhotoController(gateway, queries, log)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/photos", func(c *gin.Context) {
		ctx := authz.WithViewer(c.Request.Context(), authz.Viewer{UserID: "u1", SessionID: "s1"})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}, controller.UploadPhoto)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("photo", "beach.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg bytes"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/photos", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Data dto.PhotoResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.ID)
	assert.Equal(t, "u1", resp.Data.OwnerID)
	assert.Equal(t, "beach.jpg", resp.Data.FileName)
	assert.NotEmpty(t, resp.Data.URL)
	assert.Zero(t, resp.Data.LikeCount)

	photos, err := store.ListPhotosByOwner(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, photos, 1)
}
