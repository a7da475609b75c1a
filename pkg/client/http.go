package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yigit/photoshare/internal/app/models/dto"
)

const apiPrefix = "/api/v1"

// HTTPClient talks to a photoshare server over its JSON API
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures an HTTPClient
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

// WithToken sets the bearer token sent with every request
func WithToken(token string) Option {
	return func(c *HTTPClient) { c.token = token }
}

// NewHTTPClient creates a client for the server at baseURL (e.g. "http://localhost:8080")
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the bearer token in use
func (c *HTTPClient) Token() string { return c.token }

// EventsURL is the websocket endpoint for push events
func (c *HTTPClient) EventsURL() string {
	u := c.baseURL + apiPrefix + "/events/ws"
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

// Register creates an account. It does not log in.
func (c *HTTPClient) Register(ctx context.Context, req dto.RegisterRequest) (*dto.UserResponse, error) {
	var out dto.UserResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login opens a session and keeps its token for later calls
func (c *HTTPClient) Login(ctx context.Context, loginName, password string) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	req := dto.LoginRequest{LoginName: loginName, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", req, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// Logout revokes the current session
func (c *HTTPClient) Logout(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

func (c *HTTPClient) ListUsers(ctx context.Context) ([]dto.UserSummaryResponse, error) {
	var out []dto.UserSummaryResponse
	err := c.doJSON(ctx, http.MethodGet, "/users", nil, &out)
	return out, err
}

func (c *HTTPClient) GetUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	var out dto.UserResponse
	if err := c.doJSON(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ListPhotosOfUser(ctx context.Context, userID string) ([]dto.PhotoResponse, error) {
	var out []dto.PhotoResponse
	err := c.doJSON(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/photos", nil, &out)
	return out, err
}

func (c *HTTPClient) GetPhoto(ctx context.Context, photoID string) (*dto.PhotoResponse, error) {
	var out dto.PhotoResponse
	if err := c.doJSON(ctx, http.MethodGet, "/photos/"+url.PathEscape(photoID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GetUserStats(ctx context.Context, userID string) (*dto.UserStatsResponse, error) {
	var out dto.UserStatsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ListCommentsByUser(ctx context.Context, userID string) ([]dto.CommentResponse, error) {
	var out []dto.CommentResponse
	err := c.doJSON(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/comments", nil, &out)
	return out, err
}

// RecentActivities returns the newest activities; limit <= 0 uses the server default
func (c *HTTPClient) RecentActivities(ctx context.Context, limit int) ([]dto.ActivityResponse, error) {
	path := "/activities"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []dto.ActivityResponse
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *HTTPClient) ToggleLike(ctx context.Context, photoID string) (*dto.LikeResponse, error) {
	var out dto.LikeResponse
	if err := c.doJSON(ctx, http.MethodPost, "/photos/"+url.PathEscape(photoID)+"/like", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddComment posts a comment on a photo
func (c *HTTPClient) AddComment(ctx context.Context, photoID, text string) (*dto.CommentResponse, error) {
	var out dto.CommentResponse
	req := dto.AddCommentRequest{Text: text}
	if err := c.doJSON(ctx, http.MethodPost, "/photos/"+url.PathEscape(photoID)+"/comments", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteComment removes one of the caller's comments
func (c *HTTPClient) DeleteComment(ctx context.Context, photoID, commentID string) error {
	path := "/photos/" + url.PathEscape(photoID) + "/comments/" + url.PathEscape(commentID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// DeletePhoto removes one of the caller's photos
func (c *HTTPClient) DeletePhoto(ctx context.Context, photoID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/photos/"+url.PathEscape(photoID), nil, nil)
}

// UploadPhoto sends image content as multipart form data. An empty
// sharedWith makes the photo public.
func (c *HTTPClient) UploadPhoto(ctx context.Context, filename string, content io.Reader, sharedWith []string) (*dto.PhotoResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("photo", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, err
	}
	if len(sharedWith) > 0 {
		raw, err := json.Marshal(sharedWith)
		if err != nil {
			return nil, err
		}
		if err := mw.WriteField("sharedWith", string(raw)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out dto.PhotoResponse
	if err := c.do(ctx, http.MethodPost, "/photos", mw.FormDataContentType(), &body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, contentType, body, out)
}

func (c *HTTPClient) do(ctx context.Context, method, path, contentType string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	envelope := struct {
		Data  json.RawMessage  `json:"data"`
		Error *dto.ErrorDetail `json:"error"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil && err != io.EOF {
		if resp.StatusCode >= 300 {
			return &APIError{Status: resp.StatusCode}
		}
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if envelope.Error != nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}

	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

var _ API = (*HTTPClient)(nil)
