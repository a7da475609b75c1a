package auth

import "context"

type ctxKey string

const viewerKey ctxKey = "viewer"

// Viewer is the authenticated identity a request acts for
type Viewer struct {
	UserID    string
	SessionID string
}

// WithViewer stores the viewer in the context.
func WithViewer(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, viewerKey, v)
}

// ViewerFromContext extracts the viewer from the context.
// Returns false if the value is missing or has no user id.
func ViewerFromContext(ctx context.Context) (Viewer, bool) {
	v, ok := ctx.Value(viewerKey).(Viewer)
	if !ok || v.UserID == "" {
		return Viewer{}, false
	}
	return v, true
}

// ViewerID returns the viewer's user id, or "" for anonymous requests.
func ViewerID(ctx context.Context) string {
	v, _ := ViewerFromContext(ctx)
	return v.UserID
}
