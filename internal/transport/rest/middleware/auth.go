package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/GhenaBabiuc/sync-watch-service/internal/service"
)

type contextKey string

const (
	ViewerIDKey    contextKey = "viewerId"
	DisplayNameKey contextKey = "displayName"
)

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authSvc *service.AuthService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authSvc *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc}
}

// RequireViewer validates a viewer JWT from the Authorization header
// or the token query param
func (m *AuthMiddleware) RequireViewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			http.Error(w, `{"error":"missing authorization"}`, http.StatusUnauthorized)
			return
		}

		claims, err := m.authSvc.ValidateToken(token)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, ViewerIDKey, claims.ViewerID)
		ctx = context.WithValue(ctx, DisplayNameKey, claims.DisplayName)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetViewerID extracts the viewer ID from context
func GetViewerID(ctx context.Context) string {
	if v := ctx.Value(ViewerIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// GetDisplayName extracts the display name from context
func GetDisplayName(ctx context.Context) string {
	if v := ctx.Value(DisplayNameKey); v != nil {
		return v.(string)
	}
	return ""
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
