package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/GhenaBabiuc/sync-watch-service/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// AuthService issues and validates viewer tokens. Identity is
// deliberately lightweight: anyone can sign in as a guest, and the
// only authorization the sync engine enforces beyond that is the
// host check on content navigation.
type AuthService struct {
	jwtSecret []byte
}

// NewAuthService creates a new auth service
func NewAuthService(jwtSecret string) *AuthService {
	return &AuthService{jwtSecret: []byte(jwtSecret)}
}

// GuestLogin mints a fresh viewer identity and a signed token for it
func (s *AuthService) GuestLogin(displayName string) (*model.GuestResponse, error) {
	if displayName == "" {
		displayName = fmt.Sprintf("Guest%d", time.Now().UnixMilli()%1000)
	}

	viewerID := "v_" + uuid.New().String()[:8]

	claims := &model.ViewerClaims{
		ViewerID:    viewerID,
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.GuestResponse{
		Token:       tokenString,
		ViewerID:    viewerID,
		DisplayName: displayName,
	}, nil
}

// ValidateToken validates a viewer JWT and returns its claims
func (s *AuthService) ValidateToken(tokenString string) (*model.ViewerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.ViewerClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.ViewerClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
