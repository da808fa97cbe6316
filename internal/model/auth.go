package model

import "github.com/golang-jwt/jwt/v5"

// ViewerClaims are JWT claims identifying one viewer across REST and
// WebSocket calls
type ViewerClaims struct {
	ViewerID    string `json:"viewerId"`
	DisplayName string `json:"displayName"`
	jwt.RegisteredClaims
}

// GuestRequest is the request body for guest sign-in
type GuestRequest struct {
	DisplayName string `json:"displayName"`
}

// GuestResponse is returned after successful guest sign-in
type GuestResponse struct {
	Token       string `json:"token"`
	ViewerID    string `json:"viewerId"`
	DisplayName string `json:"displayName"`
}
