package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims are the claims carried by service-issued access tokens.
type JWTClaims struct {
	TeacherID string `json:"tid"`
	Email     string `json:"email"`
	Slug      string `json:"slug"`
	jwt.RegisteredClaims
}

// SignInResponse is returned after a successful Google code exchange.
type SignInResponse struct {
	AccessToken string  `json:"accessToken"`
	ExpiresIn   int64   `json:"expiresIn"`
	Teacher     Teacher `json:"teacher"`
}
