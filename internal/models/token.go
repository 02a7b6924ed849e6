package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims are the claims the auth service puts in its bearer tokens.
// The web frontend reads them without verifying; the backends verify.
type TokenClaims struct {
	UserID string `json:"userId,omitempty"`
	Role   string `json:"role,omitempty"`
	CID    string `json:"cid,omitempty"`
	jwt.RegisteredClaims
}
