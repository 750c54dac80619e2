package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims is the payload of a signed access token
type AccessClaims struct {
	UserID string `json:"id"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}
