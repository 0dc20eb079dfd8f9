package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims is the payload of an issued session token.
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"uid"`
	Email  string `json:"email"`
}
