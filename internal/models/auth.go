package models

import "github.com/golang-jwt/jwt/v5"

// Role grants access to route groups.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleStudent Role = "STUDENT"
)

// Claims is the JWT payload accepted by the API. The subject identifies the caller.
type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}
