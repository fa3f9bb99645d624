package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const TokenTypeSession TokenType = "session"

// Claims are the only supported session token shape for this service.
// The token proves who the caller is; it deliberately carries no privilege.
// Privilege is re-read from the identity directory on every request.
type Claims struct {
	jwt.RegisteredClaims

	UserID    string    `json:"user_id"`
	TokenType TokenType `json:"token_type"`
}
