package auth

import (
	"time"

	id "capledger/pkg/domain"
)

// User is a login identity. Admins exist independently; shareholder users are
// provisioned together with their shareholder account and carry its binding
// in their token.
type User struct {
	ID           id.UserID
	Email        string
	PasswordHash string
	Role         id.Role
	Active       bool
	CreatedAt    time.Time
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult carries the signed token and the identity it encodes, so the
// handler can shape the response without re-parsing the token.
type LoginResult struct {
	Token         string
	TokenType     string
	ExpiresIn     int64
	UserID        id.UserID
	Role          id.Role
	ShareholderID id.ShareholderID
}
