package auth

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

// In reports flat membership of r in roles.
func (r Role) In(roles []Role) bool {
	for _, x := range roles {
		if x == r {
			return true
		}
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Identity is the authenticated principal carried by an access token.
type Identity struct {
	SubjectID string `json:"userId"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}

// RefreshRecord is the server-side half of a refresh token. TokenHash is the
// digest of the token value; the raw token is never stored.
type RefreshRecord struct {
	TokenHash string
	SubjectID string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (r *RefreshRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

const TokenTypeBearer = "Bearer"

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expiresIn"`
}
