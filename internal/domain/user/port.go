package user

import (
	"context"
	"time"
)

// Directory is the user store consumed by the token lifecycle.
// Lookups return ErrNotFound when absent; Insert returns ErrEmailTaken on a
// duplicate email.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Insert(ctx context.Context, u *User) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// Lister backs the admin user listing.
type Lister interface {
	List(ctx context.Context, limit, offset int) ([]*User, error)
}
