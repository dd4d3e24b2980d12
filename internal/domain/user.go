package domain

import (
	"context"
	"errors"
	"time"
)

// User is the authenticated operator behind a request. Users are not stored;
// they come from verified tokens.
type User struct {
	ID        string
	Email     string
	Name      string
	Role      Role
	ExpiresAt time.Time
}

// Actor returns the name recorded on entries the user creates or settles.
func (u *User) Actor() string {
	if u.Email != "" {
		return u.Email
	}
	return u.ID
}

// Role represents a user's access level
type Role string

const (
	// RoleAdmin has full access to all operations
	RoleAdmin Role = "admin"

	// RoleOperator can record and settle entries, but cannot manage registries
	RoleOperator Role = "operator"

	// RoleViewer can only view resources, no mutations
	RoleViewer Role = "viewer"
)

// Valid roles
var validRoles = map[Role]bool{
	RoleAdmin:    true,
	RoleOperator: true,
	RoleViewer:   true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// CanCreate checks if the role can create resources
func (r Role) CanCreate() bool {
	return r == RoleAdmin || r == RoleOperator
}

// CanManageRegistries checks if the role can create entities and banks and run remote sync
func (r Role) CanManageRegistries() bool {
	return r == RoleAdmin
}

// CanViewAll checks if the role can view all resources
func (r Role) CanViewAll() bool {
	// All authenticated users can view
	return r.IsValid()
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)

type userContextKey struct{}

// ContextWithUser returns a copy of ctx carrying u.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

// UserFromContext returns the user stored by ContextWithUser.
func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userContextKey{}).(*User)
	return u, ok && u != nil
}
