// Package identity resolves user references and carries the ambient acting
// identity for collaborators that cannot take it as a parameter.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-activity-api/internal/models"
	"github.com/noah-isme/gema-activity-api/internal/repository"
)

var (
	// ErrInvalidUserRef indicates a user reference of an unsupported shape.
	ErrInvalidUserRef = errors.New("invalid user reference")
	// ErrNoCurrentUser indicates that no authenticated user is bound to the context.
	ErrNoCurrentUser = errors.New("no current user")
	// ErrUserNotFound indicates that the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

type currentUserKey struct{}

// WithCurrentUserID binds the authenticated user id to ctx.
func WithCurrentUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, currentUserKey{}, userID)
}

// CurrentUserID returns the authenticated user id bound to ctx, if any.
func CurrentUserID(ctx context.Context) (uint, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(currentUserKey{}).(uint)
	return id, ok && id != 0
}

// Resolver normalises user references to concrete user records.
type Resolver struct {
	users repository.UserRepository
}

// NewResolver constructs a resolver backed by the user store.
func NewResolver(users repository.UserRepository) *Resolver {
	return &Resolver{users: users}
}

// Resolve accepts nil (the current user), a models.User or *models.User, an
// integer id or a numeric string. Any other shape yields ErrInvalidUserRef.
func (r *Resolver) Resolve(ctx context.Context, ref any) (models.User, error) {
	switch v := ref.(type) {
	case nil:
		current, ok := CurrentUserID(ctx)
		if !ok {
			return models.User{}, ErrNoCurrentUser
		}
		return r.lookup(ctx, current)
	case models.User:
		return v, nil
	case *models.User:
		if v == nil {
			return models.User{}, ErrInvalidUserRef
		}
		return *v, nil
	case uint:
		return r.byID(ctx, uint64(v))
	case uint32:
		return r.byID(ctx, uint64(v))
	case uint64:
		return r.byID(ctx, v)
	case int:
		return r.signed(ctx, int64(v))
	case int32:
		return r.signed(ctx, int64(v))
	case int64:
		return r.signed(ctx, v)
	case string:
		parsed, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return models.User{}, fmt.Errorf("%w: %q", ErrInvalidUserRef, v)
		}
		return r.byID(ctx, parsed)
	default:
		return models.User{}, fmt.Errorf("%w: %T", ErrInvalidUserRef, ref)
	}
}

func (r *Resolver) signed(ctx context.Context, id int64) (models.User, error) {
	if id < 0 {
		return models.User{}, fmt.Errorf("%w: negative id %d", ErrInvalidUserRef, id)
	}
	return r.byID(ctx, uint64(id))
}

func (r *Resolver) byID(ctx context.Context, id uint64) (models.User, error) {
	if id == 0 {
		return models.User{}, fmt.Errorf("%w: zero id", ErrInvalidUserRef)
	}
	return r.lookup(ctx, uint(id))
}

func (r *Resolver) lookup(ctx context.Context, id uint) (models.User, error) {
	user, err := r.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("load user %d: %w", id, err)
	}
	return user, nil
}
