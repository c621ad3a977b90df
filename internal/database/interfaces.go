package database

import (
	"context"

	"collab-app/internal/models"
)

type UserRepository interface {
	CreateUser(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// NameResolver is the narrow lookup the realtime engine uses to decorate
// notifications with display names. Resolution is best-effort; unknown
// identifiers are simply absent from the result.
type NameResolver interface {
	ResolveNames(ctx context.Context, ids []string) (map[string]string, error)
}

type Database interface {
	UserRepository
	NameResolver
	Close() error
}
