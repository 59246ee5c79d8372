package services

import (
	"context"

	"grindsheet/internal/models"
	"grindsheet/internal/pagination"
)

// UserServicer defines the contract for credential storage and checks.
type UserServicer interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ResetPassword(ctx context.Context, email, newPassword string) error
}

// ResetTokenServicer defines the password-reset token lifecycle.
// A token is Issued by Create and ends either Consumed or Expired.
type ResetTokenServicer interface {
	Create(ctx context.Context, email string) (string, error)
	Verify(ctx context.Context, token string) (string, error)
	Consume(ctx context.Context, token string) error
	ResetPassword(ctx context.Context, token, newPassword string) (string, error)
	PurgeExpired(ctx context.Context) (int64, error)
}

// UserDataServicer defines per-user document storage.
type UserDataServicer interface {
	Get(ctx context.Context, email string) (*models.Document, error)
	Put(ctx context.Context, email string, doc models.Document) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(ctx context.Context, email, action, ipAddress string, details map[string]interface{})
	List(ctx context.Context, email string, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error)
}
