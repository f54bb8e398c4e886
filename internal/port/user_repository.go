package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByID(ctx context.Context, id int64) (domain.User, error)

	// Create persists the user together with its empty cart in one
	// transaction. ErrDuplicate when the email is taken.
	Create(ctx context.Context, user domain.User) (domain.User, error)

	// Update overwrites profile, password hash, role and active flag
	Update(ctx context.Context, user domain.User) (domain.User, error)
}
