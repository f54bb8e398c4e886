package service

import (
	"context"

	"github.com/pkg/errors"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const minPasswordLength = 6

type UserService struct {
	users  port.UserRepository
	hasher port.PasswordHasher
}

func NewUserService(users port.UserRepository, hasher port.PasswordHasher) *UserService {
	return &UserService{users: users, hasher: hasher}
}

func (s *UserService) Profile(ctx context.Context, userID int64) (domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, port.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return user, errors.Wrap(err, "find user")
}

// UpdateProfile applies the non-empty fields of update.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, update domain.ProfileUpdate) (domain.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	if email := deref(update.Email); email != "" && email != user.Email {
		_, err := s.users.FindByEmail(ctx, email)
		if err == nil {
			return domain.User{}, ErrEmailTaken
		}
		if !errors.Is(err, port.ErrNotFound) {
			return domain.User{}, errors.Wrap(err, "find user")
		}
		user.Email = email
	}

	apply(&user.FirstName, update.FirstName)
	apply(&user.LastName, update.LastName)
	apply(&user.Phone, update.Phone)
	apply(&user.Address, update.Address)
	apply(&user.City, update.City)
	apply(&user.Country, update.Country)
	apply(&user.ZipCode, update.ZipCode)

	updated, err := s.users.Update(ctx, user)
	if errors.Is(err, port.ErrDuplicate) {
		return domain.User{}, ErrEmailTaken
	}
	if err != nil {
		return domain.User{}, errors.Wrap(err, "update user")
	}
	return updated, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	if current == "" || next == "" {
		return ErrPasswordRequired
	}
	if len(next) < minPasswordLength {
		return ErrWeakPassword
	}

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(user.PasswordHash, current); err != nil {
		return ErrIncorrectPassword
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	user.PasswordHash = hash
	_, err = s.users.Update(ctx, user)
	return errors.Wrap(err, "update password")
}

// DeactivateAccount soft deletes the account after confirming the password.
func (s *UserService) DeactivateAccount(ctx context.Context, userID int64, password string) error {
	if password == "" {
		return ErrConfirmRequired
	}

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return ErrIncorrectPassword
	}

	user.IsActive = false
	_, err = s.users.Update(ctx, user)
	return errors.Wrap(err, "deactivate user")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func apply(dst *string, v *string) {
	if v != nil && *v != "" {
		*dst = *v
	}
}
