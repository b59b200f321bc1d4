package service

import (
	"context"
	"strings"

	"github.com/dukerupert/deltamc/internal/domain"
)

// UserService implements domain.UserService.
type UserService struct {
	users UserStore
}

var _ domain.UserService = (*UserService)(nil)

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// Login returns the player account, creating it on first use.
func (s *UserService) Login(ctx context.Context, username string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.ErrUsernameRequired
	}

	user, err := s.users.UpsertUser(ctx, username)
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, "user.login", domain.ErrUserNotCreated.Message)
	}
	return user, nil
}

func (s *UserService) Purchases(ctx context.Context, username string) ([]domain.UserPurchase, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.ErrUsernameRequired
	}

	purchases, err := s.users.ListPurchases(ctx, username)
	if err != nil {
		return nil, domain.Internal(err, "user.purchases", "failed to list purchases")
	}
	if purchases == nil {
		purchases = []domain.UserPurchase{}
	}
	return purchases, nil
}
