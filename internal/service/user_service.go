package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/finova/internal/models"
)

// UserService keeps the user table in step with the identity provider.
type UserService struct {
	base
}

// NewUserService creates a new UserService.
func NewUserService(deps Deps) *UserService {
	return &UserService{base{deps}}
}

// SyncUser creates the caller's user row on first sign-in and refreshes the
// name and email from the token afterwards.
func (s *UserService) SyncUser(ctx context.Context, req *connect.Request[SyncUserRequest]) (*connect.Response[SyncUserResponse], error) {
	id, err := s.identity(ctx)
	if err != nil {
		return nil, connectError(err)
	}

	slog.Info("SyncUser request received", "identity", id.Subject)

	name := strings.TrimSpace(id.Name)
	if name == "" {
		name = id.Email
	}

	user, err := withStore(ctx, &s.base, "sync user", func(ctx context.Context) (*models.User, error) {
		u := &models.User{IdentityID: id.Subject, Name: name, Email: id.Email}
		if err := s.Store.UpsertUser(ctx, u); err != nil {
			return nil, err
		}
		return u, nil
	})
	if err != nil {
		slog.Error("SyncUser failed", "identity", id.Subject, "error", err)
		return nil, connectError(err)
	}

	slog.Info("User synced", "user_id", user.ID, "identity", id.Subject)

	return connect.NewResponse(&SyncUserResponse{
		Success: true,
		Data: &UserView{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
		},
	}), nil
}
