package user

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/apperr"
	"github.com/fkhayef/groupledger/internal/models"
	"github.com/fkhayef/groupledger/internal/storage"
)

// Common errors
var (
	ErrUserNotFound     = apperr.NotFound("user not found")
	ErrUserAlreadyTaken = apperr.Validation("username or email already in use")
	ErrNotSelf          = apperr.Authorization("users can only change their own profile")
)

// TokenIssuer issues an access token for a newly created user.
type TokenIssuer interface {
	Generate(userID uuid.UUID, username string) (string, error)
}

// Service handles user business logic
type Service struct {
	store  storage.Store
	tokens TokenIssuer
	logger *slog.Logger
}

// NewService creates a new user service. tokens may be nil, in which case
// sign-up returns no token.
func NewService(store storage.Store, tokens TokenIssuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, tokens: tokens, logger: logger}
}

// Create creates a new user
func (s *Service) Create(ctx context.Context, req *CreateUserRequest) (*CreateUserResponse, error) {
	u := &models.User{
		Username:  strings.TrimSpace(req.Username),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		AvatarURL: req.AvatarURL,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrUserAlreadyTaken
		}
		return nil, err
	}
	s.logger.InfoContext(ctx, "user created", "user_id", u.ID)

	resp := &CreateUserResponse{UserResponse: toResponse(u)}
	if s.tokens != nil {
		token, err := s.tokens.Generate(u.ID, u.Username)
		if err != nil {
			return nil, err
		}
		resp.Token = token
	}
	return resp, nil
}

// GetByID retrieves a user by their ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return toResponse(u), nil
}

// List retrieves a page of users ordered by username
func (s *Service) List(ctx context.Context, page models.Page) ([]*UserResponse, int, error) {
	users, total, err := s.store.ListUsers(ctx, page)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*UserResponse, len(users))
	for i := range users {
		out[i] = toResponse(&users[i])
	}
	return out, total, nil
}

// Update modifies the caller's own profile
func (s *Service) Update(ctx context.Context, id, callerID uuid.UUID, req *UpdateUserRequest) (*UserResponse, error) {
	if id != callerID {
		return nil, ErrNotSelf
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.Username != nil {
		u.Username = strings.TrimSpace(*req.Username)
	}
	if req.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.AvatarURL != nil {
		u.AvatarURL = req.AvatarURL
	}

	if err := s.store.UpdateUser(ctx, u); err != nil {
		switch {
		case errors.Is(err, storage.ErrDuplicate):
			return nil, ErrUserAlreadyTaken
		case errors.Is(err, storage.ErrNotFound):
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return toResponse(u), nil
}
