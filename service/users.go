package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BerniceZTT/feedback_end/models"
	"github.com/BerniceZTT/feedback_end/repository"
	"github.com/BerniceZTT/feedback_end/utils"
)

const userResource = "User"

// selfServiceRoles may be chosen at registration. Other roles are created by
// an ADMIN.
var selfServiceRoles = []models.UserRole{
	models.UserRoleSTUDENT,
	models.UserRolePARENT,
	models.UserRoleSTAFF,
}

// UserService exposes user lookups and account creation.
type UserService struct {
	users UserStore
	now   func() time.Time
}

// NewUserService wires the service.
func NewUserService(users UserStore) *UserService {
	return &UserService{users: users, now: time.Now}
}

// List returns every user.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, utils.CreateStoreError(err)
	}
	return users, nil
}

// Me returns the caller's own account.
func (s *UserService) Me(ctx context.Context, caller *models.Caller) (*models.User, error) {
	u, err := s.users.FindByID(ctx, caller.ID)
	if err != nil {
		return nil, storeError(err, userResource)
	}
	return u, nil
}

// ByRole lists the users holding rawRole, used to pick an assignee.
func (s *UserService) ByRole(ctx context.Context, rawRole string) ([]models.UserSummary, error) {
	role, ok := models.ParseUserRole(rawRole)
	if !ok {
		return nil, utils.CreateValidationError("Invalid role")
	}

	users, err := s.users.FindByRole(ctx, role)
	if err != nil {
		return nil, utils.CreateStoreError(err)
	}

	summaries := make([]models.UserSummary, 0, len(users))
	for i := range users {
		summaries = append(summaries, *users[i].Summary())
	}
	return summaries, nil
}

// Create adds an account with any role.
func (s *UserService) Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	role, ok := models.ParseUserRole(req.Role)
	if !ok {
		return nil, utils.CreateValidationError("Invalid role")
	}
	return s.create(ctx, req.Name, req.Username, req.Email, req.Password, role)
}

func (s *UserService) create(ctx context.Context, name, username, email, password string, role models.UserRole) (*models.User, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, utils.CreateStoreError(err)
	}

	now := s.now()
	u := &models.User{
		Name:      strings.TrimSpace(name),
		Username:  strings.TrimSpace(username),
		Email:     strings.TrimSpace(email),
		Password:  hash,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Insert(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, utils.CreateValidationError("User already exists")
		}
		return nil, utils.CreateStoreError(err)
	}

	utils.Logger.Info().Str("userId", u.ID.Hex()).Str("role", string(role)).Msg("user created")
	return u, nil
}
