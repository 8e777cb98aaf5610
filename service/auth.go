package service

import (
	"context"
	"errors"
	"strings"

	"github.com/BerniceZTT/feedback_end/models"
	"github.com/BerniceZTT/feedback_end/repository"
	"github.com/BerniceZTT/feedback_end/utils"
)

// AuthService handles registration and login.
type AuthService struct {
	users    UserStore
	accounts *UserService
}

// NewAuthService wires the service.
func NewAuthService(users UserStore) *AuthService {
	return &AuthService{users: users, accounts: NewUserService(users)}
}

// Register creates a self-service account and logs it in. The role defaults
// to STUDENT.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	role := models.UserRoleSTUDENT
	if strings.TrimSpace(req.Role) != "" {
		parsed, ok := models.ParseUserRole(req.Role)
		if !ok {
			return nil, utils.CreateValidationError("Invalid role")
		}
		if !parsed.In(selfServiceRoles...) {
			return nil, utils.CreateForbiddenError("Role cannot be self-assigned")
		}
		role = parsed
	}

	u, err := s.accounts.create(ctx, req.Name, req.Username, req.Email, req.Password, role)
	if err != nil {
		return nil, err
	}
	return issue(u)
}

// Login checks the credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	login := strings.TrimSpace(req.Email)
	if login == "" {
		login = strings.TrimSpace(req.Username)
	}
	if login == "" {
		return nil, utils.CreateValidationError("email or username is required")
	}

	u, err := s.users.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, utils.CreateUnauthorizedError("Invalid credentials")
		}
		return nil, utils.CreateStoreError(err)
	}
	if !utils.VerifyPassword(req.Password, u.Password) {
		utils.Logger.Warn().Str("login", login).Msg("login rejected")
		return nil, utils.CreateUnauthorizedError("Invalid credentials")
	}

	utils.Logger.Info().Str("userId", u.ID.Hex()).Msg("user logged in")
	return issue(u)
}

// Validate confirms the caller's account still exists.
func (s *AuthService) Validate(ctx context.Context, caller *models.Caller) (*models.UserSummary, error) {
	u, err := s.users.FindByID(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, utils.CreateUnauthorizedError("User no longer exists")
		}
		return nil, utils.CreateStoreError(err)
	}
	return u.Summary(), nil
}

func issue(u *models.User) (*models.LoginResponse, error) {
	token, err := utils.GenerateToken(u)
	if err != nil {
		return nil, utils.CreateStoreError(err)
	}
	return &models.LoginResponse{Token: token, User: u.Summary()}, nil
}
