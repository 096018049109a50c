package services

import (
	"context"
	"errors"
	"strings"

	"school-equiplend/internal/adapters/persistence/models"
	"school-equiplend/internal/adapters/persistence/repositories"
	"school-equiplend/internal/config"
	"school-equiplend/internal/core/domain"
	"school-equiplend/internal/pkg/jwt"
	"school-equiplend/internal/pkg/password"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo repositories.UserRepository
	cfg      *config.Config
	log      *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repositories.UserRepository, cfg *config.Config, log *zap.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		cfg:      cfg,
		log:      log,
	}
}

// SignupInput represents registration input
type SignupInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=191"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role"`
}

// LoginInput represents login input
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User        *models.UserResponse `json:"user"`
	AccessToken string               `json:"accessToken"`
	TokenType   string               `json:"tokenType"`
	ExpiresIn   int                  `json:"expiresIn"`
}

// Signup registers a new user. callerRole is the role of the authenticated
// caller, or empty for anonymous signups.
func (s *AuthService) Signup(ctx context.Context, input *SignupInput, callerRole string) (*models.UserResponse, error) {
	in := *input
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateInput(&in); err != nil {
		return nil, err
	}

	// 1. Resolve role
	role := domain.RoleStudent
	if strings.TrimSpace(in.Role) != "" {
		r, ok := domain.ParseRole(in.Role)
		if !ok {
			return nil, domain.ErrInvalidRole
		}
		role = r
	}
	if role != domain.RoleStudent && callerRole != string(domain.RoleAdmin) {
		return nil, domain.ErrPrivilegedSignup
	}

	// 2. Check if email already exists
	exists, err := s.userRepo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrEmailAlreadyExists
	}

	// 3. Hash password
	hashedPassword, err := password.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	// 4. Create user
	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: hashedPassword,
		Role:     string(role),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// A concurrent signup won the unique index
		if repositories.IsUniqueViolation(err) {
			return nil, domain.ErrEmailAlreadyExists
		}
		return nil, err
	}

	s.log.Info("user registered", zap.Uint("userId", user.ID), zap.String("role", user.Role))
	return user.ToResponse(), nil
}

// Login authenticates a user
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	// 1. Find user by email
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Verify password
	if !password.Verify(input.Password, user.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	// 3. Issue token
	ttl := s.cfg.AccessTokenTTL()
	token, err := jwt.GenerateAccessToken(user.ID, user.Role, s.cfg.JWT.Secret, ttl)
	if err != nil {
		return nil, err
	}

	s.log.Debug("user logged in", zap.Uint("userId", user.ID))

	return &AuthResponse{
		User:        user.ToResponse(),
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(ttl.Seconds()),
	}, nil
}

// Me returns the current user
func (s *AuthService) Me(ctx context.Context, userID uint) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user.ToResponse(), nil
}
