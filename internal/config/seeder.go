package config

import (
	"context"
	"errors"
	"strings"

	"school-equiplend/internal/adapters/persistence/models"
	"school-equiplend/internal/adapters/persistence/repositories"
	"school-equiplend/internal/core/domain"
	"school-equiplend/internal/pkg/password"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	users repositories.UserRepository
	seed  SeedConfig
	log   *zap.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, seed SeedConfig, log *zap.Logger) *Seeder {
	return &Seeder{users: repositories.NewUserRepository(db), seed: seed, log: log}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	s.log.Info("running database seeders")

	if err := s.seedAdminUser(context.Background()); err != nil {
		s.log.Warn("admin seeder skipped", zap.Error(err))
	}

	return nil
}

// seedAdminUser creates the first admin account when none exists.
// Without SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD nothing is created.
func (s *Seeder) seedAdminUser(ctx context.Context) error {
	count, err := s.users.CountByRole(ctx, string(domain.RoleAdmin))
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email := strings.TrimSpace(s.seed.AdminEmail)
	if email == "" || s.seed.AdminPassword == "" {
		s.log.Warn("no admin account exists; set SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD to create one")
		return nil
	}
	if !password.ValidatePassword(s.seed.AdminPassword) {
		s.log.Warn("SEED_ADMIN_PASSWORD is too short; admin not created")
		return nil
	}

	// An existing non-admin account with the same email is promoted
	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		existing.Role = string(domain.RoleAdmin)
		if err := s.users.Update(ctx, existing); err != nil {
			return err
		}
		s.log.Info("existing user promoted to admin", zap.String("email", existing.Email))
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashedPassword, err := password.Hash(s.seed.AdminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		Name:     s.seed.AdminName,
		Email:    email,
		Password: hashedPassword,
		Role:     string(domain.RoleAdmin),
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}

	s.log.Info("admin user created", zap.String("email", admin.Email))
	return nil
}
