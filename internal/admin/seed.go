package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"portfolio-api/internal/httputil"

	"golang.org/x/crypto/bcrypt"
)

// NormalizeEmail is applied to every email before it reaches the store.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Seed creates the admin account described by in unless one with the same
// email already exists. It reports whether an account was created.
func Seed(ctx context.Context, repo Repository, in SeedInput, logger *slog.Logger) (bool, error) {
	in.Email = NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := httputil.ValidateStruct(httputil.NewValidator(), in); err != nil {
		return false, err
	}

	_, err := repo.GetByEmail(ctx, in.Email)
	if err == nil {
		logger.InfoContext(ctx, "admin already exists, skipping seed", "email", in.Email)
		return false, nil
	}
	if !errors.Is(err, ErrAdminNotFound) {
		return false, fmt.Errorf("failed to look up admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &Admin{
		Email:     in.Email,
		Password:  string(hash),
		Name:      in.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, admin); err != nil {
		// Lost a race with a concurrent seed.
		if errors.Is(err, ErrAdminExists) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create admin: %w", err)
	}

	logger.InfoContext(ctx, "admin seeded", "email", admin.Email, "id", admin.ID)
	return true, nil
}
