// Package bootstrap wires the process-level runtime shared by the
// commands: logging, tracing, database and redis.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/validation"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ServiceName labels traces.
	ServiceName string
	// SkipRedis leaves Redis nil, for commands that never touch the cache.
	SkipRedis bool
}

// Runtime is the set of process-wide handles.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client

	logCloser       io.Closer
	shutdownTracing func(context.Context) error
}

// InitRuntime configures logging and tracing, connects the database with
// the configured schema policy, and connects redis when reachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	rt := &Runtime{logCloser: middleware.ConfigureLogger(cfg)}

	name := opts.ServiceName
	if name == "" {
		name = "inkwell-api"
	}
	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    name,
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampler,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}
	rt.shutdownTracing = shutdown

	rt.DB, err = database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if !opts.SkipRedis {
		rt.Redis = cache.InitRedis(ctx, cfg.RedisURL)
	}

	if err := ensureDevAdmin(ctx, cfg, rt.DB); err != nil {
		return nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
	}
	return rt, nil
}

// Close flushes traces and the rotated log file. The database and redis
// are closed by their owners.
func (r *Runtime) Close(ctx context.Context) {
	if r.shutdownTracing != nil {
		if err := r.shutdownTracing(ctx); err != nil {
			slog.Warn("tracing shutdown failed", slog.String("error", err.Error()))
		}
	}
	if r.logCloser != nil {
		_ = r.logCloser.Close()
	}
}

// ensureDevAdmin upserts a local admin in development so the admin paths
// can be exercised without a real identity provider.
func ensureDevAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil || cfg.Env != "development" {
		return nil
	}
	email := validation.NormalizeEmail(cfg.DevAdminEmail)
	if email == "" {
		return nil
	}
	if cfg.DevAdminPassword == "" {
		return errors.New("DEV_ADMIN_PASSWORD must be set when DEV_ADMIN_EMAIL is")
	}
	if err := validation.ValidateEmail(email); err != nil {
		return fmt.Errorf("DEV_ADMIN_EMAIL: %w", err)
	}
	if err := validation.ValidatePassword(cfg.DevAdminPassword); err != nil {
		return fmt.Errorf("DEV_ADMIN_PASSWORD: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.DevAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var admin models.User
		findErr := tx.Where("email = ?", email).First(&admin).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			username, _, _ := strings.Cut(email, "@")
			admin = models.User{
				Username:     username,
				Email:        email,
				PasswordHash: string(hashed),
				IsAdmin:      true,
			}
			return tx.Create(&admin).Error
		case findErr != nil:
			return findErr
		default:
			return tx.Model(&admin).Updates(map[string]any{
				"is_admin":      true,
				"password_hash": string(hashed),
			}).Error
		}
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "development admin ensured", slog.String("email", email))
	return nil
}
