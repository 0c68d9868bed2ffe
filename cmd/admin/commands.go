package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sampletrack/internal/app"
	"sampletrack/internal/config"
	"sampletrack/internal/database"
	"sampletrack/internal/domain"
	"sampletrack/internal/logger"
	"sampletrack/internal/service"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CLI represents the command-line interface structure
type CLI struct {
	EnvFile string        `help:"Path to a dotenv file" default:"configs/.env" env:"SAMPLETRACK_ENV_FILE"`
	Timeout time.Duration `help:"Abort the command after this long" default:"2m"`

	Migrate       MigrateCmd       `cmd:"" help:"Create or update every table"`
	Seed          SeedCmd          `cmd:"" help:"Seed roles, the permission matrix and reference lookups"`
	SweepPresence SweepPresenceCmd `cmd:"sweep-presence" help:"Delete expired presence rows"`
}

// env is what every command needs once flags are parsed.
type env struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
}

func (c *CLI) open() (*env, error) {
	cfg, err := config.Load(c.EnvFile)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	db, err := database.NewConnection(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, db: db}, nil
}

func (e *env) close() {
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = e.log.Sync()
}

func (c *CLI) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.Timeout)
}

// MigrateCmd runs AutoMigrate.
type MigrateCmd struct{}

func (m *MigrateCmd) Run(cli *CLI) error {
	e, err := cli.open()
	if err != nil {
		return err
	}
	defer e.close()

	if err := database.Migrate(e.db); err != nil {
		return err
	}
	e.log.Info("migration complete")
	return nil
}

// SeedCmd writes roles, default grants and stock lookups, and optionally a
// super admin account.
type SeedCmd struct {
	Overwrite     bool   `help:"Replace existing permission rows with the defaults"`
	AdminEmail    string `help:"Create a SUPER_ADMIN with this email" env:"ADMIN_EMAIL"`
	AdminPassword string `help:"Password for the super admin" env:"ADMIN_PASSWORD"`
	AdminUsername string `help:"Username for the super admin" default:"superadmin"`
}

func (s *SeedCmd) Validate() error {
	if (s.AdminEmail == "") != (s.AdminPassword == "") {
		return errors.New("--admin-email and --admin-password go together")
	}
	return nil
}

func (s *SeedCmd) Run(cli *CLI) error {
	e, err := cli.open()
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := cli.context()
	defer cancel()

	if err := database.Migrate(e.db); err != nil {
		return err
	}

	svc, err := app.New(ctx, e.cfg, e.db, nil, e.log)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	if err := svc.Roles.Seed(ctx, s.Overwrite); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	e.log.Info("roles and permissions seeded", zap.Bool("overwrite", s.Overwrite))

	n, err := svc.Lookups.SeedDefaults(ctx)
	if err != nil {
		return fmt.Errorf("seed lookups: %w", err)
	}
	e.log.Info("lookups seeded", zap.Int("inserted", n))

	if s.AdminEmail == "" {
		return nil
	}
	system := service.Actor{Role: domain.RoleSuperAdmin, Name: "seed"}
	user, err := svc.Users.CreateUser(ctx, system, service.CreateUserRequest{
		Username: s.AdminUsername,
		Email:    s.AdminEmail,
		Name:     "Super Admin",
		Password: s.AdminPassword,
		Role:     string(domain.RoleSuperAdmin),
	})
	switch {
	case errors.Is(err, domain.ErrConflict):
		e.log.Info("super admin already exists", zap.String("email", s.AdminEmail))
		return nil
	case err != nil:
		return fmt.Errorf("create super admin: %w", err)
	}
	e.log.Info("super admin created", zap.String("id", user.ID.String()))
	return nil
}

// SweepPresenceCmd deletes expired presence entries. Reads already ignore
// them, so this only bounds table growth.
type SweepPresenceCmd struct{}

func (p *SweepPresenceCmd) Run(cli *CLI) error {
	e, err := cli.open()
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := cli.context()
	defer cancel()

	svc, err := app.New(ctx, e.cfg, e.db, nil, e.log)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	n, err := svc.Presence.SweepExpired(ctx)
	if err != nil {
		return err
	}
	e.log.Info("expired presence removed", zap.Int64("rows", n))
	return nil
}
