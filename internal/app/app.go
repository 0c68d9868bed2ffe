// Package app wires repositories and services for the api server and the
// admin CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"sampletrack/internal/access"
	"sampletrack/internal/config"
	"sampletrack/internal/domain"
	"sampletrack/internal/repository"
	"sampletrack/internal/service"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services holds every service the process exposes.
type Services struct {
	Cache     *access.Cache
	Users     service.UserService
	Roles     service.RoleService
	Lookups   service.LookupService
	Styles    service.StyleService
	Samples   service.SampleService
	Presence  service.PresenceService
	Analytics service.AnalyticsService
	Audit     service.AuditService

	closers []func() error
}

// Close releases connections opened by New.
func (s *Services) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type noopPublisher struct{}

func (noopPublisher) Publish(any) {}

// New builds the service graph. events may be nil when nothing listens for
// realtime updates.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, events service.Publisher, log *zap.Logger) (*Services, error) {
	if events == nil {
		events = noopPublisher{}
	}

	// Repositories
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	lookupRepo := repository.NewLookupRepository(db)
	styleRepo := repository.NewStyleRepository(db)
	sampleRepo := repository.NewSampleRepository(db)
	stageRepo := repository.NewStageRepository(db)
	ownerRepo := repository.NewOwnerRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	out := &Services{}

	presenceStore := repository.NewPresenceRepository(db)
	if cfg.Presence.Backend == config.PresenceBackendRedis {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		presenceStore = repository.NewRedisPresenceStore(rdb)
		out.closers = append(out.closers, rdb.Close)
		log.Info("presence backed by redis", zap.String("addr", cfg.Redis.Addr))
	}

	scoped := make([]domain.Role, 0, len(cfg.Access.ScopedRoles))
	for _, code := range cfg.Access.ScopedRoles {
		r := domain.ParseRole(code)
		if !r.Valid() {
			return nil, fmt.Errorf("access.scoped_roles: unknown role %q", code)
		}
		scoped = append(scoped, r)
	}

	out.Cache = access.NewCache(roleRepo, cfg.Permissions.CacheTTL)
	out.Audit = service.NewAuditService(auditRepo, log)
	out.Users = service.NewUserService(userRepo, out.Cache, out.Audit, service.TokenConfig{
		Secret: cfg.JWTSecret(),
		TTL:    cfg.JWT.AccessTTL,
	})
	out.Roles = service.NewRoleService(roleRepo, txManager, out.Cache, out.Audit, log)
	out.Lookups = service.NewLookupService(lookupRepo, out.Cache, out.Audit)
	out.Styles = service.NewStyleService(styleRepo, lookupRepo, out.Cache, out.Audit)
	out.Samples = service.NewSampleService(service.SampleDeps{
		Tx:          txManager,
		Samples:     sampleRepo,
		Styles:      styleRepo,
		Lookups:     lookupRepo,
		Stages:      stageRepo,
		Owners:      ownerRepo,
		Histories:   historyRepo,
		Users:       userRepo,
		Cache:       out.Cache,
		Audit:       out.Audit,
		Events:      events,
		Log:         log,
		ScopedRoles: scoped,
	})
	out.Presence = service.NewPresenceService(presenceStore, sampleRepo, events, log,
		service.WithPresenceTTL(cfg.Presence.TTL),
		service.WithPresenceScope(ownerRepo, scoped))
	out.Analytics = service.NewAnalyticsService(analyticsRepo, out.Cache, time.Now)

	return out, nil
}
