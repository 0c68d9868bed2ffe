package service

import (
	"context"
	"fmt"

	"sampletrack/internal/access"
	"sampletrack/internal/domain"
	"sampletrack/internal/model"
	"sampletrack/internal/repository"

	"go.uber.org/zap"
)

// --- DTOs ---

type PermissionInput struct {
	FeatureKey string `json:"feature_key" binding:"required"`
	CanRead    bool   `json:"can_read"`
	CanWrite   bool   `json:"can_write"`
	CanApprove bool   `json:"can_approve"`
}

type UpdateRolePermissionsRequest struct {
	Permissions []PermissionInput `json:"permissions" binding:"required,dive"`
}

type RoleResponse struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Class       string `json:"class"`
	IsSystem    bool   `json:"is_system"`
	CreatedAt   string `json:"created_at"`
}

type PermissionResponse struct {
	FeatureKey string `json:"feature_key"`
	Name       string `json:"name"`
	Group      string `json:"group"`
	CanRead    bool   `json:"can_read"`
	CanWrite   bool   `json:"can_write"`
	CanApprove bool   `json:"can_approve"`
}

type RolePermissionsResponse struct {
	Role        RoleResponse         `json:"role"`
	Permissions []PermissionResponse `json:"permissions"`
}

// --- Interface ---

type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	GetRolePermissions(ctx context.Context, roleID string) (*RolePermissionsResponse, error)
	UpdateRolePermissions(ctx context.Context, actor Actor, roleID string, req UpdateRolePermissionsRequest) (*RolePermissionsResponse, error)
	ListFeatures() []domain.FeatureInfo
	// Seed creates the role rows and the default matrix. Existing permission
	// rows are kept unless overwrite is set.
	Seed(ctx context.Context, overwrite bool) error
}

type roleService struct {
	repo  repository.RoleRepository
	tx    repository.TransactionManager
	cache *access.Cache
	audit AuditService
	log   *zap.Logger
}

func NewRoleService(repo repository.RoleRepository, tx repository.TransactionManager, cache *access.Cache, audit AuditService, log *zap.Logger) RoleService {
	return &roleService{repo: repo, tx: tx, cache: cache, audit: audit, log: log.Named("roles")}
}

// --- Implementation ---

func toRoleResponse(r model.Role) RoleResponse {
	return RoleResponse{
		ID:          r.ID.String(),
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description,
		Class:       domain.ParseRole(r.Code).Class().String(),
		IsSystem:    r.IsSystem,
		CreatedAt:   formatTime(r.CreatedAt),
	}
}

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

func (s *roleService) getRole(ctx context.Context, roleID string) (*model.Role, error) {
	id, err := parseID("id", roleID)
	if err != nil {
		return nil, err
	}
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("role: %w", err)
	}
	return role, nil
}

// permissionRows returns one row per known feature, absent rows as all-false.
func permissionRows(perms []model.RolePermission) []PermissionResponse {
	byKey := make(map[string]model.RolePermission, len(perms))
	for _, p := range perms {
		byKey[domain.NormalizeFeature(p.FeatureKey)] = p
	}

	out := make([]PermissionResponse, 0, len(domain.Features))
	for _, f := range domain.Features {
		p := byKey[f.Key]
		out = append(out, PermissionResponse{
			FeatureKey: f.Key,
			Name:       f.Name,
			Group:      string(f.Group),
			CanRead:    p.CanRead,
			CanWrite:   p.CanWrite,
			CanApprove: p.CanApprove,
		})
	}
	return out
}

func (s *roleService) GetRolePermissions(ctx context.Context, roleID string) (*RolePermissionsResponse, error) {
	role, err := s.getRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return &RolePermissionsResponse{Role: toRoleResponse(*role), Permissions: permissionRows(role.Permissions)}, nil
}

func (s *roleService) UpdateRolePermissions(ctx context.Context, actor Actor, roleID string, req UpdateRolePermissionsRequest) (*RolePermissionsResponse, error) {
	role, err := s.getRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	var errs []domain.FieldError
	seen := make(map[string]bool, len(req.Permissions))
	perms := make([]model.RolePermission, 0, len(req.Permissions))
	for i, p := range req.Permissions {
		key := domain.NormalizeFeature(p.FeatureKey)
		field := fmt.Sprintf("permissions[%d].feature_key", i)
		if !domain.IsKnownFeature(key) {
			errs = append(errs, domain.FieldError{Field: field, Message: fmt.Sprintf("unknown feature %q", p.FeatureKey)})
			continue
		}
		if seen[key] {
			errs = append(errs, domain.FieldError{Field: field, Message: fmt.Sprintf("duplicate feature %q", key)})
			continue
		}
		seen[key] = true
		perms = append(perms, model.RolePermission{
			FeatureKey: key,
			CanRead:    p.CanRead,
			CanWrite:   p.CanWrite,
			CanApprove: p.CanApprove,
		})
	}
	if len(errs) > 0 {
		return nil, domain.NewValidationErrors(errs)
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		return s.repo.ReplacePermissions(txCtx, role.ID, perms)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update permissions: %w", err)
	}
	s.cache.Invalidate()

	details := make(map[string]any, len(perms))
	for _, p := range perms {
		details[p.FeatureKey] = map[string]any{"read": p.CanRead, "write": p.CanWrite, "approve": p.CanApprove}
	}
	s.audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.ActionUpdatePermissions, EntityType: "role", EntityID: role.ID.String(),
		Details: map[string]any{"role": role.Code, "permissions": details},
	})

	return &RolePermissionsResponse{Role: toRoleResponse(*role), Permissions: permissionRows(perms)}, nil
}

func (s *roleService) ListFeatures() []domain.FeatureInfo {
	out := make([]domain.FeatureInfo, len(domain.Features))
	copy(out, domain.Features)
	return out
}

func (s *roleService) Seed(ctx context.Context, overwrite bool) error {
	byRole := make(map[domain.Role][]access.Grant)
	for _, g := range access.DefaultGrants() {
		byRole[g.Role] = append(byRole[g.Role], g)
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for _, code := range domain.AllRoles {
			role := &model.Role{
				Code:        string(code),
				Name:        code.DisplayName(),
				Description: fmt.Sprintf("%s role", code.Class()),
				IsSystem:    true,
			}
			if err := s.repo.EnsureRole(txCtx, role); err != nil {
				return fmt.Errorf("ensure role %s: %w", code, err)
			}
			for _, g := range byRole[code] {
				perm := &model.RolePermission{
					RoleID:     role.ID,
					FeatureKey: g.FeatureKey,
					CanRead:    g.CanRead,
					CanWrite:   g.CanWrite,
					CanApprove: g.CanApprove,
				}
				if err := s.repo.SavePermission(txCtx, perm, overwrite); err != nil {
					return fmt.Errorf("seed %s/%s: %w", code, g.FeatureKey, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate()
	s.log.Info("roles seeded", zap.Int("roles", len(domain.AllRoles)), zap.Bool("overwrite", overwrite))
	return nil
}
