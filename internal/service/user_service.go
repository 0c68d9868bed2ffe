package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sampletrack/internal/access"
	"sampletrack/internal/domain"
	"sampletrack/internal/model"
	"sampletrack/internal/repository"
	"sampletrack/internal/stage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required"`
}

type UpdateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email" binding:"omitempty,email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Password string `json:"password" binding:"omitempty,min=8"`
	IsActive *bool  `json:"is_active"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

// MeResponse is the caller's profile with the flags the permission table
// grants them and the stages their role owns.
type MeResponse struct {
	User        UserResponse         `json:"user"`
	Class       string               `json:"class"`
	Permissions []PermissionResponse `json:"permissions"`
	Stages      []stage.Stage        `json:"owned_stages"`
}

// TokenConfig controls access token issuance.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
}

// UserService defines the interface for business logic related to User
type UserService interface {
	CreateUser(ctx context.Context, actor Actor, req CreateUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	Me(ctx context.Context, actor Actor) (*MeResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, offset, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, actor Actor, id string, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, actor Actor, id string) error
}

type userService struct {
	repo   repository.UserRepository
	cache  *access.Cache
	audit  AuditService
	tokens TokenConfig
	now    func() time.Time
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, cache *access.Cache, audit AuditService, tokens TokenConfig) UserService {
	if tokens.TTL <= 0 {
		tokens.TTL = 24 * time.Hour
	}
	return &userService{repo: repo, cache: cache, audit: audit, tokens: tokens, now: time.Now}
}

func parseUserRole(code string) (domain.Role, error) {
	r := domain.ParseRole(code)
	if !r.Valid() {
		return domain.RoleUnknown, domain.NewValidationError("role", fmt.Sprintf("unknown role %q", code))
	}
	return r, nil
}

func mapToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		IsActive:  user.IsActive,
		CreatedAt: formatTime(user.CreatedAt),
		UpdatedAt: formatTime(user.UpdatedAt),
	}
}

// onlySuperAdminGrantsSuperAdmin keeps ADMIN from minting SUPER_ADMIN accounts.
func onlySuperAdminGrantsSuperAdmin(actor Actor, target domain.Role) error {
	if target == domain.RoleSuperAdmin && actor.Role != domain.RoleSuperAdmin {
		return &domain.ForbiddenError{Feature: domain.FeatureUsers, Action: domain.ActionWrite, AllowedRoles: []domain.Role{domain.RoleSuperAdmin}}
	}
	return nil
}

func (s *userService) CreateUser(ctx context.Context, actor Actor, req CreateUserRequest) (*UserResponse, error) {
	role, err := parseUserRole(req.Role)
	if err != nil {
		return nil, err
	}
	if err := onlySuperAdminGrantsSuperAdmin(actor, role); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, conflictf("username already exists")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, conflictf("email already exists")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username: req.Username,
		Email:    email,
		Name:     req.Name,
		Password: string(hashedPassword),
		Role:     string(role),
		IsActive: true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.ActionCreateUser, EntityType: "user", EntityID: user.ID.String(),
		Details: map[string]any{"username": user.Username, "role": user.Role},
	})
	return mapToResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	invalid := fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized)

	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, invalid
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is disabled", domain.ErrUnauthorized)
	}

	now := s.now()
	expires := now.Add(s.tokens.TTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"name": user.DisplayName(),
		"iat":  now.Unix(),
		"exp":  expires.Unix(),
	})
	tokenString, err := token.SignedString(s.tokens.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:  Actor{UserID: user.ID, Role: domain.ParseRole(user.Role), Name: user.DisplayName()},
		Action: model.ActionLogin, EntityType: "user", EntityID: user.ID.String(),
	})
	return &TokenResponse{Token: tokenString, ExpiresAt: formatTime(expires), User: *mapToResponse(user)}, nil
}

func (s *userService) Me(ctx context.Context, actor Actor) (*MeResponse, error) {
	user, err := s.repo.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("user: %w", err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is disabled", domain.ErrUnauthorized)
	}
	policy, err := s.cache.Policy(ctx)
	if err != nil {
		return nil, err
	}

	role := domain.ParseRole(user.Role)
	perms := make([]PermissionResponse, 0, len(domain.Features))
	for _, g := range policy.Matrix(role) {
		info, _ := domain.LookupFeature(g.FeatureKey)
		perms = append(perms, PermissionResponse{
			FeatureKey: g.FeatureKey,
			Name:       info.Name,
			Group:      string(info.Group),
			CanRead:    g.CanRead,
			CanWrite:   g.CanWrite,
			CanApprove: g.CanApprove,
		})
	}
	stages := stage.StagesForRole(role)
	if stages == nil {
		stages = []stage.Stage{}
	}
	return &MeResponse{User: *mapToResponse(user), Class: role.Class().String(), Permissions: perms, Stages: stages}, nil
}

func (s *userService) getUser(ctx context.Context, id string) (*model.User, error) {
	uid, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("user: %w", err)
	}
	return user, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, offset, limit int) ([]UserResponse, int64, error) {
	users, total, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToResponse(&users[i]))
	}
	return responses, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, actor Actor, id string, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := onlySuperAdminGrantsSuperAdmin(actor, domain.ParseRole(user.Role)); err != nil {
		return nil, err
	}

	changed := map[string]any{}
	if req.Role != "" {
		role, err := parseUserRole(req.Role)
		if err != nil {
			return nil, err
		}
		if err := onlySuperAdminGrantsSuperAdmin(actor, role); err != nil {
			return nil, err
		}
		if string(role) != user.Role {
			changed["role"] = string(role)
			user.Role = string(role)
		}
	}

	if req.Username != "" && req.Username != user.Username {
		if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
			return nil, conflictf("username already exists")
		}
		changed["username"] = req.Username
		user.Username = req.Username
	}

	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" && email != user.Email {
		if _, err := s.repo.GetByEmail(ctx, email); err == nil {
			return nil, conflictf("email already exists")
		}
		changed["email"] = email
		user.Email = email
	}

	if req.Name != "" && req.Name != user.Name {
		changed["name"] = req.Name
		user.Name = req.Name
	}
	if req.IsActive != nil && *req.IsActive != user.IsActive {
		if !*req.IsActive && user.ID == actor.UserID {
			return nil, domain.NewValidationError("is_active", "cannot deactivate your own account")
		}
		changed["is_active"] = *req.IsActive
		user.IsActive = *req.IsActive
	}
	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		changed["password"] = "changed"
		user.Password = string(hashed)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if len(changed) > 0 {
		s.audit.Record(ctx, AuditEntry{
			Actor: actor, Action: model.ActionUpdateUser, EntityType: "user", EntityID: user.ID.String(), Details: changed,
		})
	}
	return mapToResponse(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, actor Actor, id string) error {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}
	if user.ID == actor.UserID {
		return domain.NewValidationError("id", "cannot delete your own account")
	}
	if err := onlySuperAdminGrantsSuperAdmin(actor, domain.ParseRole(user.Role)); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.ActionDeleteUser, EntityType: "user", EntityID: user.ID.String(),
		Details: map[string]any{"username": user.Username},
	})
	return nil
}
