package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sampletrack/internal/access"
	"sampletrack/internal/domain"
	"sampletrack/internal/model"
	"sampletrack/internal/repository"
)

type LookupRequest struct {
	Code     string `json:"code" binding:"required,max=64"`
	Name     string `json:"name" binding:"required,max=255"`
	IsActive *bool  `json:"is_active"`
}

type LookupResponse struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

type LookupService interface {
	List(ctx context.Context, kind string, includeInactive bool) ([]LookupResponse, error)
	Create(ctx context.Context, actor Actor, kind string, req LookupRequest) (*LookupResponse, error)
	Update(ctx context.Context, actor Actor, kind, id string, req LookupRequest) (*LookupResponse, error)
	Deactivate(ctx context.Context, actor Actor, kind, id string) error
	SeedDefaults(ctx context.Context) (int, error)
}

type lookupService struct {
	repo  repository.LookupRepository
	cache *access.Cache
	audit AuditService
}

func NewLookupService(repo repository.LookupRepository, cache *access.Cache, audit AuditService) LookupService {
	return &lookupService{repo: repo, cache: cache, audit: audit}
}

func parseKind(raw string) (model.LookupKind, error) {
	kind, ok := model.ParseLookupKind(raw)
	if !ok {
		return "", fmt.Errorf("lookup kind %q: %w", raw, domain.ErrNotFound)
	}
	return kind, nil
}

func toLookupResponse(kind model.LookupKind, l *model.Lookup) LookupResponse {
	return LookupResponse{ID: l.ID.String(), Kind: string(kind), Code: l.Code, Name: l.Name, IsActive: l.IsActive}
}

func (s *lookupService) List(ctx context.Context, rawKind string, includeInactive bool) ([]LookupResponse, error) {
	kind, err := parseKind(rawKind)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, kind, !includeInactive)
	if err != nil {
		return nil, err
	}
	out := make([]LookupResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toLookupResponse(kind, &rows[i]))
	}
	return out, nil
}

// authorizeWrite resolves the kind and checks write on its feature key.
func (s *lookupService) authorizeWrite(ctx context.Context, actor Actor, rawKind string) (model.LookupKind, error) {
	kind, err := parseKind(rawKind)
	if err != nil {
		return "", err
	}
	if err := s.cache.Authorize(ctx, actor.Role, kind.Feature(), domain.ActionWrite); err != nil {
		return "", err
	}
	return kind, nil
}

func (s *lookupService) Create(ctx context.Context, actor Actor, rawKind string, req LookupRequest) (*LookupResponse, error) {
	kind, err := s.authorizeWrite(ctx, actor, rawKind)
	if err != nil {
		return nil, err
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if _, err := s.repo.GetByCode(ctx, kind, code); err == nil {
		return nil, conflictf("%s code %q already exists", kind, code)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	l := &model.Lookup{Code: code, Name: strings.TrimSpace(req.Name), IsActive: true}
	if req.IsActive != nil {
		l.IsActive = *req.IsActive
	}
	if err := s.repo.Create(ctx, kind, l); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", kind, err)
	}

	s.audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.ActionCreateLookup, EntityType: kind.Table(), EntityID: l.ID.String(),
		Details: map[string]any{"code": l.Code, "name": l.Name},
	})
	res := toLookupResponse(kind, l)
	return &res, nil
}

func (s *lookupService) Update(ctx context.Context, actor Actor, rawKind, id string, req LookupRequest) (*LookupResponse, error) {
	kind, err := s.authorizeWrite(ctx, actor, rawKind)
	if err != nil {
		return nil, err
	}
	uid, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	l, err := s.repo.GetByID(ctx, kind, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code != l.Code {
		if _, err := s.repo.GetByCode(ctx, kind, code); err == nil {
			return nil, conflictf("%s code %q already exists", kind, code)
		}
	}
	l.Code = code
	l.Name = strings.TrimSpace(req.Name)
	if req.IsActive != nil {
		l.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, kind, l); err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", kind, err)
	}

	s.audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.ActionUpdateLookup, EntityType: kind.Table(), EntityID: l.ID.String(),
		Details: map[string]any{"code": l.Code, "name": l.Name, "is_active": l.IsActive},
	})
	res := toLookupResponse(kind, l)
	return &res, nil
}

func (s *lookupService) Deactivate(ctx context.Context, actor Actor, rawKind, id string) error {
	kind, err := s.authorizeWrite(ctx, actor, rawKind)
	if err != nil {
		return err
	}
	uid, err := parseID("id", id)
	if err != nil {
		return err
	}
	l, err := s.repo.GetByID(ctx, kind, uid)
	if err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	if !l.IsActive {
		return nil
	}
	l.IsActive = false
	if err := s.repo.Update(ctx, kind, l); err != nil {
		return fmt.Errorf("failed to deactivate %s: %w", kind, err)
	}

	s.audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.ActionDeactivateLookup, EntityType: kind.Table(), EntityID: l.ID.String(),
		Details: map[string]any{"code": l.Code},
	})
	return nil
}

var defaultLookups = map[model.LookupKind][][2]string{
	model.LookupSeasons:           {{"SS25", "Spring/Summer 2025"}, {"FW25", "Fall/Winter 2025"}, {"SS26", "Spring/Summer 2026"}},
	model.LookupDivisions:         {{"MENS", "Mens"}, {"WOMENS", "Womens"}, {"KIDS", "Kids"}},
	model.LookupProductCategories: {{"TOPS", "Tops"}, {"BOTTOMS", "Bottoms"}, {"OUTERWEAR", "Outerwear"}, {"DRESSES", "Dresses"}},
	model.LookupSampleTypes:       {{"PROTO", "Proto"}, {"FIT", "Fit"}, {"SMS", "Salesman Sample"}, {"PP", "Pre-Production"}, {"TOP", "Top of Production"}},
}

// SeedDefaults inserts the stock reference rows that are missing by code and
// returns how many were created. Brands are left to the operator.
func (s *lookupService) SeedDefaults(ctx context.Context) (int, error) {
	created := 0
	for _, kind := range model.LookupKinds {
		for _, row := range defaultLookups[kind] {
			_, err := s.repo.GetByCode(ctx, kind, row[0])
			if err == nil {
				continue
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return created, err
			}
			if err := s.repo.Create(ctx, kind, &model.Lookup{Code: row[0], Name: row[1], IsActive: true}); err != nil {
				return created, fmt.Errorf("seed %s %s: %w", kind, row[0], err)
			}
			created++
		}
	}
	return created, nil
}
