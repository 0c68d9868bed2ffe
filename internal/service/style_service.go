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

	"github.com/google/uuid"
)

type CreateStyleRequest struct {
	StyleNumber       string  `json:"style_number" binding:"required,max=64"`
	StyleName         string  `json:"style_name"`
	BrandID           *string `json:"brand_id"`
	SeasonID          *string `json:"season_id"`
	DivisionID        *string `json:"division_id"`
	ProductCategoryID *string `json:"product_category_id"`
}

type StyleResponse struct {
	ID                string     `json:"id"`
	StyleNumber       string     `json:"style_number"`
	StyleName         string     `json:"style_name"`
	BrandID           *uuid.UUID `json:"brand_id"`
	SeasonID          *uuid.UUID `json:"season_id"`
	DivisionID        *uuid.UUID `json:"division_id"`
	ProductCategoryID *uuid.UUID `json:"product_category_id"`
	CreatedAt         string     `json:"created_at"`
}

type StyleService interface {
	Create(ctx context.Context, actor Actor, req CreateStyleRequest) (*StyleResponse, error)
	Get(ctx context.Context, id string) (*StyleResponse, error)
	List(ctx context.Context, query string, offset, limit int) ([]StyleResponse, int64, error)
}

type styleService struct {
	repo    repository.StyleRepository
	lookups repository.LookupRepository
	cache   *access.Cache
	audit   AuditService
}

func NewStyleService(repo repository.StyleRepository, lookups repository.LookupRepository, cache *access.Cache, audit AuditService) StyleService {
	return &styleService{repo: repo, lookups: lookups, cache: cache, audit: audit}
}

func toStyleResponse(s *model.Style) StyleResponse {
	return StyleResponse{
		ID:                s.ID.String(),
		StyleNumber:       s.StyleNumber,
		StyleName:         s.StyleName,
		BrandID:           s.BrandID,
		SeasonID:          s.SeasonID,
		DivisionID:        s.DivisionID,
		ProductCategoryID: s.ProductCategoryID,
		CreatedAt:         formatTime(s.CreatedAt),
	}
}

// resolveLookup parses an optional id and checks it names a row of kind.
func (s *styleService) resolveLookup(ctx context.Context, kind model.LookupKind, field string, raw *string) (*uuid.UUID, error) {
	id, err := parseOptionalID(field, raw)
	if err != nil || id == nil {
		return nil, err
	}
	if _, err := s.lookups.GetByID(ctx, kind, *id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewValidationError(field, fmt.Sprintf("unknown %s", kind))
		}
		return nil, err
	}
	return id, nil
}

func (s *styleService) Create(ctx context.Context, actor Actor, req CreateStyleRequest) (*StyleResponse, error) {
	if err := s.cache.Authorize(ctx, actor.Role, domain.FeatureSamples, domain.ActionWrite); err != nil {
		return nil, err
	}

	number := strings.TrimSpace(req.StyleNumber)
	if number == "" {
		return nil, domain.NewValidationError("style_number", "is required")
	}
	if _, err := s.repo.GetByNumber(ctx, number); err == nil {
		return nil, conflictf("style %q already exists", number)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	style := &model.Style{StyleNumber: number, StyleName: strings.TrimSpace(req.StyleName)}
	var err error
	if style.BrandID, err = s.resolveLookup(ctx, model.LookupBrands, "brand_id", req.BrandID); err != nil {
		return nil, err
	}
	if style.SeasonID, err = s.resolveLookup(ctx, model.LookupSeasons, "season_id", req.SeasonID); err != nil {
		return nil, err
	}
	if style.DivisionID, err = s.resolveLookup(ctx, model.LookupDivisions, "division_id", req.DivisionID); err != nil {
		return nil, err
	}
	if style.ProductCategoryID, err = s.resolveLookup(ctx, model.LookupProductCategories, "product_category_id", req.ProductCategoryID); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, style); err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.ActionCreateStyle, EntityType: "style", EntityID: style.ID.String(),
		Details: map[string]any{"style_number": style.StyleNumber},
	})
	res := toStyleResponse(style)
	return &res, nil
}

func (s *styleService) Get(ctx context.Context, id string) (*StyleResponse, error) {
	uid, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	style, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("style: %w", err)
	}
	res := toStyleResponse(style)
	return &res, nil
}

func (s *styleService) List(ctx context.Context, query string, offset, limit int) ([]StyleResponse, int64, error) {
	styles, total, err := s.repo.List(ctx, query, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]StyleResponse, 0, len(styles))
	for i := range styles {
		out = append(out, toStyleResponse(&styles[i]))
	}
	return out, total, nil
}
