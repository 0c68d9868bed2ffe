package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"sampletrack/internal/access"
	"sampletrack/internal/domain"
	"sampletrack/internal/model"
	"sampletrack/internal/repository"
	"sampletrack/internal/stage"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// --- DTOs ---

type CreateSampleRequest struct {
	StyleID         string  `json:"style_id" binding:"required"`
	SampleTypeID    *string `json:"sample_type_id"`
	SampleDueDenver string  `json:"sample_due_denver"`
	CurrentStatus   string  `json:"current_status"`
	Notes           string  `json:"notes"`
}

// UpdateSampleRequest changes only the fields that are present.
type UpdateSampleRequest struct {
	CurrentStatus   *string `json:"current_status"`
	SampleDueDenver *string `json:"sample_due_denver"`
	SampleTypeID    *string `json:"sample_type_id"`
	Notes           *string `json:"notes"`
	Note            string  `json:"note"`
}

type AdvanceSampleRequest struct {
	Note string `json:"note"`
}

type SetOwnerRequest struct {
	RoleKey string  `json:"role_key" binding:"required"`
	UserID  *string `json:"user_id"`
}

type SampleListQuery struct {
	BrandID  string
	SeasonID string
	Stage    string
	Status   string
	Query    string
	Offset   int
	Limit    int
}

type SampleResponse struct {
	ID               string         `json:"id"`
	Style            *StyleResponse `json:"style,omitempty"`
	SampleTypeID     *uuid.UUID     `json:"sample_type_id"`
	CurrentStage     *string        `json:"current_stage"`
	CurrentStageName string         `json:"current_stage_name"`
	CurrentStatus    string         `json:"current_status"`
	SampleDueDenver  *string        `json:"sample_due_denver"`
	Notes            string         `json:"notes"`
	CreatedBy        *uuid.UUID     `json:"created_by"`
	CreatedAt        string         `json:"created_at"`
	UpdatedAt        string         `json:"updated_at"`
}

type StageRecordResponse struct {
	Stage      string         `json:"stage"`
	Name       string         `json:"name"`
	FeatureKey string         `json:"feature_key"`
	OwnerRole  domain.Role    `json:"owner_role"`
	CanWrite   bool           `json:"can_write"`
	CanApprove bool           `json:"can_approve"`
	Fields     map[string]any `json:"fields"`
	Missing    []string       `json:"missing_required"`
	UpdatedBy  *uuid.UUID     `json:"updated_by"`
	UpdatedAt  *string        `json:"updated_at"`
}

type OwnerResponse struct {
	RoleKey    string     `json:"role_key"`
	UserID     string     `json:"user_id"`
	UserName   string     `json:"user_name"`
	AssignedBy *uuid.UUID `json:"assigned_by"`
	AssignedAt string     `json:"assigned_at"`
}

type SampleDetailResponse struct {
	SampleResponse
	Stages []StageRecordResponse `json:"stages"`
	Owners []OwnerResponse       `json:"owners"`
}

type SampleHistoryResponse struct {
	Changes     []model.SampleHistory    `json:"changes"`
	Transitions []model.StatusTransition `json:"transitions"`
}

// --- Interface ---

type SampleService interface {
	Create(ctx context.Context, actor Actor, req CreateSampleRequest) (*SampleResponse, error)
	List(ctx context.Context, actor Actor, q SampleListQuery) ([]SampleResponse, int64, error)
	Get(ctx context.Context, actor Actor, id string) (*SampleDetailResponse, error)
	Update(ctx context.Context, actor Actor, id string, req UpdateSampleRequest) (*SampleResponse, error)
	// UpdateStage merges fields into the stage record. A nil value clears the field.
	UpdateStage(ctx context.Context, actor Actor, id, stageKey string, fields map[string]any) (*StageRecordResponse, error)
	Advance(ctx context.Context, actor Actor, id string, req AdvanceSampleRequest) (*SampleResponse, error)
	ListOwners(ctx context.Context, actor Actor, id string) ([]OwnerResponse, error)
	SetOwner(ctx context.Context, actor Actor, id string, req SetOwnerRequest) ([]OwnerResponse, error)
	History(ctx context.Context, actor Actor, id string) (*SampleHistoryResponse, error)
}

// SampleDeps wires the sample service.
type SampleDeps struct {
	Tx        repository.TransactionManager
	Samples   repository.SampleRepository
	Styles    repository.StyleRepository
	Lookups   repository.LookupRepository
	Stages    repository.StageRepository
	Owners    repository.OwnerRepository
	Histories repository.HistoryRepository
	Users     repository.UserRepository
	Cache     *access.Cache
	Audit     AuditService
	Events    Publisher
	Log       *zap.Logger
	// ScopedRoles only see samples they own.
	ScopedRoles []domain.Role
	Now         func() time.Time
}

type sampleService struct {
	SampleDeps
	scope sampleScope
}

func NewSampleService(d SampleDeps) SampleService {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	d.Log = d.Log.Named("samples")
	return &sampleService{SampleDeps: d, scope: newSampleScope(d.Owners, d.ScopedRoles)}
}

// --- Implementation ---

func toSampleResponse(s *model.Sample) SampleResponse {
	res := SampleResponse{
		ID:              s.ID.String(),
		SampleTypeID:    s.SampleTypeID,
		CurrentStage:    s.CurrentStage,
		CurrentStatus:   s.CurrentStatus,
		SampleDueDenver: formatDate(s.SampleDueDenver),
		Notes:           s.Notes,
		CreatedBy:       s.CreatedBy,
		CreatedAt:       formatTime(s.CreatedAt),
		UpdatedAt:       formatTime(s.UpdatedAt),
	}
	if st, ok := stage.Lookup(s.StageKey()); ok {
		res.CurrentStageName = st.Name
	}
	if s.Style != nil {
		style := toStyleResponse(s.Style)
		res.Style = &style
	}
	return res
}

func (s *sampleService) publish(sampleID uuid.UUID, action string) {
	if s.Events == nil {
		return
	}
	s.Events.Publish(Event{Type: "sample", SampleID: sampleID.String(), Action: action})
}

// loadSample fetches a sample the actor may see. Scoped roles get not found
// for samples they do not own.
func (s *sampleService) loadSample(ctx context.Context, actor Actor, id string) (*model.Sample, error) {
	uid, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	sample, err := s.Samples.GetByID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("sample: %w", err)
	}
	ok, err := s.scope.visible(ctx, actor, uid)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("sample: %w", domain.ErrNotFound)
	}
	return sample, nil
}

func (s *sampleService) checkSampleType(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.Lookups.GetByID(ctx, model.LookupSampleTypes, *id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewValidationError("sample_type_id", "unknown sample type")
		}
		return err
	}
	return nil
}

func (s *sampleService) Create(ctx context.Context, actor Actor, req CreateSampleRequest) (*SampleResponse, error) {
	if actor.Role != domain.RolePD && !actor.Role.IsAdmin() {
		return nil, &domain.ForbiddenError{
			Feature:      domain.FeatureSamples,
			Action:       domain.ActionWrite,
			AllowedRoles: []domain.Role{domain.RoleSuperAdmin, domain.RoleAdmin, domain.RolePD},
		}
	}
	if err := s.Cache.Authorize(ctx, actor.Role, domain.FeatureSamples, domain.ActionWrite); err != nil {
		return nil, err
	}

	styleID, err := parseID("style_id", req.StyleID)
	if err != nil {
		return nil, err
	}
	style, err := s.Styles.GetByID(ctx, styleID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewValidationError("style_id", "unknown style")
		}
		return nil, err
	}
	typeID, err := parseOptionalID("sample_type_id", req.SampleTypeID)
	if err != nil {
		return nil, err
	}
	if err := s.checkSampleType(ctx, typeID); err != nil {
		return nil, err
	}
	due, err := parseOptionalDate("sample_due_denver", req.SampleDueDenver)
	if err != nil {
		return nil, err
	}

	status := strings.TrimSpace(req.CurrentStatus)
	if status == "" {
		status = domain.StatusPending
	}
	sample := &model.Sample{
		StyleID:         style.ID,
		SampleTypeID:    typeID,
		CurrentStatus:   status,
		SampleDueDenver: due,
		Notes:           req.Notes,
		CreatedBy:       actor.ref(),
	}

	err = s.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.Samples.Create(txCtx, sample); err != nil {
			return err
		}
		return s.Histories.AddTransition(txCtx, &model.StatusTransition{
			SampleID:  sample.ID,
			ToStatus:  status,
			Note:      "created",
			ChangedBy: actor.ref(),
			ChangedAt: s.Now(),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sample: %w", err)
	}
	sample.Style = style

	s.Audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.ActionCreateSample, EntityType: "sample", EntityID: sample.ID.String(),
		Details: map[string]any{"style_number": style.StyleNumber, "status": status},
	})
	s.publish(sample.ID, "created")
	res := toSampleResponse(sample)
	return &res, nil
}

func (s *sampleService) List(ctx context.Context, actor Actor, q SampleListQuery) ([]SampleResponse, int64, error) {
	if err := s.Cache.Authorize(ctx, actor.Role, domain.FeatureSamples, domain.ActionRead); err != nil {
		return nil, 0, err
	}

	f := repository.SampleFilter{
		Status: strings.TrimSpace(q.Status),
		Query:  q.Query,
		Offset: q.Offset,
		Limit:  q.Limit,
	}
	var err error
	if f.BrandID, err = parseOptionalID("brand_id", &q.BrandID); err != nil {
		return nil, 0, err
	}
	if f.SeasonID, err = parseOptionalID("season_id", &q.SeasonID); err != nil {
		return nil, 0, err
	}
	if q.Stage != "" {
		st, ok := stage.Lookup(q.Stage)
		if !ok {
			return nil, 0, domain.NewValidationError("stage", fmt.Sprintf("unknown stage %q", q.Stage))
		}
		f.Stage = string(st.Key)
	}
	if s.scope.applies(actor.Role) {
		f.OwnerUserID = actor.ref()
	}

	samples, total, err := s.Samples.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]SampleResponse, 0, len(samples))
	for i := range samples {
		out = append(out, toSampleResponse(&samples[i]))
	}
	return out, total, nil
}

func (s *sampleService) Get(ctx context.Context, actor Actor, id string) (*SampleDetailResponse, error) {
	policy, err := s.Cache.Policy(ctx)
	if err != nil {
		return nil, err
	}
	if err := policy.Evaluate(actor.Role, domain.FeatureSamples, domain.ActionRead).Err(); err != nil {
		return nil, err
	}
	sample, err := s.loadSample(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	records, err := s.Stages.ListBySample(ctx, sample.ID)
	if err != nil {
		return nil, err
	}
	owners, err := s.Owners.List(ctx, sample.ID)
	if err != nil {
		return nil, err
	}

	detail := &SampleDetailResponse{SampleResponse: toSampleResponse(sample), Owners: toOwnerResponses(owners)}
	for _, st := range stage.All() {
		if !policy.Evaluate(actor.Role, st.Feature, domain.ActionRead).Allowed {
			continue
		}
		rec := StageRecordResponse{
			Stage:      string(st.Key),
			Name:       st.Name,
			FeatureKey: st.Feature,
			OwnerRole:  st.Owner,
			CanWrite:   policy.Evaluate(actor.Role, st.Feature, domain.ActionWrite).Allowed,
			CanApprove: policy.Evaluate(actor.Role, st.Feature, domain.ActionApprove).Allowed,
			Fields:     map[string]any{},
		}
		if r, ok := records[string(st.Key)]; ok {
			rec.Fields = r.Fields
			rec.UpdatedBy = r.UpdatedBy
			rec.UpdatedAt = strPtr(formatTime(r.UpdatedAt))
		}
		rec.Missing = stage.MissingRequired(st, rec.Fields)
		detail.Stages = append(detail.Stages, rec)
	}
	return detail, nil
}

func (s *sampleService) Update(ctx context.Context, actor Actor, id string, req UpdateSampleRequest) (*SampleResponse, error) {
	if err := s.Cache.Authorize(ctx, actor.Role, domain.FeatureSamples, domain.ActionWrite); err != nil {
		return nil, err
	}
	sample, err := s.loadSample(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	var changes []model.SampleHistory
	track := func(field string, oldV, newV *string) {
		if sameValue(oldV, newV) {
			return
		}
		changes = append(changes, model.SampleHistory{
			SampleID: sample.ID, FieldKey: field, OldValue: oldV, NewValue: newV,
			ChangedBy: actor.ref(), ChangedAt: now,
		})
	}

	oldStatus := sample.CurrentStatus
	if req.CurrentStatus != nil {
		status := strings.TrimSpace(*req.CurrentStatus)
		if status == "" {
			return nil, domain.NewValidationError("current_status", "must not be empty")
		}
		track("current_status", strPtr(sample.CurrentStatus), strPtr(status))
		sample.CurrentStatus = status
	}
	if req.SampleDueDenver != nil {
		due, err := parseOptionalDate("sample_due_denver", *req.SampleDueDenver)
		if err != nil {
			return nil, err
		}
		track("sample_due_denver", formatDate(sample.SampleDueDenver), formatDate(due))
		sample.SampleDueDenver = due
	}
	if req.SampleTypeID != nil {
		typeID, err := parseOptionalID("sample_type_id", req.SampleTypeID)
		if err != nil {
			return nil, err
		}
		if err := s.checkSampleType(ctx, typeID); err != nil {
			return nil, err
		}
		track("sample_type_id", uuidString(sample.SampleTypeID), uuidString(typeID))
		sample.SampleTypeID = typeID
	}
	if req.Notes != nil {
		track("notes", strPtr(sample.Notes), strPtr(*req.Notes))
		sample.Notes = *req.Notes
	}

	if len(changes) == 0 {
		res := toSampleResponse(sample)
		return &res, nil
	}

	err = s.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.Samples.Update(txCtx, sample); err != nil {
			return err
		}
		if err := s.Histories.AddChanges(txCtx, changes); err != nil {
			return err
		}
		if oldStatus == sample.CurrentStatus {
			return nil
		}
		return s.Histories.AddTransition(txCtx, &model.StatusTransition{
			SampleID:   sample.ID,
			FromStage:  sample.CurrentStage,
			ToStage:    sample.CurrentStage,
			FromStatus: oldStatus,
			ToStatus:   sample.CurrentStatus,
			Note:       req.Note,
			ChangedBy:  actor.ref(),
			ChangedAt:  now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update sample: %w", err)
	}

	details := make(map[string]any, len(changes))
	for _, c := range changes {
		details[c.FieldKey] = c.NewValue
	}
	s.Audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.ActionUpdateSample, EntityType: "sample", EntityID: sample.ID.String(), Details: details,
	})
	s.publish(sample.ID, "updated")
	res := toSampleResponse(sample)
	return &res, nil
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	return strPtr(id.String())
}

func (s *sampleService) UpdateStage(ctx context.Context, actor Actor, id, stageKey string, fields map[string]any) (*StageRecordResponse, error) {
	st, ok := stage.Lookup(stageKey)
	if !ok {
		return nil, domain.NewValidationError("stage", fmt.Sprintf("unknown stage %q", stageKey))
	}
	if len(fields) == 0 {
		return nil, domain.NewValidationError("fields", "no fields to update")
	}
	if err := stage.ValidateFields(st, fields); err != nil {
		return nil, err
	}
	policy, err := s.Cache.Policy(ctx)
	if err != nil {
		return nil, err
	}
	if err := policy.Evaluate(actor.Role, st.Feature, domain.ActionWrite).Err(); err != nil {
		return nil, err
	}
	sample, err := s.loadSample(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	var rec *model.StageRecord
	var changes []model.SampleHistory
	err = s.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.Stages.Get(txCtx, st, sample.ID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			existing = &model.StageRecord{SampleID: sample.ID, Fields: datatypes.JSONMap{}}
		case err != nil:
			return err
		}
		if existing.Fields == nil {
			existing.Fields = datatypes.JSONMap{}
		}

		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			oldV := valueString(existing.Fields[k])
			newV := valueString(fields[k])
			if fields[k] == nil {
				delete(existing.Fields, k)
			} else {
				existing.Fields[k] = fields[k]
			}
			if sameValue(oldV, newV) {
				continue
			}
			changes = append(changes, model.SampleHistory{
				SampleID: sample.ID, Stage: string(st.Key), FieldKey: k, OldValue: oldV, NewValue: newV,
				ChangedBy: actor.ref(), ChangedAt: now,
			})
		}

		existing.UpdatedBy = actor.ref()
		existing.UpdatedAt = now
		if err := s.Stages.Upsert(txCtx, st, existing); err != nil {
			return err
		}
		rec = existing
		return s.Histories.AddChanges(txCtx, changes)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", st.Key, err)
	}

	if len(changes) > 0 {
		details := make(map[string]any, len(changes))
		for _, c := range changes {
			details[c.FieldKey] = c.NewValue
		}
		s.Audit.Record(ctx, AuditEntry{
			Actor: actor, Action: model.ActionUpdateStage, EntityType: "sample", EntityID: sample.ID.String(),
			Details: map[string]any{"stage": string(st.Key), "fields": details},
		})
		s.publish(sample.ID, "stage_updated")
	}

	return &StageRecordResponse{
		Stage:      string(st.Key),
		Name:       st.Name,
		FeatureKey: st.Feature,
		OwnerRole:  st.Owner,
		CanWrite:   true,
		CanApprove: policy.Evaluate(actor.Role, st.Feature, domain.ActionApprove).Allowed,
		Fields:     rec.Fields,
		Missing:    stage.MissingRequired(st, rec.Fields),
		UpdatedBy:  rec.UpdatedBy,
		UpdatedAt:  strPtr(formatTime(rec.UpdatedAt)),
	}, nil
}

func (s *sampleService) Advance(ctx context.Context, actor Actor, id string, req AdvanceSampleRequest) (*SampleResponse, error) {
	sample, err := s.loadSample(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if domain.IsTerminalStatus(sample.CurrentStatus) {
		return nil, conflictf("sample is %s and cannot advance", sample.CurrentStatus)
	}

	fromStage := sample.CurrentStage
	fromStatus := sample.CurrentStatus

	if sample.CurrentStage == nil {
		if err := s.Cache.Authorize(ctx, actor.Role, domain.FeatureSamples, domain.ActionWrite); err != nil {
			return nil, err
		}
		first := string(stage.First().Key)
		sample.CurrentStage = &first
		sample.CurrentStatus = domain.StatusInProgress
	} else {
		cur, ok := stage.Lookup(*sample.CurrentStage)
		if !ok {
			return nil, conflictf("sample is at unknown stage %q", *sample.CurrentStage)
		}
		if err := s.Cache.Authorize(ctx, actor.Role, cur.Feature, domain.ActionApprove); err != nil {
			return nil, err
		}

		var values map[string]any
		rec, err := s.Stages.Get(ctx, cur, sample.ID)
		switch {
		case err == nil:
			values = rec.Fields
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
		if missing := stage.MissingRequired(cur, values); len(missing) > 0 {
			errs := make([]domain.FieldError, 0, len(missing))
			for _, m := range missing {
				errs = append(errs, domain.FieldError{Field: m, Message: fmt.Sprintf("required to complete %s", cur.Name)})
			}
			return nil, domain.NewValidationErrors(errs)
		}

		if next, ok := stage.Next(string(cur.Key)); ok {
			key := string(next.Key)
			sample.CurrentStage = &key
			sample.CurrentStatus = domain.StatusInProgress
		} else {
			sample.CurrentStatus = domain.StatusDelivered
		}
	}

	err = s.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.Samples.Update(txCtx, sample); err != nil {
			return err
		}
		return s.Histories.AddTransition(txCtx, &model.StatusTransition{
			SampleID:   sample.ID,
			FromStage:  fromStage,
			ToStage:    sample.CurrentStage,
			FromStatus: fromStatus,
			ToStatus:   sample.CurrentStatus,
			Note:       req.Note,
			ChangedBy:  actor.ref(),
			ChangedAt:  s.Now(),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to advance sample: %w", err)
	}

	s.Audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.ActionAdvanceStage, EntityType: "sample", EntityID: sample.ID.String(),
		Details: map[string]any{"from": fromStage, "to": sample.StageKey(), "status": sample.CurrentStatus},
	})
	s.publish(sample.ID, "advanced")
	res := toSampleResponse(sample)
	return &res, nil
}

func toOwnerResponses(owners []model.SampleRoleOwner) []OwnerResponse {
	out := make([]OwnerResponse, 0, len(owners))
	for _, o := range owners {
		name := ""
		if o.User != nil {
			name = o.User.DisplayName()
		}
		out = append(out, OwnerResponse{
			RoleKey:    o.RoleKey,
			UserID:     o.UserID.String(),
			UserName:   name,
			AssignedBy: o.AssignedBy,
			AssignedAt: formatTime(o.AssignedAt),
		})
	}
	return out
}

func (s *sampleService) ListOwners(ctx context.Context, actor Actor, id string) ([]OwnerResponse, error) {
	if err := s.Cache.Authorize(ctx, actor.Role, domain.FeatureSamples, domain.ActionRead); err != nil {
		return nil, err
	}
	sample, err := s.loadSample(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	owners, err := s.Owners.List(ctx, sample.ID)
	if err != nil {
		return nil, err
	}
	return toOwnerResponses(owners), nil
}

func (s *sampleService) SetOwner(ctx context.Context, actor Actor, id string, req SetOwnerRequest) ([]OwnerResponse, error) {
	if err := s.Cache.Authorize(ctx, actor.Role, domain.FeatureSamples, domain.ActionWrite); err != nil {
		return nil, err
	}
	role := domain.ParseRole(req.RoleKey)
	if !role.IsEditor() {
		return nil, domain.NewValidationError("role_key", fmt.Sprintf("%q is not an editor role", req.RoleKey))
	}
	sample, err := s.loadSample(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	userID, err := parseOptionalID("user_id", req.UserID)
	if err != nil {
		return nil, err
	}

	details := map[string]any{"role_key": string(role)}
	if userID == nil {
		if err := s.Owners.Clear(ctx, sample.ID, string(role)); err != nil {
			return nil, fmt.Errorf("failed to clear owner: %w", err)
		}
		details["user_id"] = nil
	} else {
		user, err := s.Users.GetByID(ctx, *userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.NewValidationError("user_id", "unknown user")
			}
			return nil, err
		}
		if !user.IsActive {
			return nil, domain.NewValidationError("user_id", "user is inactive")
		}
		if domain.ParseRole(user.Role) != role {
			return nil, domain.NewValidationError("user_id", fmt.Sprintf("user does not hold role %s", role))
		}
		owner := &model.SampleRoleOwner{
			SampleID:   sample.ID,
			RoleKey:    string(role),
			UserID:     user.ID,
			AssignedBy: actor.ref(),
			AssignedAt: s.Now(),
		}
		if err := s.Owners.Set(ctx, owner); err != nil {
			return nil, fmt.Errorf("failed to set owner: %w", err)
		}
		details["user_id"] = user.ID.String()
	}

	s.Audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.ActionSetOwner, EntityType: "sample", EntityID: sample.ID.String(), Details: details,
	})
	owners, err := s.Owners.List(ctx, sample.ID)
	if err != nil {
		return nil, err
	}
	return toOwnerResponses(owners), nil
}

func (s *sampleService) History(ctx context.Context, actor Actor, id string) (*SampleHistoryResponse, error) {
	if err := s.Cache.Authorize(ctx, actor.Role, domain.FeatureSamples, domain.ActionRead); err != nil {
		return nil, err
	}
	sample, err := s.loadSample(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	changes, err := s.Histories.ListChanges(ctx, sample.ID)
	if err != nil {
		return nil, err
	}
	transitions, err := s.Histories.ListTransitions(ctx, sample.ID)
	if err != nil {
		return nil, err
	}
	return &SampleHistoryResponse{Changes: changes, Transitions: transitions}, nil
}
