package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"sampletrack/internal/domain"
	"sampletrack/internal/metrics"
	"sampletrack/internal/model"
	"sampletrack/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultPresenceTTL is how long a heartbeat keeps a presence row live.
const DefaultPresenceTTL = 25 * time.Second

// Presence contexts.
const (
	ContextView       = "view"
	ContextSampleList = "sample_list"
	ContextSampleEdit = "sample_edit"
	ContextStageEdit  = "stage_edit"
)

var presenceContexts = map[string]bool{
	ContextView:       false,
	ContextSampleList: false,
	ContextSampleEdit: true,
	ContextStageEdit:  true,
}

type HeartbeatRequest struct {
	Context  string  `json:"context" binding:"required"`
	LockType *string `json:"lock_type"`
}

type ReleaseRequest struct {
	Context string `json:"context"`
}

type PresenceEntry struct {
	UserID     string  `json:"user_id"`
	UserName   string  `json:"user_name"`
	UserRole   string  `json:"user_role"`
	Context    string  `json:"context"`
	LockType   *string `json:"lock_type"`
	LastSeenAt string  `json:"last_seen_at"`
	ExpiresAt  string  `json:"expires_at"`
}

// LockConflict describes another user's live edit lock on a sample.
type LockConflict struct {
	UserID     string `json:"user_id"`
	UserName   string `json:"user_name"`
	UserRole   string `json:"user_role"`
	LockType   string `json:"lock_type"`
	LastSeenAt string `json:"last_seen_at"`
}

type HeartbeatResponse struct {
	ExpiresAt string        `json:"expires_at"`
	Conflict  *LockConflict `json:"conflict"`
}

// PresenceService tracks who is looking at or editing a sample. Presence is
// advisory: nothing on the write path consults it.
type PresenceService interface {
	Heartbeat(ctx context.Context, actor Actor, sampleID string, req HeartbeatRequest) (*HeartbeatResponse, error)
	Release(ctx context.Context, actor Actor, sampleID string, req ReleaseRequest) error
	ListActive(ctx context.Context, actor Actor, sampleIDs []string) (map[string][]PresenceEntry, error)
	FindConflictingLock(ctx context.Context, actor Actor, sampleID string) (*LockConflict, error)
	SweepExpired(ctx context.Context) (int64, error)
}

type presenceService struct {
	store   repository.PresenceStore
	samples repository.SampleRepository
	events  Publisher
	scope   sampleScope
	ttl     time.Duration
	now     func() time.Time
	log     *zap.Logger
}

// PresenceOption configures the presence service.
type PresenceOption func(*presenceService)

// WithPresenceClock replaces time.Now.
func WithPresenceClock(now func() time.Time) PresenceOption {
	return func(s *presenceService) { s.now = now }
}

// WithPresenceScope hides presence on samples the scoped roles do not own,
// matching what the sample list shows them.
func WithPresenceScope(owners repository.OwnerRepository, roles []domain.Role) PresenceOption {
	return func(s *presenceService) { s.scope = newSampleScope(owners, roles) }
}

// WithPresenceTTL overrides DefaultPresenceTTL.
func WithPresenceTTL(ttl time.Duration) PresenceOption {
	return func(s *presenceService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func NewPresenceService(store repository.PresenceStore, samples repository.SampleRepository, events Publisher, log *zap.Logger, opts ...PresenceOption) PresenceService {
	s := &presenceService{
		store:   store,
		samples: samples,
		events:  events,
		ttl:     DefaultPresenceTTL,
		now:     time.Now,
		log:     log.Named("presence"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// normalizeLock validates the context and resolves the lock type. Edit
// contexts lock by default; the others never lock.
func normalizeLock(presenceContext string, lockType *string) (string, *string, error) {
	pc := strings.ToLower(strings.TrimSpace(presenceContext))
	locking, ok := presenceContexts[pc]
	if !ok {
		return "", nil, domain.NewValidationError("context", fmt.Sprintf("unknown presence context %q", presenceContext))
	}

	if lockType == nil || strings.TrimSpace(*lockType) == "" {
		if locking {
			return pc, strPtr(pc), nil
		}
		return pc, nil, nil
	}

	lt := strings.ToLower(strings.TrimSpace(*lockType))
	if !locking {
		return "", nil, domain.NewValidationError("lock_type", fmt.Sprintf("context %s does not take a lock", pc))
	}
	if isLock, known := presenceContexts[lt]; !known || !isLock {
		return "", nil, domain.NewValidationError("lock_type", fmt.Sprintf("unknown lock type %q", *lockType))
	}
	return pc, &lt, nil
}

func (s *presenceService) publish(sampleID, userID uuid.UUID, action string) {
	if s.events == nil {
		return
	}
	s.events.Publish(Event{Type: "presence", SampleID: sampleID.String(), UserID: userID.String(), Action: action})
}

// checkVisible reports a sample hidden from the actor as not found.
func (s *presenceService) checkVisible(ctx context.Context, actor Actor, sampleID uuid.UUID) error {
	ok, err := s.scope.visible(ctx, actor, sampleID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("sample: %w", domain.ErrNotFound)
	}
	return nil
}

func (s *presenceService) Heartbeat(ctx context.Context, actor Actor, sampleID string, req HeartbeatRequest) (*HeartbeatResponse, error) {
	sid, err := parseID("sample_id", sampleID)
	if err != nil {
		return nil, err
	}
	pc, lockType, err := normalizeLock(req.Context, req.LockType)
	if err != nil {
		return nil, err
	}
	if _, err := s.samples.GetByID(ctx, sid); err != nil {
		return nil, fmt.Errorf("sample: %w", err)
	}
	if err := s.checkVisible(ctx, actor, sid); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	row := &model.SamplePresence{
		SampleID:   sid,
		UserID:     actor.UserID,
		Context:    pc,
		UserName:   actor.Name,
		UserRole:   string(actor.Role),
		LockType:   lockType,
		LastSeenAt: now,
		ExpiresAt:  now.Add(s.ttl),
	}
	if err := s.store.Upsert(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to record presence: %w", err)
	}
	metrics.PresenceHeartbeats.WithLabelValues(pc).Inc()

	conflict, err := s.findConflict(ctx, sid, actor.UserID, now)
	if err != nil {
		return nil, err
	}
	s.publish(sid, actor.UserID, "heartbeat")
	return &HeartbeatResponse{ExpiresAt: formatTime(row.ExpiresAt), Conflict: conflict}, nil
}

func (s *presenceService) Release(ctx context.Context, actor Actor, sampleID string, req ReleaseRequest) error {
	sid, err := parseID("sample_id", sampleID)
	if err != nil {
		return err
	}
	pc := strings.ToLower(strings.TrimSpace(req.Context))
	if pc != "" {
		if _, ok := presenceContexts[pc]; !ok {
			return domain.NewValidationError("context", fmt.Sprintf("unknown presence context %q", req.Context))
		}
	}
	if err := s.store.Delete(ctx, sid, actor.UserID, pc); err != nil {
		return fmt.Errorf("failed to release presence: %w", err)
	}
	s.publish(sid, actor.UserID, "release")
	return nil
}

func toPresenceEntry(p model.SamplePresence) PresenceEntry {
	return PresenceEntry{
		UserID:     p.UserID.String(),
		UserName:   p.UserName,
		UserRole:   p.UserRole,
		Context:    p.Context,
		LockType:   p.LockType,
		LastSeenAt: formatTime(p.LastSeenAt),
		ExpiresAt:  formatTime(p.ExpiresAt),
	}
}

// ListActive groups live rows by sample. Samples hidden from the actor are
// left out of the result.
func (s *presenceService) ListActive(ctx context.Context, actor Actor, sampleIDs []string) (map[string][]PresenceEntry, error) {
	ids := make([]uuid.UUID, 0, len(sampleIDs))
	for _, raw := range sampleIDs {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		id, err := parseID("sample_ids", raw)
		if err != nil {
			return nil, err
		}
		ok, err := s.scope.visible(ctx, actor, id)
		if err != nil {
			return nil, err
		}
		if ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return map[string][]PresenceEntry{}, nil
	}

	rows, err := s.store.ListActive(ctx, ids, s.now().UTC())
	if err != nil {
		return nil, err
	}
	out := make(map[string][]PresenceEntry, len(ids))
	for _, id := range ids {
		out[id.String()] = []PresenceEntry{}
	}
	for _, r := range rows {
		key := r.SampleID.String()
		out[key] = append(out[key], toPresenceEntry(r))
	}
	return out, nil
}

// findConflict returns the most recent live lock on the sample held by a
// user other than userID.
func (s *presenceService) findConflict(ctx context.Context, sampleID, userID uuid.UUID, now time.Time) (*LockConflict, error) {
	rows, err := s.store.ListActive(ctx, []uuid.UUID{sampleID}, now)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].LastSeenAt.After(rows[j].LastSeenAt) })
	for _, r := range rows {
		if r.UserID == userID || r.LockType == nil {
			continue
		}
		return &LockConflict{
			UserID:     r.UserID.String(),
			UserName:   r.UserName,
			UserRole:   r.UserRole,
			LockType:   *r.LockType,
			LastSeenAt: formatTime(r.LastSeenAt),
		}, nil
	}
	return nil, nil
}

func (s *presenceService) FindConflictingLock(ctx context.Context, actor Actor, sampleID string) (*LockConflict, error) {
	sid, err := parseID("sample_id", sampleID)
	if err != nil {
		return nil, err
	}
	if err := s.checkVisible(ctx, actor, sid); err != nil {
		return nil, err
	}
	return s.findConflict(ctx, sid, actor.UserID, s.now().UTC())
}

func (s *presenceService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep presence: %w", err)
	}
	s.log.Info("expired presence swept", zap.Int64("rows", n))
	return n, nil
}
