package result

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/report-results/internal/domain/activity"
	"github.com/ganot/report-results/internal/domain/payload"
	"github.com/ganot/report-results/internal/domain/report"
	"github.com/ganot/report-results/internal/repository"
	"github.com/google/uuid"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Service handles result business logic.
type Service struct {
	records     Repository
	search      SearchRepository
	blobs       BlobStore
	tasks       TaskReader
	renderer    DocumentRenderer
	definitions DefinitionRepository
	activities  ActivityRepository
	logger      *slog.Logger
}

// NewService creates a new result service. The renderer may be nil, in
// which case document rendering reports ErrRendererUnavailable.
func NewService(
	records Repository,
	search SearchRepository,
	blobs BlobStore,
	tasks TaskReader,
	renderer DocumentRenderer,
	definitions DefinitionRepository,
	activities ActivityRepository,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		records:     records,
		search:      search,
		blobs:       blobs,
		tasks:       tasks,
		renderer:    renderer,
		definitions: definitions,
		activities:  activities,
		logger:      logger,
	}
}

// CreateRequest describes a result creation request.
type CreateRequest struct {
	Snapshot           *report.Report
	ReportDefinitionID *string
	OwnerUserID        string
	OwnerGroupID       string
	TaskID             *string
	Source             SourceKind
}

// Create records a new result. The owner group is stored exactly as
// given; it is not derived from the owner's current group.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Record, error) {
	if req.Snapshot == nil {
		return nil, fmt.Errorf("%w: snapshot is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.OwnerUserID) == "" || strings.TrimSpace(req.OwnerGroupID) == "" {
		return nil, fmt.Errorf("%w: owner user and group are required", ErrInvalidInput)
	}
	source := req.Source
	if source == "" {
		source = SourceDirect
	}
	if !source.Valid() {
		return nil, fmt.Errorf("%w: unknown source %q", ErrInvalidInput, source)
	}

	name := req.Snapshot.Title
	if name == "" {
		name = req.Snapshot.Name
	}
	rec := &Record{
		ID:                 uuid.NewString(),
		ReportDefinitionID: req.ReportDefinitionID,
		Name:               name,
		Snapshot:           req.Snapshot.Clone(),
		OwnerUserID:        req.OwnerUserID,
		OwnerGroupID:       req.OwnerGroupID,
		TaskID:             req.TaskID,
		Source:             source,
		CreatedAt:          time.Now(),
	}
	if err := s.records.Create(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, fmt.Errorf("%w: unknown report definition", ErrInvalidInput)
		}
		return nil, fmt.Errorf("creating result: %w", err)
	}

	// The run counter only moves once the result exists.
	if rec.ReportDefinitionID != nil && s.definitions != nil {
		if _, err := s.definitions.IncrementRuns(ctx, *rec.ReportDefinitionID); err != nil {
			s.logger.Warn("recording definition run", "result_id", rec.ID, "report_definition_id", *rec.ReportDefinitionID, "error", err)
		}
	}

	s.logActivity(ctx, &activity.ActivityEntry{
		ResultID:     &rec.ID,
		UserID:       rec.OwnerUserID,
		ActivityType: activity.TypeResultCreated,
		Summary:      fmt.Sprintf("created result %s", rec.ID),
		Details:      map[string]any{"source": string(rec.Source), "owner_group_id": rec.OwnerGroupID},
	})
	return rec, nil
}

// Get fetches a result by ID.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	rec, err := s.records.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("getting result: %w", err)
	}
	return rec, nil
}

// GetVisible fetches a result and checks it falls within scope.
func (s *Service) GetVisible(ctx context.Context, scope Scope, id string) (*Record, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.Matches(rec) {
		return nil, ErrForbidden
	}
	return rec, nil
}

// SetPayload stores p as the result's artifact, replacing any previous
// payload. The record is updated only after the bytes are stored, so
// readers never see a reference to missing bytes.
func (s *Service) SetPayload(ctx context.Context, id string, p payload.Payload) error {
	data, enc, err := payload.Store(p)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	ref, err := s.blobs.Put(ctx, data)
	if err != nil {
		return fmt.Errorf("storing payload: %w", err)
	}
	if err := s.records.SetPayload(ctx, id, PayloadRef{BlobRef: ref, Encoding: enc}, time.Now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("setting payload: %w", err)
	}

	s.logActivity(ctx, &activity.ActivityEntry{
		ResultID:     &id,
		ActivityType: activity.TypePayloadSet,
		Summary:      fmt.Sprintf("stored %s payload (%d bytes)", enc, len(data)),
		Details:      map[string]any{"encoding": string(enc), "bytes": len(data), "blob_ref": ref},
	})
	return nil
}

// GetPayload returns the decoded artifact. A payload that fails to decode
// flags the record and returns ErrCorruptPayload.
func (s *Service) GetPayload(ctx context.Context, id string) (payload.Payload, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return payload.Payload{}, err
	}
	return s.loadPayload(ctx, rec)
}

func (s *Service) loadPayload(ctx context.Context, rec *Record) (payload.Payload, error) {
	if rec.Payload == nil {
		return payload.Payload{}, ErrPayloadMissing
	}
	data, err := s.blobs.Get(ctx, rec.Payload.BlobRef)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return payload.Payload{}, fmt.Errorf("%w: blob %s is gone", ErrPayloadMissing, rec.Payload.BlobRef)
		}
		return payload.Payload{}, fmt.Errorf("reading payload: %w", err)
	}
	p, err := payload.Load(data, rec.Payload.Encoding)
	if err != nil {
		s.flag(ctx, rec, err.Error())
		return payload.Payload{}, fmt.Errorf("loading payload for %s: %w", rec.ID, err)
	}
	return p, nil
}

// IsEmpty reports whether the result has no usable artifact: no payload
// reference, a reference to missing bytes, or zero stored bytes. It
// never decodes the payload.
func (s *Service) IsEmpty(ctx context.Context, id string) (bool, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if rec.Payload == nil {
		return true, nil
	}
	exists, err := s.blobs.Exists(ctx, rec.Payload.BlobRef)
	if err != nil {
		return false, fmt.Errorf("checking payload: %w", err)
	}
	if !exists {
		return true, nil
	}
	size, err := s.blobs.Size(ctx, rec.Payload.BlobRef)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return true, nil
		}
		return false, fmt.Errorf("sizing payload: %w", err)
	}
	return size == 0, nil
}

// SaveSnapshot persists an edited copy of the result's report snapshot.
func (s *Service) SaveSnapshot(ctx context.Context, id string, snapshot *report.Report) error {
	if snapshot == nil {
		return fmt.Errorf("%w: snapshot is required", ErrInvalidInput)
	}
	if err := s.records.SaveSnapshot(ctx, id, snapshot.Clone()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("saving snapshot: %w", err)
	}
	s.logActivity(ctx, &activity.ActivityEntry{
		ResultID:     &id,
		ActivityType: activity.TypeSnapshotSaved,
		Summary:      "snapshot saved",
	})
	return nil
}

// Delete removes a result.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.records.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("deleting result: %w", err)
	}
	s.logActivity(ctx, &activity.ActivityEntry{
		ResultID:     &id,
		ActivityType: activity.TypeResultDeleted,
		Summary:      fmt.Sprintf("deleted result %s", id),
	})
	return nil
}

// List returns results within scope.
func (s *Service) List(ctx context.Context, scope Scope, opts ListOptions) ([]RecordRef, error) {
	if opts.Source != "" && !opts.Source.Valid() {
		return nil, fmt.Errorf("%w: unknown source %q", ErrInvalidInput, opts.Source)
	}
	opts.Limit = normalizeLimit(opts.Limit)
	refs, err := s.records.List(ctx, scope, opts)
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	return refs, nil
}

// Search finds results within scope whose names match query.
func (s *Service) Search(ctx context.Context, scope Scope, query string, opts SearchOptions) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	opts.Limit = normalizeLimit(opts.Limit)
	hits, err := s.search.Search(ctx, scope, query, opts)
	if err != nil {
		return nil, fmt.Errorf("searching results: %w", err)
	}
	return hits, nil
}

// CountsByOwner returns the number of results per owning user.
func (s *Service) CountsByOwner(ctx context.Context) ([]OwnerCount, error) {
	counts, err := s.records.CountsByOwner(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting results: %w", err)
	}
	return counts, nil
}

// Status resolves the display status of a result.
func (s *Service) Status(ctx context.Context, id string) (Status, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.StatusOf(ctx, rec)
}

// StatusOf resolves the display status of a loaded record. It never fails:
// a task that cannot be read is treated like one that no longer exists.
func (s *Service) StatusOf(ctx context.Context, rec *Record) (Status, error) {
	if rec.TaskID == nil {
		return ResolveStatus(nil, "", false), nil
	}
	state, err := s.tasks.TaskState(ctx, *rec.TaskID)
	switch {
	case err == nil:
		return ResolveStatus(rec.TaskID, state, true), nil
	case errors.Is(err, ErrTaskNotFound), errors.Is(err, repository.ErrNotFound):
		s.noteTaskVanished(ctx, rec)
	default:
		s.logger.Warn("task state unavailable", "result_id", rec.ID, "task_id", *rec.TaskID, "error", err)
	}
	return ResolveStatus(rec.TaskID, "", false), nil
}

// noteTaskVanished records a task_vanished entry once per result.
func (s *Service) noteTaskVanished(ctx context.Context, rec *Record) {
	s.logger.Warn("generation task vanished", "result_id", rec.ID, "task_id", *rec.TaskID)
	if s.activities == nil {
		return
	}
	vanished := activity.TypeTaskVanished
	seen, err := s.activities.List(ctx, activity.ListActivityOptions{
		ResultID:     &rec.ID,
		ActivityType: &vanished,
		Limit:        1,
	})
	if err != nil {
		s.logger.Warn("checking task_vanished history", "result_id", rec.ID, "error", err)
		return
	}
	if len(seen) > 0 {
		return
	}
	s.logActivity(ctx, &activity.ActivityEntry{
		ResultID:     &rec.ID,
		ActivityType: activity.TypeTaskVanished,
		Summary:      fmt.Sprintf("task %s no longer exists", *rec.TaskID),
		Details:      map[string]any{"task_id": *rec.TaskID},
	})
}

// ToDocument renders the result as a printable document.
func (s *Service) ToDocument(ctx context.Context, id string) ([]byte, error) {
	if s.renderer == nil {
		return nil, ErrRendererUnavailable
	}
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rpt, err := s.reportFor(ctx, rec)
	if err != nil && !errors.Is(err, ErrPayloadMissing) {
		return nil, err
	}
	markup, err := DocumentMarkup(FriendlyTitle(rec), rec.LastRunOn, rpt)
	if err != nil {
		return nil, err
	}
	doc, err := s.renderer.Render(ctx, markup, DocumentStylesheet)
	if err != nil {
		return nil, fmt.Errorf("rendering document: %w", err)
	}
	s.logActivity(ctx, &activity.ActivityEntry{
		ResultID:     &rec.ID,
		ActivityType: activity.TypeDocumentRender,
		Summary:      fmt.Sprintf("rendered document (%d bytes)", len(doc)),
	})
	return doc, nil
}

// GenerateText flattens the result's report into text and stores the
// text as the new payload.
func (s *Service) GenerateText(ctx context.Context, id string, format payload.TextFormat) (string, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	rpt, err := s.reportFor(ctx, rec)
	if err != nil {
		return "", err
	}
	text, err := payload.RenderText(rpt, format)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.SetPayload(ctx, id, payload.FromText(text)); err != nil {
		return "", err
	}
	s.logActivity(ctx, &activity.ActivityEntry{
		ResultID:     &id,
		ActivityType: activity.TypeTextGenerated,
		Summary:      fmt.Sprintf("generated %s text", format),
	})
	return text, nil
}

// reportFor returns the structured report behind a result: the object
// payload when there is one, otherwise the snapshot.
func (s *Service) reportFor(ctx context.Context, rec *Record) (*report.Report, error) {
	if rec.Payload != nil && rec.Payload.Encoding == payload.EncodingObject {
		p, err := s.loadPayload(ctx, rec)
		if err != nil {
			return nil, err
		}
		return p.Report, nil
	}
	if rec.Snapshot == nil {
		return nil, ErrPayloadMissing
	}
	return rec.Snapshot, nil
}

func (s *Service) flag(ctx context.Context, rec *Record, reason string) {
	if err := s.records.Flag(ctx, rec.ID, reason); err != nil {
		s.logger.Error("flagging result", "result_id", rec.ID, "error", err)
		return
	}
	s.logger.Warn("result payload is corrupt", "result_id", rec.ID, "reason", reason)
	s.logActivity(ctx, &activity.ActivityEntry{
		ResultID:     &rec.ID,
		ActivityType: activity.TypeResultFlagged,
		Summary:      "payload failed to decode",
		Details:      map[string]any{"reason": reason, "encoding": string(rec.Payload.Encoding)},
	})
}

func (s *Service) logActivity(ctx context.Context, entry *activity.ActivityEntry) {
	if s.activities == nil {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := s.activities.Log(ctx, entry); err != nil {
		s.logger.Warn("logging activity", "type", entry.ActivityType, "error", err)
	}
}

func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}
