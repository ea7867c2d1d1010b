package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"fanboxviewer/internal/cache"
	"fanboxviewer/internal/config"
	"fanboxviewer/internal/endpoints"
	"fanboxviewer/internal/models"
	"fanboxviewer/internal/orchestrator"
	"fanboxviewer/internal/pagination"
	"fanboxviewer/internal/parser"
	"fanboxviewer/internal/repository"
	"fanboxviewer/internal/resolver"
	"fanboxviewer/internal/transport"
)

const (
	ScopeCreators = "creators"
	scopePosts    = "posts:"

	// Attempts kept in a run's debug log.
	maxDebugAttempts = 100
)

func PostsScope(creatorID string) string {
	return scopePosts + creatorID
}

// PageSession is a browser tab owned by a single sync.
type PageSession interface {
	transport.Page
	Close() error
}

type SyncStore interface {
	repository.PostRepository
	repository.CreatorRepository
	repository.SyncRepository
}

type SyncService struct {
	Store  SyncStore
	Gen    endpoints.Generator
	Direct transport.Transport
	// NewPage opens the browser tab for one sync. Nil disables the scripted
	// and DOM stages.
	NewPage func() PageSession
	Cache   cache.Store
	Fanbox  config.FanboxConfig
	Browser config.BrowserConfig
	// ResolverTTL bounds how long a resolved handle is reused.
	ResolverTTL time.Duration
	Logger      *zap.Logger
	Now         func() time.Time
}

type SyncResult struct {
	RunID     string `json:"runId"`
	Scope     string `json:"scope"`
	CreatorID string `json:"creatorId,omitempty"`
	Records   int    `json:"records"`
	Pages     int    `json:"pages"`
	Transport string `json:"transport,omitempty"`
	Stop      string `json:"stop,omitempty"`
	// Partial is set when the sync deadline cut the run short.
	Partial bool `json:"partial"`
	// Empty means every transport and candidate came back without records.
	Empty    bool `json:"empty"`
	Attempts int  `json:"attempts"`
}

// syncRun carries per-invocation state: the browser tab, the stages built
// on it and the debug log.
type syncRun struct {
	svc      *SyncService
	id       string
	scope    string
	started  time.Time
	page     PageSession
	direct   transport.Transport
	scripted transport.Transport
	dom      transport.Transport
	attempts []orchestrator.Attempt
}

func (s *SyncService) begin(scope string) *syncRun {
	r := &syncRun{
		svc:     s,
		id:      uuid.NewString(),
		scope:   scope,
		started: s.now(),
		direct:  s.Direct,
	}
	if s.NewPage != nil {
		r.page = s.NewPage()
		r.scripted = &transport.Scripted{Page: r.page, Origin: s.Gen.Origin()}
		r.dom = &transport.DOMScrape{Page: r.page, Attempts: s.Browser.PollAttempts, Interval: s.Browser.PollInterval}
	}
	return r
}

func (r *syncRun) close() {
	if r.page == nil {
		return
	}
	if err := r.page.Close(); err != nil {
		r.svc.logger().Warn("close browser session failed", zap.String("run_id", r.id), zap.Error(err))
	}
}

func (r *syncRun) record(out []orchestrator.Attempt) {
	r.attempts = append(r.attempts, out...)
}

func (r *syncRun) resolver() *resolver.Resolver {
	transports := []transport.Transport{}
	if r.direct != nil {
		transports = append(transports, r.direct)
	}
	if r.scripted != nil {
		transports = append(transports, r.scripted)
	}
	return &resolver.Resolver{
		Gen:        r.svc.Gen,
		Transports: transports,
		Known:      r.svc.Store,
		Cache:      r.svc.Cache,
		TTL:        r.svc.ResolverTTL,
		Logger:     r.svc.Logger,
	}
}

// SyncCreators refreshes the supported creator list. Exhaustion yields an
// empty result, not an error; only cancellation of ctx or a store failure is
// returned. When ctx is cancelled nothing is written.
func (s *SyncService) SyncCreators(ctx context.Context) (SyncResult, error) {
	ctx, span := otel.Tracer("fanboxviewer/service").Start(ctx, "sync.creators")
	defer span.End()

	run := s.begin(ScopeCreators)
	defer run.close()
	result := SyncResult{RunID: run.id, Scope: ScopeCreators}

	runCtx, cancel := context.WithTimeout(ctx, durationOr(s.Fanbox.CreatorDeadline, 20*time.Second))
	defer cancel()

	candidates := s.Gen.ListSupportingCreators()
	stages := []orchestrator.Stage{
		{Transport: run.direct, Candidates: candidates},
		{Transport: run.scripted, Candidates: candidates},
		{Transport: run.dom, Candidates: s.Gen.SubscriptionPages()},
	}
	out, err := orchestrator.Run(runCtx, stages, func(b []byte) []models.Creator {
		return parser.Parse(b, parser.CreatorExtractor())
	}, s.logger())
	run.record(out.Attempts)
	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	if err != nil {
		result.Partial = true
	}
	if out.Winner != nil {
		result.Transport = out.Winner.Transport
	}

	creators := run.resolver().Normalize(runCtx, out.Records)
	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	result.Records = len(creators)
	result.Empty = len(creators) == 0
	result.Attempts = len(run.attempts)
	if len(creators) > 0 {
		if err := s.Store.UpsertCreators(ctx, creators); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.finish(ctx, run, result, err)
			return result, fmt.Errorf("store creators: %w", err)
		}
	}
	s.finish(ctx, run, result, nil)
	span.SetAttributes(attribute.Int("sync.records", result.Records), attribute.String("sync.transport", result.Transport))
	return result, nil
}

// SyncPosts pages through one creator's posts and merges them, keeping the
// user's bookmark, hidden and last-opened state. limit <= 0 uses the
// configured cap.
func (s *SyncService) SyncPosts(ctx context.Context, creatorID string, limit int) (SyncResult, error) {
	creatorID = strings.TrimSpace(creatorID)
	if creatorID == "" {
		return SyncResult{}, fmt.Errorf("%w: creator id is required", ErrInvalidArgument)
	}
	ctx, span := otel.Tracer("fanboxviewer/service").Start(ctx, "sync.posts")
	defer span.End()

	run := s.begin("")
	defer run.close()

	runCtx, cancel := context.WithTimeout(ctx, durationOr(s.Fanbox.PostDeadline, 60*time.Second))
	defer cancel()

	handle := s.resolveHandle(runCtx, run, creatorID)
	run.scope = PostsScope(handle)
	result := SyncResult{RunID: run.id, Scope: run.scope, CreatorID: handle}
	span.SetAttributes(attribute.String("sync.creator_id", handle))

	if limit <= 0 {
		limit = s.Fanbox.PostLimit
	}
	extract := parser.PostExtractor(s.Gen, handle, s.now)
	pager := pagination.Paginator{
		PageSize:   s.Fanbox.PageSize,
		TotalLimit: limit,
		Location:   s.Fanbox.CursorLocation(),
	}
	fetch := func(ctx context.Context, cursor *endpoints.Cursor, size int) ([]models.Post, error) {
		candidates := s.Gen.ListPostsForCreator(handle, cursor, size)
		out, err := orchestrator.Run(ctx, []orchestrator.Stage{
			{Transport: run.direct, Candidates: candidates},
			{Transport: run.scripted, Candidates: candidates},
		}, func(b []byte) []models.Post {
			return parser.Parse(b, extract)
		}, s.logger())
		run.record(out.Attempts)
		if err != nil {
			return out.Records, err
		}
		if out.Winner != nil && result.Transport == "" {
			result.Transport = out.Winner.Transport
		}
		return out.Records, nil
	}

	pages := pager.Run(runCtx, fetch)
	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	result.Records = len(pages.Posts)
	result.Pages = pages.Pages
	result.Stop = string(pages.Stop)
	result.Partial = pages.Stop == pagination.StopDeadline
	result.Empty = len(pages.Posts) == 0
	result.Attempts = len(run.attempts)

	if len(pages.Posts) > 0 {
		if err := s.Store.UpsertPostsPreservingUserState(ctx, pages.Posts); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.finish(ctx, run, result, err)
			return result, fmt.Errorf("store posts: %w", err)
		}
		if err := s.Store.UpdateLastSynced(ctx, handle, s.now()); err != nil {
			s.logger().Warn("update last synced failed", zap.String("creator_id", handle), zap.Error(err))
		}
	}
	s.finish(ctx, run, result, nil)
	span.SetAttributes(attribute.Int("sync.records", result.Records), attribute.Int("sync.pages", result.Pages))
	return result, nil
}

// resolveHandle maps a numeric id to the creator's handle, first from the
// store and then upstream. The raw id is kept when neither knows it.
func (s *SyncService) resolveHandle(ctx context.Context, run *syncRun, creatorID string) string {
	if !endpoints.IsNumeric(creatorID) {
		return creatorID
	}
	handle, _, err := run.resolver().Resolve(ctx, creatorID)
	if err != nil || handle == "" {
		s.logger().Debug("creator id not resolved", zap.String("creator_id", creatorID), zap.Error(err))
		return creatorID
	}
	return handle
}

// finish stores the run and the scope's sync state. Failures here are logged;
// the sync itself already succeeded or failed on its own terms.
func (s *SyncService) finish(ctx context.Context, run *syncRun, result SyncResult, syncErr error) {
	now := s.now()
	attempts := run.attempts
	if len(attempts) > maxDebugAttempts {
		attempts = attempts[:maxDebugAttempts]
	}
	debugLog, _ := json.Marshal(attempts)
	stats, _ := json.Marshal(result)

	runRow := &models.SyncRun{
		ID:         run.id,
		Scope:      run.scope,
		StartedAt:  run.started,
		FinishedAt: now,
		Records:    result.Records,
		Pages:      result.Pages,
		Transport:  result.Transport,
		Stop:       result.Stop,
		Partial:    result.Partial,
		DebugLog:   datatypes.JSON(debugLog),
	}
	state := &models.SyncState{
		Scope:         run.scope,
		LastAttemptAt: &now,
		LastRunID:     &run.id,
		StatsJSON:     datatypes.JSON(stats),
	}
	switch {
	case syncErr != nil:
		msg := syncErr.Error()
		runRow.Error = &msg
		state.LastError = &msg
	case result.Empty:
		msg := "no records"
		runRow.Error = &msg
		state.LastError = &msg
	default:
		state.LastSuccessAt = &now
	}
	if err := s.Store.RecordSync(ctx, runRow, state); err != nil {
		s.logger().Warn("record sync failed", zap.String("scope", run.scope), zap.Error(err))
	}

	fields := []zap.Field{
		zap.String("run_id", run.id),
		zap.String("scope", run.scope),
		zap.Int("records", result.Records),
		zap.Int("pages", result.Pages),
		zap.String("transport", result.Transport),
		zap.String("stop", result.Stop),
		zap.Bool("partial", result.Partial),
		zap.Int("attempts", len(run.attempts)),
	}
	if result.Empty {
		s.logger().Info("sync produced no data", fields...)
		for _, a := range attempts {
			fields := append(a.Fields(), zap.String("run_id", run.id))
			if a.Error != "" {
				fields = append(fields, zap.String("error", a.Error))
			}
			s.logger().Debug("sync attempt", fields...)
		}
		return
	}
	s.logger().Info("sync finished", fields...)
}

// SyncState lists the stored state of every sync scope.
func (s *SyncService) SyncState(ctx context.Context) ([]models.SyncState, error) {
	return s.Store.ListSyncStates(ctx)
}

func (s *SyncService) SyncRuns(ctx context.Context, scope string, limit int) ([]models.SyncRun, error) {
	return s.Store.ListSyncRuns(ctx, scope, limit)
}

// IsCancelled reports whether err comes from the caller abandoning the sync.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}

func (s *SyncService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *SyncService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
