package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/vital/internal/core/escalation"
	"github.com/example/vital/internal/ctxutil"
	"github.com/example/vital/internal/metrics"
	"github.com/example/vital/internal/ports/primary"
	"github.com/example/vital/internal/ports/secondary"
)

// Escalation paths, used as metric labels.
const (
	pathAuto   = "auto"
	pathManual = "manual"
	pathSweep  = "sweep"
)

// EscalationOptions tunes the overdue sweep.
type EscalationOptions struct {
	SweepLimit int           // 0 means 50
	Cooldown   time.Duration // 0 means 24h
}

// EscalationServiceImpl implements the EscalationService interface.
type EscalationServiceImpl struct {
	issueRepo   secondary.IssueRepository
	authorities primary.AuthorityService
	notifier    Notifier
	executor    EffectExecutor
	publisher   secondary.EventPublisher
	log         *zap.SugaredLogger
	opts        EscalationOptions
	now         func() time.Time
}

// NewEscalationService creates a new EscalationService with injected dependencies.
func NewEscalationService(
	issueRepo secondary.IssueRepository,
	authorities primary.AuthorityService,
	notifier Notifier,
	executor EffectExecutor,
	publisher secondary.EventPublisher,
	log *zap.SugaredLogger,
	opts EscalationOptions,
) *EscalationServiceImpl {
	if opts.SweepLimit <= 0 {
		opts.SweepLimit = 50
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = 24 * time.Hour
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &EscalationServiceImpl{
		issueRepo:   issueRepo,
		authorities: authorities,
		notifier:    notifier,
		executor:    executor,
		publisher:   publisher,
		log:         log,
		opts:        opts,
		now:         time.Now,
	}
}

// issueState is an issue record after read defaults were applied.
type issueState struct {
	rec     *secondary.IssueRecord
	role    escalation.Role
	slaDays int
	dueAt   time.Time
}

// TriggerAutoEscalation escalates one issue when its age has reached the
// threshold for its current level.
func (s *EscalationServiceImpl) TriggerAutoEscalation(ctx context.Context, issueID string) (*primary.AutoEscalationResult, error) {
	log := s.logger(ctx)

	if ctxutil.ActorFromContext(ctx) == "" {
		return nil, s.rejected(pathAuto, "unauthenticated", primary.NewError(primary.KindUnauthenticated, "User must be authenticated"))
	}
	if issueID == "" {
		return nil, s.rejected(pathAuto, "invalid_argument", primary.NewError(primary.KindInvalidArgument, "issueId is required"))
	}

	state, err := s.loadIssue(ctx, pathAuto, issueID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	guard := escalation.CanAutoEscalate(escalation.AutoEscalationContext{
		IssueID:   issueID,
		Status:    state.rec.Status,
		Level:     state.rec.EscalatedLevel,
		SLADays:   state.slaDays,
		CreatedAt: state.rec.CreatedAt,
		Now:       now,
	})
	if !guard.Allowed {
		return nil, s.rejected(pathAuto, string(guard.Code), guardError(guard))
	}

	days := escalation.DaysPassed(state.rec.CreatedAt, now)
	t, ok := escalation.NewTransition(escalation.TypeAuto, state.role, escalation.AutoReason(days, state.slaDays), now)
	if !ok {
		return nil, s.rejected(pathAuto, string(escalation.CodeMaxLevel),
			primary.NewError(primary.KindFailedPrecondition, "Issue is already at maximum escalation level"))
	}

	// A missing authority does not block the automatic path; the issue
	// moves up unassigned, no mail is queued and the plan carries a warning.
	authority, err := s.authorities.FindAuthority(ctx, string(t.To), jurisdictionOf(state.rec))
	if err != nil {
		if primary.KindOf(err) != primary.KindNotFound {
			return nil, s.internal(log, pathAuto, issueID, err)
		}
	}

	if err := s.apply(ctx, state, t, authority); err != nil {
		return nil, s.internal(log, pathAuto, issueID, err)
	}

	result := &primary.AutoEscalationResult{
		Success:      true,
		Message:      fmt.Sprintf("Issue escalated to %s (level %d)", strings.ToUpper(string(t.To)), t.Level),
		NewLevel:     t.Level,
		AssignedRole: string(t.To),
	}
	if authority != nil {
		result.AuthorityEmail = authority.Email
	}
	return result, nil
}

// ManualEscalate lets the original reporter move an overdue issue up one
// tier, once per issue.
func (s *EscalationServiceImpl) ManualEscalate(ctx context.Context, req primary.ManualEscalationRequest) (*primary.ManualEscalationResult, error) {
	log := s.logger(ctx)

	if req.IssueID == "" || req.UserID == "" {
		return nil, s.rejected(pathManual, "invalid_argument", primary.NewError(primary.KindInvalidArgument, "issueId and userId are required"))
	}

	state, err := s.loadIssue(ctx, pathManual, req.IssueID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	guard := escalation.CanManualEscalate(escalation.ManualEscalationContext{
		IssueID:      req.IssueID,
		RequesterUID: req.UserID,
		ReporterUID:  state.rec.ReporterUID,
		Status:       state.rec.Status,
		Level:        state.rec.EscalatedLevel,
		ManualUsed:   state.rec.ManualEscalationUsed,
		ResolveDueAt: state.dueAt,
		Now:          now,
	})
	if !guard.Allowed {
		return nil, s.rejected(pathManual, string(guard.Code), guardError(guard))
	}

	t, ok := escalation.NewTransition(escalation.TypeManual, state.role, escalation.ManualReason, now)
	if !ok {
		return nil, s.rejected(pathManual, string(escalation.CodeTerminal),
			primary.NewError(primary.KindFailedPrecondition, "Cannot escalate further"))
	}

	authority, err := s.authorities.FindAuthority(ctx, string(t.To), jurisdictionOf(state.rec))
	if err != nil {
		if primary.KindOf(err) == primary.KindNotFound {
			return nil, s.rejected(pathManual, "no_authority", err)
		}
		return nil, s.internal(log, pathManual, req.IssueID, err)
	}

	if err := s.apply(ctx, state, t, authority); err != nil {
		return nil, s.internal(log, pathManual, req.IssueID, err)
	}

	return &primary.ManualEscalationResult{
		Success:        true,
		Message:        fmt.Sprintf("Issue escalated to %s", strings.ToUpper(string(t.To))),
		EscalatedTo:    string(t.To),
		AuthorityEmail: authority.Email,
		NewLevel:       t.Level,
	}, nil
}

// SweepOverdue escalates each overdue, unresolved issue by one tier.
// Candidates are processed independently; one failure does not stop the rest.
func (s *EscalationServiceImpl) SweepOverdue(ctx context.Context) (*primary.SweepResult, error) {
	log := s.logger(ctx)
	now := s.now()
	metrics.SweepRuns.Inc()

	candidates, err := s.issueRepo.ListOverdue(ctx, now, s.opts.SweepLimit)
	if err != nil {
		metrics.EscalationErrors.WithLabelValues(pathSweep).Inc()
		log.Errorw("Failed to list overdue issues", "error", err)
		return nil, primary.WrapInternal("failed to list overdue issues", err)
	}

	result := &primary.SweepResult{
		Success: true,
		Results: make([]primary.SweepOutcome, 0, len(candidates)),
	}
	for _, rec := range candidates {
		outcome := s.sweepOne(ctx, log, rec, now)
		metrics.SweepOutcomes.WithLabelValues(outcome.Status).Inc()
		result.Results = append(result.Results, outcome)
	}
	result.Processed = len(candidates)

	log.Infow("Overdue sweep finished", "processed", result.Processed)
	return result, nil
}

func (s *EscalationServiceImpl) sweepOne(ctx context.Context, log *zap.SugaredLogger, rec *secondary.IssueRecord, now time.Time) primary.SweepOutcome {
	outcome := primary.SweepOutcome{IssueID: rec.ID}
	failed := func(err error) primary.SweepOutcome {
		metrics.EscalationErrors.WithLabelValues(pathSweep).Inc()
		log.Errorw("Sweep failed for issue", "issueId", rec.ID, "error", err)
		outcome.Status = primary.SweepStatusError
		outcome.Error = err.Error()
		return outcome
	}

	state, err := normalizeIssue(rec)
	if err != nil {
		return failed(err)
	}

	guard := escalation.CanSweepEscalate(escalation.SweepContext{
		IssueID:         rec.ID,
		Role:            state.role,
		AutoEscalatedAt: rec.AutoEscalatedAt,
		Now:             now,
		Cooldown:        s.opts.Cooldown,
	})
	if !guard.Allowed {
		outcome.Status = primary.SweepStatusSkipped
		outcome.Reason = guard.Reason
		return outcome
	}

	t, _ := escalation.NewTransition(escalation.TypeAuto, state.role, escalation.SweepReason, now)

	authority, err := s.authorities.FindAuthority(ctx, string(t.To), jurisdictionOf(rec))
	if err != nil {
		if primary.KindOf(err) == primary.KindNotFound {
			outcome.Status = primary.SweepStatusSkipped
			outcome.Reason = "No authority found"
			return outcome
		}
		return failed(err)
	}

	if err := s.apply(ctx, state, t, authority); err != nil {
		return failed(err)
	}

	outcome.Status = primary.SweepStatusEscalated
	outcome.From = string(t.From)
	outcome.To = string(t.To)
	outcome.AuthorityEmail = authority.Email
	return outcome
}

// apply plans the escalation writes, commits them in one transaction, then
// publishes the event. authority may be nil on the automatic path only.
func (s *EscalationServiceImpl) apply(ctx context.Context, state *issueState, t escalation.Transition, authority *primary.Authority) error {
	assignee := ""
	if authority != nil {
		assignee = authority.UID
	}

	plan := escalation.PlanEscalation(escalation.PlanInput{
		IssueID:     state.rec.ID,
		Transition:  t,
		AssigneeUID: assignee,
		ManualUsed:  state.rec.ManualEscalationUsed,
	})

	if authority != nil {
		notice, err := s.notifier.BuildEscalationNotice(state.rec, authority, t, state.dueAt)
		if err != nil {
			return err
		}
		plan = append(plan, notice)
	}

	if err := s.executor.Execute(ctx, plan); err != nil {
		return err
	}

	s.afterCommit(ctx, state.rec.ID, t, assignee, authority != nil)
	return nil
}

// afterCommit records metrics and publishes the escalation event. Publishing
// is best effort; the escalation is already durable.
func (s *EscalationServiceImpl) afterCommit(ctx context.Context, issueID string, t escalation.Transition, assignee string, mailed bool) {
	metrics.EscalationsTotal.WithLabelValues(string(t.Type), string(t.To)).Inc()
	if mailed {
		metrics.MailQueued.Inc()
	}

	s.logger(ctx).Infow("Issue escalated",
		"issueId", issueID,
		"type", t.Type,
		"from", t.From,
		"to", t.To,
		"level", t.Level,
		"assignedToUid", assignee)

	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishEscalation(ctx, secondary.EscalationEvent{
		IssueID:       issueID,
		Type:          string(t.Type),
		From:          string(t.From),
		To:            string(t.To),
		Level:         t.Level,
		Reason:        t.Reason,
		AssignedToUID: assignee,
		At:            t.At,
	})
	if err != nil {
		metrics.EventPublishFailures.Inc()
		s.logger(ctx).Warnw("Failed to publish escalation event", "issueId", issueID, "error", err)
	}
}

// loadIssue fetches and normalizes an issue, mapping failures to service errors.
func (s *EscalationServiceImpl) loadIssue(ctx context.Context, path, issueID string) (*issueState, error) {
	rec, err := s.issueRepo.GetByID(ctx, issueID)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, s.rejected(path, "not_found", primary.NewError(primary.KindNotFound, "Issue not found"))
	}
	if err != nil {
		return nil, s.internal(s.logger(ctx), path, issueID, err)
	}

	state, err := normalizeIssue(rec)
	if err != nil {
		return nil, s.internal(s.logger(ctx), path, issueID, err)
	}
	return state, nil
}

// normalizeIssue applies read defaults and rejects records whose level and
// role cannot be reconciled.
func normalizeIssue(rec *secondary.IssueRecord) (*issueState, error) {
	role, err := escalation.ResolveRole(rec.EscalatedLevel, rec.AssignedRole)
	if err != nil {
		return nil, fmt.Errorf("malformed issue %s: %w", rec.ID, err)
	}
	sla := escalation.EffectiveSLADays(rec.SLADays)
	return &issueState{
		rec:     rec,
		role:    role,
		slaDays: sla,
		dueAt:   escalation.EffectiveDueAt(rec.ResolveDueAt, rec.CreatedAt, sla),
	}, nil
}

func jurisdictionOf(rec *secondary.IssueRecord) primary.Jurisdiction {
	return primary.Jurisdiction{
		PanchayatID: rec.PanchayatID,
		Taluk:       rec.Taluk,
		District:    rec.District,
	}
}

// guardError maps a refused guard to a service error.
func guardError(g escalation.GuardResult) *primary.Error {
	if g.Code == escalation.CodeNotOwner {
		return primary.NewError(primary.KindPermissionDenied, g.Reason)
	}
	return primary.NewError(primary.KindFailedPrecondition, g.Reason)
}

func (s *EscalationServiceImpl) rejected(path, reason string, err error) error {
	metrics.EscalationRejected.WithLabelValues(path, reason).Inc()
	return err
}

func (s *EscalationServiceImpl) internal(log *zap.SugaredLogger, path, issueID string, err error) error {
	metrics.EscalationErrors.WithLabelValues(path).Inc()
	log.Errorw("Escalation failed", "path", path, "issueId", issueID, "error", err)
	return primary.WrapInternal("failed to escalate issue", err)
}

// logger returns the service logger annotated with request identity.
func (s *EscalationServiceImpl) logger(ctx context.Context) *zap.SugaredLogger {
	log := s.log
	if id := ctxutil.RequestIDFromContext(ctx); id != "" {
		log = log.With("requestId", id)
	}
	if actor := ctxutil.ActorFromContext(ctx); actor != "" {
		log = log.With("actor", actor)
	}
	return log
}

// Ensure EscalationServiceImpl implements the interface
var _ primary.EscalationService = (*EscalationServiceImpl)(nil)
