package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/vital/internal/core/escalation"
	"github.com/example/vital/internal/ports/primary"
	"github.com/example/vital/internal/ports/secondary"
)

// IssueServiceImpl implements the IssueService interface.
type IssueServiceImpl struct {
	issueRepo      secondary.IssueRepository
	defaultSLADays int
	now            func() time.Time
}

// NewIssueService creates a new IssueService with injected dependencies.
func NewIssueService(issueRepo secondary.IssueRepository, defaultSLADays int) *IssueServiceImpl {
	return &IssueServiceImpl{
		issueRepo:      issueRepo,
		defaultSLADays: escalation.EffectiveSLADays(defaultSLADays),
		now:            time.Now,
	}
}

// CreateIssue records a new pending issue at level 0 with its due date set.
func (s *IssueServiceImpl) CreateIssue(ctx context.Context, req primary.CreateIssueRequest) (*primary.CreateIssueResponse, error) {
	if strings.TrimSpace(req.Title) == "" || req.ReporterUID == "" {
		return nil, primary.NewError(primary.KindInvalidArgument, "title and reporterUid are required")
	}
	if req.SLADays < 0 {
		return nil, primary.NewError(primary.KindInvalidArgument, "slaDays must not be negative")
	}

	sla := req.SLADays
	if sla == 0 {
		sla = s.defaultSLADays
	}
	createdAt := s.now().UTC()
	if req.CreatedAt != nil {
		createdAt = req.CreatedAt.UTC()
	}
	due := createdAt.AddDate(0, 0, sla)

	record := &secondary.IssueRecord{
		ID:           "ISSUE-" + uuid.New().String(),
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		ReporterUID:  req.ReporterUID,
		PanchayatID:  req.PanchayatID,
		Taluk:        req.Taluk,
		District:     req.District,
		Status:       "pending",
		AssignedRole: string(escalation.RolePDO),
		SLADays:      sla,
		ResolveDueAt: &due,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}

	if err := s.issueRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}

	return &primary.CreateIssueResponse{
		IssueID: record.ID,
		Issue:   recordToIssue(record),
	}, nil
}

// GetIssue retrieves an issue with its escalation history.
func (s *IssueServiceImpl) GetIssue(ctx context.Context, issueID string) (*primary.Issue, error) {
	record, err := s.issueRepo.GetByID(ctx, issueID)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, primary.NewError(primary.KindNotFound, "Issue not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}
	return recordToIssue(record), nil
}

// ListIssues lists issues with optional filters. OverdueOnly returns
// unresolved issues past their due date, oldest due first.
func (s *IssueServiceImpl) ListIssues(ctx context.Context, filters primary.IssueFilters) ([]*primary.Issue, error) {
	var (
		records []*secondary.IssueRecord
		err     error
	)

	if filters.OverdueOnly {
		limit := filters.Limit
		if limit <= 0 {
			limit = 100
		}
		records, err = s.issueRepo.ListOverdue(ctx, s.now(), limit)
	} else {
		records, err = s.issueRepo.List(ctx, secondary.IssueFilters{
			Status:      filters.Status,
			ReporterUID: filters.ReporterUID,
			Limit:       filters.Limit,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}

	issues := make([]*primary.Issue, len(records))
	for i, r := range records {
		issues[i] = recordToIssue(r)
	}
	return issues, nil
}

// recordToIssue applies read defaults. The stored assigned role is shown as
// is when it cannot be reconciled with the level.
func recordToIssue(r *secondary.IssueRecord) *primary.Issue {
	role := r.AssignedRole
	if resolved, err := escalation.ResolveRole(r.EscalatedLevel, r.AssignedRole); err == nil {
		role = string(resolved)
	}

	issue := &primary.Issue{
		ID:                   r.ID,
		Title:                r.Title,
		Description:          r.Description,
		Category:             r.Category,
		ReporterUID:          r.ReporterUID,
		PanchayatID:          r.PanchayatID,
		Taluk:                r.Taluk,
		District:             r.District,
		Status:               r.Status,
		EscalatedLevel:       r.EscalatedLevel,
		AssignedRole:         role,
		AssignedToUID:        r.AssignedToUID,
		SLADays:              escalation.EffectiveSLADays(r.SLADays),
		ResolveDueAt:         escalation.EffectiveDueAt(r.ResolveDueAt, r.CreatedAt, r.SLADays),
		ManualEscalationUsed: r.ManualEscalationUsed,
		AutoEscalatedAt:      r.AutoEscalatedAt,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
	for _, h := range r.History {
		issue.History = append(issue.History, primary.HistoryEntry{
			Type:   h.Type,
			From:   h.From,
			To:     h.To,
			At:     h.At,
			Reason: h.Reason,
			Level:  h.Level,
		})
	}
	return issue
}

// Ensure IssueServiceImpl implements the interface
var _ primary.IssueService = (*IssueServiceImpl)(nil)
