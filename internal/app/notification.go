package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/vital/internal/core/effects"
	"github.com/example/vital/internal/core/escalation"
	"github.com/example/vital/internal/mail"
	"github.com/example/vital/internal/ports/primary"
	"github.com/example/vital/internal/ports/secondary"
)

// Notifier builds the mail record queued together with an escalation.
type Notifier interface {
	BuildEscalationNotice(issue *secondary.IssueRecord, authority *primary.Authority, t escalation.Transition, dueAt time.Time) (effects.MailEnqueueEffect, error)
}

// NotificationWriter renders escalation notices into mail queue effects.
// It never writes; the effect is persisted by the executor in the same
// transaction as the issue update.
type NotificationWriter struct {
	baseURL string
	newID   func() string
}

// NewNotificationWriter creates a writer. baseURL, when set, is used to link
// the issue page from the mail body.
func NewNotificationWriter(baseURL string) *NotificationWriter {
	return &NotificationWriter{
		baseURL: strings.TrimRight(baseURL, "/"),
		newID:   func() string { return "MAIL-" + uuid.New().String() },
	}
}

// BuildEscalationNotice renders the subject and HTML body addressed to the
// authority that now holds the issue.
func (w *NotificationWriter) BuildEscalationNotice(issue *secondary.IssueRecord, authority *primary.Authority, t escalation.Transition, dueAt time.Time) (effects.MailEnqueueEffect, error) {
	if authority == nil || authority.Email == "" {
		return effects.MailEnqueueEffect{}, fmt.Errorf("no recipient for issue %s", issue.ID)
	}

	params := mail.EscalationMailParams{
		IssueID:       issue.ID,
		Title:         issue.Title,
		Description:   issue.Description,
		Category:      issue.Category,
		PanchayatID:   issue.PanchayatID,
		Taluk:         issue.Taluk,
		District:      issue.District,
		Type:          string(t.Type),
		FromRole:      string(t.From),
		ToRole:        string(t.To),
		Level:         t.Level,
		Reason:        t.Reason,
		AuthorityName: authority.Name,
		EscalatedAt:   t.At.UTC().Format(time.RFC3339),
	}
	if !dueAt.IsZero() {
		params.DueAt = dueAt.UTC().Format(time.RFC3339)
	}
	if w.baseURL != "" {
		params.URL = w.baseURL + "/issues/" + issue.ID
	}

	subject, html, err := mail.RenderEscalation(params)
	if err != nil {
		return effects.MailEnqueueEffect{}, fmt.Errorf("failed to render escalation notice: %w", err)
	}

	return effects.MailEnqueueEffect{
		ID:        w.newID(),
		To:        authority.Email,
		Subject:   subject,
		HTML:      html,
		CreatedAt: t.At,
	}, nil
}

var _ Notifier = (*NotificationWriter)(nil)
