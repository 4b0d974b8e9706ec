package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/example/vital/internal/core/escalation"
	"github.com/example/vital/internal/ports/secondary"
)

// testNow is the fixed clock used by service tests.
var testNow = time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return testNow.AddDate(0, 0, -n)
}

// makeIssue returns a pending issue at level, created at createdAt with a
// 7 day SLA, reported by USER-001 in PAN-001 / Kunigal / Tumakuru.
func makeIssue(id string, level int, createdAt time.Time) *secondary.IssueRecord {
	role, _ := escalation.RoleForLevel(level)
	due := createdAt.AddDate(0, 0, 7)
	return &secondary.IssueRecord{
		ID:             id,
		Title:          "Broken handpump",
		ReporterUID:    "USER-001",
		PanchayatID:    "PAN-001",
		Taluk:          "Kunigal",
		District:       "Tumakuru",
		Status:         "pending",
		EscalatedLevel: level,
		AssignedRole:   string(role),
		SLADays:        7,
		ResolveDueAt:   &due,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
}

func cloneIssue(r *secondary.IssueRecord) *secondary.IssueRecord {
	c := *r
	c.History = make([]*secondary.HistoryRecord, len(r.History))
	for i, h := range r.History {
		hc := *h
		c.History[i] = &hc
	}
	return &c
}

// ============================================================================
// Mock IssueRepository
// ============================================================================

type mockIssueRepository struct {
	issues         map[string]*secondary.IssueRecord
	getErr         error
	listOverdueErr error
	nextSeq        int64
}

func newMockIssueRepository() *mockIssueRepository {
	return &mockIssueRepository{issues: make(map[string]*secondary.IssueRecord)}
}

func (m *mockIssueRepository) add(recs ...*secondary.IssueRecord) {
	for _, r := range recs {
		m.issues[r.ID] = r
	}
}

func (m *mockIssueRepository) Create(ctx context.Context, issue *secondary.IssueRecord) error {
	if _, exists := m.issues[issue.ID]; exists {
		return fmt.Errorf("issue %s already exists", issue.ID)
	}
	m.issues[issue.ID] = cloneIssue(issue)
	return nil
}

func (m *mockIssueRepository) GetByID(ctx context.Context, id string) (*secondary.IssueRecord, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if r, ok := m.issues[id]; ok {
		return cloneIssue(r), nil
	}
	return nil, fmt.Errorf("issue %s: %w", id, secondary.ErrNotFound)
}

func (m *mockIssueRepository) List(ctx context.Context, filters secondary.IssueFilters) ([]*secondary.IssueRecord, error) {
	var result []*secondary.IssueRecord
	for _, r := range m.issues {
		if filters.Status != "" && r.Status != filters.Status {
			continue
		}
		if filters.ReporterUID != "" && r.ReporterUID != filters.ReporterUID {
			continue
		}
		result = append(result, cloneIssue(r))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if filters.Limit > 0 && len(result) > filters.Limit {
		result = result[:filters.Limit]
	}
	return result, nil
}

func (m *mockIssueRepository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]*secondary.IssueRecord, error) {
	if m.listOverdueErr != nil {
		return nil, m.listOverdueErr
	}
	var result []*secondary.IssueRecord
	for _, r := range m.issues {
		if escalation.IsClosedStatus(r.Status) || r.ResolveDueAt == nil || r.ResolveDueAt.After(now) {
			continue
		}
		result = append(result, cloneIssue(r))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ResolveDueAt.Equal(*result[j].ResolveDueAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].ResolveDueAt.Before(*result[j].ResolveDueAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockIssueRepository) ListHistory(ctx context.Context, issueID string) ([]*secondary.HistoryRecord, error) {
	r, ok := m.issues[issueID]
	if !ok {
		return nil, nil
	}
	return cloneIssue(r).History, nil
}

// ============================================================================
// Mock Transactor
// ============================================================================

// mockTransactor stages writes and applies them to the issue repository only
// when the unit of work succeeds.
type mockTransactor struct {
	issues     *mockIssueRepository
	mails      []*secondary.MailRecord
	commits    int
	updateErr  map[string]error // keyed by issue ID
	historyErr error
	mailErr    error
}

func newMockTransactor(issues *mockIssueRepository) *mockTransactor {
	return &mockTransactor{issues: issues, updateErr: make(map[string]error)}
}

type mockTx struct {
	parent  *mockTransactor
	updates []*secondary.IssueEscalationUpdate
	history []*secondary.HistoryRecord
	mails   []*secondary.MailRecord
}

func (m *mockTransactor) WithinTx(ctx context.Context, fn func(tx secondary.EscalationTx) error) error {
	tx := &mockTx{parent: m}
	if err := fn(tx); err != nil {
		return err
	}

	for _, u := range tx.updates {
		r := m.issues.issues[u.IssueID]
		r.EscalatedLevel = u.EscalatedLevel
		r.AssignedRole = u.AssignedRole
		r.AssignedToUID = u.AssignedToUID
		r.ManualEscalationUsed = u.ManualEscalationUsed
		if u.AutoEscalatedAt != nil {
			at := *u.AutoEscalatedAt
			r.AutoEscalatedAt = &at
		}
		r.UpdatedAt = u.UpdatedAt
	}
	for _, h := range tx.history {
		m.issues.nextSeq++
		h.Seq = m.issues.nextSeq
		r := m.issues.issues[h.IssueID]
		r.History = append(r.History, h)
	}
	m.mails = append(m.mails, tx.mails...)
	m.commits++
	return nil
}

func (t *mockTx) UpdateIssueEscalation(ctx context.Context, u *secondary.IssueEscalationUpdate) error {
	if err := t.parent.updateErr[u.IssueID]; err != nil {
		return err
	}
	if _, ok := t.parent.issues.issues[u.IssueID]; !ok {
		return fmt.Errorf("issue %s: %w", u.IssueID, secondary.ErrNotFound)
	}
	t.updates = append(t.updates, u)
	return nil
}

func (t *mockTx) AppendHistory(ctx context.Context, h *secondary.HistoryRecord) error {
	if t.parent.historyErr != nil {
		return t.parent.historyErr
	}
	t.history = append(t.history, h)
	return nil
}

func (t *mockTx) EnqueueMail(ctx context.Context, mail *secondary.MailRecord) error {
	if t.parent.mailErr != nil {
		return t.parent.mailErr
	}
	t.mails = append(t.mails, mail)
	return nil
}

// ============================================================================
// Mock AuthorityRepository
// ============================================================================

type mockAuthorityRepository struct {
	authorities []*secondary.AuthorityRecord
	findErr     error
	findCalls   int
}

func newMockAuthorityRepository() *mockAuthorityRepository {
	return &mockAuthorityRepository{}
}

// addDefaults registers one verified authority per role for the jurisdiction
// used by makeIssue.
func (m *mockAuthorityRepository) addDefaults() {
	m.authorities = append(m.authorities,
		&secondary.AuthorityRecord{UID: "PDO-1", Name: "Lakshmi", Email: "pdo@example.org", Role: "pdo", PanchayatID: "PAN-001", Verified: true},
		&secondary.AuthorityRecord{UID: "TDO-1", Name: "Suresh", Email: "tdo@example.org", Role: "tdo", Taluk: "Kunigal", District: "Tumakuru", Verified: true},
		&secondary.AuthorityRecord{UID: "DDO-1", Name: "Anitha", Email: "ddo@example.org", Role: "ddo", District: "Tumakuru", Verified: true},
	)
}

func (m *mockAuthorityRepository) Create(ctx context.Context, a *secondary.AuthorityRecord) error {
	for _, existing := range m.authorities {
		if existing.UID == a.UID {
			return fmt.Errorf("authority %s already exists", a.UID)
		}
	}
	m.authorities = append(m.authorities, a)
	return nil
}

func (m *mockAuthorityRepository) GetByUID(ctx context.Context, uid string) (*secondary.AuthorityRecord, error) {
	for _, a := range m.authorities {
		if a.UID == uid {
			return a, nil
		}
	}
	return nil, fmt.Errorf("authority %s: %w", uid, secondary.ErrNotFound)
}

func (m *mockAuthorityRepository) FindOne(ctx context.Context, q secondary.AuthorityQuery) (*secondary.AuthorityRecord, error) {
	m.findCalls++
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, a := range m.authorities {
		if a.Role != q.Role || !a.Verified {
			continue
		}
		if q.PanchayatID != "" && a.PanchayatID != q.PanchayatID {
			continue
		}
		if q.Taluk != "" && a.Taluk != q.Taluk {
			continue
		}
		if q.District != "" && a.District != q.District {
			continue
		}
		return a, nil
	}
	return nil, fmt.Errorf("authority for %s: %w", q.Role, secondary.ErrNotFound)
}

func (m *mockAuthorityRepository) List(ctx context.Context, filters secondary.AuthorityFilters) ([]*secondary.AuthorityRecord, error) {
	var result []*secondary.AuthorityRecord
	for _, a := range m.authorities {
		if filters.Role != "" && a.Role != filters.Role {
			continue
		}
		if filters.District != "" && a.District != filters.District {
			continue
		}
		if filters.VerifiedOnly && !a.Verified {
			continue
		}
		result = append(result, a)
	}
	return result, nil
}

// ============================================================================
// Mock EventPublisher
// ============================================================================

type mockPublisher struct {
	events []secondary.EscalationEvent
	err    error
}

func (m *mockPublisher) PublishEscalation(ctx context.Context, event secondary.EscalationEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

// ============================================================================
// Mock MailQueueRepository and MailSender
// ============================================================================

type mockMailQueueRepository struct {
	records map[string]*secondary.MailRecord
	order   []string
	markErr error
}

func newMockMailQueueRepository(recs ...*secondary.MailRecord) *mockMailQueueRepository {
	m := &mockMailQueueRepository{records: make(map[string]*secondary.MailRecord)}
	for _, r := range recs {
		if r.Status == "" {
			r.Status = "pending"
		}
		m.records[r.ID] = r
		m.order = append(m.order, r.ID)
	}
	return m
}

func (m *mockMailQueueRepository) GetByID(ctx context.Context, id string) (*secondary.MailRecord, error) {
	if r, ok := m.records[id]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("mail %s: %w", id, secondary.ErrNotFound)
}

func (m *mockMailQueueRepository) List(ctx context.Context, filters secondary.MailFilters) ([]*secondary.MailRecord, error) {
	var result []*secondary.MailRecord
	for _, id := range m.order {
		r := m.records[id]
		if filters.Status != "" && r.Status != filters.Status {
			continue
		}
		result = append(result, r)
	}
	return result, nil
}

func (m *mockMailQueueRepository) ListPending(ctx context.Context, limit int) ([]*secondary.MailRecord, error) {
	var result []*secondary.MailRecord
	for _, id := range m.order {
		if r := m.records[id]; r.Status == "pending" && len(result) < limit {
			c := *r
			result = append(result, &c)
		}
	}
	return result, nil
}

func (m *mockMailQueueRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	if m.markErr != nil {
		return m.markErr
	}
	r, ok := m.records[id]
	if !ok {
		return fmt.Errorf("mail %s: %w", id, secondary.ErrNotFound)
	}
	r.Status = "sent"
	r.Attempts++
	r.SentAt = &sentAt
	r.LastError = ""
	return nil
}

func (m *mockMailQueueRepository) RecordFailure(ctx context.Context, id, lastError string, final bool) error {
	r, ok := m.records[id]
	if !ok {
		return fmt.Errorf("mail %s: %w", id, secondary.ErrNotFound)
	}
	r.Attempts++
	r.LastError = lastError
	if final {
		r.Status = "failed"
	}
	return nil
}

type mockSender struct {
	sent   []string         // recipients in send order
	failTo map[string]error // recipient -> error
}

func newMockSender() *mockSender {
	return &mockSender{failTo: make(map[string]error)}
}

func (m *mockSender) Send(receivers []string, subject, body string) error {
	for _, r := range receivers {
		if err := m.failTo[r]; err != nil {
			return err
		}
	}
	m.sent = append(m.sent, receivers...)
	return nil
}

func (m *mockSender) GetHost() string { return "smtp.test" }

// Ensure mocks implement the interfaces
var (
	_ secondary.IssueRepository     = (*mockIssueRepository)(nil)
	_ secondary.Transactor          = (*mockTransactor)(nil)
	_ secondary.EscalationTx        = (*mockTx)(nil)
	_ secondary.AuthorityRepository = (*mockAuthorityRepository)(nil)
	_ secondary.EventPublisher      = (*mockPublisher)(nil)
	_ secondary.MailQueueRepository = (*mockMailQueueRepository)(nil)
	_ secondary.MailSender          = (*mockSender)(nil)
)
