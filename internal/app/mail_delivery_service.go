package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/vital/internal/ports/primary"
	"github.com/example/vital/internal/ports/secondary"
)

// DefaultMaxMailAttempts is used when no attempt limit is configured.
const DefaultMaxMailAttempts = 5

// MailDeliveryServiceImpl implements the MailService interface. It is the
// only writer of delivery state on mail records and never touches issues.
type MailDeliveryServiceImpl struct {
	mailRepo    secondary.MailQueueRepository
	sender      secondary.MailSender // Nil when SMTP is not configured
	maxAttempts int
	log         *zap.SugaredLogger
	now         func() time.Time
}

// NewMailDeliveryService creates a new MailService with injected dependencies.
func NewMailDeliveryService(mailRepo secondary.MailQueueRepository, sender secondary.MailSender, maxAttempts int, log *zap.SugaredLogger) *MailDeliveryServiceImpl {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxMailAttempts
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &MailDeliveryServiceImpl{
		mailRepo:    mailRepo,
		sender:      sender,
		maxAttempts: maxAttempts,
		log:         log,
		now:         time.Now,
	}
}

// ListMail lists queued mail with optional filters.
func (s *MailDeliveryServiceImpl) ListMail(ctx context.Context, filters primary.MailFilters) ([]*primary.MailItem, error) {
	records, err := s.mailRepo.List(ctx, secondary.MailFilters{
		Status: filters.Status,
		Limit:  filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list mail: %w", err)
	}

	items := make([]*primary.MailItem, len(records))
	for i, r := range records {
		items[i] = &primary.MailItem{
			ID:        r.ID,
			To:        r.To,
			Subject:   r.Subject,
			Status:    r.Status,
			Attempts:  r.Attempts,
			LastError: r.LastError,
			CreatedAt: r.CreatedAt,
			SentAt:    r.SentAt,
		}
	}
	return items, nil
}

// DeliverPending sends up to limit pending records, oldest first. A failed
// send is recorded on its record and does not stop the pass; the record
// moves to failed once it has used all attempts.
func (s *MailDeliveryServiceImpl) DeliverPending(ctx context.Context, limit int) (*primary.DeliveryReport, error) {
	if s.sender == nil {
		return nil, primary.NewError(primary.KindFailedPrecondition, "mail delivery is not configured (set mail.host)")
	}
	if limit <= 0 {
		limit = 50
	}

	pending, err := s.mailRepo.ListPending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending mail: %w", err)
	}

	report := &primary.DeliveryReport{}
	for _, rec := range pending {
		if ctx.Err() != nil {
			break
		}
		report.Attempted++

		sendErr := s.sender.Send([]string{rec.To}, rec.Subject, rec.HTML)
		if sendErr == nil {
			if err := s.mailRepo.MarkSent(ctx, rec.ID, s.now()); err != nil {
				// Delivered but not recorded; the next pass sends it again.
				s.log.Errorw("Failed to mark mail sent", "mailId", rec.ID, "error", err)
				continue
			}
			report.Sent++
			continue
		}

		final := rec.Attempts+1 >= s.maxAttempts
		if err := s.mailRepo.RecordFailure(ctx, rec.ID, sendErr.Error(), final); err != nil {
			s.log.Errorw("Failed to record mail failure", "mailId", rec.ID, "error", err)
			continue
		}
		if final {
			report.Failed++
			s.log.Warnw("Mail delivery failed permanently", "mailId", rec.ID, "to", rec.To, "attempts", rec.Attempts+1, "error", sendErr)
		} else {
			report.Retrying++
			s.log.Infow("Mail delivery will be retried", "mailId", rec.ID, "attempts", rec.Attempts+1, "error", sendErr)
		}
	}

	return report, nil
}

// Ensure MailDeliveryServiceImpl implements the interface
var _ primary.MailService = (*MailDeliveryServiceImpl)(nil)
