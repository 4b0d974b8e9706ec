// Package app contains the application layer - service implementations and effect execution.
package app

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/example/vital/internal/core/effects"
	"github.com/example/vital/internal/ports/secondary"
)

// EffectExecutor interprets and executes effects.
// This is the "Imperative Shell" - the only place escalation writes happen.
type EffectExecutor interface {
	Execute(ctx context.Context, effs []effects.Effect) error
}

// TxEffectExecutor applies a plan inside a single transaction: either every
// effect is persisted or none is.
type TxEffectExecutor struct {
	transactor secondary.Transactor
	log        *zap.SugaredLogger
}

// NewEffectExecutor creates a new TxEffectExecutor.
func NewEffectExecutor(transactor secondary.Transactor, log *zap.SugaredLogger) *TxEffectExecutor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &TxEffectExecutor{transactor: transactor, log: log}
}

// Execute runs all effects in one transaction, in order.
func (e *TxEffectExecutor) Execute(ctx context.Context, effs []effects.Effect) error {
	return e.transactor.WithinTx(ctx, func(tx secondary.EscalationTx) error {
		return e.executeAll(ctx, tx, effs)
	})
}

func (e *TxEffectExecutor) executeAll(ctx context.Context, tx secondary.EscalationTx, effs []effects.Effect) error {
	for _, eff := range effs {
		if err := e.executeOne(ctx, tx, eff); err != nil {
			return fmt.Errorf("failed to execute %s effect: %w", eff.EffectType(), err)
		}
	}
	return nil
}

func (e *TxEffectExecutor) executeOne(ctx context.Context, tx secondary.EscalationTx, eff effects.Effect) error {
	switch typed := eff.(type) {
	case effects.IssueUpdateEffect:
		return tx.UpdateIssueEscalation(ctx, &secondary.IssueEscalationUpdate{
			IssueID:              typed.IssueID,
			EscalatedLevel:       typed.EscalatedLevel,
			AssignedRole:         typed.AssignedRole,
			AssignedToUID:        typed.AssignedToUID,
			ManualEscalationUsed: typed.ManualEscalationUsed,
			AutoEscalatedAt:      typed.AutoEscalatedAt,
			UpdatedAt:            typed.UpdatedAt,
		})
	case effects.HistoryAppendEffect:
		return tx.AppendHistory(ctx, &secondary.HistoryRecord{
			IssueID: typed.IssueID,
			Type:    typed.Type,
			From:    typed.From,
			To:      typed.To,
			At:      typed.At,
			Reason:  typed.Reason,
			Level:   typed.Level,
		})
	case effects.MailEnqueueEffect:
		return tx.EnqueueMail(ctx, &secondary.MailRecord{
			ID:        typed.ID,
			To:        typed.To,
			Subject:   typed.Subject,
			HTML:      typed.HTML,
			Status:    "pending",
			CreatedAt: typed.CreatedAt,
		})
	case effects.LogEffect:
		e.logPlanned(typed)
		return nil
	default:
		return fmt.Errorf("unknown effect type: %T", eff)
	}
}

func (e *TxEffectExecutor) logPlanned(l effects.LogEffect) {
	kv := flattenFields(l.Fields)
	switch l.Level {
	case "warn":
		e.log.Warnw(l.Message, kv...)
	case "error":
		e.log.Errorw(l.Message, kv...)
	default:
		e.log.Infow(l.Message, kv...)
	}
}

// flattenFields returns the fields as sorted key/value pairs.
func flattenFields(fields map[string]any) []any {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kv := make([]any, 0, len(fields)*2)
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}
	return kv
}
