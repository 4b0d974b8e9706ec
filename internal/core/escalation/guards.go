package escalation

import (
	"fmt"
	"time"
)

// Code classifies why a guard refused a transition.
type Code string

const (
	CodeNone          Code = ""
	CodeClosed        Code = "closed"
	CodeMaxLevel      Code = "max_level"
	CodeSLANotElapsed Code = "sla_not_elapsed"
	CodeNotOwner      Code = "not_owner"
	CodeAlreadyUsed   Code = "already_used"
	CodeBeforeDue     Code = "before_due"
	CodeTerminal      Code = "terminal"
	CodeCooldown      Code = "cooldown"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
	Code    Code
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

func deny(code Code, reason string) GuardResult {
	return GuardResult{Allowed: false, Reason: reason, Code: code}
}

func allow() GuardResult {
	return GuardResult{Allowed: true}
}

// DaysPassed returns the number of whole days between createdAt and now.
func DaysPassed(createdAt, now time.Time) int {
	if now.Before(createdAt) {
		return 0
	}
	return int(now.Sub(createdAt) / (24 * time.Hour))
}

// RequiredDays returns the age an issue must reach before the automatic path
// may move it from level to level+1. Level 2 has no threshold.
func RequiredDays(level, slaDays int) (int, bool) {
	sla := EffectiveSLADays(slaDays)
	switch level {
	case 0:
		return sla, true
	case 1:
		return sla * 2, true
	default:
		return 0, false
	}
}

// AutoEscalationContext provides context for the single-issue automatic path.
type AutoEscalationContext struct {
	IssueID   string
	Status    string
	Level     int
	SLADays   int
	CreatedAt time.Time
	Now       time.Time
}

// CanAutoEscalate evaluates whether an issue may be escalated automatically.
// Rules:
// - Issue must not be resolved or closed
// - Level must be below the maximum
// - Issue age in whole days must reach RequiredDays(level)
func CanAutoEscalate(ctx AutoEscalationContext) GuardResult {
	if IsClosedStatus(ctx.Status) {
		return deny(CodeClosed, "Issue is already resolved or closed")
	}

	required, ok := RequiredDays(ctx.Level, ctx.SLADays)
	if !ok {
		return deny(CodeMaxLevel, "Issue is already at maximum escalation level")
	}

	days := DaysPassed(ctx.CreatedAt, ctx.Now)
	if days < required {
		return deny(CodeSLANotElapsed, fmt.Sprintf(
			"Issue must be pending for at least %d days before escalation. Currently only %d days.",
			required, days))
	}

	return allow()
}

// ManualEscalationContext provides context for the villager-triggered path.
type ManualEscalationContext struct {
	IssueID      string
	RequesterUID string
	ReporterUID  string
	Status       string
	Level        int
	ManualUsed   bool
	ResolveDueAt time.Time
	Now          time.Time
}

// CanManualEscalate evaluates whether the requester may escalate the issue.
// Rules, checked in order:
// - Requester must be the original reporter
// - Issue must not be resolved or closed
// - Manual escalation must not have been used before
// - Now must be at or after the due date
// - Level must be below the maximum
func CanManualEscalate(ctx ManualEscalationContext) GuardResult {
	if ctx.RequesterUID == "" || ctx.RequesterUID != ctx.ReporterUID {
		return deny(CodeNotOwner, "Not authorized to escalate this issue")
	}

	if IsClosedStatus(ctx.Status) {
		return deny(CodeClosed, "Issue is already resolved or closed")
	}

	if ctx.ManualUsed {
		return deny(CodeAlreadyUsed, "Manual escalation already used for this issue")
	}

	if ctx.Now.Before(ctx.ResolveDueAt) {
		return deny(CodeBeforeDue, "Escalation only allowed after due date")
	}

	if ctx.Level >= MaxLevel {
		return deny(CodeTerminal, "Cannot escalate further")
	}

	return allow()
}

// SweepContext provides context for one candidate of the overdue sweep.
type SweepContext struct {
	IssueID         string
	Role            Role
	AutoEscalatedAt *time.Time
	Now             time.Time
	Cooldown        time.Duration
}

// CanSweepEscalate evaluates whether the sweep should escalate a candidate.
// Rules:
// - No automatic escalation within the cooldown window
// - Current role must have a next role
func CanSweepEscalate(ctx SweepContext) GuardResult {
	if ctx.AutoEscalatedAt != nil && ctx.Now.Sub(*ctx.AutoEscalatedAt) < ctx.Cooldown {
		return deny(CodeCooldown, "Cooldown active")
	}

	if _, ok := NextRole(ctx.Role); !ok {
		return deny(CodeTerminal, "Already at highest level")
	}

	return allow()
}
