// Package escalation contains the pure business logic for issue escalation.
// This is part of the Functional Core - no I/O, only pure functions over
// values passed in by the caller (including the current time).
package escalation

import (
	"fmt"
	"time"
)

// Role is an authority tier responsible for an issue.
type Role string

const (
	RolePDO Role = "pdo" // Gram Panchayat Development Officer, level 0
	RoleTDO Role = "tdo" // Taluk Development Officer, level 1
	RoleDDO Role = "ddo" // District Development Officer, level 2 (terminal)
)

// MaxLevel is the terminal escalation level.
const MaxLevel = 2

// DefaultSLADays is used when an issue carries no usable SLA.
const DefaultSLADays = 7

var levelRoles = [...]Role{RolePDO, RoleTDO, RoleDDO}

// RoleForLevel maps an escalation level to its authority tier.
func RoleForLevel(level int) (Role, bool) {
	if level < 0 || level > MaxLevel {
		return "", false
	}
	return levelRoles[level], true
}

// LevelForRole maps an authority tier back to its escalation level.
func LevelForRole(role Role) (int, bool) {
	for i, r := range levelRoles {
		if r == role {
			return i, true
		}
	}
	return 0, false
}

// NextRole returns the tier above role. ddo has no next role.
func NextRole(role Role) (Role, bool) {
	level, ok := LevelForRole(role)
	if !ok || level == MaxLevel {
		return "", false
	}
	return levelRoles[level+1], true
}

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	if _, ok := LevelForRole(Role(s)); !ok {
		return "", fmt.Errorf("unknown role %q (must be pdo, tdo or ddo)", s)
	}
	return Role(s), nil
}

// Issue statuses that end the escalation lifecycle.
const (
	StatusResolved = "resolved"
	StatusClosed   = "closed"
)

// IsClosedStatus reports whether an issue in this status can no longer escalate.
func IsClosedStatus(status string) bool {
	return status == StatusResolved || status == StatusClosed
}

// EffectiveSLADays applies the SLA default to a stored value.
func EffectiveSLADays(slaDays int) int {
	if slaDays <= 0 {
		return DefaultSLADays
	}
	return slaDays
}

// EffectiveDueAt returns the stored due date, or createdAt + slaDays when absent.
func EffectiveDueAt(dueAt *time.Time, createdAt time.Time, slaDays int) time.Time {
	if dueAt != nil && !dueAt.IsZero() {
		return *dueAt
	}
	return createdAt.AddDate(0, 0, EffectiveSLADays(slaDays))
}

// ResolveRole derives the current role of an issue from its stored level and
// assigned role. An empty assigned role falls back to the level's role; a role
// that disagrees with a valid level is rejected as malformed.
func ResolveRole(level int, assignedRole string) (Role, error) {
	levelRole, ok := RoleForLevel(level)
	if !ok {
		return "", fmt.Errorf("escalation level %d out of range", level)
	}
	if assignedRole == "" {
		return levelRole, nil
	}
	role, err := ParseRole(assignedRole)
	if err != nil {
		return "", err
	}
	if role != levelRole {
		return "", fmt.Errorf("assigned role %s does not match escalation level %d", role, level)
	}
	return role, nil
}
