package cli

import (
	"strings"
	"time"

	"github.com/fatih/color"
)

const rule = "────────────────────────────────────────────────────────────────────────"

var (
	pdoColor = color.New(color.FgGreen)
	tdoColor = color.New(color.FgYellow)
	ddoColor = color.New(color.FgRed, color.Bold)

	okMark   = color.New(color.FgGreen).Sprint("✓")
	skipMark = color.New(color.FgYellow).Sprint("-")
	failMark = color.New(color.FgRed).Sprint("✗")
)

func roleText(role string) string {
	if role == "" {
		return "-"
	}
	return strings.ToUpper(role)
}

// roleLabel renders a role in upper case, coloured by tier.
func roleLabel(role string) string {
	label := roleText(role)
	switch role {
	case "pdo":
		return pdoColor.Sprint(label)
	case "tdo":
		return tdoColor.Sprint(label)
	case "ddo":
		return ddoColor.Sprint(label)
	default:
		return label
	}
}

// padRight pads s to width, ignoring colour codes when measuring.
func padRight(s, plain string, width int) string {
	if n := len([]rune(plain)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
