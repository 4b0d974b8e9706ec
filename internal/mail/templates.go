package mail

import (
	"bytes"
	_ "embed"
	"html/template"
	"strings"
	texttemplate "text/template"

	"github.com/Masterminds/sprig/v3"
)

// EscalationMailParams are the values rendered into an escalation notice.
type EscalationMailParams struct {
	IssueID       string
	Title         string
	Description   string
	Category      string
	PanchayatID   string
	Taluk         string
	District      string
	Type          string // "auto" or "manual"
	FromRole      string
	ToRole        string
	Level         int
	Reason        string
	AuthorityName string
	EscalatedAt   string
	DueAt         string
	URL           string // Empty when no frontend is configured
}

const subjectRaw = `[VITAL] Issue {{ .IssueID }} escalated to {{ .ToRole | upper }}{{ if .Title }}: {{ .Title | trunc 80 }}{{ end }}`

var (
	escalationTemplate = template.New("escalation").Funcs(sprig.HtmlFuncMap())
	subjectTemplate    = texttemplate.New("subject").Funcs(sprig.TxtFuncMap())

	//go:embed templates/escalation.html
	escalationTemplateRaw string
)

func init() {
	if _, err := escalationTemplate.Parse(escalationTemplateRaw); err != nil {
		panic(err)
	}
	if _, err := subjectTemplate.Parse(subjectRaw); err != nil {
		panic(err)
	}
}

// RenderEscalation returns the subject line and HTML body of an escalation notice.
func RenderEscalation(p EscalationMailParams) (subject, html string, err error) {
	var sb strings.Builder
	if err := subjectTemplate.Execute(&sb, p); err != nil {
		return "", "", err
	}

	var hb bytes.Buffer
	if err := escalationTemplate.Execute(&hb, p); err != nil {
		return "", "", err
	}

	return strings.TrimSpace(sb.String()), hb.String(), nil
}
