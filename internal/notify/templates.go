package notify

import (
	"fmt"
	"strings"
	"text/template"
)

// Template names used by the workflow.
const (
	TemplateApplicationReceived      = "application_received"
	TemplateApplicationReceivedStaff = "application_received_staff"
	TemplateStatusUpdated            = "status_updated"
	TemplateDocumentsRequested       = "documents_requested"
	TemplateDocumentsUploaded        = "documents_uploaded"
)

// TemplateData carries everything any template may reference. Unused fields
// stay zero.
type TemplateData struct {
	ReferenceNo     string
	CompanyName     string
	StatusLabel     string
	Note            string
	DocumentLabels  []string
	StatusURL       string
	ResubmissionURL string
}

type renderedTemplate struct {
	subject *template.Template
	body    *template.Template
}

var templates = map[string]renderedTemplate{
	TemplateApplicationReceived: mustTemplate(
		"Your POS application {{.ReferenceNo}} has been received",
		`Dear {{.CompanyName}},

We received your POS application. Your reference number is {{.ReferenceNo}}.
You can follow the review at any time:

  {{.StatusURL}}

Keep this link private; it identifies your application.`,
	),
	TemplateApplicationReceivedStaff: mustTemplate(
		"New POS application {{.ReferenceNo}}",
		`A new POS application arrived from {{.CompanyName}}.

Reference: {{.ReferenceNo}}`,
	),
	TemplateStatusUpdated: mustTemplate(
		"Application {{.ReferenceNo}}: {{.StatusLabel}}",
		`Dear {{.CompanyName}},

The status of your POS application {{.ReferenceNo}} changed to: {{.StatusLabel}}.
{{- if .Note}}

Note from our review team:
{{.Note}}
{{- end}}

Details: {{.StatusURL}}`,
	),
	TemplateDocumentsRequested: mustTemplate(
		"Application {{.ReferenceNo}}: documents needed",
		`Dear {{.CompanyName}},

Our review of application {{.ReferenceNo}} found the following documents
missing or deficient:
{{range .DocumentLabels}}
  - {{.}}{{end}}
{{- if .Note}}

Reviewer note:
{{.Note}}
{{- end}}

Please upload replacements within 48 hours using this link:

  {{.ResubmissionURL}}`,
	),
	TemplateDocumentsUploaded: mustTemplate(
		"Application {{.ReferenceNo}}: documents resubmitted",
		`{{.CompanyName}} uploaded replacement documents for application {{.ReferenceNo}}.
{{range .DocumentLabels}}
  - {{.}}{{end}}

The application moved back to review.`,
	),
}

func mustTemplate(subject, body string) renderedTemplate {
	return renderedTemplate{
		subject: template.Must(template.New("subject").Parse(subject)),
		body:    template.Must(template.New("body").Parse(body)),
	}
}

// Render produces the subject and body for a named template.
func Render(name string, data TemplateData) (subject, body string, err error) {
	tpl, ok := templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown notification template %q", name)
	}
	var sb, bb strings.Builder
	if err := tpl.subject.Execute(&sb, data); err != nil {
		return "", "", fmt.Errorf("render subject %s: %w", name, err)
	}
	if err := tpl.body.Execute(&bb, data); err != nil {
		return "", "", fmt.Errorf("render body %s: %w", name, err)
	}
	return sb.String(), bb.String(), nil
}
