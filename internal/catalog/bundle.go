package catalog

import (
	"strings"
	"time"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/models"
)

// Message keys used by the rendering and delivery layers
const (
	KeyOrganization       = "organization"
	KeyTagline            = "tagline"
	KeyTitle              = "title"
	KeyDateFormat         = "format.date"
	KeyBookAppointmentURL = "bookAppointmentUrl"

	KeyUnknownQuestion = "report.unknownQuestion"
	KeyUnknownAnswer   = "report.unknownAnswer"

	KeyPDFAssessmentResults = "pdfLabels.assessmentResults"
	KeyPDFPersonalInfo      = "pdfLabels.personalInfo"
	KeyPDFName              = "pdfLabels.name"
	KeyPDFEmail             = "pdfLabels.email"
	KeyPDFCompany           = "pdfLabels.company"
	KeyPDFPosition          = "pdfLabels.position"
	KeyPDFScore             = "pdfLabels.score"
	KeyPDFQuestion          = "pdfLabels.question"
	KeyPDFAnswer            = "pdfLabels.answer"
	KeyPDFDetails           = "pdfLabels.assessmentDetails"
	KeyPDFRights            = "pdfLabels.rights"
	KeyPDFPage              = "pdfLabels.page"

	KeyEmailSubject          = "email.subject"
	KeyEmailGreeting         = "email.greeting"
	KeyEmailBody             = "email.body"
	KeyEmailBodyPurpose      = "email.bodyPurpose"
	KeyEmailAttachmentNote   = "email.attachmentNote"
	KeyEmailSupportTitle     = "email.supportTitle"
	KeyEmailSupportBody      = "email.supportBody"
	KeyEmailAppointmentEmail = "email.appointmentEmail"
	KeyEmailAppointmentText  = "email.appointmentText"
	KeyEmailDisclaimerLabel  = "email.disclaimerLabel"
	KeyEmailDisclaimer       = "email.disclaimer"
	KeyEmailClosing          = "email.closing"

	KeyErrorSelectAnswer = "errors.selectAnswer"
)

// defaults are the literal fallbacks used when neither the requested nor the default
// language defines a key
var defaults = map[string]string{
	KeyOrganization:         "RSM SAUDI ARABIA",
	KeyTagline:              "THE POWER OF BEING UNDERSTOOD",
	KeyTitle:                "Carbon Credit Readiness Assessment",
	KeyDateFormat:           "January 2, 2006",
	KeyBookAppointmentURL:   "https://cal.com/linzy-rsm-saudi/esg-book-30min-call",
	KeyUnknownQuestion:      "Unknown question",
	KeyUnknownAnswer:        "Unknown answer",
	KeyPDFAssessmentResults: "Assessment Results",
	KeyPDFPersonalInfo:      "Personal Information",
	KeyPDFName:              "Name",
	KeyPDFEmail:             "Email",
	KeyPDFCompany:           "Company",
	KeyPDFPosition:          "Position",
	KeyPDFScore:             "Score",
	KeyPDFQuestion:          "Question",
	KeyPDFAnswer:            "Answer",
	KeyPDFDetails:           "Assessment Details",
	KeyPDFRights:            "All rights reserved.",
	KeyPDFPage:              "Page",
	KeyEmailSubject:         "Your Carbon Credit Readiness Assessment Results",
	KeyEmailGreeting:        "Dear",
	KeyEmailDisclaimerLabel: "Disclaimer:",
	KeyErrorSelectAnswer:    "Please select an answer before proceeding.",

	"resultTexts.advanced": "Advanced Carbon Credit Readiness",
	"resultTexts.solid":    "Aligned Carbon Credit Readiness",
	"resultTexts.basic":    "Basic Carbon Credit Readiness",
	"resultTexts.urgent":   "Immediate Action Required",
	"speedometer.critical": "Critical",
	"speedometer.poor":     "Poor",
	"speedometer.fair":     "Fair",
	"speedometer.good":     "Good",
}

// Bundle resolves translation strings for one language
type Bundle struct {
	Language models.Language
	messages map[string]string
	fallback map[string]string
}

// NewBundle creates a bundle from flat key/value maps. Used by tests and tools.
func NewBundle(lang models.Language, messages, fallback map[string]string) *Bundle {
	return &Bundle{Language: lang, messages: messages, fallback: fallback}
}

// Resolve returns the text for key in the bundle language, falling back to the
// default language, then to the built-in literal, then to the key itself.
func (b *Bundle) Resolve(key string) string {
	if b != nil {
		if v, ok := b.messages[key]; ok && v != "" {
			return v
		}
		if v, ok := b.fallback[key]; ok && v != "" {
			return v
		}
	}
	if v, ok := defaults[key]; ok {
		return v
	}
	return key
}

// ResolveOr returns the text for key, or def when no catalog defines it
func (b *Bundle) ResolveOr(key, def string) string {
	if b != nil {
		if v, ok := b.messages[key]; ok && v != "" {
			return v
		}
		if v, ok := b.fallback[key]; ok && v != "" {
			return v
		}
	}
	return def
}

// Has reports whether the bundle language itself defines key
func (b *Bundle) Has(key string) bool {
	if b == nil {
		return false
	}
	_, ok := b.messages[key]
	return ok
}

// Messages returns every resolvable key merged over the default language
func (b *Bundle) Messages() map[string]string {
	out := make(map[string]string, len(b.fallback)+len(b.messages))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range b.fallback {
		out[k] = v
	}
	for k, v := range b.messages {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// FormatDate renders t with the language's date layout (a Go reference-time layout)
func (b *Bundle) FormatDate(t time.Time) string {
	return t.Format(b.Resolve(KeyDateFormat))
}

// Lines splits a multi-line message into trimmed lines
func (b *Bundle) Lines(key string) []string {
	raw := strings.Split(strings.TrimSpace(b.Resolve(key)), "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		out = append(out, strings.TrimSpace(line))
	}
	return out
}
