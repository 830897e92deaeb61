package mail

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/catalog"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/models"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/scoring"
)

//go:embed templates/*.html
var templateFS embed.FS

// ErrNoRecipients is returned when a notification has no configured recipients
var ErrNoRecipients = errors.New("no recipients configured")

// Default reply-to addresses
const (
	DefaultReplyTo             = "ladhikari@rsmsaudi.com"
	DefaultConsultationReplyTo = "enquiry@rsmmena.nexuses.xyz"
)

const (
	consultationAdminSubject        = "New consultation request from assessment summary"
	consultationConfirmationSubject = "Thank you for booking a consultation with RSM"
)

// ComposerConfig holds addressing for the generated emails
type ComposerConfig struct {
	ReplyTo                string
	ConsultationReplyTo    string
	InternalRecipients     []string
	ConsultationRecipients []string
	// Location is the time zone used for consultation request times. Defaults to Asia/Dubai.
	Location *time.Location
}

// Composer turns assessment and consultation data into email messages
type Composer struct {
	cfg  ComposerConfig
	tmpl *template.Template
}

// NewComposer parses the embedded email templates
func NewComposer(cfg ComposerConfig) (*Composer, error) {
	if cfg.ReplyTo == "" {
		cfg.ReplyTo = DefaultReplyTo
	}
	if cfg.ConsultationReplyTo == "" {
		cfg.ConsultationReplyTo = DefaultConsultationReplyTo
	}
	if cfg.Location == nil {
		loc, err := time.LoadLocation("Asia/Dubai")
		if err != nil {
			loc = time.FixedZone("GST", 4*60*60)
		}
		cfg.Location = loc
	}

	tmpl, err := template.New("mail").
		Funcs(template.FuncMap{"odd": func(i int) bool { return i%2 == 1 }}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	return &Composer{cfg: cfg, tmpl: tmpl}, nil
}

// RespondentInput is the data for the respondent's result email
type RespondentInput struct {
	Respondent models.Respondent
	Result     scoring.Result
	MaxScore   int
	Bundle     *catalog.Bundle
	// Report is attached when present
	Report *Attachment
}

type respondentView struct {
	Lang, Direction, Align string
	Subject, Organization  string
	Title, Greeting, Name  string
	Body, Purpose          string
	ScoreLabel             string
	Score, MaxScore        int
	Result, Suggestion     string
	HasAttachment          bool
	AttachmentNote         string
	SupportTitle           string
	SupportBody            string
	AppointmentEmail       string
	AppointmentText        string
	BookingURL             string
	BookingText            string
	DisclaimerLabel        string
	Disclaimer             string
	Closing                []string
}

// Respondent builds the localized result email sent to the person who took the assessment
func (c *Composer) Respondent(in RespondentInput) (*Message, error) {
	b := bundleOrDefault(in.Bundle)
	view := respondentView{
		Lang:             string(b.Language),
		Direction:        b.Language.Direction(),
		Align:            align(b.Language),
		Subject:          b.Resolve(catalog.KeyEmailSubject),
		Organization:     b.Resolve(catalog.KeyOrganization),
		Title:            b.Resolve(catalog.KeyTitle),
		Greeting:         b.Resolve(catalog.KeyEmailGreeting),
		Name:             in.Respondent.Name,
		Body:             b.ResolveOr(catalog.KeyEmailBody, ""),
		Purpose:          b.ResolveOr(catalog.KeyEmailBodyPurpose, ""),
		ScoreLabel:       b.Resolve(catalog.KeyPDFScore),
		Score:            in.Result.Score,
		MaxScore:         in.MaxScore,
		Result:           in.Result.Label,
		Suggestion:       in.Result.Suggestion,
		HasAttachment:    in.Report != nil,
		AttachmentNote:   b.ResolveOr(catalog.KeyEmailAttachmentNote, ""),
		SupportTitle:     b.ResolveOr(catalog.KeyEmailSupportTitle, ""),
		SupportBody:      b.ResolveOr(catalog.KeyEmailSupportBody, ""),
		AppointmentEmail: b.ResolveOr(catalog.KeyEmailAppointmentEmail, c.cfg.ReplyTo),
		AppointmentText:  b.ResolveOr(catalog.KeyEmailAppointmentText, c.cfg.ReplyTo),
		BookingURL:       b.Resolve(catalog.KeyBookAppointmentURL),
		BookingText:      b.ResolveOr("bookAppointment", "Book an Appointment"),
		DisclaimerLabel:  b.Resolve(catalog.KeyEmailDisclaimerLabel),
		Disclaimer:       b.ResolveOr(catalog.KeyEmailDisclaimer, ""),
		Closing:          b.Lines(catalog.KeyEmailClosing),
	}

	html, err := c.render("respondent.html", view)
	if err != nil {
		return nil, err
	}

	msg := &Message{
		To:      []string{in.Respondent.Email},
		ReplyTo: c.cfg.ReplyTo,
		Subject: view.Subject,
		HTML:    html,
	}
	if in.Report != nil {
		msg.Attachments = []Attachment{*in.Report}
	}
	return msg, nil
}

// Row is one question/answer pair of the internal notification
type Row struct {
	Question string
	Answer   string
}

// InternalInput is the data for the internal submission notification
type InternalInput struct {
	SubmissionID string
	Respondent   models.Respondent
	Result       scoring.Result
	MaxScore     int
	Rows         []Row
	Bundle       *catalog.Bundle
}

type field struct {
	Label string
	Value string
}

type internalView struct {
	Lang, Direction, Align string
	Title, PersonalInfo    string
	Fields                 []field
	ScoreLabel             string
	Score, MaxScore        int
	Result                 string
	QuestionLabel          string
	AnswerLabel            string
	Rows                   []Row
	SubmissionID           string
	Language               string
}

// Internal builds the notification sent to the internal team for every submission
func (c *Composer) Internal(in InternalInput) (*Message, error) {
	if len(c.cfg.InternalRecipients) == 0 {
		return nil, ErrNoRecipients
	}

	b := bundleOrDefault(in.Bundle)
	view := internalView{
		Lang:         string(b.Language),
		Direction:    b.Language.Direction(),
		Align:        align(b.Language),
		Title:        b.Resolve(catalog.KeyPDFAssessmentResults),
		PersonalInfo: b.Resolve(catalog.KeyPDFPersonalInfo),
		Fields: []field{
			{Label: b.Resolve(catalog.KeyPDFName), Value: in.Respondent.Name},
			{Label: b.Resolve(catalog.KeyPDFEmail), Value: in.Respondent.Email},
			{Label: b.Resolve(catalog.KeyPDFCompany), Value: in.Respondent.Company},
			{Label: b.Resolve(catalog.KeyPDFPosition), Value: in.Respondent.Position},
		},
		ScoreLabel:    b.Resolve(catalog.KeyPDFScore),
		Score:         in.Result.Score,
		MaxScore:      in.MaxScore,
		Result:        in.Result.Label,
		QuestionLabel: b.Resolve(catalog.KeyPDFQuestion),
		AnswerLabel:   b.Resolve(catalog.KeyPDFAnswer),
		Rows:          in.Rows,
		SubmissionID:  in.SubmissionID,
		Language:      strings.ToUpper(string(b.Language)),
	}

	html, err := c.render("internal.html", view)
	if err != nil {
		return nil, err
	}
	return &Message{
		To:      c.cfg.InternalRecipients,
		Subject: view.Title,
		HTML:    html,
	}, nil
}

type consultationView struct {
	FirstName, LastName string
	Email, Phone        string
	Company             string
	HasScore            bool
	Score               int
	RequestedAt         string
}

func (c *Composer) consultationView(req *models.Consultation) consultationView {
	score, ok := req.Score()
	return consultationView{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		Company:     req.Company(),
		HasScore:    ok,
		Score:       score,
		RequestedAt: req.RequestedAt.In(c.cfg.Location).Format("1/2/2006, 3:04:05 PM"),
	}
}

// ConsultationAdmin builds the notification sent to the consultation team
func (c *Composer) ConsultationAdmin(req *models.Consultation) (*Message, error) {
	if len(c.cfg.ConsultationRecipients) == 0 {
		return nil, ErrNoRecipients
	}
	html, err := c.render("consultation_admin.html", c.consultationView(req))
	if err != nil {
		return nil, err
	}
	return &Message{
		To:      c.cfg.ConsultationRecipients,
		Subject: consultationAdminSubject,
		HTML:    html,
	}, nil
}

// ConsultationConfirmation builds the acknowledgement sent to the requester
func (c *Composer) ConsultationConfirmation(req *models.Consultation) (*Message, error) {
	html, err := c.render("consultation_confirmation.html", c.consultationView(req))
	if err != nil {
		return nil, err
	}
	return &Message{
		To:      []string{req.Email},
		ReplyTo: c.cfg.ConsultationReplyTo,
		Subject: consultationConfirmationSubject,
		HTML:    html,
	}, nil
}

func (c *Composer) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := c.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

func bundleOrDefault(b *catalog.Bundle) *catalog.Bundle {
	if b == nil {
		return catalog.NewBundle(models.DefaultLanguage, nil, nil)
	}
	return b
}

func align(lang models.Language) string {
	if lang.IsRTL() {
		return "right"
	}
	return "left"
}
