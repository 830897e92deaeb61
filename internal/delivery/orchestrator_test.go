package delivery

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/catalog"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/mail"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/models"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/report"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/services"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/storage"
)

var fixedNow = time.Date(2026, time.March, 4, 9, 30, 0, 0, time.UTC)

type fixture struct {
	orch   *Orchestrator
	sender *mail.Recorder
	store  *storage.MemoryRepository
	guard  *services.MemoryGuard
	cat    *catalog.Catalog
}

type fixtureOption func(*Deps)

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	cat, err := catalog.NewDefault()
	if err != nil {
		t.Fatalf("catalog.NewDefault failed: %v", err)
	}
	composer, err := mail.NewComposer(mail.ComposerConfig{
		InternalRecipients:     []string{"team@rsmsaudi.com"},
		ConsultationRecipients: []string{"advisors@rsmsaudi.com"},
	})
	if err != nil {
		t.Fatalf("mail.NewComposer failed: %v", err)
	}

	f := &fixture{
		sender: &mail.Recorder{},
		store:  storage.NewMemoryRepository(),
		guard:  services.NewMemoryGuard(10 * time.Minute),
		cat:    cat,
	}
	deps := Deps{
		Catalog:   cat,
		Composer:  composer,
		Sender:    f.sender,
		Store:     f.store,
		Guard:     f.guard,
		Assembler: report.NewAssembler(report.WithClock(func() time.Time { return fixedNow })),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	ids := 0
	f.orch, err = New(deps,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			ids++
			return "sub-" + string(rune('0'+ids))
		}),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return f
}

var jane = models.Respondent{Name: "Jane Doe", Email: "jane@acme.com", Company: "Acme", Position: "CSO"}

func allAnswers(t *testing.T, cat *catalog.Catalog, value string) models.AnswerSet {
	t.Helper()
	qs, err := cat.Questions(models.LanguageEnglish, nil)
	if err != nil {
		t.Fatalf("Questions failed: %v", err)
	}
	answers := models.AnswerSet{}
	for _, q := range qs {
		answers[q.ID] = value
	}
	return answers
}

func messagesTo(msgs []*mail.Message, addr string) []*mail.Message {
	var out []*mail.Message
	for _, m := range msgs {
		for _, to := range m.To {
			if to == addr {
				out = append(out, m)
			}
		}
	}
	return out
}

func TestSubmitEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.orch.Submit(ctx, models.SubmitRequest{
		PersonalInfo: jane,
		Answers:      allAnswers(t, f.cat, "d"),
		Language:     "en",
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if res.Score != 100 || res.MaxScore != 100 || res.Tier != models.TierAdvanced {
		t.Errorf("unexpected score: %d/%d %s", res.Score, res.MaxScore, res.Tier)
	}
	if res.Result != "Advanced Carbon Credit Readiness" {
		t.Errorf("unexpected result %q", res.Result)
	}
	if !res.SheetsUpdated || res.SheetsError != "" || res.Duplicate {
		t.Errorf("unexpected flags: %+v", res)
	}
	for _, d := range res.Deliveries {
		if d.Status != models.DeliverySent {
			t.Errorf("delivery %s = %s (%s)", d.Channel, d.Status, d.Error)
		}
	}

	msgs := f.sender.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected respondent and internal emails, got %d", len(msgs))
	}
	respondent := messagesTo(msgs, "jane@acme.com")
	if len(respondent) != 1 {
		t.Fatalf("expected one respondent email, got %d", len(respondent))
	}
	att := respondent[0].Attachments
	if len(att) != 1 || att[0].Name != "Acme_Carbon_Readiness_Report.pdf" || !bytes.HasPrefix(att[0].Data, []byte("%PDF-")) {
		t.Errorf("unexpected attachment %+v", att)
	}
	internal := messagesTo(msgs, "team@rsmsaudi.com")
	if len(internal) != 1 || len(internal[0].Attachments) != 0 {
		t.Errorf("expected one internal email without attachment")
	}

	header, _ := f.store.Header(ctx, storage.SheetAssessments)
	rows, _ := f.store.Rows(ctx, storage.SheetAssessments)
	if len(header) != 19 || len(rows) != 1 {
		t.Fatalf("expected 19-column header and one row, got %d columns, %d rows", len(header), len(rows))
	}
	row := rows[0]
	if row[0] != "2026-03-04T09:30:00.000Z" || row[1] != "Jane Doe" || row[5] != "100" || row[6] != "EN" {
		t.Errorf("unexpected row %v", row)
	}
}

func TestSubmitSheetFailureKeepsEmail(t *testing.T) {
	f := newFixture(t)
	f.store.Err = func(op, sheet string) error {
		if op == "append" {
			return errors.New("quota exceeded")
		}
		return nil
	}

	res, err := f.orch.Submit(context.Background(), models.SubmitRequest{
		PersonalInfo: jane,
		Answers:      allAnswers(t, f.cat, "b"),
		Language:     "en",
	})
	if err != nil {
		t.Fatalf("Submit must succeed when only the sheet fails: %v", err)
	}
	if res.SheetsUpdated || !strings.Contains(res.SheetsError, "quota exceeded") {
		t.Errorf("expected sheet failure to be reported, got %+v", res)
	}
	if len(messagesTo(f.sender.Messages(), "jane@acme.com")) != 1 {
		t.Error("respondent email must still be sent")
	}
}

func TestSubmitValidationHasNoSideEffects(t *testing.T) {
	tests := []struct {
		name  string
		req   func(answers models.AnswerSet) models.SubmitRequest
		field string
	}{
		{
			name: "free-mail address",
			req: func(answers models.AnswerSet) models.SubmitRequest {
				r := jane
				r.Email = "jane@gmail.com"
				return models.SubmitRequest{PersonalInfo: r, Answers: answers}
			},
			field: "personalInfo.email",
		},
		{
			name: "missing answer",
			req: func(answers models.AnswerSet) models.SubmitRequest {
				delete(answers, "q7")
				return models.SubmitRequest{PersonalInfo: jane, Answers: answers}
			},
			field: "answers.q7",
		},
		{
			name: "unknown domain",
			req: func(answers models.AnswerSet) models.SubmitRequest {
				return models.SubmitRequest{PersonalInfo: jane, Answers: answers, Domains: []string{"nope"}}
			},
			field: "domains",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.orch.Submit(context.Background(), tt.req(allAnswers(t, f.cat, "c")))

			var ve *models.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected validation error, got %v", err)
			}
			found := false
			for _, issue := range ve.Issues {
				if issue.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected an issue on %s, got %+v", tt.field, ve.Issues)
			}
			if len(f.sender.Messages()) != 0 {
				t.Error("no email may be sent for an invalid submission")
			}
			if rows, _ := f.store.Rows(context.Background(), storage.SheetAssessments); len(rows) != 0 {
				t.Error("no row may be appended for an invalid submission")
			}
		})
	}
}

func TestSubmitRespondentEmailFailure(t *testing.T) {
	f := newFixture(t)
	f.sender.Err = func(msg *mail.Message) error {
		if msg.To[0] == "jane@acme.com" {
			return errors.New("mailbox unavailable")
		}
		return nil
	}
	req := models.SubmitRequest{PersonalInfo: jane, Answers: allAnswers(t, f.cat, "a")}

	res, err := f.orch.Submit(context.Background(), req)
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
	if res == nil || find(res.Deliveries, models.ChannelInternalEmail).Status != models.DeliverySent {
		t.Error("internal email must be sent even when the respondent email fails")
	}

	// the claim is released so a retry is delivered
	f.sender.Err = nil
	res, err = f.orch.Submit(context.Background(), req)
	if err != nil || res.Duplicate {
		t.Errorf("retry after failure must be delivered, got %+v, %v", res, err)
	}
}

func TestSubmitMailDisabled(t *testing.T) {
	f := newFixture(t, func(d *Deps) {
		d.Sender = mail.Disabled{}
		d.Store = nil
	})

	res, err := f.orch.Submit(context.Background(), models.SubmitRequest{PersonalInfo: jane, Answers: allAnswers(t, f.cat, "c")})
	if err != nil {
		t.Fatalf("Submit must succeed with mail disabled: %v", err)
	}
	for _, d := range res.Deliveries {
		if d.Status != models.DeliverySkipped {
			t.Errorf("delivery %s = %s, want skipped", d.Channel, d.Status)
		}
	}
	if res.SheetsUpdated || res.SheetsError == "" {
		t.Errorf("expected sheet skip to be reported, got %+v", res)
	}
}

func TestSubmitDuplicate(t *testing.T) {
	f := newFixture(t)
	req := models.SubmitRequest{PersonalInfo: jane, Answers: allAnswers(t, f.cat, "c"), Language: "fr"}

	if _, err := f.orch.Submit(context.Background(), req); err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}
	res, err := f.orch.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("second Submit failed: %v", err)
	}
	if !res.Duplicate || len(res.Deliveries) != 0 {
		t.Errorf("expected duplicate acknowledgement, got %+v", res)
	}
	if len(f.sender.Messages()) != 2 {
		t.Errorf("duplicate must not be re-delivered, got %d emails", len(f.sender.Messages()))
	}
}

func TestSubmitUsesServerScore(t *testing.T) {
	f := newFixture(t)
	claimed := 100

	res, err := f.orch.Submit(context.Background(), models.SubmitRequest{
		PersonalInfo: jane,
		Answers:      allAnswers(t, f.cat, "a"),
		Score:        &claimed,
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if res.Score != 0 || res.Tier != models.TierImmediateAction {
		t.Errorf("expected the server score 0, got %d (%s)", res.Score, res.Tier)
	}
}

type failingRenderer struct{}

func (failingRenderer) Render(io.Writer, *report.Report) error { return errors.New("font missing") }
func (failingRenderer) ContentType() string { return "application/pdf" }

func TestSubmitRenderFailureSendsWithoutAttachment(t *testing.T) {
	f := newFixture(t, func(d *Deps) { d.Renderer = failingRenderer{} })

	res, err := f.orch.Submit(context.Background(), models.SubmitRequest{PersonalInfo: jane, Answers: allAnswers(t, f.cat, "d")})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if o := find(res.Deliveries, models.ChannelReport); o.Status != models.DeliveryFailed {
		t.Errorf("expected failed report outcome, got %+v", o)
	}
	msgs := messagesTo(f.sender.Messages(), "jane@acme.com")
	if len(msgs) != 1 || len(msgs[0].Attachments) != 0 {
		t.Error("respondent email must be sent without attachment")
	}
}

func TestSubmitArabicKeepsStableHeader(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.orch.Submit(ctx, models.SubmitRequest{PersonalInfo: jane, Answers: allAnswers(t, f.cat, "d"), Language: "ar"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if res.Score != 100 || res.Result != "جاهزية متقدمة لأرصدة الكربون" {
		t.Errorf("unexpected arabic result: %d %q", res.Score, res.Result)
	}

	enQuestions, _ := f.cat.Questions(models.LanguageEnglish, nil)
	header, _ := f.store.Header(ctx, storage.SheetAssessments)
	if want := storage.AssessmentHeader(enQuestions); strings.Join(header, "|") != strings.Join(want, "|") {
		t.Errorf("header must use default-language text, got %v", header)
	}
	rows, _ := f.store.Rows(ctx, storage.SheetAssessments)
	if rows[0][6] != "AR" {
		t.Errorf("language cell = %q, want AR", rows[0][6])
	}
}

func TestSubmitScoreIsLanguageIndependent(t *testing.T) {
	answers := models.AnswerSet{"q1": "d", "q2": "b", "q4": "c", "q5": "a", "q6": "d", "q7": "b",
		"q8": "c", "q9": "d", "q10": "a", "q11": "b", "q12": "c", "q3": "a"}

	var scores []int
	for _, lang := range []string{"en", "fr", "ar"} {
		f := newFixture(t)
		res, err := f.orch.Submit(context.Background(), models.SubmitRequest{PersonalInfo: jane, Answers: answers, Language: lang})
		if err != nil {
			t.Fatalf("Submit(%s) failed: %v", lang, err)
		}
		scores = append(scores, res.Score)
	}
	if scores[0] != scores[1] || scores[0] != scores[2] {
		t.Errorf("scores differ across languages: %v", scores)
	}
}

func TestGenerateReport(t *testing.T) {
	f := newFixture(t)

	art, err := f.orch.GenerateReport(context.Background(), models.SubmitRequest{
		PersonalInfo: models.Respondent{Name: "Jane Doe", Email: "jane@gmail.com", Company: "Acme Holdings"},
		Answers:      models.AnswerSet{"q1": "d"},
		Language:     "fr",
	})
	if err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}
	if art.Filename != "Acme_Holdings_Carbon_Readiness_Report.pdf" || art.ContentType != "application/pdf" {
		t.Errorf("unexpected artifact %q %q", art.Filename, art.ContentType)
	}
	if !bytes.HasPrefix(art.Data, []byte("%PDF-")) {
		t.Error("artifact is not a PDF")
	}
	if len(f.sender.Messages()) != 0 {
		t.Error("report generation must not send email")
	}

	_, err = f.orch.GenerateReport(context.Background(), models.SubmitRequest{PersonalInfo: models.Respondent{Name: "Jane"}})
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestReportFilename(t *testing.T) {
	tests := []struct {
		company, want string
	}{
		{"Acme", "Acme_Carbon_Readiness_Report.pdf"},
		{" Acme  Co ", "Acme__Co_Carbon_Readiness_Report.pdf"},
		{`A/B "C"`, "AB_C_Carbon_Readiness_Report.pdf"},
		{"", "Assessment_Carbon_Readiness_Report.pdf"},
	}
	for _, tt := range tests {
		if got := ReportFilename(tt.company); got != tt.want {
			t.Errorf("ReportFilename(%q) = %q, want %q", tt.company, got, tt.want)
		}
	}
}

func TestBookConsultation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	score := 72

	res, err := f.orch.BookConsultation(ctx, models.Consultation{
		FirstName: "Omar",
		LastName:  "Haddad",
		Email:     "omar@acme.com",
		Phone:     "+966 555 0100",
		Context:   &models.ConsultationContext{PersonalInfo: &jane, Score: &score},
	})
	if err != nil {
		t.Fatalf("BookConsultation failed: %v", err)
	}
	if !res.SheetsUpdated || res.Message != consultationMessage {
		t.Errorf("unexpected result %+v", res)
	}
	if len(messagesTo(f.sender.Messages(), "advisors@rsmsaudi.com")) != 1 || len(messagesTo(f.sender.Messages(), "omar@acme.com")) != 1 {
		t.Error("expected admin and confirmation emails")
	}
	rows, _ := f.store.Rows(ctx, storage.SheetConsultations)
	if len(rows) != 1 || rows[0][5] != "Acme" || rows[0][6] != "72" {
		t.Errorf("unexpected consultation rows %v", rows)
	}
}

func TestBookConsultationFailures(t *testing.T) {
	f := newFixture(t)
	f.sender.Err = func(msg *mail.Message) error {
		if msg.To[0] == "advisors@rsmsaudi.com" {
			return errors.New("relay denied")
		}
		return nil
	}
	req := models.Consultation{FirstName: "Omar", LastName: "Haddad", Email: "omar@acme.com", Phone: "5550100"}

	res, err := f.orch.BookConsultation(context.Background(), req)
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
	if find(res.Deliveries, models.ChannelConfirmationEmail).Status != models.DeliverySent {
		t.Error("confirmation email must be sent independently")
	}

	req.Phone = "123"
	_, err = f.orch.BookConsultation(context.Background(), req)
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected validation error for short phone, got %v", err)
	}
}

func TestNewRequiresCatalogAndComposer(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Error("expected an error without catalog")
	}
}
