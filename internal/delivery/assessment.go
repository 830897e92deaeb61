package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/catalog"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/mail"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/models"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/report"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/scoring"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/services"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/storage"
)

const (
	submittedMessage = "Assessment results sent successfully"
	duplicateMessage = "Assessment results were already sent"
)

// SubmitResult is the acknowledgement of a submitted assessment
type SubmitResult struct {
	SubmissionID  string                   `json:"submissionId"`
	Score         int                      `json:"score"`
	MaxScore      int                      `json:"maxScore"`
	Tier          models.Tier              `json:"tier"`
	Result        string                   `json:"result"`
	Suggestion    string                   `json:"suggestion"`
	Message       string                   `json:"message"`
	SheetsUpdated bool                     `json:"sheetsUpdated"`
	SheetsError   string                   `json:"sheetsError,omitempty"`
	Deliveries    []models.DeliveryOutcome `json:"deliveries"`
	Duplicate     bool                     `json:"duplicate"`
}

// Artifact is a rendered report ready for download or attachment
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// assessment is a request resolved against the catalog
type assessment struct {
	sub       *models.Submission
	questions []models.Question
	bundle    *catalog.Bundle
	score     int
	maxScore  int
	result    scoring.Result
}

// resolve picks the language and active questions and scores the answers on the server
func (o *Orchestrator) resolve(req models.SubmitRequest) (*assessment, error) {
	lang := catalog.Match(req.Language)
	questions, err := o.catalog.Questions(lang, req.Domains)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, &models.ValidationError{Issues: []models.FieldIssue{
			{Field: "domains", Message: "no questions match the selected domains"},
		}}
	}

	bundle := o.catalog.Bundle(lang)
	score := scoring.Score(questions, req.Answers)

	return &assessment{
		sub: &models.Submission{
			ID:          o.newID(),
			Respondent:  trimRespondent(req.PersonalInfo),
			Answers:     req.Answers.Clone(),
			Language:    lang,
			Domains:     req.Domains,
			ClientScore: req.Score,
			SubmittedAt: o.now(),
		},
		questions: questions,
		bundle:    bundle,
		score:     score,
		maxScore:  scoring.MaxScore(questions),
		result:    scoring.Describe(score, bundle),
	}, nil
}

// Submit validates an assessment, scores it and delivers it: the respondent email with
// the PDF report, the internal notification and the tabular append run concurrently.
// The request succeeds when the respondent email was sent or mail is disabled.
func (o *Orchestrator) Submit(ctx context.Context, req models.SubmitRequest) (*SubmitResult, error) {
	ctx, span := o.tracer.Start(ctx, "delivery.Submit")
	defer span.End()

	a, err := o.resolve(req)
	if err != nil {
		return nil, err
	}
	sub := a.sub

	err = models.JoinValidation(
		sub.Respondent.Validate(),
		models.RequireAnswers(scoring.Missing(a.questions, sub.Answers)),
	)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("submission.id", sub.ID),
		attribute.String("submission.language", string(sub.Language)),
		attribute.Int("submission.score", a.score),
	)

	if sub.ClientScore != nil && *sub.ClientScore != a.score {
		slog.Warn("client score differs from server score",
			"submission_id", sub.ID,
			"client_score", *sub.ClientScore,
			"server_score", a.score,
		)
	}

	result := &SubmitResult{
		SubmissionID: sub.ID,
		Score:        a.score,
		MaxScore:     a.maxScore,
		Tier:         a.result.Tier,
		Result:       a.result.Label,
		Suggestion:   a.result.Suggestion,
	}

	fingerprint := sub.Fingerprint()
	if err := o.guard.Claim(ctx, fingerprint); err != nil {
		if errors.Is(err, services.ErrDuplicate) {
			slog.Info("duplicate submission acknowledged without delivery", "submission_id", sub.ID)
			result.Duplicate = true
			result.Message = duplicateMessage
			return result, nil
		}
		slog.Warn("dedupe guard unavailable, delivering anyway", "submission_id", sub.ID, "error", err)
	}

	rep := o.assembler.Build(report.Input{
		Respondent: sub.Respondent,
		Answers:    sub.Answers,
		Score:      a.score,
		Questions:  a.questions,
		Bundle:     a.bundle,
	})

	var attachment *mail.Attachment
	artifact, renderErr := o.render(rep, sub.Respondent.Company)
	if renderErr != nil {
		slog.Error("failed to render report, sending email without attachment",
			"submission_id", sub.ID, "error", renderErr)
	} else {
		attachment = &mail.Attachment{Name: artifact.Filename, ContentType: artifact.ContentType, Data: artifact.Data}
	}

	outcomes := o.runEffects(ctx, sub.ID, []effect{
		{channel: models.ChannelRespondentEmail, run: func(ctx context.Context) error {
			msg, err := o.composer.Respondent(mail.RespondentInput{
				Respondent: sub.Respondent,
				Result:     a.result,
				MaxScore:   a.maxScore,
				Bundle:     a.bundle,
				Report:     attachment,
			})
			if err != nil {
				return err
			}
			return o.sender.Send(ctx, msg)
		}},
		{channel: models.ChannelInternalEmail, run: func(ctx context.Context) error {
			msg, err := o.composer.Internal(mail.InternalInput{
				SubmissionID: sub.ID,
				Respondent:   sub.Respondent,
				Result:       a.result,
				MaxScore:     a.maxScore,
				Rows:         mailRows(rep),
				Bundle:       a.bundle,
			})
			if err != nil {
				return err
			}
			return o.sender.Send(ctx, msg)
		}},
		{channel: models.ChannelSheet, run: func(ctx context.Context) error {
			return o.appendAssessment(ctx, sub, a.score)
		}},
	})
	if renderErr != nil {
		outcomes = append(outcomes, models.DeliveryOutcome{
			Channel: models.ChannelReport,
			Status:  models.DeliveryFailed,
			Error:   renderErr.Error(),
		})
	}

	result.Deliveries = outcomes
	result.SheetsUpdated, result.SheetsError = sheetStatus(outcomes)
	result.Message = submittedMessage

	if primary := find(outcomes, models.ChannelRespondentEmail); !primary.OK() {
		if err := o.guard.Release(ctx, fingerprint); err != nil {
			slog.Warn("failed to release dedupe claim", "submission_id", sub.ID, "error", err)
		}
		return result, fmt.Errorf("%w: respondent email: %s", ErrDeliveryFailed, primary.Error)
	}

	slog.Info("assessment submitted",
		"submission_id", sub.ID,
		"language", sub.Language,
		"score", a.score,
		"tier", a.result.Tier,
		"sheets_updated", result.SheetsUpdated,
	)
	return result, nil
}

// appendAssessment reconciles the assessment sheet header and appends the submission.
// The header always lists every question in the default language so it stays stable
// across languages and domain selections.
func (o *Orchestrator) appendAssessment(ctx context.Context, sub *models.Submission, score int) error {
	headerQuestions, err := o.catalog.Questions(models.DefaultLanguage, nil)
	if err != nil {
		return err
	}
	rowQuestions, err := o.catalog.Questions(sub.Language, nil)
	if err != nil {
		return err
	}

	if err := o.store.EnsureHeader(ctx, storage.SheetAssessments, storage.AssessmentHeader(headerQuestions)); err != nil {
		return err
	}
	return o.store.Append(ctx, storage.SheetAssessments, storage.AssessmentRow(sub, rowQuestions, score, sub.SubmittedAt))
}

// GenerateReport renders the PDF report of an assessment without any side effect
func (o *Orchestrator) GenerateReport(ctx context.Context, req models.SubmitRequest) (*Artifact, error) {
	_, span := o.tracer.Start(ctx, "delivery.GenerateReport")
	defer span.End()

	a, err := o.resolve(req)
	if err != nil {
		return nil, err
	}
	if err := models.RequireReportFields(a.sub.Respondent, a.sub.Answers); err != nil {
		return nil, err
	}

	rep := o.assembler.Build(report.Input{
		Respondent: a.sub.Respondent,
		Answers:    a.sub.Answers,
		Score:      a.score,
		Questions:  a.questions,
		Bundle:     a.bundle,
	})

	artifact, err := o.render(rep, a.sub.Respondent.Company)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("report.bytes", len(artifact.Data)))
	return artifact, nil
}

func (o *Orchestrator) render(rep *report.Report, company string) (*Artifact, error) {
	var buf bytes.Buffer
	if err := o.renderer.Render(&buf, rep); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return &Artifact{
		Filename:    ReportFilename(company),
		ContentType: o.renderer.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}

// ReportFilename names the report file after the respondent's company
func ReportFilename(company string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return '_'
		case r == '"' || r == '/' || r == '\\' || r == ':' || unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(company))
	if name == "" {
		name = "Assessment"
	}
	return name + "_Carbon_Readiness_Report.pdf"
}

func mailRows(rep *report.Report) []mail.Row {
	rows := rep.Rows()
	out := make([]mail.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, mail.Row{Question: r.Question, Answer: r.Answer})
	}
	return out
}

func trimRespondent(r models.Respondent) models.Respondent {
	return models.Respondent{
		Name:     strings.TrimSpace(r.Name),
		Email:    strings.TrimSpace(r.Email),
		Company:  strings.TrimSpace(r.Company),
		Position: strings.TrimSpace(r.Position),
	}
}
