package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/catalog"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/models"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/scoring"
)

// DefaultRowsPerPage is the number of question rows printed per answers page
const DefaultRowsPerPage = 11

// Assembler builds Report values from a completed assessment
type Assembler struct {
	rowsPerPage int
	now         func() time.Time
}

// Option configures an Assembler
type Option func(*Assembler)

// WithRowsPerPage sets the page capacity of the question table
func WithRowsPerPage(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.rowsPerPage = n
		}
	}
}

// WithClock sets the time source used for the report date
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		a.now = now
	}
}

// NewAssembler creates an assembler with the default layout
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		rowsPerPage: DefaultRowsPerPage,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Input is everything the assembler needs for one report
type Input struct {
	Respondent models.Respondent
	Answers    models.AnswerSet
	Score      int
	Questions  []models.Question
	Bundle     *catalog.Bundle
}

// Build assembles the report. It never fails: lookups that miss render placeholders.
func (a *Assembler) Build(in Input) *Report {
	b := in.Bundle
	if b == nil {
		b = catalog.NewBundle(models.DefaultLanguage, nil, nil)
	}
	now := a.now()
	result := scoring.Describe(in.Score, b)

	rep := &Report{
		Language:  b.Language,
		Direction: b.Language.Direction(),
		Letterhead: Letterhead{
			Organization: b.Resolve(catalog.KeyOrganization),
			Tagline:      b.Resolve(catalog.KeyTagline),
			Title:        b.Resolve(catalog.KeyPDFAssessmentResults),
			Date:         b.FormatDate(now),
		},
		Respondent: InfoBlock{
			Title: b.Resolve(catalog.KeyPDFPersonalInfo),
			Fields: []Field{
				{Label: b.Resolve(catalog.KeyPDFName), Value: in.Respondent.Name},
				{Label: b.Resolve(catalog.KeyPDFEmail), Value: in.Respondent.Email},
				{Label: b.Resolve(catalog.KeyPDFCompany), Value: in.Respondent.Company},
				{Label: b.Resolve(catalog.KeyPDFPosition), Value: in.Respondent.Position},
			},
		},
		Score: ScoreBlock{
			Label:      b.Resolve(catalog.KeyPDFScore),
			Value:      in.Score,
			Max:        scoring.MaxScore(in.Questions),
			Tier:       result.Tier,
			Result:     result.Label,
			Suggestion: result.Suggestion,
			Gauge:      scoring.Gauge(in.Score, b),
			Domains:    scoring.Breakdown(in.Questions, in.Answers),
			BookingURL: b.Resolve(catalog.KeyBookAppointmentURL),
		},
		Footer: Footer{
			Copyright: fmt.Sprintf("© %d %s. %s", now.Year(), b.Resolve(catalog.KeyOrganization), b.Resolve(catalog.KeyPDFRights)),
			Tagline:   b.Resolve(catalog.KeyTagline),
		},
		GeneratedAt: now,
	}

	rows := a.rows(in, b)
	rep.Pages = append(rep.Pages, Page{Number: 1, Kind: PageSummary, ShowFooter: len(rows) == 0})

	chunks := chunk(rows, a.rowsPerPage)
	for i, c := range chunks {
		page := Page{
			Number:     i + 2,
			Kind:       PageAnswers,
			Rows:       c,
			ShowFooter: i == len(chunks)-1,
		}
		if i == 0 {
			page.Title = b.Resolve(catalog.KeyPDFDetails)
			page.Header = &TableHeader{
				Question: b.Resolve(catalog.KeyPDFQuestion),
				Answer:   b.Resolve(catalog.KeyPDFAnswer),
			}
		}
		rep.Pages = append(rep.Pages, page)
	}

	return rep
}

// rows lists answered questions in catalog order, then answers whose question the
// catalog does not know, sorted by ID
func (a *Assembler) rows(in Input, b *catalog.Bundle) []Row {
	unknownQuestion := b.Resolve(catalog.KeyUnknownQuestion)
	unknownAnswer := b.Resolve(catalog.KeyUnknownAnswer)

	rows := make([]Row, 0, len(in.Answers))
	known := make(map[string]bool, len(in.Questions))

	for i := range in.Questions {
		q := &in.Questions[i]
		known[q.ID] = true

		value, ok := in.Answers[q.ID]
		if !ok {
			continue
		}

		row := Row{QuestionID: q.ID, Question: q.Text, Answer: unknownAnswer}
		if opt := q.Option(value); opt != nil {
			row.Answer = opt.Label
			row.Context = opt.ReportContext
			row.Resolved = true
		}
		rows = append(rows, row)
	}

	var stray []string
	for id := range in.Answers {
		if !known[id] {
			stray = append(stray, id)
		}
	}
	sort.Strings(stray)
	for _, id := range stray {
		rows = append(rows, Row{QuestionID: id, Question: unknownQuestion, Answer: unknownAnswer})
	}

	for i := range rows {
		rows[i].Index = i
	}
	return rows
}

func chunk(rows []Row, size int) [][]Row {
	var chunks [][]Row
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		chunks = append(chunks, rows[start:end])
	}
	return chunks
}
