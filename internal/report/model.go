package report

import (
	"time"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/models"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/scoring"
)

// PageKind distinguishes the summary page from question/answer pages
type PageKind string

const (
	PageSummary PageKind = "summary"
	PageAnswers PageKind = "answers"
)

// Report is the format-agnostic, paginated presentation of one completed assessment
type Report struct {
	Language    models.Language `json:"language"`
	Direction   string          `json:"direction"`
	Letterhead  Letterhead      `json:"letterhead"`
	Respondent  InfoBlock       `json:"respondent"`
	Score       ScoreBlock      `json:"score"`
	Pages       []Page          `json:"pages"`
	Footer      Footer          `json:"footer"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

// Letterhead is printed at the top of the summary page
type Letterhead struct {
	Organization string `json:"organization"`
	Tagline      string `json:"tagline"`
	Title        string `json:"title"`
	Date         string `json:"date"`
}

// InfoBlock is a titled list of label/value pairs
type InfoBlock struct {
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

// Field is one labelled value
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ScoreBlock summarizes the score and its tier
type ScoreBlock struct {
	Label      string                `json:"label"`
	Value      int                   `json:"value"`
	Max        int                   `json:"max"`
	Tier       models.Tier           `json:"tier"`
	Result     string                `json:"result"`
	Suggestion string                `json:"suggestion"`
	Gauge      scoring.GaugeReading  `json:"gauge"`
	Domains    []scoring.DomainScore `json:"domains,omitempty"`
	BookingURL string                `json:"bookingUrl,omitempty"`
}

// Footer closes the last page
type Footer struct {
	Copyright string `json:"copyright"`
	Tagline   string `json:"tagline"`
}

// Page is one page of the report. The summary page carries no rows.
type Page struct {
	Number     int          `json:"number"`
	Kind       PageKind     `json:"kind"`
	Title      string       `json:"title,omitempty"`
	Header     *TableHeader `json:"header,omitempty"`
	Rows       []Row        `json:"rows,omitempty"`
	ShowFooter bool         `json:"showFooter"`
}

// TableHeader labels the question/answer columns
type TableHeader struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Row is one answered question. Index is global across pages and drives alternating shading.
type Row struct {
	Index      int    `json:"index"`
	QuestionID string `json:"questionId"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Context    string `json:"context,omitempty"`
	Resolved   bool   `json:"resolved"`
}

// Shaded reports whether the row gets the alternate background
func (r Row) Shaded() bool {
	return r.Index%2 == 1
}

// AnswerPages returns the question/answer pages in order
func (r *Report) AnswerPages() []Page {
	var pages []Page
	for _, p := range r.Pages {
		if p.Kind == PageAnswers {
			pages = append(pages, p)
		}
	}
	return pages
}

// Rows returns every row across all pages in order
func (r *Report) Rows() []Row {
	var rows []Row
	for _, p := range r.Pages {
		rows = append(rows, p.Rows...)
	}
	return rows
}
