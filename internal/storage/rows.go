package storage

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/models"
)

// headerTextLimit is how many characters of a question's text go into its column title
const headerTextLimit = 50

// timestampLayout matches JavaScript's Date.toISOString output
const timestampLayout = "2006-01-02T15:04:05.000Z"

// ColumnToLetter converts a 1-based column number to its spreadsheet letters (1 -> A, 27 -> AA)
func ColumnToLetter(column int) string {
	var letters []byte
	for column > 0 {
		rem := (column - 1) % 26
		letters = append([]byte{byte('A' + rem)}, letters...)
		column = (column - rem - 1) / 26
	}
	return string(letters)
}

// AssessmentHeader builds the header of the assessment sheet.
// Question columns are titled from the given (default language) question texts.
func AssessmentHeader(questions []models.Question) []string {
	header := []string{"Timestamp", "Name", "Email", "Company", "Position", "Score", "Language"}
	for _, q := range questions {
		header = append(header, "Q"+strings.TrimPrefix(q.ID, "q")+" - "+truncate(q.Text, headerTextLimit)+"...")
	}
	return header
}

// AssessmentRow builds one assessment sheet row. Each question cell holds the
// label of the selected option, or "" when unanswered or unknown.
func AssessmentRow(sub *models.Submission, questions []models.Question, score int, at time.Time) []string {
	r := sub.Respondent
	row := []string{
		at.UTC().Format(timestampLayout),
		r.Name,
		r.Email,
		r.Company,
		r.Position,
		strconv.Itoa(score),
		strings.ToUpper(string(sub.Language)),
	}
	for i := range questions {
		cell := ""
		if opt := questions[i].Option(sub.Answers[questions[i].ID]); opt != nil {
			cell = opt.Label
		}
		row = append(row, cell)
	}
	return row
}

// ConsultationHeader is the header of the consultation sheet
func ConsultationHeader() []string {
	return []string{"Timestamp", "First Name", "Last Name", "Email", "Phone", "Company", "Score"}
}

// ConsultationRow builds one consultation sheet row
func ConsultationRow(c *models.Consultation, at time.Time) []string {
	score := ""
	if s, ok := c.Score(); ok {
		score = strconv.Itoa(s)
	}
	return []string{
		at.UTC().Format(timestampLayout),
		c.FirstName,
		c.LastName,
		c.Email,
		c.Phone,
		c.Company(),
		score,
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
