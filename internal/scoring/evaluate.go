package scoring

import "github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/models"

// Evaluation is everything shown about a set of answers while the assessment is in progress
type Evaluation struct {
	Result
	MaxScore int           `json:"maxScore"`
	Complete bool          `json:"complete"`
	Missing  []string      `json:"missing,omitempty"`
	Gauge    GaugeReading  `json:"gauge"`
	Domains  []DomainScore `json:"domains"`
}

// Evaluate scores answers against the active questions. Partial answer sets are
// allowed; unanswered questions are listed in Missing.
func Evaluate(questions []models.Question, answers models.AnswerSet, r Resolver) Evaluation {
	score := Score(questions, answers)
	missing := Missing(questions, answers)
	return Evaluation{
		Result:   Describe(score, r),
		MaxScore: MaxScore(questions),
		Complete: len(missing) == 0,
		Missing:  missing,
		Gauge:    Gauge(score, r),
		Domains:  Breakdown(questions, answers),
	}
}
