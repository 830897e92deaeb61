package scoring

import "github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/models"

// Score sums the points of the selected option of every active question.
// Unanswered questions and values that match no option contribute 0.
// Answers for questions outside the active list are ignored.
func Score(questions []models.Question, answers models.AnswerSet) int {
	total := 0
	for i := range questions {
		value, ok := answers[questions[i].ID]
		if !ok {
			continue
		}
		if opt := questions[i].Option(value); opt != nil {
			total += opt.Points
		}
	}
	return total
}

// MaxScore is the highest score reachable over the given questions
func MaxScore(questions []models.Question) int {
	total := 0
	for i := range questions {
		total += questions[i].MaxPoints()
	}
	return total
}

// Missing returns the IDs of active questions that have no answer, in catalog order
func Missing(questions []models.Question, answers models.AnswerSet) []string {
	var missing []string
	for _, q := range questions {
		if v, ok := answers[q.ID]; !ok || v == "" {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

// Breakdown reports points earned per domain, in first-seen catalog order
func Breakdown(questions []models.Question, answers models.AnswerSet) []DomainScore {
	var result []DomainScore
	index := make(map[string]int)

	for i := range questions {
		q := &questions[i]
		idx, ok := index[q.Domain]
		if !ok {
			idx = len(result)
			index[q.Domain] = idx
			result = append(result, DomainScore{Domain: q.Domain})
		}

		result[idx].MaxPoints += q.MaxPoints()
		if opt := q.Option(answers[q.ID]); opt != nil {
			result[idx].Points += opt.Points
		}
	}
	return result
}

// DomainScore is the contribution of one readiness dimension
type DomainScore struct {
	Domain    string `json:"domain"`
	Points    int    `json:"points"`
	MaxPoints int    `json:"maxPoints"`
}
