package scoring

import (
	"reflect"
	"testing"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/catalog"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/models"
)

type mapResolver map[string]string

func (m mapResolver) Resolve(key string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return key
}

func fiveQuestions() []models.Question {
	maxima := []int{30, 25, 20, 15, 10}
	domains := []string{"market", "strategy", "governance", "measurement", "finance"}
	qs := make([]models.Question, len(maxima))
	for i, max := range maxima {
		qs[i] = models.Question{
			ID:     "q" + string(rune('1'+i)),
			Domain: domains[i],
			Text:   "Question " + string(rune('1'+i)),
			Options: []models.Option{
				{Value: "none", Label: "None", Points: 0},
				{Value: "some", Label: "Some", Points: max / 2},
				{Value: "full", Label: "Full", Points: max},
			},
		}
	}
	return qs
}

func TestScore(t *testing.T) {
	qs := fiveQuestions()

	tests := []struct {
		name    string
		answers models.AnswerSet
		want    int
	}{
		{"all maximum", models.AnswerSet{"q1": "full", "q2": "full", "q3": "full", "q4": "full", "q5": "full"}, 100},
		{"all minimum", models.AnswerSet{"q1": "none", "q2": "none", "q3": "none", "q4": "none", "q5": "none"}, 0},
		{"mixed", models.AnswerSet{"q1": "full", "q2": "some", "q3": "none", "q4": "some", "q5": "full"}, 30 + 12 + 0 + 7 + 10},
		{"unanswered contributes zero", models.AnswerSet{"q1": "full"}, 30},
		{"stale value contributes zero", models.AnswerSet{"q1": "bogus", "q2": "full"}, 25},
		{"unknown question ignored", models.AnswerSet{"q9": "full", "q5": "full"}, 10},
		{"empty", models.AnswerSet{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(qs, tt.answers)
			if got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
			if got < 0 || got > MaxScore(qs) {
				t.Errorf("Score() = %d outside [0, %d]", got, MaxScore(qs))
			}
			if again := Score(qs, tt.answers); again != got {
				t.Errorf("Score() not idempotent: %d then %d", got, again)
			}
		})
	}
}

func TestScoreIgnoresFilteredQuestions(t *testing.T) {
	qs := fiveQuestions()[:2]
	answers := models.AnswerSet{"q1": "full", "q2": "full", "q3": "full"}

	if got := Score(qs, answers); got != 55 {
		t.Errorf("Score() = %d, want 55", got)
	}
}

func TestScoreOrderIndependent(t *testing.T) {
	qs := fiveQuestions()
	reversed := make([]models.Question, len(qs))
	for i := range qs {
		reversed[len(qs)-1-i] = qs[i]
	}
	answers := models.AnswerSet{"q1": "some", "q2": "full", "q3": "some", "q4": "none", "q5": "full"}

	if a, b := Score(qs, answers), Score(reversed, answers); a != b {
		t.Errorf("Score depends on order: %d vs %d", a, b)
	}
}

func TestMaxScoreAndMissing(t *testing.T) {
	qs := fiveQuestions()
	if got := MaxScore(qs); got != 100 {
		t.Errorf("MaxScore() = %d, want 100", got)
	}

	missing := Missing(qs, models.AnswerSet{"q1": "full", "q3": "", "q4": "none"})
	want := []string{"q2", "q3", "q5"}
	if !reflect.DeepEqual(missing, want) {
		t.Errorf("Missing() = %v, want %v", missing, want)
	}
}

func TestBreakdown(t *testing.T) {
	qs := fiveQuestions()
	got := Breakdown(qs, models.AnswerSet{"q1": "full", "q2": "some"})

	if len(got) != 5 {
		t.Fatalf("expected 5 domains, got %d", len(got))
	}
	if got[0] != (DomainScore{Domain: "market", Points: 30, MaxPoints: 30}) {
		t.Errorf("unexpected market breakdown: %+v", got[0])
	}
	if got[1] != (DomainScore{Domain: "strategy", Points: 12, MaxPoints: 25}) {
		t.Errorf("unexpected strategy breakdown: %+v", got[1])
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		score int
		want  models.Tier
	}{
		{"advanced - exact boundary", 85, models.TierAdvanced},
		{"advanced - maximum", 100, models.TierAdvanced},
		{"advanced - above scale", 140, models.TierAdvanced},
		{"aligned - upper range", 84, models.TierAligned},
		{"aligned - exact boundary", 65, models.TierAligned},
		{"basic - upper range", 64, models.TierBasic},
		{"basic - exact boundary", 35, models.TierBasic},
		{"immediate action - boundary", 34, models.TierImmediateAction},
		{"immediate action - zero", 0, models.TierImmediateAction},
		{"immediate action - negative", -5, models.TierImmediateAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.score); got != tt.want {
				t.Errorf("Classify(%d) = %q, want %q", tt.score, got, tt.want)
			}
		})
	}
}

func TestClassifyIsTotalAndMonotonic(t *testing.T) {
	prev := -1
	for score := 0; score <= MaxScale; score++ {
		tier := Classify(score)
		if !tier.IsValid() {
			t.Fatalf("Classify(%d) returned invalid tier %q", score, tier)
		}
		if tier.Rank() < prev {
			t.Fatalf("tier rank decreased at score %d", score)
		}
		prev = tier.Rank()
	}
}

func TestDescribe(t *testing.T) {
	r := mapResolver{
		"resultTexts.advanced": "Advanced Carbon Credit Readiness",
		"suggestions.advanced": "Keep going",
		"resultTexts.urgent":   "Immediate Action Required",
	}

	got := Describe(100, r)
	if got.Tier != models.TierAdvanced || got.Label != "Advanced Carbon Credit Readiness" || got.Suggestion != "Keep going" {
		t.Errorf("unexpected result: %+v", got)
	}

	got = Describe(34, r)
	if got.Tier != models.TierImmediateAction || got.Label != "Immediate Action Required" {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestGauge(t *testing.T) {
	if got := Stops(); !reflect.DeepEqual(got, []int{0, 35, 65, 85, 100}) {
		t.Errorf("Stops() = %v", got)
	}
	if got := Segments(); !reflect.DeepEqual(got, []string{"critical", "poor", "fair", "good"}) {
		t.Errorf("Segments() = %v", got)
	}

	r := mapResolver{"speedometer.fair": "Fair"}
	g := Gauge(70, r)
	if g.Segment != "fair" || g.Label != "Fair" {
		t.Errorf("unexpected gauge: %+v", g)
	}
	if g.Angle != 126 {
		t.Errorf("Angle = %v, want 126", g.Angle)
	}

	if g := Gauge(150, r); g.Value != 100 || g.Segment != "good" {
		t.Errorf("expected clamped full gauge, got %+v", g)
	}
}

func TestTierKey(t *testing.T) {
	if TierKey(models.TierAligned) != "solid" || TierKey(models.TierImmediateAction) != "urgent" {
		t.Error("unexpected tier keys")
	}
}

func TestScoreAgreesAcrossLanguages(t *testing.T) {
	c, err := catalog.NewDefault()
	if err != nil {
		t.Fatalf("catalog.NewDefault failed: %v", err)
	}

	en, _ := c.Questions(models.LanguageEnglish, nil)
	ar, _ := c.Questions(models.LanguageArabic, nil)
	fr, _ := c.Questions(models.LanguageFrench, nil)

	answers := models.AnswerSet{}
	values := []string{"a", "b", "c", "d"}
	for i, q := range en {
		answers[q.ID] = values[i%len(values)]
	}

	want := Score(en, answers)
	if got := Score(ar, answers); got != want {
		t.Errorf("arabic score = %d, english score = %d", got, want)
	}
	if got := Score(fr, answers); got != want {
		t.Errorf("french score = %d, english score = %d", got, want)
	}
}

func TestEvaluatePartial(t *testing.T) {
	qs := fiveQuestions()
	ev := Evaluate(qs, models.AnswerSet{"q1": "full", "q2": "some"}, mapResolver{})

	if ev.Score != 42 || ev.MaxScore != 100 || ev.Tier != models.TierBasic {
		t.Errorf("unexpected evaluation %+v", ev)
	}
	if ev.Complete || !reflect.DeepEqual(ev.Missing, []string{"q3", "q4", "q5"}) {
		t.Errorf("missing = %v, complete = %v", ev.Missing, ev.Complete)
	}
	if ev.Gauge.Segment != "poor" || len(ev.Domains) != 5 {
		t.Errorf("unexpected gauge or domains: %+v %+v", ev.Gauge, ev.Domains)
	}

	full := Evaluate(qs, models.AnswerSet{"q1": "full", "q2": "full", "q3": "full", "q4": "full", "q5": "full"}, mapResolver{})
	if !full.Complete || full.Missing != nil || full.Score != 100 {
		t.Errorf("unexpected complete evaluation %+v", full)
	}
}
