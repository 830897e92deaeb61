package flow

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/catalog"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/models"
)

var jane = models.Respondent{Name: "Jane Doe", Email: "jane@acme.com", Company: "Acme", Position: "CSO"}

func newMachine(t *testing.T) *Machine {
	t.Helper()
	c, err := catalog.NewDefault()
	if err != nil {
		t.Fatalf("catalog.NewDefault failed: %v", err)
	}
	return NewMachine(c)
}

func mustApply(t *testing.T, m *Machine, s State, e Event) State {
	t.Helper()
	next, err := m.Apply(s, e)
	if err != nil {
		t.Fatalf("Apply(%s) failed: %v", e.Type, err)
	}
	return next
}

func TestWalkThrough(t *testing.T) {
	m := newMachine(t)

	s := mustApply(t, m, State{}, Event{Type: EventStart, Language: "en", Domains: []string{"finance"}})
	if s.Total != 2 || s.Step != 0 {
		t.Fatalf("unexpected start state %+v", s)
	}

	if _, err := m.Apply(s, Event{Type: EventNext}); err == nil {
		t.Fatal("next without respondent must fail")
	}

	s = mustApply(t, m, s, Event{Type: EventSetRespondent, Respondent: &jane})
	s = mustApply(t, m, s, Event{Type: EventNext})
	if s.Step != 1 {
		t.Fatalf("step = %d, want 1", s.Step)
	}

	q, err := m.Current(s)
	if err != nil || q == nil || q.ID != "q11" {
		t.Fatalf("current question = %+v, %v", q, err)
	}

	if _, err := m.Apply(s, Event{Type: EventNext}); !errors.Is(err, ErrAnswerRequired) {
		t.Errorf("expected ErrAnswerRequired, got %v", err)
	}
	if _, err := m.Apply(s, Event{Type: EventSelectAnswer, QuestionID: "q11", Value: "z"}); !errors.Is(err, ErrInvalidAnswer) {
		t.Errorf("expected ErrInvalidAnswer for unknown option, got %v", err)
	}
	if _, err := m.Apply(s, Event{Type: EventSelectAnswer, QuestionID: "q1", Value: "a"}); !errors.Is(err, ErrInvalidAnswer) {
		t.Errorf("expected ErrInvalidAnswer for inactive question, got %v", err)
	}

	s = mustApply(t, m, s, Event{Type: EventSelectAnswer, QuestionID: "q11", Value: "d"})
	s = mustApply(t, m, s, Event{Type: EventNext})
	s = mustApply(t, m, s, Event{Type: EventSelectAnswer, QuestionID: "q12", Value: "c"})

	// next on the last question finishes
	s = mustApply(t, m, s, Event{Type: EventNext})
	if !s.Finished || s.Result == nil || s.Result.Score != 8 || s.MaxScore != 10 {
		t.Fatalf("unexpected finished state %+v", s)
	}
	if s.Result.Tier != models.TierImmediateAction {
		t.Errorf("tier = %s", s.Result.Tier)
	}

	if _, err := m.Apply(s, Event{Type: EventBack}); !errors.Is(err, ErrFinished) {
		t.Errorf("expected ErrFinished, got %v", err)
	}

	req := s.Submission()
	if req.Score == nil || *req.Score != 8 || req.Answers["q12"] != "c" || req.Language != "en" {
		t.Errorf("unexpected submission %+v", req)
	}
}

func TestStaleTotalFollowsCatalog(t *testing.T) {
	m := newMachine(t)
	start := mustApply(t, m, State{}, Event{Type: EventStart, Domains: []string{"finance"}, Respondent: &jane})
	start = mustApply(t, m, start, Event{Type: EventNext})
	start = mustApply(t, m, start, Event{Type: EventSelectAnswer, QuestionID: "q11", Value: "d"})

	tests := []struct {
		name  string
		total int
	}{
		{"total larger than catalog", 5},
		{"total smaller than catalog", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := start
			s.Total = tt.total

			s = mustApply(t, m, s, Event{Type: EventNext})
			if s.Finished || s.Step != 2 || s.Total != 2 {
				t.Fatalf("unexpected state after q11 %+v", s)
			}
			s = mustApply(t, m, s, Event{Type: EventSelectAnswer, QuestionID: "q12", Value: "c"})
			s = mustApply(t, m, s, Event{Type: EventNext})
			if !s.Finished || s.Result == nil || s.Result.Score != 8 {
				t.Fatalf("next on the last catalog question must finish, got %+v", s)
			}
		})
	}
}

func TestApplyDoesNotMutate(t *testing.T) {
	m := newMachine(t)
	s := mustApply(t, m, State{}, Event{Type: EventStart, Respondent: &jane})
	s = mustApply(t, m, s, Event{Type: EventNext})

	before := s
	beforeAnswers := s.Answers.Clone()
	next := mustApply(t, m, s, Event{Type: EventSelectAnswer, QuestionID: "q1", Value: "b"})

	if !reflect.DeepEqual(s.Answers, beforeAnswers) || s.Step != before.Step {
		t.Error("Apply modified the previous state")
	}
	if next.Answers["q1"] != "b" {
		t.Error("new state is missing the answer")
	}
}

func TestBackAndLanguageChange(t *testing.T) {
	m := newMachine(t)
	s := mustApply(t, m, State{}, Event{Type: EventStart, Language: "fr", Respondent: &jane})

	if s = mustApply(t, m, s, Event{Type: EventBack}); s.Step != 0 {
		t.Errorf("back on step 0 must be a no-op, step = %d", s.Step)
	}

	s = mustApply(t, m, s, Event{Type: EventNext})
	s = mustApply(t, m, s, Event{Type: EventSelectAnswer, QuestionID: "q1", Value: "c"})
	s = mustApply(t, m, s, Event{Type: EventChangeLanguage, Language: "ar"})
	if s.Language != models.LanguageArabic || s.Answers["q1"] != "c" || s.Step != 1 {
		t.Errorf("language change must keep answers and step, got %+v", s)
	}

	s = mustApply(t, m, s, Event{Type: EventBack})
	if s.Step != 0 {
		t.Errorf("step = %d, want 0", s.Step)
	}
}

func TestFinishRequiresAllAnswers(t *testing.T) {
	m := newMachine(t)
	s := mustApply(t, m, State{}, Event{Type: EventStart, Domains: []string{"finance"}, Respondent: &jane})
	s = mustApply(t, m, s, Event{Type: EventSelectAnswer, QuestionID: "q11", Value: "a"})

	_, err := m.Apply(s, Event{Type: EventFinish})
	var ve *models.ValidationError
	if !errors.As(err, &ve) || len(ve.Issues) != 1 || ve.Issues[0].Field != "answers.q12" {
		t.Errorf("expected missing q12, got %v", err)
	}
}

func TestFinishedLanguageChangeRelocalizesResult(t *testing.T) {
	m := newMachine(t)
	s := mustApply(t, m, State{}, Event{Type: EventStart, Domains: []string{"finance"}, Respondent: &jane})
	s = mustApply(t, m, s, Event{Type: EventSelectAnswer, QuestionID: "q11", Value: "a"})
	s = mustApply(t, m, s, Event{Type: EventSelectAnswer, QuestionID: "q12", Value: "a"})
	s = mustApply(t, m, s, Event{Type: EventFinish})

	ar := mustApply(t, m, s, Event{Type: EventChangeLanguage, Language: "ar"})
	if ar.Result.Label != "مطلوب إجراء فوري" || ar.Result.Score != s.Result.Score {
		t.Errorf("unexpected relocalized result %+v", ar.Result)
	}
	if s.Result.Label != "Immediate Action Required" {
		t.Errorf("previous state result changed to %q", s.Result.Label)
	}
}

func TestApplyErrors(t *testing.T) {
	m := newMachine(t)
	if _, err := m.Apply(State{}, Event{Type: EventNext}); !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted, got %v", err)
	}
	s := mustApply(t, m, State{}, Event{Type: EventStart})
	if _, err := m.Apply(s, Event{Type: "dance"}); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("expected ErrUnknownEvent, got %v", err)
	}
	if _, err := m.Apply(State{}, Event{Type: EventStart, Domains: []string{"nope"}}); err == nil {
		t.Error("expected an error for a domain filter matching nothing")
	}
}

func TestRevealFrames(t *testing.T) {
	frames := RevealFrames(100, 60)
	if len(frames) != 61 || frames[0] != 0 || frames[60] != 100 || frames[30] != 50 {
		t.Errorf("unexpected frames %v", frames)
	}
	for i := 1; i < len(frames); i++ {
		if frames[i] < frames[i-1] {
			t.Fatalf("frames must not decrease: %v", frames)
		}
	}
	if got := RevealFrames(7, 0); !reflect.DeepEqual(got, []int{7}) {
		t.Errorf("RevealFrames(7, 0) = %v", got)
	}
}

func TestReveal(t *testing.T) {
	var got []int
	err := Reveal(context.Background(), 42, 10*time.Millisecond, func(v int) error {
		got = append(got, v)
		return nil
	})
	if err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	if len(got) != DefaultRevealFrames+1 || got[len(got)-1] != 42 {
		t.Errorf("unexpected reveal values %v", got)
	}
}

func TestRevealCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	count := 0
	err := Reveal(ctx, 42, time.Second, func(int) error {
		count++
		if count == 3 {
			cancel()
		}
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if count != 3 {
		t.Errorf("emitted %d frames after cancellation, want 3", count)
	}
}
