// Package flow models the respondent's walk through the assessment as immutable
// state values. Every event produces a new State; the previous one is never modified.
package flow

import (
	"errors"
	"fmt"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/catalog"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/models"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/scoring"
)

var (
	// ErrAnswerRequired is returned when leaving a question step without an answer
	ErrAnswerRequired = errors.New("an answer is required")
	// ErrInvalidAnswer is returned for a question or option the active catalog does not have
	ErrInvalidAnswer = errors.New("invalid answer")
	// ErrFinished is returned for navigation events after the assessment was finished
	ErrFinished = errors.New("assessment already finished")
	// ErrNotStarted is returned for events received before Start
	ErrNotStarted = errors.New("assessment not started")
	// ErrUnknownEvent is returned for an unrecognized event type
	ErrUnknownEvent = errors.New("unknown event")
)

// EventType names a state transition
type EventType string

const (
	EventStart          EventType = "start"
	EventSetRespondent  EventType = "set_respondent"
	EventSelectAnswer   EventType = "select_answer"
	EventNext           EventType = "next"
	EventBack           EventType = "back"
	EventChangeLanguage EventType = "change_language"
	EventFinish         EventType = "finish"
)

// Event is one user action
type Event struct {
	Type       EventType          `json:"type"`
	Language   string             `json:"language,omitempty"`
	Domains    []string           `json:"domains,omitempty"`
	Respondent *models.Respondent `json:"personalInfo,omitempty"`
	QuestionID string             `json:"questionId,omitempty"`
	Value      string             `json:"value,omitempty"`
}

// State is a snapshot of one assessment in progress.
// Step 0 collects the respondent; step i (1..Total) shows the i-th active question.
type State struct {
	Started    bool              `json:"started"`
	Step       int               `json:"step"`
	Total      int               `json:"total"`
	Language   models.Language   `json:"language"`
	Domains    []string          `json:"domains,omitempty"`
	Respondent models.Respondent `json:"personalInfo"`
	Answers    models.AnswerSet  `json:"answers"`
	Finished   bool              `json:"finished"`
	Result     *scoring.Result   `json:"result,omitempty"`
	MaxScore   int               `json:"maxScore,omitempty"`
}

// Machine applies events to states against a catalog
type Machine struct {
	catalog *catalog.Catalog
}

// NewMachine creates a state machine reading questions from c
func NewMachine(c *catalog.Catalog) *Machine {
	return &Machine{catalog: c}
}

// Apply returns the state that follows s after e. On error the returned state is s.
func (m *Machine) Apply(s State, e Event) (State, error) {
	if e.Type == EventStart {
		return m.start(e)
	}
	if !s.Started {
		return s, ErrNotStarted
	}

	switch e.Type {
	case EventChangeLanguage:
		return m.changeLanguage(s, e)
	case EventSetRespondent, EventSelectAnswer, EventNext, EventBack, EventFinish:
		if s.Finished {
			return s, ErrFinished
		}
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownEvent, e.Type)
	}

	questions, err := m.catalog.Questions(s.Language, s.Domains)
	if err != nil {
		return s, err
	}
	next := s
	// Total follows the catalog, which may have been reloaded since start.
	next.Total = len(questions)
	switch e.Type {
	case EventSetRespondent:
		if e.Respondent == nil {
			return s, &models.ValidationError{Issues: []models.FieldIssue{{Field: "personalInfo", Message: "is required"}}}
		}
		next.Respondent = *e.Respondent

	case EventSelectAnswer:
		q := find(questions, e.QuestionID)
		if q == nil || q.Option(e.Value) == nil {
			return s, fmt.Errorf("%w: %s=%s", ErrInvalidAnswer, e.QuestionID, e.Value)
		}
		next.Answers = s.Answers.With(e.QuestionID, e.Value)

	case EventNext:
		if s.Step == 0 {
			if err := s.Respondent.Validate(); err != nil {
				return s, err
			}
			next.Step = 1
			break
		}
		if s.Step > len(questions) {
			return s, fmt.Errorf("step %d out of range", s.Step)
		}
		q := questions[s.Step-1]
		if s.Answers[q.ID] == "" {
			return s, fmt.Errorf("%w: %s", ErrAnswerRequired, q.ID)
		}
		if s.Step == len(questions) {
			return m.finish(s, questions)
		}
		next.Step = s.Step + 1

	case EventBack:
		if s.Step > 0 {
			next.Step = s.Step - 1
		}

	case EventFinish:
		return m.finish(s, questions)
	}

	return next, nil
}

func (m *Machine) start(e Event) (State, error) {
	lang := catalog.Match(e.Language)
	questions, err := m.catalog.Questions(lang, e.Domains)
	if err != nil {
		return State{}, err
	}
	if len(questions) == 0 {
		return State{}, &models.ValidationError{Issues: []models.FieldIssue{
			{Field: "domains", Message: "no questions match the selected domains"},
		}}
	}

	s := State{
		Started:  true,
		Total:    len(questions),
		Language: lang,
		Domains:  append([]string(nil), e.Domains...),
		Answers:  models.AnswerSet{},
	}
	if e.Respondent != nil {
		s.Respondent = *e.Respondent
	}
	return s, nil
}

// changeLanguage keeps answers and position since question IDs are shared by every language
func (m *Machine) changeLanguage(s State, e Event) (State, error) {
	next := s
	next.Language = catalog.Match(e.Language)
	if s.Result != nil {
		r := scoring.Describe(s.Result.Score, m.catalog.Bundle(next.Language))
		next.Result = &r
	}
	return next, nil
}

func (m *Machine) finish(s State, questions []models.Question) (State, error) {
	if err := models.RequireAnswers(scoring.Missing(questions, s.Answers)); err != nil {
		return s, err
	}

	score := scoring.Score(questions, s.Answers)
	r := scoring.Describe(score, m.catalog.Bundle(s.Language))

	next := s
	next.Finished = true
	next.Result = &r
	next.MaxScore = scoring.MaxScore(questions)
	return next, nil
}

// Current returns the localized question shown at the state's step, or nil on step 0
// and after the assessment finished
func (m *Machine) Current(s State) (*models.Question, error) {
	if !s.Started || s.Finished || s.Step == 0 {
		return nil, nil
	}
	questions, err := m.catalog.Questions(s.Language, s.Domains)
	if err != nil {
		return nil, err
	}
	if s.Step > len(questions) {
		return nil, nil
	}
	q := questions[s.Step-1]
	return &q, nil
}

// Submission turns a finished state into the request handed to the delivery pipeline
func (s State) Submission() models.SubmitRequest {
	req := models.SubmitRequest{
		PersonalInfo: s.Respondent,
		Answers:      s.Answers.Clone(),
		Language:     string(s.Language),
		Domains:      s.Domains,
	}
	if s.Result != nil {
		score := s.Result.Score
		req.Score = &score
	}
	return req
}

func find(questions []models.Question, id string) *models.Question {
	for i := range questions {
		if questions[i].ID == id {
			return &questions[i]
		}
	}
	return nil
}
