package models

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// AnswerSet maps a question ID to the value of the selected option
type AnswerSet map[string]string

// Clone returns an independent copy of the answer set
func (a AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// With returns a copy of the answer set with one entry replaced
func (a AnswerSet) With(questionID, value string) AnswerSet {
	out := a.Clone()
	out[questionID] = value
	return out
}

// IDs returns the answered question IDs in lexical order
func (a AnswerSet) IDs() []string {
	ids := make([]string, 0, len(a))
	for id := range a {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Respondent is the person completing the assessment
type Respondent struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Company  string `json:"company"`
	Position string `json:"position"`
}

// Submission is one completed assessment handed to the delivery pipeline
type Submission struct {
	ID          string     `json:"id"`
	Respondent  Respondent `json:"personalInfo"`
	Answers     AnswerSet  `json:"answers"`
	Language    Language   `json:"language"`
	Domains     []string   `json:"domains,omitempty"`
	ClientScore *int       `json:"score,omitempty"`
	SubmittedAt time.Time  `json:"submittedAt"`
}

// Fingerprint identifies a submission by respondent email, language and answers.
// Two submissions with the same fingerprint are considered duplicates.
func (s *Submission) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(s.Respondent.Email))))
	h.Write([]byte{0})
	h.Write([]byte(s.Language))
	for _, id := range s.Answers.IDs() {
		h.Write([]byte{0})
		h.Write([]byte(id))
		h.Write([]byte{'='})
		h.Write([]byte(s.Answers[id]))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SubmitRequest is the JSON body accepted by the submit and report endpoints
type SubmitRequest struct {
	PersonalInfo Respondent `json:"personalInfo"`
	Answers      AnswerSet  `json:"answers"`
	Score        *int       `json:"score,omitempty"`
	Language     string     `json:"language"`
	Domains      []string   `json:"domains,omitempty"`
}

// ScoreRequest is the JSON body accepted by the live scoring endpoint
type ScoreRequest struct {
	Answers  AnswerSet `json:"answers"`
	Language string    `json:"language"`
	Domains  []string  `json:"domains,omitempty"`
}
