package models

import "time"

// ConsultationContext carries the assessment the requester just completed, if any
type ConsultationContext struct {
	PersonalInfo *Respondent `json:"personalInfo,omitempty"`
	Score        *int        `json:"score,omitempty"`
}

// Consultation is a request to be contacted by an advisor
type Consultation struct {
	FirstName   string               `json:"firstName"`
	LastName    string               `json:"lastName"`
	Email       string               `json:"email"`
	Phone       string               `json:"phone"`
	Context     *ConsultationContext `json:"context,omitempty"`
	RequestedAt time.Time            `json:"requestedAt"`
}

// Company returns the company from the attached assessment context, or ""
func (c *Consultation) Company() string {
	if c.Context == nil || c.Context.PersonalInfo == nil {
		return ""
	}
	return c.Context.PersonalInfo.Company
}

// Score returns the score from the attached assessment context
func (c *Consultation) Score() (int, bool) {
	if c.Context == nil || c.Context.Score == nil {
		return 0, false
	}
	return *c.Context.Score, true
}
