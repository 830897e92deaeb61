package models

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// BlockedEmailDomains are free-mail providers rejected for respondent business emails
var BlockedEmailDomains = []string{
	"gmail.com",
	"yahoo.com",
	"hotmail.com",
	"outlook.com",
	"aol.com",
	"icloud.com",
	"mail.com",
}

// FieldIssue describes one invalid input field
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field issue found in a request
type ValidationError struct {
	Issues []FieldIssue `json:"issues"`
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Field+": "+issue.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Issues = append(e.Issues, FieldIssue{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) orNil() error {
	if len(e.Issues) == 0 {
		return nil
	}
	return e
}

// Validate checks the respondent fields collected on the first step
func (r Respondent) Validate() error {
	v := &ValidationError{}
	minLength(v, "personalInfo.name", r.Name, 2)
	minLength(v, "personalInfo.company", r.Company, 2)
	minLength(v, "personalInfo.position", r.Position, 2)

	if !validEmail(r.Email) {
		v.add("personalInfo.email", "must be a valid email address")
	} else if IsBlockedEmailDomain(r.Email) {
		v.add("personalInfo.email", "must be a business email address")
	}

	return v.orNil()
}

// Validate checks the contact fields of a consultation request
func (c Consultation) Validate() error {
	v := &ValidationError{}
	minLength(v, "firstName", c.FirstName, 2)
	minLength(v, "lastName", c.LastName, 2)
	if !validEmail(c.Email) {
		v.add("email", "must be a valid email address")
	}

	phone := strings.TrimSpace(c.Phone)
	if n := utf8.RuneCountInString(phone); n < 7 || n > 20 {
		v.add("phone", "must be between 7 and 20 characters")
	}

	return v.orNil()
}

// RequireAnswers returns a validation error listing each missing question ID
func RequireAnswers(missing []string) error {
	v := &ValidationError{}
	for _, id := range missing {
		v.add("answers."+id, "an answer is required")
	}
	return v.orNil()
}

// IsBlockedEmailDomain reports whether the address belongs to a free-mail provider
func IsBlockedEmailDomain(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := strings.ToLower(strings.TrimSpace(email[at+1:]))
	for _, blocked := range BlockedEmailDomains {
		if domain == blocked {
			return true
		}
	}
	return false
}

func minLength(v *ValidationError, field, value string, min int) {
	if utf8.RuneCountInString(strings.TrimSpace(value)) < min {
		v.add(field, "must be at least %d characters", min)
	}
}

func validEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && strings.Contains(email[at+1:], ".")
}

// RequireReportFields checks the minimum a report download needs: the respondent's
// name, email and company, and at least one answer
func RequireReportFields(r Respondent, answers AnswerSet) error {
	v := &ValidationError{}
	for _, f := range []struct{ field, value string }{
		{"personalInfo.name", r.Name},
		{"personalInfo.email", r.Email},
		{"personalInfo.company", r.Company},
	} {
		if strings.TrimSpace(f.value) == "" {
			v.add(f.field, "is required")
		}
	}
	if len(answers) == 0 {
		v.add("answers", "at least one answer is required")
	}
	return v.orNil()
}

// JoinValidation merges the issues of every *ValidationError in errs into one error.
// The first error of any other type is returned unchanged.
func JoinValidation(errs ...error) error {
	v := &ValidationError{}
	for _, err := range errs {
		if err == nil {
			continue
		}
		var ve *ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		v.Issues = append(v.Issues, ve.Issues...)
	}
	return v.orNil()
}
