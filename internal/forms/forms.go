// Package forms builds and submits the site's contact and call-scheduling
// forms. Both forms are relayed through POST /api/send-email.
package forms

import (
	"fmt"
	"regexp"
	"strings"

	"destinpq/internal/domain"
	apperrors "destinpq/pkg/errors"
)

const (
	ContactSubject       = "Website Contact Form Submission"
	MobileContactSubject = "Mobile Website Contact Form Submission"
	CallSubject          = "Call Scheduling Request"

	contactFallbackError = "Failed to send message"
	callFallbackError    = "Failed to schedule call"

	maxNameLength    = 100
	maxMessageLength = 5000
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^[\d\s\+\-\(\)\.]+$`)
)

// Surface is the site tree a form was submitted from.
type Surface int

const (
	Desktop Surface = iota
	Mobile
)

// FieldError describes one invalid form field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors lists every invalid field of a submission.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.Error()
	}
	return strings.Join(parts, "; ")
}

// ValidateContact checks the required contact form fields.
func ValidateContact(s domain.ContactSubmission) error {
	var errs ValidationErrors
	errs = checkName(errs, s.Name)
	errs = checkEmail(errs, s.Email)
	message := strings.TrimSpace(s.Message)
	switch {
	case message == "":
		errs = append(errs, FieldError{"message", "is required"})
	case len(message) > maxMessageLength:
		errs = append(errs, FieldError{"message", fmt.Sprintf("must not exceed %d characters", maxMessageLength)})
	}
	return asError(errs)
}

// ValidateCall checks the required call-scheduling fields.
func ValidateCall(r domain.CallSchedulingRequest) error {
	var errs ValidationErrors
	errs = checkName(errs, r.Name)
	phone := strings.TrimSpace(r.Phone)
	switch {
	case phone == "":
		errs = append(errs, FieldError{"phone", "is required"})
	case !phoneRegex.MatchString(phone):
		errs = append(errs, FieldError{"phone", "is not a phone number"})
	}
	errs = checkEmail(errs, r.Email)
	if strings.TrimSpace(r.PreferredDate) == "" {
		errs = append(errs, FieldError{"preferredDate", "is required"})
	}
	if strings.TrimSpace(r.PreferredTime) == "" {
		errs = append(errs, FieldError{"preferredTime", "is required"})
	}
	return asError(errs)
}

func checkName(errs ValidationErrors, name string) ValidationErrors {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return append(errs, FieldError{"name", "is required"})
	case len(name) > maxNameLength:
		return append(errs, FieldError{"name", fmt.Sprintf("must not exceed %d characters", maxNameLength)})
	}
	return errs
}

func checkEmail(errs ValidationErrors, email string) ValidationErrors {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		return append(errs, FieldError{"email", "is required"})
	case !emailRegex.MatchString(email):
		return append(errs, FieldError{"email", "is not a valid email address"})
	}
	return errs
}

func asError(errs ValidationErrors) error {
	if len(errs) == 0 {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrCodeValidation, "invalid form", errs)
}

// FormatContactMessage renders the support email body for a contact form.
func FormatContactMessage(s domain.ContactSubmission, surface Surface) string {
	heading := "Contact Form Submission:"
	if surface == Mobile {
		heading = "Mobile Contact Form Submission:"
	}
	company := strings.TrimSpace(s.Company)
	if company == "" {
		company = "Not provided"
	}
	return strings.TrimSpace(fmt.Sprintf(`%s
------------------------
Name: %s
Email: %s
Company: %s
Message:
%s`, heading, s.Name, s.Email, company, s.Message))
}

// FormatCallMessage renders the support email body for a call request.
func FormatCallMessage(r domain.CallSchedulingRequest) string {
	notes := strings.TrimSpace(r.Notes)
	if notes == "" {
		notes = "None provided"
	}
	return strings.TrimSpace(fmt.Sprintf(`Call Scheduling Request:
------------------------
Name: %s
Phone: %s
Email: %s
Preferred Date: %s
Preferred Time: %s
Additional Notes: %s`, r.Name, r.Phone, r.Email, r.PreferredDate, r.PreferredTime, notes))
}

// ContactRequest is the /api/send-email body for a contact form.
func ContactRequest(s domain.ContactSubmission, surface Surface) domain.EmailRequest {
	subject := ContactSubject
	if surface == Mobile {
		subject = MobileContactSubject
	}
	return domain.EmailRequest{
		Subject:   subject,
		Message:   FormatContactMessage(s, surface),
		UserEmail: strings.TrimSpace(s.Email),
		Schedule:  domain.ScheduleImmediately,
	}
}

// CallRequest is the /api/send-email body for a call request.
func CallRequest(r domain.CallSchedulingRequest) domain.EmailRequest {
	return domain.EmailRequest{
		Subject:   CallSubject,
		Message:   FormatCallMessage(r),
		UserEmail: strings.TrimSpace(r.Email),
		Schedule:  domain.ScheduleCallScheduling,
	}
}
