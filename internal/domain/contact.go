package domain

// Email preference values carried in EmailRequest.Schedule
const (
	ScheduleImmediately    = "immediately"
	ScheduleDaily          = "daily"
	ScheduleWeekly         = "weekly"
	ScheduleNever          = "never"
	ScheduleCallScheduling = "call scheduling"
)

// ContactSubmission is a contact form submission. It lives only for the
// duration of one request and is never stored.
type ContactSubmission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company,omitempty"`
	Message string `json:"message"`
}

// CallSchedulingRequest is a call scheduling form submission. Not stored.
type CallSchedulingRequest struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	PreferredDate string `json:"preferredDate"`
	PreferredTime string `json:"preferredTime"`
	Notes         string `json:"notes,omitempty"`
}

// EmailRequest is the body of POST /api/send-email
type EmailRequest struct {
	Subject   string `json:"subject,omitempty"`
	Message   string `json:"message"`
	UserEmail string `json:"userEmail,omitempty"`
	Schedule  string `json:"schedule,omitempty"`
}

// EmailResult is the successful response of POST /api/send-email
type EmailResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
}
