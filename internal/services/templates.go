package services

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

const (
	logoURL      = "https://destinpq.com/thunh.png"
	solutionsURL = "https://destinpq.com/solutions"

	timestampLayout = "January 2, 2006 at 3:04 PM MST"
)

// templateData feeds both email templates
type templateData struct {
	Message        string
	UserEmail      string
	Schedule       string
	Timestamp      string
	Year           int
	LogoURL        string
	SolutionsURL   string
	SupportAddress string
}

const emailStyles = `
  body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; background-color: #f9f9f9; margin: 0; padding: 0; }
  .container { max-width: 600px; margin: 0 auto; padding: 20px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 5px rgba(0,0,0,0.1); }
  .header { text-align: center; padding-bottom: 20px; border-bottom: 1px solid #eee; }
  .logo { max-width: 150px; }
  .content { padding: 20px 0; }
  .message-box { background-color: #f5f5f5; border-left: 4px solid #ffc107; padding: 15px; margin: 20px 0; }
  .message-box p.body { white-space: pre-wrap; }
  .user-info { background-color: #f8f9fa; padding: 10px 15px; border-radius: 4px; margin-top: 15px; }
  .footer { text-align: center; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #777; }
  .button { display: inline-block; background-color: #ffc107; color: #333; padding: 10px 20px; text-decoration: none; border-radius: 4px; font-weight: bold; margin-top: 15px; }
  .highlight { color: #ffc107; font-weight: bold; }
`

var supportInquiryTemplate = template.Must(template.New("support").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>DestinPQ Support Inquiry</title>
  <style>` + emailStyles + `</style>
</head>
<body>
  <div class="container">
    <div class="header">
      <img src="{{.LogoURL}}" alt="DestinPQ Logo" class="logo">
      <h1>New Support Inquiry</h1>
    </div>
    <div class="content">
      <p>A new message has been received through the DestinPQ website chatbot.</p>
      <div class="message-box">
        <h3>User Message:</h3>
        <p class="body">{{.Message}}</p>
      </div>
      <div class="user-info">
        <p><strong>User Email:</strong> {{if .UserEmail}}{{.UserEmail}}{{else}}Not provided{{end}}</p>
        {{- if .Schedule}}
        <p><strong>Email Preference:</strong> {{.Schedule}}</p>
        {{- end}}
        <p><strong>Timestamp:</strong> {{.Timestamp}}</p>
      </div>
      {{- if .UserEmail}}
      <div style="text-align: center;">
        <a href="mailto:{{.UserEmail}}" class="button">Reply to User</a>
      </div>
      {{- end}}
    </div>
    <div class="footer">
      <p>This is an automated message from the DestinPQ website. Please do not reply directly to this email.</p>
      <p>&copy; {{.Year}} DestinPQ. All rights reserved.</p>
    </div>
  </div>
</body>
</html>
`))

var userConfirmationTemplate = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>DestinPQ Message Received</title>
  <style>` + emailStyles + `</style>
</head>
<body>
  <div class="container">
    <div class="header">
      <img src="{{.LogoURL}}" alt="DestinPQ Logo" class="logo">
      <h1>We've Received Your Message</h1>
    </div>
    <div class="content">
      <p>Thank you for reaching out to us. Our team has received your inquiry and will get back to you shortly.</p>
      <div class="message-box">
        <h3>Your Message:</h3>
        <p class="body">{{.Message}}</p>
        <p><strong>Sent on:</strong> {{.Timestamp}}</p>
      </div>
      <p>Based on your preferences, you've chosen to receive updates <span class="highlight">{{.Schedule}}</span>.</p>
      <div style="text-align: center;">
        <a href="{{.SolutionsURL}}" class="button">Explore Our Solutions</a>
      </div>
    </div>
    <div class="footer">
      <p>If you need immediate assistance, please contact us at {{.SupportAddress}}</p>
      <p>&copy; {{.Year}} DestinPQ. All rights reserved.</p>
    </div>
  </div>
</body>
</html>
`))

func newTemplateData(message, userEmail, schedule, supportAddress string, now time.Time) templateData {
	return templateData{
		Message:        message,
		UserEmail:      userEmail,
		Schedule:       schedule,
		Timestamp:      now.Format(timestampLayout),
		Year:           now.Year(),
		LogoURL:        logoURL,
		SolutionsURL:   solutionsURL,
		SupportAddress: supportAddress,
	}
}

// renderSupportInquiry returns the HTML and plain text bodies of the email
// sent to the support inbox.
func renderSupportInquiry(d templateData) (string, string, error) {
	var buf bytes.Buffer
	if err := supportInquiryTemplate.Execute(&buf, d); err != nil {
		return "", "", fmt.Errorf("render support inquiry: %w", err)
	}

	userEmail := d.UserEmail
	if userEmail == "" {
		userEmail = "Not provided"
	}
	var text strings.Builder
	text.WriteString("New Support Inquiry\n\n")
	text.WriteString("User Message:\n" + d.Message + "\n\n")
	text.WriteString("User Email: " + userEmail + "\n")
	if d.Schedule != "" {
		text.WriteString("Email Preference: " + d.Schedule + "\n")
	}
	text.WriteString("Timestamp: " + d.Timestamp + "\n")
	return buf.String(), text.String(), nil
}

// renderUserConfirmation returns the HTML and plain text bodies of the
// acknowledgement sent back to the visitor.
func renderUserConfirmation(d templateData) (string, string, error) {
	if d.Schedule == "" {
		d.Schedule = "immediately"
	}
	var buf bytes.Buffer
	if err := userConfirmationTemplate.Execute(&buf, d); err != nil {
		return "", "", fmt.Errorf("render confirmation: %w", err)
	}

	text := fmt.Sprintf(`We've Received Your Message

Thank you for reaching out to us. Our team has received your inquiry and will get back to you shortly.

Your Message:
%s

Sent on: %s

Based on your preferences, you've chosen to receive updates %s.

Explore our solutions: %s

If you need immediate assistance, please contact us at %s
`, d.Message, d.Timestamp, d.Schedule, d.SolutionsURL, d.SupportAddress)
	return buf.String(), text, nil
}
