package forms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"destinpq/internal/domain"
	apperrors "destinpq/pkg/errors"
)

type relay struct {
	calls atomic.Int32
	last  domain.EmailRequest
	reply func(w http.ResponseWriter)
}

func newRelay(t *testing.T, reply func(w http.ResponseWriter)) (*relay, *Client) {
	t.Helper()
	r := &relay{reply: reply}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.calls.Add(1)
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/api/send-email", req.URL.Path)
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&r.last))
		w.Header().Set("Content-Type", "application/json")
		r.reply(w)
	}))
	t.Cleanup(srv.Close)
	return r, NewClient(srv.URL+"/", srv.Client(), zaptest.NewLogger(t))
}

func ok(w http.ResponseWriter) {
	_, _ = w.Write([]byte(`{"success":true,"messageId":"<id@destinpq.com>"}`))
}

var contact = domain.ContactSubmission{
	Name:    "Ada Lovelace",
	Email:   "ada@example.com",
	Message: "We need a forecasting model.",
}

var call = domain.CallSchedulingRequest{
	Name:          "Ada Lovelace",
	Phone:         "+44 20 7946 0000",
	Email:         "ada@example.com",
	PreferredDate: "2026-11-02",
	PreferredTime: "14:00",
}

func TestSubmitContactPostsOnce(t *testing.T) {
	r, client := newRelay(t, ok)

	res, err := client.SubmitContact(context.Background(), contact, Desktop)
	require.NoError(t, err)
	assert.Equal(t, "<id@destinpq.com>", res.MessageID)
	assert.Zero(t, res.DismissAfter)

	assert.EqualValues(t, 1, r.calls.Load())
	assert.Equal(t, ContactSubject, r.last.Subject)
	assert.Equal(t, domain.ScheduleImmediately, r.last.Schedule)
	assert.Equal(t, contact.Email, r.last.UserEmail)
	assert.Contains(t, r.last.Message, contact.Name)
	assert.Contains(t, r.last.Message, contact.Email)
	assert.Contains(t, r.last.Message, contact.Message)
}

func TestSubmitContactMobile(t *testing.T) {
	r, client := newRelay(t, ok)

	_, err := client.SubmitContact(context.Background(), contact, Mobile)
	require.NoError(t, err)
	assert.Equal(t, MobileContactSubject, r.last.Subject)
	assert.Contains(t, r.last.Message, "Mobile Contact Form Submission:")
}

func TestScheduleCall(t *testing.T) {
	r, client := newRelay(t, ok)

	res, err := client.ScheduleCall(context.Background(), call)
	require.NoError(t, err)
	assert.Equal(t, CallDismissAfter, res.DismissAfter)
	assert.EqualValues(t, 1, r.calls.Load())
	assert.Equal(t, CallSubject, r.last.Subject)
	assert.Equal(t, domain.ScheduleCallScheduling, r.last.Schedule)
	assert.Contains(t, r.last.Message, "Additional Notes: None provided")
}

func TestSubmitReportsEndpointError(t *testing.T) {
	r, client := newRelay(t, func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"Failed to send email"}`))
	})

	_, err := client.SubmitContact(context.Background(), contact, Desktop)
	var submitErr *SubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, "Failed to send email", submitErr.Message)
	assert.Equal(t, http.StatusInternalServerError, submitErr.StatusCode)
	assert.EqualValues(t, 1, r.calls.Load(), "failures are not retried")
}

func TestSubmitFallsBackToGenericError(t *testing.T) {
	tests := []struct {
		name  string
		reply func(w http.ResponseWriter)
	}{
		{"no error field", func(w http.ResponseWriter) {
			_, _ = w.Write([]byte(`{"success":false}`))
		}},
		{"not json", func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`<html>bad gateway</html>`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, client := newRelay(t, tt.reply)

			_, err := client.ScheduleCall(context.Background(), call)
			var submitErr *SubmitError
			require.ErrorAs(t, err, &submitErr)
			assert.Equal(t, "Failed to schedule call", submitErr.Message)

			_, err = client.SubmitContact(context.Background(), contact, Desktop)
			require.ErrorAs(t, err, &submitErr)
			assert.Equal(t, "Failed to send message", submitErr.Message)
		})
	}
}

func TestSubmitNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewClient(srv.URL, nil, nil)

	_, err := client.SubmitContact(context.Background(), contact, Desktop)
	var submitErr *SubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, "Failed to send message", submitErr.Message)
	assert.NotNil(t, errors.Unwrap(submitErr))
}

func TestInvalidFormsAreNotSent(t *testing.T) {
	r, client := newRelay(t, ok)

	_, err := client.SubmitContact(context.Background(), domain.ContactSubmission{Name: "Ada", Email: "nope"}, Desktop)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	var fields ValidationErrors
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, ValidationErrors{
		{Field: "email", Message: "is not a valid email address"},
		{Field: "message", Message: "is required"},
	}, fields)

	_, err = client.ScheduleCall(context.Background(), domain.CallSchedulingRequest{Name: "Ada"})
	require.ErrorAs(t, err, &fields)
	assert.Len(t, fields, 4)

	assert.Zero(t, r.calls.Load())
}

func TestFormatContactMessage(t *testing.T) {
	want := "Contact Form Submission:\n" +
		"------------------------\n" +
		"Name: Ada Lovelace\n" +
		"Email: ada@example.com\n" +
		"Company: Not provided\n" +
		"Message:\n" +
		"We need a forecasting model."
	assert.Equal(t, want, FormatContactMessage(contact, Desktop))

	withCompany := contact
	withCompany.Company = "Analytical Engines"
	assert.Contains(t, FormatContactMessage(withCompany, Desktop), "Company: Analytical Engines\n")
}

func TestFormatCallMessage(t *testing.T) {
	withNotes := call
	withNotes.Notes = "Afternoons only"
	want := "Call Scheduling Request:\n" +
		"------------------------\n" +
		"Name: Ada Lovelace\n" +
		"Phone: +44 20 7946 0000\n" +
		"Email: ada@example.com\n" +
		"Preferred Date: 2026-11-02\n" +
		"Preferred Time: 14:00\n" +
		"Additional Notes: Afternoons only"
	assert.Equal(t, want, FormatCallMessage(withNotes))
}
