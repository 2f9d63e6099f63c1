package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"destinpq/internal/config"
	"destinpq/internal/domain"
	"destinpq/internal/metrics"
)

const (
	// DefaultSubject is used when a request carries no subject
	DefaultSubject = "New Chatbot Message"

	supportSubjectPrefix = "Chatbot Inquiry: "
	confirmationSubject  = "We've Received Your Message - DestinPQ"
)

// SupportService relays site messages to the support inbox
type SupportService struct {
	mailer Mailer
	cfg    *config.EmailConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewSupportService creates a new support service
func NewSupportService(mailer Mailer, cfg *config.EmailConfig, logger *zap.Logger) *SupportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SupportService{
		mailer: mailer,
		cfg:    cfg,
		logger: logger.Named("contact"),
		now:    time.Now,
	}
}

// SendSupportEmail sends req to the support address and, when the visitor
// left an address, a confirmation back to them. Only the support email can
// fail the call.
func (s *SupportService) SendSupportEmail(ctx context.Context, req domain.EmailRequest) (*domain.EmailResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, BadRequest("Message is required")
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = DefaultSubject
	}
	userEmail := strings.TrimSpace(req.UserEmail)

	s.logger.Info("support email requested",
		zap.String("subject", subject),
		zap.Bool("has_user_email", userEmail != ""),
		zap.String("schedule", req.Schedule),
	)

	data := newTemplateData(req.Message, userEmail, req.Schedule, s.cfg.SupportAddress, s.now())
	html, text, err := renderSupportInquiry(data)
	if err != nil {
		return nil, Internal("Internal server error", err)
	}

	messageID, err := s.mailer.Send(ctx, Message{
		To:      s.cfg.SupportAddress,
		ReplyTo: userEmail,
		Subject: supportSubjectPrefix + subject,
		HTML:    html,
		Text:    text,
	})
	if err != nil {
		metrics.RecordEmailSent("support", false)
		s.logger.Error("failed to send support email", zap.Error(err))
		return nil, Internal("Failed to send email", err)
	}
	metrics.RecordEmailSent("support", true)

	if userEmail != "" {
		s.sendConfirmation(ctx, userEmail, data)
	}

	return &domain.EmailResult{Success: true, MessageID: messageID}, nil
}

func (s *SupportService) sendConfirmation(ctx context.Context, to string, data templateData) {
	html, text, err := renderUserConfirmation(data)
	if err == nil {
		_, err = s.mailer.Send(ctx, Message{
			To:      to,
			ReplyTo: s.cfg.SupportAddress,
			Subject: confirmationSubject,
			HTML:    html,
			Text:    text,
		})
	}
	if err != nil {
		metrics.RecordEmailSent("confirmation", false)
		s.logger.Warn("failed to send confirmation email", zap.String("to", to), zap.Error(err))
		return
	}
	metrics.RecordEmailSent("confirmation", true)
}

// Notify forwards a chat message; it lets the chat assistant use the same
// relay as the send-email endpoint.
func (s *SupportService) Notify(ctx context.Context, req domain.EmailRequest) error {
	_, err := s.SendSupportEmail(ctx, req)
	return err
}
