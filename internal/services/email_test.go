package services

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"destinpq/internal/config"
)

// smtpSink is a minimal SMTP server accepting one message per connection.
type smtpSink struct {
	ln   net.Listener
	wg   sync.WaitGroup
	mu   sync.Mutex
	rcpt []string
	data []string
}

func newSMTPSink(t *testing.T) *smtpSink {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &smtpSink{ln: ln}
	s.wg.Add(1)
	go s.serve()
	t.Cleanup(func() {
		ln.Close()
		s.wg.Wait()
	})
	return s
}

func (s *smtpSink) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *smtpSink) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.handle(conn)
	}
}

func (s *smtpSink) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	reply := func(line string) { _, _ = conn.Write([]byte(line + "\r\n")) }

	reply("220 localhost ESMTP")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			reply("250-localhost")
			reply("250 8BITMIME")
		case strings.HasPrefix(cmd, "MAIL FROM"):
			reply("250 OK")
		case strings.HasPrefix(cmd, "RCPT TO"):
			s.mu.Lock()
			s.rcpt = append(s.rcpt, strings.TrimSpace(line))
			s.mu.Unlock()
			reply("250 OK")
		case cmd == "DATA":
			reply("354 go ahead")
			var body strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				body.WriteString(l)
			}
			s.mu.Lock()
			s.data = append(s.data, body.String())
			s.mu.Unlock()
			reply("250 queued")
		case cmd == "QUIT":
			reply("221 bye")
			return
		default:
			reply("250 OK")
		}
	}
}

func TestEmailServiceDeliversOverSMTP(t *testing.T) {
	sink := newSMTPSink(t)
	cfg := &config.EmailConfig{
		Enabled:   true,
		SMTPHost:  "127.0.0.1",
		SMTPPort:  sink.port(),
		FromEmail: "support@destinpq.com",
		FromName:  "DestinPQ",
	}
	svc := NewEmailService(cfg, zaptest.NewLogger(t))

	id, err := svc.Send(context.Background(), Message{
		To:      "ops@destinpq.com",
		ReplyTo: "ada@example.com",
		Subject: "Chatbot Inquiry: hello",
		HTML:    "<p>hi</p>",
		Text:    "hi",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "<") && strings.HasSuffix(id, "@destinpq.com>"), id)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.data, 1)
	assert.Contains(t, sink.rcpt[0], "ops@destinpq.com")
	body := sink.data[0]
	assert.Contains(t, body, "Message-ID: "+id)
	assert.Contains(t, body, "Reply-To: ada@example.com")
	assert.Contains(t, body, "Subject: Chatbot Inquiry: hello")
	assert.Contains(t, body, "Content-Type: text/html; charset=UTF-8")
}

func TestEmailServiceDisabledReturnsSyntheticID(t *testing.T) {
	svc := NewEmailService(&config.EmailConfig{Enabled: false, FromEmail: "a@example.org"}, zaptest.NewLogger(t))

	id, err := svc.Send(context.Background(), Message{To: "x@example.org", Subject: "s"})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(id, "@example.org>"))
	assert.False(t, svc.IsEnabled())
}

func TestEmailServiceRequiresHost(t *testing.T) {
	svc := NewEmailService(&config.EmailConfig{Enabled: true}, nil)
	_, err := svc.Send(context.Background(), Message{To: "x@example.org"})
	assert.Error(t, err)
}

func TestEmailServiceReportsDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	svc := NewEmailService(&config.EmailConfig{Enabled: true, SMTPHost: "127.0.0.1", SMTPPort: port}, nil)
	_, err = svc.Send(context.Background(), Message{To: "x@example.org"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:"+strconv.Itoa(port))
}
