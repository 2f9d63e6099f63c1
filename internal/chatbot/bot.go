// Package chatbot implements the site's scripted assistant. It is a small
// state machine: greet, answer with canned replies, ask once for an email
// address and a notification cadence, and forward later messages to the
// support inbox when the visitor asked for immediate updates.
package chatbot

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"destinpq/internal/domain"
	"destinpq/internal/metrics"
)

const (
	Greeting       = "Hello! I'm your AI assistant. How can I help you today?"
	EmailRequest   = "Would you like to leave your email so we can follow up with you?"
	SchedulePrompt = "Thanks for your email! How often would you like to receive updates from us?"

	// NotificationSubject is the subject of forwarded chat messages
	NotificationSubject = "New Chatbot Message"

	// DefaultTypingDelay is how long the bot "types" before replying
	DefaultTypingDelay = 1500 * time.Millisecond

	notifyTimeout = 30 * time.Second
	outboxSize    = 32
)

// CannedReplies are the answers picked at random for ordinary messages.
var CannedReplies = []string{
	"I'd be happy to help with that! Could you provide more details?",
	"That's an interesting question about our AI solutions. Let me explain how we approach this.",
	"Based on your inquiry, I'd recommend scheduling a demo with our team to see our technology in action.",
	"Our neural network technology could be perfect for solving this challenge. Would you like to learn more?",
	"I can connect you with one of our AI specialists who can provide more specific information about this use case.",
}

var (
	ErrEmptyMessage    = errors.New("message is empty")
	ErrEmptyEmail      = errors.New("email is empty")
	ErrInvalidSchedule = errors.New("schedule must be one of immediately, daily, weekly, never")
	ErrWrongState      = errors.New("input not expected in the current state")
	ErrNoPendingReply  = errors.New("no reply pending")
)

// State is a chatbot conversation state.
type State int

const (
	StateGreeting State = iota
	StateAwaitingInput
	StateRequestingEmail
	StateRequestingSchedule
	StateNormalLoop
)

func (s State) String() string {
	switch s {
	case StateGreeting:
		return "greeting"
	case StateAwaitingInput:
		return "awaiting_input"
	case StateRequestingEmail:
		return "requesting_email"
	case StateRequestingSchedule:
		return "requesting_schedule"
	case StateNormalLoop:
		return "normal_loop"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Notifier forwards a chat message to the support inbox.
type Notifier interface {
	Notify(ctx context.Context, req domain.EmailRequest) error
}

// Options configures a Bot. Zero values select the defaults.
type Options struct {
	TypingDelay time.Duration
	// Intn returns a uniform integer in [0, n); defaults to math/rand/v2.
	Intn     func(n int) int
	Now      func() time.Time
	Notifier Notifier
	Logger   *zap.Logger
}

// Bot is one conversation. It is safe for concurrent use but is meant to be
// owned by a single connection.
type Bot struct {
	mu         sync.Mutex
	state      State
	transcript []domain.ChatMessage
	userCount  int
	email      string
	schedule   string
	pending    []string

	delay    time.Duration
	intn     func(int) int
	now      func() time.Time
	notifier Notifier
	logger   *zap.Logger

	// outbox feeds the single forwarding worker, so notifications reach the
	// inbox in Accept order.
	outbox chan domain.EmailRequest
	closed bool
	wg     sync.WaitGroup
}

// New creates a bot in the Greeting state.
func New(opts Options) *Bot {
	b := &Bot{
		state:    StateGreeting,
		schedule: domain.ScheduleImmediately,
		delay:    opts.TypingDelay,
		intn:     opts.Intn,
		now:      opts.Now,
		notifier: opts.Notifier,
		logger:   opts.Logger,
	}
	if b.delay < 0 {
		b.delay = 0
	}
	if b.intn == nil {
		b.intn = rand.IntN
	}
	if b.now == nil {
		b.now = time.Now
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	b.logger = b.logger.Named("chat")
	return b
}

// Start emits the greeting and moves to AwaitingInput. Later calls return
// the existing greeting.
func (b *Bot) Start() domain.ChatMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateGreeting {
		return b.transcript[0]
	}
	msg := b.appendLocked(Greeting, domain.SenderBot)
	b.state = StateAwaitingInput
	return msg
}

// Accept records a user message and decides the reply, which Reply delivers
// after the typing delay. When an email is on file and the cadence is
// "immediately" the message is forwarded in the background.
func (b *Bot) Accept(text string) (domain.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return domain.ChatMessage{}, ErrEmptyMessage
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateGreeting {
		b.appendLocked(Greeting, domain.SenderBot)
		b.state = StateAwaitingInput
	}

	msg := b.appendLocked(text, domain.SenderUser)
	b.userCount++

	if b.email != "" && b.schedule == domain.ScheduleImmediately {
		b.notifyLocked(domain.EmailRequest{
			Subject:   NotificationSubject,
			Message:   text,
			UserEmail: b.email,
			Schedule:  b.schedule,
		})
	}

	if b.userCount == 2 && b.email == "" && b.state == StateAwaitingInput {
		b.pending = append(b.pending, EmailRequest)
		b.state = StateRequestingEmail
		return msg, nil
	}

	b.pending = append(b.pending, CannedReplies[b.intn(len(CannedReplies))])
	return msg, nil
}

// Reply waits for the typing delay and appends the oldest pending reply.
// A cancelled context drops that reply.
func (b *Bot) Reply(ctx context.Context) (domain.ChatMessage, error) {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return domain.ChatMessage{}, ErrNoPendingReply
	}
	text := b.pending[0]
	b.pending = b.pending[1:]
	b.mu.Unlock()

	if b.delay > 0 {
		timer := time.NewTimer(b.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return domain.ChatMessage{}, ctx.Err()
		case <-timer.C:
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.appendLocked(text, domain.SenderBot), nil
}

// SendMessage is Accept followed by Reply.
func (b *Bot) SendMessage(ctx context.Context, text string) (domain.ChatMessage, domain.ChatMessage, error) {
	user, err := b.Accept(text)
	if err != nil {
		return domain.ChatMessage{}, domain.ChatMessage{}, err
	}
	reply, err := b.Reply(ctx)
	return user, reply, err
}

// SubmitEmail records the visitor's address and asks for a cadence.
func (b *Bot) SubmitEmail(email string) (domain.ChatMessage, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.ChatMessage{}, ErrEmptyEmail
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateRequestingEmail {
		return domain.ChatMessage{}, fmt.Errorf("%w: %s", ErrWrongState, b.state)
	}
	b.email = email
	b.state = StateRequestingSchedule
	return b.appendLocked(SchedulePrompt, domain.SenderBot), nil
}

// SubmitSchedule records the notification cadence and confirms it.
func (b *Bot) SubmitSchedule(schedule string) (domain.ChatMessage, error) {
	schedule = strings.ToLower(strings.TrimSpace(schedule))
	if !validSchedule(schedule) {
		return domain.ChatMessage{}, ErrInvalidSchedule
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateRequestingSchedule {
		return domain.ChatMessage{}, fmt.Errorf("%w: %s", ErrWrongState, b.state)
	}
	b.schedule = schedule
	b.state = StateNormalLoop
	text := fmt.Sprintf("Thank you! We'll send updates to %s %s.", b.email, ScheduleText(schedule))
	return b.appendLocked(text, domain.SenderBot), nil
}

// State returns the current state.
func (b *Bot) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Email returns the captured address and cadence.
func (b *Bot) Email() (string, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.email, b.schedule
}

// Transcript returns a copy of the conversation so far.
func (b *Bot) Transcript() []domain.ChatMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.ChatMessage(nil), b.transcript...)
}

// Close stops the forwarding worker after it drains queued notifications.
// Messages accepted afterwards are not forwarded.
func (b *Bot) Close() {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		if b.outbox != nil {
			close(b.outbox)
		}
	}
	b.mu.Unlock()
	b.wg.Wait()
}

// ScheduleText phrases a cadence for the confirmation message.
func ScheduleText(schedule string) string {
	switch schedule {
	case domain.ScheduleImmediately:
		return "immediately"
	case domain.ScheduleDaily:
		return "in daily digests"
	case domain.ScheduleWeekly:
		return "in weekly summaries"
	default:
		return "only when you request them"
	}
}

func validSchedule(s string) bool {
	switch s {
	case domain.ScheduleImmediately, domain.ScheduleDaily, domain.ScheduleWeekly, domain.ScheduleNever:
		return true
	}
	return false
}

func (b *Bot) appendLocked(text string, sender domain.Sender) domain.ChatMessage {
	msg := domain.ChatMessage{
		ID:        len(b.transcript) + 1,
		Text:      text,
		Sender:    sender,
		Timestamp: b.now(),
	}
	b.transcript = append(b.transcript, msg)
	metrics.RecordChatMessage(string(sender))
	return msg
}

// notifyLocked queues req for the forwarding worker, starting it on first
// use. Failures are logged only.
func (b *Bot) notifyLocked(req domain.EmailRequest) {
	if b.notifier == nil || b.closed {
		return
	}
	if b.outbox == nil {
		b.outbox = make(chan domain.EmailRequest, outboxSize)
		b.wg.Add(1)
		go b.forward(b.outbox)
	}
	b.outbox <- req
}

func (b *Bot) forward(outbox <-chan domain.EmailRequest) {
	defer b.wg.Done()
	for req := range outbox {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		if err := b.notifier.Notify(ctx, req); err != nil {
			b.logger.Warn("failed to forward chat message", zap.Error(err))
		}
		cancel()
	}
}
