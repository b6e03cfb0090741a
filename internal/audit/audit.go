// Package audit defines the security event model and delivery sinks for
// authentication flows.
package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Event types emitted by the engine.
const (
	TypeLoginSuccess      = "login.success"
	TypeLoginFailure      = "login.failure"
	TypeLoginLocked       = "login.locked"
	TypeRegisterSuccess   = "register.success"
	TypeRegisterDuplicate = "register.duplicate"
	TypeTokenRefresh      = "token.refresh"
	TypeTokenRefreshReuse = "token.refresh.reuse"
	TypeTokenBlacklist    = "token.blacklist"
	TypeLogout            = "logout"
	TypeResetRequest      = "password.reset.request"
	TypeResetConfirm      = "password.reset.confirm"
	TypePasswordChange    = "password.change"
	TypeVerifyRequest     = "email.verify.request"
	TypeVerifyConfirm     = "email.verify.confirm"
)

// Event is a single security-relevant occurrence. Email is populated only
// for events where the principal id is not yet known, such as failed logins
// against unknown accounts.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	Email     string            `json:"email,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink receives emitted audit events.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink writes audit events into a buffered channel for the host
// application to drain.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Event, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
