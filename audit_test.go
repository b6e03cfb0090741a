package scholarauth

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestLoginEmitsAuditEvents(t *testing.T) {
	sink := NewAuditChannelSink(16)
	h := newTestEngine(t, nil)

	// Rebuild with the sink attached; newTestEngine leaves auditing off.
	engine, err := New().
		WithConfig(validTestConfig()).
		WithCache(h.engine.store).
		WithPrincipalStore(h.principals).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	h2 := &testHarness{engine: engine, redis: h.redis, principals: h.principals, mail: h.mail}
	h2.seedUser(t, "dave@example.com", "correct horse battery")

	if r := engine.Login(context.Background(), LoginInput{Email: "dave@example.com", Password: "correct horse battery"}); !r.Success {
		t.Fatalf("login: %+v", r)
	}

	select {
	case ev := <-sink.Events():
		if ev.EventType != AuditLoginSuccess || !ev.Success || ev.UserID == "" {
			t.Errorf("event = %+v", ev)
		}
		if ev.Timestamp.IsZero() {
			t.Error("event timestamp not stamped")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no audit event delivered")
	}
}

func TestJSONWriterSinkEmitsOneObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewAuditJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{EventType: AuditLogout, Success: true, Timestamp: time.Now()})
	sink.Emit(context.Background(), AuditEvent{EventType: AuditLoginFailure, Email: "dave@example.com"})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	var ev AuditEvent
	if err := json.Unmarshal(lines[0], &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.EventType != AuditLogout {
		t.Errorf("event type = %q", ev.EventType)
	}
}
