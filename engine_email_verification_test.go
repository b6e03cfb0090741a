package scholarauth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/DESMOND-77/scholarauth/internal/mailer"
)

func verificationToken(t *testing.T, h *testHarness) string {
	t.Helper()
	h.engine.mail.Close()
	jobs := h.mail.sent()
	for i := len(jobs) - 1; i >= 0; i-- {
		if jobs[i].Kind == mailer.KindVerification {
			return jobs[i].Token
		}
	}
	t.Fatal("no verification email captured")
	return ""
}

func TestVerificationFlow(t *testing.T) {
	h := newTestEngine(t, nil)
	ctx := context.Background()

	r := h.engine.Register(ctx, RegisterInput{Email: "new@example.com", Password: "long enough pw"})
	if !r.Success {
		t.Fatalf("register: %+v", r)
	}
	out := r.Data.(RegisterOutput)
	if out.User.IsVerified {
		t.Fatal("freshly registered user should be unverified")
	}

	tok := verificationToken(t, h)
	cr := h.engine.ConfirmEmailVerification(ctx, tok)
	if !cr.Success || cr.StatusCode != http.StatusOK {
		t.Fatalf("confirm: %+v", cr)
	}

	p, err := h.principals.FindByID(ctx, out.User.ID)
	if err != nil || !p.IsVerified {
		t.Fatalf("principal after confirm: %+v, %v", p, err)
	}

	verified, err := h.engine.IsVerified(ctx, out.User.ID)
	if err != nil || !verified {
		t.Fatalf("IsVerified = %v, %v", verified, err)
	}

	// Consumed challenges cannot be replayed.
	if rr := h.engine.ConfirmEmailVerification(ctx, tok); !errors.Is(rr.Err, ErrEmailVerificationInvalid) {
		t.Errorf("replayed challenge: %+v", rr)
	}
}

func TestVerificationRequestIsEnumerationSafe(t *testing.T) {
	h := newTestEngine(t, nil)
	h.seedUser(t, "dave@example.com", "correct horse battery")
	ctx := context.Background()

	known := h.engine.RequestEmailVerification(ctx, "ghost@example.com")
	verified := h.engine.RequestEmailVerification(ctx, "dave@example.com")
	if !known.Success || !verified.Success || known.Message != verified.Message {
		t.Fatalf("results differ: %+v vs %+v", known, verified)
	}
	h.engine.Close()
	// Seeded user is already verified and ghost does not exist: no mail.
	if got := len(h.mail.sent()); got != 0 {
		t.Errorf("emails sent = %d, want 0", got)
	}
}

func TestVerificationConfirmBadToken(t *testing.T) {
	h := newTestEngine(t, nil)

	r := h.engine.ConfirmEmailVerification(context.Background(), "bogus")
	if r.StatusCode != http.StatusBadRequest || !errors.Is(r.Err, ErrEmailVerificationInvalid) {
		t.Fatalf("result = %+v", r)
	}
}

func TestVerificationDisabled(t *testing.T) {
	h := newTestEngine(t, func(cfg *Config) {
		cfg.EmailVerification.Enabled = false
	})
	ctx := context.Background()

	if r := h.engine.RequestEmailVerification(ctx, "dave@example.com"); !errors.Is(r.Err, ErrEmailVerificationDisabled) {
		t.Errorf("request: %+v", r)
	}
	if r := h.engine.ConfirmEmailVerification(ctx, "whatever"); !errors.Is(r.Err, ErrEmailVerificationDisabled) {
		t.Errorf("confirm: %+v", r)
	}
}

func TestIsVerifiedServedFromCache(t *testing.T) {
	h := newTestEngine(t, nil)
	p := h.seedUser(t, "dave@example.com", "correct horse battery")
	ctx := context.Background()

	// First read populates the cache from the store.
	verified, err := h.engine.IsVerified(ctx, p.ID)
	if err != nil || !verified {
		t.Fatalf("IsVerified = %v, %v", verified, err)
	}

	// Flip the store behind the cache's back: the cached answer wins until
	// the TTL lapses.
	h.principals.mu.Lock()
	h.principals.byID[p.ID].IsVerified = false
	h.principals.mu.Unlock()

	verified, err = h.engine.IsVerified(ctx, p.ID)
	if err != nil || !verified {
		t.Fatalf("cached IsVerified = %v, %v", verified, err)
	}

	h.redis.FastForward(2 * time.Hour)
	verified, err = h.engine.IsVerified(ctx, p.ID)
	if err != nil || verified {
		t.Fatalf("post-TTL IsVerified = %v, %v", verified, err)
	}
}
