package scholarauth

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/DESMOND-77/scholarauth/internal/mailer"
)

// resetToken drives a request and pulls the challenge token out of the
// captured mail queue.
func resetToken(t *testing.T, h *testHarness, email string) string {
	t.Helper()
	if r := h.engine.RequestPasswordReset(context.Background(), email); !r.Success {
		t.Fatalf("request reset: %+v", r)
	}
	h.engine.mail.Close()
	jobs := h.mail.sent()
	if len(jobs) == 0 {
		t.Fatal("no reset email captured")
	}
	last := jobs[len(jobs)-1]
	if last.Kind != mailer.KindPasswordReset {
		t.Fatalf("last mail kind = %q", last.Kind)
	}
	return last.Token
}

func TestResetRequestIsEnumerationSafe(t *testing.T) {
	h := newTestEngine(t, nil)
	h.seedUser(t, "dave@example.com", "correct horse battery")
	ctx := context.Background()

	known := h.engine.RequestPasswordReset(ctx, "dave@example.com")
	unknown := h.engine.RequestPasswordReset(ctx, "ghost@example.com")

	for name, r := range map[string]Result{"known": known, "unknown": unknown} {
		if !r.Success || r.StatusCode != http.StatusOK {
			t.Errorf("%s: result = %+v", name, r)
		}
	}
	if known.Message != unknown.Message {
		t.Errorf("messages differ: %q vs %q", known.Message, unknown.Message)
	}

	h.engine.Close()
	jobs := h.mail.sent()
	if len(jobs) != 1 || jobs[0].Email != "dave@example.com" {
		t.Errorf("mail jobs = %+v", jobs)
	}
}

func TestResetConfirmChangesPasswordAndRevokesSessions(t *testing.T) {
	h := newTestEngine(t, nil)
	h.seedUser(t, "dave@example.com", "correct horse battery")
	ctx := context.Background()
	pair := loginPair(t, h, "dave@example.com", "correct horse battery")

	tok := resetToken(t, h, "dave@example.com")
	r := h.engine.ConfirmPasswordReset(ctx, tok, "brand new passphrase")
	if !r.Success || r.StatusCode != http.StatusOK {
		t.Fatalf("confirm: %+v", r)
	}

	// Old password out, new password in.
	if lr := h.engine.Login(ctx, LoginInput{Email: "dave@example.com", Password: "correct horse battery"}); lr.Success {
		t.Error("old password still accepted")
	}
	if lr := h.engine.Login(ctx, LoginInput{Email: "dave@example.com", Password: "brand new passphrase"}); !lr.Success {
		t.Errorf("new password rejected: %+v", lr)
	}

	// Sessions minted before the reset are dead.
	if rr := h.engine.Refresh(ctx, pair.Refresh); !errors.Is(rr.Err, ErrTokenBlacklisted) {
		t.Errorf("old refresh token: %+v", rr)
	}

	// The challenge is single use.
	if cr := h.engine.ConfirmPasswordReset(ctx, tok, "another passphrase"); !errors.Is(cr.Err, ErrPasswordResetInvalid) {
		t.Errorf("reused challenge: %+v", cr)
	}
}

func TestResetConfirmBadToken(t *testing.T) {
	h := newTestEngine(t, nil)

	r := h.engine.ConfirmPasswordReset(context.Background(), "bogus", "brand new passphrase")
	if r.StatusCode != http.StatusBadRequest || !errors.Is(r.Err, ErrPasswordResetInvalid) {
		t.Fatalf("result = %+v", r)
	}
}

func TestResetConfirmPolicyCheckedFirst(t *testing.T) {
	h := newTestEngine(t, nil)
	h.seedUser(t, "dave@example.com", "correct horse battery")
	tok := resetToken(t, h, "dave@example.com")

	if r := h.engine.ConfirmPasswordReset(context.Background(), tok, "short"); !errors.Is(r.Err, ErrPasswordPolicy) {
		t.Fatalf("result = %+v", r)
	}
	// The challenge survives a policy rejection.
	if r := h.engine.ConfirmPasswordReset(context.Background(), tok, "brand new passphrase"); !r.Success {
		t.Fatalf("confirm after policy rejection: %+v", r)
	}
}

func TestResetRequestCooldown(t *testing.T) {
	h := newTestEngine(t, nil)
	h.seedUser(t, "dave@example.com", "correct horse battery")
	ctx := context.Background()

	if r := h.engine.RequestPasswordReset(ctx, "dave@example.com"); !r.Success {
		t.Fatalf("first request: %+v", r)
	}
	// Within the cooldown the response is unchanged but no email goes out.
	if r := h.engine.RequestPasswordReset(ctx, "dave@example.com"); !r.Success {
		t.Fatalf("second request: %+v", r)
	}
	h.engine.Close()
	if got := len(h.mail.sent()); got != 1 {
		t.Errorf("emails sent = %d, want 1", got)
	}
}

func TestChangePassword(t *testing.T) {
	h := newTestEngine(t, nil)
	p := h.seedUser(t, "dave@example.com", "correct horse battery")
	ctx := context.Background()
	pair := loginPair(t, h, "dave@example.com", "correct horse battery")

	r := h.engine.ChangePassword(ctx, p.ID, "correct horse battery", "brand new passphrase")
	if !r.Success {
		t.Fatalf("change: %+v", r)
	}
	if rr := h.engine.Refresh(ctx, pair.Refresh); !errors.Is(rr.Err, ErrTokenBlacklisted) {
		t.Errorf("old session after change: %+v", rr)
	}
	if lr := h.engine.Login(ctx, LoginInput{Email: "dave@example.com", Password: "brand new passphrase"}); !lr.Success {
		t.Errorf("login with new password: %+v", lr)
	}
}

func TestChangePasswordWrongOld(t *testing.T) {
	h := newTestEngine(t, nil)
	p := h.seedUser(t, "dave@example.com", "correct horse battery")

	r := h.engine.ChangePassword(context.Background(), p.ID, "wrong", "brand new passphrase")
	if r.StatusCode != http.StatusUnauthorized || !errors.Is(r.Err, ErrInvalidCredentials) {
		t.Fatalf("result = %+v", r)
	}
}

func TestChangePasswordRejectsReuse(t *testing.T) {
	h := newTestEngine(t, nil)
	p := h.seedUser(t, "dave@example.com", "correct horse battery")

	r := h.engine.ChangePassword(context.Background(), p.ID, "correct horse battery", "correct horse battery")
	if !errors.Is(r.Err, ErrPasswordReuse) {
		t.Fatalf("result = %+v", r)
	}
}
