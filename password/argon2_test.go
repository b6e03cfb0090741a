package password

import (
	"strings"
	"testing"
)

func testHasher(t *testing.T) *Hasher {
	t.Helper()

	// Low-cost parameters keep the test suite fast.
	h, err := NewHasher(Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	})
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}
	return h
}

func TestHashVerify(t *testing.T) {
	h := testHasher(t)

	encoded, err := h.Hash("correct-horse-battery")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("unexpected PHC prefix: %q", encoded)
	}

	ok, err := h.Verify("correct-horse-battery", encoded)
	if err != nil || !ok {
		t.Fatalf("Verify = (%v, %v), want match", ok, err)
	}

	ok, err = h.Verify("wrong-password", encoded)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if ok {
		t.Fatal("wrong password must not verify")
	}
}

func TestHashSaltsAreUnique(t *testing.T) {
	h := testHasher(t)

	a, err := h.Hash("same-password-here")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	b, err := h.Hash("same-password-here")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	h := testHasher(t)

	for _, bad := range []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1$c2FsdA$aGFzaA",
	} {
		if _, err := h.Verify("pw", bad); err == nil {
			t.Errorf("Verify(%q): expected parse error", bad)
		}
	}
}

func TestNeedsRehash(t *testing.T) {
	weak := testHasher(t)

	encoded, err := weak.Hash("some-password-123")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	strong, err := NewHasher(Config{
		Memory:      16 * 1024,
		Time:        2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	})
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}

	upgrade, err := strong.NeedsRehash(encoded)
	if err != nil || !upgrade {
		t.Fatalf("NeedsRehash = (%v, %v), want upgrade", upgrade, err)
	}

	same, err := weak.NeedsRehash(encoded)
	if err != nil || same {
		t.Fatalf("NeedsRehash with equal params = (%v, %v), want false", same, err)
	}
}

func TestNewHasherEnforcesFloors(t *testing.T) {
	if _, err := NewHasher(Config{Memory: 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16}); err == nil {
		t.Fatal("expected low-memory config to be rejected")
	}
}
