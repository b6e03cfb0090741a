package scholarauth

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/DESMOND-77/scholarauth/internal/mailer"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// memoryPrincipals is an in-memory PrincipalStore for tests.
type memoryPrincipals struct {
	mu      sync.Mutex
	byID    map[string]*Principal
	byEmail map[string]string
}

func newMemoryPrincipals() *memoryPrincipals {
	return &memoryPrincipals{
		byID:    map[string]*Principal{},
		byEmail: map[string]string{},
	}
}

func (m *memoryPrincipals) FindByEmail(_ context.Context, email string) (*Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *memoryPrincipals) FindByID(_ context.Context, id string) (*Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memoryPrincipals) Create(_ context.Context, p *Principal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.byEmail[p.Email]; taken {
		return ErrAccountExists
	}
	cp := *p
	m.byID[cp.ID] = &cp
	m.byEmail[cp.Email] = cp.ID
	return nil
}

func (m *memoryPrincipals) UpdateCredential(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	p.CredentialHash = hash
	return nil
}

func (m *memoryPrincipals) MarkVerified(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	p.IsVerified = true
	return nil
}

func (m *memoryPrincipals) setActive(id string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.byID[id]; ok {
		p.IsActive = active
	}
}

// captureMail records enqueued jobs instead of sending them.
type captureMail struct {
	mu   sync.Mutex
	jobs []mailer.Job
}

func (c *captureMail) Send(_ context.Context, job mailer.Job) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobs = append(c.jobs, job)
	return nil
}

func (c *captureMail) sent() []mailer.Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]mailer.Job(nil), c.jobs...)
}

type testHarness struct {
	engine     *Engine
	redis      *miniredis.Miniredis
	principals *memoryPrincipals
	mail       *captureMail
}

func newTestEngine(t *testing.T, mutate func(*Config)) *testHarness {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := defaultConfig()
	cfg.JWT.Secret = testSecret
	cfg.JWT.Issuer = "scholarauth-test"
	// Keep argon2 at its floor so tests stay fast.
	cfg.Password = PasswordConfig{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16}
	if mutate != nil {
		mutate(&cfg)
	}

	principals := newMemoryPrincipals()
	mail := &captureMail{}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(client).
		WithPrincipalStore(principals).
		WithMailSender(mail).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testHarness{engine: engine, redis: mr, principals: principals, mail: mail}
}

// seedUser registers a verified, active account directly through the store.
func (h *testHarness) seedUser(t *testing.T, email, pw string) *Principal {
	t.Helper()
	hash, err := h.engine.hasher.Hash(pw)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	p := &Principal{
		ID:             "user-" + email,
		Email:          email,
		CredentialHash: hash,
		IsActive:       true,
		IsVerified:     true,
	}
	if err := h.principals.Create(context.Background(), p); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return p
}

func pairFromResult(t *testing.T, r Result) *TokenPair {
	t.Helper()
	pair, ok := r.Data.(*TokenPair)
	if !ok {
		t.Fatalf("result data is %T, want *TokenPair", r.Data)
	}
	return pair
}
