// Package mailer queues verification and reset emails for asynchronous,
// best-effort delivery through a caller-supplied Sender.
package mailer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Job kinds.
const (
	KindVerification  = "verification"
	KindPasswordReset = "password_reset"
)

// Job is one email to deliver. Token is the raw challenge token the
// recipient must present back.
type Job struct {
	Kind        string
	PrincipalID string
	Email       string
	Token       string
}

// Sender performs the actual delivery. Implementations are provided by the
// host application (SMTP, an email API, a template layer).
type Sender interface {
	Send(ctx context.Context, job Job) error
}

// Config controls queueing and retry behavior.
type Config struct {
	BufferSize  int
	MaxRetries  int
	RetryDelay  time.Duration
	SendTimeout time.Duration
}

// Dispatcher owns the delivery queue. Enqueue never blocks the auth flow;
// a full queue drops the job and counts it. A nil Dispatcher drops
// everything, mirroring the audit dispatcher contract.
type Dispatcher struct {
	cfg       Config
	sender    Sender
	ch        chan Job
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	failed    atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
	warn      func(format string, args ...any)
}

func NewDispatcher(cfg Config, sender Sender, warn func(string, ...any)) *Dispatcher {
	if sender == nil {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if warn == nil {
		warn = func(string, ...any) {}
	}

	d := &Dispatcher{
		cfg:    cfg,
		sender: sender,
		ch:     make(chan Job, cfg.BufferSize),
		done:   make(chan struct{}),
		warn:   warn,
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case job := <-d.ch:
			d.deliver(job)
		case <-d.done:
			for {
				select {
				case job := <-d.ch:
					d.deliver(job)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(job Job) {
	var lastErr error
	for attempt := 0; attempt <= d.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(d.cfg.RetryDelay)
		}
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
		lastErr = d.sender.Send(ctx, job)
		cancel()
		if lastErr == nil {
			return
		}
	}
	d.failed.Add(1)
	d.warn("scholarauth: %s email to %s failed after %d attempts: %v",
		job.Kind, job.Email, d.cfg.MaxRetries+1, lastErr)
}

// Enqueue queues a job for delivery. It never blocks and never returns an
// error: delivery trouble must not fail registration or reset requests.
func (d *Dispatcher) Enqueue(job Job) {
	if d == nil || d.closed.Load() {
		return
	}
	select {
	case d.ch <- job:
	case <-d.done:
	default:
		d.dropped.Add(1)
		d.warn("scholarauth: mail queue full, dropping %s email to %s", job.Kind, job.Email)
	}
}

// Close drains the queue and waits for in-flight deliveries.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped reports jobs discarded because the queue was full.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Failed reports jobs whose delivery exhausted all retries.
func (d *Dispatcher) Failed() uint64 {
	if d == nil {
		return 0
	}
	return d.failed.Load()
}
