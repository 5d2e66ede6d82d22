package collector

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"
)

const (
	maxRetryAttempts    = 3
	initialRetryBackoff = 250 * time.Millisecond
	maxRetryBackoff     = 4 * time.Second
)

// errorClass decides what an admin call failure means for the next attempt
type errorClass int

const (
	classPermanent errorClass = iota
	classAuth
	classTransient
)

func (c errorClass) String() string {
	switch c {
	case classAuth:
		return "auth"
	case classTransient:
		return "transient"
	default:
		return "permanent"
	}
}

var (
	// Kerberos and ACL failures; retrying only locks accounts sooner
	authMarkers = []string{
		"accessdeniedexception",
		"access denied",
		"saslexception",
		"gss initiate failed",
		"authentication failed",
		"insufficient permissions",
	}
	// master failover, region server start-up and plain network trouble
	transientMarkers = []string{
		"pleaseholdexception",
		"servernotrunningyetexception",
		"masternotrunningexception",
		"regionserverstoppedexception",
		"callqueuetoobigexception",
		"zk: could not connect",
		"zk: connection closed",
		"zk: session has been expired",
		"timeout",
		"eof",
		"broken pipe",
		"connection reset",
		"connection refused",
		"connection closed",
		"use of closed network connection",
		"network is unreachable",
		"no route to host",
		"no such host",
	}
)

func classify(err error) errorClass {
	if err == nil || errors.Is(err, context.Canceled) {
		return classPermanent
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return classTransient
	}

	msg := strings.ToLower(err.Error())
	if containsAny(msg, authMarkers) {
		return classAuth
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return classTransient
	}
	if containsAny(msg, transientMarkers) {
		return classTransient
	}
	return classPermanent
}

func containsAny(s string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

// retryPolicy bounds how often one admin call is repeated
type retryPolicy struct {
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	sleep          func(context.Context, time.Duration) error
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{
		maxAttempts:    maxRetryAttempts,
		initialBackoff: initialRetryBackoff,
		maxBackoff:     maxRetryBackoff,
		sleep:          sleepWithContext,
	}
}

func (p retryPolicy) withDefaults() retryPolicy {
	if p.maxAttempts <= 0 {
		p.maxAttempts = maxRetryAttempts
	}
	if p.initialBackoff <= 0 {
		p.initialBackoff = initialRetryBackoff
	}
	if p.maxBackoff < p.initialBackoff {
		p.maxBackoff = p.initialBackoff
	}
	if p.sleep == nil {
		p.sleep = sleepWithContext
	}
	return p
}

func (p retryPolicy) backoff(attempt int) time.Duration {
	d := p.initialBackoff
	for i := 1; i < attempt && d < p.maxBackoff; i++ {
		d *= 2
	}
	if d > p.maxBackoff {
		d = p.maxBackoff
	}
	return d
}

// do runs call until it succeeds, fails for good, or ctx ends. op names the
// call in retry logs.
func (p retryPolicy) do(ctx context.Context, op string, call func() error) error {
	p = p.withDefaults()

	for attempt := 1; ; attempt++ {
		if err := contextError(ctx); err != nil {
			return err
		}

		err := call()
		if err == nil {
			return nil
		}
		if ctxErr := contextError(ctx); ctxErr != nil {
			return ctxErr
		}

		class := classify(err)
		if class != classTransient || attempt >= p.maxAttempts {
			return err
		}

		wait := p.backoff(attempt)
		slog.Warn("hbase admin call failed, retrying",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", wait),
			slog.String("error", err.Error()),
		)
		if err := p.sleep(ctx, wait); err != nil {
			if ctxErr := contextError(ctx); ctxErr != nil {
				return ctxErr
			}
			return err
		}
	}
}

// withTotalTimeoutContext bounds every attempt of a call together, so the
// deadline cause survives a cancel from the retry loop.
func withTotalTimeoutContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return parent, func() {}
	}

	ctx, cancelCause := context.WithCancelCause(parent)
	timer := time.AfterFunc(timeout, func() {
		cancelCause(context.DeadlineExceeded)
	})

	return ctx, func() {
		timer.Stop()
		cancelCause(context.Canceled)
	}
}

func contextError(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
			return cause
		}
		return err
	}
	return nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return contextError(ctx)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return contextError(ctx)
	case <-timer.C:
		return nil
	}
}
