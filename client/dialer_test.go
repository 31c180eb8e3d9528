package client

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/sageanya/teleport/core"
)

type scriptedDialer struct {
	failures map[string]error
	dialed   []string
}

func (d *scriptedDialer) DialContext(_ context.Context, _ string, addr string) (net.Conn, error) {
	d.dialed = append(d.dialed, addr)
	if err, scripted := d.failures[addr]; scripted {
		return nil, err
	}
	client, server := net.Pipe()
	server.Close()
	return client, nil
}

func TestRetryDialer_FirstCandidateWins(t *testing.T) {
	inner := &scriptedDialer{}
	dialer := &RetryDialer{Inner: inner, Timeout: time.Second}

	conn, addr, err := dialer.DialFirstAvailable(context.Background(), []string{"a:1", "b:2"})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if addr != "a:1" {
		t.Fatalf("expected the first candidate, got %q", addr)
	}
	if len(inner.dialed) != 1 {
		t.Fatalf("expected a single attempt, got %v", inner.dialed)
	}
}

func TestRetryDialer_MovesPastFailures(t *testing.T) {
	inner := &scriptedDialer{failures: map[string]error{
		"a:1": errors.New("connection refused"),
		"b:2": errors.New("connection refused"),
	}}
	dialer := &RetryDialer{Inner: inner, Timeout: time.Second}

	conn, addr, err := dialer.DialFirstAvailable(context.Background(), []string{"a:1", "b:2", "c:3"})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if addr != "c:3" {
		t.Fatalf("expected the surviving candidate, got %q", addr)
	}
	if want := []string{"a:1", "b:2", "c:3"}; len(inner.dialed) != 3 ||
		inner.dialed[0] != want[0] || inner.dialed[1] != want[1] || inner.dialed[2] != want[2] {
		t.Fatalf("unexpected attempt order: %v", inner.dialed)
	}
}

func TestRetryDialer_ExhaustionIsAConnectionFault(t *testing.T) {
	inner := &scriptedDialer{failures: map[string]error{
		"a:1": errors.New("connection refused"),
	}}
	dialer := &RetryDialer{Inner: inner, Timeout: time.Second}

	_, _, err := dialer.DialFirstAvailable(context.Background(), []string{"a:1"})
	if err == nil {
		t.Fatalf("expected exhaustion to fail")
	}
	if !core.IsConnectionFault(err) {
		t.Fatalf("expected a connection fault, got %v", err)
	}
}

func TestRetryDialer_NoCandidates(t *testing.T) {
	dialer := &RetryDialer{Inner: &scriptedDialer{}}
	_, _, err := dialer.DialFirstAvailable(context.Background(), nil)
	if !core.IsConnectionFault(err) {
		t.Fatalf("expected a connection fault, got %v", err)
	}
}

func TestSequentialPolicy_SkipsBlankAndFailedAddresses(t *testing.T) {
	policy := NewSequentialPolicy()
	candidates := []string{"", "a:1", "b:2"}

	addr, err := policy.ChooseNextAddr(candidates)
	if err != nil || addr != "a:1" {
		t.Fatalf("expected a:1, got %q (%v)", addr, err)
	}
	policy.DialFailed("a:1", errors.New("refused"))

	addr, err = policy.ChooseNextAddr(candidates)
	if err != nil || addr != "b:2" {
		t.Fatalf("expected b:2, got %q (%v)", addr, err)
	}
	policy.DialFailed("b:2", errors.New("refused"))

	if _, err := policy.ChooseNextAddr(candidates); err == nil {
		t.Fatalf("expected exhaustion")
	}
}
