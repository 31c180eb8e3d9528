package core

import (
	"context"
	"net"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// CredentialProvider yields transport trust material. Providers must
// return either a usable Credential or a descriptive error; they never
// return a partially-populated credential.
//
// Multiple goroutines may call Credential simultaneously.
type CredentialProvider interface {
	// Name labels the provider in diagnostics and ledger entries.
	Name() string

	// Credential returns the provider's current trust material.
	Credential(ctx context.Context) (Credential, error)

	// Reloaded returns a channel that receives a signal each time the
	// provider's material changes underneath an established session.
	// Providers whose material never changes return nil.
	Reloaded() <-chan struct{}
}

// ContextDialer establishes the raw transport connection. Custom dial
// strategies (proxy-aware dialing, test pipes) implement this.
type ContextDialer interface {
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

// ContextDialerFunc adapts a function to the ContextDialer contract.
type ContextDialerFunc func(ctx context.Context, network, addr string) (net.Conn, error)

func (f ContextDialerFunc) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	return f(ctx, network, addr)
}

// ProfileStore persists known profiles.
type ProfileStore interface {
	Upsert(ctx context.Context, profile Profile) (Profile, error)
	Get(ctx context.Context, name string) (Profile, error)
	List(ctx context.Context) ([]Profile, error)
	Delete(ctx context.Context, name string) error
}

// AccessEventStore is the audit ledger of routed access-request
// decisions.
type AccessEventStore interface {
	Append(ctx context.Context, record AccessDecisionRecord) (AccessDecisionRecord, error)
	ListByRequest(ctx context.Context, requestID string) ([]AccessDecisionRecord, error)
	PurgeBefore(ctx context.Context, cutoff time.Time) (int, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type JobExecutionMessage struct {
	JobID          string
	ScriptPath     string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}

type JobWorkerEvent struct {
	Message   *JobExecutionMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}
