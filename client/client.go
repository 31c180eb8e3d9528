package client

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"

	"github.com/sageanya/teleport/accessrequest"
	"github.com/sageanya/teleport/core"
)

// Option customizes client construction.
type Option func(*Client)

func WithLogger(logger core.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(c *Client) { c.loggerProvider = provider }
}

func WithMetricsRecorder(metrics core.MetricsRecorder) Option {
	return func(c *Client) { c.metrics = metrics }
}

func WithCredentialProvider(provider core.CredentialProvider) Option {
	return func(c *Client) { c.provider = provider }
}

// WithDialContext replaces the raw transport dialer. Tests and
// proxy-aware callers use it.
func WithDialContext(dialer core.ContextDialer) Option {
	return func(c *Client) { c.rawDialer = dialer }
}

func WithDialPolicy(policy DialPolicy) Option {
	return func(c *Client) { c.policy = policy }
}

// Client is an authenticated session against one resolved address out of
// the configured candidates. Construction dials, authenticates, and
// version-gates; a returned client is ready for typed calls.
//
// Multiple goroutines may invoke methods on a Client simultaneously.
type Client struct {
	cfg            core.Config
	logger         core.Logger
	loggerProvider core.LoggerProvider
	metrics        core.MetricsRecorder
	observer       core.Observer
	provider       core.CredentialProvider
	rawDialer      core.ContextDialer
	policy         DialPolicy

	conn net.Conn
	addr string

	writeMu sync.Mutex
	enc     *json.Encoder

	mu      sync.Mutex
	pending map[string]chan frame
	streams map[string]*Stream
	hello   core.PingResponse

	done      chan struct{}
	closeOnce sync.Once
}

// New dials the first available configured address, authenticates with
// material from the credential provider, verifies the remote's version,
// and returns the established client. A version outside the supported
// range closes the session and fails construction.
func New(ctx context.Context, cfg core.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "client: invalid configuration").
			WithTextCode(core.ClientErrorBadInput)
	}
	if len(cfg.Addrs) == 0 {
		return nil, goerrors.New("client: at least one address is required", goerrors.CategoryBadInput).
			WithTextCode(core.ClientErrorBadInput)
	}

	c := &Client{
		cfg:     cfg,
		pending: map[string]chan frame{},
		streams: map[string]*Stream{},
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.provider == nil {
		return nil, goerrors.New("client: a credential provider is required", goerrors.CategoryBadInput).
			WithTextCode(core.ClientErrorBadInput)
	}

	_, logger := glog.Resolve(cfg.ClientName, c.loggerProvider, c.logger)
	c.logger = glog.Ensure(logger)
	c.observer = core.Observer{Logger: c.logger, Metrics: c.metrics, Prefix: "client"}

	startedAt := time.Now()
	err := c.connect(ctx)
	c.observer.Observe(ctx, startedAt, "connect", err, map[string]any{
		"addr":    c.addr,
		"cluster": c.hello.ClusterName,
	})
	if err != nil {
		return nil, err
	}

	go c.watchReloads()
	return c, nil
}

func (c *Client) connect(ctx context.Context) error {
	credential, err := c.provider.Credential(ctx)
	if err != nil {
		return core.ClientErrorMapper(err)
	}

	dialer := &RetryDialer{
		Logger:  c.logger,
		Timeout: c.cfg.DialTimeout,
		Policy:  c.policy,
		Inner:   c.rawDialer,
	}
	rawConn, addr, err := dialer.DialFirstAvailable(ctx, c.cfg.Addrs)
	if err != nil {
		return err
	}

	tlsConn := tls.Client(rawConn, c.tlsConfig(credential, addr))
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		// Certificate and trust failures map to a credential rejection,
		// anything else to a connection fault.
		return core.ClientErrorMapper(err)
	}

	c.conn = tlsConn
	c.addr = addr
	c.enc = json.NewEncoder(tlsConn)
	go c.readLoop(tlsConn)

	hello, err := c.Ping(ctx)
	if err != nil {
		c.Close()
		return err
	}
	if err := core.CheckServerVersion(hello.ServerVersion, core.MinServerVersion); err != nil {
		c.Close()
		return err
	}

	c.mu.Lock()
	c.hello = hello
	c.mu.Unlock()
	return nil
}

// tlsConfig indirects certificate lookup through the provider so that
// rotated material is presented on the next handshake without tearing
// the client down.
func (c *Client) tlsConfig(credential core.Credential, addr string) *tls.Config {
	serverName := strings.TrimSpace(c.cfg.ServerName)
	if serverName == "" {
		if host, _, err := net.SplitHostPort(addr); err == nil {
			serverName = host
		} else {
			serverName = addr
		}
	}
	provider := c.provider
	return &tls.Config{
		RootCAs:    credential.RootCAs,
		ServerName: serverName,
		MinVersion: tls.VersionTLS12,
		GetClientCertificate: func(*tls.CertificateRequestInfo) (*tls.Certificate, error) {
			current, err := provider.Credential(context.Background())
			if err != nil {
				return nil, err
			}
			certificate := current.Certificate
			return &certificate, nil
		},
	}
}

// Addr reports the address that served the connection.
func (c *Client) Addr() string { return c.addr }

// ServerInfo returns the remote identity captured during connect.
func (c *Client) ServerInfo() core.PingResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hello
}

// Ping performs the remote liveness call and returns the server's
// version and cluster identity.
func (c *Client) Ping(ctx context.Context) (core.PingResponse, error) {
	startedAt := time.Now()
	var resp core.PingResponse
	err := c.call(ctx, methodPing, nil, &resp)
	c.observer.Observe(ctx, startedAt, "ping", err, map[string]any{"addr": c.addr})
	if err != nil {
		return core.PingResponse{}, err
	}
	return resp, nil
}

type watchParams struct {
	State  string            `json:"state,omitempty"`
	Traits map[string]string `json:"traits,omitempty"`
}

type watchReply struct {
	StreamID string `json:"stream_id"`
}

// WatchAccessRequests subscribes to access-request events matching the
// filter. The stream ends when the caller's context is cancelled, the
// client closes, or the transport drops; Err reports which.
func (c *Client) WatchAccessRequests(ctx context.Context, filter accessrequest.Filter) (*Stream, error) {
	startedAt := time.Now()
	stream, err := c.watch(ctx, filter)
	c.observer.Observe(ctx, startedAt, "watch_access_requests", err, map[string]any{"addr": c.addr})
	return stream, err
}

func (c *Client) watch(ctx context.Context, filter accessrequest.Filter) (*Stream, error) {
	params := watchParams{State: string(filter.State), Traits: filter.Traits}
	var reply watchReply
	if err := c.call(ctx, methodWatchAccessRequests, params, &reply); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reply.StreamID) == "" {
		return nil, goerrors.New("client: remote did not assign a stream", goerrors.CategoryExternal).
			WithTextCode(core.ClientErrorInternal)
	}

	stream := &Stream{
		id:     reply.StreamID,
		events: make(chan accessrequest.AccessRequest, 64),
		done:   make(chan struct{}),
	}
	c.mu.Lock()
	c.streams[stream.id] = stream
	c.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			c.dropStream(stream.id)
			stream.finish(ctx.Err())
		case <-stream.done:
		}
	}()
	return stream, nil
}

func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	var rawParams json.RawMessage
	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryBadInput, "client: encoding call parameters").
				WithTextCode(core.ClientErrorBadInput)
		}
		rawParams = encoded
	}

	id := uuid.NewString()
	replyCh := make(chan frame, 1)

	c.mu.Lock()
	select {
	case <-c.done:
		c.mu.Unlock()
		return core.NewConnectionError(fmt.Errorf("client is closed"), c.addr)
	default:
	}
	c.pending[id] = replyCh
	c.mu.Unlock()

	call := frame{Kind: frameKindCall, ID: id, Method: method, Params: rawParams}
	if err := c.writeFrame(call); err != nil {
		c.dropPending(id)
		return core.NewConnectionError(err, c.addr)
	}

	select {
	case <-ctx.Done():
		c.dropPending(id)
		return core.ClientErrorMapper(ctx.Err())
	case <-c.done:
		c.dropPending(id)
		return core.NewConnectionError(fmt.Errorf("connection closed while awaiting reply"), c.addr)
	case reply := <-replyCh:
		if reply.Error != nil {
			return reply.Error.toClientError()
		}
		if result == nil || len(reply.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(reply.Result, result); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryExternal, "client: decoding call result").
				WithTextCode(core.ClientErrorInternal)
		}
		return nil
	}
}

func (c *Client) writeFrame(f frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.enc.Encode(f)
}

func (c *Client) readLoop(conn net.Conn) {
	dec := json.NewDecoder(conn)
	for {
		var f frame
		if err := dec.Decode(&f); err != nil {
			c.teardown(err)
			return
		}
		switch f.Kind {
		case frameKindReply:
			c.mu.Lock()
			replyCh, ok := c.pending[f.ID]
			if ok {
				delete(c.pending, f.ID)
			}
			c.mu.Unlock()
			if ok {
				replyCh <- f
			}
		case frameKindEvent:
			c.dispatchEvent(f)
		default:
			c.logger.Info("discarding unknown frame", "kind", f.Kind)
		}
	}
}

func (c *Client) dispatchEvent(f frame) {
	c.mu.Lock()
	stream, ok := c.streams[f.Stream]
	c.mu.Unlock()
	if !ok {
		return
	}
	var event accessrequest.AccessRequest
	if err := json.Unmarshal(f.Result, &event); err != nil {
		c.logger.Error("discarding malformed event", "stream", f.Stream, "error", err)
		return
	}
	select {
	case stream.events <- event:
	case <-stream.done:
	case <-c.done:
	}
}

// teardown reacts to the transport dropping underneath the client.
func (c *Client) teardown(cause error) {
	select {
	case <-c.done:
		// Shutdown initiated by Close; pending work is already failed.
		return
	default:
	}
	c.logger.Error("connection lost", "addr", c.addr, "error", cause)
	c.shutdown(core.NewConnectionError(cause, c.addr))
}

// Close terminates the session. In-flight calls fail with a connection
// error and open streams end with a watch-closed error. Close is
// idempotent and safe to invoke from any goroutine.
func (c *Client) Close() error {
	c.shutdown(core.NewWatchClosedError())
	return nil
}

// shutdown closes the session once. Pending callers observe the done
// channel and fail themselves with a connection error.
func (c *Client) shutdown(streamErr error) {
	c.closeOnce.Do(func() {
		close(c.done)

		c.mu.Lock()
		streams := c.streams
		c.pending = map[string]chan frame{}
		c.streams = map[string]*Stream{}
		c.mu.Unlock()

		for _, stream := range streams {
			stream.finish(streamErr)
		}

		if c.conn != nil {
			c.conn.Close()
		}
		if closer, ok := c.provider.(io.Closer); ok {
			closer.Close()
		}
	})
}

func (c *Client) dropPending(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) dropStream(id string) {
	c.mu.Lock()
	delete(c.streams, id)
	c.mu.Unlock()
}

// watchReloads surfaces provider rotation signals in the log. New
// material is presented lazily on the next TLS handshake; the session
// itself stays up.
func (c *Client) watchReloads() {
	reloads := c.provider.Reloaded()
	if reloads == nil {
		return
	}
	for {
		select {
		case <-c.done:
			return
		case _, ok := <-reloads:
			if !ok {
				return
			}
			c.logger.Info("credential material reloaded", "provider", c.provider.Name())
		}
	}
}

// Stream is a live subscription to access-request events. It satisfies
// the watcher's event-stream contract.
type Stream struct {
	id     string
	events chan accessrequest.AccessRequest
	done   chan struct{}

	once sync.Once
	err  error
}

func (s *Stream) Events() <-chan accessrequest.AccessRequest { return s.events }

func (s *Stream) Done() <-chan struct{} { return s.done }

// Err reports why the stream terminated. Valid after Done is closed.
func (s *Stream) Err() error { return s.err }

// Close ends the subscription locally.
func (s *Stream) Close() error {
	s.finish(nil)
	return nil
}

func (s *Stream) finish(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.done)
	})
}
