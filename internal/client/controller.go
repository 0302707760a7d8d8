package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"tableside/pkg/logger"
)

const (
	DefaultInitialDelay = time.Second
	DefaultMaxDelay     = 30 * time.Second
)

// NewBackOff returns the reconnect policy: the delay after attempt failed
// reconnects is min(initial * 2^attempt, maxDelay), without jitter and
// without giving up.
func NewBackOff(initial, maxDelay time.Duration) *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     initial,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         maxDelay,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	return b
}

// Connector opens one event stream.
type Connector interface {
	Connect(ctx context.Context, url string) (io.ReadCloser, error)
}

// HTTPConnector streams from an HTTP endpoint, authenticating with a bearer token.
type HTTPConnector struct {
	Client *http.Client
	Token  string
}

func (c HTTPConnector) Connect(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	hc := c.Client
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("stream %s: unexpected status %d", url, resp.StatusCode)
	}
	return resp.Body, nil
}

type Options struct {
	URL       string
	Connector Connector
	Basket    *Basket
	Callbacks Callbacks
	// ResetOnConnect zeroes the attempt counter after every successful connect.
	// When false the counter only resets on Close or SetTopicURL.
	ResetOnConnect bool
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	// OnReconnectScheduled is told about every scheduled reconnect.
	OnReconnectScheduled func(attempt int, delay time.Duration)
	OnConnected          func()
	Logger               *logger.Logger
}

// Controller keeps one event stream open and reconnects with backoff.
type Controller struct {
	opts       Options
	dispatcher *Dispatcher
	log        *logger.Logger

	mu         sync.Mutex
	ctx        context.Context
	url        string
	policy     *backoff.ExponentialBackOff
	gen        uint64
	cancelConn context.CancelFunc
	body       io.ReadCloser
	timer      *time.Timer
	attempt    int
	closed     bool
	started    bool
	lastErr    error
}

func NewController(opts Options) *Controller {
	if opts.Connector == nil {
		opts.Connector = HTTPConnector{}
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = DefaultInitialDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = DefaultMaxDelay
	}
	return &Controller{
		opts:       opts,
		dispatcher: NewDispatcher(opts.Basket, opts.Callbacks),
		log:        logger.OrNop(opts.Logger).Named("stream_client"),
		url:        opts.URL,
		policy:     NewBackOff(opts.InitialDelay, opts.MaxDelay),
	}
}

func (c *Controller) Basket() *Basket {
	return c.dispatcher.Basket()
}

// Start opens the stream. The controller stops when ctx is done or Close is called.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("controller closed")
	}
	if c.started {
		return errors.New("controller already started")
	}
	c.started = true
	c.ctx = ctx
	context.AfterFunc(ctx, c.Close)
	c.connectLocked()
	return nil
}

// SetTopicURL drops the current connection and reconnects to url.
func (c *Controller) SetTopicURL(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	c.url = url
	if c.started && !c.closed {
		c.connectLocked()
	}
}

// Close cancels any pending reconnect and the open connection. It is
// synchronous: no callback fires for this controller once Close returns,
// except one already running.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.teardownLocked()
}

func (c *Controller) Attempt() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempt
}

func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Controller) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.body != nil
}

func (c *Controller) teardownLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.dropConnLocked()
	c.gen++
	c.attempt = 0
	c.policy.Reset()
}

func (c *Controller) dropConnLocked() {
	if c.cancelConn != nil {
		c.cancelConn()
		c.cancelConn = nil
	}
	if c.body != nil {
		c.body.Close()
		c.body = nil
	}
}

func (c *Controller) connectLocked() {
	c.gen++
	gen := c.gen
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancelConn = cancel
	go c.run(ctx, gen, c.url)
}

func (c *Controller) run(ctx context.Context, gen uint64, url string) {
	body, err := c.opts.Connector.Connect(ctx, url)
	if err != nil {
		c.fail(gen, err)
		return
	}
	if !c.connected(gen, body) {
		body.Close()
		return
	}

	frames := NewFrameReader(body)
	for {
		f, err := frames.Next()
		if err != nil {
			if err == io.EOF {
				err = errors.New("stream closed by server")
			}
			c.fail(gen, err)
			return
		}
		if !c.current(gen) {
			return
		}
		if err := c.dispatcher.Dispatch(f); err != nil {
			c.mu.Lock()
			c.lastErr = err
			c.mu.Unlock()
			c.log.Logger.Warn("failed to handle stream frame", zap.String("url", url), zap.Error(err))
		}
	}
}

func (c *Controller) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && c.gen == gen
}

func (c *Controller) connected(gen uint64, body io.ReadCloser) bool {
	c.mu.Lock()
	if c.closed || c.gen != gen {
		c.mu.Unlock()
		return false
	}
	c.body = body
	c.lastErr = nil
	if c.opts.ResetOnConnect {
		c.attempt = 0
		c.policy.Reset()
	}
	url := c.url
	c.mu.Unlock()

	c.log.Logger.Info("stream connected", zap.String("url", url))
	if c.opts.OnConnected != nil {
		c.opts.OnConnected()
	}
	return true
}

// fail closes the connection of generation gen and schedules one reconnect.
func (c *Controller) fail(gen uint64, err error) {
	c.mu.Lock()
	if c.closed || c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.lastErr = err
	c.dropConnLocked()
	if c.timer != nil {
		c.mu.Unlock()
		return
	}
	delay := c.policy.NextBackOff()
	attempt := c.attempt
	c.timer = time.AfterFunc(delay, func() { c.reconnect(gen) })
	c.mu.Unlock()

	c.log.Logger.Warn("stream lost, reconnecting",
		zap.Error(err),
		zap.Int("attempt", attempt),
		zap.Duration("delay", delay),
	)
	if c.opts.OnReconnectScheduled != nil {
		c.opts.OnReconnectScheduled(attempt, delay)
	}
}

func (c *Controller) reconnect(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.gen != gen {
		return
	}
	c.timer = nil
	c.attempt++
	c.connectLocked()
}
