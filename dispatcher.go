package bakery

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/sethvargo/go-retry"
)

// Notification is an email queued for asynchronous delivery.
type Notification struct {
	To      string
	Subject string
	Body    string
}

// DispatcherOptions tunes queue depth, concurrency, and the retry
// schedule for failed deliveries.
type DispatcherOptions struct {
	QueueSize   int
	Workers     int
	MaxRetries  uint64
	RetryBase   time.Duration
	RetryJitter time.Duration
}

func (o *DispatcherOptions) defaults() {
	if o.QueueSize <= 0 {
		o.QueueSize = 128
	}
	if o.Workers <= 0 {
		o.Workers = 2
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = 5
	}
	if o.RetryBase <= 0 {
		o.RetryBase = 5 * time.Second
	}
	if o.RetryJitter <= 0 {
		o.RetryJitter = time.Second
	}
}

// Dispatcher delivers notifications off the request path. Enqueue never
// blocks the caller on provider latency; a pool of workers drains the
// queue and retries transient failures with exponential backoff.
type Dispatcher struct {
	mailer Mailer
	sender string
	opts   DispatcherOptions
	logger Logger

	queue  chan Notification
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
}

func NewDispatcher(mailer Mailer, sender string, opts DispatcherOptions, logger Logger) *Dispatcher {
	opts.defaults()
	if logger == nil {
		logger = defLogger{}
	}
	return &Dispatcher{
		mailer: mailer,
		sender: sender,
		opts:   opts,
		logger: logger,
		queue:  make(chan Notification, opts.QueueSize),
	}
}

// Start spins up the worker pool. Calling it twice is a no-op.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return
	}
	d.started = true

	ctx, d.cancel = context.WithCancel(ctx)

	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
}

// Stop drains in-flight deliveries and shuts the pool down.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.started = false
	d.mu.Unlock()

	close(d.queue)
	d.wg.Wait()

	if d.cancel != nil {
		d.cancel()
	}
}

// Enqueue hands a notification to the pool. It fails fast when the queue
// is full rather than blocking the request that triggered the email.
func (d *Dispatcher) Enqueue(n Notification) error {
	select {
	case d.queue <- n:
		return nil
	default:
		return goerrors.New("notification queue is full", goerrors.CategoryOperation).
			WithMetadata(map[string]any{"to": n.To, "subject": n.Subject})
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()

	for n := range d.queue {
		d.deliver(ctx, n)
	}
}

// deliver retries transient provider failures and swallows the final
// error after logging it: a lost email never fails the originating
// request.
func (d *Dispatcher) deliver(ctx context.Context, n Notification) {
	backoff := retry.WithJitter(d.opts.RetryJitter,
		retry.WithMaxRetries(d.opts.MaxRetries,
			retry.NewExponential(d.opts.RetryBase)))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := d.mailer.Send(ctx, Message{
			From:    d.sender,
			To:      n.To,
			Subject: n.Subject,
			Text:    n.Body,
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})

	if err != nil {
		d.logger.Error("notification delivery failed after retries",
			"to", n.To,
			"subject", n.Subject,
			"error", err,
		)
		return
	}

	d.logger.Debug("notification delivered", "to", n.To, "subject", n.Subject)
}
