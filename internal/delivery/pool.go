package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tasklytics/tasklytics-api/internal/notify"
	"golang.org/x/time/rate"
)

// ErrPoolStopped is returned by Enqueue once the pool has been stopped.
var ErrPoolStopped = errors.New("delivery pool is stopped")

// Config holds the tuning options for a Pool.
type Config struct {
	// Workers is the number of concurrent senders. Values below 1 mean 1.
	Workers int
	// RatePerSec caps send attempts per second across all workers. Zero disables the limit.
	RatePerSec int
	// SendTimeout bounds a single attempt. Zero means no timeout.
	SendTimeout time.Duration
	// MaxAttempts is the number of tries per job. Values below 1 mean 1.
	MaxAttempts int
	// RetryBackoff is multiplied by the attempt number between tries.
	RetryBackoff time.Duration
}

// DefaultConfig returns a Config with reasonable defaults
func DefaultConfig() Config {
	return Config{
		Workers:      2,
		RatePerSec:   5,
		SendTimeout:  30 * time.Second,
		MaxAttempts:  1,
		RetryBackoff: 2 * time.Second,
	}
}

// Pool manages worker goroutines that drain a Queue into a notify.Sender.
type Pool struct {
	queue   *Queue
	sender  notify.Sender
	cfg     Config
	limiter *rate.Limiter

	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	started atomic.Bool
	stopped atomic.Bool

	logger *slog.Logger

	// errorHandler is called when a job fails its last attempt.
	errorHandler func(job Job, err error)
}

// NewPool creates a pool reading from queue. Call Start to launch the workers.
func NewPool(queue *Queue, sender notify.Sender, cfg Config, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "delivery_pool"))

	if cfg.Workers < 1 {
		logger.Warn("invalid worker count specified, using default",
			slog.Int("specified_count", cfg.Workers),
			slog.Int("default_count", 1))
		cfg.Workers = 1
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var limiter *rate.Limiter
	if cfg.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		queue:   queue,
		sender:  sender,
		cfg:     cfg,
		limiter: limiter,
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
	}
}

// SetErrorHandler sets the hook called for jobs that exhaust their attempts.
// It must be called before Start.
func (p *Pool) SetErrorHandler(handler func(job Job, err error)) {
	p.errorHandler = handler
}

// Start launches the workers. Calling it more than once has no effect.
func (p *Pool) Start() {
	if !p.started.CompareAndSwap(false, true) {
		return
	}

	p.logger.Info("starting delivery pool",
		slog.Int("workers", p.cfg.Workers),
		slog.Int("rate_per_sec", p.cfg.RatePerSec),
		slog.Int("max_attempts", p.cfg.MaxAttempts))

	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Enqueue assigns the job an ID if it has none and adds it to the queue
// without blocking.
func (p *Pool) Enqueue(job Job) error {
	if p.stopped.Load() {
		return ErrPoolStopped
	}
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	return p.queue.Enqueue(job)
}

// Stop closes the queue and waits for the workers to finish the buffered
// jobs. When ctx expires first, in-flight sends are cancelled, remaining jobs
// are dropped and ctx's error is returned.
func (p *Pool) Stop(ctx context.Context) error {
	if !p.stopped.CompareAndSwap(false, true) {
		return nil
	}

	p.logger.Info("stopping delivery pool", slog.Int("pending", p.queue.Len()))
	p.queue.Close()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("delivery pool stopped")
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		p.logger.Warn("delivery pool stopped before draining", slog.Int("dropped", p.queue.Len()))
		return fmt.Errorf("delivery pool shutdown: %w", ctx.Err())
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	log := p.logger.With(slog.Int("worker_id", id))
	log.Debug("worker started")

	for {
		select {
		case <-p.ctx.Done():
			log.Debug("worker stopped")
			return
		case job, ok := <-p.queue.Channel():
			if !ok {
				log.Debug("worker stopped, queue drained")
				return
			}
			p.process(log, job)
		}
	}
}

func (p *Pool) process(log *slog.Logger, job Job) {
	log = log.With(job.LogAttrs()...)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic during delivery: %v", r)
			log.Error("delivery panicked", slog.Any("panic", r))
			p.fail(job, err)
		}
	}()

	var err error
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		if attempt > 1 && !p.sleep(time.Duration(attempt-1)*p.cfg.RetryBackoff) {
			break
		}
		if p.limiter != nil {
			if werr := p.limiter.Wait(p.ctx); werr != nil {
				err = werr
				break
			}
		}

		start := time.Now()
		err = p.send(job)
		if err == nil {
			log.Info("message delivered",
				slog.Int("attempt", attempt),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()))
			return
		}

		log.Warn("delivery attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", p.cfg.MaxAttempts),
			slog.String("error", err.Error()))

		if errors.Is(err, notify.ErrInvalidRecipient) {
			break
		}
	}

	log.Error("message delivery failed", slog.String("error", err.Error()))
	p.fail(job, err)
}

func (p *Pool) send(job Job) error {
	ctx := p.ctx
	if p.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.SendTimeout)
		defer cancel()
	}
	return p.sender.Send(ctx, job.To, job.Subject, job.Body)
}

func (p *Pool) sleep(d time.Duration) bool {
	if d <= 0 {
		return p.ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-p.ctx.Done():
		return false
	}
}

func (p *Pool) fail(job Job, err error) {
	if p.errorHandler != nil {
		p.errorHandler(job, err)
	}
}
