// Package sender delivers outbound Telegram calls off the update path.
// Jobs for the same chat run on one worker so replies keep their order.
package sender

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/trainbot/core/logger"
	"github.com/m3rciful/trainbot/core/telegram/netutil"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the worker queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")

	tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	// QueueSize is the buffer per worker.
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// Dispatcher executes outbound Telegram calls asynchronously with retries.
type Dispatcher struct {
	opts   Options
	queues []chan job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	sent atomic.Uint64
	errs atomic.Uint64
}

// NewDispatcher starts the workers, filling zero options with defaults.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 2 * time.Second
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 12 * time.Second
	}

	d := &Dispatcher{opts: opts, queues: make([]chan job, opts.Workers)}
	d.wg.Add(opts.Workers)
	for i := range d.queues {
		d.queues[i] = make(chan job, opts.QueueSize)
		go d.worker(i, d.queues[i])
	}
	return d
}

// Enqueue schedules run on the worker owning the chat found in ctx.
// The run closure must be idempotent if retries are desired.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	return d.EnqueueWait(ctx, 0, action, endpoint, run)
}

// EnqueueWait is Enqueue that waits up to wait for room in the chat's queue
// before failing with ErrQueueFull.
func (d *Dispatcher) EnqueueWait(ctx context.Context, wait time.Duration, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}

	j := job{ctx: ctx, action: action, endpoint: endpoint, run: run}
	q := d.queues[d.shard(logger.ChatIDFrom(ctx))]
	select {
	case q <- j:
		return nil
	default:
	}
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case q <- j:
			return nil
		case <-timer.C:
		}
	}
	logger.Warn(ctx, logger.CompSender, "send.queue_full", sendLogAttrs(ctx, j)...)
	return ErrQueueFull
}

func (d *Dispatcher) shard(chatID int64) int {
	if chatID < 0 {
		chatID = -chatID
	}
	return int(chatID % int64(len(d.queues)))
}

// SentCount returns the number of delivered jobs.
func (d *Dispatcher) SentCount() uint64 {
	return d.sent.Load()
}

// ErrorCount returns the number of failed jobs.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close stops accepting jobs and waits until queued jobs are processed.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, q := range d.queues {
		close(q)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) worker(id int, jobs <-chan job) {
	defer d.wg.Done()
	for j := range jobs {
		d.handleJob(id, j)
	}
}

func (d *Dispatcher) handleJob(worker int, j job) {
	ctx := j.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	// Delivery outlives the update handler; only values are inherited.
	deadlineCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts := d.opts.MaxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if lastErr = j.run(); lastErr == nil {
			d.sent.Add(1)
			attrs := append(sendLogAttrs(ctx, j),
				slog.Int("worker", worker),
				slog.Int("attempt", attempt),
				slog.Duration("duration", time.Since(start)),
			)
			if attempt > 1 {
				logger.Info(ctx, logger.CompSender, "send.retry.success", attrs...)
			} else if logger.ShouldSampleDebug() {
				logger.Debug(ctx, logger.CompSender, "send.success", attrs...)
			}
			return
		}
		if attempt == attempts || !netutil.ShouldRetry(lastErr) {
			break
		}

		delay := d.opts.RetryBackoff * time.Duration(attempt)
		timer := time.NewTimer(delay)
		select {
		case <-deadlineCtx.Done():
			timer.Stop()
			lastErr = errors.Join(lastErr, deadlineCtx.Err())
			attempt = attempts
		case <-timer.C:
			logger.Debug(ctx, logger.CompSender, "send.retry.backoff",
				append(sendLogAttrs(ctx, j), slog.Int("attempt", attempt), slog.Duration("delay", delay))...)
		}
	}

	d.errs.Add(1)
	logger.Error(ctx, logger.CompSender, "send.fail",
		append(sendLogAttrs(ctx, j),
			slog.Int("worker", worker),
			slog.String("outcome", "fail"),
			slog.String("err", sanitizeErrorMessage(lastErr)),
			slog.String("error_kind", classifyError(lastErr)),
			slog.Int("attempts", attempts),
			slog.Duration("duration", time.Since(start)),
		)...)
}

func sendLogAttrs(ctx context.Context, j job) []slog.Attr {
	attrs := []slog.Attr{slog.String("action", j.action)}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}
	if chatID := logger.ChatIDFrom(ctx); chatID != 0 {
		attrs = append(attrs, slog.Int64("chat_id", chatID))
	}
	return attrs
}

func classifyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return "timeout"
		}
		return "dns"
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return "timeout"
		}
		if opErr.Op == "dial" {
			return "dial"
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return "timeout"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}

	var alertErr tls.AlertError
	if errors.As(err, &alertErr) {
		return "tls"
	}

	switch status := httpStatusFromError(err); {
	case status == http.StatusTooManyRequests:
		return "flood"
	case status >= 500:
		return "http_5xx"
	case status >= 400:
		return "http_4xx"
	}
	return "unknown"
}

// sanitizeErrorMessage redacts bot tokens that telebot embeds in request URLs.
func sanitizeErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}

func httpStatusFromError(err error) int {
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var floodErr tele.FloodError
	if errors.As(err, &floodErr) {
		return http.StatusTooManyRequests
	}
	var groupErr tele.GroupError
	if errors.As(err, &groupErr) {
		return http.StatusBadRequest
	}

	msg := err.Error()
	open, end := strings.LastIndex(msg, "("), strings.LastIndex(msg, ")")
	if open >= 0 && end > open+1 {
		if code, convErr := strconv.Atoi(strings.TrimSpace(msg[open+1 : end])); convErr == nil {
			return code
		}
	}
	return 0
}
