package probe

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Verdicts produced by a check.
const (
	VerdictUp       = "up"
	VerdictDegraded = "degraded"
	VerdictDown     = "down"
	VerdictUnknown  = "unknown"
)

// Extractor derives a verdict from a response.
type Extractor func(body []byte, statusCode int) string

// Target is a single endpoint bound to a board item.
type Target struct {
	Category string
	Item     string

	URL     string
	Method  string
	Headers map[string]string
	Timeout time.Duration

	// Interval overrides the scheduler's default when non-zero.
	Interval time.Duration

	// Extractor interprets the response. Nil maps the HTTP status code.
	Extractor Extractor
}

// Key identifies the board item the target reports on.
func (t Target) Key() string {
	return t.Category + "/" + t.Item
}

// Result is the outcome of checking one [Target].
type Result struct {
	Category string
	Item     string
	URL      string

	// Verdict is one of the Verdict constants.
	Verdict string

	Latency    time.Duration
	CheckedAt  time.Time
	StatusCode int

	// Error is set when the request failed or the extractor panicked.
	Error error

	// RawResponse is the response body, limited to 1MB.
	RawResponse []byte
}

// Summary renders the result as a short human-readable message suitable
// for an item's message field, e.g. "HTTP 200 in 35ms".
func (r Result) Summary() string {
	if r.Error != nil {
		return fmt.Sprintf("%v (after %dms)", r.Error, r.Latency.Milliseconds())
	}
	return fmt.Sprintf("HTTP %d in %dms", r.StatusCode, r.Latency.Milliseconds())
}

// Scheduler runs targets periodically on a bounded worker pool.
//
// All targets are checked immediately on start. After that the scheduler
// ticks at the GCD of all target intervals and checks only the targets that
// are due. Results are emitted on [Scheduler.Results].
//
// All lifecycle methods are safe for concurrent use.
type Scheduler struct {
	targets        []Target
	interval       time.Duration
	maxConcurrency int
	client         *Client
	results        chan Result
	logger         *slog.Logger
	cancel         context.CancelFunc
	wg             sync.WaitGroup

	mu        sync.Mutex
	started   bool
	stopped   bool
	closeOnce sync.Once

	lastRunAt    map[string]time.Time
	baseInterval time.Duration
}

// NewScheduler creates a [Scheduler]. interval is the default for targets
// without their own; maxConcurrency bounds in-flight requests.
func NewScheduler(targets []Target, interval time.Duration, maxConcurrency int, logger *slog.Logger) *Scheduler {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		targets:        targets,
		interval:       interval,
		maxConcurrency: maxConcurrency,
		client:         NewClient(),
		results:        make(chan Result, len(targets)),
		logger:         logger,
	}
}

// Results returns the channel of check results. It is closed when the
// scheduler stops.
func (s *Scheduler) Results() <-chan Result {
	return s.results
}

// intervalOf returns the effective interval for t.
func (s *Scheduler) intervalOf(t Target) time.Duration {
	if t.Interval > 0 {
		return t.Interval
	}
	return s.interval
}

// calculateBaseInterval returns the GCD of all target intervals, floored
// at one second.
func (s *Scheduler) calculateBaseInterval() time.Duration {
	if len(s.targets) == 0 {
		return max(s.interval, time.Second)
	}

	result := s.intervalOf(s.targets[0])
	for _, t := range s.targets[1:] {
		result = gcdDuration(result, s.intervalOf(t))
	}

	// floor at 1 second to prevent CPU thrashing
	if result < time.Second {
		result = time.Second
	}
	return result
}

func gcdDuration(a, b time.Duration) time.Duration {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Start begins the check loop in a background goroutine.
//
// Start is idempotent; calls after the first, or after Stop, are no-ops.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.lastRunAt = make(map[string]time.Time, len(s.targets))
	s.baseInterval = s.calculateBaseInterval()

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.closeOnce.Do(func() { close(s.results) })

		s.runDue(runCtx, true)

		ticker := time.NewTicker(s.baseInterval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.runDue(runCtx, false)
			}
		}
	}()
}

// Stop halts the scheduler, waits for in-flight checks and closes the
// results channel. Safe to call more than once, and before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.client.Close()
	s.closeOnce.Do(func() { close(s.results) })
}

// runDue checks the targets whose interval has elapsed, or all of them
// when immediate is set.
//
// lastRunAt is recorded when a check starts, so a slow target's effective
// interval is its configured interval plus its latency.
func (s *Scheduler) runDue(ctx context.Context, immediate bool) {
	now := time.Now()
	due := make([]Target, 0, len(s.targets))

	s.mu.Lock()
	for _, t := range s.targets {
		last, seen := s.lastRunAt[t.Key()]
		if immediate || !seen || now.Sub(last) >= s.intervalOf(t) {
			due = append(due, t)
			s.lastRunAt[t.Key()] = now
		}
	}
	s.mu.Unlock()

	if len(due) > 0 {
		s.runAll(ctx, due)
	}
}

// runAll checks targets concurrently, respecting maxConcurrency.
func (s *Scheduler) runAll(ctx context.Context, targets []Target) {
	jobs := make(chan Target, len(targets))

	var wg sync.WaitGroup
	for i := 0; i < min(s.maxConcurrency, len(targets)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				result := s.check(ctx, t)
				select {
				case s.results <- result:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for _, t := range targets {
		jobs <- t
	}
	close(jobs)

	wg.Wait()
}

// check runs a single target.
func (s *Scheduler) check(ctx context.Context, t Target) Result {
	resp := s.client.Fetch(ctx, t.Method, t.URL, t.Headers, t.Timeout)

	result := Result{
		Category:    t.Category,
		Item:        t.Item,
		URL:         t.URL,
		Latency:     resp.Latency,
		CheckedAt:   time.Now(),
		StatusCode:  resp.StatusCode,
		Error:       resp.Error,
		RawResponse: resp.Body,
	}

	switch {
	case resp.Error != nil:
		result.Verdict = VerdictDown
	case t.Extractor != nil:
		result.Verdict, result.Error = s.safeExtract(t, resp.Body, resp.StatusCode)
	default:
		result.Verdict = HTTPStatusVerdict(resp.StatusCode)
	}
	return result
}

// safeExtract calls the target's extractor with panic recovery. A panic is
// logged with a correlation id and reported as a down verdict.
func (s *Scheduler) safeExtract(t Target, body []byte, statusCode int) (verdict string, err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			s.logger.Error("extractor panic",
				"category", t.Category,
				"item", t.Item,
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			verdict = VerdictDown
			err = fmt.Errorf("extractor panic (correlation_id: %s)", correlationID)
		}
	}()
	return t.Extractor(body, statusCode), nil
}

// HTTPStatusVerdict maps an HTTP status code to a verdict:
// 2xx is up, 4xx degraded, anything else down.
func HTTPStatusVerdict(code int) string {
	switch {
	case code >= 200 && code < 300:
		return VerdictUp
	case code >= 400 && code < 500:
		return VerdictDegraded
	default:
		return VerdictDown
	}
}
