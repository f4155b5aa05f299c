package interpret

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arcanaland/tarotreading/internal/card"
	"github.com/arcanaland/tarotreading/internal/llm"
	"github.com/arcanaland/tarotreading/internal/spread"
)

const (
	// FallbackOverallMessage is the overall message of every fallback result.
	FallbackOverallMessage = "카드가 전하는 메시지를 깊이 생각해보세요."
	// UnavailableMessage replaces per-card messages when no reply was received.
	UnavailableMessage = "지금은 카드의 해석을 불러올 수 없습니다. 잠시 후 다시 시도해주세요."

	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// ErrNoCards is returned for a request without drawn cards.
var ErrNoCards = errors.New("interpret: no cards to interpret")

// Request is what a reading hands over once the draw is complete.
type Request struct {
	Cards     []card.DrawnCard
	Category  string
	Situation string
	Spread    spread.Spread
}

// Entry is the interpretation of one card position.
type Entry struct {
	Position string `json:"position"`
	Message  string `json:"message"`
}

// Result is a display-ready interpretation.
type Result struct {
	Interpretations []Entry `json:"interpretations"`
	OverallMessage  string  `json:"overallMessage"`
}

// RetryPolicy bounds retries of transient generator failures. The n-th
// retry waits BaseDelay*n.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Option configures a Requester.
type Option func(*Requester)

// WithParams overrides the generation parameters.
func WithParams(p llm.Params) Option {
	return func(r *Requester) { r.params = p }
}

// WithRetry overrides the retry policy.
func WithRetry(p RetryPolicy) Option {
	return func(r *Requester) {
		if p.MaxAttempts < 1 {
			p.MaxAttempts = 1
		}
		if p.BaseDelay < 0 {
			p.BaseDelay = 0
		}
		r.retry = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Requester) { r.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *Metrics) Option {
	return func(r *Requester) { r.metrics = m }
}

// WithSleep replaces the wait between attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Requester) { r.sleep = sleep }
}

// Requester turns drawn cards into an interpretation through a Generator.
type Requester struct {
	generator llm.Generator
	params    llm.Params
	retry     RetryPolicy
	logger    *zap.Logger
	metrics   *Metrics
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewRequester creates a requester with the default parameters and retry
// policy.
func NewRequester(generator llm.Generator, opts ...Option) *Requester {
	r := &Requester{
		generator: generator,
		params:    llm.DefaultParams(),
		retry:     RetryPolicy{MaxAttempts: DefaultMaxAttempts, BaseDelay: DefaultBaseDelay},
		logger:    zap.NewNop(),
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Interpret always returns a usable result. The error is non-nil only when
// the generator could not produce a reply; the result is then a fallback
// with placeholder messages. Unparseable replies are not errors.
func (r *Requester) Interpret(ctx context.Context, req Request) (*Result, error) {
	if len(req.Cards) == 0 {
		return &Result{Interpretations: []Entry{}, OverallMessage: FallbackOverallMessage}, ErrNoCards
	}

	start := time.Now()
	labels := spread.Labels(req.Spread, len(req.Cards))

	text, err := r.generate(ctx, buildPrompt(req, labels))
	if err != nil {
		r.logger.Error("interpretation failed, using placeholder", zap.Error(err))
		r.metrics.observeOutcome(outcomeFailed, time.Since(start).Seconds())
		return Fallback(labels, UnavailableMessage), err
	}

	reply := ParseReply(text)
	if reply.Kind == Unparsed {
		r.logger.Warn("reply is not structured, using raw text", zap.Int("length", len(text)))
		r.metrics.observeOutcome(outcomeUnparsed, time.Since(start).Seconds())
		return Fallback(labels, reply.Raw), nil
	}

	r.metrics.observeOutcome(outcomeParsed, time.Since(start).Seconds())
	result := reply.Result
	return &result, nil
}

// generate calls the generator, retrying only llm.ErrUnavailable.
func (r *Requester) generate(ctx context.Context, prompt string) (string, error) {
	if r.generator == nil {
		return "", fmt.Errorf("%w: no generator configured", llm.ErrGeneration)
	}

	var lastErr error
	for attempt := 1; attempt <= r.retry.MaxAttempts; attempt++ {
		text, err := r.generator.Generate(ctx, prompt, r.params)
		if err == nil {
			r.metrics.observeAttempt("ok")
			return text, nil
		}
		lastErr = err

		if !errors.Is(err, llm.ErrUnavailable) {
			r.metrics.observeAttempt("error")
			return "", err
		}
		r.metrics.observeAttempt("unavailable")

		if attempt == r.retry.MaxAttempts {
			break
		}
		delay := r.retry.BaseDelay * time.Duration(attempt)
		r.logger.Warn("generator unavailable, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.retry.MaxAttempts),
			zap.Duration("delay", delay),
		)
		if err := r.sleep(ctx, delay); err != nil {
			return "", fmt.Errorf("waiting to retry: %w", err)
		}
	}
	return "", fmt.Errorf("gave up after %d attempts: %w", r.retry.MaxAttempts, lastErr)
}

// Fallback builds one entry per label, all carrying message.
func Fallback(labels []string, message string) *Result {
	entries := make([]Entry, len(labels))
	for i, label := range labels {
		entries[i] = Entry{Position: label, Message: message}
	}
	return &Result{Interpretations: entries, OverallMessage: FallbackOverallMessage}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
