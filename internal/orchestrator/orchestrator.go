// Package orchestrator drives a proofreading run: one unit at a time, in
// document order, with retry and exponential backoff around each service
// call. Units never overlap in flight; the only state accumulated across
// units is the result slice.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/valpere/texproof/internal/proofreader"
	"github.com/valpere/texproof/internal/segment"
	"github.com/valpere/texproof/internal/validator"
)

// State tracks a unit through its proofreading lifecycle:
// Pending → InFlight → {Succeeded, Retrying → InFlight, Failed}.
type State int

const (
	Pending State = iota
	InFlight
	Retrying
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case InFlight:
		return "in-flight"
	case Retrying:
		return "retrying"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// UnitResult is the outcome for one unit. Text is the accepted correction,
// or the original unit text when no attempt succeeded, so the reassembler
// always has something valid to splice.
type UnitResult struct {
	Unit     segment.Unit
	Text     string
	State    State
	Attempts int
	Changed  bool
	Err      error
}

// Config controls the retry loop.
type Config struct {
	MaxAttempts int           // total tries per unit including the first
	RetryDelay  time.Duration // base backoff, doubled per attempt
	Timeout     time.Duration // per-attempt deadline
	Instruction string        // system instruction sent with every unit
	Logger      *slog.Logger
}

const (
	DefaultMaxAttempts = 4
	DefaultRetryDelay  = time.Second
	DefaultTimeout     = 120 * time.Second

	maxBackoff = 30 * time.Second
)

type Orchestrator struct {
	service proofreader.Service
	config  Config
	logger  *slog.Logger
}

func New(service proofreader.Service, config Config) *Orchestrator {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = DefaultRetryDelay
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{service: service, config: config, logger: logger}
}

// Run proofreads units strictly in order and returns one result per unit, in
// the same order. A fatal service error or context cancellation stops the
// loop immediately: the failing unit is marked Failed, the rest stay Pending
// with their original text, and the error is returned alongside the results
// so the caller can still reassemble a best-available document.
func (o *Orchestrator) Run(ctx context.Context, svcCfg proofreader.ServiceConfig, units []segment.Unit) ([]UnitResult, error) {
	results := make([]UnitResult, len(units))
	for i, u := range units {
		results[i] = UnitResult{Unit: u, Text: u.Text, State: Pending}
	}

	for i := range results {
		section := segment.SectionAt(units, results[i].Unit.Start)
		if err := o.processUnit(ctx, svcCfg, &results[i], section); err != nil {
			return results, err
		}
	}
	return results, nil
}

// processUnit runs the retry loop for a single unit. It returns an error
// only for conditions that must halt the whole run; an exhausted retry
// budget is recorded on the result and returns nil.
func (o *Orchestrator) processUnit(ctx context.Context, svcCfg proofreader.ServiceConfig, r *UnitResult, section string) error {
	req := proofreader.Request{Text: r.Unit.Text, Instruction: o.config.Instruction}

	for attempt := 1; attempt <= o.config.MaxAttempts; attempt++ {
		r.State = InFlight
		r.Attempts = attempt
		o.logger.Debug("proofreading unit",
			"kind", r.Unit.Kind.String(), "offset", r.Unit.Start,
			"section", section, "attempt", attempt)

		attemptCtx, cancel := context.WithTimeout(ctx, o.config.Timeout)
		res, err := o.service.Proofread(attemptCtx, svcCfg, req)
		cancel()

		if err == nil {
			err = validator.Validate(r.Unit.Text, res.CorrectedText)
			if err == nil {
				r.State = Succeeded
				r.Text = res.CorrectedText
				r.Changed = res.CorrectedText != r.Unit.Text
				r.Err = nil
				o.logger.Info("unit proofread",
					"kind", r.Unit.Kind.String(), "offset", r.Unit.Start,
					"section", section, "attempt", attempt,
					"changed", r.Changed, "latency", res.Latency)
				return nil
			}
		}
		r.Err = err

		if proofreader.IsFatal(err) {
			r.State = Failed
			o.logger.Error("fatal service error, halting run",
				"kind", r.Unit.Kind.String(), "offset", r.Unit.Start, "err", err)
			return err
		}
		if ctx.Err() != nil {
			r.State = Failed
			return ctx.Err()
		}
		if attempt == o.config.MaxAttempts {
			break
		}

		r.State = Retrying
		delay := o.backoff(attempt, err)
		o.logger.Warn("attempt failed, retrying",
			"kind", r.Unit.Kind.String(), "offset", r.Unit.Start,
			"section", section, "attempt", attempt, "delay", delay, "err", err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			r.State = Failed
			return ctx.Err()
		}
	}

	r.State = Failed
	o.logger.Warn("unit left uncorrected",
		"kind", r.Unit.Kind.String(), "offset", r.Unit.Start,
		"section", section, "attempts", r.Attempts, "err", r.Err)
	return nil
}

// backoff computes the wait before the next attempt. A server-supplied
// Retry-After hint wins; otherwise the base delay doubles per attempt,
// capped at maxBackoff, with jitter so repeated runs do not align.
func (o *Orchestrator) backoff(attempt int, err error) time.Duration {
	var te *proofreader.TransientError
	if errors.As(err, &te) && te.RetryAfter > 0 {
		return te.RetryAfter
	}
	d := o.config.RetryDelay << uint(attempt-1)
	if d > maxBackoff {
		d = maxBackoff
	}
	return d + time.Duration(rand.Int64N(int64(d)/2+1))
}

// Summary tallies a finished run.
type Summary struct {
	Succeeded int
	Failed    int
	Pending   int
	Changed   int
}

func Summarize(results []UnitResult) Summary {
	var s Summary
	for _, r := range results {
		switch r.State {
		case Succeeded:
			s.Succeeded++
			if r.Changed {
				s.Changed++
			}
		case Failed:
			s.Failed++
		default:
			s.Pending++
		}
	}
	return s
}
