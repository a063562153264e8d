package orchestrator_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/valpere/texproof/internal/orchestrator"
	"github.com/valpere/texproof/internal/proofreader"
	"github.com/valpere/texproof/internal/segment"
)

// mockService lets each test script the sequence of service replies.
type mockService struct {
	calls     int
	proofread func(call int, req proofreader.Request) (*proofreader.Result, error)
}

func (m *mockService) Name() string { return "mock" }

func (m *mockService) Proofread(ctx context.Context, cfg proofreader.ServiceConfig, req proofreader.Request) (*proofreader.Result, error) {
	m.calls++
	return m.proofread(m.calls, req)
}

func (m *mockService) IsAvailable(ctx context.Context) error { return nil }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() orchestrator.Config {
	return orchestrator.Config{
		MaxAttempts: 4,
		RetryDelay:  time.Millisecond,
		Timeout:     time.Second,
		Logger:      quietLogger(),
	}
}

func unitsFrom(t *testing.T, src string) []segment.Unit {
	t.Helper()
	units, errs := segment.Split(src)
	if len(errs) != 0 {
		t.Fatalf("unexpected segmentation errors: %v", errs)
	}
	return units
}

func TestRun_AllSucceed(t *testing.T) {
	src := "\\section{teh title}\n\nThis are a paragraph.\n"
	units := unitsFrom(t, src)

	replies := map[string]string{
		"teh title":            "the title",
		"This are a paragraph.": "This is a paragraph.",
	}
	svc := &mockService{proofread: func(call int, req proofreader.Request) (*proofreader.Result, error) {
		return &proofreader.Result{CorrectedText: replies[req.Text]}, nil
	}}

	results, err := orchestrator.New(svc, testConfig()).Run(context.Background(), proofreader.ServiceConfig{}, units)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != len(units) {
		t.Fatalf("expected %d results, got %d", len(units), len(results))
	}
	for i, r := range results {
		if r.State != orchestrator.Succeeded {
			t.Errorf("unit %d: expected Succeeded, got %v", i, r.State)
		}
		if r.Attempts != 1 {
			t.Errorf("unit %d: expected 1 attempt, got %d", i, r.Attempts)
		}
		if !r.Changed {
			t.Errorf("unit %d: expected Changed", i)
		}
		if r.Text != replies[r.Unit.Text] {
			t.Errorf("unit %d: unexpected text %q", i, r.Text)
		}
	}
	if svc.calls != len(units) {
		t.Errorf("expected exactly one call per unit, got %d", svc.calls)
	}
}

func TestRun_TransientFailuresThenSuccess(t *testing.T) {
	units := unitsFrom(t, "A paragraph that needs three retries.\n")

	svc := &mockService{proofread: func(call int, req proofreader.Request) (*proofreader.Result, error) {
		if call <= 3 {
			return nil, &proofreader.TransientError{StatusCode: 503, Message: "overloaded"}
		}
		return &proofreader.Result{CorrectedText: "A paragraph that needed three retries."}, nil
	}}

	results, err := orchestrator.New(svc, testConfig()).Run(context.Background(), proofreader.ServiceConfig{}, units)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := results[0]
	if r.State != orchestrator.Succeeded {
		t.Errorf("expected Succeeded, got %v", r.State)
	}
	if r.Attempts != 4 {
		t.Errorf("expected 4 attempts, got %d", r.Attempts)
	}
	if svc.calls != 4 {
		t.Errorf("expected exactly 4 calls, got %d", svc.calls)
	}
	if r.Text != "A paragraph that needed three retries." {
		t.Errorf("unexpected text: %q", r.Text)
	}
}

func TestRun_RetryBudgetExhaustedKeepsOriginal(t *testing.T) {
	units := unitsFrom(t, "Stubborn paragraph text.\n")

	svc := &mockService{proofread: func(call int, req proofreader.Request) (*proofreader.Result, error) {
		return nil, &proofreader.TransientError{Message: "connection reset"}
	}}

	results, err := orchestrator.New(svc, testConfig()).Run(context.Background(), proofreader.ServiceConfig{}, units)
	if err != nil {
		t.Fatalf("an exhausted budget must not abort the run: %v", err)
	}
	r := results[0]
	if r.State != orchestrator.Failed {
		t.Errorf("expected Failed, got %v", r.State)
	}
	if r.Text != r.Unit.Text {
		t.Errorf("expected original text kept, got %q", r.Text)
	}
	if svc.calls != 4 {
		t.Errorf("expected 4 calls and no more, got %d", svc.calls)
	}
	if r.Err == nil {
		t.Error("expected the last error to be recorded")
	}
}

func TestRun_FatalErrorHaltsAndLeavesRestPending(t *testing.T) {
	src := "First paragraph here.\n\nSecond paragraph here.\n\nThird paragraph here.\n"
	units := unitsFrom(t, src)

	svc := &mockService{proofread: func(call int, req proofreader.Request) (*proofreader.Result, error) {
		return nil, &proofreader.FatalError{StatusCode: 401, Message: "invalid key"}
	}}

	results, err := orchestrator.New(svc, testConfig()).Run(context.Background(), proofreader.ServiceConfig{}, units)
	if !proofreader.IsFatal(err) {
		t.Fatalf("expected the fatal error back, got %v", err)
	}
	if svc.calls != 1 {
		t.Errorf("expected a single call before the halt, got %d", svc.calls)
	}
	if results[0].State != orchestrator.Failed {
		t.Errorf("expected first unit Failed, got %v", results[0].State)
	}
	for i := 1; i < len(results); i++ {
		if results[i].State != orchestrator.Pending {
			t.Errorf("unit %d: expected Pending after halt, got %v", i, results[i].State)
		}
		if results[i].Text != results[i].Unit.Text {
			t.Errorf("unit %d: pending unit must keep its original text", i)
		}
	}
}

func TestRun_ValidationFailureIsRetried(t *testing.T) {
	units := unitsFrom(t, "Cite this \\cite{x2020}.\n")

	svc := &mockService{proofread: func(call int, req proofreader.Request) (*proofreader.Result, error) {
		if call == 1 {
			// Braces dropped: must be rejected and retried.
			return &proofreader.Result{CorrectedText: "Cite this cite x2020."}, nil
		}
		return &proofreader.Result{CorrectedText: "Cite this. \\cite{x2020}"}, nil
	}}

	results, err := orchestrator.New(svc, testConfig()).Run(context.Background(), proofreader.ServiceConfig{}, units)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := results[0]
	if r.State != orchestrator.Succeeded {
		t.Errorf("expected Succeeded after retry, got %v (err %v)", r.State, r.Err)
	}
	if r.Attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", r.Attempts)
	}
	if r.Text != "Cite this. \\cite{x2020}" {
		t.Errorf("unexpected accepted text: %q", r.Text)
	}
}

func TestRun_UnchangedReplyIsNotMarkedChanged(t *testing.T) {
	units := unitsFrom(t, "Already perfect prose.\n")

	svc := &mockService{proofread: func(call int, req proofreader.Request) (*proofreader.Result, error) {
		return &proofreader.Result{CorrectedText: req.Text}, nil
	}}

	results, err := orchestrator.New(svc, testConfig()).Run(context.Background(), proofreader.ServiceConfig{}, units)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Changed {
		t.Error("an identical reply must not count as a change")
	}
}

func TestRun_ContextCancellationHalts(t *testing.T) {
	src := "First paragraph here.\n\nSecond paragraph here.\n"
	units := unitsFrom(t, src)

	ctx, cancel := context.WithCancel(context.Background())
	svc := &mockService{proofread: func(call int, req proofreader.Request) (*proofreader.Result, error) {
		cancel()
		return nil, &proofreader.TransientError{Message: "interrupted"}
	}}

	results, err := orchestrator.New(svc, testConfig()).Run(ctx, proofreader.ServiceConfig{}, units)
	if err == nil {
		t.Fatal("expected a context error")
	}
	if svc.calls != 1 {
		t.Errorf("expected no further calls after cancellation, got %d", svc.calls)
	}
	if results[1].State != orchestrator.Pending {
		t.Errorf("expected second unit Pending, got %v", results[1].State)
	}
}

func TestSummarize(t *testing.T) {
	results := []orchestrator.UnitResult{
		{State: orchestrator.Succeeded, Changed: true},
		{State: orchestrator.Succeeded},
		{State: orchestrator.Failed},
		{State: orchestrator.Pending},
	}
	s := orchestrator.Summarize(results)
	if s.Succeeded != 2 || s.Failed != 1 || s.Pending != 1 || s.Changed != 1 {
		t.Errorf("unexpected summary: %+v", s)
	}
}

func TestStateString(t *testing.T) {
	want := map[orchestrator.State]string{
		orchestrator.Pending:   "pending",
		orchestrator.InFlight:  "in-flight",
		orchestrator.Retrying:  "retrying",
		orchestrator.Succeeded: "succeeded",
		orchestrator.Failed:    "failed",
	}
	for state, name := range want {
		if state.String() != name {
			t.Errorf("expected %q, got %q", name, state.String())
		}
	}
}
