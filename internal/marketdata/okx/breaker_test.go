package okx

import (
	"errors"
	"testing"
	"time"
)

func TestBreaker_StartsClosed(t *testing.T) {
	b := NewBreaker(3, 100*time.Millisecond)
	if b.State() != StateClosed {
		t.Errorf("expected closed, got %v", b.State())
	}
}

func TestBreaker_OpensAfterFailures(t *testing.T) {
	b := NewBreaker(3, 100*time.Millisecond)
	errFail := errors.New("fail")

	for i := 0; i < 3; i++ {
		if err := b.Execute(func() error { return errFail }); err != errFail {
			t.Fatalf("expected errFail, got %v", err)
		}
	}
	if b.State() != StateOpen {
		t.Errorf("expected open after 3 failures, got %v", b.State())
	}

	called := false
	err := b.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("fn must not run while open")
	}
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	b := NewBreaker(2, 50*time.Millisecond)
	var transitions []string
	b.OnStateChange = func(from, to BreakerState) {
		transitions = append(transitions, from.String()+"->"+to.String())
	}

	errFail := errors.New("fail")
	for i := 0; i < 2; i++ {
		b.Execute(func() error { return errFail })
	}
	if b.State() != StateOpen {
		t.Fatal("expected open")
	}

	time.Sleep(60 * time.Millisecond)

	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed after successful probe, got %v", b.State())
	}

	want := []string{"closed->open", "open->half-open", "half-open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, transitions[i], want[i])
		}
	}
}

func TestBreaker_HalfOpenProbeFailureReopens(t *testing.T) {
	b := NewBreaker(1, 30*time.Millisecond)
	errFail := errors.New("fail")
	b.Execute(func() error { return errFail })

	time.Sleep(40 * time.Millisecond)

	if err := b.Execute(func() error { return errFail }); err != errFail {
		t.Fatalf("expected probe error, got %v", err)
	}
	if b.State() != StateOpen {
		t.Errorf("expected open after failed probe, got %v", b.State())
	}
}

func TestBreaker_NeutralErrorsDoNotTrip(t *testing.T) {
	b := NewBreaker(2, time.Minute)
	errCancelled := errors.New("cancelled")

	for i := 0; i < 5; i++ {
		err := b.Execute(func() error { return Neutral(errCancelled) })
		if err != errCancelled {
			t.Fatalf("expected unwrapped error, got %v", err)
		}
	}
	if b.State() != StateClosed {
		t.Errorf("neutral errors must not trip, got %v", b.State())
	}
	if Neutral(nil) != nil {
		t.Error("Neutral(nil) should be nil")
	}
}

func TestBreaker_HalfOpenAdmitsSingleProbe(t *testing.T) {
	b := NewBreaker(1, 20*time.Millisecond)
	b.Execute(func() error { return errors.New("fail") })
	time.Sleep(30 * time.Millisecond)

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- b.Execute(func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	if b.State() != StateHalfOpen {
		t.Fatalf("expected half-open during probe, got %v", b.State())
	}
	called := false
	if err := b.Execute(func() error { called = true; return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("second caller during probe: expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("only the probe may run while half-open")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("probe: %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed after probe, got %v", b.State())
	}
}

func TestBreaker_NeutralProbeKeepsHalfOpen(t *testing.T) {
	b := NewBreaker(1, 20*time.Millisecond)
	b.Execute(func() error { return errors.New("fail") })
	time.Sleep(30 * time.Millisecond)

	b.Execute(func() error { return Neutral(errors.New("cancelled")) })
	if b.State() != StateHalfOpen {
		t.Fatalf("expected half-open after neutral probe, got %v", b.State())
	}
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("next probe should run, got %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed, got %v", b.State())
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker(2, time.Second)
	errFail := errors.New("fail")

	b.Execute(func() error { return errFail })
	b.Execute(func() error { return nil })
	b.Execute(func() error { return errFail })

	if b.State() != StateClosed {
		t.Errorf("non-consecutive failures should not trip, got %v", b.State())
	}
}
