package dispatch

import (
	"errors"
	"testing"
	"time"
)

func TestNewRequiresBothCallbacks(t *testing.T) {
	if _, err := New(nil, func(error) {}, nil); err == nil {
		t.Error("expected *type* error for missing output callback")
	}
	if _, err := New(func(any) {}, nil, nil); err == nil {
		t.Error("expected *type* error for missing error callback")
	}
}

func TestOutputsDeliveredInOrder(t *testing.T) {
	outCh := make(chan int, 100)
	d, err := New(func(out any) {
		outCh <- out.(int)
	}, func(error) {}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer d.Stop()

	for i := 0; i < 20; i++ {
		d.DeliverOutput(i)
	}

	for i := 0; i < 20; i++ {
		got := <-outCh
		if got != i {
			t.Fatalf("output %d arrived out of order, got %d", i, got)
		}
	}
}

func TestErrorDelivered(t *testing.T) {
	errCh := make(chan error, 1)
	d, err := New(func(any) {}, func(e error) { errCh <- e }, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer d.Stop()

	wantErr := errors.New("codec library failure")
	d.DeliverError(wantErr)

	select {
	case got := <-errCh:
		if got != wantErr {
			t.Errorf("got %v, want %v", got, wantErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("error callback never fired")
	}
}

func TestDequeueEventsAreCoalesced(t *testing.T) {
	var fired int
	done := make(chan struct{})

	d, err := New(func(any) {}, func(error) {}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer d.Stop()

	d.SetOndequeue(func(Event) error {
		fired++
		close(done)
		return nil
	})

	// Rapidly request 30 dequeue notifications — at most the first should
	// schedule a delivery while it's pending; the rest should be no-ops
	// until it fires, mirroring the spec's scheduled-flag coalescing.
	for i := 0; i < 30; i++ {
		d.NotifyDequeue(i)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dequeue handler never fired")
	}

	// Give any erroneous extra deliveries a chance to land.
	time.Sleep(50 * time.Millisecond)
	if fired < 1 {
		t.Error("expected at least one dequeue event")
	}
	if fired > 30 {
		t.Errorf("expected at most 30 dequeue events, got %d", fired)
	}
}

func TestDequeueReschedulesAfterFiring(t *testing.T) {
	firedCh := make(chan struct{}, 10)
	d, err := New(func(any) {}, func(error) {}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer d.Stop()

	d.SetOndequeue(func(Event) error {
		firedCh <- struct{}{}
		return nil
	})

	d.NotifyDequeue(1)
	<-firedCh

	d.NotifyDequeue(2)
	select {
	case <-firedCh:
	case <-time.After(2 * time.Second):
		t.Fatal("a new dequeue notification after the prior one fired should schedule again")
	}
}

func TestPanicInHandlerIsRecovered(t *testing.T) {
	panicCh := make(chan any, 1)
	d, err := New(func(any) {
		panic("boom")
	}, func(error) {}, func(recovered any) {
		panicCh <- recovered
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer d.Stop()

	d.DeliverOutput("trigger")

	select {
	case <-panicCh:
	case <-time.After(2 * time.Second):
		t.Fatal("expected panic to be recovered and reported")
	}

	// Dispatcher must still be alive and able to deliver further events.
	okCh := make(chan struct{}, 1)
	d.SetOndequeue(func(Event) error {
		okCh <- struct{}{}
		return nil
	})
	d.NotifyDequeue(0)

	select {
	case <-okCh:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher goroutine did not survive a panicking output callback")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	d, err := New(func(any) {}, func(error) {}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	d.Stop()
	d.Stop()
}
