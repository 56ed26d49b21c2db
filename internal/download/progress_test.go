package download

import (
	"sync"
	"testing"
)

func TestTransferProgress_Concurrent(t *testing.T) {
	var p TransferProgress
	p.AddFiles(50)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Declare(1000)
			for j := 0; j < 10; j++ {
				p.Advance(100)
			}
			p.FileDone()
		}()
	}
	wg.Wait()

	received, total, done, files := p.Snapshot()
	if received != 50000 {
		t.Errorf("received = %d, want 50000", received)
	}
	if total != 50000 {
		t.Errorf("total = %d, want 50000", total)
	}
	if done != 50 || files != 50 {
		t.Errorf("files = %d/%d, want 50/50", done, files)
	}
}

func TestTransferProgress_IgnoresUnknownLength(t *testing.T) {
	var p TransferProgress
	p.Declare(-1)
	p.Advance(10)
	p.Advance(-5)

	received, total, _, _ := p.Snapshot()
	if received != 10 {
		t.Errorf("received = %d, want 10", received)
	}
	if total != 0 {
		t.Errorf("total = %d, want 0", total)
	}
}

func TestEventReporter(t *testing.T) {
	var events []ProgressEvent
	r := EventReporter(func(e ProgressEvent) { events = append(events, e) })
	r.Info("hello")
	r.Fatal("boom")

	if len(events) != 2 {
		t.Fatalf("got %d events", len(events))
	}
	if events[0].Level != LevelInfo || events[1].Level != LevelError {
		t.Errorf("levels = %v, %v", events[0].Level, events[1].Level)
	}

	// A nil callback must not panic.
	EventReporter(nil).Fatal("ignored")
}
