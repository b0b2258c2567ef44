package progress

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Ning0612/Filegraph/internal/domain"
)

// TestCallbackReporter_Record tests running totals across records
func TestCallbackReporter_Record(t *testing.T) {
	var updates []Update
	reporter := NewCallbackReporter(func(u Update) {
		updates = append(updates, u)
	})

	reporter.Connected("photos")
	reporter.Record("/r/a.txt", 10)
	reporter.Record("/r/sub/b.txt", 20)

	if len(updates) != 3 {
		t.Fatalf("expected 3 updates, got %d", len(updates))
	}
	if updates[0].Type != UpdateConnected || updates[0].Message != MsgConnected {
		t.Errorf("unexpected first update: %+v", updates[0])
	}
	last := updates[2]
	if last.Type != UpdateRecord || last.CurrentPath != "/r/sub/b.txt" || last.CurrentBytes != 20 {
		t.Errorf("unexpected record update: %+v", last)
	}
	if last.Records != 2 || last.BytesTotal != 30 || last.Root != "photos" {
		t.Errorf("expected 2 records / 30 bytes under photos, got %+v", last)
	}
}

// TestCallbackReporter_Rejected tests data error counting
func TestCallbackReporter_Rejected(t *testing.T) {
	var update Update
	reporter := NewCallbackReporter(func(u Update) { update = u })

	reporter.Rejected("/r/x", domain.ErrUnresolvableParent)

	if update.Type != UpdateRejected || update.Rejected != 1 {
		t.Errorf("unexpected update: %+v", update)
	}
	if !errors.Is(update.Error, domain.ErrUnresolvableParent) {
		t.Errorf("expected ErrUnresolvableParent, got %v", update.Error)
	}
	if update.Records != 0 {
		t.Error("rejected record must not count as accepted")
	}
}

// TestCallbackReporter_Messages tests the status line for each stream event
func TestCallbackReporter_Messages(t *testing.T) {
	tests := []struct {
		name    string
		fire    func(r *CallbackReporter)
		typ     UpdateType
		message string
	}{
		{"protocol error", func(r *CallbackReporter) { r.ProtocolError("root not found") }, UpdateProtocolError, "Error: root not found"},
		{"transport error", func(r *CallbackReporter) { r.TransportError(errors.New("dial")) }, UpdateTransportError, MsgTransport},
		{"clean close", func(r *CallbackReporter) { r.Closed(true) }, UpdateClosed, MsgClosed},
		{"lost", func(r *CallbackReporter) { r.Closed(false) }, UpdateLost, MsgLost},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var update Update
			reporter := NewCallbackReporter(func(u Update) { update = u })
			tt.fire(reporter)
			if update.Type != tt.typ {
				t.Errorf("expected %v, got %v", tt.typ, update.Type)
			}
			if update.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, update.Message)
			}
			if reporter.Snapshot().Message != tt.message {
				t.Error("status line not retained")
			}
		})
	}
}

// TestCallbackReporter_ProtocolErrorWraps tests the sentinel on protocol errors
func TestCallbackReporter_ProtocolErrorWraps(t *testing.T) {
	var update Update
	reporter := NewCallbackReporter(func(u Update) { update = u })
	reporter.ProtocolError("boom")
	if !errors.Is(update.Error, domain.ErrProtocol) {
		t.Errorf("expected ErrProtocol, got %v", update.Error)
	}
}

// TestCallbackReporter_Rate tests records-per-second calculation
func TestCallbackReporter_Rate(t *testing.T) {
	reporter := NewCallbackReporter(nil)
	reporter.Connected("r")
	time.Sleep(20 * time.Millisecond)
	reporter.Record("/r/a", 1)

	if rate := reporter.Snapshot().RecordsPerSecond; rate <= 0 {
		t.Errorf("expected positive rate, got %f", rate)
	}
}

// TestCallbackReporter_Concurrent tests concurrent record updates
func TestCallbackReporter_Concurrent(t *testing.T) {
	var mu sync.Mutex
	count := 0
	reporter := NewCallbackReporter(func(u Update) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				reporter.Record("file.txt", 10)
			}
		}()
	}
	wg.Wait()

	if got := reporter.Snapshot(); got.Records != 50 || got.BytesTotal != 500 {
		t.Errorf("expected 50 records / 500 bytes, got %+v", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if count != 50 {
		t.Errorf("expected 50 callbacks, got %d", count)
	}
}

// TestSecurity_CallbackDeadlock tests that callbacks don't cause deadlock
func TestSecurity_CallbackDeadlock(t *testing.T) {
	done := make(chan bool, 1)

	var reporter *CallbackReporter
	reporter = NewCallbackReporter(func(u Update) {
		// callback re-enters the reporter; would deadlock if the lock were held
		switch u.Type {
		case UpdateConnected:
			reporter.Record("x", 1)
		case UpdateRecord:
			_ = reporter.Snapshot()
		}
	})

	go func() {
		reporter.Connected("r")
		reporter.Closed(true)
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("deadlock detected - callback was called while holding lock")
	}
}

// TestFormatBytes tests byte formatting
func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{500, "500 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048576, "1.0 MiB"},
		{-2048, "-2.0 KiB"},
	}

	for _, tt := range tests {
		if result := FormatBytes(tt.bytes); result != tt.expected {
			t.Errorf("FormatBytes(%d) = %s, expected %s", tt.bytes, result, tt.expected)
		}
	}
}

// TestSummary tests the status bar totals line
func TestSummary(t *testing.T) {
	got := Summary(Update{Records: 1234, BytesTotal: 2048, Rejected: 2})
	want := "1,234 files, 2.0 KiB, 2 rejected"
	if got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
	if got := Summary(Update{Records: 1}); got != "1 files, 0 B" {
		t.Errorf("Summary() = %q", got)
	}
}

// TestNullReporter tests that NullReporter doesn't panic
func TestNullReporter(t *testing.T) {
	var r Reporter = NullReporter{}
	r.Connected("r")
	r.Record("p", 1)
	r.Rejected("p", nil)
	r.ProtocolError("m")
	r.TransportError(nil)
	r.Closed(true)
}
