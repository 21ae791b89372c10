package stats

import (
	"sync"
	"testing"
)

func TestNew_PreZeroedCounters(t *testing.T) {
	c := New("reminders_sent")

	for _, name := range []string{Updated, NoChange, Errors, Skipped, SkippedCapReached, "reminders_sent"} {
		if got := c.Get(name); got != 0 {
			t.Errorf("Get(%q) = %d, want 0", name, got)
		}
	}

	snap := c.Snapshot()
	if len(snap.Counts) != 6 {
		t.Errorf("Snapshot has %d counters, want 6", len(snap.Counts))
	}
}

func TestIncAndAdd(t *testing.T) {
	c := New()

	c.Inc(Updated)
	c.Inc(Updated)
	c.Add(Errors, 3)

	if got := c.Get(Updated); got != 2 {
		t.Errorf("Get(Updated) = %d, want 2", got)
	}
	if got := c.Get(Errors); got != 3 {
		t.Errorf("Get(Errors) = %d, want 3", got)
	}
}

func TestIncDim_AutoInitializesSubCounters(t *testing.T) {
	c := New()

	c.IncDim("Windows", Updated)
	c.IncDim("Windows", Updated)
	c.IncDim("macOS", NoChange)

	snap := c.Snapshot()

	windows, ok := snap.ByDimension["Windows"]
	if !ok {
		t.Fatal("Windows dimension not initialized")
	}
	if windows[Updated] != 2 {
		t.Errorf("Windows updated = %d, want 2", windows[Updated])
	}
	// First access pre-zeroes the other terminal counters.
	if v, ok := windows[Errors]; !ok || v != 0 {
		t.Errorf("Windows errors = %d (present=%v), want 0 (present)", v, ok)
	}

	if snap.ByDimension["macOS"][NoChange] != 1 {
		t.Errorf("macOS no_change = %d, want 1", snap.ByDimension["macOS"][NoChange])
	}
}

func TestTerminalTotal(t *testing.T) {
	c := New("reminders_sent")

	c.Add(Updated, 10)
	c.Add(NoChange, 5)
	c.Add(Errors, 2)
	c.Add(Skipped, 1)
	c.Add(SkippedCapReached, 7)
	c.Add("reminders_sent", 100) // non-terminal, excluded

	if got := c.TerminalTotal(); got != 25 {
		t.Errorf("TerminalTotal() = %d, want 25", got)
	}
}

func TestSnapshot_IsolatedFromLaterIncrements(t *testing.T) {
	c := New()
	c.Inc(Updated)
	c.IncDim("iOS", Updated)

	snap := c.Snapshot()
	c.Inc(Updated)
	c.IncDim("iOS", Updated)

	if snap.Counts[Updated] != 1 {
		t.Errorf("snapshot updated = %d, want 1", snap.Counts[Updated])
	}
	if snap.ByDimension["iOS"][Updated] != 1 {
		t.Errorf("snapshot iOS updated = %d, want 1", snap.ByDimension["iOS"][Updated])
	}
}

func TestNames_SortedAndComplete(t *testing.T) {
	c := New("zz_extra", "aa_extra")

	names := c.Names()
	if len(names) != 7 {
		t.Fatalf("Names() returned %d names, want 7", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("Names() not sorted: %q before %q", names[i-1], names[i])
		}
	}
}

func TestConcurrentIncrements(t *testing.T) {
	c := New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Inc(Updated)
				c.IncDim("Android", Updated)
			}
		}()
	}
	wg.Wait()

	if got := c.Get(Updated); got != 1000 {
		t.Errorf("Get(Updated) = %d, want 1000", got)
	}
	if got := c.Snapshot().ByDimension["Android"][Updated]; got != 1000 {
		t.Errorf("Android updated = %d, want 1000", got)
	}
}
