package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/vesselwatch/tracker/internal/config"
)

func pacerConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		MapBurstSize:   20,
		MapSampleEvery: 10,
		SidebarWindow:  2 * time.Second,
	}
}

func TestMapPacerBurstThenSampling(t *testing.T) {
	p := NewMapPacer(pacerConfig())

	for i := 1; i <= 20; i++ {
		if !p.OnAdmission(false) {
			t.Fatalf("admission %d inside the burst should refresh", i)
		}
	}

	// Past the burst only every 10th admission refreshes: the next hit is
	// admission 30.
	for i := 21; i <= 29; i++ {
		if p.OnAdmission(false) {
			t.Fatalf("admission %d should not refresh", i)
		}
	}
	if !p.OnAdmission(false) {
		t.Error("admission 30 should refresh")
	}
	if p.OnAdmission(false) {
		t.Error("admission 31 should not refresh")
	}
}

func TestMapPacerTrackedAlwaysRefreshes(t *testing.T) {
	p := NewMapPacer(pacerConfig())

	for i := 0; i < 25; i++ {
		p.OnAdmission(false)
	}

	if !p.OnAdmission(true) {
		t.Error("tracked admission should always refresh")
	}
}

func TestMapPacerResetRestartsBurst(t *testing.T) {
	p := NewMapPacer(pacerConfig())

	for i := 0; i < 25; i++ {
		p.OnAdmission(false)
	}

	p.Reset()

	if p.Admissions() != 0 {
		t.Errorf("expected admissions 0 after reset, got %d", p.Admissions())
	}
	if !p.OnAdmission(false) {
		t.Error("first admission after reset should refresh")
	}
}

func TestSidebarThrottleWindow(t *testing.T) {
	throttle := NewSidebarThrottle(pacerConfig())

	clock := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	throttle.now = func() time.Time { return clock }

	if !throttle.ShouldRefresh(false) {
		t.Fatal("first refresh should pass")
	}

	clock = clock.Add(time.Second)
	if throttle.ShouldRefresh(false) {
		t.Error("refresh inside the window should be suppressed")
	}

	clock = clock.Add(1500 * time.Millisecond)
	if !throttle.ShouldRefresh(false) {
		t.Error("refresh after the window should pass")
	}
}

func TestSidebarThrottleForceBypassesAndRestartsWindow(t *testing.T) {
	throttle := NewSidebarThrottle(pacerConfig())

	clock := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	throttle.now = func() time.Time { return clock }

	if !throttle.ShouldRefresh(false) {
		t.Fatal("first refresh should pass")
	}

	clock = clock.Add(time.Second)
	if !throttle.ShouldRefresh(true) {
		t.Error("forced refresh should bypass the window")
	}

	// The force consumed the window: a regular refresh right after waits.
	clock = clock.Add(time.Second)
	if throttle.ShouldRefresh(false) {
		t.Error("refresh after a force should wait out a fresh window")
	}
}

func TestDebouncerCoalescesTriggers(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	var fired atomic.Int32
	for i := 0; i < 5; i++ {
		d.Trigger(func() { fired.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)

	if got := fired.Load(); got != 1 {
		t.Errorf("expected exactly one callback, got %d", got)
	}
}

func TestDebouncerStopCancelsPendingRun(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	var fired atomic.Int32
	d.Trigger(func() { fired.Add(1) })
	d.Stop()

	time.Sleep(100 * time.Millisecond)

	if got := fired.Load(); got != 0 {
		t.Errorf("expected no callback after stop, got %d", got)
	}
}
