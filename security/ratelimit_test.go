package security

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func TestNewRateLimiter(t *testing.T) {
	rl := NewRateLimiter(10, 20, nil)
	defer rl.Stop()

	if rl.rate != 10 || rl.burst != 20 {
		t.Errorf("rate/burst = %d/%d, want 10/20", rl.rate, rl.burst)
	}
	if rl.maxEntries != 10000 {
		t.Errorf("maxEntries = %d, want default 10000", rl.maxEntries)
	}
	if rl.logger == nil {
		t.Error("nil logger should be replaced with the default")
	}
}

func TestRateLimiter_BurstThenLimited(t *testing.T) {
	rl := NewRateLimiter(10, 3, slog.Default())
	defer rl.Stop()

	ip := "203.0.113.7"
	for i := 0; i < 3; i++ {
		if !rl.Allow(ip) {
			t.Fatalf("request %d within burst should be allowed", i+1)
		}
	}
	if rl.Allow(ip) {
		t.Error("request past the burst should be limited")
	}
}

func TestRateLimiter_PerIdentifierBuckets(t *testing.T) {
	rl := NewRateLimiter(10, 1, slog.Default())
	defer rl.Stop()

	if !rl.Allow("203.0.113.7") {
		t.Fatal("first request from first IP should be allowed")
	}
	if rl.Allow("203.0.113.7") {
		t.Error("second request from first IP should be limited")
	}
	// An exhausted bucket for one IP must not affect another.
	if !rl.Allow("203.0.113.8") {
		t.Error("first request from second IP should be allowed")
	}
}

func TestRateLimiter_Refill(t *testing.T) {
	rl := NewRateLimiter(4, 1, slog.Default())
	defer rl.Stop()

	ip := "203.0.113.7"
	if !rl.Allow(ip) {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow(ip) {
		t.Fatal("bucket should be empty")
	}

	// 4 req/s refills one token in 250ms.
	time.Sleep(300 * time.Millisecond)
	if !rl.Allow(ip) {
		t.Error("request after refill should be allowed")
	}
}

func TestRateLimiter_LRUEviction(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 10, 2, slog.Default())
	defer rl.Stop()

	rl.Allow("ip-1")
	rl.Allow("ip-2")
	rl.Allow("ip-1") // ip-1 becomes most recently used
	rl.Allow("ip-3") // should evict ip-2

	rl.mu.RLock()
	_, has1 := rl.limiters["ip-1"]
	_, has2 := rl.limiters["ip-2"]
	_, has3 := rl.limiters["ip-3"]
	rl.mu.RUnlock()

	if !has1 || has2 || !has3 {
		t.Errorf("tracked = {ip-1:%v ip-2:%v ip-3:%v}, want ip-2 evicted", has1, has2, has3)
	}

	stats := rl.GetStats()
	if stats.TotalEvictions != 1 {
		t.Errorf("TotalEvictions = %d, want 1", stats.TotalEvictions)
	}
	if stats.CurrentEntries != 2 {
		t.Errorf("CurrentEntries = %d, want 2", stats.CurrentEntries)
	}
}

func TestRateLimiter_CleanupRemovesIdle(t *testing.T) {
	rl := NewRateLimiter(10, 10, slog.Default())
	defer rl.Stop()

	rl.Allow("idle-ip")
	rl.Allow("active-ip")

	rl.mu.Lock()
	for id, elem := range rl.limiters {
		if id == "idle-ip" {
			elem.Value.(*rateLimiterEntry).lastAccess = time.Now().Add(-time.Hour)
		}
	}
	rl.mu.Unlock()

	rl.Cleanup(30 * time.Minute)

	rl.mu.RLock()
	_, hasIdle := rl.limiters["idle-ip"]
	_, hasActive := rl.limiters["active-ip"]
	rl.mu.RUnlock()

	if hasIdle {
		t.Error("idle entry should be removed by cleanup")
	}
	if !hasActive {
		t.Error("active entry should survive cleanup")
	}
}

func TestRateLimiter_GetStats(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 10, 4, slog.Default())
	defer rl.Stop()

	rl.Allow("ip-1")
	rl.Allow("ip-2")

	stats := rl.GetStats()
	if stats.CurrentEntries != 2 {
		t.Errorf("CurrentEntries = %d, want 2", stats.CurrentEntries)
	}
	if stats.MaxEntries != 4 {
		t.Errorf("MaxEntries = %d, want 4", stats.MaxEntries)
	}
	if stats.MemoryPressure != 50.0 {
		t.Errorf("MemoryPressure = %.1f, want 50.0", stats.MemoryPressure)
	}
}

func TestRateLimiter_ConcurrentAllow(t *testing.T) {
	rl := NewRateLimiter(100, 100, slog.Default())
	defer rl.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ip := fmt.Sprintf("203.0.113.%d", n)
			for j := 0; j < 20; j++ {
				rl.Allow(ip)
			}
		}(i)
	}
	wg.Wait()

	if got := rl.GetStats().CurrentEntries; got != 10 {
		t.Errorf("CurrentEntries = %d, want 10", got)
	}
}
