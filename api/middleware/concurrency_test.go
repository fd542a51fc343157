package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// gatedRouter wires the cap in front of a handler that blocks until release
// is closed, tracking the peak number of handlers running at once.
func gatedRouter(limit int, inflight, peak *atomic.Int32, release chan struct{}) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ConcurrencyCap(limit))
	r.POST("/scrape", func(c *gin.Context) {
		n := inflight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		inflight.Add(-1)
		c.Status(http.StatusOK)
	})
	return r
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestConcurrencyCapBoundsParallelism(t *testing.T) {
	var inflight, peak atomic.Int32
	release := make(chan struct{})
	r := gatedRouter(2, &inflight, &peak, release)

	const requests = 5
	codes := make([]int, requests)
	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scrape", nil))
			codes[i] = w.Code
		}(i)
	}

	waitFor(t, func() bool { return inflight.Load() == 2 })
	// Give the queued requests a moment to overrun the cap if they could.
	time.Sleep(50 * time.Millisecond)
	if got := inflight.Load(); got != 2 {
		t.Errorf("inflight = %d while the gate is closed, want 2", got)
	}

	close(release)
	wg.Wait()

	if peak.Load() > 2 {
		t.Errorf("peak concurrent handlers = %d, want <= 2", peak.Load())
	}
	for i, code := range codes {
		if code != http.StatusOK {
			t.Errorf("request %d status = %d, want %d", i, code, http.StatusOK)
		}
	}
}

func TestConcurrencyCapRejectsCanceledWaiter(t *testing.T) {
	var inflight, peak atomic.Int32
	release := make(chan struct{})
	r := gatedRouter(1, &inflight, &peak, release)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scrape", nil))
	}()
	waitFor(t, func() bool { return inflight.Load() == 1 })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scrape", nil).WithContext(ctx))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d for a waiter whose request died", w.Code, http.StatusServiceUnavailable)
	}

	close(release)
	wg.Wait()
}

func TestConcurrencyCapDisabled(t *testing.T) {
	var inflight, peak atomic.Int32
	release := make(chan struct{})
	close(release)
	r := gatedRouter(0, &inflight, &peak, release)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scrape", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d with the cap disabled", w.Code, http.StatusOK)
	}
}
