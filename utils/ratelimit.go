package utils

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyedRateLimiter manages per-key token buckets. Each unique key gets its
// own limiter; idle ones are dropped by a background sweep.
type KeyedRateLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*keyedLimiter
	limit    rate.Limit
	burst    int
	idle     time.Duration

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type keyedLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewWindowLimiter allows burst events per window for each key, refilling
// one token every window/burst.
func NewWindowLimiter(burst int, window time.Duration) *KeyedRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	krl := &KeyedRateLimiter{
		limiters: make(map[string]*keyedLimiter),
		limit:    rate.Every(window / time.Duration(burst)),
		burst:    burst,
		idle:     2 * window,
		done:     make(chan struct{}),
	}
	krl.wg.Add(1)
	go krl.cleanup()
	return krl
}

// Take consumes a token for key. When none is available it consumes nothing
// and returns how long until one will be. undo returns the consumed token.
func (krl *KeyedRateLimiter) Take(key string) (bool, time.Duration, func()) {
	lim := krl.getLimiter(key)
	now := time.Now()
	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return false, 0, nil
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, d, nil
	}
	// CancelAt ignores times after the reservation acted.
	return true, 0, func() { r.CancelAt(now) }
}

func (krl *KeyedRateLimiter) getLimiter(key string) *rate.Limiter {
	now := time.Now()

	krl.mu.RLock()
	kl, exists := krl.limiters[key]
	krl.mu.RUnlock()
	if exists {
		krl.mu.Lock()
		kl.lastSeen = now
		krl.mu.Unlock()
		return kl.lim
	}

	krl.mu.Lock()
	defer krl.mu.Unlock()
	// Double-check after acquiring write lock
	if kl, exists = krl.limiters[key]; exists {
		kl.lastSeen = now
		return kl.lim
	}
	kl = &keyedLimiter{lim: rate.NewLimiter(krl.limit, krl.burst), lastSeen: now}
	krl.limiters[key] = kl
	return kl.lim
}

// Len returns the number of tracked keys.
func (krl *KeyedRateLimiter) Len() int {
	krl.mu.RLock()
	defer krl.mu.RUnlock()
	return len(krl.limiters)
}

// Stop shuts down the cleanup goroutine.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() {
		close(krl.done)
	})
	krl.wg.Wait()
}

func (krl *KeyedRateLimiter) cleanup() {
	defer krl.wg.Done()
	ticker := time.NewTicker(krl.idle)
	defer ticker.Stop()
	for {
		select {
		case <-krl.done:
			return
		case <-ticker.C:
			krl.sweep(time.Now())
		}
	}
}

// sweep drops limiters idle for longer than the window, which by then are
// full again and indistinguishable from new ones.
func (krl *KeyedRateLimiter) sweep(now time.Time) {
	krl.mu.Lock()
	defer krl.mu.Unlock()
	for key, kl := range krl.limiters {
		if now.Sub(kl.lastSeen) > krl.idle {
			delete(krl.limiters, key)
		}
	}
}
