package ledger

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Gate serializes ledger writes per channel and caps the number of channels
// being written concurrently.
type Gate struct {
	global *semaphore.Weighted

	mu       sync.Mutex
	channels map[string]*channelLock
}

type channelLock struct {
	sem  *semaphore.Weighted
	refs int
}

// NewGate returns a gate allowing maxConcurrent channels in flight.
func NewGate(maxConcurrent int) *Gate {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Gate{
		global:   semaphore.NewWeighted(int64(maxConcurrent)),
		channels: make(map[string]*channelLock),
	}
}

// Do runs fn while holding the lock for channelID.
func (g *Gate) Do(ctx context.Context, channelID string, fn func(context.Context) error) error {
	lock := g.acquireRef(channelID)
	defer g.releaseRef(channelID, lock)

	// Channel first: waiters on a busy channel must not hold global slots.
	if err := lock.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer lock.sem.Release(1)

	if err := g.global.Acquire(ctx, 1); err != nil {
		return err
	}
	defer g.global.Release(1)

	return fn(ctx)
}

func (g *Gate) acquireRef(channelID string) *channelLock {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.channels[channelID]
	if !ok {
		lock = &channelLock{sem: semaphore.NewWeighted(1)}
		g.channels[channelID] = lock
	}
	lock.refs++
	return lock
}

func (g *Gate) releaseRef(channelID string, lock *channelLock) {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(g.channels, channelID)
	}
}
