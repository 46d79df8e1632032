package services

import (
	"context"
	"sync"
)

// LocalScopeLocks is an in-process keyed mutex whose waits honor ctx.
type LocalScopeLocks struct {
	mu    sync.Mutex
	slots map[string]*scopeSlot
}

type scopeSlot struct {
	ch   chan struct{}
	refs int
}

func NewLocalScopeLocks() *LocalScopeLocks {
	return &LocalScopeLocks{slots: map[string]*scopeSlot{}}
}

var defaultScopeLocks = NewLocalScopeLocks()

func (l *LocalScopeLocks) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &scopeSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		l.drop(key, slot)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.ch
			l.drop(key, slot)
		})
	}, nil
}

func (l *LocalScopeLocks) drop(key string, slot *scopeSlot) {
	l.mu.Lock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
	l.mu.Unlock()
}

// ChainLocks acquires each locker in order and releases in reverse.
type ChainLocks []ScopeLocker

func (c ChainLocks) Acquire(ctx context.Context, key string) (func(), error) {
	releases := make([]func(), 0, len(c))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, locker := range c {
		release, err := locker.Acquire(ctx, key)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}
