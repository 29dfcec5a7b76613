package repository

import "sync"

// dayLocks is a keyed mutex; entries are dropped when nobody holds or waits.
type dayLocks struct {
	mu    sync.Mutex
	locks map[string]*dayLock
}

type dayLock struct {
	mu   sync.Mutex
	refs int
}

func newDayLocks() *dayLocks {
	return &dayLocks{locks: make(map[string]*dayLock)}
}

// lock blocks until key is free and returns its unlock func.
func (d *dayLocks) lock(key string) func() {
	d.mu.Lock()
	l, ok := d.locks[key]
	if !ok {
		l = &dayLock{}
		d.locks[key] = l
	}
	l.refs++
	d.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		d.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(d.locks, key)
		}
		d.mu.Unlock()
	}
}

func (d *dayLocks) size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.locks)
}
