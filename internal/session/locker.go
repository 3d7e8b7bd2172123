package session

import "sync"

// Locker serializes turns of the same user while letting different users
// proceed in parallel. Entries are dropped once no turn holds or waits.
type Locker struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewLocker returns an empty Locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[int64]*userLock)}
}

// Lock blocks until userID is free and returns the matching unlock func.
func (l *Locker) Lock(userID int64) (unlock func()) {
	l.mu.Lock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			ul.mu.Unlock()
			l.mu.Lock()
			ul.refs--
			if ul.refs == 0 {
				delete(l.locks, userID)
			}
			l.mu.Unlock()
		})
	}
}

// Held returns the number of users with a turn in flight or queued.
func (l *Locker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
