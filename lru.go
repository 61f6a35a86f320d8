package tilekit

import (
	"container/list"
	"time"
)

// lruEntry is the bookkeeping for one cached key.
type lruEntry struct {
	key        string
	size       int64
	lastAccess time.Time
}

// byteLRU tracks keys against a byte budget in least-recently-used order.
// The list front is the most recently used key. byteLRU is not safe for
// concurrent use; callers hold their own lock.
type byteLRU struct {
	capacity  int64
	used      int64
	ll        *list.List
	items     map[string]*list.Element
	evictions uint64
	now       func() time.Time
}

func newByteLRU(capacity int64, now func() time.Time) *byteLRU {
	if now == nil {
		now = time.Now
	}
	return &byteLRU{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
		now:      now,
	}
}

func (l *byteLRU) len() int { return l.ll.Len() }

func (l *byteLRU) get(key string) (*lruEntry, bool) {
	el, ok := l.items[key]
	if !ok {
		return nil, false
	}
	return el.Value.(*lruEntry), true
}

// touch marks key as most recently used.
func (l *byteLRU) touch(key string) bool {
	el, ok := l.items[key]
	if !ok {
		return false
	}
	el.Value.(*lruEntry).lastAccess = l.now()
	l.ll.MoveToFront(el)
	return true
}

// add inserts or resizes key as most recently used at time at, then evicts
// from the back until the budget holds. key itself is never evicted, so
// callers must reject sizes above capacity first. Returns the evicted keys.
func (l *byteLRU) add(key string, size int64, at time.Time) []string {
	if el, ok := l.items[key]; ok {
		e := el.Value.(*lruEntry)
		l.used += size - e.size
		e.size = size
		e.lastAccess = at
		l.ll.MoveToFront(el)
	} else {
		l.items[key] = l.ll.PushFront(&lruEntry{key: key, size: size, lastAccess: at})
		l.used += size
	}
	return l.evictOver(l.capacity, key)
}

// evictOver removes least recently used keys other than keep until used
// <= limit.
func (l *byteLRU) evictOver(limit int64, keep string) []string {
	var evicted []string
	for l.used > limit {
		el := l.ll.Back()
		if el == nil {
			break
		}
		e := el.Value.(*lruEntry)
		if e.key == keep {
			prev := el.Prev()
			if prev == nil {
				break
			}
			el = prev
			e = el.Value.(*lruEntry)
		}
		l.ll.Remove(el)
		delete(l.items, e.key)
		l.used -= e.size
		l.evictions++
		evicted = append(evicted, e.key)
	}
	return evicted
}

func (l *byteLRU) remove(key string) bool {
	el, ok := l.items[key]
	if !ok {
		return false
	}
	e := el.Value.(*lruEntry)
	l.ll.Remove(el)
	delete(l.items, key)
	l.used -= e.size
	return true
}

func (l *byteLRU) clear() {
	l.ll.Init()
	l.items = make(map[string]*list.Element)
	l.used = 0
}
