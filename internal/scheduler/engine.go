// Package scheduler delivers keyed, versioned timer events. Arming a key again
// supersedes whatever was pending for it, which is how debounces and status
// reverts are expressed.
package scheduler

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidDelay  = errors.New("scheduler: invalid delay")
	ErrEngineStopped = errors.New("scheduler: engine stopped")
)

type Key string

type Event struct {
	Key     Key
	Version uint64
	FireAt  time.Time
}

// timerHeap orders pending arms by fire time. Superseded entries stay in the
// heap until they reach the top and are discarded.
type timerHeap []Event

func (h timerHeap) Len() int           { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].FireAt.Before(h[j].FireAt) }
func (h timerHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) { *h = append(*h, x.(Event)) }

func (h *timerHeap) Pop() any {
	old := *h
	ev := old[len(old)-1]
	*h = old[:len(old)-1]
	return ev
}

type Engine struct {
	mu       sync.Mutex
	pending  timerHeap
	versions map[Key]uint64
	armed    map[Key]bool
	out      chan Event
	wakeup   chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
	now      func() time.Time
	started  bool
	stopped  bool
	dropped  uint64
}

func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		pending:  make(timerHeap, 0),
		versions: make(map[Key]uint64),
		armed:    make(map[Key]bool),
		out:      make(chan Event, bufferSize),
		wakeup:   make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		now:      time.Now,
	}
}

func (e *Engine) C() <-chan Event {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	heap.Init(&e.pending)
	go e.loop()
}

func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.stopped = true
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

// Arm schedules key to fire after delay and returns the new version. Any
// earlier pending fire for the same key is discarded.
func (e *Engine) Arm(key Key, delay time.Duration) (uint64, error) {
	if delay < 0 {
		return 0, ErrInvalidDelay
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return 0, ErrEngineStopped
	}

	e.versions[key]++
	version := e.versions[key]
	e.armed[key] = true
	heap.Push(&e.pending, Event{Key: key, Version: version, FireAt: e.now().Add(delay)})
	e.signalWakeup()
	return version, nil
}

// Cancel drops the pending fire for key, if any.
func (e *Engine) Cancel(key Key) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.armed[key] {
		return
	}
	e.versions[key]++
	e.armed[key] = false
	e.signalWakeup()
}

// Current reports whether ev is still the latest arming of its key. Consumers
// use it to discard events that were superseded after delivery.
func (e *Engine) Current(ev Event) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.versions[ev.Key] == ev.Version
}

func (e *Engine) Pending(key Key) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.armed[key]
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

func (e *Engine) loop() {
	defer close(e.doneCh)

	var timer *time.Timer
	for {
		next, hasNext := e.peek()
		if !hasNext {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		wait := next.FireAt.Sub(e.now())
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			for _, ev := range e.popDue(e.now()) {
				select {
				case e.out <- ev:
				default:
					atomic.AddUint64(&e.dropped, 1)
				}
			}
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			stopTimer(timer)
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

// peek returns the earliest live entry, discarding superseded ones on the way.
func (e *Engine) peek() (Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for len(e.pending) > 0 {
		head := e.pending[0]
		if e.versions[head.Key] == head.Version {
			return head, true
		}
		heap.Pop(&e.pending)
	}
	return Event{}, false
}

func (e *Engine) popDue(now time.Time) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	var due []Event
	for len(e.pending) > 0 {
		next := e.pending[0]
		if next.FireAt.After(now) {
			break
		}
		heap.Pop(&e.pending)
		if e.versions[next.Key] != next.Version {
			continue
		}
		e.armed[next.Key] = false
		due = append(due, next)
	}
	return due
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
