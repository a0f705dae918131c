package scheduler

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidTriggerTime = errors.New("scheduler: invalid trigger time")
	ErrStopped            = errors.New("scheduler: engine stopped")
)

// DoseEvent fires when a reminder's configured time of day arrives.
type DoseEvent struct {
	ReminderID   string
	MedicineName string
	TimeOfDay    string
	TriggerAt    time.Time
}

type queueItem struct {
	event DoseEvent
	seq   uint64
}

type doseQueue []queueItem

func (q doseQueue) Len() int { return len(q) }

// Equal trigger times fire in schedule order.
func (q doseQueue) Less(i, j int) bool {
	if q[i].event.TriggerAt.Equal(q[j].event.TriggerAt) {
		return q[i].seq < q[j].seq
	}
	return q[i].event.TriggerAt.Before(q[j].event.TriggerAt)
}

func (q doseQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *doseQueue) Push(x any) { *q = append(*q, x.(queueItem)) }

func (q *doseQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

type Engine struct {
	mu      sync.Mutex
	queue   doseQueue
	seq     uint64
	out     chan DoseEvent
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	now     func() time.Time
	started bool
	stopped bool
	dropped uint64
}

func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		queue:  make(doseQueue, 0),
		out:    make(chan DoseEvent, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		now:    time.Now,
	}
}

// C delivers fired events. It is closed after Stop.
func (e *Engine) C() <-chan DoseEvent {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	heap.Init(&e.queue)
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

func (e *Engine) Schedule(ev DoseEvent) error {
	if ev.TriggerAt.IsZero() {
		return ErrInvalidTriggerTime
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}
	e.push(ev)
	e.signalWakeup()
	return nil
}

// Replace swaps the whole pending queue for events. Events with a zero
// trigger time are rejected before anything is replaced.
func (e *Engine) Replace(events []DoseEvent) error {
	for _, ev := range events {
		if ev.TriggerAt.IsZero() {
			return ErrInvalidTriggerTime
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}
	e.queue = e.queue[:0]
	for _, ev := range events {
		e.push(ev)
	}
	e.signalWakeup()
	return nil
}

// Pending reports how many events are still queued.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

// push requires e.mu.
func (e *Engine) push(ev DoseEvent) {
	e.seq++
	heap.Push(&e.queue, queueItem{event: ev, seq: e.seq})
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

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

		wait := next.TriggerAt.Sub(e.now())
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

func (e *Engine) peek() (DoseEvent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return DoseEvent{}, false
	}
	return e.queue[0].event, true
}

func (e *Engine) popDue(now time.Time) []DoseEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []DoseEvent
	for len(e.queue) > 0 {
		if e.queue[0].event.TriggerAt.After(now) {
			break
		}
		item := heap.Pop(&e.queue).(queueItem)
		out = append(out, item.event)
	}
	return out
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
