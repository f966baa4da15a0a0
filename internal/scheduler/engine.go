package scheduler

import (
	"container/heap"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"memo/internal/model"
)

var (
	ErrInvalidTriggerTime = errors.New("scheduler: invalid trigger time")
	ErrStopped            = errors.New("scheduler: engine stopped")
)

// Event is a reminder ready for delivery. DueNow marks reminders whose
// trigger time had already passed when the task was scheduled.
type Event struct {
	TaskID    string
	Title     string
	Message   string
	TriggerAt time.Time
	DueNow    bool
}

type queueItem struct {
	event Event
	seq   uint64
}

type priorityQueue []queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].event.TriggerAt.Before(pq[j].event.TriggerAt)
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *priorityQueue) Push(x any) {
	*pq = append(*pq, x.(queueItem))
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}

// Engine delivers reminder events at their trigger times. Each task holds
// at most one live reminder; rescheduling supersedes the previous one and
// Cancel retires it. Sends on the output channel never block the timer
// loop; events the consumer cannot keep up with are counted as dropped.
type Engine struct {
	mu      sync.Mutex
	queue   priorityQueue
	live    map[string]uint64
	nextSeq uint64
	out     chan Event
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	dropped uint64
}

func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		queue:  make(priorityQueue, 0),
		live:   make(map[string]uint64),
		out:    make(chan Event, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
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
	heap.Init(&e.queue)
	go e.loop()
}

func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

// ScheduleTask derives the reminder for a task and queues it, replacing
// any reminder the task already had. Tasks without an enabled reminder or
// a due time only cancel their previous reminder. When the trigger time
// has already passed the event is emitted immediately with DueNow set.
func (e *Engine) ScheduleTask(t model.Task, now time.Time) error {
	if !t.ReminderEnabled || t.DueTime == nil {
		e.Cancel(t.ID)
		return nil
	}

	trigger := t.DueTime.Add(-time.Duration(t.ReminderMinutes) * time.Minute)

	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return ErrStopped
	}

	e.nextSeq++
	seq := e.nextSeq

	if !trigger.After(now) {
		delete(e.live, t.ID)
		e.mu.Unlock()
		e.emit(Event{
			TaskID:    t.ID,
			Title:     "Task Due",
			Message:   fmt.Sprintf("Task '%s' is due now!", t.Title),
			TriggerAt: trigger,
			DueNow:    true,
		})
		return nil
	}

	e.live[t.ID] = seq
	heap.Push(&e.queue, queueItem{
		event: Event{
			TaskID:    t.ID,
			Title:     "Task Reminder",
			Message:   fmt.Sprintf("Task '%s' is due in %d minutes", t.Title, t.ReminderMinutes),
			TriggerAt: trigger,
		},
		seq: seq,
	})
	e.mu.Unlock()
	e.signalWakeup()
	return nil
}

// Schedule queues an event as-is. Events with a TaskID take that task's
// reminder slot just like ScheduleTask.
func (e *Engine) Schedule(ev Event) error {
	if ev.TriggerAt.IsZero() {
		return ErrInvalidTriggerTime
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}

	e.nextSeq++
	if ev.TaskID != "" {
		e.live[ev.TaskID] = e.nextSeq
	}
	heap.Push(&e.queue, queueItem{event: ev, seq: e.nextSeq})
	e.signalWakeup()
	return nil
}

// Cancel retires the task's pending reminder. Queued items are skipped
// lazily when they reach the head of the queue.
func (e *Engine) Cancel(taskID string) {
	e.mu.Lock()
	delete(e.live, taskID)
	e.mu.Unlock()
}

// Pending reports how many tasks have a live scheduled reminder.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.live)
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
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

		wait := time.Until(next.TriggerAt)
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			due := e.popDue(time.Now().UTC())
			for _, ev := range due {
				e.emit(ev)
			}
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			if timer != nil {
				stopTimer(timer)
			}
			return
		}
	}
}

func (e *Engine) emit(ev Event) {
	select {
	case e.out <- ev:
	default:
		atomic.AddUint64(&e.dropped, 1)
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) peek() (Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for len(e.queue) > 0 {
		head := e.queue[0]
		if e.superseded(head) {
			heap.Pop(&e.queue)
			continue
		}
		return head.event, true
	}
	return Event{}, false
}

func (e *Engine) popDue(now time.Time) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Event, 0)
	for len(e.queue) > 0 {
		head := e.queue[0]
		if e.superseded(head) {
			heap.Pop(&e.queue)
			continue
		}
		if head.event.TriggerAt.After(now) {
			break
		}
		item := heap.Pop(&e.queue).(queueItem)
		if item.event.TaskID != "" {
			delete(e.live, item.event.TaskID)
		}
		out = append(out, item.event)
	}
	return out
}

// superseded reports whether the item was cancelled or replaced by a newer
// reminder for the same task. Caller holds the lock.
func (e *Engine) superseded(item queueItem) bool {
	if item.event.TaskID == "" {
		return false
	}
	seq, ok := e.live[item.event.TaskID]
	return !ok || seq != item.seq
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
