package update

import (
	"sync"

	"github.com/adamancini/sideload/internal/logger"
)

// Looper is the foreground context: one goroutine running posted tasks in order.
// A task accepted by Post always runs, even if Quit is called afterwards.
type Looper struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	closed  bool
	stopped chan struct{}
	log     logger.Logger
}

// NewLooper creates a looper. Run must be called for tasks to execute.
func NewLooper(log logger.Logger) *Looper {
	if log == nil {
		log = logger.Nop()
	}
	l := &Looper{stopped: make(chan struct{}), log: log}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Start runs the loop on a new goroutine.
func (l *Looper) Start() *Looper {
	go l.Run()
	return l
}

// Run executes tasks until Quit is called and the queue is drained.
func (l *Looper) Run() {
	defer close(l.stopped)
	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.cond.Wait()
		}
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		task := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.exec(task)
	}
}

func (l *Looper) exec(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Errorf("foreground task panicked: %v", r)
		}
	}()
	task()
}

// Post queues task. It returns false once the looper is quitting.
func (l *Looper) Post(task func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.queue = append(l.queue, task)
	l.cond.Signal()
	return true
}

// Quit stops accepting tasks. Queued tasks still run.
func (l *Looper) Quit() {
	l.mu.Lock()
	l.closed = true
	l.cond.Broadcast()
	l.mu.Unlock()
}

// Stopped is closed when Run has returned.
func (l *Looper) Stopped() <-chan struct{} {
	return l.stopped
}
