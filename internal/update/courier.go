package update

import (
	"sync"

	"github.com/adamancini/sideload/internal/logger"
)

// Outcome is the single terminal value of an invocation: either a Result or a
// *Rejection in Err, never both.
type Outcome struct {
	Result Result
	Err    error
}

// Call carries the outcome of one invocation back to its caller. The first
// Resolve or Reject wins; later ones are dropped and logged.
type Call struct {
	once      sync.Once
	done      chan struct{}
	outcome   Outcome
	onDeliver func(Outcome)
	log       logger.Logger
}

func newCall(log logger.Logger, onDeliver func(Outcome)) *Call {
	if log == nil {
		log = logger.Nop()
	}
	return &Call{done: make(chan struct{}), onDeliver: onDeliver, log: log}
}

// Resolve delivers a result. It reports whether this was the delivery.
func (c *Call) Resolve(r Result) bool {
	return c.deliver(Outcome{Result: r})
}

// Reject delivers a rejection. It reports whether this was the delivery.
func (c *Call) Reject(rej *Rejection) bool {
	return c.deliver(Outcome{Err: rej})
}

func (c *Call) deliver(o Outcome) bool {
	delivered := false
	c.once.Do(func() {
		c.outcome = o
		delivered = true
		if c.onDeliver != nil {
			c.onDeliver(o)
		}
		close(c.done)
	})
	if !delivered {
		c.log.Errorf("dropping second terminal result for one invocation: %+v", o)
	}
	return delivered
}

// Done is closed once the outcome is available.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the outcome is delivered.
func (c *Call) Wait() (Result, error) {
	<-c.done
	return c.outcome.Result, c.outcome.Err
}
